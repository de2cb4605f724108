package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/lexcodex/autoloop/framework"
)

var (
	errBinaryFile    = errors.New("binary file detected")
	errOutsideRoot   = errors.New("path escapes workspace")
	errMissingArg    = errors.New("missing argument")
	errWorkspaceRoot = errors.New("workspace root required")
)

// Workspace confines file commands to one directory tree.
type Workspace struct {
	Root string
	lock FileLock
}

// NewWorkspace creates root when needed and returns a workspace on it.
func NewWorkspace(root string) (*Workspace, error) {
	if root == "" {
		return nil, errWorkspaceRoot
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Workspace{Root: filepath.Clean(abs)}, nil
}

// Resolve maps a model supplied path into the workspace.
func (w *Workspace) Resolve(path string) (string, error) {
	if w == nil || w.Root == "" {
		return "", errWorkspaceRoot
	}
	var full string
	if filepath.IsAbs(path) {
		full = filepath.Clean(path)
	} else {
		full = filepath.Join(w.Root, path)
	}
	rel, err := filepath.Rel(w.Root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", errOutsideRoot, path)
	}
	return full, nil
}

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", fmt.Errorf("%w '%s'", errMissingArg, name)
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return framework.Stringify(v), nil
}

func optionalArg(args map[string]any, name, fallback string) string {
	s, err := stringArg(args, name)
	if err != nil || s == "" {
		return fallback
	}
	return s
}

// ReadFileCommand returns a text file's contents.
type ReadFileCommand struct {
	Workspace *Workspace
}

func (c *ReadFileCommand) Name() string        { return "read_file" }
func (c *ReadFileCommand) Description() string { return "Read file" }
func (c *ReadFileCommand) Parameters() []framework.CommandParameter {
	return []framework.CommandParameter{{Name: "file", Type: "string", Required: true}}
}
func (c *ReadFileCommand) Execute(ctx context.Context, args map[string]any) (string, error) {
	name, err := stringArg(args, "file")
	if err != nil {
		return "", err
	}
	path, err := c.Workspace.Resolve(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !isText(data) {
		return "", errBinaryFile
	}
	return string(data), nil
}

// WriteFileCommand replaces a file, creating parent directories.
type WriteFileCommand struct {
	Workspace *Workspace
	// Backup keeps the previous content next to the file as <name>.bak.
	Backup bool
}

func (c *WriteFileCommand) Name() string        { return "write_to_file" }
func (c *WriteFileCommand) Description() string { return "Write to file" }
func (c *WriteFileCommand) Parameters() []framework.CommandParameter {
	return []framework.CommandParameter{
		{Name: "file", Type: "string", Required: true},
		{Name: "text", Type: "string", Required: true},
	}
}
func (c *WriteFileCommand) Execute(ctx context.Context, args map[string]any) (string, error) {
	path, text, err := fileAndText(c.Workspace, args)
	if err != nil {
		return "", err
	}
	err = c.Workspace.lock.Run(func() error {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if c.Backup {
			if _, err := os.Stat(path); err == nil {
				if err := copyFile(path, path+".bak"); err != nil {
					return err
				}
			}
		}
		return os.WriteFile(path, []byte(text), 0o644)
	})
	if err != nil {
		return "", err
	}
	return "File written to successfully.", nil
}

// AppendFileCommand appends text to a file.
type AppendFileCommand struct {
	Workspace *Workspace
}

func (c *AppendFileCommand) Name() string        { return "append_to_file" }
func (c *AppendFileCommand) Description() string { return "Append to file" }
func (c *AppendFileCommand) Parameters() []framework.CommandParameter {
	return []framework.CommandParameter{
		{Name: "file", Type: "string", Required: true},
		{Name: "text", Type: "string", Required: true},
	}
}
func (c *AppendFileCommand) Execute(ctx context.Context, args map[string]any) (string, error) {
	path, text, err := fileAndText(c.Workspace, args)
	if err != nil {
		return "", err
	}
	err = c.Workspace.lock.Run(func() error {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		if _, err := f.WriteString(text); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
	if err != nil {
		return "", err
	}
	return "Text appended successfully.", nil
}

// DeleteFileCommand removes a file.
type DeleteFileCommand struct {
	Workspace *Workspace
}

func (c *DeleteFileCommand) Name() string        { return "delete_file" }
func (c *DeleteFileCommand) Description() string { return "Delete file" }
func (c *DeleteFileCommand) Parameters() []framework.CommandParameter {
	return []framework.CommandParameter{{Name: "file", Type: "string", Required: true}}
}
func (c *DeleteFileCommand) Execute(ctx context.Context, args map[string]any) (string, error) {
	name, err := stringArg(args, "file")
	if err != nil {
		return "", err
	}
	path, err := c.Workspace.Resolve(name)
	if err != nil {
		return "", err
	}
	if path == c.Workspace.Root {
		return "", fmt.Errorf("%w: refusing to delete the workspace", errOutsideRoot)
	}
	if err := c.Workspace.lock.Run(func() error { return os.Remove(path) }); err != nil {
		return "", err
	}
	return "File deleted successfully.", nil
}

// SearchFilesCommand lists the files below a directory, relative to the
// workspace. A pattern containing "/" is matched against the relative path,
// otherwise against the file name.
type SearchFilesCommand struct {
	Workspace *Workspace
}

func (c *SearchFilesCommand) Name() string        { return "search_files" }
func (c *SearchFilesCommand) Description() string { return "Search Files" }
func (c *SearchFilesCommand) Parameters() []framework.CommandParameter {
	return []framework.CommandParameter{
		{Name: "directory", Type: "string"},
		{Name: "pattern", Type: "string"},
	}
}
func (c *SearchFilesCommand) Execute(ctx context.Context, args map[string]any) (string, error) {
	dir, err := c.Workspace.Resolve(optionalArg(args, "directory", "."))
	if err != nil {
		return "", err
	}
	pattern := optionalArg(args, "pattern", "*")
	files := []string{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(c.Workspace.Root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		target := d.Name()
		if strings.Contains(pattern, "/") {
			target = rel
		}
		if framework.MatchGlob(pattern, target) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(files)
	return framework.Stringify(files), nil
}

func fileAndText(w *Workspace, args map[string]any) (string, string, error) {
	name, err := stringArg(args, "file")
	if err != nil {
		return "", "", err
	}
	text, err := stringArg(args, "text")
	if err != nil {
		return "", "", err
	}
	path, err := w.Resolve(name)
	if err != nil {
		return "", "", err
	}
	return path, text, nil
}

func isText(data []byte) bool {
	for _, b := range data {
		if b == 0 {
			return false
		}
	}
	return true
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return nil
}

// FileCommands returns the file commands bound to w.
func FileCommands(w *Workspace) []framework.Command {
	return []framework.Command{
		&ReadFileCommand{Workspace: w},
		&WriteFileCommand{Workspace: w},
		&AppendFileCommand{Workspace: w},
		&DeleteFileCommand{Workspace: w},
		&SearchFilesCommand{Workspace: w},
	}
}

// FileLock serialises writes and deletes.
type FileLock struct {
	mu sync.Mutex
}

func (l *FileLock) Run(fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn()
}
