package framework

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// CommandRequest captures process execution metadata.
type CommandRequest struct {
	Workdir string
	Args    []string
	Env     []string
	Input   string
	Timeout time.Duration
}

// CommandRunner executes external processes on behalf of commands.
type CommandRunner interface {
	Run(ctx context.Context, req CommandRequest) (stdout string, stderr string, err error)
}

// LocalCommandRunner runs processes directly on the host, confined to a
// working directory inside the agent workspace.
type LocalCommandRunner struct {
	Workspace      string
	DefaultTimeout time.Duration
}

// NewLocalCommandRunner builds a runner rooted at workspace.
func NewLocalCommandRunner(workspace string) (*LocalCommandRunner, error) {
	if workspace == "" {
		return nil, errors.New("workspace required")
	}
	abs, err := filepath.Abs(workspace)
	if err != nil {
		return nil, err
	}
	return &LocalCommandRunner{Workspace: filepath.Clean(abs), DefaultTimeout: 2 * time.Minute}, nil
}

// Run executes the requested command and captures its output.
func (r *LocalCommandRunner) Run(ctx context.Context, req CommandRequest) (string, string, error) {
	if r == nil {
		return "", "", errors.New("command runner missing")
	}
	if len(req.Args) == 0 {
		return "", "", errors.New("command arguments required")
	}
	workdir, err := r.workdir(req.Workdir)
	if err != nil {
		return "", "", err
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.DefaultTimeout
	}
	execCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()
	cmd := exec.CommandContext(execCtx, req.Args[0], req.Args[1:]...)
	cmd.Dir = workdir
	if len(req.Env) > 0 {
		cmd.Env = append(cmd.Environ(), req.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if req.Input != "" {
		cmd.Stdin = strings.NewReader(req.Input)
	}
	err = cmd.Run()
	return stdout.String(), stderr.String(), err
}

func (r *LocalCommandRunner) workdir(dir string) (string, error) {
	if dir == "" {
		return r.Workspace, nil
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(r.Workspace, dir)
	}
	dir = filepath.Clean(dir)
	rel, err := filepath.Rel(r.Workspace, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.New("workdir escapes workspace")
	}
	return dir, nil
}
