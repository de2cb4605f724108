package tools

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/lexcodex/autoloop/framework"
)

// ExecuteShellCommand runs a shell command line inside the workspace.
type ExecuteShellCommand struct {
	// Shell is the interpreter invoked with "-c"; defaults to sh.
	Shell   string
	Workdir string
	Timeout time.Duration
	Runner  framework.CommandRunner
}

func (c *ExecuteShellCommand) Name() string        { return "execute_shell" }
func (c *ExecuteShellCommand) Description() string { return "Execute Shell Command, non-interactive commands only" }
func (c *ExecuteShellCommand) Parameters() []framework.CommandParameter {
	return []framework.CommandParameter{{Name: "command_line", Type: "string", Required: true}}
}
func (c *ExecuteShellCommand) Execute(ctx context.Context, args map[string]any) (string, error) {
	line, err := stringArg(args, "command_line")
	if err != nil {
		return "", err
	}
	shell := c.Shell
	if shell == "" {
		shell = "sh"
	}
	stdout, stderr, err := c.run(ctx, []string{shell, "-c", line})
	out := fmt.Sprintf("STDOUT:\n%s\nSTDERR:\n%s", stdout, stderr)
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return out, nil
	case errors.As(err, &exitErr):
		return fmt.Sprintf("%s\nEXIT CODE: %d", out, exitErr.ExitCode()), nil
	default:
		return "", err
	}
}

func (c *ExecuteShellCommand) run(ctx context.Context, args []string) (string, string, error) {
	if c.Runner == nil {
		return "", "", fmt.Errorf("command runner missing")
	}
	req := framework.CommandRequest{
		Workdir: c.Workdir,
		Args:    args,
		Timeout: c.Timeout,
	}
	return c.Runner.Run(ctx, req)
}
