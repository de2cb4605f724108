package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/autoloop/framework"
)

type recordingRunner struct {
	req    framework.CommandRequest
	stdout string
	err    error
}

func (r *recordingRunner) Run(ctx context.Context, req framework.CommandRequest) (string, string, error) {
	r.req = req
	return r.stdout, "", r.err
}

func TestExecuteShellUsesRunner(t *testing.T) {
	runner := &recordingRunner{stdout: "hi\n"}
	out, err := (&ExecuteShellCommand{Runner: runner}).Execute(context.Background(), map[string]any{"command_line": "echo hi"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sh", "-c", "echo hi"}, runner.req.Args)
	assert.Equal(t, "STDOUT:\nhi\n\nSTDERR:\n", out)
}

func TestExecuteShellInWorkspace(t *testing.T) {
	w := newTestWorkspace(t)
	runner, err := framework.NewLocalCommandRunner(w.Root)
	require.NoError(t, err)
	cmd := &ExecuteShellCommand{Runner: runner}

	out, err := cmd.Execute(context.Background(), map[string]any{"command_line": "pwd; echo oops >&2; exit 3"})
	require.NoError(t, err)
	assert.Contains(t, out, w.Root)
	assert.Contains(t, out, "STDERR:\noops")
	assert.Contains(t, out, "EXIT CODE: 3")
}

func TestExecuteShellWithoutRunner(t *testing.T) {
	_, err := (&ExecuteShellCommand{}).Execute(context.Background(), map[string]any{"command_line": "true"})
	assert.Error(t, err)
}
