package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/autoloop/agents"
	"github.com/lexcodex/autoloop/framework"
	"github.com/lexcodex/autoloop/persistence"
)

func commandNames(r *framework.CommandRegistry) []string {
	var names []string
	for _, cmd := range r.All() {
		names = append(names, cmd.Name())
	}
	return names
}

func TestBuildRegistryAllCommands(t *testing.T) {
	w := newTestWorkspace(t)
	runner, err := framework.NewLocalCommandRunner(w.Root)
	require.NoError(t, err)
	chat := &summaryChat{}
	registry, err := BuildRegistry(Options{
		Workspace: w,
		Runner:    runner,
		Memory:    persistence.NoMemory{},
		Agents:    agents.NewManager(chat.open),
		Opener:    chat.open,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"read_file", "write_to_file", "append_to_file", "delete_file", "search_files",
		"execute_shell", "browse_website", "memory_add",
		"start_agent", "message_agent", "list_agents", "delete_agent",
		"do_nothing", "task_complete",
	}, commandNames(registry))
}

func TestBuildRegistryMinimal(t *testing.T) {
	registry, err := BuildRegistry(Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"browse_website", "do_nothing", "task_complete"}, commandNames(registry))
	assert.Equal(t, "No action performed.", framework.Dispatch(context.Background(), registry, "do_nothing", nil))
	assert.Equal(t, "Shutting down...", framework.Dispatch(context.Background(), registry, "task_complete", map[string]any{"reason": "done"}))
}

func TestAgentCommands(t *testing.T) {
	chat := &summaryChat{}
	registry, err := BuildRegistry(Options{Agents: agents.NewManager(chat.open)})
	require.NoError(t, err)
	ctx := context.Background()

	out := framework.Dispatch(ctx, registry, "start_agent", map[string]any{"name": "helper", "task": "research", "prompt": "find things"})
	require.True(t, strings.HasPrefix(out, "Agent helper created with key "), out)
	assert.True(t, strings.HasSuffix(out, ". First response: summary 1"), out)
	key := strings.TrimSuffix(strings.TrimPrefix(out, "Agent helper created with key "), ". First response: summary 1")

	assert.Equal(t, "summary 2", framework.Dispatch(ctx, registry, "message_agent", map[string]any{"key": key, "message": "more"}))
	assert.Equal(t, "Invalid key, cannot message agent.", framework.Dispatch(ctx, registry, "message_agent", map[string]any{"key": "nope", "message": "x"}))
	assert.Equal(t, "List of agents:\n"+key+": research", framework.Dispatch(ctx, registry, "list_agents", nil))
	assert.Equal(t, "Agent "+key+" deleted.", framework.Dispatch(ctx, registry, "delete_agent", map[string]any{"key": key}))
	assert.Equal(t, "Failed to delete agent "+key+".", framework.Dispatch(ctx, registry, "delete_agent", map[string]any{"key": key}))
	assert.Equal(t, "List of agents:", framework.Dispatch(ctx, registry, "list_agents", nil))
}

func TestMemoryAddCommand(t *testing.T) {
	mem, err := persistence.NewLocalMemory("")
	require.NoError(t, err)
	registry, err := BuildRegistry(Options{Memory: mem})
	require.NoError(t, err)
	ctx := context.Background()

	out := framework.Dispatch(ctx, registry, "memory_add", map[string]any{"string": "the sky is blue"})
	assert.Equal(t, `Committing memory with string "the sky is blue"`, out)
	got, err := mem.GetRelevant(ctx, "sky", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"the sky is blue"}, got)

	out = framework.Dispatch(ctx, registry, "memory_add", map[string]any{})
	assert.Contains(t, out, "threw the following error: missing argument 'string'")
}
