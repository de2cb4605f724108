package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lexcodex/autoloop/agents"
	"github.com/lexcodex/autoloop/framework"
)

// AgentCommands exposes the sub-agent manager to the model.
func AgentCommands(m *agents.Manager) []framework.Command {
	return []framework.Command{
		&framework.CommandFunc{
			CommandName: "start_agent",
			Summary:     "Start GPT Agent",
			Params: []framework.CommandParameter{
				{Name: "name", Type: "string", Required: true},
				{Name: "task", Type: "string", Description: "short_task_desc", Required: true},
				{Name: "prompt", Type: "string", Required: true},
			},
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				name := optionalArg(args, "name", "agent")
				task, err := stringArg(args, "task")
				if err != nil {
					return "", err
				}
				prompt, err := stringArg(args, "prompt")
				if err != nil {
					return "", err
				}
				key, reply, err := m.Create(ctx, task, prompt)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Agent %s created with key %s. First response: %s", name, key, reply), nil
			},
		},
		&framework.CommandFunc{
			CommandName: "message_agent",
			Summary:     "Message GPT Agent",
			Params: []framework.CommandParameter{
				{Name: "key", Type: "string", Required: true},
				{Name: "message", Type: "string", Required: true},
			},
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				key, err := stringArg(args, "key")
				if err != nil {
					return "", err
				}
				message, err := stringArg(args, "message")
				if err != nil {
					return "", err
				}
				reply, err := m.Message(ctx, key, message)
				if errors.Is(err, agents.ErrAgentNotFound) {
					return "Invalid key, cannot message agent.", nil
				}
				return reply, err
			},
		},
		&framework.CommandFunc{
			CommandName: "list_agents",
			Summary:     "List GPT Agents",
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				var b strings.Builder
				b.WriteString("List of agents:")
				for _, info := range m.List() {
					fmt.Fprintf(&b, "\n%s: %s", info.Key, info.Task)
				}
				return b.String(), nil
			},
		},
		&framework.CommandFunc{
			CommandName: "delete_agent",
			Summary:     "Delete GPT Agent",
			Params:      []framework.CommandParameter{{Name: "key", Type: "string", Required: true}},
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				key, err := stringArg(args, "key")
				if err != nil {
					return "", err
				}
				if m.Delete(key) {
					return fmt.Sprintf("Agent %s deleted.", key), nil
				}
				return fmt.Sprintf("Failed to delete agent %s.", key), nil
			},
		},
	}
}

// MemoryCommands lets the model commit text to long-term memory.
func MemoryCommands(store framework.MemoryStore) []framework.Command {
	return []framework.Command{
		&framework.CommandFunc{
			CommandName: "memory_add",
			Summary:     "Memory Add",
			Params:      []framework.CommandParameter{{Name: "string", Type: "string", Required: true}},
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				text, err := stringArg(args, "string")
				if err != nil {
					return "", err
				}
				if err := store.Add(ctx, text); err != nil {
					return "", err
				}
				return fmt.Sprintf("Committing memory with string %q", text), nil
			},
		},
	}
}

// ControlCommands are the commands that only steer the loop.
func ControlCommands() []framework.Command {
	return []framework.Command{
		&framework.CommandFunc{
			CommandName: "do_nothing",
			Summary:     "Do Nothing",
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				return "No action performed.", nil
			},
		},
		&framework.CommandFunc{
			CommandName: "task_complete",
			Summary:     "Task Complete (Shutdown)",
			Params:      []framework.CommandParameter{{Name: "reason", Type: "string"}},
			Fn: func(ctx context.Context, args map[string]any) (string, error) {
				return "Shutting down...", nil
			},
		},
	}
}
