package framework

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Command is a named action the model can request. Execute returns the text
// the model observes as the command's output.
type Command interface {
	Name() string
	Description() string
	Parameters() []CommandParameter
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// CommandParameter describes an argument the command accepts.
type CommandParameter struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// CommandFunc adapts a plain function into a Command.
type CommandFunc struct {
	CommandName string
	Summary     string
	Params      []CommandParameter
	Fn          func(ctx context.Context, args map[string]any) (string, error)
}

func (c *CommandFunc) Name() string                   { return c.CommandName }
func (c *CommandFunc) Description() string            { return c.Summary }
func (c *CommandFunc) Parameters() []CommandParameter { return c.Params }
func (c *CommandFunc) Execute(ctx context.Context, args map[string]any) (string, error) {
	if c.Fn == nil {
		return "", fmt.Errorf("command %s has no handler", c.CommandName)
	}
	return c.Fn(ctx, args)
}

// CommandRegistry maps command names to handlers. It is filled once at
// startup and then only read by the dispatcher and the prompt builder.
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[string]Command
	order    []string
}

// NewCommandRegistry builds an empty registry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]Command),
	}
}

// Register adds a command to the registry.
func (r *CommandRegistry) Register(cmd Command) error {
	if cmd == nil || strings.TrimSpace(cmd.Name()) == "" {
		return fmt.Errorf("command name required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[cmd.Name()]; exists {
		return fmt.Errorf("command %s already registered", cmd.Name())
	}
	r.commands[cmd.Name()] = cmd
	r.order = append(r.order, cmd.Name())
	return nil
}

// Get fetches a command by name.
func (r *CommandRegistry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Names returns the registered command names sorted alphabetically.
func (r *CommandRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered commands in registration order.
func (r *CommandRegistry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		res = append(res, r.commands[name])
	}
	return res
}

// RenderCommandsToPrompt renders the numbered COMMANDS section of the system
// prompt, e.g. `1. Read file: "read_file", args: "file": "<file>"`.
func RenderCommandsToPrompt(commands []Command) string {
	if len(commands) == 0 {
		return "No commands available."
	}
	var b strings.Builder
	for i, cmd := range commands {
		fmt.Fprintf(&b, "%d. %s: \"%s\", args: ", i+1, cmd.Description(), cmd.Name())
		params := cmd.Parameters()
		parts := make([]string, 0, len(params))
		for _, param := range params {
			placeholder := param.Name
			if param.Description != "" {
				placeholder = param.Description
			}
			parts = append(parts, fmt.Sprintf("\"%s\": \"<%s>\"", param.Name, placeholder))
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
