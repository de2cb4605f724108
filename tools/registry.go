package tools

import (
	"net/http"
	"time"

	"github.com/lexcodex/autoloop/agents"
	"github.com/lexcodex/autoloop/framework"
)

// Options selects the collaborators the built-in commands run against.
type Options struct {
	Workspace *Workspace
	Runner    framework.CommandRunner
	Memory    framework.MemoryStore
	Agents    *agents.Manager
	// Opener backs the one-shot summaries of browse_website.
	Opener       framework.Opener
	HTTPClient   *http.Client
	ShellTimeout time.Duration
}

// BuildRegistry registers every built-in command whose collaborator is set.
// Control commands are always present.
func BuildRegistry(opts Options) (*framework.CommandRegistry, error) {
	var commands []framework.Command
	if opts.Workspace != nil {
		commands = append(commands, FileCommands(opts.Workspace)...)
	}
	if opts.Runner != nil {
		commands = append(commands, &ExecuteShellCommand{Runner: opts.Runner, Timeout: opts.ShellTimeout})
	}
	commands = append(commands, &BrowseCommand{Client: opts.HTTPClient, Opener: opts.Opener})
	if opts.Memory != nil {
		commands = append(commands, MemoryCommands(opts.Memory)...)
	}
	if opts.Agents != nil {
		commands = append(commands, AgentCommands(opts.Agents)...)
	}
	commands = append(commands, ControlCommands()...)

	registry := framework.NewCommandRegistry()
	for _, cmd := range commands {
		if err := registry.Register(cmd); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
