package framework

import (
	"context"
	"errors"
	"fmt"
)

// HumanFeedbackCommand is the pseudo command the loop substitutes when the
// user types feedback instead of authorising. It never reaches the registry.
const HumanFeedbackCommand = "human_feedback"

// ErrUnknownCommand reports a command name with no registered handler.
var ErrUnknownCommand = errors.New("unknown command")

// CommandExecutionError wraps a failure raised by a resolved command.
type CommandExecutionError struct {
	Command string
	Err     error
}

func (e *CommandExecutionError) Error() string {
	return fmt.Sprintf("Error: Command %s threw the following error: %v", e.Command, e.Err)
}

func (e *CommandExecutionError) Unwrap() error { return e.Err }

// Resolve looks up and runs a command. Unknown names yield ErrUnknownCommand;
// failures and panics inside the handler come back as *CommandExecutionError.
func Resolve(ctx context.Context, registry *CommandRegistry, name string, args map[string]any) (result string, err error) {
	if registry == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	cmd, ok := registry.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	defer func() {
		if r := recover(); r != nil {
			result = ""
			err = &CommandExecutionError{Command: name, Err: fmt.Errorf("%v", r)}
		}
	}()
	out, execErr := cmd.Execute(ctx, args)
	if execErr != nil {
		return "", &CommandExecutionError{Command: name, Err: execErr}
	}
	return out, nil
}

// Dispatch runs a command and always returns text for the conversation.
// Nothing raised by a command escapes to the caller.
func Dispatch(ctx context.Context, registry *CommandRegistry, name string, args map[string]any) string {
	out, err := Resolve(ctx, registry, name, args)
	if err == nil {
		return out
	}
	var execErr *CommandExecutionError
	switch {
	case errors.Is(err, ErrUnknownCommand):
		return UnknownCommandMessage(name)
	case errors.As(err, &execErr):
		return execErr.Error()
	default:
		return "Error: " + err.Error()
	}
}

// UnknownCommandMessage is the conversation text for an unregistered name.
func UnknownCommandMessage(name string) string {
	return fmt.Sprintf("Unknown command '%s'. Please refer to the 'COMMANDS' list for available commands and only respond in the specified JSON format.", name)
}
