package pattern

import (
	"context"
	"errors"
	"fmt"

	"github.com/lexcodex/autoloop/framework"
)

// FormatEnforcement is appended to every error message fed back to the model.
const FormatEnforcement = "Your response must adhere to the RESPONSE JSON FORMAT format"

// ErrorKind tags an error directive.
type ErrorKind string

const (
	ErrorNone           ErrorKind = ""
	ErrorNotAnObject    ErrorKind = "not_an_object"
	ErrorNoCommand      ErrorKind = "no_command"
	ErrorNoCommandName  ErrorKind = "no_command_name"
	ErrorOtherException ErrorKind = "other_exception"
	ErrorInvalidJSON    ErrorKind = "invalid_json"
)

var (
	ErrNotAnObject    = errors.New("'response' object is not dictionary")
	ErrNoCommand      = errors.New("missing 'command' object in JSON")
	ErrNoCommandName  = errors.New("missing 'name' field in 'command' object")
	ErrOtherException = errors.New("unexpected reply structure")
)

// Directive is the interpreted form of a reply: either a command to run or an
// error to report back to the model.
type Directive struct {
	Thoughts  map[string]any `json:"thoughts,omitempty"`
	Name      string         `json:"name,omitempty"`
	Args      map[string]any `json:"args,omitempty"`
	ErrorKind ErrorKind      `json:"error,omitempty"`
	Message   string         `json:"message,omitempty"`
	Err       error          `json:"-"`
}

// IsError reports whether d carries an error instead of a command.
func (d Directive) IsError() bool { return d.ErrorKind != ErrorNone }

// Command returns the name to act on: the command or the error tag.
func (d Directive) Command() string {
	if d.IsError() {
		return string(d.ErrorKind)
	}
	return d.Name
}

func errorDirective(thoughts map[string]any, kind ErrorKind, err error) Directive {
	var text string
	switch kind {
	case ErrorNotAnObject, ErrorInvalidJSON:
		text = "Invalid JSON object"
	case ErrorNoCommand:
		text = "Missing 'command' object in JSON"
	case ErrorNoCommandName:
		text = "Missing 'name' field in 'command' object"
	default:
		text = err.Error()
	}
	return Directive{
		Thoughts:  thoughts,
		ErrorKind: kind,
		Message:   fmt.Sprintf("%s. %s.", text, FormatEnforcement),
		Err:       err,
	}
}

// Interpret extracts the thoughts and the command from a decoded reply.
func Interpret(value any) (d Directive) {
	defer func() {
		if r := recover(); r != nil {
			d = errorDirective(nil, ErrorOtherException, fmt.Errorf("%w: %v", ErrOtherException, r))
		}
	}()

	reply, ok := framework.AsMapping(value)
	if !ok {
		return errorDirective(nil, ErrorNotAnObject,
			fmt.Errorf("%w: %s", ErrNotAnObject, framework.KindOf(value)))
	}
	thoughts, _ := framework.AsMapping(reply["thoughts"])

	rawCommand, ok := reply["command"]
	if !ok {
		return errorDirective(thoughts, ErrorNoCommand, ErrNoCommand)
	}
	command, ok := framework.AsMapping(rawCommand)
	if !ok {
		return errorDirective(thoughts, ErrorOtherException,
			fmt.Errorf("%w: 'command' is %s, not object", ErrOtherException, framework.KindOf(rawCommand)))
	}

	rawName, ok := command["name"]
	if !ok || rawName == nil {
		return errorDirective(thoughts, ErrorNoCommandName, ErrNoCommandName)
	}
	name, ok := rawName.(string)
	if !ok {
		return errorDirective(thoughts, ErrorOtherException,
			fmt.Errorf("%w: 'name' is %s, not string", ErrOtherException, framework.KindOf(rawName)))
	}
	if name == "" {
		return errorDirective(thoughts, ErrorNoCommandName, ErrNoCommandName)
	}

	args := map[string]any{}
	switch raw := command["args"]; framework.KindOf(raw) {
	case framework.KindNull:
	case framework.KindMapping:
		args = raw.(map[string]any)
	default:
		return errorDirective(thoughts, ErrorOtherException,
			fmt.Errorf("%w: 'args' is %s, not object", ErrOtherException, framework.KindOf(raw)))
	}
	return Directive{Thoughts: thoughts, Name: name, Args: args}
}

// ParseReply repairs raw and interprets the result. A reply that cannot be
// decoded yields an invalid_json directive.
func ParseReply(ctx context.Context, repairer *Repairer, raw string) Directive {
	if repairer == nil {
		repairer = &Repairer{}
	}
	repaired, err := repairer.Repair(ctx, raw)
	if err != nil {
		return errorDirective(nil, ErrorInvalidJSON, err)
	}
	return Interpret(repaired.Value)
}
