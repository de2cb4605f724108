package pattern

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/autoloop/internal/logger"
)

func TestInterpretMissingCommand(t *testing.T) {
	d := Interpret(map[string]any{"thoughts": map[string]any{"text": "hi"}})
	assert.Equal(t, ErrorNoCommand, d.ErrorKind)
	assert.Equal(t, map[string]any{"text": "hi"}, d.Thoughts)
	assert.Contains(t, d.Message, "command")
	assert.Contains(t, d.Message, FormatEnforcement)
	assert.ErrorIs(t, d.Err, ErrNoCommand)
}

func TestInterpretMissingName(t *testing.T) {
	d := Interpret(map[string]any{"command": map[string]any{"args": map[string]any{"x": 1.0}}})
	assert.Nil(t, d.Thoughts)
	assert.Equal(t, ErrorNoCommandName, d.ErrorKind)
	assert.Equal(t, "no_command_name", d.Command())
	assert.NotEmpty(t, d.Message)
}

func TestInterpretCommand(t *testing.T) {
	d := Interpret(map[string]any{"command": map[string]any{"name": "foo", "args": map[string]any{"a": 1.0}}})
	require.False(t, d.IsError())
	assert.Nil(t, d.Thoughts)
	assert.Equal(t, "foo", d.Name)
	if diff := cmp.Diff(map[string]any{"a": 1.0}, d.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpretStructuralErrors(t *testing.T) {
	tests := []struct {
		name  string
		value any
		kind  ErrorKind
	}{
		{"string reply", "hello", ErrorNotAnObject},
		{"array reply", []any{1.0}, ErrorNotAnObject},
		{"null reply", nil, ErrorNotAnObject},
		{"command not object", map[string]any{"command": "run"}, ErrorOtherException},
		{"name not string", map[string]any{"command": map[string]any{"name": 3.0}}, ErrorOtherException},
		{"empty name", map[string]any{"command": map[string]any{"name": ""}}, ErrorNoCommandName},
		{"null name", map[string]any{"command": map[string]any{"name": nil}}, ErrorNoCommandName},
		{"args not object", map[string]any{"command": map[string]any{"name": "x", "args": []any{}}}, ErrorOtherException},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Interpret(tt.value)
			assert.Equal(t, tt.kind, d.ErrorKind)
			assert.Empty(t, d.Name)
			assert.Contains(t, d.Message, FormatEnforcement)
		})
	}
}

func TestInterpretDefaultsArgs(t *testing.T) {
	for _, cmd := range []map[string]any{
		{"name": "do_nothing"},
		{"name": "do_nothing", "args": nil},
	} {
		d := Interpret(map[string]any{"command": cmd, "thoughts": "not a mapping"})
		require.False(t, d.IsError())
		assert.Equal(t, map[string]any{}, d.Args)
		assert.Nil(t, d.Thoughts)
	}
}

func TestParseReply(t *testing.T) {
	r := &Repairer{Logger: logger.Discard()}

	d := ParseReply(context.Background(), r, `Thinking... {"command": {"name": "list_agents"}}`)
	assert.Equal(t, "list_agents", d.Name)

	d = ParseReply(context.Background(), r, "no json at all")
	assert.Equal(t, ErrorInvalidJSON, d.ErrorKind)
	assert.ErrorIs(t, d.Err, ErrInvalidJSON)
	assert.Contains(t, d.Message, FormatEnforcement)
}

func TestParseReplyOpaqueIsNotAnObject(t *testing.T) {
	stub := &stubOpener{reply: "nope"}
	r := &Repairer{Opener: stub.open, TryAI: true, Logger: logger.Discard()}
	d := ParseReply(context.Background(), r, "garbage")
	assert.Equal(t, ErrorNotAnObject, d.ErrorKind)
}

func TestNormalizePlan(t *testing.T) {
	assert.Equal(t, "- a\n- b", NormalizePlan("- a\n- b"))
	assert.Equal(t, "- a\n- b", NormalizePlan([]any{"- a", "- b"}))
	assert.Equal(t, "1: first\n2: second", NormalizePlan(map[string]any{"2": "second", "1": "first"}))
	assert.Equal(t, "", NormalizePlan(nil))
	assert.Equal(t, "3", NormalizePlan(3.0))
}

func TestPlanLines(t *testing.T) {
	assert.Equal(t, []string{"short bulleted", "list that conveys", "long-term plan"},
		PlanLines("- short bulleted\n- list that conveys\n\n- long-term plan"))
	assert.Nil(t, PlanLines(""))
}

func TestThoughtsFrom(t *testing.T) {
	th := ThoughtsFrom(map[string]any{"text": "t", "plan": []any{"- x"}, "speak": "s"})
	assert.Equal(t, Thoughts{Text: "t", Plan: "- x", Speak: "s"}, th)
	assert.Equal(t, Thoughts{}, ThoughtsFrom(nil))
}
