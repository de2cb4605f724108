package framework

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSession struct {
	question string
	reply    string
	err      error
	closed   int
}

func (s *recordingSession) Ask(ctx context.Context, question string) (string, error) {
	s.question = question
	return s.reply, s.err
}

func (s *recordingSession) Close() error {
	s.closed++
	return nil
}

func TestRenderTurns(t *testing.T) {
	got := RenderTurns([]Turn{
		NewTurn(RoleSystem, "be brief"),
		NewTurn(RoleUser, "hi"),
	})
	assert.Equal(t, "<|start|>system\nbe brief<|end|>\n<|start|>user\nhi<|end|>\n", got)
}

func TestAskMessagesClosesSession(t *testing.T) {
	session := &recordingSession{reply: "pong"}
	open := func(ctx context.Context) (ChatBackend, error) { return session, nil }

	reply, err := AskMessages(context.Background(), open, []Turn{NewTurn(RoleUser, "ping")})
	require.NoError(t, err)
	assert.Equal(t, "pong", reply)
	assert.Equal(t, "<|start|>user\nping<|end|>\n", session.question)
	assert.Equal(t, 1, session.closed)

	session.err = errors.New("offline")
	_, err = AskMessages(context.Background(), open, nil)
	assert.EqualError(t, err, "offline")
	assert.Equal(t, 2, session.closed)
}

func TestAskMessagesWithoutOpener(t *testing.T) {
	_, err := AskMessages(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNoOpener)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNull, KindOf(nil))
	assert.Equal(t, KindBool, KindOf(true))
	assert.Equal(t, KindNumber, KindOf(1.5))
	assert.Equal(t, KindString, KindOf("s"))
	assert.Equal(t, KindSequence, KindOf([]any{}))
	assert.Equal(t, KindMapping, KindOf(map[string]any{}))
	assert.Equal(t, KindInvalid, KindOf(struct{}{}))
	assert.Equal(t, "object", KindMapping.String())
	assert.Equal(t, `{"a":1}`, Stringify(map[string]any{"a": 1}))
	assert.Equal(t, "", Stringify(nil))
}
