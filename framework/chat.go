package framework

import (
	"context"
	"errors"
	"strings"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a conversation log. Turns are values; once appended to
// a history they are never modified.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewTurn builds a conversation turn.
func NewTurn(role Role, content string) Turn {
	return Turn{Role: role, Content: content}
}

// ChatBackend is a conversational session with the model. The backend keeps
// its own conversation state, so every Ask continues the same dialogue.
type ChatBackend interface {
	Ask(ctx context.Context, question string) (string, error)
	Close() error
}

// Opener starts a fresh ChatBackend session.
type Opener func(ctx context.Context) (ChatBackend, error)

// ErrNoOpener is returned by helpers that need a session but were not given a
// way to open one.
var ErrNoOpener = errors.New("chat backend opener missing")

// RenderTurns flattens turns into the framed single-message form accepted by
// backends that only expose a question/answer surface.
func RenderTurns(turns []Turn) string {
	var b strings.Builder
	for _, turn := range turns {
		b.WriteString("<|start|>")
		b.WriteString(string(turn.Role))
		b.WriteString("\n")
		b.WriteString(turn.Content)
		b.WriteString("<|end|>\n")
	}
	return b.String()
}

// AskMessages sends the rendered turns to a brand new session, returns the
// reply and closes the session again. It is the one-shot primitive used for
// side conversations that must not leak into the main dialogue.
func AskMessages(ctx context.Context, open Opener, turns []Turn) (string, error) {
	if open == nil {
		return "", ErrNoOpener
	}
	session, err := open(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = session.Close() }()
	return session.Ask(ctx, RenderTurns(turns))
}
