package llm

import (
	"context"
	"errors"
	"sync"

	"github.com/lexcodex/autoloop/framework"
)

// ErrSessionClosed is returned by Ask after Close.
var ErrSessionClosed = errors.New("chat session closed")

// completeFunc sends a whole conversation to a stateless chat API and
// returns the assistant reply.
type completeFunc func(ctx context.Context, turns []framework.Turn) (string, error)

// historySession turns a stateless chat API into a ChatBackend by replaying
// the conversation on every question.
type historySession struct {
	mu       sync.Mutex
	turns    []framework.Turn
	complete completeFunc
	closed   bool
}

func newHistorySession(complete completeFunc) *historySession {
	return &historySession{complete: complete}
}

// Ask appends the question, sends the conversation and records the reply.
// A failed request leaves the history unchanged.
func (s *historySession) Ask(ctx context.Context, question string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrSessionClosed
	}
	turns := append(append([]framework.Turn(nil), s.turns...), framework.NewTurn(framework.RoleUser, question))
	reply, err := s.complete(ctx, turns)
	if err != nil {
		return "", err
	}
	s.turns = append(turns, framework.NewTurn(framework.RoleAssistant, reply))
	return reply, nil
}

// Close discards the conversation.
func (s *historySession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.turns = nil
	return nil
}

// splitSystem separates system turns from the rest of the conversation.
func splitSystem(turns []framework.Turn) (string, []framework.Turn) {
	var system string
	rest := make([]framework.Turn, 0, len(turns))
	for _, turn := range turns {
		if turn.Role == framework.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += turn.Content
			continue
		}
		rest = append(rest, turn)
	}
	return system, rest
}
