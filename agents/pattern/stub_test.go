package pattern

import (
	"context"

	"github.com/lexcodex/autoloop/framework"
)

// stubOpener hands out sessions that answer every question with reply.
type stubOpener struct {
	reply     string
	err       error
	opened    int
	closed    int
	questions []string
}

func (o *stubOpener) open(ctx context.Context) (framework.ChatBackend, error) {
	o.opened++
	return &stubSession{owner: o}, nil
}

type stubSession struct {
	owner *stubOpener
}

// Ask records the question and returns the canned reply.
func (s *stubSession) Ask(ctx context.Context, question string) (string, error) {
	s.owner.questions = append(s.owner.questions, question)
	if s.owner.err != nil {
		return "", s.owner.err
	}
	return s.owner.reply, nil
}

// Close counts session teardown.
func (s *stubSession) Close() error {
	s.owner.closed++
	return nil
}
