package llm

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lexcodex/autoloop/framework"
	"github.com/lexcodex/autoloop/internal/logger"
)

// Usage counts calls across every session of an instrumented opener.
type Usage struct {
	Sessions int
	Asks     int
	Errors   int
	Elapsed  time.Duration
}

// Instrumented wraps an Opener and logs every question and answer.
type Instrumented struct {
	Name   string
	Inner  framework.Opener
	Logger *log.Logger
	Debug  bool

	mu    sync.Mutex
	usage Usage
}

// NewInstrumented wraps inner.
func NewInstrumented(name string, inner framework.Opener, l *log.Logger, debug bool) *Instrumented {
	if l == nil {
		l = logger.Logger
	}
	return &Instrumented{Name: name, Inner: inner, Logger: l, Debug: debug}
}

// Open opens a session through the wrapped opener.
func (m *Instrumented) Open(ctx context.Context) (framework.ChatBackend, error) {
	session, err := m.Inner(ctx)
	if err != nil {
		m.Logger.Error("chat session failed to open", "backend", m.Name, "error", err)
		return nil, err
	}
	m.mu.Lock()
	m.usage.Sessions++
	m.mu.Unlock()
	return &instrumentedSession{inner: session, owner: m}, nil
}

// Usage returns a snapshot of the counters.
func (m *Instrumented) Usage() Usage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage
}

func (m *Instrumented) record(elapsed time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage.Asks++
	m.usage.Elapsed += elapsed
	if err != nil {
		m.usage.Errors++
	}
}

type instrumentedSession struct {
	inner framework.ChatBackend
	owner *Instrumented
}

func (s *instrumentedSession) Ask(ctx context.Context, question string) (string, error) {
	m := s.owner
	if m.Debug {
		m.Logger.Debug("chat prompt", "backend", m.Name, "chars", len(question), "preview", clip(question, 1024))
	}
	start := time.Now()
	answer, err := s.inner.Ask(ctx, question)
	elapsed := time.Since(start)
	m.record(elapsed, err)
	if err != nil {
		m.Logger.Error("chat request failed", "backend", m.Name, "elapsed", elapsed, "error", err)
		return answer, err
	}
	if m.Debug {
		m.Logger.Debug("chat response", "backend", m.Name, "elapsed", elapsed, "chars", len(answer), "preview", clip(answer, 1024))
	}
	return answer, nil
}

func (s *instrumentedSession) Close() error {
	return s.inner.Close()
}

func clip(s string, max int) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
