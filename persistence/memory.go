package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/lexcodex/autoloop/framework"
)

// Memory backend names accepted by OpenMemory.
const (
	BackendLocal  = "local"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// SupportedBackends lists the memory backends in display order.
var SupportedBackends = []string{BackendLocal, BackendSQLite, BackendNone}

// UnsupportedBackendError reports an unknown backend name. OpenMemory still
// returns the default backend alongside it.
type UnsupportedBackendError struct {
	Name string
}

func (e *UnsupportedBackendError) Error() string {
	return fmt.Sprintf("memory backend %q is not supported, using %q instead (supported: %s)",
		e.Name, BackendLocal, strings.Join(SupportedBackends, ", "))
}

// OpenMemory builds the named memory backend rooted at dir. An unknown name
// falls back to the local backend and returns an *UnsupportedBackendError
// together with the working store so the caller can warn and continue.
func OpenMemory(name, dir string) (framework.MemoryStore, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendLocal:
		return NewLocalMemory(dir)
	case BackendSQLite:
		return NewSQLiteMemory(dir)
	case BackendNone, "no_memory":
		return NoMemory{}, nil
	default:
		mem, err := NewLocalMemory(dir)
		if err != nil {
			return nil, err
		}
		return mem, &UnsupportedBackendError{Name: name}
	}
}

// NoMemory remembers nothing.
type NoMemory struct{}

func (NoMemory) Add(ctx context.Context, text string) error { return nil }

func (NoMemory) GetRelevant(ctx context.Context, query string, k int) ([]string, error) {
	return nil, nil
}

func (NoMemory) Clear(ctx context.Context) error { return nil }

func (NoMemory) Stats(ctx context.Context) (framework.MemoryStats, error) {
	return framework.MemoryStats{Backend: BackendNone}, nil
}
