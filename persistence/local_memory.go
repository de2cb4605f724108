package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lexcodex/autoloop/framework"
)

const localMemoryFile = "memory.json"

// LocalMemory keeps memories in an in-memory vector store and mirrors them to
// a JSON file so they survive restarts. An empty directory disables the file.
type LocalMemory struct {
	mu    sync.Mutex
	store *InMemoryVectorStore
	path  string
	next  int
}

// NewLocalMemory loads any memories previously saved under dir.
func NewLocalMemory(dir string) (*LocalMemory, error) {
	m := &LocalMemory{store: NewInMemoryVectorStore()}
	if dir == "" {
		return m, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}
	m.path = filepath.Join(dir, localMemoryFile)
	docs, err := m.load()
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if err := m.store.Upsert(context.Background(), doc); err != nil {
			return nil, err
		}
	}
	m.next = len(docs)
	return m, nil
}

// Path returns the backing file, empty when the memory is not persisted.
func (m *LocalMemory) Path() string { return m.path }

// Add remembers text.
func (m *LocalMemory) Add(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := Document{
		ID:        fmt.Sprintf("mem-%06d", m.next),
		Content:   text,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.Upsert(ctx, doc); err != nil {
		return err
	}
	m.next++
	return m.save()
}

// GetRelevant returns up to k memories most similar to query.
func (m *LocalMemory) GetRelevant(ctx context.Context, query string, k int) ([]string, error) {
	results, err := m.store.Query(ctx, query, k)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(results))
	for _, res := range results {
		out = append(out, res.Document.Content)
	}
	return out, nil
}

// Clear forgets everything, including the file contents.
func (m *LocalMemory) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.Reset()
	m.next = 0
	return m.save()
}

// Stats reports the number of stored memories.
func (m *LocalMemory) Stats(ctx context.Context) (framework.MemoryStats, error) {
	return framework.MemoryStats{Backend: BackendLocal, Entries: m.store.Len()}, ctx.Err()
}

func (m *LocalMemory) load() ([]Document, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", m.path, err)
	}
	return docs, nil
}

func (m *LocalMemory) save() error {
	if m.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(m.store.Documents(), "", "  ")
	if err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}
