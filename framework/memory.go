package framework

import "context"

// MemoryStats summarises the contents of a memory backend.
type MemoryStats struct {
	Backend string `json:"backend"`
	Entries int    `json:"entries"`
}

// MemoryStore is the long-term memory the agent loop writes every turn into
// and queries for context. Implementations live in the persistence package;
// errors they return are surfaced to the caller untouched.
type MemoryStore interface {
	Add(ctx context.Context, text string) error
	GetRelevant(ctx context.Context, query string, k int) ([]string, error)
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (MemoryStats, error)
}
