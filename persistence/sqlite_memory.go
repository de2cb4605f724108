package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lexcodex/autoloop/framework"
)

const sqliteMemoryFile = "memory.db"

// SQLiteMemory stores memories in a SQLite database. Relevance is computed
// with the same term-frequency similarity as LocalMemory.
type SQLiteMemory struct {
	db   *sql.DB
	path string
}

// NewSQLiteMemory opens (or creates) memory.db under dir. An empty dir keeps
// the database in memory.
func NewSQLiteMemory(dir string) (*SQLiteMemory, error) {
	dsn := ":memory:"
	path := ""
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		path = filepath.Join(dir, sqliteMemoryFile)
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	m := &SQLiteMemory{db: db, path: path}
	if err := m.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return m, nil
}

func (m *SQLiteMemory) initSchema() error {
	_, err := m.db.Exec(`
	CREATE TABLE IF NOT EXISTS memories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`)
	return err
}

// Path returns the database file, empty for an in-memory database.
func (m *SQLiteMemory) Path() string { return m.path }

// Close closes the database connection.
func (m *SQLiteMemory) Close() error {
	return m.db.Close()
}

// Add remembers text.
func (m *SQLiteMemory) Add(ctx context.Context, text string) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO memories (content, created_at) VALUES (?, ?)`,
		text, time.Now().UTC())
	return err
}

// GetRelevant returns up to k memories most similar to query.
func (m *SQLiteMemory) GetRelevant(ctx context.Context, query string, k int) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT id, content, created_at FROM memories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		var (
			id  int64
			doc Document
		)
		if err := rows.Scan(&id, &doc.Content, &doc.CreatedAt); err != nil {
			return nil, err
		}
		doc.ID = fmt.Sprintf("mem-%06d", id)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rank(query, docs, k), nil
}

// Clear deletes every memory.
func (m *SQLiteMemory) Clear(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM memories`)
	return err
}

// Stats reports the number of stored memories.
func (m *SQLiteMemory) Stats(ctx context.Context) (framework.MemoryStats, error) {
	var n int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&n); err != nil {
		return framework.MemoryStats{}, err
	}
	return framework.MemoryStats{Backend: BackendSQLite, Entries: n}, nil
}
