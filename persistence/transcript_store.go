package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/lexcodex/autoloop/framework"
)

// TranscriptStore persists conversation turns per session.
type TranscriptStore interface {
	Append(ctx context.Context, sessionID string, turns ...framework.Turn) error
	History(ctx context.Context, sessionID string) ([]framework.Turn, error)
	Clear(ctx context.Context, sessionID string) error
}

// FileTranscriptStore keeps each session's turns in a JSON file.
type FileTranscriptStore struct {
	root string
	mu   sync.RWMutex
}

// NewFileTranscriptStore builds a store in the provided root directory.
func NewFileTranscriptStore(root string) (*FileTranscriptStore, error) {
	if root == "" {
		return nil, errors.New("transcript store root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FileTranscriptStore{root: root}, nil
}

func (s *FileTranscriptStore) pathFor(id string) string {
	return filepath.Join(s.root, id+".transcript.json")
}

// Append stores turns for a session.
func (s *FileTranscriptStore) Append(ctx context.Context, sessionID string, turns ...framework.Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sessionID == "" {
		return errors.New("session id required")
	}
	if len(turns) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.read(sessionID)
	if err != nil {
		return err
	}
	existing = append(existing, turns...)
	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.pathFor(sessionID), data, 0o644)
}

// History returns the stored turns of a session.
func (s *FileTranscriptStore) History(ctx context.Context, sessionID string) ([]framework.Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(sessionID)
}

// Clear removes a session transcript.
func (s *FileTranscriptStore) Clear(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.pathFor(sessionID))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileTranscriptStore) read(sessionID string) ([]framework.Turn, error) {
	data, err := os.ReadFile(s.pathFor(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var turns []framework.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, err
	}
	return turns, nil
}
