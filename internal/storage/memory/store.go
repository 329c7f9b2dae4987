// Package memory is the in-memory TranscriptStore, used by default and in
// tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/serenemind/sessiond/internal/storage"
)

// Store is an in-memory implementation of TranscriptStore.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*storage.SessionRecord
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		sessions: make(map[string]*storage.SessionRecord),
	}
}

func (s *Store) CreateSession(ctx context.Context, rec *storage.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[rec.ID]; exists {
		return fmt.Errorf("session %s already exists", rec.ID)
	}

	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	rec.Turns = []storage.TurnRecord{}

	s.sessions[rec.ID] = rec
	return nil
}

func (s *Store) AppendTurn(ctx context.Context, sessionID string, turn *storage.TurnRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.sessions[sessionID]
	if !exists {
		return fmt.Errorf("session %s not found", sessionID)
	}

	turn.CreatedAt = time.Now()
	rec.Turns = append(rec.Turns, *turn)
	rec.UpdatedAt = time.Now()
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*storage.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.sessions[id]
	if !exists {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return rec, nil
}

func (s *Store) ListSessions(ctx context.Context, opts storage.ListOptions) ([]*storage.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*storage.SessionRecord, 0, len(s.sessions))
	for _, rec := range s.sessions {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	start := opts.Offset
	if start >= len(result) {
		return []*storage.SessionRecord{}, nil
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}
	return result[start:end], nil
}

func (s *Store) Close() error {
	return nil
}
