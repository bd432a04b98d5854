package dialogue

import (
	"context"
	"sync"
)

// MemoryStore keeps history in process memory. It is the default for local
// development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	turns map[string][]Turn
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[string][]Turn)}
}

// History returns a copy of the stored turns, oldest first.
func (s *MemoryStore) History(_ context.Context, userID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.turns[userID]
	out := make([]Turn, len(stored))
	copy(out, stored)
	return out, nil
}

// Append adds turns to the end of the user's history.
func (s *MemoryStore) Append(_ context.Context, userID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns[userID] = append(s.turns[userID], turns...)
	return nil
}

// Trim drops all but the newest max turns.
func (s *MemoryStore) Trim(_ context.Context, userID string, max int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.turns[userID]
	if len(stored) > max {
		trimmed := make([]Turn, max)
		copy(trimmed, stored[len(stored)-max:])
		s.turns[userID] = trimmed
	}
	return nil
}
