package idempotency

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryStore provides an in-memory implementation. Suitable for a single
// process; a multi-instance deployment would need a shared backend.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore constructs an empty memory-backed store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// MarkProcessed implements the Store interface.
func (s *MemoryStore) MarkProcessed(_ context.Context, key string, now time.Time, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, errors.New("idempotency: key is required")
	}
	now = now.UTC()
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, record := range s.records {
		if !record.ExpiresAt.After(now) {
			delete(s.records, id)
		}
	}

	if record, ok := s.records[key]; ok && record.ExpiresAt.After(now) {
		return false, nil
	}

	s.records[key] = Record{
		Key:         key,
		ProcessedAt: now,
		ExpiresAt:   now.Add(ttl),
	}
	return true, nil
}

// Len reports the number of live records, primarily for tests.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
