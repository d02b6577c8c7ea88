package session

import (
	"context"
	"sync"
	"time"
)

// RevocationStore records revoked token IDs until their natural expiry.
//
// Revoke is idempotent: revoking an already-revoked ID succeeds.
// Implementations receive the raw token ID and are responsible for
// digesting it before persistence.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevocationStore is an in-process RevocationStore for development
// and tests. Expired entries are swept lazily on writes.
type MemoryRevocationStore struct {
	mu sync.RWMutex

	// entries maps token ID to the entry's own expiry deadline.
	entries map[string]time.Time

	// now is swappable in tests.
	now func() time.Time
}

// NewMemoryRevocationStore constructs an empty in-memory store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(now)
	s.entries[tokenID] = now.Add(ttl)
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	now := s.now()

	s.mu.RLock()
	deadline, ok := s.entries[tokenID]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	return now.Before(deadline), nil
}

func (s *MemoryRevocationStore) sweepLocked(now time.Time) {
	for id, deadline := range s.entries {
		if !now.Before(deadline) {
			delete(s.entries, id)
		}
	}
}
