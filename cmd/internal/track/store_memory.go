package track

import (
	"context"
	"sync"
	"time"

	"geotrack/cmd/identity/ids"
)

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu sync.RWMutex

	// byUser holds positions in insertion order (IDs ascending).
	byUser map[string][]Position

	// now is swappable in tests.
	now func() time.Time
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byUser: make(map[string][]Position),
		now:    time.Now,
	}
}

func (s *MemoryStore) Record(_ context.Context, in RecordInput) (Position, error) {
	if err := in.Validate(); err != nil {
		return Position{}, err
	}

	now := in.Now
	if now.IsZero() {
		now = s.now().UTC()
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Position{}, err
	}

	pos := Position{
		ID:         id,
		UserID:     in.UserID,
		Lat:        in.Lat,
		Lng:        in.Lng,
		RecordedAt: now,
	}

	s.mu.Lock()
	s.byUser[in.UserID] = append(s.byUser[in.UserID], pos)
	s.mu.Unlock()

	return pos, nil
}

func (s *MemoryStore) LastByUser(_ context.Context, userID string) (Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.byUser[userID]
	if len(list) == 0 {
		return Position{}, ErrNoPositions
	}
	return list[len(list)-1], nil
}

func (s *MemoryStore) RecentByUser(_ context.Context, userID string, limit int) ([]Position, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.byUser[userID]
	if len(list) == 0 {
		return nil, nil
	}

	n := limit
	if n > len(list) {
		n = len(list)
	}

	// Newest first.
	out := make([]Position, 0, n)
	for i := len(list) - 1; i >= len(list)-n; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

func (s *MemoryStore) SinceByUser(_ context.Context, userID, afterID string, limit int) ([]Position, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.byUser[userID]

	out := make([]Position, 0, limit)
	for _, pos := range list {
		if afterID != "" && pos.ID <= afterID {
			continue
		}
		out = append(out, pos)
		if len(out) == limit {
			break
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
