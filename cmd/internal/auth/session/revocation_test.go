package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryRevocationStore_RevokeAndCheck(t *testing.T) {
	t.Parallel()

	s := NewMemoryRevocationStore()
	ctx := context.Background()

	revoked, err := s.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if revoked {
		t.Fatalf("fresh id reported revoked")
	}

	if err := s.Revoke(ctx, "jti-1", time.Hour); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	revoked, err = s.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !revoked {
		t.Fatalf("revoked id reported valid")
	}

	// Revoke is idempotent.
	if err := s.Revoke(ctx, "jti-1", time.Hour); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
}

func TestMemoryRevocationStore_EntryExpires(t *testing.T) {
	t.Parallel()

	s := NewMemoryRevocationStore()
	ctx := context.Background()

	base := time.Now()
	clock := base
	s.now = func() time.Time { return clock }

	if err := s.Revoke(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	clock = base.Add(30 * time.Second)
	if revoked, _ := s.IsRevoked(ctx, "jti-1"); !revoked {
		t.Fatalf("entry expired too early")
	}

	clock = base.Add(2 * time.Minute)
	if revoked, _ := s.IsRevoked(ctx, "jti-1"); revoked {
		t.Fatalf("entry still revoked past its TTL")
	}

	// The next write sweeps the expired entry.
	if err := s.Revoke(ctx, "jti-2", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	s.mu.RLock()
	_, stale := s.entries["jti-1"]
	s.mu.RUnlock()
	if stale {
		t.Fatalf("expired entry not swept")
	}
}

func TestMemoryRevocationStore_IgnoresEmptyAndNonPositive(t *testing.T) {
	t.Parallel()

	s := NewMemoryRevocationStore()
	ctx := context.Background()

	if err := s.Revoke(ctx, "", time.Hour); err != nil {
		t.Fatalf("revoke empty id: %v", err)
	}
	if err := s.Revoke(ctx, "jti-1", 0); err != nil {
		t.Fatalf("revoke zero ttl: %v", err)
	}
	if revoked, _ := s.IsRevoked(ctx, "jti-1"); revoked {
		t.Fatalf("zero-ttl revoke should not persist")
	}
}

func TestMemoryRevocationStore_ConcurrentRevokeAndCheck(t *testing.T) {
	t.Parallel()

	s := NewMemoryRevocationStore()
	ctx := context.Background()

	// Overlapping IDs from several goroutines. Separate short-lived IDs keep
	// the sweep on the write path busy while the long-lived set is hammered.
	const workers = 8
	const perWorker = 200
	const distinctIDs = 32

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := fmt.Sprintf("jti-%d", i%distinctIDs)
				if err := s.Revoke(ctx, id, time.Hour); err != nil {
					t.Errorf("revoke %s: %v", id, err)
					return
				}
				if _, err := s.IsRevoked(ctx, id); err != nil {
					t.Errorf("check %s: %v", id, err)
					return
				}

				if (w+i)%5 == 0 {
					gone := fmt.Sprintf("jti-expired-%d-%d", w, i)
					if err := s.Revoke(ctx, gone, time.Nanosecond); err != nil {
						t.Errorf("revoke %s: %v", gone, err)
						return
					}
				}
			}
		}(w)
	}
	wg.Wait()

	// Every long-lived ID was last written with a one-hour TTL, so
	// membership must hold for all of them after the dust settles.
	for i := 0; i < distinctIDs; i++ {
		id := fmt.Sprintf("jti-%d", i)
		revoked, err := s.IsRevoked(ctx, id)
		if err != nil {
			t.Fatalf("final check %s: %v", id, err)
		}
		if !revoked {
			t.Fatalf("id %s lost its revocation under concurrency", id)
		}
	}
}
