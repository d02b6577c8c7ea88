// Package ids mints the ULID identifiers used for users and GPS positions.
package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Position IDs double as stream cursors (the live feed tails the store with
// "id > cursor"), so IDs minted by one process must be strictly increasing
// even when several land in the same millisecond. A shared monotonic entropy
// source guarantees that; the mutex makes minting safe under concurrency.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewULID returns a new ULID string (26 chars), ordered by mint time.
func NewULID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	entropyMu.Lock()
	defer entropyMu.Unlock()

	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
