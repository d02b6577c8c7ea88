package track

import (
	"context"
	"time"
)

// Position is one recorded GPS fix for a user.
//
// IDs are ULIDs, so ordering by ID matches ordering by record time and
// a position ID doubles as a resume cursor for tailing (see SinceByUser).
type Position struct {
	ID         string
	UserID     string
	Lat        float64
	Lng        float64
	RecordedAt time.Time
}

// RecordInput carries the fields needed to record a position.
type RecordInput struct {
	UserID string
	Lat    float64
	Lng    float64
	Now    time.Time
}

// Validate checks WGS84 coordinate ranges.
func (in RecordInput) Validate() error {
	if in.UserID == "" {
		return ErrInvalidCoordinates
	}
	if in.Lat < -90 || in.Lat > 90 {
		return ErrInvalidCoordinates
	}
	if in.Lng < -180 || in.Lng > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// Store persists positions. All reads are scoped to a single user.
type Store interface {
	// Record validates and persists a new position, minting its ID.
	Record(ctx context.Context, in RecordInput) (Position, error)

	// LastByUser returns the user's newest position, or ErrNoPositions.
	LastByUser(ctx context.Context, userID string) (Position, error)

	// RecentByUser returns the user's newest positions, newest first,
	// capped at limit.
	RecentByUser(ctx context.Context, userID string, limit int) ([]Position, error)

	// SinceByUser returns the user's positions recorded after the position
	// with afterID, oldest first, capped at limit. An empty afterID means
	// "from the beginning".
	SinceByUser(ctx context.Context, userID, afterID string, limit int) ([]Position, error)
}
