package track

import "errors"

var (
	// ErrInvalidCoordinates is returned when lat/lng fall outside WGS84 ranges.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrNoPositions is returned when a user has no recorded position.
	ErrNoPositions = errors.New("no positions recorded")
)
