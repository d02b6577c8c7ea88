package session

import "errors"

var (
	// ErrInvalidToken is returned when an access token fails verification or validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenRevoked is returned when a verified token's ID is present in the revocation set.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrRevocationUnavailable is returned when the revocation backend cannot be reached.
	ErrRevocationUnavailable = errors.New("revocation store unavailable")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
