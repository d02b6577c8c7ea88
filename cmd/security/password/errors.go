package password

import "errors"

// Sentinel errors for policy rejections and hash handling. The inscription
// handler matches on these to pick the 400 response.
var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrWeakPassword     = errors.New("weak password")
	ErrInvalidHash      = errors.New("invalid password hash")
)
