package token

import "errors"

// Sentinel errors surfaced by the startup security policy when
// GEOTRACK_REQUIRE_TOKEN_HMAC is enforced.
var (
	ErrHMACKeyMissing  = errors.New("token HMAC key missing")
	ErrHMACKeyTooShort = errors.New("token HMAC key too short")
)
