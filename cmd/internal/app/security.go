package app

import (
	"errors"

	"geotrack/cmd/security/token"
)

// ValidateSecurityConfig enforces the revocation-key policy at startup.
//
// Fail-fast is deliberate: when GEOTRACK_REQUIRE_TOKEN_HMAC is set the
// process must not come up with plain-digest revocation keys.
func ValidateSecurityConfig(cfg Config) error {
	if !cfg.RequireTokenHMAC {
		return nil
	}

	// Minimum 32 bytes for an HMAC-SHA256 secret, measured as raw bytes.
	if _, err := token.HMACKeyFromEnv(32); err != nil {
		switch {
		case errors.Is(err, token.ErrHMACKeyMissing):
			return errors.New("security policy: GEOTRACK_REQUIRE_TOKEN_HMAC=true but GEOTRACK_TOKEN_HMAC_KEY is missing")
		case errors.Is(err, token.ErrHMACKeyTooShort):
			return errors.New("security policy: GEOTRACK_REQUIRE_TOKEN_HMAC=true but GEOTRACK_TOKEN_HMAC_KEY is too short (min 32 bytes)")
		default:
			return err
		}
	}

	if !token.HMACEnabled() {
		return errors.New("security policy: GEOTRACK_REQUIRE_TOKEN_HMAC=true but the revocation key hasher is not in HMAC mode")
	}

	return nil
}
