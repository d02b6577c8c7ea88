package session

import (
	"os"
	"time"
)

// minSecretBytes is the minimum accepted HMAC signing secret length.
// HS256 secrets shorter than the hash output weaken the MAC.
const minSecretBytes = 32

// Config defines all runtime configuration for the session subsystem.
//
// It controls access-token TTL, clock skew tolerance, and the HS256
// signing secrets. Two secrets are supported at once: tokens are always
// signed with Secret, while verification also accepts PreviousSecret so
// that the signing key can be rotated without invalidating live tokens.
type Config struct {
	// Issuer is the value set in the "iss" claim of access tokens.
	Issuer string

	// AccessTokenTTL defines the lifetime of issued access tokens.
	AccessTokenTTL time.Duration

	// ClockSkew defines the allowed time skew during token validation.
	ClockSkew time.Duration

	// Secret is the current HS256 signing secret. Required.
	Secret []byte

	// PreviousSecret, when set, is accepted for verification only.
	// It carries the prior signing secret during a rotation window.
	PreviousSecret []byte
}

// DefaultConfig returns defaults suitable for development.
//
// Production environments should override values via environment variables.
func DefaultConfig() Config {
	return Config{
		Issuer:         "geotrack",
		AccessTokenTTL: 4 * time.Hour,
		ClockSkew:      30 * time.Second,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - GEOTRACK_JWT_SECRET (at least 32 bytes)
//
// Optional (durations must be valid Go duration strings):
//   - GEOTRACK_JWT_SECRET_PREVIOUS
//   - GEOTRACK_AUTH_ISSUER
//   - GEOTRACK_AUTH_ACCESS_TTL
//   - GEOTRACK_AUTH_CLOCK_SKEW
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("GEOTRACK_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("GEOTRACK_AUTH_ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTokenTTL = d
	}

	if v := os.Getenv("GEOTRACK_AUTH_CLOCK_SKEW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.ClockSkew = d
	}

	secret := os.Getenv("GEOTRACK_JWT_SECRET")
	if len(secret) < minSecretBytes {
		return Config{}, ErrConfig
	}
	cfg.Secret = []byte(secret)

	if prev := os.Getenv("GEOTRACK_JWT_SECRET_PREVIOUS"); prev != "" {
		if len(prev) < minSecretBytes {
			return Config{}, ErrConfig
		}
		cfg.PreviousSecret = []byte(prev)
	}

	return cfg, nil
}
