package password

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Policy controls password validation boundaries.
type Policy struct {
	MinLength int
	MaxLength int
	// If true, enable an extra, minimal weak-pattern rejection.
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
type Config struct {
	// Cost is the bcrypt cost factor (work factor doubles per increment).
	Cost   int
	Policy Policy
}

// DefaultConfig returns a strong baseline suitable for an auth backend.
// Values are intentionally conservative and can be overridden via env.
func DefaultConfig() Config {
	return Config{
		// Cost 12 lands in the tens-to-low-hundreds of milliseconds range
		// on current server hardware.
		Cost: 12,
		Policy: Policy{
			MinLength:      8,
			MaxLength:      64,
			RejectVeryWeak: false,
		},
	}
}

// FromEnv loads config from environment variables.
//
// Env surface:
// - GEOTRACK_PASSWORD_MIN_LEN
// - GEOTRACK_PASSWORD_MAX_LEN
// - GEOTRACK_PASSWORD_REJECT_VERY_WEAK (true/false)
// - GEOTRACK_BCRYPT_COST
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v, ok := os.LookupEnv("GEOTRACK_PASSWORD_MIN_LEN"); ok {
		n, err := atoiBounded(v, 1, 72)
		if err != nil {
			return Config{}, fmt.Errorf("GEOTRACK_PASSWORD_MIN_LEN: %w", err)
		}
		cfg.Policy.MinLength = n
	}

	if v, ok := os.LookupEnv("GEOTRACK_PASSWORD_MAX_LEN"); ok {
		n, err := atoiBounded(v, 1, 72)
		if err != nil {
			return Config{}, fmt.Errorf("GEOTRACK_PASSWORD_MAX_LEN: %w", err)
		}
		cfg.Policy.MaxLength = n
	}

	if v, ok := os.LookupEnv("GEOTRACK_PASSWORD_REJECT_VERY_WEAK"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("GEOTRACK_PASSWORD_REJECT_VERY_WEAK: %w", err)
		}
		cfg.Policy.RejectVeryWeak = b
	}

	if v, ok := os.LookupEnv("GEOTRACK_BCRYPT_COST"); ok {
		n, err := atoiBounded(v, bcrypt.MinCost, 17)
		if err != nil {
			return Config{}, fmt.Errorf("GEOTRACK_BCRYPT_COST: %w", err)
		}
		cfg.Cost = n
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf("password policy: min length %d exceeds max length %d",
			cfg.Policy.MinLength, cfg.Policy.MaxLength)
	}

	return cfg, nil
}

func atoiBounded(v string, min, max int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	if n < min || n > max {
		return 0, fmt.Errorf("value %d out of range [%d..%d]", n, min, max)
	}
	return n, nil
}
