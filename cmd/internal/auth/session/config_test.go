package session

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func setValidSecret(t *testing.T) string {
	t.Helper()
	secret := strings.Repeat("s", 48)
	t.Setenv("GEOTRACK_JWT_SECRET", secret)
	return secret
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	secret := setValidSecret(t)

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Issuer != "geotrack" {
		t.Fatalf("unexpected issuer: %q", cfg.Issuer)
	}
	if cfg.AccessTokenTTL != 4*time.Hour {
		t.Fatalf("unexpected access TTL: %v", cfg.AccessTokenTTL)
	}
	if string(cfg.Secret) != secret {
		t.Fatalf("secret not loaded")
	}
	if cfg.PreviousSecret != nil {
		t.Fatalf("unexpected previous secret")
	}
}

func TestLoadConfigFromEnv_MissingSecret(t *testing.T) {
	t.Setenv("GEOTRACK_JWT_SECRET", "")

	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got: %v", err)
	}
}

func TestLoadConfigFromEnv_ShortSecret(t *testing.T) {
	t.Setenv("GEOTRACK_JWT_SECRET", "too-short")

	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got: %v", err)
	}
}

func TestLoadConfigFromEnv_ShortPreviousSecret(t *testing.T) {
	setValidSecret(t)
	t.Setenv("GEOTRACK_JWT_SECRET_PREVIOUS", "too-short")

	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got: %v", err)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	setValidSecret(t)
	prev := strings.Repeat("p", 40)
	t.Setenv("GEOTRACK_JWT_SECRET_PREVIOUS", prev)
	t.Setenv("GEOTRACK_AUTH_ISSUER", "geotrack-staging")
	t.Setenv("GEOTRACK_AUTH_ACCESS_TTL", "90m")
	t.Setenv("GEOTRACK_AUTH_CLOCK_SKEW", "10s")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Issuer != "geotrack-staging" {
		t.Fatalf("unexpected issuer: %q", cfg.Issuer)
	}
	if cfg.AccessTokenTTL != 90*time.Minute {
		t.Fatalf("unexpected access TTL: %v", cfg.AccessTokenTTL)
	}
	if cfg.ClockSkew != 10*time.Second {
		t.Fatalf("unexpected clock skew: %v", cfg.ClockSkew)
	}
	if string(cfg.PreviousSecret) != prev {
		t.Fatalf("previous secret not loaded")
	}
}

func TestLoadConfigFromEnv_InvalidDurations(t *testing.T) {
	setValidSecret(t)

	t.Setenv("GEOTRACK_AUTH_ACCESS_TTL", "not-a-duration")
	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for bad TTL, got: %v", err)
	}

	t.Setenv("GEOTRACK_AUTH_ACCESS_TTL", "-1h")
	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for negative TTL, got: %v", err)
	}
}
