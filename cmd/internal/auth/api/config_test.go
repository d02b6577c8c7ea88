package authapi

import "testing"

func TestLoadConfigFromEnv(t *testing.T) {
	cfg := LoadConfigFromEnv()
	if cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("default MaxBodyBytes = %d, want %d", cfg.MaxBodyBytes, 1<<20)
	}
	if cfg.TrustProxy {
		t.Fatalf("TrustProxy should default to false")
	}

	t.Setenv("GEOTRACK_AUTH_MAX_BODY_BYTES", "4096")
	t.Setenv("GEOTRACK_AUTH_TRUST_PROXY", "true")

	cfg = LoadConfigFromEnv()
	if cfg.MaxBodyBytes != 4096 {
		t.Fatalf("MaxBodyBytes = %d, want 4096", cfg.MaxBodyBytes)
	}
	if !cfg.TrustProxy {
		t.Fatalf("TrustProxy should be true")
	}

	// Invalid values fall back to defaults.
	t.Setenv("GEOTRACK_AUTH_MAX_BODY_BYTES", "-1")
	t.Setenv("GEOTRACK_AUTH_TRUST_PROXY", "maybe")

	cfg = LoadConfigFromEnv()
	if cfg.MaxBodyBytes != 1<<20 || cfg.TrustProxy {
		t.Fatalf("fallback config = %+v", cfg)
	}
}
