package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNonZeroHelpers(t *testing.T) {
	t.Parallel()

	if got := nonZeroDuration(0, 5*time.Second); got != 5*time.Second {
		t.Fatalf("nonZeroDuration zero=%v", got)
	}
	if got := nonZeroDuration(2*time.Second, 5*time.Second); got != 2*time.Second {
		t.Fatalf("nonZeroDuration set=%v", got)
	}
	if got := nonZeroInt(0, 1<<20); got != 1<<20 {
		t.Fatalf("nonZeroInt zero=%d", got)
	}
	if got := nonZeroInt(4096, 1<<20); got != 4096 {
		t.Fatalf("nonZeroInt set=%d", got)
	}
}

func TestRegisterHTTP_Healthz(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registerHTTP(mux, log, Config{}, nil, false, nil, nil, nil, nil)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr.Code)
	}
	if rr.Body.String() != "ok\n" {
		t.Fatalf("healthz body=%q", rr.Body.String())
	}
}

func TestRegisterHTTP_ReadyzWithoutDB(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	mux := http.NewServeMux()
	registerHTTP(mux, log, Config{}, nil, false, nil, nil, nil, nil)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz without requirement status=%d", rr.Code)
	}

	strict := http.NewServeMux()
	registerHTTP(strict, log, Config{ReadinessRequireDB: true}, nil, false, nil, nil, nil, nil)

	rr = httptest.NewRecorder()
	strict.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("strict readyz status=%d", rr.Code)
	}
}

func TestRegisterHTTP_MetricsExposed(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registerHTTP(mux, log, Config{}, nil, false, nil, nil, nil, nil)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Fatalf("metrics body missing runtime collectors")
	}
}

func TestValidateSecurityConfig(t *testing.T) {
	if err := ValidateSecurityConfig(Config{RequireTokenHMAC: false}); err != nil {
		t.Fatalf("policy disabled should pass: %v", err)
	}

	t.Setenv("GEOTRACK_TOKEN_HMAC_KEY", "")
	if err := ValidateSecurityConfig(Config{RequireTokenHMAC: true}); err == nil {
		t.Fatalf("missing key must fail the policy")
	}

	t.Setenv("GEOTRACK_TOKEN_HMAC_KEY", "short")
	if err := ValidateSecurityConfig(Config{RequireTokenHMAC: true}); err == nil {
		t.Fatalf("short key must fail the policy")
	}

	t.Setenv("GEOTRACK_TOKEN_HMAC_KEY", strings.Repeat("k", 32))
	if err := ValidateSecurityConfig(Config{RequireTokenHMAC: true}); err != nil {
		t.Fatalf("valid key should pass: %v", err)
	}
}
