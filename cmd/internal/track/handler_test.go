package track

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"geotrack/cmd/internal/auth/session"
)

func newTestSessions(t *testing.T) *session.Service {
	t.Helper()

	cfg := session.DefaultConfig()
	cfg.Secret = bytes.Repeat([]byte("k"), 32)

	m, err := session.NewHMACJWTManager(cfg)
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	return session.NewService(m, session.NewMemoryRevocationStore())
}

func newTestMux(t *testing.T) (*http.ServeMux, *MemoryStore, *session.Service) {
	t.Helper()

	store := NewMemoryStore()
	sessions := newTestSessions(t)

	mux := http.NewServeMux()
	NewHandler(nil, store, sessions).Register(mux)
	return mux, store, sessions
}

func issueToken(t *testing.T, sessions *session.Service, userID, login string) string {
	t.Helper()

	tok, _, err := sessions.Issue(userID, login, time.Now().UTC())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHandler_RequiresAuth(t *testing.T) {
	t.Parallel()

	mux, _, _ := newTestMux(t)

	for _, path := range []string{"/api/map", "/api/positions/last"} {
		w := doRequest(t, mux, http.MethodGet, path, "", "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s without token: status = %d, want 401", path, w.Code)
		}
		body := decodeBody(t, w)
		if body["success"] != false {
			t.Fatalf("%s: expected success=false, got: %v", path, body)
		}
	}

	w := doRequest(t, mux, http.MethodPost, "/api/positions", "", `{"lat":1,"lng":2}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("record without token: status = %d, want 401", w.Code)
	}

	// Garbage token is rejected the same way.
	w = doRequest(t, mux, http.MethodGet, "/api/map", "not-a-jwt", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d, want 401", w.Code)
	}
}

func TestHandler_RecordThenLast(t *testing.T) {
	t.Parallel()

	mux, _, sessions := newTestMux(t)
	tok := issueToken(t, sessions, "u1", "ada")

	// No position yet.
	w := doRequest(t, mux, http.MethodGet, "/api/positions/last", tok, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("last before record: status = %d, want 404", w.Code)
	}

	w = doRequest(t, mux, http.MethodPost, "/api/positions", tok, `{"lat":48.8566,"lng":2.3522}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("record: status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doRequest(t, mux, http.MethodGet, "/api/positions/last", tok, "")
	if w.Code != http.StatusOK {
		t.Fatalf("last: status = %d, body = %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["success"] != true {
		t.Fatalf("expected success=true, got: %v", body)
	}
	if body["lat"] != 48.8566 || body["lng"] != 2.3522 {
		t.Fatalf("unexpected coordinates: %v", body)
	}
	if _, ok := body["timestamp"]; !ok {
		t.Fatalf("missing timestamp: %v", body)
	}
}

func TestHandler_RecordValidation(t *testing.T) {
	t.Parallel()

	mux, _, sessions := newTestMux(t)
	tok := issueToken(t, sessions, "u1", "ada")

	cases := []struct {
		name string
		body string
	}{
		{"missing lat", `{"lng":2.3522}`},
		{"missing lng", `{"lat":48.8566}`},
		{"empty object", `{}`},
		{"not json", `lat=1&lng=2`},
		{"unknown field", `{"lat":1,"lng":2,"altitude":12}`},
		{"lat out of range", `{"lat":91,"lng":0}`},
		{"lng out of range", `{"lat":0,"lng":-181}`},
	}
	for _, tc := range cases {
		w := doRequest(t, mux, http.MethodPost, "/api/positions", tok, tc.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400 (body %s)", tc.name, w.Code, w.Body.String())
		}
		body := decodeBody(t, w)
		if body["success"] != false {
			t.Fatalf("%s: expected success=false, got: %v", tc.name, body)
		}
	}
}

func TestHandler_MapIsScopedToUser(t *testing.T) {
	t.Parallel()

	mux, store, sessions := newTestMux(t)

	tokA := issueToken(t, sessions, "userA", "ada")
	tokB := issueToken(t, sessions, "userB", "bob")

	// userA records two positions, userB one.
	for _, in := range []RecordInput{
		{UserID: "userA", Lat: 1, Lng: 1},
		{UserID: "userA", Lat: 2, Lng: 2},
		{UserID: "userB", Lat: 50, Lng: 50},
	} {
		if _, err := store.Record(t.Context(), in); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	w := doRequest(t, mux, http.MethodGet, "/api/map", tokA, "")
	if w.Code != http.StatusOK {
		t.Fatalf("map: status = %d", w.Code)
	}
	body := decodeBody(t, w)
	data, ok := body["data"].([]any)
	if !ok || len(data) != 2 {
		t.Fatalf("userA map: expected 2 points, got: %v", body)
	}

	w = doRequest(t, mux, http.MethodGet, "/api/map", tokB, "")
	body = decodeBody(t, w)
	data, ok = body["data"].([]any)
	if !ok || len(data) != 1 {
		t.Fatalf("userB map: expected 1 point, got: %v", body)
	}
	point := data[0].(map[string]any)
	if point["lat"] != 50.0 {
		t.Fatalf("userB sees foreign point: %v", point)
	}
}

func TestHandler_LastIsScopedToUser(t *testing.T) {
	t.Parallel()

	mux, store, sessions := newTestMux(t)

	if _, err := store.Record(t.Context(), RecordInput{UserID: "userA", Lat: 1, Lng: 1}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tokB := issueToken(t, sessions, "userB", "bob")
	w := doRequest(t, mux, http.MethodGet, "/api/positions/last", tokB, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("userB should have no positions: status = %d", w.Code)
	}
}

func TestHandler_RevokedTokenIsRejected(t *testing.T) {
	t.Parallel()

	mux, _, sessions := newTestMux(t)
	tok := issueToken(t, sessions, "u1", "ada")

	w := doRequest(t, mux, http.MethodGet, "/api/map", tok, "")
	if w.Code != http.StatusOK {
		t.Fatalf("map before revoke: status = %d", w.Code)
	}

	if err := sessions.Revoke(t.Context(), tok, time.Now().UTC()); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	w = doRequest(t, mux, http.MethodGet, "/api/map", tok, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("map after revoke: status = %d, want 401", w.Code)
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc.def.ghi", "abc.def.ghi", true},
		{"Bearer   spaced  ", "spaced", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
		{"abc.def.ghi", "", false},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			r.Header.Set("Authorization", tc.header)
		}
		got, ok := bearerToken(r)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("header %q: got (%q, %v), want (%q, %v)", tc.header, got, ok, tc.want, tc.ok)
		}
	}
}
