package track

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestOriginHostOnly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"http://localhost", "localhost"},
		{"http://localhost:5173", "localhost"},
		{"https://App.Example.com:443", "app.example.com"},
		{"localhost:8080", "localhost"},
		{"LOCALHOST", "localhost"},
		{"", ""},
		{"http://", ""},
	}
	for _, tc := range cases {
		if got := originHostOnly(tc.in); got != tc.want {
			t.Fatalf("originHostOnly(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDeriveOriginPatternsFromAllowedOrigins(t *testing.T) {
	t.Parallel()

	got := deriveOriginPatternsFromAllowedOrigins([]string{
		"http://localhost",
		"http://localhost:5173",
		"https://app.example.com",
		"*",
		"",
	})
	want := []string{"app.example.com", "localhost"}
	if len(got) != len(want) {
		t.Fatalf("patterns = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("patterns = %v, want %v", got, want)
		}
	}
}

func TestLiveHandler_EnforceOrigin(t *testing.T) {
	t.Parallel()

	h := &LiveHandler{
		originRequired: true,
		allowedOrigins: []string{"http://localhost", "https://app.example.com"},
	}

	newReq := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/positions/live", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	if err := h.enforceOrigin(newReq("")); err == nil {
		t.Fatalf("missing origin should be rejected when required")
	}
	if err := h.enforceOrigin(newReq("http://localhost")); err != nil {
		t.Fatalf("exact allowed origin rejected: %v", err)
	}
	if err := h.enforceOrigin(newReq("http://localhost:5173")); err != nil {
		t.Fatalf("allowed host with port rejected: %v", err)
	}
	if err := h.enforceOrigin(newReq("https://evil.example.com")); err == nil {
		t.Fatalf("foreign origin accepted")
	}

	h.originRequired = false
	if err := h.enforceOrigin(newReq("")); err != nil {
		t.Fatalf("missing origin should pass when not required: %v", err)
	}
}

func TestLiveHandler_StreamsNewPositions(t *testing.T) {
	t.Setenv("GEOTRACK_WS_ORIGIN_REQUIRED", "false")
	t.Setenv("GEOTRACK_WS_POLL_INTERVAL", "25ms")

	store := NewMemoryStore()
	sessions := newTestSessions(t)

	mux := http.NewServeMux()
	NewLiveHandler(nil, store, sessions).Register(mux)

	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/positions/live"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()

	// Hello with the token, since a browser cannot set the bearer header here.
	tok := issueToken(t, sessions, "u1", "ada")
	hello, _ := json.Marshal(wsHello{Token: tok})
	if err := conn.Write(ctx, websocket.MessageText, hello); err != nil {
		t.Fatalf("write hello: %v", err)
	}

	readEvent := func() wsEvent {
		t.Helper()
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var evt wsEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			t.Fatalf("decode event %q: %v", data, err)
		}
		return evt
	}

	if evt := readEvent(); evt.Type != "ready" {
		t.Fatalf("first event = %+v, want ready", evt)
	}

	if _, err := store.Record(ctx, RecordInput{UserID: "u1", Lat: 48.8566, Lng: 2.3522}); err != nil {
		t.Fatalf("record: %v", err)
	}

	evt := readEvent()
	if evt.Type != "position" || evt.Lat != 48.8566 || evt.Lng != 2.3522 {
		t.Fatalf("unexpected event: %+v", evt)
	}

	// Another user's position must not reach this stream.
	if _, err := store.Record(ctx, RecordInput{UserID: "u2", Lat: 1, Lng: 1}); err != nil {
		t.Fatalf("record u2: %v", err)
	}
	if _, err := store.Record(ctx, RecordInput{UserID: "u1", Lat: 45.7640, Lng: 4.8357}); err != nil {
		t.Fatalf("record u1: %v", err)
	}

	evt = readEvent()
	if evt.Type != "position" || evt.Lat != 45.7640 {
		t.Fatalf("stream leaked or skipped positions: %+v", evt)
	}
}

func TestLiveHandler_RejectsBadToken(t *testing.T) {
	t.Setenv("GEOTRACK_WS_ORIGIN_REQUIRED", "false")

	store := NewMemoryStore()
	sessions := newTestSessions(t)

	mux := http.NewServeMux()
	NewLiveHandler(nil, store, sessions).Register(mux)

	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/positions/live"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()

	hello, _ := json.Marshal(wsHello{Token: "garbage"})
	if err := conn.Write(ctx, websocket.MessageText, hello); err != nil {
		t.Fatalf("write hello: %v", err)
	}

	if _, _, err := conn.Read(ctx); err == nil {
		t.Fatalf("expected close after bad token")
	} else if websocket.CloseStatus(err) != websocket.StatusPolicyViolation {
		t.Fatalf("close status = %v, want policy violation", websocket.CloseStatus(err))
	}
}
