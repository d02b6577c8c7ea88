package track

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/coder/websocket"

	"geotrack/cmd/internal/auth/session"
)

const (
	wsMaxFrameBytes = 4 << 10

	wsDefaultWriteTimeout   = 5 * time.Second
	wsDefaultPollInterval   = 2 * time.Second
	wsDefaultHelloTimeout   = 10 * time.Second
	wsDefaultRevalidateEach = time.Minute
	wsDefaultBatchLimit     = 50

	// Security defaults:
	// - Origin is required by default.
	// - Only localhost is allowed by default (secure-by-default for dev).
	wsDefaultOriginRequired = true
	wsDefaultAllowedOrigins = "http://localhost,http://127.0.0.1"
)

// LiveHandler streams newly recorded positions over a WebSocket.
//
// The client authenticates either with a bearer header on the upgrade
// request or, since browsers cannot set headers on WebSocket upgrades,
// with a first-message hello {"token": "..."}. The stream then tails the
// position store for the authenticated user only. The token is
// re-validated periodically so a logout cuts live streams too.
type LiveHandler struct {
	log      *slog.Logger
	store    Store
	sessions SessionValidator

	originRequired bool
	allowedOrigins []string

	// Derived for websocket.Accept origin checks.
	// Accept() authorizes same-host origins by default, but for cross-origin it requires OriginPatterns.
	originPatterns []string

	writeTimeout   time.Duration
	pollInterval   time.Duration
	helloTimeout   time.Duration
	revalidateEach time.Duration
	batchLimit     int
}

// NewLiveHandler constructs a LiveHandler with secure defaults,
// overridable via GEOTRACK_WS_* environment variables.
func NewLiveHandler(log *slog.Logger, store Store, sessions SessionValidator) *LiveHandler {
	if log == nil {
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	h := &LiveHandler{log: log, store: store, sessions: sessions}

	h.originRequired = envBoolWS("GEOTRACK_WS_ORIGIN_REQUIRED", wsDefaultOriginRequired)
	h.allowedOrigins = envCSVWS("GEOTRACK_WS_ALLOWED_ORIGINS", wsDefaultAllowedOrigins)
	h.originPatterns = deriveOriginPatternsFromAllowedOrigins(h.allowedOrigins)

	h.writeTimeout = envDurationWS("GEOTRACK_WS_WRITE_TIMEOUT", wsDefaultWriteTimeout)
	h.pollInterval = envDurationWS("GEOTRACK_WS_POLL_INTERVAL", wsDefaultPollInterval)
	h.helloTimeout = envDurationWS("GEOTRACK_WS_HELLO_TIMEOUT", wsDefaultHelloTimeout)
	h.revalidateEach = envDurationWS("GEOTRACK_WS_REVALIDATE_INTERVAL", wsDefaultRevalidateEach)
	h.batchLimit = envIntWS("GEOTRACK_WS_BATCH_LIMIT", wsDefaultBatchLimit)

	return h
}

// Register mounts the live stream route on the mux.
func (h *LiveHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/positions/live", h.handleLive)
}

type wsHello struct {
	Token string `json:"token"`
}

type wsEvent struct {
	Type      string     `json:"type"`
	Lat       float64    `json:"lat,omitempty"`
	Lng       float64    `json:"lng,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func (h *LiveHandler) handleLive(w http.ResponseWriter, r *http.Request) {
	if err := h.enforceOrigin(r); err != nil {
		h.log.Info("ws.reject.origin", "err", err, "origin", r.Header.Get("Origin"), "remote", r.RemoteAddr)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.log.Error("ws.accept.fail", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	conn.SetReadLimit(wsMaxFrameBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	token, claims, err := h.authenticate(ctx, conn, r)
	if err != nil {
		h.log.Info("ws.reject.auth", "err", err, "remote", r.RemoteAddr)
		_ = conn.Close(websocket.StatusPolicyViolation, "unauthorized")
		return
	}

	// Snapshot the tail cursor before signaling readiness so positions
	// recorded right after "ready" are never missed.
	lastID := ""
	if last, err := h.store.LastByUser(ctx, claims.UserID); err == nil {
		lastID = last.ID
	}

	if err := h.writeEvent(ctx, conn, wsEvent{Type: "ready"}); err != nil {
		return
	}

	h.log.Info("ws.stream.open", "user_id", claims.UserID)

	// Reader goroutine: the client sends nothing after the hello, but we must
	// keep reading to process close frames and pings.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	h.streamPositions(ctx, conn, claims.UserID, token, lastID)
}

// authenticate resolves the caller's identity from the bearer header or,
// failing that, from a hello message sent within helloTimeout.
// It returns the raw token so the stream loop can re-validate it later.
func (h *LiveHandler) authenticate(ctx context.Context, conn *websocket.Conn, r *http.Request) (string, session.AccessClaims, error) {
	token, ok := bearerToken(r)
	if !ok {
		helloCtx, helloCancel := context.WithTimeout(ctx, h.helloTimeout)
		defer helloCancel()

		mt, data, err := conn.Read(helloCtx)
		if err != nil {
			return "", session.AccessClaims{}, fmt.Errorf("hello not received: %w", err)
		}
		if mt != websocket.MessageText {
			return "", session.AccessClaims{}, errors.New("hello must be a text frame")
		}

		var hello wsHello
		if err := json.Unmarshal(data, &hello); err != nil || hello.Token == "" {
			return "", session.AccessClaims{}, errors.New("hello missing token")
		}
		token = hello.Token
	}

	claims, err := h.sessions.Validate(ctx, token, time.Now().UTC())
	if err != nil {
		return "", session.AccessClaims{}, err
	}
	return token, claims, nil
}

// streamPositions tails the store and pushes new positions until the
// connection or the session dies.
func (h *LiveHandler) streamPositions(ctx context.Context, conn *websocket.Conn, userID, token, lastID string) {
	poll := time.NewTicker(h.pollInterval)
	defer poll.Stop()

	revalidate := time.NewTicker(h.revalidateEach)
	defer revalidate.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-revalidate.C:
			if _, err := h.sessions.Validate(ctx, token, time.Now().UTC()); err != nil {
				h.log.Info("ws.stream.session_gone", "user_id", userID, "err", err)
				_ = conn.Close(websocket.StatusPolicyViolation, "session ended")
				return
			}

		case <-poll.C:
			batch, err := h.store.SinceByUser(ctx, userID, lastID, h.batchLimit)
			if err != nil {
				h.log.Error("ws.stream.poll.fail", "user_id", userID, "err", err)
				_ = conn.Close(websocket.StatusInternalError, "store unavailable")
				return
			}

			for _, pos := range batch {
				ts := pos.RecordedAt
				evt := wsEvent{Type: "position", Lat: pos.Lat, Lng: pos.Lng, Timestamp: &ts}
				if err := h.writeEvent(ctx, conn, evt); err != nil {
					h.log.Info("ws.stream.write.fail", "user_id", userID, "close_status", websocket.CloseStatus(err), "err", err)
					return
				}
				lastID = pos.ID
			}
		}
	}
}

func (h *LiveHandler) writeEvent(parent context.Context, conn *websocket.Conn, evt wsEvent) error {
	ctx, cancel := context.WithTimeout(parent, h.writeTimeout)
	defer cancel()

	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, b)
}

// ---- origin policy ----

func (h *LiveHandler) enforceOrigin(r *http.Request) error {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		if h.originRequired {
			return errors.New("missing origin")
		}
		return nil
	}

	if len(h.allowedOrigins) == 0 {
		return errors.New("origin not allowed (no allowlist)")
	}

	originHost := originHostOnly(origin)

	for _, a := range h.allowedOrigins {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if a == "*" {
			// Strongly discouraged, but honored if explicitly configured.
			return nil
		}
		if origin == a {
			return nil
		}
		if originHost != "" && originHost == originHostOnly(a) {
			return nil
		}
	}

	return fmt.Errorf("origin not allowed: %s", origin)
}

func originHostOnly(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return ""
		}
		host := strings.TrimSpace(u.Host)
		if host == "" {
			return ""
		}
		if bare, _, err := net.SplitHostPort(host); err == nil {
			return strings.ToLower(bare)
		}
		return strings.ToLower(host)
	}

	if bare, _, err := net.SplitHostPort(s); err == nil {
		return strings.ToLower(bare)
	}
	return strings.ToLower(s)
}

func deriveOriginPatternsFromAllowedOrigins(allowed []string) []string {
	// websocket.Accept matches OriginPatterns against the origin host.
	// Only hosts extracted from the allowlist are accepted.
	seen := make(map[string]struct{}, len(allowed))

	for _, a := range allowed {
		host := originHostOnly(a)
		if host == "" || host == "*" {
			continue
		}
		seen[host] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for host := range seen {
		out = append(out, host)
	}

	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j] < out[i] {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// ---- env helpers ----

func envBoolWS(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envIntWS(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDurationWS(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envCSVWS(key string, def string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		raw = def
	}
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
