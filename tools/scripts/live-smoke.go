// Package main provides a CI-friendly smoke test for the geotrack API.
//
// It validates:
//   - inscription + login
//   - WebSocket handshake + hello token authentication
//   - ready event before any position
//   - record -> live stream fanout, in order
//   - last-position fetch over HTTP
//   - logout revokes the token
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
)

const maxReadBytes = 4 << 10

type tokenReply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

type liveEvent struct {
	Type      string     `json:"type"`
	Lat       float64    `json:"lat"`
	Lng       float64    `json:"lng"`
	Timestamp *time.Time `json:"timestamp"`
}

func main() {
	var (
		baseURL = flag.String("url", "http://127.0.0.1:8080", "Server base URL")
		origin  = flag.String("origin", "http://localhost", "Origin header for the WS handshake")
		timeout = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
		verbose = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}

	root := context.Background()
	client := &http.Client{Timeout: *timeout}

	login := fmt.Sprintf("smoke-%d", time.Now().UnixNano())
	password := fmt.Sprintf("pw-%d-secret", time.Now().UnixNano())

	token := mustInscription(root, client, *baseURL, login, password)
	if *verbose {
		fmt.Printf("registered: login=%s\n", login)
	}

	loginToken := mustLogin(root, client, *baseURL, login, password)

	conn := mustDialLive(root, *baseURL, *origin, loginToken, *timeout)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	mustReadEventType(root, conn, "ready", *timeout)

	positions := [][2]float64{{48.8566, 2.3522}, {45.7640, 4.8357}}
	for _, p := range positions {
		mustRecord(root, client, *baseURL, loginToken, p[0], p[1])
	}

	for _, p := range positions {
		evt := mustReadEventType(root, conn, "position", *timeout)
		if evt.Lat != p[0] || evt.Lng != p[1] {
			fatalf("stream order mismatch: got=(%v,%v) want=(%v,%v)", evt.Lat, evt.Lng, p[0], p[1])
		}
		if evt.Timestamp == nil || evt.Timestamp.IsZero() {
			fatalf("position event missing timestamp")
		}
	}

	lat, lng := mustLastPosition(root, client, *baseURL, loginToken)
	last := positions[len(positions)-1]
	if lat != last[0] || lng != last[1] {
		fatalf("last position mismatch: got=(%v,%v) want=(%v,%v)", lat, lng, last[0], last[1])
	}

	mustLogout(root, client, *baseURL, loginToken)
	mustValidateRejected(root, client, *baseURL, loginToken)

	// The token issued at inscription is a distinct session and must survive
	// the other session's logout.
	mustValidateAccepted(root, client, *baseURL, token)

	fmt.Printf("OK: login=%s positions=%d\n", login, len(positions))
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func mustInscription(ctx context.Context, client *http.Client, baseURL, login, password string) string {
	body := map[string]string{
		"prenom":   "Smoke",
		"nom":      "Test",
		"email":    login + "@smoke.invalid",
		"username": login,
		"password": password,
	}
	var reply tokenReply
	status := mustPostJSON(ctx, client, baseURL+"/api/inscription", "", body, &reply)
	if status != http.StatusOK || !reply.Success || reply.Token == "" {
		fatalf("inscription failed: status=%d message=%q", status, reply.Message)
	}
	return reply.Token
}

func mustLogin(ctx context.Context, client *http.Client, baseURL, login, password string) string {
	var reply tokenReply
	status := mustPostJSON(ctx, client, baseURL+"/api/login", "", map[string]string{
		"login":    login,
		"password": password,
	}, &reply)
	if status != http.StatusOK || !reply.Success || reply.Token == "" {
		fatalf("login failed: status=%d message=%q", status, reply.Message)
	}
	return reply.Token
}

func mustRecord(ctx context.Context, client *http.Client, baseURL, token string, lat, lng float64) {
	var reply struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	status := mustPostJSON(ctx, client, baseURL+"/api/positions", token, map[string]float64{
		"lat": lat,
		"lng": lng,
	}, &reply)
	if status != http.StatusOK || !reply.Success {
		fatalf("record position failed: status=%d message=%q", status, reply.Message)
	}
}

func mustLastPosition(ctx context.Context, client *http.Client, baseURL, token string) (float64, float64) {
	var reply struct {
		Success bool    `json:"success"`
		Lat     float64 `json:"lat"`
		Lng     float64 `json:"lng"`
	}
	status := mustGetJSON(ctx, client, baseURL+"/api/positions/last", token, &reply)
	if status != http.StatusOK || !reply.Success {
		fatalf("last position failed: status=%d", status)
	}
	return reply.Lat, reply.Lng
}

func mustLogout(ctx context.Context, client *http.Client, baseURL, token string) {
	var reply struct {
		Success bool `json:"success"`
	}
	status := mustPostJSON(ctx, client, baseURL+"/api/auth/logout", token, map[string]string{}, &reply)
	if status != http.StatusOK || !reply.Success {
		fatalf("logout failed: status=%d", status)
	}
}

func mustValidateRejected(ctx context.Context, client *http.Client, baseURL, token string) {
	var reply struct {
		OK bool `json:"ok"`
	}
	status := mustGetJSON(ctx, client, baseURL+"/api/auth/validate", token, &reply)
	if status != http.StatusUnauthorized || reply.OK {
		fatalf("revoked token still accepted: status=%d ok=%v", status, reply.OK)
	}
}

func mustValidateAccepted(ctx context.Context, client *http.Client, baseURL, token string) {
	var reply struct {
		OK bool `json:"ok"`
	}
	status := mustGetJSON(ctx, client, baseURL+"/api/auth/validate", token, &reply)
	if status != http.StatusOK || !reply.OK {
		fatalf("valid token rejected: status=%d ok=%v", status, reply.OK)
	}
}

func mustDialLive(parent context.Context, baseURL, origin, token string, stepTimeout time.Duration) *websocket.Conn {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	wsURL := strings.Replace(baseURL, "http", "ws", 1) + "/api/positions/live"

	h := http.Header{}
	if strings.TrimSpace(origin) != "" {
		h.Set("Origin", origin)
	}

	conn, resp, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPHeader: h})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		fatalf("ws dial: %v", err)
	}
	conn.SetReadLimit(maxReadBytes)

	hello, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		fatalf("marshal hello: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, hello); err != nil {
		fatalf("write hello: %v", err)
	}

	return conn
}

func mustReadEventType(parent context.Context, conn *websocket.Conn, wantType string, stepTimeout time.Duration) liveEvent {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		fatalf("read while waiting for %q: %v", wantType, err)
	}

	var evt liveEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		fatalf("bad event json: %v", err)
	}
	if evt.Type != wantType {
		fatalf("unexpected event type: got=%q want=%q", evt.Type, wantType)
	}
	return evt
}

func mustPostJSON(ctx context.Context, client *http.Client, url, token string, body, out any) int {
	b, err := json.Marshal(body)
	if err != nil {
		fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return mustDo(client, req, out)
}

func mustGetJSON(ctx context.Context, client *http.Client, url, token string, out any) int {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return mustDo(client, req, out)
}

func mustDo(client *http.Client, req *http.Request, out any) int {
	resp, err := client.Do(req)
	if err != nil {
		fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReadBytes))
	if err != nil {
		fatalf("read response: %v", err)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			fatalf("decode response from %s: %v (body=%q)", req.URL.Path, err, data)
		}
	}
	return resp.StatusCode
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
