// Package track stores and serves GPS positions.
//
// Positions are recorded per user and every read is scoped to the
// authenticated user. The package exposes REST handlers for recording
// and querying positions plus a WebSocket stream of newly recorded
// positions (see ws.go).
package track
