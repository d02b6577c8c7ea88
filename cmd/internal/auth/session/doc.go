// Package session implements Geotrack's stateless session architecture.
//
// Access tokens are signed JWTs (HS256) carrying the user ID, the login,
// and a unique token ID ("jti"). Sessions are not persisted; instead, logout
// places the token ID into a revocation set that Validate consults on every
// check. Revocation entries live in Redis with a TTL equal to the token's
// remaining validity (an in-memory store backs development and tests).
//
// Revocation keys are stored as digests, never as raw token IDs
// (HMAC-SHA256 when GEOTRACK_TOKEN_HMAC_KEY is set; otherwise SHA-256 for dev).
//
// Transport (HTTP/WS) integration is intentionally out of scope here.
package session
