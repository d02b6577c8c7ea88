// Package token provides token digest primitives for geotrack.
//
// It is the single source of truth for how revoked token identifiers are
// digested before being written to the revocation store.
//
// Design goals:
// - Default dev/back-compat mode: SHA-256(jti) when no HMAC key is configured.
// - Production-enforced mode: HMAC-SHA256(jti, key) when policy requires it.
// - Stable 64-char hex output suitable for Redis keys and constant-time comparison.
//
// Environment:
// - GEOTRACK_TOKEN_HMAC_KEY: when set, enables HMAC mode.
// Policy:
//   - If RequireTokenHMAC=true, callers MUST enforce a minimum key size (>= 32 bytes)
//     and MUST use HMAC (no SHA fallback).
package token
