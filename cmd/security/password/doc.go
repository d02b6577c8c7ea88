// Package password provides password hashing and verification utilities for geotrack.
//
// It implements bcrypt hashing (salted, deliberately slow) and includes:
// - Configurable bcrypt cost (via environment variables)
// - Password policy validation
// - Verification with strict handling of malformed hashes
//
// Security notes:
// - The default cost is tuned so hashing takes tens to low-hundreds of
//   milliseconds on current hardware, as a brute-force defense.
// - Hash strings are treated as untrusted input during Verify; a malformed
//   hash surfaces as ErrInvalidHash, never as a match.
package password
