// Package identity implements geotrack's credential store boundary.
//
// It contains the user model, password hashing (bcrypt), ID minting (ULID),
// and the Postgres-backed store used by the HTTP auth layer.
//
// This package is intentionally dependency-light and security-first.
package identity
