package identity

import (
	"context"
	"time"
)

// User is geotrack's canonical security principal.
type User struct {
	ID        string
	Login     string
	Email     string
	FirstName string
	LastName  string

	CreatedAt time.Time
}

// UserAuth pairs a user with its stored password hash for credential checks.
// IMPORTANT: the hash never leaves the auth layer; it must not be serialized.
type UserAuth struct {
	User         User
	PasswordHash string
}

// CreateUserInput describes a registration request.
// All fields are required; the store rejects blank values.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Login     string
	Password  string
	Now       time.Time
}

// CreateUserResult returns the created user.
type CreateUserResult struct {
	User User
}

// Store is the credential persistence boundary.
//
// Lookup and insert are the only operations the auth core needs; uniqueness
// of login and email is enforced by the store.
type Store interface {
	// CreateUser hashes the password and inserts a new user record.
	// Returns ConflictError when login or email is already taken.
	CreateUser(ctx context.Context, in CreateUserInput) (CreateUserResult, error)

	// GetUserAuthByLogin loads a user and its password hash by login.
	// Lookup is case-insensitive (normalized login).
	GetUserAuthByLogin(ctx context.Context, login string) (UserAuth, error)

	// GetUserByID loads a user row by ID.
	GetUserByID(ctx context.Context, id string) (User, error)
}
