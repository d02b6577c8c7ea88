// Package authapi exposes the HTTP authentication endpoints.
//
// It wires the identity store and the session service to the REST surface:
// login, inscription (registration), token validation, logout, and a
// protected sample route. Response bodies follow the {success, message}
// convention the front-end consumes; validation uses {ok, ...}.
package authapi
