package session

import (
	"context"
	"time"
)

// minRevocationTTL keeps a revocation entry alive at least this long,
// covering tokens revoked moments before their natural expiry while
// clock skew could still let them verify.
const minRevocationTTL = time.Minute

// Service implements the high-level stateless session operations.
//
// It issues access tokens, validates presented tokens against both the
// signature rules and the revocation set, and revokes tokens on logout.
type Service struct {
	tokens      AccessTokenManager
	revocations RevocationStore
}

// NewService constructs a Service with the provided token manager and revocation store.
func NewService(tokens AccessTokenManager, revocations RevocationStore) *Service {
	return &Service{tokens: tokens, revocations: revocations}
}

// Issue creates a fresh access token for the given user.
func (s *Service) Issue(userID, login string, now time.Time) (string, time.Time, error) {
	return s.tokens.Issue(userID, login, now)
}

// Validate verifies the token's signature and expiry, then checks the
// revocation set. A verified but revoked token yields ErrTokenRevoked.
//
// Revocation-store failures are treated as validation failures: an
// unreachable store must never let a logged-out token through.
func (s *Service) Validate(ctx context.Context, token string, now time.Time) (AccessClaims, error) {
	claims, err := s.tokens.Verify(token, now)
	if err != nil {
		return AccessClaims{}, err
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return AccessClaims{}, err
	}
	if revoked {
		return AccessClaims{}, ErrTokenRevoked
	}

	return claims, nil
}

// Revoke blacklists the token's ID until the token would have expired.
//
// It is deliberately forgiving: malformed tokens, tokens without a usable
// ID, and already-revoked tokens all succeed silently. Logout must be
// idempotent and must never leak whether a token was valid.
func (s *Service) Revoke(ctx context.Context, token string, now time.Time) error {
	claims, err := s.tokens.DecodeUnverified(token)
	if err != nil {
		return nil
	}

	ttl := claims.ExpiresAt.Sub(now)
	if ttl < minRevocationTTL {
		ttl = minRevocationTTL
	}

	return s.revocations.Revoke(ctx, claims.TokenID, ttl)
}
