package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims is the minimal identity envelope propagated across HTTP/WS.
type AccessClaims struct {
	UserID    string
	Login     string
	TokenID   string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Issuer    string
}

// AccessTokenManager issues and verifies bearer access tokens.
//
// DecodeUnverified extracts claims without checking the signature or expiry.
// It exists for revocation only: logout must be able to blacklist a token
// even after it has expired or the signing key has rotated away.
type AccessTokenManager interface {
	Issue(userID, login string, now time.Time) (token string, exp time.Time, err error)
	Verify(token string, now time.Time) (AccessClaims, error)
	DecodeUnverified(token string) (AccessClaims, error)
}

// jwtClaims is the wire shape of the signed payload.
type jwtClaims struct {
	Login string `json:"login"`
	jwt.RegisteredClaims
}

type hmacJWTManager struct {
	issuer    string
	ttl       time.Duration
	clockSkew time.Duration

	// current signs and verifies; previous verifies only (rotation window).
	current  []byte
	previous []byte
}

// NewHMACJWTManager builds an AccessTokenManager based on HS256 JWTs.
//
// Tokens carry "sub" (user ID), "login", a unique "jti", "iat" and "exp".
// Verification accepts signatures made with either the current or the
// previous secret so the key can be rotated without a logout storm.
func NewHMACJWTManager(cfg Config) (AccessTokenManager, error) {
	if len(cfg.Secret) < minSecretBytes {
		return nil, ErrConfig
	}
	if len(cfg.PreviousSecret) > 0 && len(cfg.PreviousSecret) < minSecretBytes {
		return nil, ErrConfig
	}
	if cfg.AccessTokenTTL <= 0 || cfg.ClockSkew < 0 {
		return nil, ErrConfig
	}

	return &hmacJWTManager{
		issuer:    cfg.Issuer,
		ttl:       cfg.AccessTokenTTL,
		clockSkew: cfg.ClockSkew,
		current:   cfg.Secret,
		previous:  cfg.PreviousSecret,
	}, nil
}

func (m *hmacJWTManager) Issue(userID, login string, now time.Time) (string, time.Time, error) {
	if userID == "" || login == "" {
		return "", time.Time{}, ErrInvalidToken
	}

	exp := now.Add(m.ttl)

	claims := jwtClaims{
		Login: login,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.current)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (m *hmacJWTManager) Verify(token string, now time.Time) (AccessClaims, error) {
	claims, err := m.verifyWithKey(token, now, m.current)
	if err == nil {
		return claims, nil
	}
	if len(m.previous) > 0 {
		if claims, prevErr := m.verifyWithKey(token, now, m.previous); prevErr == nil {
			return claims, nil
		}
	}
	return AccessClaims{}, ErrInvalidToken
}

func (m *hmacJWTManager) verifyWithKey(token string, now time.Time, key []byte) (AccessClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	var claims jwtClaims
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	if err != nil || !parsed.Valid {
		return AccessClaims{}, ErrInvalidToken
	}

	return claimsEnvelope(claims)
}

func (m *hmacJWTManager) DecodeUnverified(token string) (AccessClaims, error) {
	var claims jwtClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return AccessClaims{}, ErrInvalidToken
	}
	return claimsEnvelope(claims)
}

func claimsEnvelope(claims jwtClaims) (AccessClaims, error) {
	if claims.Subject == "" || claims.Login == "" || claims.ID == "" {
		return AccessClaims{}, ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return AccessClaims{}, ErrInvalidToken
	}

	out := AccessClaims{
		UserID:    claims.Subject,
		Login:     claims.Login,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
		Issuer:    claims.Issuer,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
