// Package auth issues and verifies the signed bearer tokens that identify a
// user on every authenticated request.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// ErrInvalidToken is returned for tokens that are malformed, carry a bad
// signature or have expired. Callers are not told which.
var ErrInvalidToken = errors.New("invalid token")

// Authenticator resolves a bearer token to the id of the user it was issued for.
type Authenticator interface {
	Verify(token string) (int64, error)
}

// Issuer mints tokens for authenticated users.
type Issuer interface {
	Issue(userID int64) (string, error)
}

// Claims is the payload of an issued token.
type Claims struct {
	UserID int64 `json:"id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens with a server-held secret.
// Tokens are self-contained; there is no server-side session or revocation list.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option customises a TokenIssuer.
type Option func(*TokenIssuer)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(i *TokenIssuer) {
		if now != nil {
			i.now = now
		}
	}
}

func NewTokenIssuer(secret string, ttl time.Duration, opts ...Option) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	issuer := &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer, nil
}

// Issue returns a token for userID that expires after the configured TTL.
func (i *TokenIssuer) Issue(userID int64) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry and returns the user id.
func (i *TokenIssuer) Verify(tokenString string) (int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID <= 0 {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}

var (
	_ Authenticator = (*TokenIssuer)(nil)
	_ Issuer        = (*TokenIssuer)(nil)
)
