package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer("super-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer error: %v", err)
	}

	for _, userID := range []int64{1, 42, 1 << 40} {
		tok, err := issuer.Issue(userID)
		if err != nil {
			t.Fatalf("Issue error: %v", err)
		}
		got, err := issuer.Verify(tok)
		if err != nil {
			t.Fatalf("Verify error: %v", err)
		}
		if got != userID {
			t.Fatalf("userID mismatch: got %d want %d", got, userID)
		}
	}
}

func TestVerify_ValidUntilExpiry(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	clock := issuedAt
	issuer, err := NewTokenIssuer("secret", 0, WithClock(func() time.Time { return clock }))
	if err != nil {
		t.Fatalf("NewTokenIssuer error: %v", err)
	}

	tok, err := issuer.Issue(7)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	clock = issuedAt.Add(DefaultTokenTTL - time.Second)
	if got, err := issuer.Verify(tok); err != nil || got != 7 {
		t.Fatalf("expected token to be valid just before expiry, got %d, %v", got, err)
	}

	clock = issuedAt.Add(DefaultTokenTTL + time.Second)
	if _, err := issuer.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	right, _ := NewTokenIssuer("right-secret", time.Hour)
	wrong, _ := NewTokenIssuer("wrong-secret", time.Hour)

	tok, err := right.Issue(3)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := wrong.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for invalid signature, got %v", err)
	}
}

func TestVerify_MalformedString(t *testing.T) {
	t.Parallel()

	issuer, _ := NewTokenIssuer("k", time.Hour)
	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		if _, err := issuer.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", tok, err)
		}
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	now := time.Now()
	claims := Claims{
		UserID: 5,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	issuer, _ := NewTokenIssuer("secret", time.Hour, WithClock(fixedClock(now)))
	if _, err := issuer.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for HS512 token, got %v", err)
	}
}

func TestVerify_RequiresExpiryAndUser(t *testing.T) {
	t.Parallel()

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 5}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}

	issuer, _ := NewTokenIssuer("secret", time.Hour)
	for name, tok := range map[string]string{"no expiry": noExpiry, "no user": noUser} {
		if _, err := issuer.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenIssuer("  ", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
