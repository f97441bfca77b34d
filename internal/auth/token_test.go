package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"pgregory.net/rapid"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	codec := newTestCodec(t, "secret", time.Hour)

	token, err := codec.Issue(7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 7 {
		t.Fatalf("expected user 7, got %d", claims.UserID)
	}
	if claims.ID == "" {
		t.Fatalf("expected a token id")
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Fatalf("expected iat and exp to be set")
	}
}

func TestIssueRejectsInvalidUser(t *testing.T) {
	codec := newTestCodec(t, "secret", 0)
	if _, err := codec.Issue(0); err == nil {
		t.Fatalf("expected error for user id 0")
	}
}

func TestVerifyRejectsMalformedTokens(t *testing.T) {
	codec := newTestCodec(t, "secret", time.Hour)

	for _, token := range []string{"", "abc", "a.b.c", "...", "eyJhbGciOiJIUzI1NiJ9.e30."} {
		if _, err := codec.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", token, err)
		}
	}
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	codec := newTestCodec(t, "secret", time.Hour)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 1})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := codec.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyExpiryBoundary(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("expired token", func(t *testing.T) {
		codec := newTestCodec(t, "secret", time.Minute)
		codec.now = func() time.Time { return start }
		token, err := codec.Issue(3)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}

		codec.now = func() time.Time { return start.Add(59 * time.Second) }
		if _, err := codec.Verify(token); err != nil {
			t.Fatalf("expected token to be valid before expiry: %v", err)
		}

		codec.now = func() time.Time { return start.Add(2 * time.Minute) }
		if _, err := codec.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
		}
	})

	t.Run("no ttl", func(t *testing.T) {
		codec := newTestCodec(t, "secret", 0)
		codec.now = func() time.Time { return start }
		token, err := codec.Issue(3)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}

		codec.now = func() time.Time { return start.AddDate(10, 0, 0) }
		claims, err := codec.Verify(token)
		if err != nil {
			t.Fatalf("expected token without exp to stay valid: %v", err)
		}
		if claims.ExpiresAt != nil {
			t.Fatalf("expected no exp claim")
		}
	})
}

func TestNewCodecRequiresSecret(t *testing.T) {
	if _, err := NewCodec("", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestPropertyTokenRoundTrip(t *testing.T) {
	codec := newTestCodec(t, "round-trip-secret", time.Hour)

	rapid.Check(t, func(rt *rapid.T) {
		userID := rapid.Int64Range(1, 1<<40).Draw(rt, "user_id")

		token, err := codec.Issue(userID)
		if err != nil {
			rt.Fatalf("issue: %v", err)
		}
		claims, err := codec.Verify(token)
		if err != nil {
			rt.Fatalf("verify: %v", err)
		}
		if claims.UserID != userID {
			rt.Fatalf("claims.UserID = %d, want %d", claims.UserID, userID)
		}
	})
}

func TestPropertyForeignSecretRejected(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		issuerSecret := rapid.StringMatching(`[a-zA-Z0-9]{8,32}`).Draw(rt, "issuer_secret")
		verifierSecret := rapid.StringMatching(`[a-zA-Z0-9]{8,32}`).Draw(rt, "verifier_secret")
		if issuerSecret == verifierSecret {
			rt.Skip("same secret")
		}

		issuer := newTestCodec(t, issuerSecret, time.Hour)
		verifier := newTestCodec(t, verifierSecret, time.Hour)

		token, err := issuer.Issue(rapid.Int64Range(1, 1000).Draw(rt, "user_id"))
		if err != nil {
			rt.Fatalf("issue: %v", err)
		}
		if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
			rt.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestPropertyTamperedPayloadRejected(t *testing.T) {
	codec := newTestCodec(t, "tamper-secret", time.Hour)
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

	rapid.Check(t, func(rt *rapid.T) {
		token, err := codec.Issue(rapid.Int64Range(1, 1000).Draw(rt, "user_id"))
		if err != nil {
			rt.Fatalf("issue: %v", err)
		}
		parts := strings.Split(token, ".")
		if len(parts) != 3 {
			rt.Fatalf("expected 3 token segments, got %d", len(parts))
		}

		// The final character of a segment may only carry padding bits.
		payload := []byte(parts[1])
		index := rapid.IntRange(0, len(payload)-2).Draw(rt, "index")
		replacement := rapid.SampledFrom([]byte(alphabet)).Draw(rt, "replacement")
		if payload[index] == replacement {
			rt.Skip("no change")
		}
		payload[index] = replacement
		parts[1] = string(payload)

		if _, err := codec.Verify(strings.Join(parts, ".")); !errors.Is(err, ErrInvalidToken) {
			rt.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
		}
	})
}

func newTestCodec(t *testing.T, secret string, ttl time.Duration) *Codec {
	t.Helper()
	codec, err := NewCodec(secret, ttl)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return codec
}
