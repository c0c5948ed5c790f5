package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ndegtyarev/eventauth/internal/common"
)

func newCodec(t *testing.T, ttl time.Duration) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec([]byte("super-secret"), "HS256", ttl)
	if err != nil {
		t.Fatalf("NewTokenCodec error: %v", err)
	}
	return c
}

func TestEncodeDecode_Success(t *testing.T) {
	t.Parallel()

	c := newCodec(t, time.Hour)

	tok, err := c.Encode("user-123", "alice")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	claims, err := c.Decode(tok)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Fatalf("subject mismatch: got %q want %q", claims.Subject, "user-123")
	}
	if claims.Username != "alice" {
		t.Fatalf("username mismatch: got %q want %q", claims.Username, "alice")
	}
}

func TestDecode_Expired(t *testing.T) {
	t.Parallel()

	c := newCodec(t, -1*time.Second)

	tok, err := c.Encode("u1", "bob")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	_, err = c.Decode(tok)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestDecode_WrongSecret(t *testing.T) {
	t.Parallel()

	c := newCodec(t, time.Hour)
	tok, err := c.Encode("u2", "carol")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	other, err := NewTokenCodec([]byte("wrong-secret"), "HS256", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenCodec error: %v", err)
	}

	_, err = other.Decode(tok)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestDecode_MalformedString(t *testing.T) {
	t.Parallel()

	c := newCodec(t, time.Hour)

	_, err := c.Decode("not.a.jwt")
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestDecode_RejectsNonHMACAlgorithm(t *testing.T) {
	t.Parallel()

	c := newCodec(t, time.Hour)

	// Unsigned token claiming alg=none must not verify.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u3",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tok, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing with none: %v", err)
	}

	_, err = c.Decode(tok)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestDecode_MissingSubject(t *testing.T) {
	t.Parallel()

	c := newCodec(t, time.Hour)

	anon := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tok, err := anon.SignedString([]byte("super-secret"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	_, err = c.Decode(tok)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestNewTokenCodec_UnsupportedAlgorithm(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenCodec([]byte("k"), "RS256", time.Hour); err == nil {
		t.Fatalf("expected error for RS256")
	}
	if _, err := NewTokenCodec([]byte("k"), "none", time.Hour); err == nil {
		t.Fatalf("expected error for none")
	}
	if _, err := NewTokenCodec(nil, "HS256", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
