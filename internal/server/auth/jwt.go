// Package auth implements the two credential primitives of the token core:
// a signed-token codec (JWT over an HMAC family algorithm) and an opaque
// refresh-token generator with its storage digest.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ndegtyarev/eventauth/internal/common"
)

// hmacAlgorithms is the closed set of accepted signing algorithms. Tokens
// presented with any other method, including "none", are rejected.
var hmacAlgorithms = []string{"HS256", "HS384", "HS512"}

// Claims is the closed claim set carried by an access token. Role-based
// authorization is the transport layer's concern; the token carries identity
// only.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"name,omitempty"`
}

// TokenCodec encodes and decodes access tokens. Validity of a token is fully
// determined by its signature and expiry; no storage is involved.
type TokenCodec struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewTokenCodec builds a codec for the given shared secret and algorithm
// name. Only the HMAC family is supported.
func NewTokenCodec(secret []byte, algorithm string, ttl time.Duration) (*TokenCodec, error) {
	supported := false
	for _, a := range hmacAlgorithms {
		if a == algorithm {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("unsupported signing algorithm: %q", algorithm)
	}
	if len(secret) == 0 {
		return nil, errors.New("empty signing secret")
	}
	return &TokenCodec{
		secret: secret,
		method: jwt.GetSigningMethod(algorithm),
		ttl:    ttl,
	}, nil
}

// TTL returns the configured access-token lifetime.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Encode mints a signed token for the given user, expiring ttl from now.
func (c *TokenCodec) Encode(userID, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			ID:        uuid.NewString(),
		},
		Username: username,
	}
	return jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
}

// Decode verifies the signature and expiry of a token and returns its claims.
// Expired tokens yield common.ErrTokenExpired; every other failure (bad
// signature, malformed structure, wrong algorithm, missing subject) yields
// common.ErrInvalidToken.
func (c *TokenCodec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods(hmacAlgorithms))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
