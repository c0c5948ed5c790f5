package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/ndegtyarev/eventauth/internal/common"
)

// opaqueTokenBytes is the entropy of a refresh token. 48 random bytes encode
// to a 64-character URL-safe string.
const opaqueTokenBytes = 48

// NewOpaqueToken generates a refresh-token plaintext and its storage digest.
// The plaintext is handed to the client exactly once; only the digest is ever
// persisted.
func NewOpaqueToken() (plaintext string, digest string, err error) {
	plaintext, err = common.MakeRandURLSafeString(opaqueTokenBytes)
	if err != nil {
		return "", "", err
	}
	return plaintext, DigestOpaqueToken(plaintext), nil
}

// DigestOpaqueToken returns the deterministic sha-256 hex digest of a
// refresh-token plaintext. No salt: uniqueness comes from the random
// plaintext, and salting would break lookup by digest.
func DigestOpaqueToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
