package models

import "time"

// RefreshToken is a refresh-token row. Only the sha-256 digest of the opaque
// value is stored; the plaintext is returned to the client exactly once.
// IsRevoked moves from false to true and never back.
type RefreshToken struct {
	ID          string
	UserID      string
	TokenDigest string
	ExpiresAt   time.Time
	IsRevoked   bool
	CreatedAt   time.Time
}

// Usable reports whether the token can still be exchanged at the given time.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.IsRevoked && now.Before(t.ExpiresAt)
}
