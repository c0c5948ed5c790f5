// Package refreshtokens provides repositories for the server-tracked half of
// the token scheme: refresh-token rows keyed by the digest of their opaque
// value.
package refreshtokens

import (
	"context"
	"time"

	"github.com/ndegtyarev/eventauth/internal/server/models"
)

// Repository is the storage contract consumed by the session service.
//
// Revoke is the serialization point for rotation: it must be a conditional
// update ("set revoked where not revoked") whose result tells the caller
// whether this call performed the transition. Two concurrent rotations of the
// same row therefore produce exactly one winner, with no application-level
// locking, even across independent server instances sharing the store.
type Repository interface {
	// Create inserts a new row. A digest collision yields common.ErrDigestExists.
	Create(ctx context.Context, token *models.RefreshToken) error

	// FindByDigest returns the row for the given digest, or common.ErrorNotFound.
	FindByDigest(ctx context.Context, digest string) (*models.RefreshToken, error)

	// Revoke marks the row revoked. Returns true only when this call flipped
	// the flag; false when the row was already revoked or does not exist.
	Revoke(ctx context.Context, id string) (bool, error)

	// RevokeAllForUser revokes every usable (non-revoked, non-expired as of
	// now) row owned by the user and returns the number of rows transitioned.
	RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error)

	// DeleteExpiredBefore removes rows whose expiry is before now, regardless
	// of the revoked flag, and returns the number removed.
	DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error)
}
