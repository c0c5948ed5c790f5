package refreshtokens

import (
	"context"
	"sync"
	"time"

	"github.com/ndegtyarev/eventauth/internal/common"
	"github.com/ndegtyarev/eventauth/internal/server/models"
)

// MemoryRepository is an in-memory Repository used in tests and local
// development. It honors the same atomicity semantics as the Postgres
// implementation: every method is a single critical section, so the
// conditional Revoke has exactly one winner under concurrency.
type MemoryRepository struct {
	mu       sync.Mutex
	byID     map[string]*models.RefreshToken
	byDigest map[string]*models.RefreshToken
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:     make(map[string]*models.RefreshToken),
		byDigest: make(map[string]*models.RefreshToken),
	}
}

func (r *MemoryRepository) Create(_ context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byDigest[token.TokenDigest]; ok {
		return common.ErrDigestExists
	}
	copied := *token
	r.byID[copied.ID] = &copied
	r.byDigest[copied.TokenDigest] = &copied
	return nil
}

func (r *MemoryRepository) FindByDigest(_ context.Context, digest string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.byDigest[digest]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *token
	return &copied, nil
}

func (r *MemoryRepository) Revoke(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.byID[id]
	if !ok || token.IsRevoked {
		return false, nil
	}
	token.IsRevoked = true
	return true, nil
}

func (r *MemoryRepository) RevokeAllForUser(_ context.Context, userID string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, token := range r.byID {
		if token.UserID == userID && token.Usable(now) {
			token.IsRevoked = true
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) DeleteExpiredBefore(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for id, token := range r.byID {
		if token.ExpiresAt.Before(now) {
			delete(r.byID, id)
			delete(r.byDigest, token.TokenDigest)
			count++
		}
	}
	return count, nil
}
