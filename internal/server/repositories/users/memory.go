package users

import (
	"context"
	"sync"

	"github.com/ndegtyarev/eventauth/internal/common"
	"github.com/ndegtyarev/eventauth/internal/server/models"
)

// MemoryRepository is an in-memory Repository for tests and local development.
type MemoryRepository struct {
	mu         sync.Mutex
	byID       map[string]*models.User
	byUsername map[string]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:       make(map[string]*models.User),
		byUsername: make(map[string]*models.User),
	}
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[user.Username]; ok {
		return nil, common.ErrorAlreadyExists
	}
	for _, u := range r.byID {
		if u.Email == user.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	copied := *user
	r.byID[copied.ID] = &copied
	r.byUsername[copied.Username] = &copied
	out := copied
	return &out, nil
}

func (r *MemoryRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byUsername[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *user
	return &copied, nil
}
