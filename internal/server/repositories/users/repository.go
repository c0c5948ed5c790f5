// Package users provides repositories for account rows. The token core reads
// accounts through this contract; writes happen only in the account service.
package users

import (
	"context"

	"github.com/ndegtyarev/eventauth/internal/server/models"
)

type Repository interface {
	// Create inserts a new account row. A username or email collision yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUsername returns the account with the given username, or
	// common.ErrorNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// GetByID returns the account with the given id, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)
}
