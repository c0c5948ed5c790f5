package repomanager

import (
	"context"
	"database/sql"

	"github.com/ndegtyarev/eventauth/internal/dbx"
	"github.com/ndegtyarev/eventauth/internal/server/repositories/refreshtokens"
	"github.com/ndegtyarev/eventauth/internal/server/repositories/users"
)

// MemoryRepositoryManager serves a single shared pair of in-memory
// repositories regardless of the handle passed in. Used in tests and local
// development where no database is available.
type MemoryRepositoryManager struct {
	users         *users.MemoryRepository
	refreshTokens *refreshtokens.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:         users.NewMemoryRepository(),
		refreshTokens: refreshtokens.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return m.refreshTokens
}
