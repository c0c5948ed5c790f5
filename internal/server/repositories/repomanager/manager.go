// Package repomanager provides repository factories over dbx.DBTX so that
// services can obtain repositories bound either to the pooled connection or
// to an open transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/ndegtyarev/eventauth/internal/dbx"
	"github.com/ndegtyarev/eventauth/internal/server/repositories/refreshtokens"
	"github.com/ndegtyarev/eventauth/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
