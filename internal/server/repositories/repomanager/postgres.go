package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ndegtyarev/eventauth/internal/dbx"
	"github.com/ndegtyarev/eventauth/internal/server/migrations"
	"github.com/ndegtyarev/eventauth/internal/server/repositories/refreshtokens"
	"github.com/ndegtyarev/eventauth/internal/server/repositories/users"
)

// PostgresRepositoryManager builds Postgres-backed repositories bound to
// whichever handle the caller passes: the pooled *sql.DB or a *sql.Tx.
type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// OpenDB opens a pgx-backed database/sql pool for the given DSN.
func OpenDB(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}
