package repomanager

import (
	"context"
	"database/sql"

	"github.com/studyvault/noteaccess/internal/dbx"
	"github.com/studyvault/noteaccess/internal/server/migrations"
	"github.com/studyvault/noteaccess/internal/server/repositories/accesslogs"
	"github.com/studyvault/noteaccess/internal/server/repositories/bans"
	"github.com/studyvault/noteaccess/internal/server/repositories/notes"
	"github.com/studyvault/noteaccess/internal/server/repositories/sessions"
	"github.com/studyvault/noteaccess/internal/server/repositories/signals"
	"github.com/studyvault/noteaccess/internal/server/repositories/subscriptions"
	"github.com/studyvault/noteaccess/internal/server/repositories/users"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories and runs
// schema migrations via goose.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed manager.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) AccessLogs(db dbx.DBTX) accesslogs.Repository {
	return accesslogs.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Signals(db dbx.DBTX) signals.Repository {
	return signals.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Bans(db dbx.DBTX) bans.Repository {
	return bans.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Notes(db dbx.DBTX) notes.Repository {
	return notes.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Subscriptions(db dbx.DBTX) subscriptions.Repository {
	return subscriptions.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations points goose at the embedded migrations and applies them.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
