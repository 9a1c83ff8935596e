// Package repomanager vends repository implementations bound to a DBTX,
// so services can run the same repository against a plain connection or a
// transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/studyvault/noteaccess/internal/dbx"
	"github.com/studyvault/noteaccess/internal/server/repositories/accesslogs"
	"github.com/studyvault/noteaccess/internal/server/repositories/bans"
	"github.com/studyvault/noteaccess/internal/server/repositories/notes"
	"github.com/studyvault/noteaccess/internal/server/repositories/sessions"
	"github.com/studyvault/noteaccess/internal/server/repositories/signals"
	"github.com/studyvault/noteaccess/internal/server/repositories/subscriptions"
	"github.com/studyvault/noteaccess/internal/server/repositories/users"
)

// RepositoryManager vends repositories and exposes the migration hook.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error

	Sessions(db dbx.DBTX) sessions.Repository
	AccessLogs(db dbx.DBTX) accesslogs.Repository
	Signals(db dbx.DBTX) signals.Repository
	Bans(db dbx.DBTX) bans.Repository
	Notes(db dbx.DBTX) notes.Repository
	Users(db dbx.DBTX) users.Repository
	Subscriptions(db dbx.DBTX) subscriptions.Repository
}
