package bans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/studyvault/noteaccess/internal/common"
	"github.com/studyvault/noteaccess/internal/dbx"
	"github.com/studyvault/noteaccess/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Find(ctx context.Context, noteID, userID string) (*models.AccessBan, error) {
	query := `
		SELECT note_id, user_id, reason, created_at, revoked_at
		FROM access_bans
		WHERE note_id = $1 AND user_id = $2 AND revoked_at IS NULL
	`
	ban := &models.AccessBan{}
	var revokedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, noteID, userID).Scan(
		&ban.NoteID, &ban.UserID, &ban.Reason, &ban.CreatedAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		ban.RevokedAt = &t
	}
	return ban, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, ban *models.AccessBan) error {
	query := `
		INSERT INTO access_bans (note_id, user_id, reason)
		VALUES ($1, $2, $3)
		ON CONFLICT (note_id, user_id)
		DO UPDATE SET reason = EXCLUDED.reason, created_at = now(), revoked_at = NULL
		RETURNING created_at
	`
	if err := r.db.QueryRowContext(ctx, query, ban.NoteID, ban.UserID, ban.Reason).Scan(&ban.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ban.RevokedAt = nil
	return nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, noteID, userID string, at time.Time) error {
	query := `
		UPDATE access_bans SET revoked_at = $3
		WHERE note_id = $1 AND user_id = $2 AND revoked_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, noteID, userID, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
