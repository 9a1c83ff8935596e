package sessions

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

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.ViewSession) (*models.ViewSession, error) {
	query := `
		INSERT INTO view_sessions (note_id, user_id, token_hash, watermark_seed, expires_at, client_ip, client_user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, last_seen_at
	`
	err := r.db.QueryRowContext(ctx, query,
		s.NoteID, s.UserID, s.TokenHash, s.WatermarkSeed, s.ExpiresAt, s.ClientIP, s.ClientUserAgent,
	).Scan(&s.ID, &s.CreatedAt, &s.LastSeenAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) SelectActive(ctx context.Context, noteID, userID string, now time.Time) ([]*models.ViewSession, error) {
	query := `
		SELECT id, note_id, user_id, token_hash, watermark_seed, created_at, last_seen_at, expires_at, revoked_at, client_ip, client_user_agent
		FROM view_sessions
		WHERE note_id = $1 AND user_id = $2 AND revoked_at IS NULL AND expires_at > $3
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, noteID, userID, now)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.ViewSession
	for rows.Next() {
		s := &models.ViewSession{}
		var revokedAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.NoteID, &s.UserID, &s.TokenHash, &s.WatermarkSeed,
			&s.CreatedAt, &s.LastSeenAt, &s.ExpiresAt, &revokedAt, &s.ClientIP, &s.ClientUserAgent); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if revokedAt.Valid {
			t := revokedAt.Time
			s.RevokedAt = &t
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) CountActive(ctx context.Context, noteID, userID string, now time.Time) (int, error) {
	query := `
		SELECT count(*)
		FROM view_sessions
		WHERE note_id = $1 AND user_id = $2 AND revoked_at IS NULL AND expires_at > $3
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query, noteID, userID, now).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Touch(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE view_sessions SET last_seen_at = $2
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	// The existence probe distinguishes "unknown session" from the idempotent
	// already-revoked case.
	probe := `SELECT 1 FROM view_sessions WHERE id = $1`
	var one int
	if err := r.db.QueryRowContext(ctx, probe, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}

	query := `
		UPDATE view_sessions SET revoked_at = $2
		WHERE id = $1 AND revoked_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, noteID, userID string, at time.Time) error {
	query := `
		UPDATE view_sessions SET revoked_at = $3
		WHERE note_id = $1 AND user_id = $2 AND revoked_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, noteID, userID, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RevokeAllForNote(ctx context.Context, noteID string, at time.Time) error {
	query := `
		UPDATE view_sessions SET revoked_at = $2
		WHERE note_id = $1 AND revoked_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, noteID, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
