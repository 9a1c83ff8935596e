package accesslogs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

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

func (r *PostgresRepository) Create(ctx context.Context, e *models.AccessLogEntry) error {
	query := `
		INSERT INTO access_log (note_id, user_id, view_session_id, range_start, range_end, bytes_sent, client_ip, client_user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	var rangeStart, rangeEnd sql.NullInt64
	if e.RangeStart != nil {
		rangeStart = sql.NullInt64{Int64: *e.RangeStart, Valid: true}
	}
	if e.RangeEnd != nil {
		rangeEnd = sql.NullInt64{Int64: *e.RangeEnd, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		e.NoteID, e.UserID, e.ViewSessionID, rangeStart, rangeEnd, e.BytesSent, e.ClientIP, e.ClientUserAgent,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountSince(ctx context.Context, noteID, userID string, since time.Time) (int, error) {
	query := `
		SELECT count(*)
		FROM access_log
		WHERE note_id = $1 AND user_id = $2 AND created_at >= $3
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query, noteID, userID, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) SelectRecent(ctx context.Context, noteID, userID string, since time.Time, limit int) ([]*models.AccessLogEntry, error) {
	query := `
		SELECT id, note_id, user_id, view_session_id, range_start, range_end, bytes_sent, client_ip, client_user_agent, created_at
		FROM access_log
		WHERE note_id = $1 AND user_id = $2 AND created_at >= $3
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, query, noteID, userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.AccessLogEntry
	for rows.Next() {
		e := &models.AccessLogEntry{}
		var rangeStart, rangeEnd sql.NullInt64
		if err := rows.Scan(&e.ID, &e.NoteID, &e.UserID, &e.ViewSessionID,
			&rangeStart, &rangeEnd, &e.BytesSent, &e.ClientIP, &e.ClientUserAgent, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if rangeStart.Valid {
			v := rangeStart.Int64
			e.RangeStart = &v
		}
		if rangeEnd.Valid {
			v := rangeEnd.Int64
			e.RangeEnd = &v
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
