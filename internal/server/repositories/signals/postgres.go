package signals

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/studyvault/noteaccess/internal/dbx"
	"github.com/studyvault/noteaccess/internal/server/models"
)

const defaultListLimit = 100

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.SecuritySignal) error {
	metadata := s.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("metadata marshal error: %w", err)
	}

	var userID sql.NullString
	if s.UserID != "" {
		userID = sql.NullString{String: s.UserID, Valid: true}
	}

	query := `
		INSERT INTO security_signals (note_id, user_id, signal_type, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, s.NoteID, userID, s.SignalType, raw).Scan(&s.ID, &s.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Select(ctx context.Context, f Filter) ([]*models.SecuritySignal, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	// Empty filter fields are neutralized in SQL rather than by building the
	// query string dynamically.
	query := `
		SELECT id, note_id, user_id, signal_type, metadata, created_at
		FROM security_signals
		WHERE ($1 = '' OR note_id::text = $1)
		  AND ($2 = '' OR user_id::text = $2)
		  AND ($3 = '' OR signal_type = $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`
	rows, err := r.db.QueryContext(ctx, query, f.NoteID, f.UserID, f.SignalType, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.SecuritySignal
	for rows.Next() {
		s := &models.SecuritySignal{}
		var userID sql.NullString
		var raw []byte
		if err := rows.Scan(&s.ID, &s.NoteID, &userID, &s.SignalType, &raw, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if userID.Valid {
			s.UserID = userID.String
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &s.Metadata); err != nil {
				return nil, fmt.Errorf("metadata unmarshal error: %w", err)
			}
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) SummaryByNote(ctx context.Context, noteID string) ([]*models.SignalSummary, error) {
	query := `
		SELECT signal_type, count(*), count(DISTINCT user_id)
		FROM security_signals
		WHERE note_id = $1
		GROUP BY signal_type
		ORDER BY signal_type
	`
	rows, err := r.db.QueryContext(ctx, query, noteID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.SignalSummary
	for rows.Next() {
		s := &models.SignalSummary{}
		if err := rows.Scan(&s.SignalType, &s.Count, &s.Users); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
