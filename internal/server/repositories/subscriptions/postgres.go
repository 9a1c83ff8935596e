package subscriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/studyvault/noteaccess/internal/dbx"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) HasActive(ctx context.Context, userID, subjectID string, now time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE user_id = $1
			  AND (subject_id IS NULL OR subject_id::text = $2)
			  AND expires_at > $3
		)
	`
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, userID, subjectID, now).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}
