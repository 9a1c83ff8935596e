// Package accesslogs provides the PostgreSQL-backed repository for the
// append-only content access log.
package accesslogs

import (
	"context"
	"time"

	"github.com/studyvault/noteaccess/internal/server/models"
)

// Repository defines storage operations for access-log entries.
// The log is append-only: there are no update or delete operations.
type Repository interface {
	// Create appends one entry and fills in the generated id and timestamp.
	Create(ctx context.Context, e *models.AccessLogEntry) error

	// CountSince counts entries for the (note, user) pair created at or
	// after since. Backs the sliding-window rate limit.
	CountSince(ctx context.Context, noteID, userID string, since time.Time) (int, error)

	// SelectRecent returns up to limit entries for the pair created at or
	// after since, newest first. Backs the anomaly detector's tail query.
	SelectRecent(ctx context.Context, noteID, userID string, since time.Time, limit int) ([]*models.AccessLogEntry, error)
}
