// Package sessions provides the PostgreSQL-backed repository for view
// sessions. Sessions are append-only: rows are revoked or expire, never
// deleted.
package sessions

import (
	"context"
	"time"

	"github.com/studyvault/noteaccess/internal/server/models"
)

// Repository defines storage operations for view sessions.
type Repository interface {
	// Create persists a new session and fills in the generated id and
	// timestamps.
	Create(ctx context.Context, s *models.ViewSession) (*models.ViewSession, error)

	// SelectActive returns the unrevoked, unexpired sessions for the
	// (note, user) pair, newest first. The set is bounded by the session cap,
	// so callers may scan it linearly.
	SelectActive(ctx context.Context, noteID, userID string, now time.Time) ([]*models.ViewSession, error)

	// CountActive counts unrevoked, unexpired sessions for the pair.
	CountActive(ctx context.Context, noteID, userID string, now time.Time) (int, error)

	// Touch updates last_seen_at for the session.
	Touch(ctx context.Context, id string, at time.Time) error

	// Revoke marks one session revoked. Revoking an already-revoked session
	// is a no-op reported as success.
	Revoke(ctx context.Context, id string, at time.Time) error

	// RevokeAllForUser revokes the pair's unrevoked sessions. Idempotent.
	RevokeAllForUser(ctx context.Context, noteID, userID string, at time.Time) error

	// RevokeAllForNote revokes every unrevoked session for the note.
	RevokeAllForNote(ctx context.Context, noteID string, at time.Time) error
}
