// Package bans provides the PostgreSQL-backed repository for per-(note, user)
// access bans.
package bans

import (
	"context"
	"time"

	"github.com/studyvault/noteaccess/internal/server/models"
)

// Repository defines storage operations for access bans. The table is keyed
// by (note_id, user_id); banning an already-banned pair clears revoked_at,
// unbanning sets it.
type Repository interface {
	// Find returns the unrevoked ban for the pair, or common.ErrorNotFound
	// when the pair is not currently banned.
	Find(ctx context.Context, noteID, userID string) (*models.AccessBan, error)

	// Upsert inserts or re-activates a ban for the pair.
	Upsert(ctx context.Context, ban *models.AccessBan) error

	// Revoke lifts the pair's ban. Unbanning a pair that is not banned is a
	// no-op reported as success.
	Revoke(ctx context.Context, noteID, userID string, at time.Time) error
}
