// Package signals provides the PostgreSQL-backed repository for immutable
// security signals.
package signals

import (
	"context"

	"github.com/studyvault/noteaccess/internal/server/models"
)

// Filter narrows a signal listing. Zero values mean "no constraint".
type Filter struct {
	NoteID     string
	UserID     string
	SignalType string
	Limit      int
}

// Repository defines storage operations for security signals.
// Signals are append-only; moderation tooling reads them, nothing updates
// them.
type Repository interface {
	// Create appends one signal and fills in the generated id and timestamp.
	Create(ctx context.Context, s *models.SecuritySignal) error

	// Select lists signals matching the filter, newest first.
	Select(ctx context.Context, f Filter) ([]*models.SecuritySignal, error)

	// SummaryByNote aggregates per-type counts and distinct flagged users
	// for one note.
	SummaryByNote(ctx context.Context, noteID string) ([]*models.SignalSummary, error)
}
