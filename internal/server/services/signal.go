// Package services contains the access-domain business logic: view-session
// issuance, access policy, content streaming, anomaly detection, watermarks,
// and the admin operations over them.
package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studyvault/noteaccess/internal/common"
	"github.com/studyvault/noteaccess/internal/logging"
	"github.com/studyvault/noteaccess/internal/server/metrics"
	"github.com/studyvault/noteaccess/internal/server/models"
	"github.com/studyvault/noteaccess/internal/server/repositories/bans"
	"github.com/studyvault/noteaccess/internal/server/repositories/repomanager"
)

// SignalRecorder appends security signals. Emission is best effort by
// contract: failures are logged and never propagated, so a storage hiccup in
// the signal table cannot alter the outcome of the triggering request.
type SignalRecorder struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger
}

func NewSignalRecorder(db *sql.DB, repos repomanager.RepositoryManager, logger logging.Logger) *SignalRecorder {
	return &SignalRecorder{db: db, repos: repos, logger: logger.With("module", "signals")}
}

// Record writes one signal row and bumps the signal counter.
func (r *SignalRecorder) Record(ctx context.Context, noteID, userID, signalType string, metadata map[string]any) {
	signal := &models.SecuritySignal{
		NoteID:     noteID,
		UserID:     userID,
		SignalType: signalType,
		Metadata:   metadata,
	}
	if err := r.repos.Signals(r.db).Create(ctx, signal); err != nil {
		r.logger.Error(ctx, "failed to record security signal", "type", signalType, "note_id", noteID, "error", err)
		return
	}
	metrics.SecuritySignals.WithLabelValues(signalType).Inc()
}

// ensureNotBanned translates the ban lookup into the access-denied sentinel.
// Bans apply both at issuance and on every later validation.
func ensureNotBanned(ctx context.Context, repo bans.Repository, noteID, userID string) error {
	_, err := repo.Find(ctx, noteID, userID)
	if err == nil {
		return common.ErrAccessBanned
	}
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	return err
}
