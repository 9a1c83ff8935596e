package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/studyvault/noteaccess/internal/dbx"
	"github.com/studyvault/noteaccess/internal/logging"
	"github.com/studyvault/noteaccess/internal/server/models"
	"github.com/studyvault/noteaccess/internal/server/repositories/repomanager"
	"github.com/studyvault/noteaccess/internal/server/repositories/signals"
)

// AdminService backs the moderation surface: signal review, session
// revocation, and bans.
type AdminService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger
}

func NewAdminService(db *sql.DB, repos repomanager.RepositoryManager, logger logging.Logger) *AdminService {
	return &AdminService{db: db, repos: repos, logger: logger.With("module", "admin")}
}

// ListSignals lists security signals matching the filter, newest first.
func (s *AdminService) ListSignals(ctx context.Context, f signals.Filter) ([]*models.SecuritySignal, error) {
	return s.repos.Signals(s.db).Select(ctx, f)
}

// NoteSignalSummary aggregates a note's signals per type.
func (s *AdminService) NoteSignalSummary(ctx context.Context, noteID string) ([]*models.SignalSummary, error) {
	return s.repos.Signals(s.db).SummaryByNote(ctx, noteID)
}

// RevokeSession kills one session. Revoking an already-revoked session
// succeeds.
func (s *AdminService) RevokeSession(ctx context.Context, sessionID string) error {
	if err := s.repos.Sessions(s.db).Revoke(ctx, sessionID, time.Now()); err != nil {
		return err
	}
	s.logger.Info(ctx, "session revoked", "session_id", sessionID)
	return nil
}

// RevokeNoteSessions kills every active session on the note, for example
// after a confirmed leak.
func (s *AdminService) RevokeNoteSessions(ctx context.Context, noteID string) error {
	if err := s.repos.Sessions(s.db).RevokeAllForNote(ctx, noteID, time.Now()); err != nil {
		return err
	}
	s.logger.Info(ctx, "all note sessions revoked", "note_id", noteID)
	return nil
}

// BanUser blocks the pair and revokes the user's live sessions on the note so
// the ban takes effect immediately. Both writes run in one transaction.
// Re-banning a banned pair succeeds.
func (s *AdminService) BanUser(ctx context.Context, noteID, userID, reason string) error {
	ban := &models.AccessBan{NoteID: noteID, UserID: userID, Reason: reason}
	now := time.Now()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Bans(tx).Upsert(ctx, ban); err != nil {
			return err
		}
		return s.repos.Sessions(tx).RevokeAllForUser(ctx, noteID, userID, now)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "user banned", "note_id", noteID, "user_id", userID)
	return nil
}

// UnbanUser lifts the pair's ban. Unbanning a pair that is not banned
// succeeds.
func (s *AdminService) UnbanUser(ctx context.Context, noteID, userID string) error {
	if err := s.repos.Bans(s.db).Revoke(ctx, noteID, userID, time.Now()); err != nil {
		return err
	}
	s.logger.Info(ctx, "user unbanned", "note_id", noteID, "user_id", userID)
	return nil
}
