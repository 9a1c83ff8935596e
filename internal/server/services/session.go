package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/studyvault/noteaccess/internal/common"
	"github.com/studyvault/noteaccess/internal/logging"
	"github.com/studyvault/noteaccess/internal/server/config"
	"github.com/studyvault/noteaccess/internal/server/metrics"
	"github.com/studyvault/noteaccess/internal/server/models"
	"github.com/studyvault/noteaccess/internal/server/repositories/repomanager"
	"github.com/studyvault/noteaccess/internal/signer"
)

const (
	// viewTokenBytes is the entropy of a raw view token (hex-encoded to 64
	// characters).
	viewTokenBytes = 32
	// watermarkSeedBytes is the entropy of a per-session watermark seed.
	watermarkSeedBytes = 16
)

// SessionService issues and revokes view sessions.
type SessionService struct {
	db           *sql.DB
	repos        repomanager.RepositoryManager
	signer       *signer.Signer
	entitlements Entitlements
	logger       logging.Logger

	ttl time.Duration
	cap int
}

func NewSessionService(db *sql.DB, repos repomanager.RepositoryManager, sg *signer.Signer,
	entitlements Entitlements, cfg *config.Config, logger logging.Logger) *SessionService {
	return &SessionService{
		db:           db,
		repos:        repos,
		signer:       sg,
		entitlements: entitlements,
		logger:       logger.With("module", "sessions"),
		ttl:          cfg.SessionTTL,
		cap:          cfg.SessionCap,
	}
}

// IssuedSession is the issuance result. ViewToken is the only place the raw
// token ever appears; it is not recoverable afterwards.
type IssuedSession struct {
	SessionID string
	ViewToken string
	ExpiresAt time.Time
}

// Issue runs the issuance gauntlet for one (note, user) pair: the note must
// exist and be published, the pair must not be banned, premium notes require
// an entitlement, and the active-session cap must not be reached. On success
// a fresh token and watermark seed are generated and the session persisted
// with the token's keyed hash only.
func (s *SessionService) Issue(ctx context.Context, noteID, userID string, meta models.ClientMeta) (*IssuedSession, error) {
	note, err := s.repos.Notes(s.db).Get(ctx, noteID)
	if err != nil {
		return nil, err
	}
	// Unpublished notes are indistinguishable from missing ones.
	if !note.IsPublished {
		return nil, common.ErrorNotFound
	}

	if err := ensureNotBanned(ctx, s.repos.Bans(s.db), noteID, userID); err != nil {
		return nil, err
	}

	if note.IsPremium {
		ok, err := s.entitlements.CanAccessNote(ctx, userID, note)
		if err != nil {
			return nil, fmt.Errorf("entitlement check: %w", err)
		}
		if !ok {
			return nil, common.ErrPremiumLocked
		}
	}

	now := time.Now()
	active, err := s.repos.Sessions(s.db).CountActive(ctx, noteID, userID, now)
	if err != nil {
		return nil, err
	}
	if active >= s.cap {
		return nil, common.ErrSessionLimit
	}

	token, err := common.MakeRandHexString(viewTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generating view token: %w", err)
	}
	seed, err := common.MakeRandHexString(watermarkSeedBytes)
	if err != nil {
		return nil, fmt.Errorf("generating watermark seed: %w", err)
	}

	session := &models.ViewSession{
		NoteID:          noteID,
		UserID:          userID,
		TokenHash:       s.signer.SignString(token),
		WatermarkSeed:   seed,
		ExpiresAt:       now.Add(s.ttl),
		ClientIP:        meta.IP,
		ClientUserAgent: meta.UserAgent,
	}
	created, err := s.repos.Sessions(s.db).Create(ctx, session)
	if err != nil {
		return nil, err
	}

	metrics.SessionsIssued.Inc()
	s.logger.Info(ctx, "view session issued", "session_id", created.ID, "note_id", noteID)

	return &IssuedSession{
		SessionID: created.ID,
		ViewToken: token,
		ExpiresAt: created.ExpiresAt,
	}, nil
}

// Reset revokes every active session the user holds on the note, freeing the
// cap for a fresh Issue call. Idempotent.
func (s *SessionService) Reset(ctx context.Context, noteID, userID string) error {
	return s.repos.Sessions(s.db).RevokeAllForUser(ctx, noteID, userID, time.Now())
}
