package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/studyvault/noteaccess/internal/common"
	"github.com/studyvault/noteaccess/internal/logging"
	"github.com/studyvault/noteaccess/internal/server/config"
	"github.com/studyvault/noteaccess/internal/server/models"
	"github.com/studyvault/noteaccess/internal/server/repositories/repomanager"
	"github.com/studyvault/noteaccess/internal/signer"
)

// AccessPolicy validates view tokens and enforces the per-pair rate limit on
// every token-gated request.
type AccessPolicy struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	signer   *signer.Signer
	recorder *SignalRecorder
	logger   logging.Logger

	rateLimitCount  int
	rateLimitWindow time.Duration
}

func NewAccessPolicy(db *sql.DB, repos repomanager.RepositoryManager, sg *signer.Signer,
	recorder *SignalRecorder, cfg *config.Config, logger logging.Logger) *AccessPolicy {
	return &AccessPolicy{
		db:              db,
		repos:           repos,
		signer:          sg,
		recorder:        recorder,
		logger:          logger.With("module", "policy"),
		rateLimitCount:  cfg.RateLimitCount,
		rateLimitWindow: cfg.RateLimitWindow,
	}
}

// ValidateSession resolves a raw view token to the active session it belongs
// to. Tokens are stored one-way hashed, so there is no equality lookup; the
// active set is scanned linearly, which the session cap keeps small. Client
// metadata drift against the values recorded at issuance emits a TOKEN_REUSE
// signal but does not deny the request.
func (p *AccessPolicy) ValidateSession(ctx context.Context, noteID, userID, token string, meta models.ClientMeta) (*models.ViewSession, error) {
	if token == "" {
		return nil, common.ErrTokenMissing
	}

	if err := ensureNotBanned(ctx, p.repos.Bans(p.db), noteID, userID); err != nil {
		return nil, err
	}

	now := time.Now()
	active, err := p.repos.Sessions(p.db).SelectActive(ctx, noteID, userID, now)
	if err != nil {
		return nil, err
	}

	var session *models.ViewSession
	for _, s := range active {
		if p.signer.Verify([]byte(token), s.TokenHash) {
			session = s
			break
		}
	}
	if session == nil {
		return nil, common.ErrSessionInvalid
	}

	if session.ClientIP != meta.IP || session.ClientUserAgent != meta.UserAgent {
		p.recorder.Record(ctx, noteID, userID, models.SignalTokenReuse, map[string]any{
			"session_id":         session.ID,
			"issued_ip":          session.ClientIP,
			"request_ip":         meta.IP,
			"issued_user_agent":  session.ClientUserAgent,
			"request_user_agent": meta.UserAgent,
		})
	}

	if err := p.repos.Sessions(p.db).Touch(ctx, session.ID, now); err != nil {
		p.logger.Warn(ctx, "failed to update session last_seen_at", "session_id", session.ID, "error", err)
	}
	session.LastSeenAt = now

	return session, nil
}

// CheckRateLimit enforces the sliding-window limit by counting the pair's
// access-log rows inside the window. Hitting the limit emits a RATE_LIMIT
// signal and denies the request.
func (p *AccessPolicy) CheckRateLimit(ctx context.Context, noteID, userID string) error {
	since := time.Now().Add(-p.rateLimitWindow)
	n, err := p.repos.AccessLogs(p.db).CountSince(ctx, noteID, userID, since)
	if err != nil {
		return err
	}
	if n >= p.rateLimitCount {
		p.recorder.Record(ctx, noteID, userID, models.SignalRateLimit, map[string]any{
			"requests":       n,
			"window_seconds": int(p.rateLimitWindow.Seconds()),
		})
		return common.ErrRateLimited
	}
	return nil
}
