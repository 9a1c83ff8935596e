package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/studyvault/noteaccess/internal/server/models"
	"github.com/studyvault/noteaccess/internal/server/repositories/repomanager"
)

// Entitlements is the capability check consumed from the payments domain.
// The access service never computes entitlement itself; it only asks.
type Entitlements interface {
	CanAccessNote(ctx context.Context, userID string, note *models.Note) (bool, error)
}

// SubscriptionEntitlements answers the capability check from the
// subscriptions read model.
type SubscriptionEntitlements struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewSubscriptionEntitlements(db *sql.DB, repos repomanager.RepositoryManager) *SubscriptionEntitlements {
	return &SubscriptionEntitlements{db: db, repos: repos}
}

func (e *SubscriptionEntitlements) CanAccessNote(ctx context.Context, userID string, note *models.Note) (bool, error) {
	if !note.IsPremium {
		return true, nil
	}
	return e.repos.Subscriptions(e.db).HasActive(ctx, userID, note.SubjectID, time.Now())
}
