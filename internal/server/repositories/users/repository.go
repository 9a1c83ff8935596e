// Package users provides read-only access to user profiles for watermark
// rendering. Identity management lives elsewhere.
package users

import (
	"context"

	"github.com/studyvault/noteaccess/internal/server/models"
)

// Repository defines the read operations the access subsystem needs.
type Repository interface {
	// Get returns the user profile, or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.User, error)
}
