// Package notes provides read-only access to the note and file-asset
// entities owned by the content-management side of the platform.
package notes

import (
	"context"

	"github.com/studyvault/noteaccess/internal/server/models"
)

// Repository defines the read operations the access subsystem needs.
// Notes and file assets are never mutated here.
type Repository interface {
	// Get returns the note, or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.Note, error)

	// GetFileAsset returns the file asset, or common.ErrorNotFound.
	GetFileAsset(ctx context.Context, id string) (*models.FileAsset, error)
}
