package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/studyvault/noteaccess/internal/common"
	"github.com/studyvault/noteaccess/internal/dbx"
	"github.com/studyvault/noteaccess/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Note, error) {
	query := `
		SELECT id, subject_id, title, is_published, is_premium, file_asset_id
		FROM notes
		WHERE id = $1
	`
	note := &models.Note{}
	var fileAssetID sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&note.ID, &note.SubjectID, &note.Title, &note.IsPublished, &note.IsPremium, &fileAssetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if fileAssetID.Valid {
		v := fileAssetID.String
		note.FileAssetID = &v
	}
	return note, nil
}

func (r *PostgresRepository) GetFileAsset(ctx context.Context, id string) (*models.FileAsset, error) {
	query := `
		SELECT id, object_key, content_type
		FROM file_assets
		WHERE id = $1
	`
	asset := &models.FileAsset{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&asset.ID, &asset.ObjectKey, &asset.ContentType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return asset, nil
}
