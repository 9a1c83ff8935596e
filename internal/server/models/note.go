package models

// Note is the read-only slice of the platform's note entity this subsystem
// consumes to gate and locate content. The access service never mutates notes.
type Note struct {
	ID          string
	SubjectID   string
	Title       string
	IsPublished bool
	IsPremium   bool
	// FileAssetID is nil when no content has been attached yet.
	FileAssetID *string
}

// FileAsset locates a note's content in the backing object store.
type FileAsset struct {
	ID          string
	ObjectKey   string
	ContentType string
}
