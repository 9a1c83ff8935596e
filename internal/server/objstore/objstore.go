// Package objstore abstracts the backing object store behind the three
// primitives the streaming controller needs: stat, full read, ranged read.
package objstore

import (
	"context"
	"io"
)

// ObjectStore is the read-side contract against the blob backend.
// Returned bodies must be closed by the caller on every exit path.
type ObjectStore interface {
	// Stat returns the object's total size in bytes, or
	// common.ErrorNotFound when the key does not exist.
	Stat(ctx context.Context, key string) (int64, error)

	// Read opens the whole object for reading.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// ReadRange opens the byte window [offset, offset+length) for reading.
	ReadRange(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error)
}
