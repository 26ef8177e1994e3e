// Package storage defines the backends that hold backup archives.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrDirectory is returned when the local backup directory is missing or is not
// a directory.
var ErrDirectory = errors.New("invalid backup directory")

// Storage defines the operations the purger needs from an archive backend.
type Storage interface {
	// List returns every object under the given prefix. Directories are not included.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Stat returns the current attributes of a single object.
	Stat(ctx context.Context, key string) (ObjectInfo, error)

	// Open returns a reader over the object's content.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object with the given key.
	Delete(ctx context.Context, key string) error
}

// ObjectInfo contains information about a stored archive.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	Metadata     map[string]string
}
