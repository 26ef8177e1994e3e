package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalStorage implements Storage for a directory on the local filesystem,
// which is where Wings keeps backups on its "wings" disk.
type LocalStorage struct {
	root string
}

// NewLocalStorage checks that root exists and is a directory.
func NewLocalStorage(root string) (*LocalStorage, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: the directory %s does not exist: %v", ErrDirectory, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDirectory, root)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve %s: %v", ErrDirectory, root, err)
	}

	return &LocalStorage{root: abs}, nil
}

// List implements Storage.List. Only regular files directly inside the root
// whose names start with prefix are returned, sorted by name.
func (l *LocalStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", l.root, err)
	}

	var objects []ObjectInfo
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		objects = append(objects, ObjectInfo{
			Key:          e.Name(),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Key < objects[j].Key
	})

	return objects, nil
}

// Stat implements Storage.Stat.
func (l *LocalStorage) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	info, err := os.Stat(l.getFullKey(key))
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to stat %s: %w", l.getFullKey(key), err)
	}
	return ObjectInfo{
		Key:          key,
		Size:         info.Size(),
		LastModified: info.ModTime(),
	}, nil
}

// Open implements Storage.Open.
func (l *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(l.getFullKey(key))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", l.getFullKey(key), err)
	}
	return f, nil
}

// Delete implements Storage.Delete.
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := os.Remove(l.getFullKey(key)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", l.getFullKey(key), err)
	}
	return nil
}

// getFullKey returns the absolute path for a key, refusing to leave the root.
func (l *LocalStorage) getFullKey(key string) string {
	return filepath.Join(l.root, filepath.Base(key))
}
