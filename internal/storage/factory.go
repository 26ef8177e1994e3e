package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/imedwei/wings-backup-purger/internal/config"
	"github.com/imedwei/wings-backup-purger/internal/metrics"
)

// InstrumentedStorage wraps a Storage implementation and records every
// operation in the storage metrics. It never retries.
type InstrumentedStorage struct {
	storage  Storage
	provider string
}

// NewInstrumentedStorage wraps storage, labelling metrics with provider.
func NewInstrumentedStorage(storage Storage, provider string) *InstrumentedStorage {
	return &InstrumentedStorage{
		storage:  storage,
		provider: provider,
	}
}

// Provider returns the provider label.
func (i *InstrumentedStorage) Provider() string {
	return i.provider
}

// List implements Storage.List.
func (i *InstrumentedStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	objects, err := i.storage.List(ctx, prefix)
	metrics.RecordStorageOperation("list", i.provider, err == nil)
	return objects, err
}

// Stat implements Storage.Stat.
func (i *InstrumentedStorage) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	info, err := i.storage.Stat(ctx, key)
	metrics.RecordStorageOperation("stat", i.provider, err == nil)
	return info, err
}

// Open implements Storage.Open.
func (i *InstrumentedStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := i.storage.Open(ctx, key)
	metrics.RecordStorageOperation("open", i.provider, err == nil)
	return rc, err
}

// Delete implements Storage.Delete.
func (i *InstrumentedStorage) Delete(ctx context.Context, key string) error {
	err := i.storage.Delete(ctx, key)
	metrics.RecordStorageOperation("delete", i.provider, err == nil)
	return err
}

// Close releases the underlying client when it holds one.
func (i *InstrumentedStorage) Close() error {
	if c, ok := i.storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// NewStorage creates a storage provider based on configuration. For local
// storage this is where a missing backup directory is reported.
func NewStorage(ctx context.Context, cfg *config.Config) (*InstrumentedStorage, error) {
	var storage Storage
	var err error

	provider := cfg.StorageProvider
	if provider == "" {
		provider = "local"
	}

	switch provider {
	case "local":
		storage, err = NewLocalStorage(cfg.BackupDirectory)
		if err != nil {
			// Already carries ErrDirectory.
			return nil, err
		}

	case "s3":
		s3Config := S3Config{
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			Prefix:          cfg.StoragePrefix,
			UsePathStyle:    cfg.S3Endpoint != "", // Use path style for custom endpoints
		}
		storage, err = NewS3Storage(ctx, s3Config)

	case "gcs":
		if err := ValidateServiceAccountJSON(cfg.GoogleServiceAccountJSON); err != nil {
			return nil, fmt.Errorf("invalid GCS service account: %w", err)
		}

		gcsConfig := GCSConfig{
			Bucket:             cfg.GCSBucket,
			ProjectID:          cfg.GoogleProjectID,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			Prefix:             cfg.StoragePrefix,
		}
		storage, err = NewGCSStorage(ctx, gcsConfig)

	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage: %w", provider, err)
	}

	return NewInstrumentedStorage(storage, provider), nil
}

// joinKey prepends prefix to key.
func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}

// trimKeyPrefix removes prefix and the separating slash from key.
func trimKeyPrefix(prefix, key string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return key
	}
	if !strings.HasPrefix(key, prefix+"/") {
		return key
	}
	return key[len(prefix)+1:]
}

// listPrefix returns the remote prefix to list for a caller prefix, keeping
// listings inside the configured prefix "directory".
func listPrefix(storagePrefix, prefix string) string {
	full := joinKey(storagePrefix, prefix)
	if storagePrefix != "" && prefix == "" {
		full = strings.TrimSuffix(full, "/") + "/"
	}
	return full
}
