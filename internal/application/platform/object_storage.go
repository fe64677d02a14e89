package platform

import (
	"context"
	"time"
)

// BackupStorage defines the object storage operations the backup runner
// needs. Implemented by the infrastructure layer (S3 or the in-memory
// development store).
type BackupStorage interface {
	// Upload writes an object under the given key
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error

	// GenerateDownloadURL returns a presigned GET URL and its expiry
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject removes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error

	// ObjectExists checks if an object exists in storage
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}
