package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	platformapp "github.com/retailsuite/backend/internal/application/platform"
)

// Ensure MemoryObjectStorage implements BackupStorage
var _ platformapp.BackupStorage = (*MemoryObjectStorage)(nil)

// MemoryObjectStorage keeps objects in process memory. It backs local
// development and tests when no S3 target is configured; backups stored
// here do not survive a restart.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// BaseURL is the prefix for generated download URLs
	BaseURL string
}

// NewMemoryObjectStorage creates a new empty MemoryObjectStorage
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		objects: make(map[string][]byte),
		BaseURL: "https://storage.invalid",
	}
}

// Upload stores a copy of the data under the given key
func (m *MemoryObjectStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[storageKey] = buf
	return nil
}

// GenerateDownloadURL fabricates a URL carrying the key and expiry. The
// URL is not servable; it exists so the download flow can be exercised
// without an S3 target.
func (m *MemoryObjectStorage) GenerateDownloadURL(
	ctx context.Context,
	storageKey string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	m.mu.RLock()
	_, ok := m.objects[storageKey]
	m.mu.RUnlock()
	if !ok {
		return "", time.Time{}, fmt.Errorf("object not found: %s", storageKey)
	}

	expiresAt := time.Now().Add(expiresIn)
	url := fmt.Sprintf("%s/%s?expires=%s", m.BaseURL, storageKey, expiresAt.Format(time.RFC3339))
	return url, expiresAt, nil
}

// DeleteObject removes an object. Deleting a missing key is not an error,
// matching S3 semantics.
func (m *MemoryObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, storageKey)
	return nil
}

// ObjectExists checks if an object exists
func (m *MemoryObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[storageKey]
	return ok, nil
}

// Object returns a stored object's bytes, for tests and the development
// download path
func (m *MemoryObjectStorage) Object(storageKey string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[storageKey]
	return data, ok
}

// Len returns the number of stored objects
func (m *MemoryObjectStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
