package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/retailsuite/backend/internal/domain/platform"
)

type entitlementEntry struct {
	keys      []platform.ModuleKey
	expiresAt time.Time
}

// InMemoryEntitlementCache implements platform.EntitlementCache with a map.
// Suitable for tests and single-instance development setups.
type InMemoryEntitlementCache struct {
	mu      sync.RWMutex
	config  platform.EntitlementCacheConfig
	entries map[uuid.UUID]entitlementEntry
}

// NewInMemoryEntitlementCache creates a new in-memory entitlement cache
func NewInMemoryEntitlementCache() *InMemoryEntitlementCache {
	return &InMemoryEntitlementCache{
		config:  platform.DefaultEntitlementCacheConfig(),
		entries: make(map[uuid.UUID]entitlementEntry),
	}
}

// Get returns the cached module keys for a tenant, or nil on a miss
func (c *InMemoryEntitlementCache) Get(_ context.Context, tenantID uuid.UUID) ([]platform.ModuleKey, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[tenantID]
	if !exists || time.Now().After(entry.expiresAt) {
		return nil, nil
	}

	keys := make([]platform.ModuleKey, len(entry.keys))
	copy(keys, entry.keys)
	return keys, nil
}

// Set stores a tenant's module keys with the given TTL
func (c *InMemoryEntitlementCache) Set(_ context.Context, tenantID uuid.UUID, keys []platform.ModuleKey, ttl time.Duration) error {
	if len(keys) == 0 {
		return nil
	}
	if ttl == 0 {
		ttl = c.config.TTL
	}

	stored := make([]platform.ModuleKey, len(keys))
	copy(stored, keys)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[tenantID] = entitlementEntry{keys: stored, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Invalidate drops a tenant's cached entitlements
func (c *InMemoryEntitlementCache) Invalidate(_ context.Context, tenantID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, tenantID)
	return nil
}

// InvalidateAll drops every cached entitlement
func (c *InMemoryEntitlementCache) InvalidateAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uuid.UUID]entitlementEntry)
	return nil
}

// Size returns the number of cached tenants (for tests)
func (c *InMemoryEntitlementCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure InMemoryEntitlementCache implements EntitlementCache
var _ platform.EntitlementCache = (*InMemoryEntitlementCache)(nil)
