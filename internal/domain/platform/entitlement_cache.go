package platform

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EntitlementCache caches a tenant's effective module keys so entitlement
// checks on the hot request path avoid three catalog queries. A cached value
// always contains at least the core module, so nil doubles as a miss marker.
type EntitlementCache interface {
	// Get returns the cached module keys for a tenant, or nil on a miss
	Get(ctx context.Context, tenantID uuid.UUID) ([]ModuleKey, error)

	// Set stores a tenant's module keys with the given TTL (0 uses the default)
	Set(ctx context.Context, tenantID uuid.UUID, keys []ModuleKey, ttl time.Duration) error

	// Invalidate drops a tenant's cached entitlements, e.g. after a
	// subscription or package change
	Invalidate(ctx context.Context, tenantID uuid.UUID) error

	// InvalidateAll drops every cached entitlement, e.g. after a platform
	// module is disabled
	InvalidateAll(ctx context.Context) error
}

// EntitlementCacheConfig holds cache tuning for entitlements
type EntitlementCacheConfig struct {
	TTL time.Duration
}

// DefaultEntitlementCacheConfig returns the default entitlement cache configuration
func DefaultEntitlementCacheConfig() EntitlementCacheConfig {
	return EntitlementCacheConfig{TTL: 5 * time.Minute}
}
