package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/retailsuite/backend/internal/domain/platform"
	"go.uber.org/zap"
)

const entitlementScanBatchSize = 100

// RedisEntitlementCache implements platform.EntitlementCache using Redis
type RedisEntitlementCache struct {
	client *redis.Client
	config platform.EntitlementCacheConfig
	logger *zap.Logger
}

// RedisEntitlementCacheOption is a functional option for configuring the cache
type RedisEntitlementCacheOption func(*RedisEntitlementCache)

// WithEntitlementCacheConfig sets the cache configuration
func WithEntitlementCacheConfig(config platform.EntitlementCacheConfig) RedisEntitlementCacheOption {
	return func(c *RedisEntitlementCache) {
		c.config = config
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisEntitlementCacheOption {
	return func(c *RedisEntitlementCache) {
		c.logger = logger
	}
}

// NewRedisEntitlementCache creates an entitlement cache on an existing Redis
// client. The caller retains ownership of the client.
func NewRedisEntitlementCache(client *redis.Client, opts ...RedisEntitlementCacheOption) *RedisEntitlementCache {
	cache := &RedisEntitlementCache{
		client: client,
		config: platform.DefaultEntitlementCacheConfig(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cache)
	}
	return cache
}

func (c *RedisEntitlementCache) key(tenantID uuid.UUID) string {
	return fmt.Sprintf("entitlements:%s", tenantID.String())
}

// Get returns the cached module keys for a tenant, or nil on a miss
func (c *RedisEntitlementCache) Get(ctx context.Context, tenantID uuid.UUID) ([]platform.ModuleKey, error) {
	cacheKey := c.key(tenantID)

	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if err == redis.Nil {
		c.logger.Debug("Entitlement cache miss", zap.String("tenant_id", tenantID.String()))
		return nil, nil
	}
	if err != nil {
		c.logger.Error("Failed to get entitlements from cache",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get entitlements from cache: %w", err)
	}

	var keys []platform.ModuleKey
	if err := json.Unmarshal(data, &keys); err != nil {
		c.logger.Error("Failed to unmarshal cached entitlements",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
		// Drop the corrupted entry so the next read repopulates it
		_ = c.client.Del(ctx, cacheKey)
		return nil, fmt.Errorf("failed to unmarshal entitlements: %w", err)
	}

	c.logger.Debug("Entitlement cache hit",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("modules", len(keys)))
	return keys, nil
}

// Set stores a tenant's module keys with the given TTL
func (c *RedisEntitlementCache) Set(ctx context.Context, tenantID uuid.UUID, keys []platform.ModuleKey, ttl time.Duration) error {
	if len(keys) == 0 {
		return nil
	}
	if ttl == 0 {
		ttl = c.config.TTL
	}

	data, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("failed to marshal entitlements: %w", err)
	}

	if err := c.client.Set(ctx, c.key(tenantID), data, ttl).Err(); err != nil {
		c.logger.Error("Failed to cache entitlements",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to cache entitlements: %w", err)
	}

	c.logger.Debug("Cached entitlements",
		zap.String("tenant_id", tenantID.String()),
		zap.Duration("ttl", ttl))
	return nil
}

// Invalidate drops a tenant's cached entitlements
func (c *RedisEntitlementCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(tenantID)).Err(); err != nil {
		c.logger.Error("Failed to invalidate entitlements",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to invalidate entitlements: %w", err)
	}

	c.logger.Debug("Invalidated entitlements", zap.String("tenant_id", tenantID.String()))
	return nil
}

// InvalidateAll drops every cached entitlement. SCAN keeps Redis responsive
// where KEYS would block.
func (c *RedisEntitlementCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	var deletedCount int64

	for {
		var keys []string
		var err error
		keys, cursor, err = c.client.Scan(ctx, cursor, "entitlements:*", entitlementScanBatchSize).Result()
		if err != nil {
			c.logger.Error("Failed to scan entitlement keys", zap.Error(err))
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}

		if len(keys) > 0 {
			deleted, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				c.logger.Error("Failed to delete entitlement keys", zap.Error(err))
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
			deletedCount += deleted
		}

		if cursor == 0 {
			break
		}
	}

	c.logger.Info("Invalidated all entitlement cache entries",
		zap.Int64("deleted_count", deletedCount))
	return nil
}

// Ensure RedisEntitlementCache implements EntitlementCache
var _ platform.EntitlementCache = (*RedisEntitlementCache)(nil)
