package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/retailsuite/backend/internal/domain/platform"
)

func TestInMemoryEntitlementCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set and get round trip", func(t *testing.T) {
		c := NewInMemoryEntitlementCache()
		tenantID := uuid.New()
		keys := []platform.ModuleKey{platform.ModulePOS, platform.ModuleCRM}

		require.NoError(t, c.Set(ctx, tenantID, keys, time.Minute))

		got, err := c.Get(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, keys, got)
	})

	t.Run("miss returns nil", func(t *testing.T) {
		c := NewInMemoryEntitlementCache()

		got, err := c.Get(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("expired entries are misses", func(t *testing.T) {
		c := NewInMemoryEntitlementCache()
		tenantID := uuid.New()

		require.NoError(t, c.Set(ctx, tenantID, []platform.ModuleKey{platform.ModulePOS}, -time.Second))

		got, err := c.Get(ctx, tenantID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("empty key list is not stored", func(t *testing.T) {
		c := NewInMemoryEntitlementCache()
		tenantID := uuid.New()

		require.NoError(t, c.Set(ctx, tenantID, nil, time.Minute))
		assert.Equal(t, 0, c.Size())
	})

	t.Run("invalidate drops a single tenant", func(t *testing.T) {
		c := NewInMemoryEntitlementCache()
		keep := uuid.New()
		drop := uuid.New()

		require.NoError(t, c.Set(ctx, keep, []platform.ModuleKey{platform.ModulePOS}, time.Minute))
		require.NoError(t, c.Set(ctx, drop, []platform.ModuleKey{platform.ModulePOS}, time.Minute))

		require.NoError(t, c.Invalidate(ctx, drop))

		got, err := c.Get(ctx, drop)
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = c.Get(ctx, keep)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("invalidate all clears every tenant", func(t *testing.T) {
		c := NewInMemoryEntitlementCache()
		for i := 0; i < 3; i++ {
			require.NoError(t, c.Set(ctx, uuid.New(), []platform.ModuleKey{platform.ModulePOS}, time.Minute))
		}

		require.NoError(t, c.InvalidateAll(ctx))
		assert.Equal(t, 0, c.Size())
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		c := NewInMemoryEntitlementCache()
		tenantID := uuid.New()

		require.NoError(t, c.Set(ctx, tenantID, []platform.ModuleKey{platform.ModulePOS}, time.Minute))

		got, err := c.Get(ctx, tenantID)
		require.NoError(t, err)
		got[0] = platform.ModuleBackups

		fresh, err := c.Get(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, platform.ModulePOS, fresh[0])
	})
}
