package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/stretchr/testify/assert"
)

// mockModuleChecker is a test implementation of ModuleChecker
type mockModuleChecker struct {
	enabled map[platform.ModuleKey]bool
	err     error
}

func (m *mockModuleChecker) HasModule(_ context.Context, _ uuid.UUID, key platform.ModuleKey) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.enabled[key], nil
}

func setTenant(tenantID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(TenantIDKey, tenantID)
		c.Next()
	}
}

func TestRequireModule_Enabled(t *testing.T) {
	checker := &mockModuleChecker{enabled: map[platform.ModuleKey]bool{platform.ModuleCRM: true}}

	router := gin.New()
	router.Use(setTenant(uuid.New().String()))
	router.GET("/test", RequireModule(checker, platform.ModuleCRM), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireModule_NotEnabled(t *testing.T) {
	checker := &mockModuleChecker{enabled: map[platform.ModuleKey]bool{}}

	router := gin.New()
	router.Use(setTenant(uuid.New().String()))
	router.GET("/test", RequireModule(checker, platform.ModuleLoyalty), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_MODULE_NOT_ENABLED")
}

func TestRequireModule_NoTenant(t *testing.T) {
	checker := &mockModuleChecker{enabled: map[platform.ModuleKey]bool{platform.ModuleCRM: true}}

	router := gin.New()
	router.GET("/test", RequireModule(checker, platform.ModuleCRM), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireModule_LookupError(t *testing.T) {
	checker := &mockModuleChecker{err: errors.New("redis down")}

	router := gin.New()
	router.Use(setTenant(uuid.New().String()))
	router.GET("/test", RequireModule(checker, platform.ModuleCRM), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireModule_LookupErrorFailOpen(t *testing.T) {
	checker := &mockModuleChecker{err: errors.New("redis down")}

	router := gin.New()
	router.Use(setTenant(uuid.New().String()))
	router.GET("/test",
		RequireModuleWithConfig(checker, platform.ModuleCRM, EntitlementConfig{FailOpen: true}),
		func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAnyModule(t *testing.T) {
	tests := []struct {
		name     string
		enabled  map[platform.ModuleKey]bool
		keys     []platform.ModuleKey
		expected int
	}{
		{
			name:     "first enabled",
			enabled:  map[platform.ModuleKey]bool{platform.ModuleCRM: true},
			keys:     []platform.ModuleKey{platform.ModuleCRM, platform.ModuleLoyalty},
			expected: http.StatusOK,
		},
		{
			name:     "second enabled",
			enabled:  map[platform.ModuleKey]bool{platform.ModuleLoyalty: true},
			keys:     []platform.ModuleKey{platform.ModuleCRM, platform.ModuleLoyalty},
			expected: http.StatusOK,
		},
		{
			name:     "none enabled",
			enabled:  map[platform.ModuleKey]bool{},
			keys:     []platform.ModuleKey{platform.ModuleCRM, platform.ModuleLoyalty},
			expected: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &mockModuleChecker{enabled: tt.enabled}

			router := gin.New()
			router.Use(setTenant(uuid.New().String()))
			router.GET("/test", RequireAnyModule(checker, tt.keys...), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}
