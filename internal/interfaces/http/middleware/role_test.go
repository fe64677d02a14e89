package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retailsuite/backend/internal/domain/identity"
	"github.com/retailsuite/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
)

func setClaims(role string, tenantID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := &auth.Claims{
			TenantID: tenantID,
			UserID:   uuid.New().String(),
			Username: "testuser",
			Role:     role,
		}
		c.Set(JWTClaimsKey, claims)
		c.Next()
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		required identity.Role
		expected int
	}{
		{"owner passes admin gate", "owner", identity.RoleAdmin, http.StatusOK},
		{"admin passes admin gate", "admin", identity.RoleAdmin, http.StatusOK},
		{"manager passes cashier gate", "manager", identity.RoleCashier, http.StatusOK},
		{"manager fails admin gate", "manager", identity.RoleAdmin, http.StatusForbidden},
		{"cashier fails manager gate", "cashier", identity.RoleManager, http.StatusForbidden},
		{"unknown role fails", "superuser", identity.RoleCashier, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(setClaims(tt.role, uuid.New().String()))
			router.GET("/test", RequireRole(tt.required), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestRequireRole_NoClaims(t *testing.T) {
	router := gin.New()
	router.GET("/test", RequireRole(identity.RoleCashier), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole_CustomOnDenied(t *testing.T) {
	deniedCalled := false
	cfg := RoleConfig{
		OnDenied: func(c *gin.Context, required identity.Role) {
			deniedCalled = true
			c.AbortWithStatus(http.StatusTeapot)
		},
	}

	router := gin.New()
	router.Use(setClaims("cashier", uuid.New().String()))
	router.GET("/test", RequireRoleWithConfig(identity.RoleAdmin, cfg), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.True(t, deniedCalled)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRequireOwnerPlane(t *testing.T) {
	platformTenantID := uuid.New().String()
	otherTenantID := uuid.New().String()

	tests := []struct {
		name     string
		role     string
		tenantID string
		expected int
	}{
		{"platform owner passes", "owner", platformTenantID, http.StatusOK},
		{"tenant owner rejected", "owner", otherTenantID, http.StatusForbidden},
		{"platform admin rejected", "admin", platformTenantID, http.StatusForbidden},
		{"tenant cashier rejected", "cashier", otherTenantID, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(setClaims(tt.role, tt.tenantID))
			router.GET("/test", RequireOwnerPlane(platformTenantID), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestRequireOwnerPlane_NoClaims(t *testing.T) {
	router := gin.New()
	router.GET("/test", RequireOwnerPlane(uuid.New().String()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
