package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// ModuleChecker resolves whether a tenant currently has a module enabled.
// The entitlement application service satisfies this interface.
type ModuleChecker interface {
	HasModule(ctx context.Context, tenantID uuid.UUID, key platform.ModuleKey) (bool, error)
}

// EntitlementConfig holds configuration for module gate middleware
type EntitlementConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
	// FailOpen allows requests through when the entitlement lookup itself
	// fails. Default is false: lookup errors return 500.
	FailOpen bool
}

// RequireModule creates middleware that rejects requests from tenants whose
// effective module set does not include the given module key.
func RequireModule(checker ModuleChecker, key platform.ModuleKey) gin.HandlerFunc {
	return RequireModuleWithConfig(checker, key, EntitlementConfig{})
}

// RequireModuleWithConfig creates module gate middleware with custom config
func RequireModuleWithConfig(checker ModuleChecker, key platform.ModuleKey, cfg EntitlementConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("request_id")

		tenantID, err := GetTenantUUID(c)
		if err != nil || tenantID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Tenant identification required", requestID))
			return
		}

		enabled, err := checker.HasModule(c.Request.Context(), tenantID, key)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Error("Module entitlement lookup failed",
					zap.String("tenant_id", tenantID.String()),
					zap.String("module", string(key)),
					zap.Error(err),
				)
			}
			if cfg.FailOpen {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal, "Failed to resolve module entitlements", requestID))
			return
		}

		if !enabled {
			if cfg.Logger != nil {
				cfg.Logger.Debug("Module not enabled for tenant",
					zap.String("tenant_id", tenantID.String()),
					zap.String("module", string(key)),
				)
			}
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeModuleNotEnabled,
					"Module '"+string(key)+"' is not enabled for this tenant", requestID))
			return
		}

		c.Next()
	}
}

// RequireAnyModule creates middleware that passes when the tenant has at
// least one of the given modules enabled. Used for routes shared between
// closely related modules.
func RequireAnyModule(checker ModuleChecker, keys ...platform.ModuleKey) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("request_id")

		tenantID, err := GetTenantUUID(c)
		if err != nil || tenantID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Tenant identification required", requestID))
			return
		}

		for _, key := range keys {
			enabled, err := checker.HasModule(c.Request.Context(), tenantID, key)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal, "Failed to resolve module entitlements", requestID))
				return
			}
			if enabled {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden,
			dto.NewErrorResponseWithRequestID(dto.ErrCodeModuleNotEnabled,
				"None of the required modules are enabled for this tenant", requestID))
	}
}
