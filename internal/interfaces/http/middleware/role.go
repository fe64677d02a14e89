package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/retailsuite/backend/internal/domain/identity"
	"github.com/retailsuite/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// RoleConfig holds configuration for role middleware
type RoleConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
	// OnDenied is called when the role check fails (optional)
	OnDenied func(c *gin.Context, required identity.Role)
}

// RequireRole creates middleware that requires at least the given role.
// The role ladder is owner > admin > manager > cashier, so an admin
// passes a RequireRole(manager) gate but a cashier does not.
func RequireRole(required identity.Role) gin.HandlerFunc {
	return RequireRoleWithConfig(required, RoleConfig{})
}

// RequireRoleWithConfig creates role middleware with custom config
func RequireRoleWithConfig(required identity.Role, cfg RoleConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handleRoleDenied(c, cfg, required, "No authentication claims found")
			return
		}

		role := identity.Role(claims.Role)
		if !role.AtLeast(required) {
			handleRoleDenied(c, cfg, required, "User role is not sufficient")
			return
		}

		if cfg.Logger != nil {
			cfg.Logger.Debug("Role check passed",
				zap.String("user_id", claims.UserID),
				zap.String("role", claims.Role),
				zap.String("required", string(required)),
			)
		}

		c.Next()
	}
}

// RequireOwnerPlane creates middleware for the platform owner routes.
// It requires the owner role and that the caller belongs to the platform
// tenant, so tenant-level owners cannot reach cross-tenant operations.
func RequireOwnerPlane(platformTenantID string) gin.HandlerFunc {
	return RequireOwnerPlaneWithConfig(platformTenantID, RoleConfig{})
}

// RequireOwnerPlaneWithConfig creates owner-plane middleware with custom config
func RequireOwnerPlaneWithConfig(platformTenantID string, cfg RoleConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handleRoleDenied(c, cfg, identity.RoleOwner, "No authentication claims found")
			return
		}

		if identity.Role(claims.Role) != identity.RoleOwner {
			handleRoleDenied(c, cfg, identity.RoleOwner, "User is not a platform owner")
			return
		}

		if claims.TenantID != platformTenantID {
			handleRoleDenied(c, cfg, identity.RoleOwner, "User does not belong to the platform tenant")
			return
		}

		if cfg.Logger != nil {
			cfg.Logger.Debug("Owner plane check passed",
				zap.String("user_id", claims.UserID),
			)
		}

		c.Next()
	}
}

// handleRoleDenied handles role check failures
func handleRoleDenied(c *gin.Context, cfg RoleConfig, required identity.Role, message string) {
	if cfg.Logger != nil {
		claims := GetJWTClaims(c)
		userID := ""
		role := ""
		if claims != nil {
			userID = claims.UserID
			role = claims.Role
		}
		cfg.Logger.Warn("Role check failed",
			zap.String("user_id", userID),
			zap.String("role", role),
			zap.String("required", string(required)),
			zap.String("path", c.Request.URL.Path),
			zap.String("message", message),
		)
	}

	if cfg.OnDenied != nil {
		cfg.OnDenied(c, required)
		return
	}

	requestID := c.GetString("request_id")
	c.AbortWithStatusJSON(http.StatusForbidden,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Insufficient role for this operation", requestID))
}
