package handler

import (
	"github.com/gin-gonic/gin"
	platformapp "github.com/retailsuite/backend/internal/application/platform"
)

// ModuleHandler handles the tenant-plane module entitlement endpoints
type ModuleHandler struct {
	BaseHandler
	entitlementService *platformapp.EntitlementService
}

// NewModuleHandler creates a new ModuleHandler
func NewModuleHandler(entitlementService *platformapp.EntitlementService) *ModuleHandler {
	return &ModuleHandler{
		entitlementService: entitlementService,
	}
}

// List godoc
// @ID           listTenantModules
// @Summary      List modules for the tenant
// @Description  Retrieve the module catalog annotated with what the tenant's subscription enables
// @Tags         modules
// @Produce      json
// @Success      200 {object} APIResponse[[]platformapp.TenantModuleDTO]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /core/modules [get]
func (h *ModuleHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	modules, err := h.entitlementService.GetModuleCatalog(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, modules)
}
