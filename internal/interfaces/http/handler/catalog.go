package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	platformapp "github.com/retailsuite/backend/internal/application/platform"
)

// CatalogHandler handles the owner-plane module and package catalog
type CatalogHandler struct {
	BaseHandler
	catalogService *platformapp.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService *platformapp.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// CreateModuleRequest represents a request to add a module to the catalog
// @Description Request body for creating a catalog module
type CreateModuleRequest struct {
	Key         string `json:"key" binding:"required,min=1,max=50" example:"loyalty"`
	Name        string `json:"name" binding:"required,min=1,max=200" example:"Loyalty program"`
	Description string `json:"description" binding:"max=1000"`
	Category    string `json:"category" binding:"max=100" example:"crm"`
	IsCore      bool   `json:"is_core" example:"false"`
	SortOrder   int    `json:"sort_order" binding:"min=0" example:"30"`
}

// UpdateModuleRequest represents a request to update a catalog module. The
// key is immutable; omitted fields are left unchanged.
// @Description Request body for updating a catalog module
type UpdateModuleRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Category    *string `json:"category" binding:"omitempty,max=100"`
	SortOrder   *int    `json:"sort_order" binding:"omitempty,min=0"`
}

// CreatePackageRequest represents a request to create a sellable package
// @Description Request body for creating a package
type CreatePackageRequest struct {
	Code         string   `json:"code" binding:"required,min=1,max=50" example:"premium"`
	Name         string   `json:"name" binding:"required,min=1,max=200" example:"Premium"`
	Description  string   `json:"description" binding:"max=1000"`
	ModuleKeys   []string `json:"module_keys" binding:"required,min=1" example:"pos,crm,loyalty"`
	MaxUsers     int      `json:"max_users" binding:"required,min=1" example:"50"`
	MaxBranches  int      `json:"max_branches" binding:"required,min=1" example:"10"`
	MaxCustomers int      `json:"max_customers" binding:"required,min=1" example:"100000"`
	PriceMonthly string   `json:"price_monthly" binding:"omitempty" example:"199.00"`
	SortOrder    int      `json:"sort_order" binding:"min=0" example:"20"`
}

// UpdatePackageRequest represents a request to update a package. The code is
// immutable; omitted fields are left unchanged.
// @Description Request body for updating a package
type UpdatePackageRequest struct {
	Name         *string   `json:"name" binding:"omitempty,min=1,max=200"`
	Description  *string   `json:"description" binding:"omitempty,max=1000"`
	ModuleKeys   *[]string `json:"module_keys" binding:"omitempty,min=1"`
	MaxUsers     *int      `json:"max_users" binding:"omitempty,min=1"`
	MaxBranches  *int      `json:"max_branches" binding:"omitempty,min=1"`
	MaxCustomers *int      `json:"max_customers" binding:"omitempty,min=1"`
	PriceMonthly *string   `json:"price_monthly" binding:"omitempty"`
	SortOrder    *int      `json:"sort_order" binding:"omitempty,min=0"`
}

// ListModules godoc
// @ID           listCatalogModules
// @Summary      List catalog modules
// @Description  Retrieve the full module catalog
// @Tags         catalog
// @Produce      json
// @Success      200 {object} APIResponse[[]platformapp.ModuleDTO]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/modules [get]
func (h *CatalogHandler) ListModules(c *gin.Context) {
	modules, err := h.catalogService.ListModules(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, modules)
}

// GetModule godoc
// @ID           getCatalogModule
// @Summary      Get a catalog module
// @Description  Retrieve a catalog module by ID
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Module ID" format(uuid)
// @Success      200 {object} APIResponse[platformapp.ModuleDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/modules/{id} [get]
func (h *CatalogHandler) GetModule(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid module ID format")
		return
	}

	module, err := h.catalogService.GetModule(c.Request.Context(), moduleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, module)
}

// CreateModule godoc
// @ID           createCatalogModule
// @Summary      Create a catalog module
// @Description  Add a module to the platform catalog
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        request body CreateModuleRequest true "Module creation request"
// @Success      201 {object} APIResponse[platformapp.ModuleDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/modules [post]
func (h *CatalogHandler) CreateModule(c *gin.Context) {
	var req CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	module, err := h.catalogService.CreateModule(c.Request.Context(), platformapp.CreateModuleInput{
		Key:         req.Key,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		IsCore:      req.IsCore,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, module)
}

// UpdateModule godoc
// @ID           updateCatalogModule
// @Summary      Update a catalog module
// @Description  Update a module's display fields. The key is immutable.
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Module ID" format(uuid)
// @Param        request body UpdateModuleRequest true "Module update request"
// @Success      200 {object} APIResponse[platformapp.ModuleDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/modules/{id} [put]
func (h *CatalogHandler) UpdateModule(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid module ID format")
		return
	}

	var req UpdateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	module, err := h.catalogService.UpdateModule(c.Request.Context(), platformapp.UpdateModuleInput{
		ID:          moduleID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, module)
}

// EnableModule godoc
// @ID           enableCatalogModule
// @Summary      Enable a module
// @Description  Enable a catalog module platform-wide
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Module ID" format(uuid)
// @Success      200 {object} APIResponse[platformapp.ModuleDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/modules/{id}/enable [post]
func (h *CatalogHandler) EnableModule(c *gin.Context) {
	h.moduleTransition(c, h.catalogService.EnableModule)
}

// DisableModule godoc
// @ID           disableCatalogModule
// @Summary      Disable a module
// @Description  Disable a non-core catalog module platform-wide
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Module ID" format(uuid)
// @Success      200 {object} APIResponse[platformapp.ModuleDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/modules/{id}/disable [post]
func (h *CatalogHandler) DisableModule(c *gin.Context) {
	h.moduleTransition(c, h.catalogService.DisableModule)
}

// DeleteModule godoc
// @ID           deleteCatalogModule
// @Summary      Delete a module
// @Description  Delete a non-core module that no package references
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Module ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/modules/{id} [delete]
func (h *CatalogHandler) DeleteModule(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid module ID format")
		return
	}

	if err := h.catalogService.DeleteModule(c.Request.Context(), moduleID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// ListPackages godoc
// @ID           listPackages
// @Summary      List packages
// @Description  Retrieve all sellable packages
// @Tags         catalog
// @Produce      json
// @Success      200 {object} APIResponse[[]platformapp.PackageDTO]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/packages [get]
func (h *CatalogHandler) ListPackages(c *gin.Context) {
	packages, err := h.catalogService.ListPackages(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, packages)
}

// GetPackage godoc
// @ID           getPackage
// @Summary      Get a package
// @Description  Retrieve a package by ID
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Package ID" format(uuid)
// @Success      200 {object} APIResponse[platformapp.PackageDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/packages/{id} [get]
func (h *CatalogHandler) GetPackage(c *gin.Context) {
	packageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid package ID format")
		return
	}

	pkg, err := h.catalogService.GetPackage(c.Request.Context(), packageID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, pkg)
}

// CreatePackage godoc
// @ID           createPackage
// @Summary      Create a package
// @Description  Create a sellable package bundling catalog modules with resource limits
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        request body CreatePackageRequest true "Package creation request"
// @Success      201 {object} APIResponse[platformapp.PackageDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/packages [post]
func (h *CatalogHandler) CreatePackage(c *gin.Context) {
	var req CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	price, err := toDecimal(req.PriceMonthly)
	if err != nil {
		h.BadRequest(c, "Invalid monthly price")
		return
	}

	pkg, err := h.catalogService.CreatePackage(c.Request.Context(), platformapp.CreatePackageInput{
		Code:         req.Code,
		Name:         req.Name,
		Description:  req.Description,
		ModuleKeys:   req.ModuleKeys,
		MaxUsers:     req.MaxUsers,
		MaxBranches:  req.MaxBranches,
		MaxCustomers: req.MaxCustomers,
		PriceMonthly: price,
		SortOrder:    req.SortOrder,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, pkg)
}

// UpdatePackage godoc
// @ID           updatePackage
// @Summary      Update a package
// @Description  Update a package's modules, limits and pricing. The code is immutable.
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        id path string true "Package ID" format(uuid)
// @Param        request body UpdatePackageRequest true "Package update request"
// @Success      200 {object} APIResponse[platformapp.PackageDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/packages/{id} [put]
func (h *CatalogHandler) UpdatePackage(c *gin.Context) {
	packageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid package ID format")
		return
	}

	var req UpdatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := platformapp.UpdatePackageInput{
		ID:           packageID,
		Name:         req.Name,
		Description:  req.Description,
		ModuleKeys:   req.ModuleKeys,
		MaxUsers:     req.MaxUsers,
		MaxBranches:  req.MaxBranches,
		MaxCustomers: req.MaxCustomers,
		SortOrder:    req.SortOrder,
	}
	price, err := toDecimalPtr(req.PriceMonthly)
	if err != nil {
		h.BadRequest(c, "Invalid monthly price")
		return
	}
	input.PriceMonthly = price

	pkg, err := h.catalogService.UpdatePackage(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, pkg)
}

// ActivatePackage godoc
// @ID           activatePackage
// @Summary      Activate a package
// @Description  Make a package available for new subscriptions
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Package ID" format(uuid)
// @Success      200 {object} APIResponse[platformapp.PackageDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/packages/{id}/activate [post]
func (h *CatalogHandler) ActivatePackage(c *gin.Context) {
	h.packageTransition(c, h.catalogService.ActivatePackage)
}

// DeactivatePackage godoc
// @ID           deactivatePackage
// @Summary      Deactivate a package
// @Description  Stop offering a package to new subscribers. Existing subscriptions keep working.
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Package ID" format(uuid)
// @Success      200 {object} APIResponse[platformapp.PackageDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/packages/{id}/deactivate [post]
func (h *CatalogHandler) DeactivatePackage(c *gin.Context) {
	h.packageTransition(c, h.catalogService.DeactivatePackage)
}

// DeletePackage godoc
// @ID           deletePackage
// @Summary      Delete a package
// @Description  Delete a package that no tenant subscribes to
// @Tags         catalog
// @Produce      json
// @Param        id path string true "Package ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/packages/{id} [delete]
func (h *CatalogHandler) DeletePackage(c *gin.Context) {
	packageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid package ID format")
		return
	}

	if err := h.catalogService.DeletePackage(c.Request.Context(), packageID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *CatalogHandler) moduleTransition(
	c *gin.Context,
	fn func(ctx context.Context, id uuid.UUID) (*platformapp.ModuleDTO, error),
) {
	moduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid module ID format")
		return
	}

	module, err := fn(c.Request.Context(), moduleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, module)
}

func (h *CatalogHandler) packageTransition(
	c *gin.Context,
	fn func(ctx context.Context, id uuid.UUID) (*platformapp.PackageDTO, error),
) {
	packageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid package ID format")
		return
	}

	pkg, err := fn(c.Request.Context(), packageID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, pkg)
}
