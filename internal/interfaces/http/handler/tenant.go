package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	platformapp "github.com/retailsuite/backend/internal/application/platform"
	"github.com/retailsuite/backend/internal/domain/platform"
)

// TenantHandler handles platform-plane tenant API endpoints
type TenantHandler struct {
	BaseHandler
	tenantService      *platformapp.TenantService
	entitlementService *platformapp.EntitlementService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(
	tenantService *platformapp.TenantService,
	entitlementService *platformapp.EntitlementService,
) *TenantHandler {
	return &TenantHandler{
		tenantService:      tenantService,
		entitlementService: entitlementService,
	}
}

// CreateTenantRequest represents a tenant provisioning request
// @Description Request body for provisioning a new tenant with its main branch and admin user
type CreateTenantRequest struct {
	Code          string `json:"code" binding:"required,min=2,max=50" example:"acme-retail"`
	Name          string `json:"name" binding:"required,min=1,max=200" example:"Acme Retail Ltd"`
	Domain        string `json:"domain" binding:"omitempty,max=200" example:"acme.retailsuite.io"`
	ContactName   string `json:"contact_name" binding:"max=200" example:"Jane Smith"`
	ContactPhone  string `json:"contact_phone" binding:"max=50" example:"13800138000"`
	ContactEmail  string `json:"contact_email" binding:"omitempty,email,max=200" example:"jane@acme.com"`
	Notes         string `json:"notes" binding:"max=1000"`
	PackageCode   string `json:"package_code" binding:"omitempty,max=50" example:"standard"`
	TrialDays     int    `json:"trial_days" binding:"omitempty,min=1,max=365" example:"14"`
	BranchName    string `json:"branch_name" binding:"omitempty,max=200" example:"Main Branch"`
	AdminUsername string `json:"admin_username" binding:"required,min=3,max=100" example:"admin"`
	AdminEmail    string `json:"admin_email" binding:"required,email,max=200" example:"admin@acme.com"`
	AdminPassword string `json:"admin_password" binding:"required,min=8,max=200" example:"s3cret-pass!"`
	AdminFullName string `json:"admin_full_name" binding:"max=200" example:"Jane Smith"`
}

// UpdateTenantRequest represents a tenant update request. Omitted fields are
// left unchanged.
// @Description Request body for updating a tenant
type UpdateTenantRequest struct {
	Name         *string                   `json:"name" binding:"omitempty,min=1,max=200"`
	Domain       *string                   `json:"domain" binding:"omitempty,max=200"`
	ContactName  *string                   `json:"contact_name" binding:"omitempty,max=200"`
	ContactPhone *string                   `json:"contact_phone" binding:"omitempty,max=50"`
	ContactEmail *string                   `json:"contact_email" binding:"omitempty,email,max=200"`
	Notes        *string                   `json:"notes" binding:"omitempty,max=1000"`
	Config       *UpdateTenantConfigFields `json:"config"`
}

// UpdateTenantConfigFields carries tenant limit and locale overrides
// @Description Tenant configuration overrides. Omitted fields are left unchanged.
type UpdateTenantConfigFields struct {
	MaxUsers        *int     `json:"max_users" binding:"omitempty,min=1"`
	MaxBranches     *int     `json:"max_branches" binding:"omitempty,min=1"`
	MaxCustomers    *int     `json:"max_customers" binding:"omitempty,min=1"`
	Currency        *string  `json:"currency" binding:"omitempty,len=3"`
	Timezone        *string  `json:"timezone" binding:"omitempty,max=100"`
	Locale          *string  `json:"locale" binding:"omitempty,max=20"`
	LoyaltyEarnRate *float64 `json:"loyalty_earn_rate" binding:"omitempty,min=0"`
}

// SuspendTenantRequest represents a tenant suspension request
// @Description Request body for suspending a tenant
type SuspendTenantRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"Payment overdue"`
}

// SubscribeTenantRequest represents a package subscription request
// @Description Request body for subscribing a tenant to a package
type SubscribeTenantRequest struct {
	PackageCode string  `json:"package_code" binding:"required,min=1,max=50" example:"premium"`
	ExpiresAt   *string `json:"expires_at" binding:"omitempty" example:"2027-08-28T00:00:00Z"`
}

// AddonRequest represents an addon module change request
// @Description Request body for adding or removing an addon module
type AddonRequest struct {
	ModuleKey string `json:"module_key" binding:"required,min=1,max=50" example:"loyalty"`
}

// TenantListQuery represents tenant list query parameters
type TenantListQuery struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active trial suspended inactive"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Create godoc
// @ID           createTenant
// @Summary      Provision a tenant
// @Description  Provision a new tenant with its subscription, main branch, admin user and default loyalty tiers in one transaction
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        request body CreateTenantRequest true "Tenant provisioning request"
// @Success      201 {object} APIResponse[platformapp.ProvisionResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/tenants [post]
func (h *TenantHandler) Create(c *gin.Context) {
	var req CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := platformapp.CreateTenantInput{
		Code:          req.Code,
		Name:          req.Name,
		Domain:        req.Domain,
		ContactName:   req.ContactName,
		ContactPhone:  req.ContactPhone,
		ContactEmail:  req.ContactEmail,
		Notes:         req.Notes,
		PackageCode:   req.PackageCode,
		TrialDays:     req.TrialDays,
		BranchName:    req.BranchName,
		AdminUsername: req.AdminUsername,
		AdminEmail:    req.AdminEmail,
		AdminPassword: req.AdminPassword,
		AdminFullName: req.AdminFullName,
	}
	if userID, err := getUserID(c); err == nil && userID != uuid.Nil {
		input.CreatedBy = &userID
	}

	result, err := h.tenantService.Create(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID godoc
// @ID           getTenantById
// @Summary      Get tenant by ID
// @Description  Retrieve a tenant by its ID
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} APIResponse[platformapp.TenantDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/tenants/{id} [get]
func (h *TenantHandler) GetByID(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	tenant, err := h.tenantService.GetByID(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tenant)
}

// List godoc
// @ID           listTenants
// @Summary      List tenants
// @Description  Retrieve a paginated list of tenants with optional filtering
// @Tags         tenants
// @Produce      json
// @Param        search query string false "Search term (code, name, contact)"
// @Param        status query string false "Tenant status" Enums(active, trial, suspended, inactive)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]platformapp.TenantDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/tenants [get]
func (h *TenantHandler) List(c *gin.Context) {
	var query TenantListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.tenantService.List(c.Request.Context(), platformapp.TenantFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
		SortBy:   query.OrderBy,
		SortDir:  query.OrderDir,
		Keyword:  query.Search,
		Status:   query.Status,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Tenants, result.Total, result.Page, result.PageSize)
}

// Update godoc
// @ID           updateTenant
// @Summary      Update a tenant
// @Description  Update a tenant's profile and configuration
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        request body UpdateTenantRequest true "Tenant update request"
// @Success      200 {object} APIResponse[platformapp.TenantDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/tenants/{id} [put]
func (h *TenantHandler) Update(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	var req UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := platformapp.UpdateTenantInput{
		ID:           tenantID,
		Name:         req.Name,
		Domain:       req.Domain,
		ContactName:  req.ContactName,
		ContactPhone: req.ContactPhone,
		ContactEmail: req.ContactEmail,
		Notes:        req.Notes,
	}
	if req.Config != nil {
		input.Config = &platformapp.TenantConfigInput{
			MaxUsers:        req.Config.MaxUsers,
			MaxBranches:     req.Config.MaxBranches,
			MaxCustomers:    req.Config.MaxCustomers,
			Currency:        req.Config.Currency,
			Timezone:        req.Config.Timezone,
			Locale:          req.Config.Locale,
			LoyaltyEarnRate: req.Config.LoyaltyEarnRate,
		}
	}

	tenant, err := h.tenantService.Update(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tenant)
}

// Activate godoc
// @ID           activateTenant
// @Summary      Activate a tenant
// @Description  Activate a suspended or inactive tenant
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} APIResponse[platformapp.TenantDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/tenants/{id}/activate [post]
func (h *TenantHandler) Activate(c *gin.Context) {
	h.transition(c, h.tenantService.Activate)
}

// Suspend godoc
// @ID           suspendTenant
// @Summary      Suspend a tenant
// @Description  Suspend a tenant with a reason. Suspended tenants cannot log in.
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        request body SuspendTenantRequest true "Suspension request"
// @Success      200 {object} APIResponse[platformapp.TenantDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/tenants/{id}/suspend [post]
func (h *TenantHandler) Suspend(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	var req SuspendTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenant, err := h.tenantService.Suspend(c.Request.Context(), tenantID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tenant)
}

// Deactivate godoc
// @ID           deactivateTenant
// @Summary      Deactivate a tenant
// @Description  Deactivate a tenant, ending the engagement while keeping its data
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} APIResponse[platformapp.TenantDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/tenants/{id}/deactivate [post]
func (h *TenantHandler) Deactivate(c *gin.Context) {
	h.transition(c, h.tenantService.Deactivate)
}

// Delete godoc
// @ID           deleteTenant
// @Summary      Delete a tenant
// @Description  Delete an inactive tenant and all of its data
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/tenants/{id} [delete]
func (h *TenantHandler) Delete(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	if err := h.tenantService.Delete(c.Request.Context(), tenantID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// GetStats godoc
// @ID           getTenantStats
// @Summary      Get tenant statistics
// @Description  Count tenants by status across the platform
// @Tags         tenants
// @Produce      json
// @Success      200 {object} APIResponse[platformapp.TenantStatsDTO]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/tenants/stats [get]
func (h *TenantHandler) GetStats(c *gin.Context) {
	stats, err := h.tenantService.GetStats(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stats)
}

// GetUsage godoc
// @ID           getTenantUsage
// @Summary      Get tenant usage
// @Description  Report a tenant's user, branch and customer counts against its limits
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} APIResponse[platformapp.TenantUsageDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/tenants/{id}/usage [get]
func (h *TenantHandler) GetUsage(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	usage, err := h.tenantService.GetUsage(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, usage)
}

// Subscribe godoc
// @ID           subscribeTenant
// @Summary      Subscribe a tenant to a package
// @Description  Replace the tenant's active subscription with a new package subscription
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        request body SubscribeTenantRequest true "Subscription request"
// @Success      200 {object} APIResponse[platformapp.SubscriptionDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/tenants/{id}/subscription [post]
func (h *TenantHandler) Subscribe(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	var req SubscribeTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := platformapp.SubscribeTenantInput{
		TenantID:    tenantID,
		PackageCode: req.PackageCode,
	}
	if req.ExpiresAt != nil {
		expiresAt, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			h.BadRequest(c, "Invalid expires_at, expected RFC 3339 timestamp")
			return
		}
		input.ExpiresAt = &expiresAt
	}

	subscription, err := h.entitlementService.Subscribe(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, subscription)
}

// GetSubscription godoc
// @ID           getTenantSubscription
// @Summary      Get a tenant's subscription
// @Description  Retrieve the tenant's active subscription
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} APIResponse[platformapp.SubscriptionDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/tenants/{id}/subscription [get]
func (h *TenantHandler) GetSubscription(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	subscription, err := h.entitlementService.GetSubscription(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, subscription)
}

// CancelSubscription godoc
// @ID           cancelTenantSubscription
// @Summary      Cancel a tenant's subscription
// @Description  Cancel the tenant's active subscription. Core modules stay available.
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} APIResponse[platformapp.SubscriptionDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/tenants/{id}/subscription [delete]
func (h *TenantHandler) CancelSubscription(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	subscription, err := h.entitlementService.Cancel(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, subscription)
}

// AddAddon godoc
// @ID           addTenantAddon
// @Summary      Add an addon module
// @Description  Add an addon module on top of the tenant's package subscription
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        request body AddonRequest true "Addon request"
// @Success      200 {object} APIResponse[platformapp.SubscriptionDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/tenants/{id}/addons [post]
func (h *TenantHandler) AddAddon(c *gin.Context) {
	h.addonChange(c, h.entitlementService.AddAddon)
}

// RemoveAddon godoc
// @ID           removeTenantAddon
// @Summary      Remove an addon module
// @Description  Remove an addon module from the tenant's subscription
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        request body AddonRequest true "Addon request"
// @Success      200 {object} APIResponse[platformapp.SubscriptionDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/tenants/{id}/addons [delete]
func (h *TenantHandler) RemoveAddon(c *gin.Context) {
	h.addonChange(c, h.entitlementService.RemoveAddon)
}

func (h *TenantHandler) addonChange(
	c *gin.Context,
	fn func(ctx context.Context, tenantID uuid.UUID, key platform.ModuleKey) (*platformapp.SubscriptionDTO, error),
) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	var req AddonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	subscription, err := fn(c.Request.Context(), tenantID, platform.ModuleKey(req.ModuleKey))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, subscription)
}

func (h *TenantHandler) transition(
	c *gin.Context,
	fn func(ctx context.Context, tenantID uuid.UUID) (*platformapp.TenantDTO, error),
) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	tenant, err := fn(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tenant)
}
