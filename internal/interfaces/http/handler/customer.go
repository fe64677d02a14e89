package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	crmapp "github.com/retailsuite/backend/internal/application/crm"
	"github.com/retailsuite/backend/internal/domain/crm"
)

// CustomerHandler handles customer-related API endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *crmapp.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *crmapp.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

// CreateCustomerRequest represents a request to create a new customer
// @Description Request body for creating a new customer
type CreateCustomerRequest struct {
	Code       string            `json:"code" binding:"required,min=1,max=50" example:"CUST-001"`
	Name       string            `json:"name" binding:"required,min=1,max=200" example:"Jane Smith"`
	Email      string            `json:"email" binding:"omitempty,email,max=200" example:"jane@example.com"`
	Phone      string            `json:"phone" binding:"max=50" example:"13800138000"`
	BranchID   *string           `json:"branch_id" binding:"omitempty,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Birthday   *string           `json:"birthday" binding:"omitempty,datetime=2006-01-02" example:"1990-04-12"`
	Attributes map[string]string `json:"attributes"`
}

// UpdateCustomerRequest represents a request to update a customer
// @Description Request body for updating a customer profile
type UpdateCustomerRequest struct {
	Name       string            `json:"name" binding:"required,min=1,max=200" example:"Jane Smith"`
	Email      string            `json:"email" binding:"omitempty,email,max=200" example:"jane@example.com"`
	Phone      string            `json:"phone" binding:"max=50" example:"13900139000"`
	BranchID   *string           `json:"branch_id" binding:"omitempty,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Birthday   *string           `json:"birthday" binding:"omitempty,datetime=2006-01-02" example:"1990-04-12"`
	Attributes map[string]string `json:"attributes"`
}

// AdjustPointsRequest represents a manual loyalty point adjustment
// @Description Request body for adjusting a customer's loyalty points
type AdjustPointsRequest struct {
	Delta  int64  `json:"delta" binding:"required" example:"-50"`
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"Goodwill compensation"`
}

// CustomerListQuery represents customer list query parameters
type CustomerListQuery struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active inactive blocked"`
	BranchID string `form:"branch_id" binding:"omitempty,uuid"`
	TierID   string `form:"tier_id" binding:"omitempty,uuid"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Create godoc
// @ID           createCustomer
// @Summary      Create a new customer
// @Description  Create a new customer within the tenant
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body CreateCustomerRequest true "Customer creation request"
// @Success      201 {object} APIResponse[crmapp.CustomerDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := crmapp.CreateCustomerInput{
		TenantID:   tenantID,
		Code:       req.Code,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Attributes: req.Attributes,
	}

	if req.BranchID != nil {
		branchID, err := uuid.Parse(*req.BranchID)
		if err != nil {
			h.BadRequest(c, "Invalid branch ID format")
			return
		}
		input.BranchID = &branchID
	}
	if req.Birthday != nil {
		birthday, err := time.Parse("2006-01-02", *req.Birthday)
		if err != nil {
			h.BadRequest(c, "Invalid birthday format, expected YYYY-MM-DD")
			return
		}
		input.Birthday = &birthday
	}
	if userID, err := getUserID(c); err == nil && userID != uuid.Nil {
		input.CreatedBy = &userID
	}

	customer, err := h.customerService.Create(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, customer)
}

// GetByID godoc
// @ID           getCustomerById
// @Summary      Get customer by ID
// @Description  Retrieve a customer by its ID
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.CustomerDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	customer, err := h.customerService.GetByID(c.Request.Context(), tenantID, customerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, customer)
}

// GetByCode godoc
// @ID           getCustomerByCode
// @Summary      Get customer by code
// @Description  Retrieve a customer by its code
// @Tags         customers
// @Produce      json
// @Param        code path string true "Customer code"
// @Success      200 {object} APIResponse[crmapp.CustomerDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/customers/code/{code} [get]
func (h *CustomerHandler) GetByCode(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	code := c.Param("code")
	if code == "" {
		h.BadRequest(c, "Customer code is required")
		return
	}

	customer, err := h.customerService.GetByCode(c.Request.Context(), tenantID, code)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, customer)
}

// List godoc
// @ID           listCustomers
// @Summary      List customers
// @Description  Retrieve a paginated list of customers with optional filtering
// @Tags         customers
// @Produce      json
// @Param        search query string false "Search term (code, name, email, phone)"
// @Param        status query string false "Customer status" Enums(active, inactive, blocked)
// @Param        branch_id query string false "Home branch ID" format(uuid)
// @Param        tier_id query string false "Loyalty tier ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(created_at)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Success      200 {object} APIResponse[[]crmapp.CustomerDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var query CustomerListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := crm.NewCustomerFilter()
	filter.Keyword = query.Search
	if query.Status != "" {
		status := crm.CustomerStatus(query.Status)
		filter.Status = &status
	}
	if query.BranchID != "" {
		branchID, err := uuid.Parse(query.BranchID)
		if err != nil {
			h.BadRequest(c, "Invalid branch ID format")
			return
		}
		filter.BranchID = &branchID
	}
	if query.TierID != "" {
		tierID, err := uuid.Parse(query.TierID)
		if err != nil {
			h.BadRequest(c, "Invalid tier ID format")
			return
		}
		filter.TierID = &tierID
	}
	if query.Page > 0 {
		filter.Page = query.Page
	}
	if query.PageSize > 0 {
		filter.PageSize = query.PageSize
	}
	if query.OrderBy != "" {
		filter.SortBy = query.OrderBy
	}
	if query.OrderDir != "" {
		filter.SortOrder = query.OrderDir
	}

	result, err := h.customerService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Customers, result.Total, result.Page, result.PageSize)
}

// Update godoc
// @ID           updateCustomer
// @Summary      Update a customer
// @Description  Update an existing customer's profile
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body UpdateCustomerRequest true "Customer update request"
// @Success      200 {object} APIResponse[crmapp.CustomerDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := crmapp.UpdateCustomerInput{
		ID:         customerID,
		TenantID:   tenantID,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Attributes: req.Attributes,
	}

	if req.BranchID != nil {
		branchID, err := uuid.Parse(*req.BranchID)
		if err != nil {
			h.BadRequest(c, "Invalid branch ID format")
			return
		}
		input.BranchID = &branchID
	}
	if req.Birthday != nil {
		birthday, err := time.Parse("2006-01-02", *req.Birthday)
		if err != nil {
			h.BadRequest(c, "Invalid birthday format, expected YYYY-MM-DD")
			return
		}
		input.Birthday = &birthday
	}

	customer, err := h.customerService.Update(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, customer)
}

// Delete godoc
// @ID           deleteCustomer
// @Summary      Delete a customer
// @Description  Delete a customer by ID. Past sales keep their customer reference.
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	if err := h.customerService.Delete(c.Request.Context(), tenantID, customerID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Activate godoc
// @ID           activateCustomer
// @Summary      Activate a customer
// @Description  Activate an inactive or blocked customer
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.CustomerDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/customers/{id}/activate [post]
func (h *CustomerHandler) Activate(c *gin.Context) {
	h.transition(c, h.customerService.Activate)
}

// Deactivate godoc
// @ID           deactivateCustomer
// @Summary      Deactivate a customer
// @Description  Deactivate an active customer
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.CustomerDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/customers/{id}/deactivate [post]
func (h *CustomerHandler) Deactivate(c *gin.Context) {
	h.transition(c, h.customerService.Deactivate)
}

// Block godoc
// @ID           blockCustomer
// @Summary      Block a customer
// @Description  Block a customer from purchases and loyalty accrual
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.CustomerDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/customers/{id}/block [post]
func (h *CustomerHandler) Block(c *gin.Context) {
	h.transition(c, h.customerService.Block)
}

// AdjustPoints godoc
// @ID           adjustCustomerPoints
// @Summary      Adjust loyalty points
// @Description  Apply a manual loyalty point adjustment with a reason. The balance never goes below zero.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body AdjustPointsRequest true "Point adjustment request"
// @Success      200 {object} APIResponse[crmapp.CustomerDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/customers/{id}/points [post]
func (h *CustomerHandler) AdjustPoints(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	var req AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customer, err := h.customerService.AdjustPoints(c.Request.Context(), crmapp.AdjustPointsInput{
		TenantID:   tenantID,
		CustomerID: customerID,
		Delta:      req.Delta,
		Reason:     req.Reason,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, customer)
}

// transition runs a tenant+customer state transition and writes the result
func (h *CustomerHandler) transition(
	c *gin.Context,
	fn func(ctx context.Context, tenantID, customerID uuid.UUID) (*crmapp.CustomerDTO, error),
) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	customer, err := fn(c.Request.Context(), tenantID, customerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, customer)
}
