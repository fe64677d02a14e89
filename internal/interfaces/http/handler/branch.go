package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	orgapp "github.com/retailsuite/backend/internal/application/org"
)

// BranchHandler handles branch API endpoints
type BranchHandler struct {
	BaseHandler
	branchService *orgapp.BranchService
}

// NewBranchHandler creates a new BranchHandler
func NewBranchHandler(branchService *orgapp.BranchService) *BranchHandler {
	return &BranchHandler{
		branchService: branchService,
	}
}

// CreateBranchRequest represents a request to create a branch
// @Description Request body for creating a branch
type CreateBranchRequest struct {
	Code        string `json:"code" binding:"required,min=1,max=50" example:"BR-001"`
	Name        string `json:"name" binding:"required,min=1,max=200" example:"Downtown store"`
	Address     string `json:"address" binding:"max=500" example:"1 Market Street"`
	Phone       string `json:"phone" binding:"max=50" example:"13800138000"`
	ManagerName string `json:"manager_name" binding:"max=200" example:"Jane Smith"`
}

// UpdateBranchRequest represents a request to update a branch
// @Description Request body for updating a branch. Empty optional fields clear the stored values.
type UpdateBranchRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200" example:"Downtown store"`
	Address     string `json:"address" binding:"max=500" example:"1 Market Street"`
	Phone       string `json:"phone" binding:"max=50" example:"13800138000"`
	ManagerName string `json:"manager_name" binding:"max=200" example:"Jane Smith"`
}

// Create godoc
// @ID           createBranch
// @Summary      Create a branch
// @Description  Create a new branch for the tenant, subject to the subscription's branch limit
// @Tags         branches
// @Accept       json
// @Produce      json
// @Param        request body CreateBranchRequest true "Branch creation request"
// @Success      201 {object} APIResponse[orgapp.BranchDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /org/branches [post]
func (h *BranchHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := orgapp.CreateBranchInput{
		TenantID:    tenantID,
		Code:        req.Code,
		Name:        req.Name,
		Address:     req.Address,
		Phone:       req.Phone,
		ManagerName: req.ManagerName,
	}
	if userID, err := getUserID(c); err == nil && userID != uuid.Nil {
		input.CreatedBy = &userID
	}

	branch, err := h.branchService.Create(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, branch)
}

// GetByID godoc
// @ID           getBranchById
// @Summary      Get branch by ID
// @Description  Retrieve a branch by its ID
// @Tags         branches
// @Produce      json
// @Param        id path string true "Branch ID" format(uuid)
// @Success      200 {object} APIResponse[orgapp.BranchDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /org/branches/{id} [get]
func (h *BranchHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	branchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid branch ID format")
		return
	}

	branch, err := h.branchService.GetByID(c.Request.Context(), tenantID, branchID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, branch)
}

// List godoc
// @ID           listBranches
// @Summary      List branches
// @Description  Retrieve a paginated list of the tenant's branches
// @Tags         branches
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]orgapp.BranchDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /org/branches [get]
func (h *BranchHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var query struct {
		Page     int `form:"page" binding:"omitempty,min=1"`
		PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.branchService.List(c.Request.Context(), tenantID, orgapp.BranchFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Branches, result.Total, result.Page, result.PageSize)
}

// Update godoc
// @ID           updateBranch
// @Summary      Update a branch
// @Description  Update a branch's name, address, phone and manager
// @Tags         branches
// @Accept       json
// @Produce      json
// @Param        id path string true "Branch ID" format(uuid)
// @Param        request body UpdateBranchRequest true "Branch update request"
// @Success      200 {object} APIResponse[orgapp.BranchDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /org/branches/{id} [put]
func (h *BranchHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	branchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid branch ID format")
		return
	}

	var req UpdateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	branch, err := h.branchService.Update(c.Request.Context(), orgapp.UpdateBranchInput{
		ID:          branchID,
		TenantID:    tenantID,
		Name:        req.Name,
		Address:     req.Address,
		Phone:       req.Phone,
		ManagerName: req.ManagerName,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, branch)
}

// Activate godoc
// @ID           activateBranch
// @Summary      Activate a branch
// @Description  Activate an inactive branch
// @Tags         branches
// @Produce      json
// @Param        id path string true "Branch ID" format(uuid)
// @Success      200 {object} APIResponse[orgapp.BranchDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /org/branches/{id}/activate [post]
func (h *BranchHandler) Activate(c *gin.Context) {
	h.transition(c, h.branchService.Activate)
}

// Deactivate godoc
// @ID           deactivateBranch
// @Summary      Deactivate a branch
// @Description  Deactivate a branch. The main branch cannot be deactivated.
// @Tags         branches
// @Produce      json
// @Param        id path string true "Branch ID" format(uuid)
// @Success      200 {object} APIResponse[orgapp.BranchDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /org/branches/{id}/deactivate [post]
func (h *BranchHandler) Deactivate(c *gin.Context) {
	h.transition(c, h.branchService.Deactivate)
}

// SetMain godoc
// @ID           setMainBranch
// @Summary      Set the main branch
// @Description  Mark a branch as the tenant's main branch, demoting the previous one
// @Tags         branches
// @Produce      json
// @Param        id path string true "Branch ID" format(uuid)
// @Success      200 {object} APIResponse[orgapp.BranchDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /org/branches/{id}/main [post]
func (h *BranchHandler) SetMain(c *gin.Context) {
	h.transition(c, h.branchService.SetMain)
}

// Delete godoc
// @ID           deleteBranch
// @Summary      Delete a branch
// @Description  Delete a branch that is not the main branch and has no assigned staff
// @Tags         branches
// @Produce      json
// @Param        id path string true "Branch ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /org/branches/{id} [delete]
func (h *BranchHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	branchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid branch ID format")
		return
	}

	if err := h.branchService.Delete(c.Request.Context(), tenantID, branchID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *BranchHandler) transition(
	c *gin.Context,
	fn func(ctx context.Context, tenantID, branchID uuid.UUID) (*orgapp.BranchDTO, error),
) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	branchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid branch ID format")
		return
	}

	branch, err := fn(c.Request.Context(), tenantID, branchID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, branch)
}
