package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	crmapp "github.com/retailsuite/backend/internal/application/crm"
)

// TierHandler handles loyalty tier API endpoints
type TierHandler struct {
	BaseHandler
	tierService *crmapp.LoyaltyTierService
}

// NewTierHandler creates a new TierHandler
func NewTierHandler(tierService *crmapp.LoyaltyTierService) *TierHandler {
	return &TierHandler{
		tierService: tierService,
	}
}

// CreateTierRequest represents a request to create a loyalty tier
// @Description Request body for creating a loyalty tier
type CreateTierRequest struct {
	Name            string  `json:"name" binding:"required,min=1,max=100" example:"Gold"`
	Rank            int     `json:"rank" binding:"required,min=1" example:"3"`
	MinPoints       int64   `json:"min_points" binding:"min=0" example:"5000"`
	MinSpent        string  `json:"min_spent" binding:"omitempty" example:"2500.00"`
	DiscountPercent string  `json:"discount_percent" binding:"omitempty" example:"10"`
	Color           string  `json:"color" binding:"omitempty,max=20" example:"#FFD700"`
}

// UpdateTierRequest represents a request to update a loyalty tier
// @Description Request body for updating a loyalty tier. Rank changes go through the rank endpoint.
type UpdateTierRequest struct {
	Name            string `json:"name" binding:"required,min=1,max=100" example:"Gold"`
	MinPoints       int64  `json:"min_points" binding:"min=0" example:"5000"`
	MinSpent        string `json:"min_spent" binding:"omitempty" example:"2500.00"`
	DiscountPercent string `json:"discount_percent" binding:"omitempty" example:"10"`
	Color           string `json:"color" binding:"omitempty,max=20" example:"#FFD700"`
}

// ChangeTierRankRequest represents a request to move a tier in the ladder
// @Description Request body for changing a tier's rank
type ChangeTierRankRequest struct {
	Rank int `json:"rank" binding:"required,min=1" example:"2"`
}

// Create godoc
// @ID           createTier
// @Summary      Create a loyalty tier
// @Description  Create a new loyalty tier in the tenant's ladder
// @Tags         tiers
// @Accept       json
// @Produce      json
// @Param        request body CreateTierRequest true "Tier creation request"
// @Success      201 {object} APIResponse[crmapp.TierDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/tiers [post]
func (h *TierHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req CreateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	minSpent, err := toDecimal(req.MinSpent)
	if err != nil {
		h.BadRequest(c, "Invalid minimum spent amount")
		return
	}
	discount, err := toDecimal(req.DiscountPercent)
	if err != nil {
		h.BadRequest(c, "Invalid discount percent")
		return
	}

	input := crmapp.CreateTierInput{
		TenantID:        tenantID,
		Name:            req.Name,
		Rank:            req.Rank,
		MinPoints:       req.MinPoints,
		MinSpent:        minSpent,
		DiscountPercent: discount,
		Color:           req.Color,
	}
	if userID, err := getUserID(c); err == nil && userID != uuid.Nil {
		input.CreatedBy = &userID
	}

	tier, err := h.tierService.Create(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, tier)
}

// GetByID godoc
// @ID           getTierById
// @Summary      Get tier by ID
// @Description  Retrieve a loyalty tier by its ID
// @Tags         tiers
// @Produce      json
// @Param        id path string true "Tier ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.TierDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/tiers/{id} [get]
func (h *TierHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	tierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tier ID format")
		return
	}

	tier, err := h.tierService.GetByID(c.Request.Context(), tenantID, tierID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tier)
}

// List godoc
// @ID           listTiers
// @Summary      List loyalty tiers
// @Description  Retrieve the tenant's loyalty tiers ordered by rank
// @Tags         tiers
// @Produce      json
// @Success      200 {object} APIResponse[[]crmapp.TierDTO]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/tiers [get]
func (h *TierHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	tiers, err := h.tierService.List(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tiers)
}

// Update godoc
// @ID           updateTier
// @Summary      Update a loyalty tier
// @Description  Update a tier's name, thresholds, discount and color
// @Tags         tiers
// @Accept       json
// @Produce      json
// @Param        id path string true "Tier ID" format(uuid)
// @Param        request body UpdateTierRequest true "Tier update request"
// @Success      200 {object} APIResponse[crmapp.TierDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/tiers/{id} [put]
func (h *TierHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	tierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tier ID format")
		return
	}

	var req UpdateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	minSpent, err := toDecimal(req.MinSpent)
	if err != nil {
		h.BadRequest(c, "Invalid minimum spent amount")
		return
	}
	discount, err := toDecimal(req.DiscountPercent)
	if err != nil {
		h.BadRequest(c, "Invalid discount percent")
		return
	}

	tier, err := h.tierService.Update(c.Request.Context(), crmapp.UpdateTierInput{
		ID:              tierID,
		TenantID:        tenantID,
		Name:            req.Name,
		MinPoints:       req.MinPoints,
		MinSpent:        minSpent,
		DiscountPercent: discount,
		Color:           req.Color,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tier)
}

// ChangeRank godoc
// @ID           changeTierRank
// @Summary      Change a tier's rank
// @Description  Move a loyalty tier to a different rank in the ladder
// @Tags         tiers
// @Accept       json
// @Produce      json
// @Param        id path string true "Tier ID" format(uuid)
// @Param        request body ChangeTierRankRequest true "Rank change request"
// @Success      200 {object} APIResponse[crmapp.TierDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/tiers/{id}/rank [post]
func (h *TierHandler) ChangeRank(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	tierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tier ID format")
		return
	}

	var req ChangeTierRankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tier, err := h.tierService.ChangeRank(c.Request.Context(), tenantID, tierID, req.Rank)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tier)
}

// Activate godoc
// @ID           activateTier
// @Summary      Activate a tier
// @Description  Activate an inactive loyalty tier
// @Tags         tiers
// @Produce      json
// @Param        id path string true "Tier ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.TierDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/tiers/{id}/activate [post]
func (h *TierHandler) Activate(c *gin.Context) {
	h.transition(c, h.tierService.Activate)
}

// Deactivate godoc
// @ID           deactivateTier
// @Summary      Deactivate a tier
// @Description  Deactivate a loyalty tier. Customers keep the tier until the next evaluation.
// @Tags         tiers
// @Produce      json
// @Param        id path string true "Tier ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.TierDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/tiers/{id}/deactivate [post]
func (h *TierHandler) Deactivate(c *gin.Context) {
	h.transition(c, h.tierService.Deactivate)
}

// Delete godoc
// @ID           deleteTier
// @Summary      Delete a loyalty tier
// @Description  Delete a loyalty tier that no customer currently holds
// @Tags         tiers
// @Produce      json
// @Param        id path string true "Tier ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/tiers/{id} [delete]
func (h *TierHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	tierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tier ID format")
		return
	}

	if err := h.tierService.Delete(c.Request.Context(), tenantID, tierID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *TierHandler) transition(
	c *gin.Context,
	fn func(ctx context.Context, tenantID, tierID uuid.UUID) (*crmapp.TierDTO, error),
) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	tierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tier ID format")
		return
	}

	tier, err := fn(c.Request.Context(), tenantID, tierID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, tier)
}
