package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	crmapp "github.com/retailsuite/backend/internal/application/crm"
)

// SegmentHandler handles customer segment API endpoints
type SegmentHandler struct {
	BaseHandler
	segmentService *crmapp.CustomerSegmentService
}

// NewSegmentHandler creates a new SegmentHandler
func NewSegmentHandler(segmentService *crmapp.CustomerSegmentService) *SegmentHandler {
	return &SegmentHandler{
		segmentService: segmentService,
	}
}

// SegmentRulesRequest carries segment matching rules
// @Description Matching rules for a customer segment. Zero bounds mean no bound.
type SegmentRulesRequest struct {
	MinRecencyScore   int      `json:"min_recency_score" binding:"min=0,max=5" example:"3"`
	MinFrequencyScore int      `json:"min_frequency_score" binding:"min=0,max=5" example:"3"`
	MinMonetaryScore  int      `json:"min_monetary_score" binding:"min=0,max=5" example:"0"`
	MinTotalSpent     *string  `json:"min_total_spent" binding:"omitempty" example:"1000.00"`
	RFMSegments       []string `json:"rfm_segments" example:"champions,loyal"`
}

// CreateSegmentRequest represents a request to create a segment
// @Description Request body for creating a customer segment
type CreateSegmentRequest struct {
	Name        string              `json:"name" binding:"required,min=1,max=200" example:"High spenders"`
	Description string              `json:"description" binding:"max=1000" example:"Customers with strong recent activity"`
	Rules       SegmentRulesRequest `json:"rules" binding:"required"`
}

// UpdateSegmentRequest represents a request to update a segment
// @Description Request body for updating a customer segment. Rules are replaced as a whole.
type UpdateSegmentRequest struct {
	Name        string              `json:"name" binding:"required,min=1,max=200" example:"High spenders"`
	Description string              `json:"description" binding:"max=1000" example:"Customers with strong recent activity"`
	Rules       SegmentRulesRequest `json:"rules" binding:"required"`
}

func (r SegmentRulesRequest) toInput() (crmapp.SegmentRulesInput, error) {
	input := crmapp.SegmentRulesInput{
		MinRecencyScore:   r.MinRecencyScore,
		MinFrequencyScore: r.MinFrequencyScore,
		MinMonetaryScore:  r.MinMonetaryScore,
		RFMSegments:       r.RFMSegments,
	}
	minSpent, err := toDecimalPtr(r.MinTotalSpent)
	if err != nil {
		return input, err
	}
	input.MinTotalSpent = minSpent
	return input, nil
}

// Create godoc
// @ID           createSegment
// @Summary      Create a customer segment
// @Description  Create a new customer segment with matching rules
// @Tags         segments
// @Accept       json
// @Produce      json
// @Param        request body CreateSegmentRequest true "Segment creation request"
// @Success      201 {object} APIResponse[crmapp.SegmentDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/segments [post]
func (h *SegmentHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var req CreateSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rules, err := req.Rules.toInput()
	if err != nil {
		h.BadRequest(c, "Invalid minimum total spent amount")
		return
	}

	input := crmapp.CreateSegmentInput{
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
		Rules:       rules,
	}
	if userID, err := getUserID(c); err == nil && userID != uuid.Nil {
		input.CreatedBy = &userID
	}

	segment, err := h.segmentService.Create(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, segment)
}

// GetByID godoc
// @ID           getSegmentById
// @Summary      Get segment by ID
// @Description  Retrieve a customer segment by its ID
// @Tags         segments
// @Produce      json
// @Param        id path string true "Segment ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.SegmentDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/segments/{id} [get]
func (h *SegmentHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	segmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid segment ID format")
		return
	}

	segment, err := h.segmentService.GetByID(c.Request.Context(), tenantID, segmentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, segment)
}

// List godoc
// @ID           listSegments
// @Summary      List customer segments
// @Description  Retrieve a paginated list of customer segments
// @Tags         segments
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]crmapp.SegmentDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/segments [get]
func (h *SegmentHandler) List(c *gin.Context) {
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

	result, err := h.segmentService.List(c.Request.Context(), tenantID, crmapp.SegmentFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Segments, result.Total, result.Page, result.PageSize)
}

// Update godoc
// @ID           updateSegment
// @Summary      Update a customer segment
// @Description  Update a segment's name, description and matching rules
// @Tags         segments
// @Accept       json
// @Produce      json
// @Param        id path string true "Segment ID" format(uuid)
// @Param        request body UpdateSegmentRequest true "Segment update request"
// @Success      200 {object} APIResponse[crmapp.SegmentDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/segments/{id} [put]
func (h *SegmentHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	segmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid segment ID format")
		return
	}

	var req UpdateSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rules, err := req.Rules.toInput()
	if err != nil {
		h.BadRequest(c, "Invalid minimum total spent amount")
		return
	}

	segment, err := h.segmentService.Update(c.Request.Context(), crmapp.UpdateSegmentInput{
		ID:          segmentID,
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
		Rules:       rules,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, segment)
}

// Delete godoc
// @ID           deleteSegment
// @Summary      Delete a customer segment
// @Description  Delete a customer segment by ID
// @Tags         segments
// @Produce      json
// @Param        id path string true "Segment ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/segments/{id} [delete]
func (h *SegmentHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	segmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid segment ID format")
		return
	}

	if err := h.segmentService.Delete(c.Request.Context(), tenantID, segmentID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Activate godoc
// @ID           activateSegment
// @Summary      Activate a segment
// @Description  Activate an inactive segment
// @Tags         segments
// @Produce      json
// @Param        id path string true "Segment ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.SegmentDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/segments/{id}/activate [post]
func (h *SegmentHandler) Activate(c *gin.Context) {
	h.transition(c, h.segmentService.Activate)
}

// Deactivate godoc
// @ID           deactivateSegment
// @Summary      Deactivate a segment
// @Description  Deactivate an active segment
// @Tags         segments
// @Produce      json
// @Param        id path string true "Segment ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.SegmentDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/segments/{id}/deactivate [post]
func (h *SegmentHandler) Deactivate(c *gin.Context) {
	h.transition(c, h.segmentService.Deactivate)
}

// Evaluate godoc
// @ID           evaluateSegment
// @Summary      Evaluate a segment
// @Description  Re-evaluate segment membership against current customer scores
// @Tags         segments
// @Produce      json
// @Param        id path string true "Segment ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.SegmentDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/segments/{id}/evaluate [post]
func (h *SegmentHandler) Evaluate(c *gin.Context) {
	h.transition(c, h.segmentService.Evaluate)
}

func (h *SegmentHandler) transition(
	c *gin.Context,
	fn func(ctx context.Context, tenantID, segmentID uuid.UUID) (*crmapp.SegmentDTO, error),
) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	segmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid segment ID format")
		return
	}

	segment, err := fn(c.Request.Context(), tenantID, segmentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, segment)
}
