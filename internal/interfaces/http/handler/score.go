package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	crmapp "github.com/retailsuite/backend/internal/application/crm"
	"github.com/retailsuite/backend/internal/domain/crm"
)

// ScoreHandler handles RFM scoring API endpoints
type ScoreHandler struct {
	BaseHandler
	scoringService *crmapp.ScoringService
}

// NewScoreHandler creates a new ScoreHandler
func NewScoreHandler(scoringService *crmapp.ScoringService) *ScoreHandler {
	return &ScoreHandler{
		scoringService: scoringService,
	}
}

// ScoreListQuery represents score list query parameters
type ScoreListQuery struct {
	Segment           string `form:"segment"`
	MinRecencyScore   int    `form:"min_recency_score" binding:"omitempty,min=1,max=5"`
	MinFrequencyScore int    `form:"min_frequency_score" binding:"omitempty,min=1,max=5"`
	MinMonetaryScore  int    `form:"min_monetary_score" binding:"omitempty,min=1,max=5"`
	Page              int    `form:"page" binding:"omitempty,min=1"`
	PageSize          int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Trigger godoc
// @ID           triggerScoring
// @Summary      Trigger a scoring run
// @Description  Queue an asynchronous RFM scoring run for the tenant. At most one run per tenant is active at a time.
// @Tags         scores
// @Produce      json
// @Success      202 {object} APIResponse[crmapp.ScoringJobDTO]
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/scores/trigger [post]
func (h *ScoreHandler) Trigger(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	job, err := h.scoringService.Trigger(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Accepted(c, job)
}

// Recompute godoc
// @ID           recomputeScores
// @Summary      Recompute scores synchronously
// @Description  Run the full scoring pass inline and return when it finishes
// @Tags         scores
// @Produce      json
// @Success      200 {object} APIResponse[any]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/scores/recompute [post]
func (h *ScoreHandler) Recompute(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	if err := h.scoringService.Recompute(c.Request.Context(), tenantID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, gin.H{"status": "completed"})
}

// GetCustomerScore godoc
// @ID           getCustomerScore
// @Summary      Get a customer's score
// @Description  Retrieve the latest RFM score for a customer
// @Tags         scores
// @Produce      json
// @Param        customer_id path string true "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[crmapp.ScoreDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/scores/customers/{customer_id} [get]
func (h *ScoreHandler) GetCustomerScore(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	customerID, err := uuid.Parse(c.Param("customer_id"))
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	score, err := h.scoringService.GetCustomerScore(c.Request.Context(), tenantID, customerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, score)
}

// List godoc
// @ID           listScores
// @Summary      List customer scores
// @Description  Retrieve a paginated list of customer scores with optional filtering
// @Tags         scores
// @Produce      json
// @Param        segment query string false "RFM segment label"
// @Param        min_recency_score query int false "Minimum recency score (1-5)"
// @Param        min_frequency_score query int false "Minimum frequency score (1-5)"
// @Param        min_monetary_score query int false "Minimum monetary score (1-5)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]crmapp.ScoreDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/scores [get]
func (h *ScoreHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var query ScoreListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.scoringService.ListScores(c.Request.Context(), tenantID, crm.ScoreFilter{
		Segment:           query.Segment,
		MinRecencyScore:   query.MinRecencyScore,
		MinFrequencyScore: query.MinFrequencyScore,
		MinMonetaryScore:  query.MinMonetaryScore,
		Page:              query.Page,
		PageSize:          query.PageSize,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Scores, result.Total, result.Page, result.PageSize)
}

// GetSummary godoc
// @ID           getScoringSummary
// @Summary      Get scoring summary
// @Description  Aggregate the tenant's scores: totals, segment counts and averages
// @Tags         scores
// @Produce      json
// @Success      200 {object} APIResponse[crmapp.ScoringSummaryDTO]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /crm/scores/summary [get]
func (h *ScoreHandler) GetSummary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	summary, err := h.scoringService.GetSummary(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}
