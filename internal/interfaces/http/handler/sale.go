package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	salesapp "github.com/retailsuite/backend/internal/application/sales"
	"github.com/retailsuite/backend/internal/domain/sales"
)

// SaleHandler handles POS sale API endpoints
type SaleHandler struct {
	BaseHandler
	saleService *salesapp.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *salesapp.SaleService) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
	}
}

// SaleLineRequest carries one ticket line
// @Description One line of a sale ticket
type SaleLineRequest struct {
	SKU       string `json:"sku" binding:"required,min=1,max=100" example:"SKU-1001"`
	Name      string `json:"name" binding:"required,min=1,max=200" example:"Espresso beans 1kg"`
	Quantity  string `json:"quantity" binding:"required" example:"2"`
	UnitPrice string `json:"unit_price" binding:"required" example:"18.50"`
}

// RecordSaleRequest represents a completed POS ticket
// @Description Request body for recording a completed sale. Total must equal subtotal - discount + tax.
type RecordSaleRequest struct {
	BranchID      string            `json:"branch_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	CustomerID    *string           `json:"customer_id" binding:"omitempty,uuid" example:"650e8400-e29b-41d4-a716-446655440000"`
	Lines         []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
	Discount      string            `json:"discount" binding:"omitempty" example:"5.00"`
	Tax           string            `json:"tax" binding:"omitempty" example:"3.20"`
	Total         string            `json:"total" binding:"required" example:"35.20"`
	PaymentMethod string            `json:"payment_method" binding:"required,oneof=cash card wallet" example:"card"`
	OccurredAt    *string           `json:"occurred_at" binding:"omitempty" example:"2026-08-28T14:03:00Z"`
}

// VoidSaleRequest represents a request to void a sale
// @Description Request body for voiding a completed sale
type VoidSaleRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"Customer returned the full ticket"`
}

// SaleListQuery represents sale list query parameters
type SaleListQuery struct {
	BranchID   string `form:"branch_id" binding:"omitempty,uuid"`
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=completed voided"`
	From       string `form:"from"`
	To         string `form:"to"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Record godoc
// @ID           recordSale
// @Summary      Record a completed sale
// @Description  Record a completed POS ticket. The declared total is checked against the computed total.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body RecordSaleRequest true "Sale record request"
// @Success      201 {object} APIResponse[salesapp.SaleDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales [post]
func (h *SaleHandler) Record(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	cashierID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Cashier identification required")
		return
	}

	var req RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		h.BadRequest(c, "Invalid branch ID format")
		return
	}

	input := salesapp.RecordSaleInput{
		TenantID:      tenantID,
		BranchID:      branchID,
		CashierID:     cashierID,
		PaymentMethod: req.PaymentMethod,
		OccurredAt:    time.Now().UTC(),
	}

	if req.CustomerID != nil {
		customerID, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			h.BadRequest(c, "Invalid customer ID format")
			return
		}
		input.CustomerID = &customerID
	}
	if req.OccurredAt != nil {
		occurredAt, err := time.Parse(time.RFC3339, *req.OccurredAt)
		if err != nil {
			h.BadRequest(c, "Invalid occurred_at, expected RFC 3339 timestamp")
			return
		}
		input.OccurredAt = occurredAt
	}

	if input.Discount, err = toDecimal(req.Discount); err != nil {
		h.BadRequest(c, "Invalid discount amount")
		return
	}
	if input.Tax, err = toDecimal(req.Tax); err != nil {
		h.BadRequest(c, "Invalid tax amount")
		return
	}
	if input.Total, err = toDecimal(req.Total); err != nil {
		h.BadRequest(c, "Invalid total amount")
		return
	}

	input.Lines = make([]salesapp.SaleLineInput, len(req.Lines))
	for i, line := range req.Lines {
		quantity, err := toDecimal(line.Quantity)
		if err != nil {
			h.BadRequest(c, "Invalid line quantity")
			return
		}
		unitPrice, err := toDecimal(line.UnitPrice)
		if err != nil {
			h.BadRequest(c, "Invalid line unit price")
			return
		}
		input.Lines[i] = salesapp.SaleLineInput{
			SKU:       line.SKU,
			Name:      line.Name,
			Quantity:  quantity,
			UnitPrice: unitPrice,
		}
	}

	sale, err := h.saleService.Record(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, sale)
}

// GetByID godoc
// @ID           getSaleById
// @Summary      Get sale by ID
// @Description  Retrieve a sale with its lines by ID
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} APIResponse[salesapp.SaleDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id} [get]
func (h *SaleHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	sale, err := h.saleService.GetByID(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sale)
}

// GetByNumber godoc
// @ID           getSaleByNumber
// @Summary      Get sale by number
// @Description  Retrieve a sale with its lines by its receipt number
// @Tags         sales
// @Produce      json
// @Param        number path string true "Sale number"
// @Success      200 {object} APIResponse[salesapp.SaleDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/number/{number} [get]
func (h *SaleHandler) GetByNumber(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Sale number is required")
		return
	}

	sale, err := h.saleService.GetByNumber(c.Request.Context(), tenantID, number)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sale)
}

// List godoc
// @ID           listSales
// @Summary      List sales
// @Description  Retrieve a paginated list of sales with optional filtering. Lines are omitted.
// @Tags         sales
// @Produce      json
// @Param        branch_id query string false "Branch ID" format(uuid)
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        status query string false "Sale status" Enums(completed, voided)
// @Param        from query string false "Start of occurred-at range (RFC 3339)"
// @Param        to query string false "End of occurred-at range (RFC 3339)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]salesapp.SaleDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var query SaleListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := sales.SaleFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if query.BranchID != "" {
		branchID, err := uuid.Parse(query.BranchID)
		if err != nil {
			h.BadRequest(c, "Invalid branch ID format")
			return
		}
		filter.BranchID = &branchID
	}
	if query.CustomerID != "" {
		customerID, err := uuid.Parse(query.CustomerID)
		if err != nil {
			h.BadRequest(c, "Invalid customer ID format")
			return
		}
		filter.CustomerID = &customerID
	}
	if query.Status != "" {
		status := sales.SaleStatus(query.Status)
		filter.Status = &status
	}
	if query.From != "" {
		from, err := time.Parse(time.RFC3339, query.From)
		if err != nil {
			h.BadRequest(c, "Invalid from, expected RFC 3339 timestamp")
			return
		}
		filter.From = &from
	}
	if query.To != "" {
		to, err := time.Parse(time.RFC3339, query.To)
		if err != nil {
			h.BadRequest(c, "Invalid to, expected RFC 3339 timestamp")
			return
		}
		filter.To = &to
	}

	result, err := h.saleService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Sales, result.Total, result.Page, result.PageSize)
}

// Void godoc
// @ID           voidSale
// @Summary      Void a sale
// @Description  Void a completed sale. Loyalty effects are rolled back without going below zero points.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body VoidSaleRequest true "Void request"
// @Success      200 {object} APIResponse[salesapp.SaleDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id}/void [post]
func (h *SaleHandler) Void(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	var req VoidSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sale, err := h.saleService.Void(c.Request.Context(), salesapp.VoidSaleInput{
		TenantID: tenantID,
		SaleID:   saleID,
		Reason:   req.Reason,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, sale)
}

// DailySummary godoc
// @ID           getDailySalesSummary
// @Summary      Get daily sales summary
// @Description  Aggregate completed sales per day over the last N days
// @Tags         sales
// @Produce      json
// @Param        days query int false "Number of days to cover" default(7) maximum(90)
// @Success      200 {object} APIResponse[[]sales.DailySummary]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/summary/daily [get]
func (h *SaleHandler) DailySummary(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var query struct {
		Days int `form:"days" binding:"omitempty,min=1,max=90"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	summary, err := h.saleService.DailySummary(c.Request.Context(), tenantID, query.Days)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}
