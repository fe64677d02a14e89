package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/org"
	"github.com/retailsuite/backend/internal/domain/sales"
	"github.com/retailsuite/backend/internal/domain/shared"
)

// SaleService records and voids POS tickets. A sale arrives already paid
// and completed; the service validates the ticket, assigns the number and
// persists it together with its outbox events. Customer stats move in the
// event handlers, not here.
type SaleService struct {
	saleRepo     sales.SaleRepository
	customerRepo crm.CustomerRepository
	branchRepo   org.BranchRepository
	logger       *zap.Logger
}

// NewSaleService creates a new sale service
func NewSaleService(
	saleRepo sales.SaleRepository,
	customerRepo crm.CustomerRepository,
	branchRepo org.BranchRepository,
	logger *zap.Logger,
) *SaleService {
	return &SaleService{
		saleRepo:     saleRepo,
		customerRepo: customerRepo,
		branchRepo:   branchRepo,
		logger:       logger,
	}
}

// SaleLineInput contains one ticket line
type SaleLineInput struct {
	SKU       string
	Name      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// RecordSaleInput contains input for recording a sale. Total is the amount
// the POS charged; it must equal subtotal - discount + tax or the record is
// rejected.
type RecordSaleInput struct {
	TenantID      uuid.UUID
	BranchID      uuid.UUID
	CustomerID    *uuid.UUID
	CashierID     uuid.UUID
	Lines         []SaleLineInput
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod string
	OccurredAt    time.Time
}

// VoidSaleInput contains input for voiding a sale
type VoidSaleInput struct {
	TenantID uuid.UUID
	SaleID   uuid.UUID
	Reason   string
}

// SaleLineDTO represents sale line data transfer object
type SaleLineDTO struct {
	ID        uuid.UUID       `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// SaleDTO represents sale data transfer object. Lines are loaded for
// single-sale lookups and omitted in list results.
type SaleDTO struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	Number         string          `json:"number"`
	BranchID       uuid.UUID       `json:"branch_id"`
	CustomerID     *uuid.UUID      `json:"customer_id,omitempty"`
	CashierID      uuid.UUID       `json:"cashier_id"`
	Lines          []SaleLineDTO   `json:"lines,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
	PaymentMethod  string          `json:"payment_method"`
	Status         string          `json:"status"`
	OccurredAt     time.Time       `json:"occurred_at"`
	VoidReason     string          `json:"void_reason,omitempty"`
	VoidedAt       *time.Time      `json:"voided_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SaleListResult represents paginated sale list result
type SaleListResult struct {
	Sales      []SaleDTO `json:"sales"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// Record validates and persists a completed sale
func (s *SaleService) Record(ctx context.Context, input RecordSaleInput) (*SaleDTO, error) {
	branch, err := s.branchRepo.FindByIDForTenant(ctx, input.BranchID, input.TenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("BRANCH_NOT_FOUND", "Branch not found")
		}
		s.logger.Error("Failed to find branch", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to record sale")
	}
	if !branch.IsActive() {
		return nil, shared.NewDomainError("BRANCH_INACTIVE", "Sales cannot be recorded on an inactive branch")
	}

	if input.CustomerID != nil {
		customer, err := s.customerRepo.FindByIDForTenant(ctx, *input.CustomerID, input.TenantID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found")
			}
			s.logger.Error("Failed to find customer", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to record sale")
		}
		if customer.IsBlocked() {
			return nil, shared.NewDomainError("CUSTOMER_BLOCKED", "Sales cannot be recorded for a blocked customer")
		}
	}

	lines := make([]sales.SaleLine, 0, len(input.Lines))
	for _, lineInput := range input.Lines {
		line, err := sales.NewSaleLine(lineInput.SKU, lineInput.Name, lineInput.Quantity, lineInput.UnitPrice)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}

	number, err := s.saleRepo.GenerateNumber(ctx, input.TenantID)
	if err != nil {
		s.logger.Error("Failed to generate sale number", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to record sale")
	}

	sale, err := sales.NewSale(input.TenantID, number, input.BranchID, input.CustomerID, input.CashierID,
		lines, input.Discount, input.Tax, input.Total, sales.PaymentMethod(input.PaymentMethod), input.OccurredAt)
	if err != nil {
		return nil, err
	}
	sale.SetCreatedBy(input.CashierID)

	if err := s.saleRepo.Save(ctx, sale); err != nil {
		s.logger.Error("Failed to save sale", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to record sale")
	}

	s.logger.Info("Sale recorded",
		zap.String("sale_id", sale.ID.String()),
		zap.String("number", sale.Number),
		zap.String("tenant_id", sale.TenantID.String()),
		zap.String("branch_id", sale.BranchID.String()),
		zap.String("total", sale.Total.String()),
		zap.Int("lines", len(sale.Lines)))

	return toSaleDTO(sale), nil
}

// GetByID retrieves a sale by ID within the tenant, lines included
func (s *SaleService) GetByID(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleDTO, error) {
	sale, err := s.findSale(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	return toSaleDTO(sale), nil
}

// GetByNumber retrieves a sale by its ticket number within the tenant
func (s *SaleService) GetByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*SaleDTO, error) {
	sale, err := s.saleRepo.FindByNumber(ctx, tenantID, number)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("SALE_NOT_FOUND", "Sale not found")
		}
		s.logger.Error("Failed to find sale", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find sale")
	}
	return toSaleDTO(sale), nil
}

// List retrieves a paginated list of the tenant's sales, newest first.
// Lines are not loaded.
func (s *SaleService) List(ctx context.Context, tenantID uuid.UUID, filter sales.SaleFilter) (*SaleListResult, error) {
	results, total, err := s.saleRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		s.logger.Error("Failed to list sales", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list sales")
	}

	pageSize := filter.Limit()
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	dtos := make([]SaleDTO, len(results))
	for i := range results {
		dtos[i] = *toSaleDTO(&results[i])
	}

	return &SaleListResult{
		Sales:      dtos,
		Total:      total,
		Page:       filter.Page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Void cancels a completed sale. The customer stats reversal rides on the
// SaleVoided event.
func (s *SaleService) Void(ctx context.Context, input VoidSaleInput) (*SaleDTO, error) {
	sale, err := s.findSale(ctx, input.TenantID, input.SaleID)
	if err != nil {
		return nil, err
	}

	if err := sale.Void(input.Reason); err != nil {
		return nil, err
	}

	if err := s.saleRepo.Save(ctx, sale); err != nil {
		s.logger.Error("Failed to void sale", zap.Error(err))
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to void sale")
	}

	s.logger.Info("Sale voided",
		zap.String("sale_id", sale.ID.String()),
		zap.String("number", sale.Number),
		zap.String("reason", input.Reason))

	return toSaleDTO(sale), nil
}

// DailySummary returns count and revenue of completed sales per day for
// the last N days, oldest first. Days defaults to 7 and caps at 365.
func (s *SaleService) DailySummary(ctx context.Context, tenantID uuid.UUID, days int) ([]sales.DailySummary, error) {
	if days <= 0 {
		days = 7
	}
	if days > 365 {
		days = 365
	}

	summaries, err := s.saleRepo.DailySummaries(ctx, tenantID, days)
	if err != nil {
		s.logger.Error("Failed to load daily summaries", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load daily summaries")
	}
	return summaries, nil
}

func (s *SaleService) findSale(ctx context.Context, tenantID, saleID uuid.UUID) (*sales.Sale, error) {
	sale, err := s.saleRepo.FindByIDForTenant(ctx, saleID, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("SALE_NOT_FOUND", "Sale not found")
		}
		s.logger.Error("Failed to find sale", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find sale")
	}
	return sale, nil
}

func toSaleDTO(sale *sales.Sale) *SaleDTO {
	lines := make([]SaleLineDTO, len(sale.Lines))
	for i, line := range sale.Lines {
		lines[i] = SaleLineDTO{
			ID:        line.ID,
			SKU:       line.SKU,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.LineTotal,
		}
	}

	return &SaleDTO{
		ID:             sale.ID,
		TenantID:       sale.TenantID,
		Number:         sale.Number,
		BranchID:       sale.BranchID,
		CustomerID:     sale.CustomerID,
		CashierID:      sale.CashierID,
		Lines:          lines,
		Subtotal:       sale.Subtotal,
		DiscountAmount: sale.DiscountAmount,
		TaxAmount:      sale.TaxAmount,
		Total:          sale.Total,
		PaymentMethod:  sale.PaymentMethod.String(),
		Status:         string(sale.Status),
		OccurredAt:     sale.OccurredAt,
		VoidReason:     sale.VoidReason,
		VoidedAt:       sale.VoidedAt,
		CreatedAt:      sale.CreatedAt,
	}
}
