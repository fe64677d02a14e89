package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DailySummary is one day of sales activity
type DailySummary struct {
	Date      time.Time       `json:"date"`
	SaleCount int64           `json:"sale_count"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// CustomerSalesTotals is the per-customer aggregate a scoring run feeds on:
// completed sales inside the lookback window, grouped by customer.
type CustomerSalesTotals struct {
	CustomerID uuid.UUID
	SaleCount  int64
	Total      decimal.Decimal
	LastSaleAt time.Time
}

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// FindByID finds a sale by ID, lines included
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindByIDForTenant finds a sale scoped to a tenant, lines included
	FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*Sale, error)

	// FindByNumber finds a sale by its number within the tenant
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*Sale, error)

	// FindAll returns the tenant's sales matching the filter, with total
	// count. Lines are not loaded.
	FindAll(ctx context.Context, tenantID uuid.UUID, filter SaleFilter) ([]Sale, int64, error)

	// FindAllWithLines returns the tenant's sales matching the filter with
	// lines preloaded, ordered oldest first. No total count; export callers
	// page until a short page comes back.
	FindAllWithLines(ctx context.Context, tenantID uuid.UUID, filter SaleFilter) ([]Sale, error)

	// GenerateNumber issues the next "S-<seq>" number for the tenant
	GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error)

	// DailySummaries returns count and revenue of completed sales per day
	// for the last N days, oldest first
	DailySummaries(ctx context.Context, tenantID uuid.UUID, days int) ([]DailySummary, error)

	// CustomerTotals returns per-customer aggregates of completed sales
	// inside the window, for customers with at least one sale
	CustomerTotals(ctx context.Context, tenantID uuid.UUID, windowStart, windowEnd time.Time) ([]CustomerSalesTotals, error)

	// Save creates or updates a sale and its lines
	Save(ctx context.Context, sale *Sale) error
}

// SaleFilter contains filter options for querying sales
type SaleFilter struct {
	// Filter by branch
	BranchID *uuid.UUID

	// Filter by customer
	CustomerID *uuid.UUID

	// Filter by status
	Status *SaleStatus

	// Date range over OccurredAt
	From *time.Time
	To   *time.Time

	// Pagination
	Page     int
	PageSize int
}

// NewSaleFilter creates a new SaleFilter with default values
func NewSaleFilter() SaleFilter {
	return SaleFilter{Page: 1, PageSize: 20}
}

// Offset returns the offset for pagination
func (f SaleFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the limit for pagination
func (f SaleFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
