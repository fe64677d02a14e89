package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailsuite/backend/internal/domain/shared"
)

// Aggregate type constant for Sale
const AggregateTypeSale = "Sale"

// Sale domain event types
const (
	EventTypeSaleCompleted = "SaleCompleted"
	EventTypeSaleVoided    = "SaleVoided"
)

// SaleCompletedEvent is published when a sale is recorded. CRM handlers use
// it to update customer stats and loyalty points.
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	Number     string          `json:"number"`
	BranchID   uuid.UUID       `json:"branch_id"`
	CustomerID *uuid.UUID      `json:"customer_id,omitempty"`
	CashierID  uuid.UUID       `json:"cashier_id"`
	Total      decimal.Decimal `json:"total"`
	LineCount  int             `json:"line_count"`
	OccurredOn time.Time       `json:"occurred_on"`
}

// NewSaleCompletedEvent creates a new SaleCompletedEvent
func NewSaleCompletedEvent(sale *Sale) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, AggregateTypeSale, sale.ID, sale.TenantID),
		Number:          sale.Number,
		BranchID:        sale.BranchID,
		CustomerID:      sale.CustomerID,
		CashierID:       sale.CashierID,
		Total:           sale.Total,
		LineCount:       len(sale.Lines),
		OccurredOn:      sale.OccurredAt,
	}
}

// SaleVoidedEvent is published when a sale is voided. CRM handlers use it
// to reverse the stats applied on completion.
type SaleVoidedEvent struct {
	shared.BaseDomainEvent
	Number     string          `json:"number"`
	BranchID   uuid.UUID       `json:"branch_id"`
	CustomerID *uuid.UUID      `json:"customer_id,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Reason     string          `json:"reason"`
}

// NewSaleVoidedEvent creates a new SaleVoidedEvent
func NewSaleVoidedEvent(sale *Sale) *SaleVoidedEvent {
	return &SaleVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleVoided, AggregateTypeSale, sale.ID, sale.TenantID),
		Number:          sale.Number,
		BranchID:        sale.BranchID,
		CustomerID:      sale.CustomerID,
		Total:           sale.Total,
		Reason:          sale.VoidReason,
	}
}
