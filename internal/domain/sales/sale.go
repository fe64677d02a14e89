package sales

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailsuite/backend/internal/domain/shared"
)

// SaleStatus represents the status of a sale
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusVoided    SaleStatus = "voided"
)

// PaymentMethod represents how a sale was paid
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodWallet PaymentMethod = "wallet"
)

// IsValid returns true if the payment method is a known value.
func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodWallet:
		return true
	default:
		return false
	}
}

func (p PaymentMethod) String() string {
	return string(p)
}

// SaleLine represents a line item of a sale
type SaleLine struct {
	ID        uuid.UUID
	SaleID    uuid.UUID
	SKU       string
	Name      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal // Quantity * UnitPrice
}

// NewSaleLine creates a sale line and computes its total
func NewSaleLine(sku, name string, quantity, unitPrice decimal.Decimal) (*SaleLine, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 100 {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 100 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_LINE_NAME", "Line name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return &SaleLine{
		ID:        uuid.New(),
		SKU:       strings.TrimSpace(sku),
		Name:      strings.TrimSpace(name),
		Quantity:  quantity,
		UnitPrice: unitPrice,
		LineTotal: quantity.Mul(unitPrice),
	}, nil
}

// Sale represents a POS ticket. Unlike an order it has no draft phase: a
// sale is recorded after the fact, already paid and completed.
type Sale struct {
	shared.TenantAggregateRoot
	Number         string // Unique per tenant, "S-<seq>"
	BranchID       uuid.UUID
	CustomerID     *uuid.UUID // Nil for walk-in sales
	CashierID      uuid.UUID
	Lines          []SaleLine
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal // Subtotal - DiscountAmount + TaxAmount
	PaymentMethod  PaymentMethod
	Status         SaleStatus
	OccurredAt     time.Time
	VoidReason     string
	VoidedAt       *time.Time
}

// NewSale records a completed sale. The declared total must equal
// subtotal - discount + tax, where subtotal is the sum of the line totals.
func NewSale(tenantID uuid.UUID, number string, branchID uuid.UUID, customerID *uuid.UUID, cashierID uuid.UUID,
	lines []SaleLine, discount, tax, declaredTotal decimal.Decimal, payment PaymentMethod, occurredAt time.Time) (*Sale, error) {

	if number == "" {
		return nil, shared.NewDomainError("INVALID_SALE_NUMBER", "Sale number cannot be empty")
	}
	if len(number) > 50 {
		return nil, shared.NewDomainError("INVALID_SALE_NUMBER", "Sale number cannot exceed 50 characters")
	}
	if branchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Branch ID cannot be empty")
	}
	if cashierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CASHIER", "Cashier ID cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_SALE", "A sale needs at least one line")
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	if tax.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TAX", "Tax cannot be negative")
	}
	if !payment.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method must be cash, card or wallet")
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal)
	}
	if discount.GreaterThan(subtotal) {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed the subtotal")
	}

	total := subtotal.Sub(discount).Add(tax)
	if !total.Equal(declaredTotal) {
		return nil, shared.NewDomainError("SALE_TOTAL_MISMATCH", "Declared total does not match subtotal - discount + tax")
	}

	sale := &Sale{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		BranchID:            branchID,
		CustomerID:          customerID,
		CashierID:           cashierID,
		Lines:               lines,
		Subtotal:            subtotal,
		DiscountAmount:      discount,
		TaxAmount:           tax,
		Total:               total,
		PaymentMethod:       payment,
		Status:              SaleStatusCompleted,
		OccurredAt:          occurredAt,
	}

	for i := range sale.Lines {
		sale.Lines[i].SaleID = sale.ID
	}

	sale.AddDomainEvent(NewSaleCompletedEvent(sale))

	return sale, nil
}

// Void cancels a completed sale. The reversal of customer stats rides on
// the SaleVoided event.
func (s *Sale) Void(reason string) error {
	if s.Status != SaleStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Only completed sales can be voided")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("VOID_REASON_REQUIRED", "A void reason is required")
	}

	now := time.Now()
	s.Status = SaleStatusVoided
	s.VoidReason = strings.TrimSpace(reason)
	s.VoidedAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewSaleVoidedEvent(s))

	return nil
}

// IsVoided returns true if the sale has been voided
func (s *Sale) IsVoided() bool {
	return s.Status == SaleStatusVoided
}

// HasCustomer returns true when the sale is tied to a known customer
func (s *Sale) HasCustomer() bool {
	return s.CustomerID != nil && *s.CustomerID != uuid.Nil
}

// LineCount returns the number of lines on the ticket
func (s *Sale) LineCount() int {
	return len(s.Lines)
}
