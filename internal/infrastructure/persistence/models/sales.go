package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailsuite/backend/internal/domain/sales"
	"github.com/retailsuite/backend/internal/domain/shared"
)

// SaleModel is the persistence model for the Sale aggregate root.
type SaleModel struct {
	TenantAggregateModel
	Number         string              `gorm:"type:varchar(50);not null;index"`
	BranchID       uuid.UUID           `gorm:"type:uuid;not null;index"`
	CustomerID     *uuid.UUID          `gorm:"type:uuid;index"`
	CashierID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	Lines          []SaleLineModel     `gorm:"foreignKey:SaleID;references:ID"`
	Subtotal       decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountAmount decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount      decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Total          decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentMethod  sales.PaymentMethod `gorm:"type:varchar(20);not null"`
	Status         sales.SaleStatus    `gorm:"type:varchar(20);not null;default:'completed';index"`
	OccurredAt     time.Time           `gorm:"not null;index"`
	VoidReason     string              `gorm:"type:varchar(500)"`
	VoidedAt       *time.Time
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale entity.
func (m *SaleModel) ToDomain() *sales.Sale {
	s := &sales.Sale{
		TenantAggregateRoot: shared.TenantAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			TenantID:  m.TenantID,
			CreatedBy: m.CreatedBy,
		},
		Number:         m.Number,
		BranchID:       m.BranchID,
		CustomerID:     m.CustomerID,
		CashierID:      m.CashierID,
		Subtotal:       m.Subtotal,
		DiscountAmount: m.DiscountAmount,
		TaxAmount:      m.TaxAmount,
		Total:          m.Total,
		PaymentMethod:  m.PaymentMethod,
		Status:         m.Status,
		OccurredAt:     m.OccurredAt,
		VoidReason:     m.VoidReason,
		VoidedAt:       m.VoidedAt,
		Lines:          make([]sales.SaleLine, len(m.Lines)),
	}
	for i, line := range m.Lines {
		s.Lines[i] = *line.ToDomain()
	}
	return s
}

// FromDomain populates the persistence model from a domain Sale entity.
func (m *SaleModel) FromDomain(s *sales.Sale) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.Number = s.Number
	m.BranchID = s.BranchID
	m.CustomerID = s.CustomerID
	m.CashierID = s.CashierID
	m.Subtotal = s.Subtotal
	m.DiscountAmount = s.DiscountAmount
	m.TaxAmount = s.TaxAmount
	m.Total = s.Total
	m.PaymentMethod = s.PaymentMethod
	m.Status = s.Status
	m.OccurredAt = s.OccurredAt
	m.VoidReason = s.VoidReason
	m.VoidedAt = s.VoidedAt
	m.Lines = make([]SaleLineModel, len(s.Lines))
	for i, line := range s.Lines {
		m.Lines[i] = *SaleLineModelFromDomain(&line)
	}
}

// SaleModelFromDomain creates a new persistence model from a domain Sale entity.
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}

// SaleLineModel is the persistence model for the SaleLine entity.
type SaleLineModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU       string          `gorm:"column:sku;type:varchar(100);not null"`
	Name      string          `gorm:"type:varchar(200);not null"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (SaleLineModel) TableName() string {
	return "sale_lines"
}

// ToDomain converts the persistence model to a domain SaleLine entity.
func (m *SaleLineModel) ToDomain() *sales.SaleLine {
	return &sales.SaleLine{
		ID:        m.ID,
		SaleID:    m.SaleID,
		SKU:       m.SKU,
		Name:      m.Name,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
		LineTotal: m.LineTotal,
	}
}

// FromDomain populates the persistence model from a domain SaleLine entity.
func (m *SaleLineModel) FromDomain(l *sales.SaleLine) {
	m.ID = l.ID
	m.SaleID = l.SaleID
	m.SKU = l.SKU
	m.Name = l.Name
	m.Quantity = l.Quantity
	m.UnitPrice = l.UnitPrice
	m.LineTotal = l.LineTotal
}

// SaleLineModelFromDomain creates a new persistence model from a domain SaleLine entity.
func SaleLineModelFromDomain(l *sales.SaleLine) *SaleLineModel {
	m := &SaleLineModel{}
	m.FromDomain(l)
	return m
}
