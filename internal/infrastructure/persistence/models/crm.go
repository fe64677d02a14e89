package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/shared"
)

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	TenantAggregateModel
	Code           string             `gorm:"type:varchar(50);not null;index"`
	Name           string             `gorm:"type:varchar(200);not null"`
	Email          string             `gorm:"type:varchar(200);index"`
	Phone          string             `gorm:"type:varchar(50);index"`
	BranchID       *uuid.UUID         `gorm:"type:uuid;index"`
	Status         crm.CustomerStatus `gorm:"type:varchar(20);not null;default:'active'"`
	LoyaltyPoints  int64              `gorm:"not null;default:0"`
	LoyaltyTierID  *uuid.UUID         `gorm:"type:uuid;index"`
	TotalSpent     decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	VisitCount     int64              `gorm:"not null;default:0"`
	LastPurchaseAt *time.Time         `gorm:"index"`
	Birthday       *time.Time
	Attributes     map[string]string `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *crm.Customer {
	attrs := m.Attributes
	if attrs == nil {
		attrs = make(map[string]string)
	}
	return &crm.Customer{
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
		Code:           m.Code,
		Name:           m.Name,
		Email:          m.Email,
		Phone:          m.Phone,
		BranchID:       m.BranchID,
		Status:         m.Status,
		LoyaltyPoints:  m.LoyaltyPoints,
		LoyaltyTierID:  m.LoyaltyTierID,
		TotalSpent:     m.TotalSpent,
		VisitCount:     m.VisitCount,
		LastPurchaseAt: m.LastPurchaseAt,
		Birthday:       m.Birthday,
		Attributes:     attrs,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *crm.Customer) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.Code = c.Code
	m.Name = c.Name
	m.Email = c.Email
	m.Phone = c.Phone
	m.BranchID = c.BranchID
	m.Status = c.Status
	m.LoyaltyPoints = c.LoyaltyPoints
	m.LoyaltyTierID = c.LoyaltyTierID
	m.TotalSpent = c.TotalSpent
	m.VisitCount = c.VisitCount
	m.LastPurchaseAt = c.LastPurchaseAt
	m.Birthday = c.Birthday
	m.Attributes = c.Attributes
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *crm.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

// LoyaltyTierModel is the persistence model for the LoyaltyTier domain entity.
type LoyaltyTierModel struct {
	TenantAggregateModel
	Name            string          `gorm:"type:varchar(100);not null"`
	Rank            int             `gorm:"not null;index"`
	MinPoints       int64           `gorm:"not null;default:0"`
	MinSpent        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Color           string          `gorm:"type:varchar(20)"`
	Status          crm.TierStatus  `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (LoyaltyTierModel) TableName() string {
	return "loyalty_tiers"
}

// ToDomain converts the persistence model to a domain LoyaltyTier entity.
func (m *LoyaltyTierModel) ToDomain() *crm.LoyaltyTier {
	t := &crm.LoyaltyTier{
		Name:            m.Name,
		Rank:            m.Rank,
		MinPoints:       m.MinPoints,
		MinSpent:        m.MinSpent,
		DiscountPercent: m.DiscountPercent,
		Color:           m.Color,
		Status:          m.Status,
	}
	m.PopulateTenantAggregateRoot(&t.TenantAggregateRoot)
	return t
}

// FromDomain populates the persistence model from a domain LoyaltyTier entity.
func (m *LoyaltyTierModel) FromDomain(t *crm.LoyaltyTier) {
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	m.Name = t.Name
	m.Rank = t.Rank
	m.MinPoints = t.MinPoints
	m.MinSpent = t.MinSpent
	m.DiscountPercent = t.DiscountPercent
	m.Color = t.Color
	m.Status = t.Status
}

// LoyaltyTierModelFromDomain creates a new persistence model from a domain LoyaltyTier entity.
func LoyaltyTierModelFromDomain(t *crm.LoyaltyTier) *LoyaltyTierModel {
	m := &LoyaltyTierModel{}
	m.FromDomain(t)
	return m
}

// CustomerSegmentModel is the persistence model for the CustomerSegment domain entity.
type CustomerSegmentModel struct {
	TenantAggregateModel
	Name              string            `gorm:"type:varchar(100);not null"`
	Description       string            `gorm:"type:text"`
	MinRecencyScore   int               `gorm:"not null;default:0"`
	MinFrequencyScore int               `gorm:"not null;default:0"`
	MinMonetaryScore  int               `gorm:"not null;default:0"`
	MinTotalSpent     *decimal.Decimal  `gorm:"type:decimal(18,4)"`
	RFMSegments       []string          `gorm:"type:jsonb;serializer:json"`
	Status            crm.SegmentStatus `gorm:"type:varchar(20);not null;default:'active'"`
	MemberCount       int64             `gorm:"not null;default:0"`
	EvaluatedAt       *time.Time
}

// TableName returns the table name for GORM
func (CustomerSegmentModel) TableName() string {
	return "customer_segments"
}

// ToDomain converts the persistence model to a domain CustomerSegment entity.
func (m *CustomerSegmentModel) ToDomain() *crm.CustomerSegment {
	labels := m.RFMSegments
	if labels == nil {
		labels = make([]string, 0)
	}
	s := &crm.CustomerSegment{
		Name:              m.Name,
		Description:       m.Description,
		MinRecencyScore:   m.MinRecencyScore,
		MinFrequencyScore: m.MinFrequencyScore,
		MinMonetaryScore:  m.MinMonetaryScore,
		MinTotalSpent:     m.MinTotalSpent,
		RFMSegments:       labels,
		Status:            m.Status,
		MemberCount:       m.MemberCount,
		EvaluatedAt:       m.EvaluatedAt,
	}
	m.PopulateTenantAggregateRoot(&s.TenantAggregateRoot)
	return s
}

// FromDomain populates the persistence model from a domain CustomerSegment entity.
func (m *CustomerSegmentModel) FromDomain(s *crm.CustomerSegment) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.Name = s.Name
	m.Description = s.Description
	m.MinRecencyScore = s.MinRecencyScore
	m.MinFrequencyScore = s.MinFrequencyScore
	m.MinMonetaryScore = s.MinMonetaryScore
	m.MinTotalSpent = s.MinTotalSpent
	m.RFMSegments = s.RFMSegments
	m.Status = s.Status
	m.MemberCount = s.MemberCount
	m.EvaluatedAt = s.EvaluatedAt
}

// CustomerSegmentModelFromDomain creates a new persistence model from a domain CustomerSegment entity.
func CustomerSegmentModelFromDomain(s *crm.CustomerSegment) *CustomerSegmentModel {
	m := &CustomerSegmentModel{}
	m.FromDomain(s)
	return m
}

// CustomerScoreModel is the persistence model for the CustomerScore record.
// One row per customer; scoring runs upsert on (tenant_id, customer_id).
type CustomerScoreModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_customer_scores_tenant_customer,priority:1"`
	CustomerID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_customer_scores_tenant_customer,priority:2"`
	RecencyDays    int             `gorm:"not null;default:0"`
	Frequency      int64           `gorm:"not null;default:0"`
	Monetary       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RecencyScore   int             `gorm:"not null;default:0"`
	FrequencyScore int             `gorm:"not null;default:0"`
	MonetaryScore  int             `gorm:"not null;default:0"`
	Segment        string          `gorm:"type:varchar(30);not null;index"`
	CLV            decimal.Decimal `gorm:"column:clv;type:decimal(18,4);not null;default:0"`
	WindowStart    time.Time       `gorm:"not null"`
	WindowEnd      time.Time       `gorm:"not null"`
	ComputedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerScoreModel) TableName() string {
	return "customer_scores"
}

// ToDomain converts the persistence model to a domain CustomerScore.
func (m *CustomerScoreModel) ToDomain() *crm.CustomerScore {
	return &crm.CustomerScore{
		ID:             m.ID,
		TenantID:       m.TenantID,
		CustomerID:     m.CustomerID,
		RecencyDays:    m.RecencyDays,
		Frequency:      m.Frequency,
		Monetary:       m.Monetary,
		RecencyScore:   m.RecencyScore,
		FrequencyScore: m.FrequencyScore,
		MonetaryScore:  m.MonetaryScore,
		Segment:        m.Segment,
		CLV:            m.CLV,
		WindowStart:    m.WindowStart,
		WindowEnd:      m.WindowEnd,
		ComputedAt:     m.ComputedAt,
	}
}

// FromDomain populates the persistence model from a domain CustomerScore.
func (m *CustomerScoreModel) FromDomain(s *crm.CustomerScore) {
	m.ID = s.ID
	m.TenantID = s.TenantID
	m.CustomerID = s.CustomerID
	m.RecencyDays = s.RecencyDays
	m.Frequency = s.Frequency
	m.Monetary = s.Monetary
	m.RecencyScore = s.RecencyScore
	m.FrequencyScore = s.FrequencyScore
	m.MonetaryScore = s.MonetaryScore
	m.Segment = s.Segment
	m.CLV = s.CLV
	m.WindowStart = s.WindowStart
	m.WindowEnd = s.WindowEnd
	m.ComputedAt = s.ComputedAt
}

// CustomerScoreModelFromDomain creates a new persistence model from a domain CustomerScore.
func CustomerScoreModelFromDomain(s *crm.CustomerScore) *CustomerScoreModel {
	m := &CustomerScoreModel{}
	m.FromDomain(s)
	return m
}
