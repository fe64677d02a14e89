package crm

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailsuite/backend/internal/domain/shared"
)

// SegmentStatus represents the status of a customer segment
type SegmentStatus string

const (
	SegmentStatusActive   SegmentStatus = "active"
	SegmentStatusInactive SegmentStatus = "inactive"
)

// CustomerSegment is a rule-based grouping of customers. Membership is
// evaluated against the current customer scores: every rule present must
// hold (zero / empty rules match everything).
type CustomerSegment struct {
	shared.TenantAggregateRoot
	Name        string
	Description string

	// MinRecencyScore, MinFrequencyScore and MinMonetaryScore bound the
	// R/F/M scores. Zero means no bound.
	MinRecencyScore   int
	MinFrequencyScore int
	MinMonetaryScore  int

	// MinTotalSpent bounds lifetime spend. Nil means no bound.
	MinTotalSpent *decimal.Decimal

	// RFMSegments restricts membership to the listed segment labels.
	// Empty means any label.
	RFMSegments []string

	Status      SegmentStatus
	MemberCount int64
	EvaluatedAt *time.Time
}

// NewCustomerSegment creates a new active segment
func NewCustomerSegment(tenantID uuid.UUID, name, description string) (*CustomerSegment, error) {
	if err := validateSegmentName(name); err != nil {
		return nil, err
	}

	return &CustomerSegment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                strings.TrimSpace(name),
		Description:         description,
		Status:              SegmentStatusActive,
		RFMSegments:         make([]string, 0),
	}, nil
}

// Update changes the segment's name and description
func (s *CustomerSegment) Update(name, description string) error {
	if err := validateSegmentName(name); err != nil {
		return err
	}

	s.Name = strings.TrimSpace(name)
	s.Description = description
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// SetRules replaces the segment's matching rules.
func (s *CustomerSegment) SetRules(minR, minF, minM int, minTotalSpent *decimal.Decimal, rfmSegments []string) error {
	if minR < 0 || minR > 5 || minF < 0 || minF > 5 || minM < 0 || minM > 5 {
		return shared.NewDomainError("INVALID_SEGMENT_RULE", "Score bounds must be between 0 and 5")
	}
	if minTotalSpent != nil && minTotalSpent.IsNegative() {
		return shared.NewDomainError("INVALID_SEGMENT_RULE", "Minimum spend cannot be negative")
	}
	for _, label := range rfmSegments {
		if !IsValidSegmentLabel(label) {
			return shared.NewDomainError("INVALID_SEGMENT_RULE", "Unknown RFM segment label: "+label)
		}
	}

	s.MinRecencyScore = minR
	s.MinFrequencyScore = minF
	s.MinMonetaryScore = minM
	s.MinTotalSpent = minTotalSpent
	if rfmSegments == nil {
		rfmSegments = make([]string, 0)
	}
	s.RFMSegments = rfmSegments
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// Matches reports whether a scored customer belongs to the segment.
func (s *CustomerSegment) Matches(score *CustomerScore, totalSpent decimal.Decimal) bool {
	if s.MinRecencyScore > 0 && score.RecencyScore < s.MinRecencyScore {
		return false
	}
	if s.MinFrequencyScore > 0 && score.FrequencyScore < s.MinFrequencyScore {
		return false
	}
	if s.MinMonetaryScore > 0 && score.MonetaryScore < s.MinMonetaryScore {
		return false
	}
	if s.MinTotalSpent != nil && totalSpent.LessThan(*s.MinTotalSpent) {
		return false
	}
	if len(s.RFMSegments) > 0 {
		found := false
		for _, label := range s.RFMSegments {
			if label == score.Segment {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// RecordEvaluation stores the result of a membership evaluation run.
func (s *CustomerSegment) RecordEvaluation(memberCount int64) {
	now := time.Now()
	s.MemberCount = memberCount
	s.EvaluatedAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()
}

// Activate activates the segment
func (s *CustomerSegment) Activate() error {
	if s.Status == SegmentStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Segment is already active")
	}

	s.Status = SegmentStatusActive
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// Deactivate deactivates the segment
func (s *CustomerSegment) Deactivate() error {
	if s.Status == SegmentStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Segment is already inactive")
	}

	s.Status = SegmentStatusInactive
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// IsActive returns true if segment is active
func (s *CustomerSegment) IsActive() bool {
	return s.Status == SegmentStatusActive
}

// CustomerSegmentRepository defines the interface for segment persistence
type CustomerSegmentRepository interface {
	// FindByID finds a segment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*CustomerSegment, error)

	// FindByIDForTenant finds a segment scoped to a tenant
	FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*CustomerSegment, error)

	// FindAllForTenant returns the tenant's segments matching the filter
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]CustomerSegment, error)

	// FindActiveForTenant returns the tenant's active segments
	FindActiveForTenant(ctx context.Context, tenantID uuid.UUID) ([]CustomerSegment, error)

	// CountForTenant returns the number of segments matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// Save creates or updates a segment
	Save(ctx context.Context, segment *CustomerSegment) error

	// Delete deletes a segment by ID
	Delete(ctx context.Context, id uuid.UUID) error
}

func validateSegmentName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_SEGMENT_NAME", "Segment name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_SEGMENT_NAME", "Segment name cannot exceed 100 characters")
	}
	return nil
}
