package crm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/shared"
)

// evaluationPageSize is the page size used when walking a tenant's scores
// and customers during segment evaluation. It matches the repository's
// page-size cap.
const evaluationPageSize = 100

// CustomerSegmentService manages rule-based customer segments
type CustomerSegmentService struct {
	segmentRepo  crm.CustomerSegmentRepository
	customerRepo crm.CustomerRepository
	scoreRepo    crm.CustomerScoreRepository
	logger       *zap.Logger
}

// NewCustomerSegmentService creates a new segment service
func NewCustomerSegmentService(
	segmentRepo crm.CustomerSegmentRepository,
	customerRepo crm.CustomerRepository,
	scoreRepo crm.CustomerScoreRepository,
	logger *zap.Logger,
) *CustomerSegmentService {
	return &CustomerSegmentService{
		segmentRepo:  segmentRepo,
		customerRepo: customerRepo,
		scoreRepo:    scoreRepo,
		logger:       logger,
	}
}

// SegmentRulesInput carries the matching rules of a segment. Zero score
// bounds, a nil MinTotalSpent and an empty label list mean no bound.
type SegmentRulesInput struct {
	MinRecencyScore   int
	MinFrequencyScore int
	MinMonetaryScore  int
	MinTotalSpent     *decimal.Decimal
	RFMSegments       []string
}

// CreateSegmentInput contains input for creating a segment
type CreateSegmentInput struct {
	TenantID    uuid.UUID
	Name        string
	Description string
	Rules       SegmentRulesInput
	CreatedBy   *uuid.UUID
}

// UpdateSegmentInput contains input for updating a segment. The rules are
// replaced as a whole.
type UpdateSegmentInput struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Description string
	Rules       SegmentRulesInput
}

// SegmentFilter contains pagination options for listing segments
type SegmentFilter struct {
	Page     int
	PageSize int
}

// ToSharedFilter converts the filter to a shared.Filter
func (f SegmentFilter) ToSharedFilter() shared.Filter {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	return filter
}

// SegmentDTO represents segment data transfer object
type SegmentDTO struct {
	ID                uuid.UUID        `json:"id"`
	TenantID          uuid.UUID        `json:"tenant_id"`
	Name              string           `json:"name"`
	Description       string           `json:"description,omitempty"`
	MinRecencyScore   int              `json:"min_recency_score"`
	MinFrequencyScore int              `json:"min_frequency_score"`
	MinMonetaryScore  int              `json:"min_monetary_score"`
	MinTotalSpent     *decimal.Decimal `json:"min_total_spent,omitempty"`
	RFMSegments       []string         `json:"rfm_segments"`
	Status            string           `json:"status"`
	MemberCount       int64            `json:"member_count"`
	EvaluatedAt       *time.Time       `json:"evaluated_at,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// SegmentListResult represents paginated segment list result
type SegmentListResult struct {
	Segments   []SegmentDTO `json:"segments"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}

// Create creates a new segment
func (s *CustomerSegmentService) Create(ctx context.Context, input CreateSegmentInput) (*SegmentDTO, error) {
	segment, err := crm.NewCustomerSegment(input.TenantID, input.Name, input.Description)
	if err != nil {
		return nil, err
	}
	if err := segment.SetRules(input.Rules.MinRecencyScore, input.Rules.MinFrequencyScore,
		input.Rules.MinMonetaryScore, input.Rules.MinTotalSpent, input.Rules.RFMSegments); err != nil {
		return nil, err
	}
	if input.CreatedBy != nil {
		segment.SetCreatedBy(*input.CreatedBy)
	}

	if err := s.segmentRepo.Save(ctx, segment); err != nil {
		s.logger.Error("Failed to create segment", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create segment")
	}

	s.logger.Info("Customer segment created",
		zap.String("segment_id", segment.ID.String()),
		zap.String("name", segment.Name),
		zap.String("tenant_id", segment.TenantID.String()))

	return toSegmentDTO(segment), nil
}

// GetByID retrieves a segment by ID within the tenant
func (s *CustomerSegmentService) GetByID(ctx context.Context, tenantID, segmentID uuid.UUID) (*SegmentDTO, error) {
	segment, err := s.findSegment(ctx, tenantID, segmentID)
	if err != nil {
		return nil, err
	}
	return toSegmentDTO(segment), nil
}

// List retrieves a paginated list of the tenant's segments
func (s *CustomerSegmentService) List(ctx context.Context, tenantID uuid.UUID, filter SegmentFilter) (*SegmentListResult, error) {
	sharedFilter := filter.ToSharedFilter()

	segments, err := s.segmentRepo.FindAllForTenant(ctx, tenantID, sharedFilter)
	if err != nil {
		s.logger.Error("Failed to list segments", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list segments")
	}
	total, err := s.segmentRepo.CountForTenant(ctx, tenantID, sharedFilter)
	if err != nil {
		s.logger.Error("Failed to count segments", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to count segments")
	}

	totalPages := int(total) / sharedFilter.PageSize
	if int(total)%sharedFilter.PageSize > 0 {
		totalPages++
	}

	dtos := make([]SegmentDTO, len(segments))
	for i := range segments {
		dtos[i] = *toSegmentDTO(&segments[i])
	}

	return &SegmentListResult{
		Segments:   dtos,
		Total:      total,
		Page:       sharedFilter.Page,
		PageSize:   sharedFilter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Update updates a segment's name, description and rules
func (s *CustomerSegmentService) Update(ctx context.Context, input UpdateSegmentInput) (*SegmentDTO, error) {
	segment, err := s.findSegment(ctx, input.TenantID, input.ID)
	if err != nil {
		return nil, err
	}

	if err := segment.Update(input.Name, input.Description); err != nil {
		return nil, err
	}
	if err := segment.SetRules(input.Rules.MinRecencyScore, input.Rules.MinFrequencyScore,
		input.Rules.MinMonetaryScore, input.Rules.MinTotalSpent, input.Rules.RFMSegments); err != nil {
		return nil, err
	}

	if err := s.segmentRepo.Save(ctx, segment); err != nil {
		s.logger.Error("Failed to update segment", zap.Error(err))
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update segment")
	}

	s.logger.Info("Customer segment updated", zap.String("segment_id", input.ID.String()))

	return toSegmentDTO(segment), nil
}

// Activate activates a segment
func (s *CustomerSegmentService) Activate(ctx context.Context, tenantID, segmentID uuid.UUID) (*SegmentDTO, error) {
	segment, err := s.findSegment(ctx, tenantID, segmentID)
	if err != nil {
		return nil, err
	}

	if err := segment.Activate(); err != nil {
		return nil, err
	}

	if err := s.segmentRepo.Save(ctx, segment); err != nil {
		s.logger.Error("Failed to activate segment", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to activate segment")
	}

	s.logger.Info("Customer segment activated", zap.String("segment_id", segmentID.String()))

	return toSegmentDTO(segment), nil
}

// Deactivate deactivates a segment
func (s *CustomerSegmentService) Deactivate(ctx context.Context, tenantID, segmentID uuid.UUID) (*SegmentDTO, error) {
	segment, err := s.findSegment(ctx, tenantID, segmentID)
	if err != nil {
		return nil, err
	}

	if err := segment.Deactivate(); err != nil {
		return nil, err
	}

	if err := s.segmentRepo.Save(ctx, segment); err != nil {
		s.logger.Error("Failed to deactivate segment", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to deactivate segment")
	}

	s.logger.Info("Customer segment deactivated", zap.String("segment_id", segmentID.String()))

	return toSegmentDTO(segment), nil
}

// Delete removes a segment
func (s *CustomerSegmentService) Delete(ctx context.Context, tenantID, segmentID uuid.UUID) error {
	segment, err := s.findSegment(ctx, tenantID, segmentID)
	if err != nil {
		return err
	}

	if err := s.segmentRepo.Delete(ctx, segment.ID); err != nil {
		s.logger.Error("Failed to delete segment", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete segment")
	}

	s.logger.Info("Customer segment deleted",
		zap.String("segment_id", segmentID.String()),
		zap.String("tenant_id", tenantID.String()))

	return nil
}

// Evaluate recomputes the segment's membership from the current customer
// scores and records the member count. Customers without a score row are
// not counted; a scoring run gives every customer one.
func (s *CustomerSegmentService) Evaluate(ctx context.Context, tenantID, segmentID uuid.UUID) (*SegmentDTO, error) {
	segment, err := s.findSegment(ctx, tenantID, segmentID)
	if err != nil {
		return nil, err
	}

	eval, err := loadSegmentEvaluation(ctx, tenantID, s.scoreRepo, s.customerRepo)
	if err != nil {
		s.logger.Error("Failed to load segment evaluation data", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to evaluate segment")
	}

	segment.RecordEvaluation(eval.memberCount(segment))

	if err := s.segmentRepo.Save(ctx, segment); err != nil {
		s.logger.Error("Failed to save segment evaluation", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save segment evaluation")
	}

	s.logger.Info("Customer segment evaluated",
		zap.String("segment_id", segmentID.String()),
		zap.Int64("member_count", segment.MemberCount))

	return toSegmentDTO(segment), nil
}

func (s *CustomerSegmentService) findSegment(ctx context.Context, tenantID, segmentID uuid.UUID) (*crm.CustomerSegment, error) {
	segment, err := s.segmentRepo.FindByIDForTenant(ctx, segmentID, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("SEGMENT_NOT_FOUND", "Segment not found")
		}
		s.logger.Error("Failed to find segment", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find segment")
	}
	return segment, nil
}

func toSegmentDTO(segment *crm.CustomerSegment) *SegmentDTO {
	return &SegmentDTO{
		ID:                segment.ID,
		TenantID:          segment.TenantID,
		Name:              segment.Name,
		Description:       segment.Description,
		MinRecencyScore:   segment.MinRecencyScore,
		MinFrequencyScore: segment.MinFrequencyScore,
		MinMonetaryScore:  segment.MinMonetaryScore,
		MinTotalSpent:     segment.MinTotalSpent,
		RFMSegments:       segment.RFMSegments,
		Status:            string(segment.Status),
		MemberCount:       segment.MemberCount,
		EvaluatedAt:       segment.EvaluatedAt,
		CreatedAt:         segment.CreatedAt,
		UpdatedAt:         segment.UpdatedAt,
	}
}

// segmentEvaluation holds one tenant's score rows and lifetime spend
// totals, loaded once and reused across membership checks.
type segmentEvaluation struct {
	scores []crm.CustomerScore
	spent  map[uuid.UUID]decimal.Decimal
}

func loadSegmentEvaluation(ctx context.Context, tenantID uuid.UUID, scoreRepo crm.CustomerScoreRepository, customerRepo crm.CustomerRepository) (*segmentEvaluation, error) {
	eval := &segmentEvaluation{spent: make(map[uuid.UUID]decimal.Decimal)}

	scoreFilter := crm.NewScoreFilter()
	scoreFilter.PageSize = evaluationPageSize
	for {
		page, _, err := scoreRepo.FindAllForTenant(ctx, tenantID, scoreFilter)
		if err != nil {
			return nil, fmt.Errorf("load scores: %w", err)
		}
		eval.scores = append(eval.scores, page...)
		if len(page) < scoreFilter.Limit() {
			break
		}
		scoreFilter.Page++
	}

	customerFilter := crm.NewCustomerFilter().WithPagination(1, evaluationPageSize)
	for {
		customers, _, err := customerRepo.FindAll(ctx, tenantID, customerFilter)
		if err != nil {
			return nil, fmt.Errorf("load customers: %w", err)
		}
		for i := range customers {
			eval.spent[customers[i].ID] = customers[i].TotalSpent
		}
		if len(customers) < customerFilter.Limit() {
			break
		}
		customerFilter = customerFilter.WithPagination(customerFilter.Page+1, evaluationPageSize)
	}

	return eval, nil
}

func (e *segmentEvaluation) memberCount(segment *crm.CustomerSegment) int64 {
	var count int64
	for i := range e.scores {
		score := &e.scores[i]
		if segment.Matches(score, e.spent[score.CustomerID]) {
			count++
		}
	}
	return count
}
