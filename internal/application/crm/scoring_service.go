package crm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/domain/sales"
	"github.com/retailsuite/backend/internal/domain/shared"
	"github.com/retailsuite/backend/internal/infrastructure/scheduler"
)

// JobSubmitter enqueues background jobs. The scheduler satisfies it.
type JobSubmitter interface {
	SubmitJob(job *scheduler.Job) error
	MaxRetries() int
}

// ScoringService computes RFM scores, CLV projections and segment counts
// for a tenant's customers, and moves customers between loyalty tiers based
// on the results. Runs execute on the job queue, one at a time per tenant.
type ScoringService struct {
	customerRepo crm.CustomerRepository
	saleRepo     sales.SaleRepository
	scoreRepo    crm.CustomerScoreRepository
	segmentRepo  crm.CustomerSegmentRepository
	tierRepo     crm.LoyaltyTierRepository
	tenantRepo   platform.TenantRepository
	jobs         JobSubmitter
	config       crm.ScoringConfig
	logger       *zap.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewScoringService creates a new scoring service
func NewScoringService(
	customerRepo crm.CustomerRepository,
	saleRepo sales.SaleRepository,
	scoreRepo crm.CustomerScoreRepository,
	segmentRepo crm.CustomerSegmentRepository,
	tierRepo crm.LoyaltyTierRepository,
	tenantRepo platform.TenantRepository,
	jobs JobSubmitter,
	config crm.ScoringConfig,
	logger *zap.Logger,
) *ScoringService {
	def := crm.DefaultScoringConfig()
	if config.WindowDays <= 0 {
		config.WindowDays = def.WindowDays
	}
	if config.HorizonYears <= 0 {
		config.HorizonYears = def.HorizonYears
	}

	return &ScoringService{
		customerRepo: customerRepo,
		saleRepo:     saleRepo,
		scoreRepo:    scoreRepo,
		segmentRepo:  segmentRepo,
		tierRepo:     tierRepo,
		tenantRepo:   tenantRepo,
		jobs:         jobs,
		config:       config,
		logger:       logger,
		locks:        make(map[uuid.UUID]*sync.Mutex),
	}
}

// ScoringJobDTO describes a queued scoring run
type ScoringJobDTO struct {
	JobID    uuid.UUID `json:"job_id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Status   string    `json:"status"`
}

// ScoreDTO represents customer score data transfer object
type ScoreDTO struct {
	CustomerID     uuid.UUID       `json:"customer_id"`
	RecencyDays    int             `json:"recency_days"`
	Frequency      int64           `json:"frequency"`
	Monetary       decimal.Decimal `json:"monetary"`
	RecencyScore   int             `json:"recency_score"`
	FrequencyScore int             `json:"frequency_score"`
	MonetaryScore  int             `json:"monetary_score"`
	Segment        string          `json:"segment"`
	CLV            decimal.Decimal `json:"clv"`
	WindowStart    time.Time       `json:"window_start"`
	WindowEnd      time.Time       `json:"window_end"`
	ComputedAt     time.Time       `json:"computed_at"`
}

// ScoreListResult represents paginated score list result
type ScoreListResult struct {
	Scores     []ScoreDTO `json:"scores"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

// ScoringSummaryDTO aggregates a tenant's scores
type ScoringSummaryDTO struct {
	TotalScored        int64            `json:"total_scored"`
	SegmentCounts      map[string]int64 `json:"segment_counts"`
	AverageRecencyDays float64          `json:"average_recency_days"`
	AverageFrequency   float64          `json:"average_frequency"`
	AverageMonetary    decimal.Decimal  `json:"average_monetary"`
	AverageCLV         decimal.Decimal  `json:"average_clv"`
	LastComputedAt     *time.Time       `json:"last_computed_at,omitempty"`
}

// Trigger queues a scoring run for the tenant
func (s *ScoringService) Trigger(ctx context.Context, tenantID uuid.UUID) (*ScoringJobDTO, error) {
	if _, err := s.tenantRepo.FindByID(ctx, tenantID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TENANT_NOT_FOUND", "Tenant not found")
		}
		s.logger.Error("Failed to find tenant", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to trigger scoring")
	}

	job, err := s.submit(tenantID)
	if err != nil {
		return nil, err
	}

	return &ScoringJobDTO{
		JobID:    job.ID,
		TenantID: tenantID,
		Status:   string(job.Status),
	}, nil
}

// TriggerScheduled queues a scoring run for the tenant without the tenant
// lookup, used by the nightly sweep which already iterates active tenants.
func (s *ScoringService) TriggerScheduled(ctx context.Context, tenantID uuid.UUID) error {
	_, err := s.submit(tenantID)
	return err
}

func (s *ScoringService) submit(tenantID uuid.UUID) (*scheduler.Job, error) {
	job := scheduler.NewJob(scheduler.JobTypeCustomerScoring, &tenantID, s.jobs.MaxRetries())
	if err := s.jobs.SubmitJob(job); err != nil {
		if errors.Is(err, scheduler.ErrJobQueueFull) {
			return nil, shared.NewDomainError("JOB_QUEUE_FULL", "The background job queue is full, try again later")
		}
		s.logger.Error("Failed to submit scoring job",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
		)
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to trigger scoring")
	}

	s.logger.Info("Scoring run queued",
		zap.String("job_id", job.ID.String()),
		zap.String("tenant_id", tenantID.String()),
	)

	return job, nil
}

// Execute dispatches scheduler jobs for the customer scoring job type
func (s *ScoringService) Execute(ctx context.Context, job *scheduler.Job) error {
	if job.Type != scheduler.JobTypeCustomerScoring {
		return fmt.Errorf("scoring executor cannot handle job type %q", job.Type)
	}
	if job.TenantID == nil {
		return scheduler.ErrMissingTenant
	}
	return s.Recompute(ctx, *job.TenantID)
}

// Recompute scores the tenant's whole customer population, stores the
// results, reassigns loyalty tiers and refreshes segment counts. The batch
// upsert makes reruns safe; concurrent runs for the same tenant serialize
// on a per-tenant lock.
func (s *ScoringService) Recompute(ctx context.Context, tenantID uuid.UUID) error {
	lock := s.tenantLock(tenantID)
	lock.Lock()
	defer lock.Unlock()

	started := time.Now()

	customerIDs, err := s.customerRepo.FindIDsForTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("load customer ids: %w", err)
	}
	if len(customerIDs) == 0 {
		s.logger.Info("No customers to score",
			zap.String("tenant_id", tenantID.String()),
		)
		return nil
	}

	asOf := time.Now()
	windowStart := asOf.AddDate(0, 0, -s.config.WindowDays)
	totals, err := s.saleRepo.CustomerTotals(ctx, tenantID, windowStart, asOf)
	if err != nil {
		return fmt.Errorf("load sales totals: %w", err)
	}

	aggregates := make([]crm.CustomerSalesAggregate, len(totals))
	for i, row := range totals {
		aggregates[i] = crm.CustomerSalesAggregate{
			CustomerID: row.CustomerID,
			SaleCount:  row.SaleCount,
			Total:      row.Total,
			LastSaleAt: row.LastSaleAt,
		}
	}

	scores := crm.ScoreCustomers(tenantID, customerIDs, aggregates, s.config, asOf)
	if err := s.scoreRepo.UpsertBatch(ctx, scores); err != nil {
		return fmt.Errorf("store scores: %w", err)
	}

	tierChanges, err := s.reassignTiers(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("reassign tiers: %w", err)
	}

	s.refreshSegments(ctx, tenantID)

	s.logger.Info("Customer scoring completed",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("scored", len(scores)),
		zap.Int("buyers", len(aggregates)),
		zap.Int("tier_changes", tierChanges),
		zap.Duration("took", time.Since(started)),
	)

	return nil
}

// GetCustomerScore returns the customer's latest score
func (s *ScoringService) GetCustomerScore(ctx context.Context, tenantID, customerID uuid.UUID) (*ScoreDTO, error) {
	score, err := s.scoreRepo.FindByCustomer(ctx, tenantID, customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("SCORE_NOT_FOUND", "No score computed for this customer yet")
		}
		s.logger.Error("Failed to find customer score", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find customer score")
	}
	return toScoreDTO(score), nil
}

// ListScores returns the tenant's scores matching the filter
func (s *ScoringService) ListScores(ctx context.Context, tenantID uuid.UUID, filter crm.ScoreFilter) (*ScoreListResult, error) {
	if filter.Segment != "" && !crm.IsValidSegmentLabel(filter.Segment) {
		return nil, shared.NewDomainError("INVALID_SEGMENT_LABEL", "Unknown RFM segment label: "+filter.Segment)
	}

	scores, total, err := s.scoreRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		s.logger.Error("Failed to list scores", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list scores")
	}

	pageSize := filter.Limit()
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	dtos := make([]ScoreDTO, len(scores))
	for i := range scores {
		dtos[i] = *toScoreDTO(&scores[i])
	}

	return &ScoreListResult{
		Scores:     dtos,
		Total:      total,
		Page:       filter.Page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// GetSummary returns the tenant's scoring summary. Every segment label is
// present in the counts, zero when empty.
func (s *ScoringService) GetSummary(ctx context.Context, tenantID uuid.UUID) (*ScoringSummaryDTO, error) {
	summary, err := s.scoreRepo.Summary(ctx, tenantID)
	if err != nil {
		s.logger.Error("Failed to load scoring summary", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load scoring summary")
	}

	counts := make(map[string]int64, len(crm.AllSegmentLabels()))
	for _, label := range crm.AllSegmentLabels() {
		counts[label] = 0
	}
	for label, count := range summary.SegmentCounts {
		counts[label] = count
	}

	return &ScoringSummaryDTO{
		TotalScored:        summary.TotalScored,
		SegmentCounts:      counts,
		AverageRecencyDays: summary.AverageRecencyDays,
		AverageFrequency:   summary.AverageFrequency,
		AverageMonetary:    summary.AverageMonetary,
		AverageCLV:         summary.AverageCLV,
		LastComputedAt:     summary.LastComputedAt,
	}, nil
}

// reassignTiers walks the tenant's customers and moves each to the highest
// active tier it qualifies for. Customers already on the right tier are
// left untouched; individual save failures are logged and skipped so one
// bad row does not stall the run.
func (s *ScoringService) reassignTiers(ctx context.Context, tenantID uuid.UUID) (int, error) {
	tiers, err := s.tierRepo.FindActiveForTenant(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("load tiers: %w", err)
	}
	if len(tiers) == 0 {
		return 0, nil
	}

	changed := 0
	filter := crm.NewCustomerFilter().WithPagination(1, evaluationPageSize)
	for {
		customers, _, err := s.customerRepo.FindAll(ctx, tenantID, filter)
		if err != nil {
			return changed, fmt.Errorf("load customers: %w", err)
		}

		for i := range customers {
			customer := &customers[i]

			var tierID *uuid.UUID
			if tier := crm.PickTier(tiers, customer.LoyaltyPoints, customer.TotalSpent); tier != nil {
				tierID = &tier.ID
			}
			if sameTier(customer.LoyaltyTierID, tierID) {
				continue
			}

			customer.AssignTier(tierID)
			if err := s.customerRepo.Save(ctx, customer); err != nil {
				s.logger.Error("Failed to save tier assignment",
					zap.Error(err),
					zap.String("customer_id", customer.ID.String()),
				)
				continue
			}
			changed++
		}

		if len(customers) < filter.Limit() {
			break
		}
		filter = filter.WithPagination(filter.Page+1, evaluationPageSize)
	}

	return changed, nil
}

// refreshSegments re-evaluates the tenant's active segments against the
// fresh scores. Segment counts are advisory; a failure here does not fail
// the scoring run.
func (s *ScoringService) refreshSegments(ctx context.Context, tenantID uuid.UUID) {
	segments, err := s.segmentRepo.FindActiveForTenant(ctx, tenantID)
	if err != nil {
		s.logger.Error("Failed to load segments for refresh",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
		)
		return
	}
	if len(segments) == 0 {
		return
	}

	eval, err := loadSegmentEvaluation(ctx, tenantID, s.scoreRepo, s.customerRepo)
	if err != nil {
		s.logger.Error("Failed to load segment evaluation data",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
		)
		return
	}

	for i := range segments {
		segment := &segments[i]
		segment.RecordEvaluation(eval.memberCount(segment))
		if err := s.segmentRepo.Save(ctx, segment); err != nil {
			s.logger.Error("Failed to save segment evaluation",
				zap.Error(err),
				zap.String("segment_id", segment.ID.String()),
			)
		}
	}
}

func (s *ScoringService) tenantLock(tenantID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[tenantID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[tenantID] = lock
	}
	return lock
}

func sameTier(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func toScoreDTO(score *crm.CustomerScore) *ScoreDTO {
	return &ScoreDTO{
		CustomerID:     score.CustomerID,
		RecencyDays:    score.RecencyDays,
		Frequency:      score.Frequency,
		Monetary:       score.Monetary,
		RecencyScore:   score.RecencyScore,
		FrequencyScore: score.FrequencyScore,
		MonetaryScore:  score.MonetaryScore,
		Segment:        score.Segment,
		CLV:            score.CLV,
		WindowStart:    score.WindowStart,
		WindowEnd:      score.WindowEnd,
		ComputedAt:     score.ComputedAt,
	}
}
