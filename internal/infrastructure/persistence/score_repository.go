package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/shared"
	"github.com/retailsuite/backend/internal/infrastructure/persistence/models"
)

// GormCustomerScoreRepository implements CustomerScoreRepository using GORM
type GormCustomerScoreRepository struct {
	db *gorm.DB
}

// NewGormCustomerScoreRepository creates a new GormCustomerScoreRepository
func NewGormCustomerScoreRepository(db *gorm.DB) *GormCustomerScoreRepository {
	return &GormCustomerScoreRepository{db: db}
}

// FindByCustomer finds the score row for a customer
func (r *GormCustomerScoreRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (*crm.CustomerScore, error) {
	var model models.CustomerScoreModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("customer_id = ?", customerID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant returns the tenant's scores matching the filter, with
// total count
func (r *GormCustomerScoreRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter crm.ScoreFilter) ([]crm.CustomerScore, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CustomerScoreModel{}).
		Scopes(TenantScope(tenantID))

	if filter.Segment != "" {
		query = query.Where("segment = ?", filter.Segment)
	}
	if filter.MinRecencyScore > 0 {
		query = query.Where("recency_score >= ?", filter.MinRecencyScore)
	}
	if filter.MinFrequencyScore > 0 {
		query = query.Where("frequency_score >= ?", filter.MinFrequencyScore)
	}
	if filter.MinMonetaryScore > 0 {
		query = query.Where("monetary_score >= ?", filter.MinMonetaryScore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var scoreModels []models.CustomerScoreModel
	if err := query.
		Order("clv DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&scoreModels).Error; err != nil {
		return nil, 0, err
	}

	scores := make([]crm.CustomerScore, len(scoreModels))
	for i, model := range scoreModels {
		scores[i] = *model.ToDomain()
	}

	return scores, total, nil
}

// UpsertBatch inserts or replaces score rows keyed by customer ID. A scoring
// run recomputes every customer, so conflicts on (tenant_id, customer_id)
// overwrite the previous window's row.
func (r *GormCustomerScoreRepository) UpsertBatch(ctx context.Context, scores []crm.CustomerScore) error {
	if len(scores) == 0 {
		return nil
	}
	scoreModels := make([]*models.CustomerScoreModel, len(scores))
	for i := range scores {
		scoreModels[i] = models.CustomerScoreModelFromDomain(&scores[i])
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "customer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"recency_days",
			"frequency",
			"monetary",
			"recency_score",
			"frequency_score",
			"monetary_score",
			"segment",
			"clv",
			"window_start",
			"window_end",
			"computed_at",
		}),
	}).CreateInBatches(scoreModels, 100).Error
}

// Summary aggregates the tenant's current scores
func (r *GormCustomerScoreRepository) Summary(ctx context.Context, tenantID uuid.UUID) (*crm.ScoringSummary, error) {
	var row struct {
		TotalScored    int64
		AvgRecencyDays float64
		AvgFrequency   float64
		AvgMonetary    decimal.Decimal
		AvgCLV         decimal.Decimal
		LastComputedAt *time.Time
	}

	if err := r.db.WithContext(ctx).Model(&models.CustomerScoreModel{}).
		Scopes(TenantScope(tenantID)).
		Select(`COUNT(*) as total_scored,
			COALESCE(AVG(recency_days), 0) as avg_recency_days,
			COALESCE(AVG(frequency), 0) as avg_frequency,
			COALESCE(AVG(monetary), 0) as avg_monetary,
			COALESCE(AVG(clv), 0) as avg_clv,
			MAX(computed_at) as last_computed_at`).
		Scan(&row).Error; err != nil {
		return nil, err
	}

	var segmentRows []struct {
		Segment string
		Count   int64
	}
	if err := r.db.WithContext(ctx).Model(&models.CustomerScoreModel{}).
		Scopes(TenantScope(tenantID)).
		Select("segment, COUNT(*) as count").
		Group("segment").
		Scan(&segmentRows).Error; err != nil {
		return nil, err
	}

	summary := &crm.ScoringSummary{
		TotalScored:        row.TotalScored,
		SegmentCounts:      make(map[string]int64, len(segmentRows)),
		AverageRecencyDays: row.AvgRecencyDays,
		AverageFrequency:   row.AvgFrequency,
		AverageMonetary:    row.AvgMonetary,
		AverageCLV:         row.AvgCLV,
		LastComputedAt:     row.LastComputedAt,
	}
	for _, s := range segmentRows {
		summary.SegmentCounts[s.Segment] = s.Count
	}

	return summary, nil
}

// DeleteByCustomer removes a customer's score row
func (r *GormCustomerScoreRepository) DeleteByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("customer_id = ?", customerID).
		Delete(&models.CustomerScoreModel{}).Error
}

// Ensure GormCustomerScoreRepository implements CustomerScoreRepository
var _ crm.CustomerScoreRepository = (*GormCustomerScoreRepository)(nil)
