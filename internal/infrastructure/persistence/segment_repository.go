package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/shared"
	"github.com/retailsuite/backend/internal/infrastructure/persistence/models"
)

// GormCustomerSegmentRepository implements CustomerSegmentRepository using GORM
type GormCustomerSegmentRepository struct {
	db *gorm.DB
}

// NewGormCustomerSegmentRepository creates a new GormCustomerSegmentRepository
func NewGormCustomerSegmentRepository(db *gorm.DB) *GormCustomerSegmentRepository {
	return &GormCustomerSegmentRepository{db: db}
}

// FindByID finds a segment by ID
func (r *GormCustomerSegmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*crm.CustomerSegment, error) {
	var model models.CustomerSegmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a segment scoped to a tenant
func (r *GormCustomerSegmentRepository) FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*crm.CustomerSegment, error) {
	var model models.CustomerSegmentModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant returns the tenant's segments matching the filter
func (r *GormCustomerSegmentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]crm.CustomerSegment, error) {
	var segmentModels []models.CustomerSegmentModel
	query := r.db.WithContext(ctx).Model(&models.CustomerSegmentModel{}).
		Scopes(TenantScope(tenantID))

	// Apply keyword search
	if filter.Search != "" {
		keyword := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", keyword, keyword)
	}

	if status, ok := filter.Filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	// Apply sorting with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, SegmentSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortOrder)

	query = query.Offset(filter.Offset()).Limit(filter.Limit())

	if err := query.Find(&segmentModels).Error; err != nil {
		return nil, err
	}

	// Convert to domain entities
	segments := make([]crm.CustomerSegment, len(segmentModels))
	for i, model := range segmentModels {
		segments[i] = *model.ToDomain()
	}

	return segments, nil
}

// FindActiveForTenant returns the tenant's active segments
func (r *GormCustomerSegmentRepository) FindActiveForTenant(ctx context.Context, tenantID uuid.UUID) ([]crm.CustomerSegment, error) {
	var segmentModels []models.CustomerSegmentModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("status = ?", crm.SegmentStatusActive).
		Order("name ASC").
		Find(&segmentModels).Error; err != nil {
		return nil, err
	}

	segments := make([]crm.CustomerSegment, len(segmentModels))
	for i, model := range segmentModels {
		segments[i] = *model.ToDomain()
	}
	return segments, nil
}

// CountForTenant returns the number of segments matching the filter
func (r *GormCustomerSegmentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.CustomerSegmentModel{}).
		Scopes(TenantScope(tenantID))

	if filter.Search != "" {
		keyword := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", keyword, keyword)
	}

	if status, ok := filter.Filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// Save creates or updates a segment
func (r *GormCustomerSegmentRepository) Save(ctx context.Context, segment *crm.CustomerSegment) error {
	model := models.CustomerSegmentModelFromDomain(segment)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes a segment by ID
func (r *GormCustomerSegmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CustomerSegmentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormCustomerSegmentRepository implements CustomerSegmentRepository
var _ crm.CustomerSegmentRepository = (*GormCustomerSegmentRepository)(nil)
