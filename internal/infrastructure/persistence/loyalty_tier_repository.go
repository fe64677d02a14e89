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

// GormLoyaltyTierRepository implements LoyaltyTierRepository using GORM
type GormLoyaltyTierRepository struct {
	db *gorm.DB
}

// NewGormLoyaltyTierRepository creates a new GormLoyaltyTierRepository
func NewGormLoyaltyTierRepository(db *gorm.DB) *GormLoyaltyTierRepository {
	return &GormLoyaltyTierRepository{db: db}
}

// FindByID finds a tier by ID
func (r *GormLoyaltyTierRepository) FindByID(ctx context.Context, id uuid.UUID) (*crm.LoyaltyTier, error) {
	var model models.LoyaltyTierModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a tier scoped to a tenant
func (r *GormLoyaltyTierRepository) FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*crm.LoyaltyTier, error) {
	var model models.LoyaltyTierModel
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

// FindAllForTenant returns the tenant's tiers ordered by rank ascending
func (r *GormLoyaltyTierRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]crm.LoyaltyTier, error) {
	var tierModels []models.LoyaltyTierModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Order("rank ASC").
		Find(&tierModels).Error; err != nil {
		return nil, err
	}

	tiers := make([]crm.LoyaltyTier, len(tierModels))
	for i, model := range tierModels {
		tiers[i] = *model.ToDomain()
	}
	return tiers, nil
}

// FindActiveForTenant returns the tenant's active tiers ordered by rank
// ascending
func (r *GormLoyaltyTierRepository) FindActiveForTenant(ctx context.Context, tenantID uuid.UUID) ([]crm.LoyaltyTier, error) {
	var tierModels []models.LoyaltyTierModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("status = ?", crm.TierStatusActive).
		Order("rank ASC").
		Find(&tierModels).Error; err != nil {
		return nil, err
	}

	tiers := make([]crm.LoyaltyTier, len(tierModels))
	for i, model := range tierModels {
		tiers[i] = *model.ToDomain()
	}
	return tiers, nil
}

// ExistsByRank checks if a rank is already taken within the tenant
func (r *GormLoyaltyTierRepository) ExistsByRank(ctx context.Context, tenantID uuid.UUID, rank int) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.LoyaltyTierModel{}).
		Scopes(TenantScope(tenantID)).
		Where("rank = ?", rank).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a tier
func (r *GormLoyaltyTierRepository) Save(ctx context.Context, tier *crm.LoyaltyTier) error {
	model := models.LoyaltyTierModelFromDomain(tier)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveBatch creates or updates several tiers at once
func (r *GormLoyaltyTierRepository) SaveBatch(ctx context.Context, tiers []*crm.LoyaltyTier) error {
	if len(tiers) == 0 {
		return nil
	}
	tierModels := make([]*models.LoyaltyTierModel, len(tiers))
	for i, t := range tiers {
		tierModels[i] = models.LoyaltyTierModelFromDomain(t)
	}
	return r.db.WithContext(ctx).Save(tierModels).Error
}

// Delete deletes a tier by ID
func (r *GormLoyaltyTierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.LoyaltyTierModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormLoyaltyTierRepository implements LoyaltyTierRepository
var _ crm.LoyaltyTierRepository = (*GormLoyaltyTierRepository)(nil)
