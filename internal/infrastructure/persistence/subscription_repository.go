package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/domain/shared"
	"github.com/retailsuite/backend/internal/infrastructure/persistence/models"
)

// GormSubscriptionRepository implements SubscriptionRepository using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// FindByID finds a subscription by its ID
func (r *GormSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*platform.Subscription, error) {
	var model models.SubscriptionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByTenant finds the tenant's active subscription, if any.
// The newest one wins when stale rows linger after a package change.
func (r *GormSubscriptionRepository) FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) (*platform.Subscription, error) {
	var model models.SubscriptionModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("status = ?", platform.SubscriptionStatusActive).
		Order("starts_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTenant finds all subscriptions of a tenant, newest first
func (r *GormSubscriptionRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]platform.Subscription, error) {
	var subscriptionModels []models.SubscriptionModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Order("starts_at DESC").
		Find(&subscriptionModels).Error; err != nil {
		return nil, err
	}

	subs := make([]platform.Subscription, len(subscriptionModels))
	for i, model := range subscriptionModels {
		subs[i] = *model.ToDomain()
	}
	return subs, nil
}

// FindExpiring finds active subscriptions that expire before the given time
func (r *GormSubscriptionRepository) FindExpiring(ctx context.Context, before time.Time) ([]platform.Subscription, error) {
	var subscriptionModels []models.SubscriptionModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", platform.SubscriptionStatusActive).
		Where("expires_at IS NOT NULL").
		Where("expires_at <= ?", before).
		Order("expires_at ASC").
		Find(&subscriptionModels).Error; err != nil {
		return nil, err
	}

	subs := make([]platform.Subscription, len(subscriptionModels))
	for i, model := range subscriptionModels {
		subs[i] = *model.ToDomain()
	}
	return subs, nil
}

// Save creates or updates a subscription
func (r *GormSubscriptionRepository) Save(ctx context.Context, sub *platform.Subscription) error {
	model := models.SubscriptionModelFromDomain(sub)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes a subscription
func (r *GormSubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SubscriptionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormSubscriptionRepository implements SubscriptionRepository
var _ platform.SubscriptionRepository = (*GormSubscriptionRepository)(nil)
