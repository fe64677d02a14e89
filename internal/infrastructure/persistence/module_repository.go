package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/domain/shared"
	"github.com/retailsuite/backend/internal/infrastructure/persistence/models"
)

// GormModuleRepository implements ModuleRepository using GORM
type GormModuleRepository struct {
	db *gorm.DB
}

// NewGormModuleRepository creates a new GormModuleRepository
func NewGormModuleRepository(db *gorm.DB) *GormModuleRepository {
	return &GormModuleRepository{db: db}
}

// FindByID finds a module by its ID
func (r *GormModuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*platform.Module, error) {
	var model models.ModuleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByKey finds a module by its unique key
func (r *GormModuleRepository) FindByKey(ctx context.Context, key platform.ModuleKey) (*platform.Module, error) {
	var model models.ModuleModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns the full catalog ordered by sort order
func (r *GormModuleRepository) FindAll(ctx context.Context) ([]platform.Module, error) {
	var moduleModels []models.ModuleModel
	if err := r.db.WithContext(ctx).
		Order("sort_order ASC").
		Find(&moduleModels).Error; err != nil {
		return nil, err
	}

	modules := make([]platform.Module, len(moduleModels))
	for i, model := range moduleModels {
		modules[i] = *model.ToDomain()
	}
	return modules, nil
}

// FindEnabled returns all platform-enabled modules ordered by sort order
func (r *GormModuleRepository) FindEnabled(ctx context.Context) ([]platform.Module, error) {
	var moduleModels []models.ModuleModel
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("sort_order ASC").
		Find(&moduleModels).Error; err != nil {
		return nil, err
	}

	modules := make([]platform.Module, len(moduleModels))
	for i, model := range moduleModels {
		modules[i] = *model.ToDomain()
	}
	return modules, nil
}

// ExistsByKey checks if a module with the given key exists
func (r *GormModuleRepository) ExistsByKey(ctx context.Context, key platform.ModuleKey) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ModuleModel{}).
		Where("key = ?", key).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a module
func (r *GormModuleRepository) Save(ctx context.Context, module *platform.Module) error {
	model := models.ModuleModelFromDomain(module)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveBatch creates or updates multiple modules
func (r *GormModuleRepository) SaveBatch(ctx context.Context, modules []platform.Module) error {
	if len(modules) == 0 {
		return nil
	}
	moduleModels := make([]*models.ModuleModel, len(modules))
	for i := range modules {
		moduleModels[i] = models.ModuleModelFromDomain(&modules[i])
	}
	return r.db.WithContext(ctx).Save(moduleModels).Error
}

// Delete deletes a module
func (r *GormModuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ModuleModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormModuleRepository implements ModuleRepository
var _ platform.ModuleRepository = (*GormModuleRepository)(nil)
