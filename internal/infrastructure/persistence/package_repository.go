package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/domain/shared"
	"github.com/retailsuite/backend/internal/infrastructure/persistence/models"
)

// GormPackageRepository implements PackageRepository using GORM
type GormPackageRepository struct {
	db *gorm.DB
}

// NewGormPackageRepository creates a new GormPackageRepository
func NewGormPackageRepository(db *gorm.DB) *GormPackageRepository {
	return &GormPackageRepository{db: db}
}

// FindByID finds a package by its ID
func (r *GormPackageRepository) FindByID(ctx context.Context, id uuid.UUID) (*platform.Package, error) {
	var model models.PackageModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a package by its unique code
func (r *GormPackageRepository) FindByCode(ctx context.Context, code string) (*platform.Package, error) {
	var model models.PackageModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(code) = ?", strings.ToLower(code)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns all packages ordered by sort order
func (r *GormPackageRepository) FindAll(ctx context.Context) ([]platform.Package, error) {
	var packageModels []models.PackageModel
	if err := r.db.WithContext(ctx).
		Order("sort_order ASC").
		Find(&packageModels).Error; err != nil {
		return nil, err
	}

	packages := make([]platform.Package, len(packageModels))
	for i, model := range packageModels {
		packages[i] = *model.ToDomain()
	}
	return packages, nil
}

// FindActive returns all active packages ordered by sort order
func (r *GormPackageRepository) FindActive(ctx context.Context) ([]platform.Package, error) {
	var packageModels []models.PackageModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("sort_order ASC").
		Find(&packageModels).Error; err != nil {
		return nil, err
	}

	packages := make([]platform.Package, len(packageModels))
	for i, model := range packageModels {
		packages[i] = *model.ToDomain()
	}
	return packages, nil
}

// ExistsByCode checks if a package with the given code exists
func (r *GormPackageRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PackageModel{}).
		Where("LOWER(code) = ?", strings.ToLower(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a package
func (r *GormPackageRepository) Save(ctx context.Context, pkg *platform.Package) error {
	model := models.PackageModelFromDomain(pkg)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveBatch creates or updates multiple packages
func (r *GormPackageRepository) SaveBatch(ctx context.Context, pkgs []platform.Package) error {
	if len(pkgs) == 0 {
		return nil
	}
	packageModels := make([]*models.PackageModel, len(pkgs))
	for i := range pkgs {
		packageModels[i] = models.PackageModelFromDomain(&pkgs[i])
	}
	return r.db.WithContext(ctx).Save(packageModels).Error
}

// Delete deletes a package
func (r *GormPackageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PackageModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormPackageRepository implements PackageRepository
var _ platform.PackageRepository = (*GormPackageRepository)(nil)
