package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailsuite/backend/internal/domain/org"
	"github.com/retailsuite/backend/internal/domain/shared"
	"github.com/retailsuite/backend/internal/infrastructure/persistence/models"
)

// GormBranchRepository implements BranchRepository using GORM
type GormBranchRepository struct {
	db *gorm.DB
}

// NewGormBranchRepository creates a new GormBranchRepository
func NewGormBranchRepository(db *gorm.DB) *GormBranchRepository {
	return &GormBranchRepository{db: db}
}

// FindByID finds a branch by ID
func (r *GormBranchRepository) FindByID(ctx context.Context, id uuid.UUID) (*org.Branch, error) {
	var model models.BranchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a branch scoped to a tenant
func (r *GormBranchRepository) FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*org.Branch, error) {
	var model models.BranchModel
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

// FindByCode finds a branch by code within the tenant
func (r *GormBranchRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*org.Branch, error) {
	var model models.BranchModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("code = ?", strings.ToUpper(code)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant returns the tenant's branches matching the filter
func (r *GormBranchRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]org.Branch, error) {
	var branchModels []models.BranchModel
	query := r.db.WithContext(ctx).Model(&models.BranchModel{}).
		Scopes(TenantScope(tenantID))

	// Apply keyword search
	if filter.Search != "" {
		keyword := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", keyword, keyword)
	}

	if status, ok := filter.Filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	// Apply sorting with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, BranchSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortOrder)

	// Apply pagination
	query = query.Offset(filter.Offset()).Limit(filter.Limit())

	if err := query.Find(&branchModels).Error; err != nil {
		return nil, err
	}

	// Convert to domain entities
	branches := make([]org.Branch, len(branchModels))
	for i, model := range branchModels {
		branches[i] = *model.ToDomain()
	}

	return branches, nil
}

// FindMainBranch returns the tenant's main branch
func (r *GormBranchRepository) FindMainBranch(ctx context.Context, tenantID uuid.UUID) (*org.Branch, error) {
	var model models.BranchModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Where("is_main = ?", true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// CountByTenant returns the number of branches for the tenant
func (r *GormBranchRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.BranchModel{}).
		Scopes(TenantScope(tenantID)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByCode checks if a branch code already exists within the tenant
func (r *GormBranchRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.BranchModel{}).
		Scopes(TenantScope(tenantID)).
		Where("code = ?", strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a branch with optimistic locking
func (r *GormBranchRepository) Save(ctx context.Context, branch *org.Branch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.BranchModel
		if err := tx.Select("version").Where("id = ?", branch.GetID()).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				model := models.BranchModelFromDomain(branch)
				return tx.Create(model).Error
			}
			return err
		}

		expectedVersion := branch.GetVersion() - 1
		if current.Version != expectedVersion {
			return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The branch record has been modified by another transaction")
		}

		model := models.BranchModelFromDomain(branch)
		result := tx.Model(&models.BranchModel{}).
			Where("id = ? AND version = ?", branch.GetID(), expectedVersion).
			Select("*").Omit("id", "tenant_id", "created_at").
			Updates(model)

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The branch record has been modified by another transaction")
		}
		return nil
	})
}

// SetMain promotes the branch to main and demotes the previous main in one
// transaction. The caller has already marked the branch main in the domain.
func (r *GormBranchRepository) SetMain(ctx context.Context, branch *org.Branch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Demote whatever currently holds the flag
		if err := tx.Model(&models.BranchModel{}).
			Where("tenant_id = ? AND is_main = ? AND id <> ?", branch.TenantID, true, branch.GetID()).
			Updates(map[string]interface{}{
				"is_main":    false,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}

		model := models.BranchModelFromDomain(branch)
		result := tx.Model(&models.BranchModel{}).
			Where("id = ? AND version = ?", branch.GetID(), branch.GetVersion()-1).
			Select("*").Omit("id", "tenant_id", "created_at").
			Updates(model)

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The branch record has been modified by another transaction")
		}
		return nil
	})
}

// Delete deletes a branch by ID
func (r *GormBranchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.BranchModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormBranchRepository implements BranchRepository
var _ org.BranchRepository = (*GormBranchRepository)(nil)
