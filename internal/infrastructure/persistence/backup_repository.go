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

// GormBackupRepository implements BackupRepository using GORM
type GormBackupRepository struct {
	db *gorm.DB
}

// NewGormBackupRepository creates a new GormBackupRepository
func NewGormBackupRepository(db *gorm.DB) *GormBackupRepository {
	return &GormBackupRepository{db: db}
}

// FindByID finds a backup by its ID
func (r *GormBackupRepository) FindByID(ctx context.Context, id uuid.UUID) (*platform.Backup, error) {
	var model models.BackupModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a backup scoped to a tenant
func (r *GormBackupRepository) FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*platform.Backup, error) {
	var model models.BackupModel
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

// FindAllForTenant returns the tenant's backups matching the filter
func (r *GormBackupRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]platform.Backup, error) {
	var backupModels []models.BackupModel
	query := r.db.WithContext(ctx).Model(&models.BackupModel{}).
		Scopes(TenantScope(tenantID))

	if status, ok := filter.Filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	// Apply sorting with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, BackupSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortOrder)

	// Apply pagination
	query = query.Offset(filter.Offset()).Limit(filter.Limit())

	if err := query.Find(&backupModels).Error; err != nil {
		return nil, err
	}

	// Convert to domain entities
	backups := make([]platform.Backup, len(backupModels))
	for i, model := range backupModels {
		backups[i] = *model.ToDomain()
	}

	return backups, nil
}

// CountForTenant returns the number of backups matching the filter
func (r *GormBackupRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.BackupModel{}).
		Scopes(TenantScope(tenantID))

	if status, ok := filter.Filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// HasActiveBackup reports whether the tenant has a pending or running backup
func (r *GormBackupRepository) HasActiveBackup(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.BackupModel{}).
		Scopes(TenantScope(tenantID)).
		Where("status IN ?", []platform.BackupStatus{platform.BackupStatusPending, platform.BackupStatusRunning}).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindExpired returns completed backups whose retention lapsed before now
func (r *GormBackupRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]platform.Backup, error) {
	if limit <= 0 {
		limit = 100
	}
	var backupModels []models.BackupModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", platform.BackupStatusCompleted).
		Where("expires_at IS NOT NULL").
		Where("expires_at < ?", now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&backupModels).Error; err != nil {
		return nil, err
	}

	backups := make([]platform.Backup, len(backupModels))
	for i, model := range backupModels {
		backups[i] = *model.ToDomain()
	}
	return backups, nil
}

// FindStaleActive returns pending or running backups created before the
// cutoff, oldest first
func (r *GormBackupRepository) FindStaleActive(ctx context.Context, cutoff time.Time, limit int) ([]platform.Backup, error) {
	if limit <= 0 {
		limit = 100
	}
	var backupModels []models.BackupModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []platform.BackupStatus{platform.BackupStatusPending, platform.BackupStatusRunning}).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&backupModels).Error; err != nil {
		return nil, err
	}

	backups := make([]platform.Backup, len(backupModels))
	for i, model := range backupModels {
		backups[i] = *model.ToDomain()
	}
	return backups, nil
}

// Save creates or updates a backup with optimistic locking. Status moves
// through pending, running and a terminal state; the version guard keeps a
// slow worker from clobbering a backup another worker already finished.
func (r *GormBackupRepository) Save(ctx context.Context, backup *platform.Backup) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.BackupModel
		if err := tx.Select("version").Where("id = ?", backup.GetID()).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				model := models.BackupModelFromDomain(backup)
				return tx.Create(model).Error
			}
			return err
		}

		expectedVersion := backup.GetVersion() - 1
		if current.Version != expectedVersion {
			return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The backup record has been modified by another transaction")
		}

		model := models.BackupModelFromDomain(backup)
		result := tx.Model(&models.BackupModel{}).
			Where("id = ? AND version = ?", backup.GetID(), expectedVersion).
			Select("*").Omit("id", "tenant_id", "created_at").
			Updates(model)

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The backup record has been modified by another transaction")
		}
		return nil
	})
}

// Delete removes a backup record
func (r *GormBackupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.BackupModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormBackupRepository implements BackupRepository
var _ platform.BackupRepository = (*GormBackupRepository)(nil)
