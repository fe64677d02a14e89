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

// GormAnnouncementRepository implements AnnouncementRepository using GORM
type GormAnnouncementRepository struct {
	db *gorm.DB
}

// NewGormAnnouncementRepository creates a new GormAnnouncementRepository
func NewGormAnnouncementRepository(db *gorm.DB) *GormAnnouncementRepository {
	return &GormAnnouncementRepository{db: db}
}

// FindByID finds an announcement by its ID
func (r *GormAnnouncementRepository) FindByID(ctx context.Context, id uuid.UUID) (*platform.Announcement, error) {
	var model models.AnnouncementModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns all announcements matching the filter (owner plane)
func (r *GormAnnouncementRepository) FindAll(ctx context.Context, filter shared.Filter) ([]platform.Announcement, error) {
	var announcementModels []models.AnnouncementModel
	query := r.db.WithContext(ctx).Model(&models.AnnouncementModel{})

	// Apply keyword search
	if filter.Search != "" {
		keyword := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR body ILIKE ?", keyword, keyword)
	}

	if published, ok := filter.Filters["published"].(bool); ok {
		query = query.Where("published = ?", published)
	}

	// Apply sorting with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, AnnouncementSortFields, "publish_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortOrder)

	// Apply pagination
	query = query.Offset(filter.Offset()).Limit(filter.Limit())

	if err := query.Find(&announcementModels).Error; err != nil {
		return nil, err
	}

	// Convert to domain entities
	announcements := make([]platform.Announcement, len(announcementModels))
	for i, model := range announcementModels {
		announcements[i] = *model.ToDomain()
	}

	return announcements, nil
}

// FindActiveForTenant returns published announcements whose window covers now
// and whose audience includes the tenant, newest first. The audience column is
// a JSON array, so the membership check runs in Go after the window filter.
func (r *GormAnnouncementRepository) FindActiveForTenant(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]platform.Announcement, error) {
	var announcementModels []models.AnnouncementModel
	if err := r.db.WithContext(ctx).
		Where("published = ?", true).
		Where("publish_at <= ?", now).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("publish_at DESC").
		Find(&announcementModels).Error; err != nil {
		return nil, err
	}

	announcements := make([]platform.Announcement, 0, len(announcementModels))
	for _, model := range announcementModels {
		announcement := model.ToDomain()
		if announcement.VisibleTo(tenantID) {
			announcements = append(announcements, *announcement)
		}
	}

	return announcements, nil
}

// Save creates or updates an announcement
func (r *GormAnnouncementRepository) Save(ctx context.Context, announcement *platform.Announcement) error {
	model := models.AnnouncementModelFromDomain(announcement)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes an announcement
func (r *GormAnnouncementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.AnnouncementModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count returns the number of announcements matching the filter
func (r *GormAnnouncementRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.AnnouncementModel{})

	// Apply keyword search
	if filter.Search != "" {
		keyword := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR body ILIKE ?", keyword, keyword)
	}

	if published, ok := filter.Filters["published"].(bool); ok {
		query = query.Where("published = ?", published)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// Ensure GormAnnouncementRepository implements AnnouncementRepository
var _ platform.AnnouncementRepository = (*GormAnnouncementRepository)(nil)
