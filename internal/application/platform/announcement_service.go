package platform

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/domain/shared"
)

// AnnouncementService manages platform announcements: owner-plane CRUD and
// publishing, plus the tenant-plane feed of currently active announcements.
type AnnouncementService struct {
	announcementRepo platform.AnnouncementRepository
	logger           *zap.Logger
}

// NewAnnouncementService creates a new announcement service
func NewAnnouncementService(
	announcementRepo platform.AnnouncementRepository,
	logger *zap.Logger,
) *AnnouncementService {
	return &AnnouncementService{
		announcementRepo: announcementRepo,
		logger:           logger,
	}
}

// CreateAnnouncementInput contains input for creating an announcement
type CreateAnnouncementInput struct {
	Title     string
	Body      string
	Severity  string
	PublishAt time.Time   // Zero defaults to now
	ExpiresAt *time.Time  // nil = no expiry
	Audience  []uuid.UUID // Empty = all tenants
	CreatedBy *uuid.UUID
}

// UpdateAnnouncementInput contains input for updating an announcement
type UpdateAnnouncementInput struct {
	ID        uuid.UUID
	Title     *string
	Body      *string
	Severity  *string
	PublishAt *time.Time
	ExpiresAt *time.Time
	// ClearExpiry removes the expiry when true; ExpiresAt wins when both set
	ClearExpiry bool
	Audience    *[]uuid.UUID
}

// AnnouncementDTO represents an announcement
type AnnouncementDTO struct {
	ID        uuid.UUID   `json:"id"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	Severity  string      `json:"severity"`
	Audience  []uuid.UUID `json:"audience,omitempty"`
	Published bool        `json:"published"`
	PublishAt time.Time   `json:"publish_at"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
	CreatedBy *uuid.UUID  `json:"created_by,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// AnnouncementFilter represents filter for listing announcements
type AnnouncementFilter struct {
	Page     int
	PageSize int
}

// AnnouncementListResult represents a paginated announcement list
type AnnouncementListResult struct {
	Announcements []AnnouncementDTO `json:"announcements"`
	Total         int64             `json:"total"`
	Page          int               `json:"page"`
	PageSize      int               `json:"page_size"`
	TotalPages    int               `json:"total_pages"`
}

// Create creates an unpublished announcement
func (s *AnnouncementService) Create(ctx context.Context, input CreateAnnouncementInput) (*AnnouncementDTO, error) {
	announcement, err := platform.NewAnnouncement(input.Title, input.Body,
		platform.AnnouncementSeverity(input.Severity), input.PublishAt)
	if err != nil {
		return nil, err
	}

	if input.ExpiresAt != nil {
		if err := announcement.SetWindow(announcement.PublishAt, input.ExpiresAt); err != nil {
			return nil, err
		}
	}
	if len(input.Audience) > 0 {
		announcement.SetAudience(input.Audience)
	}
	announcement.CreatedBy = input.CreatedBy

	if err := s.announcementRepo.Save(ctx, announcement); err != nil {
		s.logger.Error("Failed to create announcement", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create announcement")
	}

	s.logger.Info("Announcement created",
		zap.String("announcement_id", announcement.ID.String()),
		zap.String("severity", string(announcement.Severity)))

	return toAnnouncementDTO(announcement), nil
}

// GetByID retrieves an announcement by ID
func (s *AnnouncementService) GetByID(ctx context.Context, id uuid.UUID) (*AnnouncementDTO, error) {
	announcement, err := s.findAnnouncement(ctx, id)
	if err != nil {
		return nil, err
	}
	return toAnnouncementDTO(announcement), nil
}

// List returns a paginated list of all announcements (owner plane)
func (s *AnnouncementService) List(ctx context.Context, filter AnnouncementFilter) (*AnnouncementListResult, error) {
	sharedFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		sharedFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		sharedFilter.PageSize = filter.PageSize
	}
	if sharedFilter.PageSize > 100 {
		sharedFilter.PageSize = 100
	}

	announcements, err := s.announcementRepo.FindAll(ctx, sharedFilter)
	if err != nil {
		s.logger.Error("Failed to list announcements", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list announcements")
	}

	total, err := s.announcementRepo.Count(ctx, sharedFilter)
	if err != nil {
		s.logger.Error("Failed to count announcements", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to count announcements")
	}

	totalPages := int(total) / sharedFilter.PageSize
	if int(total)%sharedFilter.PageSize > 0 {
		totalPages++
	}

	dtos := make([]AnnouncementDTO, len(announcements))
	for i := range announcements {
		dtos[i] = *toAnnouncementDTO(&announcements[i])
	}

	return &AnnouncementListResult{
		Announcements: dtos,
		Total:         total,
		Page:          sharedFilter.Page,
		PageSize:      sharedFilter.PageSize,
		TotalPages:    totalPages,
	}, nil
}

// ListActiveForTenant returns the published announcements currently visible
// to the tenant, newest first (tenant plane)
func (s *AnnouncementService) ListActiveForTenant(ctx context.Context, tenantID uuid.UUID) ([]AnnouncementDTO, error) {
	announcements, err := s.announcementRepo.FindActiveForTenant(ctx, tenantID, time.Now())
	if err != nil {
		s.logger.Error("Failed to load active announcements", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load announcements")
	}

	dtos := make([]AnnouncementDTO, len(announcements))
	for i := range announcements {
		dtos[i] = *toAnnouncementDTO(&announcements[i])
	}
	return dtos, nil
}

// Update updates an announcement. Published announcements may be edited; the
// change is visible immediately.
func (s *AnnouncementService) Update(ctx context.Context, input UpdateAnnouncementInput) (*AnnouncementDTO, error) {
	announcement, err := s.findAnnouncement(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil || input.Body != nil || input.Severity != nil {
		title := announcement.Title
		body := announcement.Body
		severity := announcement.Severity
		if input.Title != nil {
			title = *input.Title
		}
		if input.Body != nil {
			body = *input.Body
		}
		if input.Severity != nil {
			severity = platform.AnnouncementSeverity(*input.Severity)
		}
		if err := announcement.Update(title, body, severity); err != nil {
			return nil, err
		}
	}

	if input.PublishAt != nil || input.ExpiresAt != nil || input.ClearExpiry {
		publishAt := announcement.PublishAt
		expiresAt := announcement.ExpiresAt
		if input.PublishAt != nil {
			publishAt = *input.PublishAt
		}
		if input.ClearExpiry {
			expiresAt = nil
		}
		if input.ExpiresAt != nil {
			expiresAt = input.ExpiresAt
		}
		if err := announcement.SetWindow(publishAt, expiresAt); err != nil {
			return nil, err
		}
	}

	if input.Audience != nil {
		announcement.SetAudience(*input.Audience)
	}

	if err := s.announcementRepo.Save(ctx, announcement); err != nil {
		s.logger.Error("Failed to update announcement", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update announcement")
	}

	return toAnnouncementDTO(announcement), nil
}

// Publish makes an announcement eligible for tenant delivery
func (s *AnnouncementService) Publish(ctx context.Context, id uuid.UUID) (*AnnouncementDTO, error) {
	announcement, err := s.findAnnouncement(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := announcement.Publish(); err != nil {
		return nil, err
	}
	if err := s.announcementRepo.Save(ctx, announcement); err != nil {
		s.logger.Error("Failed to publish announcement", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to publish announcement")
	}

	s.logger.Info("Announcement published", zap.String("announcement_id", id.String()))

	return toAnnouncementDTO(announcement), nil
}

// Unpublish withdraws an announcement from tenant delivery
func (s *AnnouncementService) Unpublish(ctx context.Context, id uuid.UUID) (*AnnouncementDTO, error) {
	announcement, err := s.findAnnouncement(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := announcement.Unpublish(); err != nil {
		return nil, err
	}
	if err := s.announcementRepo.Save(ctx, announcement); err != nil {
		s.logger.Error("Failed to unpublish announcement", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to unpublish announcement")
	}

	s.logger.Info("Announcement unpublished", zap.String("announcement_id", id.String()))

	return toAnnouncementDTO(announcement), nil
}

// Delete removes an announcement. Published announcements may be deleted.
func (s *AnnouncementService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findAnnouncement(ctx, id); err != nil {
		return err
	}

	if err := s.announcementRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete announcement", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete announcement")
	}

	s.logger.Info("Announcement deleted", zap.String("announcement_id", id.String()))

	return nil
}

// findAnnouncement loads an announcement or maps the miss to a domain error
func (s *AnnouncementService) findAnnouncement(ctx context.Context, id uuid.UUID) (*platform.Announcement, error) {
	announcement, err := s.announcementRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ANNOUNCEMENT_NOT_FOUND", "Announcement not found")
		}
		s.logger.Error("Failed to find announcement", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find announcement")
	}
	return announcement, nil
}

// toAnnouncementDTO converts a domain Announcement to AnnouncementDTO
func toAnnouncementDTO(a *platform.Announcement) *AnnouncementDTO {
	return &AnnouncementDTO{
		ID:        a.ID,
		Title:     a.Title,
		Body:      a.Body,
		Severity:  string(a.Severity),
		Audience:  a.Audience,
		Published: a.Published,
		PublishAt: a.PublishAt,
		ExpiresAt: a.ExpiresAt,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
