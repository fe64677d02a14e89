package platform

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/retailsuite/backend/internal/domain/shared"
)

// AnnouncementSeverity indicates how prominently an announcement should be
// displayed to tenants.
type AnnouncementSeverity string

const (
	SeverityInfo     AnnouncementSeverity = "info"
	SeverityWarning  AnnouncementSeverity = "warning"
	SeverityCritical AnnouncementSeverity = "critical"
)

// IsValid returns true if the severity is a known value.
func (s AnnouncementSeverity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	default:
		return false
	}
}

func (s AnnouncementSeverity) String() string {
	return string(s)
}

// Announcement is a platform-plane message shown to tenant users. It is
// managed by platform owners; tenants only ever read the published set.
type Announcement struct {
	ID       uuid.UUID            `gorm:"type:uuid;primaryKey"`
	Title    string               `gorm:"type:varchar(200);not null"`
	Body     string               `gorm:"type:text;not null"`
	Severity AnnouncementSeverity `gorm:"type:varchar(20);not null;default:'info'"`

	// Audience restricts visibility to the listed tenants. Empty means
	// every tenant sees the announcement.
	Audience []uuid.UUID `gorm:"serializer:json;type:jsonb"`

	Published bool       `gorm:"not null;default:false"`
	PublishAt time.Time  `gorm:"not null"`
	ExpiresAt *time.Time `gorm:"index"`

	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Announcement) TableName() string {
	return "announcements"
}

// NewAnnouncement creates an unpublished announcement. PublishAt defaults to
// now when zero.
func NewAnnouncement(title, body string, severity AnnouncementSeverity, publishAt time.Time) (*Announcement, error) {
	if err := validateAnnouncementTitle(title); err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, shared.NewDomainError("INVALID_ANNOUNCEMENT_BODY", "Announcement body cannot be empty")
	}
	if !severity.IsValid() {
		return nil, shared.NewDomainError("INVALID_SEVERITY", "Severity must be info, warning or critical")
	}
	if publishAt.IsZero() {
		publishAt = time.Now()
	}

	now := time.Now()
	return &Announcement{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(title),
		Body:      body,
		Severity:  severity,
		Published: false,
		PublishAt: publishAt,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Update changes title, body and severity. Editing a published announcement
// is allowed; the change is visible immediately.
func (a *Announcement) Update(title, body string, severity AnnouncementSeverity) error {
	if err := validateAnnouncementTitle(title); err != nil {
		return err
	}
	if strings.TrimSpace(body) == "" {
		return shared.NewDomainError("INVALID_ANNOUNCEMENT_BODY", "Announcement body cannot be empty")
	}
	if !severity.IsValid() {
		return shared.NewDomainError("INVALID_SEVERITY", "Severity must be info, warning or critical")
	}

	a.Title = strings.TrimSpace(title)
	a.Body = body
	a.Severity = severity
	a.UpdatedAt = time.Now()
	return nil
}

// SetWindow sets the publish window. ExpiresAt must be after PublishAt when
// present.
func (a *Announcement) SetWindow(publishAt time.Time, expiresAt *time.Time) error {
	if publishAt.IsZero() {
		publishAt = time.Now()
	}
	if expiresAt != nil && !expiresAt.After(publishAt) {
		return shared.NewDomainError("INVALID_WINDOW", "Expiry must be after the publish time")
	}

	a.PublishAt = publishAt
	a.ExpiresAt = expiresAt
	a.UpdatedAt = time.Now()
	return nil
}

// SetAudience restricts the announcement to the given tenants. An empty list
// makes it visible to everyone.
func (a *Announcement) SetAudience(tenantIDs []uuid.UUID) {
	a.Audience = tenantIDs
	a.UpdatedAt = time.Now()
}

// Publish makes the announcement eligible for tenant delivery.
func (a *Announcement) Publish() error {
	if a.Published {
		return shared.NewDomainError("ALREADY_PUBLISHED", "Announcement is already published")
	}
	a.Published = true
	a.UpdatedAt = time.Now()
	return nil
}

// Unpublish withdraws the announcement from tenant delivery.
func (a *Announcement) Unpublish() error {
	if !a.Published {
		return shared.NewDomainError("NOT_PUBLISHED", "Announcement is not published")
	}
	a.Published = false
	a.UpdatedAt = time.Now()
	return nil
}

// IsActiveAt reports whether the announcement should be delivered at the
// given instant: published, window open, not expired.
func (a *Announcement) IsActiveAt(t time.Time) bool {
	if !a.Published {
		return false
	}
	if t.Before(a.PublishAt) {
		return false
	}
	if a.ExpiresAt != nil && !t.Before(*a.ExpiresAt) {
		return false
	}
	return true
}

// VisibleTo reports whether the given tenant is in the audience. An empty
// audience means every tenant.
func (a *Announcement) VisibleTo(tenantID uuid.UUID) bool {
	if len(a.Audience) == 0 {
		return true
	}
	for _, id := range a.Audience {
		if id == tenantID {
			return true
		}
	}
	return false
}

// AnnouncementRepository defines persistence operations for announcements.
type AnnouncementRepository interface {
	// FindByID finds an announcement by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Announcement, error)

	// FindAll returns all announcements matching the filter (owner plane)
	FindAll(ctx context.Context, filter shared.Filter) ([]Announcement, error)

	// FindActiveForTenant returns published announcements whose window covers
	// now and whose audience includes the tenant, newest first
	FindActiveForTenant(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]Announcement, error)

	// Save creates or updates an announcement
	Save(ctx context.Context, announcement *Announcement) error

	// Delete removes an announcement
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the number of announcements matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

func validateAnnouncementTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("INVALID_ANNOUNCEMENT_TITLE", "Announcement title cannot be empty")
	}
	if len(title) > 200 {
		return shared.NewDomainError("INVALID_ANNOUNCEMENT_TITLE", "Announcement title cannot exceed 200 characters")
	}
	return nil
}
