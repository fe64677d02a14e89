package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/domain/shared"
)

// TenantModel is the persistence model for the Tenant domain entity.
type TenantModel struct {
	AggregateModel
	Code          string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name          string                `gorm:"type:varchar(200);not null"`
	Domain        string                `gorm:"type:varchar(200);uniqueIndex"`
	Status        platform.TenantStatus `gorm:"type:varchar(20);not null;default:'trial'"`
	PackageID     *uuid.UUID            `gorm:"type:uuid;index"`
	ContactName   string                `gorm:"type:varchar(100)"`
	ContactPhone  string                `gorm:"type:varchar(50)"`
	ContactEmail  string                `gorm:"type:varchar(200)"`
	TrialEndsAt   *time.Time            `gorm:"index"`
	SuspendReason string                `gorm:"type:varchar(500)"`
	// Embedded config fields
	ConfigMaxUsers        int     `gorm:"column:config_max_users;not null;default:5"`
	ConfigMaxBranches     int     `gorm:"column:config_max_branches;not null;default:2"`
	ConfigMaxCustomers    int     `gorm:"column:config_max_customers;not null;default:1000"`
	ConfigCurrency        string  `gorm:"column:config_currency;type:varchar(10);default:'USD'"`
	ConfigTimezone        string  `gorm:"column:config_timezone;type:varchar(50);default:'UTC'"`
	ConfigLocale          string  `gorm:"column:config_locale;type:varchar(20);default:'en-US'"`
	ConfigLoyaltyEarnRate float64 `gorm:"column:config_loyalty_earn_rate;not null;default:1"`
	Notes                 string  `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant entity.
func (m *TenantModel) ToDomain() *platform.Tenant {
	return &platform.Tenant{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		Code:          m.Code,
		Name:          m.Name,
		Domain:        m.Domain,
		Status:        m.Status,
		PackageID:     m.PackageID,
		ContactName:   m.ContactName,
		ContactPhone:  m.ContactPhone,
		ContactEmail:  m.ContactEmail,
		TrialEndsAt:   m.TrialEndsAt,
		SuspendReason: m.SuspendReason,
		Config: platform.TenantConfig{
			MaxUsers:        m.ConfigMaxUsers,
			MaxBranches:     m.ConfigMaxBranches,
			MaxCustomers:    m.ConfigMaxCustomers,
			Currency:        m.ConfigCurrency,
			Timezone:        m.ConfigTimezone,
			Locale:          m.ConfigLocale,
			LoyaltyEarnRate: m.ConfigLoyaltyEarnRate,
		},
		Notes: m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Tenant entity.
func (m *TenantModel) FromDomain(t *platform.Tenant) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Code = t.Code
	m.Name = t.Name
	m.Domain = t.Domain
	m.Status = t.Status
	m.PackageID = t.PackageID
	m.ContactName = t.ContactName
	m.ContactPhone = t.ContactPhone
	m.ContactEmail = t.ContactEmail
	m.TrialEndsAt = t.TrialEndsAt
	m.SuspendReason = t.SuspendReason
	m.ConfigMaxUsers = t.Config.MaxUsers
	m.ConfigMaxBranches = t.Config.MaxBranches
	m.ConfigMaxCustomers = t.Config.MaxCustomers
	m.ConfigCurrency = t.Config.Currency
	m.ConfigTimezone = t.Config.Timezone
	m.ConfigLocale = t.Config.Locale
	m.ConfigLoyaltyEarnRate = t.Config.LoyaltyEarnRate
	m.Notes = t.Notes
}

// TenantModelFromDomain creates a new persistence model from a domain Tenant entity.
func TenantModelFromDomain(t *platform.Tenant) *TenantModel {
	m := &TenantModel{}
	m.FromDomain(t)
	return m
}

// ModuleModel is the persistence model for the Module catalog entry.
type ModuleModel struct {
	ID          uuid.UUID          `gorm:"type:uuid;primary_key"`
	Key         platform.ModuleKey `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string             `gorm:"type:varchar(100);not null"`
	Description string             `gorm:"type:text"`
	Category    string             `gorm:"type:varchar(50)"`
	IsCore      bool               `gorm:"not null;default:false"`
	Enabled     bool               `gorm:"not null;default:true"`
	SortOrder   int                `gorm:"not null;default:0"`
	CreatedAt   time.Time          `gorm:"not null"`
	UpdatedAt   time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ModuleModel) TableName() string {
	return "modules"
}

// ToDomain converts the persistence model to a domain Module entity.
func (m *ModuleModel) ToDomain() *platform.Module {
	return &platform.Module{
		ID:          m.ID,
		Key:         m.Key,
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		IsCore:      m.IsCore,
		Enabled:     m.Enabled,
		SortOrder:   m.SortOrder,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Module entity.
func (m *ModuleModel) FromDomain(mod *platform.Module) {
	m.ID = mod.ID
	m.Key = mod.Key
	m.Name = mod.Name
	m.Description = mod.Description
	m.Category = mod.Category
	m.IsCore = mod.IsCore
	m.Enabled = mod.Enabled
	m.SortOrder = mod.SortOrder
	m.CreatedAt = mod.CreatedAt
	m.UpdatedAt = mod.UpdatedAt
}

// ModuleModelFromDomain creates a new persistence model from a domain Module entity.
func ModuleModelFromDomain(mod *platform.Module) *ModuleModel {
	m := &ModuleModel{}
	m.FromDomain(mod)
	return m
}

// PackageModel is the persistence model for the Package domain entity.
type PackageModel struct {
	ID           uuid.UUID            `gorm:"type:uuid;primary_key"`
	Code         string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name         string               `gorm:"type:varchar(100);not null"`
	Description  string               `gorm:"type:text"`
	ModuleKeys   []platform.ModuleKey `gorm:"type:jsonb;serializer:json"`
	MaxUsers     int                  `gorm:"not null;default:0"`
	MaxBranches  int                  `gorm:"not null;default:0"`
	MaxCustomers int                  `gorm:"not null;default:0"`
	PriceMonthly decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Active       bool                 `gorm:"not null;default:true"`
	SortOrder    int                  `gorm:"not null;default:0"`
	CreatedAt    time.Time            `gorm:"not null"`
	UpdatedAt    time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PackageModel) TableName() string {
	return "packages"
}

// ToDomain converts the persistence model to a domain Package entity.
func (m *PackageModel) ToDomain() *platform.Package {
	return &platform.Package{
		ID:           m.ID,
		Code:         m.Code,
		Name:         m.Name,
		Description:  m.Description,
		ModuleKeys:   m.ModuleKeys,
		MaxUsers:     m.MaxUsers,
		MaxBranches:  m.MaxBranches,
		MaxCustomers: m.MaxCustomers,
		PriceMonthly: m.PriceMonthly,
		Active:       m.Active,
		SortOrder:    m.SortOrder,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Package entity.
func (m *PackageModel) FromDomain(p *platform.Package) {
	m.ID = p.ID
	m.Code = p.Code
	m.Name = p.Name
	m.Description = p.Description
	m.ModuleKeys = p.ModuleKeys
	m.MaxUsers = p.MaxUsers
	m.MaxBranches = p.MaxBranches
	m.MaxCustomers = p.MaxCustomers
	m.PriceMonthly = p.PriceMonthly
	m.Active = p.Active
	m.SortOrder = p.SortOrder
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
}

// PackageModelFromDomain creates a new persistence model from a domain Package entity.
func PackageModelFromDomain(p *platform.Package) *PackageModel {
	m := &PackageModel{}
	m.FromDomain(p)
	return m
}

// SubscriptionModel is the persistence model for the Subscription domain entity.
type SubscriptionModel struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primary_key"`
	TenantID        uuid.UUID                   `gorm:"type:uuid;not null;index"`
	PackageID       uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Status          platform.SubscriptionStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	StartsAt        time.Time                   `gorm:"not null"`
	ExpiresAt       *time.Time                  `gorm:"index"`
	CancelledAt     *time.Time
	AddonModuleKeys []platform.ModuleKey `gorm:"type:jsonb;serializer:json"`
	CreatedAt       time.Time            `gorm:"not null"`
	UpdatedAt       time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

// ToDomain converts the persistence model to a domain Subscription entity.
func (m *SubscriptionModel) ToDomain() *platform.Subscription {
	return &platform.Subscription{
		ID:              m.ID,
		TenantID:        m.TenantID,
		PackageID:       m.PackageID,
		Status:          m.Status,
		StartsAt:        m.StartsAt,
		ExpiresAt:       m.ExpiresAt,
		CancelledAt:     m.CancelledAt,
		AddonModuleKeys: m.AddonModuleKeys,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Subscription entity.
func (m *SubscriptionModel) FromDomain(s *platform.Subscription) {
	m.ID = s.ID
	m.TenantID = s.TenantID
	m.PackageID = s.PackageID
	m.Status = s.Status
	m.StartsAt = s.StartsAt
	m.ExpiresAt = s.ExpiresAt
	m.CancelledAt = s.CancelledAt
	m.AddonModuleKeys = s.AddonModuleKeys
	m.CreatedAt = s.CreatedAt
	m.UpdatedAt = s.UpdatedAt
}

// SubscriptionModelFromDomain creates a new persistence model from a domain Subscription entity.
func SubscriptionModelFromDomain(s *platform.Subscription) *SubscriptionModel {
	m := &SubscriptionModel{}
	m.FromDomain(s)
	return m
}

// AnnouncementModel is the persistence model for the Announcement domain entity.
type AnnouncementModel struct {
	ID        uuid.UUID                     `gorm:"type:uuid;primary_key"`
	Title     string                        `gorm:"type:varchar(200);not null"`
	Body      string                        `gorm:"type:text;not null"`
	Severity  platform.AnnouncementSeverity `gorm:"type:varchar(20);not null;default:'info'"`
	Audience  []uuid.UUID                   `gorm:"type:jsonb;serializer:json"`
	Published bool                          `gorm:"not null;default:false;index"`
	PublishAt time.Time                     `gorm:"not null;index"`
	ExpiresAt *time.Time                    `gorm:"index"`
	CreatedBy *uuid.UUID                    `gorm:"type:uuid"`
	CreatedAt time.Time                     `gorm:"not null"`
	UpdatedAt time.Time                     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AnnouncementModel) TableName() string {
	return "announcements"
}

// ToDomain converts the persistence model to a domain Announcement entity.
func (m *AnnouncementModel) ToDomain() *platform.Announcement {
	return &platform.Announcement{
		ID:        m.ID,
		Title:     m.Title,
		Body:      m.Body,
		Severity:  m.Severity,
		Audience:  m.Audience,
		Published: m.Published,
		PublishAt: m.PublishAt,
		ExpiresAt: m.ExpiresAt,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Announcement entity.
func (m *AnnouncementModel) FromDomain(a *platform.Announcement) {
	m.ID = a.ID
	m.Title = a.Title
	m.Body = a.Body
	m.Severity = a.Severity
	m.Audience = a.Audience
	m.Published = a.Published
	m.PublishAt = a.PublishAt
	m.ExpiresAt = a.ExpiresAt
	m.CreatedBy = a.CreatedBy
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
}

// AnnouncementModelFromDomain creates a new persistence model from a domain Announcement entity.
func AnnouncementModelFromDomain(a *platform.Announcement) *AnnouncementModel {
	m := &AnnouncementModel{}
	m.FromDomain(a)
	return m
}

// BackupModel is the persistence model for the Backup domain entity.
type BackupModel struct {
	TenantAggregateModel
	Status      platform.BackupStatus  `gorm:"type:varchar(20);not null;default:'pending';index"`
	Trigger     platform.BackupTrigger `gorm:"type:varchar(20);not null;default:'manual'"`
	ObjectKey   string                 `gorm:"type:varchar(500)"`
	SizeBytes   int64                  `gorm:"not null;default:0"`
	Checksum    string                 `gorm:"type:varchar(64)"`
	Error       string                 `gorm:"type:text"`
	RequestedBy *uuid.UUID             `gorm:"type:uuid"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	ExpiresAt   *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (BackupModel) TableName() string {
	return "tenant_backups"
}

// ToDomain converts the persistence model to a domain Backup entity.
func (m *BackupModel) ToDomain() *platform.Backup {
	b := &platform.Backup{
		Status:      m.Status,
		Trigger:     m.Trigger,
		ObjectKey:   m.ObjectKey,
		SizeBytes:   m.SizeBytes,
		Checksum:    m.Checksum,
		Error:       m.Error,
		RequestedBy: m.RequestedBy,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
		ExpiresAt:   m.ExpiresAt,
	}
	m.PopulateTenantAggregateRoot(&b.TenantAggregateRoot)
	return b
}

// FromDomain populates the persistence model from a domain Backup entity.
func (m *BackupModel) FromDomain(b *platform.Backup) {
	m.FromDomainTenantAggregateRoot(b.TenantAggregateRoot)
	m.Status = b.Status
	m.Trigger = b.Trigger
	m.ObjectKey = b.ObjectKey
	m.SizeBytes = b.SizeBytes
	m.Checksum = b.Checksum
	m.Error = b.Error
	m.RequestedBy = b.RequestedBy
	m.StartedAt = b.StartedAt
	m.CompletedAt = b.CompletedAt
	m.ExpiresAt = b.ExpiresAt
}

// BackupModelFromDomain creates a new persistence model from a domain Backup entity.
func BackupModelFromDomain(b *platform.Backup) *BackupModel {
	m := &BackupModel{}
	m.FromDomain(b)
	return m
}
