package platform

import (
	"strings"
	"time"

	"github.com/retailsuite/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantStatus represents the status of a tenant
type TenantStatus string

const (
	TenantStatusTrial     TenantStatus = "trial"     // Evaluation period, full access
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended" // Blocked due to payment/violation issues
	TenantStatusInactive  TenantStatus = "inactive"  // Retired, kept for bookkeeping
)

// PlatformTenantCode is the reserved code of the tenant that hosts platform
// operators. Users of this tenant with the owner role manage all other
// tenants through the owner plane.
const PlatformTenantCode = "PLATFORM"

// TenantConfig holds configurable settings and subscription limits for a tenant.
// The limits are overwritten whenever the tenant is subscribed to a package.
type TenantConfig struct {
	MaxUsers        int     `json:"max_users"`
	MaxBranches     int     `json:"max_branches"`
	MaxCustomers    int     `json:"max_customers"`
	Currency        string  `json:"currency"`
	Timezone        string  `json:"timezone"`
	Locale          string  `json:"locale"`
	LoyaltyEarnRate float64 `json:"loyalty_earn_rate"` // Loyalty points earned per currency unit spent
}

// DefaultTenantConfig returns the default configuration for a new tenant
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		MaxUsers:        5,
		MaxBranches:     2,
		MaxCustomers:    1000,
		Currency:        "USD",
		Timezone:        "UTC",
		Locale:          "en-US",
		LoyaltyEarnRate: 1.0,
	}
}

// Tenant represents a customer organization in the multi-tenant system.
// It is the aggregate root for all owner-plane tenant operations.
type Tenant struct {
	shared.BaseAggregateRoot
	Code          string       `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name          string       `gorm:"type:varchar(200);not null"`
	Domain        string       `gorm:"type:varchar(200);uniqueIndex"` // Custom subdomain
	Status        TenantStatus `gorm:"type:varchar(20);not null;default:'trial'"`
	PackageID     *uuid.UUID   `gorm:"type:uuid;index"` // Current package, set via subscription
	ContactName   string       `gorm:"type:varchar(100)"`
	ContactPhone  string       `gorm:"type:varchar(50)"`
	ContactEmail  string       `gorm:"type:varchar(200)"`
	TrialEndsAt   *time.Time
	SuspendReason string       `gorm:"type:varchar(500)"`
	Config        TenantConfig `gorm:"embedded;embeddedPrefix:config_"`
	Notes         string       `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Tenant) TableName() string {
	return "tenants"
}

// NewTenant creates a new active tenant with required fields
func NewTenant(code, name string) (*Tenant, error) {
	if err := validateTenantCode(code); err != nil {
		return nil, err
	}
	if err := validateTenantName(name); err != nil {
		return nil, err
	}

	tenant := &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Status:            TenantStatusActive,
		Config:            DefaultTenantConfig(),
	}

	tenant.AddDomainEvent(NewTenantCreatedEvent(tenant))

	return tenant, nil
}

// NewTrialTenant creates a new tenant in trial status
func NewTrialTenant(code, name string, trialDays int) (*Tenant, error) {
	if trialDays <= 0 {
		return nil, shared.NewDomainError("INVALID_TRIAL_DAYS", "Trial days must be positive")
	}

	tenant, err := NewTenant(code, name)
	if err != nil {
		return nil, err
	}

	tenant.Status = TenantStatusTrial
	trialEnds := time.Now().AddDate(0, 0, trialDays)
	tenant.TrialEndsAt = &trialEnds

	return tenant, nil
}

// Update updates the tenant's basic information
func (t *Tenant) Update(name string) error {
	if err := validateTenantName(name); err != nil {
		return err
	}

	t.Name = name
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	t.AddDomainEvent(NewTenantUpdatedEvent(t))

	return nil
}

// SetContact sets the tenant's contact information
func (t *Tenant) SetContact(contactName, phone, email string) error {
	if contactName != "" && len(contactName) > 100 {
		return shared.NewDomainError("INVALID_CONTACT_NAME", "Contact name cannot exceed 100 characters")
	}
	if phone != "" && len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}
	if email != "" && len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}

	t.ContactName = contactName
	t.ContactPhone = phone
	t.ContactEmail = email
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// SetDomain sets the tenant's custom domain/subdomain
func (t *Tenant) SetDomain(domain string) error {
	if domain != "" && len(domain) > 200 {
		return shared.NewDomainError("INVALID_DOMAIN", "Domain cannot exceed 200 characters")
	}
	if domain != "" {
		domain = strings.ToLower(strings.TrimSpace(domain))
	}

	t.Domain = domain
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// AssignPackage records the tenant's current package and applies its limits.
// Subscribing a trial tenant ends the trial.
func (t *Tenant) AssignPackage(pkg *Package) error {
	if pkg == nil {
		return shared.NewDomainError("INVALID_PACKAGE", "Package is required")
	}
	if !pkg.Active {
		return shared.NewDomainError("PACKAGE_NOT_ACTIVE", "Cannot subscribe to an inactive package")
	}

	var oldPackageID *uuid.UUID
	if t.PackageID != nil {
		id := *t.PackageID
		oldPackageID = &id
	}

	t.PackageID = &pkg.ID
	t.Config.MaxUsers = pkg.MaxUsers
	t.Config.MaxBranches = pkg.MaxBranches
	t.Config.MaxCustomers = pkg.MaxCustomers
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	if t.Status == TenantStatusTrial {
		t.Status = TenantStatusActive
		t.TrialEndsAt = nil
	}

	t.AddDomainEvent(NewTenantPackageChangedEvent(t, oldPackageID, pkg.ID))

	return nil
}

// UpdateConfig updates the tenant's configuration
func (t *Tenant) UpdateConfig(config TenantConfig) error {
	if config.MaxUsers < 0 {
		return shared.NewDomainError("INVALID_MAX_USERS", "Max users cannot be negative")
	}
	if config.MaxBranches < 0 {
		return shared.NewDomainError("INVALID_MAX_BRANCHES", "Max branches cannot be negative")
	}
	if config.MaxCustomers < 0 {
		return shared.NewDomainError("INVALID_MAX_CUSTOMERS", "Max customers cannot be negative")
	}
	if config.LoyaltyEarnRate < 0 {
		return shared.NewDomainError("INVALID_EARN_RATE", "Loyalty earn rate cannot be negative")
	}

	t.Config = config
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// SetNotes sets the tenant's notes
func (t *Tenant) SetNotes(notes string) {
	t.Notes = notes
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}

// Activate activates the tenant
func (t *Tenant) Activate() error {
	if t.Status == TenantStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Tenant is already active")
	}

	oldStatus := t.Status
	t.Status = TenantStatusActive
	t.SuspendReason = ""
	t.TrialEndsAt = nil
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	t.AddDomainEvent(NewTenantStatusChangedEvent(t, oldStatus, TenantStatusActive))

	return nil
}

// StartTrial moves an active tenant into a trial window ending after the
// given number of days. Used during provisioning after package limits have
// been applied.
func (t *Tenant) StartTrial(days int) error {
	if days <= 0 {
		return shared.NewDomainError("INVALID_TRIAL_DAYS", "Trial days must be positive")
	}
	if t.Status != TenantStatusActive {
		return shared.NewDomainError("TENANT_NOT_ACTIVE", "Only an active tenant can start a trial")
	}

	oldStatus := t.Status
	t.Status = TenantStatusTrial
	trialEnds := time.Now().AddDate(0, 0, days)
	t.TrialEndsAt = &trialEnds
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	t.AddDomainEvent(NewTenantStatusChangedEvent(t, oldStatus, TenantStatusTrial))

	return nil
}

// Suspend suspends the tenant (e.g., due to payment issues)
func (t *Tenant) Suspend(reason string) error {
	if t.Status == TenantStatusSuspended {
		return shared.NewDomainError("ALREADY_SUSPENDED", "Tenant is already suspended")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("SUSPEND_REASON_REQUIRED", "A suspension reason is required")
	}

	oldStatus := t.Status
	t.Status = TenantStatusSuspended
	t.SuspendReason = reason
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	t.AddDomainEvent(NewTenantStatusChangedEvent(t, oldStatus, TenantStatusSuspended))

	return nil
}

// Deactivate retires the tenant
func (t *Tenant) Deactivate() error {
	if t.Status == TenantStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Tenant is already inactive")
	}

	oldStatus := t.Status
	t.Status = TenantStatusInactive
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	t.AddDomainEvent(NewTenantStatusChangedEvent(t, oldStatus, TenantStatusInactive))

	return nil
}

// IsActive returns true if the tenant is active
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// IsInactive returns true if the tenant is inactive
func (t *Tenant) IsInactive() bool {
	return t.Status == TenantStatusInactive
}

// IsSuspended returns true if the tenant is suspended
func (t *Tenant) IsSuspended() bool {
	return t.Status == TenantStatusSuspended
}

// IsTrial returns true if the tenant is in trial period
func (t *Tenant) IsTrial() bool {
	return t.Status == TenantStatusTrial
}

// IsTrialExpired returns true if the trial has expired
func (t *Tenant) IsTrialExpired() bool {
	if t.Status != TenantStatusTrial {
		return false
	}
	if t.TrialEndsAt == nil {
		return false
	}
	return time.Now().After(*t.TrialEndsAt)
}

// CanAddUser returns true if the tenant can add more users
func (t *Tenant) CanAddUser(currentUserCount int) bool {
	return currentUserCount < t.Config.MaxUsers
}

// CanAddBranch returns true if the tenant can add more branches
func (t *Tenant) CanAddBranch(currentBranchCount int) bool {
	return currentBranchCount < t.Config.MaxBranches
}

// CanAddCustomer returns true if the tenant can add more customers
func (t *Tenant) CanAddCustomer(currentCustomerCount int) bool {
	return currentCustomerCount < t.Config.MaxCustomers
}

// Validation functions

func validateTenantCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Tenant code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Tenant code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Tenant code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateTenantName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Tenant name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Tenant name cannot exceed 200 characters")
	}
	return nil
}
