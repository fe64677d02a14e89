package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/identity"
	"github.com/retailsuite/backend/internal/domain/org"
	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/domain/shared"
)

// TenantService handles owner-plane tenant management, including the
// provisioning flow that sets a new tenant up with a subscription, a main
// branch, an admin user and the default loyalty tier ladder.
type TenantService struct {
	txScope      TransactionScope
	tenantRepo   platform.TenantRepository
	packageRepo  platform.PackageRepository
	userRepo     identity.UserRepository
	branchRepo   org.BranchRepository
	customerRepo crm.CustomerRepository
	logger       *zap.Logger
}

// NewTenantService creates a new tenant service
func NewTenantService(
	txScope TransactionScope,
	tenantRepo platform.TenantRepository,
	packageRepo platform.PackageRepository,
	userRepo identity.UserRepository,
	branchRepo org.BranchRepository,
	customerRepo crm.CustomerRepository,
	logger *zap.Logger,
) *TenantService {
	return &TenantService{
		txScope:      txScope,
		tenantRepo:   tenantRepo,
		packageRepo:  packageRepo,
		userRepo:     userRepo,
		branchRepo:   branchRepo,
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// CreateTenantInput contains input for provisioning a tenant
type CreateTenantInput struct {
	Code          string
	Name          string
	Domain        string
	ContactName   string
	ContactPhone  string
	ContactEmail  string
	Notes         string
	PackageCode   string // Empty picks the default package
	TrialDays     int    // If > 0, the tenant starts in a trial window
	BranchName    string // Name for the main branch, defaults to "Main Branch"
	AdminUsername string
	AdminEmail    string
	AdminPassword string
	AdminFullName string
	CreatedBy     *uuid.UUID // Platform operator performing the provisioning
}

// UpdateTenantInput contains input for updating a tenant
type UpdateTenantInput struct {
	ID           uuid.UUID
	Name         *string
	Domain       *string
	ContactName  *string
	ContactPhone *string
	ContactEmail *string
	Notes        *string
	Config       *TenantConfigInput
}

// TenantConfigInput contains input for updating tenant configuration
type TenantConfigInput struct {
	MaxUsers        *int
	MaxBranches     *int
	MaxCustomers    *int
	Currency        *string
	Timezone        *string
	Locale          *string
	LoyaltyEarnRate *float64
}

// TenantDTO represents tenant data transfer object
type TenantDTO struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Status        string          `json:"status"`
	Domain        string          `json:"domain,omitempty"`
	PackageID     *uuid.UUID      `json:"package_id,omitempty"`
	ContactName   string          `json:"contact_name,omitempty"`
	ContactPhone  string          `json:"contact_phone,omitempty"`
	ContactEmail  string          `json:"contact_email,omitempty"`
	TrialEndsAt   *time.Time      `json:"trial_ends_at,omitempty"`
	SuspendReason string          `json:"suspend_reason,omitempty"`
	Config        TenantConfigDTO `json:"config"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TenantConfigDTO represents tenant configuration
type TenantConfigDTO struct {
	MaxUsers        int     `json:"max_users"`
	MaxBranches     int     `json:"max_branches"`
	MaxCustomers    int     `json:"max_customers"`
	Currency        string  `json:"currency"`
	Timezone        string  `json:"timezone"`
	Locale          string  `json:"locale"`
	LoyaltyEarnRate float64 `json:"loyalty_earn_rate"`
}

// ProvisionResult describes everything created for a new tenant
type ProvisionResult struct {
	Tenant         TenantDTO `json:"tenant"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	BranchID       uuid.UUID `json:"branch_id"`
	AdminUserID    uuid.UUID `json:"admin_user_id"`
}

// TenantFilter represents filter for querying tenants
type TenantFilter struct {
	Page      int
	PageSize  int
	SortBy    string
	SortDir   string
	Keyword   string
	Status    string
	PackageID *uuid.UUID
}

// ToSharedFilter converts TenantFilter to shared.Filter
func (f TenantFilter) ToSharedFilter() shared.Filter {
	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return shared.Filter{
		Page:     page,
		PageSize: pageSize,
		OrderBy:  f.SortBy,
		OrderDir: f.SortDir,
		Search:   f.Keyword,
	}
}

// TenantListResult represents paginated tenant list result
type TenantListResult struct {
	Tenants    []TenantDTO `json:"tenants"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// TenantStatsDTO represents tenant counts by status
type TenantStatsDTO struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Trial     int64 `json:"trial"`
	Suspended int64 `json:"suspended"`
	Inactive  int64 `json:"inactive"`
}

// TenantUsageDTO reports a tenant's resource usage against its limits
type TenantUsageDTO struct {
	UserCount     int64 `json:"user_count"`
	UserLimit     int   `json:"user_limit"`
	BranchCount   int64 `json:"branch_count"`
	BranchLimit   int   `json:"branch_limit"`
	CustomerCount int64 `json:"customer_count"`
	CustomerLimit int   `json:"customer_limit"`
}

// Create provisions a new tenant. The tenant record, its subscription to the
// chosen package, the main branch, the initial admin user and the default
// loyalty tiers are written in a single transaction, so a failed provisioning
// leaves nothing behind.
func (s *TenantService) Create(ctx context.Context, input CreateTenantInput) (*ProvisionResult, error) {
	s.logger.Info("Provisioning new tenant",
		zap.String("code", input.Code),
		zap.String("name", input.Name))

	// Check if code already exists
	exists, err := s.tenantRepo.ExistsByCode(ctx, input.Code)
	if err != nil {
		s.logger.Error("Failed to check tenant code existence", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check code availability")
	}
	if exists {
		return nil, shared.NewDomainError("TENANT_CODE_EXISTS", "Tenant code already exists")
	}

	// Check domain uniqueness if provided
	if input.Domain != "" {
		exists, err := s.tenantRepo.ExistsByDomain(ctx, input.Domain)
		if err != nil {
			s.logger.Error("Failed to check domain existence", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check domain availability")
		}
		if exists {
			return nil, shared.NewDomainError("TENANT_DOMAIN_EXISTS", "Domain already exists")
		}
	}

	// Resolve the package the tenant subscribes to
	packageCode := input.PackageCode
	if packageCode == "" {
		packageCode = platform.DefaultPackageCode
	}
	pkg, err := s.packageRepo.FindByCode(ctx, packageCode)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PACKAGE_NOT_FOUND", "Package not found: "+packageCode)
		}
		s.logger.Error("Failed to find package", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find package")
	}

	// Build all aggregates up front so validation failures never open a
	// transaction.
	tenant, err := platform.NewTenant(input.Code, input.Name)
	if err != nil {
		return nil, err
	}
	if input.Domain != "" {
		if err := tenant.SetDomain(input.Domain); err != nil {
			return nil, err
		}
	}
	if input.ContactName != "" || input.ContactPhone != "" || input.ContactEmail != "" {
		if err := tenant.SetContact(input.ContactName, input.ContactPhone, input.ContactEmail); err != nil {
			return nil, err
		}
	}
	if input.Notes != "" {
		tenant.SetNotes(input.Notes)
	}
	if err := tenant.AssignPackage(pkg); err != nil {
		return nil, err
	}
	// AssignPackage leaves the tenant active; an optional trial window is
	// started afterwards so the package limits stay applied.
	if input.TrialDays > 0 {
		if err := tenant.StartTrial(input.TrialDays); err != nil {
			return nil, err
		}
	}

	subscription, err := platform.NewSubscription(tenant.ID, pkg.ID, nil)
	if err != nil {
		return nil, err
	}

	branchName := input.BranchName
	if branchName == "" {
		branchName = "Main Branch"
	}
	branch, err := org.NewMainBranch(tenant.ID, branchName)
	if err != nil {
		return nil, err
	}

	admin, err := identity.NewUser(tenant.ID, input.AdminUsername, input.AdminEmail, input.AdminPassword, identity.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if input.AdminFullName != "" {
		if err := admin.SetFullName(input.AdminFullName); err != nil {
			return nil, err
		}
	}
	if input.CreatedBy != nil {
		admin.SetCreatedBy(*input.CreatedBy)
		branch.SetCreatedBy(*input.CreatedBy)
	}

	tiers, err := crm.DefaultTiers(tenant.ID)
	if err != nil {
		return nil, err
	}

	// Everything below commits or rolls back together
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.TenantRepo().Save(ctx, tenant); err != nil {
			return err
		}
		if err := repos.SubscriptionRepo().Save(ctx, subscription); err != nil {
			return err
		}
		if err := repos.BranchRepo().Save(ctx, branch); err != nil {
			return err
		}
		if err := repos.UserRepo().Save(ctx, admin); err != nil {
			return err
		}
		return repos.TierRepo().SaveBatch(ctx, tiers)
	})
	if err != nil {
		s.logger.Error("Failed to provision tenant",
			zap.String("code", tenant.Code),
			zap.Error(err))
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to provision tenant")
	}

	s.logger.Info("Tenant provisioned",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("code", tenant.Code),
		zap.String("package", pkg.Code),
		zap.String("admin_user_id", admin.ID.String()))

	return &ProvisionResult{
		Tenant:         *toTenantDTO(tenant),
		SubscriptionID: subscription.ID,
		BranchID:       branch.ID,
		AdminUserID:    admin.ID,
	}, nil
}

// GetByID retrieves a tenant by ID
func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*TenantDTO, error) {
	tenant, err := s.findTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTenantDTO(tenant), nil
}

// GetByCode retrieves a tenant by code
func (s *TenantService) GetByCode(ctx context.Context, code string) (*TenantDTO, error) {
	tenant, err := s.tenantRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TENANT_NOT_FOUND", "Tenant not found")
		}
		s.logger.Error("Failed to find tenant by code", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find tenant")
	}
	return toTenantDTO(tenant), nil
}

// List retrieves a paginated list of tenants
func (s *TenantService) List(ctx context.Context, filter TenantFilter) (*TenantListResult, error) {
	sharedFilter := filter.ToSharedFilter()

	var tenants []platform.Tenant
	var total int64
	var err error

	if filter.Status != "" {
		status := platform.TenantStatus(filter.Status)
		tenants, err = s.tenantRepo.FindByStatus(ctx, status, sharedFilter)
		if err != nil {
			s.logger.Error("Failed to list tenants by status", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list tenants")
		}
		total, err = s.tenantRepo.CountByStatus(ctx, status)
	} else if filter.PackageID != nil {
		tenants, err = s.tenantRepo.FindByPackage(ctx, *filter.PackageID, sharedFilter)
		if err != nil {
			s.logger.Error("Failed to list tenants by package", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list tenants")
		}
		total, err = s.tenantRepo.CountByPackage(ctx, *filter.PackageID)
	} else {
		tenants, err = s.tenantRepo.FindAll(ctx, sharedFilter)
		if err != nil {
			s.logger.Error("Failed to list tenants", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list tenants")
		}
		total, err = s.tenantRepo.Count(ctx, sharedFilter)
	}

	if err != nil {
		s.logger.Error("Failed to count tenants", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to count tenants")
	}

	pageSize := sharedFilter.PageSize
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	tenantDTOs := make([]TenantDTO, len(tenants))
	for i := range tenants {
		tenantDTOs[i] = *toTenantDTO(&tenants[i])
	}

	return &TenantListResult{
		Tenants:    tenantDTOs,
		Total:      total,
		Page:       sharedFilter.Page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Update updates a tenant's information and configuration
func (s *TenantService) Update(ctx context.Context, input UpdateTenantInput) (*TenantDTO, error) {
	tenant, err := s.findTenant(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := tenant.Update(*input.Name); err != nil {
			return nil, err
		}
	}

	if input.Domain != nil {
		// Check domain uniqueness if changed
		if *input.Domain != tenant.Domain && *input.Domain != "" {
			exists, err := s.tenantRepo.ExistsByDomain(ctx, *input.Domain)
			if err != nil {
				return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check domain availability")
			}
			if exists {
				return nil, shared.NewDomainError("TENANT_DOMAIN_EXISTS", "Domain already exists")
			}
		}
		if err := tenant.SetDomain(*input.Domain); err != nil {
			return nil, err
		}
	}

	if input.ContactName != nil || input.ContactPhone != nil || input.ContactEmail != nil {
		contactName := tenant.ContactName
		contactPhone := tenant.ContactPhone
		contactEmail := tenant.ContactEmail
		if input.ContactName != nil {
			contactName = *input.ContactName
		}
		if input.ContactPhone != nil {
			contactPhone = *input.ContactPhone
		}
		if input.ContactEmail != nil {
			contactEmail = *input.ContactEmail
		}
		if err := tenant.SetContact(contactName, contactPhone, contactEmail); err != nil {
			return nil, err
		}
	}

	if input.Notes != nil {
		tenant.SetNotes(*input.Notes)
	}

	if input.Config != nil {
		config := tenant.Config
		if input.Config.MaxUsers != nil {
			config.MaxUsers = *input.Config.MaxUsers
		}
		if input.Config.MaxBranches != nil {
			config.MaxBranches = *input.Config.MaxBranches
		}
		if input.Config.MaxCustomers != nil {
			config.MaxCustomers = *input.Config.MaxCustomers
		}
		if input.Config.Currency != nil {
			config.Currency = *input.Config.Currency
		}
		if input.Config.Timezone != nil {
			config.Timezone = *input.Config.Timezone
		}
		if input.Config.Locale != nil {
			config.Locale = *input.Config.Locale
		}
		if input.Config.LoyaltyEarnRate != nil {
			config.LoyaltyEarnRate = *input.Config.LoyaltyEarnRate
		}
		if err := tenant.UpdateConfig(config); err != nil {
			return nil, err
		}
	}

	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		s.logger.Error("Failed to update tenant", zap.Error(err))
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update tenant")
	}

	s.logger.Info("Tenant updated", zap.String("tenant_id", input.ID.String()))

	return toTenantDTO(tenant), nil
}

// Activate activates a tenant (from trial or suspended)
func (s *TenantService) Activate(ctx context.Context, id uuid.UUID) (*TenantDTO, error) {
	tenant, err := s.findTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := tenant.Activate(); err != nil {
		return nil, err
	}

	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		s.logger.Error("Failed to activate tenant", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to activate tenant")
	}

	s.logger.Info("Tenant activated", zap.String("tenant_id", id.String()))

	return toTenantDTO(tenant), nil
}

// Suspend suspends a tenant with a reason
func (s *TenantService) Suspend(ctx context.Context, id uuid.UUID, reason string) (*TenantDTO, error) {
	tenant, err := s.findTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := tenant.Suspend(reason); err != nil {
		return nil, err
	}

	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		s.logger.Error("Failed to suspend tenant", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to suspend tenant")
	}

	s.logger.Info("Tenant suspended",
		zap.String("tenant_id", id.String()),
		zap.String("reason", reason))

	return toTenantDTO(tenant), nil
}

// Deactivate retires a tenant
func (s *TenantService) Deactivate(ctx context.Context, id uuid.UUID) (*TenantDTO, error) {
	tenant, err := s.findTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := tenant.Deactivate(); err != nil {
		return nil, err
	}

	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		s.logger.Error("Failed to deactivate tenant", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to deactivate tenant")
	}

	s.logger.Info("Tenant deactivated", zap.String("tenant_id", id.String()))

	return toTenantDTO(tenant), nil
}

// Delete deletes a tenant. Only inactive tenants can be deleted.
func (s *TenantService) Delete(ctx context.Context, id uuid.UUID) error {
	tenant, err := s.findTenant(ctx, id)
	if err != nil {
		return err
	}

	if !tenant.IsInactive() {
		return shared.NewDomainError("TENANT_NOT_INACTIVE", "Only inactive tenants can be deleted")
	}

	if err := s.tenantRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete tenant", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete tenant")
	}

	s.logger.Info("Tenant deleted", zap.String("tenant_id", id.String()))

	return nil
}

// GetStats returns tenant counts by status
func (s *TenantService) GetStats(ctx context.Context) (*TenantStatsDTO, error) {
	activeCount, err := s.tenantRepo.CountByStatus(ctx, platform.TenantStatusActive)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to get stats")
	}

	trialCount, err := s.tenantRepo.CountByStatus(ctx, platform.TenantStatusTrial)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to get stats")
	}

	suspendedCount, err := s.tenantRepo.CountByStatus(ctx, platform.TenantStatusSuspended)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to get stats")
	}

	inactiveCount, err := s.tenantRepo.CountByStatus(ctx, platform.TenantStatusInactive)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to get stats")
	}

	total, err := s.tenantRepo.Count(ctx, shared.DefaultFilter())
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to get stats")
	}

	return &TenantStatsDTO{
		Total:     total,
		Active:    activeCount,
		Trial:     trialCount,
		Suspended: suspendedCount,
		Inactive:  inactiveCount,
	}, nil
}

// GetUsage reports a tenant's resource usage against its configured limits
func (s *TenantService) GetUsage(ctx context.Context, id uuid.UUID) (*TenantUsageDTO, error) {
	tenant, err := s.findTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	userCount, err := s.userRepo.CountByTenant(ctx, id)
	if err != nil {
		s.logger.Error("Failed to count tenant users", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to get tenant usage")
	}
	branchCount, err := s.branchRepo.CountByTenant(ctx, id)
	if err != nil {
		s.logger.Error("Failed to count tenant branches", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to get tenant usage")
	}
	customerCount, err := s.customerRepo.CountByTenant(ctx, id)
	if err != nil {
		s.logger.Error("Failed to count tenant customers", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to get tenant usage")
	}

	return &TenantUsageDTO{
		UserCount:     userCount,
		UserLimit:     tenant.Config.MaxUsers,
		BranchCount:   branchCount,
		BranchLimit:   tenant.Config.MaxBranches,
		CustomerCount: customerCount,
		CustomerLimit: tenant.Config.MaxCustomers,
	}, nil
}

// BootstrapOwnerInput carries the first platform operator's credentials
type BootstrapOwnerInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// EnsurePlatformTenant makes sure the reserved platform tenant exists and,
// on first boot, seeds it with an owner user so the owner plane is
// reachable. Called during startup; a missing owner password leaves the
// tenant without users and logs a warning instead of failing the boot.
func (s *TenantService) EnsurePlatformTenant(ctx context.Context, owner BootstrapOwnerInput) error {
	tenant, err := s.tenantRepo.FindByCode(ctx, platform.PlatformTenantCode)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("find platform tenant: %w", err)
		}

		tenant, err = platform.NewTenant(platform.PlatformTenantCode, "Platform Operations")
		if err != nil {
			return fmt.Errorf("build platform tenant: %w", err)
		}
		if err := s.tenantRepo.Save(ctx, tenant); err != nil {
			return fmt.Errorf("save platform tenant: %w", err)
		}
		s.logger.Info("Platform tenant created",
			zap.String("tenant_id", tenant.ID.String()))
	}

	userCount, err := s.userRepo.CountByTenant(ctx, tenant.ID)
	if err != nil {
		return fmt.Errorf("count platform users: %w", err)
	}
	if userCount > 0 {
		return nil
	}

	if owner.Password == "" {
		s.logger.Warn("Platform tenant has no users and no bootstrap owner password is configured; the owner plane is unreachable until one is set")
		return nil
	}

	username := owner.Username
	if username == "" {
		username = "owner"
	}
	email := owner.Email
	if email == "" {
		email = "owner@" + strings.ToLower(platform.PlatformTenantCode) + ".local"
	}

	user, err := identity.NewUser(tenant.ID, username, email, owner.Password, identity.RoleOwner)
	if err != nil {
		return fmt.Errorf("build bootstrap owner: %w", err)
	}
	if owner.FullName != "" {
		if err := user.SetFullName(owner.FullName); err != nil {
			return fmt.Errorf("build bootstrap owner: %w", err)
		}
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return fmt.Errorf("save bootstrap owner: %w", err)
	}

	s.logger.Info("Bootstrap owner created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("username", user.Username))

	return nil
}

// findTenant loads a tenant or maps the miss to a domain error
func (s *TenantService) findTenant(ctx context.Context, id uuid.UUID) (*platform.Tenant, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TENANT_NOT_FOUND", "Tenant not found")
		}
		s.logger.Error("Failed to find tenant", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find tenant")
	}
	return tenant, nil
}

// toTenantDTO converts domain Tenant to TenantDTO
func toTenantDTO(tenant *platform.Tenant) *TenantDTO {
	return &TenantDTO{
		ID:            tenant.ID,
		Code:          tenant.Code,
		Name:          tenant.Name,
		Status:        string(tenant.Status),
		Domain:        tenant.Domain,
		PackageID:     tenant.PackageID,
		ContactName:   tenant.ContactName,
		ContactPhone:  tenant.ContactPhone,
		ContactEmail:  tenant.ContactEmail,
		TrialEndsAt:   tenant.TrialEndsAt,
		SuspendReason: tenant.SuspendReason,
		Config: TenantConfigDTO{
			MaxUsers:        tenant.Config.MaxUsers,
			MaxBranches:     tenant.Config.MaxBranches,
			MaxCustomers:    tenant.Config.MaxCustomers,
			Currency:        tenant.Config.Currency,
			Timezone:        tenant.Config.Timezone,
			Locale:          tenant.Config.Locale,
			LoyaltyEarnRate: tenant.Config.LoyaltyEarnRate,
		},
		Notes:     tenant.Notes,
		CreatedAt: tenant.CreatedAt,
		UpdatedAt: tenant.UpdatedAt,
	}
}
