package platform

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/domain/shared"
)

// CatalogService manages the owner-plane module and package catalog. Catalog
// changes that alter what tenants may use drop the whole entitlement cache.
type CatalogService struct {
	moduleRepo  platform.ModuleRepository
	packageRepo platform.PackageRepository
	tenantRepo  platform.TenantRepository
	cache       platform.EntitlementCache
	logger      *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	moduleRepo platform.ModuleRepository,
	packageRepo platform.PackageRepository,
	tenantRepo platform.TenantRepository,
	cache platform.EntitlementCache,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		moduleRepo:  moduleRepo,
		packageRepo: packageRepo,
		tenantRepo:  tenantRepo,
		cache:       cache,
		logger:      logger,
	}
}

// CreateModuleInput contains input for creating a catalog module
type CreateModuleInput struct {
	Key         string
	Name        string
	Description string
	Category    string
	IsCore      bool
	SortOrder   int
}

// UpdateModuleInput contains input for updating a catalog module.
// The key is immutable.
type UpdateModuleInput struct {
	ID          uuid.UUID
	Name        *string
	Description *string
	Category    *string
	SortOrder   *int
}

// ModuleDTO represents a module catalog entry
type ModuleDTO struct {
	ID          uuid.UUID `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	IsCore      bool      `json:"is_core"`
	Enabled     bool      `json:"enabled"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreatePackageInput contains input for creating a package
type CreatePackageInput struct {
	Code         string
	Name         string
	Description  string
	ModuleKeys   []string
	MaxUsers     int
	MaxBranches  int
	MaxCustomers int
	PriceMonthly decimal.Decimal
	SortOrder    int
}

// UpdatePackageInput contains input for updating a package.
// The code is immutable.
type UpdatePackageInput struct {
	ID           uuid.UUID
	Name         *string
	Description  *string
	ModuleKeys   *[]string
	MaxUsers     *int
	MaxBranches  *int
	MaxCustomers *int
	PriceMonthly *decimal.Decimal
	SortOrder    *int
}

// PackageDTO represents a sellable package
type PackageDTO struct {
	ID           uuid.UUID       `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	ModuleKeys   []string        `json:"module_keys"`
	MaxUsers     int             `json:"max_users"`
	MaxBranches  int             `json:"max_branches"`
	MaxCustomers int             `json:"max_customers"`
	PriceMonthly decimal.Decimal `json:"price_monthly"`
	Active       bool            `json:"active"`
	SortOrder    int             `json:"sort_order"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ListModules returns the full module catalog
func (s *CatalogService) ListModules(ctx context.Context) ([]ModuleDTO, error) {
	modules, err := s.moduleRepo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to list modules", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list modules")
	}

	dtos := make([]ModuleDTO, len(modules))
	for i := range modules {
		dtos[i] = *toModuleDTO(&modules[i])
	}
	return dtos, nil
}

// GetModule retrieves a module by ID
func (s *CatalogService) GetModule(ctx context.Context, id uuid.UUID) (*ModuleDTO, error) {
	module, err := s.findModule(ctx, id)
	if err != nil {
		return nil, err
	}
	return toModuleDTO(module), nil
}

// CreateModule adds a module to the catalog
func (s *CatalogService) CreateModule(ctx context.Context, input CreateModuleInput) (*ModuleDTO, error) {
	key := platform.ModuleKey(input.Key)
	if !platform.IsValidModuleKey(key) {
		return nil, shared.NewDomainError("INVALID_MODULE_KEY", "Unknown module key: "+input.Key)
	}

	exists, err := s.moduleRepo.ExistsByKey(ctx, key)
	if err != nil {
		s.logger.Error("Failed to check module key existence", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check module key")
	}
	if exists {
		return nil, shared.NewDomainError("MODULE_KEY_EXISTS", "Module key already exists")
	}

	module := platform.NewModule(key, input.Name, input.Description, input.Category, input.IsCore, input.SortOrder)
	if err := s.moduleRepo.Save(ctx, module); err != nil {
		s.logger.Error("Failed to create module", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create module")
	}

	s.logger.Info("Module created", zap.String("key", input.Key))

	return toModuleDTO(module), nil
}

// UpdateModule updates a module's display fields
func (s *CatalogService) UpdateModule(ctx context.Context, input UpdateModuleInput) (*ModuleDTO, error) {
	module, err := s.findModule(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	name := module.Name
	description := module.Description
	category := module.Category
	sortOrder := module.SortOrder
	if input.Name != nil {
		name = *input.Name
	}
	if input.Description != nil {
		description = *input.Description
	}
	if input.Category != nil {
		category = *input.Category
	}
	if input.SortOrder != nil {
		sortOrder = *input.SortOrder
	}
	if err := module.Update(name, description, category, sortOrder); err != nil {
		return nil, err
	}

	if err := s.moduleRepo.Save(ctx, module); err != nil {
		s.logger.Error("Failed to update module", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update module")
	}

	return toModuleDTO(module), nil
}

// EnableModule turns a module on platform-wide
func (s *CatalogService) EnableModule(ctx context.Context, id uuid.UUID) (*ModuleDTO, error) {
	module, err := s.findModule(ctx, id)
	if err != nil {
		return nil, err
	}

	module.Enable()
	if err := s.moduleRepo.Save(ctx, module); err != nil {
		s.logger.Error("Failed to enable module", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to enable module")
	}

	s.invalidateAll(ctx)
	s.logger.Info("Module enabled", zap.String("key", string(module.Key)))

	return toModuleDTO(module), nil
}

// DisableModule turns a module off platform-wide. Every tenant loses access
// regardless of subscription, so the whole entitlement cache is dropped.
func (s *CatalogService) DisableModule(ctx context.Context, id uuid.UUID) (*ModuleDTO, error) {
	module, err := s.findModule(ctx, id)
	if err != nil {
		return nil, err
	}

	module.Disable()
	if err := s.moduleRepo.Save(ctx, module); err != nil {
		s.logger.Error("Failed to disable module", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to disable module")
	}

	s.invalidateAll(ctx)
	s.logger.Info("Module disabled", zap.String("key", string(module.Key)))

	return toModuleDTO(module), nil
}

// DeleteModule removes a module from the catalog. Modules referenced by a
// package cannot be deleted.
func (s *CatalogService) DeleteModule(ctx context.Context, id uuid.UUID) error {
	module, err := s.findModule(ctx, id)
	if err != nil {
		return err
	}

	packages, err := s.packageRepo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to check package references", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to check package references")
	}
	for i := range packages {
		if packages[i].HasModule(module.Key) {
			return shared.NewDomainError("MODULE_IN_USE", "Module is referenced by package "+packages[i].Code)
		}
	}

	if err := s.moduleRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete module", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete module")
	}

	s.invalidateAll(ctx)
	s.logger.Info("Module deleted", zap.String("key", string(module.Key)))

	return nil
}

// ListPackages returns all packages
func (s *CatalogService) ListPackages(ctx context.Context) ([]PackageDTO, error) {
	packages, err := s.packageRepo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to list packages", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list packages")
	}

	dtos := make([]PackageDTO, len(packages))
	for i := range packages {
		dtos[i] = *toPackageDTO(&packages[i])
	}
	return dtos, nil
}

// GetPackage retrieves a package by ID
func (s *CatalogService) GetPackage(ctx context.Context, id uuid.UUID) (*PackageDTO, error) {
	pkg, err := s.findPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	return toPackageDTO(pkg), nil
}

// CreatePackage creates a new sellable package
func (s *CatalogService) CreatePackage(ctx context.Context, input CreatePackageInput) (*PackageDTO, error) {
	exists, err := s.packageRepo.ExistsByCode(ctx, input.Code)
	if err != nil {
		s.logger.Error("Failed to check package code existence", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check package code")
	}
	if exists {
		return nil, shared.NewDomainError("PACKAGE_CODE_EXISTS", "Package code already exists")
	}

	pkg, err := platform.NewPackage(input.Code, input.Name, toModuleKeys(input.ModuleKeys),
		input.MaxUsers, input.MaxBranches, input.MaxCustomers, input.PriceMonthly)
	if err != nil {
		return nil, err
	}
	pkg.Description = input.Description
	pkg.SortOrder = input.SortOrder

	if err := s.packageRepo.Save(ctx, pkg); err != nil {
		s.logger.Error("Failed to create package", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create package")
	}

	s.logger.Info("Package created", zap.String("code", pkg.Code))

	return toPackageDTO(pkg), nil
}

// UpdatePackage updates a package. Changing the module list drops the whole
// entitlement cache since every subscribed tenant's effective set moves.
func (s *CatalogService) UpdatePackage(ctx context.Context, input UpdatePackageInput) (*PackageDTO, error) {
	pkg, err := s.findPackage(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil || input.Description != nil || input.SortOrder != nil {
		name := pkg.Name
		description := pkg.Description
		sortOrder := pkg.SortOrder
		if input.Name != nil {
			name = *input.Name
		}
		if input.Description != nil {
			description = *input.Description
		}
		if input.SortOrder != nil {
			sortOrder = *input.SortOrder
		}
		if err := pkg.Update(name, description, sortOrder); err != nil {
			return nil, err
		}
	}

	modulesChanged := false
	if input.ModuleKeys != nil {
		if err := pkg.SetModules(toModuleKeys(*input.ModuleKeys)); err != nil {
			return nil, err
		}
		modulesChanged = true
	}

	if input.MaxUsers != nil || input.MaxBranches != nil || input.MaxCustomers != nil {
		maxUsers := pkg.MaxUsers
		maxBranches := pkg.MaxBranches
		maxCustomers := pkg.MaxCustomers
		if input.MaxUsers != nil {
			maxUsers = *input.MaxUsers
		}
		if input.MaxBranches != nil {
			maxBranches = *input.MaxBranches
		}
		if input.MaxCustomers != nil {
			maxCustomers = *input.MaxCustomers
		}
		if err := pkg.SetLimits(maxUsers, maxBranches, maxCustomers); err != nil {
			return nil, err
		}
	}

	if input.PriceMonthly != nil {
		if err := pkg.SetPrice(*input.PriceMonthly); err != nil {
			return nil, err
		}
	}

	if err := s.packageRepo.Save(ctx, pkg); err != nil {
		s.logger.Error("Failed to update package", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update package")
	}

	if modulesChanged {
		s.invalidateAll(ctx)
	}

	return toPackageDTO(pkg), nil
}

// ActivatePackage makes a package available for new subscriptions
func (s *CatalogService) ActivatePackage(ctx context.Context, id uuid.UUID) (*PackageDTO, error) {
	pkg, err := s.findPackage(ctx, id)
	if err != nil {
		return nil, err
	}

	pkg.Activate()
	if err := s.packageRepo.Save(ctx, pkg); err != nil {
		s.logger.Error("Failed to activate package", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to activate package")
	}

	return toPackageDTO(pkg), nil
}

// DeactivatePackage withdraws a package from new subscriptions.
// Existing subscriptions keep working.
func (s *CatalogService) DeactivatePackage(ctx context.Context, id uuid.UUID) (*PackageDTO, error) {
	pkg, err := s.findPackage(ctx, id)
	if err != nil {
		return nil, err
	}

	pkg.Deactivate()
	if err := s.packageRepo.Save(ctx, pkg); err != nil {
		s.logger.Error("Failed to deactivate package", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to deactivate package")
	}

	return toPackageDTO(pkg), nil
}

// DeletePackage removes a package. Active packages and packages with
// subscribed tenants cannot be deleted.
func (s *CatalogService) DeletePackage(ctx context.Context, id uuid.UUID) error {
	pkg, err := s.findPackage(ctx, id)
	if err != nil {
		return err
	}

	if pkg.Active {
		return shared.NewDomainError("PACKAGE_ACTIVE", "Deactivate the package before deleting it")
	}

	subscribed, err := s.tenantRepo.CountByPackage(ctx, id)
	if err != nil {
		s.logger.Error("Failed to count subscribed tenants", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to count subscribed tenants")
	}
	if subscribed > 0 {
		return shared.NewDomainError("PACKAGE_IN_USE", "Package still has subscribed tenants")
	}

	if err := s.packageRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete package", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete package")
	}

	s.logger.Info("Package deleted", zap.String("code", pkg.Code))

	return nil
}

// EnsureDefaults seeds the module catalog and the default packages on a
// fresh install. Existing catalogs are left untouched.
func (s *CatalogService) EnsureDefaults(ctx context.Context) error {
	modules, err := s.moduleRepo.FindAll(ctx)
	if err != nil {
		return err
	}
	if len(modules) == 0 {
		if err := s.moduleRepo.SaveBatch(ctx, platform.DefaultModules()); err != nil {
			return err
		}
		s.logger.Info("Seeded default module catalog")
	}

	packages, err := s.packageRepo.FindAll(ctx)
	if err != nil {
		return err
	}
	if len(packages) == 0 {
		if err := s.packageRepo.SaveBatch(ctx, platform.DefaultPackages()); err != nil {
			return err
		}
		s.logger.Info("Seeded default packages")
	}

	return nil
}

// findModule loads a module or maps the miss to a domain error
func (s *CatalogService) findModule(ctx context.Context, id uuid.UUID) (*platform.Module, error) {
	module, err := s.moduleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("MODULE_NOT_FOUND", "Module not found")
		}
		s.logger.Error("Failed to find module", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find module")
	}
	return module, nil
}

// findPackage loads a package or maps the miss to a domain error
func (s *CatalogService) findPackage(ctx context.Context, id uuid.UUID) (*platform.Package, error) {
	pkg, err := s.packageRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PACKAGE_NOT_FOUND", "Package not found")
		}
		s.logger.Error("Failed to find package", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find package")
	}
	return pkg, nil
}

// invalidateAll drops every cached entitlement, logging but not failing on
// cache errors
func (s *CatalogService) invalidateAll(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.logger.Warn("Failed to invalidate entitlement cache", zap.Error(err))
	}
}

// toModuleKeys converts raw strings to module keys
func toModuleKeys(keys []string) []platform.ModuleKey {
	moduleKeys := make([]platform.ModuleKey, len(keys))
	for i, key := range keys {
		moduleKeys[i] = platform.ModuleKey(key)
	}
	return moduleKeys
}

// toModuleDTO converts a domain Module to ModuleDTO
func toModuleDTO(module *platform.Module) *ModuleDTO {
	return &ModuleDTO{
		ID:          module.ID,
		Key:         string(module.Key),
		Name:        module.Name,
		Description: module.Description,
		Category:    module.Category,
		IsCore:      module.IsCore,
		Enabled:     module.Enabled,
		SortOrder:   module.SortOrder,
		CreatedAt:   module.CreatedAt,
		UpdatedAt:   module.UpdatedAt,
	}
}

// toPackageDTO converts a domain Package to PackageDTO
func toPackageDTO(pkg *platform.Package) *PackageDTO {
	moduleKeys := make([]string, len(pkg.ModuleKeys))
	for i, key := range pkg.ModuleKeys {
		moduleKeys[i] = string(key)
	}
	return &PackageDTO{
		ID:           pkg.ID,
		Code:         pkg.Code,
		Name:         pkg.Name,
		Description:  pkg.Description,
		ModuleKeys:   moduleKeys,
		MaxUsers:     pkg.MaxUsers,
		MaxBranches:  pkg.MaxBranches,
		MaxCustomers: pkg.MaxCustomers,
		PriceMonthly: pkg.PriceMonthly,
		Active:       pkg.Active,
		SortOrder:    pkg.SortOrder,
		CreatedAt:    pkg.CreatedAt,
		UpdatedAt:    pkg.UpdatedAt,
	}
}
