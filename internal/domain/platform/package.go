package platform

import (
	"context"
	"strings"
	"time"

	"github.com/retailsuite/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Package represents a sellable bundle of modules plus subscription limits.
// Subscribing a tenant to a package applies its limits to the tenant config
// and grants access to the listed modules.
type Package struct {
	ID           uuid.UUID
	Code         string // Unique code (e.g., "starter", "premium"), lowercase
	Name         string
	Description  string
	ModuleKeys   []ModuleKey
	MaxUsers     int
	MaxBranches  int
	MaxCustomers int
	PriceMonthly decimal.Decimal
	Active       bool
	SortOrder    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewPackage creates a new package
func NewPackage(code, name string, moduleKeys []ModuleKey, maxUsers, maxBranches, maxCustomers int, priceMonthly decimal.Decimal) (*Package, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_PACKAGE_CODE", "Package code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_PACKAGE_CODE", "Package code cannot exceed 50 characters")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PACKAGE_NAME", "Package name cannot be empty")
	}
	if maxUsers < 0 || maxBranches < 0 || maxCustomers < 0 {
		return nil, shared.NewDomainError("INVALID_PACKAGE_LIMITS", "Package limits cannot be negative")
	}
	if priceMonthly.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PACKAGE_PRICE", "Package price cannot be negative")
	}
	for _, key := range moduleKeys {
		if !IsValidModuleKey(key) {
			return nil, shared.NewDomainError("INVALID_MODULE_KEY", "Unknown module key: "+string(key))
		}
	}

	now := time.Now()
	return &Package{
		ID:           uuid.New(),
		Code:         code,
		Name:         name,
		ModuleKeys:   moduleKeys,
		MaxUsers:     maxUsers,
		MaxBranches:  maxBranches,
		MaxCustomers: maxCustomers,
		PriceMonthly: priceMonthly,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Update changes the package's display fields. The code is immutable.
func (p *Package) Update(name, description string, sortOrder int) error {
	if name == "" {
		return shared.NewDomainError("INVALID_PACKAGE_NAME", "Package name cannot be empty")
	}

	p.Name = name
	p.Description = description
	p.SortOrder = sortOrder
	p.UpdatedAt = time.Now()
	return nil
}

// HasModule returns true if the package bundles the given module
func (p *Package) HasModule(key ModuleKey) bool {
	for _, k := range p.ModuleKeys {
		if k == key {
			return true
		}
	}
	return false
}

// SetModules replaces the package's module list
func (p *Package) SetModules(keys []ModuleKey) error {
	for _, key := range keys {
		if !IsValidModuleKey(key) {
			return shared.NewDomainError("INVALID_MODULE_KEY", "Unknown module key: "+string(key))
		}
	}
	p.ModuleKeys = keys
	p.UpdatedAt = time.Now()
	return nil
}

// SetLimits replaces the package's subscription limits
func (p *Package) SetLimits(maxUsers, maxBranches, maxCustomers int) error {
	if maxUsers < 0 || maxBranches < 0 || maxCustomers < 0 {
		return shared.NewDomainError("INVALID_PACKAGE_LIMITS", "Package limits cannot be negative")
	}
	p.MaxUsers = maxUsers
	p.MaxBranches = maxBranches
	p.MaxCustomers = maxCustomers
	p.UpdatedAt = time.Now()
	return nil
}

// SetPrice sets the monthly price
func (p *Package) SetPrice(priceMonthly decimal.Decimal) error {
	if priceMonthly.IsNegative() {
		return shared.NewDomainError("INVALID_PACKAGE_PRICE", "Package price cannot be negative")
	}
	p.PriceMonthly = priceMonthly
	p.UpdatedAt = time.Now()
	return nil
}

// Activate makes the package available for new subscriptions
func (p *Package) Activate() {
	p.Active = true
	p.UpdatedAt = time.Now()
}

// Deactivate withdraws the package from new subscriptions.
// Existing subscriptions keep working.
func (p *Package) Deactivate() {
	p.Active = false
	p.UpdatedAt = time.Now()
}

// PackageRepository defines the interface for package persistence
type PackageRepository interface {
	// FindByID finds a package by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Package, error)

	// FindByCode finds a package by its unique code
	FindByCode(ctx context.Context, code string) (*Package, error)

	// FindAll returns all packages ordered by sort order
	FindAll(ctx context.Context) ([]Package, error)

	// FindActive returns all active packages ordered by sort order
	FindActive(ctx context.Context) ([]Package, error)

	// ExistsByCode checks if a package with the given code exists
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// Save creates or updates a package
	Save(ctx context.Context, pkg *Package) error

	// SaveBatch creates or updates multiple packages
	SaveBatch(ctx context.Context, pkgs []Package) error

	// Delete deletes a package
	Delete(ctx context.Context, id uuid.UUID) error
}

// DefaultPackageCode is the package assigned when tenant provisioning does
// not name one.
const DefaultPackageCode = "starter"

// DefaultPackages returns the packages seeded on a fresh install
func DefaultPackages() []Package {
	starter, _ := NewPackage(
		"starter", "Starter",
		[]ModuleKey{ModulePOS, ModuleCRM},
		5, 2, 1000,
		decimal.NewFromInt(29),
	)
	starter.Description = "Single-store point of sale with a customer directory"
	starter.SortOrder = 10

	standard, _ := NewPackage(
		"standard", "Standard",
		[]ModuleKey{ModulePOS, ModuleCRM, ModuleLoyalty, ModuleReports},
		20, 5, 10000,
		decimal.NewFromInt(79),
	)
	standard.Description = "Multi-branch retail with loyalty and reporting"
	standard.SortOrder = 20

	premium, _ := NewPackage(
		"premium", "Premium",
		[]ModuleKey{ModulePOS, ModuleCRM, ModuleLoyalty, ModuleReports, ModuleBackups},
		100, 20, 100000,
		decimal.NewFromInt(199),
	)
	premium.Description = "Everything included, with scheduled data exports"
	premium.SortOrder = 30

	return []Package{*starter, *standard, *premium}
}
