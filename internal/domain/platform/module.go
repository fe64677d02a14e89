package platform

import (
	"context"
	"time"

	"github.com/retailsuite/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ModuleKey represents a unique identifier for a sellable product module
type ModuleKey string

// Predefined module keys for the system
const (
	ModulePOS     ModuleKey = "pos"     // Point of sale (core, always on)
	ModuleCRM     ModuleKey = "crm"     // Customer directory and segments
	ModuleLoyalty ModuleKey = "loyalty" // Loyalty tiers and customer scoring
	ModuleReports ModuleKey = "reports" // Sales summaries and analytics
	ModuleBackups ModuleKey = "backups" // Tenant data export to object storage
)

// Module represents an entry in the platform module catalog.
// Tenants gain access to modules through their package subscription;
// core modules are available to every non-suspended tenant.
type Module struct {
	ID          uuid.UUID
	Key         ModuleKey // Unique identifier, immutable after creation
	Name        string
	Description string
	Category    string // Grouping for the admin UI (e.g., "sales", "customers")
	IsCore      bool   // Core modules bypass subscription checks
	Enabled     bool   // Platform-wide kill switch
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewModule creates a new catalog module
func NewModule(key ModuleKey, name, description, category string, isCore bool, sortOrder int) *Module {
	now := time.Now()
	return &Module{
		ID:          uuid.New(),
		Key:         key,
		Name:        name,
		Description: description,
		Category:    category,
		IsCore:      isCore,
		Enabled:     true,
		SortOrder:   sortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Update changes the module's display fields. The key is immutable.
func (m *Module) Update(name, description, category string, sortOrder int) error {
	if name == "" {
		return shared.NewDomainError("INVALID_MODULE_NAME", "Module name cannot be empty")
	}

	m.Name = name
	m.Description = description
	m.Category = category
	m.SortOrder = sortOrder
	m.UpdatedAt = time.Now()
	return nil
}

// Enable turns the module on platform-wide
func (m *Module) Enable() {
	m.Enabled = true
	m.UpdatedAt = time.Now()
}

// Disable turns the module off platform-wide
func (m *Module) Disable() {
	m.Enabled = false
	m.UpdatedAt = time.Now()
}

// ModuleRepository defines the interface for module catalog persistence
type ModuleRepository interface {
	// FindByID finds a module by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Module, error)

	// FindByKey finds a module by its unique key
	FindByKey(ctx context.Context, key ModuleKey) (*Module, error)

	// FindAll returns the full catalog ordered by sort order
	FindAll(ctx context.Context) ([]Module, error)

	// FindEnabled returns all platform-enabled modules ordered by sort order
	FindEnabled(ctx context.Context) ([]Module, error)

	// ExistsByKey checks if a module with the given key exists
	ExistsByKey(ctx context.Context, key ModuleKey) (bool, error)

	// Save creates or updates a module
	Save(ctx context.Context, module *Module) error

	// SaveBatch creates or updates multiple modules
	SaveBatch(ctx context.Context, modules []Module) error

	// Delete deletes a module
	Delete(ctx context.Context, id uuid.UUID) error
}

// DefaultModules returns the module catalog seeded on a fresh install
func DefaultModules() []Module {
	return []Module{
		*NewModule(ModulePOS, "Point of Sale", "Register sales, void tickets, daily totals", "sales", true, 10),
		*NewModule(ModuleCRM, "Customers", "Customer directory, segments and profiles", "customers", false, 20),
		*NewModule(ModuleLoyalty, "Loyalty", "Loyalty tiers, points and RFM scoring", "customers", false, 30),
		*NewModule(ModuleReports, "Reports", "Sales summaries and scoring analytics", "analytics", false, 40),
		*NewModule(ModuleBackups, "Backups", "Scheduled tenant data exports", "operations", false, 50),
	}
}

// AllModuleKeys returns all defined module keys
func AllModuleKeys() []ModuleKey {
	return []ModuleKey{
		ModulePOS,
		ModuleCRM,
		ModuleLoyalty,
		ModuleReports,
		ModuleBackups,
	}
}

// IsValidModuleKey checks if a module key is one of the defined keys
func IsValidModuleKey(key ModuleKey) bool {
	for _, k := range AllModuleKeys() {
		if k == key {
			return true
		}
	}
	return false
}
