package platform

import (
	"context"
	"sort"
	"time"

	"github.com/retailsuite/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SubscriptionStatus represents the status of a tenant's package subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// Subscription links a tenant to its current package.
// A tenant has at most one active subscription; replacing the package
// cancels the previous subscription and creates a new one.
type Subscription struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	PackageID       uuid.UUID
	Status          SubscriptionStatus
	StartsAt        time.Time
	ExpiresAt       *time.Time // nil = evergreen
	CancelledAt     *time.Time
	AddonModuleKeys []ModuleKey // Modules granted on top of the package
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewSubscription creates an active subscription for a tenant
func NewSubscription(tenantID, packageID uuid.UUID, expiresAt *time.Time) (*Subscription, error) {
	now := time.Now()
	if expiresAt != nil && !expiresAt.After(now) {
		return nil, shared.NewDomainError("INVALID_EXPIRY", "Subscription expiry must be in the future")
	}

	return &Subscription{
		ID:        uuid.New(),
		TenantID:  tenantID,
		PackageID: packageID,
		Status:    SubscriptionStatusActive,
		StartsAt:  now,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsActive returns true while the subscription grants module access
func (s *Subscription) IsActive() bool {
	if s.Status != SubscriptionStatusActive {
		return false
	}
	if s.ExpiresAt != nil && time.Now().After(*s.ExpiresAt) {
		return false
	}
	return true
}

// IsExpired returns true if the subscription window has passed
func (s *Subscription) IsExpired() bool {
	return s.ExpiresAt != nil && time.Now().After(*s.ExpiresAt)
}

// Cancel cancels the subscription
func (s *Subscription) Cancel() error {
	if s.Status == SubscriptionStatusCancelled {
		return shared.NewDomainError("ALREADY_CANCELLED", "Subscription is already cancelled")
	}

	now := time.Now()
	s.Status = SubscriptionStatusCancelled
	s.CancelledAt = &now
	s.UpdatedAt = now
	return nil
}

// MarkExpired transitions an active subscription whose window has passed
func (s *Subscription) MarkExpired() error {
	if s.Status != SubscriptionStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active subscriptions can expire")
	}
	if !s.IsExpired() {
		return shared.NewDomainError("NOT_EXPIRED", "Subscription window has not passed yet")
	}

	s.Status = SubscriptionStatusExpired
	s.UpdatedAt = time.Now()
	return nil
}

// AddAddon grants an extra module on top of the package
func (s *Subscription) AddAddon(key ModuleKey) error {
	if !IsValidModuleKey(key) {
		return shared.NewDomainError("INVALID_MODULE_KEY", "Unknown module key: "+string(key))
	}
	for _, k := range s.AddonModuleKeys {
		if k == key {
			return shared.NewDomainError("ADDON_EXISTS", "Module is already an addon")
		}
	}

	s.AddonModuleKeys = append(s.AddonModuleKeys, key)
	s.UpdatedAt = time.Now()
	return nil
}

// RemoveAddon revokes an addon module
func (s *Subscription) RemoveAddon(key ModuleKey) error {
	for i, k := range s.AddonModuleKeys {
		if k == key {
			s.AddonModuleKeys = append(s.AddonModuleKeys[:i], s.AddonModuleKeys[i+1:]...)
			s.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.NewDomainError("ADDON_NOT_FOUND", "Module is not an addon of this subscription")
}

// SubscriptionRepository defines the interface for subscription persistence
type SubscriptionRepository interface {
	// FindByID finds a subscription by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Subscription, error)

	// FindActiveByTenant finds the tenant's active subscription, if any
	FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) (*Subscription, error)

	// FindByTenant finds all subscriptions of a tenant, newest first
	FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]Subscription, error)

	// FindExpiring finds active subscriptions that expire before the given time
	FindExpiring(ctx context.Context, before time.Time) ([]Subscription, error)

	// Save creates or updates a subscription
	Save(ctx context.Context, sub *Subscription) error

	// Delete deletes a subscription
	Delete(ctx context.Context, id uuid.UUID) error
}

// EffectiveModuleKeys resolves the set of modules a tenant can use:
// platform-enabled core modules, plus the package's modules and any addons
// when the subscription is active and the package still exists, with
// platform-disabled modules filtered out. The result follows catalog sort
// order.
func EffectiveModuleKeys(catalog []Module, pkg *Package, sub *Subscription) []ModuleKey {
	enabled := make(map[ModuleKey]Module, len(catalog))
	for _, m := range catalog {
		if m.Enabled {
			enabled[m.Key] = m
		}
	}

	granted := make(map[ModuleKey]bool)
	for key, m := range enabled {
		if m.IsCore {
			granted[key] = true
		}
	}

	if sub != nil && sub.IsActive() && pkg != nil {
		for _, key := range pkg.ModuleKeys {
			if _, ok := enabled[key]; ok {
				granted[key] = true
			}
		}
		for _, key := range sub.AddonModuleKeys {
			if _, ok := enabled[key]; ok {
				granted[key] = true
			}
		}
	}

	keys := make([]ModuleKey, 0, len(granted))
	for key := range granted {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return enabled[keys[i]].SortOrder < enabled[keys[j]].SortOrder
	})

	return keys
}
