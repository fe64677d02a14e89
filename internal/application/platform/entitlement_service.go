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

// EntitlementService resolves which modules a tenant can use and manages
// package subscriptions. Effective sets are cached per tenant; every
// subscription or catalog change invalidates the cache so the middleware
// never works from stale grants for longer than the TTL.
type EntitlementService struct {
	txScope          TransactionScope
	moduleRepo       platform.ModuleRepository
	packageRepo      platform.PackageRepository
	subscriptionRepo platform.SubscriptionRepository
	tenantRepo       platform.TenantRepository
	cache            platform.EntitlementCache
	logger           *zap.Logger
}

// NewEntitlementService creates a new entitlement service
func NewEntitlementService(
	txScope TransactionScope,
	moduleRepo platform.ModuleRepository,
	packageRepo platform.PackageRepository,
	subscriptionRepo platform.SubscriptionRepository,
	tenantRepo platform.TenantRepository,
	cache platform.EntitlementCache,
	logger *zap.Logger,
) *EntitlementService {
	return &EntitlementService{
		txScope:          txScope,
		moduleRepo:       moduleRepo,
		packageRepo:      packageRepo,
		subscriptionRepo: subscriptionRepo,
		tenantRepo:       tenantRepo,
		cache:            cache,
		logger:           logger,
	}
}

// TenantModuleDTO is a module catalog entry annotated for one tenant
type TenantModuleDTO struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	IsCore      bool   `json:"is_core"`
	Enabled     bool   `json:"enabled"`
	SortOrder   int    `json:"sort_order"`
}

// SubscriptionDTO represents a tenant's package subscription
type SubscriptionDTO struct {
	ID              uuid.UUID  `json:"id"`
	TenantID        uuid.UUID  `json:"tenant_id"`
	PackageID       uuid.UUID  `json:"package_id"`
	PackageCode     string     `json:"package_code,omitempty"`
	PackageName     string     `json:"package_name,omitempty"`
	Status          string     `json:"status"`
	StartsAt        time.Time  `json:"starts_at"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	AddonModuleKeys []string   `json:"addon_module_keys,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// SubscribeTenantInput contains input for subscribing a tenant to a package
type SubscribeTenantInput struct {
	TenantID    uuid.UUID
	PackageCode string
	ExpiresAt   *time.Time // nil = evergreen
}

// EffectiveModules returns the module keys the tenant is entitled to. The
// result is served from the cache when possible; cache errors fall back to a
// catalog lookup so a Redis outage degrades to slower reads, not failures.
func (s *EntitlementService) EffectiveModules(ctx context.Context, tenantID uuid.UUID) ([]platform.ModuleKey, error) {
	keys, err := s.cache.Get(ctx, tenantID)
	if err != nil {
		s.logger.Warn("Entitlement cache read failed, falling back to catalog",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
	} else if keys != nil {
		return keys, nil
	}

	keys, err = s.computeEffective(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, tenantID, keys, 0); err != nil {
		s.logger.Warn("Entitlement cache write failed",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
	}

	return keys, nil
}

// HasModule reports whether the tenant is entitled to the given module
func (s *EntitlementService) HasModule(ctx context.Context, tenantID uuid.UUID, key platform.ModuleKey) (bool, error) {
	keys, err := s.EffectiveModules(ctx, tenantID)
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		if k == key {
			return true, nil
		}
	}
	return false, nil
}

// GetModuleCatalog returns the full module catalog with each entry annotated
// with whether the calling tenant is entitled to it
func (s *EntitlementService) GetModuleCatalog(ctx context.Context, tenantID uuid.UUID) ([]TenantModuleDTO, error) {
	catalog, err := s.moduleRepo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to load module catalog", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load module catalog")
	}

	effective, err := s.EffectiveModules(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	granted := make(map[platform.ModuleKey]bool, len(effective))
	for _, key := range effective {
		granted[key] = true
	}

	dtos := make([]TenantModuleDTO, len(catalog))
	for i, m := range catalog {
		dtos[i] = TenantModuleDTO{
			Key:         string(m.Key),
			Name:        m.Name,
			Description: m.Description,
			Category:    m.Category,
			IsCore:      m.IsCore,
			Enabled:     granted[m.Key],
			SortOrder:   m.SortOrder,
		}
	}
	return dtos, nil
}

// Subscribe replaces the tenant's active subscription with a new one for the
// given package. The old subscription's cancellation, the new subscription
// and the package limits applied to the tenant config commit atomically.
func (s *EntitlementService) Subscribe(ctx context.Context, input SubscribeTenantInput) (*SubscriptionDTO, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, input.TenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TENANT_NOT_FOUND", "Tenant not found")
		}
		s.logger.Error("Failed to find tenant", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find tenant")
	}

	pkg, err := s.packageRepo.FindByCode(ctx, input.PackageCode)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PACKAGE_NOT_FOUND", "Package not found: "+input.PackageCode)
		}
		s.logger.Error("Failed to find package", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find package")
	}

	var subscription *platform.Subscription
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.SubscriptionRepo().FindActiveByTenant(ctx, input.TenantID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if existing != nil {
			if err := existing.Cancel(); err != nil {
				return err
			}
			if err := repos.SubscriptionRepo().Save(ctx, existing); err != nil {
				return err
			}
		}

		subscription, err = platform.NewSubscription(input.TenantID, pkg.ID, input.ExpiresAt)
		if err != nil {
			return err
		}
		if err := repos.SubscriptionRepo().Save(ctx, subscription); err != nil {
			return err
		}

		if err := tenant.AssignPackage(pkg); err != nil {
			return err
		}
		return repos.TenantRepo().Save(ctx, tenant)
	})
	if err != nil {
		s.logger.Error("Failed to subscribe tenant",
			zap.String("tenant_id", input.TenantID.String()),
			zap.String("package", input.PackageCode),
			zap.Error(err))
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to subscribe tenant")
	}

	s.invalidateTenant(ctx, input.TenantID)

	s.logger.Info("Tenant subscribed to package",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("package", pkg.Code))

	return toSubscriptionDTO(subscription, pkg), nil
}

// GetSubscription returns the tenant's active subscription
func (s *EntitlementService) GetSubscription(ctx context.Context, tenantID uuid.UUID) (*SubscriptionDTO, error) {
	subscription, err := s.findActiveSubscription(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return toSubscriptionDTO(subscription, s.lookupPackage(ctx, subscription.PackageID)), nil
}

// Cancel cancels the tenant's active subscription. The tenant keeps its core
// modules.
func (s *EntitlementService) Cancel(ctx context.Context, tenantID uuid.UUID) (*SubscriptionDTO, error) {
	subscription, err := s.findActiveSubscription(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := subscription.Cancel(); err != nil {
		return nil, err
	}
	if err := s.subscriptionRepo.Save(ctx, subscription); err != nil {
		s.logger.Error("Failed to cancel subscription", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to cancel subscription")
	}

	s.invalidateTenant(ctx, tenantID)

	s.logger.Info("Subscription cancelled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("subscription_id", subscription.ID.String()))

	return toSubscriptionDTO(subscription, s.lookupPackage(ctx, subscription.PackageID)), nil
}

// AddAddon grants the tenant an extra module on top of its package
func (s *EntitlementService) AddAddon(ctx context.Context, tenantID uuid.UUID, key platform.ModuleKey) (*SubscriptionDTO, error) {
	subscription, err := s.findActiveSubscription(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := subscription.AddAddon(key); err != nil {
		return nil, err
	}
	if err := s.subscriptionRepo.Save(ctx, subscription); err != nil {
		s.logger.Error("Failed to add addon", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to add addon")
	}

	s.invalidateTenant(ctx, tenantID)

	return toSubscriptionDTO(subscription, s.lookupPackage(ctx, subscription.PackageID)), nil
}

// RemoveAddon revokes an addon module from the tenant's subscription
func (s *EntitlementService) RemoveAddon(ctx context.Context, tenantID uuid.UUID, key platform.ModuleKey) (*SubscriptionDTO, error) {
	subscription, err := s.findActiveSubscription(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := subscription.RemoveAddon(key); err != nil {
		return nil, err
	}
	if err := s.subscriptionRepo.Save(ctx, subscription); err != nil {
		s.logger.Error("Failed to remove addon", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to remove addon")
	}

	s.invalidateTenant(ctx, tenantID)

	return toSubscriptionDTO(subscription, s.lookupPackage(ctx, subscription.PackageID)), nil
}

// computeEffective resolves the entitlement set from the catalog, the active
// subscription and its package. A missing or expired subscription leaves the
// tenant with core modules only.
func (s *EntitlementService) computeEffective(ctx context.Context, tenantID uuid.UUID) ([]platform.ModuleKey, error) {
	catalog, err := s.moduleRepo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to load module catalog", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load module catalog")
	}

	subscription, err := s.subscriptionRepo.FindActiveByTenant(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Error("Failed to load subscription", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load subscription")
		}
		subscription = nil
	}

	var pkg *platform.Package
	if subscription != nil {
		pkg, err = s.packageRepo.FindByID(ctx, subscription.PackageID)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				s.logger.Error("Failed to load package", zap.Error(err))
				return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load package")
			}
			// A deleted package leaves the tenant with core modules only
			pkg = nil
		}
	}

	return platform.EffectiveModuleKeys(catalog, pkg, subscription), nil
}

// findActiveSubscription loads the tenant's active subscription or maps the
// miss to a domain error
func (s *EntitlementService) findActiveSubscription(ctx context.Context, tenantID uuid.UUID) (*platform.Subscription, error) {
	subscription, err := s.subscriptionRepo.FindActiveByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("SUBSCRIPTION_NOT_FOUND", "Tenant has no active subscription")
		}
		s.logger.Error("Failed to find subscription", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find subscription")
	}
	return subscription, nil
}

// lookupPackage fetches package display fields for DTOs, tolerating a miss
func (s *EntitlementService) lookupPackage(ctx context.Context, packageID uuid.UUID) *platform.Package {
	pkg, err := s.packageRepo.FindByID(ctx, packageID)
	if err != nil {
		return nil
	}
	return pkg
}

// invalidateTenant drops the tenant's cached entitlements, logging but not
// failing on cache errors
func (s *EntitlementService) invalidateTenant(ctx context.Context, tenantID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, tenantID); err != nil {
		s.logger.Warn("Failed to invalidate entitlement cache",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
	}
}

// toSubscriptionDTO converts a domain Subscription to SubscriptionDTO
func toSubscriptionDTO(sub *platform.Subscription, pkg *platform.Package) *SubscriptionDTO {
	dto := &SubscriptionDTO{
		ID:          sub.ID,
		TenantID:    sub.TenantID,
		PackageID:   sub.PackageID,
		Status:      string(sub.Status),
		StartsAt:    sub.StartsAt,
		ExpiresAt:   sub.ExpiresAt,
		CancelledAt: sub.CancelledAt,
		CreatedAt:   sub.CreatedAt,
	}
	if pkg != nil {
		dto.PackageCode = pkg.Code
		dto.PackageName = pkg.Name
	}
	if len(sub.AddonModuleKeys) > 0 {
		dto.AddonModuleKeys = make([]string, len(sub.AddonModuleKeys))
		for i, key := range sub.AddonModuleKeys {
			dto.AddonModuleKeys[i] = string(key)
		}
	}
	return dto
}
