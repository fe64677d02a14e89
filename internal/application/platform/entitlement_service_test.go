package platform

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/domain/shared"
)

// MockModuleRepository is a mock implementation of platform.ModuleRepository
type MockModuleRepository struct {
	mock.Mock
}

func (m *MockModuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*platform.Module, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.Module), args.Error(1)
}

func (m *MockModuleRepository) FindByKey(ctx context.Context, key platform.ModuleKey) (*platform.Module, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.Module), args.Error(1)
}

func (m *MockModuleRepository) FindAll(ctx context.Context) ([]platform.Module, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]platform.Module), args.Error(1)
}

func (m *MockModuleRepository) FindEnabled(ctx context.Context) ([]platform.Module, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]platform.Module), args.Error(1)
}

func (m *MockModuleRepository) ExistsByKey(ctx context.Context, key platform.ModuleKey) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockModuleRepository) Save(ctx context.Context, module *platform.Module) error {
	args := m.Called(ctx, module)
	return args.Error(0)
}

func (m *MockModuleRepository) SaveBatch(ctx context.Context, modules []platform.Module) error {
	args := m.Called(ctx, modules)
	return args.Error(0)
}

func (m *MockModuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockEntitlementCache is a mock implementation of platform.EntitlementCache
type MockEntitlementCache struct {
	mock.Mock
}

func (m *MockEntitlementCache) Get(ctx context.Context, tenantID uuid.UUID) ([]platform.ModuleKey, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]platform.ModuleKey), args.Error(1)
}

func (m *MockEntitlementCache) Set(ctx context.Context, tenantID uuid.UUID, keys []platform.ModuleKey, ttl time.Duration) error {
	args := m.Called(ctx, tenantID, keys, ttl)
	return args.Error(0)
}

func (m *MockEntitlementCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockEntitlementCache) InvalidateAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type entitlementServiceMocks struct {
	moduleRepo  *MockModuleRepository
	packageRepo *MockPackageRepository
	subRepo     *MockSubscriptionRepository
	tenantRepo  *MockTenantRepository
	cache       *MockEntitlementCache
}

func newEntitlementServiceForTest() (*EntitlementService, *entitlementServiceMocks) {
	m := &entitlementServiceMocks{
		moduleRepo:  new(MockModuleRepository),
		packageRepo: new(MockPackageRepository),
		subRepo:     new(MockSubscriptionRepository),
		tenantRepo:  new(MockTenantRepository),
		cache:       new(MockEntitlementCache),
	}
	txScope := NewNoOpTransactionScope(m.tenantRepo, m.subRepo, new(MockBranchRepository), new(MockUserRepository), new(MockLoyaltyTierRepository))
	service := NewEntitlementService(txScope, m.moduleRepo, m.packageRepo, m.subRepo, m.tenantRepo, m.cache, zap.NewNop())
	return service, m
}

func TestEntitlementService_EffectiveModules_CacheHit(t *testing.T) {
	service, m := newEntitlementServiceForTest()
	tenantID := uuid.New()
	cached := []platform.ModuleKey{platform.ModulePOS, platform.ModuleCRM}

	m.cache.On("Get", mock.Anything, tenantID).Return(cached, nil)

	keys, err := service.EffectiveModules(context.Background(), tenantID)

	require.NoError(t, err)
	assert.Equal(t, cached, keys)
	m.moduleRepo.AssertNotCalled(t, "FindAll", mock.Anything)
	m.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEntitlementService_EffectiveModules_ComputesAndCaches(t *testing.T) {
	service, m := newEntitlementServiceForTest()
	tenantID := uuid.New()
	starter := starterPackage()

	subscription, err := platform.NewSubscription(tenantID, starter.ID, nil)
	require.NoError(t, err)

	m.cache.On("Get", mock.Anything, tenantID).Return(nil, nil)
	m.moduleRepo.On("FindAll", mock.Anything).Return(platform.DefaultModules(), nil)
	m.subRepo.On("FindActiveByTenant", mock.Anything, tenantID).Return(subscription, nil)
	m.packageRepo.On("FindByID", mock.Anything, starter.ID).Return(starter, nil)
	m.cache.On("Set", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(nil)

	keys, err := service.EffectiveModules(context.Background(), tenantID)

	require.NoError(t, err)
	assert.Equal(t, []platform.ModuleKey{platform.ModulePOS, platform.ModuleCRM}, keys)
	m.cache.AssertCalled(t, "Set", mock.Anything, tenantID, keys, time.Duration(0))
}

func TestEntitlementService_EffectiveModules_NoSubscriptionCoreOnly(t *testing.T) {
	service, m := newEntitlementServiceForTest()
	tenantID := uuid.New()

	m.cache.On("Get", mock.Anything, tenantID).Return(nil, nil)
	m.moduleRepo.On("FindAll", mock.Anything).Return(platform.DefaultModules(), nil)
	m.subRepo.On("FindActiveByTenant", mock.Anything, tenantID).Return(nil, shared.ErrNotFound)
	m.cache.On("Set", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(nil)

	keys, err := service.EffectiveModules(context.Background(), tenantID)

	require.NoError(t, err)
	assert.Equal(t, []platform.ModuleKey{platform.ModulePOS}, keys)
	m.packageRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestEntitlementService_EffectiveModules_ExpiredSubscriptionCoreOnly(t *testing.T) {
	service, m := newEntitlementServiceForTest()
	tenantID := uuid.New()
	starter := starterPackage()

	subscription, err := platform.NewSubscription(tenantID, starter.ID, nil)
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	subscription.ExpiresAt = &past

	m.cache.On("Get", mock.Anything, tenantID).Return(nil, nil)
	m.moduleRepo.On("FindAll", mock.Anything).Return(platform.DefaultModules(), nil)
	m.subRepo.On("FindActiveByTenant", mock.Anything, tenantID).Return(subscription, nil)
	m.packageRepo.On("FindByID", mock.Anything, starter.ID).Return(starter, nil)
	m.cache.On("Set", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(nil)

	keys, err := service.EffectiveModules(context.Background(), tenantID)

	require.NoError(t, err)
	assert.Equal(t, []platform.ModuleKey{platform.ModulePOS}, keys)
}

func TestEntitlementService_EffectiveModules_DisabledModuleFiltered(t *testing.T) {
	service, m := newEntitlementServiceForTest()
	tenantID := uuid.New()
	starter := starterPackage()

	catalog := platform.DefaultModules()
	for i := range catalog {
		if catalog[i].Key == platform.ModuleCRM {
			catalog[i].Disable()
		}
	}

	subscription, err := platform.NewSubscription(tenantID, starter.ID, nil)
	require.NoError(t, err)

	m.cache.On("Get", mock.Anything, tenantID).Return(nil, nil)
	m.moduleRepo.On("FindAll", mock.Anything).Return(catalog, nil)
	m.subRepo.On("FindActiveByTenant", mock.Anything, tenantID).Return(subscription, nil)
	m.packageRepo.On("FindByID", mock.Anything, starter.ID).Return(starter, nil)
	m.cache.On("Set", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(nil)

	keys, err := service.EffectiveModules(context.Background(), tenantID)

	require.NoError(t, err)
	assert.Equal(t, []platform.ModuleKey{platform.ModulePOS}, keys)
}

func TestEntitlementService_EffectiveModules_CacheErrorFallsBack(t *testing.T) {
	service, m := newEntitlementServiceForTest()
	tenantID := uuid.New()

	m.cache.On("Get", mock.Anything, tenantID).Return(nil, errors.New("redis down"))
	m.moduleRepo.On("FindAll", mock.Anything).Return(platform.DefaultModules(), nil)
	m.subRepo.On("FindActiveByTenant", mock.Anything, tenantID).Return(nil, shared.ErrNotFound)
	m.cache.On("Set", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	keys, err := service.EffectiveModules(context.Background(), tenantID)

	require.NoError(t, err)
	assert.Equal(t, []platform.ModuleKey{platform.ModulePOS}, keys)
}

func TestEntitlementService_HasModule(t *testing.T) {
	service, m := newEntitlementServiceForTest()
	tenantID := uuid.New()

	m.cache.On("Get", mock.Anything, tenantID).Return([]platform.ModuleKey{platform.ModulePOS, platform.ModuleCRM}, nil)

	hasCRM, err := service.HasModule(context.Background(), tenantID, platform.ModuleCRM)
	require.NoError(t, err)
	assert.True(t, hasCRM)

	hasBackups, err := service.HasModule(context.Background(), tenantID, platform.ModuleBackups)
	require.NoError(t, err)
	assert.False(t, hasBackups)
}

func TestEntitlementService_GetModuleCatalog_AnnotatesEntitlements(t *testing.T) {
	service, m := newEntitlementServiceForTest()
	tenantID := uuid.New()

	m.moduleRepo.On("FindAll", mock.Anything).Return(platform.DefaultModules(), nil)
	m.cache.On("Get", mock.Anything, tenantID).Return([]platform.ModuleKey{platform.ModulePOS, platform.ModuleCRM}, nil)

	catalog, err := service.GetModuleCatalog(context.Background(), tenantID)

	require.NoError(t, err)
	require.Len(t, catalog, 5)
	enabled := make(map[string]bool, len(catalog))
	for _, entry := range catalog {
		enabled[entry.Key] = entry.Enabled
	}
	assert.True(t, enabled["pos"])
	assert.True(t, enabled["crm"])
	assert.False(t, enabled["loyalty"])
	assert.False(t, enabled["reports"])
	assert.False(t, enabled["backups"])
}

func TestEntitlementService_Subscribe_ReplacesActiveSubscription(t *testing.T) {
	service, m := newEntitlementServiceForTest()

	tenant, err := platform.NewTenant("acme", "Acme Stores")
	require.NoError(t, err)

	pkgs := platform.DefaultPackages()
	starter, standard := &pkgs[0], &pkgs[1]

	existing, err := platform.NewSubscription(tenant.ID, starter.ID, nil)
	require.NoError(t, err)

	m.tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	m.packageRepo.On("FindByCode", mock.Anything, "standard").Return(standard, nil)
	m.subRepo.On("FindActiveByTenant", mock.Anything, tenant.ID).Return(existing, nil)
	m.subRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	m.tenantRepo.On("Save", mock.Anything, tenant).Return(nil)
	m.cache.On("Invalidate", mock.Anything, tenant.ID).Return(nil)

	result, err := service.Subscribe(context.Background(), SubscribeTenantInput{
		TenantID:    tenant.ID,
		PackageCode: "standard",
	})

	require.NoError(t, err)
	assert.Equal(t, "standard", result.PackageCode)
	assert.Equal(t, "active", result.Status)
	assert.Equal(t, platform.SubscriptionStatusCancelled, existing.Status)
	// Old cancelled, new created
	m.subRepo.AssertNumberOfCalls(t, "Save", 2)
	// Package limits land on the tenant config
	assert.Equal(t, 20, tenant.Config.MaxUsers)
	assert.Equal(t, 5, tenant.Config.MaxBranches)
	m.cache.AssertCalled(t, "Invalidate", mock.Anything, tenant.ID)
}

func TestEntitlementService_Subscribe_FirstSubscription(t *testing.T) {
	service, m := newEntitlementServiceForTest()

	tenant, err := platform.NewTenant("acme", "Acme Stores")
	require.NoError(t, err)
	starter := starterPackage()

	m.tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	m.packageRepo.On("FindByCode", mock.Anything, "starter").Return(starter, nil)
	m.subRepo.On("FindActiveByTenant", mock.Anything, tenant.ID).Return(nil, shared.ErrNotFound)
	m.subRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	m.tenantRepo.On("Save", mock.Anything, tenant).Return(nil)
	m.cache.On("Invalidate", mock.Anything, tenant.ID).Return(nil)

	result, err := service.Subscribe(context.Background(), SubscribeTenantInput{
		TenantID:    tenant.ID,
		PackageCode: "starter",
	})

	require.NoError(t, err)
	assert.Equal(t, tenant.ID, result.TenantID)
	m.subRepo.AssertNumberOfCalls(t, "Save", 1)
}

func TestEntitlementService_Subscribe_PackageNotFound(t *testing.T) {
	service, m := newEntitlementServiceForTest()

	tenant, err := platform.NewTenant("acme", "Acme Stores")
	require.NoError(t, err)

	m.tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	m.packageRepo.On("FindByCode", mock.Anything, "enterprise").Return(nil, shared.ErrNotFound)

	result, err := service.Subscribe(context.Background(), SubscribeTenantInput{
		TenantID:    tenant.ID,
		PackageCode: "enterprise",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "PACKAGE_NOT_FOUND", domainErr.Code)
}

func TestEntitlementService_Cancel_Success(t *testing.T) {
	service, m := newEntitlementServiceForTest()
	tenantID := uuid.New()
	starter := starterPackage()

	subscription, err := platform.NewSubscription(tenantID, starter.ID, nil)
	require.NoError(t, err)

	m.subRepo.On("FindActiveByTenant", mock.Anything, tenantID).Return(subscription, nil)
	m.subRepo.On("Save", mock.Anything, subscription).Return(nil)
	m.packageRepo.On("FindByID", mock.Anything, starter.ID).Return(starter, nil)
	m.cache.On("Invalidate", mock.Anything, tenantID).Return(nil)

	result, err := service.Cancel(context.Background(), tenantID)

	require.NoError(t, err)
	assert.Equal(t, "cancelled", result.Status)
	assert.NotNil(t, result.CancelledAt)
	m.cache.AssertCalled(t, "Invalidate", mock.Anything, tenantID)
}

func TestEntitlementService_Cancel_NoActiveSubscription(t *testing.T) {
	service, m := newEntitlementServiceForTest()
	tenantID := uuid.New()

	m.subRepo.On("FindActiveByTenant", mock.Anything, tenantID).Return(nil, shared.ErrNotFound)

	result, err := service.Cancel(context.Background(), tenantID)

	require.Error(t, err)
	assert.Nil(t, result)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "SUBSCRIPTION_NOT_FOUND", domainErr.Code)
}

func TestEntitlementService_AddAddon_Success(t *testing.T) {
	service, m := newEntitlementServiceForTest()
	tenantID := uuid.New()
	starter := starterPackage()

	subscription, err := platform.NewSubscription(tenantID, starter.ID, nil)
	require.NoError(t, err)

	m.subRepo.On("FindActiveByTenant", mock.Anything, tenantID).Return(subscription, nil)
	m.subRepo.On("Save", mock.Anything, subscription).Return(nil)
	m.packageRepo.On("FindByID", mock.Anything, starter.ID).Return(starter, nil)
	m.cache.On("Invalidate", mock.Anything, tenantID).Return(nil)

	result, err := service.AddAddon(context.Background(), tenantID, platform.ModuleLoyalty)

	require.NoError(t, err)
	assert.Equal(t, []string{"loyalty"}, result.AddonModuleKeys)
	m.cache.AssertCalled(t, "Invalidate", mock.Anything, tenantID)
}

func TestEntitlementService_AddAddon_UnknownModule(t *testing.T) {
	service, m := newEntitlementServiceForTest()
	tenantID := uuid.New()
	starter := starterPackage()

	subscription, err := platform.NewSubscription(tenantID, starter.ID, nil)
	require.NoError(t, err)

	m.subRepo.On("FindActiveByTenant", mock.Anything, tenantID).Return(subscription, nil)

	result, err := service.AddAddon(context.Background(), tenantID, platform.ModuleKey("warehousing"))

	require.Error(t, err)
	assert.Nil(t, result)
	m.subRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	m.cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestEntitlementService_RemoveAddon_Success(t *testing.T) {
	service, m := newEntitlementServiceForTest()
	tenantID := uuid.New()
	starter := starterPackage()

	subscription, err := platform.NewSubscription(tenantID, starter.ID, nil)
	require.NoError(t, err)
	require.NoError(t, subscription.AddAddon(platform.ModuleLoyalty))

	m.subRepo.On("FindActiveByTenant", mock.Anything, tenantID).Return(subscription, nil)
	m.subRepo.On("Save", mock.Anything, subscription).Return(nil)
	m.packageRepo.On("FindByID", mock.Anything, starter.ID).Return(starter, nil)
	m.cache.On("Invalidate", mock.Anything, tenantID).Return(nil)

	result, err := service.RemoveAddon(context.Background(), tenantID, platform.ModuleLoyalty)

	require.NoError(t, err)
	assert.Empty(t, result.AddonModuleKeys)
}
