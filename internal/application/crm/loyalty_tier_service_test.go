package crm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/shared"
)

// MockLoyaltyTierRepository is a mock implementation of crm.LoyaltyTierRepository
type MockLoyaltyTierRepository struct {
	mock.Mock
}

func (m *MockLoyaltyTierRepository) FindByID(ctx context.Context, id uuid.UUID) (*crm.LoyaltyTier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.LoyaltyTier), args.Error(1)
}

func (m *MockLoyaltyTierRepository) FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*crm.LoyaltyTier, error) {
	args := m.Called(ctx, id, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crm.LoyaltyTier), args.Error(1)
}

func (m *MockLoyaltyTierRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]crm.LoyaltyTier, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]crm.LoyaltyTier), args.Error(1)
}

func (m *MockLoyaltyTierRepository) FindActiveForTenant(ctx context.Context, tenantID uuid.UUID) ([]crm.LoyaltyTier, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]crm.LoyaltyTier), args.Error(1)
}

func (m *MockLoyaltyTierRepository) ExistsByRank(ctx context.Context, tenantID uuid.UUID, rank int) (bool, error) {
	args := m.Called(ctx, tenantID, rank)
	return args.Bool(0), args.Error(1)
}

func (m *MockLoyaltyTierRepository) Save(ctx context.Context, tier *crm.LoyaltyTier) error {
	args := m.Called(ctx, tier)
	return args.Error(0)
}

func (m *MockLoyaltyTierRepository) SaveBatch(ctx context.Context, tiers []*crm.LoyaltyTier) error {
	args := m.Called(ctx, tiers)
	return args.Error(0)
}

func (m *MockLoyaltyTierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTierServiceForTest() (*LoyaltyTierService, *MockLoyaltyTierRepository, *MockCustomerRepository) {
	tierRepo := new(MockLoyaltyTierRepository)
	customerRepo := new(MockCustomerRepository)
	service := NewLoyaltyTierService(tierRepo, customerRepo, zap.NewNop())
	return service, tierRepo, customerRepo
}

func newTestTier(t *testing.T, tenantID uuid.UUID, name string, rank int) *crm.LoyaltyTier {
	t.Helper()
	tier, err := crm.NewLoyaltyTier(tenantID, name, rank, int64(rank*1000),
		decimal.NewFromInt(int64(rank*500)), decimal.NewFromInt(int64(rank)))
	require.NoError(t, err)
	return tier
}

func TestLoyaltyTierService_Create_Success(t *testing.T) {
	ctx := context.Background()
	service, tierRepo, _ := newTierServiceForTest()

	tenantID := uuid.New()
	tierRepo.On("ExistsByRank", ctx, tenantID, 5).Return(false, nil)

	var saved *crm.LoyaltyTier
	tierRepo.On("Save", ctx, mock.AnythingOfType("*crm.LoyaltyTier")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*crm.LoyaltyTier)
	}).Return(nil)

	dto, err := service.Create(ctx, CreateTierInput{
		TenantID:        tenantID,
		Name:            "Diamond",
		Rank:            5,
		MinPoints:       50000,
		MinSpent:        decimal.NewFromInt(25000),
		DiscountPercent: decimal.NewFromInt(20),
		Color:           "#b9f2ff",
	})

	require.NoError(t, err)
	assert.Equal(t, "Diamond", dto.Name)
	assert.Equal(t, 5, dto.Rank)
	assert.Equal(t, int64(50000), dto.MinPoints)
	assert.Equal(t, "#b9f2ff", dto.Color)
	assert.Equal(t, "active", dto.Status)

	require.NotNil(t, saved)
	assert.Equal(t, tenantID, saved.TenantID)
	assert.True(t, saved.DiscountPercent.Equal(decimal.NewFromInt(20)))
}

func TestLoyaltyTierService_Create_RankExists(t *testing.T) {
	ctx := context.Background()
	service, tierRepo, _ := newTierServiceForTest()

	tenantID := uuid.New()
	tierRepo.On("ExistsByRank", ctx, tenantID, 2).Return(true, nil)

	_, err := service.Create(ctx, CreateTierInput{
		TenantID:        tenantID,
		Name:            "Silver",
		Rank:            2,
		MinSpent:        decimal.Zero,
		DiscountPercent: decimal.Zero,
	})

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "TIER_RANK_EXISTS", domainErr.Code)
	tierRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestLoyaltyTierService_Create_InvalidDiscount(t *testing.T) {
	ctx := context.Background()
	service, tierRepo, _ := newTierServiceForTest()

	tenantID := uuid.New()
	tierRepo.On("ExistsByRank", ctx, tenantID, 1).Return(false, nil)

	_, err := service.Create(ctx, CreateTierInput{
		TenantID:        tenantID,
		Name:            "Bronze",
		Rank:            1,
		MinSpent:        decimal.Zero,
		DiscountPercent: decimal.NewFromInt(150),
	})

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_DISCOUNT", domainErr.Code)
}

func TestLoyaltyTierService_List_ReturnsLadder(t *testing.T) {
	ctx := context.Background()
	service, tierRepo, _ := newTierServiceForTest()

	tenantID := uuid.New()
	ladder, err := crm.DefaultTiers(tenantID)
	require.NoError(t, err)
	tiers := make([]crm.LoyaltyTier, len(ladder))
	for i := range ladder {
		tiers[i] = *ladder[i]
	}
	tierRepo.On("FindAllForTenant", ctx, tenantID).Return(tiers, nil)

	dtos, err := service.List(ctx, tenantID)

	require.NoError(t, err)
	require.Len(t, dtos, 4)
	assert.Equal(t, "Bronze", dtos[0].Name)
	assert.Equal(t, 1, dtos[0].Rank)
	assert.Equal(t, "Platinum", dtos[3].Name)
	assert.Equal(t, 4, dtos[3].Rank)
}

func TestLoyaltyTierService_Update_Success(t *testing.T) {
	ctx := context.Background()
	service, tierRepo, _ := newTierServiceForTest()

	tenantID := uuid.New()
	tier := newTestTier(t, tenantID, "Gold", 3)

	tierRepo.On("FindByIDForTenant", ctx, tier.ID, tenantID).Return(tier, nil)
	tierRepo.On("Save", ctx, tier).Return(nil)

	dto, err := service.Update(ctx, UpdateTierInput{
		ID:              tier.ID,
		TenantID:        tenantID,
		Name:            "Gold Plus",
		MinPoints:       6000,
		MinSpent:        decimal.NewFromInt(3000),
		DiscountPercent: decimal.NewFromInt(12),
		Color:           "#ffd700",
	})

	require.NoError(t, err)
	assert.Equal(t, "Gold Plus", dto.Name)
	assert.Equal(t, int64(6000), dto.MinPoints)
	assert.Equal(t, 3, dto.Rank)
	assert.Equal(t, "#ffd700", dto.Color)
}

func TestLoyaltyTierService_ChangeRank_Success(t *testing.T) {
	ctx := context.Background()
	service, tierRepo, _ := newTierServiceForTest()

	tenantID := uuid.New()
	tier := newTestTier(t, tenantID, "Gold", 3)

	tierRepo.On("FindByIDForTenant", ctx, tier.ID, tenantID).Return(tier, nil)
	tierRepo.On("ExistsByRank", ctx, tenantID, 5).Return(false, nil)
	tierRepo.On("Save", ctx, tier).Return(nil)

	dto, err := service.ChangeRank(ctx, tenantID, tier.ID, 5)

	require.NoError(t, err)
	assert.Equal(t, 5, dto.Rank)
}

func TestLoyaltyTierService_ChangeRank_Collision(t *testing.T) {
	ctx := context.Background()
	service, tierRepo, _ := newTierServiceForTest()

	tenantID := uuid.New()
	tier := newTestTier(t, tenantID, "Gold", 3)

	tierRepo.On("FindByIDForTenant", ctx, tier.ID, tenantID).Return(tier, nil)
	tierRepo.On("ExistsByRank", ctx, tenantID, 2).Return(true, nil)

	_, err := service.ChangeRank(ctx, tenantID, tier.ID, 2)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "TIER_RANK_EXISTS", domainErr.Code)
	tierRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestLoyaltyTierService_ChangeRank_SameRankSkipsCheck(t *testing.T) {
	ctx := context.Background()
	service, tierRepo, _ := newTierServiceForTest()

	tenantID := uuid.New()
	tier := newTestTier(t, tenantID, "Gold", 3)

	tierRepo.On("FindByIDForTenant", ctx, tier.ID, tenantID).Return(tier, nil)
	tierRepo.On("Save", ctx, tier).Return(nil)

	dto, err := service.ChangeRank(ctx, tenantID, tier.ID, 3)

	require.NoError(t, err)
	assert.Equal(t, 3, dto.Rank)
	tierRepo.AssertNotCalled(t, "ExistsByRank", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoyaltyTierService_Deactivate_Success(t *testing.T) {
	ctx := context.Background()
	service, tierRepo, _ := newTierServiceForTest()

	tenantID := uuid.New()
	tier := newTestTier(t, tenantID, "Gold", 3)

	tierRepo.On("FindByIDForTenant", ctx, tier.ID, tenantID).Return(tier, nil)
	tierRepo.On("Save", ctx, tier).Return(nil)

	dto, err := service.Deactivate(ctx, tenantID, tier.ID)

	require.NoError(t, err)
	assert.Equal(t, "inactive", dto.Status)
}

func TestLoyaltyTierService_Delete_InUse(t *testing.T) {
	ctx := context.Background()
	service, tierRepo, customerRepo := newTierServiceForTest()

	tenantID := uuid.New()
	tier := newTestTier(t, tenantID, "Gold", 3)

	tierRepo.On("FindByIDForTenant", ctx, tier.ID, tenantID).Return(tier, nil)
	customerRepo.On("CountByTier", ctx, tenantID, tier.ID).Return(int64(17), nil)

	err := service.Delete(ctx, tenantID, tier.ID)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "TIER_IN_USE", domainErr.Code)
	tierRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestLoyaltyTierService_Delete_Success(t *testing.T) {
	ctx := context.Background()
	service, tierRepo, customerRepo := newTierServiceForTest()

	tenantID := uuid.New()
	tier := newTestTier(t, tenantID, "Gold", 3)

	tierRepo.On("FindByIDForTenant", ctx, tier.ID, tenantID).Return(tier, nil)
	customerRepo.On("CountByTier", ctx, tenantID, tier.ID).Return(int64(0), nil)
	tierRepo.On("Delete", ctx, tier.ID).Return(nil)

	err := service.Delete(ctx, tenantID, tier.ID)

	require.NoError(t, err)
	tierRepo.AssertExpectations(t)
}

func TestLoyaltyTierService_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	service, tierRepo, _ := newTierServiceForTest()

	tenantID := uuid.New()
	tierID := uuid.New()
	tierRepo.On("FindByIDForTenant", ctx, tierID, tenantID).Return(nil, shared.ErrNotFound)

	_, err := service.GetByID(ctx, tenantID, tierID)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "TIER_NOT_FOUND", domainErr.Code)
}
