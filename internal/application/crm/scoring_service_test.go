package crm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/sales"
	"github.com/retailsuite/backend/internal/domain/shared"
	"github.com/retailsuite/backend/internal/infrastructure/scheduler"
)

// MockSaleRepository is a mock implementation of sales.SaleRepository
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*sales.Sale, error) {
	args := m.Called(ctx, id, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*sales.Sale, error) {
	args := m.Called(ctx, tenantID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter sales.SaleFilter) ([]sales.Sale, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]sales.Sale), args.Get(1).(int64), args.Error(2)
}

func (m *MockSaleRepository) FindAllWithLines(ctx context.Context, tenantID uuid.UUID, filter sales.SaleFilter) ([]sales.Sale, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

func (m *MockSaleRepository) DailySummaries(ctx context.Context, tenantID uuid.UUID, days int) ([]sales.DailySummary, error) {
	args := m.Called(ctx, tenantID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.DailySummary), args.Error(1)
}

func (m *MockSaleRepository) CustomerTotals(ctx context.Context, tenantID uuid.UUID, windowStart, windowEnd time.Time) ([]sales.CustomerSalesTotals, error) {
	args := m.Called(ctx, tenantID, windowStart, windowEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.CustomerSalesTotals), args.Error(1)
}

func (m *MockSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

// fakeJobSubmitter records submitted jobs instead of running them.
type fakeJobSubmitter struct {
	jobs       []*scheduler.Job
	submitErr  error
	maxRetries int
}

func (f *fakeJobSubmitter) SubmitJob(job *scheduler.Job) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeJobSubmitter) MaxRetries() int {
	return f.maxRetries
}

type scoringServiceMocks struct {
	customerRepo *MockCustomerRepository
	saleRepo     *MockSaleRepository
	scoreRepo    *MockCustomerScoreRepository
	segmentRepo  *MockCustomerSegmentRepository
	tierRepo     *MockLoyaltyTierRepository
	tenantRepo   *MockTenantRepository
	jobs         *fakeJobSubmitter
}

func newScoringServiceForTest() (*ScoringService, *scoringServiceMocks) {
	m := &scoringServiceMocks{
		customerRepo: new(MockCustomerRepository),
		saleRepo:     new(MockSaleRepository),
		scoreRepo:    new(MockCustomerScoreRepository),
		segmentRepo:  new(MockCustomerSegmentRepository),
		tierRepo:     new(MockLoyaltyTierRepository),
		tenantRepo:   new(MockTenantRepository),
		jobs:         &fakeJobSubmitter{maxRetries: 3},
	}
	service := NewScoringService(
		m.customerRepo, m.saleRepo, m.scoreRepo, m.segmentRepo, m.tierRepo, m.tenantRepo,
		m.jobs, crm.ScoringConfig{}, zap.NewNop(),
	)
	return service, m
}

func TestScoringService_Trigger_Success(t *testing.T) {
	service, mocks := newScoringServiceForTest()
	tenant := activeTenant(t)

	mocks.tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)

	result, err := service.Trigger(context.Background(), tenant.ID)

	require.NoError(t, err)
	assert.Equal(t, tenant.ID, result.TenantID)
	assert.Equal(t, string(scheduler.JobStatusPending), result.Status)

	require.Len(t, mocks.jobs.jobs, 1)
	job := mocks.jobs.jobs[0]
	assert.Equal(t, scheduler.JobTypeCustomerScoring, job.Type)
	require.NotNil(t, job.TenantID)
	assert.Equal(t, tenant.ID, *job.TenantID)
	assert.Equal(t, 3, job.MaxRetries)
	assert.Equal(t, job.ID, result.JobID)
}

func TestScoringService_Trigger_TenantNotFound(t *testing.T) {
	service, mocks := newScoringServiceForTest()
	tenantID := uuid.New()

	mocks.tenantRepo.On("FindByID", mock.Anything, tenantID).Return(nil, shared.ErrNotFound)

	_, err := service.Trigger(context.Background(), tenantID)

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "TENANT_NOT_FOUND", domainErr.Code)
	assert.Empty(t, mocks.jobs.jobs)
}

func TestScoringService_Trigger_QueueFull(t *testing.T) {
	service, mocks := newScoringServiceForTest()
	tenant := activeTenant(t)
	mocks.jobs.submitErr = scheduler.ErrJobQueueFull

	mocks.tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)

	_, err := service.Trigger(context.Background(), tenant.ID)

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "JOB_QUEUE_FULL", domainErr.Code)
}

func TestScoringService_TriggerScheduled_SkipsTenantLookup(t *testing.T) {
	service, mocks := newScoringServiceForTest()
	tenantID := uuid.New()

	err := service.TriggerScheduled(context.Background(), tenantID)

	require.NoError(t, err)
	require.Len(t, mocks.jobs.jobs, 1)
	mocks.tenantRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestScoringService_Execute_WrongJobType(t *testing.T) {
	service, _ := newScoringServiceForTest()
	tenantID := uuid.New()
	job := scheduler.NewJob(scheduler.JobTypeTenantBackup, &tenantID, 3)

	err := service.Execute(context.Background(), job)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot handle job type")
}

func TestScoringService_Execute_MissingTenant(t *testing.T) {
	service, _ := newScoringServiceForTest()
	job := scheduler.NewJob(scheduler.JobTypeCustomerScoring, nil, 3)

	err := service.Execute(context.Background(), job)

	require.ErrorIs(t, err, scheduler.ErrMissingTenant)
}

func TestScoringService_Recompute_Success(t *testing.T) {
	service, mocks := newScoringServiceForTest()
	tenantID := uuid.New()

	tierPtrs, err := crm.DefaultTiers(tenantID)
	require.NoError(t, err)
	tiers := make([]crm.LoyaltyTier, len(tierPtrs))
	for i := range tierPtrs {
		tiers[i] = *tierPtrs[i]
	}
	bronze, silver := tiers[0], tiers[1]

	// buyer1 has enough points and spend for Silver but sits on no tier yet
	buyer1 := newTestCustomer(t, tenantID, "CUST-001")
	buyer1.LoyaltyPoints = 1500
	buyer1.TotalSpent = decimal.NewFromInt(2400)

	// buyer2 and the non-buyer are already on the right tier
	buyer2 := newTestCustomer(t, tenantID, "CUST-002")
	buyer2.LoyaltyPoints = 10
	buyer2.TotalSpent = decimal.NewFromInt(150)
	buyer2.LoyaltyTierID = &bronze.ID

	nonBuyer := newTestCustomer(t, tenantID, "CUST-003")
	nonBuyer.LoyaltyTierID = &bronze.ID

	totals := []sales.CustomerSalesTotals{
		{CustomerID: buyer1.ID, SaleCount: 12, Total: decimal.NewFromInt(2400), LastSaleAt: time.Now().Add(-5 * 24 * time.Hour)},
		{CustomerID: buyer2.ID, SaleCount: 2, Total: decimal.NewFromInt(150), LastSaleAt: time.Now().Add(-200 * 24 * time.Hour)},
	}

	mocks.customerRepo.On("FindIDsForTenant", mock.Anything, tenantID).
		Return([]uuid.UUID{buyer1.ID, buyer2.ID, nonBuyer.ID}, nil)
	mocks.saleRepo.On("CustomerTotals", mock.Anything, tenantID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Return(totals, nil)

	var stored []crm.CustomerScore
	mocks.scoreRepo.On("UpsertBatch", mock.Anything, mock.AnythingOfType("[]crm.CustomerScore")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).([]crm.CustomerScore)
		}).Return(nil)

	mocks.tierRepo.On("FindActiveForTenant", mock.Anything, tenantID).Return(tiers, nil)
	mocks.customerRepo.On("FindAll", mock.Anything, tenantID, mock.AnythingOfType("crm.CustomerFilter")).
		Return([]crm.Customer{*buyer1, *buyer2, *nonBuyer}, int64(3), nil)

	var reassigned *crm.Customer
	mocks.customerRepo.On("Save", mock.Anything, mock.AnythingOfType("*crm.Customer")).
		Run(func(args mock.Arguments) {
			reassigned = args.Get(1).(*crm.Customer)
		}).Return(nil)

	mocks.segmentRepo.On("FindActiveForTenant", mock.Anything, tenantID).
		Return([]crm.CustomerSegment{}, nil)

	err = service.Recompute(context.Background(), tenantID)

	require.NoError(t, err)
	require.Len(t, stored, 3)

	byCustomer := make(map[uuid.UUID]crm.CustomerScore, len(stored))
	for _, score := range stored {
		byCustomer[score.CustomerID] = score
	}

	// The recent heavy buyer outranks the stale light one
	assert.Equal(t, 5, byCustomer[buyer1.ID].RecencyScore)
	assert.Equal(t, 3, byCustomer[buyer1.ID].FrequencyScore)
	assert.Equal(t, 3, byCustomer[buyer1.ID].MonetaryScore)
	assert.Equal(t, 3, byCustomer[buyer2.ID].RecencyScore)
	assert.Equal(t, 1, byCustomer[buyer2.ID].FrequencyScore)

	// Customers without a sale in the window score bottom across the board
	assert.Equal(t, crm.SegmentInactive, byCustomer[nonBuyer.ID].Segment)
	assert.Equal(t, 1, byCustomer[nonBuyer.ID].RecencyScore)
	assert.True(t, byCustomer[nonBuyer.ID].CLV.IsZero())

	// Only buyer1 moved tiers
	mocks.customerRepo.AssertNumberOfCalls(t, "Save", 1)
	require.NotNil(t, reassigned)
	assert.Equal(t, buyer1.ID, reassigned.ID)
	require.NotNil(t, reassigned.LoyaltyTierID)
	assert.Equal(t, silver.ID, *reassigned.LoyaltyTierID)
}

func TestScoringService_Recompute_NoCustomers(t *testing.T) {
	service, mocks := newScoringServiceForTest()
	tenantID := uuid.New()

	mocks.customerRepo.On("FindIDsForTenant", mock.Anything, tenantID).
		Return([]uuid.UUID{}, nil)

	err := service.Recompute(context.Background(), tenantID)

	require.NoError(t, err)
	mocks.saleRepo.AssertNotCalled(t, "CustomerTotals", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mocks.scoreRepo.AssertNotCalled(t, "UpsertBatch", mock.Anything, mock.Anything)
}

func TestScoringService_Recompute_RefreshesSegments(t *testing.T) {
	service, mocks := newScoringServiceForTest()
	tenantID := uuid.New()

	customer := newTestCustomer(t, tenantID, "CUST-001")
	customer.TotalSpent = decimal.NewFromInt(900)

	segment := newTestSegment(t, tenantID, "Everyone Scored")

	totals := []sales.CustomerSalesTotals{
		{CustomerID: customer.ID, SaleCount: 3, Total: decimal.NewFromInt(900), LastSaleAt: time.Now().Add(-10 * 24 * time.Hour)},
	}

	freshScores := []crm.CustomerScore{
		testScore(tenantID, customer.ID, 4, 3, 3, crm.SegmentRegular),
	}

	mocks.customerRepo.On("FindIDsForTenant", mock.Anything, tenantID).
		Return([]uuid.UUID{customer.ID}, nil)
	mocks.saleRepo.On("CustomerTotals", mock.Anything, tenantID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Return(totals, nil)
	mocks.scoreRepo.On("UpsertBatch", mock.Anything, mock.AnythingOfType("[]crm.CustomerScore")).
		Return(nil)

	mocks.tierRepo.On("FindActiveForTenant", mock.Anything, tenantID).
		Return([]crm.LoyaltyTier{}, nil)
	mocks.segmentRepo.On("FindActiveForTenant", mock.Anything, tenantID).
		Return([]crm.CustomerSegment{*segment}, nil)
	mocks.scoreRepo.On("FindAllForTenant", mock.Anything, tenantID, mock.AnythingOfType("crm.ScoreFilter")).
		Return(freshScores, int64(1), nil)
	mocks.customerRepo.On("FindAll", mock.Anything, tenantID, mock.AnythingOfType("crm.CustomerFilter")).
		Return([]crm.Customer{*customer}, int64(1), nil)

	var savedSegment *crm.CustomerSegment
	mocks.segmentRepo.On("Save", mock.Anything, mock.AnythingOfType("*crm.CustomerSegment")).
		Run(func(args mock.Arguments) {
			savedSegment = args.Get(1).(*crm.CustomerSegment)
		}).Return(nil)

	err := service.Recompute(context.Background(), tenantID)

	require.NoError(t, err)
	require.NotNil(t, savedSegment)
	assert.Equal(t, int64(1), savedSegment.MemberCount)
	require.NotNil(t, savedSegment.EvaluatedAt)
}

func TestScoringService_Recompute_UpsertFails(t *testing.T) {
	service, mocks := newScoringServiceForTest()
	tenantID := uuid.New()
	customerID := uuid.New()

	mocks.customerRepo.On("FindIDsForTenant", mock.Anything, tenantID).
		Return([]uuid.UUID{customerID}, nil)
	mocks.saleRepo.On("CustomerTotals", mock.Anything, tenantID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Return([]sales.CustomerSalesTotals{}, nil)
	mocks.scoreRepo.On("UpsertBatch", mock.Anything, mock.AnythingOfType("[]crm.CustomerScore")).
		Return(errors.New("db down"))

	err := service.Recompute(context.Background(), tenantID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "store scores")
	mocks.tierRepo.AssertNotCalled(t, "FindActiveForTenant", mock.Anything, mock.Anything)
}

func TestScoringService_GetCustomerScore_NotFound(t *testing.T) {
	service, mocks := newScoringServiceForTest()
	tenantID := uuid.New()
	customerID := uuid.New()

	mocks.scoreRepo.On("FindByCustomer", mock.Anything, tenantID, customerID).
		Return(nil, shared.ErrNotFound)

	_, err := service.GetCustomerScore(context.Background(), tenantID, customerID)

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "SCORE_NOT_FOUND", domainErr.Code)
}

func TestScoringService_ListScores_InvalidLabel(t *testing.T) {
	service, mocks := newScoringServiceForTest()

	filter := crm.NewScoreFilter()
	filter.Segment = "whales"

	_, err := service.ListScores(context.Background(), uuid.New(), filter)

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_SEGMENT_LABEL", domainErr.Code)
	mocks.scoreRepo.AssertNotCalled(t, "FindAllForTenant", mock.Anything, mock.Anything, mock.Anything)
}

func TestScoringService_ListScores_Pagination(t *testing.T) {
	service, mocks := newScoringServiceForTest()
	tenantID := uuid.New()

	scores := []crm.CustomerScore{
		testScore(tenantID, uuid.New(), 5, 5, 5, crm.SegmentChampions),
		testScore(tenantID, uuid.New(), 5, 4, 5, crm.SegmentChampions),
	}

	filter := crm.NewScoreFilter()
	filter.Segment = crm.SegmentChampions
	filter.PageSize = 2

	mocks.scoreRepo.On("FindAllForTenant", mock.Anything, tenantID, filter).
		Return(scores, int64(5), nil)

	result, err := service.ListScores(context.Background(), tenantID, filter)

	require.NoError(t, err)
	assert.Len(t, result.Scores, 2)
	assert.Equal(t, int64(5), result.Total)
	assert.Equal(t, 3, result.TotalPages)
	assert.Equal(t, crm.SegmentChampions, result.Scores[0].Segment)
}

func TestScoringService_GetSummary_FillsAllLabels(t *testing.T) {
	service, mocks := newScoringServiceForTest()
	tenantID := uuid.New()
	computedAt := time.Now()

	mocks.scoreRepo.On("Summary", mock.Anything, tenantID).Return(&crm.ScoringSummary{
		TotalScored: 10,
		SegmentCounts: map[string]int64{
			crm.SegmentChampions: 4,
			crm.SegmentRegular:   6,
		},
		AverageRecencyDays: 42.5,
		AverageFrequency:   3.1,
		AverageMonetary:    decimal.NewFromInt(180),
		AverageCLV:         decimal.NewFromInt(540),
		LastComputedAt:     &computedAt,
	}, nil)

	result, err := service.GetSummary(context.Background(), tenantID)

	require.NoError(t, err)
	assert.Equal(t, int64(10), result.TotalScored)
	assert.Len(t, result.SegmentCounts, len(crm.AllSegmentLabels()))
	assert.Equal(t, int64(4), result.SegmentCounts[crm.SegmentChampions])
	assert.Equal(t, int64(0), result.SegmentCounts[crm.SegmentLost])
	require.NotNil(t, result.LastComputedAt)
	assert.Equal(t, computedAt, *result.LastComputedAt)
}
