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

	"github.com/retailsuite/backend/internal/domain/sales"
	"github.com/retailsuite/backend/internal/domain/shared"
)

func saleCompletedEvent(tenantID uuid.UUID, customerID *uuid.UUID, total decimal.Decimal) *sales.SaleCompletedEvent {
	return &sales.SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(sales.EventTypeSaleCompleted, sales.AggregateTypeSale, uuid.New(), tenantID),
		Number:          "S-42",
		BranchID:        uuid.New(),
		CustomerID:      customerID,
		CashierID:       uuid.New(),
		Total:           total,
		LineCount:       2,
		OccurredOn:      time.Now().Add(-time.Minute),
	}
}

func newSaleCompletedHandlerForTest() (*SaleCompletedHandler, *MockCustomerRepository, *MockTenantRepository) {
	customerRepo := new(MockCustomerRepository)
	tenantRepo := new(MockTenantRepository)
	handler := NewSaleCompletedHandler(customerRepo, tenantRepo, zap.NewNop())
	return handler, customerRepo, tenantRepo
}

func TestSaleCompletedHandler_EventTypes(t *testing.T) {
	handler, _, _ := newSaleCompletedHandlerForTest()

	assert.Equal(t, []string{sales.EventTypeSaleCompleted}, handler.EventTypes())
}

func TestSaleCompletedHandler_Handle_UpdatesCustomerStats(t *testing.T) {
	handler, customerRepo, tenantRepo := newSaleCompletedHandlerForTest()
	tenant := activeTenant(t)
	customer := newTestCustomer(t, tenant.ID, "CUST-001")
	event := saleCompletedEvent(tenant.ID, &customer.ID, decimal.NewFromFloat(125.50))

	tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	customerRepo.On("FindByIDForTenant", mock.Anything, customer.ID, tenant.ID).Return(customer, nil)
	customerRepo.On("Save", mock.Anything, customer).Return(nil)

	err := handler.Handle(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, int64(125), customer.LoyaltyPoints)
	assert.True(t, customer.TotalSpent.Equal(decimal.NewFromFloat(125.50)))
	assert.Equal(t, int64(1), customer.VisitCount)
	require.NotNil(t, customer.LastPurchaseAt)
	assert.Equal(t, event.OccurredOn, *customer.LastPurchaseAt)
	customerRepo.AssertExpectations(t)
}

func TestSaleCompletedHandler_Handle_WrongEventType(t *testing.T) {
	handler, _, _ := newSaleCompletedHandlerForTest()
	customerID := uuid.New()
	event := &sales.SaleVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(sales.EventTypeSaleVoided, sales.AggregateTypeSale, uuid.New(), uuid.New()),
		Number:          "S-42",
		CustomerID:      &customerID,
		Total:           decimal.NewFromInt(10),
	}

	err := handler.Handle(context.Background(), event)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected event type")
}

func TestSaleCompletedHandler_Handle_WalkInSkipped(t *testing.T) {
	handler, customerRepo, tenantRepo := newSaleCompletedHandlerForTest()
	event := saleCompletedEvent(uuid.New(), nil, decimal.NewFromInt(50))

	err := handler.Handle(context.Background(), event)

	require.NoError(t, err)
	tenantRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	customerRepo.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
}

func TestSaleCompletedHandler_Handle_CustomerGone(t *testing.T) {
	handler, customerRepo, tenantRepo := newSaleCompletedHandlerForTest()
	tenant := activeTenant(t)
	customerID := uuid.New()
	event := saleCompletedEvent(tenant.ID, &customerID, decimal.NewFromInt(50))

	tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	customerRepo.On("FindByIDForTenant", mock.Anything, customerID, tenant.ID).
		Return(nil, shared.ErrNotFound)

	err := handler.Handle(context.Background(), event)

	require.NoError(t, err)
	customerRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSaleCompletedHandler_Handle_BlockedCustomerSkipsAccrual(t *testing.T) {
	handler, customerRepo, tenantRepo := newSaleCompletedHandlerForTest()
	tenant := activeTenant(t)
	customer := newTestCustomer(t, tenant.ID, "CUST-001")
	require.NoError(t, customer.Block())
	event := saleCompletedEvent(tenant.ID, &customer.ID, decimal.NewFromInt(50))

	tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	customerRepo.On("FindByIDForTenant", mock.Anything, customer.ID, tenant.ID).Return(customer, nil)

	err := handler.Handle(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, int64(0), customer.LoyaltyPoints)
	assert.True(t, customer.TotalSpent.IsZero())
	customerRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSaleCompletedHandler_Handle_ZeroRateAwardsNoPoints(t *testing.T) {
	handler, customerRepo, tenantRepo := newSaleCompletedHandlerForTest()
	tenant := activeTenant(t)
	tenant.Config.LoyaltyEarnRate = 0
	customer := newTestCustomer(t, tenant.ID, "CUST-001")
	event := saleCompletedEvent(tenant.ID, &customer.ID, decimal.NewFromInt(80))

	tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	customerRepo.On("FindByIDForTenant", mock.Anything, customer.ID, tenant.ID).Return(customer, nil)
	customerRepo.On("Save", mock.Anything, customer).Return(nil)

	err := handler.Handle(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, int64(0), customer.LoyaltyPoints)
	assert.True(t, customer.TotalSpent.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, int64(1), customer.VisitCount)
}

func TestSaleCompletedHandler_Handle_SaveError(t *testing.T) {
	handler, customerRepo, tenantRepo := newSaleCompletedHandlerForTest()
	tenant := activeTenant(t)
	customer := newTestCustomer(t, tenant.ID, "CUST-001")
	event := saleCompletedEvent(tenant.ID, &customer.ID, decimal.NewFromInt(50))

	tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	customerRepo.On("FindByIDForTenant", mock.Anything, customer.ID, tenant.ID).Return(customer, nil)
	customerRepo.On("Save", mock.Anything, customer).Return(errors.New("db down"))

	err := handler.Handle(context.Background(), event)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "save customer stats")
}

func TestEarnedPoints(t *testing.T) {
	assert.Equal(t, int64(125), earnedPoints(decimal.NewFromFloat(125.50), 1.0))
	assert.Equal(t, int64(62), earnedPoints(decimal.NewFromFloat(125.50), 0.5))
	assert.Equal(t, int64(251), earnedPoints(decimal.NewFromFloat(125.50), 2.0))
	assert.Equal(t, int64(0), earnedPoints(decimal.NewFromFloat(125.50), 0))
	assert.Equal(t, int64(0), earnedPoints(decimal.NewFromFloat(125.50), -1))
}
