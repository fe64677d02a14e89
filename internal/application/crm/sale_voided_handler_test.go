package crm

import (
	"context"
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

func saleVoidedEvent(tenantID uuid.UUID, customerID *uuid.UUID, total decimal.Decimal) *sales.SaleVoidedEvent {
	return &sales.SaleVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(sales.EventTypeSaleVoided, sales.AggregateTypeSale, uuid.New(), tenantID),
		Number:          "S-42",
		BranchID:        uuid.New(),
		CustomerID:      customerID,
		Total:           total,
		Reason:          "cashier error",
	}
}

func newSaleVoidedHandlerForTest() (*SaleVoidedHandler, *MockCustomerRepository, *MockTenantRepository) {
	customerRepo := new(MockCustomerRepository)
	tenantRepo := new(MockTenantRepository)
	handler := NewSaleVoidedHandler(customerRepo, tenantRepo, zap.NewNop())
	return handler, customerRepo, tenantRepo
}

func TestSaleVoidedHandler_EventTypes(t *testing.T) {
	handler, _, _ := newSaleVoidedHandlerForTest()

	assert.Equal(t, []string{sales.EventTypeSaleVoided}, handler.EventTypes())
}

func TestSaleVoidedHandler_Handle_ReversesStats(t *testing.T) {
	handler, customerRepo, tenantRepo := newSaleVoidedHandlerForTest()
	tenant := activeTenant(t)
	customer := newTestCustomer(t, tenant.ID, "CUST-001")
	customer.RecordPurchase(decimal.NewFromInt(100), 100, time.Now())
	event := saleVoidedEvent(tenant.ID, &customer.ID, decimal.NewFromInt(100))

	tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	customerRepo.On("FindByIDForTenant", mock.Anything, customer.ID, tenant.ID).Return(customer, nil)
	customerRepo.On("Save", mock.Anything, customer).Return(nil)

	err := handler.Handle(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, int64(0), customer.LoyaltyPoints)
	assert.True(t, customer.TotalSpent.IsZero())
	assert.Equal(t, int64(0), customer.VisitCount)
	customerRepo.AssertExpectations(t)
}

func TestSaleVoidedHandler_Handle_AppliesToBlockedCustomer(t *testing.T) {
	handler, customerRepo, tenantRepo := newSaleVoidedHandlerForTest()
	tenant := activeTenant(t)
	customer := newTestCustomer(t, tenant.ID, "CUST-001")
	customer.RecordPurchase(decimal.NewFromInt(60), 60, time.Now())
	require.NoError(t, customer.Block())
	event := saleVoidedEvent(tenant.ID, &customer.ID, decimal.NewFromInt(60))

	tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	customerRepo.On("FindByIDForTenant", mock.Anything, customer.ID, tenant.ID).Return(customer, nil)
	customerRepo.On("Save", mock.Anything, customer).Return(nil)

	err := handler.Handle(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, int64(0), customer.LoyaltyPoints)
	assert.True(t, customer.TotalSpent.IsZero())
	customerRepo.AssertExpectations(t)
}

func TestSaleVoidedHandler_Handle_FloorsAtZero(t *testing.T) {
	handler, customerRepo, tenantRepo := newSaleVoidedHandlerForTest()
	tenant := activeTenant(t)
	customer := newTestCustomer(t, tenant.ID, "CUST-001")
	customer.RecordPurchase(decimal.NewFromInt(50), 30, time.Now())
	event := saleVoidedEvent(tenant.ID, &customer.ID, decimal.NewFromInt(100))

	tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	customerRepo.On("FindByIDForTenant", mock.Anything, customer.ID, tenant.ID).Return(customer, nil)
	customerRepo.On("Save", mock.Anything, customer).Return(nil)

	err := handler.Handle(context.Background(), event)

	require.NoError(t, err)
	assert.Equal(t, int64(0), customer.LoyaltyPoints)
	assert.True(t, customer.TotalSpent.IsZero())
}

func TestSaleVoidedHandler_Handle_WalkInSkipped(t *testing.T) {
	handler, customerRepo, tenantRepo := newSaleVoidedHandlerForTest()
	event := saleVoidedEvent(uuid.New(), nil, decimal.NewFromInt(50))

	err := handler.Handle(context.Background(), event)

	require.NoError(t, err)
	tenantRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	customerRepo.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
}

func TestSaleVoidedHandler_Handle_CustomerGone(t *testing.T) {
	handler, customerRepo, tenantRepo := newSaleVoidedHandlerForTest()
	tenant := activeTenant(t)
	customerID := uuid.New()
	event := saleVoidedEvent(tenant.ID, &customerID, decimal.NewFromInt(50))

	tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	customerRepo.On("FindByIDForTenant", mock.Anything, customerID, tenant.ID).
		Return(nil, shared.ErrNotFound)

	err := handler.Handle(context.Background(), event)

	require.NoError(t, err)
	customerRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSaleVoidedHandler_Handle_WrongEventType(t *testing.T) {
	handler, _, _ := newSaleVoidedHandlerForTest()
	customerID := uuid.New()
	event := saleCompletedEvent(uuid.New(), &customerID, decimal.NewFromInt(10))

	err := handler.Handle(context.Background(), event)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected event type")
}
