package crm

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/domain/sales"
	"github.com/retailsuite/backend/internal/domain/shared"
)

// SaleCompletedHandler handles SaleCompletedEvent and applies the sale to
// the customer's stats: lifetime spend, visit count, last purchase and
// loyalty points at the tenant's earn rate.
//
// RecordPurchase is not idempotent, so the handler must run behind
// duplicate detection; a redelivered event would otherwise award the
// points twice.
type SaleCompletedHandler struct {
	customerRepo crm.CustomerRepository
	tenantRepo   platform.TenantRepository
	logger       *zap.Logger
}

// NewSaleCompletedHandler creates a new handler for sale completed events
func NewSaleCompletedHandler(
	customerRepo crm.CustomerRepository,
	tenantRepo platform.TenantRepository,
	logger *zap.Logger,
) *SaleCompletedHandler {
	return &SaleCompletedHandler{
		customerRepo: customerRepo,
		tenantRepo:   tenantRepo,
		logger:       logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *SaleCompletedHandler) EventTypes() []string {
	return []string{sales.EventTypeSaleCompleted}
}

// Handle processes a SaleCompletedEvent by updating the customer's stats
func (h *SaleCompletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	completed, ok := event.(*sales.SaleCompletedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", sales.EventTypeSaleCompleted),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			sales.EventTypeSaleCompleted, event.EventType())
	}

	if completed.CustomerID == nil {
		h.logger.Debug("Walk-in sale, no customer stats to update",
			zap.String("sale_number", completed.Number),
		)
		return nil
	}

	tenant, err := h.tenantRepo.FindByID(ctx, completed.TenantID())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.logger.Warn("Tenant no longer exists, skipping customer stats update",
				zap.String("tenant_id", completed.TenantID().String()),
				zap.String("sale_number", completed.Number),
			)
			return nil
		}
		return fmt.Errorf("load tenant for sale %s: %w", completed.Number, err)
	}

	customer, err := h.customerRepo.FindByIDForTenant(ctx, *completed.CustomerID, completed.TenantID())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.logger.Warn("Customer no longer exists, skipping stats update",
				zap.String("customer_id", completed.CustomerID.String()),
				zap.String("sale_number", completed.Number),
			)
			return nil
		}
		return fmt.Errorf("load customer for sale %s: %w", completed.Number, err)
	}

	if customer.IsBlocked() {
		h.logger.Warn("Customer is blocked, sale recorded without loyalty accrual",
			zap.String("customer_id", customer.ID.String()),
			zap.String("sale_number", completed.Number),
		)
		return nil
	}

	earned := earnedPoints(completed.Total, tenant.Config.LoyaltyEarnRate)
	customer.RecordPurchase(completed.Total, earned, completed.OccurredOn)

	if err := h.customerRepo.Save(ctx, customer); err != nil {
		return fmt.Errorf("save customer stats for sale %s: %w", completed.Number, err)
	}

	h.logger.Info("Customer stats updated from sale",
		zap.String("customer_id", customer.ID.String()),
		zap.String("sale_number", completed.Number),
		zap.String("total", completed.Total.String()),
		zap.Int64("earned_points", earned),
		zap.Int64("points_balance", customer.LoyaltyPoints),
	)

	return nil
}

// earnedPoints converts a sale total into loyalty points at the tenant's
// earn rate, rounded down. A zero or negative rate disables accrual.
func earnedPoints(total decimal.Decimal, rate float64) int64 {
	if rate <= 0 {
		return 0
	}
	return total.Mul(decimal.NewFromFloat(rate)).Floor().IntPart()
}

var _ shared.EventHandler = (*SaleCompletedHandler)(nil)
