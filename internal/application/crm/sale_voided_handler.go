package crm

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/domain/sales"
	"github.com/retailsuite/backend/internal/domain/shared"
)

// SaleVoidedHandler handles SaleVoidedEvent and backs the sale out of the
// customer's stats. The reversal applies to blocked customers too; voided
// revenue must not stay on anyone's record. Points are clawed back at the
// current earn rate and ReversePurchase floors balances at zero.
type SaleVoidedHandler struct {
	customerRepo crm.CustomerRepository
	tenantRepo   platform.TenantRepository
	logger       *zap.Logger
}

// NewSaleVoidedHandler creates a new handler for sale voided events
func NewSaleVoidedHandler(
	customerRepo crm.CustomerRepository,
	tenantRepo platform.TenantRepository,
	logger *zap.Logger,
) *SaleVoidedHandler {
	return &SaleVoidedHandler{
		customerRepo: customerRepo,
		tenantRepo:   tenantRepo,
		logger:       logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *SaleVoidedHandler) EventTypes() []string {
	return []string{sales.EventTypeSaleVoided}
}

// Handle processes a SaleVoidedEvent by reversing the customer's stats
func (h *SaleVoidedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	voided, ok := event.(*sales.SaleVoidedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", sales.EventTypeSaleVoided),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			sales.EventTypeSaleVoided, event.EventType())
	}

	if voided.CustomerID == nil {
		h.logger.Debug("Walk-in sale voided, no customer stats to reverse",
			zap.String("sale_number", voided.Number),
		)
		return nil
	}

	tenant, err := h.tenantRepo.FindByID(ctx, voided.TenantID())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.logger.Warn("Tenant no longer exists, skipping stats reversal",
				zap.String("tenant_id", voided.TenantID().String()),
				zap.String("sale_number", voided.Number),
			)
			return nil
		}
		return fmt.Errorf("load tenant for voided sale %s: %w", voided.Number, err)
	}

	customer, err := h.customerRepo.FindByIDForTenant(ctx, *voided.CustomerID, voided.TenantID())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.logger.Warn("Customer no longer exists, skipping stats reversal",
				zap.String("customer_id", voided.CustomerID.String()),
				zap.String("sale_number", voided.Number),
			)
			return nil
		}
		return fmt.Errorf("load customer for voided sale %s: %w", voided.Number, err)
	}

	earned := earnedPoints(voided.Total, tenant.Config.LoyaltyEarnRate)
	customer.ReversePurchase(voided.Total, earned)

	if err := h.customerRepo.Save(ctx, customer); err != nil {
		return fmt.Errorf("save customer stats for voided sale %s: %w", voided.Number, err)
	}

	h.logger.Info("Customer stats reversed from voided sale",
		zap.String("customer_id", customer.ID.String()),
		zap.String("sale_number", voided.Number),
		zap.String("total", voided.Total.String()),
		zap.Int64("clawed_back_points", earned),
		zap.Int64("points_balance", customer.LoyaltyPoints),
		zap.String("reason", voided.Reason),
	)

	return nil
}

var _ shared.EventHandler = (*SaleVoidedHandler)(nil)
