package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/sales"
	"github.com/retailsuite/backend/internal/domain/shared"
	"github.com/retailsuite/backend/internal/infrastructure/telemetry"
)

// MetricsEventHandler translates domain events into retail metrics. It rides
// the same bus as the CRM handlers, so counters reflect what was actually
// delivered, including events replayed from the outbox.
type MetricsEventHandler struct {
	metrics *telemetry.RetailMetrics
	logger  *zap.Logger
}

// NewMetricsEventHandler creates a new MetricsEventHandler
func NewMetricsEventHandler(metrics *telemetry.RetailMetrics, logger *zap.Logger) *MetricsEventHandler {
	return &MetricsEventHandler{
		metrics: metrics,
		logger:  logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *MetricsEventHandler) EventTypes() []string {
	return []string{
		sales.EventTypeSaleCompleted,
		sales.EventTypeSaleVoided,
		crm.EventTypeCustomerPointsAdjusted,
	}
}

// Handle records the metric for the event. Unknown event types are ignored
// rather than failed; a metrics gap is not worth a redelivery loop.
func (h *MetricsEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *sales.SaleCompletedEvent:
		h.metrics.RecordSaleCompleted(ctx, e.TenantID(), e.BranchID, e.Total)
	case *sales.SaleVoidedEvent:
		h.metrics.RecordSaleVoided(ctx, e.TenantID(), e.BranchID)
	case *crm.CustomerPointsAdjustedEvent:
		if e.Delta >= 0 {
			h.metrics.RecordPointsEarned(ctx, e.TenantID(), e.Delta)
		} else {
			h.metrics.RecordPointsRedeemed(ctx, e.TenantID(), -e.Delta)
		}
	default:
		h.logger.Debug("Metrics handler received unhandled event type",
			zap.String("event_type", event.EventType()),
		)
	}
	return nil
}
