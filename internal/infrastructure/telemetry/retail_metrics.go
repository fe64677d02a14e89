// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// RetailMetrics provides business metrics for the retail platform: sale
// volume and revenue, loyalty point flow, backup outcomes, and the health
// gauges collected periodically per tenant.
//
// All record methods are safe on a nil receiver, so callers built without
// metrics wiring need no guards.
type RetailMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	saleCompletedTotal  *Counter
	saleRevenueTotal    *Counter
	saleVoidedTotal     *Counter
	pointsEarnedTotal   *Counter
	pointsRedeemedTotal *Counter
	backupRunsTotal     *Counter

	// Gauge metrics (point-in-time values)
	activeCustomers *Gauge
	outboxBacklog   *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	statsProvider RetailStatsProvider
}

// RetailStatsProvider supplies the point-in-time values for the periodic
// gauges. The telemetry layer queries platform state through this interface
// instead of depending on the domain packages directly.
type RetailStatsProvider interface {
	// ActiveCustomerCount returns the number of active customers for a tenant.
	ActiveCustomerCount(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// OutboxBacklog returns the number of undelivered outbox events per status.
	OutboxBacklog(ctx context.Context) (map[string]int64, error)
}

// RetailMetricsConfig holds configuration for retail metrics.
type RetailMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	StatsProvider   RetailStatsProvider
}

// NewRetailMetrics creates a new RetailMetrics instance.
func NewRetailMetrics(cfg RetailMetricsConfig) (*RetailMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rm := &RetailMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		statsProvider: cfg.StatsProvider,
	}

	var err error

	rm.saleCompletedTotal, err = NewCounter(cfg.Meter,
		"retail_sale_completed_total",
		"Total number of completed sales",
		"{sale}",
	)
	if err != nil {
		return nil, err
	}

	rm.saleRevenueTotal, err = NewCounter(cfg.Meter,
		"retail_sale_revenue_total",
		"Total completed sale revenue in cents",
		"{cent}",
	)
	if err != nil {
		return nil, err
	}

	rm.saleVoidedTotal, err = NewCounter(cfg.Meter,
		"retail_sale_voided_total",
		"Total number of voided sales",
		"{sale}",
	)
	if err != nil {
		return nil, err
	}

	rm.pointsEarnedTotal, err = NewCounter(cfg.Meter,
		"retail_loyalty_points_earned_total",
		"Total loyalty points credited to customers",
		"{point}",
	)
	if err != nil {
		return nil, err
	}

	rm.pointsRedeemedTotal, err = NewCounter(cfg.Meter,
		"retail_loyalty_points_redeemed_total",
		"Total loyalty points redeemed by customers",
		"{point}",
	)
	if err != nil {
		return nil, err
	}

	rm.backupRunsTotal, err = NewCounter(cfg.Meter,
		"retail_backup_runs_total",
		"Total tenant backup runs by outcome",
		"{run}",
	)
	if err != nil {
		return nil, err
	}

	rm.activeCustomers, err = NewGauge(cfg.Meter,
		"retail_active_customers",
		"Number of active customers per tenant",
		"{customer}",
	)
	if err != nil {
		return nil, err
	}

	rm.outboxBacklog, err = NewGauge(cfg.Meter,
		"retail_outbox_backlog",
		"Number of undelivered outbox events by status",
		"{event}",
	)
	if err != nil {
		return nil, err
	}

	return rm, nil
}

// =============================================================================
// Sale Metrics
// =============================================================================

// RecordSaleCompleted records a completed sale and its revenue. Called from
// the application layer after the sale is persisted.
func (rm *RetailMetrics) RecordSaleCompleted(ctx context.Context, tenantID, branchID uuid.UUID, total decimal.Decimal) {
	if rm == nil {
		return
	}

	rm.saleCompletedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrBranchID.String(branchID.String()),
	)

	totalCents := total.Mul(decimal.NewFromInt(100)).IntPart()
	rm.saleRevenueTotal.Add(ctx, totalCents,
		AttrTenantID.String(tenantID.String()),
		AttrBranchID.String(branchID.String()),
	)
}

// RecordSaleVoided records a voided sale.
func (rm *RetailMetrics) RecordSaleVoided(ctx context.Context, tenantID, branchID uuid.UUID) {
	if rm == nil {
		return
	}
	rm.saleVoidedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrBranchID.String(branchID.String()),
	)
}

// =============================================================================
// Loyalty Metrics
// =============================================================================

// RecordPointsEarned records loyalty points credited to a customer.
func (rm *RetailMetrics) RecordPointsEarned(ctx context.Context, tenantID uuid.UUID, points int64) {
	if rm == nil || points <= 0 {
		return
	}
	rm.pointsEarnedTotal.Add(ctx, points, AttrTenantID.String(tenantID.String()))
}

// RecordPointsRedeemed records loyalty points redeemed by a customer.
func (rm *RetailMetrics) RecordPointsRedeemed(ctx context.Context, tenantID uuid.UUID, points int64) {
	if rm == nil || points <= 0 {
		return
	}
	rm.pointsRedeemedTotal.Add(ctx, points, AttrTenantID.String(tenantID.String()))
}

// =============================================================================
// Backup Metrics
// =============================================================================

// RecordBackupRun records the outcome of a tenant backup run. Status is the
// terminal backup status (completed, failed).
func (rm *RetailMetrics) RecordBackupRun(ctx context.Context, tenantID uuid.UUID, status string) {
	if rm == nil {
		return
	}
	rm.backupRunsTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrBackupStatus.String(status),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// TenantProvider provides tenant IDs for periodic metrics collection.
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of the gauge metrics.
// Non-blocking; use Stop to terminate. Subsequent calls are no-ops.
func (rm *RetailMetrics) StartPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	if rm == nil {
		return
	}
	rm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go rm.runPeriodicCollection(ctx, tenantProvider, interval)
	})
}

func (rm *RetailMetrics) runPeriodicCollection(ctx context.Context, tenantProvider TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	rm.collectGauges(ctx, tenantProvider)

	for {
		select {
		case <-rm.stopChan:
			rm.logger.Info("Stopping periodic retail metrics collection")
			return
		case <-ctx.Done():
			rm.logger.Info("Context cancelled, stopping periodic retail metrics collection")
			return
		case <-ticker.C:
			rm.collectGauges(ctx, tenantProvider)
		}
	}
}

// collectGauges records the per-tenant customer gauge and the global outbox
// backlog gauge.
func (rm *RetailMetrics) collectGauges(ctx context.Context, tenantProvider TenantProvider) {
	if rm.statsProvider == nil {
		rm.logger.Debug("No stats provider configured, skipping gauge collection")
		return
	}

	tenantIDs, err := tenantProvider.GetActiveTenantIDs(ctx)
	if err != nil {
		rm.logger.Error("Failed to get tenant IDs for metrics collection", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		count, err := rm.statsProvider.ActiveCustomerCount(ctx, tenantID)
		if err != nil {
			rm.logger.Warn("Failed to get active customer count for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		rm.activeCustomers.Record(ctx, count, AttrTenantID.String(tenantID.String()))
	}

	backlog, err := rm.statsProvider.OutboxBacklog(ctx)
	if err != nil {
		rm.logger.Warn("Failed to get outbox backlog", zap.Error(err))
		return
	}
	for status, count := range backlog {
		rm.outboxBacklog.Record(ctx, count, AttrEventStatus.String(status))
	}
}

// Stop stops the periodic collection.
func (rm *RetailMetrics) Stop() {
	if rm == nil {
		return
	}
	rm.stopOnce.Do(func() {
		close(rm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when the meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewRetailMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
