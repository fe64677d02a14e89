package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRetailStatsProvider implements RetailStatsProvider with direct table
// queries. Status values are literals here so the telemetry layer stays free
// of domain imports.
type GormRetailStatsProvider struct {
	db *gorm.DB
}

// NewGormRetailStatsProvider creates a stats provider backed by the given DB.
func NewGormRetailStatsProvider(db *gorm.DB) *GormRetailStatsProvider {
	return &GormRetailStatsProvider{db: db}
}

// ActiveCustomerCount returns the number of active customers for a tenant.
func (p *GormRetailStatsProvider) ActiveCustomerCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("customers").
		Where("tenant_id = ? AND status = ?", tenantID, "active").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// OutboxBacklog returns the number of undelivered outbox events per status.
// SENT events are excluded; DEAD events count because they still need
// operator attention.
func (p *GormRetailStatsProvider) OutboxBacklog(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}

	err := p.db.WithContext(ctx).
		Table("outbox_events").
		Select("status, COUNT(*) AS count").
		Where("status IN ?", []string{"PENDING", "PROCESSING", "FAILED", "DEAD"}).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	backlog := make(map[string]int64, len(rows))
	for _, row := range rows {
		backlog[row.Status] = row.Count
	}
	return backlog, nil
}
