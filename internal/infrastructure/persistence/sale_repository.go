package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retailsuite/backend/internal/domain/sales"
	"github.com/retailsuite/backend/internal/domain/shared"
	"github.com/retailsuite/backend/internal/infrastructure/persistence/models"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormSaleRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds a sale by ID, lines included
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForTenant finds a sale scoped to a tenant, lines included
func (r *GormSaleRepository) FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*sales.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Preload("Lines").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a sale by its number within the tenant
func (r *GormSaleRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*sales.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).
		Scopes(TenantScope(tenantID)).
		Preload("Lines").
		Where("number = ?", strings.ToUpper(strings.TrimSpace(number))).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns the tenant's sales matching the filter, with total count.
// Lines are not loaded.
func (r *GormSaleRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter sales.SaleFilter) ([]sales.Sale, int64, error) {
	query := r.applySaleFilter(
		r.db.WithContext(ctx).Model(&models.SaleModel{}).Scopes(TenantScope(tenantID)),
		filter,
	)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var saleModels []models.SaleModel
	if err := query.
		Order("occurred_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&saleModels).Error; err != nil {
		return nil, 0, err
	}

	// Convert to domain entities
	result := make([]sales.Sale, len(saleModels))
	for i, model := range saleModels {
		result[i] = *model.ToDomain()
	}

	return result, total, nil
}

// FindAllWithLines returns the tenant's sales matching the filter with lines
// preloaded, ordered oldest first so pages stay stable across calls
func (r *GormSaleRepository) FindAllWithLines(ctx context.Context, tenantID uuid.UUID, filter sales.SaleFilter) ([]sales.Sale, error) {
	query := r.applySaleFilter(
		r.db.WithContext(ctx).Model(&models.SaleModel{}).Scopes(TenantScope(tenantID)),
		filter,
	)

	var saleModels []models.SaleModel
	if err := query.
		Preload("Lines").
		Order("occurred_at ASC, id ASC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&saleModels).Error; err != nil {
		return nil, err
	}

	result := make([]sales.Sale, len(saleModels))
	for i, model := range saleModels {
		result[i] = *model.ToDomain()
	}
	return result, nil
}

// GenerateNumber issues the next sale number for the tenant.
// Format: S-NNNNNN (e.g., S-000042), sequential per tenant.
func (r *GormSaleRepository) GenerateNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	// Get the highest number issued so far
	var lastSale models.SaleModel
	err := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Scopes(TenantScope(tenantID)).
		Where("number LIKE ?", "S-%").
		Order("number DESC").
		First(&lastSale).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastSale.Number != "" {
		// Parse the sequence from the last number
		parts := strings.Split(lastSale.Number, "-")
		if len(parts) == 2 {
			var num int64
			_, parseErr := fmt.Sscanf(parts[1], "%d", &num)
			if parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	number := fmt.Sprintf("S-%06d", nextNum)

	// Verify uniqueness
	exists, err := r.existsByNumber(ctx, tenantID, number)
	if err != nil {
		return "", err
	}
	if exists {
		// If taken, try incrementing until we find a free one
		for i := 0; i < 100; i++ {
			nextNum++
			number = fmt.Sprintf("S-%06d", nextNum)
			exists, err = r.existsByNumber(ctx, tenantID, number)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return number, nil
}

func (r *GormSaleRepository) existsByNumber(ctx context.Context, tenantID uuid.UUID, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Scopes(TenantScope(tenantID)).
		Where("number = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DailySummaries returns count and revenue of completed sales per day for
// the last N days, oldest first. Days without sales do not appear.
func (r *GormSaleRepository) DailySummaries(ctx context.Context, tenantID uuid.UUID, days int) ([]sales.DailySummary, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	type dailyResult struct {
		Date      time.Time
		SaleCount int64
		Revenue   decimal.Decimal
	}

	var results []dailyResult
	err := r.db.WithContext(ctx).Table("sales").
		Select(`
			DATE(occurred_at) as date,
			COUNT(*) as sale_count,
			COALESCE(SUM(total), 0) as revenue
		`).
		Where("tenant_id = ?", tenantID).
		Where("status = ?", sales.SaleStatusCompleted).
		Where("occurred_at >= ?", since).
		Group("DATE(occurred_at)").
		Order("date ASC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]sales.DailySummary, len(results))
	for i, row := range results {
		summaries[i] = sales.DailySummary{
			Date:      row.Date,
			SaleCount: row.SaleCount,
			Revenue:   row.Revenue,
		}
	}
	return summaries, nil
}

// CustomerTotals returns per-customer aggregates of completed sales inside
// the window, for customers with at least one sale
func (r *GormSaleRepository) CustomerTotals(ctx context.Context, tenantID uuid.UUID, windowStart, windowEnd time.Time) ([]sales.CustomerSalesTotals, error) {
	type totalsResult struct {
		CustomerID uuid.UUID
		SaleCount  int64
		Total      decimal.Decimal
		LastSaleAt time.Time
	}

	var results []totalsResult
	err := r.db.WithContext(ctx).Table("sales").
		Select(`
			customer_id,
			COUNT(*) as sale_count,
			COALESCE(SUM(total), 0) as total,
			MAX(occurred_at) as last_sale_at
		`).
		Where("tenant_id = ?", tenantID).
		Where("status = ?", sales.SaleStatusCompleted).
		Where("customer_id IS NOT NULL").
		Where("occurred_at >= ? AND occurred_at <= ?", windowStart, windowEnd).
		Group("customer_id").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	totals := make([]sales.CustomerSalesTotals, len(results))
	for i, row := range results {
		totals[i] = sales.CustomerSalesTotals{
			CustomerID: row.CustomerID,
			SaleCount:  row.SaleCount,
			Total:      row.Total,
			LastSaleAt: row.LastSaleAt,
		}
	}
	return totals, nil
}

// Save creates or updates a sale and its lines. Lines are written once on
// create; the voiding update touches the header only. Pending domain events
// are written to the outbox inside the same transaction.
func (r *GormSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	events := sale.GetDomainEvents()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.SaleModel
		if err := tx.Select("version").Where("id = ?", sale.GetID()).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				model := models.SaleModelFromDomain(sale)
				if err := tx.Create(model).Error; err != nil {
					return err
				}
				return r.saveEvents(ctx, tx, events)
			}
			return err
		}

		expectedVersion := sale.GetVersion() - 1
		if current.Version != expectedVersion {
			return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The sale record has been modified by another transaction")
		}

		model := models.SaleModelFromDomain(sale)
		result := tx.Model(&models.SaleModel{}).
			Where("id = ? AND version = ?", sale.GetID(), expectedVersion).
			Select("*").Omit("id", "tenant_id", "created_at", clause.Associations).
			Updates(model)

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The sale record has been modified by another transaction")
		}
		return r.saveEvents(ctx, tx, events)
	})
	if err != nil {
		return err
	}

	sale.ClearDomainEvents()
	return nil
}

func (r *GormSaleRepository) saveEvents(ctx context.Context, tx *gorm.DB, events []shared.DomainEvent) error {
	if r.outboxSaver == nil || len(events) == 0 {
		return nil
	}
	if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
		return fmt.Errorf("failed to save events to outbox: %w", err)
	}
	return nil
}

// applySaleFilter applies column filters without pagination
func (r *GormSaleRepository) applySaleFilter(query *gorm.DB, filter sales.SaleFilter) *gorm.DB {
	if filter.BranchID != nil {
		query = query.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("occurred_at <= ?", *filter.To)
	}
	return query
}

// Ensure GormSaleRepository implements SaleRepository
var _ sales.SaleRepository = (*GormSaleRepository)(nil)
