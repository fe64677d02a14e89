package crm

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RFM segment labels, ordered by match precedence.
const (
	SegmentChampions  = "champions"
	SegmentLoyal      = "loyal"
	SegmentBigSpender = "big_spender"
	SegmentNew        = "new"
	SegmentAtRisk     = "at_risk"
	SegmentLost       = "lost"
	SegmentRegular    = "regular"
	SegmentInactive   = "inactive"
)

// AllSegmentLabels returns every label a scoring run can produce.
func AllSegmentLabels() []string {
	return []string{
		SegmentChampions,
		SegmentLoyal,
		SegmentBigSpender,
		SegmentNew,
		SegmentAtRisk,
		SegmentLost,
		SegmentRegular,
		SegmentInactive,
	}
}

// IsValidSegmentLabel returns true if the label is a known segment label.
func IsValidSegmentLabel(label string) bool {
	for _, l := range AllSegmentLabels() {
		if l == label {
			return true
		}
	}
	return false
}

// ScoringConfig carries the tunables of a scoring run.
type ScoringConfig struct {
	// WindowDays is the lookback window for sales aggregates.
	WindowDays int
	// HorizonYears is the CLV projection horizon.
	HorizonYears int
}

// DefaultScoringConfig returns the standard 365-day window with a
// three-year CLV horizon.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{WindowDays: 365, HorizonYears: 3}
}

// CustomerSalesAggregate is the per-customer input of a scoring run:
// completed sales inside the lookback window, grouped by customer.
type CustomerSalesAggregate struct {
	CustomerID uuid.UUID
	SaleCount  int64
	Total      decimal.Decimal
	LastSaleAt time.Time
}

// CustomerScore is the persisted result of a scoring run for one customer.
type CustomerScore struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	CustomerID     uuid.UUID
	RecencyDays    int
	Frequency      int64
	Monetary       decimal.Decimal
	RecencyScore   int
	FrequencyScore int
	MonetaryScore  int
	Segment        string
	CLV            decimal.Decimal
	WindowStart    time.Time
	WindowEnd      time.Time
	ComputedAt     time.Time
}

// ScoreCustomers computes RFM scores, segment labels and CLV projections for
// a tenant's customer population. Aggregates cover the customers with at
// least one completed sale inside the window; every other ID in customerIDs
// scores R=F=M=1 with segment "inactive" and zero CLV. Quintile ranks are
// computed over the buying population only.
func ScoreCustomers(tenantID uuid.UUID, customerIDs []uuid.UUID, aggregates []CustomerSalesAggregate, cfg ScoringConfig, asOf time.Time) []CustomerScore {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = DefaultScoringConfig().WindowDays
	}
	if cfg.HorizonYears <= 0 {
		cfg.HorizonYears = DefaultScoringConfig().HorizonYears
	}

	windowStart := asOf.AddDate(0, 0, -cfg.WindowDays)

	recencyDays := make([]int, len(aggregates))
	frequencies := make([]int64, len(aggregates))
	monetaries := make([]decimal.Decimal, len(aggregates))
	for i, agg := range aggregates {
		days := int(asOf.Sub(agg.LastSaleAt).Hours() / 24)
		if days < 0 {
			days = 0
		}
		recencyDays[i] = days
		frequencies[i] = agg.SaleCount
		monetaries[i] = agg.Total
	}

	// Ascending ranks. Recency is inverted afterwards so that the most
	// recent buyers score 5.
	recencyRanks := quintileRanks(recencyDays, func(a, b int) int { return a - b })
	frequencyRanks := quintileRanks(frequencies, func(a, b int64) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	})
	monetaryRanks := quintileRanks(monetaries, func(a, b decimal.Decimal) int { return a.Cmp(b) })

	scored := make(map[uuid.UUID]bool, len(aggregates))
	scores := make([]CustomerScore, 0, len(customerIDs))
	for i, agg := range aggregates {
		r := 6 - recencyRanks[i]
		f := frequencyRanks[i]
		m := monetaryRanks[i]

		scores = append(scores, CustomerScore{
			ID:             uuid.New(),
			TenantID:       tenantID,
			CustomerID:     agg.CustomerID,
			RecencyDays:    recencyDays[i],
			Frequency:      agg.SaleCount,
			Monetary:       agg.Total,
			RecencyScore:   r,
			FrequencyScore: f,
			MonetaryScore:  m,
			Segment:        SegmentLabelFor(r, f, m),
			CLV:            ComputeCLV(agg.Total, agg.SaleCount, cfg.WindowDays, cfg.HorizonYears),
			WindowStart:    windowStart,
			WindowEnd:      asOf,
			ComputedAt:     asOf,
		})
		scored[agg.CustomerID] = true
	}

	for _, id := range customerIDs {
		if scored[id] {
			continue
		}
		scores = append(scores, CustomerScore{
			ID:             uuid.New(),
			TenantID:       tenantID,
			CustomerID:     id,
			RecencyDays:    cfg.WindowDays,
			Frequency:      0,
			Monetary:       decimal.Zero,
			RecencyScore:   1,
			FrequencyScore: 1,
			MonetaryScore:  1,
			Segment:        SegmentInactive,
			CLV:            decimal.Zero,
			WindowStart:    windowStart,
			WindowEnd:      asOf,
			ComputedAt:     asOf,
		})
	}

	return scores
}

// quintileRanks assigns each value a 1..5 score from its first-occurrence
// position in the ascending sort: floor(firstIndex * 5 / n) + 1. Equal
// values share the score of their first occurrence.
func quintileRanks[T any](values []T, cmp func(a, b T) int) []int {
	n := len(values)
	ranks := make([]int, n)
	if n == 0 {
		return ranks
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return cmp(values[idx[a]], values[idx[b]]) < 0
	})

	firstIndex := 0
	for pos, origIdx := range idx {
		if pos > 0 && cmp(values[idx[pos-1]], values[origIdx]) != 0 {
			firstIndex = pos
		}
		ranks[origIdx] = firstIndex*5/n + 1
	}
	return ranks
}

// SegmentLabelFor maps an R/F/M score triple to a segment label. The first
// matching rule wins.
func SegmentLabelFor(r, f, m int) string {
	switch {
	case r >= 4 && f >= 4 && m >= 4:
		return SegmentChampions
	case f >= 4:
		return SegmentLoyal
	case m >= 4:
		return SegmentBigSpender
	case r >= 4 && f <= 1:
		return SegmentNew
	case r <= 2 && f >= 3:
		return SegmentAtRisk
	case r <= 1:
		return SegmentLost
	default:
		return SegmentRegular
	}
}

// ComputeCLV projects customer lifetime value: average order value times
// purchases per year (frequency scaled to 365 days) times the horizon in
// years, rounded to two decimal places. Zero frequency yields zero.
func ComputeCLV(monetary decimal.Decimal, frequency int64, windowDays, horizonYears int) decimal.Decimal {
	if frequency <= 0 || windowDays <= 0 || horizonYears <= 0 {
		return decimal.Zero
	}

	freq := decimal.NewFromInt(frequency)
	avgOrderValue := monetary.Div(freq)
	perYear := freq.Mul(decimal.NewFromInt(365)).Div(decimal.NewFromInt(int64(windowDays)))
	return avgOrderValue.Mul(perYear).Mul(decimal.NewFromInt(int64(horizonYears))).Round(2)
}

// ScoringSummary aggregates a tenant's current scores.
type ScoringSummary struct {
	TotalScored        int64
	SegmentCounts      map[string]int64
	AverageRecencyDays float64
	AverageFrequency   float64
	AverageMonetary    decimal.Decimal
	AverageCLV         decimal.Decimal
	LastComputedAt     *time.Time
}

// ScoreFilter contains filter options for querying customer scores
type ScoreFilter struct {
	// Filter by segment label
	Segment string

	// Minimum score bounds, zero means no bound
	MinRecencyScore   int
	MinFrequencyScore int
	MinMonetaryScore  int

	// Pagination
	Page     int
	PageSize int
}

// NewScoreFilter creates a new ScoreFilter with default values
func NewScoreFilter() ScoreFilter {
	return ScoreFilter{Page: 1, PageSize: 20}
}

// Offset returns the offset for pagination
func (f ScoreFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the limit for pagination
func (f ScoreFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}

// CustomerScoreRepository defines the interface for score persistence
type CustomerScoreRepository interface {
	// FindByCustomer finds the score row for a customer
	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerScore, error)

	// FindAllForTenant returns the tenant's scores matching the filter, with
	// total count
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ScoreFilter) ([]CustomerScore, int64, error)

	// UpsertBatch inserts or replaces score rows keyed by customer ID
	UpsertBatch(ctx context.Context, scores []CustomerScore) error

	// Summary aggregates the tenant's current scores
	Summary(ctx context.Context, tenantID uuid.UUID) (*ScoringSummary, error)

	// DeleteByCustomer removes a customer's score row
	DeleteByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) error
}
