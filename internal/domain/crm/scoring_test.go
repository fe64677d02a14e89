package crm

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuintileRanks(t *testing.T) {
	intCmp := func(a, b int) int { return a - b }

	t.Run("single value scores 1", func(t *testing.T) {
		assert.Equal(t, []int{1}, quintileRanks([]int{42}, intCmp))
	})

	t.Run("five distinct values spread 1 to 5", func(t *testing.T) {
		ranks := quintileRanks([]int{30, 10, 50, 20, 40}, intCmp)

		assert.Equal(t, []int{3, 1, 5, 2, 4}, ranks)
	})

	t.Run("ten distinct values pair up", func(t *testing.T) {
		values := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

		ranks := quintileRanks(values, intCmp)

		assert.Equal(t, []int{1, 1, 2, 2, 3, 3, 4, 4, 5, 5}, ranks)
	})

	t.Run("ties share the first-occurrence score", func(t *testing.T) {
		ranks := quintileRanks([]int{10, 10, 10, 20}, intCmp)

		assert.Equal(t, []int{1, 1, 1, 4}, ranks)
	})

	t.Run("all equal values score 1", func(t *testing.T) {
		ranks := quintileRanks([]int{7, 7, 7, 7, 7}, intCmp)

		assert.Equal(t, []int{1, 1, 1, 1, 1}, ranks)
	})

	t.Run("empty input yields empty ranks", func(t *testing.T) {
		assert.Empty(t, quintileRanks(nil, intCmp))
	})
}

func TestSegmentLabelFor(t *testing.T) {
	tests := []struct {
		name    string
		r, f, m int
		want    string
	}{
		{"all high is champions", 5, 5, 5, SegmentChampions},
		{"threshold champions", 4, 4, 4, SegmentChampions},
		{"frequent buyer is loyal", 1, 5, 1, SegmentLoyal},
		{"loyal outranks lost", 1, 4, 1, SegmentLoyal},
		{"high spend is big spender", 1, 1, 5, SegmentBigSpender},
		{"big spender before new", 5, 1, 4, SegmentBigSpender},
		{"recent rare buyer is new", 5, 1, 1, SegmentNew},
		{"fading frequent buyer is at risk", 2, 3, 1, SegmentAtRisk},
		{"cold infrequent buyer is lost", 1, 2, 2, SegmentLost},
		{"middle of the pack is regular", 3, 3, 3, SegmentRegular},
		{"low recency high frequency mid spend", 1, 3, 3, SegmentAtRisk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SegmentLabelFor(tt.r, tt.f, tt.m))
		})
	}
}

func TestComputeCLV(t *testing.T) {
	t.Run("full-year window", func(t *testing.T) {
		clv := ComputeCLV(decimal.NewFromInt(1200), 12, 365, 3)

		// AOV 100, 12 purchases/year, 3 years
		assert.True(t, clv.Equal(decimal.NewFromInt(3600)), "got %s", clv)
	})

	t.Run("short window scales to a year", func(t *testing.T) {
		clv := ComputeCLV(decimal.NewFromInt(500), 2, 180, 3)

		// AOV 250, 730/180 purchases/year, 3 years
		want := decimal.RequireFromString("3041.67")
		assert.True(t, clv.Equal(want), "got %s", clv)
	})

	t.Run("zero frequency yields zero", func(t *testing.T) {
		assert.True(t, ComputeCLV(decimal.NewFromInt(100), 0, 365, 3).IsZero())
	})

	t.Run("rounded to two decimal places", func(t *testing.T) {
		clv := ComputeCLV(decimal.RequireFromString("99.99"), 3, 365, 1)

		assert.Equal(t, int32(-2), clv.Exponent())
	})
}

func TestScoreCustomers(t *testing.T) {
	tenantID := uuid.New()
	asOf := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := DefaultScoringConfig()

	ids := make([]uuid.UUID, 7)
	for i := range ids {
		ids[i] = uuid.New()
	}

	aggregates := []CustomerSalesAggregate{
		{CustomerID: ids[0], SaleCount: 20, Total: decimal.NewFromInt(4000), LastSaleAt: asOf.AddDate(0, 0, -5)},
		{CustomerID: ids[1], SaleCount: 10, Total: decimal.NewFromInt(2500), LastSaleAt: asOf.AddDate(0, 0, -30)},
		{CustomerID: ids[2], SaleCount: 5, Total: decimal.NewFromInt(1000), LastSaleAt: asOf.AddDate(0, 0, -90)},
		{CustomerID: ids[3], SaleCount: 2, Total: decimal.NewFromInt(400), LastSaleAt: asOf.AddDate(0, 0, -180)},
		{CustomerID: ids[4], SaleCount: 1, Total: decimal.NewFromInt(100), LastSaleAt: asOf.AddDate(0, 0, -300)},
	}

	scores := ScoreCustomers(tenantID, ids, aggregates, cfg, asOf)
	require.Len(t, scores, 7)

	byCustomer := make(map[uuid.UUID]CustomerScore, len(scores))
	for _, s := range scores {
		byCustomer[s.CustomerID] = s
	}

	t.Run("best customer scores 5-5-5 champions", func(t *testing.T) {
		s := byCustomer[ids[0]]

		assert.Equal(t, 5, s.RecencyDays)
		assert.Equal(t, 5, s.RecencyScore)
		assert.Equal(t, 5, s.FrequencyScore)
		assert.Equal(t, 5, s.MonetaryScore)
		assert.Equal(t, SegmentChampions, s.Segment)
		assert.True(t, s.CLV.Equal(decimal.NewFromInt(12000)), "got %s", s.CLV)
	})

	t.Run("recency is inverted", func(t *testing.T) {
		// The oldest buyer has the largest recency, hence the lowest R.
		assert.Equal(t, 1, byCustomer[ids[4]].RecencyScore)
		assert.Equal(t, 2, byCustomer[ids[3]].RecencyScore)
	})

	t.Run("middle customer is regular", func(t *testing.T) {
		s := byCustomer[ids[2]]

		assert.Equal(t, 3, s.RecencyScore)
		assert.Equal(t, 3, s.FrequencyScore)
		assert.Equal(t, 3, s.MonetaryScore)
		assert.Equal(t, SegmentRegular, s.Segment)
	})

	t.Run("coldest customer is lost", func(t *testing.T) {
		assert.Equal(t, SegmentLost, byCustomer[ids[4]].Segment)
	})

	t.Run("customers without sales are inactive", func(t *testing.T) {
		for _, id := range []uuid.UUID{ids[5], ids[6]} {
			s := byCustomer[id]

			assert.Equal(t, 1, s.RecencyScore)
			assert.Equal(t, 1, s.FrequencyScore)
			assert.Equal(t, 1, s.MonetaryScore)
			assert.Equal(t, SegmentInactive, s.Segment)
			assert.True(t, s.CLV.IsZero())
			assert.Equal(t, cfg.WindowDays, s.RecencyDays)
			assert.EqualValues(t, 0, s.Frequency)
		}
	})

	t.Run("window bounds are recorded", func(t *testing.T) {
		s := byCustomer[ids[0]]

		assert.Equal(t, asOf, s.WindowEnd)
		assert.Equal(t, asOf.AddDate(0, 0, -cfg.WindowDays), s.WindowStart)
		assert.Equal(t, asOf, s.ComputedAt)
		assert.Equal(t, tenantID, s.TenantID)
	})
}

func TestScoreCustomers_TiedPopulation(t *testing.T) {
	tenantID := uuid.New()
	asOf := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	lastSale := asOf.AddDate(0, 0, -10)
	aggregates := []CustomerSalesAggregate{
		{CustomerID: ids[0], SaleCount: 3, Total: decimal.NewFromInt(300), LastSaleAt: lastSale},
		{CustomerID: ids[1], SaleCount: 3, Total: decimal.NewFromInt(300), LastSaleAt: lastSale},
		{CustomerID: ids[2], SaleCount: 3, Total: decimal.NewFromInt(300), LastSaleAt: lastSale},
		{CustomerID: ids[3], SaleCount: 9, Total: decimal.NewFromInt(900), LastSaleAt: lastSale},
	}

	scores := ScoreCustomers(tenantID, ids, aggregates, DefaultScoringConfig(), asOf)
	byCustomer := make(map[uuid.UUID]CustomerScore, len(scores))
	for _, s := range scores {
		byCustomer[s.CustomerID] = s
	}

	// Equal frequencies share the first-occurrence score; the outlier lands
	// in the top bucket (firstIndex 3 of 4).
	for _, id := range ids[:3] {
		assert.Equal(t, 1, byCustomer[id].FrequencyScore)
		assert.Equal(t, 1, byCustomer[id].MonetaryScore)
	}
	assert.Equal(t, 4, byCustomer[ids[3]].FrequencyScore)
	assert.Equal(t, 4, byCustomer[ids[3]].MonetaryScore)

	// Identical recency puts everyone in the same bucket, inverted to 5.
	for _, id := range ids {
		assert.Equal(t, 5, byCustomer[id].RecencyScore)
	}
}

func TestScoreFilter_Pagination(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		f := NewScoreFilter()
		assert.Equal(t, 0, f.Offset())
		assert.Equal(t, 20, f.Limit())
	})

	t.Run("offset clamps with the page size", func(t *testing.T) {
		// An over-cap page size must not open gaps between pages
		f := ScoreFilter{Page: 2, PageSize: 500}
		assert.Equal(t, 100, f.Limit())
		assert.Equal(t, 100, f.Offset())
	})

	t.Run("zero page", func(t *testing.T) {
		f := ScoreFilter{Page: 0, PageSize: 50}
		assert.Equal(t, 0, f.Offset())
	})
}
