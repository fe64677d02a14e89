package crm

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailsuite/backend/internal/domain/shared"
)

// TierStatus represents the status of a loyalty tier
type TierStatus string

const (
	TierStatusActive   TierStatus = "active"
	TierStatusInactive TierStatus = "inactive"
)

// LoyaltyTier is one rung of a tenant's loyalty ladder. Rank 1 is the
// lowest tier; ranks are unique per tenant.
type LoyaltyTier struct {
	shared.TenantAggregateRoot
	Name            string
	Rank            int
	MinPoints       int64
	MinSpent        decimal.Decimal
	DiscountPercent decimal.Decimal
	Color           string
	Status          TierStatus
}

// NewLoyaltyTier creates a new active loyalty tier
func NewLoyaltyTier(tenantID uuid.UUID, name string, rank int, minPoints int64, minSpent, discountPercent decimal.Decimal) (*LoyaltyTier, error) {
	if err := validateTierName(name); err != nil {
		return nil, err
	}
	if rank < 1 {
		return nil, shared.NewDomainError("INVALID_TIER_RANK", "Tier rank must be at least 1")
	}
	if minPoints < 0 {
		return nil, shared.NewDomainError("INVALID_TIER_THRESHOLD", "Minimum points cannot be negative")
	}
	if minSpent.IsNegative() {
		return nil, shared.NewDomainError("INVALID_TIER_THRESHOLD", "Minimum spend cannot be negative")
	}
	if err := validateDiscount(discountPercent); err != nil {
		return nil, err
	}

	return &LoyaltyTier{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                strings.TrimSpace(name),
		Rank:                rank,
		MinPoints:           minPoints,
		MinSpent:            minSpent,
		DiscountPercent:     discountPercent,
		Status:              TierStatusActive,
	}, nil
}

// Update changes the tier's name, thresholds and discount. Rank changes go
// through the service, which checks for collisions.
func (t *LoyaltyTier) Update(name string, minPoints int64, minSpent, discountPercent decimal.Decimal, color string) error {
	if err := validateTierName(name); err != nil {
		return err
	}
	if minPoints < 0 {
		return shared.NewDomainError("INVALID_TIER_THRESHOLD", "Minimum points cannot be negative")
	}
	if minSpent.IsNegative() {
		return shared.NewDomainError("INVALID_TIER_THRESHOLD", "Minimum spend cannot be negative")
	}
	if err := validateDiscount(discountPercent); err != nil {
		return err
	}
	if len(color) > 20 {
		return shared.NewDomainError("INVALID_TIER_COLOR", "Color cannot exceed 20 characters")
	}

	t.Name = strings.TrimSpace(name)
	t.MinPoints = minPoints
	t.MinSpent = minSpent
	t.DiscountPercent = discountPercent
	t.Color = color
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// ChangeRank moves the tier to a new rank. Collision checks are the
// service's job.
func (t *LoyaltyTier) ChangeRank(rank int) error {
	if rank < 1 {
		return shared.NewDomainError("INVALID_TIER_RANK", "Tier rank must be at least 1")
	}

	t.Rank = rank
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// Activate activates the tier
func (t *LoyaltyTier) Activate() error {
	if t.Status == TierStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Tier is already active")
	}

	t.Status = TierStatusActive
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// Deactivate deactivates the tier
func (t *LoyaltyTier) Deactivate() error {
	if t.Status == TierStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Tier is already inactive")
	}

	t.Status = TierStatusInactive
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// IsActive returns true if tier is active
func (t *LoyaltyTier) IsActive() bool {
	return t.Status == TierStatusActive
}

// Qualifies reports whether a customer with the given points and spend
// meets both thresholds.
func (t *LoyaltyTier) Qualifies(points int64, spent decimal.Decimal) bool {
	return points >= t.MinPoints && spent.GreaterThanOrEqual(t.MinSpent)
}

// PickTier returns the highest-rank active tier the customer qualifies for,
// or nil when none match.
func PickTier(tiers []LoyaltyTier, points int64, spent decimal.Decimal) *LoyaltyTier {
	sorted := make([]LoyaltyTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Rank > sorted[j].Rank
	})

	for i := range sorted {
		if !sorted[i].IsActive() {
			continue
		}
		if sorted[i].Qualifies(points, spent) {
			return &sorted[i]
		}
	}
	return nil
}

// DefaultTiers returns the ladder seeded at tenant provisioning.
func DefaultTiers(tenantID uuid.UUID) ([]*LoyaltyTier, error) {
	seed := []struct {
		name      string
		rank      int
		minPoints int64
		minSpent  int64
		discount  int64
		color     string
	}{
		{"Bronze", 1, 0, 0, 0, "#cd7f32"},
		{"Silver", 2, 1000, 500, 5, "#c0c0c0"},
		{"Gold", 3, 5000, 2500, 10, "#ffd700"},
		{"Platinum", 4, 20000, 10000, 15, "#e5e4e2"},
	}

	tiers := make([]*LoyaltyTier, 0, len(seed))
	for _, s := range seed {
		tier, err := NewLoyaltyTier(tenantID, s.name, s.rank, s.minPoints,
			decimal.NewFromInt(s.minSpent), decimal.NewFromInt(s.discount))
		if err != nil {
			return nil, err
		}
		tier.Color = s.color
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

// LoyaltyTierRepository defines the interface for tier persistence
type LoyaltyTierRepository interface {
	// FindByID finds a tier by ID
	FindByID(ctx context.Context, id uuid.UUID) (*LoyaltyTier, error)

	// FindByIDForTenant finds a tier scoped to a tenant
	FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*LoyaltyTier, error)

	// FindAllForTenant returns the tenant's tiers ordered by rank ascending
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]LoyaltyTier, error)

	// FindActiveForTenant returns the tenant's active tiers ordered by rank
	// ascending
	FindActiveForTenant(ctx context.Context, tenantID uuid.UUID) ([]LoyaltyTier, error)

	// ExistsByRank checks if a rank is already taken within the tenant
	ExistsByRank(ctx context.Context, tenantID uuid.UUID, rank int) (bool, error)

	// Save creates or updates a tier
	Save(ctx context.Context, tier *LoyaltyTier) error

	// SaveBatch creates or updates several tiers at once
	SaveBatch(ctx context.Context, tiers []*LoyaltyTier) error

	// Delete deletes a tier by ID
	Delete(ctx context.Context, id uuid.UUID) error
}

// Validation functions

func validateTierName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_TIER_NAME", "Tier name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_TIER_NAME", "Tier name cannot exceed 100 characters")
	}
	return nil
}

func validateDiscount(discount decimal.Decimal) error {
	if discount.IsNegative() || discount.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount percent must be between 0 and 100")
	}
	return nil
}
