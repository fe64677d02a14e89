package crm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/shared"
)

// LoyaltyTierService manages a tenant's loyalty ladder
type LoyaltyTierService struct {
	tierRepo     crm.LoyaltyTierRepository
	customerRepo crm.CustomerRepository
	logger       *zap.Logger
}

// NewLoyaltyTierService creates a new loyalty tier service
func NewLoyaltyTierService(
	tierRepo crm.LoyaltyTierRepository,
	customerRepo crm.CustomerRepository,
	logger *zap.Logger,
) *LoyaltyTierService {
	return &LoyaltyTierService{
		tierRepo:     tierRepo,
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// CreateTierInput contains input for creating a loyalty tier
type CreateTierInput struct {
	TenantID        uuid.UUID
	Name            string
	Rank            int
	MinPoints       int64
	MinSpent        decimal.Decimal
	DiscountPercent decimal.Decimal
	Color           string
	CreatedBy       *uuid.UUID
}

// UpdateTierInput contains input for updating a loyalty tier. Rank is not
// part of it; rank moves go through ChangeRank.
type UpdateTierInput struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	Name            string
	MinPoints       int64
	MinSpent        decimal.Decimal
	DiscountPercent decimal.Decimal
	Color           string
}

// TierDTO represents loyalty tier data transfer object
type TierDTO struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	Name            string          `json:"name"`
	Rank            int             `json:"rank"`
	MinPoints       int64           `json:"min_points"`
	MinSpent        decimal.Decimal `json:"min_spent"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Color           string          `json:"color,omitempty"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Create creates a new loyalty tier
func (s *LoyaltyTierService) Create(ctx context.Context, input CreateTierInput) (*TierDTO, error) {
	taken, err := s.tierRepo.ExistsByRank(ctx, input.TenantID, input.Rank)
	if err != nil {
		s.logger.Error("Failed to check tier rank", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check tier rank")
	}
	if taken {
		return nil, shared.NewDomainError("TIER_RANK_EXISTS", "A tier with this rank already exists")
	}

	tier, err := crm.NewLoyaltyTier(input.TenantID, input.Name, input.Rank, input.MinPoints, input.MinSpent, input.DiscountPercent)
	if err != nil {
		return nil, err
	}
	if input.Color != "" {
		if err := tier.Update(input.Name, input.MinPoints, input.MinSpent, input.DiscountPercent, input.Color); err != nil {
			return nil, err
		}
	}
	if input.CreatedBy != nil {
		tier.SetCreatedBy(*input.CreatedBy)
	}

	if err := s.tierRepo.Save(ctx, tier); err != nil {
		s.logger.Error("Failed to create tier", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create tier")
	}

	s.logger.Info("Loyalty tier created",
		zap.String("tier_id", tier.ID.String()),
		zap.String("name", tier.Name),
		zap.Int("rank", tier.Rank),
		zap.String("tenant_id", tier.TenantID.String()))

	return toTierDTO(tier), nil
}

// GetByID retrieves a tier by ID within the tenant
func (s *LoyaltyTierService) GetByID(ctx context.Context, tenantID, tierID uuid.UUID) (*TierDTO, error) {
	tier, err := s.findTier(ctx, tenantID, tierID)
	if err != nil {
		return nil, err
	}
	return toTierDTO(tier), nil
}

// List returns the tenant's tiers ordered by rank ascending. A loyalty
// ladder is a handful of rungs; no pagination.
func (s *LoyaltyTierService) List(ctx context.Context, tenantID uuid.UUID) ([]TierDTO, error) {
	tiers, err := s.tierRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		s.logger.Error("Failed to list tiers", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list tiers")
	}

	dtos := make([]TierDTO, len(tiers))
	for i := range tiers {
		dtos[i] = *toTierDTO(&tiers[i])
	}
	return dtos, nil
}

// Update updates a tier's name, thresholds, discount and color
func (s *LoyaltyTierService) Update(ctx context.Context, input UpdateTierInput) (*TierDTO, error) {
	tier, err := s.findTier(ctx, input.TenantID, input.ID)
	if err != nil {
		return nil, err
	}

	if err := tier.Update(input.Name, input.MinPoints, input.MinSpent, input.DiscountPercent, input.Color); err != nil {
		return nil, err
	}

	if err := s.tierRepo.Save(ctx, tier); err != nil {
		s.logger.Error("Failed to update tier", zap.Error(err))
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update tier")
	}

	s.logger.Info("Loyalty tier updated", zap.String("tier_id", input.ID.String()))

	return toTierDTO(tier), nil
}

// ChangeRank moves a tier to a new rank
func (s *LoyaltyTierService) ChangeRank(ctx context.Context, tenantID, tierID uuid.UUID, rank int) (*TierDTO, error) {
	tier, err := s.findTier(ctx, tenantID, tierID)
	if err != nil {
		return nil, err
	}

	if rank != tier.Rank {
		taken, err := s.tierRepo.ExistsByRank(ctx, tenantID, rank)
		if err != nil {
			s.logger.Error("Failed to check tier rank", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check tier rank")
		}
		if taken {
			return nil, shared.NewDomainError("TIER_RANK_EXISTS", "A tier with this rank already exists")
		}
	}

	if err := tier.ChangeRank(rank); err != nil {
		return nil, err
	}

	if err := s.tierRepo.Save(ctx, tier); err != nil {
		s.logger.Error("Failed to change tier rank", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to change tier rank")
	}

	s.logger.Info("Loyalty tier rank changed",
		zap.String("tier_id", tierID.String()),
		zap.Int("rank", rank))

	return toTierDTO(tier), nil
}

// Activate activates a tier
func (s *LoyaltyTierService) Activate(ctx context.Context, tenantID, tierID uuid.UUID) (*TierDTO, error) {
	tier, err := s.findTier(ctx, tenantID, tierID)
	if err != nil {
		return nil, err
	}

	if err := tier.Activate(); err != nil {
		return nil, err
	}

	if err := s.tierRepo.Save(ctx, tier); err != nil {
		s.logger.Error("Failed to activate tier", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to activate tier")
	}

	s.logger.Info("Loyalty tier activated", zap.String("tier_id", tierID.String()))

	return toTierDTO(tier), nil
}

// Deactivate deactivates a tier. Customers keep their assignment until the
// next scoring run moves them.
func (s *LoyaltyTierService) Deactivate(ctx context.Context, tenantID, tierID uuid.UUID) (*TierDTO, error) {
	tier, err := s.findTier(ctx, tenantID, tierID)
	if err != nil {
		return nil, err
	}

	if err := tier.Deactivate(); err != nil {
		return nil, err
	}

	if err := s.tierRepo.Save(ctx, tier); err != nil {
		s.logger.Error("Failed to deactivate tier", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to deactivate tier")
	}

	s.logger.Info("Loyalty tier deactivated", zap.String("tier_id", tierID.String()))

	return toTierDTO(tier), nil
}

// Delete removes a tier. A tier with customers assigned to it cannot be
// deleted.
func (s *LoyaltyTierService) Delete(ctx context.Context, tenantID, tierID uuid.UUID) error {
	tier, err := s.findTier(ctx, tenantID, tierID)
	if err != nil {
		return err
	}

	assigned, err := s.customerRepo.CountByTier(ctx, tenantID, tierID)
	if err != nil {
		s.logger.Error("Failed to count tier members", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to check tier usage")
	}
	if assigned > 0 {
		return shared.NewDomainError("TIER_IN_USE", "Customers are still assigned to this tier")
	}

	if err := s.tierRepo.Delete(ctx, tier.ID); err != nil {
		s.logger.Error("Failed to delete tier", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete tier")
	}

	s.logger.Info("Loyalty tier deleted",
		zap.String("tier_id", tierID.String()),
		zap.String("tenant_id", tenantID.String()))

	return nil
}

func (s *LoyaltyTierService) findTier(ctx context.Context, tenantID, tierID uuid.UUID) (*crm.LoyaltyTier, error) {
	tier, err := s.tierRepo.FindByIDForTenant(ctx, tierID, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TIER_NOT_FOUND", "Loyalty tier not found")
		}
		s.logger.Error("Failed to find tier", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find tier")
	}
	return tier, nil
}

func toTierDTO(tier *crm.LoyaltyTier) *TierDTO {
	return &TierDTO{
		ID:              tier.ID,
		TenantID:        tier.TenantID,
		Name:            tier.Name,
		Rank:            tier.Rank,
		MinPoints:       tier.MinPoints,
		MinSpent:        tier.MinSpent,
		DiscountPercent: tier.DiscountPercent,
		Color:           tier.Color,
		Status:          string(tier.Status),
		CreatedAt:       tier.CreatedAt,
		UpdatedAt:       tier.UpdatedAt,
	}
}
