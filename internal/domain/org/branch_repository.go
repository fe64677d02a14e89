package org

import (
	"context"

	"github.com/google/uuid"

	"github.com/retailsuite/backend/internal/domain/shared"
)

// BranchRepository defines the interface for branch persistence
type BranchRepository interface {
	// FindByID finds a branch by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Branch, error)

	// FindByIDForTenant finds a branch scoped to a tenant
	FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*Branch, error)

	// FindByCode finds a branch by code within the tenant
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Branch, error)

	// FindAllForTenant returns the tenant's branches matching the filter
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Branch, error)

	// FindMainBranch returns the tenant's main branch
	FindMainBranch(ctx context.Context, tenantID uuid.UUID) (*Branch, error)

	// CountByTenant returns the number of branches for the tenant
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// ExistsByCode checks if a branch code already exists within the tenant
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)

	// Save creates or updates a branch
	Save(ctx context.Context, branch *Branch) error

	// SetMain promotes the branch to main and demotes the previous main in
	// one transaction
	SetMain(ctx context.Context, branch *Branch) error

	// Delete deletes a branch by ID
	Delete(ctx context.Context, id uuid.UUID) error
}
