package org

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailsuite/backend/internal/domain/org"
	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/domain/shared"
)

// BranchService handles branch directory operations within a tenant
type BranchService struct {
	branchRepo org.BranchRepository
	tenantRepo platform.TenantRepository
	logger     *zap.Logger
}

// NewBranchService creates a new branch service
func NewBranchService(
	branchRepo org.BranchRepository,
	tenantRepo platform.TenantRepository,
	logger *zap.Logger,
) *BranchService {
	return &BranchService{
		branchRepo: branchRepo,
		tenantRepo: tenantRepo,
		logger:     logger,
	}
}

// CreateBranchInput contains input for creating a branch
type CreateBranchInput struct {
	TenantID    uuid.UUID
	Code        string
	Name        string
	Address     string
	Phone       string
	ManagerName string
	CreatedBy   *uuid.UUID
}

// UpdateBranchInput contains input for updating a branch. All fields are
// applied; an empty optional field clears the stored value.
type UpdateBranchInput struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Address     string
	Phone       string
	ManagerName string
}

// BranchDTO represents branch data transfer object
type BranchDTO struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Address     string    `json:"address,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	ManagerName string    `json:"manager_name,omitempty"`
	Status      string    `json:"status"`
	IsMain      bool      `json:"is_main"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BranchFilter contains filter options for listing branches
type BranchFilter struct {
	Page     int
	PageSize int
}

// ToSharedFilter converts to the shared filter format
func (f BranchFilter) ToSharedFilter() shared.Filter {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	return filter
}

// BranchListResult represents paginated branch list result
type BranchListResult struct {
	Branches   []BranchDTO `json:"branches"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// Create creates a new branch for the tenant, enforcing the subscription's
// branch limit.
func (s *BranchService) Create(ctx context.Context, input CreateBranchInput) (*BranchDTO, error) {
	s.logger.Info("Creating new branch",
		zap.String("code", input.Code),
		zap.String("tenant_id", input.TenantID.String()))

	tenant, err := s.tenantRepo.FindByID(ctx, input.TenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TENANT_NOT_FOUND", "Tenant not found")
		}
		s.logger.Error("Failed to find tenant", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find tenant")
	}

	branchCount, err := s.branchRepo.CountByTenant(ctx, input.TenantID)
	if err != nil {
		s.logger.Error("Failed to count branches", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check branch limit")
	}
	if !tenant.CanAddBranch(int(branchCount)) {
		return nil, shared.NewDomainError("BRANCH_LIMIT_REACHED", "Branch limit for the current plan has been reached")
	}

	exists, err := s.branchRepo.ExistsByCode(ctx, input.TenantID, input.Code)
	if err != nil {
		s.logger.Error("Failed to check branch code existence", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check code availability")
	}
	if exists {
		return nil, shared.NewDomainError("BRANCH_CODE_EXISTS", "Branch code already exists")
	}

	branch, err := org.NewBranch(input.TenantID, input.Code, input.Name)
	if err != nil {
		return nil, err
	}
	if input.Address != "" || input.Phone != "" || input.ManagerName != "" {
		if err := branch.Update(input.Name, input.Address, input.Phone, input.ManagerName); err != nil {
			return nil, err
		}
	}
	if input.CreatedBy != nil {
		branch.SetCreatedBy(*input.CreatedBy)
	}

	if err := s.branchRepo.Save(ctx, branch); err != nil {
		s.logger.Error("Failed to create branch", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create branch")
	}

	s.logger.Info("Branch created",
		zap.String("branch_id", branch.ID.String()),
		zap.String("code", branch.Code))

	return toBranchDTO(branch), nil
}

// GetByID retrieves a branch scoped to the tenant
func (s *BranchService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*BranchDTO, error) {
	branch, err := s.findBranch(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toBranchDTO(branch), nil
}

// List retrieves a paginated list of the tenant's branches
func (s *BranchService) List(ctx context.Context, tenantID uuid.UUID, filter BranchFilter) (*BranchListResult, error) {
	sharedFilter := filter.ToSharedFilter()

	branches, err := s.branchRepo.FindAllForTenant(ctx, tenantID, sharedFilter)
	if err != nil {
		s.logger.Error("Failed to list branches", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list branches")
	}
	total, err := s.branchRepo.CountByTenant(ctx, tenantID)
	if err != nil {
		s.logger.Error("Failed to count branches", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list branches")
	}

	pageSize := sharedFilter.PageSize
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	branchDTOs := make([]BranchDTO, len(branches))
	for i := range branches {
		branchDTOs[i] = *toBranchDTO(&branches[i])
	}

	return &BranchListResult{
		Branches:   branchDTOs,
		Total:      total,
		Page:       sharedFilter.Page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Update updates a branch's information
func (s *BranchService) Update(ctx context.Context, input UpdateBranchInput) (*BranchDTO, error) {
	branch, err := s.findBranch(ctx, input.TenantID, input.ID)
	if err != nil {
		return nil, err
	}

	if err := branch.Update(input.Name, input.Address, input.Phone, input.ManagerName); err != nil {
		return nil, err
	}

	if err := s.branchRepo.Save(ctx, branch); err != nil {
		s.logger.Error("Failed to update branch", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update branch")
	}

	s.logger.Info("Branch updated", zap.String("branch_id", input.ID.String()))

	return toBranchDTO(branch), nil
}

// Activate activates a branch
func (s *BranchService) Activate(ctx context.Context, tenantID, id uuid.UUID) (*BranchDTO, error) {
	branch, err := s.findBranch(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := branch.Activate(); err != nil {
		return nil, err
	}

	if err := s.branchRepo.Save(ctx, branch); err != nil {
		s.logger.Error("Failed to activate branch", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to activate branch")
	}

	s.logger.Info("Branch activated", zap.String("branch_id", id.String()))

	return toBranchDTO(branch), nil
}

// Deactivate deactivates a branch. The main branch cannot be deactivated;
// promote another branch first.
func (s *BranchService) Deactivate(ctx context.Context, tenantID, id uuid.UUID) (*BranchDTO, error) {
	branch, err := s.findBranch(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if branch.IsMain {
		return nil, shared.NewDomainError("MAIN_BRANCH_PROTECTED", "The main branch cannot be deactivated")
	}

	if err := branch.Deactivate(); err != nil {
		return nil, err
	}

	if err := s.branchRepo.Save(ctx, branch); err != nil {
		s.logger.Error("Failed to deactivate branch", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to deactivate branch")
	}

	s.logger.Info("Branch deactivated", zap.String("branch_id", id.String()))

	return toBranchDTO(branch), nil
}

// SetMain promotes a branch to the tenant's main branch. The previous main
// is demoted in the same transaction.
func (s *BranchService) SetMain(ctx context.Context, tenantID, id uuid.UUID) (*BranchDTO, error) {
	branch, err := s.findBranch(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := branch.MarkMain(); err != nil {
		return nil, err
	}

	if err := s.branchRepo.SetMain(ctx, branch); err != nil {
		s.logger.Error("Failed to set main branch", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to set main branch")
	}

	s.logger.Info("Main branch changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("branch_id", id.String()))

	return toBranchDTO(branch), nil
}

// Delete deletes a branch. Only inactive, non-main branches can be deleted.
func (s *BranchService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	branch, err := s.findBranch(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if err := branch.CanDelete(); err != nil {
		return err
	}

	if err := s.branchRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete branch", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete branch")
	}

	s.logger.Info("Branch deleted", zap.String("branch_id", id.String()))

	return nil
}

func (s *BranchService) findBranch(ctx context.Context, tenantID, id uuid.UUID) (*org.Branch, error) {
	branch, err := s.branchRepo.FindByIDForTenant(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("BRANCH_NOT_FOUND", "Branch not found")
		}
		s.logger.Error("Failed to find branch", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find branch")
	}
	return branch, nil
}

// toBranchDTO converts domain Branch to BranchDTO
func toBranchDTO(branch *org.Branch) *BranchDTO {
	return &BranchDTO{
		ID:          branch.ID,
		TenantID:    branch.TenantID,
		Code:        branch.Code,
		Name:        branch.Name,
		Address:     branch.Address,
		Phone:       branch.Phone,
		ManagerName: branch.ManagerName,
		Status:      string(branch.Status),
		IsMain:      branch.IsMain,
		CreatedAt:   branch.CreatedAt,
		UpdatedAt:   branch.UpdatedAt,
	}
}
