package org

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/retailsuite/backend/internal/domain/shared"
)

// BranchStatus represents the status of a branch
type BranchStatus string

const (
	BranchStatusActive   BranchStatus = "active"
	BranchStatusInactive BranchStatus = "inactive"
)

// MainBranchCode is the code given to the branch created at tenant
// provisioning.
const MainBranchCode = "MAIN"

// Branch represents a physical store location of a tenant.
// It is an aggregate root for branch-related operations.
type Branch struct {
	shared.TenantAggregateRoot
	Code        string // Unique code within tenant (e.g., "MAIN", "DOWNTOWN")
	Name        string
	Address     string
	Phone       string
	ManagerName string
	Status      BranchStatus
	// IsMain marks the tenant's primary location. Exactly one branch per
	// tenant carries it; the repository enforces the demotion of the
	// previous main inside a transaction.
	IsMain bool
}

// NewBranch creates a new branch with required fields
func NewBranch(tenantID uuid.UUID, code, name string) (*Branch, error) {
	if err := validateBranchCode(code); err != nil {
		return nil, err
	}
	if err := validateBranchName(name); err != nil {
		return nil, err
	}

	branch := &Branch{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                strings.ToUpper(strings.TrimSpace(code)),
		Name:                strings.TrimSpace(name),
		Status:              BranchStatusActive,
	}

	branch.AddDomainEvent(NewBranchCreatedEvent(branch))

	return branch, nil
}

// NewMainBranch creates the tenant's primary branch during provisioning.
func NewMainBranch(tenantID uuid.UUID, name string) (*Branch, error) {
	branch, err := NewBranch(tenantID, MainBranchCode, name)
	if err != nil {
		return nil, err
	}

	branch.IsMain = true
	return branch, nil
}

// Update updates the branch's basic information
func (b *Branch) Update(name, address, phone, managerName string) error {
	if err := validateBranchName(name); err != nil {
		return err
	}
	if len(address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}
	if len(managerName) > 200 {
		return shared.NewDomainError("INVALID_MANAGER_NAME", "Manager name cannot exceed 200 characters")
	}

	b.Name = strings.TrimSpace(name)
	b.Address = strings.TrimSpace(address)
	b.Phone = strings.TrimSpace(phone)
	b.ManagerName = strings.TrimSpace(managerName)
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBranchUpdatedEvent(b))

	return nil
}

// Activate activates the branch
func (b *Branch) Activate() error {
	if b.Status == BranchStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Branch is already active")
	}

	b.Status = BranchStatusActive
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// Deactivate deactivates the branch
func (b *Branch) Deactivate() error {
	if b.Status == BranchStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Branch is already inactive")
	}

	b.Status = BranchStatusInactive
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// MarkMain promotes the branch to the tenant's primary location. Only an
// active branch can become main.
func (b *Branch) MarkMain() error {
	if b.Status != BranchStatusActive {
		return shared.NewDomainError("BRANCH_INACTIVE", "Only an active branch can become the main branch")
	}
	if b.IsMain {
		return shared.NewDomainError("ALREADY_MAIN", "Branch is already the main branch")
	}

	b.IsMain = true
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// UnmarkMain demotes the branch. Used when another branch takes over as main.
func (b *Branch) UnmarkMain() {
	if !b.IsMain {
		return
	}

	b.IsMain = false
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
}

// CanDelete reports whether the branch may be removed: only inactive,
// never the main branch.
func (b *Branch) CanDelete() error {
	if b.IsMain {
		return shared.NewDomainError("MAIN_BRANCH_PROTECTED", "The main branch cannot be deleted")
	}
	if b.Status != BranchStatusInactive {
		return shared.NewDomainError("BRANCH_ACTIVE", "Only inactive branches can be deleted")
	}
	return nil
}

// IsActive returns true if branch is active
func (b *Branch) IsActive() bool {
	return b.Status == BranchStatusActive
}

// Validation functions

func validateBranchCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return shared.NewDomainError("INVALID_BRANCH_CODE", "Branch code cannot be empty")
	}
	if len(code) < 2 {
		return shared.NewDomainError("INVALID_BRANCH_CODE", "Branch code must be at least 2 characters")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_BRANCH_CODE", "Branch code cannot exceed 50 characters")
	}

	// Allow alphanumeric, underscore, and hyphen
	codeRegex := regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)
	if !codeRegex.MatchString(code) {
		return shared.NewDomainError("INVALID_BRANCH_CODE", "Branch code must start with a letter and contain only letters, numbers, underscores, and hyphens")
	}

	return nil
}

func validateBranchName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_BRANCH_NAME", "Branch name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_BRANCH_NAME", "Branch name cannot exceed 200 characters")
	}
	return nil
}
