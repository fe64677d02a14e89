package crm

import (
	"context"

	"github.com/google/uuid"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID finds a customer by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByIDForTenant finds a customer scoped to a tenant
	FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*Customer, error)

	// FindByCode finds a customer by code within the tenant
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Customer, error)

	// FindAll returns the tenant's customers matching the filter, with total
	FindAll(ctx context.Context, tenantID uuid.UUID, filter CustomerFilter) ([]Customer, int64, error)

	// FindIDsForTenant returns the IDs of all customers of the tenant
	FindIDsForTenant(ctx context.Context, tenantID uuid.UUID) ([]uuid.UUID, error)

	// CountByTenant returns the number of customers for the tenant
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// CountByTier returns the number of customers assigned to a tier
	CountByTier(ctx context.Context, tenantID, tierID uuid.UUID) (int64, error)

	// ExistsByCode checks if a customer code already exists within the tenant
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error

	// Delete deletes a customer by ID
	Delete(ctx context.Context, id uuid.UUID) error
}

// CustomerFilter contains filter options for querying customers
type CustomerFilter struct {
	// Search keyword for code, name, email, or phone
	Keyword string

	// Filter by status
	Status *CustomerStatus

	// Filter by home branch
	BranchID *uuid.UUID

	// Filter by loyalty tier
	TierID *uuid.UUID

	// Pagination
	Page     int
	PageSize int

	// Sorting
	SortBy    string
	SortOrder string // "asc" or "desc"
}

// NewCustomerFilter creates a new CustomerFilter with default values
func NewCustomerFilter() CustomerFilter {
	return CustomerFilter{
		Page:      1,
		PageSize:  20,
		SortBy:    "created_at",
		SortOrder: "desc",
	}
}

// WithKeyword sets the search keyword
func (f CustomerFilter) WithKeyword(keyword string) CustomerFilter {
	f.Keyword = keyword
	return f
}

// WithStatus sets the status filter
func (f CustomerFilter) WithStatus(status CustomerStatus) CustomerFilter {
	f.Status = &status
	return f
}

// WithBranch sets the home branch filter
func (f CustomerFilter) WithBranch(branchID uuid.UUID) CustomerFilter {
	f.BranchID = &branchID
	return f
}

// WithTier sets the loyalty tier filter
func (f CustomerFilter) WithTier(tierID uuid.UUID) CustomerFilter {
	f.TierID = &tierID
	return f
}

// WithPagination sets pagination parameters
func (f CustomerFilter) WithPagination(page, pageSize int) CustomerFilter {
	f.Page = page
	f.PageSize = pageSize
	return f
}

// Offset returns the offset for pagination
func (f CustomerFilter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the limit for pagination
func (f CustomerFilter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
