package crm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/org"
	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/domain/shared"
)

// CustomerService handles customer management within a tenant
type CustomerService struct {
	customerRepo crm.CustomerRepository
	tenantRepo   platform.TenantRepository
	branchRepo   org.BranchRepository
	scoreRepo    crm.CustomerScoreRepository
	logger       *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(
	customerRepo crm.CustomerRepository,
	tenantRepo platform.TenantRepository,
	branchRepo org.BranchRepository,
	scoreRepo crm.CustomerScoreRepository,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		tenantRepo:   tenantRepo,
		branchRepo:   branchRepo,
		scoreRepo:    scoreRepo,
		logger:       logger,
	}
}

// CreateCustomerInput contains input for creating a customer
type CreateCustomerInput struct {
	TenantID   uuid.UUID
	Code       string
	Name       string
	Email      string
	Phone      string
	BranchID   *uuid.UUID
	Birthday   *time.Time
	Attributes map[string]string
	CreatedBy  *uuid.UUID
}

// UpdateCustomerInput contains input for updating a customer. All fields are
// applied; an empty optional field clears the stored value. Attributes are
// merged key by key, existing keys not present in the input are kept.
type UpdateCustomerInput struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Name       string
	Email      string
	Phone      string
	BranchID   *uuid.UUID
	Birthday   *time.Time
	Attributes map[string]string
}

// AdjustPointsInput contains input for a manual loyalty point adjustment
type AdjustPointsInput struct {
	TenantID   uuid.UUID
	CustomerID uuid.UUID
	Delta      int64
	Reason     string
}

// CustomerDTO represents customer data transfer object
type CustomerDTO struct {
	ID             uuid.UUID         `json:"id"`
	TenantID       uuid.UUID         `json:"tenant_id"`
	Code           string            `json:"code"`
	Name           string            `json:"name"`
	Email          string            `json:"email,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	BranchID       *uuid.UUID        `json:"branch_id,omitempty"`
	Status         string            `json:"status"`
	LoyaltyPoints  int64             `json:"loyalty_points"`
	LoyaltyTierID  *uuid.UUID        `json:"loyalty_tier_id,omitempty"`
	TotalSpent     decimal.Decimal   `json:"total_spent"`
	VisitCount     int64             `json:"visit_count"`
	LastPurchaseAt *time.Time        `json:"last_purchase_at,omitempty"`
	Birthday       *time.Time        `json:"birthday,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// CustomerListResult represents paginated customer list result
type CustomerListResult struct {
	Customers  []CustomerDTO `json:"customers"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// Create creates a new customer within the tenant
func (s *CustomerService) Create(ctx context.Context, input CreateCustomerInput) (*CustomerDTO, error) {
	s.logger.Info("Creating new customer",
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

	// Enforce the subscription's customer limit
	customerCount, err := s.customerRepo.CountByTenant(ctx, input.TenantID)
	if err != nil {
		s.logger.Error("Failed to count customers", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check customer limit")
	}
	if !tenant.CanAddCustomer(int(customerCount)) {
		return nil, shared.NewDomainError("CUSTOMER_LIMIT_REACHED", "Customer limit for the current plan has been reached")
	}

	exists, err := s.customerRepo.ExistsByCode(ctx, input.TenantID, input.Code)
	if err != nil {
		s.logger.Error("Failed to check customer code", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check customer code")
	}
	if exists {
		return nil, shared.NewDomainError("CUSTOMER_CODE_EXISTS", "A customer with this code already exists")
	}

	if input.BranchID != nil && *input.BranchID != uuid.Nil {
		if _, err := s.branchRepo.FindByIDForTenant(ctx, *input.BranchID, input.TenantID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("BRANCH_TENANT_MISMATCH", "Branch does not belong to this tenant")
			}
			s.logger.Error("Failed to find branch", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to verify branch")
		}
	}

	customer, err := crm.NewCustomer(input.TenantID, input.Code, input.Name)
	if err != nil {
		return nil, err
	}

	if input.Email != "" || input.Phone != "" {
		if err := customer.Update(input.Name, input.Email, input.Phone); err != nil {
			return nil, err
		}
	}
	if input.BranchID != nil && *input.BranchID != uuid.Nil {
		branchID := *input.BranchID
		customer.SetHomeBranch(&branchID)
	}
	if input.Birthday != nil {
		if err := customer.SetBirthday(input.Birthday); err != nil {
			return nil, err
		}
	}
	for key, value := range input.Attributes {
		customer.SetAttribute(key, value)
	}
	if input.CreatedBy != nil {
		customer.SetCreatedBy(*input.CreatedBy)
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		s.logger.Error("Failed to create customer", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create customer")
	}

	s.logger.Info("Customer created successfully",
		zap.String("customer_id", customer.ID.String()),
		zap.String("code", customer.Code),
		zap.String("tenant_id", customer.TenantID.String()))

	return toCustomerDTO(customer), nil
}

// GetByID retrieves a customer by ID within the tenant
func (s *CustomerService) GetByID(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.findCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	return toCustomerDTO(customer), nil
}

// GetByCode retrieves a customer by code within the tenant
func (s *CustomerService) GetByCode(ctx context.Context, tenantID uuid.UUID, code string) (*CustomerDTO, error) {
	customer, err := s.customerRepo.FindByCode(ctx, tenantID, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found")
		}
		s.logger.Error("Failed to find customer by code", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find customer")
	}
	return toCustomerDTO(customer), nil
}

// List retrieves a paginated list of the tenant's customers
func (s *CustomerService) List(ctx context.Context, tenantID uuid.UUID, filter crm.CustomerFilter) (*CustomerListResult, error) {
	customers, total, err := s.customerRepo.FindAll(ctx, tenantID, filter)
	if err != nil {
		s.logger.Error("Failed to list customers", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list customers")
	}

	pageSize := filter.Limit()
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	customerDTOs := make([]CustomerDTO, len(customers))
	for i := range customers {
		customerDTOs[i] = *toCustomerDTO(&customers[i])
	}

	return &CustomerListResult{
		Customers:  customerDTOs,
		Total:      total,
		Page:       filter.Page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Update updates a customer's profile
func (s *CustomerService) Update(ctx context.Context, input UpdateCustomerInput) (*CustomerDTO, error) {
	customer, err := s.findCustomer(ctx, input.TenantID, input.ID)
	if err != nil {
		return nil, err
	}

	if err := customer.Update(input.Name, input.Email, input.Phone); err != nil {
		return nil, err
	}

	if input.BranchID != nil && *input.BranchID != uuid.Nil {
		if _, err := s.branchRepo.FindByIDForTenant(ctx, *input.BranchID, input.TenantID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("BRANCH_TENANT_MISMATCH", "Branch does not belong to this tenant")
			}
			s.logger.Error("Failed to find branch", zap.Error(err))
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to verify branch")
		}
		branchID := *input.BranchID
		customer.SetHomeBranch(&branchID)
	} else {
		customer.SetHomeBranch(nil)
	}

	if err := customer.SetBirthday(input.Birthday); err != nil {
		return nil, err
	}
	for key, value := range input.Attributes {
		customer.SetAttribute(key, value)
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		s.logger.Error("Failed to update customer", zap.Error(err))
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update customer")
	}

	s.logger.Info("Customer updated", zap.String("customer_id", input.ID.String()))

	return toCustomerDTO(customer), nil
}

// Activate activates a customer
func (s *CustomerService) Activate(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.findCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	if err := customer.Activate(); err != nil {
		return nil, err
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		s.logger.Error("Failed to activate customer", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to activate customer")
	}

	s.logger.Info("Customer activated", zap.String("customer_id", customerID.String()))

	return toCustomerDTO(customer), nil
}

// Deactivate deactivates a customer
func (s *CustomerService) Deactivate(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.findCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	if err := customer.Deactivate(); err != nil {
		return nil, err
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		s.logger.Error("Failed to deactivate customer", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to deactivate customer")
	}

	s.logger.Info("Customer deactivated", zap.String("customer_id", customerID.String()))

	return toCustomerDTO(customer), nil
}

// Block blocks a customer from purchases and loyalty accrual
func (s *CustomerService) Block(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.findCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	if err := customer.Block(); err != nil {
		return nil, err
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		s.logger.Error("Failed to block customer", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to block customer")
	}

	s.logger.Info("Customer blocked", zap.String("customer_id", customerID.String()))

	return toCustomerDTO(customer), nil
}

// AdjustPoints applies a manual loyalty point adjustment with a reason. The
// balance never goes below zero.
func (s *CustomerService) AdjustPoints(ctx context.Context, input AdjustPointsInput) (*CustomerDTO, error) {
	customer, err := s.findCustomer(ctx, input.TenantID, input.CustomerID)
	if err != nil {
		return nil, err
	}

	if err := customer.AdjustPoints(input.Delta, input.Reason); err != nil {
		return nil, err
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		s.logger.Error("Failed to save point adjustment", zap.Error(err))
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to adjust points")
	}

	s.logger.Info("Customer points adjusted",
		zap.String("customer_id", input.CustomerID.String()),
		zap.Int64("delta", input.Delta),
		zap.Int64("balance", customer.LoyaltyPoints))

	return toCustomerDTO(customer), nil
}

// Delete removes a customer. Sales keep their customer reference for
// reporting; the customer's score row is removed alongside.
func (s *CustomerService) Delete(ctx context.Context, tenantID, customerID uuid.UUID) error {
	customer, err := s.findCustomer(ctx, tenantID, customerID)
	if err != nil {
		return err
	}

	if err := s.customerRepo.Delete(ctx, customer.ID); err != nil {
		s.logger.Error("Failed to delete customer", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete customer")
	}

	// Scores are recomputed nightly; a failed cleanup here is not fatal.
	if err := s.scoreRepo.DeleteByCustomer(ctx, tenantID, customerID); err != nil {
		s.logger.Warn("Failed to delete customer score row",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
	}

	s.logger.Info("Customer deleted",
		zap.String("customer_id", customerID.String()),
		zap.String("tenant_id", tenantID.String()))

	return nil
}

func (s *CustomerService) findCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (*crm.Customer, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, customerID, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found")
		}
		s.logger.Error("Failed to find customer", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find customer")
	}
	return customer, nil
}

func toCustomerDTO(customer *crm.Customer) *CustomerDTO {
	return &CustomerDTO{
		ID:             customer.ID,
		TenantID:       customer.TenantID,
		Code:           customer.Code,
		Name:           customer.Name,
		Email:          customer.Email,
		Phone:          customer.Phone,
		BranchID:       customer.BranchID,
		Status:         string(customer.Status),
		LoyaltyPoints:  customer.LoyaltyPoints,
		LoyaltyTierID:  customer.LoyaltyTierID,
		TotalSpent:     customer.TotalSpent,
		VisitCount:     customer.VisitCount,
		LastPurchaseAt: customer.LastPurchaseAt,
		Birthday:       customer.Birthday,
		Attributes:     customer.Attributes,
		CreatedAt:      customer.CreatedAt,
		UpdatedAt:      customer.UpdatedAt,
	}
}
