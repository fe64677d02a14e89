package crm

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailsuite/backend/internal/domain/shared"
)

// CustomerStatus represents the status of a customer
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusInactive CustomerStatus = "inactive"
	CustomerStatusBlocked  CustomerStatus = "blocked"
)

// IsValid returns true if the status is a known value.
func (s CustomerStatus) IsValid() bool {
	switch s {
	case CustomerStatusActive, CustomerStatusInactive, CustomerStatusBlocked:
		return true
	default:
		return false
	}
}

// Customer represents a retail customer of a tenant.
// It is the aggregate root for customer-related operations.
type Customer struct {
	shared.TenantAggregateRoot
	Code           string // Unique code within tenant (e.g., "C-000031")
	Name           string
	Email          string
	Phone          string
	BranchID       *uuid.UUID // Home branch, optional
	Status         CustomerStatus
	LoyaltyPoints  int64
	LoyaltyTierID  *uuid.UUID
	TotalSpent     decimal.Decimal
	VisitCount     int64
	LastPurchaseAt *time.Time
	Birthday       *time.Time
	Attributes     map[string]string
}

// NewCustomer creates a new active customer with required fields
func NewCustomer(tenantID uuid.UUID, code, name string) (*Customer, error) {
	if err := validateCustomerCode(code); err != nil {
		return nil, err
	}
	if err := validateCustomerName(name); err != nil {
		return nil, err
	}

	customer := &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                strings.ToUpper(strings.TrimSpace(code)),
		Name:                strings.TrimSpace(name),
		Status:              CustomerStatusActive,
		TotalSpent:          decimal.Zero,
		Attributes:          make(map[string]string),
	}

	customer.AddDomainEvent(NewCustomerCreatedEvent(customer))

	return customer, nil
}

// Update updates the customer's basic information
func (c *Customer) Update(name, email, phone string) error {
	if err := validateCustomerName(name); err != nil {
		return err
	}
	if email != "" {
		if err := validateCustomerEmail(email); err != nil {
			return err
		}
		email = strings.ToLower(strings.TrimSpace(email))
	}
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}

	c.Name = strings.TrimSpace(name)
	c.Email = email
	c.Phone = strings.TrimSpace(phone)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// SetHomeBranch sets the customer's home branch. The caller verifies the
// branch belongs to the same tenant.
func (c *Customer) SetHomeBranch(branchID *uuid.UUID) {
	c.BranchID = branchID
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// SetBirthday sets the customer's birthday
func (c *Customer) SetBirthday(birthday *time.Time) error {
	if birthday != nil && birthday.After(time.Now()) {
		return shared.NewDomainError("INVALID_BIRTHDAY", "Birthday cannot be in the future")
	}

	c.Birthday = birthday
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// SetAttribute sets a free-form attribute key-value pair
func (c *Customer) SetAttribute(key, value string) {
	if c.Attributes == nil {
		c.Attributes = make(map[string]string)
	}
	c.Attributes[key] = value
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// GetAttribute gets an attribute value by key
func (c *Customer) GetAttribute(key string) (string, bool) {
	if c.Attributes == nil {
		return "", false
	}
	v, ok := c.Attributes[key]
	return v, ok
}

// Activate activates the customer
func (c *Customer) Activate() error {
	if c.Status == CustomerStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Customer is already active")
	}

	c.Status = CustomerStatusActive
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// Deactivate deactivates the customer
func (c *Customer) Deactivate() error {
	if c.Status == CustomerStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Customer is already inactive")
	}

	c.Status = CustomerStatusInactive
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// Block blocks the customer from purchases and loyalty accrual
func (c *Customer) Block() error {
	if c.Status == CustomerStatusBlocked {
		return shared.NewDomainError("ALREADY_BLOCKED", "Customer is already blocked")
	}

	c.Status = CustomerStatusBlocked
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// AdjustPoints applies a manual point adjustment. The balance never goes
// below zero.
func (c *Customer) AdjustPoints(delta int64, reason string) error {
	if delta == 0 {
		return shared.NewDomainError("INVALID_ADJUSTMENT", "Adjustment cannot be zero")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("ADJUSTMENT_REASON_REQUIRED", "An adjustment reason is required")
	}
	if c.LoyaltyPoints+delta < 0 {
		return shared.NewDomainError("INSUFFICIENT_POINTS", "Customer does not have enough points")
	}

	c.LoyaltyPoints += delta
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerPointsAdjustedEvent(c, delta, reason))

	return nil
}

// RecordPurchase applies a completed sale to the customer's stats.
func (c *Customer) RecordPurchase(total decimal.Decimal, earnedPoints int64, occurredAt time.Time) {
	c.LoyaltyPoints += earnedPoints
	c.TotalSpent = c.TotalSpent.Add(total)
	c.VisitCount++
	if c.LastPurchaseAt == nil || occurredAt.After(*c.LastPurchaseAt) {
		t := occurredAt
		c.LastPurchaseAt = &t
	}
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// ReversePurchase undoes a voided sale. Points and counters floor at zero.
func (c *Customer) ReversePurchase(total decimal.Decimal, earnedPoints int64) {
	c.LoyaltyPoints -= earnedPoints
	if c.LoyaltyPoints < 0 {
		c.LoyaltyPoints = 0
	}
	c.TotalSpent = c.TotalSpent.Sub(total)
	if c.TotalSpent.IsNegative() {
		c.TotalSpent = decimal.Zero
	}
	if c.VisitCount > 0 {
		c.VisitCount--
	}
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// AssignTier moves the customer to a loyalty tier. A nil tier clears the
// assignment.
func (c *Customer) AssignTier(tierID *uuid.UUID) {
	old := c.LoyaltyTierID
	if equalTierID(old, tierID) {
		return
	}

	c.LoyaltyTierID = tierID
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerTierChangedEvent(c, old, tierID))
}

// IsActive returns true if customer is active
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}

// IsBlocked returns true if customer is blocked
func (c *Customer) IsBlocked() bool {
	return c.Status == CustomerStatusBlocked
}

func equalTierID(a, b *uuid.UUID) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// Validation functions

func validateCustomerCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return shared.NewDomainError("INVALID_CUSTOMER_CODE", "Customer code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CUSTOMER_CODE", "Customer code cannot exceed 50 characters")
	}

	codeRegex := regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	if !codeRegex.MatchString(code) {
		return shared.NewDomainError("INVALID_CUSTOMER_CODE", "Customer code can only contain letters, numbers, underscores, and hyphens")
	}

	return nil
}

func validateCustomerName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot exceed 200 characters")
	}
	return nil
}

func validateCustomerEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}

	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}

	return nil
}
