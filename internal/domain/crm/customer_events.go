package crm

import (
	"github.com/google/uuid"

	"github.com/retailsuite/backend/internal/domain/shared"
)

// Aggregate type constant for Customer
const AggregateTypeCustomer = "Customer"

// Customer domain event types
const (
	EventTypeCustomerCreated        = "CustomerCreated"
	EventTypeCustomerPointsAdjusted = "CustomerPointsAdjusted"
	EventTypeCustomerTierChanged    = "CustomerTierChanged"
)

// CustomerCreatedEvent is published when a customer is created
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewCustomerCreatedEvent creates a new CustomerCreatedEvent
func NewCustomerCreatedEvent(customer *Customer) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerCreated, AggregateTypeCustomer, customer.ID, customer.TenantID),
		Code:            customer.Code,
		Name:            customer.Name,
	}
}

// CustomerPointsAdjustedEvent is published on a manual point adjustment
type CustomerPointsAdjustedEvent struct {
	shared.BaseDomainEvent
	Code    string `json:"code"`
	Delta   int64  `json:"delta"`
	Balance int64  `json:"balance"`
	Reason  string `json:"reason"`
}

// NewCustomerPointsAdjustedEvent creates a new CustomerPointsAdjustedEvent
func NewCustomerPointsAdjustedEvent(customer *Customer, delta int64, reason string) *CustomerPointsAdjustedEvent {
	return &CustomerPointsAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerPointsAdjusted, AggregateTypeCustomer, customer.ID, customer.TenantID),
		Code:            customer.Code,
		Delta:           delta,
		Balance:         customer.LoyaltyPoints,
		Reason:          reason,
	}
}

// CustomerTierChangedEvent is published when a customer moves between
// loyalty tiers
type CustomerTierChangedEvent struct {
	shared.BaseDomainEvent
	Code      string     `json:"code"`
	OldTierID *uuid.UUID `json:"old_tier_id,omitempty"`
	NewTierID *uuid.UUID `json:"new_tier_id,omitempty"`
}

// NewCustomerTierChangedEvent creates a new CustomerTierChangedEvent
func NewCustomerTierChangedEvent(customer *Customer, oldTierID, newTierID *uuid.UUID) *CustomerTierChangedEvent {
	return &CustomerTierChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerTierChanged, AggregateTypeCustomer, customer.ID, customer.TenantID),
		Code:            customer.Code,
		OldTierID:       oldTierID,
		NewTierID:       newTierID,
	}
}
