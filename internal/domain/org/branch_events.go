package org

import (
	"github.com/retailsuite/backend/internal/domain/shared"
)

// Aggregate type constant for Branch
const AggregateTypeBranch = "Branch"

// Branch domain event types
const (
	EventTypeBranchCreated = "BranchCreated"
	EventTypeBranchUpdated = "BranchUpdated"
)

// BranchCreatedEvent is published when a branch is created
type BranchCreatedEvent struct {
	shared.BaseDomainEvent
	Code   string `json:"code"`
	Name   string `json:"name"`
	IsMain bool   `json:"is_main"`
}

// NewBranchCreatedEvent creates a new BranchCreatedEvent
func NewBranchCreatedEvent(branch *Branch) *BranchCreatedEvent {
	return &BranchCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBranchCreated, AggregateTypeBranch, branch.ID, branch.TenantID),
		Code:            branch.Code,
		Name:            branch.Name,
		IsMain:          branch.IsMain,
	}
}

// BranchUpdatedEvent is published when a branch's details change
type BranchUpdatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewBranchUpdatedEvent creates a new BranchUpdatedEvent
func NewBranchUpdatedEvent(branch *Branch) *BranchUpdatedEvent {
	return &BranchUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBranchUpdated, AggregateTypeBranch, branch.ID, branch.TenantID),
		Code:            branch.Code,
		Name:            branch.Name,
	}
}
