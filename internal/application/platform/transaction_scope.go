package platform

import (
	"context"

	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/identity"
	"github.com/retailsuite/backend/internal/domain/org"
	"github.com/retailsuite/backend/internal/domain/platform"
)

// TransactionScope provides transactional access to the repositories touched
// by owner-plane platform flows. When a function is executed within a
// transaction scope, all repository operations will be part of the same
// database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories taking part in
// cross-aggregate platform flows. All repositories returned share the same
// underlying database transaction.
//
// DDD Aggregate Boundary Notes:
//   - Provisioning writes four aggregates in one commit: the tenant, its
//     initial subscription, the main branch and the admin user, plus the
//     seeded loyalty tier ladder. Each aggregate keeps its own repository;
//     the scope only guarantees they commit together.
//   - Subscription changes write the subscription rows and the tenant (whose
//     limit config mirrors the new package) in one commit.
type TransactionalRepositories interface {
	// TenantRepo returns the tenant repository scoped to the current transaction
	TenantRepo() platform.TenantRepository
	// SubscriptionRepo returns the subscription repository scoped to the current transaction
	SubscriptionRepo() platform.SubscriptionRepository
	// BranchRepo returns the branch repository scoped to the current transaction
	BranchRepo() org.BranchRepository
	// UserRepo returns the user repository scoped to the current transaction
	UserRepo() identity.UserRepository
	// TierRepo returns the loyalty tier repository scoped to the current transaction
	TierRepo() crm.LoyaltyTierRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing or when transaction support is not
// required.
type NoOpTransactionScope struct {
	tenantRepo       platform.TenantRepository
	subscriptionRepo platform.SubscriptionRepository
	branchRepo       org.BranchRepository
	userRepo         identity.UserRepository
	tierRepo         crm.LoyaltyTierRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	tenantRepo platform.TenantRepository,
	subscriptionRepo platform.SubscriptionRepository,
	branchRepo org.BranchRepository,
	userRepo identity.UserRepository,
	tierRepo crm.LoyaltyTierRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		tenantRepo:       tenantRepo,
		subscriptionRepo: subscriptionRepo,
		branchRepo:       branchRepo,
		userRepo:         userRepo,
		tierRepo:         tierRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// TenantRepo returns the tenant repository.
func (s *NoOpTransactionScope) TenantRepo() platform.TenantRepository {
	return s.tenantRepo
}

// SubscriptionRepo returns the subscription repository.
func (s *NoOpTransactionScope) SubscriptionRepo() platform.SubscriptionRepository {
	return s.subscriptionRepo
}

// BranchRepo returns the branch repository.
func (s *NoOpTransactionScope) BranchRepo() org.BranchRepository {
	return s.branchRepo
}

// UserRepo returns the user repository.
func (s *NoOpTransactionScope) UserRepo() identity.UserRepository {
	return s.userRepo
}

// TierRepo returns the loyalty tier repository.
func (s *NoOpTransactionScope) TierRepo() crm.LoyaltyTierRepository {
	return s.tierRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
