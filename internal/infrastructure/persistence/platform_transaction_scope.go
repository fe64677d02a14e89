package persistence

import (
	"context"

	appplatform "github.com/retailsuite/backend/internal/application/platform"
	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/identity"
	"github.com/retailsuite/backend/internal/domain/org"
	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormPlatformTransactionScope implements TransactionScope using GORM
// transactions. It provides atomic execution of the cross-aggregate platform
// flows (tenant provisioning, subscription changes).
type GormPlatformTransactionScope struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver
}

// NewGormPlatformTransactionScope creates a new GormPlatformTransactionScope.
// The outbox saver may be nil; when set it is attached to the repositories
// that publish domain events so the events land in the same transaction.
func NewGormPlatformTransactionScope(db *gorm.DB, outboxSaver shared.OutboxEventSaver) *GormPlatformTransactionScope {
	return &GormPlatformTransactionScope{db: db, outboxSaver: outboxSaver}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormPlatformTransactionScope) Execute(ctx context.Context, fn func(repos appplatform.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormPlatformRepositories{tx: tx, outboxSaver: s.outboxSaver}
		return fn(repos)
	})
}

// gormPlatformRepositories provides access to all repositories within a transaction.
type gormPlatformRepositories struct {
	tx          *gorm.DB
	outboxSaver shared.OutboxEventSaver
}

// TenantRepo returns the tenant repository scoped to the current transaction.
func (r *gormPlatformRepositories) TenantRepo() platform.TenantRepository {
	repo := NewGormTenantRepository(r.tx)
	if r.outboxSaver != nil {
		repo.SetOutboxEventSaver(r.outboxSaver)
	}
	return repo
}

// SubscriptionRepo returns the subscription repository scoped to the current transaction.
func (r *gormPlatformRepositories) SubscriptionRepo() platform.SubscriptionRepository {
	return NewGormSubscriptionRepository(r.tx)
}

// BranchRepo returns the branch repository scoped to the current transaction.
func (r *gormPlatformRepositories) BranchRepo() org.BranchRepository {
	return NewGormBranchRepository(r.tx)
}

// UserRepo returns the user repository scoped to the current transaction.
func (r *gormPlatformRepositories) UserRepo() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

// TierRepo returns the loyalty tier repository scoped to the current transaction.
func (r *gormPlatformRepositories) TierRepo() crm.LoyaltyTierRepository {
	return NewGormLoyaltyTierRepository(r.tx)
}

// Ensure GormPlatformTransactionScope implements TransactionScope
var _ appplatform.TransactionScope = (*GormPlatformTransactionScope)(nil)

// Ensure gormPlatformRepositories implements TransactionalRepositories
var _ appplatform.TransactionalRepositories = (*gormPlatformRepositories)(nil)
