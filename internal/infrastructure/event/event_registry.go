package event

import (
	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/identity"
	"github.com/retailsuite/backend/internal/domain/org"
	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/domain/sales"
)

// RegisterDomainEvents registers every domain event type with the
// serializer. The outbox processor cannot deserialize an event type that is
// missing here, so new event types must be added to this list.
func RegisterDomainEvents(serializer *EventSerializer) {
	// Platform events
	serializer.Register("TenantCreated", &platform.TenantCreatedEvent{})
	serializer.Register("TenantUpdated", &platform.TenantUpdatedEvent{})
	serializer.Register("TenantStatusChanged", &platform.TenantStatusChangedEvent{})
	serializer.Register("TenantPackageChanged", &platform.TenantPackageChangedEvent{})
	serializer.Register("TenantDeleted", &platform.TenantDeletedEvent{})

	// Identity events
	serializer.Register("UserCreated", &identity.UserCreatedEvent{})
	serializer.Register("UserPasswordChanged", &identity.UserPasswordChangedEvent{})
	serializer.Register("UserRoleChanged", &identity.UserRoleChangedEvent{})
	serializer.Register("UserStatusChanged", &identity.UserStatusChangedEvent{})

	// Org events
	serializer.Register("BranchCreated", &org.BranchCreatedEvent{})
	serializer.Register("BranchUpdated", &org.BranchUpdatedEvent{})

	// CRM events
	serializer.Register("CustomerCreated", &crm.CustomerCreatedEvent{})
	serializer.Register("CustomerPointsAdjusted", &crm.CustomerPointsAdjustedEvent{})
	serializer.Register("CustomerTierChanged", &crm.CustomerTierChangedEvent{})

	// Sales events
	serializer.Register("SaleCompleted", &sales.SaleCompletedEvent{})
	serializer.Register("SaleVoided", &sales.SaleVoidedEvent{})
}
