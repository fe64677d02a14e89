package platform

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTenant(t *testing.T) {
	t.Run("creates tenant successfully", func(t *testing.T) {
		tenant, err := NewTenant("ACME001", "Acme Stores")

		require.NoError(t, err)
		assert.NotNil(t, tenant)
		assert.Equal(t, "ACME001", tenant.Code)
		assert.Equal(t, "Acme Stores", tenant.Name)
		assert.Equal(t, TenantStatusActive, tenant.Status)
		assert.Nil(t, tenant.PackageID)
		assert.Equal(t, 5, tenant.Config.MaxUsers)
		assert.Equal(t, 2, tenant.Config.MaxBranches)
		assert.Equal(t, 1000, tenant.Config.MaxCustomers)
		assert.Equal(t, "USD", tenant.Config.Currency)
		assert.Equal(t, 1.0, tenant.Config.LoyaltyEarnRate)
		assert.Len(t, tenant.GetDomainEvents(), 1)
	})

	t.Run("converts code to uppercase", func(t *testing.T) {
		tenant, err := NewTenant("acme002", "Acme Stores")

		require.NoError(t, err)
		assert.Equal(t, "ACME002", tenant.Code)
	})

	t.Run("fails with empty code", func(t *testing.T) {
		tenant, err := NewTenant("", "Acme Stores")

		assert.Error(t, err)
		assert.Nil(t, tenant)
		assert.Contains(t, err.Error(), "code cannot be empty")
	})

	t.Run("fails with invalid code characters", func(t *testing.T) {
		tenant, err := NewTenant("ACME@001", "Acme Stores")

		assert.Error(t, err)
		assert.Nil(t, tenant)
		assert.Contains(t, err.Error(), "can only contain")
	})

	t.Run("fails with empty name", func(t *testing.T) {
		tenant, err := NewTenant("ACME001", "")

		assert.Error(t, err)
		assert.Nil(t, tenant)
		assert.Contains(t, err.Error(), "name cannot be empty")
	})
}

func TestNewTrialTenant(t *testing.T) {
	t.Run("creates trial tenant successfully", func(t *testing.T) {
		tenant, err := NewTrialTenant("TRIAL001", "Trial Stores", 14)

		require.NoError(t, err)
		assert.Equal(t, TenantStatusTrial, tenant.Status)
		assert.NotNil(t, tenant.TrialEndsAt)
		assert.True(t, tenant.IsTrial())
		assert.False(t, tenant.IsTrialExpired())
	})

	t.Run("fails with zero trial days", func(t *testing.T) {
		tenant, err := NewTrialTenant("TRIAL001", "Trial Stores", 0)

		assert.Error(t, err)
		assert.Nil(t, tenant)
		assert.Contains(t, err.Error(), "Trial days must be positive")
	})

	t.Run("detects expired trial", func(t *testing.T) {
		tenant, err := NewTrialTenant("TRIAL002", "Trial Stores", 7)
		require.NoError(t, err)

		ended := time.Now().Add(-time.Hour)
		tenant.TrialEndsAt = &ended

		assert.True(t, tenant.IsTrialExpired())
	})
}

func TestTenant_AssignPackage(t *testing.T) {
	newPackage := func(t *testing.T) *Package {
		pkg, err := NewPackage("standard", "Standard",
			[]ModuleKey{ModulePOS, ModuleCRM, ModuleLoyalty},
			20, 5, 10000, decimal.NewFromInt(79))
		require.NoError(t, err)
		return pkg
	}

	t.Run("applies package limits", func(t *testing.T) {
		tenant, _ := NewTenant("ACME001", "Acme Stores")
		tenant.ClearDomainEvents()
		pkg := newPackage(t)

		err := tenant.AssignPackage(pkg)

		require.NoError(t, err)
		require.NotNil(t, tenant.PackageID)
		assert.Equal(t, pkg.ID, *tenant.PackageID)
		assert.Equal(t, 20, tenant.Config.MaxUsers)
		assert.Equal(t, 5, tenant.Config.MaxBranches)
		assert.Equal(t, 10000, tenant.Config.MaxCustomers)
		assert.Len(t, tenant.GetDomainEvents(), 1)
	})

	t.Run("ends trial on subscribe", func(t *testing.T) {
		tenant, _ := NewTrialTenant("TRIAL001", "Trial Stores", 14)
		pkg := newPackage(t)

		err := tenant.AssignPackage(pkg)

		require.NoError(t, err)
		assert.Equal(t, TenantStatusActive, tenant.Status)
		assert.Nil(t, tenant.TrialEndsAt)
	})

	t.Run("rejects inactive package", func(t *testing.T) {
		tenant, _ := NewTenant("ACME001", "Acme Stores")
		pkg := newPackage(t)
		pkg.Deactivate()

		err := tenant.AssignPackage(pkg)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "inactive package")
	})
}

func TestTenant_StatusTransitions(t *testing.T) {
	t.Run("suspend requires a reason", func(t *testing.T) {
		tenant, _ := NewTenant("ACME001", "Acme Stores")

		err := tenant.Suspend("  ")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "reason is required")
	})

	t.Run("suspend and reactivate", func(t *testing.T) {
		tenant, _ := NewTenant("ACME001", "Acme Stores")
		tenant.ClearDomainEvents()

		require.NoError(t, tenant.Suspend("invoice overdue"))
		assert.True(t, tenant.IsSuspended())
		assert.Equal(t, "invoice overdue", tenant.SuspendReason)

		require.NoError(t, tenant.Activate())
		assert.True(t, tenant.IsActive())
		assert.Empty(t, tenant.SuspendReason)
		assert.Len(t, tenant.GetDomainEvents(), 2)
	})

	t.Run("cannot suspend twice", func(t *testing.T) {
		tenant, _ := NewTenant("ACME001", "Acme Stores")
		require.NoError(t, tenant.Suspend("invoice overdue"))

		err := tenant.Suspend("still overdue")

		assert.Error(t, err)
	})

	t.Run("deactivate retires the tenant", func(t *testing.T) {
		tenant, _ := NewTenant("ACME001", "Acme Stores")

		require.NoError(t, tenant.Deactivate())

		assert.True(t, tenant.IsInactive())
		assert.Error(t, tenant.Deactivate())
	})
}

func TestTenant_UpdateConfig(t *testing.T) {
	t.Run("rejects negative limits", func(t *testing.T) {
		tenant, _ := NewTenant("ACME001", "Acme Stores")
		config := tenant.Config
		config.MaxUsers = -1

		err := tenant.UpdateConfig(config)

		assert.Error(t, err)
	})

	t.Run("rejects negative earn rate", func(t *testing.T) {
		tenant, _ := NewTenant("ACME001", "Acme Stores")
		config := tenant.Config
		config.LoyaltyEarnRate = -0.5

		err := tenant.UpdateConfig(config)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "earn rate")
	})

	t.Run("bumps version on success", func(t *testing.T) {
		tenant, _ := NewTenant("ACME001", "Acme Stores")
		initialVersion := tenant.Version
		config := tenant.Config
		config.MaxUsers = 42

		require.NoError(t, tenant.UpdateConfig(config))

		assert.Equal(t, 42, tenant.Config.MaxUsers)
		assert.Equal(t, initialVersion+1, tenant.Version)
	})
}

func TestTenant_CapacityChecks(t *testing.T) {
	tenant, _ := NewTenant("ACME001", "Acme Stores")
	tenant.Config.MaxUsers = 3
	tenant.Config.MaxBranches = 1
	tenant.Config.MaxCustomers = 2

	assert.True(t, tenant.CanAddUser(2))
	assert.False(t, tenant.CanAddUser(3))
	assert.True(t, tenant.CanAddBranch(0))
	assert.False(t, tenant.CanAddBranch(1))
	assert.False(t, tenant.CanAddCustomer(2))
}
