package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates user successfully", func(t *testing.T) {
		user, err := NewUser(tenantID, "jdoe", "jdoe@example.com", "Secret123", RoleCashier)

		require.NoError(t, err)
		assert.Equal(t, "jdoe", user.Username)
		assert.Equal(t, "jdoe@example.com", user.Email)
		assert.Equal(t, RoleCashier, user.Role)
		assert.Equal(t, UserStatusActive, user.Status)
		assert.Equal(t, tenantID, user.TenantID)
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotEqual(t, "Secret123", user.PasswordHash)
		assert.True(t, user.VerifyPassword("Secret123"))
		assert.Len(t, user.GetDomainEvents(), 1)
	})

	t.Run("lowercases username and email", func(t *testing.T) {
		user, err := NewUser(tenantID, "JDoe", "JDoe@Example.COM", "Secret123", RoleAdmin)

		require.NoError(t, err)
		assert.Equal(t, "jdoe", user.Username)
		assert.Equal(t, "jdoe@example.com", user.Email)
	})

	t.Run("fails with short username", func(t *testing.T) {
		user, err := NewUser(tenantID, "jd", "jdoe@example.com", "Secret123", RoleCashier)

		assert.Error(t, err)
		assert.Nil(t, user)
		assert.Contains(t, err.Error(), "at least 3 characters")
	})

	t.Run("fails with invalid email", func(t *testing.T) {
		user, err := NewUser(tenantID, "jdoe", "not-an-email", "Secret123", RoleCashier)

		assert.Error(t, err)
		assert.Nil(t, user)
	})

	t.Run("fails with short password", func(t *testing.T) {
		user, err := NewUser(tenantID, "jdoe", "jdoe@example.com", "Ab1", RoleCashier)

		assert.Error(t, err)
		assert.Nil(t, user)
		assert.Contains(t, err.Error(), "at least 8 characters")
	})

	t.Run("fails with password missing a number", func(t *testing.T) {
		user, err := NewUser(tenantID, "jdoe", "jdoe@example.com", "Passwords", RoleCashier)

		assert.Error(t, err)
		assert.Nil(t, user)
	})

	t.Run("fails with unknown role", func(t *testing.T) {
		user, err := NewUser(tenantID, "jdoe", "jdoe@example.com", "Secret123", Role("supervisor"))

		assert.Error(t, err)
		assert.Nil(t, user)
	})
}

func TestRole_AtLeast(t *testing.T) {
	assert.True(t, RoleOwner.AtLeast(RoleAdmin))
	assert.True(t, RoleAdmin.AtLeast(RoleAdmin))
	assert.True(t, RoleManager.AtLeast(RoleCashier))
	assert.False(t, RoleCashier.AtLeast(RoleManager))
	assert.False(t, RoleManager.AtLeast(RoleAdmin))
	assert.False(t, Role("unknown").AtLeast(RoleCashier))
}

func TestUser_ChangeRole(t *testing.T) {
	t.Run("changes role and records event", func(t *testing.T) {
		user, _ := NewUser(uuid.New(), "jdoe", "jdoe@example.com", "Secret123", RoleCashier)
		user.ClearDomainEvents()
		initialVersion := user.Version

		err := user.ChangeRole(RoleManager)

		require.NoError(t, err)
		assert.Equal(t, RoleManager, user.Role)
		assert.Equal(t, initialVersion+1, user.Version)
		assert.Len(t, user.GetDomainEvents(), 1)
	})

	t.Run("rejects the current role", func(t *testing.T) {
		user, _ := NewUser(uuid.New(), "jdoe", "jdoe@example.com", "Secret123", RoleCashier)

		err := user.ChangeRole(RoleCashier)

		assert.Error(t, err)
	})
}

func TestUser_Passwords(t *testing.T) {
	t.Run("change password verifies the old one", func(t *testing.T) {
		user, _ := NewUser(uuid.New(), "jdoe", "jdoe@example.com", "Secret123", RoleCashier)

		err := user.ChangePassword("wrong", "NewSecret456")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "incorrect")

		require.NoError(t, user.ChangePassword("Secret123", "NewSecret456"))
		assert.True(t, user.VerifyPassword("NewSecret456"))
		assert.False(t, user.VerifyPassword("Secret123"))
	})

	t.Run("admin reset skips the old password", func(t *testing.T) {
		user, _ := NewUser(uuid.New(), "jdoe", "jdoe@example.com", "Secret123", RoleCashier)

		require.NoError(t, user.SetPassword("ResetPass789"))

		assert.True(t, user.VerifyPassword("ResetPass789"))
	})
}

func TestUser_StatusTransitions(t *testing.T) {
	t.Run("deactivate and reactivate", func(t *testing.T) {
		user, _ := NewUser(uuid.New(), "jdoe", "jdoe@example.com", "Secret123", RoleCashier)

		require.NoError(t, user.Deactivate())
		assert.True(t, user.IsInactive())
		assert.False(t, user.CanLogin())
		assert.Error(t, user.Deactivate())

		require.NoError(t, user.Activate())
		assert.True(t, user.IsActive())
		assert.True(t, user.CanLogin())
	})

	t.Run("lock expires after the duration", func(t *testing.T) {
		user, _ := NewUser(uuid.New(), "jdoe", "jdoe@example.com", "Secret123", RoleCashier)

		require.NoError(t, user.Lock(time.Hour))
		assert.True(t, user.IsLocked())
		assert.False(t, user.CanLogin())

		past := time.Now().Add(-time.Minute)
		user.LockedUntil = &past
		assert.False(t, user.IsLocked())
	})

	t.Run("unlock restores active status", func(t *testing.T) {
		user, _ := NewUser(uuid.New(), "jdoe", "jdoe@example.com", "Secret123", RoleCashier)
		require.NoError(t, user.Lock(time.Hour))

		require.NoError(t, user.Unlock())

		assert.True(t, user.IsActive())
		assert.Equal(t, 0, user.FailedAttempts)
	})

	t.Run("cannot lock an inactive user", func(t *testing.T) {
		user, _ := NewUser(uuid.New(), "jdoe", "jdoe@example.com", "Secret123", RoleCashier)
		require.NoError(t, user.Deactivate())

		assert.Error(t, user.Lock(time.Hour))
	})
}

func TestUser_LoginTracking(t *testing.T) {
	t.Run("success resets failure count", func(t *testing.T) {
		user, _ := NewUser(uuid.New(), "jdoe", "jdoe@example.com", "Secret123", RoleCashier)
		user.FailedAttempts = 3

		user.RecordLoginSuccess("10.0.0.9")

		assert.NotNil(t, user.LastLoginAt)
		assert.Equal(t, "10.0.0.9", user.LastLoginIP)
		assert.Equal(t, 0, user.FailedAttempts)
	})

	t.Run("repeated failures lock the account", func(t *testing.T) {
		user, _ := NewUser(uuid.New(), "jdoe", "jdoe@example.com", "Secret123", RoleCashier)

		assert.False(t, user.RecordLoginFailure(3, time.Hour))
		assert.False(t, user.RecordLoginFailure(3, time.Hour))
		assert.True(t, user.RecordLoginFailure(3, time.Hour))

		assert.True(t, user.IsLocked())
		assert.NotNil(t, user.LockedUntil)
	})
}

func TestUser_IsAdmin(t *testing.T) {
	admin, _ := NewUser(uuid.New(), "admin", "admin@example.com", "Secret123", RoleAdmin)
	owner, _ := NewUser(uuid.New(), "owner", "owner@example.com", "Secret123", RoleOwner)
	cashier, _ := NewUser(uuid.New(), "cash", "cash@example.com", "Secret123", RoleCashier)

	assert.True(t, admin.IsAdmin())
	assert.True(t, owner.IsAdmin())
	assert.False(t, cashier.IsAdmin())
}

func TestUserFilter_Pagination(t *testing.T) {
	t.Run("offset clamps with the page size", func(t *testing.T) {
		f := UserFilter{Page: 3, PageSize: 250}
		assert.Equal(t, 100, f.Limit())
		assert.Equal(t, 200, f.Offset())
	})

	t.Run("defaults", func(t *testing.T) {
		f := UserFilter{}
		assert.Equal(t, 0, f.Offset())
		assert.Equal(t, 20, f.Limit())
	})
}
