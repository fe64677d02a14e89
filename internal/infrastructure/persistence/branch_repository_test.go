package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/retailsuite/backend/internal/domain/org"
	"github.com/retailsuite/backend/internal/domain/shared"
	"github.com/retailsuite/backend/internal/infrastructure/persistence/models"
)

func setupBranchTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.BranchModel{})
	require.NoError(t, err)

	return db
}

func newTestBranch(t *testing.T, tenantID uuid.UUID, code, name string) *org.Branch {
	branch, err := org.NewBranch(tenantID, code, name)
	require.NoError(t, err)
	return branch
}

func TestGormBranchRepository_SaveAndFind(t *testing.T) {
	db := setupBranchTestDB(t)
	repo := NewGormBranchRepository(db)
	ctx := context.Background()

	t.Run("creates and loads a branch", func(t *testing.T) {
		tenantID := uuid.New()
		branch := newTestBranch(t, tenantID, "HQ", "Headquarters")

		require.NoError(t, repo.Save(ctx, branch))

		loaded, err := repo.FindByID(ctx, branch.GetID())
		require.NoError(t, err)
		assert.Equal(t, "HQ", loaded.Code)
		assert.Equal(t, "Headquarters", loaded.Name)
		assert.Equal(t, org.BranchStatusActive, loaded.Status)
		assert.Equal(t, tenantID, loaded.TenantID)
	})

	t.Run("persists updates through the version guard", func(t *testing.T) {
		tenantID := uuid.New()
		branch := newTestBranch(t, tenantID, "STORE1", "First Store")
		require.NoError(t, repo.Save(ctx, branch))

		loaded, err := repo.FindByID(ctx, branch.GetID())
		require.NoError(t, err)
		require.NoError(t, loaded.Update("Renamed Store", "1 Main St", "555-0100", "Sam"))
		require.NoError(t, repo.Save(ctx, loaded))

		reloaded, err := repo.FindByID(ctx, branch.GetID())
		require.NoError(t, err)
		assert.Equal(t, "Renamed Store", reloaded.Name)
		assert.Equal(t, "1 Main St", reloaded.Address)
		assert.Equal(t, 2, reloaded.GetVersion())
	})

	t.Run("rejects a stale update", func(t *testing.T) {
		tenantID := uuid.New()
		branch := newTestBranch(t, tenantID, "STORE2", "Second Store")
		require.NoError(t, repo.Save(ctx, branch))

		first, err := repo.FindByID(ctx, branch.GetID())
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, branch.GetID())
		require.NoError(t, err)

		require.NoError(t, first.Update("First Writer", "", "", ""))
		require.NoError(t, repo.Save(ctx, first))

		require.NoError(t, second.Update("Second Writer", "", "", ""))
		err = repo.Save(ctx, second)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "OPTIMISTIC_LOCK_ERROR", domainErr.Code)
	})

	t.Run("scopes lookups to the tenant", func(t *testing.T) {
		tenantID := uuid.New()
		branch := newTestBranch(t, tenantID, "STORE3", "Third Store")
		require.NoError(t, repo.Save(ctx, branch))

		found, err := repo.FindByIDForTenant(ctx, branch.GetID(), tenantID)
		require.NoError(t, err)
		assert.Equal(t, branch.GetID(), found.GetID())

		_, err = repo.FindByIDForTenant(ctx, branch.GetID(), uuid.New())
		assert.Equal(t, shared.ErrNotFound, err)
	})

	t.Run("finds by code regardless of case", func(t *testing.T) {
		tenantID := uuid.New()
		branch := newTestBranch(t, tenantID, "west-2", "West Side")
		require.NoError(t, repo.Save(ctx, branch))

		found, err := repo.FindByCode(ctx, tenantID, "west-2")
		require.NoError(t, err)
		assert.Equal(t, "WEST-2", found.Code)
	})
}

func TestGormBranchRepository_ExistsByCode(t *testing.T) {
	db := setupBranchTestDB(t)
	repo := NewGormBranchRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	require.NoError(t, repo.Save(ctx, newTestBranch(t, tenantID, "HQ", "Headquarters")))

	exists, err := repo.ExistsByCode(ctx, tenantID, "hq")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByCode(ctx, tenantID, "OTHER")
	require.NoError(t, err)
	assert.False(t, exists)

	// Same code under a different tenant does not collide
	exists, err = repo.ExistsByCode(ctx, uuid.New(), "HQ")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGormBranchRepository_SetMain(t *testing.T) {
	db := setupBranchTestDB(t)
	repo := NewGormBranchRepository(db)
	ctx := context.Background()

	t.Run("promotes a branch and demotes the previous main", func(t *testing.T) {
		tenantID := uuid.New()

		main := newTestBranch(t, tenantID, "HQ", "Headquarters")
		require.NoError(t, main.MarkMain())
		require.NoError(t, repo.Save(ctx, main))

		other := newTestBranch(t, tenantID, "STORE1", "First Store")
		require.NoError(t, repo.Save(ctx, other))

		current, err := repo.FindMainBranch(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, main.GetID(), current.GetID())

		promoted, err := repo.FindByID(ctx, other.GetID())
		require.NoError(t, err)
		require.NoError(t, promoted.MarkMain())
		require.NoError(t, repo.SetMain(ctx, promoted))

		current, err = repo.FindMainBranch(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, other.GetID(), current.GetID())

		demoted, err := repo.FindByID(ctx, main.GetID())
		require.NoError(t, err)
		assert.False(t, demoted.IsMain)
	})

	t.Run("leaves other tenants' main branches alone", func(t *testing.T) {
		tenantA := uuid.New()
		tenantB := uuid.New()

		mainA := newTestBranch(t, tenantA, "HQ", "A Headquarters")
		require.NoError(t, mainA.MarkMain())
		require.NoError(t, repo.Save(ctx, mainA))

		branchB := newTestBranch(t, tenantB, "HQ", "B Headquarters")
		require.NoError(t, repo.Save(ctx, branchB))

		promoted, err := repo.FindByID(ctx, branchB.GetID())
		require.NoError(t, err)
		require.NoError(t, promoted.MarkMain())
		require.NoError(t, repo.SetMain(ctx, promoted))

		stillMain, err := repo.FindMainBranch(ctx, tenantA)
		require.NoError(t, err)
		assert.Equal(t, mainA.GetID(), stillMain.GetID())
	})

	t.Run("returns ErrNotFound when no main branch exists", func(t *testing.T) {
		_, err := repo.FindMainBranch(ctx, uuid.New())
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestGormBranchRepository_FindAllForTenant(t *testing.T) {
	db := setupBranchTestDB(t)
	repo := NewGormBranchRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	hq := newTestBranch(t, tenantID, "HQ", "Headquarters")
	store := newTestBranch(t, tenantID, "STORE1", "First Store")
	closed := newTestBranch(t, tenantID, "STORE2", "Second Store")
	require.NoError(t, closed.Deactivate())
	require.NoError(t, repo.Save(ctx, hq))
	require.NoError(t, repo.Save(ctx, store))
	require.NoError(t, repo.Save(ctx, closed))

	// Another tenant's branch must not leak in
	require.NoError(t, repo.Save(ctx, newTestBranch(t, uuid.New(), "HQ", "Elsewhere")))

	t.Run("lists branches of the tenant only", func(t *testing.T) {
		branches, err := repo.FindAllForTenant(ctx, tenantID, shared.Filter{Page: 1, PageSize: 20})
		require.NoError(t, err)
		assert.Len(t, branches, 3)
	})

	t.Run("filters by status", func(t *testing.T) {
		filter := shared.Filter{
			Page:     1,
			PageSize: 20,
			Filters:  map[string]interface{}{"status": "inactive"},
		}

		branches, err := repo.FindAllForTenant(ctx, tenantID, filter)
		require.NoError(t, err)
		require.Len(t, branches, 1)
		assert.Equal(t, "STORE2", branches[0].Code)
	})

	t.Run("sorts by the whitelisted field", func(t *testing.T) {
		filter := shared.Filter{
			Page:     1,
			PageSize: 20,
			OrderBy:  "code",
			OrderDir: "asc",
		}

		branches, err := repo.FindAllForTenant(ctx, tenantID, filter)
		require.NoError(t, err)
		require.Len(t, branches, 3)
		assert.Equal(t, "HQ", branches[0].Code)
		assert.Equal(t, "STORE2", branches[2].Code)
	})

	t.Run("paginates", func(t *testing.T) {
		filter := shared.Filter{
			Page:     2,
			PageSize: 2,
			OrderBy:  "code",
			OrderDir: "asc",
		}

		branches, err := repo.FindAllForTenant(ctx, tenantID, filter)
		require.NoError(t, err)
		require.Len(t, branches, 1)
		assert.Equal(t, "STORE2", branches[0].Code)
	})

	t.Run("counts branches per tenant", func(t *testing.T) {
		count, err := repo.CountByTenant(ctx, tenantID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})
}

func TestGormBranchRepository_Delete(t *testing.T) {
	db := setupBranchTestDB(t)
	repo := NewGormBranchRepository(db)
	ctx := context.Background()

	t.Run("deletes an existing branch", func(t *testing.T) {
		branch := newTestBranch(t, uuid.New(), "STORE1", "First Store")
		require.NoError(t, repo.Save(ctx, branch))

		require.NoError(t, repo.Delete(ctx, branch.GetID()))

		_, err := repo.FindByID(ctx, branch.GetID())
		assert.Equal(t, shared.ErrNotFound, err)
	})

	t.Run("returns ErrNotFound for a missing branch", func(t *testing.T) {
		err := repo.Delete(ctx, uuid.New())
		assert.Equal(t, shared.ErrNotFound, err)
	})
}
