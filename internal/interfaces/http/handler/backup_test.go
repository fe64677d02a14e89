package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	platformapp "github.com/retailsuite/backend/internal/application/platform"
	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/infrastructure/persistence"
	"github.com/retailsuite/backend/internal/infrastructure/persistence/models"
	"github.com/retailsuite/backend/internal/infrastructure/scheduler"
	"github.com/retailsuite/backend/internal/infrastructure/storage"
	"github.com/retailsuite/backend/internal/interfaces/http/dto"
)

// recordingJobQueue captures submitted jobs instead of running them.
type recordingJobQueue struct {
	jobs []*scheduler.Job
}

func (q *recordingJobQueue) SubmitJob(job *scheduler.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingJobQueue) MaxRetries() int { return 3 }

type backupHandlerFixture struct {
	router *gin.Engine
	queue  *recordingJobQueue
	db     *gorm.DB
}

// newBackupHandlerFixture wires a BackupHandler against a real service and
// in-memory persistence, with the owner-plane routes registered the way the
// server does it.
func newBackupHandlerFixture(t *testing.T) *backupHandlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.TenantModel{}, &models.BackupModel{}))

	queue := &recordingJobQueue{}
	service := platformapp.NewBackupService(
		persistence.NewGormBackupRepository(db),
		persistence.NewGormTenantRepository(db),
		persistence.NewGormBranchRepository(db),
		persistence.NewGormUserRepository(db),
		persistence.NewGormCustomerRepository(db),
		persistence.NewGormLoyaltyTierRepository(db),
		persistence.NewGormCustomerSegmentRepository(db),
		persistence.NewGormCustomerScoreRepository(db),
		persistence.NewGormSaleRepository(db),
		storage.NewMemoryObjectStorage(),
		queue,
		nil,
		platformapp.BackupServiceConfig{},
		zap.NewNop(),
	)

	h := NewBackupHandler(service)
	router := gin.New()
	router.POST("/owner/tenants/:id/backups", h.TriggerForTenant)
	router.GET("/owner/tenants/:id/backups", h.ListForTenant)

	return &backupHandlerFixture{router: router, queue: queue, db: db}
}

func (f *backupHandlerFixture) createTenant(t *testing.T, code, name string) *platform.Tenant {
	t.Helper()
	tenant, err := platform.NewTenant(code, name)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormTenantRepository(f.db).Save(context.Background(), tenant))
	return tenant
}

func TestBackupHandler_TriggerForTenant(t *testing.T) {
	t.Run("queues a backup for the tenant named in the path", func(t *testing.T) {
		f := newBackupHandlerFixture(t)
		tenant := f.createTenant(t, "acme", "Acme Retail")

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/owner/tenants/"+tenant.GetID().String()+"/backups", nil)
		f.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, tenant.GetID().String(), data["tenant_id"])
		assert.Equal(t, string(platform.BackupStatusPending), data["status"])
		assert.Equal(t, string(platform.BackupTriggerManual), data["trigger"])

		require.Len(t, f.queue.jobs, 1)
		assert.Equal(t, scheduler.JobTypeTenantBackup, f.queue.jobs[0].Type)
		require.NotNil(t, f.queue.jobs[0].TenantID)
		assert.Equal(t, tenant.GetID(), *f.queue.jobs[0].TenantID)
	})

	t.Run("rejects a malformed tenant id", func(t *testing.T) {
		f := newBackupHandlerFixture(t)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/owner/tenants/not-a-uuid/backups", nil)
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, f.queue.jobs)
	})

	t.Run("returns not found for an unknown tenant", func(t *testing.T) {
		f := newBackupHandlerFixture(t)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/owner/tenants/"+uuid.New().String()+"/backups", nil)
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Empty(t, f.queue.jobs)
	})

	t.Run("rejects a second backup while one is pending", func(t *testing.T) {
		f := newBackupHandlerFixture(t)
		tenant := f.createTenant(t, "north", "North Stores")
		path := "/owner/tenants/" + tenant.GetID().String() + "/backups"

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, path, nil)
		f.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusAccepted, w.Code)

		w = httptest.NewRecorder()
		req, _ = http.NewRequest(http.MethodPost, path, nil)
		f.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestBackupHandler_ListForTenant(t *testing.T) {
	t.Run("lists only the path tenant's backups", func(t *testing.T) {
		f := newBackupHandlerFixture(t)
		acme := f.createTenant(t, "acme", "Acme Retail")
		north := f.createTenant(t, "north", "North Stores")

		backupRepo := persistence.NewGormBackupRepository(f.db)
		ctx := context.Background()
		for _, tenantID := range []uuid.UUID{acme.GetID(), north.GetID()} {
			backup, err := platform.NewBackup(tenantID, platform.BackupTriggerManual, nil)
			require.NoError(t, err)
			require.NoError(t, backupRepo.Save(ctx, backup))
		}

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/owner/tenants/"+acme.GetID().String()+"/backups", nil)
		f.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(1), resp.Meta.Total)

		items := resp.Data.([]interface{})
		require.Len(t, items, 1)
		assert.Equal(t, acme.GetID().String(), items[0].(map[string]interface{})["tenant_id"])
	})

	t.Run("rejects a malformed tenant id", func(t *testing.T) {
		f := newBackupHandlerFixture(t)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/owner/tenants/not-a-uuid/backups", nil)
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
