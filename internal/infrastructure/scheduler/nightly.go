package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TenantProvider lists the tenants eligible for nightly runs
type TenantProvider interface {
	GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// TenantRunLauncher starts a scheduled per-tenant run. The scoring and
// backup services satisfy it; going through the service lets it set up
// whatever state the queued job expects (a backup run needs its pending
// record created at trigger time).
type TenantRunLauncher interface {
	TriggerScheduled(ctx context.Context, tenantID uuid.UUID) error
}

// GormTenantProvider implements TenantProvider with a direct table query
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns the IDs of all operational tenants. Trial
// tenants have full access and are included.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("tenants").
		Select("id").
		Where("status IN ?", []string{"trial", "active"}).
		Find(&ids).Error

	return ids, err
}

// DailyTime is a fixed time of day in the server's local timezone
type DailyTime struct {
	Hour   int
	Minute int
}

func (d DailyTime) String() string {
	return fmt.Sprintf("%02d:%02d", d.Hour, d.Minute)
}

// NightlyConfig holds the firing times for the nightly maintenance runs
type NightlyConfig struct {
	// ScoringAt is when the per-tenant customer scoring run starts
	ScoringAt DailyTime
	// BackupAt is when the per-tenant backup run starts
	BackupAt DailyTime
	// CleanupAt is when the expired-backup sweep starts
	CleanupAt DailyTime

	// CheckInterval is how often to check whether a run is due
	CheckInterval time.Duration
}

// DefaultNightlyConfig returns default nightly run times
func DefaultNightlyConfig() NightlyConfig {
	return NightlyConfig{
		ScoringAt:     DailyTime{Hour: 2},
		BackupAt:      DailyTime{Hour: 3},
		CleanupAt:     DailyTime{Hour: 4},
		CheckInterval: time.Minute,
	}
}

// NightlyTrigger fires the scheduled maintenance runs: customer scoring and
// backups fan out one job per active tenant, the expired-backup sweep is a
// single platform-wide job. Each run fires at most once per calendar day.
type NightlyTrigger struct {
	config    NightlyConfig
	scheduler *Scheduler
	tenants   TenantProvider
	scoring   TenantRunLauncher
	backups   TenantRunLauncher
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   map[JobType]string // date of the last fire per job type
}

// NewNightlyTrigger creates a new nightly trigger
func NewNightlyTrigger(
	config NightlyConfig,
	scheduler *Scheduler,
	tenants TenantProvider,
	scoring TenantRunLauncher,
	backups TenantRunLauncher,
	logger *zap.Logger,
) *NightlyTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &NightlyTrigger{
		config:    config,
		scheduler: scheduler,
		tenants:   tenants,
		scoring:   scoring,
		backups:   backups,
		logger:    logger,
		lastRun:   make(map[JobType]string),
	}
}

// Start starts the nightly trigger loop
func (n *NightlyTrigger) Start(ctx context.Context) error {
	n.mu.Lock()
	if n.isRunning {
		n.mu.Unlock()
		return nil
	}
	n.isRunning = true
	n.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel

	n.wg.Add(1)
	go n.runLoop(ctx)

	n.logger.Info("Nightly trigger started",
		zap.String("scoring_at", n.config.ScoringAt.String()),
		zap.String("backup_at", n.config.BackupAt.String()),
		zap.String("cleanup_at", n.config.CleanupAt.String()),
		zap.Duration("check_interval", n.config.CheckInterval),
	)

	return nil
}

// Stop stops the nightly trigger
func (n *NightlyTrigger) Stop(ctx context.Context) error {
	n.mu.Lock()
	if !n.isRunning {
		n.mu.Unlock()
		return nil
	}
	n.isRunning = false
	n.mu.Unlock()

	if n.cancel != nil {
		n.cancel()
	}

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		n.logger.Info("Nightly trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *NightlyTrigger) runLoop(ctx context.Context) {
	defer n.wg.Done()

	ticker := time.NewTicker(n.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.checkAndTrigger(ctx)
		}
	}
}

func (n *NightlyTrigger) checkAndTrigger(ctx context.Context) {
	now := time.Now()
	n.maybeFire(ctx, now, JobTypeCustomerScoring, n.config.ScoringAt, n.fireScoring)
	n.maybeFire(ctx, now, JobTypeTenantBackup, n.config.BackupAt, n.fireBackups)
	n.maybeFire(ctx, now, JobTypeBackupCleanup, n.config.CleanupAt, n.fireCleanup)
}

func (n *NightlyTrigger) maybeFire(ctx context.Context, now time.Time, jobType JobType, at DailyTime, fire func(context.Context)) {
	if now.Hour() != at.Hour || now.Minute() != at.Minute {
		return
	}

	// Skip if this run already fired today
	currentDate := now.Format("2006-01-02")
	n.mu.Lock()
	if n.lastRun[jobType] == currentDate {
		n.mu.Unlock()
		return
	}
	n.lastRun[jobType] = currentDate
	n.mu.Unlock()

	n.logger.Info("Nightly run due", zap.String("job_type", string(jobType)))
	fire(ctx)
}

func (n *NightlyTrigger) fireScoring(ctx context.Context) {
	n.fanOut(ctx, JobTypeCustomerScoring, n.scoring)
}

func (n *NightlyTrigger) fireBackups(ctx context.Context) {
	n.fanOut(ctx, JobTypeTenantBackup, n.backups)
}

// fanOut launches one run per active tenant. A failed launch (for example
// a backup already underway for the tenant) skips that tenant and moves on.
func (n *NightlyTrigger) fanOut(ctx context.Context, jobType JobType, launcher TenantRunLauncher) {
	tenantIDs, err := n.tenants.GetActiveTenantIDs(ctx)
	if err != nil {
		n.logger.Error("Failed to list tenants for nightly run",
			zap.String("job_type", string(jobType)),
			zap.Error(err),
		)
		return
	}

	launched := 0
	for _, tenantID := range tenantIDs {
		if err := launcher.TriggerScheduled(ctx, tenantID); err != nil {
			n.logger.Warn("Skipping tenant in nightly run",
				zap.String("job_type", string(jobType)),
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		launched++
	}

	n.logger.Info("Nightly runs launched",
		zap.String("job_type", string(jobType)),
		zap.Int("tenant_count", len(tenantIDs)),
		zap.Int("launched", launched),
	)
}

func (n *NightlyTrigger) fireCleanup(ctx context.Context) {
	job := NewJob(JobTypeBackupCleanup, nil, n.scheduler.MaxRetries())
	if err := n.scheduler.SubmitJob(job); err != nil {
		n.logger.Error("Failed to submit backup cleanup job", zap.Error(err))
	}
}
