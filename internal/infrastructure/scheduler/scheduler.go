package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the lifecycle state of a background job
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// JobType identifies the work a job carries
type JobType string

const (
	// JobTypeCustomerScoring recomputes RFM/CLV scores for one tenant
	JobTypeCustomerScoring JobType = "customer_scoring"
	// JobTypeTenantBackup runs the pending backup export for one tenant
	JobTypeTenantBackup JobType = "tenant_backup"
	// JobTypeBackupCleanup sweeps expired backups platform-wide
	JobTypeBackupCleanup JobType = "backup_cleanup"
)

// AllJobTypes returns every known job type
func AllJobTypes() []JobType {
	return []JobType{
		JobTypeCustomerScoring,
		JobTypeTenantBackup,
		JobTypeBackupCleanup,
	}
}

// Job is one unit of background work. TenantID is nil for platform-wide
// jobs (backup cleanup).
type Job struct {
	ID          uuid.UUID
	Type        JobType
	TenantID    *uuid.UUID
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

// NewJob creates a new pending job
func NewJob(jobType JobType, tenantID *uuid.UUID, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		TenantID:   tenantID,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as completed
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true while the job still has retries left
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry moves the job back to pending with exponential backoff
func (j *Job) ScheduleRetry(baseDelay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	// baseDelay * 2^(retryCount-1), capped at 30 minutes
	delay := baseDelay * time.Duration(1<<(j.RetryCount-1))
	if delay > 30*time.Minute {
		delay = 30 * time.Minute
	}
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// JobExecutor executes jobs of one type
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// Config holds worker pool configuration
type Config struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig returns default worker pool configuration
func DefaultConfig() Config {
	return Config{
		Workers:    4,
		QueueSize:  100,
		JobTimeout: 30 * time.Minute,
		MaxRetries: 3,
		RetryDelay: 5 * time.Minute,
	}
}

// Scheduler runs background jobs on a fixed worker pool. Executors are
// registered per job type before Start; submitting a job with no executor
// fails instead of occupying a worker.
type Scheduler struct {
	config    Config
	executors map[JobType]JobExecutor
	logger    *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config Config, logger *zap.Logger) *Scheduler {
	if config.Workers <= 0 {
		config.Workers = DefaultConfig().Workers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}
	return &Scheduler{
		config:    config,
		executors: make(map[JobType]JobExecutor),
		logger:    logger,
		jobs:      make(chan *Job, config.QueueSize),
	}
}

// RegisterExecutor binds an executor to a job type. Not safe to call after
// Start.
func (s *Scheduler) RegisterExecutor(jobType JobType, executor JobExecutor) {
	s.executors[jobType] = executor
}

// MaxRetries returns the configured retry budget for new jobs
func (s *Scheduler) MaxRetries() int {
	return s.config.MaxRetries
}

// Start starts the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Job scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Int("queue_size", s.config.QueueSize),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop gracefully stops the worker pool, draining queued jobs
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	close(s.jobs)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Job scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

// SubmitJob enqueues a job without blocking. A full queue returns
// ErrJobQueueFull so callers can surface backpressure instead of hanging.
func (s *Scheduler) SubmitJob(job *Job) error {
	if _, ok := s.executors[job.Type]; !ok {
		return ErrUnknownJobType
	}

	// The send must happen under the mutex: Stop closes the channel only
	// after flipping isRunning, so a send can never hit a closed channel.
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return ErrSchedulerNotRunning
	}

	select {
	case s.jobs <- job:
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// tryRequeue puts a job back on the queue, refusing once the scheduler is
// stopping. Returns false when the job could not be queued.
func (s *Scheduler) tryRequeue(job *Job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return false
	}

	select {
	case s.jobs <- job:
		return true
	default:
		return false
	}
}

// requeueAfter puts a job back on the queue once its retry delay has passed,
// so a waiting job does not bounce between workers. tryRequeue's isRunning
// check makes the timer a no-op after Stop.
func (s *Scheduler) requeueAfter(job *Job, delay time.Duration) {
	if delay <= 0 {
		delay = time.Millisecond
	}
	time.AfterFunc(delay, func() {
		if !s.tryRequeue(job) {
			s.logger.Warn("Failed to re-queue job for retry",
				zap.String("job_id", job.ID.String()),
			)
		}
	})
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Worker stopping", zap.Int("worker_id", workerID))
			return
		case job, ok := <-s.jobs:
			if !ok {
				s.logger.Debug("Job channel closed", zap.Int("worker_id", workerID))
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	// Jobs still waiting out a retry delay go back to the queue after the
	// remaining delay, not immediately
	if job.NextRetryAt != nil && time.Now().Before(*job.NextRetryAt) {
		s.requeueAfter(job, time.Until(*job.NextRetryAt))
		return
	}

	executor, ok := s.executors[job.Type]
	if !ok {
		job.Fail(ErrUnknownJobType.Error())
		s.logger.Error("No executor for job type",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
		)
		return
	}

	job.Start()
	s.logger.Info("Processing job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := executor.Execute(jobCtx, job)
	if err != nil {
		job.Fail(err.Error())
		s.logger.Error("Job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
			zap.Error(err),
		)

		if job.ShouldRetry() {
			job.ScheduleRetry(s.config.RetryDelay)
			s.logger.Info("Job scheduled for retry",
				zap.String("job_id", job.ID.String()),
				zap.Int("retry_count", job.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
			)
			s.requeueAfter(job, s.config.RetryDelay)
		}
		return
	}

	job.Complete()
	s.logger.Info("Job completed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
	)
}
