package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

// mockExecutor implements JobExecutor for testing
type mockExecutor struct {
	executeFunc func(ctx context.Context, job *Job) error
	execCount   int32
}

func (m *mockExecutor) Execute(ctx context.Context, job *Job) error {
	atomic.AddInt32(&m.execCount, 1)
	if m.executeFunc != nil {
		return m.executeFunc(ctx, job)
	}
	return nil
}

func TestNewJob(t *testing.T) {
	tenantID := uuid.New()

	job := NewJob(JobTypeCustomerScoring, &tenantID, 3)

	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.Equal(t, JobTypeCustomerScoring, job.Type)
	require.NotNil(t, job.TenantID)
	assert.Equal(t, tenantID, *job.TenantID)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 3, job.MaxRetries)
	assert.Nil(t, job.StartedAt)
	assert.Nil(t, job.CompletedAt)
}

func TestNewJob_PlatformWide(t *testing.T) {
	job := NewJob(JobTypeBackupCleanup, nil, 3)

	assert.Equal(t, JobTypeBackupCleanup, job.Type)
	assert.Nil(t, job.TenantID)
}

func TestJob_Start(t *testing.T) {
	tenantID := uuid.New()
	job := NewJob(JobTypeTenantBackup, &tenantID, 3)
	job.Error = "previous error"

	job.Start()

	assert.Equal(t, JobStatusRunning, job.Status)
	assert.NotNil(t, job.StartedAt)
	assert.Empty(t, job.Error)
}

func TestJob_Complete(t *testing.T) {
	tenantID := uuid.New()
	job := NewJob(JobTypeTenantBackup, &tenantID, 3)
	job.Start()

	job.Complete()

	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)
}

func TestJob_Fail(t *testing.T) {
	tenantID := uuid.New()
	job := NewJob(JobTypeTenantBackup, &tenantID, 3)
	job.Start()

	job.Fail("connection timeout")

	assert.Equal(t, JobStatusFailed, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.Equal(t, "connection timeout", job.Error)
}

func TestJob_ShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		status     JobStatus
		retryCount int
		maxRetries int
		expected   bool
	}{
		{"Failed with retries available", JobStatusFailed, 0, 3, true},
		{"Failed max retries reached", JobStatusFailed, 3, 3, false},
		{"Completed should not retry", JobStatusCompleted, 0, 3, false},
		{"Running should not retry", JobStatusRunning, 0, 3, false},
		{"Pending should not retry", JobStatusPending, 0, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &Job{
				Status:     tt.status,
				RetryCount: tt.retryCount,
				MaxRetries: tt.maxRetries,
			}
			assert.Equal(t, tt.expected, job.ShouldRetry())
		})
	}
}

func TestJob_ScheduleRetry_ExponentialBackoff(t *testing.T) {
	tenantID := uuid.New()
	job := NewJob(JobTypeCustomerScoring, &tenantID, 5)
	job.Status = JobStatusFailed
	baseDelay := time.Minute

	// First retry: 1 minute
	job.ScheduleRetry(baseDelay)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, JobStatusPending, job.Status)
	require.NotNil(t, job.NextRetryAt)
	firstDelay := time.Until(*job.NextRetryAt)
	assert.True(t, firstDelay > 50*time.Second && firstDelay <= time.Minute+time.Second)

	// Second retry: 2 minutes
	job.Status = JobStatusFailed
	job.ScheduleRetry(baseDelay)
	assert.Equal(t, 2, job.RetryCount)
	secondDelay := time.Until(*job.NextRetryAt)
	assert.True(t, secondDelay > 110*time.Second && secondDelay <= 2*time.Minute+time.Second)

	// Third retry: 4 minutes
	job.Status = JobStatusFailed
	job.ScheduleRetry(baseDelay)
	assert.Equal(t, 3, job.RetryCount)
	thirdDelay := time.Until(*job.NextRetryAt)
	assert.True(t, thirdDelay > 230*time.Second && thirdDelay <= 4*time.Minute+time.Second)
}

func TestJob_ScheduleRetry_CapsDelay(t *testing.T) {
	tenantID := uuid.New()
	job := NewJob(JobTypeCustomerScoring, &tenantID, 20)
	job.Status = JobStatusFailed
	job.RetryCount = 10

	job.ScheduleRetry(time.Minute)

	require.NotNil(t, job.NextRetryAt)
	delay := time.Until(*job.NextRetryAt)
	assert.True(t, delay <= 30*time.Minute+time.Second)
}

func TestAllJobTypes(t *testing.T) {
	types := AllJobTypes()

	require.Len(t, types, 3)
	assert.Contains(t, types, JobTypeCustomerScoring)
	assert.Contains(t, types, JobTypeTenantBackup)
	assert.Contains(t, types, JobTypeBackupCleanup)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 100, cfg.QueueSize)
	assert.Equal(t, 30*time.Minute, cfg.JobTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 5*time.Minute, cfg.RetryDelay)
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(DefaultConfig(), newTestLogger())
	s.RegisterExecutor(JobTypeCustomerScoring, &mockExecutor{})

	ctx := context.Background()

	err := s.Start(ctx)
	require.NoError(t, err)

	// Start again should be idempotent
	err = s.Start(ctx)
	require.NoError(t, err)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = s.Stop(stopCtx)
	require.NoError(t, err)

	// Stop again should be idempotent
	err = s.Stop(stopCtx)
	require.NoError(t, err)
}

func TestScheduler_SubmitJob_NotRunning(t *testing.T) {
	s := NewScheduler(DefaultConfig(), newTestLogger())
	s.RegisterExecutor(JobTypeCustomerScoring, &mockExecutor{})

	tenantID := uuid.New()
	err := s.SubmitJob(NewJob(JobTypeCustomerScoring, &tenantID, 3))

	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestScheduler_SubmitJob_UnknownType(t *testing.T) {
	s := NewScheduler(DefaultConfig(), newTestLogger())
	s.RegisterExecutor(JobTypeCustomerScoring, &mockExecutor{})

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	defer func() {
		stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = s.Stop(stopCtx)
	}()

	tenantID := uuid.New()
	err := s.SubmitJob(NewJob(JobTypeTenantBackup, &tenantID, 3))

	assert.ErrorIs(t, err, ErrUnknownJobType)
}

func TestScheduler_SubmitJob_Success(t *testing.T) {
	executor := &mockExecutor{}
	s := NewScheduler(DefaultConfig(), newTestLogger())
	s.RegisterExecutor(JobTypeCustomerScoring, executor)

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	tenantID := uuid.New()
	job := NewJob(JobTypeCustomerScoring, &tenantID, 3)
	require.NoError(t, s.SubmitJob(job))

	// Wait for the job to be processed
	time.Sleep(100 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))

	assert.Equal(t, int32(1), atomic.LoadInt32(&executor.execCount))
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)
}

func TestScheduler_SubmitJob_QueueFull(t *testing.T) {
	config := DefaultConfig()
	config.Workers = 1
	config.QueueSize = 1

	release := make(chan struct{})
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, job *Job) error {
			<-release
			return nil
		},
	}

	s := NewScheduler(config, newTestLogger())
	s.RegisterExecutor(JobTypeCustomerScoring, executor)

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	tenantID := uuid.New()

	// First job occupies the single worker
	require.NoError(t, s.SubmitJob(NewJob(JobTypeCustomerScoring, &tenantID, 3)))
	time.Sleep(50 * time.Millisecond)

	// Second job fills the queue
	require.NoError(t, s.SubmitJob(NewJob(JobTypeCustomerScoring, &tenantID, 3)))

	// Third job is rejected
	err := s.SubmitJob(NewJob(JobTypeCustomerScoring, &tenantID, 3))
	assert.ErrorIs(t, err, ErrJobQueueFull)

	close(release)
	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
}

func TestScheduler_JobRetry(t *testing.T) {
	config := DefaultConfig()
	config.RetryDelay = 10 * time.Millisecond
	config.JobTimeout = time.Minute

	callCount := int32(0)
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, job *Job) error {
			count := atomic.AddInt32(&callCount, 1)
			if count < 3 {
				return errors.New("temporary failure")
			}
			return nil
		},
	}

	s := NewScheduler(config, newTestLogger())
	s.RegisterExecutor(JobTypeTenantBackup, executor)

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	tenantID := uuid.New()
	job := NewJob(JobTypeTenantBackup, &tenantID, 5)
	require.NoError(t, s.SubmitJob(job))

	// Wait for retries
	time.Sleep(500 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))

	assert.GreaterOrEqual(t, atomic.LoadInt32(&callCount), int32(3))
	assert.Equal(t, JobStatusCompleted, job.Status)
}

func TestScheduler_JobRetry_WaitsOutDelay(t *testing.T) {
	config := DefaultConfig()
	config.Workers = 1
	config.RetryDelay = 200 * time.Millisecond
	config.JobTimeout = time.Minute

	var mu sync.Mutex
	var execTimes []time.Time
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, job *Job) error {
			mu.Lock()
			execTimes = append(execTimes, time.Now())
			first := len(execTimes) == 1
			mu.Unlock()
			if first {
				return errors.New("temporary failure")
			}
			return nil
		},
	}

	s := NewScheduler(config, newTestLogger())
	s.RegisterExecutor(JobTypeTenantBackup, executor)

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	tenantID := uuid.New()
	job := NewJob(JobTypeTenantBackup, &tenantID, 3)
	require.NoError(t, s.SubmitJob(job))

	// Mid-backoff the job must sit on a timer, not bounce through the worker
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&executor.execCount))

	time.Sleep(400 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, execTimes, 2)
	assert.GreaterOrEqual(t, execTimes[1].Sub(execTimes[0]), 150*time.Millisecond)
	assert.Equal(t, JobStatusCompleted, job.Status)
}

func TestScheduler_JobRetry_Exhausted(t *testing.T) {
	config := DefaultConfig()
	config.RetryDelay = 5 * time.Millisecond
	config.JobTimeout = time.Minute

	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, job *Job) error {
			return errors.New("permanent failure")
		},
	}

	s := NewScheduler(config, newTestLogger())
	s.RegisterExecutor(JobTypeCustomerScoring, executor)

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	tenantID := uuid.New()
	job := NewJob(JobTypeCustomerScoring, &tenantID, 2)
	require.NoError(t, s.SubmitJob(job))

	time.Sleep(500 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))

	// Initial attempt plus two retries
	assert.Equal(t, int32(3), atomic.LoadInt32(&executor.execCount))
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "permanent failure", job.Error)
}
