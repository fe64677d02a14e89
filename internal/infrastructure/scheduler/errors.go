package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when submitting a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue cannot accept more jobs
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrUnknownJobType is returned when no executor is registered for a job type
	ErrUnknownJobType = errors.New("no executor registered for job type")

	// ErrMissingTenant is returned by executors whose job type requires a tenant
	ErrMissingTenant = errors.New("job requires a tenant id")
)
