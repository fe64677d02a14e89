package platform

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/retailsuite/backend/internal/domain/shared"
)

// BackupStatus represents the lifecycle state of a tenant backup.
type BackupStatus string

const (
	BackupStatusPending   BackupStatus = "pending"
	BackupStatusRunning   BackupStatus = "running"
	BackupStatusCompleted BackupStatus = "completed"
	BackupStatusFailed    BackupStatus = "failed"
)

// IsValid returns true if the status is a known value.
func (s BackupStatus) IsValid() bool {
	switch s {
	case BackupStatusPending, BackupStatusRunning, BackupStatusCompleted, BackupStatusFailed:
		return true
	default:
		return false
	}
}

func (s BackupStatus) String() string {
	return string(s)
}

// BackupTrigger records what initiated a backup run.
type BackupTrigger string

const (
	BackupTriggerManual    BackupTrigger = "manual"
	BackupTriggerScheduled BackupTrigger = "scheduled"
)

// Backup is a tenant data export. The runner serializes the tenant's records
// into a gzipped JSON document and uploads it to object storage; the
// aggregate tracks the run and the resulting object.
type Backup struct {
	shared.TenantAggregateRoot

	Status  BackupStatus  `gorm:"type:varchar(20);not null;default:'pending';index"`
	Trigger BackupTrigger `gorm:"type:varchar(20);not null;default:'manual'"`

	// ObjectKey is the storage key of the uploaded archive. Empty until the
	// run completes.
	ObjectKey string `gorm:"type:varchar(500)"`
	SizeBytes int64  `gorm:"not null;default:0"`
	// Checksum is the sha256 of the uncompressed JSON document, hex encoded.
	Checksum string `gorm:"type:varchar(64)"`
	Error    string `gorm:"type:text"`

	RequestedBy *uuid.UUID `gorm:"type:uuid"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	// ExpiresAt is when retention cleanup may remove the backup.
	ExpiresAt *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (Backup) TableName() string {
	return "tenant_backups"
}

// NewBackup creates a pending backup for the tenant.
func NewBackup(tenantID uuid.UUID, trigger BackupTrigger, requestedBy *uuid.UUID) (*Backup, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID is required")
	}
	if trigger != BackupTriggerManual && trigger != BackupTriggerScheduled {
		return nil, shared.NewDomainError("INVALID_TRIGGER", "Trigger must be manual or scheduled")
	}

	return &Backup{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Status:              BackupStatusPending,
		Trigger:             trigger,
		RequestedBy:         requestedBy,
	}, nil
}

// Start moves a pending backup to running.
func (b *Backup) Start() error {
	if b.Status != BackupStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only pending backups can be started")
	}
	now := time.Now()
	b.Status = BackupStatusRunning
	b.StartedAt = &now
	b.IncrementVersion()
	return nil
}

// Requeue moves a running backup back to pending so a retry can pick it up.
func (b *Backup) Requeue() error {
	if b.Status != BackupStatusRunning {
		return shared.NewDomainError("INVALID_STATE", "Only running backups can be requeued")
	}
	b.Status = BackupStatusPending
	b.StartedAt = nil
	b.IncrementVersion()
	return nil
}

// Complete records a successful run. Retention controls how long the archive
// is kept; zero means no expiry.
func (b *Backup) Complete(objectKey string, sizeBytes int64, checksum string, retention time.Duration) error {
	if b.Status != BackupStatusRunning {
		return shared.NewDomainError("INVALID_STATE", "Only running backups can complete")
	}
	if strings.TrimSpace(objectKey) == "" {
		return shared.NewDomainError("INVALID_OBJECT_KEY", "Object key is required")
	}
	if sizeBytes <= 0 {
		return shared.NewDomainError("INVALID_SIZE", "Archive size must be positive")
	}
	if len(checksum) != 64 {
		return shared.NewDomainError("INVALID_CHECKSUM", "Checksum must be a sha256 hex digest")
	}

	now := time.Now()
	b.Status = BackupStatusCompleted
	b.ObjectKey = objectKey
	b.SizeBytes = sizeBytes
	b.Checksum = strings.ToLower(checksum)
	b.Error = ""
	b.CompletedAt = &now
	if retention > 0 {
		expires := now.Add(retention)
		b.ExpiresAt = &expires
	}
	b.IncrementVersion()
	return nil
}

// Fail records a failed run with the error that stopped it.
func (b *Backup) Fail(message string) error {
	if b.Status != BackupStatusPending && b.Status != BackupStatusRunning {
		return shared.NewDomainError("INVALID_STATE", "Backup has already finished")
	}
	now := time.Now()
	b.Status = BackupStatusFailed
	b.Error = message
	b.CompletedAt = &now
	b.IncrementVersion()
	return nil
}

// IsFinished reports whether the run reached a terminal state.
func (b *Backup) IsFinished() bool {
	return b.Status == BackupStatusCompleted || b.Status == BackupStatusFailed
}

// IsDownloadable reports whether the archive can be fetched.
func (b *Backup) IsDownloadable() bool {
	return b.Status == BackupStatusCompleted && b.ObjectKey != ""
}

// IsExpired reports whether retention has lapsed at the given instant.
func (b *Backup) IsExpired(now time.Time) bool {
	return b.ExpiresAt != nil && now.After(*b.ExpiresAt)
}

// BackupRepository defines persistence operations for backups.
type BackupRepository interface {
	// FindByID finds a backup by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Backup, error)

	// FindByIDForTenant finds a backup scoped to a tenant
	FindByIDForTenant(ctx context.Context, id, tenantID uuid.UUID) (*Backup, error)

	// FindAllForTenant returns the tenant's backups matching the filter
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Backup, error)

	// CountForTenant returns the number of backups matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// HasActiveBackup reports whether the tenant has a pending or running backup
	HasActiveBackup(ctx context.Context, tenantID uuid.UUID) (bool, error)

	// FindExpired returns completed backups whose retention lapsed before now
	FindExpired(ctx context.Context, now time.Time, limit int) ([]Backup, error)

	// FindStaleActive returns pending or running backups created before the
	// cutoff. A crashed worker or a lost queue leaves records in these
	// states; the cleanup sweep fails them so new backups can run.
	FindStaleActive(ctx context.Context, cutoff time.Time, limit int) ([]Backup, error)

	// Save creates or updates a backup
	Save(ctx context.Context, backup *Backup) error

	// Delete removes a backup record
	Delete(ctx context.Context, id uuid.UUID) error
}
