package platform

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retailsuite/backend/internal/domain/crm"
	"github.com/retailsuite/backend/internal/domain/identity"
	"github.com/retailsuite/backend/internal/domain/org"
	"github.com/retailsuite/backend/internal/domain/platform"
	"github.com/retailsuite/backend/internal/domain/sales"
	"github.com/retailsuite/backend/internal/domain/shared"
	"github.com/retailsuite/backend/internal/infrastructure/scheduler"
	"github.com/retailsuite/backend/internal/infrastructure/telemetry"
)

// backupFormatVersion identifies the archive schema. Bump it when record
// shapes change.
const backupFormatVersion = 1

// JobSubmitter enqueues background jobs. The scheduler satisfies it.
type JobSubmitter interface {
	SubmitJob(job *scheduler.Job) error
	MaxRetries() int
}

// BackupServiceConfig holds configuration for the backup service
type BackupServiceConfig struct {
	// Retention is how long completed archives are kept. Zero keeps them
	// forever.
	Retention time.Duration

	// KeyPrefix is the object key prefix inside the bucket
	KeyPrefix string

	// DownloadURLExpiry is the duration for which download URLs are valid
	DownloadURLExpiry time.Duration

	// ExportPageSize is how many rows each export query fetches
	ExportPageSize int

	// CleanupBatchSize caps how many records one cleanup sweep handles
	CleanupBatchSize int

	// StaleAfter is the age at which a pending or running backup counts as
	// abandoned and gets failed by the cleanup sweep
	StaleAfter time.Duration
}

// DefaultBackupServiceConfig returns sensible defaults
func DefaultBackupServiceConfig() BackupServiceConfig {
	return BackupServiceConfig{
		Retention:         30 * 24 * time.Hour,
		KeyPrefix:         "backups",
		DownloadURLExpiry: 15 * time.Minute,
		ExportPageSize:    100,
		CleanupBatchSize:  100,
		StaleAfter:        6 * time.Hour,
	}
}

// BackupService runs tenant data exports and manages the resulting archives.
// It is the API-facing service and at the same time the executor for the
// tenant_backup and backup_cleanup job types.
type BackupService struct {
	backupRepo   platform.BackupRepository
	tenantRepo   platform.TenantRepository
	branchRepo   org.BranchRepository
	userRepo     identity.UserRepository
	customerRepo crm.CustomerRepository
	tierRepo     crm.LoyaltyTierRepository
	segmentRepo  crm.CustomerSegmentRepository
	scoreRepo    crm.CustomerScoreRepository
	saleRepo     sales.SaleRepository
	storage      BackupStorage
	jobs         JobSubmitter
	metrics      *telemetry.RetailMetrics
	config       BackupServiceConfig
	logger       *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(
	backupRepo platform.BackupRepository,
	tenantRepo platform.TenantRepository,
	branchRepo org.BranchRepository,
	userRepo identity.UserRepository,
	customerRepo crm.CustomerRepository,
	tierRepo crm.LoyaltyTierRepository,
	segmentRepo crm.CustomerSegmentRepository,
	scoreRepo crm.CustomerScoreRepository,
	saleRepo sales.SaleRepository,
	storage BackupStorage,
	jobs JobSubmitter,
	metrics *telemetry.RetailMetrics,
	config BackupServiceConfig,
	logger *zap.Logger,
) *BackupService {
	defaults := DefaultBackupServiceConfig()
	// Export paging stops at the first short page; the page size must stay
	// within the repositories' 100-row cap for that to hold.
	if config.ExportPageSize <= 0 || config.ExportPageSize > 100 {
		config.ExportPageSize = defaults.ExportPageSize
	}
	if config.CleanupBatchSize <= 0 {
		config.CleanupBatchSize = defaults.CleanupBatchSize
	}
	if config.DownloadURLExpiry <= 0 {
		config.DownloadURLExpiry = defaults.DownloadURLExpiry
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = defaults.StaleAfter
	}
	config.KeyPrefix = strings.Trim(config.KeyPrefix, "/")
	if config.KeyPrefix == "" {
		config.KeyPrefix = defaults.KeyPrefix
	}

	return &BackupService{
		backupRepo:   backupRepo,
		tenantRepo:   tenantRepo,
		branchRepo:   branchRepo,
		userRepo:     userRepo,
		customerRepo: customerRepo,
		tierRepo:     tierRepo,
		segmentRepo:  segmentRepo,
		scoreRepo:    scoreRepo,
		saleRepo:     saleRepo,
		storage:      storage,
		jobs:         jobs,
		metrics:      metrics,
		config:       config,
		logger:       logger,
	}
}

// BackupDTO represents backup data transfer object. The storage key stays
// internal; downloads go through presigned URLs.
type BackupDTO struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	Status      string     `json:"status"`
	Trigger     string     `json:"trigger"`
	SizeBytes   int64      `json:"size_bytes"`
	Checksum    string     `json:"checksum,omitempty"`
	Error       string     `json:"error,omitempty"`
	RequestedBy *uuid.UUID `json:"requested_by,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// BackupDownloadDTO carries a presigned archive URL
type BackupDownloadDTO struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BackupFilter contains filter options for listing backups
type BackupFilter struct {
	Page     int
	PageSize int
	Status   string
}

// ToSharedFilter converts to the shared filter format
func (f BackupFilter) ToSharedFilter() shared.Filter {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	return filter
}

// BackupListResult contains paginated backup results
type BackupListResult struct {
	Backups    []BackupDTO `json:"backups"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// Trigger starts a manual backup for the tenant. The record is created
// pending; the export itself runs on the job queue.
func (s *BackupService) Trigger(ctx context.Context, tenantID uuid.UUID, requestedBy *uuid.UUID) (*BackupDTO, error) {
	if _, err := s.findTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	backup, err := s.enqueue(ctx, tenantID, platform.BackupTriggerManual, requestedBy)
	if err != nil {
		return nil, err
	}
	return toBackupDTO(backup), nil
}

// TriggerScheduled starts a scheduled backup for the tenant, used by the
// nightly sweep. Returns BACKUP_IN_PROGRESS when one is already underway so
// the sweep can skip the tenant.
func (s *BackupService) TriggerScheduled(ctx context.Context, tenantID uuid.UUID) error {
	_, err := s.enqueue(ctx, tenantID, platform.BackupTriggerScheduled, nil)
	return err
}

func (s *BackupService) enqueue(ctx context.Context, tenantID uuid.UUID, trigger platform.BackupTrigger, requestedBy *uuid.UUID) (*platform.Backup, error) {
	active, err := s.backupRepo.HasActiveBackup(ctx, tenantID)
	if err != nil {
		s.logger.Error("Failed to check active backups",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
		)
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to trigger backup")
	}
	if active {
		return nil, shared.NewDomainError("BACKUP_IN_PROGRESS", "A backup is already pending or running for this tenant")
	}

	backup, err := platform.NewBackup(tenantID, trigger, requestedBy)
	if err != nil {
		return nil, err
	}
	if err := s.backupRepo.Save(ctx, backup); err != nil {
		s.logger.Error("Failed to save backup",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
		)
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to trigger backup")
	}

	job := scheduler.NewJob(scheduler.JobTypeTenantBackup, &tenantID, s.jobs.MaxRetries())
	if err := s.jobs.SubmitJob(job); err != nil {
		// A pending record with no queued job would never run; fail it now
		if failErr := backup.Fail("backup job could not be queued: " + err.Error()); failErr == nil {
			if saveErr := s.backupRepo.Save(ctx, backup); saveErr != nil {
				s.logger.Error("Failed to mark unqueued backup failed",
					zap.Error(saveErr),
					zap.String("backup_id", backup.GetID().String()),
				)
			}
		}
		if errors.Is(err, scheduler.ErrJobQueueFull) {
			return nil, shared.NewDomainError("JOB_QUEUE_FULL", "The background job queue is full, try again later")
		}
		s.logger.Error("Failed to submit backup job",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
		)
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to trigger backup")
	}

	s.logger.Info("Backup queued",
		zap.String("backup_id", backup.GetID().String()),
		zap.String("tenant_id", tenantID.String()),
		zap.String("trigger", string(trigger)),
	)

	return backup, nil
}

// List returns the tenant's backups
func (s *BackupService) List(ctx context.Context, tenantID uuid.UUID, filter BackupFilter) (*BackupListResult, error) {
	shFilter := filter.ToSharedFilter()

	backups, err := s.backupRepo.FindAllForTenant(ctx, tenantID, shFilter)
	if err != nil {
		s.logger.Error("Failed to list backups",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
		)
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list backups")
	}
	total, err := s.backupRepo.CountForTenant(ctx, tenantID, shFilter)
	if err != nil {
		s.logger.Error("Failed to count backups",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
		)
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list backups")
	}

	dtos := make([]BackupDTO, len(backups))
	for i := range backups {
		dtos[i] = *toBackupDTO(&backups[i])
	}

	totalPages := int((total + int64(shFilter.PageSize) - 1) / int64(shFilter.PageSize))
	return &BackupListResult{
		Backups:    dtos,
		Total:      total,
		Page:       shFilter.Page,
		PageSize:   shFilter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Get returns one backup scoped to the tenant
func (s *BackupService) Get(ctx context.Context, tenantID, backupID uuid.UUID) (*BackupDTO, error) {
	backup, err := s.findForTenant(ctx, tenantID, backupID)
	if err != nil {
		return nil, err
	}
	return toBackupDTO(backup), nil
}

// DownloadURL returns a presigned URL for a completed backup's archive
func (s *BackupService) DownloadURL(ctx context.Context, tenantID, backupID uuid.UUID) (*BackupDownloadDTO, error) {
	backup, err := s.findForTenant(ctx, tenantID, backupID)
	if err != nil {
		return nil, err
	}
	if !backup.IsDownloadable() {
		return nil, shared.NewDomainError("BACKUP_NOT_DOWNLOADABLE", "Only completed backups can be downloaded")
	}
	if backup.IsExpired(time.Now()) {
		return nil, shared.NewDomainError("BACKUP_EXPIRED", "The backup archive has passed its retention window")
	}

	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, backup.ObjectKey, s.config.DownloadURLExpiry)
	if err != nil {
		s.logger.Error("Failed to presign backup download",
			zap.Error(err),
			zap.String("backup_id", backupID.String()),
		)
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate download URL")
	}

	return &BackupDownloadDTO{URL: url, ExpiresAt: expiresAt}, nil
}

// Delete removes a backup record and its stored archive. Pending and running
// backups cannot be deleted mid-flight.
func (s *BackupService) Delete(ctx context.Context, tenantID, backupID uuid.UUID) error {
	backup, err := s.findForTenant(ctx, tenantID, backupID)
	if err != nil {
		return err
	}
	if !backup.IsFinished() {
		return shared.NewDomainError("BACKUP_IN_PROGRESS", "Wait for the backup to finish before deleting it")
	}

	if backup.ObjectKey != "" {
		if err := s.storage.DeleteObject(ctx, backup.ObjectKey); err != nil {
			s.logger.Error("Failed to delete backup object",
				zap.Error(err),
				zap.String("backup_id", backupID.String()),
				zap.String("object_key", backup.ObjectKey),
			)
			return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete backup archive")
		}
	}

	if err := s.backupRepo.Delete(ctx, backup.GetID()); err != nil {
		s.logger.Error("Failed to delete backup record",
			zap.Error(err),
			zap.String("backup_id", backupID.String()),
		)
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete backup")
	}

	s.logger.Info("Backup deleted",
		zap.String("backup_id", backupID.String()),
		zap.String("tenant_id", tenantID.String()),
	)
	return nil
}

// Execute dispatches scheduler jobs. The service registers for both the
// tenant backup and the cleanup job types.
func (s *BackupService) Execute(ctx context.Context, job *scheduler.Job) error {
	switch job.Type {
	case scheduler.JobTypeTenantBackup:
		if job.TenantID == nil {
			return scheduler.ErrMissingTenant
		}
		return s.runTenantBackup(ctx, job)
	case scheduler.JobTypeBackupCleanup:
		return s.runCleanup(ctx)
	default:
		return fmt.Errorf("backup executor cannot handle job type %q", job.Type)
	}
}

// runTenantBackup picks up the tenant's oldest pending backup, exports the
// tenant's data and uploads the archive.
func (s *BackupService) runTenantBackup(ctx context.Context, job *scheduler.Job) error {
	tenantID := *job.TenantID

	backup, err := s.oldestPending(ctx, tenantID)
	if err != nil {
		return err
	}
	if backup == nil {
		// The record was deleted or failed between submit and pickup
		s.logger.Warn("No pending backup for tenant, nothing to run",
			zap.String("tenant_id", tenantID.String()),
		)
		return nil
	}

	if err := backup.Start(); err != nil {
		return err
	}
	if err := s.backupRepo.Save(ctx, backup); err != nil {
		return fmt.Errorf("mark backup running: %w", err)
	}

	archive, err := s.buildArchive(ctx, tenantID)
	if err != nil {
		return s.concludeFailure(ctx, backup, job, err)
	}

	key := fmt.Sprintf("%s/%s/%s.json.gz", s.config.KeyPrefix, tenantID, backup.GetID())
	if err := s.storage.Upload(ctx, key, archive.compressed, "application/gzip"); err != nil {
		return s.concludeFailure(ctx, backup, job, fmt.Errorf("upload archive: %w", err))
	}

	if err := backup.Complete(key, int64(len(archive.compressed)), archive.checksum, s.config.Retention); err != nil {
		return s.concludeFailure(ctx, backup, job, err)
	}
	if err := s.backupRepo.Save(ctx, backup); err != nil {
		return fmt.Errorf("mark backup completed: %w", err)
	}

	s.metrics.RecordBackupRun(ctx, tenantID, platform.BackupStatusCompleted.String())
	s.logger.Info("Backup completed",
		zap.String("backup_id", backup.GetID().String()),
		zap.String("tenant_id", tenantID.String()),
		zap.Int("size_bytes", len(archive.compressed)),
		zap.String("checksum", archive.checksum),
	)
	return nil
}

// concludeFailure settles the backup record after a failed attempt. While
// the job has retries left the record goes back to pending for the next
// attempt; the last attempt marks it failed.
func (s *BackupService) concludeFailure(ctx context.Context, backup *platform.Backup, job *scheduler.Job, runErr error) error {
	if job.RetryCount < job.MaxRetries {
		if err := backup.Requeue(); err == nil {
			if saveErr := s.backupRepo.Save(ctx, backup); saveErr != nil {
				s.logger.Error("Failed to requeue backup",
					zap.Error(saveErr),
					zap.String("backup_id", backup.GetID().String()),
				)
			}
		}
		return runErr
	}

	if err := backup.Fail(runErr.Error()); err == nil {
		if saveErr := s.backupRepo.Save(ctx, backup); saveErr != nil {
			s.logger.Error("Failed to mark backup failed",
				zap.Error(saveErr),
				zap.String("backup_id", backup.GetID().String()),
			)
		}
	}
	s.metrics.RecordBackupRun(ctx, backup.TenantID, platform.BackupStatusFailed.String())
	return runErr
}

// runCleanup removes completed backups whose retention lapsed and fails
// abandoned pending or running records. Object deletion comes first so a
// storage failure leaves the record for the next sweep.
func (s *BackupService) runCleanup(ctx context.Context) error {
	now := time.Now()

	expired, err := s.backupRepo.FindExpired(ctx, now, s.config.CleanupBatchSize)
	if err != nil {
		return fmt.Errorf("find expired backups: %w", err)
	}

	var removed int
	for i := range expired {
		backup := &expired[i]
		if backup.ObjectKey != "" {
			if err := s.storage.DeleteObject(ctx, backup.ObjectKey); err != nil {
				s.logger.Error("Failed to delete expired backup object",
					zap.Error(err),
					zap.String("backup_id", backup.GetID().String()),
					zap.String("object_key", backup.ObjectKey),
				)
				continue
			}
		}
		if err := s.backupRepo.Delete(ctx, backup.GetID()); err != nil {
			s.logger.Error("Failed to delete expired backup record",
				zap.Error(err),
				zap.String("backup_id", backup.GetID().String()),
			)
			continue
		}
		removed++
	}

	stale, err := s.backupRepo.FindStaleActive(ctx, now.Add(-s.config.StaleAfter), s.config.CleanupBatchSize)
	if err != nil {
		return fmt.Errorf("find stale backups: %w", err)
	}

	var abandoned int
	for i := range stale {
		backup := &stale[i]
		if err := backup.Fail("backup run abandoned"); err != nil {
			continue
		}
		if err := s.backupRepo.Save(ctx, backup); err != nil {
			s.logger.Error("Failed to fail stale backup",
				zap.Error(err),
				zap.String("backup_id", backup.GetID().String()),
			)
			continue
		}
		s.metrics.RecordBackupRun(ctx, backup.TenantID, platform.BackupStatusFailed.String())
		abandoned++
	}

	if removed > 0 || abandoned > 0 {
		s.logger.Info("Backup cleanup finished",
			zap.Int("expired_removed", removed),
			zap.Int("stale_failed", abandoned),
		)
	}
	return nil
}

type backupArchive struct {
	compressed []byte
	checksum   string // sha256 of the uncompressed JSON document, hex
}

func (s *BackupService) buildArchive(ctx context.Context, tenantID uuid.UUID) (*backupArchive, error) {
	doc, err := s.export(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal export document: %w", err)
	}
	sum := sha256.Sum256(raw)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return nil, fmt.Errorf("compress archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("compress archive: %w", err)
	}

	return &backupArchive{
		compressed: buf.Bytes(),
		checksum:   hex.EncodeToString(sum[:]),
	}, nil
}

// backupDocument is the archive schema: flat record snapshots of every
// tenant-owned aggregate. Password hashes and login metadata stay out.
type backupDocument struct {
	FormatVersion int              `json:"format_version"`
	ExportedAt    time.Time        `json:"exported_at"`
	Tenant        tenantRecord     `json:"tenant"`
	Branches      []branchRecord   `json:"branches"`
	Users         []userRecord     `json:"users"`
	LoyaltyTiers  []tierRecord     `json:"loyalty_tiers"`
	Customers     []customerRecord `json:"customers"`
	Segments      []segmentRecord  `json:"segments"`
	Sales         []saleRecord     `json:"sales"`
	Scores        []scoreRecord    `json:"scores"`
}

type tenantRecord struct {
	ID           uuid.UUID             `json:"id"`
	Code         string                `json:"code"`
	Name         string                `json:"name"`
	Domain       string                `json:"domain,omitempty"`
	Status       string                `json:"status"`
	ContactName  string                `json:"contact_name,omitempty"`
	ContactPhone string                `json:"contact_phone,omitempty"`
	ContactEmail string                `json:"contact_email,omitempty"`
	Config       platform.TenantConfig `json:"config"`
	Notes        string                `json:"notes,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

type branchRecord struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Address     string    `json:"address,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	ManagerName string    `json:"manager_name,omitempty"`
	Status      string    `json:"status"`
	IsMain      bool      `json:"is_main"`
	CreatedAt   time.Time `json:"created_at"`
}

type userRecord struct {
	ID        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	BranchID  *uuid.UUID `json:"branch_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type tierRecord struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Rank            int             `json:"rank"`
	MinPoints       int64           `json:"min_points"`
	MinSpent        decimal.Decimal `json:"min_spent"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Color           string          `json:"color,omitempty"`
	Status          string          `json:"status"`
}

type customerRecord struct {
	ID             uuid.UUID         `json:"id"`
	Code           string            `json:"code"`
	Name           string            `json:"name"`
	Email          string            `json:"email,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	BranchID       *uuid.UUID        `json:"branch_id,omitempty"`
	Status         string            `json:"status"`
	LoyaltyPoints  int64             `json:"loyalty_points"`
	LoyaltyTierID  *uuid.UUID        `json:"loyalty_tier_id,omitempty"`
	TotalSpent     decimal.Decimal   `json:"total_spent"`
	VisitCount     int64             `json:"visit_count"`
	LastPurchaseAt *time.Time        `json:"last_purchase_at,omitempty"`
	Birthday       *time.Time        `json:"birthday,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

type segmentRecord struct {
	ID                uuid.UUID        `json:"id"`
	Name              string           `json:"name"`
	Description       string           `json:"description,omitempty"`
	MinRecencyScore   int              `json:"min_recency_score"`
	MinFrequencyScore int              `json:"min_frequency_score"`
	MinMonetaryScore  int              `json:"min_monetary_score"`
	MinTotalSpent     *decimal.Decimal `json:"min_total_spent,omitempty"`
	RFMSegments       []string         `json:"rfm_segments,omitempty"`
	Status            string           `json:"status"`
	MemberCount       int64            `json:"member_count"`
	EvaluatedAt       *time.Time       `json:"evaluated_at,omitempty"`
}

type saleRecord struct {
	ID             uuid.UUID        `json:"id"`
	Number         string           `json:"number"`
	BranchID       uuid.UUID        `json:"branch_id"`
	CustomerID     *uuid.UUID       `json:"customer_id,omitempty"`
	CashierID      uuid.UUID        `json:"cashier_id"`
	Subtotal       decimal.Decimal  `json:"subtotal"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	TaxAmount      decimal.Decimal  `json:"tax_amount"`
	Total          decimal.Decimal  `json:"total"`
	PaymentMethod  string           `json:"payment_method"`
	Status         string           `json:"status"`
	OccurredAt     time.Time        `json:"occurred_at"`
	VoidReason     string           `json:"void_reason,omitempty"`
	VoidedAt       *time.Time       `json:"voided_at,omitempty"`
	Lines          []saleLineRecord `json:"lines"`
}

type saleLineRecord struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type scoreRecord struct {
	CustomerID     uuid.UUID       `json:"customer_id"`
	RecencyDays    int             `json:"recency_days"`
	Frequency      int64           `json:"frequency"`
	Monetary       decimal.Decimal `json:"monetary"`
	RecencyScore   int             `json:"recency_score"`
	FrequencyScore int             `json:"frequency_score"`
	MonetaryScore  int             `json:"monetary_score"`
	Segment        string          `json:"segment"`
	CLV            decimal.Decimal `json:"clv"`
	WindowStart    time.Time       `json:"window_start"`
	WindowEnd      time.Time       `json:"window_end"`
	ComputedAt     time.Time       `json:"computed_at"`
}

func (s *BackupService) export(ctx context.Context, tenantID uuid.UUID) (*backupDocument, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load tenant: %w", err)
	}

	doc := &backupDocument{
		FormatVersion: backupFormatVersion,
		ExportedAt:    time.Now().UTC(),
		Tenant:        toTenantRecord(tenant),
	}

	if doc.Branches, err = s.exportBranches(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("export branches: %w", err)
	}
	if doc.Users, err = s.exportUsers(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("export users: %w", err)
	}
	if doc.LoyaltyTiers, err = s.exportTiers(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("export loyalty tiers: %w", err)
	}
	if doc.Customers, err = s.exportCustomers(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("export customers: %w", err)
	}
	if doc.Segments, err = s.exportSegments(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("export segments: %w", err)
	}
	if doc.Sales, err = s.exportSales(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("export sales: %w", err)
	}
	if doc.Scores, err = s.exportScores(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("export scores: %w", err)
	}

	return doc, nil
}

func (s *BackupService) exportBranches(ctx context.Context, tenantID uuid.UUID) ([]branchRecord, error) {
	records := []branchRecord{}
	filter := shared.DefaultFilter()
	filter.PageSize = s.config.ExportPageSize
	filter.OrderBy = "created_at"
	filter.OrderDir = "asc"

	for page := 1; ; page++ {
		filter.Page = page
		batch, err := s.branchRepo.FindAllForTenant(ctx, tenantID, filter)
		if err != nil {
			return nil, err
		}
		for i := range batch {
			records = append(records, toBranchRecord(&batch[i]))
		}
		if len(batch) < filter.PageSize {
			return records, nil
		}
	}
}

func (s *BackupService) exportUsers(ctx context.Context, tenantID uuid.UUID) ([]userRecord, error) {
	records := []userRecord{}
	filter := identity.NewUserFilter().
		WithSorting("created_at", "asc").
		WithPagination(1, s.config.ExportPageSize)

	for page := 1; ; page++ {
		filter.Page = page
		batch, _, err := s.userRepo.FindAll(ctx, tenantID, filter)
		if err != nil {
			return nil, err
		}
		for i := range batch {
			records = append(records, toUserRecord(&batch[i]))
		}
		if len(batch) < filter.PageSize {
			return records, nil
		}
	}
}

func (s *BackupService) exportTiers(ctx context.Context, tenantID uuid.UUID) ([]tierRecord, error) {
	tiers, err := s.tierRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	records := make([]tierRecord, len(tiers))
	for i := range tiers {
		records[i] = toTierRecord(&tiers[i])
	}
	return records, nil
}

func (s *BackupService) exportCustomers(ctx context.Context, tenantID uuid.UUID) ([]customerRecord, error) {
	records := []customerRecord{}
	filter := crm.NewCustomerFilter()
	filter.PageSize = s.config.ExportPageSize
	filter.SortBy = "created_at"
	filter.SortOrder = "asc"

	for page := 1; ; page++ {
		filter.Page = page
		batch, _, err := s.customerRepo.FindAll(ctx, tenantID, filter)
		if err != nil {
			return nil, err
		}
		for i := range batch {
			records = append(records, toCustomerRecord(&batch[i]))
		}
		if len(batch) < filter.PageSize {
			return records, nil
		}
	}
}

func (s *BackupService) exportSegments(ctx context.Context, tenantID uuid.UUID) ([]segmentRecord, error) {
	records := []segmentRecord{}
	filter := shared.DefaultFilter()
	filter.PageSize = s.config.ExportPageSize
	filter.OrderBy = "created_at"
	filter.OrderDir = "asc"

	for page := 1; ; page++ {
		filter.Page = page
		batch, err := s.segmentRepo.FindAllForTenant(ctx, tenantID, filter)
		if err != nil {
			return nil, err
		}
		for i := range batch {
			records = append(records, toSegmentRecord(&batch[i]))
		}
		if len(batch) < filter.PageSize {
			return records, nil
		}
	}
}

func (s *BackupService) exportSales(ctx context.Context, tenantID uuid.UUID) ([]saleRecord, error) {
	records := []saleRecord{}
	filter := sales.NewSaleFilter()
	filter.PageSize = s.config.ExportPageSize

	for page := 1; ; page++ {
		filter.Page = page
		batch, err := s.saleRepo.FindAllWithLines(ctx, tenantID, filter)
		if err != nil {
			return nil, err
		}
		for i := range batch {
			records = append(records, toSaleRecord(&batch[i]))
		}
		if len(batch) < filter.PageSize {
			return records, nil
		}
	}
}

func (s *BackupService) exportScores(ctx context.Context, tenantID uuid.UUID) ([]scoreRecord, error) {
	records := []scoreRecord{}
	filter := crm.NewScoreFilter()
	filter.PageSize = s.config.ExportPageSize

	for page := 1; ; page++ {
		filter.Page = page
		batch, _, err := s.scoreRepo.FindAllForTenant(ctx, tenantID, filter)
		if err != nil {
			return nil, err
		}
		for i := range batch {
			records = append(records, toScoreRecord(&batch[i]))
		}
		if len(batch) < filter.PageSize {
			return records, nil
		}
	}
}

// oldestPending returns the tenant's oldest pending backup, nil when there
// is none.
func (s *BackupService) oldestPending(ctx context.Context, tenantID uuid.UUID) (*platform.Backup, error) {
	filter := shared.DefaultFilter()
	filter.PageSize = 1
	filter.OrderBy = "created_at"
	filter.OrderDir = "asc"
	filter.Filters["status"] = string(platform.BackupStatusPending)

	backups, err := s.backupRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("find pending backup: %w", err)
	}
	if len(backups) == 0 {
		return nil, nil
	}
	return &backups[0], nil
}

func (s *BackupService) findTenant(ctx context.Context, tenantID uuid.UUID) (*platform.Tenant, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TENANT_NOT_FOUND", "Tenant not found")
		}
		s.logger.Error("Failed to find tenant",
			zap.Error(err),
			zap.String("tenant_id", tenantID.String()),
		)
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find tenant")
	}
	return tenant, nil
}

func (s *BackupService) findForTenant(ctx context.Context, tenantID, backupID uuid.UUID) (*platform.Backup, error) {
	backup, err := s.backupRepo.FindByIDForTenant(ctx, backupID, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("BACKUP_NOT_FOUND", "Backup not found")
		}
		s.logger.Error("Failed to find backup",
			zap.Error(err),
			zap.String("backup_id", backupID.String()),
		)
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find backup")
	}
	return backup, nil
}

func toBackupDTO(backup *platform.Backup) *BackupDTO {
	return &BackupDTO{
		ID:          backup.GetID(),
		TenantID:    backup.TenantID,
		Status:      string(backup.Status),
		Trigger:     string(backup.Trigger),
		SizeBytes:   backup.SizeBytes,
		Checksum:    backup.Checksum,
		Error:       backup.Error,
		RequestedBy: backup.RequestedBy,
		StartedAt:   backup.StartedAt,
		CompletedAt: backup.CompletedAt,
		ExpiresAt:   backup.ExpiresAt,
		CreatedAt:   backup.GetCreatedAt(),
	}
}

func toTenantRecord(t *platform.Tenant) tenantRecord {
	return tenantRecord{
		ID:           t.GetID(),
		Code:         t.Code,
		Name:         t.Name,
		Domain:       t.Domain,
		Status:       string(t.Status),
		ContactName:  t.ContactName,
		ContactPhone: t.ContactPhone,
		ContactEmail: t.ContactEmail,
		Config:       t.Config,
		Notes:        t.Notes,
		CreatedAt:    t.GetCreatedAt(),
	}
}

func toBranchRecord(b *org.Branch) branchRecord {
	return branchRecord{
		ID:          b.GetID(),
		Code:        b.Code,
		Name:        b.Name,
		Address:     b.Address,
		Phone:       b.Phone,
		ManagerName: b.ManagerName,
		Status:      string(b.Status),
		IsMain:      b.IsMain,
		CreatedAt:   b.GetCreatedAt(),
	}
}

func toUserRecord(u *identity.User) userRecord {
	return userRecord{
		ID:        u.GetID(),
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		Role:      string(u.Role),
		Status:    string(u.Status),
		BranchID:  u.BranchID,
		CreatedAt: u.GetCreatedAt(),
	}
}

func toTierRecord(t *crm.LoyaltyTier) tierRecord {
	return tierRecord{
		ID:              t.GetID(),
		Name:            t.Name,
		Rank:            t.Rank,
		MinPoints:       t.MinPoints,
		MinSpent:        t.MinSpent,
		DiscountPercent: t.DiscountPercent,
		Color:           t.Color,
		Status:          string(t.Status),
	}
}

func toCustomerRecord(c *crm.Customer) customerRecord {
	return customerRecord{
		ID:             c.GetID(),
		Code:           c.Code,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		BranchID:       c.BranchID,
		Status:         string(c.Status),
		LoyaltyPoints:  c.LoyaltyPoints,
		LoyaltyTierID:  c.LoyaltyTierID,
		TotalSpent:     c.TotalSpent,
		VisitCount:     c.VisitCount,
		LastPurchaseAt: c.LastPurchaseAt,
		Birthday:       c.Birthday,
		Attributes:     c.Attributes,
		CreatedAt:      c.GetCreatedAt(),
	}
}

func toSegmentRecord(seg *crm.CustomerSegment) segmentRecord {
	return segmentRecord{
		ID:                seg.GetID(),
		Name:              seg.Name,
		Description:       seg.Description,
		MinRecencyScore:   seg.MinRecencyScore,
		MinFrequencyScore: seg.MinFrequencyScore,
		MinMonetaryScore:  seg.MinMonetaryScore,
		MinTotalSpent:     seg.MinTotalSpent,
		RFMSegments:       seg.RFMSegments,
		Status:            string(seg.Status),
		MemberCount:       seg.MemberCount,
		EvaluatedAt:       seg.EvaluatedAt,
	}
}

func toSaleRecord(sale *sales.Sale) saleRecord {
	lines := make([]saleLineRecord, len(sale.Lines))
	for i, line := range sale.Lines {
		lines[i] = saleLineRecord{
			SKU:       line.SKU,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.LineTotal,
		}
	}
	return saleRecord{
		ID:             sale.GetID(),
		Number:         sale.Number,
		BranchID:       sale.BranchID,
		CustomerID:     sale.CustomerID,
		CashierID:      sale.CashierID,
		Subtotal:       sale.Subtotal,
		DiscountAmount: sale.DiscountAmount,
		TaxAmount:      sale.TaxAmount,
		Total:          sale.Total,
		PaymentMethod:  string(sale.PaymentMethod),
		Status:         string(sale.Status),
		OccurredAt:     sale.OccurredAt,
		VoidReason:     sale.VoidReason,
		VoidedAt:       sale.VoidedAt,
		Lines:          lines,
	}
}

func toScoreRecord(score *crm.CustomerScore) scoreRecord {
	return scoreRecord{
		CustomerID:     score.CustomerID,
		RecencyDays:    score.RecencyDays,
		Frequency:      score.Frequency,
		Monetary:       score.Monetary,
		RecencyScore:   score.RecencyScore,
		FrequencyScore: score.FrequencyScore,
		MonetaryScore:  score.MonetaryScore,
		Segment:        score.Segment,
		CLV:            score.CLV,
		WindowStart:    score.WindowStart,
		WindowEnd:      score.WindowEnd,
		ComputedAt:     score.ComputedAt,
	}
}

// Ensure BackupService implements JobExecutor
var _ scheduler.JobExecutor = (*BackupService)(nil)
