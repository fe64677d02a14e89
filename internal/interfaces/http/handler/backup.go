package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	platformapp "github.com/retailsuite/backend/internal/application/platform"
)

// BackupHandler handles tenant backup API endpoints
type BackupHandler struct {
	BaseHandler
	backupService *platformapp.BackupService
}

// NewBackupHandler creates a new BackupHandler
func NewBackupHandler(backupService *platformapp.BackupService) *BackupHandler {
	return &BackupHandler{
		backupService: backupService,
	}
}

// BackupListQuery represents backup list query parameters
type BackupListQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending running completed failed"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Trigger godoc
// @ID           triggerBackup
// @Summary      Trigger a backup
// @Description  Queue a manual backup of the tenant's data. At most one backup per tenant runs at a time.
// @Tags         backups
// @Produce      json
// @Success      202 {object} APIResponse[platformapp.BackupDTO]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /org/backups [post]
func (h *BackupHandler) Trigger(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var requestedBy *uuid.UUID
	if userID, err := getUserID(c); err == nil && userID != uuid.Nil {
		requestedBy = &userID
	}

	backup, err := h.backupService.Trigger(c.Request.Context(), tenantID, requestedBy)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Accepted(c, backup)
}

// List godoc
// @ID           listBackups
// @Summary      List backups
// @Description  Retrieve a paginated list of the tenant's backups, newest first
// @Tags         backups
// @Produce      json
// @Param        status query string false "Backup status" Enums(pending, running, completed, failed)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]platformapp.BackupDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /org/backups [get]
func (h *BackupHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var query BackupListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.backupService.List(c.Request.Context(), tenantID, platformapp.BackupFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
		Status:   query.Status,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Backups, result.Total, result.Page, result.PageSize)
}

// TriggerForTenant godoc
// @ID           triggerTenantBackup
// @Summary      Trigger a backup for a tenant
// @Description  Queue a manual backup of the given tenant's data. At most one backup per tenant runs at a time.
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      202 {object} APIResponse[platformapp.BackupDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/tenants/{id}/backups [post]
func (h *BackupHandler) TriggerForTenant(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	var requestedBy *uuid.UUID
	if userID, err := getUserID(c); err == nil && userID != uuid.Nil {
		requestedBy = &userID
	}

	backup, err := h.backupService.Trigger(c.Request.Context(), tenantID, requestedBy)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Accepted(c, backup)
}

// ListForTenant godoc
// @ID           listTenantBackups
// @Summary      List a tenant's backups
// @Description  Retrieve a paginated list of the given tenant's backups, newest first
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        status query string false "Backup status" Enums(pending, running, completed, failed)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]platformapp.BackupDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/tenants/{id}/backups [get]
func (h *BackupHandler) ListForTenant(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}

	var query BackupListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.backupService.List(c.Request.Context(), tenantID, platformapp.BackupFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
		Status:   query.Status,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Backups, result.Total, result.Page, result.PageSize)
}

// Get godoc
// @ID           getBackupById
// @Summary      Get backup by ID
// @Description  Retrieve a backup record by its ID
// @Tags         backups
// @Produce      json
// @Param        id path string true "Backup ID" format(uuid)
// @Success      200 {object} APIResponse[platformapp.BackupDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /org/backups/{id} [get]
func (h *BackupHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	backupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid backup ID format")
		return
	}

	backup, err := h.backupService.Get(c.Request.Context(), tenantID, backupID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, backup)
}

// Download godoc
// @ID           getBackupDownloadUrl
// @Summary      Get a backup download URL
// @Description  Issue a short-lived presigned URL for downloading a completed backup archive
// @Tags         backups
// @Produce      json
// @Param        id path string true "Backup ID" format(uuid)
// @Success      200 {object} APIResponse[platformapp.BackupDownloadDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /org/backups/{id}/download [get]
func (h *BackupHandler) Download(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	backupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid backup ID format")
		return
	}

	download, err := h.backupService.DownloadURL(c.Request.Context(), tenantID, backupID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, download)
}

// Delete godoc
// @ID           deleteBackup
// @Summary      Delete a backup
// @Description  Delete a backup record and its stored archive
// @Tags         backups
// @Produce      json
// @Param        id path string true "Backup ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /org/backups/{id} [delete]
func (h *BackupHandler) Delete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	backupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid backup ID format")
		return
	}

	if err := h.backupService.Delete(c.Request.Context(), tenantID, backupID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
