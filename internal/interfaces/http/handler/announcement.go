package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	platformapp "github.com/retailsuite/backend/internal/application/platform"
)

// AnnouncementHandler handles platform announcement API endpoints: owner-plane
// CRUD and the tenant-plane active feed.
type AnnouncementHandler struct {
	BaseHandler
	announcementService *platformapp.AnnouncementService
}

// NewAnnouncementHandler creates a new AnnouncementHandler
func NewAnnouncementHandler(announcementService *platformapp.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{
		announcementService: announcementService,
	}
}

// CreateAnnouncementRequest represents a request to create an announcement
// @Description Request body for creating a platform announcement
type CreateAnnouncementRequest struct {
	Title     string   `json:"title" binding:"required,min=1,max=200" example:"Scheduled maintenance"`
	Body      string   `json:"body" binding:"required,min=1,max=5000" example:"The platform will be unavailable Sunday 02:00-03:00 UTC."`
	Severity  string   `json:"severity" binding:"required,oneof=info warning critical" example:"warning"`
	PublishAt *string  `json:"publish_at" binding:"omitempty" example:"2026-09-01T00:00:00Z"`
	ExpiresAt *string  `json:"expires_at" binding:"omitempty" example:"2026-09-08T00:00:00Z"`
	Audience  []string `json:"audience" binding:"omitempty,dive,uuid"`
}

// UpdateAnnouncementRequest represents a request to update an announcement.
// Omitted fields are left unchanged.
// @Description Request body for updating a platform announcement
type UpdateAnnouncementRequest struct {
	Title       *string   `json:"title" binding:"omitempty,min=1,max=200"`
	Body        *string   `json:"body" binding:"omitempty,min=1,max=5000"`
	Severity    *string   `json:"severity" binding:"omitempty,oneof=info warning critical"`
	PublishAt   *string   `json:"publish_at" binding:"omitempty"`
	ExpiresAt   *string   `json:"expires_at" binding:"omitempty"`
	ClearExpiry bool      `json:"clear_expiry"`
	Audience    *[]string `json:"audience" binding:"omitempty,dive,uuid"`
}

// Create godoc
// @ID           createAnnouncement
// @Summary      Create an announcement
// @Description  Create an unpublished platform announcement. An empty audience targets all tenants.
// @Tags         announcements
// @Accept       json
// @Produce      json
// @Param        request body CreateAnnouncementRequest true "Announcement creation request"
// @Success      201 {object} APIResponse[platformapp.AnnouncementDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := platformapp.CreateAnnouncementInput{
		Title:    req.Title,
		Body:     req.Body,
		Severity: req.Severity,
	}
	if req.PublishAt != nil {
		publishAt, err := time.Parse(time.RFC3339, *req.PublishAt)
		if err != nil {
			h.BadRequest(c, "Invalid publish_at, expected RFC 3339 timestamp")
			return
		}
		input.PublishAt = publishAt
	}
	if req.ExpiresAt != nil {
		expiresAt, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			h.BadRequest(c, "Invalid expires_at, expected RFC 3339 timestamp")
			return
		}
		input.ExpiresAt = &expiresAt
	}
	audience, ok := parseUUIDList(req.Audience)
	if !ok {
		h.BadRequest(c, "Invalid audience tenant ID format")
		return
	}
	input.Audience = audience
	if userID, err := getUserID(c); err == nil && userID != uuid.Nil {
		input.CreatedBy = &userID
	}

	announcement, err := h.announcementService.Create(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, announcement)
}

// GetByID godoc
// @ID           getAnnouncementById
// @Summary      Get announcement by ID
// @Description  Retrieve an announcement by its ID
// @Tags         announcements
// @Produce      json
// @Param        id path string true "Announcement ID" format(uuid)
// @Success      200 {object} APIResponse[platformapp.AnnouncementDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/announcements/{id} [get]
func (h *AnnouncementHandler) GetByID(c *gin.Context) {
	announcementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid announcement ID format")
		return
	}

	announcement, err := h.announcementService.GetByID(c.Request.Context(), announcementID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, announcement)
}

// List godoc
// @ID           listAnnouncements
// @Summary      List announcements
// @Description  Retrieve a paginated list of all announcements, published or not
// @Tags         announcements
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]platformapp.AnnouncementDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	var query struct {
		Page     int `form:"page" binding:"omitempty,min=1"`
		PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.announcementService.List(c.Request.Context(), platformapp.AnnouncementFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Announcements, result.Total, result.Page, result.PageSize)
}

// ListActive godoc
// @ID           listActiveAnnouncements
// @Summary      List active announcements
// @Description  Retrieve the published announcements currently visible to the tenant, newest first
// @Tags         announcements
// @Produce      json
// @Success      200 {object} APIResponse[[]platformapp.AnnouncementDTO]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /core/announcements [get]
func (h *AnnouncementHandler) ListActive(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	announcements, err := h.announcementService.ListActiveForTenant(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, announcements)
}

// Update godoc
// @ID           updateAnnouncement
// @Summary      Update an announcement
// @Description  Update an announcement's content, window and audience. Published changes are visible immediately.
// @Tags         announcements
// @Accept       json
// @Produce      json
// @Param        id path string true "Announcement ID" format(uuid)
// @Param        request body UpdateAnnouncementRequest true "Announcement update request"
// @Success      200 {object} APIResponse[platformapp.AnnouncementDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/announcements/{id} [put]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	announcementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid announcement ID format")
		return
	}

	var req UpdateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := platformapp.UpdateAnnouncementInput{
		ID:          announcementID,
		Title:       req.Title,
		Body:        req.Body,
		Severity:    req.Severity,
		ClearExpiry: req.ClearExpiry,
	}
	if req.PublishAt != nil {
		publishAt, err := time.Parse(time.RFC3339, *req.PublishAt)
		if err != nil {
			h.BadRequest(c, "Invalid publish_at, expected RFC 3339 timestamp")
			return
		}
		input.PublishAt = &publishAt
	}
	if req.ExpiresAt != nil {
		expiresAt, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			h.BadRequest(c, "Invalid expires_at, expected RFC 3339 timestamp")
			return
		}
		input.ExpiresAt = &expiresAt
	}
	if req.Audience != nil {
		audience, ok := parseUUIDList(*req.Audience)
		if !ok {
			h.BadRequest(c, "Invalid audience tenant ID format")
			return
		}
		input.Audience = &audience
	}

	announcement, err := h.announcementService.Update(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, announcement)
}

// Publish godoc
// @ID           publishAnnouncement
// @Summary      Publish an announcement
// @Description  Make an announcement eligible for tenant delivery within its window
// @Tags         announcements
// @Produce      json
// @Param        id path string true "Announcement ID" format(uuid)
// @Success      200 {object} APIResponse[platformapp.AnnouncementDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/announcements/{id}/publish [post]
func (h *AnnouncementHandler) Publish(c *gin.Context) {
	h.transition(c, h.announcementService.Publish)
}

// Unpublish godoc
// @ID           unpublishAnnouncement
// @Summary      Unpublish an announcement
// @Description  Withdraw an announcement from tenant delivery
// @Tags         announcements
// @Produce      json
// @Param        id path string true "Announcement ID" format(uuid)
// @Success      200 {object} APIResponse[platformapp.AnnouncementDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/announcements/{id}/unpublish [post]
func (h *AnnouncementHandler) Unpublish(c *gin.Context) {
	h.transition(c, h.announcementService.Unpublish)
}

// Delete godoc
// @ID           deleteAnnouncement
// @Summary      Delete an announcement
// @Description  Delete an announcement, published or not
// @Tags         announcements
// @Produce      json
// @Param        id path string true "Announcement ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /owner/announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	announcementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid announcement ID format")
		return
	}

	if err := h.announcementService.Delete(c.Request.Context(), announcementID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *AnnouncementHandler) transition(
	c *gin.Context,
	fn func(ctx context.Context, id uuid.UUID) (*platformapp.AnnouncementDTO, error),
) {
	announcementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid announcement ID format")
		return
	}

	announcement, err := fn(c.Request.Context(), announcementID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, announcement)
}

func parseUUIDList(values []string) ([]uuid.UUID, bool) {
	if len(values) == 0 {
		return nil, true
	}
	ids := make([]uuid.UUID, len(values))
	for i, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, false
		}
		ids[i] = id
	}
	return ids, true
}
