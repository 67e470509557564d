package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/circulation/internal/middleware"
	"github.com/ngenohkevin/circulation/internal/models"
	"github.com/ngenohkevin/circulation/internal/services"
)

type StaleSweeper interface {
	SweepStale(ctx context.Context, now time.Time) (models.SweepResult, error)
}

type OverdueMarker interface {
	MarkOverdue(ctx context.Context, asOf models.Date) (models.SweepResult, error)
}

type SettingsServiceInterface interface {
	LibrarySettings(ctx context.Context) (models.LibrarySettings, error)
	NotificationSettings(ctx context.Context) (models.NotificationSettings, error)
	Update(ctx context.Context, req models.UpdateSettingsRequest, actor models.Actor) (models.LibrarySettings, error)
}

type AuditLister interface {
	List(ctx context.Context, eventType string, page, limit int) ([]models.AuditEntry, error)
}

type QueueInspector interface {
	Stats(ctx context.Context, now time.Time) (*services.QueueStats, error)
}

// AdminHandler serves the operator endpoints: sweeps, settings, audit trail
// and the notification queue.
type AdminHandler struct {
	reservations StaleSweeper
	loans        OverdueMarker
	settings     SettingsServiceInterface
	audit        AuditLister
	queue        QueueInspector
	clock        func() time.Time
}

func NewAdminHandler(reservations StaleSweeper, loans OverdueMarker, settings SettingsServiceInterface, audit AuditLister, queue QueueInspector) *AdminHandler {
	return &AdminHandler{
		reservations: reservations,
		loans:        loans,
		settings:     settings,
		audit:        audit,
		queue:        queue,
		clock:        time.Now,
	}
}

// SweepStaleReservations cancels holds whose pickup window has lapsed
// @Summary Cancel stale reservations
// @Tags admin
// @Produce json
// @Success 200 {object} SuccessResponse{data=models.SweepResult}
// @Router /api/v1/admin/sweeps/stale-reservations [post]
func (h *AdminHandler) SweepStaleReservations(c *gin.Context) {
	result, err := h.reservations.SweepStale(c.Request.Context(), h.clock())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: result, Message: "Stale reservations swept"})
}

// MarkOverdueLoans flags issued loans past their due date
// @Summary Mark overdue loans
// @Tags admin
// @Produce json
// @Param as_of query string false "Reference date (YYYY-MM-DD), default today"
// @Success 200 {object} SuccessResponse{data=models.SweepResult}
// @Router /api/v1/admin/sweeps/overdue-loans [post]
func (h *AdminHandler) MarkOverdueLoans(c *gin.Context) {
	asOf, err := optionalDate(c.Query("as_of"))
	if err != nil {
		respondValidation(c, "Invalid as_of", err)
		return
	}
	result, err := h.loans.MarkOverdue(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: result, Message: "Overdue loans marked"})
}

type settingsResponse struct {
	Library       models.LibrarySettings      `json:"library"`
	Notifications models.NotificationSettings `json:"notifications"`
}

// GetSettings returns the rules in force
// @Summary Get library settings
// @Tags admin
// @Produce json
// @Success 200 {object} SuccessResponse{data=settingsResponse}
// @Router /api/v1/admin/settings [get]
func (h *AdminHandler) GetSettings(c *gin.Context) {
	library, err := h.settings.LibrarySettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	toggles, err := h.settings.NotificationSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: settingsResponse{Library: library, Notifications: toggles}})
}

// UpdateSettings replaces the library rules
// @Summary Update library settings
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.UpdateSettingsRequest true "Settings"
// @Success 200 {object} SuccessResponse{data=models.LibrarySettings}
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/admin/settings [put]
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req models.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request data", err)
		return
	}
	actor, _ := middleware.GetActor(c)
	settings, err := h.settings.Update(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: settings, Message: "Settings updated successfully"})
}

// ListAuditLogs returns the audit trail, newest first
// @Summary List audit logs
// @Tags admin
// @Produce json
// @Param event_type query string false "Event type"
// @Success 200 {object} SuccessResponse{data=[]models.AuditEntry}
// @Router /api/v1/admin/audit-logs [get]
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	var page pageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		respondValidation(c, "Invalid query parameters", err)
		return
	}
	entries, err := h.audit.List(c.Request.Context(), c.Query("event_type"), page.Page, page.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: entries})
}

// QueueStats reports the notification queue depth
// @Summary Notification queue statistics
// @Tags admin
// @Produce json
// @Success 200 {object} SuccessResponse{data=services.QueueStats}
// @Router /api/v1/admin/notifications/queue [get]
func (h *AdminHandler) QueueStats(c *gin.Context) {
	stats, err := h.queue.Stats(c.Request.Context(), h.clock())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: stats})
}
