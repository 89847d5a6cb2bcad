package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/studylink/studylink-server/internal/service/reports"
	"github.com/studylink/studylink-server/internal/store"
)

// ReportsHandlers provides HTTP handlers for moderation endpoints.
type ReportsHandlers struct {
	service *reports.Service
	store   store.Store
	log     *zerolog.Logger
}

// NewReportsHandlers creates a new reports handlers instance.
func NewReportsHandlers(svc *reports.Service, st store.Store, logger *zerolog.Logger) *ReportsHandlers {
	return &ReportsHandlers{
		service: svc,
		store:   st,
		log:     logger,
	}
}

// CreateReportRequest represents the report creation request body.
type CreateReportRequest struct {
	TargetID string `json:"target_id" binding:"required"`
	Reason   string `json:"reason" binding:"required,max=1000"`
}

// UpdateReportStatusRequest represents the report status update body.
type UpdateReportStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// LockUserRequest represents the admin lock request body.
type LockUserRequest struct {
	Locked bool `json:"locked"`
}

// ReportResponse represents a report in API responses.
type ReportResponse struct {
	ID         string `json:"id"`
	ReporterID string `json:"reporter_id"`
	TargetID   string `json:"target_id"`
	Reason     string `json:"reason"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func reportToResponse(r *store.Report) ReportResponse {
	return ReportResponse{
		ID:         r.ID,
		ReporterID: r.ReporterID,
		TargetID:   r.TargetID,
		Reason:     r.Reason,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  r.UpdatedAt.Format(time.RFC3339),
	}
}

// Create files a report against another user.
// POST /api/reports
func (h *ReportsHandlers) Create(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid report request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	report, err := h.service.Create(c.Request.Context(), uid, req.TargetID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, reports.ErrCannotReportSelf), errors.Is(err, reports.ErrEmptyReason):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, reports.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		default:
			h.log.Error().Err(err).Str("reporter_id", uid).Msg("failed to create report")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("report_id", report.ID).Str("target_id", req.TargetID).Msg("report filed")
	c.JSON(http.StatusCreated, reportToResponse(report))
}

// MyWarnings lists warnings issued against the authenticated user.
// GET /api/reports/warnings
func (h *ReportsHandlers) MyWarnings(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	warnings, err := h.service.MyWarnings(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("failed to list warnings")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ReportResponse, 0, len(warnings))
	for _, r := range warnings {
		response = append(response, reportToResponse(r))
	}
	c.JSON(http.StatusOK, response)
}

// ListAll lists every report for moderators.
// GET /api/admins/reports
func (h *ReportsHandlers) ListAll(c *gin.Context) {
	all, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list reports")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ReportResponse, 0, len(all))
	for _, r := range all {
		response = append(response, reportToResponse(r))
	}
	c.JSON(http.StatusOK, response)
}

// UpdateStatus moves a report to a new status; banning locks the target.
// PUT /api/admins/reports/:id/status
func (h *ReportsHandlers) UpdateStatus(c *gin.Context) {
	var req UpdateReportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid report status request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	report, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), store.ReportStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, reports.ErrReportNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "report not found"})
		case errors.Is(err, reports.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid report status"})
		default:
			h.log.Error().Err(err).Str("report_id", c.Param("id")).Msg("failed to update report status")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("report_id", report.ID).Str("status", req.Status).Msg("report status updated")
	c.JSON(http.StatusOK, reportToResponse(report))
}

// LockUser sets or clears a user's lock flag directly.
// PUT /api/admins/lock/:id
func (h *ReportsHandlers) LockUser(c *gin.Context) {
	var req LockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid lock request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.store.SetUserLock(c.Request.Context(), c.Param("id"), req.Locked); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Str("user_id", c.Param("id")).Msg("failed to set user lock")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("user_id", c.Param("id")).Bool("locked", req.Locked).Msg("user lock updated")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
