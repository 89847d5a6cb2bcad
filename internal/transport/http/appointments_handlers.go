package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/studylink/studylink-server/internal/service/appointments"
	"github.com/studylink/studylink-server/internal/store"
)

// AppointmentsHandlers provides HTTP handlers for appointment endpoints.
type AppointmentsHandlers struct {
	service *appointments.Service
	log     *zerolog.Logger
}

// NewAppointmentsHandlers creates a new appointments handlers instance.
func NewAppointmentsHandlers(svc *appointments.Service, logger *zerolog.Logger) *AppointmentsHandlers {
	return &AppointmentsHandlers{
		service: svc,
		log:     logger,
	}
}

// CreateAppointmentRequest represents the create appointment request body.
type CreateAppointmentRequest struct {
	ReceiverID  string    `json:"receiver_id" binding:"required"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
	Description string    `json:"description"`
}

// UpdateAppointmentStatusRequest represents the status update request body.
type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AppointmentResponse represents an appointment in API responses.
type AppointmentResponse struct {
	ID          string `json:"id"`
	SenderID    string `json:"sender_id"`
	ReceiverID  string `json:"receiver_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func appointmentToResponse(a *store.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		SenderID:    a.SenderID,
		ReceiverID:  a.ReceiverID,
		StartTime:   a.StartTime.UTC().Format(time.RFC3339),
		EndTime:     a.EndTime.UTC().Format(time.RFC3339),
		Description: a.Description,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   a.UpdatedAt.Format(time.RFC3339),
	}
}

// Create handles booking a new appointment.
// POST /api/appointments
func (h *AppointmentsHandlers) Create(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid appointment request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	appt, err := h.service.Create(c.Request.Context(), uid, req.ReceiverID, req.StartTime, req.EndTime, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrCannotBookSelf), errors.Is(err, appointments.ErrInvalidTimeRange):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, appointments.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		case errors.Is(err, appointments.ErrTimeConflict):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "appointment overlaps an existing one"})
		default:
			h.log.Error().Err(err).Str("user_id", uid).Msg("failed to create appointment")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("appointment_id", appt.ID).Str("user_id", uid).Msg("appointment created")
	c.JSON(http.StatusCreated, appointmentToResponse(appt))
}

// Get returns one appointment to a participant.
// GET /api/appointments/:id
func (h *AppointmentsHandlers) Get(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	appt, err := h.service.Get(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		h.respondAppointmentError(c, err, "failed to get appointment")
		return
	}

	c.JSON(http.StatusOK, appointmentToResponse(appt))
}

// UpdateStatus moves an appointment through its lifecycle.
// PATCH /api/appointments/:id/status
func (h *AppointmentsHandlers) UpdateStatus(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid status update request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	appt, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), uid, store.AppointmentStatus(req.Status))
	if err != nil {
		h.respondAppointmentError(c, err, "failed to update appointment status")
		return
	}

	h.log.Info().Str("appointment_id", appt.ID).Str("status", req.Status).Msg("appointment status updated")
	c.JSON(http.StatusOK, appointmentToResponse(appt))
}

// Destroy deletes an appointment.
// DELETE /api/appointments/:id
func (h *AppointmentsHandlers) Destroy(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	if err := h.service.Destroy(c.Request.Context(), c.Param("id"), uid); err != nil {
		h.respondAppointmentError(c, err, "failed to delete appointment")
		return
	}

	h.log.Info().Str("appointment_id", c.Param("id")).Str("user_id", uid).Msg("appointment deleted")
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ListMine lists the user's appointments.
// GET /api/appointments
func (h *AppointmentsHandlers) ListMine(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	appts, err := h.service.ListMine(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("failed to list appointments")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		response = append(response, appointmentToResponse(a))
	}
	c.JSON(http.StatusOK, response)
}

func (h *AppointmentsHandlers) respondAppointmentError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, appointments.ErrAppointmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "appointment not found"})
	case errors.Is(err, appointments.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not authorized for this appointment"})
	case errors.Is(err, appointments.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid appointment status"})
	case errors.Is(err, appointments.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "appointment is not in the required state"})
	default:
		h.log.Error().Err(err).Msg(logMsg)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
