package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/studylink/studylink-server/internal/service/connections"
	"github.com/studylink/studylink-server/internal/store"
)

// ConnectionsHandlers provides HTTP handlers for connection endpoints.
type ConnectionsHandlers struct {
	service *connections.Service
	store   store.Store
	log     *zerolog.Logger
}

// NewConnectionsHandlers creates a new connections handlers instance.
func NewConnectionsHandlers(svc *connections.Service, st store.Store, logger *zerolog.Logger) *ConnectionsHandlers {
	return &ConnectionsHandlers{
		service: svc,
		store:   st,
		log:     logger,
	}
}

// SendConnectionRequest represents the request body for sending a
// connection request.
type SendConnectionRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// DisconnectRequest represents the request body for disconnecting.
type DisconnectRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// ConnectionResponse represents a connection in API responses.
type ConnectionResponse struct {
	ID         string  `json:"id"`
	SenderID   string  `json:"sender_id"`
	ReceiverID string  `json:"receiver_id"`
	Status     string  `json:"status"`
	ChatRoomID *string `json:"chat_room_id,omitempty"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
	// Display name of the other side of the pair.
	OtherName string `json:"other_name,omitempty"`
}

func (h *ConnectionsHandlers) connectionToResponse(c *gin.Context, conn *store.Connection, currentUserID string) ConnectionResponse {
	resp := ConnectionResponse{
		ID:         conn.ID,
		SenderID:   conn.SenderID,
		ReceiverID: conn.ReceiverID,
		Status:     string(conn.Status),
		ChatRoomID: conn.ChatRoomID,
		CreatedAt:  conn.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  conn.UpdatedAt.Format(time.RFC3339),
	}

	otherUserID := conn.ReceiverID
	if otherUserID == currentUserID {
		otherUserID = conn.SenderID
	}
	if user, err := h.store.GetUserByID(c.Request.Context(), otherUserID); err == nil {
		resp.OtherName = user.Name
	}

	return resp
}

// SendRequest handles sending a connection request.
// POST /api/connections/request
func (h *ConnectionsHandlers) SendRequest(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req SendConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid connection request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	conn, err := h.service.SendRequest(c.Request.Context(), uid, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, connections.ErrCannotConnectSelf):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot send connection request to yourself"})
		case errors.Is(err, connections.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		case errors.Is(err, connections.ErrAlreadyConnected):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "already connected"})
		case errors.Is(err, connections.ErrRequestAlreadyExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "connection request already exists"})
		default:
			h.log.Error().Err(err).Str("from", uid).Str("to", req.UserID).Msg("failed to send connection request")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("from", uid).Str("to", req.UserID).Msg("connection request sent")
	c.JSON(http.StatusCreated, h.connectionToResponse(c, conn, uid))
}

// Accept handles accepting a connection request.
// PUT /api/connections/:id/accept
func (h *ConnectionsHandlers) Accept(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	conn, err := h.service.Accept(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		h.respondConnectionError(c, err, "failed to accept connection")
		return
	}

	h.log.Info().Str("connection_id", conn.ID).Str("user_id", uid).Msg("connection accepted")
	c.JSON(http.StatusOK, h.connectionToResponse(c, conn, uid))
}

// Reject handles declining a connection request.
// PUT /api/connections/:id/reject
func (h *ConnectionsHandlers) Reject(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	if err := h.service.Decline(c.Request.Context(), c.Param("id"), uid); err != nil {
		h.respondConnectionError(c, err, "failed to reject connection")
		return
	}

	h.log.Info().Str("connection_id", c.Param("id")).Str("user_id", uid).Msg("connection rejected")
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// Cancel withdraws an outgoing pending request.
// DELETE /api/connections/cancel/:receiverId
func (h *ConnectionsHandlers) Cancel(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	if err := h.service.Cancel(c.Request.Context(), uid, c.Param("receiverId")); err != nil {
		h.respondConnectionError(c, err, "failed to cancel connection")
		return
	}

	h.log.Info().Str("user_id", uid).Str("receiver_id", c.Param("receiverId")).Msg("connection request canceled")
	c.JSON(http.StatusOK, gin.H{"status": "canceled"})
}

// Disconnect removes an accepted connection and its chat room.
// DELETE /api/connections/disconnect
func (h *ConnectionsHandlers) Disconnect(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req DisconnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid disconnect request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.service.Disconnect(c.Request.Context(), uid, req.UserID); err != nil {
		h.respondConnectionError(c, err, "failed to disconnect")
		return
	}

	h.log.Info().Str("user_id", uid).Str("other_user_id", req.UserID).Msg("disconnected")
	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}

// Status reports the relation to another user.
// GET /api/connections/status/:userId
func (h *ConnectionsHandlers) Status(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	status, err := h.service.Status(c.Request.Context(), uid, c.Param("userId"))
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("failed to get connection status")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

// ListPending lists incoming pending requests.
// GET /api/connections/pending
func (h *ConnectionsHandlers) ListPending(c *gin.Context) {
	h.list(c, h.service.ListPending)
}

// ListAccepted lists accepted connections.
// GET /api/connections/accepted
func (h *ConnectionsHandlers) ListAccepted(c *gin.Context) {
	h.list(c, h.service.ListAccepted)
}

func (h *ConnectionsHandlers) list(c *gin.Context, f func(ctx context.Context, userID string) ([]*store.Connection, error)) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	conns, err := f(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("failed to list connections")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ConnectionResponse, 0, len(conns))
	for _, conn := range conns {
		response = append(response, h.connectionToResponse(c, conn, uid))
	}
	c.JSON(http.StatusOK, response)
}

func (h *ConnectionsHandlers) respondConnectionError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, connections.ErrConnectionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "connection not found"})
	case errors.Is(err, connections.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not authorized for this connection"})
	case errors.Is(err, connections.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "connection is not in the required state"})
	default:
		h.log.Error().Err(err).Msg(logMsg)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
