package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/studylink/studylink-server/internal/relay"
	"github.com/studylink/studylink-server/internal/store"
)

// MessagesHandlers provides HTTP handlers for persisted chat messages.
type MessagesHandlers struct {
	store store.Store
	hub   *relay.Hub
	log   *zerolog.Logger
}

// NewMessagesHandlers creates a new messages handlers instance.
func NewMessagesHandlers(st store.Store, hub *relay.Hub, logger *zerolog.Logger) *MessagesHandlers {
	return &MessagesHandlers{
		store: st,
		hub:   hub,
		log:   logger,
	}
}

// SendMessageRequest represents the persisted message request body.
type SendMessageRequest struct {
	ChatRoomID string `json:"chat_room_id" binding:"required"`
	Content    string `json:"content" binding:"required,max=4000"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID         string `json:"id"`
	ChatRoomID string `json:"chat_room_id"`
	SenderID   string `json:"sender_id"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at"`
}

func messageToResponse(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		ChatRoomID: m.ChatRoomID,
		SenderID:   m.SenderID,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt.Format(time.RFC3339),
	}
}

// Send persists a message and injects it into the live room fanout.
// POST /api/messages
func (h *MessagesHandlers) Send(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid message request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	participant, err := h.store.IsParticipant(c.Request.Context(), uid, req.ChatRoomID)
	if err != nil {
		h.log.Error().Err(err).Str("room_id", req.ChatRoomID).Msg("failed to check room participation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if !participant {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not a participant of this chat room"})
		return
	}

	msg := &store.Message{
		ChatRoomID: req.ChatRoomID,
		SenderID:   uid,
		Content:    req.Content,
	}
	if err := h.store.SaveMessage(c.Request.Context(), msg); err != nil {
		h.log.Error().Err(err).Str("room_id", req.ChatRoomID).Msg("failed to save message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	// Live delivery is best effort; the message is already durable.
	h.hub.InjectMessage(relay.ChatMessage{
		ChatRoomID: msg.ChatRoomID,
		UserID:     msg.SenderID,
		Message:    msg.Content,
		Timestamp:  msg.CreatedAt.Unix(),
	})

	c.JSON(http.StatusCreated, messageToResponse(msg))
}

// History pages a room's message history for participants.
// GET /api/messages/:roomId
func (h *MessagesHandlers) History(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	roomID := c.Param("roomId")
	participant, err := h.store.IsParticipant(c.Request.Context(), uid, roomID)
	if err != nil {
		h.log.Error().Err(err).Str("room_id", roomID).Msg("failed to check room participation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if !participant {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not a participant of this chat room"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	var beforeID *string
	if raw := c.Query("before"); raw != "" {
		beforeID = &raw
	}

	messages, err := h.store.ListMessages(c.Request.Context(), roomID, limit, beforeID)
	if err != nil {
		h.log.Error().Err(err).Str("room_id", roomID).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		response = append(response, messageToResponse(m))
	}
	c.JSON(http.StatusOK, response)
}

// BroadcastRequest is the trusted fanout injection payload.
type BroadcastRequest struct {
	ChatRoomID string `json:"chatRoomId"`
	UserID     string `json:"userId"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
}

// Broadcast injects an already persisted message into the live room
// fanout. Trusted caller only; success does not imply live delivery.
// POST /broadcast
func (h *MessagesHandlers) Broadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ChatRoomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error"})
		return
	}

	h.hub.InjectMessage(relay.ChatMessage{
		ChatRoomID: req.ChatRoomID,
		UserID:     req.UserID,
		Message:    req.Message,
		Timestamp:  req.Timestamp,
	})

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
