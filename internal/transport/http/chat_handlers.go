package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gigchat/internal/chat"
)

// ChatHandlers provides HTTP handlers for messaging. This is the
// asynchronous access path: sends persist without any live-delivery
// attempt, fetches are authoritative because they read the store.
type ChatHandlers struct {
	chats *chat.Service
	log   *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(chats *chat.Service, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		chats: chats,
		log:   logger,
	}
}

// SendMessageRequest represents the send request body.
type SendMessageRequest struct {
	RecipientID string `json:"recipientId" binding:"required"`
	Message     string `json:"message" binding:"required"`
}

// SendMessage persists a message for a client without a live session.
// POST /api/chats/messages
func (h *ChatHandlers) SendMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "recipient id and message are required"})
		return
	}

	msg, err := h.chats.Send(c.Request.Context(), user.ID, req.RecipientID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrRecipientNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "recipient not found"})
		case errors.Is(err, chat.ErrSelfMessage), errors.Is(err, chat.ErrEmptyBody):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			h.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to send message")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, messageResponseFrom(msg))
}

// GetMessages returns the history with another user, oldest first, and
// marks the caller's inbound messages as read.
// GET /api/chats/messages/:userId
func (h *ChatHandlers) GetMessages(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	otherID := c.Param("userId")
	messages, err := h.chats.History(c.Request.Context(), user.ID, otherID)
	if err != nil {
		if errors.Is(err, chat.ErrSelfMessage) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		h.log.Error().Err(err).Str("user_id", user.ID).Str("other_id", otherID).Msg("failed to get messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, messageResponsesFrom(messages))
}

// GetConversations lists the caller's conversations, newest first.
// GET /api/chats/conversations
func (h *ChatHandlers) GetConversations(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	summaries, err := h.chats.Conversations(c.Request.Context(), user.ID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to list conversations")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, conversationResponsesFrom(summaries))
}
