package http

import (
	"time"

	"github.com/samber/lo"

	"gigchat/internal/store"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UserResponse is a user's public profile in API responses.
type UserResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MessageResponse is a persisted message in API responses.
type MessageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Sender         string    `json:"sender"`
	Recipient      string    `json:"recipient"`
	Message        string    `json:"message"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ConversationResponse is a conversation summary in API responses:
// the other participant's profile plus the caller's unread count.
type ConversationResponse struct {
	ConversationID  string       `json:"conversationId"`
	Participant     UserResponse `json:"participant"`
	LastMessage     string       `json:"lastMessage"`
	LastMessageDate time.Time    `json:"lastMessageDate"`
	UnreadCount     int          `json:"unreadCount"`
}

func userResponseFrom(u *store.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		CreatedAt:   u.CreatedAt,
	}
}

func messageResponseFrom(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         m.SenderID,
		Recipient:      m.RecipientID,
		Message:        m.Body,
		Read:           m.Read,
		CreatedAt:      m.CreatedAt,
	}
}

func messageResponsesFrom(messages []*store.Message) []MessageResponse {
	return lo.Map(messages, func(m *store.Message, _ int) MessageResponse {
		return messageResponseFrom(m)
	})
}

func conversationResponsesFrom(summaries []*store.ConversationSummary) []ConversationResponse {
	return lo.Map(summaries, func(cs *store.ConversationSummary, _ int) ConversationResponse {
		return ConversationResponse{
			ConversationID:  cs.ID,
			Participant:     userResponseFrom(cs.Other),
			LastMessage:     cs.LastMessage,
			LastMessageDate: cs.LastMessageDate,
			UnreadCount:     cs.UnreadCount,
		}
	})
}
