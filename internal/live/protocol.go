package live

import (
	"encoding/json"
	"time"

	"gigchat/internal/store"
)

// Inbound is the envelope for frames coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Outbound is the envelope for frames sent to the client.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

const (
	InboundTypeHello       = "hello"
	InboundTypeSendMessage = "sendMessage"
	InboundTypeTyping      = "typing"
	InboundTypeStopTyping  = "stopTyping"
	InboundTypeMarkAsRead  = "markAsRead"

	OutboundTypeOnlineUsers  = "getOnlineUsers"
	OutboundTypeNewMessage   = "newMessage"
	OutboundTypeMessageSent  = "messageSent"
	OutboundTypeTyping       = "userTyping"
	OutboundTypeStopTyping   = "userStoppedTyping"
	OutboundTypeMessagesRead = "messagesRead"
	OutboundTypeError        = "error"
)

// HelloData authenticates the connection. It must be the first frame.
type HelloData struct {
	Token string `json:"token"`
}

// SendMessageData asks to deliver a message to another user.
type SendMessageData struct {
	RecipientID string `json:"recipientId"`
	Message     string `json:"message"`
}

// TypingData carries the target of a typing indicator.
type TypingData struct {
	RecipientID string `json:"recipientId"`
}

// MarkAsReadData acknowledges a whole conversation.
type MarkAsReadData struct {
	ConversationID string `json:"conversationId"`
}

// Profile is the public slice of a user attached to outbound events.
type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// MessageData is a persisted message on the wire.
type MessageData struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Sender         string    `json:"sender"`
	Recipient      string    `json:"recipient"`
	Message        string    `json:"message"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"createdAt"`
	SenderProfile  *Profile  `json:"senderProfile,omitempty"`
}

// TypingEvent names the user typing (or no longer typing).
type TypingEvent struct {
	UserID string `json:"userId"`
}

// MessagesReadData tells the other participant who read what.
type MessagesReadData struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
}

// ErrorData is a scoped failure delivered only to the failing actor.
type ErrorData struct {
	Message string `json:"message"`
}

// ProfileOf maps a stored user to its public profile.
func ProfileOf(u *store.User) *Profile {
	return &Profile{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// MessageDataOf maps a persisted message to its wire form.
func MessageDataOf(m *store.Message, sender *store.User) MessageData {
	data := MessageData{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         m.SenderID,
		Recipient:      m.RecipientID,
		Message:        m.Body,
		Read:           m.Read,
		CreatedAt:      m.CreatedAt,
	}
	if sender != nil {
		data.SenderProfile = ProfileOf(sender)
	}
	return data
}
