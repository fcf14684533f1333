package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User is a member of the user directory.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	DisplayName  string
	AvatarURL    string
	CreatedAt    time.Time
}

// Conversation is the durable summary record for one pair of users.
// ID is the canonical conversation key; ParticipantA/ParticipantB hold
// the pair in the key's sorted order. At most one row exists per pair.
type Conversation struct {
	ID              string
	ParticipantA    string
	ParticipantB    string
	LastMessage     string
	LastMessageDate time.Time
	CreatedAt       time.Time
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID string) string {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// Message is a persisted direct message.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	RecipientID    string
	Body           string
	Read           bool
	CreatedAt      time.Time
}

// ConversationSummary is a conversation annotated for listing: the other
// participant's public profile plus the caller's unread count.
type ConversationSummary struct {
	Conversation
	Other       *User
	UnreadCount int
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser inserts a new user record.
	CreateUser(ctx context.Context, u *User) error

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// UpdateUserProfile updates display name and avatar URL.
	UpdateUserProfile(ctx context.Context, id, displayName, avatarURL string) error

	// SearchUsers searches for users by username or display name.
	SearchUsers(ctx context.Context, query string) ([]*User, error)
}

// ConversationStore handles conversation persistence.
type ConversationStore interface {
	// UpsertConversation creates the conversation row for the pair if it
	// does not exist, otherwise overwrites last message and date.
	// Last write wins under concurrent sends.
	UpsertConversation(ctx context.Context, id, participantA, participantB, lastMessage string, at time.Time) error

	// GetConversation retrieves a conversation by its canonical ID.
	GetConversation(ctx context.Context, id string) (*Conversation, error)

	// ListConversations returns all conversations the user participates in,
	// annotated with the other participant and the user's unread count,
	// ordered by last message date descending.
	ListConversations(ctx context.Context, userID string) ([]*ConversationSummary, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// InsertMessage persists a message.
	InsertMessage(ctx context.Context, m *Message) error

	// ListMessages returns all messages in a conversation, oldest first.
	ListMessages(ctx context.Context, conversationID string) ([]*Message, error)

	// MarkConversationRead flips read on every unread message in the
	// conversation addressed to recipientID. Idempotent; returns the
	// number of rows updated.
	MarkConversationRead(ctx context.Context, conversationID, recipientID string) (int64, error)

	// CountUnread counts unread messages in a conversation addressed to
	// recipientID.
	CountUnread(ctx context.Context, conversationID, recipientID string) (int, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ConversationStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
