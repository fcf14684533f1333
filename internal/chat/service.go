package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gigchat/internal/store"
)

// Service implements the direct-messaging operations shared by the REST
// and live paths. It only touches durable storage; live delivery is the
// caller's concern.
type Service struct {
	store store.Store
}

// NewService creates a chat service over the given store.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Send persists a message from senderID to recipientID.
// The conversation row is upserted before the message is inserted so a
// failure between the two never leaves a message pointing at a
// conversation that does not exist.
func (s *Service) Send(ctx context.Context, senderID, recipientID, body string) (*store.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}
	if recipientID == "" {
		return nil, ErrRecipientNotFound
	}
	if senderID == recipientID {
		return nil, ErrSelfMessage
	}

	if _, err := s.store.GetUserByID(ctx, recipientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, fmt.Errorf("lookup recipient: %w", err)
	}

	conversationID := Key(senderID, recipientID)
	participantA, participantB := sortedPair(senderID, recipientID)
	now := time.Now().UTC()

	if err := s.store.UpsertConversation(ctx, conversationID, participantA, participantB, body, now); err != nil {
		return nil, fmt.Errorf("upsert conversation: %w", err)
	}

	msg := &store.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		RecipientID:    recipientID,
		Body:           body,
		Read:           false,
		CreatedAt:      now,
	}
	if err := s.store.InsertMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return msg, nil
}

// History returns the full message history between userID and otherID,
// oldest first, and marks every message addressed to userID as read.
// Viewing is acknowledging; the mark is idempotent.
func (s *Service) History(ctx context.Context, userID, otherID string) ([]*store.Message, error) {
	if userID == otherID {
		return nil, ErrSelfMessage
	}

	conversationID := Key(userID, otherID)
	messages, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	if _, err := s.store.MarkConversationRead(ctx, conversationID, userID); err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}

	// Reflect the flip in the returned records; the store already has it.
	for _, m := range messages {
		if m.RecipientID == userID {
			m.Read = true
		}
	}

	return messages, nil
}

// Conversations returns the user's conversations annotated with the
// other participant's profile and an unread count, newest first.
func (s *Service) Conversations(ctx context.Context, userID string) ([]*store.ConversationSummary, error) {
	summaries, err := s.store.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return summaries, nil
}

// MarkRead flips read on all unread messages in the conversation
// addressed to userID and returns the other participant's ID so the
// caller can notify them. Returns ErrConversationNotFound when the ID
// resolves to nothing.
func (s *Service) MarkRead(ctx context.Context, userID, conversationID string) (string, error) {
	if _, err := s.store.MarkConversationRead(ctx, conversationID, userID); err != nil {
		return "", fmt.Errorf("mark read: %w", err)
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrConversationNotFound
		}
		return "", fmt.Errorf("get conversation: %w", err)
	}

	return conv.Other(userID), nil
}

func sortedPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
