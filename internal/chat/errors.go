package chat

import "errors"

var (
	// ErrEmptyBody is returned when a message body is empty.
	ErrEmptyBody = errors.New("message body is empty")
	// ErrSelfMessage is returned when sender and recipient are the same user.
	ErrSelfMessage = errors.New("cannot message yourself")
	// ErrRecipientNotFound is returned when the recipient does not exist.
	ErrRecipientNotFound = errors.New("recipient not found")
	// ErrConversationNotFound is returned when a conversation ID resolves
	// to no stored conversation.
	ErrConversationNotFound = errors.New("conversation not found")
)
