package chat

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigchat/internal/store"
	"gigchat/internal/store/sqlite"
)

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return NewService(st), st
}

func createUser(t *testing.T, st store.Store, username string) *store.User {
	t.Helper()

	u := &store.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "hash",
		DisplayName:  username,
	}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func TestSendCreatesSingleConversation(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")

	first, err := svc.Send(ctx, alice.ID, bob.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, Key(alice.ID, bob.ID), first.ConversationID)
	assert.False(t, first.Read)

	conv, err := st.GetConversation(ctx, first.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "hi", conv.LastMessage)

	// A second send (from either side) mutates the same row.
	second, err := svc.Send(ctx, bob.ID, alice.ID, "hello back")
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	conv, err = st.GetConversation(ctx, first.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "hello back", conv.LastMessage)

	summaries, err := svc.Conversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
}

func TestSendValidation(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	alice := createUser(t, st, "alice")

	_, err := svc.Send(ctx, alice.ID, alice.ID, "talking to myself")
	assert.ErrorIs(t, err, ErrSelfMessage)

	_, err = svc.Send(ctx, alice.ID, uuid.NewString(), "hello?")
	assert.ErrorIs(t, err, ErrRecipientNotFound)

	_, err = svc.Send(ctx, alice.ID, "some-id", "   ")
	assert.ErrorIs(t, err, ErrEmptyBody)

	// None of the rejected sends may leave rows behind.
	summaries, err := svc.Conversations(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestHistoryMarksOnlyCallerInboundRead(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")

	_, err := svc.Send(ctx, alice.ID, bob.ID, "one")
	require.NoError(t, err)
	_, err = svc.Send(ctx, alice.ID, bob.ID, "two")
	require.NoError(t, err)
	_, err = svc.Send(ctx, bob.ID, alice.ID, "three")
	require.NoError(t, err)

	// Bob views the history: his inbound messages flip to read, the one
	// addressed to Alice stays unread.
	messages, err := svc.History(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	for _, m := range messages {
		if m.RecipientID == bob.ID {
			assert.True(t, m.Read, "message %q should be read", m.Body)
		} else {
			assert.False(t, m.Read, "message %q addressed to alice must be untouched", m.Body)
		}
	}

	convID := Key(alice.ID, bob.ID)
	unread, err := st.CountUnread(ctx, convID, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	unread, err = st.CountUnread(ctx, convID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}

func TestConversationsUnreadCountTracksStore(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")
	carol := createUser(t, st, "carol")

	_, err := svc.Send(ctx, alice.ID, bob.ID, "to bob 1")
	require.NoError(t, err)
	_, err = svc.Send(ctx, alice.ID, bob.ID, "to bob 2")
	require.NoError(t, err)
	_, err = svc.Send(ctx, carol.ID, bob.ID, "from carol")
	require.NoError(t, err)

	summaries, err := svc.Conversations(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Newest conversation first.
	assert.Equal(t, carol.ID, summaries[0].Other.ID)
	assert.Equal(t, 1, summaries[0].UnreadCount)
	assert.Equal(t, alice.ID, summaries[1].Other.ID)
	assert.Equal(t, 2, summaries[1].UnreadCount)

	// Viewing Alice's thread zeroes only that conversation's count.
	_, err = svc.History(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	summaries, err = svc.Conversations(ctx, bob.ID)
	require.NoError(t, err)
	for _, s := range summaries {
		switch s.Other.ID {
		case alice.ID:
			assert.Zero(t, s.UnreadCount)
		case carol.ID:
			assert.Equal(t, 1, s.UnreadCount)
		}
	}
}

func TestMarkReadReturnsOtherParticipant(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")

	msg, err := svc.Send(ctx, alice.ID, bob.ID, "ping")
	require.NoError(t, err)

	otherID, err := svc.MarkRead(ctx, bob.ID, msg.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, otherID)

	unread, err := st.CountUnread(ctx, msg.ConversationID, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	// Idempotent: a second mark is a no-op.
	otherID, err = svc.MarkRead(ctx, bob.ID, msg.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, otherID)
}

func TestMarkReadUnknownConversation(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	alice := createUser(t, st, "alice")

	_, err := svc.MarkRead(ctx, alice.ID, "ghost_conversation")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}
