package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigchat/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedUser(t *testing.T, s *SQLiteStore, username string) *store.User {
	t.Helper()

	u := &store.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "hash",
		DisplayName:  username,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestUserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")

	byID, err := s.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	_, err = s.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.UpdateUserProfile(ctx, alice.ID, "Alice A.", "https://cdn/a.png"))
	byID, err = s.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", byID.DisplayName)
	assert.Equal(t, "https://cdn/a.png", byID.AvatarURL)

	assert.ErrorIs(t, s.UpdateUserProfile(ctx, "missing", "x", ""), store.ErrNotFound)
}

func TestSearchUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"alice", "alex", "alan", "bob"} {
		seedUser(t, s, name)
	}

	results, err := s.SearchUsers(ctx, "al")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "alan", results[0].Username)

	results, err = s.SearchUsers(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUpsertConversationKeepsSingleRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	convID := alice.ID + "_" + bob.ID
	t0 := time.Now().UTC()

	require.NoError(t, s.UpsertConversation(ctx, convID, alice.ID, bob.ID, "first", t0))
	require.NoError(t, s.UpsertConversation(ctx, convID, alice.ID, bob.ID, "second", t0.Add(time.Second)))

	conv, err := s.GetConversation(ctx, convID)
	require.NoError(t, err)
	assert.Equal(t, "second", conv.LastMessage)

	summaries, err := s.ListConversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, bob.ID, summaries[0].Other.ID)
}

func TestMarkConversationReadIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	convID := "conv"
	now := time.Now().UTC()

	require.NoError(t, s.UpsertConversation(ctx, convID, alice.ID, bob.ID, "x", now))
	for i, body := range []string{"one", "two"} {
		require.NoError(t, s.InsertMessage(ctx, &store.Message{
			ID:             uuid.NewString(),
			ConversationID: convID,
			SenderID:       alice.ID,
			RecipientID:    bob.ID,
			Body:           body,
			CreatedAt:      now.Add(time.Duration(i) * time.Millisecond),
		}))
	}

	count, err := s.CountUnread(ctx, convID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	affected, err := s.MarkConversationRead(ctx, convID, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)

	affected, err = s.MarkConversationRead(ctx, convID, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, affected)

	count, err = s.CountUnread(ctx, convID, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListMessagesOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	convID := "conv"
	now := time.Now().UTC()

	require.NoError(t, s.UpsertConversation(ctx, convID, alice.ID, bob.ID, "x", now))
	bodies := []string{"first", "second", "third"}
	for i, body := range bodies {
		require.NoError(t, s.InsertMessage(ctx, &store.Message{
			ID:             uuid.NewString(),
			ConversationID: convID,
			SenderID:       alice.ID,
			RecipientID:    bob.ID,
			Body:           body,
			CreatedAt:      now.Add(time.Duration(i) * time.Second),
		}))
	}

	messages, err := s.ListMessages(ctx, convID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	for i, body := range bodies {
		assert.Equal(t, body, messages[i].Body)
	}
}

func TestListConversationsOrderAndCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	carol := seedUser(t, s, "carol")

	now := time.Now().UTC()
	convAB := "ab"
	convAC := "ac"
	require.NoError(t, s.UpsertConversation(ctx, convAB, alice.ID, bob.ID, "older", now))
	require.NoError(t, s.UpsertConversation(ctx, convAC, alice.ID, carol.ID, "newer", now.Add(time.Minute)))

	require.NoError(t, s.InsertMessage(ctx, &store.Message{
		ID:             uuid.NewString(),
		ConversationID: convAB,
		SenderID:       bob.ID,
		RecipientID:    alice.ID,
		Body:           "older",
		CreatedAt:      now,
	}))

	summaries, err := s.ListConversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, convAC, summaries[0].ID)
	assert.Equal(t, carol.ID, summaries[0].Other.ID)
	assert.Zero(t, summaries[0].UnreadCount)

	assert.Equal(t, convAB, summaries[1].ID)
	assert.Equal(t, bob.ID, summaries[1].Other.ID)
	assert.Equal(t, 1, summaries[1].UnreadCount)

	// Bob only sees his own conversation, annotated with Alice.
	summaries, err = s.ListConversations(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, alice.ID, summaries[0].Other.ID)
	assert.Zero(t, summaries[0].UnreadCount)
}
