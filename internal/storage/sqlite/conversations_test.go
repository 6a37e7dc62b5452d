package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sofianehd/linkup/internal/storage"
)

func TestStore_ResolveDirectConversation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	first, err := store.ResolveDirectConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, storage.ConversationDirect, first.Type)
	require.ElementsMatch(t, []string{alice.ID, bob.ID}, first.Participants)

	t.Run("same pair resolves to the same conversation", func(t *testing.T) {
		again, err := store.ResolveDirectConversation(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.Equal(t, first.ID, again.ID)
	})

	t.Run("reversed pair resolves to the same conversation", func(t *testing.T) {
		reversed, err := store.ResolveDirectConversation(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		require.Equal(t, first.ID, reversed.ID)
	})

	t.Run("different pair gets its own conversation", func(t *testing.T) {
		carol := createTestUser(t, store, "carol")
		other, err := store.ResolveDirectConversation(ctx, alice.ID, carol.ID)
		require.NoError(t, err)
		require.NotEqual(t, first.ID, other.ID)
	})
}

func TestStore_DirectPairUniqueness(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	low, high := normalizePair(alice.ID, bob.ID)
	now := time.Now().UTC()

	// Simulate the other side winning first contact: the row already exists
	// when this side resolves.
	winner := conversationModel{
		ID:        "winner-conversation",
		Type:      storage.ConversationDirect,
		PairLow:   low,
		PairHigh:  high,
		CreatedAt: now,
	}
	require.NoError(t, store.db.Create(&winner).Error)
	require.NoError(t, store.db.Create(&[]conversationParticipantModel{
		{ConversationID: winner.ID, UserID: low, JoinedAt: now},
		{ConversationID: winner.ID, UserID: high, JoinedAt: now},
	}).Error)

	conv, err := store.ResolveDirectConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, winner.ID, conv.ID)

	t.Run("second pair row rejected by the unique index", func(t *testing.T) {
		dup := conversationModel{
			ID:        "loser-conversation",
			Type:      storage.ConversationDirect,
			PairLow:   low,
			PairHigh:  high,
			CreatedAt: now,
		}
		require.Error(t, store.db.Create(&dup).Error)
	})

	t.Run("the index does not constrain group conversations", func(t *testing.T) {
		for _, name := range []string{"first group", "second group"} {
			_, err := store.CreateGroupConversation(ctx, alice.ID, name, []string{bob.ID})
			require.NoError(t, err)
		}
	})
}

func TestStore_CreateGroupConversation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	carol := createTestUser(t, store, "carol")

	// Duplicates and the redundant creator ID collapse to one row each.
	conv, err := store.CreateGroupConversation(ctx, alice.ID, "weekend plans", []string{bob.ID, carol.ID, bob.ID, alice.ID})
	require.NoError(t, err)
	require.Equal(t, storage.ConversationGroup, conv.Type)
	require.Equal(t, "weekend plans", conv.Name)
	require.Equal(t, alice.ID, conv.CreatorID)
	require.ElementsMatch(t, []string{alice.ID, bob.ID, carol.ID}, conv.Participants)

	for _, id := range conv.Participants {
		ok, err := store.IsParticipant(ctx, conv.ID, id)
		require.NoError(t, err)
		require.True(t, ok)
	}

	dave := createTestUser(t, store, "dave")
	ok, err := store.IsParticipant(ctx, conv.ID, dave.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_ListConversations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	carol := createTestUser(t, store, "carol")

	withBob, err := store.ResolveDirectConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	withCarol, err := store.ResolveDirectConversation(ctx, alice.ID, carol.ID)
	require.NoError(t, err)

	sendTestMessage(t, store, withBob.ID, bob.ID, "hey", storage.MessageText)
	sendTestMessage(t, store, withBob.ID, bob.ID, "you there?", storage.MessageText)
	sendTestMessage(t, store, withCarol.ID, carol.ID, "lunch?", storage.MessageText)

	summaries, err := store.ListConversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Carol's message arrived last, so that conversation sorts first.
	require.Equal(t, withCarol.ID, summaries[0].Conversation.ID)
	require.Equal(t, "carol", summaries[0].OtherUsername)
	require.NotNil(t, summaries[0].LastMessage)
	require.Equal(t, "lunch?", summaries[0].LastMessage.Content)
	require.EqualValues(t, 1, summaries[0].UnreadCount)

	require.Equal(t, withBob.ID, summaries[1].Conversation.ID)
	require.Equal(t, "bob", summaries[1].OtherUsername)
	require.Equal(t, "you there?", summaries[1].LastMessage.Content)
	require.EqualValues(t, 2, summaries[1].UnreadCount)

	t.Run("own messages never count as unread", func(t *testing.T) {
		sendTestMessage(t, store, withBob.ID, alice.ID, "here now", storage.MessageText)
		summaries, err := store.ListConversations(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, withBob.ID, summaries[0].Conversation.ID)
		require.EqualValues(t, 2, summaries[0].UnreadCount)
	})

	t.Run("marking the conversation read clears the count", func(t *testing.T) {
		changed, err := store.MarkConversationRead(ctx, withBob.ID, alice.ID, time.Now().UTC())
		require.NoError(t, err)
		require.EqualValues(t, 2, changed)

		summaries, err := store.ListConversations(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, withBob.ID, summaries[0].Conversation.ID)
		require.EqualValues(t, 0, summaries[0].UnreadCount)
	})
}

func TestStore_DeleteConversation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	conv, err := store.ResolveDirectConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	sendTestMessage(t, store, conv.ID, alice.ID, "hello", storage.MessageText)
	sendTestMessage(t, store, conv.ID, alice.ID, "/uploads/one.png", storage.MessageImage)
	sendTestMessage(t, store, conv.ID, bob.ID, "/uploads/two.jpg", storage.MessageImage)

	paths, err := store.DeleteConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"/uploads/one.png", "/uploads/two.jpg"}, paths)

	_, err = store.GetConversation(ctx, conv.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	msgs, _, err := store.ListMessages(ctx, conv.ID, "", 0)
	require.NoError(t, err)
	require.Empty(t, msgs)

	t.Run("deleting twice reports not found", func(t *testing.T) {
		_, err := store.DeleteConversation(ctx, conv.ID)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}
