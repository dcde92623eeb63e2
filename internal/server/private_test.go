package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConversationKeySymmetry verifies the pair key is identical
// regardless of argument order.
func TestConversationKeySymmetry(t *testing.T) {
	assert.Equal(t, ConversationKey("alice", "bob"), ConversationKey("bob", "alice"))
	assert.Equal(t, "alice-bob", ConversationKey("bob", "alice"))
	assert.Equal(t, "a-a", ConversationKey("a", "a"))
}

// TestAppendSharesLogAcrossDirections verifies messages sent from
// either side land in the same ordered conversation log.
func TestAppendSharesLogAcrossDirections(t *testing.T) {
	store := NewConversationStore()
	alice := testUser("u-alice", "alice")
	bob := testUser("u-bob", "bob")

	first := store.Append(alice, bob.ID, bob.Username, "hey bob")
	second := store.Append(bob, alice.ID, alice.Username, "hey alice")

	log := store.History(alice.ID, bob.ID)
	require.Len(t, log, 2)
	assert.Equal(t, first.ID, log[0].ID)
	assert.Equal(t, second.ID, log[1].ID)
	assert.Equal(t, log, store.History(bob.ID, alice.ID))

	assert.Equal(t, "u-alice", first.FromUserID)
	assert.Equal(t, "u-bob", first.ToUserID)
	assert.Equal(t, "private_message", first.Type)
	assert.False(t, first.IsRead)
}

// TestAppendRecordsOfflineRecipient verifies a message to a user with
// no live session is still written to the conversation log; recipient
// liveness only gates delivery, not storage.
func TestAppendRecordsOfflineRecipient(t *testing.T) {
	store := NewConversationStore()
	bob := testUser("u-bob", "bob")

	msg := store.Append(bob, "u-ghost", "", "anyone there?")

	log := store.History("u-ghost", bob.ID)
	require.Len(t, log, 1)
	assert.Equal(t, msg.ID, log[0].ID)
	assert.Empty(t, log[0].ToUsername)
}
