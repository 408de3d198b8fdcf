package repository

import (
	"context"
	"testing"

	"feeds/internal/models"
	"feeds/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendRepository_SQLite(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewFriendRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")

	t.Run("create and list pending", func(t *testing.T) {
		_, err := repo.CreateRequest(ctx, alice.ID, bob.ID)
		require.NoError(t, err)

		_, err = repo.CreateRequest(ctx, alice.ID, bob.ID)
		assert.ErrorIs(t, err, models.ErrDuplicateRequest)

		received, err := repo.GetPendingRequests(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, received, 1)
		assert.Equal(t, alice.ID, received[0].ID)

		sent, err := repo.GetSentRequests(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, sent, 1)
		assert.Equal(t, bob.ID, sent[0].ID)
	})

	t.Run("accept removes crossing request", func(t *testing.T) {
		_, err := repo.CreateRequest(ctx, bob.ID, alice.ID)
		require.NoError(t, err)

		require.NoError(t, repo.Accept(ctx, alice.ID, bob.ID))

		ok, err := repo.AreFriends(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		rows, err := repo.GetBetween(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, models.FriendshipStatusAccepted, rows[0].Status)

		count, err := repo.CountFriends(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("accept without request", func(t *testing.T) {
		err := repo.Accept(ctx, carol.ID, alice.ID)
		assert.ErrorIs(t, err, models.ErrRequestNotFound)
	})

	t.Run("delete pending reports existence", func(t *testing.T) {
		_, err := repo.CreateRequest(ctx, carol.ID, alice.ID)
		require.NoError(t, err)

		ok, err := repo.DeletePending(ctx, carol.ID, alice.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.DeletePending(ctx, carol.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("friends listed in order formed", func(t *testing.T) {
		testutil.MakeFriends(t, db, carol.ID, alice.ID)

		friends, err := repo.GetFriends(ctx, alice.ID, 0)
		require.NoError(t, err)
		require.Len(t, friends, 2)
		assert.Equal(t, bob.ID, friends[0].ID)
		assert.Equal(t, carol.ID, friends[1].ID)

		limited, err := repo.GetFriends(ctx, alice.ID, 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		ids, err := repo.FriendIDs(ctx, alice.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{bob.ID, carol.ID}, ids)
	})

	t.Run("remove friendship", func(t *testing.T) {
		ok, err := repo.RemoveFriendship(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.RemoveFriendship(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		friends, err := repo.AreFriends(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, friends)
	})
}
