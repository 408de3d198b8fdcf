package repository

import (
	"context"
	"testing"

	"feeds/internal/models"
	"feeds/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_Tree(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "writer")
	post := createPost(t, db, user.ID, models.PrivacyPublic, "thread")
	other := createPost(t, db, user.ID, models.PrivacyPublic, "elsewhere")

	add := func(parent *uint, content string) *models.Comment {
		c := &models.Comment{UserID: user.ID, PostID: post.ID, ParentID: parent, Content: content}
		require.NoError(t, repo.Create(ctx, c))
		return c
	}

	root := add(nil, "root")
	sibling := add(nil, "sibling")
	child := add(&root.ID, "child")
	grandchild := add(&child.ID, "grandchild")
	greatGrandchild := add(&grandchild.ID, "great-grandchild")
	secondChild := add(&root.ID, "second child")

	t.Run("create records children", func(t *testing.T) {
		got, err := repo.GetByID(ctx, root.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{child.ID, secondChild.ID}, got.Children)

		replies, err := repo.ListReplies(ctx, root.ID)
		require.NoError(t, err)
		require.Len(t, replies, 2)
		assert.Equal(t, child.ID, replies[0].ID)
	})

	t.Run("reply to a comment on another post", func(t *testing.T) {
		err := repo.Create(ctx, &models.Comment{UserID: user.ID, PostID: other.ID, ParentID: &root.ID, Content: "x"})
		assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	})

	t.Run("reply to missing parent", func(t *testing.T) {
		missing := uint(9999)
		err := repo.Create(ctx, &models.Comment{UserID: user.ID, PostID: post.ID, ParentID: &missing, Content: "x"})
		assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	})

	t.Run("top level pagination", func(t *testing.T) {
		comments, total, err := repo.ListTopLevel(ctx, post.ID, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, comments, 1)
		assert.Equal(t, sibling.ID, comments[0].ID)

		count, err := repo.CountByPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(6), count)
	})

	t.Run("delete removes every descendant", func(t *testing.T) {
		removed, err := repo.DeleteCascade(ctx, child.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{child.ID, grandchild.ID, greatGrandchild.ID}, removed)

		for _, id := range removed {
			_, err := repo.GetByID(ctx, id)
			assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
		}

		got, err := repo.GetByID(ctx, root.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{secondChild.ID}, got.Children)
	})

	t.Run("delete root of remaining tree", func(t *testing.T) {
		removed, err := repo.DeleteCascade(ctx, root.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{root.ID, secondChild.ID}, removed)

		count, err := repo.CountByPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("delete missing", func(t *testing.T) {
		_, err := repo.DeleteCascade(ctx, root.ID)
		assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	})

	t.Run("reactions", func(t *testing.T) {
		c, err := repo.UpdateReactions(ctx, sibling.ID, func(rs []models.Reaction) []models.Reaction {
			return append(rs, models.Reaction{UserID: user.ID, Type: "love"})
		})
		require.NoError(t, err)
		assert.Equal(t, []models.Reaction{{UserID: user.ID, Type: "love"}}, c.Reactions)
	})
}
