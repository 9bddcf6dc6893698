package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-admin/pkg/simpleadmin"
	"github.com/tendant/simple-admin/pkg/simpleadmin/repo/memory"
)

func newPost(title string, created time.Time) *simpleadmin.Post {
	return &simpleadmin.Post{
		ID:        uuid.New(),
		Title:     title,
		Slug:      title,
		Images:    []string{"images/" + title + ".png"},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestRepository_PostLifecycle(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	older := newPost("older", now.Add(-time.Hour))
	newer := newPost("newer", now)
	require.NoError(t, repo.CreatePost(ctx, older))
	require.NoError(t, repo.CreatePost(ctx, newer))

	t.Run("ListNewestFirst", func(t *testing.T) {
		posts, err := repo.ListPosts(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, newer.ID, posts[0].ID)
		assert.Equal(t, older.ID, posts[1].ID)
	})

	t.Run("ReturnsCopies", func(t *testing.T) {
		got, err := repo.GetPost(ctx, older.ID)
		require.NoError(t, err)
		got.Title = "changed"
		got.Images[0] = "images/changed.png"

		again, err := repo.GetPost(ctx, older.ID)
		require.NoError(t, err)
		assert.Equal(t, "older", again.Title)
		assert.Equal(t, []string{"images/older.png"}, again.Images)
	})

	t.Run("SetPublishedOnlyChangesFlag", func(t *testing.T) {
		updated, err := repo.SetPublished(ctx, newer.ID, true)
		require.NoError(t, err)
		assert.True(t, updated.Published)
		assert.Equal(t, newer.Title, updated.Title)
		assert.Equal(t, newer.Images, updated.Images)

		updated, err = repo.SetPublished(ctx, newer.ID, false)
		require.NoError(t, err)
		assert.False(t, updated.Published)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.DeletePost(ctx, older.ID))
		_, err := repo.GetPost(ctx, older.ID)
		assert.ErrorIs(t, err, simpleadmin.ErrPostNotFound)
		assert.ErrorIs(t, repo.DeletePost(ctx, older.ID), simpleadmin.ErrPostNotFound)
	})

	t.Run("UnknownPost", func(t *testing.T) {
		_, err := repo.SetPublished(ctx, uuid.New(), true)
		assert.ErrorIs(t, err, simpleadmin.ErrPostNotFound)
	})
}

func TestRepository_DuplicateSlug(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	first := newPost("first", time.Now())
	first.Slug = "hello"
	require.NoError(t, repo.CreatePost(ctx, first))

	second := newPost("second", time.Now())
	second.Slug = "hello"
	assert.ErrorIs(t, repo.CreatePost(ctx, second), simpleadmin.ErrDuplicateSlug)

	t.Run("EmptySlugIsStillUnique", func(t *testing.T) {
		blank := newPost("blank", time.Now())
		blank.Slug = ""
		require.NoError(t, repo.CreatePost(ctx, blank))

		again := newPost("again", time.Now())
		again.Slug = ""
		assert.ErrorIs(t, repo.CreatePost(ctx, again), simpleadmin.ErrDuplicateSlug)
	})
}
