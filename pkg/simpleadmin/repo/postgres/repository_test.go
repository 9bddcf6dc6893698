package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-admin/pkg/simpleadmin"
)

func newTestRepository(t *testing.T) simpleadmin.Repository {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(ctx), "Failed to ping test database")
	require.NoError(t, Migrate(ctx, pool))
	_, err = pool.Exec(ctx, "TRUNCATE post")
	require.NoError(t, err)

	return NewWithPool(pool)
}

func TestRepository_Posts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	post := &simpleadmin.Post{
		ID:         uuid.New(),
		Title:      "Hello",
		Slug:       "hello",
		CoverImage: "images/cover.png",
		Images:     []string{"images/a.png", "images/b.png"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, repo.CreatePost(ctx, post))

	got, err := repo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Images, got.Images)
	assert.False(t, got.Published)

	updated, err := repo.SetPublished(ctx, post.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Published)
	assert.Equal(t, "Hello", updated.Title)

	dup := *post
	dup.ID = uuid.New()
	assert.ErrorIs(t, repo.CreatePost(ctx, &dup), simpleadmin.ErrDuplicateSlug)

	posts, err := repo.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	require.NoError(t, repo.DeletePost(ctx, post.ID))
	_, err = repo.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, simpleadmin.ErrPostNotFound)
	assert.ErrorIs(t, repo.DeletePost(ctx, post.ID), simpleadmin.ErrPostNotFound)
}
