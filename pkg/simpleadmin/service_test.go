package simpleadmin_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-admin/pkg/simpleadmin"
	"github.com/tendant/simple-admin/pkg/simpleadmin/presigned"
	"github.com/tendant/simple-admin/pkg/simpleadmin/repo/memory"
	memorystorage "github.com/tendant/simple-admin/pkg/simpleadmin/storage/memory"
)

type recordingNotifier struct {
	mu    sync.Mutex
	items []simpleadmin.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n simpleadmin.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recordingNotifier) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.items))
	for _, n := range r.items {
		out = append(out, n.Message)
	}
	return out
}

type countingRepo struct {
	simpleadmin.Repository
	setPublishedCalls int
	deleteCalls       int
}

func (c *countingRepo) SetPublished(ctx context.Context, id uuid.UUID, published bool) (*simpleadmin.Post, error) {
	c.setPublishedCalls++
	return c.Repository.SetPublished(ctx, id, published)
}

func (c *countingRepo) DeletePost(ctx context.Context, id uuid.UUID) error {
	c.deleteCalls++
	return c.Repository.DeletePost(ctx, id)
}

type fixture struct {
	svc      simpleadmin.Service
	repo     *countingRepo
	store    *memorystorage.Backend
	notifier *recordingNotifier
}

func setupTestService(t *testing.T, opts ...simpleadmin.Option) *fixture {
	t.Helper()
	f := &fixture{
		repo:     &countingRepo{Repository: memory.New()},
		store:    memorystorage.New(nil),
		notifier: &recordingNotifier{},
	}
	options := append([]simpleadmin.Option{
		simpleadmin.WithRepository(f.repo),
		simpleadmin.WithMediaStore("memory", f.store),
		simpleadmin.WithNotifier(f.notifier),
	}, opts...)

	svc, err := simpleadmin.New(options...)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []simpleadmin.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			expectError: true,
		},
		{
			name:        "repository without media store should fail",
			options:     []simpleadmin.Option{simpleadmin.WithRepository(memory.New())},
			expectError: true,
		},
		{
			name: "repository and media store should succeed",
			options: []simpleadmin.Option{
				simpleadmin.WithRepository(memory.New()),
				simpleadmin.WithMediaStore("memory", memorystorage.New(nil)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := simpleadmin.New(tt.options...)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestService_CreatePost(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	post, err := f.svc.CreatePost(ctx, simpleadmin.CreatePostRequest{
		Title:  "  Hello, World!  ",
		Images: []string{"images/a.png", " ", "images/b.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", post.Title)
	assert.Equal(t, "hello-world", post.Slug)
	assert.Equal(t, []string{"images/a.png", "images/b.png"}, post.Images)
	assert.False(t, post.Published)

	_, err = f.svc.CreatePost(ctx, simpleadmin.CreatePostRequest{Title: " "})
	assert.ErrorIs(t, err, simpleadmin.ErrInvalidPost)

	posts, err := f.svc.ListPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	t.Run("TitleWithoutSlugCharacters", func(t *testing.T) {
		first, err := f.svc.CreatePost(ctx, simpleadmin.CreatePostRequest{Title: "!!!"})
		require.NoError(t, err)
		assert.Equal(t, first.ID.String(), first.Slug)

		second, err := f.svc.CreatePost(ctx, simpleadmin.CreatePostRequest{Title: "???"})
		require.NoError(t, err)
		assert.Equal(t, second.ID.String(), second.Slug)
		assert.NotEqual(t, first.Slug, second.Slug)
	})
}

func TestService_PublishUnpublish(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	post, err := f.svc.CreatePost(ctx, simpleadmin.CreatePostRequest{Title: "Draft", Content: "body"})
	require.NoError(t, err)

	published, err := f.svc.PublishPost(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, published.Published)
	assert.Equal(t, "body", published.Content)

	unpublished, err := f.svc.UnpublishPost(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, unpublished.Published)

	assert.Equal(t, []string{
		"Post successfully created!",
		"🔥 Post successfully published!",
		"Post successfully unpublished!",
	}, f.notifier.messages())

	_, err = f.svc.PublishPost(ctx, uuid.New())
	assert.ErrorIs(t, err, simpleadmin.ErrPostNotFound)
	var postErr *simpleadmin.PostError
	assert.True(t, errors.As(err, &postErr))
	assert.Equal(t, "publish", postErr.Op)
}

func TestService_DeclinedConfirmationChangesNothing(t *testing.T) {
	var prompts []string
	confirmer := simpleadmin.ConfirmFunc(func(_ context.Context, prompt string) bool {
		prompts = append(prompts, prompt)
		return false
	})
	f := setupTestService(t, simpleadmin.WithConfirmer(confirmer))
	ctx := context.Background()

	post, err := f.svc.CreatePost(ctx, simpleadmin.CreatePostRequest{Title: "Keep me"})
	require.NoError(t, err)

	_, err = f.svc.PublishPost(ctx, post.ID)
	assert.ErrorIs(t, err, simpleadmin.ErrNotConfirmed)
	_, err = f.svc.UnpublishPost(ctx, post.ID)
	assert.ErrorIs(t, err, simpleadmin.ErrNotConfirmed)
	assert.ErrorIs(t, f.svc.DeletePost(ctx, post.ID), simpleadmin.ErrNotConfirmed)

	assert.Zero(t, f.repo.setPublishedCalls)
	assert.Zero(t, f.repo.deleteCalls)
	assert.Equal(t, []string{
		"Are you sure you'd like to publish this post?",
		"Are you sure you'd like to unpublish this post?",
		"Are you sure you'd like to delete this post?",
	}, prompts)

	got, err := f.svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, got.Published)

	// A request-scoped confirmer overrides the service-wide one
	approved := simpleadmin.ContextWithConfirmer(ctx, simpleadmin.AlwaysConfirm)
	require.NoError(t, f.svc.DeletePost(approved, post.ID))
	assert.Equal(t, 1, f.repo.deleteCalls)
}

func TestService_Media(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	d, err := f.svc.UploadMedia(ctx, strings.NewReader("png"), simpleadmin.UploadMediaRequest{Key: "a.png", MimeType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "a.png", d.Key)
	assert.Equal(t, "memory:///images/a.png", d.URL)

	_, err = f.svc.UploadMedia(ctx, strings.NewReader("x"), simpleadmin.UploadMediaRequest{Key: "../a.png"})
	assert.ErrorIs(t, err, simpleadmin.ErrInvalidMediaKey)

	// Objects outside the media prefix are not media
	require.NoError(t, f.store.Upload(ctx, "drafts/x.png", strings.NewReader("x"), "image/png"))

	media, err := f.svc.ListMedia(ctx)
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.Equal(t, "a.png", media[0].Key)
	assert.Equal(t, "image/png", media[0].ContentType)

	require.NoError(t, f.svc.RemoveMedia(ctx, "a.png"))
	err = f.svc.RemoveMedia(ctx, "a.png")
	assert.ErrorIs(t, err, simpleadmin.ErrMediaNotFound)
	var storageErr *simpleadmin.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "memory", storageErr.Backend)
	assert.Equal(t, "images/a.png", storageErr.Key)
}

func TestService_MediaUsage(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	for _, key := range []string{"a.png", "b.png", "c.png"} {
		_, err := f.svc.UploadMedia(ctx, strings.NewReader(key), simpleadmin.UploadMediaRequest{Key: key, MimeType: "image/png"})
		require.NoError(t, err)
	}
	_, err := f.svc.CreatePost(ctx, simpleadmin.CreatePostRequest{Title: "one", Images: []string{"images/a.png"}})
	require.NoError(t, err)
	_, err = f.svc.CreatePost(ctx, simpleadmin.CreatePostRequest{Title: "two", CoverImage: "images/c.png"})
	require.NoError(t, err)

	usage, err := f.svc.MediaUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "c.png"}, keys(usage.InUse))
	assert.Equal(t, []string{"b.png"}, keys(usage.NotInUse))

	t.Run("StaticKeyIndex", func(t *testing.T) {
		g := setupTestService(t, simpleadmin.WithKeyIndexSource(simpleadmin.StaticKeyIndex{{"images/b.png"}}))
		_, err := g.svc.UploadMedia(ctx, strings.NewReader("b"), simpleadmin.UploadMediaRequest{Key: "b.png"})
		require.NoError(t, err)

		usage, err := g.svc.MediaUsage(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"b.png"}, keys(usage.InUse))
		assert.Empty(t, usage.NotInUse)
	})

	t.Run("SignedKeysContainingPrefix", func(t *testing.T) {
		signer := presigned.New(presigned.WithSecretKey("usage-secret-usage-secret-123456"))
		svc, err := simpleadmin.New(
			simpleadmin.WithRepository(memory.New()),
			simpleadmin.WithMediaStore("memory", memorystorage.New(signer)),
		)
		require.NoError(t, err)

		for _, key := range []string{"drafts/images/hero.png", "hero.png"} {
			_, err := svc.UploadMedia(ctx, strings.NewReader(key), simpleadmin.UploadMediaRequest{Key: key, MimeType: "image/png"})
			require.NoError(t, err)
		}
		_, err = svc.CreatePost(ctx, simpleadmin.CreatePostRequest{Title: "draft", Images: []string{"images/drafts/images/hero.png"}})
		require.NoError(t, err)

		usage, err := svc.MediaUsage(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"drafts/images/hero.png"}, keys(usage.InUse))
		assert.Equal(t, []string{"hero.png"}, keys(usage.NotInUse))
	})
}

func TestService_Dashboard(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	_, err := f.svc.UploadMedia(ctx, strings.NewReader("a"), simpleadmin.UploadMediaRequest{Key: "a.png"})
	require.NoError(t, err)
	_, err = f.svc.UploadMedia(ctx, strings.NewReader("b"), simpleadmin.UploadMediaRequest{Key: "b.png"})
	require.NoError(t, err)
	_, err = f.svc.CreatePost(ctx, simpleadmin.CreatePostRequest{Title: "uses a", Images: []string{"images/a.png"}})
	require.NoError(t, err)

	state, err := f.svc.Dashboard(ctx, simpleadmin.ViewMedia)
	require.NoError(t, err)
	assert.Equal(t, simpleadmin.ViewMedia, state.View)
	assert.False(t, state.Loading)
	assert.Len(t, state.Posts, 1)
	assert.Len(t, state.Media, 2)
	assert.Equal(t, []string{"a.png"}, keys(state.Usage.InUse))
	assert.Equal(t, []string{"b.png"}, keys(state.Usage.NotInUse))

	next := state.MediaKeyRemoved("b.png")
	assert.Empty(t, next.Usage.NotInUse)
	assert.Len(t, state.Usage.NotInUse, 1)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hello-world", simpleadmin.Slugify("Hello, World!"))
	assert.Equal(t, "a-b-c", simpleadmin.Slugify("  a -- b__c  "))
	assert.Equal(t, "", simpleadmin.Slugify("!!!"))
}

func TestCleanMediaKey(t *testing.T) {
	for _, key := range []string{"a.png", "2024/a.png", "with space.png"} {
		got, err := simpleadmin.CleanMediaKey(key)
		assert.NoError(t, err, key)
		assert.Equal(t, key, got)
	}
	for _, key := range []string{"", " ", "/a.png", "dir/", "../a.png", "a/../b.png", "./a.png", ".."} {
		_, err := simpleadmin.CleanMediaKey(key)
		assert.ErrorIs(t, err, simpleadmin.ErrInvalidMediaKey, key)
	}
}

func keys(list []simpleadmin.MediaDescriptor) []string {
	out := make([]string, 0, len(list))
	for _, d := range list {
		out = append(out, d.Key)
	}
	return out
}
