package simpleadmin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultResolveConcurrency = 8

// service implements the Service interface
type service struct {
	repository         Repository
	mediaStore         MediaStore
	mediaBackend       string
	keyIndex           KeyIndexSource
	mapping            KeyMapping
	confirmer          Confirmer
	notifier           Notifier
	metrics            Metrics
	logger             *slog.Logger
	resolveConcurrency int
	now                func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the post repository
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithMediaStore sets the media storage backend and the name it is logged under
func WithMediaStore(name string, store MediaStore) Option {
	return func(s *service) {
		s.mediaBackend = name
		s.mediaStore = store
	}
}

// WithKeyIndexSource sets where referenced media keys come from. Defaults to
// the post repository.
func WithKeyIndexSource(source KeyIndexSource) Option {
	return func(s *service) {
		s.keyIndex = source
	}
}

// WithKeyMapping sets the rule mapping media descriptors to referenced keys
func WithKeyMapping(mapping KeyMapping) Option {
	return func(s *service) {
		s.mapping = mapping
	}
}

// WithConfirmer sets the service-wide confirmation prompt
func WithConfirmer(c Confirmer) Option {
	return func(s *service) {
		s.confirmer = c
	}
}

// WithNotifier sets the notification sink
func WithNotifier(n Notifier) Option {
	return func(s *service) {
		s.notifier = n
	}
}

// WithMetrics enables instrumentation
func WithMetrics(m Metrics) Option {
	return func(s *service) {
		s.metrics = m
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithResolveConcurrency bounds concurrent URL resolution while listing media
func WithResolveConcurrency(n int) Option {
	return func(s *service) {
		s.resolveConcurrency = n
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		mapping:            DefaultKeyMapping(),
		confirmer:          AlwaysConfirm,
		notifier:           NoopNotifier{},
		resolveConcurrency: defaultResolveConcurrency,
		now:                func() time.Time { return time.Now().UTC() },
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.mediaStore == nil {
		return nil, fmt.Errorf("media store is required")
	}
	if s.keyIndex == nil {
		s.keyIndex = NewRepositoryKeyIndex(s.repository)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.notifier == nil {
		s.notifier = NoopNotifier{}
	}
	if s.resolveConcurrency <= 0 {
		s.resolveConcurrency = defaultResolveConcurrency
	}

	return s, nil
}

func (s *service) KeyMapping() KeyMapping {
	return s.mapping
}

func (s *service) confirm(ctx context.Context, prompt string) bool {
	return confirmerFrom(ctx, s.confirmer).Confirm(ctx, prompt)
}

func (s *service) notify(ctx context.Context, n Notification) {
	n.CreatedAt = s.now()
	if n.Level == "" {
		n.Level = NotificationSuccess
	}
	s.notifier.Notify(ctx, n)
}

func (s *service) observePost(action string, err error) {
	if s.metrics != nil {
		s.metrics.ObservePostAction(action, err)
	}
}

func (s *service) observeMedia(action string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveMediaAction(action, err)
	}
}

// Post operations

func (s *service) ListPosts(ctx context.Context) ([]*Post, error) {
	posts, err := s.repository.ListPosts(ctx)
	s.observePost("list", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (s *service) GetPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	return s.repository.GetPost(ctx, id)
}

func (s *service) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidPost)
	}

	id := uuid.New()
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	// Titles without letters or digits have no slug of their own
	if slug == "" {
		slug = id.String()
	}

	now := s.now()
	post := &Post{
		ID:          id,
		Title:       title,
		Slug:        slug,
		Description: req.Description,
		Content:     req.Content,
		CoverImage:  strings.TrimSpace(req.CoverImage),
		Images:      compactKeys(req.Images),
		Published:   req.Published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.repository.CreatePost(ctx, post)
	s.observePost("create", err)
	if err != nil {
		return nil, &PostError{
			PostID: post.ID,
			Op:     "create",
			Err:    err,
		}
	}

	s.logger.InfoContext(ctx, "Post created", "post_id", post.ID.String(), "slug", post.Slug)
	s.notify(ctx, Notification{Message: "Post successfully created!", PostID: post.ID.String()})
	return post, nil
}

func (s *service) DeletePost(ctx context.Context, id uuid.UUID) error {
	if !s.confirm(ctx, "Are you sure you'd like to delete this post?") {
		return ErrNotConfirmed
	}

	err := s.repository.DeletePost(ctx, id)
	s.observePost("delete", err)
	if err != nil {
		return &PostError{PostID: id, Op: "delete", Err: err}
	}

	s.logger.InfoContext(ctx, "Post deleted", "post_id", id.String())
	s.notify(ctx, Notification{Message: "Post successfully deleted!", PostID: id.String()})
	return nil
}

func (s *service) PublishPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	return s.setPublished(ctx, id, true)
}

func (s *service) UnpublishPost(ctx context.Context, id uuid.UUID) (*Post, error) {
	return s.setPublished(ctx, id, false)
}

func (s *service) setPublished(ctx context.Context, id uuid.UUID, published bool) (*Post, error) {
	op, prompt, message := "publish", "Are you sure you'd like to publish this post?", "🔥 Post successfully published!"
	if !published {
		op, prompt, message = "unpublish", "Are you sure you'd like to unpublish this post?", "Post successfully unpublished!"
	}

	if !s.confirm(ctx, prompt) {
		return nil, ErrNotConfirmed
	}

	post, err := s.repository.SetPublished(ctx, id, published)
	s.observePost(op, err)
	if err != nil {
		return nil, &PostError{PostID: id, Op: op, Err: err}
	}

	s.notify(ctx, Notification{Message: message, PostID: id.String()})
	return post, nil
}

// Media operations

func (s *service) ListMedia(ctx context.Context) ([]MediaDescriptor, error) {
	start := time.Now()
	prefix := s.mapping.Prefix

	objects, err := s.mediaStore.List(ctx, prefix)
	if err != nil {
		s.observeMedia("list", err)
		return nil, &StorageError{Backend: s.mediaBackend, Key: prefix, Op: "list", Err: err}
	}

	media := make([]MediaDescriptor, 0, len(objects))
	for _, obj := range objects {
		key := strings.TrimPrefix(obj.Key, prefix)
		if key == "" || strings.HasSuffix(key, "/") {
			continue
		}
		media = append(media, MediaDescriptor{
			Key:         key,
			Size:        obj.Size,
			ContentType: obj.ContentType,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.resolveConcurrency)
	for i := range media {
		g.Go(func() error {
			objectKey := prefix + media[i].Key
			url, err := s.mediaStore.Resolve(gctx, objectKey)
			if err != nil {
				return &StorageError{Backend: s.mediaBackend, Key: objectKey, Op: "resolve", Err: err}
			}
			media[i].URL = url
			return nil
		})
	}
	err = g.Wait()
	s.observeMedia("list", err)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "Media listed", "count", len(media), "backend", s.mediaBackend, "elapsed", time.Since(start))
	return media, nil
}

func (s *service) UploadMedia(ctx context.Context, reader io.Reader, req UploadMediaRequest) (*MediaDescriptor, error) {
	key, err := CleanMediaKey(req.Key)
	if err != nil {
		return nil, err
	}
	objectKey := s.mapping.Prefix + key

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	if err := s.mediaStore.Upload(ctx, objectKey, reader, mimeType); err != nil {
		s.observeMedia("upload", err)
		return nil, &StorageError{Backend: s.mediaBackend, Key: objectKey, Op: "upload", Err: err}
	}

	url, err := s.mediaStore.Resolve(ctx, objectKey)
	s.observeMedia("upload", err)
	if err != nil {
		return nil, &StorageError{Backend: s.mediaBackend, Key: objectKey, Op: "resolve", Err: err}
	}

	s.logger.InfoContext(ctx, "Media uploaded", "key", objectKey, "backend", s.mediaBackend)
	s.notify(ctx, Notification{Message: "Image successfully uploaded!", MediaKey: key})
	return &MediaDescriptor{Key: key, URL: url, ContentType: mimeType}, nil
}

func (s *service) RemoveMedia(ctx context.Context, key string) error {
	key, err := CleanMediaKey(key)
	if err != nil {
		return err
	}
	if !s.confirm(ctx, "Are you sure you'd like to delete this image?") {
		return ErrNotConfirmed
	}

	objectKey := s.mapping.Prefix + key
	err = s.mediaStore.Delete(ctx, objectKey)
	s.observeMedia("delete", err)
	if err != nil {
		return &StorageError{Backend: s.mediaBackend, Key: objectKey, Op: "delete", Err: err}
	}

	s.logger.InfoContext(ctx, "Media deleted", "key", objectKey, "backend", s.mediaBackend)
	s.notify(ctx, Notification{Message: "Image successfully deleted!", MediaKey: key})
	return nil
}

// Reconciliation

func (s *service) KeyIndex(ctx context.Context) ([][]string, error) {
	lists, err := s.keyIndex.KeyLists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load key index: %w", err)
	}
	return lists, nil
}

func (s *service) MediaUsage(ctx context.Context) (UsagePartition, error) {
	var (
		media    []MediaDescriptor
		keyIndex [][]string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		media, err = s.ListMedia(gctx)
		return err
	})
	g.Go(func() (err error) {
		keyIndex, err = s.KeyIndex(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return UsagePartition{}, err
	}

	partition := Reconcile(media, keyIndex, s.mapping)
	if s.metrics != nil {
		s.metrics.ObserveUsage(partition)
	}
	return partition, nil
}

func (s *service) Dashboard(ctx context.Context, view View) (DashboardState, error) {
	state := NewDashboardState(s.mapping).ViewChanged(view)

	var (
		posts    []*Post
		media    []MediaDescriptor
		keyIndex [][]string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		posts, err = s.ListPosts(gctx)
		return err
	})
	g.Go(func() (err error) {
		media, err = s.ListMedia(gctx)
		return err
	})
	g.Go(func() (err error) {
		keyIndex, err = s.KeyIndex(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return state, err
	}

	values := make([]Post, 0, len(posts))
	for _, p := range posts {
		values = append(values, *p)
	}

	state = state.PostsLoaded(values).KeyIndexLoaded(keyIndex).MediaLoaded(media)
	if s.metrics != nil {
		s.metrics.ObserveUsage(state.Usage)
	}
	return state, nil
}

// CleanMediaKey validates a media key relative to the media prefix.
func CleanMediaKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return "", ErrInvalidMediaKey
	}
	if cleaned := path.Clean(key); cleaned != key || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrInvalidMediaKey
	}
	return key, nil
}

// Slugify turns a title into a lowercase, dash separated slug.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func compactKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// IsNotFound reports whether err means a post or media object does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPostNotFound) || errors.Is(err, ErrMediaNotFound)
}
