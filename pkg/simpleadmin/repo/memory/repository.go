package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-admin/pkg/simpleadmin"
)

// Repository implements simpleadmin.Repository using in-memory storage
type Repository struct {
	mu    sync.RWMutex
	posts map[uuid.UUID]*simpleadmin.Post
}

// New creates a new in-memory repository
func New() simpleadmin.Repository {
	return &Repository{
		posts: make(map[uuid.UUID]*simpleadmin.Post),
	}
}

func clonePost(p *simpleadmin.Post) *simpleadmin.Post {
	c := *p
	c.Images = slices.Clone(p.Images)
	return &c
}

func (r *Repository) CreatePost(ctx context.Context, post *simpleadmin.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.posts {
		if existing.Slug == post.Slug {
			return simpleadmin.ErrDuplicateSlug
		}
	}

	// Store a copy to avoid external modifications
	r.posts[post.ID] = clonePost(post)
	return nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*simpleadmin.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, exists := r.posts[id]
	if !exists {
		return nil, simpleadmin.ErrPostNotFound
	}
	return clonePost(post), nil
}

func (r *Repository) ListPosts(ctx context.Context) ([]*simpleadmin.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*simpleadmin.Post, 0, len(r.posts))
	for _, post := range r.posts {
		result = append(result, clonePost(post))
	}

	// Sort by created_at descending
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID.String() < result[j].ID.String()
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *Repository) SetPublished(ctx context.Context, id uuid.UUID, published bool) (*simpleadmin.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, exists := r.posts[id]
	if !exists {
		return nil, simpleadmin.ErrPostNotFound
	}

	updated := clonePost(post)
	updated.Published = published
	updated.UpdatedAt = time.Now().UTC()
	r.posts[id] = updated
	return clonePost(updated), nil
}

func (r *Repository) DeletePost(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[id]; !exists {
		return simpleadmin.ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}
