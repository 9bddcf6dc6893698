package simpleadmin

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service defines the operations behind the admin dashboard
type Service interface {
	// Post operations
	ListPosts(ctx context.Context) ([]*Post, error)
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
	PublishPost(ctx context.Context, id uuid.UUID) (*Post, error)
	UnpublishPost(ctx context.Context, id uuid.UUID) (*Post, error)

	// Media operations
	ListMedia(ctx context.Context) ([]MediaDescriptor, error)
	UploadMedia(ctx context.Context, reader io.Reader, req UploadMediaRequest) (*MediaDescriptor, error)
	RemoveMedia(ctx context.Context, key string) error

	// Reconciliation
	KeyIndex(ctx context.Context) ([][]string, error)
	MediaUsage(ctx context.Context) (UsagePartition, error)
	Dashboard(ctx context.Context, view View) (DashboardState, error)
	KeyMapping() KeyMapping
}
