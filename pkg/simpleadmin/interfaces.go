package simpleadmin

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Repository defines the interface for post persistence
type Repository interface {
	CreatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*Post, error)
	ListPosts(ctx context.Context) ([]*Post, error)
	// SetPublished changes only the published flag of a post
	SetPublished(ctx context.Context, id uuid.UUID, published bool) (*Post, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
}

// MediaStore defines the interface for media storage backends
type MediaStore interface {
	// List returns every object whose key starts with prefix
	List(ctx context.Context, prefix string) ([]MediaObject, error)

	// Resolve returns a time-limited URL for reading the object
	Resolve(ctx context.Context, objectKey string) (string, error)

	// Upload stores content under objectKey
	Upload(ctx context.Context, objectKey string, reader io.Reader, mimeType string) error

	// Delete removes the object
	Delete(ctx context.Context, objectKey string) error
}

// KeyIndexSource supplies the media key lists referenced by content, one list
// per content record.
type KeyIndexSource interface {
	KeyLists(ctx context.Context) ([][]string, error)
}

// Metrics receives operational measurements from the service. A nil Metrics
// disables instrumentation.
type Metrics interface {
	ObservePostAction(action string, err error)
	ObserveMediaAction(action string, err error)
	ObserveUsage(partition UsagePartition)
}

// MediaOpener is implemented by media stores that can stream content back
// through the admin server (stores without native presigned URLs).
type MediaOpener interface {
	Open(ctx context.Context, objectKey string) (io.ReadCloser, string, error)
}
