package simpleadmin

import (
	"time"

	"github.com/google/uuid"
)

// View is the dashboard tab currently shown to the operator.
type View string

// View constants (typed).
const (
	ViewList   View = "list"
	ViewMedia  View = "media"
	ViewCreate View = "create"
)

// IsValid reports whether v is a known dashboard view.
func (v View) IsValid() bool {
	switch v {
	case ViewList, ViewMedia, ViewCreate:
		return true
	}
	return false
}

// DefaultMediaPrefix is the path prefix content uses when referencing media.
const DefaultMediaPrefix = "images/"

// Post represents a blog post managed from the dashboard.
//
// Images holds the prefixed media keys referenced by the post body; CoverImage
// is a single prefixed key and counts as a reference as well.
type Post struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug,omitempty"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	CoverImage  string    `json:"cover_image,omitempty"`
	Images      []string  `json:"images,omitempty"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ImageKeys returns every media key the post references, cover image first.
func (p *Post) ImageKeys() []string {
	keys := make([]string, 0, len(p.Images)+1)
	if p.CoverImage != "" {
		keys = append(keys, p.CoverImage)
	}
	return append(keys, p.Images...)
}

// MediaDescriptor is an uploaded file: its storage key relative to the media
// prefix plus a resolved, time-limited access reference.
//
// MediaDescriptor is a comparable value; two descriptors are the same media
// when all fields are equal.
type MediaDescriptor struct {
	Key         string `json:"key"`
	URL         string `json:"url,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// UsagePartition splits a media set into descriptors referenced by content
// and descriptors that are not.
type UsagePartition struct {
	InUse    []MediaDescriptor `json:"in_use"`
	NotInUse []MediaDescriptor `json:"not_in_use"`
}

// MediaObject is a raw listing entry returned by a MediaStore.
type MediaObject struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
}

// Notification is a user-facing message emitted after an operation succeeds.
type Notification struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	PostID    string    `json:"post_id,omitempty"`
	MediaKey  string    `json:"media_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification levels
const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
)
