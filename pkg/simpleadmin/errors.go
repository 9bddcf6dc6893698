package simpleadmin

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrPostNotFound indicates a post was not found
	ErrPostNotFound = errors.New("post not found")

	// ErrMediaNotFound indicates a media object was not found
	ErrMediaNotFound = errors.New("media not found")

	// ErrNotConfirmed indicates the operator declined a confirmation prompt
	ErrNotConfirmed = errors.New("operation not confirmed")

	// ErrInvalidMediaKey indicates an empty or unsafe media key
	ErrInvalidMediaKey = errors.New("invalid media key")

	// ErrInvalidPost indicates a post failed validation
	ErrInvalidPost = errors.New("invalid post")

	// ErrDuplicateSlug indicates another post already uses the slug
	ErrDuplicateSlug = errors.New("post slug already exists")
)

// PostError represents an error related to post operations
type PostError struct {
	PostID uuid.UUID
	Op     string
	Err    error
}

func (e *PostError) Error() string {
	return fmt.Sprintf("post operation %s failed for post %s: %v", e.Op, e.PostID, e.Err)
}

func (e *PostError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to media storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
