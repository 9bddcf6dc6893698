package memory

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tendant/simple-admin/pkg/simpleadmin"
	"github.com/tendant/simple-admin/pkg/simpleadmin/presigned"
)

type object struct {
	data      []byte
	mimeType  string
	updatedAt time.Time
}

// Backend is an in-memory implementation of the simpleadmin.MediaStore interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
	signer  *presigned.Signer
}

// New creates a new in-memory media store. When signer is enabled, Resolve
// returns HMAC-signed URLs; otherwise it returns memory:// references.
func New(signer *presigned.Signer) *Backend {
	return &Backend{
		objects: make(map[string]object),
		signer:  signer,
	}
}

// List returns objects whose key starts with prefix, sorted by key
func (b *Backend) List(ctx context.Context, prefix string) ([]simpleadmin.MediaObject, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]simpleadmin.MediaObject, 0, len(b.objects))
	for key, obj := range b.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		result = append(result, simpleadmin.MediaObject{
			Key:         key,
			Size:        int64(len(obj.data)),
			ContentType: obj.mimeType,
			UpdatedAt:   obj.updatedAt,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

// Resolve returns a reference for reading the object
func (b *Backend) Resolve(ctx context.Context, objectKey string) (string, error) {
	b.mu.RLock()
	_, exists := b.objects[objectKey]
	b.mu.RUnlock()
	if !exists {
		return "", simpleadmin.ErrMediaNotFound
	}

	if b.signer != nil && b.signer.IsEnabled() {
		return b.signer.SignKey(objectKey, 0)
	}
	return "memory:///" + (&url.URL{Path: objectKey}).EscapedPath(), nil
}

// Upload stores content under objectKey
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader, mimeType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey] = object{data: data, mimeType: mimeType, updatedAt: time.Now().UTC()}
	return nil
}

// Open returns the object content and MIME type
func (b *Backend) Open(ctx context.Context, objectKey string) (io.ReadCloser, string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[objectKey]
	if !exists {
		return nil, "", simpleadmin.ErrMediaNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.mimeType, nil
}

// Delete removes the object
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return simpleadmin.ErrMediaNotFound
	}
	delete(b.objects, objectKey)
	return nil
}

var _ simpleadmin.MediaStore = (*Backend)(nil)
