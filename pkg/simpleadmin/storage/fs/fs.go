package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tendant/simple-admin/pkg/simpleadmin"
	"github.com/tendant/simple-admin/pkg/simpleadmin/presigned"
)

// tempPattern names in-flight uploads; List skips them
const tempPattern = ".upload-*"

// Backend is a filesystem implementation of the simpleadmin.MediaStore interface
type Backend struct {
	mu      sync.RWMutex
	baseDir string
	signer  *presigned.Signer
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string            // Base directory for storing files
	Signer  *presigned.Signer // Signs URLs served by the admin server
}

// New creates a new filesystem media store
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	if config.Signer == nil || !config.Signer.IsEnabled() {
		return nil, errors.New("filesystem backend requires a signer with a secret key")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir: config.BaseDir,
		signer:  config.Signer,
	}, nil
}

func (b *Backend) pathFor(objectKey string) (string, error) {
	p := filepath.Join(b.baseDir, filepath.FromSlash(objectKey))
	rel, err := filepath.Rel(b.baseDir, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", simpleadmin.ErrInvalidMediaKey
	}
	return p, nil
}

// List walks the base directory and returns files whose key starts with prefix
func (b *Backend) List(ctx context.Context, prefix string) ([]simpleadmin.MediaObject, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []simpleadmin.MediaObject
	err := filepath.WalkDir(b.baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), strings.TrimSuffix(tempPattern, "*")) {
			return nil
		}
		rel, err := filepath.Rel(b.baseDir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		result = append(result, simpleadmin.MediaObject{
			Key:         key,
			Size:        info.Size(),
			ContentType: contentTypeFor(key),
			UpdatedAt:   info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", b.baseDir, err)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

// Resolve returns a signed URL served by the admin server
func (b *Backend) Resolve(ctx context.Context, objectKey string) (string, error) {
	p, err := b.pathFor(objectKey)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return "", simpleadmin.ErrMediaNotFound
		}
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	return b.signer.SignKey(objectKey, 0)
}

// Upload writes content to a temporary file and renames it over the file for
// objectKey, so a failed write never leaves a partial object behind
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader, mimeType string) error {
	p, err := b.pathFor(objectKey)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to store file: %w", err)
	}
	return nil
}

// Open returns the file content and its detected MIME type
func (b *Backend) Open(ctx context.Context, objectKey string) (io.ReadCloser, string, error) {
	p, err := b.pathFor(objectKey)
	if err != nil {
		return nil, "", err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	file, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", simpleadmin.ErrMediaNotFound
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}

	contentType := contentTypeFor(objectKey)
	if contentType == "application/octet-stream" {
		buffer := make([]byte, 512)
		if n, err := file.Read(buffer); err == nil {
			contentType = http.DetectContentType(buffer[:n])
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			file.Close()
			return nil, "", fmt.Errorf("failed to rewind file: %w", err)
		}
	}
	return file, contentType, nil
}

// Delete removes the file for objectKey
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	p, err := b.pathFor(objectKey)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return simpleadmin.ErrMediaNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func contentTypeFor(key string) string {
	if t := mime.TypeByExtension(filepath.Ext(key)); t != "" {
		return t
	}
	return "application/octet-stream"
}

var _ simpleadmin.MediaStore = (*Backend)(nil)
