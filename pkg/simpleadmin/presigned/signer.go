// Package presigned signs and validates time-limited media download URLs for
// media stores that have no native presigning (memory, filesystem).
package presigned

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const keyPlaceholder = "{key}"

// Signature validation errors
var (
	ErrNoSecretKey       = errors.New("presigned: no secret key configured")
	ErrMissingSignature  = errors.New("presigned: missing signature parameter")
	ErrMissingExpiration = errors.New("presigned: missing expires parameter")
	ErrInvalidExpiration = errors.New("presigned: invalid expires parameter")
	ErrExpired           = errors.New("presigned: URL has expired")
	ErrInvalidSignature  = errors.New("presigned: invalid signature")
	ErrPatternMismatch   = errors.New("presigned: path does not match URL pattern")
)

// Signer generates and validates HMAC-signed media URLs.
type Signer struct {
	secretKey         []byte
	defaultExpiration time.Duration
	baseURL           string
	urlPattern        string // e.g. "/media/files/{key}"
	now               func() time.Time
}

// Option is a functional option for configuring a Signer
type Option func(*Signer)

// WithSecretKey sets the secret key used for HMAC signing
func WithSecretKey(key string) Option {
	return func(s *Signer) {
		s.secretKey = []byte(key)
	}
}

// WithDefaultExpiration sets how long signed URLs stay valid. Default is 1 hour.
func WithDefaultExpiration(d time.Duration) Option {
	return func(s *Signer) {
		s.defaultExpiration = d
	}
}

// WithBaseURL prefixes signed paths, e.g. "https://admin.example.com"
func WithBaseURL(baseURL string) Option {
	return func(s *Signer) {
		s.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithURLPattern sets the path pattern; it must contain {key}
func WithURLPattern(pattern string) Option {
	return func(s *Signer) {
		s.urlPattern = pattern
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// New creates a new Signer with the given options
func New(opts ...Option) *Signer {
	s := &Signer{
		defaultExpiration: time.Hour,
		urlPattern:        "/media/files/{key}",
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsEnabled returns true if a secret key is configured
func (s *Signer) IsEnabled() bool {
	return len(s.secretKey) > 0
}

// PathFor returns the unsigned path serving objectKey.
func (s *Signer) PathFor(objectKey string) string {
	return strings.Replace(s.urlPattern, keyPlaceholder, objectKey, 1)
}

// SignKey returns a GET URL for objectKey valid for expiresIn (or the
// default expiration when zero):
//
//	https://host/media/files/images/a.png?signature=...&expires=1696789012
func (s *Signer) SignKey(objectKey string, expiresIn time.Duration) (string, error) {
	if !s.IsEnabled() {
		return "", ErrNoSecretKey
	}
	if expiresIn == 0 {
		expiresIn = s.defaultExpiration
	}

	p := s.PathFor(objectKey)
	expiresAt := s.now().Add(expiresIn).Unix()
	signature := s.sign(http.MethodGet, p, expiresAt)

	escaped := (&url.URL{Path: p}).EscapedPath()
	return fmt.Sprintf("%s%s?signature=%s&expires=%d", s.baseURL, escaped, signature, expiresAt), nil
}

// ValidateRequest checks the signature and expiry carried by r.
func (s *Signer) ValidateRequest(r *http.Request) error {
	if !s.IsEnabled() {
		return nil
	}

	query := r.URL.Query()
	signature := query.Get("signature")
	expiresStr := query.Get("expires")
	if signature == "" {
		return ErrMissingSignature
	}
	if expiresStr == "" {
		return ErrMissingExpiration
	}

	expiresAt, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExpiration, err)
	}

	return s.Validate(r.Method, r.URL.Path, signature, expiresAt)
}

// Validate checks signature against method, path and expiry.
func (s *Signer) Validate(method, path, signature string, expiresAt int64) error {
	if s.now().Unix() > expiresAt {
		return ErrExpired
	}
	expected := s.sign(method, path, expiresAt)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

// ExtractObjectKey returns the object key embedded in path per the URL pattern.
func (s *Signer) ExtractObjectKey(path string) (string, error) {
	idx := strings.Index(s.urlPattern, keyPlaceholder)
	if idx == -1 {
		return "", fmt.Errorf("URL pattern does not contain %s placeholder", keyPlaceholder)
	}
	prefix := s.urlPattern[:idx]
	suffix := s.urlPattern[idx+len(keyPlaceholder):]

	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return "", ErrPatternMismatch
	}
	key := strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
	if key == "" {
		return "", ErrPatternMismatch
	}
	return key, nil
}

// IsAuthError returns true if the error is a signature validation error
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissingSignature) ||
		errors.Is(err, ErrMissingExpiration) ||
		errors.Is(err, ErrInvalidExpiration) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrInvalidSignature)
}

// METHOD|PATH|EXPIRES
func (s *Signer) sign(method, path string, expiresAt int64) string {
	h := hmac.New(sha256.New, s.secretKey)
	h.Write([]byte(fmt.Sprintf("%s|%s|%d", method, path, expiresAt)))
	return hex.EncodeToString(h.Sum(nil))
}
