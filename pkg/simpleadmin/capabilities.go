package simpleadmin

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Confirmer asks the operator to confirm an action before it runs.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm calls f(ctx, prompt).
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// AlwaysConfirm approves every prompt.
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

// NeverConfirm declines every prompt.
var NeverConfirm Confirmer = ConfirmFunc(func(context.Context, string) bool { return false })

type confirmerKey struct{}

// ContextWithConfirmer attaches a request-scoped Confirmer to ctx. It takes
// precedence over the service-wide Confirmer.
func ContextWithConfirmer(ctx context.Context, c Confirmer) context.Context {
	return context.WithValue(ctx, confirmerKey{}, c)
}

func confirmerFrom(ctx context.Context, fallback Confirmer) Confirmer {
	if c, ok := ctx.Value(confirmerKey{}).(Confirmer); ok && c != nil {
		return c
	}
	if fallback == nil {
		return AlwaysConfirm
	}
	return fallback
}

// Notifier receives user-facing notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NoopNotifier drops every notification.
type NoopNotifier struct{}

// Notify does nothing
func (NoopNotifier) Notify(context.Context, Notification) {}

// SlogNotifier writes notifications to a structured logger.
type SlogNotifier struct {
	Logger *slog.Logger
}

// NewSlogNotifier creates a notifier logging through logger, or the default
// logger when nil.
func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogNotifier{Logger: logger}
}

// Notify logs n at info level.
func (s *SlogNotifier) Notify(ctx context.Context, n Notification) {
	s.Logger.InfoContext(ctx, n.Message,
		"level", n.Level,
		"post_id", n.PostID,
		"media_key", n.MediaKey,
	)
}

// NotificationFeed keeps the most recent notifications in memory so the
// dashboard can poll them.
type NotificationFeed struct {
	mu       sync.RWMutex
	capacity int
	items    []Notification
}

// NewNotificationFeed creates a feed holding at most capacity notifications.
func NewNotificationFeed(capacity int) *NotificationFeed {
	if capacity <= 0 {
		capacity = 50
	}
	return &NotificationFeed{capacity: capacity}
}

// Notify appends n, evicting the oldest entry when full.
func (f *NotificationFeed) Notify(_ context.Context, n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.items) == f.capacity {
		f.items = slices.Delete(f.items, 0, 1)
	}
	f.items = append(f.items, n)
}

// Recent returns notifications newest first.
func (f *NotificationFeed) Recent() []Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := slices.Clone(f.items)
	slices.Reverse(out)
	if out == nil {
		out = []Notification{}
	}
	return out
}

// MultiNotifier fans a notification out to several notifiers.
type MultiNotifier []Notifier

// Notify forwards n to every notifier.
func (m MultiNotifier) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}
