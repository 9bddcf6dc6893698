// Package api exposes the admin service over HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-admin/pkg/simpleadmin"
)

// Handler serves the admin API endpoints
type Handler struct {
	service simpleadmin.Service
	feed    *simpleadmin.NotificationFeed
	logger  *slog.Logger
}

// NewHandler creates a handler for svc. feed may be nil, in which case the
// notifications endpoint always returns an empty list.
func NewHandler(svc simpleadmin.Service, feed *simpleadmin.NotificationFeed, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: svc,
		feed:    feed,
		logger:  logger,
	}
}

// Routes returns the router for the admin API
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

// Register adds the admin API endpoints to r
func (h *Handler) Register(r chi.Router) {
	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.ListPosts)
		r.Post("/", h.CreatePost)
		r.Get("/{post_id}", h.GetPost)
		r.Delete("/{post_id}", h.DeletePost)
		r.Post("/{post_id}/publish", h.PublishPost)
		r.Post("/{post_id}/unpublish", h.UnpublishPost)
	})

	r.Route("/media", func(r chi.Router) {
		r.Get("/", h.ListMedia)
		r.Post("/", h.UploadMedia)
		r.Get("/usage", h.MediaUsage)
		r.Delete("/*", h.RemoveMedia)
	})

	r.Get("/dashboard", h.Dashboard)
	r.Get("/notifications", h.Notifications)
}

// ListPosts returns every post, newest first
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPosts(r.Context())
	if err != nil {
		h.renderError(w, r, err, "")
		return
	}
	if posts == nil {
		posts = []*simpleadmin.Post{}
	}
	render.JSON(w, r, posts)
}

// GetPost returns a single post
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.postID(w, r)
	if !ok {
		return
	}
	post, err := h.service.GetPost(r.Context(), id)
	if err != nil {
		h.renderError(w, r, err, "")
		return
	}
	render.JSON(w, r, post)
}

// CreatePost creates a post from a JSON body
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req simpleadmin.CreatePostRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.logger.Warn("Failed to decode request", "error", err)
		renderMessage(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	post, err := h.service.CreatePost(r.Context(), req)
	if err != nil {
		h.renderError(w, r, err, "")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, post)
}

// DeletePost removes a post after confirmation
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.postID(w, r)
	if !ok {
		return
	}

	ctx, confirmer := withRequestConfirmer(r)
	if err := h.service.DeletePost(ctx, id); err != nil {
		h.renderError(w, r, err, confirmer.prompt)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PublishPost makes a post visible after confirmation
func (h *Handler) PublishPost(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, true)
}

// UnpublishPost hides a post after confirmation
func (h *Handler) UnpublishPost(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, false)
}

func (h *Handler) setPublished(w http.ResponseWriter, r *http.Request, published bool) {
	id, ok := h.postID(w, r)
	if !ok {
		return
	}

	ctx, confirmer := withRequestConfirmer(r)
	var (
		post *simpleadmin.Post
		err  error
	)
	if published {
		post, err = h.service.PublishPost(ctx, id)
	} else {
		post, err = h.service.UnpublishPost(ctx, id)
	}
	if err != nil {
		h.renderError(w, r, err, confirmer.prompt)
		return
	}
	render.JSON(w, r, post)
}

// Dashboard returns a full dashboard snapshot for the requested view
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	view := simpleadmin.ViewList
	if v := r.URL.Query().Get("view"); v != "" {
		view = simpleadmin.View(v)
		if !view.IsValid() {
			renderMessage(w, r, http.StatusBadRequest, "Unknown view: "+v)
			return
		}
	}

	state, err := h.service.Dashboard(r.Context(), view)
	if err != nil {
		h.renderError(w, r, err, "")
		return
	}
	render.JSON(w, r, state)
}

// Notifications returns recent notifications, newest first
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		render.JSON(w, r, []simpleadmin.Notification{})
		return
	}
	render.JSON(w, r, h.feed.Recent())
}

func (h *Handler) postID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "post_id")
	id, err := uuid.Parse(raw)
	if err != nil {
		h.logger.Warn("Invalid post ID", "post_id", raw, "error", err)
		renderMessage(w, r, http.StatusBadRequest, "Invalid post ID")
		return uuid.Nil, false
	}
	return id, true
}

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
	// Prompt is the confirmation question when the request was not confirmed
	Prompt string `json:"prompt,omitempty"`
}

func renderMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}

// StatusFor maps service errors to HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, simpleadmin.ErrPostNotFound), errors.Is(err, simpleadmin.ErrMediaNotFound):
		return http.StatusNotFound
	case errors.Is(err, simpleadmin.ErrNotConfirmed):
		return http.StatusPreconditionRequired
	case errors.Is(err, simpleadmin.ErrInvalidPost), errors.Is(err, simpleadmin.ErrInvalidMediaKey):
		return http.StatusBadRequest
	case errors.Is(err, simpleadmin.ErrDuplicateSlug):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error, prompt string) {
	status := StatusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	switch {
	case status == http.StatusInternalServerError:
		h.logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		resp.Error = http.StatusText(status)
	case status == http.StatusPreconditionRequired:
		resp.Prompt = prompt
	default:
		h.logger.InfoContext(r.Context(), "Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}
