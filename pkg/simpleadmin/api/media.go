package api

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-admin/pkg/simpleadmin"
	"github.com/tendant/simple-admin/pkg/simpleadmin/presigned"
)

// maxUploadMemory bounds the multipart form kept in memory; larger parts spill to disk
const maxUploadMemory = 32 << 20

// ListMedia returns every media file with a resolved URL
func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	media, err := h.service.ListMedia(r.Context())
	if err != nil {
		h.renderError(w, r, err, "")
		return
	}
	render.JSON(w, r, media)
}

// UploadMedia stores the multipart "file" field. The optional "key" form
// field names the object; it defaults to the uploaded file name.
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.logger.Warn("Failed to parse multipart form", "error", err)
		renderMessage(w, r, http.StatusBadRequest, "Expected multipart form with a file field")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		renderMessage(w, r, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	key := r.FormValue("key")
	if key == "" {
		key = path.Base(header.Filename)
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		if t := mime.TypeByExtension(path.Ext(key)); t != "" {
			mimeType = t
		}
	}

	d, err := h.service.UploadMedia(r.Context(), file, simpleadmin.UploadMediaRequest{
		Key:      key,
		MimeType: mimeType,
	})
	if err != nil {
		h.renderError(w, r, err, "")
		return
	}
	d.Size = header.Size

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, d)
}

// RemoveMedia deletes the media file named by the wildcard path after confirmation
func (h *Handler) RemoveMedia(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	ctx, confirmer := withRequestConfirmer(r)
	if err := h.service.RemoveMedia(ctx, key); err != nil {
		h.renderError(w, r, err, confirmer.prompt)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MediaUsage returns the in-use / not-in-use partition of media files
func (h *Handler) MediaUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.service.MediaUsage(r.Context())
	if err != nil {
		h.renderError(w, r, err, "")
		return
	}
	render.JSON(w, r, usage)
}

// FileServer streams media objects for signed URLs issued by a presigned.Signer
type FileServer struct {
	opener simpleadmin.MediaOpener
	signer *presigned.Signer
	logger *slog.Logger
}

// NewFileServer creates a file server reading from opener
func NewFileServer(opener simpleadmin.MediaOpener, signer *presigned.Signer, logger *slog.Logger) *FileServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileServer{opener: opener, signer: signer, logger: logger}
}

// Handler returns the signature-checking handler
func (s *FileServer) Handler() http.Handler {
	return presigned.Middleware(s.signer)(http.HandlerFunc(s.serve))
}

func (s *FileServer) serve(w http.ResponseWriter, r *http.Request) {
	key := presigned.ObjectKeyFromContext(r.Context())

	body, contentType, err := s.opener.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, simpleadmin.ErrMediaNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to open media", "key", key, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "inline; filename="+strconv.Quote(path.Base(key)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	if _, err := io.Copy(w, body); err != nil {
		s.logger.WarnContext(r.Context(), "Failed to stream media", "key", key, "error", err)
	}
}
