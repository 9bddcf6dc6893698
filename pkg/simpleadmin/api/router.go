package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/simple-admin/pkg/simpleadmin"
	"github.com/tendant/simple-admin/pkg/simpleadmin/presigned"
)

// RouterConfig collects what Mount needs to register the admin routes
type RouterConfig struct {
	Service simpleadmin.Service
	Feed    *simpleadmin.NotificationFeed
	Logger  *slog.Logger

	// Media serves signed download URLs when it implements
	// simpleadmin.MediaOpener and Signer is enabled
	Media  simpleadmin.MediaStore
	Signer *presigned.Signer

	// Auth guards /api/v1; nil leaves the API open
	Auth func(http.Handler) http.Handler

	// Gatherer exposes /metrics when set
	Gatherer prometheus.Gatherer
}

// Mount registers the admin API, signed media downloads and metrics on r
func Mount(r chi.Router, cfg RouterConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler := NewHandler(cfg.Service, cfg.Feed, logger)
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Auth != nil {
			r.Use(cfg.Auth)
		}
		handler.Register(r)
	})

	if opener, ok := cfg.Media.(simpleadmin.MediaOpener); ok && cfg.Signer != nil && cfg.Signer.IsEnabled() {
		files := NewFileServer(opener, cfg.Signer, logger)
		r.Method(http.MethodGet, cfg.Signer.PathFor("*"), files.Handler())
	}

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
}
