package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/chi-demo/middleware"
	"github.com/tendant/simple-admin/pkg/simpleadmin/api"
	"github.com/tendant/simple-admin/pkg/simpleadmin/config"
)

func main() {
	issueToken := flag.String("issue-token", "", "Print an operator token for the given subject and exit (requires JWT_SECRET)")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "Lifetime of tokens printed by -issue-token")
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Environment)
	slog.SetDefault(logger)

	if *issueToken != "" {
		if cfg.JWTSecret == "" {
			slog.Error("JWT_SECRET is required to issue tokens")
			os.Exit(1)
		}
		token, err := api.IssueToken(api.NewTokenAuth(cfg.JWTSecret), *issueToken, *tokenTTL)
		if err != nil {
			slog.Error("Failed to issue token", "err", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	ctx := context.Background()
	services, err := cfg.BuildService(ctx, logger)
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}
	defer services.Close()

	auth, err := authMiddleware(cfg)
	if err != nil {
		slog.Error("Failed to initialize auth middleware", "err", err)
		os.Exit(1)
	}

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	routerConfig := api.RouterConfig{
		Service: services.Admin,
		Feed:    services.Feed,
		Logger:  logger,
		Media:   services.Media,
		Signer:  services.Signer,
		Auth:    auth,
	}
	if services.Registry != nil {
		routerConfig.Gatherer = services.Registry
	}
	api.Mount(server.R, routerConfig)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.R,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Admin server starting", "port", cfg.Port, "env", cfg.Environment, "auth", authMode(cfg))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
	}
	slog.Info("Server exiting")
}

func newLogger(environment string) *slog.Logger {
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// authMiddleware prefers bearer tokens and falls back to API keys. With
// neither configured the API is left open, which Validate only allows
// outside production.
func authMiddleware(cfg *config.ServerConfig) (func(http.Handler) http.Handler, error) {
	switch {
	case cfg.JWTSecret != "":
		return api.RequireToken(api.NewTokenAuth(cfg.JWTSecret)), nil
	case cfg.APIKeySHA256 != "":
		return middleware.ApiKeyMiddleware(middleware.ApiKeyConfig{
			APIKeys: map[string]string{
				"admin": cfg.APIKeySHA256,
			},
		})
	default:
		return nil, nil
	}
}

func authMode(cfg *config.ServerConfig) string {
	switch {
	case cfg.JWTSecret != "":
		return "jwt"
	case cfg.APIKeySHA256 != "":
		return "api-key"
	default:
		return "none"
	}
}
