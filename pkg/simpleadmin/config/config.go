package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tendant/simple-admin/pkg/simpleadmin"
	"github.com/tendant/simple-admin/pkg/simpleadmin/metrics"
	"github.com/tendant/simple-admin/pkg/simpleadmin/presigned"
	"github.com/tendant/simple-admin/pkg/simpleadmin/repo/memory"
	repopg "github.com/tendant/simple-admin/pkg/simpleadmin/repo/postgres"
	fsstorage "github.com/tendant/simple-admin/pkg/simpleadmin/storage/fs"
	memorystorage "github.com/tendant/simple-admin/pkg/simpleadmin/storage/memory"
	s3storage "github.com/tendant/simple-admin/pkg/simpleadmin/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		DatabaseType: "memory",
		DBSchema:     "admin",
		MediaStorage: StorageBackendConfig{
			Name:   "memory",
			Type:   "memory",
			Config: map[string]interface{}{},
		},
		MediaPrefix:          simpleadmin.DefaultMediaPrefix,
		KeyMapping:           "reference",
		SignedURLExpiry:      time.Hour,
		NotificationCapacity: 50,
		ResolveConcurrency:   8,
		EnableMetrics:        true,
	}
}

// ServerConfig represents server configuration for the admin service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing
	BaseURL     string // Public origin prefixed to signed media URLs

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string // Postgres schema to use (default: admin)
	AutoMigrate  bool   // Create the post table on startup

	// Media configuration
	MediaStorage StorageBackendConfig
	MediaPrefix  string
	KeyMapping   string // "reference" (parse the URL) or "descriptor" (trust the key)
	KeyIndexFile string // Optional build-time export of referenced keys

	// Auth and signing
	JWTSecret       string
	APIKeySHA256    string
	SigningSecret   string
	SignedURLExpiry time.Duration

	// Server options
	NotificationCapacity int
	ResolveConcurrency   int
	EnableMetrics        bool
}

// StorageBackendConfig represents configuration for the media storage backend
type StorageBackendConfig struct {
	Name   string
	Type   string // "memory", "fs", "s3"
	Config map[string]interface{}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	switch c.MediaStorage.Type {
	case "memory", "s3":
	case "fs":
		if c.SigningSecret == "" {
			return errors.New("signing_secret is required when using filesystem media storage")
		}
	default:
		return fmt.Errorf("unsupported media storage type: %s", c.MediaStorage.Type)
	}

	if c.MediaPrefix != "" && !strings.HasSuffix(c.MediaPrefix, "/") {
		return fmt.Errorf("media prefix %q must end with '/'", c.MediaPrefix)
	}

	if c.KeyMapping != "reference" && c.KeyMapping != "descriptor" {
		return errors.New("key_mapping must be 'reference' or 'descriptor'")
	}

	if c.Environment == "production" && c.JWTSecret == "" && c.APIKeySHA256 == "" {
		return errors.New("jwt_secret or api_key_sha256 is required in production")
	}

	return nil
}

// Services holds everything BuildService wires together.
type Services struct {
	Admin    simpleadmin.Service
	Media    simpleadmin.MediaStore
	Feed     *simpleadmin.NotificationFeed
	Signer   *presigned.Signer
	Registry *prometheus.Registry

	closers []func()
}

// Close releases database connections held by the services.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// Signer returns the HMAC signer for locally served media URLs. It is
// disabled when no signing secret is configured.
func (c *ServerConfig) Signer() *presigned.Signer {
	return presigned.New(
		presigned.WithSecretKey(c.SigningSecret),
		presigned.WithBaseURL(c.BaseURL),
		presigned.WithDefaultExpiration(c.SignedURLExpiry),
	)
}

// Mapping returns the key mapping the reconciler uses.
func (c *ServerConfig) Mapping() simpleadmin.KeyMapping {
	mapping := simpleadmin.KeyMapping{Prefix: c.MediaPrefix, Extract: simpleadmin.KeyFromReference}
	if c.KeyMapping == "descriptor" {
		mapping.Extract = simpleadmin.KeyFromDescriptor
	}
	return mapping
}

// BuildService creates the admin Service and its collaborators from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger) (*Services, error) {
	if logger == nil {
		logger = slog.Default()
	}

	services := &Services{
		Feed:   simpleadmin.NewNotificationFeed(c.NotificationCapacity),
		Signer: c.Signer(),
	}

	options := []simpleadmin.Option{
		simpleadmin.WithLogger(logger),
		simpleadmin.WithKeyMapping(c.Mapping()),
		simpleadmin.WithResolveConcurrency(c.ResolveConcurrency),
		simpleadmin.WithNotifier(simpleadmin.MultiNotifier{
			services.Feed,
			simpleadmin.NewSlogNotifier(logger),
		}),
	}

	// Set up repository
	repo, err := c.buildRepository(ctx, services)
	if err != nil {
		services.Close()
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	options = append(options, simpleadmin.WithRepository(repo))

	// Set up media storage
	store, err := c.buildStorageBackend(c.MediaStorage, services.Signer)
	if err != nil {
		services.Close()
		return nil, fmt.Errorf("failed to build storage backend %s: %w", c.MediaStorage.Name, err)
	}
	services.Media = store
	options = append(options, simpleadmin.WithMediaStore(c.MediaStorage.Name, store))

	if c.KeyIndexFile != "" {
		options = append(options, simpleadmin.WithKeyIndexSource(simpleadmin.NewFileKeyIndex(c.KeyIndexFile)))
	}

	if c.EnableMetrics {
		services.Registry = prometheus.NewRegistry()
		services.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		options = append(options, simpleadmin.WithMetrics(metrics.New(services.Registry)))
	}

	svc, err := simpleadmin.New(options...)
	if err != nil {
		services.Close()
		return nil, err
	}
	services.Admin = svc

	logger.Info("Admin service configured",
		"database", c.DatabaseType,
		"media_storage", c.MediaStorage.Type,
		"media_prefix", c.MediaPrefix,
		"key_mapping", c.KeyMapping,
	)
	return services, nil
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context, services *Services) (simpleadmin.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil
	case "postgres":
		pool, err := NewPool(ctx, c.DatabaseURL, c.DBSchema)
		if err != nil {
			return nil, err
		}
		services.closers = append(services.closers, pool.Close)

		if c.AutoMigrate {
			if err := repopg.Migrate(ctx, pool); err != nil {
				return nil, err
			}
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// NewPool connects to Postgres with search_path set to schema and verifies
// the connection.
func NewPool(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, errors.New("database_url is required")
	}
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		poolConfig.ConnConfig.RuntimeParams["search_path"] = schema
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// buildStorageBackend creates a MediaStore based on the backend configuration
func (c *ServerConfig) buildStorageBackend(config StorageBackendConfig, signer *presigned.Signer) (simpleadmin.MediaStore, error) {
	switch config.Type {
	case "memory":
		return memorystorage.New(signer), nil

	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir: getString(config.Config, "base_dir", "./data/media"),
			Signer:  signer,
		})

	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 getString(config.Config, "region", "us-east-1"),
			Bucket:                 getString(config.Config, "bucket", ""),
			AccessKeyID:            getString(config.Config, "access_key_id", ""),
			SecretAccessKey:        getString(config.Config, "secret_access_key", ""),
			Endpoint:               getString(config.Config, "endpoint", ""),
			UsePathStyle:           getBool(config.Config, "use_path_style", false),
			PresignDuration:        getInt(config.Config, "presign_duration", int(c.SignedURLExpiry/time.Second)),
			EnableSSE:              getBool(config.Config, "enable_sse", false),
			SSEAlgorithm:           getString(config.Config, "sse_algorithm", "AES256"),
			SSEKMSKeyID:            getString(config.Config, "sse_kms_key_id", ""),
			CreateBucketIfNotExist: getBool(config.Config, "create_bucket_if_not_exist", false),
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", config.Type)
	}
}

func getString(config map[string]interface{}, key string, defaultValue string) string {
	if value, exists := config[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

func getBool(config map[string]interface{}, key string, defaultValue bool) bool {
	if value, exists := config[key]; exists {
		if b, ok := value.(bool); ok {
			return b
		}
		if str, ok := value.(string); ok {
			if b, err := strconv.ParseBool(str); err == nil {
				return b
			}
		}
	}
	return defaultValue
}

func getInt(config map[string]interface{}, key string, defaultValue int) int {
	if value, exists := config[key]; exists {
		switch v := value.(type) {
		case int:
			return v
		case float64:
			return int(v)
		case string:
			if i, err := strconv.Atoi(v); err == nil {
				return i
			}
		}
	}
	return defaultValue
}
