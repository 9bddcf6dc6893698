package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// envConfig mirrors the environment variables WithEnv understands. Unset
// variables leave the corresponding ServerConfig field untouched.
type envConfig struct {
	Port        string `env:"PORT"`
	Environment string `env:"ENVIRONMENT"`
	BaseURL     string `env:"BASE_URL"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBSchema    string `env:"DB_SCHEMA"`
	AutoMigrate string `env:"AUTO_MIGRATE"`

	StorageURL    string `env:"STORAGE_URL"`
	MediaPrefix   string `env:"MEDIA_PREFIX"`
	KeyMapping    string `env:"KEY_MAPPING"`
	KeyIndexFile  string `env:"KEY_INDEX_FILE"`
	SigningSecret string `env:"SIGNING_SECRET"`
	SignedURLTTL  string `env:"SIGNED_URL_TTL"`

	JWTSecret    string `env:"JWT_SECRET"`
	APIKeySHA256 string `env:"API_KEY_SHA256"`

	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSRegion          string `env:"AWS_REGION"`

	ResolveConcurrency string `env:"RESOLVE_CONCURRENCY"`
	EnableMetrics      string `env:"ENABLE_METRICS"`
}

// WithEnv applies environment variable overrides.
//
// Server:
//
//	PORT, ENVIRONMENT, BASE_URL
//
// Database:
//
//	DATABASE_URL - "memory" (default) or "postgresql://..."
//	DB_SCHEMA, AUTO_MIGRATE
//
// Media:
//
//	STORAGE_URL - one of:
//	              "memory://" (default)
//	              "file:///path/to/media"
//	              "s3://bucket?region=us-east-1&endpoint=http://localhost:9000&path_style=true"
//	MEDIA_PREFIX, KEY_MAPPING, KEY_INDEX_FILE, SIGNING_SECRET, SIGNED_URL_TTL
//
// Auth:
//
//	JWT_SECRET, API_KEY_SHA256
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env envConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return env.apply(c)
	}
}

func (e envConfig) apply(c *ServerConfig) error {
	setString(&c.Port, e.Port)
	setString(&c.Environment, e.Environment)
	setString(&c.BaseURL, strings.TrimSuffix(e.BaseURL, "/"))
	setString(&c.DBSchema, e.DBSchema)
	setString(&c.KeyMapping, e.KeyMapping)
	setString(&c.KeyIndexFile, e.KeyIndexFile)
	setString(&c.SigningSecret, e.SigningSecret)
	setString(&c.JWTSecret, e.JWTSecret)
	setString(&c.APIKeySHA256, e.APIKeySHA256)

	if e.MediaPrefix != "" {
		if err := WithMediaPrefix(e.MediaPrefix)(c); err != nil {
			return err
		}
	}

	if err := parseBool("AUTO_MIGRATE", e.AutoMigrate, &c.AutoMigrate); err != nil {
		return err
	}
	if err := parseBool("ENABLE_METRICS", e.EnableMetrics, &c.EnableMetrics); err != nil {
		return err
	}
	if e.ResolveConcurrency != "" {
		n, err := strconv.Atoi(e.ResolveConcurrency)
		if err != nil {
			return fmt.Errorf("invalid integer for RESOLVE_CONCURRENCY: %w", err)
		}
		c.ResolveConcurrency = n
	}
	if e.SignedURLTTL != "" {
		d, err := time.ParseDuration(e.SignedURLTTL)
		if err != nil {
			return fmt.Errorf("invalid duration for SIGNED_URL_TTL: %w", err)
		}
		c.SignedURLExpiry = d
	}

	if err := e.applyDatabase(c); err != nil {
		return err
	}
	return e.applyStorage(c)
}

// applyDatabase applies database configuration from environment
func (e envConfig) applyDatabase(c *ServerConfig) error {
	switch {
	case e.DatabaseURL == "":
		return nil
	case e.DatabaseURL == "memory":
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
	case strings.HasPrefix(e.DatabaseURL, "postgresql://"), strings.HasPrefix(e.DatabaseURL, "postgres://"):
		c.DatabaseType = "postgres"
		c.DatabaseURL = e.DatabaseURL
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", e.DatabaseURL)
	}
	return nil
}

// applyStorage applies media storage configuration from environment
func (e envConfig) applyStorage(c *ServerConfig) error {
	if e.StorageURL == "" {
		return nil
	}
	if e.StorageURL == "memory" {
		return WithMemoryStorage()(c)
	}

	u, err := url.Parse(e.StorageURL)
	if err != nil {
		return fmt.Errorf("invalid STORAGE_URL: %w", err)
	}

	switch u.Scheme {
	case "memory":
		return WithMemoryStorage()(c)

	case "file":
		if u.Path == "" {
			return fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
		}
		return WithFilesystemStorage(u.Path, "")(c)

	case "s3":
		query := u.Query()
		region := query.Get("region")
		if region == "" {
			region = e.AWSRegion
		}
		if err := WithS3Storage(u.Host, region)(c); err != nil {
			return err
		}
		if e.AWSAccessKeyID != "" && e.AWSSecretAccessKey != "" {
			if err := WithS3Credentials(e.AWSAccessKeyID, e.AWSSecretAccessKey)(c); err != nil {
				return err
			}
		}
		if endpoint := query.Get("endpoint"); endpoint != "" {
			pathStyle, _ := strconv.ParseBool(query.Get("path_style"))
			if err := WithS3Endpoint(endpoint, pathStyle)(c); err != nil {
				return err
			}
		}
		if query.Get("create_bucket") == "true" {
			c.MediaStorage.Config["create_bucket_if_not_exist"] = true
		}
		return nil
	}

	return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", e.StorageURL)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func parseBool(key, raw string, dst *bool) error {
	if raw == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid boolean for %s: %w", key, err)
	}
	*dst = parsed
	return nil
}
