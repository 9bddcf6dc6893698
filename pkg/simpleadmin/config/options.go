package config

import (
	"fmt"
	"strings"
	"time"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithBaseURL sets the public origin used in signed media URLs
func WithBaseURL(baseURL string) Option {
	return func(c *ServerConfig) error {
		c.BaseURL = strings.TrimSuffix(baseURL, "/")
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithAutoMigrate creates the post table on startup
func WithAutoMigrate(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.AutoMigrate = enabled
		return nil
	}
}

// WithMemoryStorage keeps media in process memory
func WithMemoryStorage() Option {
	return func(c *ServerConfig) error {
		c.MediaStorage = StorageBackendConfig{Name: "memory", Type: "memory", Config: map[string]interface{}{}}
		return nil
	}
}

// WithFilesystemStorage stores media under baseDir and serves it through
// signed URLs. A signing secret is required.
func WithFilesystemStorage(baseDir, signingSecret string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.MediaStorage = StorageBackendConfig{
			Name:   "fs",
			Type:   "fs",
			Config: map[string]interface{}{"base_dir": baseDir},
		}
		if signingSecret != "" {
			c.SigningSecret = signingSecret
		}
		return nil
	}
}

// WithS3Storage configures S3 media storage
func WithS3Storage(bucket, region string) Option {
	return func(c *ServerConfig) error {
		if bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
		if region == "" {
			region = "us-east-1"
		}
		c.MediaStorage = StorageBackendConfig{
			Name: "s3",
			Type: "s3",
			Config: map[string]interface{}{
				"bucket": bucket,
				"region": region,
			},
		}
		return nil
	}
}

// WithS3Credentials sets static credentials on the S3 media storage
func WithS3Credentials(accessKeyID, secretAccessKey string) Option {
	return func(c *ServerConfig) error {
		if c.MediaStorage.Type != "s3" {
			return fmt.Errorf("S3 credentials require S3 media storage, got %q", c.MediaStorage.Type)
		}
		c.MediaStorage.Config["access_key_id"] = accessKeyID
		c.MediaStorage.Config["secret_access_key"] = secretAccessKey
		return nil
	}
}

// WithS3Endpoint points the S3 media storage at an S3-compatible service such as MinIO
func WithS3Endpoint(endpoint string, usePathStyle bool) Option {
	return func(c *ServerConfig) error {
		if c.MediaStorage.Type != "s3" {
			return fmt.Errorf("S3 endpoint requires S3 media storage, got %q", c.MediaStorage.Type)
		}
		c.MediaStorage.Config["endpoint"] = endpoint
		c.MediaStorage.Config["use_path_style"] = usePathStyle
		return nil
	}
}

// WithMediaPrefix sets the key prefix content uses when referencing media
func WithMediaPrefix(prefix string) Option {
	return func(c *ServerConfig) error {
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		c.MediaPrefix = prefix
		return nil
	}
}

// WithKeyMapping selects how media descriptors map to referenced keys:
// "reference" parses the resolved URL, "descriptor" trusts the stored key.
func WithKeyMapping(mode string) Option {
	return func(c *ServerConfig) error {
		if mode != "reference" && mode != "descriptor" {
			return fmt.Errorf("key mapping must be 'reference' or 'descriptor', got: %s", mode)
		}
		c.KeyMapping = mode
		return nil
	}
}

// WithKeyIndexFile reads referenced keys from a build-time export instead of the repository
func WithKeyIndexFile(path string) Option {
	return func(c *ServerConfig) error {
		c.KeyIndexFile = path
		return nil
	}
}

// WithJWTSecret enables HS256 bearer token auth on the API
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithAPIKeySHA256 enables API key auth with the given key digest
func WithAPIKeySHA256(digest string) Option {
	return func(c *ServerConfig) error {
		c.APIKeySHA256 = digest
		return nil
	}
}

// WithSigningSecret sets the HMAC secret for locally served media URLs
func WithSigningSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.SigningSecret = secret
		return nil
	}
}

// WithSignedURLExpiry sets how long resolved media URLs stay valid
func WithSignedURLExpiry(d time.Duration) Option {
	return func(c *ServerConfig) error {
		if d <= 0 {
			return fmt.Errorf("signed URL expiry must be positive, got %s", d)
		}
		c.SignedURLExpiry = d
		return nil
	}
}

// WithNotificationCapacity bounds the in-memory notification feed
func WithNotificationCapacity(n int) Option {
	return func(c *ServerConfig) error {
		c.NotificationCapacity = n
		return nil
	}
}

// WithResolveConcurrency bounds concurrent media URL resolution
func WithResolveConcurrency(n int) Option {
	return func(c *ServerConfig) error {
		c.ResolveConcurrency = n
		return nil
	}
}

// WithMetrics toggles the Prometheus registry
func WithMetrics(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableMetrics = enabled
		return nil
	}
}
