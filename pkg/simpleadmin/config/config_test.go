package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-admin/pkg/simpleadmin"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.DatabaseType)
	assert.Equal(t, "memory", cfg.MediaStorage.Type)
	assert.Equal(t, simpleadmin.DefaultMediaPrefix, cfg.MediaPrefix)
	assert.Equal(t, "reference", cfg.KeyMapping)
	assert.Equal(t, time.Hour, cfg.SignedURLExpiry)
	assert.True(t, cfg.EnableMetrics)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr string
	}{
		{
			name:    "filesystem storage without signing secret",
			opts:    []Option{WithFilesystemStorage(t.TempDir(), "")},
			wantErr: "signing_secret",
		},
		{
			name:    "production without auth",
			opts:    []Option{WithEnvironment("production")},
			wantErr: "jwt_secret",
		},
		{
			name: "production with jwt",
			opts: []Option{WithEnvironment("production"), WithJWTSecret("secret")},
		},
		{
			name:    "postgres without url",
			opts:    []Option{WithDatabase("postgres", "")},
			wantErr: "database URL is required",
		},
		{
			name:    "unknown key mapping",
			opts:    []Option{WithKeyMapping("guess")},
			wantErr: "key mapping",
		},
		{
			name:    "credentials without s3",
			opts:    []Option{WithS3Credentials("id", "secret")},
			wantErr: "S3 credentials require S3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.opts...)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWithMediaPrefixAddsSlash(t *testing.T) {
	cfg, err := Load(WithMediaPrefix("uploads"))
	require.NoError(t, err)
	assert.Equal(t, "uploads/", cfg.MediaPrefix)
	assert.Equal(t, "uploads/", cfg.Mapping().Prefix)
}

func TestMapping(t *testing.T) {
	cfg, err := Load(WithKeyMapping("descriptor"))
	require.NoError(t, err)

	mapping := cfg.Mapping()
	key, ok := mapping.ReferencedKey(simpleadmin.MediaDescriptor{Key: "a.png", URL: "https://cdn.example.com/other/b.png"})
	assert.True(t, ok)
	assert.Equal(t, "images/a.png", key)
}

func TestBuildService_Memory(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	ctx := context.Background()
	services, err := cfg.BuildService(ctx, nil)
	require.NoError(t, err)
	defer services.Close()

	require.NotNil(t, services.Admin)
	require.NotNil(t, services.Registry)
	assert.False(t, services.Signer.IsEnabled())

	_, err = services.Admin.UploadMedia(ctx, strings.NewReader("png"), simpleadmin.UploadMediaRequest{Key: "a.png", MimeType: "image/png"})
	require.NoError(t, err)

	usage, err := services.Admin.MediaUsage(ctx)
	require.NoError(t, err)
	assert.Len(t, usage.NotInUse, 1)
	assert.Empty(t, usage.InUse)

	recent := services.Feed.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, "Image successfully uploaded!", recent[0].Message)

	families, err := services.Registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "simpleadmin_media_actions_total")
	assert.Contains(t, names, "simpleadmin_media_not_in_use")
}

func TestBuildService_Filesystem(t *testing.T) {
	cfg, err := Load(
		WithFilesystemStorage(t.TempDir(), "signing-secret"),
		WithBaseURL("https://admin.example.com/"),
		WithMetrics(false),
	)
	require.NoError(t, err)

	ctx := context.Background()
	services, err := cfg.BuildService(ctx, nil)
	require.NoError(t, err)
	defer services.Close()

	assert.Nil(t, services.Registry)
	assert.True(t, services.Signer.IsEnabled())

	d, err := services.Admin.UploadMedia(ctx, strings.NewReader("png"), simpleadmin.UploadMediaRequest{Key: "a.png", MimeType: "image/png"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(d.URL, "https://admin.example.com/media/files/images/a.png?signature="), d.URL)
}

func TestBuildService_KeyIndexFile(t *testing.T) {
	cfg, err := Load(WithKeyIndexFile(t.TempDir() + "/missing.json"))
	require.NoError(t, err)

	services, err := cfg.BuildService(context.Background(), nil)
	require.NoError(t, err)
	defer services.Close()

	_, err = services.Admin.KeyIndex(context.Background())
	assert.Error(t, err)
}
