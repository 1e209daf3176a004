package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 60, config.RateLimit.RequestsPerMinute)
	assert.Equal(t, 1, config.Download.ConcurrentDownloads)
	assert.Equal(t, "output.csv", config.Output.PostsFile)
	assert.Equal(t, "comments.csv", config.Output.CommentsFile)
	assert.False(t, config.Archive.S3.Enabled())
	assert.NoError(t, config.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IGHARVEST_REQUESTS_PER_MINUTE", "30")
	t.Setenv("IGHARVEST_OUTPUT_DIR", "/tmp/harvest-out")
	t.Setenv("IGHARVEST_CONCURRENT_DOWNLOADS", "4")
	t.Setenv("IGHARVEST_NOTIFICATIONS_ENABLED", "true")
	t.Setenv("IGHARVEST_LOG_LEVEL", "debug")
	t.Setenv("IGHARVEST_REQUEST_TIMEOUT", "45s")
	t.Setenv("IGHARVEST_S3_BUCKET", "harvests")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, 30, config.RateLimit.RequestsPerMinute)
	assert.Equal(t, "/tmp/harvest-out", config.Output.Directory)
	assert.Equal(t, 4, config.Download.ConcurrentDownloads)
	assert.True(t, config.Notifications.Enabled)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, 45*time.Second, config.Instagram.RequestTimeout)
	assert.Equal(t, "harvests", config.Archive.S3.Bucket)

	// untouched fields keep their defaults
	assert.Equal(t, 120, config.RateLimit.MediaPerMinute)
	assert.Equal(t, "output.csv", config.Output.PostsFile)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
rate_limit:
  requests_per_minute: 20
download:
  base_directory: /data/ig
  concurrent_downloads: 2
  download_timeout: 90s
output:
  posts_file: posts.csv
archive:
  sqlite_path: /data/ig/harvest.db
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, 20, config.RateLimit.RequestsPerMinute)
	assert.Equal(t, "/data/ig", config.Download.BaseDirectory)
	assert.Equal(t, 2, config.Download.ConcurrentDownloads)
	assert.Equal(t, 90*time.Second, config.Download.DownloadTimeout)
	assert.Equal(t, "posts.csv", config.Output.PostsFile)
	assert.Equal(t, "comments.csv", config.Output.CommentsFile)
	assert.Equal(t, "/data/ig/harvest.db", config.Archive.SQLitePath)
	assert.Equal(t, "warn", config.Logging.Level)
}

func TestLoadFromFileErrors(t *testing.T) {
	config := DefaultConfig()
	assert.Error(t, config.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rate_limit: [unclosed"), 0644))
	assert.Error(t, config.LoadFromFile(path))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "zero requests per minute",
			mutate:  func(c *Config) { c.RateLimit.RequestsPerMinute = 0 },
			wantErr: "requests per minute must be positive",
		},
		{
			name:    "too many workers",
			mutate:  func(c *Config) { c.Download.ConcurrentDownloads = 11 },
			wantErr: "concurrent downloads should not exceed 10",
		},
		{
			name:    "same output file twice",
			mutate:  func(c *Config) { c.Output.CommentsFile = c.Output.PostsFile },
			wantErr: "different files",
		},
		{
			name:    "bucket without region",
			mutate:  func(c *Config) { c.Archive.S3.Bucket = "media" },
			wantErr: "s3 region is required",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name: "retry delays inverted",
			mutate: func(c *Config) {
				c.Retry.BaseDelay = time.Minute
				c.Retry.MaxDelay = time.Second
			},
			wantErr: "retry delays",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	config := DefaultConfig()
	config.RateLimit.RequestsPerMinute = -1
	config.Download.ConcurrentDownloads = 0
	config.Logging.Level = "loud"

	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requests per minute")
	assert.Contains(t, err.Error(), "concurrent downloads must be positive")
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	config := DefaultConfig()
	config.Download.BaseDirectory = "/srv/harvest"
	config.Retry.MaxDelay = 2 * time.Minute
	require.NoError(t, config.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "/srv/harvest", loaded.Download.BaseDirectory)
	assert.Equal(t, 2*time.Minute, loaded.Retry.MaxDelay)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\ndownload:\n  concurrent_downloads: 2\n"), 0644))

	t.Setenv("IGHARVEST_LOG_LEVEL", "error")

	config, err := Load(path, map[string]interface{}{
		"concurrent": 5,
	})
	require.NoError(t, err)

	assert.Equal(t, "error", config.Logging.Level, "env beats file")
	assert.Equal(t, 5, config.Download.ConcurrentDownloads, "flags beat file")
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))
	t.Setenv("IGHARVEST_CONCURRENT_DOWNLOADS", "50")

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrent downloads should not exceed 10")
}
