package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for a harvest run
type Config struct {
	Instagram     InstagramConfig    `yaml:"instagram" json:"instagram"`
	RateLimit     RateLimitConfig    `yaml:"rate_limit" json:"rate_limit"`
	Retry         RetryConfig        `yaml:"retry" json:"retry"`
	Download      DownloadConfig     `yaml:"download" json:"download"`
	Output        OutputConfig       `yaml:"output" json:"output"`
	Archive       ArchiveConfig      `yaml:"archive" json:"archive"`
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`
	Logging       LoggingConfig      `yaml:"logging" json:"logging"`
}

// InstagramConfig holds settings for the scraping client
type InstagramConfig struct {
	UserAgent      string        `yaml:"user_agent" json:"user_agent" env:"IGHARVEST_USER_AGENT"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout" env:"IGHARVEST_REQUEST_TIMEOUT"`
}

// RateLimitConfig holds per request kind budgets
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute" env:"IGHARVEST_REQUESTS_PER_MINUTE"`
	MediaPerMinute    int `yaml:"media_per_minute" json:"media_per_minute" env:"IGHARVEST_MEDIA_PER_MINUTE"`
}

// RetryConfig holds retry behaviour for retryable request failures
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled" env:"IGHARVEST_RETRY_ENABLED"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts" env:"IGHARVEST_RETRY_MAX_ATTEMPTS"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier"`
}

// DownloadConfig holds media download settings
type DownloadConfig struct {
	BaseDirectory       string        `yaml:"base_directory" json:"base_directory" env:"IGHARVEST_DOWNLOAD_DIR"`
	ConcurrentDownloads int           `yaml:"concurrent_downloads" json:"concurrent_downloads" env:"IGHARVEST_CONCURRENT_DOWNLOADS"`
	DownloadTimeout     time.Duration `yaml:"download_timeout" json:"download_timeout"`
	SaveCaptions        bool          `yaml:"save_captions" json:"save_captions"`
	SaveMetadata        bool          `yaml:"save_metadata" json:"save_metadata"`
}

// OutputConfig holds the location of the exported tables
type OutputConfig struct {
	Directory    string `yaml:"directory" json:"directory" env:"IGHARVEST_OUTPUT_DIR"`
	PostsFile    string `yaml:"posts_file" json:"posts_file"`
	CommentsFile string `yaml:"comments_file" json:"comments_file"`
}

// ArchiveConfig holds optional sinks that receive the same rows as the CSV files
type ArchiveConfig struct {
	SQLitePath  string   `yaml:"sqlite_path" json:"sqlite_path" env:"IGHARVEST_SQLITE_PATH"`
	PostgresDSN string   `yaml:"postgres_dsn" json:"postgres_dsn" env:"IGHARVEST_POSTGRES_DSN"`
	S3          S3Config `yaml:"s3" json:"s3"`
}

// S3Config holds S3 (or MinIO) mirror settings
type S3Config struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint" env:"IGHARVEST_S3_ENDPOINT"`
	Region          string `yaml:"region" json:"region" env:"IGHARVEST_S3_REGION"`
	Bucket          string `yaml:"bucket" json:"bucket" env:"IGHARVEST_S3_BUCKET"`
	Prefix          string `yaml:"prefix" json:"prefix" env:"IGHARVEST_S3_PREFIX"`
	AccessKeyID     string `yaml:"access_key_id" json:"-" env:"IGHARVEST_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" json:"-" env:"IGHARVEST_S3_SECRET_ACCESS_KEY"`
}

// Enabled reports whether a bucket is configured
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled    bool `yaml:"enabled" json:"enabled" env:"IGHARVEST_NOTIFICATIONS_ENABLED"`
	OnComplete bool `yaml:"on_complete" json:"on_complete"`
	OnError    bool `yaml:"on_error" json:"on_error"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level" env:"IGHARVEST_LOG_LEVEL"`
	File  string `yaml:"file" json:"file" env:"IGHARVEST_LOG_FILE"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			RequestTimeout: 30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			MediaPerMinute:    120,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    60 * time.Second,
			Multiplier:  2.0,
		},
		Download: DownloadConfig{
			BaseDirectory:       ".",
			ConcurrentDownloads: 1,
			DownloadTimeout:     60 * time.Second,
			SaveCaptions:        true,
			SaveMetadata:        true,
		},
		Output: OutputConfig{
			Directory:    ".",
			PostsFile:    "output.csv",
			CommentsFile: "comments.csv",
		},
		Notifications: NotificationConfig{
			Enabled:    false,
			OnComplete: true,
			OnError:    true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv overrides fields whose IGHARVEST_* variable is set
func (c *Config) LoadFromEnv() error {
	if err := cleanenv.ReadEnv(c); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches the standard locations and returns the first hit
func FindConfigFile() string {
	home, _ := os.UserHomeDir()
	locations := []string{
		".igharvest.yaml",
		".igharvest.yml",
		filepath.Join(home, ".config", "igharvest", "config.yaml"),
		filepath.Join(home, ".config", "igharvest", "config.yml"),
		filepath.Join(home, ".igharvest.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// DefaultConfigPath is where `config init` writes a new file
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".igharvest.yaml"
	}
	return filepath.Join(home, ".config", "igharvest", "config.yaml")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Instagram.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.MediaPerMinute <= 0 {
		errs = append(errs, errors.New("media per minute must be positive"))
	}

	if c.Retry.Enabled {
		if c.Retry.MaxAttempts < 1 {
			errs = append(errs, errors.New("retry max attempts must be at least 1"))
		}
		if c.Retry.Multiplier < 1 {
			errs = append(errs, errors.New("retry multiplier must be at least 1"))
		}
		if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < c.Retry.BaseDelay {
			errs = append(errs, errors.New("retry delays must satisfy 0 <= base_delay <= max_delay"))
		}
	}

	if c.Download.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent downloads must be positive"))
	}
	if c.Download.ConcurrentDownloads > 10 {
		errs = append(errs, errors.New("concurrent downloads should not exceed 10"))
	}
	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.BaseDirectory == "" {
		errs = append(errs, errors.New("download directory is required"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.PostsFile == "" || c.Output.CommentsFile == "" {
		errs = append(errs, errors.New("posts and comments file names are required"))
	}
	if c.Output.PostsFile != "" && c.Output.PostsFile == c.Output.CommentsFile {
		errs = append(errs, errors.New("posts and comments must be written to different files"))
	}

	if c.Archive.S3.Enabled() && c.Archive.S3.Region == "" {
		errs = append(errs, errors.New("s3 region is required when a bucket is set"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if downloadDir, ok := flags["download-dir"].(string); ok && downloadDir != "" {
		c.Download.BaseDirectory = downloadDir
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent > 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if notifications, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = notifications
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: flags > environment > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".igharvest.env"))
	}

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
