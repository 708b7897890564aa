// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// ErrTokenRequired is returned when TELEGRAM_BOT_TOKEN is not set.
var ErrTokenRequired = errors.New("config: TELEGRAM_BOT_TOKEN is required")

// Config holds all runtime settings for the bot.
type Config struct {
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN, required" json:"-"`

	// Workspace settings
	WorkDir         string        `env:"TMP_DIR, default=downloads" json:"work_dir"`
	CleanupDelay    time.Duration `env:"CLEANUP_DELAY, default=30s" json:"cleanup_delay"`
	WorkspaceMaxAge time.Duration `env:"WORKSPACE_MAX_AGE, default=2h" json:"workspace_max_age"`
	SessionMaxAge   time.Duration `env:"SESSION_MAX_AGE, default=30m" json:"session_max_age"`
	JanitorSpec     string        `env:"JANITOR_SPEC, default=@every 1h" json:"janitor_spec"`

	// Transcoder settings
	FFmpegBin         string        `env:"FFMPEG_BIN, default=ffmpeg" json:"ffmpeg_bin"`
	FFprobeBin        string        `env:"FFPROBE_BIN, default=ffprobe" json:"ffprobe_bin"`
	FFmpegTimeout     time.Duration `env:"FFMPEG_TIMEOUT, default=10m" json:"ffmpeg_timeout"`
	FFmpegConcurrency int           `env:"FFMPEG_CONCURRENCY, default=2" json:"ffmpeg_concurrency"`

	// Watermark defaults
	FontFile          string `env:"FONT_FILE" json:"font_file,omitempty"`
	WatermarkFontSize int    `env:"WM_FONT_SIZE, default=36" json:"wm_font_size"`
	WatermarkColor    string `env:"WM_COLOR, default=white" json:"wm_color"`

	// Optional result archive (S3-compatible)
	S3Endpoint  string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	S3Region    string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Bucket    string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3AccessKey string `env:"S3_ACCESS_KEY_ID" json:"-"`
	S3SecretKey string `env:"S3_SECRET_ACCESS_KEY" json:"-"`
	S3LedgerKey string `env:"S3_LEDGER_KEY, default=jobs.json" json:"s3_ledger_key"`
}

// ArchiveEnabled reports whether result archiving to S3 is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(context.Background(), cfg); err != nil {
		if strings.Contains(err.Error(), "TELEGRAM_BOT_TOKEN") {
			return nil, ErrTokenRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks that required configuration is present and sane.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return ErrTokenRequired
	}
	if c.FFmpegConcurrency < 1 {
		return fmt.Errorf("config: FFMPEG_CONCURRENCY must be >= 1, got %d", c.FFmpegConcurrency)
	}
	if c.FFmpegTimeout <= 0 {
		return fmt.Errorf("config: FFMPEG_TIMEOUT must be positive, got %s", c.FFmpegTimeout)
	}
	return nil
}

// String returns the config with secrets masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{WorkDir: %s, FFmpegBin: %s, FFprobeBin: %s, Timeout: %s, Concurrency: %d, CleanupDelay: %s, Archive: %t}",
		c.WorkDir,
		c.FFmpegBin,
		c.FFprobeBin,
		c.FFmpegTimeout,
		c.FFmpegConcurrency,
		c.CleanupDelay,
		c.ArchiveEnabled(),
	)
}
