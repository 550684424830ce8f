// Package config holds the settings of bookmerge runs.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Sentinel errors, usable with errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Config contains the settings of the integrate and enrich commands.
type Config struct {
	// LandingDir holds the raw input artifacts.
	LandingDir string `koanf:"landing_dir"`
	// StandardDir receives the parquet tables.
	StandardDir string `koanf:"standard_dir"`
	// DocsDir receives the quality report and the schema description.
	DocsDir string `koanf:"docs_dir"`

	ScrapeFile string `koanf:"scrape_file"`
	APIFile    string `koanf:"api_file"`

	// MaxNullTitleRate is the fraction of title-less rows above which a
	// source is rejected.
	MaxNullTitleRate float64 `koanf:"max_null_title_rate"`
	// ReportFormat is json or yaml.
	ReportFormat string `koanf:"report_format"`

	// SQLitePath enables the SQLite mirror of dim_book when set.
	SQLitePath string `koanf:"sqlite_path"`
	// MetricsTextfile enables the Prometheus textfile when set.
	MetricsTextfile string `koanf:"metrics_textfile"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	GoogleBooksAPIKey string  `koanf:"google_books_api_key"`
	RateLimitSeconds  float64 `koanf:"rate_limit_seconds"`
	UserAgent         string  `koanf:"user_agent"`
	RetryAttempts     int     `koanf:"retry_attempts"`
	RetryWaitSeconds  float64 `koanf:"retry_wait_seconds"`
}

// New returns a Config with default values.
func New() *Config {
	return &Config{
		LandingDir:       "landing",
		StandardDir:      "standard",
		DocsDir:          "docs",
		ScrapeFile:       "goodreads_books.json",
		APIFile:          "googlebooks_books.csv",
		MaxNullTitleRate: 0.10,
		ReportFormat:     "json",
		LogLevel:         "info",
		RateLimitSeconds: 0.8,
		UserAgent:        "bookmerge/1.0",
		RetryAttempts:    5,
		RetryWaitSeconds: 5,
	}
}

// ScrapePath is the location of the scrape JSON.
func (c *Config) ScrapePath() string {
	return landingPath(c.LandingDir, c.ScrapeFile)
}

// APIPath is the location of the API CSV.
func (c *Config) APIPath() string {
	return landingPath(c.LandingDir, c.APIFile)
}

func landingPath(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// RateLimit is the minimum spacing between API requests.
func (c *Config) RateLimit() time.Duration {
	return seconds(c.RateLimitSeconds)
}

// RetryWait is the pause between attempts of a failed API request.
func (c *Config) RetryWait() time.Duration {
	return seconds(c.RetryWaitSeconds)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.StandardDir == "":
		return fmt.Errorf("%w: standard_dir must not be empty", ErrInvalidConfig)
	case c.DocsDir == "":
		return fmt.Errorf("%w: docs_dir must not be empty", ErrInvalidConfig)
	case c.MaxNullTitleRate <= 0 || c.MaxNullTitleRate > 1:
		return fmt.Errorf("%w: max_null_title_rate must be in (0, 1], got %v", ErrInvalidConfig, c.MaxNullTitleRate)
	case c.ReportFormat != "json" && c.ReportFormat != "yaml":
		return fmt.Errorf("%w: report_format must be json or yaml, got %q", ErrInvalidConfig, c.ReportFormat)
	case c.RateLimitSeconds < 0:
		return fmt.Errorf("%w: rate_limit_seconds must not be negative", ErrInvalidConfig)
	case c.RetryAttempts < 1:
		return fmt.Errorf("%w: retry_attempts must be at least 1", ErrInvalidConfig)
	case c.RetryWaitSeconds < 0:
		return fmt.Errorf("%w: retry_wait_seconds must not be negative", ErrInvalidConfig)
	}
	return nil
}
