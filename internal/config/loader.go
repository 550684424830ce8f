package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "BOOKMERGE_"

// Load builds a Config by layering, lowest precedence first:
//  1. defaults (New)
//  2. the YAML file at path, or at BOOKMERGE_CONFIG when path is empty
//  3. BOOKMERGE_* environment variables
//
// GOOGLE_BOOKS_API_KEY, RATE_LIMIT_SECONDS and USER_AGENT fill their
// settings when nothing above set them.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// BOOKMERGE_STANDARD_DIR -> standard_dir
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := applyLegacyEnv(k, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyLegacyEnv(k *koanf.Koanf, cfg *Config) error {
	if !k.Exists("google_books_api_key") {
		if v := strings.TrimSpace(os.Getenv("GOOGLE_BOOKS_API_KEY")); v != "" {
			cfg.GoogleBooksAPIKey = v
		}
	}
	if !k.Exists("user_agent") {
		if v := os.Getenv("USER_AGENT"); v != "" {
			cfg.UserAgent = v
		}
	}
	if !k.Exists("rate_limit_seconds") {
		if v := os.Getenv("RATE_LIMIT_SECONDS"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%w: RATE_LIMIT_SECONDS: %v", ErrInvalidConfig, err)
			}
			cfg.RateLimitSeconds = f
		}
	}
	return nil
}
