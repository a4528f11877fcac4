// Package config loads client configuration from defaults, an optional YAML
// file, and environment variables, in that priority order (environment wins).
//
// Environment variables use the APICORE_ prefix with double underscores
// standing in for nesting, e.g. APICORE_RETRY__MAX=5 sets retry.max and
// APICORE_BASE_URL sets base_url.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces the environment variables read by Load.
const EnvPrefix = "APICORE_"

// Config is the full configuration surface of a client core.
type Config struct {
	// BaseURL is prepended verbatim to every request path.
	BaseURL string `koanf:"base_url"`

	// Timeout is the per-attempt transport timeout.
	Timeout time.Duration `koanf:"timeout"`

	Retry      Retry      `koanf:"retry"`
	Auth       Auth       `koanf:"auth"`
	Rate       Rate       `koanf:"rate"`
	Log        Log        `koanf:"log"`
	Middleware Middleware `koanf:"middleware"`
}

// Retry configures the retry engine.
type Retry struct {
	// Max is the retry ceiling after the initial attempt.
	Max int `koanf:"max"`

	// Interval is the wait before the first retry; later waits double it.
	Interval time.Duration `koanf:"interval"`
}

// Auth selects a credential strategy by scheme tag. Scheme is one of
// "Bearer", "Basic", or "Custom"; empty means no auth. Key/Value carry the
// scheme-specific fields (token, username/password, header name/value).
type Auth struct {
	Scheme string `koanf:"scheme"`
	Key    string `koanf:"key"`
	Value  string `koanf:"value"`
}

// Rate configures the optional client-side limiter. A zero Limit disables it.
type Rate struct {
	Limit float64 `koanf:"limit"`
	Burst int     `koanf:"burst"`
}

// Log configures the structured logger.
type Log struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// Middleware toggles the built-in transforms.
type Middleware struct {
	// RequestID stamps X-Request-ID on outgoing requests.
	RequestID bool `koanf:"request_id"`
}

// Load reads configuration with priority defaults < YAML file < environment.
// path may be empty to skip the file layer; a non-empty path that cannot be
// read is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(envprovider.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)

		// Double underscore nests; single underscores stay part of the key
		// so APICORE_BASE_URL reaches base_url.
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() map[string]any {
	return map[string]any{
		"base_url": "",
		"timeout":  "30s",

		"retry.max":      3,
		"retry.interval": "2s",

		"auth.scheme": "",
		"auth.key":    "",
		"auth.value":  "",

		"rate.limit": 0.0,
		"rate.burst": 0,

		"log.level":  "info",
		"log.pretty": false,

		"middleware.request_id": false,
	}
}

func validate(cfg *Config) error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}

	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}

	if cfg.Retry.Max < 0 {
		return fmt.Errorf("retry.max must not be negative, got %d", cfg.Retry.Max)
	}

	if cfg.Retry.Interval <= 0 {
		return fmt.Errorf("retry.interval must be positive, got %s", cfg.Retry.Interval)
	}

	if cfg.Rate.Limit < 0 {
		return fmt.Errorf("rate.limit must not be negative, got %f", cfg.Rate.Limit)
	}

	return nil
}
