package apicore

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/easierlabs/apicore/auth"
	"github.com/easierlabs/apicore/config"
	"github.com/easierlabs/apicore/middleware"
)

// NewFromConfig builds a ready Client from a loaded configuration: base URL,
// timeout, retry policy, auth scheme, built-in middleware, rate limit, and
// logger. An unrecognized auth scheme is ignored, matching SetAuth's
// behaviour at the external boundary.
func NewFromConfig(cfg *config.Config) *Client {
	opts := []Option{
		WithTimeout(cfg.Timeout),
		WithRetryPolicy(cfg.Retry.Max, cfg.Retry.Interval),
		WithLogger(newLogger(cfg.Log)),
	}

	if s, ok := auth.Parse(cfg.Auth.Scheme, cfg.Auth.Key, cfg.Auth.Value); ok {
		opts = append(opts, WithAuth(s))
	}

	if cfg.Middleware.RequestID {
		opts = append(opts, WithMiddleware("request-id", middleware.RequestID()))
	}

	if cfg.Rate.Limit > 0 {
		opts = append(opts, WithRateLimit(cfg.Rate.Limit, cfg.Rate.Burst))
	}

	return New(cfg.BaseURL, opts...)
}

func newLogger(cfg config.Log) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if cfg.Pretty {
		return zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger().Level(level)
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)
}
