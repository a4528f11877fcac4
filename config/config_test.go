package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easierlabs/apicore/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APICORE_BASE_URL", "https://api.example.com")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.Retry.Max)
	assert.Equal(t, 2*time.Second, cfg.Retry.Interval)
	assert.Empty(t, cfg.Auth.Scheme)
	assert.Zero(t, cfg.Rate.Limit)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Middleware.RequestID)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apicore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: https://api.example.com
timeout: 10s
retry:
  max: 1
  interval: 500ms
auth:
  scheme: Bearer
  value: tok
middleware:
  request_id: true
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 1, cfg.Retry.Max)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.Interval)
	assert.Equal(t, "Bearer", cfg.Auth.Scheme)
	assert.Equal(t, "tok", cfg.Auth.Value)
	assert.True(t, cfg.Middleware.RequestID)
}

func TestLoad_EnvironmentWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apicore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: https://file.example.com\n"), 0o600))

	t.Setenv("APICORE_BASE_URL", "https://env.example.com")
	t.Setenv("APICORE_RETRY__MAX", "5")
	t.Setenv("APICORE_LOG__LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.BaseURL)
	assert.Equal(t, 5, cfg.Retry.Max)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	for _, test := range []struct {
		name string
		env  map[string]string
	}{
		{"missing base_url", map[string]string{}},
		{"negative retry ceiling", map[string]string{
			"APICORE_BASE_URL":   "https://api.example.com",
			"APICORE_RETRY__MAX": "-1",
		}},
		{"zero timeout", map[string]string{
			"APICORE_BASE_URL": "https://api.example.com",
			"APICORE_TIMEOUT":  "0s",
		}},
		{"negative rate limit", map[string]string{
			"APICORE_BASE_URL":    "https://api.example.com",
			"APICORE_RATE__LIMIT": "-1",
		}},
	} {
		t.Run(test.name, func(t *testing.T) {
			for k, v := range test.env {
				t.Setenv(k, v)
			}

			_, err := config.Load("")
			assert.Error(t, err)
		})
	}
}
