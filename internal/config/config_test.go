package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFileDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadConfigFile(writeConfigFile(t, "app:\n  logLevel: warn\n"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8383/api", cfg.API.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.API.Timeout)
	assert.Equal(t, 90*time.Second, cfg.API.UploadTimeout)
	assert.Equal(t, 90*time.Second, cfg.API.AnalyzeTimeout)
	assert.Equal(t, "/auth/login", cfg.API.LoginPath)
	assert.Equal(t, 3*time.Second, cfg.Preview.DefaultRetry)
	assert.Equal(t, 4*time.Second, cfg.Preview.SettleDelay)
	assert.Equal(t, time.Duration(0), cfg.Preview.MaxWait)
	assert.Equal(t, 50, cfg.Analysis.MinJobDescription)
	assert.Equal(t, int64(DefaultMaxUploadSize), cfg.App.MaxUploadSize)
	assert.Equal(t, "file", cfg.Session.Backend)
	assert.Equal(t, "session.json", filepath.Base(cfg.Session.Path))
	assert.Equal(t, "previews", filepath.Base(cfg.Preview.BlobDir))
}

func TestLoadConfigFileOverrides(t *testing.T) {
	path := writeConfigFile(t, `
api:
  baseURL: "https://resumes.example.com/api/"
  loginPath: "auth/login"
  timeout: 5s
session:
  backend: sqlite
  path: /tmp/rt/session.db
analysis:
  rejectConcurrent: true
`)
	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://resumes.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, "/auth/login", cfg.API.LoginPath)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "sqlite", cfg.Session.Backend)
	assert.Equal(t, "/tmp/rt/session.db", cfg.Session.Path)
	assert.True(t, cfg.Analysis.RejectConcurrent)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("RESUMETRACKER_API_BASEURL", "http://backend:9000/api")
	t.Setenv("RESUMETRACKER_CREDENTIALS_USERNAME", "ana")

	cfg, err := LoadConfigFile(writeConfigFile(t, "app:\n  defaultFormat: json\n"))
	require.NoError(t, err)

	assert.Equal(t, "http://backend:9000/api", cfg.API.BaseURL)
	assert.Equal(t, "ana", cfg.Credentials.Username)
	assert.Equal(t, "json", cfg.App.DefaultFormat)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			API: APIConfig{
				BaseURL:        "http://localhost:8383/api",
				Timeout:        time.Minute,
				UploadTimeout:  time.Minute,
				AnalyzeTimeout: time.Minute,
			},
			Session: SessionConfig{Backend: "file"},
			Preview: PreviewConfig{DefaultRetry: time.Second},
			App: AppConfig{
				DefaultFormat:    "text",
				SupportedFormats: []string{"json", "text"},
				MaxUploadSize:    DefaultMaxUploadSize,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing base URL", mutate: func(c *Config) { c.API.BaseURL = "" }, wantErr: "base URL is required"},
		{name: "relative base URL", mutate: func(c *Config) { c.API.BaseURL = "/api" }, wantErr: "invalid API base URL"},
		{name: "zero timeout", mutate: func(c *Config) { c.API.AnalyzeTimeout = 0 }, wantErr: "timeouts must be positive"},
		{name: "unknown backend", mutate: func(c *Config) { c.Session.Backend = "redis" }, wantErr: "invalid session backend"},
		{name: "bad breaker ratio", mutate: func(c *Config) {
			c.API.CircuitBreaker = CircuitBreakerConfig{Enabled: true, FailureThreshold: 1.5}
		}, wantErr: "failureThreshold"},
		{name: "rate limit without rpm", mutate: func(c *Config) { c.API.RateLimit.Enabled = true }, wantErr: "requestsPerMin"},
		{name: "unsupported default format", mutate: func(c *Config) { c.App.DefaultFormat = "xml" }, wantErr: "invalid default format"},
		{name: "zero upload size", mutate: func(c *Config) { c.App.MaxUploadSize = 0 }, wantErr: "maxUploadSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestIsSensitiveEnv(t *testing.T) {
	assert.True(t, isSensitiveEnv("RESUMETRACKER_CREDENTIALS_PASSWORD"))
	assert.True(t, isSensitiveEnv("RESUMETRACKER_CREDENTIALS_TOKEN"))
	assert.False(t, isSensitiveEnv("RESUMETRACKER_API_BASEURL"))
}
