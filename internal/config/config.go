package config

import (
	"fmt"
	"log"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
// Credential precedence order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (RESUMETRACKER_CREDENTIALS_PASSWORD, etc.), including a local .env file
// 4. Default values - Lowest priority
type Config struct {
	API           APIConfig           `mapstructure:"api"`
	Session       SessionConfig       `mapstructure:"session"`
	Preview       PreviewConfig       `mapstructure:"preview"`
	Analysis      AnalysisConfig      `mapstructure:"analysis"`
	Credentials   CredentialsConfig   `mapstructure:"credentials"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// APIConfig holds backend connection settings
type APIConfig struct {
	BaseURL        string               `mapstructure:"baseURL"`
	Timeout        time.Duration        `mapstructure:"timeout"`        // Default per-request budget
	UploadTimeout  time.Duration        `mapstructure:"uploadTimeout"`  // Budget for multipart uploads
	AnalyzeTimeout time.Duration        `mapstructure:"analyzeTimeout"` // Budget for AI analysis calls
	LoginPath      string               `mapstructure:"loginPath"`      // Auth failures on this path never clear credentials
	MaxRetries     int                  `mapstructure:"maxRetries"`     // Retries for idempotent requests
	UserAgent      string               `mapstructure:"userAgent"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
	RateLimit      RateLimitConfig      `mapstructure:"rateLimit"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// RateLimitConfig holds outbound rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	RequestsPerMin int  `mapstructure:"requestsPerMin"`
	BurstCapacity  int  `mapstructure:"burstCapacity"`
}

// SessionConfig controls where the auth session is persisted
type SessionConfig struct {
	Backend       string        `mapstructure:"backend"` // "file" or "sqlite"
	Path          string        `mapstructure:"path"`
	Watch         bool          `mapstructure:"watch"` // Reload when another process changes the store
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
}

// PreviewConfig controls artifact readiness polling
type PreviewConfig struct {
	DefaultRetry time.Duration `mapstructure:"defaultRetry"` // Used when the server sends no Retry-After
	SettleDelay  time.Duration `mapstructure:"settleDelay"`  // Wait after saving content before polling again
	MaxWait      time.Duration `mapstructure:"maxWait"`      // 0 polls until ready or failed
	BlobDir      string        `mapstructure:"blobDir"`
}

// AnalysisConfig holds analysis session rules
type AnalysisConfig struct {
	MinJobDescription int  `mapstructure:"minJobDescription"`
	RejectConcurrent  bool `mapstructure:"rejectConcurrent"`
}

// CredentialsConfig holds non-interactive login material
type CredentialsConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxUploadSize    int64    `mapstructure:"maxUploadSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	ServiceName     string           `mapstructure:"serviceName"`
	ServiceVersion  string           `mapstructure:"serviceVersion"`
	ServiceInstance string           `mapstructure:"serviceInstance"`
	ConsoleOutput   bool             `mapstructure:"consoleOutput"`
	SampleRate      float64          `mapstructure:"sampleRate"`
	Metrics         MetricsConfig    `mapstructure:"metrics"`
	Console         ConsoleConfig    `mapstructure:"console"`
	Prometheus      PrometheusConfig `mapstructure:"prometheus"`
	OTLP            OTLPConfig       `mapstructure:"otlp"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from .env, environment variables and a config file
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/resumetracker/")
	v.AddConfigPath("$HOME/.resumetracker")
	v.AddConfigPath(".")

	return load(v)
}

// LoadConfigFile loads configuration from an explicit file path
func LoadConfigFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("RESUMETRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileUsed = v.ConfigFileUsed()
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()

	if config.App.LogLevel == "debug" {
		config.logConfigurationSources(configFileUsed)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if config.App.LogLevel == "debug" {
		log.Println("[CONFIG] Configuration loading completed successfully")
	}
	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL is required (set RESUMETRACKER_API_BASEURL environment variable)")
	}
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid API base URL: %s", c.API.BaseURL)
	}

	if c.API.Timeout <= 0 || c.API.UploadTimeout <= 0 || c.API.AnalyzeTimeout <= 0 {
		return fmt.Errorf("API timeouts must be positive")
	}

	if c.API.MaxRetries < 0 {
		return fmt.Errorf("API maxRetries cannot be negative")
	}

	if c.API.CircuitBreaker.Enabled {
		if c.API.CircuitBreaker.FailureThreshold <= 0 || c.API.CircuitBreaker.FailureThreshold > 1 {
			return fmt.Errorf("circuit breaker failureThreshold must be in (0, 1]")
		}
	}

	if c.API.RateLimit.Enabled && c.API.RateLimit.RequestsPerMin <= 0 {
		return fmt.Errorf("rate limit requestsPerMin must be positive when enabled")
	}

	switch c.Session.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("invalid session backend: %s (must be 'file' or 'sqlite')", c.Session.Backend)
	}

	if c.Preview.DefaultRetry <= 0 {
		return fmt.Errorf("preview defaultRetry must be positive")
	}
	if c.Preview.SettleDelay < 0 || c.Preview.MaxWait < 0 {
		return fmt.Errorf("preview delays cannot be negative")
	}

	if c.Analysis.MinJobDescription < 0 {
		return fmt.Errorf("analysis minJobDescription cannot be negative")
	}

	if c.App.MaxUploadSize <= 0 {
		return fmt.Errorf("app maxUploadSize must be positive")
	}

	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	return nil
}
