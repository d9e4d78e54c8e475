package config

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultMaxUploadSize is the largest resume accepted for upload
const DefaultMaxUploadSize = 5 * 1024 * 1024

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// API
	v.SetDefault("api.baseURL", "http://localhost:8383/api")
	v.SetDefault("api.timeout", 60*time.Second)
	v.SetDefault("api.uploadTimeout", 90*time.Second)
	v.SetDefault("api.analyzeTimeout", 90*time.Second)
	v.SetDefault("api.loginPath", "/auth/login")
	v.SetDefault("api.maxRetries", 2)
	v.SetDefault("api.userAgent", "resumetracker-cli")

	v.SetDefault("api.circuitBreaker.enabled", true)
	v.SetDefault("api.circuitBreaker.maxRequests", 3)
	v.SetDefault("api.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("api.circuitBreaker.timeout", 30*time.Second)
	v.SetDefault("api.circuitBreaker.minRequests", 5)
	v.SetDefault("api.circuitBreaker.failureThreshold", 0.6)

	v.SetDefault("api.rateLimit.enabled", true)
	v.SetDefault("api.rateLimit.requestsPerMin", 120)
	v.SetDefault("api.rateLimit.burstCapacity", 10)

	// Session storage
	v.SetDefault("session.backend", "file")
	v.SetDefault("session.path", "")
	v.SetDefault("session.watch", false)
	v.SetDefault("session.debounceDelay", 250*time.Millisecond)

	// Preview polling
	v.SetDefault("preview.defaultRetry", 3*time.Second)
	v.SetDefault("preview.settleDelay", 4*time.Second)
	v.SetDefault("preview.maxWait", 0)
	v.SetDefault("preview.blobDir", "")

	// Analysis
	v.SetDefault("analysis.minJobDescription", 50)
	v.SetDefault("analysis.rejectConcurrent", false)

	// Credentials for non-interactive login
	v.SetDefault("credentials.username", "")
	v.SetDefault("credentials.password", "")
	v.SetDefault("credentials.token", "")

	// App Configuration
	v.SetDefault("app.logLevel", "warn")
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxUploadSize", DefaultMaxUploadSize)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.credentials", "")
	v.SetDefault("vault.secrets.apiToken", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "resumetracker")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
