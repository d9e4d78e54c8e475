package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// applyFallbacks fills in values that depend on the environment
func (c *Config) applyFallbacks() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.LoginPath != "" && !strings.HasPrefix(c.API.LoginPath, "/") {
		c.API.LoginPath = "/" + c.API.LoginPath
	}

	c.applySessionDefaults()
	c.applyPreviewDefaults()
	c.applyObservabilityDefaults()
}

// applySessionDefaults places the session store under the user's home directory
func (c *Config) applySessionDefaults() {
	if c.Session.Path != "" {
		return
	}
	name := "session.json"
	if c.Session.Backend == "sqlite" {
		name = "session.db"
	}
	c.Session.Path = filepath.Join(stateDir(), name)
}

func (c *Config) applyPreviewDefaults() {
	if c.Preview.BlobDir == "" {
		c.Preview.BlobDir = filepath.Join(stateDir(), "previews")
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

// stateDir returns the per-user directory holding session and preview state
func stateDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".resumetracker")
	}
	return filepath.Join(os.TempDir(), "resumetracker")
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// isSensitiveEnv reports whether an environment variable holds a secret
func isSensitiveEnv(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "password") ||
		strings.Contains(lower, "token") ||
		strings.Contains(lower, "key")
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"RESUMETRACKER_API_BASEURL",
		"RESUMETRACKER_API_TIMEOUT",
		"RESUMETRACKER_SESSION_BACKEND",
		"RESUMETRACKER_SESSION_PATH",
		"RESUMETRACKER_CREDENTIALS_USERNAME",
		"RESUMETRACKER_CREDENTIALS_PASSWORD",
		"RESUMETRACKER_CREDENTIALS_TOKEN",
		"RESUMETRACKER_APP_LOGLEVEL",
		"RESUMETRACKER_VAULT_ENABLED",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if isSensitiveEnv(envVar) {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] API Base URL: %s", c.API.BaseURL)
	log.Printf("[CONFIG] API Timeouts: default=%s upload=%s analyze=%s", c.API.Timeout, c.API.UploadTimeout, c.API.AnalyzeTimeout)
	log.Printf("[CONFIG] Session Store: %s (%s)", c.Session.Backend, c.Session.Path)
	log.Printf("[CONFIG] Preview Retry: %s, Settle Delay: %s", c.Preview.DefaultRetry, c.Preview.SettleDelay)
	if c.Credentials.Password != "" || c.Credentials.Token != "" {
		log.Println("[CONFIG] Credentials: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] Credentials: ***NOT SET***")
	}
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Println("[CONFIG] =====================================")
}
