// Package config contains everything related to configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/j-veylop/llm-usage-tui/internal/models"
)

// Config holds the application configuration.
type Config struct {
	OpenAIAdminKey    string
	AnthropicAdminKey string
	OpenAIBaseURL     string
	AnthropicBaseURL  string

	// EnvFile is the .env file that was loaded, if any. It is watched for
	// credential changes.
	EnvFile string

	LogFile  string
	LogLevel string

	RequestTimeout time.Duration
	MaxRetries     int

	CostNoiseFloor       float64
	MaterialityThreshold float64
	OutlierPercentile    float64
	OutlierRatio         float64

	// CostAlertThreshold triggers a desktop notification when a day's spend
	// exceeds it. Zero disables alerts.
	CostAlertThreshold float64
}

// Default values
const (
	defaultRequestTimeout       = 30 * time.Second
	defaultMaxRetries           = 3
	defaultCostNoiseFloor       = 1.0
	defaultMaterialityThreshold = 0.10
	defaultOutlierPercentile    = 0.90
	defaultOutlierRatio         = 3.0
	defaultLogLevel             = "info"
)

// ConfigError reports a missing or invalid setting.
type ConfigError struct {
	Err error
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ErrMissing is wrapped by ConfigErrors for unset credentials.
var ErrMissing = errors.New("not set")

// Load reads configuration from .env files and environment variables.
// An explicit envFile must exist; otherwise the default locations are tried
// in order and the first one found is used.
func Load(envFile string) (*Config, error) {
	loaded := ""
	if envFile != "" {
		if _, err := os.Stat(envFile); err != nil {
			return nil, &ConfigError{Key: "env-file", Err: err}
		}
		if err := godotenv.Load(envFile); err != nil {
			return nil, &ConfigError{Key: "env-file", Err: fmt.Errorf("failed to parse %s: %w", envFile, err)}
		}
		loaded = envFile
	} else {
		for _, path := range getEnvPaths() {
			if _, err := os.Stat(path); err == nil {
				_ = godotenv.Load(path)
				loaded = path
				break
			}
		}
	}

	cfg := &Config{
		OpenAIAdminKey:       strings.TrimSpace(os.Getenv(models.ProviderOpenAI.EnvKey())),
		AnthropicAdminKey:    strings.TrimSpace(os.Getenv(models.ProviderAnthropic.EnvKey())),
		OpenAIBaseURL:        getEnvString("OPENAI_ADMIN_BASE_URL", ""),
		AnthropicBaseURL:     getEnvString("ANTHROPIC_ADMIN_BASE_URL", ""),
		EnvFile:              loaded,
		LogFile:              getEnvString("LLMUSAGE_LOG_FILE", ""),
		LogLevel:             getEnvString("LLMUSAGE_LOG_LEVEL", defaultLogLevel),
		RequestTimeout:       getEnvDuration("LLMUSAGE_REQUEST_TIMEOUT", defaultRequestTimeout),
		MaxRetries:           getEnvInt("LLMUSAGE_MAX_RETRIES", defaultMaxRetries),
		CostNoiseFloor:       getEnvFloat("LLMUSAGE_COST_NOISE_FLOOR", defaultCostNoiseFloor),
		MaterialityThreshold: getEnvFloat("LLMUSAGE_OTHER_THRESHOLD", defaultMaterialityThreshold),
		OutlierPercentile:    getEnvFloat("LLMUSAGE_OUTLIER_PERCENTILE", defaultOutlierPercentile),
		OutlierRatio:         getEnvFloat("LLMUSAGE_OUTLIER_RATIO", defaultOutlierRatio),
		CostAlertThreshold:   getEnvFloat("LLMUSAGE_COST_ALERT", 0),
	}

	if cfg.MaterialityThreshold < 0 || cfg.MaterialityThreshold >= 1 {
		return nil, &ConfigError{
			Key: "LLMUSAGE_OTHER_THRESHOLD",
			Err: fmt.Errorf("must be in [0,1), got %v", cfg.MaterialityThreshold),
		}
	}
	if cfg.OutlierPercentile <= 0 || cfg.OutlierPercentile > 1 {
		return nil, &ConfigError{
			Key: "LLMUSAGE_OUTLIER_PERCENTILE",
			Err: fmt.Errorf("must be in (0,1], got %v", cfg.OutlierPercentile),
		}
	}

	if cfg.LogFile != "" {
		if err := ensureDir(filepath.Dir(cfg.LogFile)); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// APIKey returns the admin key for a provider.
func (c *Config) APIKey(p models.Provider) string {
	switch p {
	case models.ProviderOpenAI:
		return c.OpenAIAdminKey
	case models.ProviderAnthropic:
		return c.AnthropicAdminKey
	default:
		return ""
	}
}

// Credentials returns every configured admin key by provider.
func (c *Config) Credentials() map[models.Provider]string {
	out := make(map[models.Provider]string)
	for _, p := range models.Providers {
		if key := c.APIKey(p); key != "" {
			out[p] = key
		}
	}
	return out
}

// CheckCredential returns a ConfigError when the provider has no admin key.
func (c *Config) CheckCredential(p models.Provider) error {
	if c.APIKey(p) == "" {
		return &ConfigError{Key: p.EnvKey(), Err: ErrMissing}
	}
	return nil
}

// ReadCredentials parses an env file and returns the admin keys it defines.
// Variables other than the credential keys are ignored.
func ReadCredentials(path string) (map[models.Provider]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	out := make(map[models.Provider]string)
	for _, p := range models.Providers {
		if key := strings.TrimSpace(env[p.EnvKey()]); key != "" {
			out[p] = key
		}
	}
	return out, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "llmusage", ".env"),
			filepath.Join(home, ".llmusage", ".env"),
		)
	}

	return paths
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
