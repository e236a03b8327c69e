// Package config provides environment configuration for the API server.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Upload storage
	UploadDir      string
	MaxUploadBytes int64

	// LLM settings
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	AnthropicAPIKey     string
	OpenAICompatBaseURL string
	OpenAICompatAPIKey  string
	OpenAICompatModel   string
	ArkAPIKey           string
	ArkModel            string
	ArkBaseURL          string
	ArkRegion           string
	DefaultLLM          string
	ModelAliases        map[string]string
	CompareModels       []string
	LLMTimeout          time.Duration
	LLMMaxTokens        int

	// Auth
	AuthEnabled bool
	JWTSecret   string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// NATS settings, empty URL disables event publishing
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// DefaultCompareModels are the identifiers compared when COMPARE_MODELS is unset.
var DefaultCompareModels = []string{"modelA", "modelB"}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 180*time.Second),

		// Uploads
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: getInt64Env("MAX_UPLOAD_BYTES", 50<<20),

		// LLM
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey:     getEnv("ANTHROPIC_API_KEY", ""),
		OpenAICompatBaseURL: getEnv("OPENAI_COMPAT_BASE_URL", ""),
		OpenAICompatAPIKey:  getEnv("OPENAI_COMPAT_API_KEY", ""),
		OpenAICompatModel:   getEnv("OPENAI_COMPAT_MODEL", "llama3.1:8b"),
		ArkAPIKey:           getEnv("ARK_API_KEY", ""),
		ArkModel:            getEnv("ARK_MODEL", ""),
		ArkBaseURL:          getEnv("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:           getEnv("ARK_REGION", "cn-beijing"),
		DefaultLLM:          getEnv("DEFAULT_LLM", ""),
		ModelAliases:        getMapEnv("MODEL_ALIASES"),
		CompareModels:       getListEnv("COMPARE_MODELS", DefaultCompareModels),
		LLMTimeout:          getDurationEnv("LLM_TIMEOUT", 60*time.Second),
		LLMMaxTokens:        getIntEnv("LLM_MAX_TOKENS", 4096),

		// Auth
		AuthEnabled: getBoolEnv("AUTH_ENABLED", false),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// ErrMissingJWTSecret is returned by Validate when auth is enabled without a secret.
var ErrMissingJWTSecret = errors.New("AUTH_ENABLED requires JWT_SECRET")

// Validate reports settings that must not be used to start the server.
func (c *Config) Validate() error {
	if c.AuthEnabled && c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getListEnv parses a comma separated list, dropping empty and repeated
// items while keeping first-seen order.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	seen := make(map[string]bool)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" && !seen[item] {
			seen[item] = true
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

// getMapEnv parses "k1=v1,k2=v2". Malformed pairs are skipped.
func getMapEnv(key string) map[string]string {
	out := make(map[string]string)
	for _, pair := range getListEnv(key, nil) {
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
