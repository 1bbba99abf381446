// Package config provides configuration for the medgate proxy.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the proxy configuration.
type Config struct {
	// Server settings
	Port           int
	AllowedOrigins []string
	Environment    string

	// Upstream LLM provider
	UpstreamURL     string
	UpstreamAPIKey  string
	UpstreamTimeout time.Duration

	// Chat defaults
	ChatModel   string
	MaxTokens   int
	Temperature float64

	// Gating
	ClassifierModel string
	GatePolicy      string
	ModelAllowlist  []string

	// Sessions
	SessionTTL time.Duration

	// Audit
	AuditDB string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		Port:            getEnvInt("PORT", 8080),
		AllowedOrigins:  getEnvList("ALLOWED_ORIGINS", []string{"*"}),
		Environment:     getEnv("ENVIRONMENT", "development"),
		UpstreamURL:     getEnv("UPSTREAM_URL", "https://api.openai.com"),
		UpstreamAPIKey:  getEnv("UPSTREAM_API_KEY", ""),
		UpstreamTimeout: time.Duration(getEnvInt("UPSTREAM_TIMEOUT_MS", 60000)) * time.Millisecond,
		ChatModel:       getEnv("CHAT_MODEL", "gpt-4o-mini"),
		MaxTokens:       getEnvInt("MAX_TOKENS", 1024),
		Temperature:     getEnvFloat("TEMPERATURE", 0.7),
		ClassifierModel: getEnv("CLASSIFIER_MODEL", "gpt-4o-mini"),
		GatePolicy:      getEnv("GATE_POLICY", "context"),
		ModelAllowlist:  getEnvList("MODEL_ALLOWLIST", nil),
		SessionTTL:      time.Duration(getEnvInt("SESSION_TTL_MIN", 60)) * time.Minute,
		AuditDB:         getEnv("AUDIT_DB", "file:medgate.db?cache=shared&mode=rwc"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
