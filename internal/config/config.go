package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL string
	AutoMigrate bool
	Port        string
	LogLevel    string

	SessionSecret      string
	SessionCookie      string
	SessionTTL         time.Duration
	SessionRefreshLead time.Duration
	SecureCookies      bool
	DevAuthHeader      bool

	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	MetricsEnabled bool

	ScriptureAPIURL  string
	ScriptureAPIKey  string
	ScriptureTimeout time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: databaseURL(),
		AutoMigrate: getEnvBool("AUTO_MIGRATE", true),
		Port:        getEnv("PORT", "8080"),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),

		SessionSecret:      os.Getenv("SESSION_SECRET"),
		SessionCookie:      getEnv("SESSION_COOKIE", "session_token"),
		SessionTTL:         getEnvDuration("SESSION_TTL", time.Hour),
		SessionRefreshLead: getEnvDuration("SESSION_REFRESH_LEAD", 5*time.Minute),
		SecureCookies:      getEnvBool("SECURE_COOKIES", false),
		DevAuthHeader:      getEnvBool("DEV_AUTH_HEADER", false),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),

		ScriptureAPIURL:  getEnv("SCRIPTURE_API_URL", "https://bible-api.example.com/v1"),
		ScriptureAPIKey:  os.Getenv("SCRIPTURE_API_KEY"),
		ScriptureTimeout: getEnvDuration("SCRIPTURE_TIMEOUT", 10*time.Second),
	}

	if cfg.SessionSecret == "" && !cfg.DevAuthHeader {
		return nil, errors.New("SESSION_SECRET is required unless DEV_AUTH_HEADER is enabled")
	}
	if cfg.SessionRefreshLead >= cfg.SessionTTL {
		return nil, fmt.Errorf("SESSION_REFRESH_LEAD (%s) must be shorter than SESSION_TTL (%s)", cfg.SessionRefreshLead, cfg.SessionTTL)
	}

	return cfg, nil
}

// databaseURL prefers DATABASE_URL and falls back to the individual DB_* variables
func databaseURL() string {
	if uri := os.Getenv("DATABASE_URL"); uri != "" {
		return uri
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "fellowship"),
		getEnv("DB_SSL_MODE", "disable"),
	)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
