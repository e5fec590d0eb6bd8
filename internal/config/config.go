package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string
	RedisURL   string
	// PlatformBaseURL is the root of the quiz platform's REST API, the
	// remote collaborator this service drives sessions against.
	PlatformBaseURL string
	PlatformTimeout time.Duration
	// JWTSecret verifies bearer tokens minted by the platform's auth
	// service. This service never mints tokens itself.
	JWTSecret string
	// ReaperInterval is how often orphaned expired sessions are swept.
	ReaperInterval time.Duration
	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "pretty"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		PlatformBaseURL: getEnv("PLATFORM_BASE_URL", "http://localhost:8000/api"),
		PlatformTimeout: time.Duration(getEnvInt("PLATFORM_TIMEOUT_SECONDS", 10)) * time.Second,
		JWTSecret:       getEnv("JWT_SECRET", "change-this-to-a-secure-random-string"),
		ReaperInterval:  time.Duration(getEnvInt("REAPER_INTERVAL_SECONDS", 30)) * time.Second,
		AllowedOrigins:  parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
