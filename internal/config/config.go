// Package config loads server configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server configuration.
type Config struct {
	ServerAddr     string
	DBPath         string
	JWTSecret      string
	AccessTokenTTL time.Duration
	LogLevel       string
	LogFormat      string

	RateLimitEnabled bool
	RateLimitRate    int
	RateLimitWindow  time.Duration
}

var (
	// ErrMissingJWTSecret indicates JWT_SECRET was not set.
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

	// ErrInvalidTokenTTL indicates JWT_ACCESS_TOKEN_TTL could not be parsed.
	ErrInvalidTokenTTL = errors.New("invalid token TTL format")
)

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddr:       getEnvOrDefault("SERVER_ADDR", ":8080"),
		DBPath:           getEnvOrDefault("DB_PATH", "mmb.db"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        getEnvOrDefault("LOG_FORMAT", "json"),
		RateLimitEnabled: getEnvOrDefaultBool("RATE_LIMIT_ENABLED", true),
		RateLimitRate:    getEnvOrDefaultInt("RATE_LIMIT_RATE", 300),
	}

	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	accessTokenTTL, err := parseTokenTTL(getEnvOrDefault("JWT_ACCESS_TOKEN_TTL", "900"))
	if err != nil {
		return nil, ErrInvalidTokenTTL
	}
	cfg.AccessTokenTTL = accessTokenTTL

	rateWindow, err := parseTokenTTL(getEnvOrDefault("RATE_LIMIT_WINDOW", "60"))
	if err != nil {
		return nil, ErrInvalidTokenTTL
	}
	cfg.RateLimitWindow = rateWindow

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// parseTokenTTL interprets the value as a number of seconds.
func parseTokenTTL(value string) (time.Duration, error) {
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}
