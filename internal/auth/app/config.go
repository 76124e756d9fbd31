package app

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer        string // Issuer claim for minted tokens (default: gatekeep)
	SigningSecret string // Required: shared HS256 secret, also held by the gateway

	// InternalCredential gates /v1/internal and authenticates this
	// service's calls to the directory/mail/notification services.
	InternalCredential string

	DatabaseFile string // Path to SQLite database file (default: ./auth.db)

	// RedisURL switches tickets and rate windows onto Redis when set;
	// empty keeps both in process memory.
	RedisURL string

	DirectoryURL    string // Required: base URL of the user directory service
	MailURL         string // Base URL of the mail service (default: DirectoryURL)
	NotificationURL string // Base URL of the notification service (default: DirectoryURL)

	CookieDomain      string // Cookie Domain attribute (default: empty, host-only)
	CookieSecure      bool   // Secure flag on auth cookies (default: true)
	CookieRefreshPath string // Path scoping the refresh cookie (default: /v1/auth)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-record sweep interval (default: 1h)
}

func LoadConfig() (Config, error) {
	cfg := Config{
		Issuer:               getEnvOrDefault("AUTH_ISSUER", "gatekeep"),
		SigningSecret:        os.Getenv("AUTH_SIGNING_SECRET"),
		InternalCredential:   os.Getenv("AUTH_INTERNAL_CREDENTIAL"),
		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		RedisURL:             os.Getenv("AUTH_REDIS_URL"),
		DirectoryURL:         os.Getenv("AUTH_DIRECTORY_URL"),
		MailURL:              os.Getenv("AUTH_MAIL_URL"),
		NotificationURL:      os.Getenv("AUTH_NOTIFICATION_URL"),
		CookieDomain:         os.Getenv("AUTH_COOKIE_DOMAIN"),
		CookieSecure:         getEnvBoolOrDefault("AUTH_COOKIE_SECURE", true),
		CookieRefreshPath:    getEnvOrDefault("AUTH_COOKIE_REFRESH_PATH", "/v1/auth"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if cfg.MailURL == "" {
		cfg.MailURL = cfg.DirectoryURL
	}
	if cfg.NotificationURL == "" {
		cfg.NotificationURL = cfg.DirectoryURL
	}

	if cfg.SigningSecret == "" {
		return cfg, errors.New("AUTH_SIGNING_SECRET is required")
	}
	if cfg.InternalCredential == "" {
		return cfg, errors.New("AUTH_INTERNAL_CREDENTIAL is required")
	}
	if cfg.DirectoryURL == "" {
		return cfg, errors.New("AUTH_DIRECTORY_URL is required")
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
