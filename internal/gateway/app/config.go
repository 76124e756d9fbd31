package app

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	SigningSecret string // Required: shared HS256 secret, same value the auth service signs with
	Issuer        string // Issuer claim expected on access tokens (default: gatekeep)

	// Upstreams maps path prefixes to upstream base URLs, parsed from
	// GATEWAY_UPSTREAMS as "prefix=url,prefix=url".
	Upstreams map[string]string

	// PublicPrefixes skip authentication entirely.
	PublicPrefixes []string

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8081)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// defaultPublicPrefixes covers health probes, the public auth surface, and
// static uploads.
var defaultPublicPrefixes = []string{
	"/livez",
	"/readyz",
	"/v1/auth/",
	"/upload/img",
}

func LoadConfig() (Config, error) {
	cfg := Config{
		SigningSecret:       os.Getenv("GATEWAY_SIGNING_SECRET"),
		Issuer:              getEnvOrDefault("GATEWAY_ISSUER", "gatekeep"),
		Upstreams:           parseUpstreams(os.Getenv("GATEWAY_UPSTREAMS")),
		PublicPrefixes:      parseList(os.Getenv("GATEWAY_PUBLIC_PATHS"), defaultPublicPrefixes),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8081),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.SigningSecret == "" {
		return cfg, errors.New("GATEWAY_SIGNING_SECRET is required")
	}
	if len(cfg.Upstreams) == 0 {
		return cfg, errors.New("GATEWAY_UPSTREAMS is required, e.g. \"/v1/auth=http://auth:8080\"")
	}
	return cfg, nil
}

// parseUpstreams reads "prefix=url,prefix=url". Malformed entries are
// dropped rather than failing the whole config.
func parseUpstreams(raw string) map[string]string {
	out := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		prefix, target, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if !ok || prefix == "" || target == "" {
			continue
		}
		out[prefix] = target
	}
	return out
}

func parseList(raw string, fallback []string) []string {
	if raw == "" {
		return fallback
	}
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
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
