// Package config loads the server configuration from DOCFORGE_* environment
// variables and sets up the process-wide logger.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/docforgehq/docforge/internal/docgen"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Config holds every runtime parameter of the server.
type Config struct {
	// HTTP server.
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Persistence.
	MongoURI string
	MongoDB  string

	// Inference endpoint.
	InferenceEndpoint string
	InferenceToken    string

	// Generation defaults. Clamped to the orchestrator's accepted ranges
	// at load time so a bad value degrades instead of failing.
	BatchSize     int
	Concurrency   int
	FallbackDelay time.Duration

	// Auth. The OAuth pair is optional; GitHub login stays disabled
	// without it.
	JWTSecret         string
	TokenTTL          time.Duration
	GithubTokenSecret string
	GithubOAuthID     string
	GithubOAuthSecret string

	// Logging.
	LogLevel  slog.Level
	LogFormat string
}

// Load reads the configuration from the environment. Missing required
// variables and malformed values produce an error.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	if cfg.Port, err = getEnvInt("DOCFORGE_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.ReadTimeout, err = getEnvDuration("DOCFORGE_HTTP_READ_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.WriteTimeout, err = getEnvDuration("DOCFORGE_HTTP_WRITE_TIMEOUT", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.IdleTimeout, err = getEnvDuration("DOCFORGE_HTTP_IDLE_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("DOCFORGE_SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.MongoURI = getEnvDefault("DOCFORGE_MONGO_URI", "mongodb://localhost:27017")
	cfg.MongoDB = getEnvDefault("DOCFORGE_MONGO_DB", "docforge")

	if cfg.InferenceEndpoint, err = getEnvRequired("DOCFORGE_INFERENCE_ENDPOINT"); err != nil {
		return nil, err
	}
	cfg.InferenceToken = os.Getenv("DOCFORGE_INFERENCE_TOKEN")

	if cfg.BatchSize, err = getEnvInt("DOCFORGE_BATCH_SIZE", docgen.DefaultBatchSize); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = getEnvInt("DOCFORGE_CONCURRENCY", docgen.DefaultConcurrency); err != nil {
		return nil, err
	}
	if cfg.FallbackDelay, err = getEnvDuration("DOCFORGE_FALLBACK_DELAY", 500*time.Millisecond); err != nil {
		return nil, err
	}

	if cfg.JWTSecret, err = getEnvRequired("DOCFORGE_JWT_SECRET"); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = getEnvDuration("DOCFORGE_TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}
	// Falls back to the JWT secret so dev setups need only one secret.
	cfg.GithubTokenSecret = getEnvDefault("DOCFORGE_GITHUB_TOKEN_SECRET", cfg.JWTSecret)
	cfg.GithubOAuthID = getEnvDefault("DOCFORGE_GITHUB_OAUTH_CLIENT_ID", "")
	cfg.GithubOAuthSecret = getEnvDefault("DOCFORGE_GITHUB_OAUTH_CLIENT_SECRET", "")

	level := getEnvDefault("DOCFORGE_LOG_LEVEL", "info")
	if cfg.LogLevel, err = parseLogLevel(level); err != nil {
		return nil, err
	}
	cfg.LogFormat = getEnvDefault("DOCFORGE_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("DOCFORGE_LOG_FORMAT: unknown format %q, want json or text", cfg.LogFormat)
	}

	return cfg, nil
}

// SetupLogger builds the process logger from the configuration and installs
// it as the slog default.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: required environment variable not set", key)
	}
	return val, nil
}

func getEnvDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: not an integer: %q", key, val)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s: not a duration: %q (use Go format: 30s, 15m)", key, val)
	}
	return d, nil
}

func parseLogLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("DOCFORGE_LOG_LEVEL: unknown level %q", level)
	}
}
