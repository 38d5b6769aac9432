package infra

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	FalAPIKey        string
	FalAPIKeyFile    string
	FalEndpoint      string
	FalTimeout       time.Duration
	MaxUploadBytes   int64
	ExportDir        string
	PresetsFile      string
	SessionIdle      time.Duration
	MaxSessions      int
	CORSOrigins      []string
	SecureCookies    bool
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// A missing API key is not an error: the UI reports it when generation is attempted.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		FalAPIKey:        firstEnv("FAL_KEY", "VITE_FAL_KEY"),
		FalAPIKeyFile:    os.Getenv("FAL_KEY_FILE"),
		FalEndpoint:      getEnv("FAL_ENDPOINT", "https://fal.run/fal-ai/nano-banana-pro/edit"),
		FalTimeout:       time.Second * time.Duration(getEnvInt("FAL_TIMEOUT_SECONDS", 120)),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_BYTES", 20<<20)),
		ExportDir:        getEnv("EXPORT_DIR", "./exports"),
		PresetsFile:      os.Getenv("PRESETS_FILE"),
		SessionIdle:      time.Minute * time.Duration(getEnvInt("SESSION_IDLE_MINUTES", 120)),
		MaxSessions:      getEnvInt("MAX_SESSIONS", 256),
		CORSOrigins:      splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		SecureCookies:    getEnvBool("SECURE_COOKIES", false),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("PORT must be numeric, got %q", cfg.Port)
	}
	if _, err := url.ParseRequestURI(cfg.FalEndpoint); err != nil {
		return nil, fmt.Errorf("FAL_ENDPOINT is invalid: %w", err)
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs with developer defaults.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
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

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
