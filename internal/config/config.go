package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Handoff backends.
const (
	HandoffRedis  = "redis"
	HandoffMemory = "memory"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	HandoffBackend     string
	HandoffTTL         time.Duration
	HandoffMemorySize  int
	SessionSecret      string
	SessionCookieName  string
	CookieDomain       string
	CookieSecure       bool
	CookieSameSite     http.SameSite
	DefaultLocale      string
	CommerceBaseURL    string
	CommerceKey        string
	CommerceTimeout    time.Duration
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	BodyLimitBytes     int64
	CSRFEnabled        bool
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		HandoffBackend:     strings.ToLower(strings.TrimSpace(k.String("HANDOFF_BACKEND"))),
		HandoffTTL:         parseDuration(k.String("HANDOFF_TTL"), "30m"),
		HandoffMemorySize:  parseInt(k.String("HANDOFF_MEMORY_SIZE"), 10000),
		SessionSecret:      k.String("SESSION_SECRET"),
		SessionCookieName:  valueOrDefault(k.String("SESSION_COOKIE_NAME"), "sf_session"),
		CookieDomain:       strings.TrimSpace(k.String("COOKIE_DOMAIN")),
		CookieSecure:       parseBool(k.String("COOKIE_SECURE")),
		CookieSameSite:     parseSameSite(k.String("COOKIE_SAMESITE")),
		DefaultLocale:      valueOrDefault(k.String("DEFAULT_LOCALE"), "en-US"),
		CommerceBaseURL:    strings.TrimSpace(k.String("COMMERCE_BASE_URL")),
		CommerceKey:        strings.TrimSpace(k.String("COMMERCE_PUBLISHABLE_KEY")),
		CommerceTimeout:    parseDuration(k.String("COMMERCE_TIMEOUT"), "8s"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		RateLimitPerMinute: parseInt(k.String("RATE_LIMIT_PER_MINUTE"), 30),
		BodyLimitBytes:     int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),
	}

	cfg.CSRFEnabled = parseBoolDefault(k.String("CSRF_ENABLED"), !cfg.IsDevelopment())

	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}
	if cfg.HandoffBackend == "" {
		cfg.HandoffBackend = HandoffMemory
		if cfg.RedisURL != "" {
			cfg.HandoffBackend = HandoffRedis
		}
	}

	switch cfg.HandoffBackend {
	case HandoffMemory:
	case HandoffRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required when HANDOFF_BACKEND=redis")
		}
	default:
		return nil, fmt.Errorf("unsupported HANDOFF_BACKEND %q", cfg.HandoffBackend)
	}
	if cfg.SessionSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, errors.New("SESSION_SECRET is required")
		}
		cfg.SessionSecret = "dev-session-secret"
	}
	if cfg.CookieSameSite == http.SameSiteNoneMode && !cfg.CookieSecure {
		return nil, errors.New("COOKIE_SAMESITE=none requires COOKIE_SECURE=true")
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs in a local or test environment.
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.AppEnv)) {
	case "development", "dev", "local", "test":
		return true
	default:
		return false
	}
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseBoolDefault(value string, fallback bool) bool {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return parseBool(value)
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
