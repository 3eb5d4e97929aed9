package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/appraisal/pkg/httpx"
	"github.com/joho/godotenv"
)

type Config struct {
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	DatabaseDriver string // sqlite or postgres (default: sqlite)
	DatabaseURL    string // Postgres connection string
	DatabaseFile   string // SQLite database file (default: ./appraisal.db)

	AppURL string // Front end origin used in invite links (default: http://localhost:3000)

	Issuer         string        // iss claim on session tokens (default: appraisal)
	SessionTTL     time.Duration // Session token lifetime (default: 12h)
	SigningKeyFile string        // Optional: PKCS8 Ed25519 PEM; ephemeral keys when empty
	DevLogin       bool          // Registers /auth/dev-login; honoured only with ENV=dev

	WorkOSAPIKey      string
	WorkOSClientID    string
	WorkOSRedirectURI string // default: http://localhost:8080/auth/callback

	InviteTTL time.Duration // Invitation lifetime (default: 168h)

	// RATELIMIT_{STRICT,MODERATE,LENIENT,PUBLIC}_{REQUESTS,WINDOW_SEC,BURST}
	RateLimits httpx.RateLimits
}

// LoadConfig reads the environment, after loading a .env file from the
// working directory when one exists. Variables already set win over the file.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Config{
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		DatabaseDriver: strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", "sqlite")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DatabaseFile:   getEnvOrDefault("DATABASE_FILE", "appraisal.db"),

		AppURL: getEnvOrDefault("APP_URL", "http://localhost:3000"),

		Issuer:         getEnvOrDefault("AUTH_ISSUER", "appraisal"),
		SessionTTL:     getEnvDurationOrDefault("AUTH_SESSION_TTL", 12*time.Hour),
		SigningKeyFile: os.Getenv("AUTH_SIGNING_KEY_FILE"),
		DevLogin:       getEnvBoolOrDefault("AUTH_DEV_LOGIN", false),

		WorkOSAPIKey:      os.Getenv("WORKOS_API_KEY"),
		WorkOSClientID:    os.Getenv("WORKOS_CLIENT_ID"),
		WorkOSRedirectURI: getEnvOrDefault("WORKOS_REDIRECT_URI", "http://localhost:8080/auth/callback"),

		InviteTTL: getEnvDurationOrDefault("INVITE_TTL", 7*24*time.Hour),
	}

	limits := httpx.DefaultRateLimits()
	cfg.RateLimits = httpx.RateLimits{
		Strict:   getEnvRateLimit("STRICT", limits.Strict),
		Moderate: getEnvRateLimit("MODERATE", limits.Moderate),
		Lenient:  getEnvRateLimit("LENIENT", limits.Lenient),
		Public:   getEnvRateLimit("PUBLIC", limits.Public),
	}

	return cfg, cfg.Validate()
}

// Validate rejects combinations the service cannot start with.
func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when DATABASE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q (want sqlite or postgres)", c.DatabaseDriver)
	}

	if c.DevLogin && !c.IsDev() {
		return errors.New("AUTH_DEV_LOGIN is only allowed with ENV=dev")
	}

	// Outside dev someone has to be able to sign in.
	if !c.IsDev() && (c.WorkOSAPIKey == "" || c.WorkOSClientID == "") {
		return errors.New("WORKOS_API_KEY and WORKOS_CLIENT_ID are required outside ENV=dev")
	}

	return nil
}

func (c Config) IsDev() bool { return c.Env == "dev" }

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

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getEnvRateLimit overrides a profile field by field. Values that are not
// positive integers keep the default.
func getEnvRateLimit(profile string, def httpx.RateLimitConfig) httpx.RateLimitConfig {
	prefix := "RATELIMIT_" + profile + "_"
	positive := func(key string, fallback int) int {
		if n := getEnvIntOrDefault(prefix+key, fallback); n > 0 {
			return n
		}
		return fallback
	}

	def.RequestsPerWindow = positive("REQUESTS", def.RequestsPerWindow)
	def.Burst = positive("BURST", def.Burst)
	if sec := positive("WINDOW_SEC", 0); sec > 0 {
		def.Window = time.Duration(sec) * time.Second
	}
	return def
}
