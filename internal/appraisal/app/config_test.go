package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/appraisal/pkg/cryptox"
	"github.com/aussiebroadwan/appraisal/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("INVITE_TTL", "")
	t.Setenv("AUTH_DEV_LOGIN", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.Equal(t, 7*24*time.Hour, cfg.InviteTTL)
	require.Equal(t, 12*time.Hour, cfg.SessionTTL)
	require.False(t, cfg.DevLogin)
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("INVITE_TTL=48h\nPORT=9090\n"), 0o600))

	t.Setenv("ENV", "dev")
	t.Setenv("DATABASE_DRIVER", "")

	// godotenv never overrides what is already set.
	t.Setenv("PORT", "7070")
	t.Setenv("INVITE_TTL", "")
	require.NoError(t, os.Unsetenv("INVITE_TTL"))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 48*time.Hour, cfg.InviteTTL)
	require.Equal(t, 7070, cfg.Port)
}

func TestLoadConfigRateLimitsFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	env := "RATELIMIT_STRICT_REQUESTS=50\nRATELIMIT_STRICT_WINDOW_SEC=30\nRATELIMIT_PUBLIC_BURST=0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))

	t.Setenv("ENV", "dev")
	t.Setenv("DATABASE_DRIVER", "")
	for _, key := range []string{"RATELIMIT_STRICT_REQUESTS", "RATELIMIT_STRICT_WINDOW_SEC", "RATELIMIT_STRICT_BURST", "RATELIMIT_PUBLIC_BURST"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	defaults := httpx.DefaultRateLimits()
	require.Equal(t, 50, cfg.RateLimits.Strict.RequestsPerWindow)
	require.Equal(t, 30*time.Second, cfg.RateLimits.Strict.Window)
	require.Equal(t, defaults.Strict.Burst, cfg.RateLimits.Strict.Burst)
	require.Equal(t, "strict", cfg.RateLimits.Strict.Name)
	require.Equal(t, defaults.Public, cfg.RateLimits.Public)
	require.Equal(t, defaults.Moderate, cfg.RateLimits.Moderate)
}

func TestConfigValidate(t *testing.T) {
	base := Config{Env: "dev", DatabaseDriver: "sqlite"}
	require.NoError(t, base.Validate())

	c := base
	c.DatabaseDriver = "mysql"
	require.Error(t, c.Validate())

	c = base
	c.DatabaseDriver = "postgres"
	require.ErrorContains(t, c.Validate(), "DATABASE_URL")

	c = base
	c.Env, c.DevLogin = "prod", true
	c.WorkOSAPIKey, c.WorkOSClientID = "sk", "client"
	require.ErrorContains(t, c.Validate(), "AUTH_DEV_LOGIN")

	c = base
	c.Env = "prod"
	require.ErrorContains(t, c.Validate(), "WORKOS")
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("X_DURATION", "90")
	require.Equal(t, 90*time.Minute, getEnvDurationOrDefault("X_DURATION", time.Second))

	t.Setenv("X_DURATION", "bogus")
	require.Equal(t, time.Second, getEnvDurationOrDefault("X_DURATION", time.Second))
}

func TestInitSessionKeysFromFile(t *testing.T) {
	pem, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "session.pem")
	require.NoError(t, os.WriteFile(path, pem, 0o600))

	km, err := InitSessionKeys(Config{Issuer: "appraisal", SigningKeyFile: path}, NewLogger(Config{LogLevel: "error"}))
	require.NoError(t, err)
	require.Equal(t, 1, km.NumSigners())
	require.Equal(t, "appraisal-static", km.KeySet.PublicJWKS().Keys[0].Kid)

	_, err = InitSessionKeys(Config{Issuer: "appraisal", SigningKeyFile: filepath.Join(t.TempDir(), "missing.pem")}, NewLogger(Config{}))
	require.Error(t, err)
}

func TestNewServesReadyz(t *testing.T) {
	cfg := Config{
		Env:                 "dev",
		LogLevel:            "error",
		DatabaseDriver:      "sqlite",
		DatabaseFile:        filepath.Join(t.TempDir(), "appraisal.db"),
		Issuer:              "appraisal",
		DevLogin:            true,
		ShutdownGracePeriod: time.Second,
	}

	application, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.db.Close() })

	rec := httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/dev-login", strings.NewReader(`{"email":"val@example.com"}`))
	application.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
