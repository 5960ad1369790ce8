package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	domain "authapi/backend/internal/domain/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var managedKeys = []string{
	"HTTP_PORT", "PORT", "DATABASE_URL", "POSTGRES_URL", "PGURL", "DATABASE_URL_FILE", "PGURL_FILE",
	"JWT_SECRET", "JWT_ISSUER", "JWT_EXPIRY", "PASSWORD_ALGORITHM", "BCRYPT_COST",
	"CORS_ALLOWED_ORIGINS", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT",
	"LOG_FORMAT", "LOG_LEVEL",
}

// clearEnv unsets every key this package reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestParseDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "auth-backend", cfg.JWTIssuer)
	assert.Equal(t, 30*time.Minute, cfg.JWTExpiry)
	assert.Equal(t, "bcrypt", cfg.PasswordAlgorithm)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.IdleTimeout)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestParseOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgresql://app:pw@db:5432/app")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("PASSWORD_ALGORITHM", "argon2id")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://app.example.com ,")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, "postgres://app:pw@db:5432/app", cfg.DatabaseURL)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "argon2id", cfg.PasswordAlgorithm)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestParseDatabaseURLFallbacks(t *testing.T) {
	t.Run("provider variable", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("JWT_SECRET", testSecret)
		t.Setenv("POSTGRES_URL", "postgres://a@b/c")

		cfg, err := Parse()
		require.NoError(t, err)
		assert.Equal(t, "postgres://a@b/c", cfg.DatabaseURL)
	})

	t.Run("secrets file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "dsn")
		require.NoError(t, os.WriteFile(path, []byte("postgresql://a@b/c\n"), 0o600))
		t.Setenv("JWT_SECRET", testSecret)
		t.Setenv("DATABASE_URL_FILE", path)

		cfg, err := Parse()
		require.NoError(t, err)
		assert.Equal(t, "postgres://a@b/c", cfg.DatabaseURL)
	})

	t.Run("ignores non-postgres values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("JWT_SECRET", testSecret)
		t.Setenv("PGURL", "mysql://a@b/c")

		cfg, err := Parse()
		require.NoError(t, err)
		assert.Empty(t, cfg.DatabaseURL)
	})
}

func TestParseRejectsInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{}},
		{name: "short secret", env: map[string]string{"JWT_SECRET": "short"}},
		{name: "negative expiry", env: map[string]string{"JWT_SECRET": testSecret, "JWT_EXPIRY": "-1m"}},
		{name: "unparsable expiry", env: map[string]string{"JWT_SECRET": testSecret, "JWT_EXPIRY": "soon"}},
		{name: "unknown algorithm", env: map[string]string{"JWT_SECRET": testSecret, "PASSWORD_ALGORITHM": "md5"}},
		{name: "unknown log format", env: map[string]string{"JWT_SECRET": testSecret, "LOG_FORMAT": "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Parse()
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_ISSUER", "from-process")
	require.NoError(t, os.Unsetenv("LOAD_DOTENV_QUOTED"))
	t.Cleanup(func() { _ = os.Unsetenv("LOAD_DOTENV_QUOTED") })

	path := filepath.Join(t.TempDir(), ".env")
	contents := "# comment\n\nexport JWT_SECRET=" + testSecret + "\nJWT_ISSUER=from-file\nLOAD_DOTENV_QUOTED=\"hello world\"\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, testSecret, os.Getenv("JWT_SECRET"))
	assert.Equal(t, "from-process", os.Getenv("JWT_ISSUER"))
	assert.Equal(t, "hello world", os.Getenv("LOAD_DOTENV_QUOTED"))
}

func TestLoadDotEnvErrors(t *testing.T) {
	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NO_EQUALS_SIGN\n"), 0o600))
	assert.ErrorContains(t, loadDotEnv(path), "line 1")
}
