package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	domain "authapi/backend/internal/domain/auth"

	"github.com/caarlos0/env/v11"
)

// MinJWTSecretLength mirrors the token issuer's HS256 key requirement.
const MinJWTSecretLength = 32

// Config centralises runtime configuration. It is loaded once at startup and
// never mutated afterwards.
type Config struct {
	HTTPPort          string        `env:"HTTP_PORT"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	JWTSecret         string        `env:"JWT_SECRET"`
	JWTIssuer         string        `env:"JWT_ISSUER" envDefault:"auth-backend"`
	JWTExpiry         time.Duration `env:"JWT_EXPIRY" envDefault:"30m"`
	PasswordAlgorithm string        `env:"PASSWORD_ALGORITHM" envDefault:"bcrypt"`
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"12"`
	AllowedOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	LogFormat         string        `env:"LOG_FORMAT" envDefault:"json"`
	LogLevel          slog.Level    `env:"LOG_LEVEL" envDefault:"INFO"`
}

// Load reads configuration from environment variables, after applying an
// optional .env file in the working directory.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the current process environment.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse env: %w", domain.ErrConfiguration, err)
	}

	if cfg.HTTPPort == "" {
		cfg.HTTPPort = getEnv("PORT", "8080")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = resolveDatabaseURL()
	} else {
		cfg.DatabaseURL = normalisePostgresScheme(strings.TrimSpace(cfg.DatabaseURL))
	}
	cfg.AllowedOrigins = cleanOrigins(cfg.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks invariants that the environment parser cannot express.
func (c Config) Validate() error {
	switch {
	case c.JWTSecret == "":
		return fmt.Errorf("%w: JWT_SECRET is required", domain.ErrConfiguration)
	case len(c.JWTSecret) < MinJWTSecretLength:
		return fmt.Errorf("%w: JWT_SECRET must be at least %d bytes", domain.ErrConfiguration, MinJWTSecretLength)
	case c.JWTExpiry <= 0:
		return fmt.Errorf("%w: JWT_EXPIRY must be positive", domain.ErrConfiguration)
	}
	switch c.PasswordAlgorithm {
	case "bcrypt", "argon2id":
	default:
		return fmt.Errorf("%w: PASSWORD_ALGORITHM must be bcrypt or argon2id, got %q", domain.ErrConfiguration, c.PasswordAlgorithm)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("%w: LOG_FORMAT must be json or text, got %q", domain.ErrConfiguration, c.LogFormat)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	if strings.Contains(c.HTTPPort, ":") {
		return c.HTTPPort
	}
	return ":" + c.HTTPPort
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func cleanOrigins(values []string) []string {
	parts := []string{}
	for _, part := range values {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return []string{"*"}
	}
	return parts
}

// resolveDatabaseURL falls back to the hosting-provider variables and to a
// secrets file. An empty result selects the in-memory store.
func resolveDatabaseURL() string {
	for _, key := range []string{"POSTGRES_URL", "PGURL"} {
		if url := coerceDatabaseURL(os.Getenv(key)); url != "" {
			return url
		}
	}
	for _, key := range []string{"DATABASE_URL_FILE", "PGURL_FILE"} {
		if url := coerceDatabaseURL(readEnvFile(key)); url != "" {
			return url
		}
	}
	return ""
}

func normalisePostgresScheme(url string) string {
	if strings.HasPrefix(url, "postgresql://") {
		return "postgres://" + strings.TrimPrefix(url, "postgresql://")
	}
	return url
}

func coerceDatabaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://") {
		return normalisePostgresScheme(raw)
	}
	return ""
}

func readEnvFile(key string) string {
	path := os.Getenv(key)
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// loadDotEnv applies KEY=VALUE lines from path. Variables already present in
// the environment win.
func loadDotEnv(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf(".env line %d: missing '='", lineNum)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			return fmt.Errorf(".env line %d: empty key", lineNum)
		}
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf(".env line %d: %w", lineNum, err)
		}
	}
	return scanner.Err()
}
