package main

import (
	"context"
	"log/slog"

	"authapi/backend/internal/config"
	domain "authapi/backend/internal/domain/auth"
	"authapi/backend/internal/infrastructure/memory"
	"authapi/backend/internal/infrastructure/password"
	"authapi/backend/internal/infrastructure/postgres"
	"authapi/backend/internal/infrastructure/token"
	"authapi/backend/internal/logging"
	authusecase "authapi/backend/internal/usecase/auth"

	"github.com/samber/oops"
)

// deps holds the wired application graph shared by serve and seed.
type deps struct {
	logger      *slog.Logger
	authService *authusecase.Service
	close       func()
}

func newLogger(cfg config.Config) *slog.Logger {
	return logging.New(logging.Options{
		Service: "authd",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
	})
}

func buildPasswordManager(cfg config.Config) (*password.Manager, error) {
	return password.NewManager(password.Options{
		Algorithm:  password.Algorithm(cfg.PasswordAlgorithm),
		BcryptCost: cfg.BcryptCost,
		Argon2:     password.DefaultArgon2Params(),
	})
}

// openUserRepository connects to Postgres when a URL is configured and falls
// back to the in-memory store otherwise.
func openUserRepository(ctx context.Context, cfg config.Config, logger *slog.Logger) (domain.UserRepository, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, users are kept in memory and lost on exit")
		return memory.NewUserRepository(), func() {}, nil
	}

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, oops.With("operation", "connect to database").Wrap(err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	return postgres.NewUserRepository(db.Pool), db.Close, nil
}

func buildDeps(ctx context.Context, cfg config.Config) (*deps, error) {
	logger := newLogger(cfg)

	hasher, err := buildPasswordManager(cfg)
	if err != nil {
		return nil, err
	}
	tokens, err := token.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry, cfg.JWTIssuer)
	if err != nil {
		return nil, err
	}
	users, closeRepo, err := openUserRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &deps{
		logger:      logger,
		authService: authusecase.NewService(users, hasher, tokens, logger),
		close:       closeRepo,
	}, nil
}
