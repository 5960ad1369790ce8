package main

import (
	"context"
	"fmt"
	"time"

	"authapi/backend/internal/config"
	domain "authapi/backend/internal/domain/auth"
	"authapi/backend/internal/seed"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

const defaultSeedTimeout = 30 * time.Second

type seedConfig struct {
	file    string
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create users listed in a YAML file",
		Long: `Signs up every user listed in the seed file into the configured
database. Users whose email is already registered are skipped, so the command
can be run repeatedly. DATABASE_URL must be set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.file, "file", "f", "users.yaml", "seed file path")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for the whole run (e.g., 30s, 1m)")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, sc *seedConfig) error {
	doc, err := seed.LoadFile(sc.file)
	if err != nil {
		return oops.Code("SEED_FILE_INVALID").With("file", sc.file).Wrap(err)
	}

	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Wrap(fmt.Errorf("%w: DATABASE_URL is required to seed users", domain.ErrConfiguration))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), sc.timeout)
	defer cancel()

	d, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	res, err := seed.Apply(ctx, d.authService, doc, d.logger)
	if err != nil {
		return oops.Code("SEED_FAILED").Wrap(err)
	}
	cmd.Printf("Seed complete: %d created, %d skipped\n", res.Created, res.Skipped)
	return nil
}
