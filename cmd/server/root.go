package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the auth backend CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authd",
		Short: "Authentication backend",
		Long: `authd issues bearer tokens for registered users. Configuration is read
from the environment and an optional .env file.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSeedCmd())

	return cmd
}
