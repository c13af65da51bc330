package main

import (
	"fmt"

	"github.com/harrisonrobin/taskflow/pkg/auth"
	"github.com/harrisonrobin/taskflow/pkg/config"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in with Google",
	Args:  cobra.NoArgs,
	RunE:  runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := auth.Authorize(ctx, auth.Scopes); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	ts, err := auth.TokenSource(ctx, auth.Scopes)
	if err != nil {
		return err
	}
	account, err := auth.Identity(ctx, ts)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	cfg.Account = account
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", account)
	return nil
}
