package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/harrisonrobin/taskflow/pkg/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetListCmd = &cobra.Command{
	Use:   "set-list <name>",
	Short: "Set the default Google Tasks list",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetList,
}

var configSetProjectCmd = &cobra.Command{
	Use:   "set-project <id>",
	Short: "Set the Firestore project used as the shared mirror",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetProject,
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetListCmd, configSetProjectCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
}

func runConfigSetList(cmd *cobra.Command, args []string) error {
	return updateConfig(func(cfg *config.Config) { cfg.TaskList = args[0] },
		cmd, fmt.Sprintf("Default task list set to: %s", args[0]))
}

func runConfigSetProject(cmd *cobra.Command, args []string) error {
	return updateConfig(func(cfg *config.Config) { cfg.FirestoreProject = args[0] },
		cmd, fmt.Sprintf("Firestore project set to: %s", args[0]))
}

func updateConfig(change func(*config.Config), cmd *cobra.Command, done string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	change(cfg)
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), done)
	return nil
}
