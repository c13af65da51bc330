// Package main implements the taskflow CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/harrisonrobin/taskflow/pkg/model"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, model.ErrNotSignedIn) {
			fmt.Fprintln(os.Stderr, "please sign in with `taskflow auth`")
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "taskflow",
	Short:        "TaskFlow - tasks synced between Google Tasks, Firestore and a local cache",
	SilenceUsage: true,
}

var (
	listOverride string
	offline      bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&listOverride, "list", "", "Google Tasks list to create tasks in (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Skip Google Tasks and work from the mirror and cache")
}
