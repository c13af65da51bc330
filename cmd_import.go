package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/reconcile"
	"github.com/harrisonrobin/taskflow/pkg/taskwarrior"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import open tasks from a Taskwarrior export",
	Long:  "Reads the output of `task export` from a file or standard input and creates each pending task.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runImport,
}

var importDryRun bool

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "print what would be imported")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open export: %w", err)
		}
		defer f.Close()
		in = f
	}

	exported, err := taskwarrior.ParseExport(in)
	if err != nil {
		return err
	}

	var open []taskwarrior.Task
	for _, t := range exported {
		if t.Importable() && t.Description != "" {
			open = append(open, t)
		}
	}
	if len(open) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to import.")
		return nil
	}

	if importDryRun {
		for _, t := range open {
			draft := t.Draft("", time.Local)
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", formatDay(draft.ScheduledDate), draft.Title)
		}
		return nil
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	imported, localOnly := 0, 0
	for _, t := range open {
		_, err := a.rec.Create(ctx, t.Draft(a.owner, time.Local))
		switch {
		case errors.Is(err, reconcile.ErrLocalOnly):
			localOnly++
		case err != nil:
			return fmt.Errorf("import stopped after %d tasks: %w", imported, err)
		}
		imported++
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks\n", imported)
	if localOnly > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d tasks are local-only; run `taskflow push` later\n", localOnly)
	}
	return nil
}

func formatDay(day time.Time) string {
	if day.IsZero() {
		return "(no date)"
	}
	return day.Format(dateLayout)
}
