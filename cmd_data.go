package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/harrisonrobin/taskflow/pkg/reconcile"
	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all of your tasks from every store",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

var clearYes bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task counts",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	keyStyle  = lipgloss.NewStyle().Bold(true)
)

func init() {
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "Confirm deleting everything")
	rootCmd.AddCommand(clearCmd, statsCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearYes {
		return fmt.Errorf("this deletes every task in Google Tasks, the mirror and the local cache; pass --yes to confirm")
	}
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.rec.ClearAll(ctx, a.owner)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printResult := func(name string, res reconcile.StoreResult) {
		if res.Err != nil {
			fmt.Fprintf(out, "%s %s\n", keyStyle.Render(fmt.Sprintf("%-13s", name)), failStyle.Render("failed: "+res.Err.Error()))
			return
		}
		msg := fmt.Sprintf("%d deleted", res.Deleted)
		if res.Reset {
			msg = "reset"
		}
		fmt.Fprintf(out, "%s %s\n", keyStyle.Render(fmt.Sprintf("%-13s", name)), okStyle.Render(msg))
	}
	printResult("Google Tasks", report.Source)
	printResult("Mirror", report.Mirror)
	printResult("Local cache", report.Cache)

	if report.Partial() {
		fmt.Fprintln(out, "Some stores could not be cleared; run `taskflow clear --yes` again to retry them.")
	}
	return report.Err()
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// populate the cache first so the counts are current
	if _, err := a.rec.LoadTasks(ctx, a.owner); err != nil {
		return err
	}
	if err := a.rec.Flush(ctx); err != nil {
		return err
	}
	counts, err := a.rec.Stats(ctx, a.owner)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %d\n", keyStyle.Render("Pending:  "), counts.Pending)
	fmt.Fprintf(out, "%s %d\n", keyStyle.Render("Completed:"), counts.Completed)
	fmt.Fprintf(out, "%s %d\n", keyStyle.Render("Total:    "), counts.Total)
	return nil
}
