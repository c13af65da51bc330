package main

import (
	"fmt"
	"log"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/model"
	"github.com/harrisonrobin/taskflow/pkg/notify"
	"github.com/harrisonrobin/taskflow/pkg/overdue"
	"github.com/spf13/cobra"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Remind about tasks that have started since the last run",
	Long: `Remind about tasks that have started since the last run.

Start times of pending tasks are remembered between runs; tasks whose start
has passed are reported once. Suitable for running from cron.`,
	Args: cobra.NoArgs,
	RunE: runRemind,
}

var remindEmail bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Email the day's tasks",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

var (
	summaryDate   string
	summaryDryRun bool
)

func init() {
	remindCmd.Flags().BoolVar(&remindEmail, "email", false, "Also send reminders by email")
	summaryCmd.Flags().StringVar(&summaryDate, "date", "today", "Date to summarise (YYYY-MM-DD, today, tomorrow)")
	summaryCmd.Flags().BoolVar(&summaryDryRun, "dry-run", false, "Print the email instead of sending it")
	rootCmd.AddCommand(remindCmd, summaryCmd)
}

func runRemind(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	table, err := overdue.NewTable()
	if err != nil {
		return fmt.Errorf("failed to open reminder table: %w", err)
	}
	tasks, err := a.rec.LoadTasks(ctx, a.owner)
	if err != nil {
		return err
	}

	now := time.Now()
	byID := make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	var due []model.Task
	for _, e := range table.Sweep(now) {
		if t, ok := byID[e.TaskID]; ok && t.Status != model.COMPLETED {
			due = append(due, t)
		}
	}
	table.Refresh(tasks, now)
	if err := table.Save(); err != nil {
		log.Printf("Warning: failed to save reminder table: %v", err)
	}

	if len(due) == 0 {
		return nil
	}
	notifiers := []notify.Notifier{notify.Terminal{W: cmd.OutOrStdout()}}
	if remindEmail {
		sender, err := notify.NewGmailClient(ctx, a.ts, a.recipient())
		if err != nil {
			return err
		}
		notifiers = append(notifiers, sender)
	}
	for _, n := range notifiers {
		if err := n.Notify(ctx, due, now.Format(notify.DisplayDateLayout)); err != nil {
			return err
		}
	}
	return nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	day, err := parseDate(summaryDate, time.Now())
	if err != nil {
		return err
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	tasks, err := a.rec.TasksOn(ctx, a.owner, day)
	if err != nil {
		return err
	}
	displayDate := day.Format(notify.DisplayDateLayout)
	if summaryDryRun {
		fmt.Fprint(cmd.OutOrStdout(), notify.SummaryBody(tasks, displayDate))
		return nil
	}

	sender, err := notify.NewGmailClient(ctx, a.ts, a.recipient())
	if err != nil {
		return err
	}
	if err := sender.Notify(ctx, tasks, displayDate); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sent %d task(s) to %s\n", len(tasks), a.recipient())
	return nil
}

// recipient is the configured summary address, else the signed-in account.
func (a *app) recipient() string {
	if a.cfg.SummaryRecipient != "" {
		return a.cfg.SummaryRecipient
	}
	return a.owner
}
