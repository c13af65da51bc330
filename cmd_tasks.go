package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/model"
	"github.com/harrisonrobin/taskflow/pkg/notify"
	"github.com/harrisonrobin/taskflow/pkg/reconcile"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List tasks",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var listDate string

var addCmd = &cobra.Command{
	Use:   "add <title>...",
	Short: "Create a task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

var (
	addDate        string
	addStart       string
	addEnd         string
	addDescription string
	addCategory    string
	addForce       bool
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

var (
	editTitle       string
	editDate        string
	editStart       string
	editEnd         string
	editDescription string
	editCategory    string
)

var doneCmd = &cobra.Command{
	Use:   "done <id>...",
	Short: "Mark tasks completed",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetStatus(cmd, args, true)
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo <id>...",
	Short: "Mark tasks pending again",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetStatus(cmd, args, false)
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>...",
	Short: "Delete completed tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRemove,
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Send tasks created offline to Google Tasks",
	Args:  cobra.NoArgs,
	RunE:  runPush,
}

func init() {
	listCmd.Flags().StringVar(&listDate, "date", "", "Only show tasks on this date (YYYY-MM-DD, today, tomorrow)")

	addCmd.Flags().StringVar(&addDate, "date", "today", "Scheduled date (YYYY-MM-DD, today, tomorrow)")
	addCmd.Flags().StringVar(&addStart, "start", "", "Start time, e.g. 9:00 AM")
	addCmd.Flags().StringVar(&addEnd, "end", "", "End time, defaults to one hour after start")
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Description")
	addCmd.Flags().StringVar(&addCategory, "category", "", "Category")
	addCmd.Flags().BoolVar(&addForce, "force", false, "Create the task even if it overlaps another")

	editCmd.Flags().StringVar(&editTitle, "title", "", "New title")
	editCmd.Flags().StringVar(&editDate, "date", "", "New scheduled date")
	editCmd.Flags().StringVar(&editStart, "start", "", "New start time (empty to clear)")
	editCmd.Flags().StringVar(&editEnd, "end", "", "New end time (empty to clear)")
	editCmd.Flags().StringVarP(&editDescription, "description", "d", "", "New description")
	editCmd.Flags().StringVar(&editCategory, "category", "", "New category")

	rootCmd.AddCommand(listCmd, addCmd, editCmd, doneCmd, undoCmd, rmCmd, pushCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	now := time.Now()
	if listDate != "" {
		day, err := parseDate(listDate, now)
		if err != nil {
			return err
		}
		tasks, err := a.rec.TasksOn(ctx, a.owner, day)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), notify.Render(day.Format(notify.DisplayDateLayout), tasks, now))
		return nil
	}

	tasks, err := a.rec.LoadTasks(ctx, a.owner)
	if err != nil {
		return err
	}
	for _, group := range groupByDay(tasks) {
		heading := "No date"
		if !group[0].ScheduledDate.IsZero() {
			heading = group[0].ScheduledDate.Format(notify.DisplayDateLayout)
		}
		fmt.Fprint(cmd.OutOrStdout(), notify.Render(heading, group, now))
	}
	if len(tasks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tasks.")
	}
	return nil
}

// groupByDay splits tasks, already in date order, into runs sharing a date.
func groupByDay(tasks []model.Task) [][]model.Task {
	var groups [][]model.Task
	for _, t := range tasks {
		n := len(groups)
		if n > 0 && sameDate(groups[n-1][0].ScheduledDate, t.ScheduledDate) {
			groups[n-1] = append(groups[n-1], t)
			continue
		}
		groups = append(groups, []model.Task{t})
	}
	return groups
}

func sameDate(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return a.IsZero() && b.IsZero()
	}
	return model.SameDay(a, b)
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	day, err := parseDate(addDate, time.Now())
	if err != nil {
		return err
	}
	start, err := normaliseClock(addStart)
	if err != nil {
		return err
	}
	end, err := normaliseClock(addEnd)
	if err != nil {
		return err
	}
	if end != "" && start == "" {
		return fmt.Errorf("--end needs --start")
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	draft := model.Task{
		Title:         strings.Join(args, " "),
		Description:   addDescription,
		Category:      addCategory,
		ScheduledDate: day,
		StartTime:     start,
		EndTime:       end,
		OwnerIdentity: a.owner,
	}
	if !addForce && a.rec.CheckConflict(ctx, draft) {
		return fmt.Errorf("%s %s overlaps another task; use --force to add it anyway",
			day.Format(dateLayout), notify.TimeRange(draft))
	}

	created, err := a.rec.Create(ctx, draft)
	switch {
	case errors.Is(err, reconcile.ErrLocalOnly):
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; run `taskflow push` later\n", err)
	case err != nil:
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s\n", created.ID, created.Title)
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	task, err := a.lookup(ctx, args[0])
	if err != nil {
		return err
	}
	if err := applyEdits(cmd, &task, time.Now()); err != nil {
		return err
	}
	if task.StartTime != "" && task.EndTime != "" && a.rec.CheckConflict(ctx, task) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s now overlaps another task\n", task.Title)
	}

	saved, err := a.rec.Update(ctx, task)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %s\n", saved.ID, saved.Title)
	return nil
}

// applyEdits copies the flags the user actually passed onto task.
func applyEdits(cmd *cobra.Command, task *model.Task, now time.Time) error {
	flags := cmd.Flags()
	if flags.Changed("title") {
		if strings.TrimSpace(editTitle) == "" {
			return fmt.Errorf("title cannot be empty")
		}
		task.Title = editTitle
	}
	if flags.Changed("date") {
		day, err := parseDate(editDate, now)
		if err != nil {
			return err
		}
		task.ScheduledDate = day
	}
	if flags.Changed("start") {
		start, err := normaliseClock(editStart)
		if err != nil {
			return err
		}
		task.StartTime = start
		if start == "" {
			task.EndTime = ""
		}
	}
	if flags.Changed("end") {
		end, err := normaliseClock(editEnd)
		if err != nil {
			return err
		}
		task.EndTime = end
	}
	if flags.Changed("description") {
		task.Description = editDescription
	}
	if flags.Changed("category") {
		task.Category = editCategory
	}
	return nil
}

func runSetStatus(cmd *cobra.Command, args []string, completed bool) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	tasks, err := a.rec.LoadTasks(ctx, a.owner)
	if err != nil {
		return err
	}
	var errs []error
	for _, ref := range args {
		task, err := findTask(tasks, ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := a.rec.UpdateStatus(ctx, task, completed); err != nil {
			errs = append(errs, err)
			continue
		}
		state := "pending"
		if completed {
			state = "completed"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s is %s\n", task.ID, task.Title, state)
	}
	return errors.Join(errs...)
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	tasks, err := a.rec.LoadTasks(ctx, a.owner)
	if err != nil {
		return err
	}
	var errs []error
	for _, ref := range args {
		task, err := findTask(tasks, ref)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := a.rec.Delete(ctx, task); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", task.Title, err))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", task.ID, task.Title)
	}
	return errors.Join(errs...)
}

func runPush(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.rec.PushLocalOnly(ctx, a.owner)
	fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d task(s)\n", n)
	return err
}
