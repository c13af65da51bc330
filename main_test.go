package main

import (
	"errors"
	"testing"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/model"
	"github.com/spf13/cobra"
)

func TestFindTask(t *testing.T) {
	tasks := []model.Task{
		{ID: "3f2a9c10-aaaa", ExternalID: "g-1", Title: "Gym"},
		{ID: "3f2b0000-bbbb", Title: "Read"},
		{ID: "77aa0000-cccc", Title: "Cook"},
	}

	cases := map[string]string{
		"3f2a9c10-aaaa": "Gym",
		"3f2a":          "Gym",
		"77":            "Cook",
		"g-1":           "Gym",
	}
	for ref, want := range cases {
		got, err := findTask(tasks, ref)
		if err != nil {
			t.Errorf("findTask(%q) failed: %v", ref, err)
			continue
		}
		if got.Title != want {
			t.Errorf("findTask(%q) = %s, want %s", ref, got.Title, want)
		}
	}

	if _, err := findTask(tasks, "3f2"); err == nil {
		t.Error("expected an ambiguous prefix to fail")
	}
	if _, err := findTask(tasks, "zz"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	now := time.Date(2024, 6, 1, 15, 30, 0, 0, time.Local)
	cases := map[string]time.Time{
		"":           time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local),
		"today":      time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local),
		"Tomorrow":   time.Date(2024, 6, 2, 0, 0, 0, 0, time.Local),
		"2024-12-25": time.Date(2024, 12, 25, 0, 0, 0, 0, time.Local),
	}
	for in, want := range cases {
		got, err := parseDate(in, now)
		if err != nil {
			t.Errorf("parseDate(%q) failed: %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("parseDate(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := parseDate("06/01/2024", now); err == nil {
		t.Error("expected an invalid date to fail")
	}
}

func TestNormaliseClock(t *testing.T) {
	got, err := normaliseClock("14:05")
	if err != nil || got != "2:05 PM" {
		t.Errorf("normaliseClock(14:05) = %q, %v", got, err)
	}
	if got, _ := normaliseClock(""); got != "" {
		t.Errorf("expected empty input to stay empty, got %q", got)
	}
	if _, err := normaliseClock("later"); err == nil {
		t.Error("expected garbage to fail")
	}
}

func TestGroupByDay(t *testing.T) {
	d1 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local)
	d2 := d1.AddDate(0, 0, 1)
	groups := groupByDay([]model.Task{
		{Title: "a", ScheduledDate: d1},
		{Title: "b", ScheduledDate: d1},
		{Title: "c", ScheduledDate: d2},
		{Title: "d"},
	})
	if len(groups) != 3 || len(groups[0]) != 2 || groups[2][0].Title != "d" {
		t.Fatalf("unexpected grouping %+v", groups)
	}
}

func TestApplyEditsOnlyTouchesChangedFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&editTitle, "title", "", "")
	cmd.Flags().StringVar(&editDate, "date", "", "")
	cmd.Flags().StringVar(&editStart, "start", "", "")
	cmd.Flags().StringVar(&editEnd, "end", "", "")
	cmd.Flags().StringVar(&editDescription, "description", "", "")
	cmd.Flags().StringVar(&editCategory, "category", "", "")
	if err := cmd.Flags().Parse([]string{"--start", "13:00", "--end", "14:30"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	task := model.Task{Title: "Gym", Description: "legs", StartTime: "9:00 AM", EndTime: "10:00 AM"}
	if err := applyEdits(cmd, &task, time.Now()); err != nil {
		t.Fatalf("applyEdits failed: %v", err)
	}
	if task.StartTime != "1:00 PM" || task.EndTime != "2:30 PM" {
		t.Errorf("times not applied: %+v", task)
	}
	if task.Title != "Gym" || task.Description != "legs" {
		t.Errorf("untouched fields changed: %+v", task)
	}
}

func TestFormatDay(t *testing.T) {
	if got := formatDay(time.Time{}); got != "(no date)" {
		t.Errorf("expected (no date), got %q", got)
	}
	if got := formatDay(time.Date(2024, 3, 9, 0, 0, 0, 0, time.Local)); got != "2024-03-09" {
		t.Errorf("expected 2024-03-09, got %q", got)
	}
}
