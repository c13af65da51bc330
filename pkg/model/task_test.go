package model

import (
	"errors"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"9:00 AM", 9 * time.Hour},
		{"09:30 am", 9*time.Hour + 30*time.Minute},
		{"12:15 PM", 12*time.Hour + 15*time.Minute},
		{"12:00 AM", 0},
		{"21:45", 21*time.Hour + 45*time.Minute},
		{"4:05PM", 16*time.Hour + 5*time.Minute},
	}
	for _, c := range cases {
		got, err := ParseClock(c.in)
		if err != nil {
			t.Errorf("ParseClock(%q) failed: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseClock(%q) = %v, want %v", c.in, got, c.want)
		}
	}

	for _, bad := range []string{"", "noon", "25:00", "9"} {
		if _, err := ParseClock(bad); err == nil {
			t.Errorf("expected ParseClock(%q) to fail", bad)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(13*time.Hour + 5*time.Minute); got != "1:05 PM" {
		t.Errorf("expected 1:05 PM, got %s", got)
	}
	if got := FormatClock(25 * time.Hour); got != "1:00 AM" {
		t.Errorf("expected wraparound to 1:00 AM, got %s", got)
	}
}

func TestDisplayStatus(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	task := Task{ID: "a", Status: PENDING, ScheduledDate: day, StartTime: "9:00 AM", EndTime: "10:00 AM"}

	if got := task.DisplayStatus(day.Add(9*time.Hour + 30*time.Minute)); got != PENDING {
		t.Errorf("expected PENDING during the task, got %s", got)
	}
	if got := task.DisplayStatus(day.Add(11 * time.Hour)); got != OVERDUE {
		t.Errorf("expected OVERDUE after end, got %s", got)
	}

	task.Status = COMPLETED
	if got := task.DisplayStatus(day.Add(48 * time.Hour)); got != COMPLETED {
		t.Errorf("completed tasks never become overdue, got %s", got)
	}

	untimed := Task{ID: "b", Status: PENDING, ScheduledDate: day}
	if got := untimed.DisplayStatus(day.Add(23 * time.Hour)); got != PENDING {
		t.Errorf("untimed task should stay pending through its day, got %s", got)
	}
	if got := untimed.DisplayStatus(day.Add(25 * time.Hour)); got != OVERDUE {
		t.Errorf("untimed task should be overdue the next day, got %s", got)
	}
}

func TestParseStatus(t *testing.T) {
	if ParseStatus("completed") != COMPLETED {
		t.Error("expected COMPLETED")
	}
	if ParseStatus("in_progress") != IN_PROGRESS {
		t.Error("expected IN_PROGRESS")
	}
	if ParseStatus("OVERDUE") != PENDING {
		t.Error("OVERDUE is never stored; expected PENDING")
	}
}

func TestFillEndTime(t *testing.T) {
	task := Task{StartTime: "11:30 PM"}
	if err := task.FillEndTime(); err != nil {
		t.Fatalf("FillEndTime failed: %v", err)
	}
	if task.EndTime != "12:30 AM" {
		t.Errorf("expected 12:30 AM, got %q", task.EndTime)
	}

	kept := Task{StartTime: "9:00 AM", EndTime: "9:15 AM"}
	kept.FillEndTime()
	if kept.EndTime != "9:15 AM" {
		t.Errorf("an existing end time must be kept, got %q", kept.EndTime)
	}

	untimed := Task{}
	if err := untimed.FillEndTime(); err != nil || untimed.EndTime != "" {
		t.Errorf("untimed task should be left alone, got %q %v", untimed.EndTime, err)
	}

	bad := Task{StartTime: "noonish"}
	if err := bad.FillEndTime(); !errors.Is(err, ErrInvalidTask) {
		t.Errorf("expected ErrInvalidTask, got %v", err)
	}
}
