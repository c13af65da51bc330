package model

import (
	"fmt"
	"strings"
	"time"
)

var clockLayouts = []string{"3:04 PM", "3:04PM", "15:04"}

// ParseClock parses a time-of-day string such as "9:30 AM" or "21:30" into an
// offset from midnight. Any date component is discarded.
func ParseClock(s string) (time.Duration, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty time of day")
	}
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
		}
	}
	return 0, fmt.Errorf("unrecognised time of day %q", s)
}

// FormatClock renders an offset from midnight in the "h:mm AM" form used in task titles.
func FormatClock(d time.Duration) string {
	d = d % (24 * time.Hour)
	if d < 0 {
		d += 24 * time.Hour
	}
	return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Add(d).Format("3:04 PM")
}

// At combines the calendar date of day with a time-of-day string.
func At(day time.Time, clock string) (time.Time, error) {
	offset, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, day.Location()).Add(offset), nil
}

// DefaultDuration is the length given to a task that has a start but no end.
const DefaultDuration = time.Hour

// FillEndTime sets the end time to DefaultDuration after the start when only
// the start is set.
func (t *Task) FillEndTime() error {
	if t.StartTime == "" || t.EndTime != "" {
		return nil
	}
	start, err := ParseClock(t.StartTime)
	if err != nil {
		return fmt.Errorf("%w: start time: %v", ErrInvalidTask, err)
	}
	t.EndTime = FormatClock(start + DefaultDuration)
	return nil
}

// StartMoment returns the scheduled date at the task's start time.
func (t Task) StartMoment() (time.Time, error) {
	if t.ScheduledDate.IsZero() {
		return time.Time{}, fmt.Errorf("task %s has no scheduled date", t.ID)
	}
	return At(t.ScheduledDate, t.StartTime)
}

// DisplayStatus derives the status shown to the user. A pending task whose end
// (or, lacking one, start) has passed is OVERDUE; tasks without times become
// overdue once their scheduled day is over.
func (t Task) DisplayStatus(now time.Time) Status {
	if t.Status != PENDING || t.ScheduledDate.IsZero() {
		return t.Status
	}
	deadline, err := At(t.ScheduledDate, t.EndTime)
	if err != nil {
		deadline, err = At(t.ScheduledDate, t.StartTime)
	}
	if err != nil {
		y, m, d := t.ScheduledDate.Date()
		deadline = time.Date(y, m, d+1, 0, 0, 0, 0, t.ScheduledDate.Location())
	}
	if deadline.Before(now) {
		return OVERDUE
	}
	return PENDING
}
