package util

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/model"
	"google.golang.org/api/tasks/v1"
)

const (
	NEEDS_UPDATE_TITLE  = "title"
	NEEDS_UPDATE_NOTES  = "notes"
	NEEDS_UPDATE_STATUS = "status"
	NEEDS_UPDATE_DUE    = "due"

	// Google Tasks keeps only the date part of "due".
	dueLayout = "2006-01-02T15:04:05.000Z"

	StatusNeedsAction = "needsAction"
	StatusCompleted   = "completed"
)

var (
	rangeTitleRe  = regexp.MustCompile(`^(.*) \((\d{1,2}:\d{2} [AP]M) - (\d{1,2}:\d{2} [AP]M)\)$`)
	singleTitleRe = regexp.MustCompile(`^(.*) \((\d{1,2}:\d{2} [AP]M)\)$`)
	startNotesRe  = regexp.MustCompile(`Start Time: (\d{1,2}:\d{2} [AP]M)`)
	endNotesRe    = regexp.MustCompile(`End Time: (\d{1,2}:\d{2} [AP]M)`)
)

// PackTitle appends the time range to a title: "Title (9:00 AM - 10:00 AM)".
func PackTitle(title, startTime, endTime string) string {
	switch {
	case startTime != "" && endTime != "":
		return fmt.Sprintf("%s (%s - %s)", title, startTime, endTime)
	case startTime != "":
		return fmt.Sprintf("%s (%s)", title, startTime)
	default:
		return title
	}
}

// PackNotes prefaces the description with the "Start Time:/End Time:" header.
func PackNotes(description, startTime, endTime string) string {
	if startTime == "" {
		return description
	}
	var b strings.Builder
	b.WriteString("Start Time: " + startTime)
	if endTime != "" {
		b.WriteString("\nEnd Time: " + endTime)
	}
	b.WriteString("\n\n")
	b.WriteString(description)
	return b.String()
}

// UnpackTitle splits a packed title into its plain title and time range.
func UnpackTitle(packed string) (title, startTime, endTime string) {
	if m := rangeTitleRe.FindStringSubmatch(packed); m != nil {
		return m[1], m[2], m[3]
	}
	if m := singleTitleRe.FindStringSubmatch(packed); m != nil {
		return m[1], m[2], ""
	}
	return packed, "", ""
}

// UnpackNotes strips the time header from notes. Times found in the header are
// returned so they can fill gaps the title left.
func UnpackNotes(notes string) (description, startTime, endTime string) {
	if m := startNotesRe.FindStringSubmatch(notes); m != nil {
		startTime = m[1]
	}
	if m := endNotesRe.FindStringSubmatch(notes); m != nil {
		endTime = m[1]
	}
	if !strings.HasPrefix(notes, "Start Time: ") {
		return notes, startTime, endTime
	}
	if i := strings.Index(notes, "\n\n"); i != -1 {
		return notes[i+2:], startTime, endTime
	}
	return "", startTime, endTime
}

// FormatDue renders the scheduled date in the form the Tasks API stores.
func FormatDue(day time.Time) string {
	if day.IsZero() {
		return ""
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Format(dueLayout)
}

// ParseDue reads a due timestamp back into a local calendar date.
func ParseDue(due string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, due)
	if err != nil {
		return time.Time{}, fmt.Errorf("could not parse due %q: %w", due, err)
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local), nil
}

// ConvertTaskToGoogleTask packs a task record into the shape the Tasks API accepts.
func ConvertTaskToGoogleTask(task *model.Task) (*tasks.Task, error) {
	if task == nil {
		return nil, fmt.Errorf("could not convert nil Task")
	}
	if strings.TrimSpace(task.Title) == "" {
		return nil, fmt.Errorf("%w: task %s has no title", model.ErrInvalidTask, task.ID)
	}

	gt := &tasks.Task{
		Id:     task.ExternalID,
		Title:  PackTitle(task.Title, task.StartTime, task.EndTime),
		Notes:  PackNotes(task.Description, task.StartTime, task.EndTime),
		Due:    FormatDue(task.ScheduledDate),
		Status: StatusNeedsAction,
	}
	if task.Status == model.COMPLETED {
		gt.Status = StatusCompleted
	}
	return gt, nil
}

// ConvertGoogleTask unpacks a Tasks API item. The returned record has no ID;
// the caller assigns canonical identity.
func ConvertGoogleTask(gt *tasks.Task, owner string) model.Task {
	title, start, end := UnpackTitle(gt.Title)
	description, notesStart, notesEnd := UnpackNotes(gt.Notes)
	if start == "" {
		start = notesStart
	}
	if end == "" {
		end = notesEnd
	}

	task := model.Task{
		ExternalID:    gt.Id,
		Title:         title,
		Description:   description,
		StartTime:     start,
		EndTime:       end,
		Status:        model.PENDING,
		OwnerIdentity: owner,
	}
	if gt.Status == StatusCompleted || (gt.Completed != nil && *gt.Completed != "") {
		task.Status = model.COMPLETED
	}

	if gt.Due != "" {
		day, err := ParseDue(gt.Due)
		if err != nil {
			log.Printf("task %s: %v", gt.Id, err)
		} else {
			task.ScheduledDate = day
		}
	}
	if start != "" && end == "" {
		// a lone start time gets the default one hour slot
		if offset, err := model.ParseClock(start); err == nil {
			task.EndTime = model.FormatClock(offset + time.Hour)
		}
	}
	return task
}

// TaskNeedsUpdate returns a patch holding only the fields of target that differ
// from existing, or nil when nothing changed.
func TaskNeedsUpdate(existing, target *tasks.Task) *tasks.Task {
	patch := &tasks.Task{}
	var changed []string

	if existing.Title != target.Title {
		patch.Title = target.Title
		changed = append(changed, NEEDS_UPDATE_TITLE)
	}
	if existing.Notes != target.Notes {
		patch.Notes = target.Notes
		if target.Notes == "" {
			patch.ForceSendFields = append(patch.ForceSendFields, "Notes")
		}
		changed = append(changed, NEEDS_UPDATE_NOTES)
	}
	if !sameDueDate(existing.Due, target.Due) {
		patch.Due = target.Due
		if target.Due == "" {
			patch.NullFields = append(patch.NullFields, "Due")
		}
		changed = append(changed, NEEDS_UPDATE_DUE)
	}
	if existing.Status != target.Status {
		patch.Status = target.Status
		if target.Status == StatusNeedsAction {
			patch.NullFields = append(patch.NullFields, "Completed")
		}
		changed = append(changed, NEEDS_UPDATE_STATUS)
	}

	if len(changed) == 0 {
		return nil
	}
	return patch
}

func sameDueDate(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	da, errA := ParseDue(a)
	db, errB := ParseDue(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return da.Equal(db)
}
