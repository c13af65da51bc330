package taskwarrior

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/model"
)

// ParseExport reads either the JSON array printed by `task export` or the
// one-object-per-line form hooks receive.
func ParseExport(r io.Reader) ([]Task, error) {
	br := bufio.NewReader(r)
	first, err := firstByte(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(br)
	if first == '[' {
		var tasks []Task
		if err := decoder.Decode(&tasks); err != nil {
			return nil, fmt.Errorf("failed to decode task export: %w", err)
		}
		return tasks, nil
	}

	var tasks []Task
	for {
		var task Task
		if err := decoder.Decode(&task); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode task json: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func firstByte(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if b == ' ' || b == '\n' || b == '\r' || b == '\t' {
			continue
		}
		return b, br.UnreadByte()
	}
}

// Importable reports whether the task is still open.
func (t Task) Importable() bool {
	return t.Status == PENDING || t.Status == WAITING
}

// Draft converts the task into an unsaved TaskFlow task for owner. The
// scheduled date wins over the due date; a time other than midnight becomes
// the start time. Annotations are appended to the description.
func (t Task) Draft(owner string, loc *time.Location) model.Task {
	draft := model.Task{
		Title:         t.Description,
		Category:      t.Project,
		Status:        model.PENDING,
		OwnerIdentity: owner,
	}

	when := t.Scheduled
	if when == nil || when.IsZero() {
		when = t.Due
	}
	if when != nil && !when.IsZero() {
		local := when.In(loc)
		y, m, d := local.Date()
		draft.ScheduledDate = time.Date(y, m, d, 0, 0, 0, 0, loc)
		if offset := local.Sub(draft.ScheduledDate); offset > 0 {
			draft.StartTime = model.FormatClock(offset)
		}
	}

	var notes []string
	for _, a := range t.Annotations {
		if a.Description != "" {
			notes = append(notes, a.Description)
		}
	}
	if len(t.Tags) > 0 {
		notes = append(notes, "tags: "+strings.Join(t.Tags, ", "))
	}
	draft.Description = strings.Join(notes, "\n")
	return draft
}
