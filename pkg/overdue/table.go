// Package overdue remembers when pending tasks start so a later run can remind about them.
package overdue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/config"
	"github.com/harrisonrobin/taskflow/pkg/model"
)

const tableFile = "reminders.json"

type Entry struct {
	TaskID string    `json:"task_id"`
	Title  string    `json:"title"`
	Due    time.Time `json:"due"`
}

type Table struct {
	Entries map[string]Entry `json:"entries"`
	Path    string           `json:"-"`
	dirty   bool
}

// NewTable opens the table in the configuration directory.
func NewTable() (*Table, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return OpenTable(filepath.Join(dir, tableFile))
}

func OpenTable(path string) (*Table, error) {
	t := &Table{
		Path:    path,
		Entries: make(map[string]Entry),
	}

	if _, err := os.Stat(path); err == nil {
		if err := t.Load(); err != nil {
			return nil, err
		}
	}
	if t.Entries == nil {
		t.Entries = make(map[string]Entry)
	}
	return t, nil
}

func (t *Table) Load() error {
	f, err := os.Open(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(t)
}

func (t *Table) Save() error {
	if !t.dirty {
		return nil
	}
	dir := filepath.Dir(t.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	f, err := os.Create(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	err = encoder.Encode(t)
	if err == nil {
		t.dirty = false
	}
	return err
}

// Update tracks task if it is pending and starts after now. Otherwise it is removed.
func (t *Table) Update(task model.Task, now time.Time) {
	due, err := task.StartMoment()
	if err != nil || task.Status == model.COMPLETED || !due.After(now) {
		t.Remove(task.ID)
		return
	}

	old, exists := t.Entries[task.ID]
	if !exists || !old.Due.Equal(due) || old.Title != task.Title {
		t.Entries[task.ID] = Entry{
			TaskID: task.ID,
			Title:  task.Title,
			Due:    due,
		}
		t.dirty = true
	}
}

// Refresh updates every task and drops entries for tasks that no longer exist.
func (t *Table) Refresh(tasks []model.Task, now time.Time) {
	present := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		present[task.ID] = true
		t.Update(task, now)
	}
	for id := range t.Entries {
		if !present[id] {
			t.Remove(id)
		}
	}
}

func (t *Table) Remove(id string) {
	if _, exists := t.Entries[id]; exists {
		delete(t.Entries, id)
		t.dirty = true
	}
}

// Sweep returns entries that have come due (Due <= now), earliest first, and removes them.
func (t *Table) Sweep(now time.Time) []Entry {
	var swept []Entry
	for id, entry := range t.Entries {
		if !entry.Due.After(now) {
			swept = append(swept, entry)
			delete(t.Entries, id)
			t.dirty = true
		}
	}
	sort.Slice(swept, func(i, j int) bool { return swept[i].Due.Before(swept[j].Due) })
	return swept
}
