package model

import (
	"strings"
	"time"
)

// Status is the persisted lifecycle state of a task.
type Status string

const (
	PENDING     Status = "PENDING"
	COMPLETED   Status = "COMPLETED"
	IN_PROGRESS Status = "IN_PROGRESS"
	// OVERDUE is only ever derived for display, see Task.DisplayStatus.
	OVERDUE Status = "OVERDUE"
)

// ParseStatus normalises a stored status string. Unknown values read as PENDING.
func ParseStatus(s string) Status {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case COMPLETED:
		return COMPLETED
	case IN_PROGRESS:
		return IN_PROGRESS
	default:
		return PENDING
	}
}

// Task is the single record shared by the task source, the mirror and the local cache.
type Task struct {
	ID              string
	ExternalID      string
	Title           string
	Description     string
	ScheduledDate   time.Time
	StartTime       string
	EndTime         string
	Status          Status
	Category        string
	OwnerIdentity   string
	AttachmentRef   string
	AttachmentLabel string
	StorageFileRef  string
	CreatedAt       time.Time
}

// IsLocalOnly reports whether the task has never reached the task source.
func (t Task) IsLocalOnly() bool {
	return t.ExternalID == ""
}

// SameDay reports whether two moments fall on the same calendar date in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
