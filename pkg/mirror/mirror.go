// Package mirror holds the shared document store that every client writes to.
package mirror

import (
	"time"

	"github.com/harrisonrobin/taskflow/pkg/model"
)

// Document field names, used for equality filters and partial updates.
const (
	FieldID            = "id"
	FieldExternalID    = "externalId"
	FieldTitle         = "title"
	FieldDescription   = "description"
	FieldScheduledDate = "scheduledDate"
	FieldStatus        = "status"
	FieldOwner         = "ownerIdentity"
)

type document struct {
	ID              string    `firestore:"id"`
	ExternalID      string    `firestore:"externalId"`
	Title           string    `firestore:"title"`
	Description     string    `firestore:"description"`
	ScheduledDate   time.Time `firestore:"scheduledDate"`
	StartTime       string    `firestore:"startTime"`
	EndTime         string    `firestore:"endTime"`
	Status          string    `firestore:"status"`
	Category        string    `firestore:"category"`
	OwnerIdentity   string    `firestore:"ownerIdentity"`
	AttachmentRef   string    `firestore:"attachmentRef"`
	AttachmentLabel string    `firestore:"attachmentLabel"`
	StorageFileRef  string    `firestore:"storageFileRef"`
	CreatedAt       time.Time `firestore:"createdAt"`
}

func toDocument(t model.Task) document {
	return document{
		ID:              t.ID,
		ExternalID:      t.ExternalID,
		Title:           t.Title,
		Description:     t.Description,
		ScheduledDate:   t.ScheduledDate,
		StartTime:       t.StartTime,
		EndTime:         t.EndTime,
		Status:          string(t.Status),
		Category:        t.Category,
		OwnerIdentity:   t.OwnerIdentity,
		AttachmentRef:   t.AttachmentRef,
		AttachmentLabel: t.AttachmentLabel,
		StorageFileRef:  t.StorageFileRef,
		CreatedAt:       t.CreatedAt,
	}
}

func (d document) task(docID string) model.Task {
	id := d.ID
	if id == "" {
		id = docID
	}
	return model.Task{
		ID:              id,
		ExternalID:      d.ExternalID,
		Title:           d.Title,
		Description:     d.Description,
		ScheduledDate:   d.ScheduledDate,
		StartTime:       d.StartTime,
		EndTime:         d.EndTime,
		Status:          model.ParseStatus(d.Status),
		Category:        d.Category,
		OwnerIdentity:   d.OwnerIdentity,
		AttachmentRef:   d.AttachmentRef,
		AttachmentLabel: d.AttachmentLabel,
		StorageFileRef:  d.StorageFileRef,
		CreatedAt:       d.CreatedAt,
	}
}
