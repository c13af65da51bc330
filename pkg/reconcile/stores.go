package reconcile

import (
	"context"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/model"
)

// TaskSource is the external task list provider, the primary working set.
type TaskSource interface {
	ListTasks(ctx context.Context, owner string) ([]model.Task, error)
	CreateTask(ctx context.Context, t model.Task) (string, error)
	UpdateTask(ctx context.Context, t model.Task) error
	SetCompleted(ctx context.Context, externalID string, completed bool) error
	DeleteTask(ctx context.Context, externalID string) error
	DeleteAll(ctx context.Context) (int, error)
}

// MirrorStore is the shared document store every client writes to.
type MirrorStore interface {
	Get(ctx context.Context, id string) (model.Task, error)
	FindByExternalID(ctx context.Context, owner, externalID string) ([]model.Task, error)
	FindByTitle(ctx context.Context, owner, title string) ([]model.Task, error)
	ListByOwner(ctx context.Context, owner string) ([]model.Task, error)
	Put(ctx context.Context, t model.Task) error
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, ids ...string) error
	DeleteByOwner(ctx context.Context, owner string) (int, error)
}

// LocalCache is the on-device offline copy.
type LocalCache interface {
	Upsert(ctx context.Context, t model.Task) error
	Get(ctx context.Context, id string) (model.Task, error)
	FindByExternalID(ctx context.Context, owner, externalID string) ([]model.Task, error)
	FindSimilar(ctx context.Context, owner, title string, scheduled time.Time) ([]model.Task, error)
	ListByOwner(ctx context.Context, owner string) ([]model.Task, error)
	ListLocalOnly(ctx context.Context, owner string) ([]model.Task, error)
	Delete(ctx context.Context, ids ...string) error
	DeleteByOwner(ctx context.Context, owner string) (int, error)
	CountByStatus(ctx context.Context, owner string) (map[model.Status]int, error)
	// Reset drops every cached record of every owner.
	Reset(ctx context.Context) error
}
