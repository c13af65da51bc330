package mirror

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/harrisonrobin/taskflow/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore stores one document per task, keyed by the task id.
type Firestore struct {
	client *firestore.Client
	coll   *firestore.CollectionRef
}

// NewFirestore connects to the project's database. FIRESTORE_EMULATOR_HOST is honoured.
func NewFirestore(ctx context.Context, projectID, collection string, opts ...option.ClientOption) (*Firestore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore project is not configured")
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create firestore client: %w", err)
	}
	return &Firestore{client: client, coll: client.Collection(collection)}, nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

func (f *Firestore) Get(ctx context.Context, id string) (model.Task, error) {
	snap, err := f.coll.Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return model.Task{}, model.ErrNotFound
		}
		return model.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	var d document
	if err := snap.DataTo(&d); err != nil {
		return model.Task{}, fmt.Errorf("decode task %s: %w", id, err)
	}
	return d.task(snap.Ref.ID), nil
}

func (f *Firestore) FindByExternalID(ctx context.Context, owner, externalID string) ([]model.Task, error) {
	return f.all(ctx, f.coll.Where(FieldOwner, "==", owner).Where(FieldExternalID, "==", externalID))
}

func (f *Firestore) FindByTitle(ctx context.Context, owner, title string) ([]model.Task, error) {
	return f.all(ctx, f.coll.Where(FieldOwner, "==", owner).Where(FieldTitle, "==", title))
}

func (f *Firestore) ListByOwner(ctx context.Context, owner string) ([]model.Task, error) {
	return f.all(ctx, f.coll.Where(FieldOwner, "==", owner))
}

// Put overwrites the document stored under t.ID.
func (f *Firestore) Put(ctx context.Context, t model.Task) error {
	if t.ID == "" {
		return fmt.Errorf("%w: mirror put without id", model.ErrInvalidTask)
	}
	if _, err := f.coll.Doc(t.ID).Set(ctx, toDocument(t)); err != nil {
		return fmt.Errorf("put task %s: %w", t.ID, err)
	}
	return nil
}

// UpdateFields changes only the named fields. A missing document yields model.ErrNotFound.
func (f *Firestore) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if _, err := f.coll.Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return model.ErrNotFound
		}
		return fmt.Errorf("update task %s: %w", id, err)
	}
	return nil
}

// Delete removes the documents in one bulk write.
func (f *Firestore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, f.coll.Doc(id))
	}
	return f.deleteRefs(ctx, refs)
}

func (f *Firestore) DeleteByOwner(ctx context.Context, owner string) (int, error) {
	snaps, err := f.coll.Where(FieldOwner, "==", owner).Documents(ctx).GetAll()
	if err != nil {
		return 0, fmt.Errorf("list tasks of %s: %w", owner, err)
	}
	refs := make([]*firestore.DocumentRef, 0, len(snaps))
	for _, snap := range snaps {
		refs = append(refs, snap.Ref)
	}
	if err := f.deleteRefs(ctx, refs); err != nil {
		return 0, err
	}
	return len(refs), nil
}

func (f *Firestore) deleteRefs(ctx context.Context, refs []*firestore.DocumentRef) error {
	if len(refs) == 0 {
		return nil
	}
	bw := f.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, ref := range refs {
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			return fmt.Errorf("queue delete of %s: %w", ref.ID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("delete %s: %w", refs[i].ID, err)
		}
	}
	return nil
}

func (f *Firestore) all(ctx context.Context, q firestore.Query) ([]model.Task, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var result []model.Task
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query tasks: %w", err)
		}
		var d document
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode task %s: %w", snap.Ref.ID, err)
		}
		result = append(result, d.task(snap.Ref.ID))
	}
	return result, nil
}
