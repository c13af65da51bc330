package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/harrisonrobin/taskflow/pkg/mirror"
	"github.com/harrisonrobin/taskflow/pkg/model"
)

// Save writes t to the mirror after folding it into any existing copy of the
// same task. The returned record carries the id it was stored under.
//
// Copies are found by external id first, then by title with a scheduled date
// inside the similarity window. A second save of the same id within the
// debounce window is reported as done without touching the store.
func (r *Reconciler) Save(ctx context.Context, t model.Task) (model.Task, error) {
	if t.OwnerIdentity == "" {
		return t, model.ErrNotSignedIn
	}
	if t.ID == "" {
		t.ID = r.newID()
	}
	if r.recent.Recent(t.ID) {
		return t, nil
	}

	var saved model.Task
	err := r.onMirror(ctx, func(ctx context.Context) error {
		var err error
		saved, err = r.saveDeduped(ctx, t)
		return err
	})
	if err != nil {
		r.recent.Forget(t.ID)
		return t, fmt.Errorf("save task %s: %w", t.ID, err)
	}
	r.stats.Invalidate(t.OwnerIdentity)
	return saved, nil
}

func (r *Reconciler) saveDeduped(ctx context.Context, t model.Task) (model.Task, error) {
	if t.ExternalID != "" {
		matches, err := r.mirror.FindByExternalID(ctx, t.OwnerIdentity, t.ExternalID)
		if err != nil {
			log.Printf("lookup by external id %s failed, saving directly: %v", t.ExternalID, err)
			return t, r.mirror.Put(ctx, t)
		}
		if len(matches) > 0 {
			orderCandidates(matches)
			t = adopt(t, matches[0])
			r.deleteDuplicates(ctx, matches[1:])
			return t, r.mirror.Put(ctx, t)
		}
	}

	if t.Title != "" {
		matches, err := r.mirror.FindByTitle(ctx, t.OwnerIdentity, t.Title)
		if err != nil {
			log.Printf("lookup by title failed, saving directly: %v", err)
			return t, r.mirror.Put(ctx, t)
		}
		if i, ok := r.selectSimilar(t, matches); ok {
			t = adopt(t, matches[i])
			r.deleteDuplicates(ctx, append(matches[:i:i], matches[i+1:]...))
		}
	}
	return t, r.mirror.Put(ctx, t)
}

// selectSimilar picks the title match that is the same task as t: one sharing
// its id or external id, else the first scheduled inside the similarity window.
// matches is reordered most recent first.
func (r *Reconciler) selectSimilar(t model.Task, matches []model.Task) (int, bool) {
	orderCandidates(matches)
	if len(matches) == 1 {
		return 0, r.similar(t, matches[0])
	}
	for i, m := range matches {
		if m.ID == t.ID || (t.ExternalID != "" && m.ExternalID == t.ExternalID) {
			return i, true
		}
	}
	for i, m := range matches {
		if r.similar(t, m) {
			return i, true
		}
	}
	return 0, false
}

// adopt moves t onto existing's identity.
func adopt(t, existing model.Task) model.Task {
	t.ID = existing.ID
	if t.ExternalID == "" {
		t.ExternalID = existing.ExternalID
	}
	if !existing.CreatedAt.IsZero() {
		t.CreatedAt = existing.CreatedAt
	}
	return t
}

func (r *Reconciler) deleteDuplicates(ctx context.Context, dups []model.Task) {
	if len(dups) == 0 {
		return
	}
	ids := make([]string, 0, len(dups))
	for _, d := range dups {
		ids = append(ids, d.ID)
	}
	if err := r.mirror.Delete(ctx, ids...); err != nil {
		log.Printf("could not delete duplicates %v: %v", ids, err)
		return
	}
	log.Printf("deleted duplicate tasks %v", ids)
}

// UpdateStatus marks ref completed or pending. Only the status field of the
// mirror copy is written; a missing mirror copy is recreated from ref. The
// cache copy is found by id or, failing that, by title and date.
func (r *Reconciler) UpdateStatus(ctx context.Context, ref model.Task, completed bool) error {
	if ref.OwnerIdentity == "" {
		return model.ErrNotSignedIn
	}
	if ref.ID == "" {
		return fmt.Errorf("%w: status update without id", model.ErrInvalidTask)
	}
	if r.recent.Recent(ref.ID) {
		return nil
	}

	ref.Status = model.PENDING
	if completed {
		ref.Status = model.COMPLETED
	}

	err := parallel(
		func() error {
			return r.onMirror(ctx, func(ctx context.Context) error {
				err := r.mirror.UpdateFields(ctx, ref.ID, map[string]any{mirror.FieldStatus: string(ref.Status)})
				if errors.Is(err, model.ErrNotFound) {
					log.Printf("task %s missing from mirror, recreating it", ref.ID)
					return r.mirror.Put(ctx, ref)
				}
				return err
			})
		},
		func() error {
			if r.source == nil || ref.ExternalID == "" {
				return nil
			}
			return r.onSource(ctx, func(ctx context.Context) error {
				err := r.source.SetCompleted(ctx, ref.ExternalID, completed)
				if errors.Is(err, model.ErrNotFound) {
					log.Printf("task %s is gone from the task source", ref.ExternalID)
					return nil
				}
				return err
			})
		},
		func() error {
			return r.onCache(ctx, func(ctx context.Context) error {
				return r.cacheStatus(ctx, ref)
			})
		},
	)
	r.stats.Invalidate(ref.OwnerIdentity)
	if err != nil {
		r.recent.Forget(ref.ID)
		return fmt.Errorf("update status of %s: %w", ref.ID, err)
	}
	return nil
}

func (r *Reconciler) cacheStatus(ctx context.Context, ref model.Task) error {
	existing, err := r.cache.Get(ctx, ref.ID)
	if err == nil {
		existing.Status = ref.Status
		return r.cache.Upsert(ctx, existing)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return err
	}

	similar, err := r.cache.FindSimilar(ctx, ref.OwnerIdentity, ref.Title, ref.ScheduledDate)
	if err != nil {
		return err
	}
	if len(similar) == 0 {
		return r.cache.Upsert(ctx, ref)
	}

	keep := similar[0]
	keep.Status = ref.Status
	if err := r.cache.Upsert(ctx, keep); err != nil {
		return err
	}
	if len(similar) > 1 {
		extra := make([]string, 0, len(similar)-1)
		for _, t := range similar[1:] {
			extra = append(extra, t.ID)
		}
		log.Printf("removing %d cached duplicates of %q", len(extra), ref.Title)
		return r.cache.Delete(ctx, extra...)
	}
	return nil
}
