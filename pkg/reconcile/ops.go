package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/harrisonrobin/taskflow/pkg/model"
	"github.com/harrisonrobin/taskflow/pkg/stats"
)

var (
	// ErrNoSource is returned by operations that need the task source when none is configured.
	ErrNoSource = errors.New("task source unavailable")
	// ErrLocalOnly reports a task that was stored but could not reach the task source.
	ErrLocalOnly = errors.New("task kept local-only")
)

// Create stores a new task. It is written to the task source first so the
// mirror copy carries the external id. When the source write fails the task is
// still kept in the mirror and cache as local-only and the error is returned.
func (r *Reconciler) Create(ctx context.Context, draft model.Task) (model.Task, error) {
	if draft.OwnerIdentity == "" {
		return draft, model.ErrNotSignedIn
	}
	if strings.TrimSpace(draft.Title) == "" {
		return draft, fmt.Errorf("%w: title is required", model.ErrInvalidTask)
	}

	t := draft
	t.ID = r.newID()
	t.ExternalID = ""
	t.Status = model.PENDING
	t.CreatedAt = r.now()
	if err := t.FillEndTime(); err != nil {
		return draft, err
	}

	var sourceErr error
	if r.source != nil {
		sourceErr = r.onSource(ctx, func(ctx context.Context) error {
			id, err := r.source.CreateTask(ctx, t)
			t.ExternalID = id
			return err
		})
		if sourceErr != nil {
			log.Printf("task %s kept local-only: %v", t.ID, sourceErr)
		}
	}

	saved, err := r.persist(ctx, t)
	if err != nil {
		return saved, err
	}
	if sourceErr != nil {
		return saved, fmt.Errorf("%w: %w", ErrLocalOnly, sourceErr)
	}
	return saved, nil
}

// Update writes an edited task everywhere. A task the source never saw is
// created there.
func (r *Reconciler) Update(ctx context.Context, t model.Task) (model.Task, error) {
	if t.OwnerIdentity == "" {
		return t, model.ErrNotSignedIn
	}
	if t.ID == "" || strings.TrimSpace(t.Title) == "" {
		return t, fmt.Errorf("%w: id and title are required", model.ErrInvalidTask)
	}

	var sourceErr error
	if r.source != nil {
		sourceErr = r.onSource(ctx, func(ctx context.Context) error {
			if t.ExternalID != "" {
				err := r.source.UpdateTask(ctx, t)
				if !errors.Is(err, model.ErrNotFound) {
					return err
				}
				log.Printf("task %s is gone from the task source, recreating it", t.ExternalID)
			}
			id, err := r.source.CreateTask(ctx, t)
			t.ExternalID = id
			return err
		})
	}

	saved, err := r.persist(ctx, t)
	if err != nil {
		return saved, err
	}
	if sourceErr != nil {
		return saved, fmt.Errorf("update task in source: %w", sourceErr)
	}
	return saved, nil
}

// persist saves to the mirror and then caches the record under the id the
// mirror chose.
func (r *Reconciler) persist(ctx context.Context, t model.Task) (model.Task, error) {
	saved, err := r.Save(ctx, t)
	if err != nil {
		return saved, err
	}
	err = r.onCache(ctx, func(ctx context.Context) error {
		if saved.ID != t.ID {
			if err := r.cache.Delete(ctx, t.ID); err != nil {
				return err
			}
		}
		return r.cache.Upsert(ctx, saved)
	})
	if err != nil {
		return saved, fmt.Errorf("cache task %s: %w", saved.ID, err)
	}
	r.stats.Invalidate(saved.OwnerIdentity)
	return saved, nil
}

// Delete removes a completed task from every store.
func (r *Reconciler) Delete(ctx context.Context, t model.Task) error {
	if t.OwnerIdentity == "" {
		return model.ErrNotSignedIn
	}
	if t.Status != model.COMPLETED {
		return model.ErrNotCompleted
	}

	err := parallel(
		func() error {
			if r.source == nil || t.ExternalID == "" {
				return nil
			}
			return r.onSource(ctx, func(ctx context.Context) error {
				return r.source.DeleteTask(ctx, t.ExternalID)
			})
		},
		func() error {
			return r.onMirror(ctx, func(ctx context.Context) error {
				return r.mirror.Delete(ctx, t.ID)
			})
		},
		func() error {
			return r.onCache(ctx, func(ctx context.Context) error {
				return r.cache.Delete(ctx, t.ID)
			})
		},
	)
	r.recent.Forget(t.ID)
	r.stats.Invalidate(t.OwnerIdentity)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", t.ID, err)
	}
	return nil
}

// StoreResult is one store's share of a ClearAll. Reset is set when the
// store had to be wiped as a whole, in which case Deleted is not known.
type StoreResult struct {
	Deleted int
	Reset   bool
	Err     error
}

// ClearReport tracks each store separately; some may succeed while others fail.
type ClearReport struct {
	Source StoreResult
	Mirror StoreResult
	Cache  StoreResult
}

func (c ClearReport) Err() error {
	return errors.Join(c.Source.Err, c.Mirror.Err, c.Cache.Err)
}

// Partial reports whether at least one store was cleared and at least one failed.
func (c ClearReport) Partial() bool {
	results := []StoreResult{c.Source, c.Mirror, c.Cache}
	var ok, failed bool
	for _, res := range results {
		if res.Err != nil {
			failed = true
		} else {
			ok = true
		}
	}
	return ok && failed
}

// ClearAll deletes all of owner's data from each store independently. When the
// cache cannot delete owner's records it is reset instead.
func (r *Reconciler) ClearAll(ctx context.Context, owner string) (ClearReport, error) {
	var report ClearReport
	if owner == "" {
		return report, model.ErrNotSignedIn
	}

	parallel(
		func() error {
			if r.source == nil {
				return nil
			}
			report.Source.Err = r.onSource(ctx, func(ctx context.Context) error {
				var err error
				report.Source.Deleted, err = r.source.DeleteAll(ctx)
				return err
			})
			return nil
		},
		func() error {
			report.Mirror.Err = r.onMirror(ctx, func(ctx context.Context) error {
				var err error
				report.Mirror.Deleted, err = r.mirror.DeleteByOwner(ctx, owner)
				return err
			})
			return nil
		},
		func() error {
			report.Cache.Err = r.onCache(ctx, func(ctx context.Context) error {
				n, err := r.cache.DeleteByOwner(ctx, owner)
				if err == nil {
					report.Cache.Deleted = n
					return nil
				}
				log.Printf("could not clear cached tasks, resetting the cache: %v", err)
				if resetErr := r.cache.Reset(ctx); resetErr != nil {
					return errors.Join(err, resetErr)
				}
				report.Cache.Reset = true
				return nil
			})
			return nil
		},
	)
	if report.Cache.Reset {
		r.stats.InvalidateAll()
	} else {
		r.stats.Invalidate(owner)
	}
	return report, nil
}

// PushLocalOnly creates every cached task the source has not seen yet and
// reports how many made it.
func (r *Reconciler) PushLocalOnly(ctx context.Context, owner string) (int, error) {
	if owner == "" {
		return 0, model.ErrNotSignedIn
	}
	if r.source == nil {
		return 0, ErrNoSource
	}

	var pending []model.Task
	err := r.onCache(ctx, func(ctx context.Context) error {
		var err error
		pending, err = r.cache.ListLocalOnly(ctx, owner)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("list local-only tasks: %w", err)
	}

	pushed := 0
	var errs []error
	for _, t := range pending {
		err := r.onSource(ctx, func(ctx context.Context) error {
			id, err := r.source.CreateTask(ctx, t)
			t.ExternalID = id
			return err
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("push %s: %w", t.ID, err))
			continue
		}
		r.recent.Forget(t.ID)
		if _, err := r.persist(ctx, t); err != nil {
			errs = append(errs, err)
			continue
		}
		pushed++
	}
	return pushed, errors.Join(errs...)
}

// Stats returns owner's task counts from the local cache, memoised until the
// next write or expiry.
func (r *Reconciler) Stats(ctx context.Context, owner string) (stats.Counts, error) {
	if owner == "" {
		return stats.Counts{}, model.ErrNotSignedIn
	}
	if counts, ok := r.stats.Get(owner); ok {
		return counts, nil
	}

	var byStatus map[model.Status]int
	err := r.onCache(ctx, func(ctx context.Context) error {
		var err error
		byStatus, err = r.cache.CountByStatus(ctx, owner)
		return err
	})
	if err != nil {
		return stats.Counts{}, fmt.Errorf("count tasks: %w", err)
	}

	var counts stats.Counts
	for status, n := range byStatus {
		counts.Total += n
		if status == model.COMPLETED {
			counts.Completed += n
		} else {
			counts.Pending += n
		}
	}
	r.stats.Put(owner, counts)
	return counts, nil
}
