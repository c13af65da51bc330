package reconcile

import (
	"context"
	"log"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/model"
)

// LoadTasks returns owner's tasks from the first store that has any: the task
// source, then the mirror, then the local cache. A successful source read is
// written through to the cache in the background. No tasks anywhere is an empty
// result, not an error.
func (r *Reconciler) LoadTasks(ctx context.Context, owner string) ([]model.Task, error) {
	if owner == "" {
		return nil, model.ErrNotSignedIn
	}

	if list := r.loadFromSource(ctx, owner); len(list) > 0 {
		return list, nil
	}
	if list := r.loadFromMirror(ctx, owner); len(list) > 0 {
		return list, nil
	}

	var list []model.Task
	err := r.onCache(ctx, func(ctx context.Context) error {
		var err error
		list, err = r.cache.ListByOwner(ctx, owner)
		return err
	})
	if err != nil {
		log.Printf("local cache unavailable: %v", err)
		return []model.Task{}, nil
	}
	if list == nil {
		list = []model.Task{}
	}
	return list, nil
}

// TasksOn returns owner's tasks scheduled on day, ordered by start time.
func (r *Reconciler) TasksOn(ctx context.Context, owner string, day time.Time) ([]model.Task, error) {
	all, err := r.LoadTasks(ctx, owner)
	if err != nil {
		return nil, err
	}
	var result []model.Task
	for _, t := range all {
		if !t.ScheduledDate.IsZero() && model.SameDay(day, t.ScheduledDate) {
			result = append(result, t)
		}
	}
	sortTasks(result)
	return result, nil
}

func (r *Reconciler) loadFromSource(ctx context.Context, owner string) []model.Task {
	if r.source == nil {
		return nil
	}

	var remote []model.Task
	err := r.onSource(ctx, func(ctx context.Context) error {
		var err error
		remote, err = r.source.ListTasks(ctx, owner)
		return err
	})
	if err != nil {
		log.Printf("task source unavailable, trying mirror: %v", err)
		return nil
	}
	if len(remote) == 0 {
		return nil
	}

	var unknown []int
	if err := r.onCache(ctx, func(ctx context.Context) error {
		unknown = r.identityFromCache(ctx, owner, remote)
		return nil
	}); err != nil {
		return nil
	}
	if len(unknown) > 0 {
		if err := r.onMirror(ctx, func(ctx context.Context) error {
			r.identityFromMirror(ctx, owner, remote, unknown)
			return nil
		}); err != nil {
			return nil
		}
	}
	sortTasks(remote)

	populate := append([]model.Task(nil), remote...)
	err = r.cacheSeq.Go(func() {
		ctx := context.Background()
		for _, t := range populate {
			if err := r.cache.Upsert(ctx, t); err != nil {
				log.Printf("could not cache task %s: %v", t.ID, err)
			}
		}
		r.stats.Invalidate(owner)
	})
	if err != nil {
		log.Printf("could not queue cache population: %v", err)
	}
	return remote
}

// identityFromCache gives source records the id they already carry in the
// cache, so a task keeps one id across loads. Fields the source cannot hold
// are carried over from the cached copy. It returns the indexes of records the
// cache does not know.
func (r *Reconciler) identityFromCache(ctx context.Context, owner string, remote []model.Task) []int {
	var unknown []int
	for i := range remote {
		t := &remote[i]
		t.OwnerIdentity = owner

		cached, err := r.cache.FindByExternalID(ctx, owner, t.ExternalID)
		if err != nil {
			log.Printf("cache lookup for %s failed: %v", t.ExternalID, err)
		}
		if len(cached) == 0 {
			unknown = append(unknown, i)
			continue
		}
		carryOver(t, cached[0])
	}
	return unknown
}

// identityFromMirror resolves the records the cache did not know against the
// mirror, which another device may have written first. Records neither store
// knows get a fresh id.
func (r *Reconciler) identityFromMirror(ctx context.Context, owner string, remote []model.Task, unknown []int) {
	for _, i := range unknown {
		t := &remote[i]
		matches, err := r.mirror.FindByExternalID(ctx, owner, t.ExternalID)
		if err != nil {
			log.Printf("mirror lookup for %s failed: %v", t.ExternalID, err)
		}
		if len(matches) == 0 {
			t.ID = r.newID()
			t.CreatedAt = r.now()
			continue
		}
		orderCandidates(matches)
		carryOver(t, matches[0])
	}
}

func carryOver(t *model.Task, known model.Task) {
	t.ID = known.ID
	t.CreatedAt = known.CreatedAt
	t.Category = known.Category
	t.AttachmentRef = known.AttachmentRef
	t.AttachmentLabel = known.AttachmentLabel
	t.StorageFileRef = known.StorageFileRef
	if t.Status == model.PENDING && known.Status == model.IN_PROGRESS {
		t.Status = model.IN_PROGRESS
	}
}

func (r *Reconciler) loadFromMirror(ctx context.Context, owner string) []model.Task {
	var list []model.Task
	err := r.onMirror(ctx, func(ctx context.Context) error {
		all, err := r.mirror.ListByOwner(ctx, owner)
		if err != nil {
			return err
		}
		list = r.collapse(ctx, all)
		return nil
	})
	if err != nil {
		log.Printf("mirror unavailable, trying local cache: %v", err)
		return nil
	}
	sortTasks(list)
	return list
}

// collapse keeps one record per (title, date), preferring the copy the task
// source knows about, and deletes the rest from the mirror.
func (r *Reconciler) collapse(ctx context.Context, all []model.Task) []model.Task {
	type key struct{ title, day string }
	groups := make(map[key][]model.Task)
	var order []key
	for _, t := range all {
		k := key{t.Title, dayKey(t.ScheduledDate)}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], t)
	}

	result := make([]model.Task, 0, len(order))
	var redundant []string
	for _, k := range order {
		group := groups[k]
		orderCandidates(group)
		keep := 0
		for i, t := range group {
			if t.ExternalID != "" {
				keep = i
				break
			}
		}
		result = append(result, group[keep])
		for i, t := range group {
			if i != keep {
				redundant = append(redundant, t.ID)
			}
		}
	}

	if len(redundant) > 0 {
		if err := r.mirror.Delete(ctx, redundant...); err != nil {
			log.Printf("could not delete %d duplicate tasks: %v", len(redundant), err)
		} else {
			log.Printf("deleted %d duplicate tasks", len(redundant))
		}
	}
	return result
}
