package reconcile

import (
	"context"
	"log"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/model"
)

// HasConflict reports whether candidate's time range overlaps another task of
// the same owner on the same date. Pairs with unparseable times are skipped.
func HasConflict(candidate model.Task, existing []model.Task) bool {
	aStart, aEnd, ok := clockRange(candidate)
	if !ok {
		return false
	}
	for _, e := range existing {
		if e.ID == candidate.ID || e.OwnerIdentity != candidate.OwnerIdentity {
			continue
		}
		if e.ScheduledDate.IsZero() || candidate.ScheduledDate.IsZero() || !model.SameDay(candidate.ScheduledDate, e.ScheduledDate) {
			continue
		}
		bStart, bEnd, ok := clockRange(e)
		if !ok {
			continue
		}
		if overlaps(aStart, aEnd, bStart, bEnd) {
			return true
		}
	}
	return false
}

// overlaps is true when A starts inside B, ends inside B, or contains B.
func overlaps(aStart, aEnd, bStart, bEnd time.Duration) bool {
	startsInside := aStart >= bStart && aStart < bEnd
	endsInside := aEnd > bStart && aEnd <= bEnd
	contains := aStart <= bStart && aEnd >= bEnd
	return startsInside || endsInside || contains
}

func clockRange(t model.Task) (start, end time.Duration, ok bool) {
	if t.StartTime == "" || t.EndTime == "" {
		return 0, 0, false
	}
	start, err := model.ParseClock(t.StartTime)
	if err != nil {
		log.Printf("task %s: %v", t.ID, err)
		return 0, 0, false
	}
	end, err = model.ParseClock(t.EndTime)
	if err != nil {
		log.Printf("task %s: %v", t.ID, err)
		return 0, 0, false
	}
	return start, end, true
}

// CheckConflict tests candidate against the owner's cached tasks. A candidate
// with only a start time is checked with the default duration. Any read error
// counts as no conflict.
func (r *Reconciler) CheckConflict(ctx context.Context, candidate model.Task) bool {
	if candidate.OwnerIdentity == "" {
		return false
	}
	var existing []model.Task
	err := r.onCache(ctx, func(ctx context.Context) error {
		var err error
		existing, err = r.cache.ListByOwner(ctx, candidate.OwnerIdentity)
		return err
	})
	if err != nil {
		log.Printf("conflict check skipped: %v", err)
		return false
	}
	if err := candidate.FillEndTime(); err != nil {
		log.Printf("conflict check skipped: %v", err)
		return false
	}
	return HasConflict(candidate, existing)
}
