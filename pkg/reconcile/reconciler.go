// Package reconcile keeps the task source, the shared mirror and the local
// cache in agreement, and collapses the duplicates concurrent writers leave behind.
package reconcile

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/taskflow/pkg/debounce"
	"github.com/harrisonrobin/taskflow/pkg/model"
	"github.com/harrisonrobin/taskflow/pkg/stats"
	"github.com/harrisonrobin/taskflow/pkg/worker"
)

const (
	DefaultDebounce         = time.Second
	DefaultSimilarityWindow = 24 * time.Hour
	DefaultStatsTTL         = 5 * time.Minute

	queueDepth = 64
)

type Options struct {
	// Source may be nil, in which case only the mirror and cache are used.
	Source TaskSource
	Mirror MirrorStore
	Cache  LocalCache

	Now              func() time.Time
	NewID            func() string
	Debounce         time.Duration
	SimilarityWindow time.Duration
	StatsTTL         time.Duration
}

// Reconciler coordinates the three stores. Each store is driven by its own
// worker sequence: calls to one store are serialised, different stores run
// independently.
type Reconciler struct {
	source TaskSource
	mirror MirrorStore
	cache  LocalCache

	now        func() time.Time
	newID      func() string
	similarity time.Duration

	recent *debounce.Window
	stats  *stats.Cache

	sourceSeq *worker.Sequence
	mirrorSeq *worker.Sequence
	cacheSeq  *worker.Sequence
}

func New(opts Options) *Reconciler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.SimilarityWindow <= 0 {
		opts.SimilarityWindow = DefaultSimilarityWindow
	}
	if opts.StatsTTL <= 0 {
		opts.StatsTTL = DefaultStatsTTL
	}

	return &Reconciler{
		source:     opts.Source,
		mirror:     opts.Mirror,
		cache:      opts.Cache,
		now:        opts.Now,
		newID:      opts.NewID,
		similarity: opts.SimilarityWindow,
		recent:     debounce.New(opts.Debounce, opts.Now),
		stats:      stats.NewCache(opts.StatsTTL, opts.Now),
		sourceSeq:  worker.NewSequence("source", queueDepth),
		mirrorSeq:  worker.NewSequence("mirror", queueDepth),
		cacheSeq:   worker.NewSequence("cache", queueDepth),
	}
}

// Flush waits for background work queued so far, such as cache population.
func (r *Reconciler) Flush(ctx context.Context) error {
	return errors.Join(r.sourceSeq.Flush(ctx), r.mirrorSeq.Flush(ctx), r.cacheSeq.Flush(ctx))
}

// Close drains every sequence. The stores themselves are not closed.
func (r *Reconciler) Close() {
	r.sourceSeq.Close()
	r.mirrorSeq.Close()
	r.cacheSeq.Close()
}

func (r *Reconciler) onSource(ctx context.Context, fn func(context.Context) error) error {
	_, err := worker.Do(ctx, r.sourceSeq, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func (r *Reconciler) onMirror(ctx context.Context, fn func(context.Context) error) error {
	_, err := worker.Do(ctx, r.mirrorSeq, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func (r *Reconciler) onCache(ctx context.Context, fn func(context.Context) error) error {
	_, err := worker.Do(ctx, r.cacheSeq, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// parallel runs fns concurrently and joins their errors.
func parallel(fns ...func() error) error {
	errs := make([]error, len(fns))
	var wg sync.WaitGroup
	for i, fn := range fns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = fn()
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// orderCandidates puts the most recently created record first, ties broken by id.
func orderCandidates(list []model.Task) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

// sortTasks orders by date, then start time, then title.
func sortTasks(list []model.Task) {
	sort.SliceStable(list, func(i, j int) bool {
		di, dj := dayKey(list[i].ScheduledDate), dayKey(list[j].ScheduledDate)
		if di != dj {
			return di < dj
		}
		si, okI := startOffset(list[i])
		sj, okJ := startOffset(list[j])
		if okI != okJ {
			return okI
		}
		if si != sj {
			return si < sj
		}
		return list[i].Title < list[j].Title
	})
}

func startOffset(t model.Task) (time.Duration, bool) {
	if t.StartTime == "" {
		return 0, false
	}
	d, err := model.ParseClock(t.StartTime)
	return d, err == nil
}

func dayKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format("2006-01-02")
}

// similar reports whether a and b are scheduled within the similarity window
// of each other. Start moments are compared when both tasks have one,
// otherwise their dates.
func (r *Reconciler) similar(a, b model.Task) bool {
	if a.ScheduledDate.IsZero() || b.ScheduledDate.IsZero() {
		return false
	}
	at, bt := a.ScheduledDate, b.ScheduledDate
	if a.StartTime != "" && b.StartTime != "" {
		as, errA := a.StartMoment()
		bs, errB := b.StartMoment()
		if errA == nil && errB == nil {
			at, bt = as, bs
		}
	}
	d := at.Sub(bt)
	if d < 0 {
		d = -d
	}
	return d < r.similarity
}
