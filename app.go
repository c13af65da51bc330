package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/harrisonrobin/taskflow/pkg/auth"
	"github.com/harrisonrobin/taskflow/pkg/cache"
	"github.com/harrisonrobin/taskflow/pkg/config"
	"github.com/harrisonrobin/taskflow/pkg/google"
	"github.com/harrisonrobin/taskflow/pkg/mirror"
	"github.com/harrisonrobin/taskflow/pkg/model"
	"github.com/harrisonrobin/taskflow/pkg/reconcile"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

// app is everything a signed-in command needs.
type app struct {
	cfg   *config.Config
	owner string
	ts    oauth2.TokenSource
	rec   *reconcile.Reconciler

	store     *cache.Store
	firestore *mirror.Firestore
}

// openApp wires the stores together for the signed-in user. Priority for the
// task list is flag > config > default.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("could not load config, using defaults: %v", err)
		cfg = config.Default()
	}
	if listOverride != "" {
		cfg.TaskList = listOverride
	}

	ts, err := auth.TokenSource(ctx, auth.Scopes)
	if err != nil {
		return nil, err
	}

	owner, err := auth.Identity(ctx, ts)
	if err != nil {
		if cfg.Account == "" || errors.Is(err, model.ErrNotSignedIn) {
			return nil, err
		}
		log.Printf("identity provider unreachable, continuing as %s: %v", cfg.Account, err)
		owner = cfg.Account
		offline = true
	}

	a := &app{cfg: cfg, owner: owner, ts: ts}

	cachePath, err := cfg.ResolveCachePath()
	if err != nil {
		return nil, err
	}
	db, err := cache.Open(cachePath)
	if err != nil {
		return nil, fmt.Errorf("could not open local cache: %w", err)
	}
	a.store = cache.NewStore(db)

	var mirrorStore reconcile.MirrorStore
	if cfg.FirestoreProject != "" {
		a.firestore, err = mirror.NewFirestore(ctx, cfg.FirestoreProject, cfg.Collection, option.WithTokenSource(ts))
		if err != nil {
			a.store.Close()
			return nil, err
		}
		mirrorStore = a.firestore
	} else {
		log.Printf("firestore_project is not set, mirror is kept in memory")
		mirrorStore = mirror.NewMemory()
	}

	opts := reconcile.Options{
		Mirror:           mirrorStore,
		Cache:            a.store,
		Debounce:         cfg.DebounceWindow(),
		SimilarityWindow: cfg.SimilarityTolerance(),
		StatsTTL:         cfg.StatsExpiry(),
	}
	if !offline {
		source, err := google.NewClient(ctx, ts, cfg.TaskList, cfg.RetryDelay())
		if err != nil {
			log.Printf("Google Tasks unavailable: %v", err)
		} else {
			opts.Source = source
		}
	}
	a.rec = reconcile.New(opts)
	return a, nil
}

// Close waits for background writes and releases the stores.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.rec.Flush(ctx); err != nil {
		log.Printf("background work did not finish: %v", err)
	}
	a.rec.Close()
	if err := a.store.Close(); err != nil {
		log.Printf("could not close local cache: %v", err)
	}
	if a.firestore != nil {
		a.firestore.Close()
	}
}

// findTask resolves ref against tasks by id, unique id prefix, or external id.
func findTask(tasks []model.Task, ref string) (model.Task, error) {
	var matches []model.Task
	for _, t := range tasks {
		if t.ID == ref || (t.ExternalID != "" && t.ExternalID == ref) {
			return t, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return model.Task{}, fmt.Errorf("%w: %s", model.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return model.Task{}, fmt.Errorf("%q matches %d tasks, use more of the id", ref, len(matches))
	}
}

func (a *app) lookup(ctx context.Context, ref string) (model.Task, error) {
	tasks, err := a.rec.LoadTasks(ctx, a.owner)
	if err != nil {
		return model.Task{}, err
	}
	return findTask(tasks, ref)
}

const dateLayout = "2006-01-02"

// parseDate accepts YYYY-MM-DD, "today" and "tomorrow".
func parseDate(s string, now time.Time) (time.Time, error) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}
	t, err := time.ParseInLocation(dateLayout, s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// normaliseClock rewrites a user supplied time into the "h:mm AM" form.
func normaliseClock(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	d, err := model.ParseClock(s)
	if err != nil {
		return "", err
	}
	return model.FormatClock(d), nil
}
