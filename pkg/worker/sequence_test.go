package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestDoRunsInSubmissionOrder(t *testing.T) {
	s := NewSequence("test", 16)
	defer s.Close()

	var mu sync.Mutex
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		if err := s.Go(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}); err != nil {
			t.Fatalf("Go failed: %v", err)
		}
	}

	got, err := Do(context.Background(), s, func(context.Context) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return len(order), nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if got != 10 {
		t.Fatalf("expected earlier jobs to finish first, saw %d", got)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("jobs ran out of order: %v", order)
		}
	}
}

func TestDoReturnsError(t *testing.T) {
	s := NewSequence("test", 1)
	defer s.Close()

	boom := errors.New("boom")
	_, err := Do(context.Background(), s, func(context.Context) (string, error) {
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestDoAbandonsOnContext(t *testing.T) {
	s := NewSequence("test", 4)
	defer s.Close()

	release := make(chan struct{})
	s.Go(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ran := false
	_, err := Do(ctx, s, func(context.Context) (bool, error) {
		ran = true
		return true, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	close(release)
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if ran {
		t.Fatal("a job whose context ended before it started must be skipped")
	}
}

func TestGoAfterClose(t *testing.T) {
	s := NewSequence("test", 1)
	s.Close()
	if err := s.Go(func() {}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	s.Close()
}

func TestGoRecoversPanics(t *testing.T) {
	s := NewSequence("test", 2)
	defer s.Close()
	s.Go(func() { panic("oops") })
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("sequence should survive a panicking job: %v", err)
	}
}

func TestFlushAfterCloseNamesSequence(t *testing.T) {
	s := NewSequence("mirror", 1)
	s.Close()
	err := s.Flush(context.Background())
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if !strings.Contains(err.Error(), "mirror") {
		t.Errorf("expected the sequence name in %q", err)
	}
}
