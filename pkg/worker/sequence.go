// Package worker runs the operations of one external store in submission order.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// ErrClosed is returned when work is submitted to a closed sequence.
var ErrClosed = errors.New("worker sequence closed")

// Sequence executes jobs one at a time on its own goroutine.
type Sequence struct {
	name string
	jobs chan func()
	done chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewSequence starts a sequence with a queue of the given depth.
func NewSequence(name string, depth int) *Sequence {
	s := &Sequence{
		name: name,
		jobs: make(chan func(), depth),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Sequence) run() {
	defer close(s.done)
	for job := range s.jobs {
		job()
	}
}

func (s *Sequence) Name() string { return s.name }

// Go queues fn without waiting for it. Panics in fn are logged, not propagated.
func (s *Sequence) Go(fn func()) error {
	return s.enqueue(context.Background(), func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("%s: background job panicked: %v", s.name, r)
			}
		}()
		fn()
	})
}

func (s *Sequence) enqueue(ctx context.Context, job func()) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits until every job queued before the call has finished.
func (s *Sequence) Flush(ctx context.Context) error {
	_, err := Do(ctx, s, func(context.Context) (struct{}, error) {
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("flush %s: %w", s.Name(), err)
	}
	return nil
}

// Close stops accepting work and waits for queued jobs to finish.
func (s *Sequence) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.jobs)
	}
	s.mu.Unlock()
	<-s.done
}

type result[T any] struct {
	val T
	err error
}

// Do runs fn on the sequence and waits for its result. If ctx ends first the
// wait is abandoned; a job that has not started yet is skipped.
func Do[T any](ctx context.Context, s *Sequence, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	out := make(chan result[T], 1)
	err := s.enqueue(ctx, func() {
		if err := ctx.Err(); err != nil {
			out <- result[T]{err: err}
			return
		}
		v, err := fn(ctx)
		out <- result[T]{val: v, err: err}
	})
	if err != nil {
		return zero, err
	}

	select {
	case r := <-out:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
