package sched

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrTaskCancelled is wrapped into the error a Future resolves to when
// its task was cancelled before completing.
var ErrTaskCancelled = errors.New("sched: task cancelled")

// errCancelled reports a specific task's cancellation, wrapping
// ErrTaskCancelled so callers can match it with errors.Is.
func errCancelled(id uuid.UUID) error {
	return fmt.Errorf("%w: task %s", ErrTaskCancelled, id)
}

// Future is a write-once, read-many result slot, the same "mutex + done
// channel + isDone bool" shape used by seprich/go-future and
// dcos/dcos-go's future packages. Unlike those, completion here is driven
// by the scheduler, not a raw goroutine launch — Runtime.Spawn completes a
// task's Future when its run function returns, and Promise.Complete is the
// only other writer.
type Future struct {
	mu     sync.Mutex
	value  any
	err    error
	done   chan struct{}
	isDone bool
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// ErrPromiseAlreadyCompleted reports a second completion of the same
// promise, wrapped so callers can match it with errors.Is regardless of
// which promise raised it.
var ErrPromiseAlreadyCompleted = errors.New("sched: promise already completed")

// Promise is the write-once capability paired with a Future's read-many
// observation. Unlike the Future a Spawn returns — whose only writer is
// the task's own goroutine — a Promise may be handed to any task and
// completed from anywhere, so its second completion must be rejected
// loudly rather than silently dropped.
type Promise struct {
	id  uuid.UUID
	fut *Future
}

// NewPromise allocates a fresh promise/future pair.
func NewPromise() (*Promise, *Future) {
	fut := newFuture()
	return &Promise{id: uuid.New(), fut: fut}, fut
}

// ID returns the promise's identifier, suitable for error messages.
func (p *Promise) ID() uuid.UUID { return p.id }

// Complete resolves the promise's paired future exactly once. A second
// call returns ErrPromiseAlreadyCompleted wrapping the promise's id
// instead of silently discarding the second outcome.
func (p *Promise) Complete(v any, err error) error {
	if !p.fut.complete(v, err) {
		return fmt.Errorf("%w: promise %s", ErrPromiseAlreadyCompleted, p.id)
	}
	return nil
}

// complete resolves the future exactly once; later calls are no-ops and
// report false.
func (f *Future) complete(v any, err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.isDone {
		return false
	}
	f.value, f.err = v, err
	f.isDone = true
	close(f.done)
	return true
}

// Await blocks until the future resolves or ctx is done, whichever comes
// first.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done reports whether the future has resolved, without blocking.
func (f *Future) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Peek returns the resolved value without blocking; ok is false if the
// future has not resolved yet.
func (f *Future) Peek() (value any, err error, ok bool) {
	if !f.Done() {
		return nil, nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err, true
}
