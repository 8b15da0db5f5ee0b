package sched

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Runtime is one run's scheduling context: it owns the ready queue, the
// task table, and the pool of worker goroutines bounded by maxConcurrency.
// A fresh Runtime backs each call to the public Run/RunAsync facade;
// nothing here is package-level state.
type Runtime struct {
	mu        sync.Mutex
	cond      *sync.Cond
	tasks     map[uuid.UUID]*Task
	queue     readyQueue
	active    int
	maxActive int
	closed    bool

	group    *errgroup.Group
	groupCtx context.Context
}

// NewRuntime starts a Runtime with up to maxConcurrency tasks running at
// once. The dispatch loop itself, and every task it admits, run under the
// returned Runtime's errgroup.Group. A panic inside a spawned task's run
// function is recovered by Spawn and fails that task's Future with an
// error instead of crashing the process.
func NewRuntime(ctx context.Context, maxConcurrency int) *Runtime {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	rt := &Runtime{
		tasks:     make(map[uuid.UUID]*Task),
		maxActive: maxConcurrency,
		group:     g,
		groupCtx:  gctx,
	}
	rt.cond = sync.NewCond(&rt.mu)
	rt.group.Go(rt.dispatchLoop)
	return rt
}

// Spawn admits a new task at the given priority. run is called on a
// worker goroutine once admitted; its return value and error complete the
// returned Future. The returned Task's State transitions
// READY -> RUNNING -> (COMPLETED | FAILED | CANCELLED).
func (rt *Runtime) Spawn(priority Priority, parent *Task, run func(*Task) (any, error)) (*Task, *Future) {
	task := newTask(priority, parent)
	fut := newFuture()

	entry := queueEntry{
		task: task,
		run: func() {
			defer func() {
				if r := recover(); r != nil {
					task.setState(StateFailed)
					fut.complete(nil, fmt.Errorf("sched: task %s panicked: %v", task.ID, r))
				}
			}()
			task.setState(StateRunning)
			v, err := run(task)
			switch {
			case task.IsCancelled():
				fut.complete(nil, errCancelled(task.ID))
			case err != nil:
				task.setState(StateFailed)
				fut.complete(nil, err)
			default:
				task.setState(StateCompleted)
				fut.complete(v, nil)
			}
		},
	}

	rt.mu.Lock()
	rt.tasks[task.ID] = task
	rt.queue.push(priority, entry)
	rt.cond.Broadcast()
	rt.mu.Unlock()

	return task, fut
}

func (rt *Runtime) dispatchLoop() error {
	for {
		rt.mu.Lock()
		for {
			if rt.closed && rt.queue.empty() {
				rt.mu.Unlock()
				return nil
			}
			if rt.active < rt.maxActive && !rt.queue.empty() {
				break
			}
			rt.cond.Wait()
		}
		entry, _ := rt.queue.pop()
		rt.active++
		rt.mu.Unlock()

		rt.group.Go(func() error {
			defer func() {
				rt.mu.Lock()
				rt.active--
				rt.cond.Broadcast()
				rt.mu.Unlock()
			}()
			entry.run()
			return nil
		})
	}
}

// Cancel marks the task identified by id as cancelled. Returns false if
// no such task is known to this Runtime.
func (rt *Runtime) Cancel(id uuid.UUID) bool {
	rt.mu.Lock()
	task, ok := rt.tasks[id]
	rt.mu.Unlock()
	if !ok {
		return false
	}
	task.Cancel()
	return true
}

// AwaitFuture blocks the calling goroutine until fut resolves or ctx is
// done.
func (rt *Runtime) AwaitFuture(ctx context.Context, fut *Future) (any, error) {
	return fut.Await(ctx)
}

// Gather waits on every future in order and reports every value/error
// pair; deciding whether a partial error aborts the whole Gather is left
// to the caller (package doeff's Gather honors ReturnExceptions there).
func (rt *Runtime) Gather(ctx context.Context, futures []*Future) ([]any, []error) {
	values := make([]any, len(futures))
	errs := make([]error, len(futures))
	for i, f := range futures {
		values[i], errs[i] = f.Await(ctx)
	}
	return values, errs
}

// Race waits for the first future (by completion order, not slice order)
// to resolve. If cancelLosers is true, every other task in tasks is
// cancelled once a winner is known; tasks may contain nils for futures
// that were not produced by a cancellable Spawn.
func (rt *Runtime) Race(ctx context.Context, futures []*Future, tasks []*Task, cancelLosers bool) (any, error, int) {
	type result struct {
		i   int
		v   any
		err error
	}
	ch := make(chan result, len(futures))
	for i, f := range futures {
		i, f := i, f
		go func() {
			v, err := f.Await(ctx)
			ch <- result{i, v, err}
		}()
	}
	first := <-ch
	if cancelLosers {
		for i, t := range tasks {
			if i != first.i && t != nil {
				t.Cancel()
			}
		}
	}
	return first.v, first.err, first.i
}

// Sleep blocks for d, or until ctx is done.
func (rt *Runtime) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops admitting new work once the current queue drains, and
// releases the dispatch loop. Outstanding Futures that nothing has
// awaited are abandoned — callers that need every spawned task to finish
// should Gather them before calling Close.
func (rt *Runtime) Close() {
	rt.mu.Lock()
	rt.closed = true
	rt.cond.Broadcast()
	rt.mu.Unlock()
}

// Wait blocks until the dispatch loop and every worker goroutine launched
// by this Runtime have returned. Task failures, including recovered
// panics, are reported through each task's Future; Wait itself returns nil.
func (rt *Runtime) Wait() error {
	return rt.group.Wait()
}
