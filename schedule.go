package doeff

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"code.doeff.dev/doeff/internal/sched"
)

// TaskPriority mirrors package sched's Priority at the Program level, so
// callers never import internal/sched directly.
type TaskPriority = sched.Priority

const (
	PriorityIdle       = sched.PriorityIdle
	PriorityBackground = sched.PriorityBackground
	PriorityNormal     = sched.PriorityNormal
	PriorityHigh       = sched.PriorityHigh
	PriorityCritical   = sched.PriorityCritical
)

// TaskState mirrors package sched's State at the Program level.
type TaskState = sched.State

// TaskID identifies a spawned task, generated by Spawn via google/uuid.
type TaskID = uuid.UUID

// Future is a handle to a spawned task's eventual result. The A-typed
// value is recovered from the underlying *sched.Future via a type
// assertion on read, since package sched itself only ever stores `any`.
type Future[A any] struct {
	f *sched.Future
	t *sched.Task
}

// ID returns the underlying task's identifier.
func (fut Future[A]) ID() TaskID { return fut.t.ID }

// coreOp is implemented by every operation the scheduler's core
// dispatcher recognises directly, bypassing the user HandlerStack — the
// same structural-interface trick DispatchState/DispatchReader/
// DispatchWriter use to let a type switch in processEffect reach a
// generic operation type it cannot enumerate at compile time.
type coreOp interface {
	dispatchCore(rt *sched.Runtime, ctx context.Context, core coreDispatcher) (Resumed, bool)
}

// newSchedCoreDispatcher builds the coreDispatcher stackProcessor uses to
// recognise Spawn/Await/Gather/Race/Cancel/Sleep/CreatePromise/
// CompletePromise ahead of the user
// HandlerStack, per SPEC_FULL.md's description of the scheduler as a
// kernel-level, always-present handler: user handlers still see these
// operations first if they choose to intercept them via Intercept, but
// once an operation reaches processEffect's dispatch, the scheduler
// claims it before the HandlerStack ever gets a look.
func newSchedCoreDispatcher(rt *sched.Runtime, ctx context.Context) coreDispatcher {
	var core coreDispatcher
	core = func(op Operation) (Resumed, bool) {
		if co, ok := op.(coreOp); ok {
			return co.dispatchCore(rt, ctx, core)
		}
		return nil, false
	}
	return core
}

type spawnOp[A any] struct {
	prog     Program[A]
	priority sched.Priority
	parent   *sched.Task
	stack    *HandlerStack
}

func (spawnOp[A]) OpResult() Future[A] { panic("phantom") }

func (o spawnOp[A]) dispatchCore(rt *sched.Runtime, ctx context.Context, core coreDispatcher) (Resumed, bool) {
	task, fut := rt.Spawn(o.priority, o.parent, func(*sched.Task) (any, error) {
		res := DispatchEffect[A](o.prog, o.stack, core)
		if v, ok := res.GetRight(); ok {
			return v, nil
		}
		err, _ := res.GetLeft()
		return nil, err
	})
	return Future[A]{f: fut, t: task}, true
}

// Spawn launches prog as a new task at the given priority, inheriting the
// caller's ambient HandlerStack, and returns a Future for its result
// without waiting for it.
func Spawn[A any](prog Program[A], priority TaskPriority) Program[Future[A]] {
	return FlatMap(GetHandlers(), func(stack *HandlerStack) Program[Future[A]] {
		return Perform(spawnOp[A]{prog: prog, priority: priority, stack: stack})
	})
}

type tryAwaitOp[A any] struct{ fut Future[A] }

func (tryAwaitOp[A]) OpResult() Either[error, A] { panic("phantom") }

func (o tryAwaitOp[A]) dispatchCore(rt *sched.Runtime, ctx context.Context, core coreDispatcher) (Resumed, bool) {
	v, err := rt.AwaitFuture(ctx, o.fut.f)
	if err != nil {
		return Left[error, A](normalizeRuntimeError(err)), true
	}
	if v == nil {
		var zero A
		return Right[error, A](zero), true
	}
	return Right[error, A](v.(A)), true
}

// AwaitFuture blocks the current task until fut resolves, propagating a
// failure through Raise rather than returning an error value directly.
func AwaitFuture[A any](fut Future[A]) Program[A] {
	return FlatMap(Perform(tryAwaitOp[A]{fut: fut}), func(res Either[error, A]) Program[A] {
		if v, ok := res.GetRight(); ok {
			return Pure(v)
		}
		err, _ := res.GetLeft()
		return Raise[A](err)
	})
}

type gatherOp[A any] struct{ futures []Future[A] }

func (gatherOp[A]) OpResult() []Either[error, A] { panic("phantom") }

func (o gatherOp[A]) dispatchCore(rt *sched.Runtime, ctx context.Context, core coreDispatcher) (Resumed, bool) {
	raw := make([]*sched.Future, len(o.futures))
	for i, f := range o.futures {
		raw[i] = f.f
	}
	values, errs := rt.Gather(ctx, raw)
	out := make([]Either[error, A], len(values))
	for i := range values {
		if errs[i] != nil {
			out[i] = Left[error, A](normalizeRuntimeError(errs[i]))
			continue
		}
		if values[i] == nil {
			var zero A
			out[i] = Right[error, A](zero)
			continue
		}
		out[i] = Right[error, A](values[i].(A))
	}
	return out, true
}

// Gather waits on every future. When returnExceptions is true, every
// result — success or failure — is reported in order. When false, the
// whole Gather fails (via Raise) with the first error found in futures'
// own order, once every future has resolved.
func Gather[A any](futures []Future[A], returnExceptions bool) Program[[]Either[error, A]] {
	return FlatMap(Perform(gatherOp[A]{futures: futures}), func(results []Either[error, A]) Program[[]Either[error, A]] {
		if returnExceptions {
			return Pure(results)
		}
		for _, r := range results {
			if err, ok := r.GetLeft(); ok {
				return Raise[[]Either[error, A]](err)
			}
		}
		return Pure(results)
	})
}

type raceOp[A any] struct {
	futures      []Future[A]
	cancelLosers bool
}

func (raceOp[A]) OpResult() Either[error, A] { panic("phantom") }

func (o raceOp[A]) dispatchCore(rt *sched.Runtime, ctx context.Context, core coreDispatcher) (Resumed, bool) {
	raw := make([]*sched.Future, len(o.futures))
	tasks := make([]*sched.Task, len(o.futures))
	for i, f := range o.futures {
		raw[i] = f.f
		tasks[i] = f.t
	}
	v, err, _ := rt.Race(ctx, raw, tasks, o.cancelLosers)
	if err != nil {
		return Left[error, A](normalizeRuntimeError(err)), true
	}
	if v == nil {
		var zero A
		return Right[error, A](zero), true
	}
	return Right[error, A](v.(A)), true
}

// Race waits for the first future among futures to resolve. cancelLosers
// controls whether the other tasks are cancelled once a winner is known.
func Race[A any](futures []Future[A], cancelLosers bool) Program[A] {
	return FlatMap(Perform(raceOp[A]{futures: futures, cancelLosers: cancelLosers}), func(res Either[error, A]) Program[A] {
		if v, ok := res.GetRight(); ok {
			return Pure(v)
		}
		err, _ := res.GetLeft()
		return Raise[A](err)
	})
}

// Promise is the write-once half of a promise/future pair created by
// CreatePromise. Unlike a Spawn's Future, whose only writer is the
// spawned task's own goroutine, a Promise may be handed to any task and
// completed from anywhere — only CompletePromise/FailPromise may resolve
// it, and only once.
type Promise[A any] struct {
	p *sched.Promise
	f *sched.Future
}

// Future returns the read-many observation side of the pair, awaitable
// with AwaitFuture like any spawned task's.
func (pr Promise[A]) Future() Future[A] { return Future[A]{f: pr.f} }

type createPromiseOp[A any] struct{}

func (createPromiseOp[A]) OpResult() Promise[A] { panic("phantom") }

func (createPromiseOp[A]) dispatchCore(rt *sched.Runtime, ctx context.Context, core coreDispatcher) (Resumed, bool) {
	p, f := sched.NewPromise()
	return Promise[A]{p: p, f: f}, true
}

// CreatePromise allocates a write-once promise/future pair. The future
// half can be awaited by any number of tasks via AwaitFuture; the
// promise half is resolved exactly once via CompletePromise or
// FailPromise.
func CreatePromise[A any]() Program[Promise[A]] {
	return Perform(createPromiseOp[A]{})
}

type completePromiseOp[A any] struct {
	promise Promise[A]
	value   A
	err     error
}

func (completePromiseOp[A]) OpResult() Either[error, struct{}] { panic("phantom") }

func (o completePromiseOp[A]) dispatchCore(rt *sched.Runtime, ctx context.Context, core coreDispatcher) (Resumed, bool) {
	var v any
	if o.err == nil {
		v = o.value
	}
	if err := o.promise.p.Complete(v, o.err); err != nil {
		if errors.Is(err, sched.ErrPromiseAlreadyCompleted) {
			return Left[error, struct{}](ErrPromiseAlreadyCompleted(o.promise.p.ID())), true
		}
		return Left[error, struct{}](normalizeRuntimeError(err)), true
	}
	return Right[error, struct{}](struct{}{}), true
}

// CompletePromise resolves p with value, waking every task awaiting its
// future at once, in no particular order. Completing an already-completed
// promise raises ErrPromiseAlreadyCompleted instead of discarding value.
func CompletePromise[A any](p Promise[A], value A) Program[struct{}] {
	return completePromiseResult(completePromiseOp[A]{promise: p, value: value})
}

// FailPromise resolves p with a failure instead of a value; every task
// awaiting its future observes err via AwaitFuture's own Raise. Like
// CompletePromise, a second completion raises ErrPromiseAlreadyCompleted.
func FailPromise[A any](p Promise[A], err error) Program[struct{}] {
	return completePromiseResult(completePromiseOp[A]{promise: p, err: err})
}

func completePromiseResult[A any](op completePromiseOp[A]) Program[struct{}] {
	return FlatMap(Perform(op), func(res Either[error, struct{}]) Program[struct{}] {
		if _, ok := res.GetRight(); ok {
			return Pure(struct{}{})
		}
		err, _ := res.GetLeft()
		return Raise[struct{}](err)
	})
}

type cancelOp struct{ taskID TaskID }

func (cancelOp) OpResult() bool { panic("phantom") }

func (o cancelOp) dispatchCore(rt *sched.Runtime, ctx context.Context, core coreDispatcher) (Resumed, bool) {
	return rt.Cancel(o.taskID), true
}

// Cancel marks the task identified by id as cancelled, reporting whether
// that task was known to this run's scheduler.
func Cancel(id TaskID) Program[bool] {
	return Perform(cancelOp{taskID: id})
}

type sleepOp struct{ d time.Duration }

func (sleepOp) OpResult() Either[error, struct{}] { panic("phantom") }

func (o sleepOp) dispatchCore(rt *sched.Runtime, ctx context.Context, core coreDispatcher) (Resumed, bool) {
	if err := rt.Sleep(ctx, o.d); err != nil {
		return Left[error, struct{}](normalizeRuntimeError(err)), true
	}
	return Right[error, struct{}](struct{}{}), true
}

// Sleep cooperatively yields the current task for d against a real timer,
// raising the ambient context's cancellation instead of returning quietly
// once the deadline has already passed — the same Either-then-Raise
// unwrapping AwaitFuture/Race use, so a task that never wakes from Sleep
// fails loudly rather than resuming into a program that was never meant to
// run past its deadline.
func Sleep(d time.Duration) Program[struct{}] {
	return FlatMap(Perform(sleepOp{d: d}), func(res Either[error, struct{}]) Program[struct{}] {
		if _, ok := res.GetRight(); ok {
			return Pure(struct{}{})
		}
		err, _ := res.GetLeft()
		return Raise[struct{}](err)
	})
}
