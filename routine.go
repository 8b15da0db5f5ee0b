package doeff

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Routine is the host-coroutine bridge's native interface: a resumable Go
// computation driven one yield at a time. Go has no native generator
// coroutines, so this emulates send/throw/close with a goroutine-and-
// channel rendezvous — the idiomatic Go substitute (no pack example ships
// a coroutine library; goroutines are the ecosystem's answer here).
type Routine interface {
	// Start begins the routine's body and returns its first yield.
	Start(ctx context.Context) (yielded Operation, done bool, result Resumed, err error)
	// Send resumes the routine with v as the value of its last yield.
	Send(ctx context.Context, v Resumed) (yielded Operation, done bool, result Resumed, err error)
	// Throw resumes the routine by raising err at its last yield point.
	Throw(ctx context.Context, err error) (yielded Operation, done bool, result Resumed, err2 error)
	// Close abandons the routine. Safe to call more than once.
	Close()
}

type routineInput struct {
	v       Resumed
	err     error
	isThrow bool
}

type routineOutput struct {
	op     Operation
	done   bool
	result Resumed
	err    error
}

// routine implements Routine over a goroutine parked on an unbuffered
// channel rendezvous at each yield. It is the only concrete type
// satisfying Routine; FromRoutine accepts only values produced by
// NewRoutine so a value that merely looks like a coroutine (implements
// the same method set by coincidence) is rejected at the call site, per
// this package's pattern of exporting concrete constructors (stateHandler,
// readerHandler, ...) while keeping interfaces for internal dispatch.
type routine struct {
	toBody   chan routineInput
	fromBody chan routineOutput
	closed   atomic.Bool
	once     sync.Once
}

type routineThrow struct{ err error }

// NewRoutine runs body on its own goroutine. body calls yield(op) each
// time it wants to perform an effect on the caller's behalf; yield blocks
// until Send or Throw resumes it. body's own return value becomes the
// routine's final result.
//
// NewRoutine returns the concrete *routine type, not the Routine interface,
// the same way ReaderHandler/WriterHandler/StateHandler return their own
// concrete handler types rather than a Handler interface. FromRoutine
// accepts only this concrete type, so a value that merely implements the
// same method set by coincidence is rejected at the call site rather than
// silently accepted.
func NewRoutine(body func(yield func(Operation) Resumed) Resumed) *routine {
	r := &routine{
		toBody:   make(chan routineInput),
		fromBody: make(chan routineOutput),
	}
	go r.run(body)
	return r
}

func (r *routine) run(body func(yield func(Operation) Resumed) Resumed) {
	defer func() {
		if rec := recover(); rec != nil {
			if th, ok := rec.(routineThrow); ok {
				r.fromBody <- routineOutput{done: true, err: th.err}
				return
			}
			r.fromBody <- routineOutput{done: true, err: fmt.Errorf("doeff: routine panicked: %v", rec)}
		}
	}()
	yield := func(op Operation) Resumed {
		r.fromBody <- routineOutput{op: op}
		in := <-r.toBody
		if in.isThrow {
			panic(routineThrow{err: in.err})
		}
		return in.v
	}
	result := body(yield)
	r.fromBody <- routineOutput{done: true, result: result}
}

func (r *routine) Start(ctx context.Context) (Operation, bool, Resumed, error) {
	return r.recv(ctx)
}

func (r *routine) Send(ctx context.Context, v Resumed) (Operation, bool, Resumed, error) {
	return r.exchange(ctx, routineInput{v: v})
}

func (r *routine) Throw(ctx context.Context, err error) (Operation, bool, Resumed, error) {
	return r.exchange(ctx, routineInput{err: err, isThrow: true})
}

func (r *routine) exchange(ctx context.Context, in routineInput) (Operation, bool, Resumed, error) {
	select {
	case r.toBody <- in:
	case <-ctx.Done():
		return nil, true, nil, ctx.Err()
	}
	return r.recv(ctx)
}

func (r *routine) recv(ctx context.Context) (Operation, bool, Resumed, error) {
	select {
	case out := <-r.fromBody:
		return out.op, out.done, out.result, out.err
	case <-ctx.Done():
		return nil, true, nil, ctx.Err()
	}
}

// Close marks the routine closed. A body goroutine still parked on a
// yield is not forcibly unblocked — callers that need that should give
// body a context and check it between yields.
func (r *routine) Close() {
	r.once.Do(func() { r.closed.Store(true) })
}

type routineAdvanceKind int

const (
	routineAdvanceStart routineAdvanceKind = iota
	routineAdvanceSend
)

type routineAdvance struct {
	kind routineAdvanceKind
	val  Resumed
}

type routineStepResult struct {
	op     Operation
	done   bool
	result Resumed
	err    error
}

// performDynamic performs a runtime-typed Operation, bypassing Perform's
// compile-time Op[O, A] constraint. FromRoutine needs this because the
// operation being performed at each step is whatever the coroutine body
// yielded, not something known to the compiler at the FromRoutine call
// site — the routine, not the kernel, owns that type.
func performDynamic(op Operation) Program[Resumed] {
	return func(k func(Resumed) Resumed) Resumed {
		m := acquireMarker()
		m.op = op
		m.k = k
		m.resume = effectMarkerResume[Resumed]
		return m
	}
}

func routineAdvanceOnce(r *routine, adv routineAdvance) Program[routineStepResult] {
	return func(k func(routineStepResult) Resumed) Resumed {
		ctx := context.Background()
		var op Operation
		var done bool
		var result Resumed
		var err error
		switch adv.kind {
		case routineAdvanceStart:
			op, done, result, err = r.Start(ctx)
		case routineAdvanceSend:
			op, done, result, err = r.Send(ctx, adv.val)
		}
		return k(routineStepResult{op: op, done: done, result: result, err: err})
	}
}

func stepRoutine[A any](r *routine, adv routineAdvance) Program[A] {
	return FlatMap(routineAdvanceOnce(r, adv), func(step routineStepResult) Program[A] {
		if step.done {
			if step.err != nil {
				return Raise[A](step.err)
			}
			if step.result == nil {
				var zero A
				return Pure(zero)
			}
			return Pure(step.result.(A))
		}
		return FlatMap(performDynamic(step.op), func(resumeVal Resumed) Program[A] {
			return stepRoutine[A](r, routineAdvance{kind: routineAdvanceSend, val: resumeVal})
		})
	})
}

// FromRoutine drives r to completion, performing each of its yielded
// operations through the ambient HandlerStack and feeding the handler's
// resume value back into the routine — one kernel step per coroutine
// step, same as every other Program combinator (FlatMap's own evaluation
// runs through the same iterative evalFrames trampoline, never native Go
// recursion).
func FromRoutine[A any](r *routine) Program[A] {
	return stepRoutine[A](r, routineAdvance{kind: routineAdvanceStart})
}
