package doeff

import (
	"context"

	"code.doeff.dev/doeff/internal/sched"
)

// defaultMaxConcurrency bounds how many spawned tasks a single Run/RunAsync
// call may run on worker goroutines at once. The scheduler package documents
// the task model as cooperative; this repo backs that model with real
// goroutines (see internal/sched's doc comment), so the bound exists to cap
// goroutine fan-out rather than to emulate single-threaded stepping.
const defaultMaxConcurrency = 256

// RunResult is what Run, RunAsync, and RunBare report for a completed
// program.
type RunResult[A any] struct {
	// Value is the program's result, or the error that aborted it.
	Value Either[error, A]
	// Log collects every value passed to Tell during the run.
	Log []any
	// Warnings is reserved for diagnostics a future handler may append;
	// nothing in this runtime populates it yet.
	Warnings []string
	// State is the final contents of the default state handler's store.
	State map[string]any
}

// runConfig collects what RunOptions configure before a Run/RunAsync call
// builds its HandlerStack and Runtime.
type runConfig struct {
	handlers []HandlerFunc
	env      map[string]any
	state    map[string]any
}

func newRunConfig() *runConfig {
	return &runConfig{
		env:   map[string]any{},
		state: map[string]any{},
	}
}

// RunOption configures a Run/RunAsync call.
type RunOption func(*runConfig)

// WithHandlers installs handlers on top of the default reader/writer/state
// stack, innermost-last: later handlers in the list, and handlers pushed at
// runtime via WithHandler, see an effect before these do.
func WithHandlers(handlers ...HandlerFunc) RunOption {
	return func(c *runConfig) {
		c.handlers = append(c.handlers, handlers...)
	}
}

// WithEnv supplies the environment map the default reader handler serves
// Env and Ask[map[string]any] from.
func WithEnv(env map[string]any) RunOption {
	return func(c *runConfig) {
		for k, v := range env {
			c.env[k] = v
		}
	}
}

// WithInitialState seeds the default state handler's store.
func WithInitialState(state map[string]any) RunOption {
	return func(c *runConfig) {
		for k, v := range state {
			c.state[k] = v
		}
	}
}

// Env looks up key in the ambient environment, raising ErrMissingEnvKey if
// it is absent. It is built on Ask[map[string]any] — the same reader
// effect reader.go's Ask[E] defines for any E — rather than a
// facade-private operation, so a domain handler that wants to intercept
// every environment read only has to match on one operation type.
func Env(key string) Program[any] {
	return FlatMap(Perform(Ask[map[string]any]{}), func(env map[string]any) Program[any] {
		if v, ok := env[key]; ok {
			return Pure(v)
		}
		return Raise[any](ErrMissingEnvKey(key))
	})
}

// GetStateValue reads key from the run's state store, returning nil if
// absent. It is built on state.go's Get[map[string]any], the same state
// effect Modify/Put below use.
func GetStateValue(key string) Program[any] {
	return FlatMap(Perform(Get[map[string]any]{}), func(state map[string]any) Program[any] {
		return Pure(state[key])
	})
}

// PutStateValue writes value under key in the run's state store via
// Modify[map[string]any], copying the map rather than replacing it
// outright so other keys survive the write.
func PutStateValue(key string, value any) Program[struct{}] {
	put := Modify[map[string]any]{F: func(s map[string]any) map[string]any {
		next := make(map[string]any, len(s)+1)
		for k, v := range s {
			next[k] = v
		}
		next[key] = value
		return next
	}}
	return FlatMap(Perform(put), func(map[string]any) Program[struct{}] {
		return Pure(struct{}{})
	})
}

// defaultReaderHandler serves Ask[map[string]any] from a fixed environment
// map, handing back the whole map so Env's own lookup can decide between
// Pure and Raise. Ask[E] at any other E is still available to handlers
// domain code installs of its own accord.
func defaultReaderHandler(env map[string]any) HandlerFunc {
	return func(op Operation, k *Continuation) Program[Resumed] {
		if _, ok := op.(Ask[map[string]any]); !ok {
			return Delegate()
		}
		return Resume(k, env)
	}
}

// defaultWriterHandler accumulates Tell[any] into log, the slice that backs
// RunResult.Log.
func defaultWriterHandler(log *[]any) HandlerFunc {
	return func(op Operation, k *Continuation) Program[Resumed] {
		t, ok := op.(Tell[any])
		if !ok {
			return Delegate()
		}
		*log = append(*log, t.Value)
		return Resume(k, struct{}{})
	}
}

// defaultStateHandler serves Get/Put/Modify at map[string]any from state,
// the map that backs RunResult.State. state is a pointer so Modify's
// replace-whole-value semantics are visible to the caller that seeded
// runConfig.state, the same way Put[S].DispatchState mutates through a
// pointer.
func defaultStateHandler(state *map[string]any) HandlerFunc {
	return func(op Operation, k *Continuation) Program[Resumed] {
		switch o := op.(type) {
		case Get[map[string]any]:
			return Resume(k, *state)
		case Put[map[string]any]:
			*state = o.Value
			return Resume(k, struct{}{})
		case Modify[map[string]any]:
			*state = o.F(*state)
			return Resume(k, *state)
		default:
			return Delegate()
		}
	}
}

// buildDefaultStack installs the reader/writer/state defaults as the
// outermost scope (pushed first, so they are walked last) and cfg's own
// handlers above them (pushed last, so they are walked first) — a
// WithHandlers handler, or one pushed at runtime via WithHandler, sees an
// effect before the defaults get a chance to Delegate/Pass it.
func buildDefaultStack(cfg *runConfig, log *[]any) *HandlerStack {
	var stack *HandlerStack
	stack = stack.Push(defaultReaderHandler(cfg.env), newScopeID())
	stack = stack.Push(defaultWriterHandler(log), newScopeID())
	stack = stack.Push(defaultStateHandler(&cfg.state), newScopeID())
	for _, h := range cfg.handlers {
		stack = stack.Push(h, newScopeID())
	}
	return stack
}

// runOnFreshRuntime spawns program as the root task of a new scheduler
// Runtime, blocks until it completes, and tears the Runtime down. stack is
// nil for RunBare, which drives only the kernel and the scheduler core.
func runOnFreshRuntime[A any](ctx context.Context, program Program[A], stack *HandlerStack) Either[error, A] {
	rt := sched.NewRuntime(ctx, defaultMaxConcurrency)
	core := newSchedCoreDispatcher(rt, ctx)
	_, fut := rt.Spawn(PriorityNormal, nil, func(*sched.Task) (any, error) {
		res := DispatchEffect[A](program, stack, core)
		return res, nil
	})
	v, err := rt.AwaitFuture(ctx, fut)
	rt.Close()
	rt.Wait()
	if err != nil {
		return Left[error, A](normalizeRuntimeError(err))
	}
	either, _ := v.(Either[error, A])
	return either
}

// Run executes program to completion on its own scheduler Runtime and
// returns its result. The default reader/writer/state handlers, and any
// supplied via WithHandlers, are installed as the ambient HandlerStack; an
// escaping Raise/Throw is converted into RunResult.Value's Left side rather
// than propagating out of Run, since DispatchEffect already reports failure
// through Either instead of panicking.
func Run[A any](program Program[A], opts ...RunOption) RunResult[A] {
	cfg := newRunConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	var log []any
	stack := buildDefaultStack(cfg, &log)
	value := runOnFreshRuntime(context.Background(), program, stack)
	return RunResult[A]{Value: value, Log: log, State: cfg.state}
}

// RunAsync runs program the same way Run does, but on its own goroutine,
// reporting the result on the returned channel once it completes. This is
// how doeff yields to the host's own event loop during a suspension: the
// scheduler loop underneath never blocks the calling goroutine, so a caller
// that wants to keep servicing other work just doesn't read from the
// channel yet.
func RunAsync[A any](ctx context.Context, program Program[A], opts ...RunOption) <-chan RunResult[A] {
	cfg := newRunConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	ch := make(chan RunResult[A], 1)
	go func() {
		var log []any
		stack := buildDefaultStack(cfg, &log)
		value := runOnFreshRuntime(ctx, program, stack)
		ch <- RunResult[A]{Value: value, Log: log, State: cfg.state}
	}()
	return ch
}

// RunBare runs program against an empty HandlerStack: only the kernel's own
// structural effects (Try, WithHandler scoping, GetHandlers/SetHandlers)
// and the scheduler core (Spawn, AwaitFuture, Gather, Race, Cancel, Sleep,
// CreatePromise, CompletePromise, FailPromise) are available. Any Perform
// of an effect the program doesn't handle itself
// via WithHandler surfaces as ErrUnhandledEffect. Intended for tests that
// want to exercise the algebra without the facade's default conveniences.
func RunBare[A any](program Program[A]) RunResult[A] {
	value := runOnFreshRuntime[A](context.Background(), program, nil)
	return RunResult[A]{Value: value}
}
