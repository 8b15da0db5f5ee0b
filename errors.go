package doeff

import "fmt"

// RuntimeError is the closed set of error kinds a running Program can
// produce. Run and RunAsync convert every one of these into
// RunResult.Value instead of letting it escape as a panic.
type RuntimeError struct {
	kind    string
	message string
	cause   error
}

func (e *RuntimeError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

// Kind returns the stable, comparable error kind (e.g. "unhandled_effect").
func (e *RuntimeError) Kind() string { return e.kind }

func (e *RuntimeError) Unwrap() error { return e.cause }

// Error kind constants. Compare RuntimeError.Kind() against these, or use
// errors.Is against the sentinel values below.
const (
	KindUnhandledEffect              = "unhandled_effect"
	KindContinuationReused           = "continuation_reused"
	KindPromiseAlreadyCompleted      = "promise_already_completed"
	KindCancelled                    = "cancelled"
	KindHandlerReturnedInvalidProgram = "handler_returned_invalid_program"
	KindMissingEnvKey                = "missing_env_key"
	KindDomainError                  = "domain_error"
)

// ErrUnhandledEffect reports an effect that reached the bottom of the
// handler stack without being interpreted.
func ErrUnhandledEffect(opKind string) *RuntimeError {
	return &RuntimeError{kind: KindUnhandledEffect, message: fmt.Sprintf("unhandled effect: %s", opKind)}
}

// ErrContinuationReused reports a second Resume on an already-resumed,
// affine continuation.
func ErrContinuationReused() *RuntimeError {
	return &RuntimeError{kind: KindContinuationReused, message: "continuation reused: a captured continuation was resumed more than once"}
}

// ErrPromiseAlreadyCompleted reports a CompletePromise on a promise that
// already has a value.
func ErrPromiseAlreadyCompleted(id fmt.Stringer) *RuntimeError {
	return &RuntimeError{kind: KindPromiseAlreadyCompleted, message: fmt.Sprintf("promise %s already completed", id)}
}

// ErrCancelled reports a task that observed cancellation at a suspension
// point.
func ErrCancelled(taskID fmt.Stringer) *RuntimeError {
	return &RuntimeError{kind: KindCancelled, message: fmt.Sprintf("task %s cancelled", taskID)}
}

// ErrHandlerReturnedInvalidProgram reports a handler program that resumed
// a continuation other than the one it was given, or that terminated
// without resuming or delegating/passing.
func ErrHandlerReturnedInvalidProgram(reason string) *RuntimeError {
	return &RuntimeError{kind: KindHandlerReturnedInvalidProgram, message: "handler returned invalid program: " + reason}
}

// ErrMissingEnvKey reports an Ask against a reader environment key that
// was never bound with WithEnv.
func ErrMissingEnvKey(key string) *RuntimeError {
	return &RuntimeError{kind: KindMissingEnvKey, message: fmt.Sprintf("missing environment key %q", key)}
}

// ErrDomain wraps a domain-level error raised by user code via Raise/Throw
// so it can travel through RunResult.Value alongside the kernel's own
// error kinds.
func ErrDomain(cause error) *RuntimeError {
	return &RuntimeError{kind: KindDomainError, message: "domain error", cause: cause}
}
