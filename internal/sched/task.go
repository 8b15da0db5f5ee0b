package sched

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// State is a Task's position in its lifecycle. Named after the
// READY/RUNNING/SUCCESS/FAILED states of cue-lang/cue's internal ADT
// scheduler (internal/core/adt/sched.go), with SUSPENDED and CANCELLED
// added for the richer lifecycle a general-purpose scheduler needs.
type State int

const (
	StateReady State = iota
	StateRunning
	StateSuspended
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateRunning:
		return "RUNNING"
	case StateSuspended:
		return "SUSPENDED"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	case StateCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Task is the scheduler's bookkeeping record for one spawned program. The
// scheduler never looks inside the program it runs; Result/State are the
// only channel between a task and the code that spawned it, besides the
// Future returned alongside it.
type Task struct {
	ID       uuid.UUID
	Priority Priority
	Parent   *Task

	state      atomic.Int32
	cancelOnce sync.Once
	cancelCh   chan struct{}
}

func newTask(priority Priority, parent *Task) *Task {
	return &Task{
		ID:       uuid.New(),
		Priority: priority,
		Parent:   parent,
		cancelCh: make(chan struct{}),
	}
}

// State returns the task's current lifecycle state.
func (t *Task) State() State { return State(t.state.Load()) }

func (t *Task) setState(s State) { t.state.Store(int32(s)) }

// Cancel marks this task as cancelled. Tasks it spawned are not
// cancelled; Cancel does not follow the parent/child relation.
// Idempotent: only the first call closes Cancelled().
func (t *Task) Cancel() {
	t.cancelOnce.Do(func() {
		t.setState(StateCancelled)
		close(t.cancelCh)
	})
}

// Cancelled returns a channel closed once Cancel has been called.
func (t *Task) Cancelled() <-chan struct{} { return t.cancelCh }

// IsCancelled reports whether Cancel has been called.
func (t *Task) IsCancelled() bool {
	select {
	case <-t.cancelCh:
		return true
	default:
		return false
	}
}
