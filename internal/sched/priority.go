// Package sched implements the cooperative task scheduler backing Spawn,
// Gather, Race, and the Promise/Future pair. It knows nothing about
// programs, effects, or handlers — it schedules opaque run functions and
// resolves opaque futures, so the doeff package (which does know those
// things) can build Spawn/Await/Gather/Race on top of it without an
// import cycle.
package sched

// Priority is a task's scheduling priority. Higher values are admitted
// to run before lower ones when the runtime is at its concurrency limit;
// once running, Go's own goroutine scheduler — not this package — decides
// how the task's CPU time is actually interleaved with everything else.
type Priority uint8

const (
	PriorityIdle Priority = iota
	PriorityBackground
	PriorityNormal
	PriorityHigh
	PriorityCritical

	priorityCount = int(PriorityCritical) + 1
)

func (p Priority) String() string {
	switch p {
	case PriorityIdle:
		return "idle"
	case PriorityBackground:
		return "background"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// queueEntry is one admitted-but-not-yet-running task, with its run
// function already closed over everything it needs (the Task, the body,
// and the Future it must complete).
type queueEntry struct {
	task *Task
	run  func()
}

// readyQueue is a five-bucket FIFO structure, one bucket per Priority,
// drained highest-priority-first — the same shape as
// AnatoleLucet-sig/internal/heap.go's height-bucketed PriorityHeap,
// narrowed from a sparse array of heights down to this package's five
// fixed priority levels. Callers hold the Runtime's own mutex; this type
// has none of its own.
type readyQueue struct {
	buckets [priorityCount][]queueEntry
}

func (q *readyQueue) push(p Priority, e queueEntry) {
	q.buckets[p] = append(q.buckets[p], e)
}

func (q *readyQueue) pop() (queueEntry, bool) {
	for p := priorityCount - 1; p >= 0; p-- {
		if len(q.buckets[p]) == 0 {
			continue
		}
		e := q.buckets[p][0]
		q.buckets[p][0] = queueEntry{}
		q.buckets[p] = q.buckets[p][1:]
		return e, true
	}
	return queueEntry{}, false
}

func (q *readyQueue) empty() bool {
	for p := 0; p < priorityCount; p++ {
		if len(q.buckets[p]) > 0 {
			return false
		}
	}
	return true
}
