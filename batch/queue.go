package batch

import "context"

// TaskState is the queue-native state of an enqueued task.
type TaskState string

const (
	TaskPending  TaskState = "PENDING"
	TaskStarted  TaskState = "STARTED"
	TaskProgress TaskState = "PROGRESS"
	TaskSuccess  TaskState = "SUCCESS"
	TaskFailure  TaskState = "FAILURE"
	TaskRevoked  TaskState = "REVOKED"
)

// TaskUnknown is never reported by a queue itself. It stands in for a task
// id the queue does not recognize, which happens when the process restarted
// and in-memory task state was lost while the job record survived.
const TaskUnknown TaskState = "UNKNOWN"

// Terminal reports whether the state is final.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskSuccess, TaskFailure, TaskRevoked:
		return true
	}
	return false
}

// TaskFunc is the unit of work a queue executes. The context is cancelled
// when the task is revoked or exceeds its time budget.
type TaskFunc func(ctx context.Context) error

// TaskQueue hands work to a worker pool and tracks per-task state.
// Implementations must be safe for concurrent use.
type TaskQueue interface {
	// Enqueue submits fn for asynchronous execution and returns a task id
	// immediately.
	Enqueue(fn TaskFunc) (string, error)

	// State returns the current state of a task, and false for ids the
	// queue does not know (e.g. after a process restart).
	State(taskID string) (TaskState, bool)

	// TaskError returns the failure message of a task, empty if none.
	TaskError(taskID string) string

	// MarkProgress moves a started task to the PROGRESS state. No-op for
	// unknown or terminal tasks.
	MarkProgress(taskID string)

	// Revoke requests termination of a task: cancels its context and, if
	// the task has not reached a terminal state, marks it REVOKED.
	// Best-effort; returns false only for unknown task ids.
	Revoke(taskID string) bool

	// Release shuts down the queue's worker pool.
	Release()
}
