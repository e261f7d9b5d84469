package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// WorkerQueue is an in-process TaskQueue backed by an ants worker pool.
// Task state lives in memory; durability of job progress is the job store's
// responsibility, which is what lets a restarted process resume status
// reporting from persisted checkpoints.
type WorkerQueue struct {
	pool          *ants.Pool
	taskTimeout   time.Duration
	taskRetention time.Duration
	logger        *slog.Logger

	mu     sync.RWMutex
	tasks  map[string]*taskEntry
	closed bool
}

var _ TaskQueue = (*WorkerQueue)(nil)

// defaultTaskRetention is how long terminal task state stays queryable
// before eviction.
const defaultTaskRetention = time.Hour

type taskEntry struct {
	state  TaskState
	err    error
	doneAt time.Time
	cancel context.CancelFunc
}

// QueueOption configures a WorkerQueue.
type QueueOption func(*WorkerQueue)

// WithTaskTimeout sets a hard per-task time budget. A task that exceeds it
// has its context cancelled and is recorded as FAILURE with a timeout error.
// Zero disables the budget.
func WithTaskTimeout(d time.Duration) QueueOption {
	return func(q *WorkerQueue) { q.taskTimeout = d }
}

// WithTaskRetention sets how long terminal task state stays queryable before
// it is evicted. Evicted tasks read as unknown, which status merging treats
// as a lost worker on non-terminal job records; the durable job record itself
// is unaffected. Zero or negative keeps state for the process lifetime.
func WithTaskRetention(d time.Duration) QueueOption {
	return func(q *WorkerQueue) { q.taskRetention = d }
}

// WithQueueLogger sets a custom logger.
func WithQueueLogger(logger *slog.Logger) QueueOption {
	return func(q *WorkerQueue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// NewWorkerQueue creates a queue with the given pool size. A size below one
// falls back to half the CPU count, minimum one.
func NewWorkerQueue(size int, opts ...QueueOption) (*WorkerQueue, error) {
	if size < 1 {
		size = runtime.NumCPU() / 2
		if size < 1 {
			size = 1
		}
	}

	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}

	q := &WorkerQueue{
		pool:          pool,
		taskRetention: defaultTaskRetention,
		tasks:         make(map[string]*taskEntry),
		logger:        slog.Default().With("component", "workerqueue"),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// Enqueue submits fn to the pool and returns its task id.
func (q *WorkerQueue) Enqueue(fn TaskFunc) (string, error) {
	taskID := uuid.NewString()

	ctx := context.Background()
	var cancel context.CancelFunc
	if q.taskTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, q.taskTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		cancel()
		return "", ErrQueueClosed
	}
	q.evictExpiredLocked()
	q.tasks[taskID] = &taskEntry{state: TaskPending, cancel: cancel}
	q.mu.Unlock()

	err := q.pool.Submit(func() {
		defer cancel()

		if !q.transition(taskID, TaskStarted) {
			// Revoked before the pool picked it up.
			return
		}

		runErr := fn(ctx)
		q.finish(taskID, runErr)
	})
	if err != nil {
		q.mu.Lock()
		delete(q.tasks, taskID)
		q.mu.Unlock()
		cancel()
		return "", fmt.Errorf("submit task: %w", err)
	}

	return taskID, nil
}

// State returns the current state of a task.
func (q *WorkerQueue) State(taskID string) (TaskState, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	entry, ok := q.tasks[taskID]
	if !ok {
		return "", false
	}
	return entry.state, true
}

// TaskError returns the recorded failure message of a task.
func (q *WorkerQueue) TaskError(taskID string) string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if entry, ok := q.tasks[taskID]; ok && entry.err != nil {
		return entry.err.Error()
	}
	return ""
}

// MarkProgress moves a running task into the PROGRESS state.
func (q *WorkerQueue) MarkProgress(taskID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if entry, ok := q.tasks[taskID]; ok && !entry.state.Terminal() {
		entry.state = TaskProgress
	}
}

// Revoke cancels a task's context and marks it REVOKED unless it already
// reached a terminal state.
func (q *WorkerQueue) Revoke(taskID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.tasks[taskID]
	if !ok {
		return false
	}
	entry.cancel()
	if !entry.state.Terminal() {
		entry.state = TaskRevoked
		entry.doneAt = time.Now()
	}
	return true
}

// Release shuts down the worker pool. Queued tasks that have not started
// will not run.
func (q *WorkerQueue) Release() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.pool.Release()
}

// transition moves a non-terminal task to the given state. Returns false if
// the task is unknown or already terminal.
func (q *WorkerQueue) transition(taskID string, state TaskState) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry, ok := q.tasks[taskID]
	if !ok || entry.state.Terminal() {
		return false
	}
	entry.state = state
	return true
}

// finish records the task outcome: REVOKED stays sticky, a context error
// after revocation is not double-reported as failure.
func (q *WorkerQueue) finish(taskID string, runErr error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.tasks[taskID]
	if !ok || entry.state.Terminal() {
		return
	}
	entry.doneAt = time.Now()
	if runErr != nil {
		entry.state = TaskFailure
		entry.err = runErr
		q.logger.Error("task failed", "task", taskID, "err", runErr)
		return
	}
	entry.state = TaskSuccess
}

// evictExpiredLocked drops terminal task entries past the retention window,
// bounding the state map over the process lifetime. Callers must hold the
// write lock.
func (q *WorkerQueue) evictExpiredLocked() {
	if q.taskRetention <= 0 {
		return
	}
	cutoff := time.Now().Add(-q.taskRetention)
	for id, entry := range q.tasks {
		if entry.state.Terminal() && !entry.doneAt.IsZero() && entry.doneAt.Before(cutoff) {
			delete(q.tasks, id)
		}
	}
}
