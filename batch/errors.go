package batch

import "errors"

var (
	// ErrJobStoreRequired is returned when a job store is not provided.
	ErrJobStoreRequired = errors.New("job store required")

	// ErrQueueRequired is returned when a task queue is not provided.
	ErrQueueRequired = errors.New("task queue required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrWriterRequired is returned when an embedding writer is not provided.
	ErrWriterRequired = errors.New("embedding writer required")

	// ErrQueueClosed is returned when enqueueing on a released queue.
	ErrQueueClosed = errors.New("task queue is closed")

	// ErrInvalidMaxAttempts is returned for a non-positive retry budget.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be positive")
)
