package jobstore

import "context"

// Store is the key-value persistence contract for batch-job records.
// Implementations must be safe for concurrent use; field writes for a single
// job id must be atomic as a group.
type Store interface {
	// SetFields writes the given fields of a job record, creating the
	// record if it does not exist. Existing fields not named are kept.
	SetFields(ctx context.Context, jobID string, fields map[string]string) error

	// GetFields returns all fields of a job record.
	// Returns core.ErrNotFound if no record exists for the id.
	GetFields(ctx context.Context, jobID string) (map[string]string, error)

	// JobIDs enumerates the ids of all known job records, in no
	// particular order.
	JobIDs(ctx context.Context) ([]string, error)

	// Close releases the underlying store.
	Close() error
}
