package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parcival-labs/ragstore/ai"
	"github.com/parcival-labs/ragstore/core"
	"github.com/parcival-labs/ragstore/jobstore"
)

// EmbeddingWriter is the slice of the vector store the orchestrator needs:
// an idempotent per-document upsert. Idempotence is what makes re-processing
// an un-checkpointed document after a worker restart safe.
type EmbeddingWriter interface {
	Store(ctx context.Context, rec core.EmbeddingRecord) error
}

// Config holds orchestrator tuning knobs.
type Config struct {
	// MaxRetries is the retry budget for one embedding call.
	MaxRetries int

	// RetryBaseDelay is the base delay for exponential backoff.
	RetryBaseDelay time.Duration

	// ListDefault caps ListJobs when the caller passes a non-positive limit.
	ListDefault int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:     3,
		RetryBaseDelay: time.Second,
		ListDefault:    50,
	}
}

// Orchestrator coordinates the chunker's output, the embedding provider and
// the vector store over document batches, tracking each batch as one job.
type Orchestrator struct {
	jobs     jobstore.Store
	queue    TaskQueue
	embedder ai.Embedder
	writer   EmbeddingWriter
	config   *Config
	logger   *slog.Logger
}

// NewOrchestrator creates a batch orchestrator.
func NewOrchestrator(jobs jobstore.Store, queue TaskQueue, embedder ai.Embedder, writer EmbeddingWriter, config *Config) (*Orchestrator, error) {
	if jobs == nil {
		return nil, ErrJobStoreRequired
	}
	if queue == nil {
		return nil, ErrQueueRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if writer == nil {
		return nil, ErrWriterRequired
	}
	if config == nil {
		config = DefaultConfig()
	}

	return &Orchestrator{
		jobs:     jobs,
		queue:    queue,
		embedder: embedder,
		writer:   writer,
		config:   config,
		logger:   slog.Default().With("component", "batch-orchestrator"),
	}, nil
}

// CreateJob persists a pending job record for the documents, hands the batch
// to the task queue and returns the job id immediately.
func (o *Orchestrator) CreateJob(ctx context.Context, docs []core.Document) (string, error) {
	jobID := uuid.NewString()
	now := time.Now().UTC()

	job := &core.BatchJob{
		ID:        jobID,
		Status:    core.JobPending,
		Total:     len(docs),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.jobs.SetFields(ctx, jobID, jobstore.FieldsFromJob(job)); err != nil {
		return "", fmt.Errorf("create job record: %w", err)
	}

	taskID, err := o.queue.Enqueue(func(taskCtx context.Context) error {
		return o.processBatch(taskCtx, docs, jobID)
	})
	if err != nil {
		return "", fmt.Errorf("enqueue job %s: %w", jobID, err)
	}

	if err := o.jobs.SetFields(ctx, jobID, map[string]string{jobstore.FieldTaskID: taskID}); err != nil {
		// The worker can still run; only the queue linkage is lost.
		o.logger.Error("failed to record task id", "job", jobID, "task", taskID, "err", err)
	}

	o.logger.Info("created batch job", "job", jobID, "documents", len(docs))
	return jobID, nil
}

// processBatch is the worker body for one job. Documents are processed
// sequentially in submission order; every document ends with a checkpoint
// write, which is also where cancellation is observed.
func (o *Orchestrator) processBatch(ctx context.Context, docs []core.Document, jobID string) error {
	taskID := o.taskIDOf(ctx, jobID)

	o.checkpoint(jobID, map[string]string{
		jobstore.FieldStatus:    string(core.JobProcessing),
		jobstore.FieldUpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})

	total := len(docs)
	processed := 0
	failed := 0
	var errs []string

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			// A revoked job ends cancelled; a job that blew its time
			// budget ends failed with a timeout error.
			status := core.JobCancelled
			if errors.Is(err, context.DeadlineExceeded) {
				status = core.JobFailed
				errs = append(errs, "job exceeded its time budget")
			}
			o.writeTerminal(jobID, status, processed, failed, total, errs)
			return err
		}

		docID := doc.ID
		if docID == "" {
			docID = uuid.NewString()
		}

		switch {
		case strings.TrimSpace(doc.Content) == "":
			// An empty document is a skip, not an error: it is counted
			// as failed but produces no error entry and no provider call.
			o.logger.Warn("empty content, skipping document", "job", jobID, "document", docID)
			failed++

		default:
			if err := o.embedAndStore(ctx, docID, doc); err != nil {
				errs = append(errs, fmt.Sprintf("document %d (%s): %v", i+1, docID, err))
				failed++
			} else {
				processed++
			}
		}

		progress := float64(i+1) / float64(total) * 100
		o.checkpoint(jobID, map[string]string{
			jobstore.FieldProcessed: strconv.Itoa(processed),
			jobstore.FieldFailed:    strconv.Itoa(failed),
			jobstore.FieldProgress:  strconv.FormatFloat(progress, 'f', -1, 64),
			jobstore.FieldUpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		})
		if taskID != "" {
			o.queue.MarkProgress(taskID)
		}
	}

	o.writeTerminal(jobID, core.JobCompleted, processed, failed, total, errs)
	o.logger.Info("batch job finished", "job", jobID, "processed", processed, "failed", failed)
	return nil
}

// embedAndStore runs the per-document pipeline: embed with retry, then
// upsert. Store errors are not retried here; the upsert is idempotent and
// the caller records the failure.
func (o *Orchestrator) embedAndStore(ctx context.Context, docID string, doc core.Document) error {
	var vector []float32
	err := RetryWithBackoff(ctx, func() error {
		v, embedErr := o.embedder.EmbedText(ctx, doc.Content)
		if embedErr != nil {
			return embedErr
		}
		vector = v
		return nil
	}, o.config.MaxRetries, o.config.RetryBaseDelay)
	if err != nil {
		return err
	}

	return o.writer.Store(ctx, core.EmbeddingRecord{
		DocumentID: docID,
		Content:    doc.Content,
		Embedding:  vector,
		Metadata:   doc.Metadata,
	})
}

// GetStatus returns the job record merged with live task-queue state.
// Returns core.ErrNotFound for unknown job ids.
func (o *Orchestrator) GetStatus(ctx context.Context, jobID string) (*core.BatchJob, error) {
	fields, err := o.jobs.GetFields(ctx, jobID)
	if err != nil {
		return nil, err
	}

	job, err := jobstore.JobFromFields(fields)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}

	if job.TaskID != "" {
		if state, ok := o.queue.State(job.TaskID); ok {
			MergeStatus(job, state, o.queue.TaskError(job.TaskID))
		} else {
			// The queue lost the task, typically across a process restart.
			// Without this merge a job orphaned mid-run would stay
			// "processing" forever.
			MergeStatus(job, TaskUnknown, "")
		}
	}
	return job, nil
}

// CancelJob requests termination of the job's task and force-writes the
// cancelled status. Best-effort: it never returns an error, only whether the
// cancellation was recorded. A worker that is mid-document will observe the
// cancellation at its next checkpoint.
func (o *Orchestrator) CancelJob(ctx context.Context, jobID string) bool {
	fields, err := o.jobs.GetFields(ctx, jobID)
	if err != nil {
		o.logger.Error("cancel: job lookup failed", "job", jobID, "err", err)
		return false
	}

	if taskID := fields[jobstore.FieldTaskID]; taskID != "" {
		o.queue.Revoke(taskID)
	}

	err = o.jobs.SetFields(ctx, jobID, map[string]string{
		jobstore.FieldStatus:    string(core.JobCancelled),
		jobstore.FieldUpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		o.logger.Error("cancel: status write failed", "job", jobID, "err", err)
		return false
	}

	o.logger.Info("cancelled batch job", "job", jobID)
	return true
}

// ListJobs resolves all known jobs, newest first, truncated to limit.
// A job that fails to resolve is logged and skipped, never fatal to the
// enumeration.
func (o *Orchestrator) ListJobs(ctx context.Context, limit int) ([]*core.BatchJob, error) {
	if limit <= 0 {
		limit = o.config.ListDefault
	}

	ids, err := o.jobs.JobIDs(ctx)
	if err != nil {
		return nil, err
	}

	jobs := make([]*core.BatchJob, 0, len(ids))
	for _, id := range ids {
		job, err := o.GetStatus(ctx, id)
		if err != nil {
			o.logger.Error("skipping unreadable job", "job", id, "err", err)
			continue
		}
		jobs = append(jobs, job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// taskIDOf reads the queue task id from the job record, so a worker resumed
// from persisted state can keep reporting queue progress.
func (o *Orchestrator) taskIDOf(ctx context.Context, jobID string) string {
	fields, err := o.jobs.GetFields(ctx, jobID)
	if err != nil {
		return ""
	}
	return fields[jobstore.FieldTaskID]
}

// checkpoint persists incremental progress. Checkpoint failures are logged
// and processing continues; the job outcome is not held hostage to a single
// state write.
func (o *Orchestrator) checkpoint(jobID string, fields map[string]string) {
	if err := o.jobs.SetFields(context.Background(), jobID, fields); err != nil {
		o.logger.Error("checkpoint write failed", "job", jobID, "err", err)
	}
}

// writeTerminal persists the final state of a job with completion counters.
func (o *Orchestrator) writeTerminal(jobID string, status core.JobStatus, processed, failed, total int, errs []string) {
	progress := 100.0
	if total > 0 {
		progress = float64(processed+failed) / float64(total) * 100
	}

	job := &core.BatchJob{
		Status:    status,
		Processed: processed,
		Failed:    failed,
		Progress:  progress,
		Errors:    errs,
	}

	fields := jobstore.FieldsFromJob(job)
	// Keep identity and creation fields untouched.
	delete(fields, jobstore.FieldID)
	delete(fields, jobstore.FieldTotal)
	delete(fields, jobstore.FieldTaskID)
	delete(fields, jobstore.FieldCreatedAt)
	fields[jobstore.FieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339Nano)

	o.checkpoint(jobID, fields)
}
