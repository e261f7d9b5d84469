package batch

import "github.com/parcival-labs/ragstore/core"

// MergeStatus reconciles a persisted job record with the live task-queue
// state of its underlying task. Precedence is explicit:
//
//   - a terminal stored status is authoritative and never changes
//   - a terminal queue state overrides a lagging non-terminal record, so a
//     worker that died mid-job surfaces as failed instead of staying
//     "processing" forever
//   - TaskUnknown on a non-terminal record means the worker is gone and will
//     never write a terminal state; the job is reported failed
//   - non-terminal queue states only promote pending to processing
//
// The record is modified in place and returned for convenience.
func MergeStatus(job *core.BatchJob, state TaskState, taskErr string) *core.BatchJob {
	if job.Status.Terminal() {
		return job
	}

	switch state {
	case TaskFailure:
		job.Status = core.JobFailed
		if taskErr != "" {
			job.Errors = append(job.Errors, taskErr)
		}
	case TaskRevoked:
		job.Status = core.JobCancelled
	case TaskUnknown:
		job.Status = core.JobFailed
		job.Errors = append(job.Errors, "job interrupted: worker state lost before completion")
	case TaskSuccess:
		// The worker writes the terminal record itself; if the record
		// lags behind the queue, reflect completion.
		job.Status = core.JobCompleted
	case TaskStarted, TaskProgress:
		if job.Status == core.JobPending {
			job.Status = core.JobProcessing
		}
	}
	return job
}
