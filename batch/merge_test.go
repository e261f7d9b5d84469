package batch_test

import (
	"testing"

	"github.com/parcival-labs/ragstore/batch"
	"github.com/parcival-labs/ragstore/core"
	"github.com/stretchr/testify/assert"
)

func TestMergeStatus(t *testing.T) {
	tests := []struct {
		name       string
		stored     core.JobStatus
		queueState batch.TaskState
		taskErr    string
		want       core.JobStatus
		wantErrs   int
	}{
		{"terminal stored wins over failure", core.JobCompleted, batch.TaskFailure, "boom", core.JobCompleted, 0},
		{"terminal stored wins over revoked", core.JobFailed, batch.TaskRevoked, "", core.JobFailed, 0},
		{"queue failure overrides processing", core.JobProcessing, batch.TaskFailure, "worker died", core.JobFailed, 1},
		{"queue failure without message", core.JobProcessing, batch.TaskFailure, "", core.JobFailed, 0},
		{"queue revoked overrides pending", core.JobPending, batch.TaskRevoked, "", core.JobCancelled, 0},
		{"unknown task fails processing record", core.JobProcessing, batch.TaskUnknown, "", core.JobFailed, 1},
		{"unknown task fails pending record", core.JobPending, batch.TaskUnknown, "", core.JobFailed, 1},
		{"terminal stored wins over unknown task", core.JobCancelled, batch.TaskUnknown, "", core.JobCancelled, 0},
		{"queue success overrides lagging record", core.JobProcessing, batch.TaskSuccess, "", core.JobCompleted, 0},
		{"started promotes pending", core.JobPending, batch.TaskStarted, "", core.JobProcessing, 0},
		{"progress promotes pending", core.JobPending, batch.TaskProgress, "", core.JobProcessing, 0},
		{"started leaves processing alone", core.JobProcessing, batch.TaskStarted, "", core.JobProcessing, 0},
		{"pending queue state changes nothing", core.JobPending, batch.TaskPending, "", core.JobPending, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &core.BatchJob{Status: tt.stored}
			got := batch.MergeStatus(job, tt.queueState, tt.taskErr)

			assert.Same(t, job, got)
			assert.Equal(t, tt.want, got.Status)
			assert.Len(t, got.Errors, tt.wantErrs)
		})
	}
}

func TestMergeStatus_AppendsTaskError(t *testing.T) {
	job := &core.BatchJob{
		Status: core.JobProcessing,
		Errors: []string{"document 1 (a): timeout"},
	}

	batch.MergeStatus(job, batch.TaskFailure, "worker crashed")

	assert.Equal(t, core.JobFailed, job.Status)
	assert.Equal(t, []string{"document 1 (a): timeout", "worker crashed"}, job.Errors)
}
