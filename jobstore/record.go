package jobstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/parcival-labs/ragstore/core"
)

// Field names of a persisted job record. The record is a flat string map so
// that single fields can be checkpointed independently.
const (
	FieldID        = "id"
	FieldStatus    = "status"
	FieldTotal     = "total"
	FieldProcessed = "processed"
	FieldFailed    = "failed"
	FieldProgress  = "progress"
	FieldErrors    = "errors"
	FieldTaskID    = "task_id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// timeLayout is the wire format for timestamp fields.
const timeLayout = time.RFC3339Nano

// FieldsFromJob flattens a BatchJob into its persisted field map.
func FieldsFromJob(job *core.BatchJob) map[string]string {
	errs, _ := json.Marshal(job.Errors)
	return map[string]string{
		FieldID:        job.ID,
		FieldStatus:    string(job.Status),
		FieldTotal:     strconv.Itoa(job.Total),
		FieldProcessed: strconv.Itoa(job.Processed),
		FieldFailed:    strconv.Itoa(job.Failed),
		FieldProgress:  strconv.FormatFloat(job.Progress, 'f', -1, 64),
		FieldErrors:    string(errs),
		FieldTaskID:    job.TaskID,
		FieldCreatedAt: job.CreatedAt.UTC().Format(timeLayout),
		FieldUpdatedAt: job.UpdatedAt.UTC().Format(timeLayout),
	}
}

// JobFromFields rebuilds a BatchJob from its persisted field map. Missing
// numeric fields default to zero; a malformed field is an error, since it
// means the record was corrupted rather than partially written.
func JobFromFields(fields map[string]string) (*core.BatchJob, error) {
	job := &core.BatchJob{
		ID:     fields[FieldID],
		Status: core.JobStatus(fields[FieldStatus]),
		TaskID: fields[FieldTaskID],
	}

	var err error
	if job.Total, err = intField(fields, FieldTotal); err != nil {
		return nil, err
	}
	if job.Processed, err = intField(fields, FieldProcessed); err != nil {
		return nil, err
	}
	if job.Failed, err = intField(fields, FieldFailed); err != nil {
		return nil, err
	}

	if raw, ok := fields[FieldProgress]; ok && raw != "" {
		if job.Progress, err = strconv.ParseFloat(raw, 64); err != nil {
			return nil, fmt.Errorf("job record field %q: %w", FieldProgress, err)
		}
	}

	if raw, ok := fields[FieldErrors]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &job.Errors); err != nil {
			return nil, fmt.Errorf("job record field %q: %w", FieldErrors, err)
		}
	}

	if job.CreatedAt, err = timeField(fields, FieldCreatedAt); err != nil {
		return nil, err
	}
	if job.UpdatedAt, err = timeField(fields, FieldUpdatedAt); err != nil {
		return nil, err
	}

	return job, nil
}

func intField(fields map[string]string, name string) (int, error) {
	raw, ok := fields[name]
	if !ok || raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("job record field %q: %w", name, err)
	}
	return v, nil
}

func timeField(fields map[string]string, name string) (time.Time, error) {
	raw, ok := fields[name]
	if !ok || raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("job record field %q: %w", name, err)
	}
	return t, nil
}
