// Copyright 2025 Parcival Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package batch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parcival-labs/ragstore/batch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, opts ...batch.QueueOption) *batch.WorkerQueue {
	t.Helper()
	q, err := batch.NewWorkerQueue(2, opts...)
	require.NoError(t, err)
	t.Cleanup(q.Release)
	return q
}

func waitForState(t *testing.T, q *batch.WorkerQueue, taskID string, want batch.TaskState) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if state, ok := q.State(taskID); ok && state == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	state, _ := q.State(taskID)
	t.Fatalf("task %s never reached %s, last state %s", taskID, want, state)
}

func TestWorkerQueue_Success(t *testing.T) {
	q := newTestQueue(t)

	done := make(chan struct{})
	taskID, err := q.Enqueue(func(ctx context.Context) error {
		close(done)
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, taskID)

	<-done
	waitForState(t, q, taskID, batch.TaskSuccess)
	assert.Empty(t, q.TaskError(taskID))
}

func TestWorkerQueue_Failure(t *testing.T) {
	q := newTestQueue(t)

	taskID, err := q.Enqueue(func(ctx context.Context) error {
		return errors.New("task exploded")
	})
	require.NoError(t, err)

	waitForState(t, q, taskID, batch.TaskFailure)
	assert.Equal(t, "task exploded", q.TaskError(taskID))
}

func TestWorkerQueue_Progress(t *testing.T) {
	q := newTestQueue(t)

	started := make(chan struct{})
	release := make(chan struct{})
	taskID, err := q.Enqueue(func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, err)

	<-started
	q.MarkProgress(taskID)

	state, ok := q.State(taskID)
	require.True(t, ok)
	assert.Equal(t, batch.TaskProgress, state)

	close(release)
	waitForState(t, q, taskID, batch.TaskSuccess)

	// MarkProgress on a terminal task is a no-op.
	q.MarkProgress(taskID)
	state, _ = q.State(taskID)
	assert.Equal(t, batch.TaskSuccess, state)
}

func TestWorkerQueue_Revoke(t *testing.T) {
	q := newTestQueue(t)

	started := make(chan struct{})
	taskID, err := q.Enqueue(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	<-started
	assert.True(t, q.Revoke(taskID))

	state, ok := q.State(taskID)
	require.True(t, ok)
	assert.Equal(t, batch.TaskRevoked, state)

	// REVOKED is sticky: the context error from the returning task body
	// must not flip the state to FAILURE.
	time.Sleep(50 * time.Millisecond)
	state, _ = q.State(taskID)
	assert.Equal(t, batch.TaskRevoked, state)
}

func TestWorkerQueue_RevokeUnknown(t *testing.T) {
	q := newTestQueue(t)
	assert.False(t, q.Revoke("no-such-task"))
}

func TestWorkerQueue_UnknownTaskState(t *testing.T) {
	q := newTestQueue(t)

	_, ok := q.State("no-such-task")
	assert.False(t, ok)
	assert.Empty(t, q.TaskError("no-such-task"))
}

func TestWorkerQueue_TaskTimeout(t *testing.T) {
	q := newTestQueue(t, batch.WithTaskTimeout(20*time.Millisecond))

	taskID, err := q.Enqueue(func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})
	require.NoError(t, err)

	waitForState(t, q, taskID, batch.TaskFailure)
	assert.Contains(t, q.TaskError(taskID), "context deadline exceeded")
}

func TestWorkerQueue_EvictsExpiredTaskState(t *testing.T) {
	q := newTestQueue(t, batch.WithTaskRetention(time.Millisecond))

	taskID, err := q.Enqueue(func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	waitForState(t, q, taskID, batch.TaskSuccess)

	time.Sleep(10 * time.Millisecond)

	// Eviction runs on enqueue; a running or fresh task is untouched.
	fresh, err := q.Enqueue(func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	_, ok := q.State(taskID)
	assert.False(t, ok)
	_, ok = q.State(fresh)
	assert.True(t, ok)

	waitForState(t, q, fresh, batch.TaskSuccess)
}

func TestWorkerQueue_EnqueueAfterRelease(t *testing.T) {
	q, err := batch.NewWorkerQueue(1)
	require.NoError(t, err)
	q.Release()

	_, err = q.Enqueue(func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, batch.ErrQueueClosed)
}

func TestTaskState_Terminal(t *testing.T) {
	assert.True(t, batch.TaskSuccess.Terminal())
	assert.True(t, batch.TaskFailure.Terminal())
	assert.True(t, batch.TaskRevoked.Terminal())
	assert.False(t, batch.TaskPending.Terminal())
	assert.False(t, batch.TaskStarted.Terminal())
	assert.False(t, batch.TaskProgress.Terminal())
}
