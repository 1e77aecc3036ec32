package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForState(t *testing.T, q *Queue, id string, want State) Status {
	t.Helper()
	var status Status
	require.Eventually(t, func() bool {
		var ok bool
		status, ok = q.Status(id)
		return ok && status.State == want
	}, 2*time.Second, 5*time.Millisecond)
	return status
}

func TestQueueRunsJob(t *testing.T) {
	var ran int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Enqueue(Job{Type: "backup"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	status := waitForState(t, q, id, StateSucceeded)
	assert.Equal(t, 1, status.Attempts)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestQueueRetriesThenFails(t *testing.T) {
	var calls int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("database is locked")
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Enqueue(Job{Type: "backup"})
	require.NoError(t, err)

	status := waitForState(t, q, id, StateFailed)
	assert.Equal(t, "database is locked", status.Error)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})

	_, err := q.Enqueue(Job{})
	assert.Error(t, err)
}
