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

func TestQueueRunsRegisteredHandler(t *testing.T) {
	q := NewQueue("test", QueueConfig{Workers: 2})
	done := make(chan Job, 1)
	q.Handle("blob.delete", func(_ context.Context, job Job) error {
		done <- job
		return nil
	})
	q.Start(context.Background())
	defer q.Stop(context.Background())

	require.NoError(t, q.Enqueue(Job{Type: "blob.delete", Payload: "resources/a.pdf"}))

	select {
	case job := <-done:
		assert.NotEmpty(t, job.ID)
		assert.Equal(t, "resources/a.pdf", job.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	q := NewQueue("test", QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 5 * time.Millisecond})
	var calls int32
	done := make(chan struct{})
	q.Handle("flaky", func(_ context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("store unavailable")
		}
		close(done)
		return nil
	})
	q.Start(context.Background())
	defer q.Stop(context.Background())

	require.NoError(t, q.Enqueue(Job{Type: "flaky"}))

	select {
	case <-done:
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
}

func TestQueueRejectsUnknownTypeAndUnstarted(t *testing.T) {
	q := NewQueue("test", QueueConfig{})
	q.Handle("known", func(context.Context, Job) error { return nil })

	assert.Error(t, q.Enqueue(Job{Type: "known"}), "not started")

	q.Start(context.Background())
	defer q.Stop(context.Background())
	assert.Error(t, q.Enqueue(Job{Type: "unknown"}))
}

func TestQueueStopIsIdempotent(t *testing.T) {
	q := NewQueue("test", QueueConfig{})
	q.Stop(context.Background())
	q.Start(context.Background())
	q.Stop(context.Background())
	q.Stop(context.Background())
}

func TestQueueStopDrainsBufferedJobs(t *testing.T) {
	q := NewQueue("test", QueueConfig{Workers: 1, BufferSize: 8})
	var processed int32
	q.Handle("blob.delete", func(context.Context, Job) error {
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&processed, 1)
		return nil
	})
	q.Start(context.Background())
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{Type: "blob.delete"}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	q.Stop(ctx)

	assert.Equal(t, int32(5), atomic.LoadInt32(&processed))
	assert.ErrorIs(t, q.Enqueue(Job{Type: "blob.delete"}), ErrClosed)
}

func TestBackoffDoublesUpToCap(t *testing.T) {
	assert.Equal(t, time.Second, backoff(time.Second, 1))
	assert.Equal(t, 4*time.Second, backoff(time.Second, 3))
	assert.Equal(t, maxBackoff, backoff(time.Second, 20))
}
