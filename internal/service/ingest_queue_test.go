package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetscan/internal/domain"
	"vetscan/internal/service"
)

func TestIngestQueue_EnqueueFullReturnsError(t *testing.T) {
	q := service.NewIngestQueue(service.IngestQueueConfig{Capacity: 2})

	require.NoError(t, q.Enqueue(service.IngestJob{DocumentID: uuid.New()}))
	require.NoError(t, q.Enqueue(service.IngestJob{DocumentID: uuid.New()}))

	err := q.Enqueue(service.IngestJob{DocumentID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrQueueFull)
	assert.Equal(t, 2, q.Len())
}

func TestIngestQueue_ProcessesJobs(t *testing.T) {
	q := service.NewIngestQueue(service.IngestQueueConfig{Capacity: 10, Concurrency: 2})

	var mu sync.Mutex
	processed := make(map[uuid.UUID]bool)
	done := make(chan struct{}, 3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go q.Start(ctx, func(ctx context.Context, job service.IngestJob) {
		mu.Lock()
		processed[job.DocumentID] = true
		mu.Unlock()
		done <- struct{}{}
	})

	jobs := []service.IngestJob{
		{DocumentID: uuid.New()},
		{DocumentID: uuid.New()},
		{DocumentID: uuid.New()},
	}
	for _, job := range jobs {
		require.NoError(t, q.Enqueue(job))
	}

	for range jobs {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs to be processed")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, job := range jobs {
		assert.True(t, processed[job.DocumentID])
	}
}

func TestIngestQueue_ShutdownWaitsForInFlightJobs(t *testing.T) {
	q := service.NewIngestQueue(service.IngestQueueConfig{Capacity: 1, Concurrency: 1})

	started := make(chan struct{})
	finished := make(chan struct{})
	stopped := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		q.Start(ctx, func(ctx context.Context, job service.IngestJob) {
			close(started)
			time.Sleep(100 * time.Millisecond)
			close(finished)
		})
		close(stopped)
	}()

	require.NoError(t, q.Enqueue(service.IngestJob{DocumentID: uuid.New()}))

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("job never started")
	}

	cancel()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("queue did not stop")
	}

	// The dispatcher must not return before the in-flight job completed.
	select {
	case <-finished:
	default:
		t.Fatal("queue stopped before the in-flight job finished")
	}
}

func TestIngestQueue_JobContextOutlivesDispatchContext(t *testing.T) {
	q := service.NewIngestQueue(service.IngestQueueConfig{Capacity: 1, Concurrency: 1, ProcessTimeout: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	jobCtxErr := make(chan error, 1)
	stopped := make(chan struct{})

	go func() {
		q.Start(ctx, func(jobCtx context.Context, job service.IngestJob) {
			cancel()
			time.Sleep(50 * time.Millisecond)
			jobCtxErr <- jobCtx.Err()
		})
		close(stopped)
	}()

	require.NoError(t, q.Enqueue(service.IngestJob{DocumentID: uuid.New()}))

	select {
	case err := <-jobCtxErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("job never reported its context state")
	}
	<-stopped
}
