package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"vetscan/internal/domain"
)

// IngestJob references a document waiting to be processed. Only identifiers
// travel through the queue; the worker re-reads the PDF from object storage,
// so a crash between enqueue and processing loses nothing but time.
type IngestJob struct {
	DocumentID uuid.UUID
	OwnerID    string
}

// ProcessFunc runs the ingestion pipeline for one job.
type ProcessFunc func(ctx context.Context, job IngestJob)

// IngestQueueConfig holds ingest queue settings.
type IngestQueueConfig struct {
	Capacity       int
	Concurrency    int
	ProcessTimeout time.Duration
}

// IngestQueue decouples upload acceptance from document processing. Enqueue
// never blocks; a full queue is reported to the caller instead of stalling
// the upload request.
type IngestQueue struct {
	jobs chan IngestJob
	cfg  IngestQueueConfig
	wg   sync.WaitGroup
}

// NewIngestQueue creates a new IngestQueue.
func NewIngestQueue(cfg IngestQueueConfig) *IngestQueue {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 100
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = 5 * time.Minute
	}
	return &IngestQueue{
		jobs: make(chan IngestJob, cfg.Capacity),
		cfg:  cfg,
	}
}

// Enqueue submits a job without blocking.
func (q *IngestQueue) Enqueue(job IngestJob) error {
	select {
	case q.jobs <- job:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Len returns the number of jobs waiting for a worker slot.
func (q *IngestQueue) Len() int {
	return len(q.jobs)
}

// Start dispatches queued jobs to process until ctx is canceled. It blocks
// until all in-flight jobs have finished.
func (q *IngestQueue) Start(ctx context.Context, process ProcessFunc) {
	sem := make(chan struct{}, q.cfg.Concurrency)

	log.Printf("ingestQueue: started (capacity=%d, concurrency=%d, timeout=%s)",
		q.cfg.Capacity, q.cfg.Concurrency, q.cfg.ProcessTimeout)

	for {
		select {
		case <-ctx.Done():
			log.Printf("ingestQueue: shutting down, waiting for in-flight jobs...")
			q.wg.Wait()
			log.Printf("ingestQueue: shutdown complete")
			return
		case job := <-q.jobs:
			sem <- struct{}{} // acquire
			q.wg.Add(1)
			go func() {
				defer q.wg.Done()
				defer func() { <-sem }() // release

				// Use a fresh context independent of the dispatch context
				// so in-flight jobs complete even during shutdown.
				jobCtx, cancel := context.WithTimeout(context.Background(), q.cfg.ProcessTimeout)
				defer cancel()

				log.Printf("ingestQueue: dispatching document %s", job.DocumentID)
				process(jobCtx, job)
			}()
		}
	}
}
