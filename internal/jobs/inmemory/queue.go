// Package inmemory provides channel-backed job queue and store
// implementations for single-process deployments and tests.
package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fjacquet/bank-ingest/internal/jobs"
	"fjacquet/bank-ingest/internal/logging"

	"github.com/google/uuid"
)

// QueueOptions configures a Queue.
type QueueOptions struct {
	// BufferSize determines how many jobs can be queued before Publish blocks.
	BufferSize int
	Workers    int
	// MaxRetries applies to jobs published without their own limit.
	MaxRetries int
	// RetryBackoff is multiplied by the retry count before a failed job is
	// published again.
	RetryBackoff time.Duration
}

// Queue is an in-memory implementation of job publisher and consumer.
// It uses Go channels for job distribution and is safe for concurrent use.
type Queue struct {
	jobChan   chan *jobs.Job
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.Store
	logger    logging.Logger
	opts      QueueOptions
	closed    bool
}

// NewQueue creates a new in-memory job queue. store may be nil.
func NewQueue(opts QueueOptions, store jobs.Store, logger logging.Logger) *Queue {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 100
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Queue{
		jobChan:   make(chan *jobs.Job, opts.BufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		logger:    logger,
		opts:      opts,
	}
}

// Publish implements jobs.Publisher.
func (q *Queue) Publish(ctx context.Context, job *jobs.Job) error {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return fmt.Errorf("queue is closed")
	}

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = q.opts.MaxRetries
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start implements jobs.Consumer. It starts the configured number of
// workers, each calling handler for one job at a time.
func (q *Queue) Start(ctx context.Context, handler jobs.Handler) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	q.logger.Debug("Job queue started", logging.F(logging.FieldCount, q.opts.Workers))
	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.Handler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.processJob(ctx, job, handler)
		}
	}
}

// processJob executes a single job with retry logic.
func (q *Queue) processJob(ctx context.Context, job *jobs.Job, handler jobs.Handler) {
	log := q.logger.WithFields(
		logging.F(logging.FieldJobID, job.ID),
		logging.F(logging.FieldJobType, job.Type),
		logging.F(logging.FieldUserID, job.UserID))

	now := time.Now()
	job.Status = jobs.JobStatusRunning
	job.StartedAt = &now
	q.save(ctx, job)

	err := handler(ctx, job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	switch {
	case err == nil:
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
		log.Debug("Job completed", logging.F(logging.FieldDuration, completedAt.Sub(now).Milliseconds()))
	case job.RetryCount < job.MaxRetries:
		job.Error = err.Error()
		job.RetryCount++
		job.Status = jobs.JobStatusRetrying
		backoff := time.Duration(job.RetryCount) * q.opts.RetryBackoff
		log.WithError(err).Warn("Job failed, retrying", logging.F(logging.FieldDuration, backoff.Milliseconds()))

		// saved before the timer owns the job
		q.save(ctx, job)
		time.AfterFunc(backoff, func() {
			job.Status = jobs.JobStatusPending
			job.StartedAt = nil
			job.CompletedAt = nil
			if err := q.Publish(ctx, job); err != nil {
				log.WithError(err).Warn("Failed to re-enqueue job")
			}
		})
		return
	default:
		job.Error = err.Error()
		job.Status = jobs.JobStatusFailed
		log.WithError(err).Error("Job failed")
	}

	q.save(ctx, job)
}

func (q *Queue) save(ctx context.Context, job *jobs.Job) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveJob(ctx, job); err != nil {
		q.logger.WithError(err).Warn("Failed to save job state", logging.F(logging.FieldJobID, job.ID))
	}
}

// Stop implements jobs.Consumer. It stops the queue and waits for in-flight
// jobs to complete. Jobs still buffered are dropped.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements jobs.Publisher.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var (
	_ jobs.Publisher = (*Queue)(nil)
	_ jobs.Consumer  = (*Queue)(nil)
)
