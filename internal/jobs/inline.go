package jobs

import (
	"context"
	"time"

	"fjacquet/bank-ingest/internal/logging"

	"github.com/google/uuid"
)

// InlineQueue runs each job synchronously inside Publish. Handler errors are
// logged and recorded, not returned, so callers see the same
// fire-and-forget contract as an asynchronous queue.
type InlineQueue struct {
	handler Handler
	store   Store
	logger  logging.Logger
}

// NewInlineQueue creates an inline queue. store may be nil.
func NewInlineQueue(handler Handler, store Store, logger logging.Logger) *InlineQueue {
	if logger == nil {
		logger = logging.Nop()
	}
	return &InlineQueue{handler: handler, store: store, logger: logger}
}

// Publish implements Publisher.
func (q *InlineQueue) Publish(ctx context.Context, job *Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	started := time.Now()
	job.Status = JobStatusRunning
	job.StartedAt = &started
	q.save(ctx, job)

	err := q.handler(ctx, job)

	completed := time.Now()
	job.CompletedAt = &completed
	if err != nil {
		job.Status = JobStatusFailed
		job.Error = err.Error()
		q.logger.WithError(err).Warn("Job failed",
			logging.F(logging.FieldJobID, job.ID),
			logging.F(logging.FieldJobType, job.Type),
			logging.F(logging.FieldUserID, job.UserID))
	} else {
		job.Status = JobStatusCompleted
		job.Error = ""
	}
	q.save(ctx, job)
	return nil
}

func (q *InlineQueue) save(ctx context.Context, job *Job) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveJob(ctx, job); err != nil {
		q.logger.WithError(err).Warn("Failed to save job state", logging.F(logging.FieldJobID, job.ID))
	}
}

// Close implements Publisher.
func (q *InlineQueue) Close() error {
	return nil
}

var _ Publisher = (*InlineQueue)(nil)
