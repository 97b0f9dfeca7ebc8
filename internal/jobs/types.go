// Package jobs models the follow-on work of the ingestion pipeline as
// explicit jobs with an id, a status and an idempotent handler.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeParseImport parses one queued file import.
	JobTypeParseImport JobType = "parse_import"
	// JobTypeDeduplicate removes duplicate transactions of one user.
	JobTypeDeduplicate JobType = "deduplicate"
	// JobTypeApplyRules categorizes the uncategorized transactions of one user.
	JobTypeApplyRules JobType = "apply_rules"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// DefaultMaxRetries is applied to jobs published without a retry limit.
const DefaultMaxRetries = 3

// ErrJobNotFound is returned by stores for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// Job is one unit of pipeline work. Every handler is safe to run more than
// once for the same job.
type Job struct {
	ID     string
	Type   JobType
	UserID string
	// ImportID is set for parse jobs only.
	ImportID uuid.UUID

	Status      JobStatus
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	Error       string
	RetryCount  int
	MaxRetries  int
}

func newJob(jobType JobType, userID string) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		UserID:    userID,
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
	}
}

// NewParseImportJob creates a job parsing importID for userID.
func NewParseImportJob(userID string, importID uuid.UUID) *Job {
	j := newJob(JobTypeParseImport, userID)
	j.ImportID = importID
	return j
}

// NewDeduplicateJob creates a deduplication job for userID.
func NewDeduplicateJob(userID string) *Job {
	return newJob(JobTypeDeduplicate, userID)
}

// NewApplyRulesJob creates a rule engine job for userID.
func NewApplyRulesJob(userID string) *Job {
	return newJob(JobTypeApplyRules, userID)
}

// Handler processes a job. A returned error marks the job failed, and
// queues that retry will run it again.
type Handler func(ctx context.Context, job *Job) error

// Publisher enqueues jobs. Publishing is fire-and-forget: a nil error means
// the job was accepted, not that it succeeded.
type Publisher interface {
	Publish(ctx context.Context, job *Job) error
	Close() error
}

// Consumer runs published jobs through a handler.
type Consumer interface {
	Start(ctx context.Context, handler Handler) error
	Stop(ctx context.Context) error
}

// Store records job state.
type Store interface {
	SaveJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, jobID string) (*Job, error)
	ListJobs(ctx context.Context, filter Filter) ([]*Job, error)
}

// Filter defines filtering criteria for listing jobs.
type Filter struct {
	UserID string
	Type   JobType
	Status JobStatus
	Limit  int
	Offset int
}

// Matches reports whether job passes the filter's field criteria.
func (f Filter) Matches(job *Job) bool {
	if f.UserID != "" && job.UserID != f.UserID {
		return false
	}
	if f.Type != "" && job.Type != f.Type {
		return false
	}
	if f.Status != "" && job.Status != f.Status {
		return false
	}
	return true
}
