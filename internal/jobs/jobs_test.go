package jobs_test

import (
	"context"
	"errors"
	"testing"

	"fjacquet/bank-ingest/internal/jobs"
	"fjacquet/bank-ingest/internal/jobs/inmemory"
	"fjacquet/bank-ingest/internal/logging"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	importID := uuid.New()
	parse := jobs.NewParseImportJob("u1", importID)
	assert.Equal(t, jobs.JobTypeParseImport, parse.Type)
	assert.Equal(t, importID, parse.ImportID)
	assert.Equal(t, jobs.JobStatusPending, parse.Status)
	assert.NotEmpty(t, parse.ID)
	assert.False(t, parse.CreatedAt.IsZero())

	assert.Equal(t, jobs.JobTypeDeduplicate, jobs.NewDeduplicateJob("u1").Type)
	assert.Equal(t, jobs.JobTypeApplyRules, jobs.NewApplyRulesJob("u1").Type)
	assert.NotEqual(t, jobs.NewApplyRulesJob("u1").ID, jobs.NewApplyRulesJob("u1").ID)
}

func TestFilter_Matches(t *testing.T) {
	job := jobs.NewDeduplicateJob("u1")
	assert.True(t, jobs.Filter{}.Matches(job))
	assert.True(t, jobs.Filter{UserID: "u1", Type: jobs.JobTypeDeduplicate, Status: jobs.JobStatusPending}.Matches(job))
	assert.False(t, jobs.Filter{UserID: "u2"}.Matches(job))
	assert.False(t, jobs.Filter{Type: jobs.JobTypeApplyRules}.Matches(job))
	assert.False(t, jobs.Filter{Status: jobs.JobStatusFailed}.Matches(job))
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()
	d := jobs.NewDispatcher()

	var handled []jobs.JobType
	d.Register(jobs.JobTypeDeduplicate, func(_ context.Context, job *jobs.Job) error {
		handled = append(handled, job.Type)
		return nil
	})
	d.Register(jobs.JobTypeApplyRules, func(_ context.Context, job *jobs.Job) error {
		return errors.New("rules failed")
	})

	require.NoError(t, d.Handle(ctx, jobs.NewDeduplicateJob("u1")))
	assert.EqualError(t, d.Handle(ctx, jobs.NewApplyRulesJob("u1")), "rules failed")
	assert.ErrorContains(t, d.Handle(ctx, jobs.NewParseImportJob("u1", uuid.New())), "no handler registered")
	assert.Equal(t, []jobs.JobType{jobs.JobTypeDeduplicate}, handled)
}

func TestInlineQueue_RecordsOutcome(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewStore()
	mock := logging.NewMockLogger()
	d := jobs.NewDispatcher()
	d.Register(jobs.JobTypeDeduplicate, func(context.Context, *jobs.Job) error { return nil })
	d.Register(jobs.JobTypeApplyRules, func(context.Context, *jobs.Job) error { return errors.New("boom") })
	q := jobs.NewInlineQueue(d.Handle, store, mock)

	ok := jobs.NewDeduplicateJob("u1")
	require.NoError(t, q.Publish(ctx, ok))
	failing := jobs.NewApplyRulesJob("u1")
	require.NoError(t, q.Publish(ctx, failing), "handler errors are not returned to the publisher")

	got, err := store.GetJob(ctx, ok.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusCompleted, got.Status)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.CompletedAt)

	got, err = store.GetJob(ctx, failing.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)
	assert.True(t, mock.HasEntry("WARN", "Job failed"))

	require.NoError(t, q.Close())
}

func TestInlineQueue_AssignsMissingID(t *testing.T) {
	q := jobs.NewInlineQueue(func(context.Context, *jobs.Job) error { return nil }, nil, nil)
	job := &jobs.Job{Type: jobs.JobTypeDeduplicate, UserID: "u1"}
	require.NoError(t, q.Publish(context.Background(), job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, jobs.JobStatusCompleted, job.Status)
}
