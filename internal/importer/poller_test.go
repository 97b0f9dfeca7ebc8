package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"fjacquet/bank-ingest/internal/jobs"
	"fjacquet/bank-ingest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	published []*jobs.Job
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, job *jobs.Job) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, job)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestPoller_PublishesQueuedImportsOnce(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	var queued []*models.FileImport
	for _, name := range []string{"a.csv", "b.csv"} {
		imp, err := h.orch.Register(ctx, "user-1", name, []byte("x"))
		require.NoError(t, err)
		moved, err := h.store.QueueImport(ctx, imp.ID)
		require.NoError(t, err)
		require.True(t, moved)
		queued = append(queued, imp)
	}
	_, err := h.orch.Register(ctx, "user-1", "uploaded-only.csv", []byte("x"))
	require.NoError(t, err)

	pub := &recordingPublisher{}
	p := NewPoller(h.store, pub, time.Minute, nil)

	n, err := p.PollOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, pub.published, 2)
	assert.Equal(t, jobs.JobTypeParseImport, pub.published[0].Type)
	assert.Equal(t, queued[0].ID, pub.published[0].ImportID)
	assert.Equal(t, "user-1", pub.published[0].UserID)

	n, err = p.PollOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// once processed the import leaves QUEUED and is forgotten
	_, err = h.orch.Process(ctx, queued[0].ID)
	require.NoError(t, err)
	_, err = p.PollOnce(ctx)
	require.NoError(t, err)
	assert.NotContains(t, p.published, queued[0].ID)
	assert.Contains(t, p.published, queued[1].ID)
}

func TestPoller_PublishError(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	imp, err := h.orch.Register(ctx, "user-1", "a.csv", []byte("x"))
	require.NoError(t, err)
	_, err = h.store.QueueImport(ctx, imp.ID)
	require.NoError(t, err)

	p := NewPoller(h.store, &recordingPublisher{err: errors.New("queue full")}, time.Minute, nil)
	_, err = p.PollOnce(ctx)
	require.Error(t, err)

	// not remembered, so the next poll retries
	assert.Empty(t, p.published)
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- NewPoller(h.store, &recordingPublisher{}, 10*time.Millisecond, nil).Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}
