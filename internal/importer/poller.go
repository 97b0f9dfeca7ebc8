package importer

import (
	"context"
	"time"

	"fjacquet/bank-ingest/internal/jobs"
	"fjacquet/bank-ingest/internal/logging"
	"fjacquet/bank-ingest/internal/models"

	"github.com/google/uuid"
)

// DefaultPollBatch caps how many QUEUED imports one poll publishes.
const DefaultPollBatch = 100

// Poller publishes parse jobs for imports left in QUEUED, such as those
// enqueued by another process. Each import is published once while it
// stays QUEUED.
type Poller struct {
	repo      Repository
	publisher jobs.Publisher
	interval  time.Duration
	batch     int
	logger    logging.Logger

	published map[uuid.UUID]bool
}

// NewPoller creates a Poller that checks the database every interval.
func NewPoller(repo Repository, publisher jobs.Publisher, interval time.Duration, logger logging.Logger) *Poller {
	if logger == nil {
		logger = logging.Nop()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		batch:     DefaultPollBatch,
		logger:    logger,
		published: make(map[uuid.UUID]bool),
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.PollOnce(ctx); err != nil {
			p.logger.WithError(err).Warn("Poll failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// PollOnce publishes a parse job for every QUEUED import not published yet
// and returns how many it published.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	queued, err := p.repo.ListImportsByStatus(ctx, models.ImportStatusQueued, p.batch)
	if err != nil {
		return 0, err
	}

	still := make(map[uuid.UUID]bool, len(queued))
	count := 0
	for _, imp := range queued {
		still[imp.ID] = true
		if p.published[imp.ID] {
			continue
		}
		if err := p.publisher.Publish(ctx, jobs.NewParseImportJob(imp.UserID, imp.ID)); err != nil {
			return count, err
		}
		p.published[imp.ID] = true
		count++
	}
	// forget imports that left QUEUED
	for id := range p.published {
		if !still[id] {
			delete(p.published, id)
		}
	}

	if count > 0 {
		p.logger.Info("Published queued imports", logging.F(logging.FieldCount, count))
	}
	return count, nil
}
