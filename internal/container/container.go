// Package container provides dependency injection for the bank-ingest
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"context"
	"errors"
	"fmt"

	"fjacquet/bank-ingest/internal/blobstore"
	"fjacquet/bank-ingest/internal/categorizer"
	"fjacquet/bank-ingest/internal/config"
	"fjacquet/bank-ingest/internal/dedup"
	"fjacquet/bank-ingest/internal/detector"
	"fjacquet/bank-ingest/internal/importer"
	"fjacquet/bank-ingest/internal/jobs"
	"fjacquet/bank-ingest/internal/jobs/inmemory"
	"fjacquet/bank-ingest/internal/logging"
	"fjacquet/bank-ingest/internal/parser"
	"fjacquet/bank-ingest/internal/store"
	"fjacquet/bank-ingest/internal/textutils"
)

// Option customizes container construction.
type Option func(*options)

type options struct {
	logger logging.Logger
	async  bool
}

// WithLogger replaces the logger built from configuration.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithAsyncQueue routes jobs through the in-memory worker queue instead of
// running them inline. Call StartWorkers before publishing.
func WithAsyncQueue() Option {
	return func(o *options) { o.async = true }
}

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation: all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger logging.Logger
	config *config.Config

	store     *store.Store
	blobs     blobstore.Store
	gcs       *blobstore.GCSStore
	decoder   *textutils.Decoder
	detector  *detector.Detector
	parsers   *parser.Registry
	dedup     *dedup.Deduplicator
	engine    *categorizer.Engine
	seeder    *categorizer.Seeder
	importer  *importer.Orchestrator
	poller    *importer.Poller
	jobStore  *inmemory.Store
	publisher jobs.Publisher
	queue     *inmemory.Queue

	dispatcher *jobs.Dispatcher
}

// NewContainer creates and wires all application dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	}

	decoder, err := textutils.NewDecoder(cfg.Import.FallbackEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	st, err := store.Open(cfg.Database.Path, logger)
	if err != nil {
		return nil, err
	}

	c := &Container{
		logger:     logger,
		config:     cfg,
		store:      st,
		decoder:    decoder,
		detector:   detector.New(decoder, logger),
		parsers:    parser.DefaultRegistry(decoder, logger),
		dedup:      dedup.New(st, logger),
		engine:     categorizer.NewEngine(st, logger),
		jobStore:   inmemory.NewStore(),
		dispatcher: jobs.NewDispatcher(),
	}

	if err := c.openBlobStore(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	catalog, err := categorizer.DefaultCatalog()
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.seeder = categorizer.NewSeeder(st, catalog, logger)

	if o.async {
		c.queue = inmemory.NewQueue(inmemory.QueueOptions{
			BufferSize: cfg.Queue.BufferSize,
			Workers:    cfg.Queue.Workers,
			MaxRetries: cfg.Queue.MaxRetries,
		}, c.jobStore, logger)
		c.publisher = c.queue
	} else {
		c.publisher = jobs.NewInlineQueue(c.dispatcher.Handle, c.jobStore, logger)
	}

	c.importer = importer.New(st, c.blobs, c.detector, c.parsers, c.publisher, logger)
	c.poller = importer.NewPoller(st, c.publisher, cfg.Queue.PollInterval, logger)

	c.dispatcher.Register(jobs.JobTypeParseImport, c.importer.HandleJob)
	c.dispatcher.Register(jobs.JobTypeDeduplicate, c.dedup.HandleJob)
	c.dispatcher.Register(jobs.JobTypeApplyRules, c.engine.HandleJob)

	logger.Debug("Container initialized",
		logging.F("storage_backend", cfg.Storage.Backend),
		logging.F("fallback_encoding", decoder.FallbackName()),
		logging.F("async", o.async),
		logging.F("profiles", len(c.parsers.Profiles())))
	return c, nil
}

func (c *Container) openBlobStore(ctx context.Context) error {
	switch c.config.Storage.Backend {
	case config.StorageGCS:
		gcs, err := blobstore.NewGCSStore(ctx, blobstore.GCSOptions{
			Bucket:          c.config.Storage.Bucket,
			Endpoint:        c.config.Storage.Endpoint,
			CredentialsFile: c.config.Storage.CredentialsFile,
		})
		if err != nil {
			return err
		}
		c.gcs = gcs
		c.blobs = gcs
	default:
		local, err := blobstore.NewLocalStore(c.config.Storage.Directory)
		if err != nil {
			return err
		}
		c.blobs = local
	}
	return nil
}

// StartWorkers starts the asynchronous queue workers. It fails for a
// container built without WithAsyncQueue.
func (c *Container) StartWorkers(ctx context.Context) error {
	if c.queue == nil {
		return fmt.Errorf("container was built without an asynchronous queue")
	}
	return c.queue.Start(ctx, c.dispatcher.Handle)
}

// StopWorkers stops the asynchronous queue and waits for in-flight jobs
// until ctx is done. It is a no-op for an inline container.
func (c *Container) StopWorkers(ctx context.Context) error {
	if c.queue == nil {
		return nil
	}
	return c.queue.Stop(ctx)
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the relational store.
func (c *Container) GetStore() *store.Store {
	return c.store
}

// GetBlobStore returns the configured blob store.
func (c *Container) GetBlobStore() blobstore.Store {
	return c.blobs
}

// GetDetector returns the format detector.
func (c *Container) GetDetector() *detector.Detector {
	return c.detector
}

// GetParsers returns the adapter registry.
func (c *Container) GetParsers() *parser.Registry {
	return c.parsers
}

// GetImporter returns the import orchestrator.
func (c *Container) GetImporter() *importer.Orchestrator {
	return c.importer
}

// GetPoller returns the QUEUED import poller.
func (c *Container) GetPoller() *importer.Poller {
	return c.poller
}

// GetDeduplicator returns the deduplicator.
func (c *Container) GetDeduplicator() *dedup.Deduplicator {
	return c.dedup
}

// GetEngine returns the rule engine.
func (c *Container) GetEngine() *categorizer.Engine {
	return c.engine
}

// GetSeeder returns the default catalog seeder.
func (c *Container) GetSeeder() *categorizer.Seeder {
	return c.seeder
}

// GetJobStore returns the job status store.
func (c *Container) GetJobStore() jobs.Store {
	return c.jobStore
}

// Close stops the queue and releases the store and blob clients.
func (c *Container) Close() error {
	var errs []error
	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}
	if c.gcs != nil {
		errs = append(errs, c.gcs.Close())
	}
	errs = append(errs, c.store.Close())
	return errors.Join(errs...)
}
