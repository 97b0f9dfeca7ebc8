// Package importer drives a statement file from upload to PARSED or FAILED:
// detection, parsing, bulk insertion and scheduling of the deduplication and
// rule passes.
package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"time"

	"fjacquet/bank-ingest/internal/blobstore"
	"fjacquet/bank-ingest/internal/detector"
	"fjacquet/bank-ingest/internal/jobs"
	"fjacquet/bank-ingest/internal/logging"
	"fjacquet/bank-ingest/internal/models"
	"fjacquet/bank-ingest/internal/parser"
	"fjacquet/bank-ingest/internal/store"
	"fjacquet/bank-ingest/internal/validation"

	"github.com/google/uuid"
)

// ErrWrongOwner is returned when an import is started for a user that does
// not own it. The import is left untouched.
var ErrWrongOwner = errors.New("import belongs to another user")

// Result is the outcome of one run of the import state machine.
type Result struct {
	ImportID uuid.UUID
	Status   models.ImportStatus
	Profile  models.Profile
	Parsed   int
	Skipped  int
	Inserted int
	Error    string
	// Claimed is false when the import was not in a claimable state and the
	// run did nothing.
	Claimed bool
}

// Orchestrator owns every FileImport status transition after upload.
type Orchestrator struct {
	repo      Repository
	blobs     blobstore.Store
	detector  *detector.Detector
	parsers   *parser.Registry
	publisher jobs.Publisher
	logger    logging.Logger
}

// New creates an Orchestrator. Follow-on jobs go to publisher.
func New(repo Repository, blobs blobstore.Store, det *detector.Detector, parsers *parser.Registry, publisher jobs.Publisher, logger logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Orchestrator{
		repo:      repo,
		blobs:     blobs,
		detector:  det,
		parsers:   parsers,
		publisher: publisher,
		logger:    logger,
	}
}

// Register stores an uploaded file under <user>/<import>/<name> and records
// it as UPLOADED.
func (o *Orchestrator) Register(ctx context.Context, userID, filename string, data []byte) (*models.FileImport, error) {
	if err := validation.ValidateUserID(userID); err != nil {
		return nil, err
	}
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("invalid file name %q", filename)
	}

	sum := sha256.Sum256(data)
	imp := &models.FileImport{
		ID:           uuid.New(),
		UserID:       userID,
		OriginalName: name,
		MimeType:     mimeType(name),
		SizeBytes:    int64(len(data)),
		Checksum:     hex.EncodeToString(sum[:]),
		Status:       models.ImportStatusUploaded,
	}
	imp.StoragePath = path.Join(userID, imp.ID.String(), name)
	if err := validation.ValidateStoragePath(imp.StoragePath); err != nil {
		return nil, err
	}

	if err := o.blobs.WriteBytes(ctx, imp.StoragePath, data); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if err := o.repo.CreateImport(ctx, imp); err != nil {
		return nil, err
	}

	o.logger.Info("Registered import",
		logging.F(logging.FieldUserID, userID),
		logging.F(logging.FieldImportID, imp.ID),
		logging.F(logging.FieldFile, name),
		logging.F(logging.FieldPath, imp.StoragePath))
	return imp, nil
}

// Enqueue moves an UPLOADED import to QUEUED and publishes its parse job.
// A QUEUED import is published again; any other state is left alone.
func (o *Orchestrator) Enqueue(ctx context.Context, importID uuid.UUID) error {
	imp, err := o.repo.GetImport(ctx, importID)
	if err != nil {
		return err
	}
	moved, err := o.repo.QueueImport(ctx, importID)
	if err != nil {
		return err
	}
	if !moved && imp.Status != models.ImportStatusQueued {
		o.logger.Debug("Import not enqueued",
			logging.F(logging.FieldImportID, importID),
			logging.F(logging.FieldStatus, imp.Status))
		return nil
	}

	if err := o.publisher.Publish(ctx, jobs.NewParseImportJob(imp.UserID, importID)); err != nil {
		return fmt.Errorf("failed to publish parse job: %w", err)
	}
	return nil
}

// Process reads the stored bytes of an import and runs StartImport.
func (o *Orchestrator) Process(ctx context.Context, importID uuid.UUID) (*Result, error) {
	imp, err := o.repo.GetImport(ctx, importID)
	if err != nil {
		return nil, err
	}
	if !imp.Status.Claimable() {
		o.logger.Debug("Skipping import",
			logging.F(logging.FieldImportID, importID),
			logging.F(logging.FieldStatus, imp.Status))
		return &Result{ImportID: importID, Status: imp.Status}, nil
	}

	raw, err := o.blobs.ReadBytes(ctx, imp.StoragePath)
	if err != nil && ctx.Err() != nil {
		return nil, fmt.Errorf("failed to read %s: %w", imp.StoragePath, err)
	}
	if err != nil {
		msg := fmt.Sprintf("failed to read %s: %v", imp.StoragePath, err)
		return o.fail(ctx, &Result{ImportID: importID}, msg)
	}
	return o.StartImport(ctx, raw, imp.UserID, importID)
}

// HandleJob is the jobs.Handler for parse_import jobs.
func (o *Orchestrator) HandleJob(ctx context.Context, job *jobs.Job) error {
	_, err := o.Process(ctx, job.ImportID)
	return err
}

// StartImport runs the state machine once for raw. The import is claimed in
// PROCESSING, detected, parsed, inserted and marked PARSED in a single
// transaction; deduplication and rule jobs are published after it commits.
// A failure after the claim leaves the import FAILED with the failure text.
// When the claim could not be taken, or ctx ended, the transaction is rolled
// back and an error is returned with the import still UPLOADED or QUEUED.
func (o *Orchestrator) StartImport(ctx context.Context, raw []byte, userID string, importID uuid.UUID) (*Result, error) {
	started := time.Now()
	log := o.logger.WithFields(
		logging.F(logging.FieldUserID, userID),
		logging.F(logging.FieldImportID, importID))

	res := &Result{ImportID: importID}
	err := o.repo.ClaimImport(ctx, importID, func(ctx context.Context, imp *models.FileImport, w store.ImportWriter) error {
		res.Claimed = true
		if imp.UserID != userID {
			return fmt.Errorf("%w: import %s, user %q", ErrWrongOwner, importID, userID)
		}

		profile, err := o.detector.Detect(raw)
		if err != nil {
			// terminal, committed together with the claim
			res.Status = models.ImportStatusFailed
			res.Error = err.Error()
			log.WithError(err).Warn("Format detection failed")
			return w.UpdateImportStatus(ctx, importID, models.ImportStatusFailed, err.Error())
		}
		res.Profile = profile
		if err := w.SetImportHints(ctx, importID, profile.AdapterKind(), profile); err != nil {
			return err
		}

		p, err := o.parsers.Get(profile)
		if err != nil {
			return err
		}
		parsed, err := p.Parse(raw, userID, importID)
		if err != nil {
			return fmt.Errorf("failed to parse %s file: %w", profile, err)
		}
		res.Parsed = len(parsed.Transactions)
		res.Skipped = parsed.RowsSkipped

		res.Inserted, err = w.BulkInsertTransactions(ctx, parsed.Transactions)
		if err != nil {
			return err
		}
		if err := w.SetImportCounts(ctx, importID, res.Parsed, res.Skipped); err != nil {
			return err
		}
		res.Status = models.ImportStatusParsed
		return w.UpdateImportStatus(ctx, importID, models.ImportStatusParsed, "")
	})

	switch {
	case errors.Is(err, store.ErrNotClaimable):
		imp, getErr := o.repo.GetImport(ctx, importID)
		if getErr != nil {
			return nil, getErr
		}
		res.Status = imp.Status
		return res, nil
	case errors.Is(err, store.ErrNotFound), errors.Is(err, ErrWrongOwner):
		return nil, err
	case err != nil && (!res.Claimed || ctx.Err() != nil):
		// rolled back: the import keeps its claimable status for redelivery
		log.WithError(err).Warn("Import attempt abandoned")
		return nil, fmt.Errorf("failed to process import %s: %w", importID, err)
	case err != nil:
		log.WithError(err).Error("Import failed")
		return o.fail(ctx, res, err.Error())
	}

	if res.Status == models.ImportStatusFailed {
		return res, nil
	}

	if res.Skipped > 0 {
		log.Warn("Rows skipped while parsing",
			logging.F(logging.FieldProfile, res.Profile),
			logging.F(logging.FieldSkipped, res.Skipped),
			logging.F(logging.FieldCount, res.Parsed))
	}
	log.Info("Import parsed",
		logging.F(logging.FieldProfile, res.Profile),
		logging.F(logging.FieldCount, res.Inserted),
		logging.F(logging.FieldDuration, time.Since(started).Milliseconds()))

	o.scheduleFollowOns(ctx, userID, log)
	return res, nil
}

// scheduleFollowOns publishes the deduplication and rule passes. Their
// outcome never changes the import status.
func (o *Orchestrator) scheduleFollowOns(ctx context.Context, userID string, log logging.Logger) {
	for _, job := range []*jobs.Job{jobs.NewDeduplicateJob(userID), jobs.NewApplyRulesJob(userID)} {
		if err := o.publisher.Publish(ctx, job); err != nil {
			log.WithError(err).Warn("Failed to publish follow-on job", logging.F(logging.FieldJobType, job.Type))
		}
	}
}

// fail records FAILED outside the claim transaction.
func (o *Orchestrator) fail(ctx context.Context, res *Result, message string) (*Result, error) {
	// the caller's context may be what failed
	if err := o.repo.MarkImportFailed(context.WithoutCancel(ctx), res.ImportID, message); err != nil {
		return nil, err
	}
	res.Status = models.ImportStatusFailed
	res.Error = message
	return res, nil
}

func mimeType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "text/csv"
}
