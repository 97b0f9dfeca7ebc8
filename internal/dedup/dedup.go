// Package dedup removes exact-duplicate transactions of a user, across all of
// the user's imports, using a content fingerprint.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"fjacquet/bank-ingest/internal/jobs"
	"fjacquet/bank-ingest/internal/logging"
	"fjacquet/bank-ingest/internal/models"

	"github.com/google/uuid"
)

// Repository is the persistence the deduplicator needs.
type Repository interface {
	// ListTransactions returns the user's transactions in a stable order.
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
	DeleteTransactions(ctx context.Context, ids []uuid.UUID) (int, error)
}

// Duplicate is a transaction that repeats the fingerprint of an earlier one.
type Duplicate struct {
	Fingerprint string
	KeptID      uuid.UUID
	Transaction models.Transaction
}

// Deduplicator implements the deduplication pass.
type Deduplicator struct {
	repo   Repository
	logger logging.Logger
}

// New creates a Deduplicator.
func New(repo Repository, logger logging.Logger) *Deduplicator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Deduplicator{repo: repo, logger: logger}
}

// Fingerprint hashes user, booking date, amount, trimmed description and
// trimmed counterparty. Value date, reference and currency do not take part,
// so rows differing only there are duplicates. An unknown booking date
// hashes as the empty string.
func Fingerprint(tx models.Transaction) string {
	input := strings.Join([]string{
		tx.UserID,
		tx.BookingDateString(),
		tx.Amount.StringFixed(2),
		strings.TrimSpace(tx.Description),
		strings.TrimSpace(tx.Counterparty),
	}, "|")
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// FindDuplicates returns every transaction whose fingerprint was already seen
// earlier in the repository order. Nothing is deleted.
func (d *Deduplicator) FindDuplicates(ctx context.Context, userID string) ([]Duplicate, error) {
	txs, err := d.repo.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	kept := make(map[string]uuid.UUID, len(txs))
	var dups []Duplicate
	for _, tx := range txs {
		fp := Fingerprint(tx)
		if first, seen := kept[fp]; seen {
			dups = append(dups, Duplicate{Fingerprint: fp, KeptID: first, Transaction: tx})
			continue
		}
		kept[fp] = tx.ID
	}
	return dups, nil
}

// Deduplicate hard-deletes every duplicate of userID and returns how many
// rows were removed. A second run on unchanged data deletes nothing.
func (d *Deduplicator) Deduplicate(ctx context.Context, userID string) (int, error) {
	log := d.logger.WithField(logging.FieldUserID, userID)

	dups, err := d.FindDuplicates(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(dups) == 0 {
		log.Debug("No duplicates found")
		return 0, nil
	}

	ids := make([]uuid.UUID, len(dups))
	for i, dup := range dups {
		ids[i] = dup.Transaction.ID
		log.Debug("Duplicate transaction",
			logging.F(logging.FieldFingerprint, dup.Fingerprint),
			logging.F(logging.FieldKeptID, dup.KeptID),
			logging.F(logging.FieldTransaction, dup.Transaction.ID))
	}

	deleted, err := d.repo.DeleteTransactions(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete duplicates: %w", err)
	}
	log.Info("Removed duplicate transactions", logging.F(logging.FieldCount, deleted))
	return deleted, nil
}

// HandleJob is the jobs.Handler for deduplicate jobs.
func (d *Deduplicator) HandleJob(ctx context.Context, job *jobs.Job) error {
	_, err := d.Deduplicate(ctx, job.UserID)
	return err
}
