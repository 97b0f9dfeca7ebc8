package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fjacquet/bank-ingest/internal/logging"
	"fjacquet/bank-ingest/internal/models"

	"github.com/google/uuid"
)

// ImportWriter is the subset of the store usable while an import is claimed.
type ImportWriter interface {
	SetImportHints(ctx context.Context, id uuid.UUID, adapter models.AdapterKind, profile models.Profile) error
	SetImportCounts(ctx context.Context, id uuid.UUID, parsed, skipped int) error
	UpdateImportStatus(ctx context.Context, id uuid.UUID, status models.ImportStatus, message string) error
	BulkInsertTransactions(ctx context.Context, txs []models.Transaction) (int, error)
}

const importColumns = `id, user_id, original_name, storage_path, mime_type, size_bytes, checksum_sha256,
	adapter_hint, source_hint, status, error_message, rows_parsed, rows_skipped, created_at, updated_at`

func scanImport(row rowScanner) (models.FileImport, error) {
	var imp models.FileImport
	err := row.Scan(&imp.ID, &imp.UserID, &imp.OriginalName, &imp.StoragePath, &imp.MimeType,
		&imp.SizeBytes, &imp.Checksum, &imp.AdapterHint, &imp.SourceHint, &imp.Status,
		&imp.ErrorMessage, &imp.RowsParsed, &imp.RowsSkipped, &imp.CreatedAt, &imp.UpdatedAt)
	return imp, err
}

// CreateImport inserts a new import record. Empty hints default to unknown,
// an empty status to UPLOADED.
func (s *Store) CreateImport(ctx context.Context, imp *models.FileImport) error {
	if imp.ID == uuid.Nil {
		imp.ID = uuid.New()
	}
	if imp.AdapterHint == "" {
		imp.AdapterHint = models.AdapterUnknown
	}
	if imp.SourceHint == "" {
		imp.SourceHint = models.ProfileOther
	}
	if imp.Status == "" {
		imp.Status = models.ImportStatusUploaded
	}
	imp.CreatedAt = now()
	imp.UpdatedAt = imp.CreatedAt

	_, err := s.q.ExecContext(ctx, `
	INSERT INTO file_imports(`+importColumns+`)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		imp.ID, imp.UserID, imp.OriginalName, imp.StoragePath, imp.MimeType, imp.SizeBytes,
		imp.Checksum, imp.AdapterHint, imp.SourceHint, imp.Status, imp.ErrorMessage,
		imp.RowsParsed, imp.RowsSkipped, imp.CreatedAt, imp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create import: %w", err)
	}
	return nil
}

// GetImport returns one import or ErrNotFound.
func (s *Store) GetImport(ctx context.Context, id uuid.UUID) (*models.FileImport, error) {
	imp, err := scanImport(s.q.QueryRowContext(ctx,
		`SELECT `+importColumns+` FROM file_imports WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import %s: %w", id, err)
	}
	return &imp, nil
}

// ListImports returns a user's imports, oldest first.
func (s *Store) ListImports(ctx context.Context, userID string) ([]models.FileImport, error) {
	return s.listImports(ctx,
		`SELECT `+importColumns+` FROM file_imports WHERE user_id = ? ORDER BY created_at, rowid`, userID)
}

// ListImportsByStatus returns up to limit imports in status, oldest first.
func (s *Store) ListImportsByStatus(ctx context.Context, status models.ImportStatus, limit int) ([]models.FileImport, error) {
	return s.listImports(ctx,
		`SELECT `+importColumns+` FROM file_imports WHERE status = ? ORDER BY created_at, rowid LIMIT ?`, status, limit)
}

func (s *Store) listImports(ctx context.Context, query string, args ...any) ([]models.FileImport, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	defer rows.Close()

	var out []models.FileImport
	for rows.Next() {
		imp, err := scanImport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}
		out = append(out, imp)
	}
	return out, rows.Err()
}

// QueueImport moves an UPLOADED import to QUEUED. It reports false when the
// import was in any other state.
func (s *Store) QueueImport(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		`UPDATE file_imports SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		models.ImportStatusQueued, now(), id, models.ImportStatusUploaded)
	if err != nil {
		return false, fmt.Errorf("failed to queue import %s: %w", id, err)
	}
	return rowsAffected(res) == 1, nil
}

// UpdateImportStatus sets status and the error message.
func (s *Store) UpdateImportStatus(ctx context.Context, id uuid.UUID, status models.ImportStatus, message string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE file_imports SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status, message, now(), id)
	if err != nil {
		return fmt.Errorf("failed to update import %s: %w", id, err)
	}
	if rowsAffected(res) == 0 {
		return ErrNotFound
	}
	return nil
}

// SetImportHints records the detected adapter kind and profile.
func (s *Store) SetImportHints(ctx context.Context, id uuid.UUID, adapter models.AdapterKind, profile models.Profile) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE file_imports SET adapter_hint = ?, source_hint = ?, updated_at = ? WHERE id = ?`,
		adapter, profile, now(), id)
	if err != nil {
		return fmt.Errorf("failed to set hints on import %s: %w", id, err)
	}
	return nil
}

// SetImportCounts records how many rows were parsed and skipped.
func (s *Store) SetImportCounts(ctx context.Context, id uuid.UUID, parsed, skipped int) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE file_imports SET rows_parsed = ?, rows_skipped = ?, updated_at = ? WHERE id = ?`,
		parsed, skipped, now(), id)
	if err != nil {
		return fmt.Errorf("failed to set counts on import %s: %w", id, err)
	}
	return nil
}

// MarkImportFailed records a failure outside of any claim transaction, so it
// succeeds after the claim rolled back. A PARSED import is left untouched.
func (s *Store) MarkImportFailed(ctx context.Context, id uuid.UUID, message string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE file_imports SET status = ?, error_message = ?, updated_at = ? WHERE id = ? AND status <> ?`,
		models.ImportStatusFailed, message, now(), id, models.ImportStatusParsed)
	if err != nil {
		return fmt.Errorf("failed to mark import %s failed: %w", id, err)
	}
	return nil
}

// ClaimImport locks the database, moves a claimable import to PROCESSING
// and runs fn with a writer bound to the same transaction. The transaction
// commits when fn returns nil and rolls back otherwise, which also reverts
// the PROCESSING transition. ErrNotClaimable is returned without calling fn
// when the import is in any other state.
func (s *Store) ClaimImport(ctx context.Context, id uuid.UUID, fn func(ctx context.Context, imp *models.FileImport, w ImportWriter) error) error {
	return s.WithTx(ctx, func(tx *Store) error {
		imp, err := tx.GetImport(ctx, id)
		if err != nil {
			return err
		}
		if !imp.Status.Claimable() {
			s.logger.Debug("Import not claimable",
				logging.F(logging.FieldImportID, id),
				logging.F(logging.FieldStatus, imp.Status))
			return ErrNotClaimable
		}
		if err := tx.UpdateImportStatus(ctx, id, models.ImportStatusProcessing, ""); err != nil {
			return err
		}
		imp.Status = models.ImportStatusProcessing
		return fn(ctx, imp, tx)
	})
}
