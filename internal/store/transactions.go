package store

import (
	"context"
	"database/sql"
	"fmt"

	"fjacquet/bank-ingest/internal/models"

	"github.com/google/uuid"
)

// deleteChunk bounds the number of placeholders in one DELETE.
const deleteChunk = 500

const transactionColumns = `id, user_id, import_id, booking_date, value_date, amount, currency,
	description, description_norm, counterparty, reference, category_id, is_transfer, created_at`

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var (
		t           models.Transaction
		bookingDate sql.NullTime
		valueDate   sql.NullTime
		categoryID  uuid.NullUUID
	)
	err := row.Scan(&t.ID, &t.UserID, &t.ImportID, &bookingDate, &valueDate, &t.Amount, &t.Currency,
		&t.Description, &t.DescriptionNorm, &t.Counterparty, &t.Reference, &categoryID,
		&t.IsTransfer, &t.CreatedAt)
	if err != nil {
		return t, err
	}
	t.BookingDate = timePtr(bookingDate)
	t.ValueDate = timePtr(valueDate)
	if categoryID.Valid {
		id := categoryID.UUID
		t.CategoryID = &id
	}
	return t, nil
}

// BulkInsertTransactions inserts txs in one transaction. Rows whose id already
// exists are ignored. It returns the number of rows inserted.
func (s *Store) BulkInsertTransactions(ctx context.Context, txs []models.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	inserted := 0
	err := s.WithTx(ctx, func(tx *Store) error {
		stmt, err := tx.q.PrepareContext(ctx, `
		INSERT INTO transactions(`+transactionColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING;`)
		if err != nil {
			return fmt.Errorf("failed to prepare transaction insert: %w", err)
		}
		defer stmt.Close()

		createdAt := now()
		for i := range txs {
			t := &txs[i]
			if t.ID == uuid.Nil {
				t.ID = uuid.New()
			}
			t.CreatedAt = createdAt
			res, err := stmt.ExecContext(ctx,
				t.ID, t.UserID, t.ImportID, nullTime(t.BookingDate), nullTime(t.ValueDate),
				t.Amount.StringFixed(2), t.Currency, t.Description, t.DescriptionNorm,
				t.Counterparty, t.Reference, t.CategoryID, t.IsTransfer, t.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
			}
			inserted += rowsAffected(res)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListTransactions returns every transaction of userID in insertion order.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	return s.listTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY created_at, rowid`, userID)
}

// FindUncategorized returns the transactions of userID without a category,
// in insertion order.
func (s *Store) FindUncategorized(ctx context.Context, userID string) ([]models.Transaction, error) {
	return s.listTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = ? AND category_id IS NULL ORDER BY created_at, rowid`, userID)
}

// ListTransactionsByImport returns the transactions created by one import.
func (s *Store) ListTransactionsByImport(ctx context.Context, importID uuid.UUID) ([]models.Transaction, error) {
	return s.listTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE import_id = ? ORDER BY created_at, rowid`, importID)
}

func (s *Store) listTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountTransactions returns the number of transactions of userID.
func (s *Store) CountTransactions(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

// BulkAssignCategory writes every assignment in one transaction. A row that
// gained a category since the snapshot was taken is left alone. It returns
// the assignments that updated a row.
func (s *Store) BulkAssignCategory(ctx context.Context, assignments []models.CategoryAssignment) ([]models.CategoryAssignment, error) {
	if len(assignments) == 0 {
		return nil, nil
	}
	var applied []models.CategoryAssignment
	err := s.WithTx(ctx, func(tx *Store) error {
		stmt, err := tx.q.PrepareContext(ctx, `
		UPDATE transactions SET category_id = ?, is_transfer = (is_transfer OR ?)
		WHERE id = ? AND category_id IS NULL`)
		if err != nil {
			return fmt.Errorf("failed to prepare category assignment: %w", err)
		}
		defer stmt.Close()

		for _, a := range assignments {
			res, err := stmt.ExecContext(ctx, a.CategoryID, a.MarkTransfer, a.TransactionID)
			if err != nil {
				return fmt.Errorf("failed to assign category to %s: %w", a.TransactionID, err)
			}
			if rowsAffected(res) == 1 {
				applied = append(applied, a)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// DeleteTransactions hard-deletes ids in one transaction. Missing ids are
// ignored. It returns the number of rows deleted.
func (s *Store) DeleteTransactions(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	deleted := 0
	err := s.WithTx(ctx, func(tx *Store) error {
		for start := 0; start < len(ids); start += deleteChunk {
			end := min(start+deleteChunk, len(ids))
			args := make([]any, 0, end-start)
			for _, id := range ids[start:end] {
				args = append(args, id)
			}
			res, err := tx.q.ExecContext(ctx,
				`DELETE FROM transactions WHERE id IN (`+placeholders(len(args))+`)`, args...)
			if err != nil {
				return fmt.Errorf("failed to delete transactions: %w", err)
			}
			deleted += rowsAffected(res)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
