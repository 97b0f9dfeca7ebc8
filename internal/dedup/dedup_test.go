package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"fjacquet/bank-ingest/internal/jobs"
	"fjacquet/bank-ingest/internal/logging"
	"fjacquet/bank-ingest/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	txs       []models.Transaction
	listErr   error
	deleteErr error
}

func (r *fakeRepo) ListTransactions(_ context.Context, userID string) ([]models.Transaction, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []models.Transaction
	for _, tx := range r.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *fakeRepo) DeleteTransactions(_ context.Context, ids []uuid.UUID) (int, error) {
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	drop := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.txs[:0]
	deleted := 0
	for _, tx := range r.txs {
		if drop[tx.ID] {
			deleted++
			continue
		}
		kept = append(kept, tx)
	}
	r.txs = kept
	return deleted, nil
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func tx(userID string, date *time.Time, amount, desc, counterparty string) models.Transaction {
	return models.Transaction{
		ID:           uuid.New(),
		UserID:       userID,
		BookingDate:  date,
		Amount:       decimal.RequireFromString(amount),
		Currency:     "HUF",
		Description:  desc,
		Counterparty: counterparty,
	}
}

func TestFingerprint(t *testing.T) {
	base := tx("u1", day(2024, 1, 5), "-1500", "BEVASARLAS", "LIDL")

	tests := []struct {
		name   string
		mutate func(*models.Transaction)
		same   bool
	}{
		{"identical", func(*models.Transaction) {}, true},
		{"different currency", func(t *models.Transaction) { t.Currency = "EUR" }, true},
		{"different reference", func(t *models.Transaction) { t.Reference = "REF-1" }, true},
		{"different value date", func(t *models.Transaction) { t.ValueDate = day(2024, 1, 9) }, true},
		{"padded description", func(t *models.Transaction) { t.Description = "  BEVASARLAS " }, true},
		{"padded counterparty", func(t *models.Transaction) { t.Counterparty = "LIDL\t" }, true},
		{"same amount other scale", func(t *models.Transaction) { t.Amount = decimal.RequireFromString("-1500.000") }, true},
		{"different id", func(t *models.Transaction) { t.ID = uuid.New() }, true},
		{"different user", func(t *models.Transaction) { t.UserID = "u2" }, false},
		{"different date", func(t *models.Transaction) { t.BookingDate = day(2024, 1, 6) }, false},
		{"unknown date", func(t *models.Transaction) { t.BookingDate = nil }, false},
		{"different amount", func(t *models.Transaction) { t.Amount = decimal.RequireFromString("-1500.01") }, false},
		{"different description case", func(t *models.Transaction) { t.Description = "bevasarlas" }, false},
		{"different counterparty", func(t *models.Transaction) { t.Counterparty = "ALDI" }, false},
	}

	want := Fingerprint(base)
	assert.Len(t, want, 64)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base
			tt.mutate(&other)
			if tt.same {
				assert.Equal(t, want, Fingerprint(other))
			} else {
				assert.NotEqual(t, want, Fingerprint(other))
			}
		})
	}
}

func TestDeduplicate_KeepsFirstOccurrence(t *testing.T) {
	ctx := context.Background()
	first := tx("u1", day(2024, 1, 5), "-1500", "BEVASARLAS", "LIDL")
	second := tx("u1", day(2024, 1, 5), "-1500.00", "BEVASARLAS", "LIDL")
	second.Currency = "EUR"
	second.Reference = "other"
	third := tx("u1", day(2024, 1, 5), "-1500", "BEVASARLAS ", " LIDL")
	unique := tx("u1", day(2024, 1, 6), "-1500", "BEVASARLAS", "LIDL")
	foreign := tx("u2", day(2024, 1, 5), "-1500", "BEVASARLAS", "LIDL")

	repo := &fakeRepo{txs: []models.Transaction{first, second, unique, third, foreign}}
	d := New(repo, logging.NewMockLogger())

	deleted, err := d.Deduplicate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	remaining, err := repo.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, first.ID, remaining[0].ID)
	assert.Equal(t, unique.ID, remaining[1].ID)

	other, err := repo.ListTransactions(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, other, 1, "other users are untouched")
}

func TestDeduplicate_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{txs: []models.Transaction{
		tx("u1", day(2024, 1, 5), "-1", "a", "b"),
		tx("u1", day(2024, 1, 5), "-1", "a", "b"),
		tx("u1", nil, "-1", "a", "b"),
		tx("u1", nil, "-1", "a", "b"),
	}}
	d := New(repo, nil)

	deleted, err := d.Deduplicate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	deleted, err = d.Deduplicate(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestFindDuplicates_DoesNotDelete(t *testing.T) {
	ctx := context.Background()
	a := tx("u1", day(2024, 1, 5), "-1", "a", "b")
	b := tx("u1", day(2024, 1, 5), "-1", "a", "b")
	repo := &fakeRepo{txs: []models.Transaction{a, b}}

	dups, err := New(repo, nil).FindDuplicates(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, dups, 1)
	assert.Equal(t, a.ID, dups[0].KeptID)
	assert.Equal(t, b.ID, dups[0].Transaction.ID)
	assert.Equal(t, Fingerprint(a), dups[0].Fingerprint)
	assert.Len(t, repo.txs, 2)
}

func TestDeduplicate_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := New(&fakeRepo{listErr: errors.New("db down")}, nil).Deduplicate(ctx, "u1")
	assert.ErrorContains(t, err, "db down")

	repo := &fakeRepo{
		txs:       []models.Transaction{tx("u1", nil, "1", "a", ""), tx("u1", nil, "1", "a", "")},
		deleteErr: errors.New("locked"),
	}
	_, err = New(repo, nil).Deduplicate(ctx, "u1")
	assert.ErrorContains(t, err, "failed to delete duplicates")
}

func TestHandleJob(t *testing.T) {
	repo := &fakeRepo{txs: []models.Transaction{
		tx("u1", day(2024, 1, 5), "-1", "a", "b"),
		tx("u1", day(2024, 1, 5), "-1", "a", "b"),
	}}
	require.NoError(t, New(repo, nil).HandleJob(context.Background(), jobs.NewDeduplicateJob("u1")))
	assert.Len(t, repo.txs, 1)
}
