package dedupe

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/bank-ingest/cmd/root"
	"fjacquet/bank-ingest/internal/models"
	"fjacquet/bank-ingest/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	root.Init()
	root.Cmd.AddCommand(Cmd)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root.Cmd.SetOut(&buf)
	root.Cmd.SetErr(&buf)
	root.Cmd.SetArgs(args)
	err := root.Cmd.Execute()
	return buf.String(), err
}

func TestDedupeCommand(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	dbPath := filepath.Join(dir, "bank.db")
	t.Setenv("BANK_INGEST_DATABASE_PATH", dbPath)
	t.Setenv("BANK_INGEST_STORAGE_DIRECTORY", filepath.Join(dir, "uploads"))

	ctx := context.Background()
	st, err := store.Open(dbPath, nil)
	require.NoError(t, err)
	booked := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	var txs []models.Transaction
	for _, currency := range []string{"HUF", "EUR"} {
		imp := &models.FileImport{UserID: "alice", OriginalName: "s.csv", StoragePath: "alice/" + uuid.NewString() + "/s.csv", Checksum: "x"}
		require.NoError(t, st.CreateImport(ctx, imp))
		txs = append(txs, models.Transaction{
			ID: uuid.New(), UserID: "alice", ImportID: imp.ID, BookingDate: &booked,
			Amount: decimal.RequireFromString("-1500"), Currency: currency,
			Description: "BEVASARLAS", Counterparty: "LIDL",
		})
	}
	_, err = st.BulkInsertTransactions(ctx, txs)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, "dedupe", "--user", "alice", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "1 duplicates found")
	assert.Contains(t, out, txs[0].ID.String())

	out, err = execute(t, "dedupe", "--user", "alice", "--dry-run=false")
	require.NoError(t, err)
	assert.Contains(t, out, "1 duplicates removed")

	out, err = execute(t, "dedupe", "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "0 duplicates removed")
}
