package container

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/bank-ingest/internal/config"
	"fjacquet/bank-ingest/internal/logging"
	"fjacquet/bank-ingest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const otpStatement = "1234567890123456;T;1500,00;HUF;20240105;20240105;;;LIDL;BEVASARLAS\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("BANK_INGEST_DATABASE_PATH", filepath.Join(dir, "bank.db"))
	t.Setenv("BANK_INGEST_STORAGE_DIRECTORY", filepath.Join(dir, "uploads"))
	t.Setenv("BANK_INGEST_QUEUE_WORKERS", "2")

	cfg, err := config.InitializeConfig("")
	require.NoError(t, err)
	return cfg
}

func TestNewContainer_NilConfig(t *testing.T) {
	_, err := NewContainer(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration cannot be nil")
}

func TestNewContainer_InvalidEncoding(t *testing.T) {
	cfg := testConfig(t)
	cfg.Import.FallbackEncoding = "klingon"

	_, err := NewContainer(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewContainer_Wiring(t *testing.T) {
	cfg := testConfig(t)
	logger := logging.NewMockLogger()

	c, err := NewContainer(context.Background(), cfg, WithLogger(logger))
	require.NoError(t, err)
	defer func() { assert.NoError(t, c.Close()) }()

	assert.Same(t, cfg, c.GetConfig())
	assert.Equal(t, logging.Logger(logger), c.GetLogger())
	assert.NotNil(t, c.GetStore())
	assert.NotNil(t, c.GetBlobStore())
	assert.NotNil(t, c.GetDetector())
	assert.NotNil(t, c.GetImporter())
	assert.NotNil(t, c.GetPoller())
	assert.NotNil(t, c.GetDeduplicator())
	assert.NotNil(t, c.GetEngine())
	assert.NotNil(t, c.GetSeeder())
	assert.NotNil(t, c.GetJobStore())
	assert.ElementsMatch(t, []models.Profile{models.ProfileOTP, models.ProfileRevolut}, c.GetParsers().Profiles())

	assert.Error(t, c.StartWorkers(context.Background()))
}

func TestContainer_InlinePipeline(t *testing.T) {
	c, err := NewContainer(context.Background(), testConfig(t), WithLogger(logging.NewMockLogger()))
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	_, err = c.GetSeeder().SeedDefaults(ctx, "user-1")
	require.NoError(t, err)

	imp, err := c.GetImporter().Register(ctx, "user-1", "otp.csv", []byte(otpStatement))
	require.NoError(t, err)
	require.NoError(t, c.GetImporter().Enqueue(ctx, imp.ID))

	got, err := c.GetStore().GetImport(ctx, imp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusParsed, got.Status)

	txs, err := c.GetStore().ListTransactions(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.NotNil(t, txs[0].CategoryID)
}

func TestContainer_AsyncPipeline(t *testing.T) {
	c, err := NewContainer(context.Background(), testConfig(t), WithLogger(logging.NewMockLogger()), WithAsyncQueue())
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.StartWorkers(ctx))

	imp, err := c.GetImporter().Register(ctx, "user-1", "otp.csv", []byte(otpStatement))
	require.NoError(t, err)
	require.NoError(t, c.GetImporter().Enqueue(ctx, imp.ID))

	require.Eventually(t, func() bool {
		got, err := c.GetStore().GetImport(ctx, imp.ID)
		return err == nil && got.Status == models.ImportStatusParsed
	}, 5*time.Second, 20*time.Millisecond)
}
