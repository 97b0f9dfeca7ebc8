package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := InitializeConfig("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "bank-ingest.db", cfg.Database.Path)
	assert.Equal(t, StorageLocal, cfg.Storage.Backend)
	assert.Equal(t, "uploads", cfg.Storage.Directory)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.Equal(t, 64, cfg.Queue.BufferSize)
	assert.Equal(t, 3, cfg.Queue.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Queue.PollInterval)
	assert.Equal(t, "windows-1250", cfg.Import.FallbackEncoding)
	assert.Equal(t, 4, cfg.Import.Concurrency)
}

func TestInitializeConfig_EnvironmentVariables(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BANK_INGEST_LOG_LEVEL", "debug")
	t.Setenv("BANK_INGEST_LOG_FORMAT", "json")
	t.Setenv("BANK_INGEST_DATABASE_PATH", "/tmp/other.db")
	t.Setenv("BANK_INGEST_STORAGE_BACKEND", "gcs")
	t.Setenv("BANK_INGEST_STORAGE_BUCKET", "statements")
	t.Setenv("BANK_INGEST_QUEUE_WORKERS", "8")
	t.Setenv("BANK_INGEST_QUEUE_POLL_INTERVAL", "250ms")

	cfg, err := InitializeConfig("")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
	assert.Equal(t, StorageGCS, cfg.Storage.Backend)
	assert.Equal(t, "statements", cfg.Storage.Bucket)
	assert.Equal(t, 8, cfg.Queue.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Queue.PollInterval)
}

func TestInitializeConfig_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "custom.yaml")
	content := `
log:
  level: warn
database:
  path: ledger.db
storage:
  directory: /srv/blobs
import:
  fallback_encoding: iso-8859-2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := InitializeConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "ledger.db", cfg.Database.Path)
	assert.Equal(t, "/srv/blobs", cfg.Storage.Directory)
	assert.Equal(t, "iso-8859-2", cfg.Import.FallbackEncoding)
}

func TestInitializeConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad log level", env: map[string]string{"BANK_INGEST_LOG_LEVEL": "loud"}},
		{name: "bad log format", env: map[string]string{"BANK_INGEST_LOG_FORMAT": "xml"}},
		{name: "unknown backend", env: map[string]string{"BANK_INGEST_STORAGE_BACKEND": "s3"}},
		{name: "gcs without bucket", env: map[string]string{"BANK_INGEST_STORAGE_BACKEND": "gcs"}},
		{name: "zero workers", env: map[string]string{"BANK_INGEST_QUEUE_WORKERS": "0"}},
		{name: "unknown encoding", env: map[string]string{"BANK_INGEST_IMPORT_FALLBACK_ENCODING": "klingon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := InitializeConfig("")
			assert.Error(t, err)
		})
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	loaded, err := LoadEnv()
	require.NoError(t, err)
	assert.Empty(t, loaded)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BANK_INGEST_TEST_KEY=from-dotenv\n"), 0600))
	t.Setenv("BANK_INGEST_TEST_KEY", "")
	os.Unsetenv("BANK_INGEST_TEST_KEY")

	loaded, err = LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, ".env", loaded)
	assert.Equal(t, "from-dotenv", GetEnv("BANK_INGEST_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("BANK_INGEST_MISSING_KEY", "fallback"))
}
