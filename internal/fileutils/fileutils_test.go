package fileutils_test

import (
	"os"
	"path/filepath"
	"testing"

	"fjacquet/bank-ingest/internal/fileutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "test.txt")
	require.NoError(t, os.WriteFile(testFile, []byte("test"), 0600))

	assert.True(t, fileutils.FileExists(testFile))
	assert.False(t, fileutils.FileExists(filepath.Join(tmpDir, "nonexistent.txt")))
	assert.False(t, fileutils.FileExists(tmpDir))
}

func TestWriteFileAtomic(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "nested", "dir", "blob.csv")

	require.NoError(t, fileutils.WriteFileAtomic(target, []byte("first"), 0600))
	require.NoError(t, fileutils.WriteFileAtomic(target, []byte("second"), 0600))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestExpandInputs(t *testing.T) {
	tmpDir := t.TempDir()
	files := map[string]string{
		"a.csv":            "x",
		"b.CSV":            "x",
		"notes.md":         "x",
		"sub/c.txt":        "x",
		"sub/deeper/d.csv": "x",
	}
	for name, content := range files {
		p := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0600))
	}
	explicit := filepath.Join(tmpDir, "notes.md")

	got, err := fileutils.ExpandInputs([]string{tmpDir, explicit, filepath.Join(tmpDir, "a.csv")}, fileutils.StatementExtensions)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(tmpDir, "a.csv"),
		filepath.Join(tmpDir, "b.CSV"),
		explicit,
		filepath.Join(tmpDir, "sub", "c.txt"),
		filepath.Join(tmpDir, "sub", "deeper", "d.csv"),
	}, got)

	_, err = fileutils.ExpandInputs([]string{filepath.Join(tmpDir, "missing")}, nil)
	assert.Error(t, err)
}
