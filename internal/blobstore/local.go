package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"fjacquet/bank-ingest/internal/fileutils"
	"fjacquet/bank-ingest/internal/models"
	"fjacquet/bank-ingest/internal/validation"
)

// LocalStore keeps blobs as files below a root directory.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory when missing.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := fileutils.EnsureDirectoryExists(root); err != nil {
		return nil, err
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) resolve(path string) (string, error) {
	if err := validation.ValidateStoragePath(path); err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(path)), nil
}

// ReadBytes implements Store.
func (s *LocalStore) ReadBytes(ctx context.Context, path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", path, err)
	}
	return data, nil
}

// WriteBytes implements Store.
func (s *LocalStore) WriteBytes(ctx context.Context, path string, data []byte) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := fileutils.WriteFileAtomic(full, data, models.PermissionBlobFile); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", path, err)
	}
	return nil
}
