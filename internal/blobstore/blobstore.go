// Package blobstore holds the raw bytes of uploaded statement files, keyed by
// a relative storage path.
package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no blob exists at a path.
var ErrNotFound = errors.New("blob not found")

// Store reads and writes blobs.
type Store interface {
	ReadBytes(ctx context.Context, path string) ([]byte, error)
	WriteBytes(ctx context.Context, path string, data []byte) error
}

var (
	_ Store = (*LocalStore)(nil)
	_ Store = (*GCSStore)(nil)
)
