package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"fjacquet/bank-ingest/internal/validation"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSOptions configures a GCSStore.
type GCSOptions struct {
	Bucket string
	// Endpoint overrides the API endpoint, e.g. for a local emulator.
	// Requests to a custom endpoint are sent unauthenticated.
	Endpoint        string
	CredentialsFile string
}

// GCSStore keeps blobs as objects in a Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a Cloud Storage client for opts.Bucket.
func NewGCSStore(ctx context.Context, opts GCSOptions) (*GCSStore, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: opts.Bucket}, nil
}

// ReadBytes implements Store.
func (s *GCSStore) ReadBytes(ctx context.Context, path string) ([]byte, error) {
	if err := validation.ValidateStoragePath(path); err != nil {
		return nil, err
	}
	r, err := s.client.Bucket(s.bucket).Object(path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: gs://%s/%s", ErrNotFound, s.bucket, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object: %w", err)
	}
	return data, nil
}

// WriteBytes implements Store.
func (s *GCSStore) WriteBytes(ctx context.Context, path string, data []byte) error {
	if err := validation.ValidateStoragePath(path); err != nil {
		return err
	}
	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write GCS object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS object writer: %w", err)
	}
	return nil
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
