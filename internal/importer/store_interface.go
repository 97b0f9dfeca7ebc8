package importer

import (
	"context"

	"fjacquet/bank-ingest/internal/models"
	"fjacquet/bank-ingest/internal/store"

	"github.com/google/uuid"
)

// Repository is the import persistence the orchestrator drives.
type Repository interface {
	CreateImport(ctx context.Context, imp *models.FileImport) error
	GetImport(ctx context.Context, id uuid.UUID) (*models.FileImport, error)
	QueueImport(ctx context.Context, id uuid.UUID) (bool, error)
	ListImportsByStatus(ctx context.Context, status models.ImportStatus, limit int) ([]models.FileImport, error)

	// ClaimImport runs fn while the import is exclusively held in PROCESSING.
	ClaimImport(ctx context.Context, id uuid.UUID, fn func(ctx context.Context, imp *models.FileImport, w store.ImportWriter) error) error

	// MarkImportFailed must work outside any aborted claim.
	MarkImportFailed(ctx context.Context, id uuid.UUID, message string) error
}

var _ Repository = (*store.Store)(nil)
