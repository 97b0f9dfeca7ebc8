// Package parser defines the adapter contract shared by every source profile
// and the registry that maps a detected profile to its adapter.
package parser

import (
	"fjacquet/bank-ingest/internal/models"

	"github.com/google/uuid"
)

// Parser converts the raw bytes of one export into transaction candidates.
// Implementations never fail on a single malformed row: the row is dropped
// and counted in ParseResult.RowsSkipped. An error is returned only when the
// file as a whole cannot be read.
type Parser interface {
	Profile() models.Profile
	Parse(raw []byte, userID string, importID uuid.UUID) (models.ParseResult, error)
}
