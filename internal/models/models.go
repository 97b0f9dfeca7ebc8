// Package models provides the data structures used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// FileImport is one uploaded statement file and the state of its ingestion.
// Checksum and StoragePath are written once at creation.
type FileImport struct {
	ID           uuid.UUID
	UserID       string
	OriginalName string
	StoragePath  string
	MimeType     string
	SizeBytes    int64
	Checksum     string
	AdapterHint  AdapterKind
	SourceHint   Profile
	Status       ImportStatus
	ErrorMessage string
	RowsParsed   int
	RowsSkipped  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Category is a user-scoped (or default tenant) label.
// ReferenceCount is advisory and may drift under concurrent rule passes.
type Category struct {
	ID             uuid.UUID
	UserID         string
	Name           string
	Type           CategoryType
	ReferenceCount int
	CreatedAt      time.Time
}

// Rule is a categorization directive evaluated by the rule engine.
// Lower Priority wins.
type Rule struct {
	ID           uuid.UUID
	UserID       string
	Name         string
	Priority     int
	Enabled      bool
	MatchType    MatchType
	MatchValue   string
	CategoryID   *uuid.UUID
	MarkTransfer bool
	CreatedAt    time.Time
}

// CategoryAssignment is one pending category write produced by a rule pass.
type CategoryAssignment struct {
	TransactionID uuid.UUID
	CategoryID    uuid.UUID
	MarkTransfer  bool
}
