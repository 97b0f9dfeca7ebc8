package models

import (
	"time"

	"fjacquet/bank-ingest/internal/dateutils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the canonical rendering of booking and value dates.
const DateLayout = dateutils.DateLayoutISO

// Transaction is one normalized ledger entry.
// Amount is signed: negative is an outflow, positive an inflow.
type Transaction struct {
	ID              uuid.UUID
	UserID          string
	ImportID        uuid.UUID
	BookingDate     *time.Time
	ValueDate       *time.Time
	Amount          decimal.Decimal
	Currency        string
	Description     string
	DescriptionNorm string
	Counterparty    string
	Reference       string
	CategoryID      *uuid.UUID
	IsTransfer      bool
	CreatedAt       time.Time
}

// BookingDateString returns the booking date as YYYY-MM-DD, or "" when unknown.
func (t Transaction) BookingDateString() string {
	return dateutils.ToISODate(t.BookingDate)
}

// Categorized reports whether a category is assigned.
func (t Transaction) Categorized() bool {
	return t.CategoryID != nil
}

// ParseResult is what an adapter produced from one file.
// RowsSeen counts data rows; RowsSkipped those dropped as malformed.
type ParseResult struct {
	Transactions []Transaction
	RowsSeen     int
	RowsSkipped  int
}
