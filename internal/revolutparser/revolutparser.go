// Package revolutparser parses Revolut account statement exports.
// The export is comma-separated with a header row naming every column.
package revolutparser

import (
	"fmt"
	"strings"

	"fjacquet/bank-ingest/internal/common"
	"fjacquet/bank-ingest/internal/currencyutils"
	"fjacquet/bank-ingest/internal/dateutils"
	"fjacquet/bank-ingest/internal/logging"
	"fjacquet/bank-ingest/internal/models"
	"fjacquet/bank-ingest/internal/parsererror"
	"fjacquet/bank-ingest/internal/textutils"

	"github.com/google/uuid"
)

const (
	// Delimiter separates Revolut columns.
	Delimiter = ','
	// HomeCurrency is used when a row has no currency.
	HomeCurrency = "EUR"

	parserName = "revolut"
)

// DateFormats lists the accepted booking-date layouts in order.
// Revolut timestamps carry a time of day which is discarded.
var DateFormats = []string{
	dateutils.DateLayoutFull,
	dateutils.DateLayoutDotted,
	dateutils.DateLayoutISO,
	dateutils.DateLayoutEuropean,
}

// requiredHeaders must all appear in the normalized header line.
var requiredHeaders = []string{"completed date", "description", "amount", "currency"}

// RevolutCSVRow represents a single row in a Revolut CSV file
type RevolutCSVRow struct {
	Type          string `csv:"Type"`
	Product       string `csv:"Product"`
	StartedDate   string `csv:"Started Date"`
	CompletedDate string `csv:"Completed Date"`
	Date          string `csv:"Date"`
	Description   string `csv:"Description"`
	Amount        string `csv:"Amount"`
	Fee           string `csv:"Fee"`
	Currency      string `csv:"Currency"`
	State         string `csv:"State"`
	Balance       string `csv:"Balance"`
	Merchant      string `csv:"Merchant"`
	Reference     string `csv:"Reference"`
}

// MatchesHeader reports whether a header line, normalized with
// common.HeaderLine, names every column a Revolut export needs.
func MatchesHeader(headerLine string) bool {
	for _, key := range requiredHeaders {
		if !strings.Contains(headerLine, key) {
			return false
		}
	}
	return true
}

// parse converts decoded Revolut text into transactions, dropping rows that
// cannot be converted.
func parse(text, userID string, importID uuid.UUID, logger logging.Logger) (models.ParseResult, error) {
	records := common.ReadRecords(text, Delimiter)
	result := models.ParseResult{RowsSeen: records.Rejected, RowsSkipped: records.Rejected}
	if len(records.Rows) == 0 {
		return result, nil
	}

	header, body := records.Rows[0], records.Rows[1:]
	rows, err := common.UnmarshalRows[RevolutCSVRow](header, body)
	if err != nil {
		return result, fmt.Errorf("error reading Revolut CSV: %w", err)
	}

	result.RowsSeen += len(rows)
	for i, row := range rows {
		tx, err := convertRow(row, i+1, userID, importID)
		if err != nil {
			logger.Debug("Dropping malformed Revolut row",
				logging.F(logging.FieldRow, i+1),
				logging.F(logging.FieldReason, err.Error()))
			result.RowsSkipped++
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}

func convertRow(row RevolutCSVRow, rowNum int, userID string, importID uuid.UUID) (models.Transaction, error) {
	amount, err := currencyutils.ParseAmount(row.Amount)
	if err != nil {
		return models.Transaction{}, &parsererror.ParseError{
			Parser: parserName, Row: rowNum, Field: "Amount", Value: row.Amount, Err: err,
		}
	}

	date := row.CompletedDate
	if strings.TrimSpace(date) == "" {
		date = row.Date
	}

	counterparty := strings.TrimSpace(row.Merchant)
	if counterparty == "" {
		counterparty = strings.TrimSpace(row.Reference)
	}

	description := strings.TrimSpace(row.Description)
	return models.Transaction{
		ID:              uuid.New(),
		UserID:          userID,
		ImportID:        importID,
		BookingDate:     dateutils.ParseFirst(date, DateFormats),
		ValueDate:       dateutils.ParseFirst(row.StartedDate, DateFormats),
		Amount:          amount,
		Currency:        currencyutils.NormalizeCurrency(row.Currency, HomeCurrency),
		Description:     description,
		DescriptionNorm: textutils.NormalizeDescription(description),
		Counterparty:    counterparty,
	}, nil
}
