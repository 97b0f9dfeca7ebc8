// Package otpparser parses OTP Bank statement exports. Two layouts exist:
// the older one carries a Hungarian header row, the newer one is headerless
// with fixed column positions. Both are semicolon-delimited.
package otpparser

import (
	"fmt"
	"strings"
	"time"

	"fjacquet/bank-ingest/internal/common"
	"fjacquet/bank-ingest/internal/currencyutils"
	"fjacquet/bank-ingest/internal/dateutils"
	"fjacquet/bank-ingest/internal/logging"
	"fjacquet/bank-ingest/internal/models"
	"fjacquet/bank-ingest/internal/parsererror"
	"fjacquet/bank-ingest/internal/textutils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// Delimiter separates OTP columns in both layouts.
	Delimiter = ';'
	// HomeCurrency is used when a row has no currency.
	HomeCurrency = "HUF"

	// MinHeaderlessColumns is the narrowest headerless row accepted.
	MinHeaderlessColumns = 10

	// Direction codes of the headerless layout: terhelés (debit) and
	// jóváírás (credit).
	DirectionDebit  = "T"
	DirectionCredit = "J"

	parserName = "otp"
)

// Header markers: posting date and memo.
var headerMarkers = []string{"könyvelés", "közlemény"}

// Headerless column positions.
const (
	colDirection    = 1
	colAmount       = 2
	colCurrency     = 3
	colBookingDate  = 4
	colValueDate    = 5
	colCounterparty = 8
	colDescription  = 9
	// rows wider than this carry a reference in the second-to-last column
	referenceMinColumns = 14
)

// OTPHeaderRow represents a row of the headered export.
type OTPHeaderRow struct {
	BookingDate  string `csv:"Könyvelés dátuma"`
	Booking      string `csv:"Könyvelés"`
	ValueDate    string `csv:"Értéknap"`
	Amount       string `csv:"Összeg"`
	Currency     string `csv:"Devizanem"`
	Memo         string `csv:"Közlemény"`
	Remark       string `csv:"Megjegyzés"`
	Counterparty string `csv:"Ellenoldal neve"`
}

// MatchesHeader reports whether any header cell contains an OTP marker.
func MatchesHeader(header []string) bool {
	for _, cell := range common.NormalizeHeader(header) {
		for _, marker := range headerMarkers {
			if strings.Contains(cell, marker) {
				return true
			}
		}
	}
	return false
}

// parse dispatches on the layout of the first record.
func parse(text, userID string, importID uuid.UUID, logger logging.Logger) (models.ParseResult, error) {
	records := common.ReadRecords(text, Delimiter)
	if len(records.Rows) == 0 {
		return models.ParseResult{RowsSeen: records.Rejected, RowsSkipped: records.Rejected}, nil
	}

	var (
		result models.ParseResult
		err    error
	)
	if MatchesHeader(records.Rows[0]) {
		logger.Debug("Parsing headered OTP export")
		result, err = parseWithHeader(records.Rows[0], records.Rows[1:], userID, importID, logger)
	} else {
		logger.Debug("Parsing headerless OTP export")
		result = parseHeaderless(records.Rows, userID, importID, logger)
	}
	result.RowsSeen += records.Rejected
	result.RowsSkipped += records.Rejected
	return result, err
}

func parseWithHeader(header []string, body [][]string, userID string, importID uuid.UUID, logger logging.Logger) (models.ParseResult, error) {
	rows, err := common.UnmarshalRows[OTPHeaderRow](header, body)
	if err != nil {
		return models.ParseResult{}, fmt.Errorf("error reading OTP CSV: %w", err)
	}

	result := models.ParseResult{RowsSeen: len(rows)}
	for i, row := range rows {
		amount, err := currencyutils.ParseCommaDecimal(row.Amount)
		if err != nil {
			skipRow(logger, &result, &parsererror.ParseError{
				Parser: parserName, Row: i + 1, Field: "Összeg", Value: row.Amount, Err: err,
			})
			continue
		}

		date := row.BookingDate
		if strings.TrimSpace(date) == "" {
			date = row.Booking
		}
		description := strings.TrimSpace(row.Memo)
		if description == "" {
			description = strings.TrimSpace(row.Remark)
		}

		result.Transactions = append(result.Transactions, newTransaction(userID, importID, transactionFields{
			bookingDate:  dateutils.ParseCommon(date),
			valueDate:    dateutils.ParseCommon(row.ValueDate),
			amount:       amount,
			currency:     row.Currency,
			description:  description,
			counterparty: row.Counterparty,
		}))
	}
	return result, nil
}

func parseHeaderless(rows [][]string, userID string, importID uuid.UUID, logger logging.Logger) models.ParseResult {
	result := models.ParseResult{RowsSeen: len(rows)}
	for i, row := range rows {
		if len(row) < MinHeaderlessColumns {
			skipRow(logger, &result, &parsererror.ParseError{
				Parser: parserName, Row: i + 1, Field: "columns",
				Value: fmt.Sprintf("%d", len(row)),
				Err:   fmt.Errorf("need at least %d columns", MinHeaderlessColumns),
			})
			continue
		}

		amount, err := currencyutils.ParseCommaDecimal(row[colAmount])
		if err != nil {
			skipRow(logger, &result, &parsererror.ParseError{
				Parser: parserName, Row: i + 1, Field: "amount", Value: row[colAmount], Err: err,
			})
			continue
		}
		amount = applyDirection(row[colDirection], amount)

		var reference string
		if len(row) >= referenceMinColumns {
			reference = row[len(row)-2]
		}

		result.Transactions = append(result.Transactions, newTransaction(userID, importID, transactionFields{
			bookingDate:  dateutils.ParseCompact(row[colBookingDate]),
			valueDate:    dateutils.ParseCompact(row[colValueDate]),
			amount:       amount,
			currency:     row[colCurrency],
			description:  row[colDescription],
			counterparty: row[colCounterparty],
			reference:    reference,
		}))
	}
	return result
}

// applyDirection forces the sign from the direction code. Unknown codes keep
// the literal sign.
func applyDirection(code string, amount decimal.Decimal) decimal.Decimal {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case DirectionDebit:
		return amount.Abs().Neg()
	case DirectionCredit:
		return amount.Abs()
	default:
		return amount
	}
}

type transactionFields struct {
	bookingDate  *time.Time
	valueDate    *time.Time
	amount       decimal.Decimal
	currency     string
	description  string
	counterparty string
	reference    string
}

func newTransaction(userID string, importID uuid.UUID, f transactionFields) models.Transaction {
	description := strings.TrimSpace(f.description)
	return models.Transaction{
		ID:              uuid.New(),
		UserID:          userID,
		ImportID:        importID,
		BookingDate:     f.bookingDate,
		ValueDate:       f.valueDate,
		Amount:          f.amount,
		Currency:        currencyutils.NormalizeCurrency(f.currency, HomeCurrency),
		Description:     description,
		DescriptionNorm: textutils.NormalizeDescription(description),
		Counterparty:    strings.TrimSpace(f.counterparty),
		Reference:       strings.TrimSpace(f.reference),
	}
}

func skipRow(logger logging.Logger, result *models.ParseResult, err *parsererror.ParseError) {
	logger.Debug("Dropping malformed OTP row",
		logging.F(logging.FieldRow, err.Row),
		logging.F(logging.FieldReason, err.Error()))
	result.RowsSkipped++
}
