// Package common provides the CSV plumbing shared by the statement parsers.
package common

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// Records is the result of a tolerant read of delimited text.
type Records struct {
	Rows [][]string
	// Rejected counts records the csv reader could not tokenize.
	Rejected int
}

func newReader(text string, comma rune) *csv.Reader {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	return r
}

// ReadRecords reads every record of text. A record the reader rejects is
// counted and skipped; reading continues with the next one.
func ReadRecords(text string, comma rune) Records {
	r := newReader(text, comma)
	var out Records
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				out.Rejected++
				continue
			}
			return out
		}
		out.Rows = append(out.Rows, record)
	}
}

// FirstRecord returns the first record of text.
func FirstRecord(text string, comma rune) ([]string, error) {
	record, err := newReader(text, comma).Read()
	if err != nil {
		return nil, err
	}
	return record, nil
}

// NormalizeHeader lower-cases and trims each header cell.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

// HeaderLine joins the normalized header cells with spaces.
func HeaderLine(header []string) string {
	return strings.Join(NormalizeHeader(header), " ")
}

// UnmarshalRows maps rows onto TRow using the csv struct tags matched against
// header. Header cells are trimmed; missing trailing cells leave fields empty.
// The returned slice is index-aligned with rows.
func UnmarshalRows[TRow any](header []string, rows [][]string) ([]TRow, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("cannot map rows without a header")
	}
	trimmed := make([]string, len(header))
	for i, h := range header {
		trimmed[i] = strings.TrimSpace(h)
	}

	all := make([][]string, 0, len(rows)+1)
	all = append(all, trimmed)
	all = append(all, rows...)

	var out []TRow
	if err := gocsv.UnmarshalCSV(&recordSource{records: all}, &out); err != nil {
		return nil, fmt.Errorf("error mapping CSV rows: %w", err)
	}
	return out, nil
}

// recordSource replays already tokenized records to gocsv.
type recordSource struct {
	records [][]string
	pos     int
}

func (s *recordSource) Read() ([]string, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	record := s.records[s.pos]
	s.pos++
	return record, nil
}

func (s *recordSource) ReadAll() ([][]string, error) {
	rest := s.records[s.pos:]
	s.pos = len(s.records)
	return rest, nil
}
