// Package detector classifies raw statement bytes into a source profile.
package detector

import (
	"regexp"
	"strings"

	"fjacquet/bank-ingest/internal/common"
	"fjacquet/bank-ingest/internal/currencyutils"
	"fjacquet/bank-ingest/internal/dateutils"
	"fjacquet/bank-ingest/internal/logging"
	"fjacquet/bank-ingest/internal/models"
	"fjacquet/bank-ingest/internal/otpparser"
	"fjacquet/bank-ingest/internal/parsererror"
	"fjacquet/bank-ingest/internal/revolutparser"
	"fjacquet/bank-ingest/internal/textutils"
)

// HeadSize is the number of leading characters inspected for signatures and
// marker phrases.
const HeadSize = 2048

const (
	snippetSize          = 40
	minHeaderlessColumns = 6
)

// Signatures of formats no adapter handles.
var rejectedSignatures = []string{"<OFX>", "OFXHEADER:", "!TYPE:"}

// Delimiters tried for header detection, in order.
var headerDelimiters = []rune{';', ','}

var accountNumber = regexp.MustCompile(`^\d{10,20}$`)

// Soft fallback phrases searched in the lower-cased head of the file.
var (
	revolutPhrases = []string{"completed date"}
	otpPhrases     = []string{"könyvelés dátuma", "értéknap"}
)

// Detector is a pure classifier: the same bytes always give the same result.
type Detector struct {
	decoder *textutils.Decoder
	logger  logging.Logger
}

// New creates a Detector. A nil decoder uses the default one.
func New(decoder *textutils.Decoder, logger logging.Logger) *Detector {
	if decoder == nil {
		decoder = textutils.DefaultDecoder()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Detector{decoder: decoder, logger: logger}
}

// Detect returns the profile of raw or an *parsererror.UnsupportedFormatError.
// Only the header and the first record are inspected, never later rows.
func (d *Detector) Detect(raw []byte) (models.Profile, error) {
	text := d.decoder.Decode(raw)
	head := strings.TrimLeft(textutils.Head(text, HeadSize), " \t\r\n")

	upperHead := strings.ToUpper(head)
	for _, sig := range rejectedSignatures {
		if strings.HasPrefix(upperHead, sig) {
			return "", &parsererror.UnsupportedFormatError{
				Reason:  "not a CSV export (" + strings.TrimSuffix(sig, ":") + " content)",
				Snippet: snippet(head),
			}
		}
	}

	for _, delim := range headerDelimiters {
		header, err := common.FirstRecord(text, delim)
		if err != nil {
			continue
		}
		if revolutparser.MatchesHeader(common.HeaderLine(header)) {
			return d.found(models.ProfileRevolut, "header")
		}
		if otpparser.MatchesHeader(header) {
			return d.found(models.ProfileOTP, "header")
		}
	}

	if first, err := common.FirstRecord(text, otpparser.Delimiter); err == nil && isHeaderlessOTP(first) {
		return d.found(models.ProfileOTP, "headerless")
	}

	lowerHead := strings.ToLower(head)
	if containsAny(lowerHead, revolutPhrases) {
		return d.found(models.ProfileRevolut, "marker")
	}
	if containsAny(lowerHead, otpPhrases) {
		return d.found(models.ProfileOTP, "marker")
	}

	d.logger.Debug("No profile matched")
	return "", &parsererror.UnsupportedFormatError{
		Reason:  "unknown or unsupported profile (only OTP and Revolut CSV are supported)",
		Snippet: snippet(head),
	}
}

func (d *Detector) found(profile models.Profile, via string) (models.Profile, error) {
	d.logger.Debug("Detected profile",
		logging.F(logging.FieldProfile, profile),
		logging.F(logging.FieldReason, via))
	return profile, nil
}

// isHeaderlessOTP checks the six structural predicates of the headerless OTP
// layout on its first record.
func isHeaderlessOTP(record []string) bool {
	if len(record) < minHeaderlessColumns {
		return false
	}
	direction := strings.ToUpper(strings.TrimSpace(record[1]))
	return accountNumber.MatchString(strings.Trim(strings.TrimSpace(record[0]), `"`)) &&
		(direction == otpparser.DirectionDebit || direction == otpparser.DirectionCredit) &&
		currencyutils.IsSignedAmount(record[2]) &&
		currencyutils.IsCurrencyCode(record[3]) &&
		dateutils.IsCompactDate(record[4]) &&
		dateutils.IsCompactDate(record[5])
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func snippet(head string) string {
	line, _, _ := strings.Cut(head, "\n")
	return textutils.Head(strings.TrimSpace(line), snippetSize)
}
