package otpparser

import (
	"fjacquet/bank-ingest/internal/logging"
	"fjacquet/bank-ingest/internal/models"
	"fjacquet/bank-ingest/internal/textutils"

	"github.com/google/uuid"
)

// Adapter implements parser.Parser for OTP exports.
type Adapter struct {
	decoder *textutils.Decoder
	logger  logging.Logger
}

// NewAdapter creates an OTP adapter. A nil decoder uses the default one.
func NewAdapter(decoder *textutils.Decoder, logger logging.Logger) *Adapter {
	if decoder == nil {
		decoder = textutils.DefaultDecoder()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Adapter{decoder: decoder, logger: logger.WithField(logging.FieldParser, parserName)}
}

// Profile implements parser.Parser.
func (a *Adapter) Profile() models.Profile {
	return models.ProfileOTP
}

// Parse implements parser.Parser.
func (a *Adapter) Parse(raw []byte, userID string, importID uuid.UUID) (models.ParseResult, error) {
	return parse(a.decoder.Decode(raw), userID, importID, a.logger)
}
