// Package parsererror defines the typed errors raised while detecting,
// parsing and validating statement data.
package parsererror

import (
	"errors"
	"fmt"
)

// UnsupportedFormatError is returned when no source profile matches a file.
// It is terminal for the import that produced it.
type UnsupportedFormatError struct {
	Reason  string
	Snippet string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("unsupported format: %s (content starts with %q)", e.Reason, e.Snippet)
	}
	return fmt.Sprintf("unsupported format: %s", e.Reason)
}

// IsUnsupportedFormat reports whether err wraps an UnsupportedFormatError.
func IsUnsupportedFormat(err error) bool {
	var target *UnsupportedFormatError
	return errors.As(err, &target)
}

// ParseError describes a row-level conversion failure. Adapters log it and
// drop the row instead of returning it.
type ParseError struct {
	Parser string
	Row    int
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: row %d: failed to parse %s='%s': %v",
		e.Parser, e.Row, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError represents an invalid definition, such as a catalog entry
// or a rule that cannot be evaluated.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s '%s': %s", e.Field, e.Value, e.Reason)
}
