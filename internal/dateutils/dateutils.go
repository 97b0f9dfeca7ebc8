// Package dateutils provides date parsing for statement exports.
package dateutils

import (
	"regexp"
	"strings"
	"time"
)

// Date layouts found in bank exports
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutDotted   = "2006.01.02"
	DateLayoutEuropean = "02.01.2006"
	DateLayoutFull     = "2006-01-02 15:04:05"
	DateLayoutCompact  = "20060102"
)

// CommonFormats is the shared ordered list of accepted booking-date layouts.
// The first layout that parses wins.
var CommonFormats = []string{
	DateLayoutDotted,
	DateLayoutISO,
	DateLayoutEuropean,
}

var (
	spaceRun     = regexp.MustCompile(`\s+`)
	compactDigit = regexp.MustCompile(`^\d{8}$`)
)

// CleanDateString trims whitespace, a trailing dot and repeated spaces.
func CleanDateString(dateStr string) string {
	dateStr = strings.TrimSpace(dateStr)
	dateStr = strings.TrimSuffix(dateStr, ".")
	return spaceRun.ReplaceAllString(dateStr, " ")
}

// ParseFirst tries layouts in order and returns the calendar date of the first
// match. It returns nil when the value is empty or nothing matches; callers
// store nil rather than inventing a date.
func ParseFirst(value string, layouts []string) *time.Time {
	value = CleanDateString(value)
	if value == "" {
		return nil
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return DateOnly(t)
		}
	}
	return nil
}

// ParseCommon parses value against CommonFormats.
func ParseCommon(value string) *time.Time {
	return ParseFirst(value, CommonFormats)
}

// ParseCompact parses a strict 8-digit YYYYMMDD value.
func ParseCompact(value string) *time.Time {
	value = strings.TrimSpace(value)
	if !compactDigit.MatchString(value) {
		return nil
	}
	t, err := time.Parse(DateLayoutCompact, value)
	if err != nil {
		return nil
	}
	return DateOnly(t)
}

// IsCompactDate reports whether value is exactly eight digits.
func IsCompactDate(value string) bool {
	return compactDigit.MatchString(strings.TrimSpace(value))
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// ToISODate formats a date as YYYY-MM-DD, or "" for nil.
func ToISODate(date *time.Time) string {
	if date == nil {
		return ""
	}
	return date.Format(DateLayoutISO)
}
