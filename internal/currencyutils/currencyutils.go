// Package currencyutils provides amount and currency-code handling.
package currencyutils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	signedAmount = regexp.MustCompile(`^-?\d+(?:[.,]\d+)?$`)
	currencyCode = regexp.MustCompile(`^[a-z]{3}$`)
	groupSpaces  = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "")
)

// ErrEmptyAmount is returned for blank amount cells.
var ErrEmptyAmount = errors.New("empty amount")

// ParseAmount parses a decimal written with a period separator, as is.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	amountStr = strings.TrimSpace(amountStr)
	if amountStr == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return amount, nil
}

// ParseCommaDecimal parses an amount whose decimal separator may be a comma.
// Spaces used as digit grouping are removed first.
func ParseCommaDecimal(amountStr string) (decimal.Decimal, error) {
	standardized := groupSpaces.Replace(strings.TrimSpace(amountStr))
	standardized = strings.ReplaceAll(standardized, ",", ".")
	return ParseAmount(standardized)
}

// IsSignedAmount reports whether s looks like "-1500", "1500,00" or "12.5".
func IsSignedAmount(s string) bool {
	return signedAmount.MatchString(strings.TrimSpace(s))
}

// IsCurrencyCode reports whether s is a three-letter code, in any case.
func IsCurrencyCode(s string) bool {
	return currencyCode.MatchString(strings.ToLower(strings.TrimSpace(s)))
}

// NormalizeCurrency upper-cases code, or returns fallback when code is blank.
func NormalizeCurrency(code, fallback string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return fallback
	}
	return code
}

// ParseRange parses an inclusive "lo,hi" pair.
func ParseRange(value string) (decimal.Decimal, decimal.Decimal, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("range '%s' must have exactly two bounds", value)
	}
	lo, err := ParseAmount(parts[0])
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("range '%s' lower bound: %w", value, err)
	}
	hi, err := ParseAmount(parts[1])
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("range '%s' upper bound: %w", value, err)
	}
	return lo, hi, nil
}

// InRange reports whether lo <= amount <= hi.
func InRange(amount, lo, hi decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(lo) && amount.LessThanOrEqual(hi)
}
