package categorizer

import (
	"fmt"
	"regexp"
	"strings"

	"fjacquet/bank-ingest/internal/currencyutils"
	"fjacquet/bank-ingest/internal/models"
	"fjacquet/bank-ingest/internal/parsererror"

	"github.com/shopspring/decimal"
)

// matcher is one compiled rule. kind selects which of the other fields are
// used; match is the only place that branches on it.
type matcher struct {
	kind models.MatchType
	text string
	re   *regexp.Regexp
	lo   decimal.Decimal
	hi   decimal.Decimal
}

// compileMatcher prepares a rule's match value. Invalid patterns and ranges
// are reported as a ValidationError.
func compileMatcher(kind models.MatchType, value string) (matcher, error) {
	m := matcher{kind: kind}
	if !kind.Valid() {
		return m, &parsererror.ValidationError{Field: "match type", Value: string(kind), Reason: "unknown match type"}
	}
	switch kind {
	case models.MatchContains, models.MatchEquals:
		m.text = strings.ToLower(value)
	case models.MatchRegex:
		re, err := regexp.Compile("(?i)" + value)
		if err != nil {
			return m, &parsererror.ValidationError{Field: "regex", Value: value, Reason: err.Error()}
		}
		m.re = re
	case models.MatchAmountRange:
		lo, hi, err := currencyutils.ParseRange(value)
		if err != nil {
			return m, &parsererror.ValidationError{Field: "amount range", Value: value, Reason: err.Error()}
		}
		m.lo, m.hi = lo, hi
	}
	return m, nil
}

// match tests the lower-cased subject and the amount against the rule.
func (m matcher) match(subject string, amount decimal.Decimal) bool {
	switch m.kind {
	case models.MatchContains:
		return strings.Contains(subject, m.text)
	case models.MatchRegex:
		return m.re.MatchString(subject)
	case models.MatchEquals:
		return strings.TrimSpace(subject) == m.text
	case models.MatchAmountRange:
		return currencyutils.InRange(amount, m.lo, m.hi)
	}
	return false
}

func (m matcher) String() string {
	return fmt.Sprintf("%s(%s)", m.kind, m.describe())
}

func (m matcher) describe() string {
	switch m.kind {
	case models.MatchRegex:
		return m.re.String()
	case models.MatchAmountRange:
		return m.lo.String() + "," + m.hi.String()
	}
	return m.text
}

// MatchSubject builds the text rules are matched against: description and
// counterparty, lower-cased.
func MatchSubject(tx models.Transaction) string {
	return strings.ToLower(tx.Description + " " + tx.Counterparty)
}
