package models

// DefaultTenantID is the pseudo-user owning the shared categories and rules
// that every user sees as a fallback tier.
const DefaultTenantID = "default"

// ImportStatus is the lifecycle state of a FileImport.
type ImportStatus string

// Import statuses
const (
	ImportStatusUploaded   ImportStatus = "uploaded"
	ImportStatusQueued     ImportStatus = "queued"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusParsed     ImportStatus = "parsed"
	ImportStatusFailed     ImportStatus = "failed"
)

// Claimable reports whether a worker may move the import to PROCESSING.
func (s ImportStatus) Claimable() bool {
	return s == ImportStatusUploaded || s == ImportStatusQueued
}

// Terminal reports whether the import attempt is finished.
func (s ImportStatus) Terminal() bool {
	return s == ImportStatusParsed || s == ImportStatusFailed
}

// AdapterKind is the physical file family of an import.
type AdapterKind string

// Adapter kinds
const (
	AdapterCSV     AdapterKind = "csv"
	AdapterOFX     AdapterKind = "ofx"
	AdapterQIF     AdapterKind = "qif"
	AdapterUnknown AdapterKind = "unknown"
)

// Profile identifies a recognized source dialect (bank + export layout).
type Profile string

// Source profiles
const (
	ProfileOTP     Profile = "otp"
	ProfileRevolut Profile = "revolut"
	ProfileIBKR    Profile = "ibkr"
	ProfileOther   Profile = "other"
)

// AdapterKind returns the physical file family parsed for the profile.
func (p Profile) AdapterKind() AdapterKind {
	switch p {
	case ProfileOTP, ProfileRevolut:
		return AdapterCSV
	}
	return AdapterUnknown
}

// MatchType selects how a rule's match value is tested.
type MatchType string

// Rule match types
const (
	MatchContains    MatchType = "contains"
	MatchRegex       MatchType = "regex"
	MatchEquals      MatchType = "equals"
	MatchAmountRange MatchType = "amount_range"
)

// Valid reports whether m is a known match type.
func (m MatchType) Valid() bool {
	switch m {
	case MatchContains, MatchRegex, MatchEquals, MatchAmountRange:
		return true
	}
	return false
}

// CategoryType is the semantic kind of a category.
type CategoryType string

// Category types
const (
	CategoryIncome   CategoryType = "income"
	CategoryExpense  CategoryType = "expense"
	CategoryTransfer CategoryType = "transfer"
)

// File permissions
const (
	PermissionBlobFile  = 0600
	PermissionDirectory = 0750
)
