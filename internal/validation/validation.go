// Package validation checks identifiers and paths supplied by callers before
// they reach storage.
package validation

import (
	"fmt"
	"path"
	"strings"
)

const maxUserIDLength = 128

// ValidateUserID rejects empty ids, ids with path separators or control
// characters, and ids longer than 128 bytes. The default tenant id is
// accepted so that its catalog can be seeded.
func ValidateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id must not be empty")
	}
	if len(userID) > maxUserIDLength {
		return fmt.Errorf("user id is longer than %d bytes", maxUserIDLength)
	}
	if strings.ContainsAny(userID, `/\`) || userID == "." || userID == ".." {
		return fmt.Errorf("user id %q must not contain path separators", userID)
	}
	for _, r := range userID {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("user id %q contains control characters", userID)
		}
	}
	return nil
}

// ValidateStoragePath checks that p is a relative, slash-separated path that
// stays inside its root once cleaned.
func ValidateStoragePath(p string) error {
	if p == "" {
		return fmt.Errorf("storage path must not be empty")
	}
	if strings.Contains(p, `\`) {
		return fmt.Errorf("storage path %q must use forward slashes", p)
	}
	if path.IsAbs(p) {
		return fmt.Errorf("storage path %q must be relative", p)
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("storage path %q escapes the storage root", p)
	}
	return nil
}
