package errors

import (
	"math"
	"net/url"
	"strings"
	"unicode"
)

// ValidateNonNegative checks that a numeric configuration field is a finite,
// non-negative number. name is used in the error message.
func ValidateNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidConfig, "%s must be a finite number, got %v", name, v)
	}
	if v < 0 {
		return New(ErrCodeInvalidConfig, "%s must be >= 0, got %v", name, v)
	}
	return nil
}

// ValidateHref checks that an href can be used as the target of a prefetch
// hint. It rejects empty values, control characters and anything net/url
// cannot parse.
func ValidateHref(href string) error {
	if href == "" {
		return New(ErrCodeInvalidHref, "href cannot be empty")
	}

	for _, r := range href {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidHref, "href contains control characters: %q", href)
		}
	}

	if _, err := url.Parse(href); err != nil {
		return Wrap(ErrCodeInvalidHref, err, "malformed href %q", href)
	}
	return nil
}

// ValidatePath validates a request path relative to a served root.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal segments (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
