package errors

import (
	"strings"
	"unicode"
)

// MaxWidth is the largest line width accepted by ValidateWidth.
const MaxWidth = 10000

// ValidateWidth checks that a maximum line width is usable.
// The layout engine needs a positive width; anything above MaxWidth is
// treated as a typo rather than a request for single-line output.
func ValidateWidth(width int) error {
	if width <= 0 {
		return New(ErrCodeInvalidWidth, "width must be positive, got %d", width)
	}
	if width > MaxWidth {
		return New(ErrCodeInvalidWidth, "width too large (max %d), got %d", MaxWidth, width)
	}
	return nil
}

// ValidateSourceSize checks that a source text does not exceed limit bytes.
// A limit of zero or less disables the check.
func ValidateSourceSize(size, limit int64) error {
	if limit > 0 && size > limit {
		return New(ErrCodeTooLarge, "source is %d bytes (max %d)", size, limit)
	}
	return nil
}

// ValidatePath validates a file path given on the command line or in a
// configuration file for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateCacheKeyPrefix validates a user supplied cache namespace.
// Prefixes end up in Redis keys and Mongo document IDs, so whitespace and
// control characters are rejected.
func ValidateCacheKeyPrefix(prefix string) error {
	if len(prefix) > 128 {
		return New(ErrCodeInvalidConfig, "cache prefix too long (max 128 characters)")
	}
	if strings.IndexFunc(prefix, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) >= 0 {
		return New(ErrCodeInvalidConfig, "cache prefix contains whitespace or control characters")
	}
	return nil
}
