package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds view and image identifiers.
const maxNameLength = 256

// ValidateViewName validates a view name before it is used in an image URL.
// View names end up as a path segment of `{view_url}{image_id}/{view_name}`,
// so anything that could change the request path is rejected:
//   - No empty names
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateViewName(name string) error {
	if err := validateSegment(name); err != nil {
		return New(ErrCodeInvalidViewName, "view name %q: %s", name, err.Message)
	}
	return nil
}

// ValidateImageID validates an image identifier with the same rules as view names.
func ValidateImageID(id string) error {
	if err := validateSegment(id); err != nil {
		return New(ErrCodeInvalidInput, "image id %q: %s", id, err.Message)
	}
	return nil
}

func validateSegment(s string) *Error {
	if s == "" {
		return New(ErrCodeInvalidInput, "cannot be empty")
	}
	if len(s) > maxNameLength {
		return New(ErrCodeInvalidInput, "too long (max %d characters)", maxNameLength)
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "contains control characters")
		}
	}
	if strings.ContainsAny(s, "/\\?#") || strings.Contains(s, "..") {
		return New(ErrCodeInvalidInput, "contains path characters")
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
