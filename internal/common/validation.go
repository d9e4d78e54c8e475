package common

import (
	"fmt"
	"slices"
	"strings"

	"resumetracker/internal/errors"
)

// MaxPageSize is the largest feedback page the CLI requests
const MaxPageSize = 100

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// ValidatePaging checks a zero-based page number and a page size
func ValidatePaging(page, size int) error {
	if page < 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Page must not be negative", nil).
			WithContext("page", page)
	}
	if size < 1 || size > MaxPageSize {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Page size must be between 1 and %d", MaxPageSize), nil).
			WithContext("size", size)
	}
	return nil
}

// ValidateJobDescription rejects job descriptions shorter than minLength
// after trimming
func ValidateJobDescription(text string, minLength int) error {
	length := len([]rune(strings.TrimSpace(text)))
	if length == 0 {
		return errors.NewValidationError(errors.ErrCodeMissingSelection, errors.MsgMissingSelection, nil)
	}
	if length < minLength {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Job description must be at least %d characters (got %d)", minLength, length), nil)
	}
	return nil
}
