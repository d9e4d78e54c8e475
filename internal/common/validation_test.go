package common

import (
	"strings"
	"testing"

	"resumetracker/internal/errors"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectedError    string
	}{
		{name: "json", format: "json", supportedFormats: supported},
		{name: "markdown", format: "markdown", supportedFormats: supported},
		{
			name:             "xml is rejected",
			format:           "xml",
			supportedFormats: supported,
			expectedError:    "unsupported output format 'xml'. Supported formats: [json text markdown]",
		},
		{
			name:             "case sensitive",
			format:           "JSON",
			supportedFormats: supported,
			expectedError:    "unsupported output format 'JSON'. Supported formats: [json text markdown]",
		},
		{name: "no restrictions", format: "xml", supportedFormats: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)
			if tt.expectedError == "" {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.expectedError {
				t.Errorf("Expected error '%s', got '%v'", tt.expectedError, err)
			}
		})
	}
}

func TestValidatePaging(t *testing.T) {
	tests := []struct {
		page, size int
		valid      bool
	}{
		{0, 5, true},
		{3, MaxPageSize, true},
		{-1, 5, false},
		{0, 0, false},
		{0, MaxPageSize + 1, false},
	}

	for _, tt := range tests {
		err := ValidatePaging(tt.page, tt.size)
		if (err == nil) != tt.valid {
			t.Errorf("ValidatePaging(%d, %d) = %v, valid=%v", tt.page, tt.size, err, tt.valid)
		}
		if err != nil && !errors.IsType(err, errors.ErrorTypeValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	}
}

func TestValidateJobDescription(t *testing.T) {
	if err := ValidateJobDescription(strings.Repeat("a", 50), 50); err != nil {
		t.Errorf("50 characters should pass: %v", err)
	}
	if err := ValidateJobDescription(" "+strings.Repeat("a", 49)+" ", 50); err == nil {
		t.Error("49 characters should fail")
	}
	err := ValidateJobDescription("   ", 50)
	if errors.Message(err) != errors.MsgMissingSelection {
		t.Errorf("blank description message = %q", errors.Message(err))
	}
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supportedFormats := []string{"json", "text", "markdown"}

	for b.Loop() {
		_ = ValidateOutputFormat("json", supportedFormats)
	}
}
