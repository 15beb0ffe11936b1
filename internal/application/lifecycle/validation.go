package lifecycle

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation constants for input limits.
const (
	MaxIDLength        = 64
	MaxPrincipalLength = 256
	MaxNotesLength     = 4096
	MaxFieldCount      = 64
)

// idPattern validates identifier format: alphanumeric with hyphens and underscores.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ValidateID validates an identifier's format and length.
func ValidateID(id, fieldName string) error {
	if id == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("%s too long (max %d characters)", fieldName, MaxIDLength)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid %s format: must be alphanumeric with hyphens and underscores", fieldName)
	}
	return nil
}

// ValidateSafeString validates a string for safe CLI usage.
// It checks length limits and rejects control characters that could cause issues.
func ValidateSafeString(s string, fieldName string, maxLen int) error {
	if len(s) > maxLen {
		return fmt.Errorf("%s too long (max %d characters)", fieldName, maxLen)
	}
	if strings.ContainsAny(s, "\x00\n\r\t") {
		return fmt.Errorf("%s contains invalid control characters", fieldName)
	}
	return nil
}

// ValidationError collects multiple validation errors.
type ValidationError struct {
	errors []string
}

// NewValidationError creates a new ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{errors: make([]string, 0)}
}

// Add adds an error to the collection.
func (v *ValidationError) Add(err error) {
	if err != nil {
		v.errors = append(v.errors, err.Error())
	}
}

// AddMessage adds an error message to the collection.
func (v *ValidationError) AddMessage(msg string) {
	v.errors = append(v.errors, msg)
}

// HasErrors returns true if there are validation errors.
func (v *ValidationError) HasErrors() bool {
	return len(v.errors) > 0
}

// Error returns the combined error message.
func (v *ValidationError) Error() string {
	if len(v.errors) == 0 {
		return ""
	}
	if len(v.errors) == 1 {
		return v.errors[0]
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(v.errors, "; "))
}

// ToError returns nil if no errors, otherwise returns the ValidationError.
func (v *ValidationError) ToError() error {
	if !v.HasErrors() {
		return nil
	}
	return v
}
