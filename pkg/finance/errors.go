package finance

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOutOfRange matches any *RangeError via errors.Is.
	ErrOutOfRange = errors.New("year index out of range")

	// ErrInvalidConfiguration matches any *ConfigurationError via errors.Is.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// RangeError reports a year index beyond the bounds of a per-year sequence.
// It is never recovered locally: the year cannot be projected.
type RangeError struct {
	Field  string
	Index  int
	Length int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: year index %d out of range [0, %d)", e.Field, e.Index, e.Length)
}

// Is lets errors.Is(err, ErrOutOfRange) match.
func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ConfigurationError reports malformed input rejected at the boundary.
type ConfigurationError struct {
	Subject string
	Fields  []FieldError
}

func (e *ConfigurationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("invalid %s: %s", e.Subject, strings.Join(parts, "; "))
}

// Is lets errors.Is(err, ErrInvalidConfiguration) match.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

func checkIndex(field string, index, length int) error {
	if index < 0 || index >= length {
		return &RangeError{Field: field, Index: index, Length: length}
	}
	return nil
}
