package entity

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidInput marks caller-supplied data that fails validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrReviewersOverlap is returned when a user appears as both Reviewer 1 and Reviewer 2
	ErrReviewersOverlap = errors.New("reviewer 1 and reviewer 2 must be different users")

	// ErrAmountOverflow is returned when a line or document total does not fit in int64
	ErrAmountOverflow = errors.New("amount out of range")
)

// FieldError describes one missing or malformed field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field problem found in one request
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrInvalidInput
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Add records a field problem
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no field problems were recorded
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
