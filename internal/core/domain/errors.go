package domain

import (
	"errors"
	"strings"
)

var (
	// ErrNoStationsAvailable is returned when a nearest-station query runs
	// against an empty catalog.
	ErrNoStationsAvailable = errors.New("no stations available")

	// ErrAddressLookupFailed marks a reverse-geocode transport, status or
	// decode failure. It is logged and replaced by a placeholder.
	ErrAddressLookupFailed = errors.New("address lookup failed")

	// ErrInvalidInput is the root of every boundary validation failure.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStationNotFound is returned by catalog lookups by name.
	ErrStationNotFound = errors.New("station not found")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field problems. It unwraps to ErrInvalidInput.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Add records a problem with field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns e when at least one field was rejected.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }
