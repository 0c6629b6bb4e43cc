package models

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller's role does not permit the action.
	ErrForbidden = errors.New("forbidden")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("already exists")
	// ErrInvalidCredentials is returned on a failed login, for unknown users and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError collects per-field messages from form validation.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError with a single field message.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Add records msg for field, keeping the first message per field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Messages returns "field: message" strings sorted by field name.
func (e *ValidationError) Messages() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+": "+e.Fields[k])
	}
	return out
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}
