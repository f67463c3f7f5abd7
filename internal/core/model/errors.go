package model

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when an entity is required to exist and does not.
	ErrNotFound = errors.New("entity was not found")

	// ErrDuplicateEmail is returned when another active client already holds the email.
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrDuplicateTaxID is returned when another active client already holds the nit.
	ErrDuplicateTaxID = errors.New("nit already exists")

	// ErrInvalidCredentials is returned when service-account credentials do not match.
	ErrInvalidCredentials = errors.New("invalid client credentials")
)

// ValidationError is returned when a client fails field validation.
type ValidationError struct {
	// Message is a human readable summary.
	Message string

	// Fields maps the field name to the combined messages for that field.
	// Failures without an identifiable field use the empty key.
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}
