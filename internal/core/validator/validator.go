// Package validator holds the field rules of a client record.
package validator

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rbroggi/clients/internal/core/model"
)

// Field names used as keys in FieldErrors.
const (
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldEmail     = "email"
	FieldNIT       = "nit"
)

const (
	minNameLength  = 2
	maxNameLength  = 50
	maxEmailLength = 100
)

var (
	lettersAndSpaces = regexp.MustCompile(`^[A-Za-zÁÉÍÓÚÜÑáéíóúüñ ]+$`)
	// RE2 \s is ASCII only; \v, NEL and the Unicode separators are excluded explicitly.
	emailShape = regexp.MustCompile(`^[^@\s\v\x{85}\p{Z}]+@[^@\s\v\x{85}\p{Z}]+\.[^@\s\v\x{85}\p{Z}]+$`)
	nitShape   = regexp.MustCompile(`^[0-9]{7,12}(-[0-9]{1})?$`)
)

// FieldErrors maps a field name to its combined messages. Failures without an
// identifiable field are kept under the empty key.
type FieldErrors map[string]string

// Add appends msg to the messages of field, separated by "; ".
func (f FieldErrors) Add(field, msg string) {
	if existing, ok := f[field]; ok {
		f[field] = existing + "; " + msg
		return
	}
	f[field] = msg
}

// Valid reports whether no rule failed.
func (f FieldErrors) Valid() bool {
	return len(f) == 0
}

// Validate checks every rule of every field and returns the failures. An empty
// result means the client is valid.
func Validate(c model.Client) FieldErrors {
	errs := FieldErrors{}

	validateName(errs, FieldFirstName, "first name", c.FirstName)
	validateName(errs, FieldLastName, "last name", c.LastName)

	// optional
	if mail := strings.TrimSpace(c.Email); mail != "" {
		if utf8.RuneCountInString(mail) > maxEmailLength {
			errs.Add(FieldEmail, "email must not exceed 100 characters")
		}
		if !emailShape.MatchString(mail) {
			errs.Add(FieldEmail, "email format is invalid")
		}
	}

	if v := strings.TrimSpace(c.NIT); v == "" {
		errs.Add(FieldNIT, "nit is required")
	} else if !nitShape.MatchString(v) {
		errs.Add(FieldNIT, "nit must have 7 to 12 digits, without letters or special characters (optionally followed by a hyphen and a check digit)")
	}

	return errs
}

func validateName(errs FieldErrors, field, label, value string) {
	v := strings.TrimSpace(value)
	if v == "" {
		errs.Add(field, label+" is required")
		return
	}
	if n := utf8.RuneCountInString(v); n < minNameLength || n > maxNameLength {
		errs.Add(field, label+" must be between 2 and 50 characters")
	}
	if !lettersAndSpaces.MatchString(v) {
		errs.Add(field, label+" must only contain letters and spaces")
	}
}
