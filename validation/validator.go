package validation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kbukum/flowc/errors"
)

// Validator collects field errors.
type Validator struct {
	errors []FieldError
}

// FieldError is one failed check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a failed check.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns the failed checks.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns INVALID_INPUT listing every failed check, or nil.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}
	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return errors.Validation(strings.Join(messages, "; ")).
		WithDetail("fields", v.errors)
}

// Err is Validate as a plain error, nil when every check passed.
func (v *Validator) Err() error {
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Required checks that a string is not blank.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// Min checks an integer lower bound.
func (v *Validator) Min(field string, value, minVal int) *Validator {
	if value < minVal {
		v.AddError(field, fmt.Sprintf("must be at least %d", minVal))
	}
	return v
}

// Less checks that a is strictly below b.
func (v *Validator) Less(field string, a, b int, message string) *Validator {
	if a >= b {
		v.AddError(field, message)
	}
	return v
}

// NonNegative checks a float lower bound of zero.
func (v *Validator) NonNegative(field string, value float64) *Validator {
	if value < 0 {
		v.AddError(field, "must not be negative")
	}
	return v
}

// OneOf checks that a non-empty value is in allowed.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// OptionalUUID checks that a non-empty string parses as a UUID.
func (v *Validator) OptionalUUID(field, value string) *Validator {
	if value == "" {
		return v
	}
	if _, err := uuid.Parse(value); err != nil {
		v.AddError(field, "must be a valid UUID")
	}
	return v
}

// Custom records message when condition is false.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}
