package valueobject

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrDivisionByZero   = errors.New("division by zero")
	ErrMissingRateTable = errors.New("missing rate table")
	ErrConfiguration    = errors.New("configuration error")
	ErrValidation       = errors.New("validation failed")
	ErrNoAmortization   = errors.New("loan never amortizes")
	ErrInvalidRate      = errors.New("invalid rate")
	ErrNotFound         = errors.New("not found")
	ErrVersionConflict  = errors.New("concurrent modification")
)

// ---------------------------------------------------------------------------
// Typed errors
// ---------------------------------------------------------------------------

// DivisionError reports a value index whose denominator input is zero.
type DivisionError struct {
	Strategy ValueIndexStrategy
	Field    string
}

func (e *DivisionError) Error() string {
	return fmt.Sprintf("value index %s: %s is zero: %v", e.Strategy, e.Field, ErrDivisionByZero)
}

func (e *DivisionError) Unwrap() error { return ErrDivisionByZero }

// MissingRateTableError reports an addition category with no rate rows.
type MissingRateTableError struct {
	Category string
}

func (e *MissingRateTableError) Error() string {
	return fmt.Sprintf("%v for category %q", ErrMissingRateTable, e.Category)
}

func (e *MissingRateTableError) Unwrap() error { return ErrMissingRateTable }

// ConfigurationError reports reference data an operator has to fix.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrConfiguration, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// NewConfigurationError formats a ConfigurationError.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// ValidationError carries one message per offending input field. Cause, when
// set, is the error the field messages were derived from.
type ValidationError struct {
	Fields map[string]string
	Cause  error
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a message for field. The first message for a field wins.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool { return len(e.Fields) > 0 }

// OrNil returns e when it carries messages and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Cause}
}

// FieldError converts a *DivisionError found in err into a ValidationError
// naming the zero input. Other errors are returned unchanged.
func FieldError(err error, message string) error {
	var div *DivisionError
	if !errors.As(err, &div) {
		return err
	}
	verr := NewValidationError()
	verr.Add(div.Field, message)
	verr.Cause = err
	return verr
}
