// Package apperr defines the error kinds shared by services, repositories
// and handlers. Handlers map kinds to HTTP statuses; nothing else inspects
// error strings.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrBusinessRule = errors.New("business rule violation")
)

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string
	ID       any
}

func NotFound(resource string, id any) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError reports an invalid field. Valid lists the accepted values
// for enum fields and is echoed back to the caller.
type ValidationError struct {
	Field   string
	Message string
	Valid   []string
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// InvalidValue builds the error returned for an out-of-enum value.
func InvalidValue(field, value string, valid []string) error {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("invalid value %q, expected one of: %s", value, strings.Join(valid, ", ")),
		Valid:   valid,
	}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// BusinessError is a rejected state change (over-payment, invalid
// transition, deleting a sent invoice).
type BusinessError struct {
	Message string
	Valid   []string
}

func Business(message string) error {
	return &BusinessError{Message: message}
}

func BusinessWithValid(message string, valid []string) error {
	return &BusinessError{Message: message, Valid: valid}
}

func (e *BusinessError) Error() string { return e.Message }

func (e *BusinessError) Unwrap() error { return ErrBusinessRule }

// ConflictError wraps a uniqueness violation.
type ConflictError struct {
	Message string
	Err     error
}

func Conflict(message string, err error) error {
	return &ConflictError{Message: message, Err: err}
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() []error { return []error{ErrConflict, e.Err} }

// ValidValues extracts the accepted values carried by err, if any.
func ValidValues(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Valid
	}
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Valid
	}
	return nil
}
