// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors
var (
	ErrMissingInformation = errors.New("missing information")
	ErrInvalidNumber      = errors.New("invalid number")
	ErrInvalidValue       = errors.New("invalid value")
	ErrNoDataToExport     = errors.New("no data to export")
	ErrEntryLocked        = errors.New("trade entry locked: complete all checklist rules first")
	ErrTradeNotFound      = errors.New("trade not found")
	ErrCorruptData        = errors.New("corrupt persisted data")
	ErrStorage            = errors.New("storage error")
	ErrConfigInvalid      = errors.New("invalid configuration")
)

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError. The sentinel, when given,
// is reachable through errors.Is.
func NewValidationError(field string, value interface{}, message string, sentinel error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Err:     sentinel,
	}
}

// MissingFieldsError lists the required fields that were left empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingInformation, strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Unwrap() error {
	return ErrMissingInformation
}

// StorageError represents a failure of the local key/value storage.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage error [%s %s]: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage error [%s]: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// NewStorageError creates a new StorageError.
func NewStorageError(op, key string, err error) *StorageError {
	return &StorageError{
		Op:  op,
		Key: key,
		Err: err,
	}
}

// DataError represents persisted data that could not be decoded.
type DataError struct {
	Key     string
	Message string
	Err     error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s]: %s: %v", e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s]: %s", e.Key, e.Message)
}

func (e *DataError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCorruptData}
	}
	return []error{ErrCorruptData, e.Err}
}

// NewDataError creates a new DataError.
func NewDataError(key, message string, err error) *DataError {
	return &DataError{
		Key:     key,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}
