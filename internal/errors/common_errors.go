package errors

import (
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeInputNotFound ErrorType = "INPUT_NOT_FOUND"
	ErrTypeSchema        ErrorType = "SCHEMA"
	ErrTypeParsing       ErrorType = "PARSING"
	ErrTypeValidation    ErrorType = "VALIDATION"
	ErrTypeNoRevenue     ErrorType = "NO_REVENUE"
	ErrTypeStorage       ErrorType = "STORAGE"
	ErrTypeNotFound      ErrorType = "NOT_FOUND"
	ErrTypeConfig        ErrorType = "CONFIG"
)

// Sentinels for errors.Is. An AppError matches a sentinel of the same type.
var (
	ErrInputNotFound = &AppError{Type: ErrTypeInputNotFound}
	ErrSchema        = &AppError{Type: ErrTypeSchema}
	ErrParsing       = &AppError{Type: ErrTypeParsing}
	ErrValidation    = &AppError{Type: ErrTypeValidation}
	ErrNoRevenue     = &AppError{Type: ErrTypeNoRevenue}
	ErrStorage       = &AppError{Type: ErrTypeStorage}
	ErrNotFound      = &AppError{Type: ErrTypeNotFound}
	ErrConfig        = &AppError{Type: ErrTypeConfig}
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a sentinel of the same type
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Type == e.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Helper functions for common error types

// NewInputNotFoundError reports an input source that could not be opened
func NewInputNotFoundError(source string, cause error) *AppError {
	return NewAppError(ErrTypeInputNotFound, fmt.Sprintf("input %s not found", source), cause).
		WithContext("source", source)
}

// NewSchemaError reports a required column missing from an input table
func NewSchemaError(table, column string) *AppError {
	return NewAppError(ErrTypeSchema, fmt.Sprintf("table %s is missing required column %s", table, column), nil).
		WithContext("table", table).
		WithContext("column", column)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewCellParsingError reports a value that could not be read from a table cell.
// row is the 1-based data row, excluding the header.
func NewCellParsingError(table string, row int, column string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, fmt.Sprintf("table %s row %d column %s: invalid value", table, row, column), cause).
		WithContext("table", table).
		WithContext("row", row).
		WithContext("column", column)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNoRevenueError reports a classification input whose revenue sums to zero
func NewNoRevenueError(productCount int) *AppError {
	return NewAppError(ErrTypeNoRevenue, "no revenue to classify", nil).
		WithContext("product_count", productCount)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
