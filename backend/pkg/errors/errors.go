package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeValidation represents boundary validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeIngest represents CSV ingestion errors
	ErrorTypeIngest ErrorType = "ingest"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Base exposes the embedded BaseError. Promoted on every typed error,
// so IsErrorType can classify them without per-type assertions.
func (e *BaseError) Base() *BaseError {
	return e
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Graph Errors

// ErrConnectionFailed is returned when the Neo4j driver cannot reach the backend
type ErrConnectionFailed struct {
	*BaseError
	URI string
}

func NewConnectionFailed(uri string, err error) *ErrConnectionFailed {
	return &ErrConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrQueryFailed is returned when a Cypher statement is rejected or raises
type ErrQueryFailed struct {
	*BaseError
	Query string
}

func NewQueryFailed(query string, err error) *ErrQueryFailed {
	return &ErrQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, "query failed", err),
		Query:     query,
	}
}

// Validation Errors

// ErrInvalidRating is returned when a rating value is outside 1..5
type ErrInvalidRating struct {
	*BaseError
	Value int
}

func NewInvalidRating(value int) *ErrInvalidRating {
	return &ErrInvalidRating{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("rating must be between 1 and 5, got %d", value), nil),
		Value:     value,
	}
}

// ErrMissingField is returned when a required identifier or field is empty
type ErrMissingField struct {
	*BaseError
	Field string
}

func NewMissingField(field string) *ErrMissingField {
	return &ErrMissingField{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("missing required field: %s", field), nil),
		Field:     field,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Ingest Errors

// ErrBadRow is returned when a CSV row cannot be coerced and the loader must abort
type ErrBadRow struct {
	*BaseError
	File string
	Line int
}

func NewBadRow(file string, line int, err error) *ErrBadRow {
	return &ErrBadRow{
		BaseError: NewBaseError(ErrorTypeIngest, fmt.Sprintf("bad row in %s at line %d", file, line), err),
		File:      file,
		Line:      line,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if baseErr, ok := err.(*BaseError); ok {
			return baseErr.Type == errType
		}
		if typed, ok := err.(interface{ Base() *BaseError }); ok {
			return typed.Base().Type == errType
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsAlreadyExists reports whether an error is a uniqueness constraint
// collision. Neo4j surfaces these as query failures whose message
// contains "already exists".
func IsAlreadyExists(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}
