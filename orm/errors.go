package orm

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrorKind classifies a QueryError so callers can branch on category
// instead of string-matching an error message.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindInvalidInput
	KindConstraintViolation
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindInvalidInput:
		return "InvalidInput"
	case KindConstraintViolation:
		return "ConstraintViolation"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// QueryError is the error type returned by Model/Client operations that can
// be classified into a kind. Wrap a lower-level error (sql.ErrNoRows, a
// driver's unique-constraint error) with newQueryError so callers can use
// errors.Is/As against the sentinel Err* values below or Kind() directly.
type QueryError struct {
	Kind    ErrorKind
	Model   string
	Message string
	Cause   error
}

func (e *QueryError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Model, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}

func newQueryError(kind ErrorKind, modelName, message string, cause error) *QueryError {
	return &QueryError{Kind: kind, Model: modelName, Message: message, Cause: cause}
}

// NotFoundError wraps sql.ErrNoRows-style failures, the shape
// FindUniqueOrThrow/FindFirstOrThrow return when no record matches.
func NotFoundError(modelName string, cause error) *QueryError {
	return newQueryError(KindNotFound, modelName, "no record found", cause)
}

// InvalidInputError wraps a malformed query payload (bad JSON, missing
// required field, wrong field type).
func InvalidInputError(modelName, message string, cause error) *QueryError {
	return newQueryError(KindInvalidInput, modelName, message, cause)
}

// ConstraintViolationError wraps a unique/foreign-key constraint failure
// surfaced by the underlying driver.
func ConstraintViolationError(modelName string, cause error) *QueryError {
	return newQueryError(KindConstraintViolation, modelName, "constraint violation", cause)
}

// InternalError wraps an unexpected failure that doesn't fit the other kinds.
func InternalError(modelName, message string, cause error) *QueryError {
	return newQueryError(KindInternal, modelName, message, cause)
}

// IsNotFound reports whether err is a QueryError of kind NotFound, or
// sql.ErrNoRows itself.
func IsNotFound(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var qe *QueryError
	return errors.As(err, &qe) && qe.Kind == KindNotFound
}

// IsConstraintViolation reports whether err is a QueryError of kind
// ConstraintViolation, or an underlying driver unique-constraint error.
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	if isUniqueConstraintError(err) {
		return true
	}
	var qe *QueryError
	return errors.As(err, &qe) && qe.Kind == KindConstraintViolation
}

// Common errors returned by Model query execution.
var (
	// ErrNoOperation is returned when no operation is specified in the query
	ErrNoOperation = errors.New("no operation specified in query")

	// ErrInvalidJSON is returned when the JSON query is invalid
	ErrInvalidJSON = errors.New("invalid JSON query")

	// ErrMissingWhere is returned when a where clause is required but not provided
	ErrMissingWhere = errors.New("operation requires 'where' field")

	// ErrMissingData is returned when a data field is required but not provided
	ErrMissingData = errors.New("operation requires 'data' field")

	// ErrInvalidDataType is returned when the data type is not as expected
	ErrInvalidDataType = errors.New("invalid data type")

	// ErrNotImplemented is returned for operations not yet implemented
	ErrNotImplemented = errors.New("operation not yet implemented")
)
