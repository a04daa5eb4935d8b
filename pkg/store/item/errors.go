package item

import (
	"errors"
	"fmt"
)

// StoreError is a domain error returned by item repositories.
//
// Infrastructure failures (connection refused, authentication) are reported
// with ErrUnavailable and keep the underlying cause in Err so callers can
// still inspect it with errors.As.
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// ID is the item identifier the error relates to (if any)
	ID string

	// Err is the underlying cause (if any)
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	msg := e.Message
	if e.ID != "" {
		msg += ": " + e.ID
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// ErrorCode represents the category of a repository error.
type ErrorCode int

const (
	// ErrNotFound indicates the requested record doesn't exist
	ErrNotFound ErrorCode = iota

	// ErrInvalidState indicates the operation doesn't apply to the record
	// in its current shape (e.g. a view link for a folder)
	ErrInvalidState

	// ErrUnavailable indicates the record store could not be reached
	ErrUnavailable

	// ErrDuplicateKey indicates a uniqueness constraint was violated
	ErrDuplicateKey

	// ErrInvalidArgument indicates invalid parameters were provided
	ErrInvalidArgument
)

func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "NotFound"
	case ErrInvalidState:
		return "InvalidState"
	case ErrUnavailable:
		return "StorageUnavailable"
	case ErrDuplicateKey:
		return "DuplicateKey"
	case ErrInvalidArgument:
		return "InvalidArgument"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

func NewNotFoundError(id string) *StoreError {
	return &StoreError{Code: ErrNotFound, Message: "item not found", ID: id}
}

func NewInvalidStateError(message, id string) *StoreError {
	return &StoreError{Code: ErrInvalidState, Message: message, ID: id}
}

func NewUnavailableError(message string, err error) *StoreError {
	return &StoreError{Code: ErrUnavailable, Message: message, Err: err}
}

func NewDuplicateKeyError(id string, err error) *StoreError {
	return &StoreError{Code: ErrDuplicateKey, Message: "duplicate key", ID: id, Err: err}
}

func NewInvalidArgumentError(message, id string) *StoreError {
	return &StoreError{Code: ErrInvalidArgument, Message: message, ID: id}
}

// CodeOf returns the code of the first StoreError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}

func hasCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

func IsNotFound(err error) bool        { return hasCode(err, ErrNotFound) }
func IsInvalidState(err error) bool    { return hasCode(err, ErrInvalidState) }
func IsUnavailable(err error) bool     { return hasCode(err, ErrUnavailable) }
func IsDuplicateKey(err error) bool    { return hasCode(err, ErrDuplicateKey) }
func IsInvalidArgument(err error) bool { return hasCode(err, ErrInvalidArgument) }
