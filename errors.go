package till

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("till: not found")
	ErrAlreadyExists = errors.New("till: already exists")
	ErrInvalidInput  = errors.New("till: invalid input")
	ErrNotStarted    = errors.New("till: engine not started")

	// Pending sale errors
	ErrEmptyLedger        = errors.New("till: no items in the current sale")
	ErrSaleInProgress     = errors.New("till: a sale is in progress")
	ErrOutOfStockDeclined = errors.New("till: out-of-stock sale not confirmed")

	// Item errors
	ErrMissingItemData = errors.New("till: missing item data")
	ErrItemNotFound    = errors.New("till: inventory item not found")

	// Layaway errors
	ErrInvalidAmount  = errors.New("till: invalid payment amount")
	ErrInvalidBalance = errors.New("till: invalid layaway balance")
	ErrHoldNotFound   = errors.New("till: layaway hold not found")
	ErrHoldPending    = errors.New("till: layaway hold has uncommitted payments")

	// Audit log errors
	ErrMalformedLogEntry = errors.New("till: malformed log entry")

	// Store errors
	ErrPersistence     = errors.New("till: persistence failure")
	ErrStoreClosed     = errors.New("till: store is closed")
	ErrMigrationFailed = errors.New("till: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("till: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "till: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("till: %d errors occurred: %v", len(e.Errors), e.Errors[0])
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// ErrOrNil returns e when it holds errors, nil otherwise.
func (e MultiError) ErrOrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// persistenceError wraps a store failure so errors.Is matches both
// ErrPersistence and the underlying cause.
type persistenceError struct {
	Op  string
	Err error
}

func (e *persistenceError) Error() string {
	return fmt.Sprintf("till: %s: %v", e.Op, e.Err)
}

func (e *persistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrHoldNotFound)
}

// IsRejected returns true if the operation was refused before any state
// changed.
func IsRejected(err error) bool {
	return errors.Is(err, ErrEmptyLedger) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidBalance) ||
		errors.Is(err, ErrMissingItemData) ||
		errors.Is(err, ErrOutOfStockDeclined) ||
		errors.Is(err, ErrSaleInProgress) ||
		errors.Is(err, ErrHoldPending)
}

// IsRetryable returns true if in-memory state is ahead of the store and
// the caller can retry persistence with Engine.Flush.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence)
}
