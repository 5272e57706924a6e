package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrCurrencyMismatch indicates that an entry's currency does not match its account's currency.
var ErrCurrencyMismatch = errors.New("entry currency does not match account currency")

// ErrInvalidTransfer indicates a transfer with a missing or self-referential counter account.
var ErrInvalidTransfer = errors.New("transfer requires a distinct counter account")

// ErrInvalidClone indicates that the source entry is not in a cloneable status.
var ErrInvalidClone = errors.New("only paid or pending entries can be cloned")

// ErrEntrySettled indicates an operation that would discard a settled
// balance effect without reversing it.
var ErrEntrySettled = errors.New("entry has settled amounts; cancel it before deleting")

// AppError carries an HTTP-ish status code alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that matches errors.Is(err, ErrNotFound).
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
