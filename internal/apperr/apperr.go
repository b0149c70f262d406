// Package apperr defines the coded errors surfaced by the ledger core.
// Every rejection carries a stable Code so callers can map it to a
// transport status without string matching.
package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeUnknown           Code = "UNKNOWN"
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeInvalidGroup      Code = "INVALID_GROUP"
	CodeInvalidBill       Code = "INVALID_BILL"
	CodeInvalidMember     Code = "INVALID_MEMBER"
	CodeIndexOutOfRange   Code = "INDEX_OUT_OF_RANGE"
	CodeAmountMismatch    Code = "AMOUNT_MISMATCH"
	CodeEmptyContribution Code = "EMPTY_CONTRIBUTION"
	CodeInvalidAmount     Code = "INVALID_AMOUNT"
	CodeInternal          Code = "INTERNAL"
)

// Error is a coded application error. Cause is optional and preserved
// for errors.Is/As chains.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with the given code and a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the code from an error chain, or CodeUnknown if the
// chain contains no *Error.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}
