// Package domainerrors defines the error taxonomy shared across custodia.
// Services classify failures with a Code; transports translate codes to
// wire-level responses without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure. The set is closed; adding a code means
// deciding its retry semantics and HTTP mapping here.
type Code string

const (
	// CodeAlreadyExists marks a duplicate custody record or identity. Never
	// retried; the first write wins.
	CodeAlreadyExists Code = "already_exists"

	// CodeNotFound marks a missing custody record or unknown identity.
	CodeNotFound Code = "not_found"

	// CodePreconditionFailed marks a ledger revert: the contract rejected the
	// transaction because a domain precondition did not hold (wrong delegation
	// state, duplicate registration). Carries the ledger's raw reason string.
	CodePreconditionFailed Code = "precondition_failed"

	// CodeIntegrity marks an authentication-tag failure on decrypt. Fatal:
	// either the sealed blob was tampered with or the wrong secret is
	// configured. Never retried.
	CodeIntegrity Code = "integrity_error"

	// CodeLedgerUnavailable marks a transient network or timeout failure
	// talking to the ledger node. The caller may retry with backoff; the
	// engine never retries on its own.
	CodeLedgerUnavailable Code = "ledger_unavailable"

	// CodeLedgerInternal marks an unexpected ledger failure that is neither a
	// revert nor a transport problem. Logged and surfaced, not auto-retried.
	CodeLedgerInternal Code = "ledger_internal"

	// CodeUnknownStatus marks a ledger status integer outside the closed
	// delegation status range.
	CodeUnknownStatus Code = "unknown_ledger_status"

	// CodeConfiguration marks a fatal startup problem: malformed envelope
	// secret, missing endpoint.
	CodeConfiguration Code = "configuration_error"

	CodeBadRequest Code = "bad_request"
	CodeValidation Code = "validation_error"
	CodeInternal   Code = "internal_error"
)

// Error is the concrete error type carried across package boundaries.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message while preserving the cause for
// errors.Is/As chains.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether the outermost domain error carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal
// for errors that did not originate in this package.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain code to an HTTP status. The mapping is owned
// here so transports stay consistent.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeAlreadyExists, CodePreconditionFailed:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeBadRequest, CodeValidation:
		return http.StatusBadRequest
	case CodeLedgerUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
