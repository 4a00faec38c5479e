// Package werrors defines the error taxonomy shared by every exchange
// protocol adapter: ValidationError, DataError, NotAllowedError,
// NotFoundError, DuplicateError, InvalidStateError and VerificationError.
// Adapters translate these into protocol-specific wire payloads; none of
// them is ever a source-language type, only a semantic kind.
package werrors

import (
	"fmt"
	"net/http"
)

// Kind is the semantic error taxonomy shared by every adapter.
type Kind string

const (
	KindValidation   Kind = "ValidationError"
	KindData         Kind = "DataError"
	KindNotAllowed   Kind = "NotAllowedError"
	KindNotFound     Kind = "NotFoundError"
	KindDuplicate    Kind = "DuplicateError"
	KindInvalidState Kind = "InvalidStateError"
	KindVerification Kind = "VerificationError"
)

// Error is the canonical error shape carried on the wire as
// {name, message, details?, cause?} and recorded verbatim into
// exchange.lastError.
type Error struct {
	Name    Kind   `json:"name" bson:"name"`
	Message string `json:"message" bson:"message"`
	Details any    `json:"details,omitempty" bson:"details,omitempty"`
	Cause   error  `json:"-" bson:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, message string) *Error {
	return &Error{Name: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Name: kind, Message: fmt.Sprintf(format, args...)}
}

func WithDetails(kind Kind, message string, details any) *Error {
	return &Error{Name: kind, Message: message, Details: details}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Name: kind, Message: message, Cause: cause}
}

func Validation(msg string) *Error   { return New(KindValidation, msg) }
func Data(msg string) *Error         { return New(KindData, msg) }
func NotAllowed(msg string) *Error   { return New(KindNotAllowed, msg) }
func NotFound(msg string) *Error     { return New(KindNotFound, msg) }
func Duplicate(msg string) *Error    { return New(KindDuplicate, msg) }
func InvalidState(msg string) *Error { return New(KindInvalidState, msg) }

// Verification wraps a verifier-side failure, carrying the raw
// credentialResults alongside the message.
func Verification(msg string, credentialResults any) *Error {
	return WithDetails(KindVerification, msg, map[string]any{"credentialResults": credentialResults})
}

// As extracts an *Error from err, or nil if err is not (or does not wrap) one.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return nil
}

// HTTPStatus maps a Kind to the HTTP status code the VC-API / workflow
// CRUD surface responds with; protocol adapters with their own error
// vocabularies (OID4VCI, OID4VP) map separately.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindData:
		return http.StatusBadRequest
	case KindNotAllowed:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState, KindDuplicate:
		return http.StatusConflict
	case KindVerification:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
