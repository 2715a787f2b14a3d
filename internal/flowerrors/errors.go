// Package flowerrors is Flowplane's error taxonomy: a small closed
// set of codes the admin API and repository layer use to decide HTTP status
// and logging treatment, independent of where in the call stack an error
// originates.
package flowerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the closed set of error kinds callers can branch on.
type Code string

const (
	// ConfigurationError is a malformed request that fails schema validation
	// before any domain rule is evaluated.
	ConfigurationError Code = "configuration_error"
	// ValidationError is a well-formed request that violates a domain rule
	// (empty allow_origins, wildcard origin with credentials, unknown alias).
	ValidationError Code = "validation_error"
	// ReferenceError is a reference to a resource that does not exist or was
	// concurrently deleted.
	ReferenceError Code = "reference_error"
	// ConflictError is a version mismatch on update, or a delete blocked by
	// resources that still reference the target.
	ConflictError Code = "conflict_error"
	// NotFoundError is a lookup for a resource that does not exist.
	NotFoundError Code = "not_found_error"
	// InternalError is a repository or cache I/O failure with no useful
	// detail for the caller.
	InternalError Code = "internal_error"
	// XDSProtocolError is a NACK from the data plane. It is recorded in the
	// operator-facing audit log and never propagated to the admin API.
	XDSProtocolError Code = "xds_protocol_error"
)

// httpStatus maps each code to the HTTP status the admin API reports (spec
// §7 "Propagation policy"). XDSProtocolError has no HTTP mapping since it
// never reaches an admin API response.
var httpStatus = map[Code]int{
	ConfigurationError: http.StatusBadRequest,
	ValidationError:    http.StatusBadRequest,
	ReferenceError:     http.StatusNotFound,
	ConflictError:      http.StatusConflict,
	NotFoundError:      http.StatusNotFound,
	InternalError:      http.StatusInternalServerError,
}

// Error is a flowerrors-coded error wrapping an optional underlying cause
// and an optional JSON-pointer-ish path identifying the offending field.
type Error struct {
	Code    Code
	Message string
	Path    string
	cause   error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path %s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// HTTPStatus returns the status code the admin API should respond with.
// InternalError's cause is intentionally omitted from the returned status
// payload by callers — only this integer and a correlation id belong in the
// response.
func (e *Error) HTTPStatus() int {
	if s, ok := httpStatus[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func newError(code Code, path, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Path: path}
}

// Configuration builds a ConfigurationError.
func Configuration(format string, args ...any) *Error {
	return newError(ConfigurationError, "", format, args...)
}

// Validation builds a ValidationError, optionally scoped to a field path.
func Validation(path, format string, args ...any) *Error {
	return newError(ValidationError, path, format, args...)
}

// Reference builds a ReferenceError for a dangling or concurrently deleted
// reference.
func Reference(path, format string, args ...any) *Error {
	return newError(ReferenceError, path, format, args...)
}

// Conflict builds a ConflictError, e.g. an expected_version mismatch or a
// delete blocked by referents.
func Conflict(format string, args ...any) *Error {
	return newError(ConflictError, "", format, args...)
}

// NotFound builds a NotFoundError.
func NotFound(format string, args ...any) *Error {
	return newError(NotFoundError, "", format, args...)
}

// Internal wraps cause as an InternalError. The cause is preserved for
// %w-based logging but must never be serialized into an API response.
func Internal(cause error, format string, args ...any) *Error {
	e := newError(InternalError, "", format, args...)
	e.cause = cause
	return e
}

// XDSProtocol builds an XDSProtocolError for a NACK received from a data
// plane stream. Callers log it; it must never reach the admin API.
func XDSProtocol(format string, args ...any) *Error {
	return newError(XDSProtocolError, "", format, args...)
}

// As reports whether err (or something it wraps) is a *Error, mirroring the
// standard errors.As pattern used throughout the package's callers.
func As(err error, target **Error) bool {
	return errors.As(err, target)
}

// CodeOf returns the Code of err if it (or something it wraps) is a
// *Error, and ok=false otherwise — handlers use this to decide HTTP status
// without needing the full Error value.
func CodeOf(err error) (Code, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code, true
	}
	return "", false
}
