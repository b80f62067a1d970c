package models

import (
	"errors"
	"fmt"
)

// ErrorKind is a machine-readable classification of pipeline errors.
// Callers switch on the kind instead of on concrete error types.
type ErrorKind string

const (
	KindConfiguration       ErrorKind = "configuration"
	KindConnectivity        ErrorKind = "connectivity"
	KindTimeout             ErrorKind = "timeout"
	KindRetryExhausted      ErrorKind = "retry_exhausted"
	KindPathValidation      ErrorKind = "path_validation"
	KindNamespaceValidation ErrorKind = "namespace_validation"
	KindValidation          ErrorKind = "validation"
	KindSecurity            ErrorKind = "security"
	KindFileSize            ErrorKind = "file_size"
	KindYAMLProcessing      ErrorKind = "yaml_processing"
)

// Error carries an ErrorKind alongside a human message and an optional cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a kind-tagged error with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a kind-tagged error wrapping a cause.
func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the ErrorKind of err, or "" if err carries no kind.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// IsRetryable reports whether an operation that produced err is worth
// retrying. Validation and security failures are deterministic and never
// retried; unclassified errors are assumed to be transient network faults.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindConfiguration, KindPathValidation, KindNamespaceValidation,
		KindValidation, KindSecurity, KindFileSize, KindYAMLProcessing:
		return false
	}
	return true
}

// IsFatal reports whether err should abort the whole run rather than be
// recorded against a single object.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindConfiguration, KindConnectivity, KindTimeout, KindRetryExhausted:
		return true
	}
	return false
}
