// Package errors provides the structured error system for gmusicfs with
// error codes, categories, and cause chaining.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies one failure condition in the filesystem or its
// collaborators.
type ErrorCode string

const (
	// Path and entity resolution. Mapped to the bridge's missing-entry
	// signal, never fatal to the mount.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// Credential configuration. Fatal at startup, before any network call.
	ErrCodeNoCredentials      ErrorCode = "NO_CREDENTIALS"
	ErrCodeCredentialsExposed ErrorCode = "CREDENTIALS_EXPOSED"

	// Remote music service. Fatal at startup or rescan.
	ErrCodeAuthFailed   ErrorCode = "AUTH_FAILED"
	ErrCodeCatalogFetch ErrorCode = "CATALOG_FETCH"

	// Streaming. Fatal for the single open/read that hit them.
	ErrCodeStreamOpen ErrorCode = "STREAM_OPEN"
	ErrCodeStreamRead ErrorCode = "STREAM_READ"
	ErrCodeSizeProbe  ErrorCode = "SIZE_PROBE"

	// Caller misuse of the open/read/release contract. A programming
	// error, not user-recoverable.
	ErrCodeContractViolation ErrorCode = "CONTRACT_VIOLATION"

	// Process lifecycle.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrCodeMountFailed   ErrorCode = "MOUNT_FAILED"
	ErrCodeUnmountFailed ErrorCode = "UNMOUNT_FAILED"
)

// ErrorCategory is the broad class an error code belongs to.
type ErrorCategory string

const (
	CategoryFilesystem ErrorCategory = "filesystem"
	CategoryCredential ErrorCategory = "credential"
	CategoryService    ErrorCategory = "service"
	CategoryStream     ErrorCategory = "stream"
	CategoryInternal   ErrorCategory = "internal"
	CategoryConfig     ErrorCategory = "config"
)

// Error is a structured gmusicfs error.
type Error struct {
	Code      ErrorCode
	Category  ErrorCategory
	Message   string
	Component string
	Path      string
	Cause     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Component != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Component, e.Code, msg)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches two structured errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// New creates a structured error with the category derived from the code.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Category: categoryOf(code),
		Message:  message,
	}
}

// Newf creates a structured error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a structured error with an underlying cause.
func Wrap(code ErrorCode, message string, cause error) *Error {
	e := New(code, message)
	e.Cause = cause
	return e
}

// WithComponent tags the error with the component that produced it.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// WithPath tags the error with the virtual path that triggered it.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

func categoryOf(code ErrorCode) ErrorCategory {
	switch code {
	case ErrCodeNotFound:
		return CategoryFilesystem
	case ErrCodeNoCredentials, ErrCodeCredentialsExposed:
		return CategoryCredential
	case ErrCodeAuthFailed, ErrCodeCatalogFetch:
		return CategoryService
	case ErrCodeStreamOpen, ErrCodeStreamRead, ErrCodeSizeProbe:
		return CategoryStream
	case ErrCodeInvalidConfig:
		return CategoryConfig
	case ErrCodeMountFailed, ErrCodeUnmountFailed:
		return CategoryFilesystem
	default:
		return CategoryInternal
	}
}

// CodeOf returns the structured code carried by err, or the internal
// contract-violation sentinel "" when err is not a structured error.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// IsNotFound reports whether err represents a missing path or entity.
func IsNotFound(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCodeNotFound
}

// IsCredential reports whether err is a credential configuration failure.
func IsCredential(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Category == CategoryCredential
	}
	return false
}
