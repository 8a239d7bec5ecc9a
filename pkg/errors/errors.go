package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Common sentinel errors for quick checks
var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")

	// ErrMissingCredential is returned when a request carries no app key.
	ErrMissingCredential = errors.New("missing app key")

	// ErrInvalidCredential is returned when the presented app key is not in
	// the authorized set.
	ErrInvalidCredential = errors.New("invalid app key")

	// ErrInvalidInput is returned when request input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable is returned when a required capability is unavailable.
	ErrUnavailable = errors.New("capability unavailable")

	// ErrInternal is returned when an internal error occurs.
	ErrInternal = errors.New("internal error")
)

// MissingCredentialGuidance is the fixed human-readable rejection message for
// requests that arrive without the app key header. Clients depend on this
// exact wording.
const MissingCredentialGuidance = "Missing app key, please set x-app-key header to your request."

// Error is the base interface for all custom errors in the system.
// It extends the standard error interface with additional context.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
	stack   []uintptr
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// Stack returns the captured stack trace.
func (e *BaseError) Stack() []uintptr {
	return e.stack
}

// captureStack captures the current stack trace.
func captureStack(skip int) []uintptr {
	const maxDepth = 32
	stack := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, stack)
	return stack[:n]
}

// StackTrace returns a formatted stack trace string.
func (e *BaseError) StackTrace() string {
	if len(e.stack) == 0 {
		return ""
	}

	var buf strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&buf, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return buf.String()
}

// MissingCredentialError is returned when a request arrives without the
// x-app-key header. Recoverable only by the caller resubmitting with the
// header set.
type MissingCredentialError struct {
	*BaseError
	Header string
}

// NewMissingCredentialError creates a new missing credential error carrying
// the fixed guidance message.
func NewMissingCredentialError(header string) *MissingCredentialError {
	return &MissingCredentialError{
		BaseError: &BaseError{
			code:    CodeMissingCredential,
			message: MissingCredentialGuidance,
			cause:   ErrMissingCredential,
			stack:   captureStack(1),
		},
		Header: header,
	}
}

// Error implements the error interface.
func (e *MissingCredentialError) Error() string {
	return e.message
}

// InvalidCredentialError is returned when the presented app key is not a
// member of the authorized set. Deliberately carries no detail about why the
// key was rejected.
type InvalidCredentialError struct {
	*BaseError
}

// NewInvalidCredentialError creates a new invalid credential error.
func NewInvalidCredentialError() *InvalidCredentialError {
	return &InvalidCredentialError{
		BaseError: &BaseError{
			code:    CodeInvalidCredential,
			message: "Invalid app key.",
			cause:   ErrInvalidCredential,
			stack:   captureStack(1),
		},
	}
}

// StartupCapabilityError is returned when a required singleton capability is
// absent at process start. It is fatal: the process must exit instead of
// serving traffic, and it is never surfaced as a per-request error.
type StartupCapabilityError struct {
	*BaseError
	Capability string
}

// NewStartupCapabilityError creates a new startup capability error.
func NewStartupCapabilityError(capability string, cause error) *StartupCapabilityError {
	return &StartupCapabilityError{
		BaseError: &BaseError{
			code:    CodeStartupCapability,
			message: fmt.Sprintf("required capability %q unavailable at startup", capability),
			cause:   cause,
			stack:   captureStack(1),
		},
		Capability: capability,
	}
}

// ValidationError represents an input validation error.
type ValidationError struct {
	*BaseError
	Field string
	Value interface{}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		BaseError: &BaseError{
			code:    CodeValidation,
			message: message,
			stack:   captureStack(1),
		},
		Field: field,
		Value: value,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	*BaseError
	Resource string
	ID       string
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{
		BaseError: &BaseError{
			code:    CodeNotFound,
			message: fmt.Sprintf("%s not found", resource),
			stack:   captureStack(1),
		},
		Resource: resource,
		ID:       id,
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// DatabaseError represents a store operation failure.
type DatabaseError struct {
	*BaseError
	Operation string
}

// NewDatabaseError creates a new database error.
func NewDatabaseError(operation string, cause error) *DatabaseError {
	return &DatabaseError{
		BaseError: &BaseError{
			code:    CodeDatabaseError,
			message: fmt.Sprintf("database operation %q failed", operation),
			cause:   cause,
			stack:   captureStack(1),
		},
		Operation: operation,
	}
}

// CacheError represents a cache operation failure.
type CacheError struct {
	*BaseError
	Operation string
}

// NewCacheError creates a new cache error.
func NewCacheError(operation string, cause error) *CacheError {
	return &CacheError{
		BaseError: &BaseError{
			code:    CodeCacheError,
			message: fmt.Sprintf("cache operation %q failed", operation),
			cause:   cause,
			stack:   captureStack(1),
		},
		Operation: operation,
	}
}

// InternalError represents an internal server error.
type InternalError struct {
	*BaseError
	Operation string
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, cause error) *InternalError {
	if message == "" {
		message = "internal error"
	}
	return &InternalError{
		BaseError: &BaseError{
			code:    CodeInternal,
			message: message,
			cause:   cause,
			stack:   captureStack(1),
		},
	}
}

// WithOperation sets the operation context.
func (e *InternalError) WithOperation(op string) *InternalError {
	e.Operation = op
	return e
}

// Wrap wraps an error with additional context.
// If the error is already one of our custom types, it preserves the code
// and adds the cause chain. Otherwise, it creates an InternalError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	if e, ok := err.(Error); ok {
		return &BaseError{
			code:    e.Code(),
			message: message,
			cause:   err,
			stack:   captureStack(1),
		}
	}

	return &InternalError{
		BaseError: &BaseError{
			code:    CodeInternal,
			message: message,
			cause:   err,
			stack:   captureStack(1),
		},
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// New creates a new error with a message.
func New(message string) error {
	return &BaseError{
		code:    CodeInternal,
		message: message,
		stack:   captureStack(1),
	}
}

// Newf creates a new error with a formatted message.
func Newf(format string, args ...interface{}) error {
	return New(fmt.Sprintf(format, args...))
}
