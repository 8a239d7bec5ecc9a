package errors

// Error codes for categorizing errors.
// These codes map to HTTP status codes where applicable.
const (
	// CodeOK indicates success (not an error).
	CodeOK = "OK"

	// CodeUnknown indicates an unknown error occurred.
	CodeUnknown = "UNKNOWN"

	// CodeInvalidArgument indicates client specified an invalid argument.
	CodeInvalidArgument = "INVALID_ARGUMENT"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound = "NOT_FOUND"

	// CodeTimeout indicates an operation timed out.
	CodeTimeout = "TIMEOUT"

	// CodeInternal indicates internal errors.
	CodeInternal = "INTERNAL"

	// CodeUnavailable indicates the service is currently unavailable.
	CodeUnavailable = "UNAVAILABLE"

	// Credential admission error codes

	// CodeMissingCredential indicates the request carried no app key at all.
	CodeMissingCredential = "MISSING_CREDENTIAL"

	// CodeInvalidCredential indicates the presented app key is not in the
	// authorized set.
	CodeInvalidCredential = "INVALID_CREDENTIAL"

	// CodeStartupCapability indicates a required singleton dependency was
	// absent when the process assembled its capabilities. Fatal: the process
	// must not serve traffic in this state.
	CodeStartupCapability = "STARTUP_CAPABILITY_MISSING"

	// Domain-specific error codes

	// CodeValidation indicates input validation failed.
	CodeValidation = "VALIDATION_ERROR"

	// CodeDatabaseError indicates a store operation failed.
	CodeDatabaseError = "DATABASE_ERROR"

	// CodeCacheError indicates a cache operation failed.
	CodeCacheError = "CACHE_ERROR"

	// CodeConfigError indicates a configuration error.
	CodeConfigError = "CONFIG_ERROR"
)

// ErrorCategory represents a high-level error category.
type ErrorCategory string

const (
	// CategoryClient indicates a client-side error (4xx).
	CategoryClient ErrorCategory = "CLIENT_ERROR"

	// CategoryServer indicates a server-side error (5xx).
	CategoryServer ErrorCategory = "SERVER_ERROR"

	// CategoryAuth indicates a credential admission error.
	CategoryAuth ErrorCategory = "AUTH_ERROR"

	// CategoryFatal indicates a startup invariant violation.
	CategoryFatal ErrorCategory = "FATAL_ERROR"
)

// GetCategory returns the category for an error code.
func GetCategory(code string) ErrorCategory {
	switch code {
	case CodeInvalidArgument, CodeValidation, CodeNotFound:
		return CategoryClient

	case CodeMissingCredential, CodeInvalidCredential:
		return CategoryAuth

	case CodeStartupCapability, CodeConfigError:
		return CategoryFatal

	default:
		return CategoryServer
	}
}

// IsRetryable returns true if an error with the given code should be retried.
// Credential errors are never retryable: resubmitting the same bad key is
// meaningless, and a missing capability needs a process restart.
func IsRetryable(code string) bool {
	switch code {
	case CodeTimeout, CodeUnavailable, CodeDatabaseError, CodeCacheError:
		return true
	default:
		return false
	}
}

// IsClientError returns true if the error is a client error (4xx).
func IsClientError(code string) bool {
	cat := GetCategory(code)
	return cat == CategoryClient || cat == CategoryAuth
}

// IsFatal returns true if the error means the process must not serve traffic.
func IsFatal(code string) bool {
	return GetCategory(code) == CategoryFatal
}
