package errors

import "errors"

// IsMissingCredential checks if an error indicates the app key header was
// absent from the request.
func IsMissingCredential(err error) bool {
	if err == nil {
		return false
	}

	var missingErr *MissingCredentialError
	return errors.As(err, &missingErr) || errors.Is(err, ErrMissingCredential)
}

// IsInvalidCredential checks if an error indicates the presented app key is
// not in the authorized set.
func IsInvalidCredential(err error) bool {
	if err == nil {
		return false
	}

	var invalidErr *InvalidCredentialError
	return errors.As(err, &invalidErr) || errors.Is(err, ErrInvalidCredential)
}

// IsCredential checks if an error is either kind of credential rejection.
// Both reject the request before any handler executes.
func IsCredential(err error) bool {
	return IsMissingCredential(err) || IsInvalidCredential(err)
}

// IsStartupCapability checks if an error is a fatal startup invariant
// violation.
func IsStartupCapability(err error) bool {
	if err == nil {
		return false
	}

	var capErr *StartupCapabilityError
	return errors.As(err, &capErr)
}

// IsNotFound checks if an error indicates a resource was not found.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr) || errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}

	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// ShouldRetry checks if an operation should be retried based on the error.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	// Credential rejections are final by policy.
	if IsCredential(err) {
		return false
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return IsRetryable(customErr.Code())
	}

	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	if err == nil {
		return CodeOK
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Code()
	}

	switch {
	case IsMissingCredential(err):
		return CodeMissingCredential
	case IsInvalidCredential(err):
		return CodeInvalidCredential
	case IsNotFound(err):
		return CodeNotFound
	default:
		return CodeInternal
	}
}

// GetErrorMessage extracts a human-readable message from an error.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Message()
	}

	return err.Error()
}

// Cause returns the underlying cause of an error.
// It unwraps the error chain until it finds the root cause.
func Cause(err error) error {
	for {
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		underlying := unwrapper.Unwrap()
		if underlying == nil {
			return err
		}
		err = underlying
	}
}
