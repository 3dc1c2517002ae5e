package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrMessageNotFound  = errors.New("message not found")

	// Identity errors
	ErrUnauthenticated = errors.New("authentication required")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenInvalid    = errors.New("invalid token")
	ErrInvalidFormat   = errors.New("invalid token format")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
	ErrUploadTooLarge   = errors.New("upload exceeds the maximum allowed size")
)

// Pipeline errors
var (
	// ErrRequiredStage marks a failed enrichment stage that must block persistence
	ErrRequiredStage = errors.New("required enrichment stage failed")
	// ErrStorage marks a persistence or object storage failure
	ErrStorage = errors.New("storage failure")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewRequiredStageError wraps the cause of a failed required enrichment stage
func NewRequiredStageError(stage string, cause error) error {
	return &CustomError{
		Err:     ErrRequiredStage,
		Message: stage + ": " + cause.Error(),
		Code:    stage,
		Cause:   cause,
	}
}

// NewStorageError wraps the cause of a failed storage operation
func NewStorageError(operation string, cause error) error {
	return &CustomError{
		Err:     ErrStorage,
		Message: operation + ": " + cause.Error(),
		Code:    operation,
		Cause:   cause,
	}
}

// Is returns whether err matches target or any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Cause   error
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap exposes both the category sentinel and the underlying cause
func (e *CustomError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}
