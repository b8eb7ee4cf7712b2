package tracking

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a ServiceError.
type ErrorCode string

const (
	CodeConfiguration  ErrorCode = "CONFIGURATION"
	CodeAuthentication ErrorCode = "AUTHENTICATION"
	CodeTimeout        ErrorCode = "TIMEOUT"
	CodeTransport      ErrorCode = "TRANSPORT"
	CodeUpstream       ErrorCode = "UPSTREAM"
	CodeInvalidRequest ErrorCode = "INVALID_REQUEST"
)

// Sentinel errors, one per ErrorCode. A ServiceError matches the sentinel of
// its code under errors.Is.
var (
	// ErrNotConfigured indicates required credentials are missing.
	ErrNotConfigured = errors.New("credentials not configured")

	// ErrAuthenticationFailed indicates the upstream rejected the credentials.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrTimeout indicates the upstream call exceeded its deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrTransport indicates the request was sent but no response arrived.
	ErrTransport = errors.New("no response received")

	// ErrUpstream indicates the upstream answered with a failure status.
	ErrUpstream = errors.New("upstream request failed")

	// ErrInvalidRequest indicates the request could not be built.
	ErrInvalidRequest = errors.New("invalid request")
)

var sentinels = map[ErrorCode]error{
	CodeConfiguration:  ErrNotConfigured,
	CodeAuthentication: ErrAuthenticationFailed,
	CodeTimeout:        ErrTimeout,
	CodeTransport:      ErrTransport,
	CodeUpstream:       ErrUpstream,
	CodeInvalidRequest: ErrInvalidRequest,
}

// ServiceError represents a failure talking to an external service.
type ServiceError struct {
	Service    string
	Code       ErrorCode
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Service, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Service, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// Is matches another ServiceError with the same code, or the sentinel
// registered for e.Code.
func (e *ServiceError) Is(target error) bool {
	if t, ok := target.(*ServiceError); ok {
		return e.Code == t.Code
	}
	return sentinels[e.Code] == target
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service string, code ErrorCode, message string) *ServiceError {
	return &ServiceError{
		Service: service,
		Code:    code,
		Message: message,
	}
}

// WithCause adds a cause to the error.
func (e *ServiceError) WithCause(err error) *ServiceError {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *ServiceError) WithStatusCode(code int) *ServiceError {
	e.StatusCode = code
	return e
}

// IsTransient reports whether err is a timeout or transport failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrTransport)
}

// ErrorType returns the code of the first ServiceError in err's chain, or
// "unknown". Used as a metrics label.
func ErrorType(err error) string {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return string(svcErr.Code)
	}
	return "unknown"
}

// ErrorMessage returns the Message of the first ServiceError in err's chain,
// or err.Error() when there is none.
func ErrorMessage(err error) string {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	return err.Error()
}
