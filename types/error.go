package types

import "fmt"

// ErrorCode represents a unified error code across the service.
type ErrorCode string

// Externally-caused failure codes. These are converted to in-band result
// fields (SiteResult.Error, EconomicSnapshot.Stale) and never abort a batch.
const (
	ErrAgentInvocation ErrorCode = "AGENT_INVOCATION"
	ErrSchemaMismatch  ErrorCode = "SCHEMA_MISMATCH"
	ErrEconomicData    ErrorCode = "ECONOMIC_DATA_UNAVAILABLE"
	ErrTimeout         ErrorCode = "TIMEOUT"
	ErrUpstreamError   ErrorCode = "UPSTREAM_ERROR"
)

// Programmer-error and request-validation codes. Only these propagate as
// returned errors.
const (
	ErrInvalidState   ErrorCode = "INVALID_STATE"
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrInternalError  ErrorCode = "INTERNAL_ERROR"
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrRateLimited    ErrorCode = "RATE_LIMITED"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Website    string    `json:"website,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithWebsite tags the error with the website it occurred on.
func (e *Error) WithWebsite(website string) *Error {
	e.Website = website
	return e
}

// NewInvalidStateError reports a programmer error, e.g. closing an
// already-closed QueryRecord. It should not occur in correct usage.
func NewInvalidStateError(message string) *Error {
	return NewError(ErrInvalidState, message)
}

// NewAgentInvocationError wraps a failure of the external browser agent.
func NewAgentInvocationError(website string, cause error) *Error {
	return NewError(ErrAgentInvocation, "browser agent invocation failed").
		WithWebsite(website).
		WithCause(cause).
		WithRetryable(true)
}

// IsErrorCode checks whether err is an *Error with the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
