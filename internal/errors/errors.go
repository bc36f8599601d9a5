package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind represents the category of a failure. Callers switch on Kind to
// choose a transport status or a UI message.
type Kind int

const (
	// KindInternal - unexpected internal state
	KindInternal Kind = iota
	// KindConfig - missing or invalid configuration (credentials, limits)
	KindConfig
	// KindValidation - invalid caller input
	KindValidation
	// KindRemoteNotFound - repository or resource does not exist on the host
	KindRemoteNotFound
	// KindRemoteUnauthorized - host rejected the credential
	KindRemoteUnauthorized
	// KindRemoteAPI - any other host API failure
	KindRemoteAPI
	// KindModelUnavailable - generative model transport or auth failure
	KindModelUnavailable
	// KindMalformedOutput - model answered but broke the output contract
	KindMalformedOutput
)

// Severity represents how critical an error is
type Severity int

const (
	// SeverityLow - can continue with degraded functionality
	SeverityLow Severity = iota
	// SeverityMedium - request failed, process is healthy
	SeverityMedium
	// SeverityHigh - significant issue, may impact functionality
	SeverityHigh
	// SeverityCritical - must be addressed, stops execution
	SeverityCritical
)

// Error is a tagged failure carrying its kind and optional remote status.
type Error struct {
	Kind     Kind
	Severity Severity
	Message  string
	// Status is the remote HTTP status for KindRemoteAPI, 0 otherwise.
	Status  int
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsFatal returns true if this error should stop execution
func (e *Error) IsFatal() bool {
	return e.Severity == SeverityCritical
}

// DetailedString returns a detailed error message with context
func (e *Error) DetailedString() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] [%s] %s\n", severityString(e.Severity), e.Kind, e.Message))
	if e.Status != 0 {
		sb.WriteString(fmt.Sprintf("Status: %d\n", e.Status))
	}
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("Caused by: %v\n", e.Cause))
	}
	if len(e.Context) > 0 {
		sb.WriteString("Context:\n")
		for k, v := range e.Context {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", k, v))
		}
	}

	return sb.String()
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "configuration_error"
	case KindValidation:
		return "invalid_request"
	case KindRemoteNotFound:
		return "remote_not_found"
	case KindRemoteUnauthorized:
		return "remote_unauthorized"
	case KindRemoteAPI:
		return "remote_api_error"
	case KindModelUnavailable:
		return "model_unavailable"
	case KindMalformedOutput:
		return "malformed_model_output"
	default:
		return "internal_error"
	}
}

func severityString(s Severity) string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// New creates a new error with the given kind, severity, and message
func New(kind Kind, severity Severity, message string) *Error {
	return &Error{
		Kind:     kind,
		Severity: severity,
		Message:  message,
	}
}

// Wrap wraps an existing error with a kind. Returns nil for a nil err.
func Wrap(err error, kind Kind, severity Severity, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:     kind,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// Convenience constructors

// ConfigError creates a configuration error
func ConfigError(message string) *Error {
	return New(KindConfig, SeverityCritical, message)
}

// ConfigErrorf creates a configuration error with formatting
func ConfigErrorf(format string, args ...interface{}) *Error {
	return New(KindConfig, SeverityCritical, fmt.Sprintf(format, args...))
}

// ValidationErrorf creates a validation error with formatting
func ValidationErrorf(format string, args ...interface{}) *Error {
	return New(KindValidation, SeverityMedium, fmt.Sprintf(format, args...))
}

// RemoteNotFound reports a repository or resource missing on the host.
func RemoteNotFound(resource string, cause error) *Error {
	return &Error{
		Kind:     KindRemoteNotFound,
		Severity: SeverityMedium,
		Message:  fmt.Sprintf("%s not found", resource),
		Status:   404,
		Cause:    cause,
	}
}

// RemoteUnauthorized reports a rejected host credential.
func RemoteUnauthorized(cause error) *Error {
	return &Error{
		Kind:     KindRemoteUnauthorized,
		Severity: SeverityHigh,
		Message:  "repository host rejected the access token",
		Cause:    cause,
	}
}

// RemoteAPIError reports any other host failure. status is 0 for transport
// errors that never produced a response.
func RemoteAPIError(status int, message string, cause error) *Error {
	return &Error{
		Kind:     KindRemoteAPI,
		Severity: SeverityMedium,
		Message:  message,
		Status:   status,
		Cause:    cause,
	}
}

// ModelUnavailable wraps a generative model transport failure.
func ModelUnavailable(cause error) *Error {
	return Wrap(cause, KindModelUnavailable, SeverityMedium, "generative model unavailable")
}

// MalformedOutputf reports a model completion that violates the report contract.
func MalformedOutputf(format string, args ...interface{}) *Error {
	return New(KindMalformedOutput, SeverityMedium, "malformed model output: "+fmt.Sprintf(format, args...))
}

// InternalErrorf creates an internal error
func InternalErrorf(format string, args ...interface{}) *Error {
	return New(KindInternal, SeverityCritical, fmt.Sprintf(format, args...))
}

// As finds the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsFatal checks if an error is fatal (should stop execution)
func IsFatal(err error) bool {
	if e, ok := As(err); ok {
		return e.IsFatal()
	}
	return false
}
