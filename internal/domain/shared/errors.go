package shared

import "errors"

// Error codes for the sync/persistence taxonomy
const (
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeTransport     = "TRANSPORT_ERROR"
	CodePersistence   = "PERSISTENCE_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeInvalidState  = "INVALID_STATE"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches domain errors by code so sentinels work with errors.Is
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that wraps cause
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common domain errors
var (
	ErrNotFound     = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidState = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
)

// NewConfigurationError reports missing credentials or endpoints. It blocks a
// sync before any network call is made.
func NewConfigurationError(message string) *DomainError {
	return NewDomainError(CodeConfiguration, message)
}

// NewTransportError wraps a failed or non-success remote call.
func NewTransportError(message string, cause error) *DomainError {
	return WrapDomainError(CodeTransport, message, cause)
}

// NewPersistenceError wraps a schema or write failure.
func NewPersistenceError(message string, cause error) *DomainError {
	return WrapDomainError(CodePersistence, message, cause)
}

// HasCode reports whether err is a DomainError carrying code anywhere in its chain
func HasCode(err error, code string) bool {
	for err != nil {
		var de *DomainError
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Cause
	}
	return false
}

// IsConfigurationError reports whether err is a configuration error
func IsConfigurationError(err error) bool {
	return HasCode(err, CodeConfiguration)
}

// IsTransportError reports whether err is a transport error
func IsTransportError(err error) bool {
	return HasCode(err, CodeTransport)
}

// IsPersistenceError reports whether err is a persistence error
func IsPersistenceError(err error) bool {
	return HasCode(err, CodePersistence)
}
