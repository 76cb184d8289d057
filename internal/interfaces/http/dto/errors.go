package dto

import (
	"errors"
	"net/http"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/shared"
)

// Error code constants returned in API error bodies
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
)

// Resource and state error codes
const (
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
)

// Sync error codes
const (
	// ErrCodeConfiguration means credentials or endpoints are missing
	ErrCodeConfiguration = "ERR_CONFIGURATION"
	// ErrCodeTransport means the external project system failed
	ErrCodeTransport = "ERR_TRANSPORT"
	// ErrCodePersistence means a store could not be read or written
	ErrCodePersistence = "ERR_PERSISTENCE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,

	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeInvalidState: http.StatusConflict,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,

	ErrCodeConfiguration: http.StatusPreconditionFailed,
	ErrCodeTransport:     http.StatusBadGateway,
	ErrCodePersistence:   http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	shared.CodeNotFound:      ErrCodeNotFound,
	shared.CodeInvalidInput:  ErrCodeInvalidInput,
	shared.CodeInvalidState:  ErrCodeInvalidState,
	shared.CodeConfiguration: ErrCodeConfiguration,
	shared.CodeTransport:     ErrCodeTransport,
	shared.CodePersistence:   ErrCodePersistence,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}

// ErrorFromDomain resolves the API code, HTTP status and message for err.
// The outermost DomainError in the chain wins; anything else is internal.
func ErrorFromDomain(err error) (code string, status int, message string) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code = NormalizeErrorCode(domainErr.Code)
		return code, GetHTTPStatus(code), domainErr.Error()
	}
	return ErrCodeInternal, http.StatusInternalServerError, "An unexpected error occurred"
}
