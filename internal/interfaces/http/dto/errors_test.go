package dto

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeInvalidState, http.StatusConflict},
		{ErrCodeConfiguration, http.StatusPreconditionFailed},
		{ErrCodeTransport, http.StatusBadGateway},
		{ErrCodePersistence, http.StatusInternalServerError},
		{"ERR_SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(shared.CodeNotFound))
	assert.Equal(t, ErrCodeTransport, NormalizeErrorCode(shared.CodeTransport))
	assert.Equal(t, ErrCodeBadRequest, NormalizeErrorCode(ErrCodeBadRequest))
}

func TestErrorFromDomain(t *testing.T) {
	t.Run("wrapped domain error", func(t *testing.T) {
		err := fmt.Errorf("sync: %w", shared.NewTransportError("remote unavailable", errors.New("503")))

		code, status, message := ErrorFromDomain(err)

		assert.Equal(t, ErrCodeTransport, code)
		assert.Equal(t, http.StatusBadGateway, status)
		assert.Equal(t, "remote unavailable: 503", message)
	})

	t.Run("configuration error", func(t *testing.T) {
		code, status, _ := ErrorFromDomain(shared.NewConfigurationError("missing api key"))

		assert.Equal(t, ErrCodeConfiguration, code)
		assert.Equal(t, http.StatusPreconditionFailed, status)
	})

	t.Run("plain error is internal", func(t *testing.T) {
		code, status, message := ErrorFromDomain(errors.New("boom"))

		assert.Equal(t, ErrCodeInternal, code)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "An unexpected error occurred", message)
	})
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{{Field: "Name", Message: "This field is required"}})

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 1)
}
