package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name          string
		err           *StandardError
		wantCode      string
		wantRetries   int
		wantRetryable bool
	}{
		{
			name:        "business error is thrown without retries",
			err:         NewSurveyTotalInvalidError("total is 85"),
			wantCode:    "SURVEY_TOTAL_INVALID",
			wantRetries: 0,
		},
		{
			name:          "database errors share one BPMN code",
			err:           NewQueryExecutionFailedError("list_applications", errors.New("connection reset")),
			wantCode:      "DATABASE_ERROR",
			wantRetries:   3,
			wantRetryable: true,
		},
		{
			name:          "confirm failure gets a single retry",
			err:           NewSelectionConfirmFailedError(errors.New("serialization failure")),
			wantCode:      "SELECTION_CONFIRM_FAILED",
			wantRetries:   1,
			wantRetryable: true,
		},
		{
			name:        "unmapped code is passed through",
			err:         NewInternalError(errors.New("boom")),
			wantCode:    "INTERNAL_ERROR",
			wantRetries: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
			assert.Equal(t, tt.wantRetryable, bpmn.Retryable)
			assert.Equal(t, string(tt.err.Code), bpmn.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestConvertToBPMNError_CarriesMetadata(t *testing.T) {
	stdErr := NewSurveyTotalInvalidError("total is 110").
		WithMetadata("total", 110).
		WithMetadata("difference", 10)

	vars := ConvertToBPMNError(stdErr).ToErrorVariables()

	assert.Equal(t, "SURVEY_TOTAL_INVALID", vars["errorCode"])
	assert.Equal(t, 110, vars["total"])
	assert.Equal(t, 10, vars["difference"])
	assert.Equal(t, false, vars["retryable"])
}

func TestAsStandardError(t *testing.T) {
	assert.Nil(t, AsStandardError(nil))

	wrapped := fmt.Errorf("confirm: %w", NewSelectionAlreadyConfirmedError("project-1"))
	got := AsStandardError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, ErrCodeSelectionAlreadyConfirmed, got.Code)

	plain := AsStandardError(errors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewWeightsInvalidError("sum is 90"))

	assert.True(t, HasCode(err, ErrCodeWeightsInvalid))
	assert.False(t, HasCode(err, ErrCodeSurveyTotalInvalid))
	assert.False(t, HasCode(errors.New("plain"), ErrCodeWeightsInvalid))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeInputValidationFailed, http.StatusBadRequest},
		{ErrCodeWeightsInvalid, http.StatusBadRequest},
		{ErrCodeSelectionInvalid, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeProjectNotFound, http.StatusNotFound},
		{ErrCodeSelectionAlreadyConfirmed, http.StatusConflict},
		{ErrCodeQueryTimeout, http.StatusGatewayTimeout},
		{ErrCodeDatabaseConnectionFailed, http.StatusServiceUnavailable},
		{ErrCodeWorkflowEngineUnavailable, http.StatusServiceUnavailable},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "SELECTION", GetErrorCategory(ErrCodeSelectionInvalid))
	assert.Equal(t, "SCORING", GetErrorCategory(ErrCodeSurveyTotalInvalid))
	assert.Equal(t, "SCORING", GetErrorCategory(ErrCodeWeightsInvalid))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryTimeout))
	assert.Equal(t, "INFRASTRUCTURE", GetErrorCategory(ErrCodeIndexingFailed))
	assert.Equal(t, "AUTH", GetErrorCategory(ErrCodeForbidden))
	assert.Equal(t, "NOT_FOUND", GetErrorCategory(ErrCodeProjectNotFound))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInputValidationFailed))
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeDatabaseUpdateFailed))
	assert.True(t, IsRetryableErrorCode(ErrCodeSelectionConfirmFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeSelectionAlreadyConfirmed))
	assert.False(t, IsRetryableErrorCode(ErrCodeSurveyTotalInvalid))
}

func TestIsBPMNCode(t *testing.T) {
	assert.True(t, IsBPMNCode("DATABASE_ERROR"))
	assert.True(t, IsBPMNCode("SELECTION_ALREADY_CONFIRMED"))
	assert.False(t, IsBPMNCode("QUERY_EXECUTION_FAILED"))
	assert.False(t, IsBPMNCode("FORBIDDEN"))
}
