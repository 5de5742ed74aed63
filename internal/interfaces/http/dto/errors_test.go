package dto

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeConfig, http.StatusUnprocessableEntity},
		{ErrCodeFeatureDisabled, http.StatusConflict},
		{ErrCodeRemoteAPI, http.StatusBadGateway},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeInvalidInput, NormalizeErrorCode("INVALID_INPUT"))
	assert.Equal(t, ErrCodeRemoteAPI, NormalizeErrorCode(ErrCodeRemoteAPI))
}

func TestValidationErrorResponse_JSON(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{
		{Field: "status", Message: "This field is required"},
	})

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"error": {
			"code": "ERR_VALIDATION",
			"message": "Request validation failed",
			"request_id": "req-1",
			"details": [{"field": "status", "message": "This field is required"}]
		}
	}`, string(raw))
}

func TestSyncStepResponse_FinishedHasNullCursor(t *testing.T) {
	raw, err := json.Marshal(SyncStepResponse{Message: "done", Finished: true, TotalCount: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"done","next_cursor":null,"finished":true,"total_count":3}`, string(raw))
}

func TestNewSettingsResponse(t *testing.T) {
	resp := NewSettingsResponse(integration.SyncSettings{
		APIKey:           "secret",
		ScheduleInterval: 10 * time.Minute,
		DocumentType:     integration.DocumentTypeInvoice,
	})

	assert.True(t, resp.APIKeyConfigured)
	assert.Equal(t, "10m0s", resp.ScheduleInterval)
	assert.Equal(t, "invoice", resp.DocumentType)
	assert.NotNil(t, resp.TagFilter)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
}

func TestSettingsRequest_ParseScheduleInterval(t *testing.T) {
	d, err := SettingsRequest{ScheduleInterval: "15m"}.ParseScheduleInterval()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, d)

	_, err = SettingsRequest{ScheduleInterval: "often"}.ParseScheduleInterval()
	assert.Error(t, err)
}
