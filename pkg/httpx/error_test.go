package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ARUMANDESU/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"gitlab.com/ucmsv2/emailverify/pkg/errorx"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	t.Parallel()

	h := NewErrorHandler()
	_, span := noop.NewTracerProvider().Tracer("test").Start(t.Context(), "test")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "typed error keeps its status",
			err:        errorx.Wrap(errorx.NewInvalidCode(), "op"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   string(errorx.CodeInvalidCode),
			wantMsg:    "Invalid verification code",
		},
		{
			name:       "not found with type",
			err:        errorx.NewResourceNotFound("verification"),
			wantStatus: http.StatusNotFound,
			wantCode:   string(errorx.CodeNotFound),
			wantMsg:    "verification not found",
		},
		{
			name:       "validation errors",
			err:        errorx.Wrap(validation.Errors{"email": validation.ErrRequired}, "op"),
			wantStatus: http.StatusBadRequest,
			wantCode:   string(errorx.CodeValidationFailed),
			wantMsg:    "email: cannot be blank",
		},
		{
			name:       "untyped error is internal",
			err:        errors.New("pq: connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   string(errorx.CodeInternal),
			wantMsg:    "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			h.HandleError(rec, req, span, tt.err, "test")

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantCode, body["code"])
			assert.Equal(t, tt.wantMsg, body["message"])
			assert.Equal(t, false, body["success"])
			assert.NotContains(t, rec.Body.String(), "pq:")
		})
	}
}

func TestErrorHandler_RetryAfter(t *testing.T) {
	t.Parallel()

	h := NewErrorHandler()
	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodPost, "/", nil), nil, errorx.NewRateLimitExceededWithRetry(3), "limited")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("Retry-After"))
}

func TestReadJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Identity string `json:"identity"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"identity":"42"}`, false},
		{"empty", ``, true},
		{"unknown field", `{"identity":"42","extra":1}`, true},
		{"two values", `{"identity":"42"}{"identity":"43"}`, true},
		{"syntax", `{"identity":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var p payload
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := ReadJSON(httptest.NewRecorder(), req, &p)
			if tt.wantErr {
				assert.True(t, errorx.IsCode(err, errorx.CodeMalformedJSON))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "42", p.Identity)
		})
	}
}
