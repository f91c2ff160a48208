package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tacck/line-api-use-case-smart-retail/internal/app"
	"github.com/tacck/line-api-use-case-smart-retail/internal/auth"
	"github.com/tacck/line-api-use-case-smart-retail/internal/domain"
)

type stubVerifier struct {
	profile auth.Profile
	err     error
}

func (s *stubVerifier) Verify(_ string) (auth.Profile, error) {
	return s.profile, s.err
}

type stubRequester struct {
	result json.RawMessage
	err    error
	calls  int
}

func (s *stubRequester) CreateRequest(_ context.Context, _ string) (json.RawMessage, error) {
	s.calls++
	return s.result, s.err
}

type stubConfirmer struct {
	result app.ConfirmResult
	err    error
	calls  int
}

func (s *stubConfirmer) Confirm(_ context.Context, _ string) (app.ConfirmResult, error) {
	s.calls++
	return s.result, s.err
}

func TestHandleCreatePaymentRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		verifierErr    error
		serviceResult  json.RawMessage
		serviceErr     error
		expectedStatus int
		expectedError  string
		expectedCalls  int
	}{
		{
			name:           "success",
			body:           `{"idToken":"token","orderId":"A1"}`,
			serviceResult:  json.RawMessage(`{"data":{"url":"https://qr"}}`),
			expectedStatus: http.StatusOK,
			expectedCalls:  1,
		},
		{
			name:           "invalid body",
			body:           `{`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing fields joined by newline",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "idToken is required\norderId is required",
		},
		{
			name:           "expired token",
			body:           `{"idToken":"expired","orderId":"A1"}`,
			verifierErr:    domain.ErrTokenExpired,
			expectedStatus: http.StatusForbidden,
			expectedCalls:  0,
		},
		{
			name:           "invalid token",
			body:           `{"idToken":"garbage","orderId":"A1"}`,
			verifierErr:    domain.ErrTokenInvalid,
			expectedStatus: http.StatusInternalServerError,
			expectedCalls:  0,
		},
		{
			name:           "unknown order is generic",
			body:           `{"idToken":"token","orderId":"missing"}`,
			serviceErr:     domain.ErrOrderNotFound,
			expectedStatus: http.StatusInternalServerError,
			expectedCalls:  1,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verifier := &stubVerifier{profile: auth.Profile{UserID: "U1"}, err: tt.verifierErr}
			svc := &stubRequester{result: tt.serviceResult, err: tt.serviceErr}

			req := httptest.NewRequest(http.MethodPost, "/payments/request", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			HandleCreatePaymentRequest(verifier, svc).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if svc.calls != tt.expectedCalls {
				t.Fatalf("expected %d service calls, got %d", tt.expectedCalls, svc.calls)
			}
			if tt.expectedError != "" {
				var resp errorResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("decode error response: %v", err)
				}
				if resp.Error != tt.expectedError {
					t.Fatalf("expected error %q, got %q", tt.expectedError, resp.Error)
				}
			}
			if tt.expectedStatus == http.StatusOK {
				if !strings.Contains(rec.Body.String(), `"url":"https://qr"`) {
					t.Fatalf("expected provider payload in response, got %s", rec.Body.String())
				}
			}
		})
	}

	t.Run("method not allowed", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/payments/request", nil)
		rec := httptest.NewRecorder()

		HandleCreatePaymentRequest(&stubVerifier{}, &stubRequester{}).ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status 405, got %d", rec.Code)
		}
	})
}

func TestHandleConfirmPayment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		result         app.ConfirmResult
		serviceErr     error
		expectedStatus int
		expectedCode   string
		expectedSubstr string
	}{
		{
			name: "completed",
			body: `{"orderId":"A1"}`,
			result: app.ConfirmResult{
				Outcome: app.ConfirmOutcomeCompleted,
				Details: json.RawMessage(`{"data":{"status":"COMPLETED"}}`),
			},
			expectedStatus: http.StatusOK,
			expectedSubstr: `"status":"COMPLETED"`,
		},
		{
			name:           "failed payment is a normal outcome",
			body:           `{"orderId":"A1"}`,
			result:         app.ConfirmResult{Outcome: app.ConfirmOutcomeFailed},
			expectedStatus: http.StatusOK,
			expectedSubstr: `"status":"FAILED"`,
		},
		{
			name:           "timeout is distinguishable",
			body:           `{"orderId":"A1"}`,
			serviceErr:     domain.ErrConfirmTimeout,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   codeConfirmTimeout,
		},
		{
			name:           "unknown order is generic",
			body:           `{"orderId":"missing"}`,
			serviceErr:     domain.ErrOrderNotFound,
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   codeInternalError,
		},
		{
			name:           "infrastructure failure is generic",
			body:           `{"orderId":"A1"}`,
			serviceErr:     errors.New("pg down"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   codeInternalError,
		},
		{
			name:           "missing orderId",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   codeValidationError,
		},
		{
			name:           "invalid body",
			body:           `{`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   codeInvalidRequestBody,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubConfirmer{result: tt.result, err: tt.serviceErr}

			req := httptest.NewRequest(http.MethodPost, "/payments/confirm", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			HandleConfirmPayment(svc).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected body to contain %q, got %s", tt.expectedSubstr, rec.Body.String())
			}
			if tt.expectedCode != "" {
				var resp errorResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
					t.Fatalf("decode error response: %v", err)
				}
				if resp.Code != tt.expectedCode {
					t.Fatalf("expected code %s, got %s", tt.expectedCode, resp.Code)
				}
			}
		})
	}
}
