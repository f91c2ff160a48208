package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tacck/line-api-use-case-smart-retail/internal/app"
	"github.com/tacck/line-api-use-case-smart-retail/internal/auth"
	"github.com/tacck/line-api-use-case-smart-retail/internal/domain"
)

// TokenVerifier checks a LIFF ID token and resolves the caller's identity.
type TokenVerifier interface {
	Verify(idToken string) (auth.Profile, error)
}

// PaymentRequester is the minimal service surface for issuing a payment code.
type PaymentRequester interface {
	CreateRequest(ctx context.Context, orderID string) (json.RawMessage, error)
}

// PaymentConfirmer is the minimal service surface for confirming a payment.
type PaymentConfirmer interface {
	Confirm(ctx context.Context, orderID string) (app.ConfirmResult, error)
}

type paymentRequestBody struct {
	IDToken string `json:"idToken"`
	OrderID string `json:"orderId"`
}

func (b paymentRequestBody) validate() []string {
	var msgs []string
	if b.IDToken == "" {
		msgs = append(msgs, domain.ErrIDTokenRequired.Error())
	}
	if b.OrderID == "" {
		msgs = append(msgs, domain.ErrOrderIDRequired.Error())
	}
	return msgs
}

// HandleCreatePaymentRequest returns an HTTP handler that authenticates the
// caller and asks the provider for a payment QR code for the order.
func HandleCreatePaymentRequest(verifier TokenVerifier, svc PaymentRequester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var body paymentRequestBody
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if msgs := body.validate(); len(msgs) > 0 {
			writeError(w, http.StatusBadRequest, codeValidationError, strings.Join(msgs, "\n"))
			return
		}

		if _, err := verifier.Verify(body.IDToken); err != nil {
			switch {
			case err == domain.ErrTokenExpired:
				writeError(w, http.StatusForbidden, codeForbidden, "Forbidden")
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		result, err := svc.CreateRequest(r.Context(), body.OrderID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(paymentRequestResponse{Result: result})
	}
}

type paymentRequestResponse struct {
	Result json.RawMessage `json:"result"`
}

type confirmRequestBody struct {
	OrderID string `json:"orderId"`
}

func (b confirmRequestBody) validate() []string {
	var msgs []string
	if b.OrderID == "" {
		msgs = append(msgs, domain.ErrOrderIDRequired.Error())
	}
	return msgs
}

// HandleConfirmPayment returns an HTTP handler that drives the confirmation
// flow for an order and maps the typed outcome onto the response.
func HandleConfirmPayment(svc PaymentConfirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var body confirmRequestBody
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if msgs := body.validate(); len(msgs) > 0 {
			writeError(w, http.StatusBadRequest, codeValidationError, strings.Join(msgs, "\n"))
			return
		}

		res, err := svc.Confirm(r.Context(), body.OrderID)
		if err != nil {
			switch err {
			case domain.ErrConfirmTimeout:
				writeError(w, http.StatusInternalServerError, codeConfirmTimeout, "payment confirmation timed out")
			default:
				// Not-found, provider, and post-success errors all collapse to
				// a generic response: no detail leaks to the storefront.
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		resp := confirmResponse{Status: statusLabel(res.Outcome), Result: res.Details}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type confirmResponse struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
}

func statusLabel(o app.ConfirmOutcome) string {
	if o == app.ConfirmOutcomeCompleted {
		return string(domain.PaymentStatusCompleted)
	}
	return string(domain.PaymentStatusFailed)
}
