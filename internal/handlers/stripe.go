package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"securemate/backend/internal/authctx"
	"securemate/backend/internal/domain/booking"
	"securemate/backend/internal/domain/payment"
	"securemate/backend/internal/httpjson"
)

type Payments struct {
	svc *payment.Service
}

func NewPayments(svc *payment.Service) *Payments {
	return &Payments{svc: svc}
}

// Webhook handles Stripe webhook events. The raw body must reach this
// handler unmodified for the signature check.
func (h *Payments) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, payment.MaxWebhookBytes))
	if err != nil {
		httpjson.Error(w, http.StatusServiceUnavailable, "failed to read body")
		return
	}
	if err := h.svc.HandleWebhook(r.Context(), body, r.Header.Get("Stripe-Signature")); err != nil {
		status, msg := MapPaymentError(err)
		httpjson.Error(w, status, msg)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{"received": true})
}

func (h *Payments) Checkout(w http.ResponseWriter, r *http.Request) {
	u, _ := authctx.UserFrom(r.Context())
	out, err := h.svc.CreateCheckout(r.Context(), u, chi.URLParam(r, "id"))
	if err != nil {
		status, msg := MapPaymentError(err)
		httpjson.Error(w, status, msg)
		return
	}
	httpjson.Write(w, http.StatusOK, out)
}

func MapPaymentError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	switch {
	case payment.IsErrDisabled(err):
		return 501, err.Error()
	case payment.IsErrUnauthorized(err):
		return 403, err.Error()
	case payment.IsErrBadRequest(err):
		return 400, err.Error()
	case booking.IsErrNotFound(err):
		return 404, err.Error()
	default:
		return 500, err.Error()
	}
}
