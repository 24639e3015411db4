package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.uber.org/zap"
)

// MaxWebhookBytes caps the request body read for a webhook.
const MaxWebhookBytes = int64(65536)

// HandleWebhook verifies and applies one Stripe event. Only a bad signature
// or an unparseable payload is an error; failures applying a valid event are
// logged and acknowledged so Stripe does not retry them forever.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	if s.cfg.WebhookSecret == "" {
		return ErrDisabled
	}
	event, err := webhook.ConstructEvent(payload, sigHeader, s.cfg.WebhookSecret)
	if err != nil {
		s.log.Warn("webhook signature verification failed", zap.Error(err))
		return fmt.Errorf("%w: webhook signature verification failed: %v", ErrBadRequest, err)
	}
	s.log.Info("webhook received", zap.String("type", string(event.Type)), zap.String("id", event.ID))

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("%w: error parsing webhook JSON: %v", ErrBadRequest, err)
		}
		s.checkoutCompleted(ctx, &sess)
	default:
		s.log.Debug("webhook: unhandled event type", zap.String("type", string(event.Type)))
	}
	return nil
}

func (s *Service) checkoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) {
	bookingID := sess.Metadata[MetadataBookingID]
	if bookingID == "" {
		bookingID = sess.ClientReferenceID
	}
	if bookingID == "" {
		s.log.Warn("checkout completed without booking reference", zap.String("sessionId", sess.ID))
		return
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		s.log.Info("checkout completed but not paid yet",
			zap.String("bookingId", bookingID), zap.String("paymentStatus", string(sess.PaymentStatus)))
		return
	}
	b, err := s.bookings.MarkPaid(ctx, bookingID)
	if err != nil {
		s.log.Error("failed to mark booking paid", zap.String("bookingId", bookingID), zap.Error(err))
		return
	}
	s.log.Info("booking paid", zap.String("bookingId", b.ID), zap.String("status", string(b.Status)))
}
