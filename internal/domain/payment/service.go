package payment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v78"
	checkoutsession "github.com/stripe/stripe-go/v78/checkout/session"
	"go.uber.org/zap"

	"securemate/backend/internal/domain/account"
	"securemate/backend/internal/domain/bodyguard"
	"securemate/backend/internal/domain/booking"
)

// MetadataBookingID links a Checkout Session back to its booking.
const MetadataBookingID = "booking_id"

type Config struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	PublicAppURL  string
}

type Bookings interface {
	Get(ctx context.Context, id string) (*booking.Booking, error)
	AttachCheckout(ctx context.Context, id, sessionID string) error
	MarkPaid(ctx context.Context, id string) (*booking.Booking, error)
}

type Bodyguards interface {
	Get(ctx context.Context, id string) (*bodyguard.Bodyguard, error)
}

// SessionCreator creates a Checkout Session; checkoutsession.New in production.
type SessionCreator func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)

type Checkout struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type Service struct {
	cfg        Config
	bookings   Bookings
	bodyguards Bodyguards
	newSession SessionCreator
	log        *zap.Logger
}

func NewService(cfg Config, bookings Bookings, bodyguards Bodyguards, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Currency == "" {
		cfg.Currency = string(stripe.CurrencyINR)
	}
	cfg.PublicAppURL = strings.TrimRight(cfg.PublicAppURL, "/")
	stripe.Key = cfg.SecretKey
	return &Service{cfg: cfg, bookings: bookings, bodyguards: bodyguards, newSession: checkoutsession.New, log: log}
}

// WithSessionCreator replaces the Stripe call, for tests.
func (s *Service) WithSessionCreator(fn SessionCreator) *Service {
	s.newSession = fn
	return s
}

func (s *Service) Enabled() bool { return s.cfg.SecretKey != "" }

// UnitAmount converts a rupee total to the smallest currency unit.
func UnitAmount(total float64) int64 {
	return int64(math.Round(total * 100))
}

// CreateCheckout starts payment for a pending booking owned by user.
func (s *Service) CreateCheckout(ctx context.Context, user *account.User, bookingID string) (*Checkout, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ClientID != user.ID {
		return nil, fmt.Errorf("%w: only the client who booked can pay", ErrUnauthorized)
	}
	if b.Status != booking.StatusPending {
		return nil, fmt.Errorf("%w: booking is %s", ErrBadRequest, b.Status)
	}
	if b.PaymentStatus == booking.PaymentPaid {
		return nil, fmt.Errorf("%w: booking is already paid", ErrBadRequest)
	}
	if b.TotalAmount <= 0 {
		return nil, fmt.Errorf("%w: nothing to pay", ErrBadRequest)
	}

	name := "Bodyguard booking"
	if g, err := s.bodyguards.Get(ctx, b.BodyguardID); err == nil {
		name = "Bodyguard booking: " + g.FullName
	} else {
		s.log.Warn("bodyguard lookup failed for checkout", zap.String("bookingId", b.ID), zap.Error(err))
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.cfg.PublicAppURL + "/old-dashboard?payment=success&booking=" + b.ID),
		CancelURL:         stripe.String(s.cfg.PublicAppURL + "/old-dashboard?payment=cancelled&booking=" + b.ID),
		ClientReferenceID: stripe.String(b.ID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(s.cfg.Currency),
				UnitAmount: stripe.Int64(UnitAmount(b.TotalAmount)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(name),
					Description: stripe.String(fmt.Sprintf("%s at %s, %d hour(s)", b.BookingDate, b.BookingTime, b.DurationHours)),
				},
			},
		}},
		Metadata: map[string]string{MetadataBookingID: b.ID},
	}
	if user.Email != "" {
		params.CustomerEmail = stripe.String(user.Email)
	}
	params.Context = ctx

	sess, err := s.newSession(params)
	if err != nil {
		s.log.Error("failed to create checkout session", zap.String("bookingId", b.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	if err := s.bookings.AttachCheckout(ctx, b.ID, sess.ID); err != nil {
		return nil, err
	}
	s.log.Info("checkout session created", zap.String("bookingId", b.ID), zap.String("sessionId", sess.ID))
	return &Checkout{SessionID: sess.ID, URL: sess.URL}, nil
}
