package booking

import (
	"strings"
	"time"

	"securemate/backend/internal/domain/bodyguard"
	"securemate/backend/internal/utils"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// IsUpcoming reports whether a booking in this status belongs to the
// upcoming partition. Everything else is past.
func (s Status) IsUpcoming() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Firestore field names used in partial updates.
const (
	FieldStatus            = "status"
	FieldPaymentStatus     = "payment_status"
	FieldCheckoutSessionID = "checkout_session_id"
	FieldUpdatedAt         = "updated_at"
)

type Booking struct {
	ID                  string        `firestore:"-" json:"id"`
	ClientID            string        `firestore:"client_id" json:"client_id"`
	BodyguardID         string        `firestore:"bodyguard_id" json:"bodyguard_id"`
	BookingDate         string        `firestore:"booking_date" json:"booking_date"`
	BookingTime         string        `firestore:"booking_time" json:"booking_time"`
	DurationHours       int           `firestore:"duration_hours" json:"duration_hours"`
	TotalAmount         float64       `firestore:"total_amount" json:"total_amount"`
	Status              Status        `firestore:"status" json:"status"`
	SpecialRequirements string        `firestore:"special_requirements,omitempty" json:"special_requirements,omitempty"`
	PaymentStatus       PaymentStatus `firestore:"payment_status,omitempty" json:"payment_status,omitempty"`
	CheckoutSessionID   string        `firestore:"checkout_session_id,omitempty" json:"-"`
	CreatedAt           time.Time     `firestore:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `firestore:"updated_at" json:"updated_at"`

	// Bodyguard is joined at read time and never stored.
	Bodyguard *bodyguard.Bodyguard `firestore:"-" json:"bodyguard,omitempty"`
}

const MaxSpecialRequirements = 1000

type CreateInput struct {
	BodyguardID         string `json:"bodyguardId"`
	Date                string `json:"date"`
	Time                string `json:"time"`
	DurationHours       int    `json:"durationHours"`
	SpecialRequirements string `json:"specialRequirements"`
	// IdempotencyKey comes from the Idempotency-Key header.
	IdempotencyKey string `json:"-"`
}

func (in *CreateInput) Trim() {
	in.BodyguardID = strings.TrimSpace(in.BodyguardID)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	in.SpecialRequirements = utils.TrimMax(in.SpecialRequirements, MaxSpecialRequirements)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
}

// Partition splits bookings into upcoming and past by status. Order within
// each half follows the input.
func Partition(bookings []Booking) (upcoming, past []Booking) {
	upcoming = []Booking{}
	past = []Booking{}
	for _, b := range bookings {
		if b.Status.IsUpcoming() {
			upcoming = append(upcoming, b)
		} else {
			past = append(past, b)
		}
	}
	return upcoming, past
}
