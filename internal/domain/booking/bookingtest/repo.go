// Package bookingtest provides an in-memory booking repository for tests.
package bookingtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"securemate/backend/internal/domain/booking"
)

type Repo struct {
	mu     sync.Mutex
	rows   map[string]booking.Booking
	nextID int
	// Inserts counts successful CreateIfFree calls.
	Inserts int
	// CreateErr, when set, fails CreateIfFree. ListErr fails every list call.
	CreateErr error
	ListErr   error
}

func NewRepo(seed ...booking.Booking) *Repo {
	r := &Repo{rows: map[string]booking.Booking{}}
	for _, b := range seed {
		r.rows[b.ID] = b
	}
	return r
}

// CreateIfFree holds the lock across the lookup, check and insert.
func (r *Repo) CreateIfFree(_ context.Context, b booking.Booking, dates []string, check func([]booking.Booking) error) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return nil, r.CreateErr
	}
	existing := []booking.Booking{}
	for _, row := range r.rows {
		if row.BodyguardID != b.BodyguardID {
			continue
		}
		for _, d := range dates {
			if row.BookingDate == d {
				existing = append(existing, row)
				break
			}
		}
	}
	if err := check(existing); err != nil {
		return nil, err
	}
	r.nextID++
	b.ID = fmt.Sprintf("bk-%d", r.nextID)
	b.Bodyguard = nil
	r.rows[b.ID] = b
	r.Inserts++
	return &b, nil
}

func (r *Repo) Get(_ context.Context, id string) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", booking.ErrNotFound, id)
	}
	return &b, nil
}

func (r *Repo) ListByClient(_ context.Context, clientID string) ([]booking.Booking, error) {
	return r.list(func(b booking.Booking) bool { return b.ClientID == clientID })
}

func (r *Repo) ListByBodyguard(_ context.Context, bodyguardID string) ([]booking.Booking, error) {
	return r.list(func(b booking.Booking) bool { return b.BodyguardID == bodyguardID })
}

func (r *Repo) list(keep func(booking.Booking) bool) ([]booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	out := []booking.Booking{}
	for _, b := range r.rows {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *Repo) Update(_ context.Context, id string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("%w: booking %s", booking.ErrNotFound, id)
	}
	for k, v := range fields {
		switch k {
		case booking.FieldStatus:
			b.Status = booking.Status(v.(string))
		case booking.FieldPaymentStatus:
			b.PaymentStatus = booking.PaymentStatus(v.(string))
		case booking.FieldCheckoutSessionID:
			b.CheckoutSessionID = v.(string)
		case booking.FieldUpdatedAt:
			b.UpdatedAt = v.(time.Time)
		default:
			return fmt.Errorf("unknown booking field %q", k)
		}
	}
	r.rows[id] = b
	return nil
}

// All returns every stored booking in unspecified order.
func (r *Repo) All() []booking.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]booking.Booking, 0, len(r.rows))
	for _, b := range r.rows {
		out = append(out, b)
	}
	return out
}

// Notifier records notifications.
type Notifier struct {
	mu      sync.Mutex
	Created []booking.Booking
	Changed []booking.Booking
}

func (n *Notifier) BookingCreated(_ context.Context, b booking.Booking) {
	n.mu.Lock()
	n.Created = append(n.Created, b)
	n.mu.Unlock()
}

func (n *Notifier) BookingStatusChanged(_ context.Context, b booking.Booking) {
	n.mu.Lock()
	n.Changed = append(n.Changed, b)
	n.mu.Unlock()
}
