package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"securemate/backend/internal/domain/booking"
)

// Sender delivers a push message to an FCM topic.
type Sender interface {
	SendToTopic(ctx context.Context, topic, title, body string, data map[string]string) (string, error)
}

// Service records booking notifications and pushes them. Delivery failures
// are logged and never returned to the caller. A nil store or sender skips
// that channel.
type Service struct {
	store  Store
	sender Sender
	log    *zap.Logger
	now    func() time.Time
}

func NewService(store Store, sender Sender, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, sender: sender, log: log, now: time.Now}
}

func (s *Service) BookingCreated(ctx context.Context, b booking.Booking) {
	body := fmt.Sprintf("%s at %s for %s, %s",
		b.BookingDate, b.BookingTime, hours(b.DurationHours), booking.FormatAmount(b.TotalAmount))
	s.deliver(ctx, b.BodyguardID, BodyguardTopic(b.BodyguardID), Notification{
		Title:     "New booking request",
		Body:      body,
		Kind:      KindBookingCreated,
		BookingID: b.ID,
	})
}

func (s *Service) BookingStatusChanged(ctx context.Context, b booking.Booking) {
	body := fmt.Sprintf("Your booking on %s at %s is now %s.", b.BookingDate, b.BookingTime, b.Status)
	s.deliver(ctx, b.ClientID, ClientTopic(b.ClientID), Notification{
		Title:     "Booking " + string(b.Status),
		Body:      body,
		Kind:      KindBookingStatus,
		BookingID: b.ID,
	})
}

func (s *Service) deliver(ctx context.Context, uid, topic string, n Notification) {
	if uid == "" {
		return
	}
	n.TargetUID = uid
	n.CreatedAt = s.now().UTC()

	if s.store != nil {
		if _, err := s.store.Add(ctx, n); err != nil {
			s.log.Warn("failed to store notification", zap.String("uid", uid), zap.Error(err))
		}
	}
	if s.sender != nil {
		data := map[string]string{"kind": string(n.Kind), "bookingId": n.BookingID}
		if _, err := s.sender.SendToTopic(ctx, topic, n.Title, n.Body, data); err != nil {
			s.log.Warn("failed to send push", zap.String("topic", topic), zap.Error(err))
		}
	}
}

// List returns the newest limit notifications of uid. UnreadCount covers all
// of uid's notifications, including those beyond the page.
func (s *Service) List(ctx context.Context, uid string, limit int) (*ListResult, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrBadRequest)
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	res := &ListResult{Notifications: []Notification{}}
	if s.store == nil {
		return res, nil
	}
	list, err := s.store.ListFor(ctx, uid, limit)
	if err != nil {
		return nil, err
	}
	res.Notifications = list

	unread, err := s.store.CountUnread(ctx, uid)
	if err != nil {
		return nil, err
	}
	res.UnreadCount = unread
	return res, nil
}

func (s *Service) MarkRead(ctx context.Context, uid, id string) error {
	id = strings.TrimSpace(id)
	if uid == "" || id == "" {
		return fmt.Errorf("%w: uid and notification id are required", ErrBadRequest)
	}
	if s.store == nil {
		return fmt.Errorf("%w: notification %s", ErrNotFound, id)
	}
	return s.store.MarkRead(ctx, uid, id, s.now().UTC())
}

func hours(n int) string {
	if n == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", n)
}
