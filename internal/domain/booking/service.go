package booking

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"securemate/backend/internal/domain/account"
	"securemate/backend/internal/domain/bodyguard"
	"securemate/backend/internal/metrics"
)

type BodyguardLookup interface {
	Get(ctx context.Context, id string) (*bodyguard.Bodyguard, error)
	GetMany(ctx context.Context, ids []string) (map[string]bodyguard.Bodyguard, error)
}

type Notifier interface {
	BookingCreated(ctx context.Context, b Booking)
	BookingStatusChanged(ctx context.Context, b Booking)
}

type Service struct {
	repo       Repository
	bodyguards BodyguardLookup
	idem       IdempotencyStore
	notify     Notifier
	log        *zap.Logger
	metrics    *metrics.Metrics
	loc        *time.Location
	now        func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option         { return func(s *Service) { s.now = now } }
func WithNotifier(n Notifier) Option                { return func(s *Service) { s.notify = n } }
func WithIdempotency(store IdempotencyStore) Option { return func(s *Service) { s.idem = store } }
func WithMetrics(m *metrics.Metrics) Option         { return func(s *Service) { s.metrics = m } }
func WithLocation(loc *time.Location) Option        { return func(s *Service) { s.loc = loc } }

func NewService(repo Repository, bodyguards BodyguardLookup, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		repo:       repo,
		bodyguards: bodyguards,
		idem:       NewMemoryIdempotency(),
		log:        log,
		loc:        time.UTC,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Today is the current date in the service's timezone.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(DateLayout)
}

func (s *Service) Options() Options {
	return OptionsAt(s.now(), s.loc)
}

// Quote prices a prospective booking with the bodyguard's current rate.
func (s *Service) Quote(ctx context.Context, bodyguardID string, durationHours int) (*QuoteResult, error) {
	if durationHours == 0 {
		durationHours = DefaultDuration
	}
	if !ValidDuration(durationHours) {
		return nil, fmt.Errorf("%w: duration must be one of %v hours", ErrBadRequest, Durations)
	}
	g, err := s.bodyguard(ctx, bodyguardID)
	if err != nil {
		return nil, err
	}
	total := Quote(g.HourlyRate, durationHours)
	return &QuoteResult{
		BodyguardID:   g.ID,
		HourlyRate:    g.HourlyRate,
		DurationHours: durationHours,
		TotalAmount:   total,
		Display:       FormatAmount(total),
	}, nil
}

// Create inserts one pending booking owned by client. The total is always
// derived from the bodyguard's rate.
func (s *Service) Create(ctx context.Context, client *account.User, in CreateInput) (*Booking, error) {
	if client == nil || client.ID == "" {
		return nil, fmt.Errorf("%w: sign in to book", ErrUnauthorized)
	}
	in.Trim()
	if in.Date == "" {
		in.Date = s.Today()
	}
	if in.Time == "" {
		in.Time = DefaultTimeSlot
	}
	if in.DurationHours == 0 {
		in.DurationHours = DefaultDuration
	}
	if err := s.validate(in); err != nil {
		s.metrics.BookingFailed("invalid")
		return nil, err
	}
	if in.BodyguardID == client.ID {
		s.metrics.BookingFailed("invalid")
		return nil, fmt.Errorf("%w: you cannot book yourself", ErrBadRequest)
	}

	g, err := s.bodyguard(ctx, in.BodyguardID)
	if err != nil {
		s.metrics.BookingFailed("bodyguard")
		return nil, err
	}

	key := ""
	if in.IdempotencyKey != "" {
		key = client.ID + ":" + in.IdempotencyKey
		ok, err := s.idem.Reserve(ctx, key, DefaultIdempotencyTTL)
		if err != nil {
			s.log.Error("idempotency store failed", zap.String("clientId", client.ID), zap.Error(err))
			return nil, err
		}
		if !ok {
			s.metrics.BookingFailed("duplicate")
			return nil, fmt.Errorf("%w: this booking was already submitted", ErrDuplicate)
		}
	}
	release := func() {
		if key == "" {
			return
		}
		if err := s.idem.Release(ctx, key); err != nil {
			s.log.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(err))
		}
	}

	now := s.now().UTC()
	b := Booking{
		ClientID:            client.ID,
		BodyguardID:         g.ID,
		BookingDate:         in.Date,
		BookingTime:         in.Time,
		DurationHours:       in.DurationHours,
		TotalAmount:         Quote(g.HourlyRate, in.DurationHours),
		Status:              StatusPending,
		SpecialRequirements: in.SpecialRequirements,
		PaymentStatus:       PaymentUnpaid,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	created, err := s.repo.CreateIfFree(ctx, b, neighbourDates(in.Date), conflictCheck(b))
	if IsErrConflict(err) {
		release()
		s.metrics.BookingFailed("conflict")
		return nil, err
	}
	if err != nil {
		release()
		s.metrics.BookingFailed("insert")
		s.log.Error("failed to insert booking",
			zap.String("clientId", client.ID), zap.String("bodyguardId", g.ID), zap.Error(err))
		return nil, err
	}
	created.Bodyguard = g

	s.metrics.BookingCreated()
	s.log.Info("booking created",
		zap.String("bookingId", created.ID),
		zap.String("clientId", client.ID),
		zap.String("bodyguardId", g.ID),
		zap.Float64("totalAmount", created.TotalAmount))
	if s.notify != nil {
		s.notify.BookingCreated(ctx, *created)
	}
	return created, nil
}

func (s *Service) validate(in CreateInput) error {
	if in.BodyguardID == "" {
		return fmt.Errorf("%w: bodyguard is required", ErrBadRequest)
	}
	if _, err := time.ParseInLocation(DateLayout, in.Date, s.loc); err != nil {
		return fmt.Errorf("%w: date must be formatted yyyy-MM-dd", ErrBadRequest)
	}
	if in.Date < s.Today() {
		return fmt.Errorf("%w: date must be today or later", ErrBadRequest)
	}
	if !ValidTimeSlot(in.Time) {
		return fmt.Errorf("%w: time must be an hourly slot between %s and %s", ErrBadRequest, TimeSlots[0], TimeSlots[len(TimeSlots)-1])
	}
	if !ValidDuration(in.DurationHours) {
		return fmt.Errorf("%w: duration must be one of %v hours", ErrBadRequest, Durations)
	}
	return nil
}

func (s *Service) bodyguard(ctx context.Context, id string) (*bodyguard.Bodyguard, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: bodyguard is required", ErrBadRequest)
	}
	g, err := s.bodyguards.Get(ctx, id)
	if bodyguard.IsErrNotFound(err) {
		return nil, fmt.Errorf("%w: bodyguard %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if !g.Approved() {
		return nil, fmt.Errorf("%w: bodyguard is not available for booking", ErrBadRequest)
	}
	return g, nil
}

// conflictCheck rejects b when an active booking of the same bodyguard
// overlaps it, including bookings that run past midnight.
func conflictCheck(b Booking) func([]Booking) error {
	want, _ := windowOf(b.BookingDate, b.BookingTime, b.DurationHours)
	return func(existing []Booking) error {
		for _, o := range existing {
			if o.BodyguardID != b.BodyguardID || !o.Status.IsUpcoming() {
				continue
			}
			w, ok := windowOf(o.BookingDate, o.BookingTime, o.DurationHours)
			if ok && w.overlaps(want) {
				return fmt.Errorf("%w: bodyguard is already booked at %s on %s", ErrConflict, o.BookingTime, o.BookingDate)
			}
		}
		return nil
	}
}

// ListForClient returns the client's bookings, newest first, each with its
// bodyguard joined.
func (s *Service) ListForClient(ctx context.Context, clientID string) ([]Booking, error) {
	list, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]string, 0, len(list))
	for _, b := range list {
		ids = append(ids, b.BodyguardID)
	}
	byID, err := s.bodyguards.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if g, ok := byID[list[i].BodyguardID]; ok {
			list[i].Bodyguard = &g
		}
	}
	return list, nil
}

func (s *Service) ListForBodyguard(ctx context.Context, bodyguardID string) ([]Booking, error) {
	return s.repo.ListByBodyguard(ctx, bodyguardID)
}

func (s *Service) Get(ctx context.Context, id string) (*Booking, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: booking id is required", ErrBadRequest)
	}
	return s.repo.Get(ctx, id)
}

// Transition moves a booking to a new status on behalf of actor.
func (s *Service) Transition(ctx context.Context, actor *account.User, id string, to Status) (*Booking, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	isClient := actor.ID == b.ClientID
	isGuard := actor.ID == b.BodyguardID
	if !isClient && !isGuard && !actor.Admin {
		return nil, fmt.Errorf("%w: not a participant in this booking", ErrUnauthorized)
	}

	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrBadRequest, to)
	}
	if (to == StatusConfirmed || to == StatusCompleted) && !isGuard && !actor.Admin {
		return nil, fmt.Errorf("%w: only the bodyguard can mark a booking %s", ErrUnauthorized, to)
	}
	if !CanTransition(b.Status, to) {
		return nil, fmt.Errorf("%w: cannot move booking from %s to %s", ErrBadRequest, b.Status, to)
	}
	return s.setStatus(ctx, b, to, nil)
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	switch to {
	case StatusConfirmed:
		return from == StatusPending
	case StatusCompleted:
		return from == StatusConfirmed
	case StatusCancelled:
		return from == StatusPending || from == StatusConfirmed
	}
	return false
}

// AttachCheckout records the payment session started for a booking.
func (s *Service) AttachCheckout(ctx context.Context, id, sessionID string) error {
	return s.repo.Update(ctx, id, map[string]interface{}{
		FieldCheckoutSessionID: sessionID,
		FieldUpdatedAt:         s.now().UTC(),
	})
}

// MarkPaid records a completed payment and confirms a pending booking.
// Repeated calls for an already paid booking change nothing.
func (s *Service) MarkPaid(ctx context.Context, id string) (*Booking, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.PaymentStatus == PaymentPaid {
		return b, nil
	}
	extra := map[string]interface{}{FieldPaymentStatus: string(PaymentPaid)}
	b.PaymentStatus = PaymentPaid
	if b.Status == StatusPending {
		return s.setStatus(ctx, b, StatusConfirmed, extra)
	}
	extra[FieldUpdatedAt] = s.now().UTC()
	if err := s.repo.Update(ctx, id, extra); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) setStatus(ctx context.Context, b *Booking, to Status, extra map[string]interface{}) (*Booking, error) {
	now := s.now().UTC()
	fields := map[string]interface{}{
		FieldStatus:    string(to),
		FieldUpdatedAt: now,
	}
	for k, v := range extra {
		fields[k] = v
	}
	if err := s.repo.Update(ctx, b.ID, fields); err != nil {
		s.log.Error("failed to update booking status",
			zap.String("bookingId", b.ID), zap.String("to", string(to)), zap.Error(err))
		return nil, err
	}
	from := b.Status
	b.Status = to
	b.UpdatedAt = now

	s.metrics.Transition(string(to))
	s.log.Info("booking status changed",
		zap.String("bookingId", b.ID), zap.String("from", string(from)), zap.String("to", string(to)))
	if s.notify != nil {
		s.notify.BookingStatusChanged(ctx, *b)
	}
	return b, nil
}
