package dashboard

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"securemate/backend/internal/domain/account"
	"securemate/backend/internal/domain/bodyguard"
	"securemate/backend/internal/domain/booking"
	"securemate/backend/internal/domain/profile"
	"securemate/backend/internal/metrics"
	"securemate/backend/internal/utils"
)

// Slice names used in ClientView.Errors and metrics.
const (
	SliceBodyguards = "bodyguards"
	SliceBookings   = "bookings"
	SliceProfile    = "profile"
)

type Bodyguards interface {
	ListApproved(ctx context.Context) ([]bodyguard.Bodyguard, error)
	Get(ctx context.Context, id string) (*bodyguard.Bodyguard, error)
}

type Bookings interface {
	ListForClient(ctx context.Context, clientID string) ([]booking.Booking, error)
	ListForBodyguard(ctx context.Context, bodyguardID string) ([]booking.Booking, error)
}

type Profiles interface {
	Ensure(ctx context.Context, u *account.User) (*profile.Profile, error)
}

type ClientView struct {
	Bodyguards []bodyguard.Bodyguard `json:"bodyguards"`
	NoMatches  bool                  `json:"noMatches"`
	Bookings   []booking.Booking     `json:"bookings"`
	Upcoming   []booking.Booking     `json:"upcoming"`
	Past       []booking.Booking     `json:"past"`
	Profile    *profile.Profile      `json:"profile"`
	// Errors holds the message of each slice that failed to load.
	Errors map[string]string `json:"errors,omitempty"`
}

type BodyguardView struct {
	Bodyguard *bodyguard.Bodyguard `json:"bodyguard"`
	Pending   bool                 `json:"pending"`
	Redirect  string               `json:"redirect,omitempty"`
	Bookings  []booking.Booking    `json:"bookings"`
	Upcoming  []booking.Booking    `json:"upcoming"`
	Past      []booking.Booking    `json:"past"`
}

type Service struct {
	bodyguards Bodyguards
	bookings   Bookings
	profiles   Profiles
	log        *zap.Logger
	metrics    *metrics.Metrics
}

func NewService(bodyguards Bodyguards, bookings Bookings, profiles Profiles, log *zap.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{bodyguards: bodyguards, bookings: bookings, profiles: profiles, log: log, metrics: m}
}

// Client loads the three client dashboard slices concurrently. A failed
// slice is logged and left empty; it never prevents the others loading.
func (s *Service) Client(ctx context.Context, u *account.User, search string) *ClientView {
	v := &ClientView{
		Bodyguards: []bodyguard.Bodyguard{},
		Bookings:   []booking.Booking{},
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	fail := func(slice string, err error) {
		s.log.Warn("dashboard fetch failed", zap.String("slice", slice), zap.String("uid", u.ID), zap.Error(err))
		s.metrics.DashboardError(slice)
		mu.Lock()
		if v.Errors == nil {
			v.Errors = map[string]string{}
		}
		v.Errors[slice] = err.Error()
		mu.Unlock()
	}

	g.Go(func() error {
		list, err := s.bodyguards.ListApproved(ctx)
		if err != nil {
			fail(SliceBodyguards, err)
			return nil
		}
		mu.Lock()
		v.Bodyguards = list
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		list, err := s.bookings.ListForClient(ctx, u.ID)
		if err != nil {
			fail(SliceBookings, err)
			return nil
		}
		mu.Lock()
		v.Bookings = list
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		p, err := s.profiles.Ensure(ctx, u)
		if err != nil {
			fail(SliceProfile, err)
			return nil
		}
		mu.Lock()
		v.Profile = p
		mu.Unlock()
		return nil
	})
	_ = g.Wait()

	v.Bodyguards, v.NoMatches = Filter(v.Bodyguards, search)
	v.Upcoming, v.Past = booking.Partition(v.Bookings)
	return v
}

// Filter keeps bodyguards whose full name or location contains term,
// ignoring case and accents. noMatches is set when nothing is left.
func Filter(list []bodyguard.Bodyguard, term string) (out []bodyguard.Bodyguard, noMatches bool) {
	out = []bodyguard.Bodyguard{}
	for _, b := range list {
		if utils.ContainsFold(term, b.FullName, b.Location) {
			out = append(out, b)
		}
	}
	return out, len(out) == 0
}

// Bodyguard loads a bodyguard's own dashboard. While the application is
// pending the view only carries the redirect to the pending page.
func (s *Service) Bodyguard(ctx context.Context, u *account.User) (*BodyguardView, error) {
	b, err := s.bodyguards.Get(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	v := &BodyguardView{Bodyguard: b, Bookings: []booking.Booking{}}
	if !b.Approved() {
		v.Pending = true
		v.Redirect = bodyguard.PendingPath
		v.Upcoming, v.Past = booking.Partition(nil)
		return v, nil
	}

	list, err := s.bookings.ListForBodyguard(ctx, u.ID)
	if err != nil {
		s.log.Warn("dashboard fetch failed", zap.String("slice", SliceBookings), zap.String("uid", u.ID), zap.Error(err))
		s.metrics.DashboardError(SliceBookings)
	} else {
		v.Bookings = list
	}
	v.Upcoming, v.Past = booking.Partition(v.Bookings)
	return v, nil
}
