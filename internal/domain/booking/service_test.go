package booking_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"securemate/backend/internal/domain/account"
	"securemate/backend/internal/domain/bodyguard"
	"securemate/backend/internal/domain/bodyguard/bodyguardtest"
	"securemate/backend/internal/domain/booking"
	"securemate/backend/internal/domain/booking/bookingtest"
)

var ist = time.FixedZone("IST", 5*3600+1800)

// 2026-03-10 10:00 IST
var fixedNow = time.Date(2026, 3, 10, 10, 0, 0, 0, ist)

var client = &account.User{ID: "client-1", Email: "asha@example.com", Metadata: account.Metadata{UserType: account.UserTypeClient}}

type fixture struct {
	svc    *booking.Service
	repo   *bookingtest.Repo
	guards *bodyguardtest.Repo
	notify *bookingtest.Notifier
}

func newFixture(t *testing.T, seed ...booking.Booking) fixture {
	t.Helper()
	guards := bodyguardtest.NewRepo(
		bodyguard.Bodyguard{ID: "g-approved", FullName: "Vikram Singh", HourlyRate: 500, Status: bodyguard.StatusApproved},
		bodyguard.Bodyguard{ID: "g-pending", FullName: "Ravi Kumar", HourlyRate: 400, Status: bodyguard.StatusPending},
		bodyguard.Bodyguard{ID: "g-other", FullName: "Meera Iyer", HourlyRate: 750, Status: bodyguard.StatusApproved},
	)
	repo := bookingtest.NewRepo(seed...)
	notify := &bookingtest.Notifier{}
	svc := booking.NewService(repo, bodyguard.NewService(guards, nil, nil, nil, nil), nil,
		booking.WithClock(func() time.Time { return fixedNow }),
		booking.WithLocation(ist),
		booking.WithNotifier(notify),
	)
	return fixture{svc: svc, repo: repo, guards: guards, notify: notify}
}

func TestQuote_RateTimesDuration(t *testing.T) {
	for _, rate := range []float64{0, 1, 350, 499.5, 1200} {
		for _, d := range booking.Durations {
			assert.Equal(t, rate*float64(d), booking.Quote(rate, d), "rate %v duration %d", rate, d)
		}
	}
}

func TestTimeSlotsAndDurations(t *testing.T) {
	require.Len(t, booking.TimeSlots, 17)
	assert.Equal(t, "06:00", booking.TimeSlots[0])
	assert.Equal(t, "22:00", booking.TimeSlots[16])
	assert.True(t, booking.ValidTimeSlot(booking.DefaultTimeSlot))
	assert.False(t, booking.ValidTimeSlot("05:00"))
	assert.False(t, booking.ValidTimeSlot("09:30"))

	assert.Equal(t, []int{1, 2, 3, 4, 6, 8, 12, 24}, booking.Durations)
	assert.False(t, booking.ValidDuration(5))
}

func TestFormatAmount(t *testing.T) {
	s := booking.FormatAmount(1500)
	assert.Contains(t, s, "₹")
	assert.Contains(t, s, "1,500")
}

func TestService_Quote(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Quote(context.Background(), "g-approved", 3)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, q.TotalAmount)

	_, err = f.svc.Quote(context.Background(), "g-approved", 5)
	assert.True(t, booking.IsErrBadRequest(err))
	_, err = f.svc.Quote(context.Background(), "nobody", 1)
	assert.True(t, booking.IsErrNotFound(err))
}

func TestCreate_InsertsExactlyOneScopedRow(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Create(context.Background(), client, booking.CreateInput{
		BodyguardID:         "g-approved",
		Date:                "2026-03-12",
		Time:                "18:00",
		DurationHours:       4,
		SpecialRequirements: "  discreet, plain clothes ",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, f.repo.Inserts)
	assert.Equal(t, "client-1", b.ClientID)
	assert.Equal(t, "g-approved", b.BodyguardID)
	assert.Equal(t, 2000.0, b.TotalAmount)
	assert.Equal(t, booking.StatusPending, b.Status)
	assert.Equal(t, "discreet, plain clothes", b.SpecialRequirements)
	require.NotNil(t, b.Bodyguard)
	assert.Equal(t, "Vikram Singh", b.Bodyguard.FullName)

	stored := f.repo.All()
	require.Len(t, stored, 1)
	assert.Nil(t, stored[0].Bodyguard)
	assert.Len(t, f.notify.Created, 1)
}

func TestCreate_Defaults(t *testing.T) {
	f := newFixture(t)
	b, err := f.svc.Create(context.Background(), client, booking.CreateInput{BodyguardID: "g-approved"})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", b.BookingDate)
	assert.Equal(t, "09:00", b.BookingTime)
	assert.Equal(t, 1, b.DurationHours)
	assert.Equal(t, 500.0, b.TotalAmount)
	assert.Empty(t, b.SpecialRequirements)
}

func TestCreate_Rejections(t *testing.T) {
	cases := []struct {
		name  string
		user  *account.User
		in    booking.CreateInput
		check func(error) bool
	}{
		{"anonymous", nil, booking.CreateInput{BodyguardID: "g-approved"}, booking.IsErrUnauthorized},
		{"past date", client, booking.CreateInput{BodyguardID: "g-approved", Date: "2026-03-09"}, booking.IsErrBadRequest},
		{"bad date", client, booking.CreateInput{BodyguardID: "g-approved", Date: "10/03/2026"}, booking.IsErrBadRequest},
		{"off-grid time", client, booking.CreateInput{BodyguardID: "g-approved", Time: "09:30"}, booking.IsErrBadRequest},
		{"late time", client, booking.CreateInput{BodyguardID: "g-approved", Time: "23:00"}, booking.IsErrBadRequest},
		{"odd duration", client, booking.CreateInput{BodyguardID: "g-approved", DurationHours: 5}, booking.IsErrBadRequest},
		{"no bodyguard", client, booking.CreateInput{}, booking.IsErrBadRequest},
		{"unknown bodyguard", client, booking.CreateInput{BodyguardID: "ghost"}, booking.IsErrNotFound},
		{"pending bodyguard", client, booking.CreateInput{BodyguardID: "g-pending"}, booking.IsErrBadRequest},
		{"self booking", &account.User{ID: "g-approved"}, booking.CreateInput{BodyguardID: "g-approved"}, booking.IsErrBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Create(context.Background(), tc.user, tc.in)
			require.Error(t, err)
			assert.True(t, tc.check(err), err.Error())
			assert.Zero(t, f.repo.Inserts)
		})
	}
}

func TestCreate_DuplicateSubmission(t *testing.T) {
	f := newFixture(t)
	in := booking.CreateInput{BodyguardID: "g-approved", IdempotencyKey: "form-123"}

	_, err := f.svc.Create(context.Background(), client, in)
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), client, in)
	assert.True(t, booking.IsErrDuplicate(err))
	assert.Equal(t, 1, f.repo.Inserts)
}

func TestCreate_FailedInsertReleasesKey(t *testing.T) {
	f := newFixture(t)
	in := booking.CreateInput{BodyguardID: "g-approved", IdempotencyKey: "form-123"}

	f.repo.CreateErr = errors.New("rpc error: code = Unavailable desc = backend down")
	_, err := f.svc.Create(context.Background(), client, in)
	require.EqualError(t, err, "rpc error: code = Unavailable desc = backend down")

	f.repo.CreateErr = nil
	b, err := f.svc.Create(context.Background(), client, in)
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.Inserts)
	assert.Empty(t, f.notify.Created[1:])
	assert.Equal(t, b.ID, f.notify.Created[0].ID)
}

func TestCreate_ConflictCheck(t *testing.T) {
	f := newFixture(t,
		booking.Booking{ID: "old-1", BodyguardID: "g-approved", BookingDate: "2026-03-11", BookingTime: "10:00", DurationHours: 2, Status: booking.StatusConfirmed},
		booking.Booking{ID: "old-2", BodyguardID: "g-approved", BookingDate: "2026-03-11", BookingTime: "14:00", DurationHours: 4, Status: booking.StatusCancelled},
	)

	_, err := f.svc.Create(context.Background(), client, booking.CreateInput{BodyguardID: "g-approved", Date: "2026-03-11", Time: "11:00"})
	assert.True(t, booking.IsErrConflict(err))

	_, err = f.svc.Create(context.Background(), client, booking.CreateInput{BodyguardID: "g-approved", Date: "2026-03-11", Time: "08:00", DurationHours: 3})
	assert.True(t, booking.IsErrConflict(err))

	_, err = f.svc.Create(context.Background(), client, booking.CreateInput{BodyguardID: "g-approved", Date: "2026-03-11", Time: "12:00"})
	assert.NoError(t, err)

	_, err = f.svc.Create(context.Background(), client, booking.CreateInput{BodyguardID: "g-approved", Date: "2026-03-11", Time: "15:00"})
	assert.NoError(t, err, "cancelled bookings do not block the slot")

	_, err = f.svc.Create(context.Background(), client, booking.CreateInput{BodyguardID: "g-other", Date: "2026-03-11", Time: "10:00"})
	assert.NoError(t, err)
}

func TestCreate_ConflictAcrossMidnight(t *testing.T) {
	t.Run("overnight booking blocks the next morning", func(t *testing.T) {
		f := newFixture(t,
			booking.Booking{ID: "night", BodyguardID: "g-approved", BookingDate: "2026-03-11", BookingTime: "22:00", DurationHours: 24, Status: booking.StatusConfirmed},
		)
		_, err := f.svc.Create(context.Background(), client, booking.CreateInput{BodyguardID: "g-approved", Date: "2026-03-12", Time: "06:00", DurationHours: 4})
		assert.True(t, booking.IsErrConflict(err))

		_, err = f.svc.Create(context.Background(), client, booking.CreateInput{BodyguardID: "g-approved", Date: "2026-03-12", Time: "22:00"})
		assert.NoError(t, err, "the slot after the overnight booking ends is free")
	})

	t.Run("new overnight booking runs into the next day", func(t *testing.T) {
		f := newFixture(t,
			booking.Booking{ID: "morning", BodyguardID: "g-approved", BookingDate: "2026-03-12", BookingTime: "06:00", DurationHours: 2, Status: booking.StatusPending},
		)
		_, err := f.svc.Create(context.Background(), client, booking.CreateInput{BodyguardID: "g-approved", Date: "2026-03-11", Time: "22:00", DurationHours: 12})
		assert.True(t, booking.IsErrConflict(err))

		_, err = f.svc.Create(context.Background(), client, booking.CreateInput{BodyguardID: "g-approved", Date: "2026-03-11", Time: "22:00", DurationHours: 8})
		assert.NoError(t, err)
	})
}

func TestCreate_ConcurrentClientsGetOneSlot(t *testing.T) {
	f := newFixture(t)
	const n = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := &account.User{ID: fmt.Sprintf("client-%d", i+10)}
			_, err := f.svc.Create(context.Background(), u, booking.CreateInput{BodyguardID: "g-approved", Date: "2026-03-11", Time: "10:00", DurationHours: 2})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case booking.IsErrConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
	assert.Equal(t, 1, f.repo.Inserts)
}

func TestListForClient_JoinsBodyguards(t *testing.T) {
	f := newFixture(t,
		booking.Booking{ID: "a", ClientID: "client-1", BodyguardID: "g-approved", Status: booking.StatusPending, CreatedAt: fixedNow.Add(-2 * time.Hour)},
		booking.Booking{ID: "b", ClientID: "client-1", BodyguardID: "g-other", Status: booking.StatusCompleted, CreatedAt: fixedNow.Add(-time.Hour)},
		booking.Booking{ID: "c", ClientID: "someone-else", BodyguardID: "g-other", Status: booking.StatusPending, CreatedAt: fixedNow},
	)

	list, err := f.svc.ListForClient(context.Background(), "client-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
	assert.Equal(t, "Meera Iyer", list[0].Bodyguard.FullName)
	assert.Equal(t, "Vikram Singh", list[1].Bodyguard.FullName)
}

func TestPartition(t *testing.T) {
	all := []booking.Booking{
		{ID: "1", Status: booking.StatusPending},
		{ID: "2", Status: booking.StatusCompleted},
		{ID: "3", Status: booking.StatusConfirmed},
		{ID: "4", Status: booking.StatusCancelled},
		{ID: "5", Status: booking.StatusPending},
	}
	upcoming, past := booking.Partition(all)

	assert.Len(t, upcoming, 3)
	assert.Len(t, past, 2)
	seen := map[string]int{}
	for _, b := range upcoming {
		assert.True(t, b.Status == booking.StatusPending || b.Status == booking.StatusConfirmed)
		seen[b.ID]++
	}
	for _, b := range past {
		assert.True(t, b.Status == booking.StatusCompleted || b.Status == booking.StatusCancelled)
		seen[b.ID]++
	}
	assert.Len(t, seen, len(all))
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}

	u, p := booking.Partition(nil)
	assert.Empty(t, u)
	assert.Empty(t, p)
}

func TestTransition(t *testing.T) {
	guard := &account.User{ID: "g-approved"}
	stranger := &account.User{ID: "stranger"}
	seed := func() booking.Booking {
		return booking.Booking{ID: "bk", ClientID: "client-1", BodyguardID: "g-approved", Status: booking.StatusPending}
	}

	t.Run("bodyguard confirms then completes", func(t *testing.T) {
		f := newFixture(t, seed())
		b, err := f.svc.Transition(context.Background(), guard, "bk", booking.StatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusConfirmed, b.Status)

		b, err = f.svc.Transition(context.Background(), guard, "bk", booking.StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCompleted, b.Status)
		assert.Len(t, f.notify.Changed, 2)

		_, err = f.svc.Transition(context.Background(), guard, "bk", booking.StatusCancelled)
		assert.True(t, booking.IsErrBadRequest(err))
	})

	t.Run("client cancels", func(t *testing.T) {
		f := newFixture(t, seed())
		b, err := f.svc.Transition(context.Background(), client, "bk", booking.StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, b.Status)
	})

	t.Run("client cannot confirm", func(t *testing.T) {
		f := newFixture(t, seed())
		_, err := f.svc.Transition(context.Background(), client, "bk", booking.StatusConfirmed)
		assert.True(t, booking.IsErrUnauthorized(err))
	})

	t.Run("stranger is rejected", func(t *testing.T) {
		f := newFixture(t, seed())
		_, err := f.svc.Transition(context.Background(), stranger, "bk", booking.StatusCancelled)
		assert.True(t, booking.IsErrUnauthorized(err))
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		f := newFixture(t, seed())
		_, err := f.svc.Transition(context.Background(), guard, "bk", booking.Status("archived"))
		assert.True(t, booking.IsErrBadRequest(err))
	})

	t.Run("pending cannot complete", func(t *testing.T) {
		f := newFixture(t, seed())
		_, err := f.svc.Transition(context.Background(), guard, "bk", booking.StatusCompleted)
		assert.True(t, booking.IsErrBadRequest(err))
	})
}

func TestMarkPaid(t *testing.T) {
	f := newFixture(t, booking.Booking{ID: "bk", ClientID: "client-1", BodyguardID: "g-approved", Status: booking.StatusPending, PaymentStatus: booking.PaymentUnpaid})

	b, err := f.svc.MarkPaid(context.Background(), "bk")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, b.Status)
	assert.Equal(t, booking.PaymentPaid, b.PaymentStatus)

	again, err := f.svc.MarkPaid(context.Background(), "bk")
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, again.Status)
	assert.Len(t, f.notify.Changed, 1)
}
