package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"securemate/backend/internal/domain/account"
	"securemate/backend/internal/domain/bodyguard"
	"securemate/backend/internal/domain/bodyguard/bodyguardtest"
	"securemate/backend/internal/domain/booking"
	"securemate/backend/internal/domain/booking/bookingtest"
	"securemate/backend/internal/export"
)

type fakeRoles struct {
	uid   string
	typ   account.UserType
	admin bool
}

func (f *fakeRoles) SetRole(_ context.Context, uid string, t account.UserType, admin bool) (map[string]interface{}, error) {
	f.uid, f.typ, f.admin = uid, t, admin
	return map[string]interface{}{account.ClaimUserType: string(t), account.ClaimAdmin: admin}, nil
}

func testApp(t *testing.T) (*app, *fakeRoles, *bodyguardtest.Repo) {
	t.Helper()
	roles := &fakeRoles{}
	repo := bodyguardtest.NewRepo(
		bodyguard.Bodyguard{ID: "g1", FullName: "Ravi Kumar", Location: "Pune", Status: bodyguard.StatusPending, CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	)
	guards := bodyguard.NewService(repo, nil, nil, nil, nil)
	bookings := booking.NewService(bookingtest.NewRepo(
		booking.Booking{ID: "bk-1", ClientID: "c1", BodyguardID: "g1", BookingDate: "2026-03-12", BookingTime: "09:00", DurationHours: 2, TotalAmount: 800, Status: booking.StatusPending},
		booking.Booking{ID: "bk-2", ClientID: "c2", BodyguardID: "g1", BookingDate: "2026-03-13", BookingTime: "10:00", DurationHours: 1, TotalAmount: 400, Status: booking.StatusConfirmed},
	), guards, nil)
	return &app{roles: roles, bodyguards: guards, bookings: bookings}, roles, repo
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(func(context.Context) (*app, error) { return a, nil })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestClaimsSet(t *testing.T) {
	a, roles, _ := testApp(t)
	out, err := run(t, a, "claims", "set", "--uid", "uid-9", "--user-type", "bodyguard", "--admin")
	require.NoError(t, err)
	assert.Contains(t, out, "ok: claims set for uid-9")
	assert.Equal(t, "uid-9", roles.uid)
	assert.Equal(t, account.UserTypeBodyguard, roles.typ)
	assert.True(t, roles.admin)

	_, err = run(t, a, "claims", "set", "--uid", "uid-9", "--user-type", "owner")
	assert.Error(t, err)

	_, err = run(t, a, "claims", "set")
	assert.Error(t, err)
}

func TestBodyguardsListAndApprove(t *testing.T) {
	a, _, repo := testApp(t)

	out, err := run(t, a, "bodyguards", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Ravi Kumar")

	out, err = run(t, a, "bodyguards", "approve", "--id", "g1")
	require.NoError(t, err)
	assert.Contains(t, out, "is approved")

	g, err := repo.Get(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, bodyguard.StatusApproved, g.Status)

	_, err = run(t, a, "bodyguards", "list", "--status", "rejected")
	assert.Error(t, err)
}

func TestBookingsExport(t *testing.T) {
	a, _, _ := testApp(t)
	path := filepath.Join(t.TempDir(), "out.xlsx")

	out, err := run(t, a, "bookings", "export", "--bodyguard", "g1", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 bookings written")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetBookings)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = run(t, a, "bookings", "export", "--client", "c1", "--bodyguard", "g1")
	assert.Error(t, err)
}

func TestFactoryErrorSurfaces(t *testing.T) {
	cmd := newRootCmd(func(context.Context) (*app, error) { return nil, errors.New("no credentials") })
	cmd.SetArgs([]string{"bodyguards", "list"})
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credentials")
}
