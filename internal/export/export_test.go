package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"securemate/backend/internal/domain/bodyguard"
	"securemate/backend/internal/domain/booking"
	"securemate/backend/internal/export"
)

func TestBookings(t *testing.T) {
	in := []booking.Booking{
		{
			ID: "bk-1", ClientID: "c1", BodyguardID: "g1",
			BookingDate: "2026-03-12", BookingTime: "09:00", DurationHours: 3,
			TotalAmount: 1500, Status: booking.StatusConfirmed, PaymentStatus: booking.PaymentPaid,
			SpecialRequirements: "Two entrances",
			CreatedAt:           time.Date(2026, 3, 10, 4, 30, 0, 0, time.UTC),
			Bodyguard:           &bodyguard.Bodyguard{ID: "g1", FullName: "Vikram Singh"},
		},
		{
			ID: "bk-2", ClientID: "c1", BodyguardID: "g2",
			BookingDate: "2026-03-13", BookingTime: "18:00", DurationHours: 1,
			TotalAmount: 750, Status: booking.StatusPending,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, export.Bookings(&buf, in))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{export.SheetBookings}, f.GetSheetList())
	rows, err := f.GetRows(export.SheetBookings)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Booking ID", rows[0][0])
	assert.Equal(t, []string{"bk-1", "2026-03-12", "09:00", "3", "Vikram Singh", "c1", "1500", "confirmed", "paid", "Two entrances", "2026-03-10 04:30"}, rows[1])
	assert.Equal(t, "g2", rows[2][4])
	assert.Equal(t, "unpaid", rows[2][8])
}

func TestBookings_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Bookings(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetBookings)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
