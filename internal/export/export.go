// Package export writes bookings to spreadsheets for offline review.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"securemate/backend/internal/domain/booking"
)

const SheetBookings = "Bookings"

var headers = []string{
	"Booking ID", "Date", "Time", "Duration (h)", "Bodyguard", "Client ID",
	"Amount", "Status", "Payment", "Special requirements", "Created at",
}

// Bookings writes one header row and one row per booking to w as XLSX.
func Bookings(w io.Writer, bookings []booking.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetBookings); err != nil {
		return fmt.Errorf("error renaming sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetBookings, cell, h); err != nil {
			return err
		}
	}
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(SheetBookings, "A1", last, style)
	}

	for i, b := range bookings {
		guard := b.BodyguardID
		if b.Bodyguard != nil && b.Bodyguard.FullName != "" {
			guard = b.Bodyguard.FullName
		}
		payment := string(b.PaymentStatus)
		if payment == "" {
			payment = string(booking.PaymentUnpaid)
		}
		created := ""
		if !b.CreatedAt.IsZero() {
			created = b.CreatedAt.UTC().Format("2006-01-02 15:04")
		}
		row := []interface{}{
			b.ID, b.BookingDate, b.BookingTime, b.DurationHours, guard, b.ClientID,
			b.TotalAmount, string(b.Status), payment, b.SpecialRequirements, created,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetBookings, cell, &row); err != nil {
			return fmt.Errorf("error writing row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(SheetBookings, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetBookings, "J", "J", 40); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}
