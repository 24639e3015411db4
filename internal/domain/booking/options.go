package booking

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	DefaultTimeSlot = "09:00"
	DefaultDuration = 1
)

// TimeSlots are the bookable start times, hourly from 06:00 to 22:00.
var TimeSlots = func() []string {
	out := make([]string, 0, 17)
	for h := 6; h <= 22; h++ {
		out = append(out, fmt.Sprintf("%02d:00", h))
	}
	return out
}()

// Durations are the bookable lengths in hours.
var Durations = []int{1, 2, 3, 4, 6, 8, 12, 24}

func ValidTimeSlot(s string) bool {
	for _, t := range TimeSlots {
		if t == s {
			return true
		}
	}
	return false
}

func ValidDuration(h int) bool {
	for _, d := range Durations {
		if d == h {
			return true
		}
	}
	return false
}

// Quote is the total for a booking: the hourly rate times the duration.
func Quote(hourlyRate float64, durationHours int) float64 {
	return hourlyRate * float64(durationHours)
}

var displayPrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatAmount renders a rupee amount for display.
func FormatAmount(amount float64) string {
	if amount == math.Trunc(amount) {
		return displayPrinter.Sprintf("%v", currency.Symbol(currency.INR.Amount(int64(amount))))
	}
	return displayPrinter.Sprintf("%v", currency.Symbol(currency.INR.Amount(amount)))
}

// Options describes the booking form's enumerations.
type Options struct {
	TimeSlots       []string `json:"timeSlots"`
	DefaultTimeSlot string   `json:"defaultTimeSlot"`
	Durations       []int    `json:"durations"`
	DefaultDuration int      `json:"defaultDuration"`
	Today           string   `json:"today"`
}

func OptionsAt(now time.Time, loc *time.Location) Options {
	return Options{
		TimeSlots:       TimeSlots,
		DefaultTimeSlot: DefaultTimeSlot,
		Durations:       Durations,
		DefaultDuration: DefaultDuration,
		Today:           now.In(loc).Format(DateLayout),
	}
}

type QuoteResult struct {
	BodyguardID   string  `json:"bodyguardId"`
	HourlyRate    float64 `json:"hourlyRate"`
	DurationHours int     `json:"durationHours"`
	TotalAmount   float64 `json:"totalAmount"`
	Display       string  `json:"display"`
}

// window is a booking's span in minutes since the Unix epoch, reading the
// date and time as wall-clock values.
type window struct{ start, end int64 }

func windowOf(bookingDate, bookingTime string, durationHours int) (window, bool) {
	t, err := time.Parse(DateLayout+" "+TimeLayout, bookingDate+" "+bookingTime)
	if err != nil {
		return window{}, false
	}
	start := t.Unix() / 60
	return window{start: start, end: start + int64(durationHours)*60}, true
}

// neighbourDates lists date and the days either side of it. With durations
// capped at a day, only bookings on these dates can overlap one on date.
func neighbourDates(date string) []string {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return []string{date}
	}
	return []string{
		d.AddDate(0, 0, -1).Format(DateLayout),
		date,
		d.AddDate(0, 0, 1).Format(DateLayout),
	}
}

func (w window) overlaps(o window) bool {
	return w.start < o.end && o.start < w.end
}
