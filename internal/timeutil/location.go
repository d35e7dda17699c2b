package timeutil

import (
	"time"
)

// Local is the agency's business time zone. Invoice years and due dates are
// computed in it.
var Local = time.UTC

// SetLocation switches the business time zone. An unknown name keeps UTC.
func SetLocation(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	Local = loc
	return nil
}

// Now returns the current time in the business time zone
func Now() time.Time {
	return time.Now().In(Local)
}

// StartOfDay returns midnight of t's day in the business time zone
func StartOfDay(t time.Time) time.Time {
	l := t.In(Local)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, Local)
}

// AddMonthsClamped adds n months keeping the day of month when possible and
// clamping to the last day otherwise (31 Jan + 1 month = 28/29 Feb).
func AddMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02/01/2006"
)

// FormatDate renders a calendar date as dd/mm/yyyy without shifting zones
func FormatDate(t time.Time) string {
	return t.Format(DisplayLayout)
}
