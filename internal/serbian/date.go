package serbian

import (
	"fmt"
	"time"
)

const (
	dateLayout  = "02.01.2006"
	clockLayout = "15:04"
)

// FormatDateParts splits an instant into zero-padded local date and clock
// strings, e.g. "22.01.2026" and "14:30".
func FormatDateParts(t time.Time) (date, clock string) {
	return t.Format(dateLayout), t.Format(clockLayout)
}

// FormatDateTime renders an instant for display, e.g. "22.01.2026, 14:30".
func FormatDateTime(t time.Time) string {
	date, clock := FormatDateParts(t)
	return date + ", " + clock
}

// ParseDateParts reconstructs an instant from DD.MM.YYYY and HH:MM strings.
// It inverts FormatDateParts exactly at minute precision.
func ParseDateParts(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout+" "+clockLayout, date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q %q: %w", date, clock, err)
	}
	return t, nil
}
