package calendar

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DisplayLayout is the wheel's display format, e.g. "Feb 03 12:47".
const DisplayLayout = "Jan 02 15:04"

// FormatInstant formats t in loc using DisplayLayout.
func FormatInstant(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DisplayLayout)
}

// FormatLine renders one wheel line: the name padded to twelve columns
// followed by the local time.
func FormatLine(name string, t time.Time, loc *time.Location) string {
	return fmt.Sprintf("%-12s%s", name, FormatInstant(t, loc))
}

// FixedZone returns a location offset from UTC by the given number of
// hours. Fractional offsets such as 5.5 or -3.5 are allowed.
func FixedZone(hours float64) *time.Location {
	seconds := int(math.Round(hours * 3600))
	if seconds == 0 {
		return time.UTC
	}

	sign := "+"
	abs := seconds
	if abs < 0 {
		sign = "-"
		abs = -abs
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, abs/3600, abs%3600/60)
	return time.FixedZone(name, seconds)
}

// LocalOffsetHours returns the local zone's UTC offset at t, in hours.
func LocalOffsetHours(t time.Time) float64 {
	_, offset := t.Local().Zone()
	return float64(offset) / 3600
}

// ParseYear parses a calendar year and checks it is within
// [MinYear, MaxYear].
func ParseYear(s string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidYear, s)
	}
	if year < MinYear || year > MaxYear {
		return 0, fmt.Errorf("%w: %d out of range %d-%d", ErrInvalidYear, year, MinYear, MaxYear)
	}
	return year, nil
}

// ParseOffset parses a UTC offset given in hours, e.g. "-5" or "5.5".
func ParseOffset(s string) (float64, error) {
	hours, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid UTC offset %q: %w", s, err)
	}
	if math.IsNaN(hours) || hours < -14 || hours > 14 {
		return 0, fmt.Errorf("invalid UTC offset %q: must be between -14 and 14 hours", s)
	}
	return hours, nil
}
