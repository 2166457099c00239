package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// ProductID identifies calendars produced by this package.
const ProductID = "-//zapponejosh//wheel//EN"

// UID returns the stable iCalendar UID of an event in a year.
func UID(name string, year int) string {
	return fmt.Sprintf("%s-%04d@wheel", strings.ToLower(name), year)
}

// Calendar builds an iCalendar with one instantaneous VEVENT per
// observance. Times are written in UTC.
func Calendar(w Wheel) *ical.Calendar {
	stamp := w.Generated
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)

	for _, o := range w.Observances {
		ev := cal.AddEvent(UID(o.Name, w.Year))
		ev.SetDtStampTime(stamp.UTC())
		ev.SetStartAt(o.Instant.UTC())
		ev.SetEndAt(o.Instant.UTC())
		ev.SetSummary(o.Name)
		ev.SetDescription(fmt.Sprintf("%s (%s), solar declination %.4f°",
			o.Name, strings.ReplaceAll(o.Kind.String(), "_", " "), o.Declination))
	}
	return cal
}

// ICS writes the wheel as an iCalendar stream.
func ICS(out io.Writer, w Wheel) error {
	if _, err := io.WriteString(out, Calendar(w).Serialize()); err != nil {
		return fmt.Errorf("write ics: %w", err)
	}
	return nil
}
