package calendar

import "errors"

// Sentinel errors for the calendar package.
// Use errors.Is to check: errors.Is(err, calendar.ErrImplausibleSolstice)
var (
	// ErrImplausibleSolstice means the oracle reported a non-positive June
	// solstice or non-negative December solstice declination. The whole
	// wheel for that year is abandoned.
	ErrImplausibleSolstice = errors.New("calendar: implausible solstice declination")

	ErrInvalidWindow = errors.New("calendar: search window must be positive")
	ErrNilErrorFunc  = errors.New("calendar: nil error function")
	ErrUnknownEvent  = errors.New("calendar: unknown event")
	ErrUnknownRule   = errors.New("calendar: unknown midpoint rule")
	ErrInvalidYear   = errors.New("calendar: invalid year")
)
