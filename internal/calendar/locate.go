package calendar

import (
	"fmt"
	"time"

	"github.com/zapponejosh/wheel/internal/optimize"
	"github.com/zapponejosh/wheel/internal/solar"
)

// SearchTolerance is the absolute tolerance of the search, well below the
// one minute the wheel is displayed at.
const SearchTolerance = time.Second

// Result is a located event: the instant and the declination there.
type Result struct {
	Instant     time.Time `json:"instant" yaml:"instant"`
	Declination float64   `json:"declination" yaml:"declination"`
}

// Locate searches [anchor, anchor+window] for the instant minimising
// errFn(oracle.Declination(t)).
//
// The caller places the anchor so the event falls inside the window,
// ideally near its centre. That placement is not checked: if the event lies
// outside the window the result is whatever local minimum the search
// settles on, usually a point near one edge.
func Locate(oracle solar.Oracle, anchor time.Time, errFn ErrorFunc, window time.Duration) (Result, error) {
	if errFn == nil {
		return Result{}, ErrNilErrorFunc
	}
	if window <= 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidWindow, window)
	}

	at := func(seconds float64) time.Time {
		return anchor.Add(time.Duration(seconds * float64(time.Second)))
	}
	objective := func(seconds float64) float64 {
		return errFn(oracle.Declination(at(seconds)))
	}

	res, err := optimize.Minimize(objective, 0, window.Seconds(), optimize.Options{
		Tolerance: SearchTolerance.Seconds(),
	})
	if err != nil {
		return Result{}, fmt.Errorf("minimize from %s: %w", anchor.Format(time.RFC3339), err)
	}

	instant := at(res.X)
	return Result{
		Instant:     instant,
		Declination: oracle.Declination(instant),
	}, nil
}

// Locate finds the event in the given year.
func (e Event) Locate(oracle solar.Oracle, year int) (Result, error) {
	return Locate(oracle, e.Anchor.In(year), e.ErrorFunc(), e.Window)
}
