// Package calendar locates the eight solar events of the wheel of the year.
//
// Each event is found by minimising an error function of the Sun's
// declination over a short window of calendar time placed around the
// event's usual date. The equinoxes minimise |declination|, the solstices
// minimise ∓declination, and the four cross-quarter days minimise the
// distance to a target declination derived from the same year's solstices.
package calendar

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/zapponejosh/wheel/internal/solar"
)

// Event names in wheel order.
const (
	Imbolc  = "Imbolc"
	Ostara  = "Ostara"
	Beltane = "Beltane"
	Litha   = "Litha"
	Lunasa  = "Lunasa" // Lughnasadh
	Mabon   = "Mabon"
	Sauin   = "Sauin" // Samhain
	Yule    = "Yule"
)

// Names lists the eight events in calendar order.
var Names = []string{Imbolc, Ostara, Beltane, Litha, Lunasa, Mabon, Sauin, Yule}

// DefaultWindow is the width of every search window.
const DefaultWindow = 20 * 24 * time.Hour

// EventKind identifies the declination condition that marks an event.
type EventKind int

const (
	Equinox EventKind = iota + 1
	SummerSolstice
	WinterSolstice
	CrossQuarter
)

// String returns the kind's lowercase name.
func (k EventKind) String() string {
	switch k {
	case Equinox:
		return "equinox"
	case SummerSolstice:
		return "summer_solstice"
	case WinterSolstice:
		return "winter_solstice"
	case CrossQuarter:
		return "cross_quarter"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Anchor is a year-independent month and day at which a search window
// starts.
type Anchor struct {
	Month time.Month
	Day   int
}

// In returns midnight UTC of the anchor in the given year.
func (a Anchor) In(year int) time.Time {
	return time.Date(year, a.Month, a.Day, 0, 0, 0, 0, time.UTC)
}

func (a Anchor) String() string {
	return fmt.Sprintf("%s %02d", a.Month.String()[:3], a.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (a Anchor) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// MidpointRule selects the target declination of the cross-quarter days.
type MidpointRule string

const (
	// MidpointDeclination targets half of the solstice declination. It is
	// the default rule.
	MidpointDeclination MidpointRule = "declination"

	// MidpointEcliptic targets the declination the Sun has half way along
	// the ecliptic between an equinox and a solstice (ecliptic longitude
	// 45°, 135°, 225° or 315°). It lands near the conventional early
	// February, May, August and November dates.
	MidpointEcliptic MidpointRule = "ecliptic"
)

// DefaultRule is the rule used when none is given.
const DefaultRule = MidpointDeclination

// ParseMidpointRule parses "declination" or "ecliptic". The empty string
// yields DefaultRule.
func ParseMidpointRule(s string) (MidpointRule, error) {
	switch MidpointRule(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultRule, nil
	case MidpointDeclination:
		return MidpointDeclination, nil
	case MidpointEcliptic:
		return MidpointEcliptic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRule, s)
	}
}

// Target returns the declination a cross-quarter day aims for given the
// paired solstice's declination.
func (r MidpointRule) Target(reference float64) float64 {
	if r == MidpointEcliptic {
		return solar.DeclinationAt(45, reference)
	}
	return reference / 2
}

// Event describes one wheel event. Events are values and are not tied to a
// year; Reference and Rule are only meaningful for CrossQuarter events.
type Event struct {
	Name      string        `json:"name" yaml:"name"`
	Kind      EventKind     `json:"kind" yaml:"kind"`
	Anchor    Anchor        `json:"anchor" yaml:"anchor"`
	Window    time.Duration `json:"window" yaml:"window"`
	Reference float64       `json:"reference_declination,omitempty" yaml:"reference_declination,omitempty"`
	Rule      MidpointRule  `json:"rule,omitempty" yaml:"rule,omitempty"`
}

// ErrorFunc maps a declination to a non-negative error that is smallest at
// the event.
type ErrorFunc func(declination float64) float64

// ErrorFunc returns the event's error function.
func (e Event) ErrorFunc() ErrorFunc {
	return errorFunc(e.Kind, e.Rule.Target(e.Reference))
}

// errorFunc builds the error function for kind. target is only used for
// CrossQuarter.
func errorFunc(kind EventKind, target float64) ErrorFunc {
	switch kind {
	case Equinox:
		return math.Abs
	case SummerSolstice:
		return func(dec float64) float64 { return -dec }
	case WinterSolstice:
		return func(dec float64) float64 { return dec }
	case CrossQuarter:
		return func(dec float64) float64 { return math.Abs(dec - target) }
	default:
		return nil
	}
}

// quarterAnchors start ten days before the usual quarter-day date.
var quarterAnchors = map[string]Anchor{
	Ostara: {time.March, 10},
	Litha:  {time.June, 10},
	Mabon:  {time.September, 10},
	Yule:   {time.December, 10},
}

// crossQuarterAnchors start about ten days before each rule's event.
var crossQuarterAnchors = map[MidpointRule]map[string]Anchor{
	MidpointEcliptic: {
		Imbolc:  {time.January, 25},
		Beltane: {time.April, 25},
		Lunasa:  {time.July, 25},
		Sauin:   {time.October, 25},
	},
	MidpointDeclination: {
		Imbolc:  {time.February, 8},
		Beltane: {time.April, 10},
		Lunasa:  {time.August, 12},
		Sauin:   {time.October, 13},
	},
}

// Solstices returns the Litha and Yule descriptors. They do not depend on
// any other event.
func Solstices() (litha, yule Event) {
	litha = Event{Name: Litha, Kind: SummerSolstice, Anchor: quarterAnchors[Litha], Window: DefaultWindow}
	yule = Event{Name: Yule, Kind: WinterSolstice, Anchor: quarterAnchors[Yule], Window: DefaultWindow}
	return litha, yule
}

// Events returns all eight descriptors in wheel order. maxDec and minDec
// are the declinations observed at the same year's June and December
// solstices: Beltane and Lunasa pair with maxDec, Imbolc and Sauin with
// minDec.
func Events(rule MidpointRule, maxDec, minDec float64) []Event {
	if rule == "" {
		rule = DefaultRule
	}
	cross := crossQuarterAnchors[rule]
	litha, yule := Solstices()

	crossQuarter := func(name string, reference float64) Event {
		return Event{
			Name:      name,
			Kind:      CrossQuarter,
			Anchor:    cross[name],
			Window:    DefaultWindow,
			Reference: reference,
			Rule:      rule,
		}
	}
	equinox := func(name string) Event {
		return Event{Name: name, Kind: Equinox, Anchor: quarterAnchors[name], Window: DefaultWindow}
	}

	return []Event{
		crossQuarter(Imbolc, minDec),
		equinox(Ostara),
		crossQuarter(Beltane, maxDec),
		litha,
		crossQuarter(Lunasa, maxDec),
		equinox(Mabon),
		crossQuarter(Sauin, minDec),
		yule,
	}
}

// LookupName returns the canonical spelling of an event name, matched
// case-insensitively.
func LookupName(name string) (string, bool) {
	for _, n := range Names {
		if strings.EqualFold(n, name) {
			return n, true
		}
	}
	return "", false
}
