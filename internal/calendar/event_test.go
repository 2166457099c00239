package calendar

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestEventKindString(t *testing.T) {
	tests := []struct {
		kind EventKind
		want string
	}{
		{Equinox, "equinox"},
		{SummerSolstice, "summer_solstice"},
		{WinterSolstice, "winter_solstice"},
		{CrossQuarter, "cross_quarter"},
		{EventKind(0), "EventKind(0)"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("EventKind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
		text, err := tt.kind.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText() error = %v", err)
		}
		if string(text) != tt.want {
			t.Errorf("MarshalText() = %q, want %q", text, tt.want)
		}
	}
}

func TestAnchor(t *testing.T) {
	a := Anchor{time.January, 25}

	if got := a.String(); got != "Jan 25" {
		t.Errorf("String() = %q, want %q", got, "Jan 25")
	}

	got := a.In(2024)
	want := time.Date(2024, time.January, 25, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("In(2024) = %s, want %s", got, want)
	}
	if got.Location() != time.UTC {
		t.Errorf("In(2024) location = %s, want UTC", got.Location())
	}
}

func TestParseMidpointRule(t *testing.T) {
	tests := []struct {
		in      string
		want    MidpointRule
		wantErr bool
	}{
		{"", MidpointDeclination, false},
		{"declination", MidpointDeclination, false},
		{"ecliptic", MidpointEcliptic, false},
		{" Declination ", MidpointDeclination, false},
		{"longitude", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMidpointRule(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMidpointRule(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrUnknownRule) {
			t.Errorf("ParseMidpointRule(%q) error = %v, want ErrUnknownRule", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMidpointRule(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMidpointRuleTarget(t *testing.T) {
	tests := []struct {
		rule      MidpointRule
		reference float64
		want      float64
	}{
		{MidpointDeclination, 23.44, 11.72},
		{MidpointDeclination, -23.44, -11.72},
		{MidpointEcliptic, 23.44, 16.335},
		{MidpointEcliptic, -23.44, -16.335},
	}

	for _, tt := range tests {
		got := tt.rule.Target(tt.reference)
		if math.Abs(got-tt.want) > 0.005 {
			t.Errorf("%s.Target(%v) = %.4f, want %.3f", tt.rule, tt.reference, got, tt.want)
		}
	}
}

func TestErrorFunc(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		dec   float64
		want  float64
	}{
		{"equinox positive", Event{Kind: Equinox}, 2, 2},
		{"equinox negative", Event{Kind: Equinox}, -2, 2},
		{"summer solstice", Event{Kind: SummerSolstice}, 23, -23},
		{"winter solstice", Event{Kind: WinterSolstice}, -23, -23},
		{"cross quarter at target", Event{Kind: CrossQuarter, Rule: MidpointDeclination, Reference: 20}, 10, 0},
		{"cross quarter below target", Event{Kind: CrossQuarter, Rule: MidpointDeclination, Reference: 20}, 7, 3},
		{"cross quarter winter side", Event{Kind: CrossQuarter, Rule: MidpointDeclination, Reference: -20}, -6, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.event.ErrorFunc()
			if f == nil {
				t.Fatal("ErrorFunc() = nil")
			}
			if got := f(tt.dec); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("ErrorFunc()(%v) = %v, want %v", tt.dec, got, tt.want)
			}
		})
	}

	if f := (Event{}).ErrorFunc(); f != nil {
		t.Error("ErrorFunc() for zero kind should be nil")
	}
}

func TestEvents(t *testing.T) {
	const maxDec, minDec = 23.4, -23.4

	for _, rule := range []MidpointRule{MidpointEcliptic, MidpointDeclination} {
		t.Run(string(rule), func(t *testing.T) {
			events := Events(rule, maxDec, minDec)
			if len(events) != len(Names) {
				t.Fatalf("Events() returned %d events, want %d", len(events), len(Names))
			}

			wantKinds := []EventKind{
				CrossQuarter, Equinox, CrossQuarter, SummerSolstice,
				CrossQuarter, Equinox, CrossQuarter, WinterSolstice,
			}
			wantRefs := map[string]float64{Imbolc: minDec, Beltane: maxDec, Lunasa: maxDec, Sauin: minDec}

			for i, e := range events {
				if e.Name != Names[i] {
					t.Errorf("events[%d].Name = %q, want %q", i, e.Name, Names[i])
				}
				if e.Kind != wantKinds[i] {
					t.Errorf("%s.Kind = %s, want %s", e.Name, e.Kind, wantKinds[i])
				}
				if e.Window != DefaultWindow {
					t.Errorf("%s.Window = %s, want %s", e.Name, e.Window, DefaultWindow)
				}
				if e.Anchor.Day == 0 {
					t.Errorf("%s has no anchor", e.Name)
				}
				if ref, ok := wantRefs[e.Name]; ok {
					if e.Reference != ref {
						t.Errorf("%s.Reference = %v, want %v", e.Name, e.Reference, ref)
					}
					if e.Rule != rule {
						t.Errorf("%s.Rule = %q, want %q", e.Name, e.Rule, rule)
					}
				}
			}

			// Anchors are in calendar order too.
			for i := 1; i < len(events); i++ {
				prev, cur := events[i-1].Anchor.In(2024), events[i].Anchor.In(2024)
				if !prev.Before(cur) {
					t.Errorf("anchor %s (%s) not before %s (%s)", events[i-1].Name, events[i-1].Anchor, events[i].Name, events[i].Anchor)
				}
			}
		})
	}
}

func TestEventsDefaultRule(t *testing.T) {
	events := Events("", 23.4, -23.4)
	if events[0].Rule != MidpointDeclination {
		t.Errorf("Imbolc.Rule = %q, want %q", events[0].Rule, MidpointDeclination)
	}
	if events[0].Anchor != (Anchor{time.February, 8}) {
		t.Errorf("Imbolc.Anchor = %s, want Feb 08", events[0].Anchor)
	}

	// An Event with no rule targets half its reference.
	f := Event{Kind: CrossQuarter, Reference: -23.4}.ErrorFunc()
	if got := f(-11.7); got != 0 {
		t.Errorf("ErrorFunc(-11.7) = %v, want 0", got)
	}
}

func TestEvents_WindowsCoverCentredSearch(t *testing.T) {
	// Each default window contains the date a symmetric ±5 day search
	// would centre on.
	centres := map[string]Anchor{
		Imbolc:  {time.February, 15},
		Ostara:  {time.March, 20},
		Beltane: {time.April, 20},
		Litha:   {time.June, 20},
		Lunasa:  {time.August, 20},
		Mabon:   {time.September, 20},
		Sauin:   {time.October, 25},
		Yule:    {time.December, 20},
	}

	for _, year := range []int{1, 2024, 9999} {
		for _, e := range Events(DefaultRule, 23.4, -23.4) {
			start := e.Anchor.In(year)
			end := start.Add(e.Window)
			centre := centres[e.Name].In(year)
			if centre.Before(start) || centre.After(end) {
				t.Errorf("%d %s: window %s..%s misses %s", year, e.Name, start.Format("Jan 02"), end.Format("Jan 02"), centre.Format("Jan 02"))
			}
		}
	}
}

func TestLookupName(t *testing.T) {
	if got, ok := LookupName("yule"); !ok || got != Yule {
		t.Errorf("LookupName(yule) = %q, %v; want %q, true", got, ok, Yule)
	}
	if got, ok := LookupName("SAUIN"); !ok || got != Sauin {
		t.Errorf("LookupName(SAUIN) = %q, %v; want %q, true", got, ok, Sauin)
	}
	if _, ok := LookupName("Easter"); ok {
		t.Error("LookupName(Easter) should not match")
	}
}
