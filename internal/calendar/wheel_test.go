package calendar

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zapponejosh/wheel/internal/solar"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCalculator(t *testing.T, rule MidpointRule) (*Calculator, *MemoryCache) {
	t.Helper()
	cache := NewMemoryCache()
	calc := NewCalculator(CalculatorConfig{
		Rule:   rule,
		Cache:  cache,
		Logger: quietLogger(),
	})
	return calc, cache
}

func wheelFor(t *testing.T, calc *Calculator, year int) []Observance {
	t.Helper()
	wheel, err := calc.Wheel(context.Background(), year)
	if err != nil {
		t.Fatalf("Wheel(%d) error = %v", year, err)
	}
	if len(wheel) != len(Names) {
		t.Fatalf("Wheel(%d) returned %d events, want %d", year, len(wheel), len(Names))
	}
	return wheel
}

func byName(wheel []Observance) map[string]Observance {
	m := make(map[string]Observance, len(wheel))
	for _, o := range wheel {
		m[o.Name] = o
	}
	return m
}

func assertOrdered(t *testing.T, year int, wheel []Observance) {
	t.Helper()
	for i, o := range wheel {
		if o.Name != Names[i] {
			t.Errorf("%d: wheel[%d].Name = %q, want %q", year, i, o.Name, Names[i])
		}
		if o.Instant.Year() != year {
			t.Errorf("%d: %s falls in %d", year, o.Name, o.Instant.Year())
		}
		if i > 0 && !wheel[i-1].Instant.Before(o.Instant) {
			t.Errorf("%d: %s (%s) not before %s (%s)", year, wheel[i-1].Name, wheel[i-1].Instant, o.Name, o.Instant)
		}
	}
}

func TestWheel_2024(t *testing.T) {
	calc, _ := testCalculator(t, DefaultRule)
	wheel := wheelFor(t, calc, 2024)
	assertOrdered(t, 2024, wheel)

	events := byName(wheel)

	if dec := events[Litha].Declination; dec <= 23.4 || dec >= 23.5 {
		t.Errorf("Litha declination = %.4f, want within (23.4, 23.5)", dec)
	}
	if dec := events[Yule].Declination; dec >= -23.4 || dec <= -23.5 {
		t.Errorf("Yule declination = %.4f, want within (-23.5, -23.4)", dec)
	}
	for _, name := range []string{Ostara, Mabon} {
		if dec := events[name].Declination; math.Abs(dec) >= 0.001 {
			t.Errorf("%s declination = %.5f, want |dec| < 0.001", name, dec)
		}
	}

	// Published 2024 times. Solstices are flat in declination, so they
	// get a wider margin than the equinoxes.
	published := []struct {
		name   string
		want   time.Time
		margin time.Duration
	}{
		{Ostara, time.Date(2024, time.March, 20, 3, 6, 0, 0, time.UTC), 20 * time.Minute},
		{Litha, time.Date(2024, time.June, 20, 20, 51, 0, 0, time.UTC), time.Hour},
		{Mabon, time.Date(2024, time.September, 22, 12, 44, 0, 0, time.UTC), 20 * time.Minute},
		{Yule, time.Date(2024, time.December, 21, 9, 20, 0, 0, time.UTC), time.Hour},
	}
	for _, p := range published {
		withinDuration(t, p.name, events[p.name].Instant, p.want, p.margin)
	}
}

func TestWheel_FarYearsMatchSeasons(t *testing.T) {
	// Equinoxes stay near Mar 20 and Sep 22 well away from the present.
	calc, _ := testCalculator(t, DefaultRule)
	for _, year := range []int{1500, 2500} {
		events := byName(wheelFor(t, calc, year))
		withinDuration(t, Ostara, events[Ostara].Instant, time.Date(year, time.March, 20, 12, 0, 0, 0, time.UTC), 72*time.Hour)
		withinDuration(t, Mabon, events[Mabon].Instant, time.Date(year, time.September, 22, 12, 0, 0, 0, time.UTC), 72*time.Hour)
	}
}

func TestNewCalculator_DefaultRule(t *testing.T) {
	calc := NewCalculator(CalculatorConfig{Logger: quietLogger()})
	if calc.Rule() != MidpointDeclination {
		t.Fatalf("Rule() = %q, want %q", calc.Rule(), MidpointDeclination)
	}

	events := byName(wheelFor(t, calc, 2024))
	maxDec, minDec := events[Litha].Declination, events[Yule].Declination
	refs := map[string]float64{Imbolc: minDec, Beltane: maxDec, Lunasa: maxDec, Sauin: minDec}
	for name, ref := range refs {
		if diff := math.Abs(events[name].Declination - ref/2); diff > 0.01 {
			t.Errorf("%s declination = %.4f, want half of %.4f (diff %.4f)", name, events[name].Declination, ref, diff)
		}
	}
}

func TestWheel_CrossQuarterTargets(t *testing.T) {
	for _, rule := range []MidpointRule{MidpointEcliptic, MidpointDeclination} {
		t.Run(string(rule), func(t *testing.T) {
			calc, _ := testCalculator(t, rule)
			wheel := wheelFor(t, calc, 2024)
			assertOrdered(t, 2024, wheel)

			events := byName(wheel)
			maxDec, minDec := events[Litha].Declination, events[Yule].Declination
			refs := map[string]float64{Imbolc: minDec, Beltane: maxDec, Lunasa: maxDec, Sauin: minDec}

			for name, ref := range refs {
				target := rule.Target(ref)
				if diff := math.Abs(events[name].Declination - target); diff > 0.01 {
					t.Errorf("%s declination = %.4f, want %.4f (diff %.4f)", name, events[name].Declination, target, diff)
				}
			}
		})
	}
}

type usualDate struct {
	month time.Month
	day   int
	hour  int
}

// Quarter days fall on the same dates under either rule.
var usualQuarterDays = map[string]usualDate{
	Ostara: {time.March, 20, 12},
	Litha:  {time.June, 21, 0},
	Mabon:  {time.September, 23, 0},
	Yule:   {time.December, 21, 12},
}

func TestWheel_ConventionalDates(t *testing.T) {
	tests := []struct {
		rule  MidpointRule
		cross map[string]usualDate
	}{
		{
			// Half the solstice declination.
			rule: MidpointDeclination,
			cross: map[string]usualDate{
				Imbolc:  {time.February, 18, 12},
				Beltane: {time.April, 20, 18},
				Lunasa:  {time.August, 22, 12},
				Sauin:   {time.October, 24, 6},
			},
		},
		{
			// The astronomical midpoints.
			rule: MidpointEcliptic,
			cross: map[string]usualDate{
				Imbolc:  {time.February, 4, 12},
				Beltane: {time.May, 5, 12},
				Lunasa:  {time.August, 7, 12},
				Sauin:   {time.November, 7, 12},
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.rule), func(t *testing.T) {
			calc, _ := testCalculator(t, tt.rule)
			for year := 1900; year <= 2100; year += 13 {
				for _, o := range wheelFor(t, calc, year) {
					u, ok := tt.cross[o.Name]
					if !ok {
						u = usualQuarterDays[o.Name]
					}
					want := time.Date(year, u.month, u.day, u.hour, 0, 0, 0, time.UTC)
					withinDuration(t, o.Name, o.Instant, want, 48*time.Hour)
				}
			}
		})
	}
}

func TestWheel_OrderedAcrossYears(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping 1900-2100 sweep in short mode")
	}

	for _, rule := range []MidpointRule{MidpointEcliptic, MidpointDeclination} {
		calc, _ := testCalculator(t, rule)
		for year := 1900; year <= 2100; year++ {
			assertOrdered(t, year, wheelFor(t, calc, year))
		}
	}
}

func TestWheel_Idempotent(t *testing.T) {
	calc, _ := testCalculator(t, MidpointEcliptic)
	first := wheelFor(t, calc, 2024)
	second := wheelFor(t, calc, 2024)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Wheel(2024) changed between calls:\n%+v\n%+v", first, second)
	}

	fresh, _ := testCalculator(t, MidpointEcliptic)
	third := wheelFor(t, fresh, 2024)
	if !reflect.DeepEqual(first, third) {
		t.Errorf("Wheel(2024) differs between calculators:\n%+v\n%+v", first, third)
	}
}

func TestWheel_Memoized(t *testing.T) {
	var calls atomic.Int64
	oracle := solar.OracleFunc(func(at time.Time) float64 {
		calls.Add(1)
		return solar.Ephemeris{}.Declination(at)
	})

	calc := NewCalculator(CalculatorConfig{Oracle: oracle, Logger: quietLogger()})
	wheelFor(t, calc, 2024)
	if calls.Load() == 0 {
		t.Fatal("oracle was never called")
	}

	before := calls.Load()
	wheelFor(t, calc, 2024)
	if after := calls.Load(); after != before {
		t.Errorf("second Wheel(2024) made %d oracle calls, want 0", after-before)
	}
}

func TestWheel_YearIsolation(t *testing.T) {
	calc, cache := testCalculator(t, MidpointEcliptic)

	w2024 := wheelFor(t, calc, 2024)
	if cache.Len() != 8 {
		t.Errorf("cache has %d entries after 2024, want 8", cache.Len())
	}

	w2025 := wheelFor(t, calc, 2025)
	if cache.Len() != 16 {
		t.Errorf("cache has %d entries after 2025, want 16", cache.Len())
	}

	for i := range w2024 {
		if w2024[i].Instant.Equal(w2025[i].Instant) {
			t.Errorf("%s shares an instant across years", w2024[i].Name)
		}
		if w2025[i].Instant.Year() != 2025 {
			t.Errorf("%s 2025 result is in %d", w2025[i].Name, w2025[i].Instant.Year())
		}
	}

	again := wheelFor(t, calc, 2024)
	if !reflect.DeepEqual(w2024, again) {
		t.Error("computing 2025 changed the 2024 wheel")
	}
}

func TestWheel_ImplausibleOracle(t *testing.T) {
	tests := []struct {
		name   string
		oracle solar.Oracle
	}{
		{"always positive", solar.OracleFunc(func(time.Time) float64 { return 1 })},
		{"always negative", solar.OracleFunc(func(time.Time) float64 { return -1 })},
		{"inverted seasons", sinusoid(time.Date(2024, time.December, 21, 0, 0, 0, 0, time.UTC), 23.44)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewMemoryCache()
			calc := NewCalculator(CalculatorConfig{Oracle: tt.oracle, Cache: cache, Logger: quietLogger()})

			wheel, err := calc.Wheel(context.Background(), 2024)
			if !errors.Is(err, ErrImplausibleSolstice) {
				t.Fatalf("Wheel() error = %v, want ErrImplausibleSolstice", err)
			}
			if wheel != nil {
				t.Errorf("Wheel() returned %d events alongside the error", len(wheel))
			}
			// Only the two solstices were attempted.
			if cache.Len() != 2 {
				t.Errorf("cache has %d entries, want 2", cache.Len())
			}
		})
	}
}

func TestWheel_InvalidYear(t *testing.T) {
	calc, _ := testCalculator(t, MidpointEcliptic)
	for _, year := range []int{0, -5, 10000} {
		if _, err := calc.Wheel(context.Background(), year); !errors.Is(err, ErrInvalidYear) {
			t.Errorf("Wheel(%d) error = %v, want ErrInvalidYear", year, err)
		}
	}
}

func TestWheel_Canceled(t *testing.T) {
	calc, _ := testCalculator(t, MidpointEcliptic)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := calc.Wheel(ctx, 2024); !errors.Is(err, context.Canceled) {
		t.Errorf("Wheel() error = %v, want context.Canceled", err)
	}
}

type failingCache struct{ err error }

func (c failingCache) Lookup(context.Context, Key) (Result, bool, error) { return Result{}, false, nil }
func (c failingCache) Store(context.Context, Key, Result) error          { return c.err }

func TestWheel_CacheError(t *testing.T) {
	boom := errors.New("disk full")
	calc := NewCalculator(CalculatorConfig{Cache: failingCache{boom}, Logger: quietLogger()})

	if _, err := calc.Wheel(context.Background(), 2024); !errors.Is(err, boom) {
		t.Errorf("Wheel() error = %v, want %v", err, boom)
	}
}

func TestWheel_Sequential(t *testing.T) {
	calc := NewCalculator(CalculatorConfig{Workers: 1, Logger: quietLogger()})
	parallel, _ := testCalculator(t, MidpointEcliptic)

	if !reflect.DeepEqual(wheelFor(t, calc, 2030), wheelFor(t, parallel, 2030)) {
		t.Error("sequential and concurrent wheels differ")
	}
}

func TestCalculatorEvents(t *testing.T) {
	calc, _ := testCalculator(t, MidpointDeclination)
	events, err := calc.Events(context.Background(), 2024)
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 8 {
		t.Fatalf("Events() returned %d, want 8", len(events))
	}
	if events[0].Reference >= 0 || events[2].Reference <= 0 {
		t.Errorf("Imbolc/Beltane references = %v/%v, want negative/positive", events[0].Reference, events[2].Reference)
	}
	if calc.Rule() != MidpointDeclination {
		t.Errorf("Rule() = %q, want %q", calc.Rule(), MidpointDeclination)
	}
}
