package calendar

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/zapponejosh/wheel/internal/solar"
)

var refEpoch = time.Date(2024, time.March, 20, 3, 6, 0, 0, time.UTC)

// sinusoid is an idealised oracle: a cosine with a period of one tropical
// year peaking at peak.
func sinusoid(peak time.Time, amplitude float64) solar.Oracle {
	const year = 365.2422 * 24 * float64(time.Hour)
	return solar.OracleFunc(func(t time.Time) float64 {
		phase := 2 * math.Pi * float64(t.Sub(peak)) / year
		return amplitude * math.Cos(phase)
	})
}

func withinDuration(t *testing.T, name string, got, want time.Time, tol time.Duration) {
	t.Helper()
	d := got.Sub(want)
	if d < 0 {
		d = -d
	}
	if d > tol {
		t.Errorf("%s = %s, want %s (±%s, off by %s)", name, got.Format(time.RFC3339), want.Format(time.RFC3339), tol, d)
	}
}

func TestLocate_ZeroCrossing(t *testing.T) {
	oracle := solar.OracleFunc(func(at time.Time) float64 {
		return 0.4 * at.Sub(refEpoch).Hours() / 24
	})

	res, err := Locate(oracle, refEpoch.AddDate(0, 0, -10), errorFunc(Equinox, 0), DefaultWindow)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	withinDuration(t, "Instant", res.Instant, refEpoch, time.Minute)
	if math.Abs(res.Declination) > 0.001 {
		t.Errorf("Declination = %v, want ~0", res.Declination)
	}
}

func TestLocate_Extrema(t *testing.T) {
	peak := time.Date(2024, time.June, 20, 20, 51, 0, 0, time.UTC)
	oracle := sinusoid(peak, 23.44)

	res, err := Locate(oracle, peak.AddDate(0, 0, -9), errorFunc(SummerSolstice, 0), DefaultWindow)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	withinDuration(t, "summer Instant", res.Instant, peak, 2*time.Minute)
	if math.Abs(res.Declination-23.44) > 1e-6 {
		t.Errorf("summer Declination = %v, want 23.44", res.Declination)
	}

	// The same curve bottoms out half a year later.
	trough := peak.Add(time.Duration(365.2422 / 2 * 24 * float64(time.Hour)))
	res, err = Locate(oracle, trough.AddDate(0, 0, -11), errorFunc(WinterSolstice, 0), DefaultWindow)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	withinDuration(t, "winter Instant", res.Instant, trough, 2*time.Minute)
	if math.Abs(res.Declination+23.44) > 1e-6 {
		t.Errorf("winter Declination = %v, want -23.44", res.Declination)
	}
}

func TestLocate_Target(t *testing.T) {
	oracle := solar.OracleFunc(func(at time.Time) float64 {
		return 0.4 * at.Sub(refEpoch).Hours() / 24
	})

	// 4 degrees is reached ten days after refEpoch.
	res, err := Locate(oracle, refEpoch, errorFunc(CrossQuarter, 4), DefaultWindow)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	withinDuration(t, "Instant", res.Instant, refEpoch.AddDate(0, 0, 10), time.Minute)
}

func TestLocate_Deterministic(t *testing.T) {
	litha, _ := Solstices()
	first, err := litha.Locate(solar.Ephemeris{}, 2024)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	second, err := litha.Locate(solar.Ephemeris{}, 2024)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if first != second {
		t.Errorf("Locate() not deterministic: %+v != %+v", first, second)
	}
}

func TestLocate_InvalidArguments(t *testing.T) {
	oracle := solar.Ephemeris{}

	if _, err := Locate(oracle, refEpoch, nil, DefaultWindow); !errors.Is(err, ErrNilErrorFunc) {
		t.Errorf("Locate(nil errFn) error = %v, want ErrNilErrorFunc", err)
	}
	if _, err := Locate(oracle, refEpoch, math.Abs, 0); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("Locate(0 window) error = %v, want ErrInvalidWindow", err)
	}
	if _, err := Locate(oracle, refEpoch, math.Abs, -time.Hour); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("Locate(negative window) error = %v, want ErrInvalidWindow", err)
	}
}

func TestLocate_MisplacedWindow(t *testing.T) {
	// Zero crossing lies after the window: the search silently settles at
	// the late edge instead of reporting an error.
	oracle := solar.OracleFunc(func(at time.Time) float64 {
		return 0.4 * at.Sub(refEpoch).Hours() / 24
	})
	anchor := refEpoch.AddDate(0, 0, -30)

	res, err := Locate(oracle, anchor, errorFunc(Equinox, 0), DefaultWindow)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	withinDuration(t, "Instant", res.Instant, anchor.Add(DefaultWindow), time.Minute)
}

func TestLocate_CrossQuarterIsInteriorMinimum(t *testing.T) {
	oracle := solar.Ephemeris{}

	for _, rule := range []MidpointRule{MidpointEcliptic, MidpointDeclination} {
		t.Run(string(rule), func(t *testing.T) {
			litha, yule := Solstices()
			summer, err := litha.Locate(oracle, 2024)
			if err != nil {
				t.Fatalf("locate Litha: %v", err)
			}
			winter, err := yule.Locate(oracle, 2024)
			if err != nil {
				t.Fatalf("locate Yule: %v", err)
			}

			for _, e := range Events(rule, summer.Declination, winter.Declination) {
				if e.Kind != CrossQuarter {
					continue
				}
				res, err := e.Locate(oracle, 2024)
				if err != nil {
					t.Fatalf("locate %s: %v", e.Name, err)
				}

				f := e.ErrorFunc()
				start := e.Anchor.In(2024)
				end := start.Add(e.Window)
				atResult := f(res.Declination)
				atStart := f(oracle.Declination(start))
				atEnd := f(oracle.Declination(end))

				if !(atResult < atStart && atResult < atEnd) {
					t.Errorf("%s: error %.5f at result not below window edges (%.5f, %.5f)", e.Name, atResult, atStart, atEnd)
				}
				if atResult > 0.01 {
					t.Errorf("%s: error %.5f at result, want < 0.01", e.Name, atResult)
				}
			}
		})
	}
}
