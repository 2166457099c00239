package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zapponejosh/wheel/internal/solar"
)

// MinYear and MaxYear bound the years a wheel can be computed for.
const (
	MinYear = 1
	MaxYear = 9999
)

// Observance is one computed wheel event.
type Observance struct {
	Name        string    `json:"name" yaml:"name"`
	Kind        EventKind `json:"kind" yaml:"kind"`
	Instant     time.Time `json:"instant" yaml:"instant"`
	Declination float64   `json:"declination" yaml:"declination"`
}

// CalculatorConfig configures a Calculator.
// Zero values are replaced with defaults.
type CalculatorConfig struct {
	Oracle  solar.Oracle // default solar.Ephemeris{}
	Rule    MidpointRule // default DefaultRule
	Cache   Cache        // default a new MemoryCache
	Logger  *slog.Logger // default slog.Default()
	Workers int          // concurrent searches, default 6
}

// Calculator assembles wheels and memoizes every located event per
// (event, year).
type Calculator struct {
	oracle  solar.Oracle
	rule    MidpointRule
	cache   Cache
	logger  *slog.Logger
	workers int
}

// NewCalculator creates a Calculator with the given config.
func NewCalculator(cfg CalculatorConfig) *Calculator {
	c := &Calculator{
		oracle:  cfg.Oracle,
		rule:    cfg.Rule,
		cache:   cfg.Cache,
		logger:  cfg.Logger,
		workers: cfg.Workers,
	}
	if c.oracle == nil {
		c.oracle = solar.Ephemeris{}
	}
	if c.rule == "" {
		c.rule = DefaultRule
	}
	if c.cache == nil {
		c.cache = NewMemoryCache()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.workers <= 0 {
		c.workers = 6
	}
	return c
}

// Rule returns the calculator's cross-quarter midpoint rule.
func (c *Calculator) Rule() MidpointRule {
	return c.rule
}

// Wheel returns the eight events of year in calendar order: Imbolc, Ostara,
// Beltane, Litha, Lunasa, Mabon, Sauin, Yule.
//
// Litha and Yule are located first since the cross-quarter targets derive
// from their declinations. If Litha's declination is not positive or
// Yule's is not negative, ErrImplausibleSolstice is returned and nothing
// else is computed. The remaining six events are located concurrently.
func (c *Calculator) Wheel(ctx context.Context, year int) ([]Observance, error) {
	if year < MinYear || year > MaxYear {
		return nil, fmt.Errorf("%w: %d", ErrInvalidYear, year)
	}

	litha, yule := Solstices()
	summer, err := c.locate(ctx, litha, year)
	if err != nil {
		return nil, err
	}
	winter, err := c.locate(ctx, yule, year)
	if err != nil {
		return nil, err
	}

	maxDec, minDec := summer.Declination, winter.Declination
	if !(minDec < 0 && 0 < maxDec) {
		return nil, fmt.Errorf("%w: year %d: %s %.4f°, %s %.4f°",
			ErrImplausibleSolstice, year, Litha, maxDec, Yule, minDec)
	}

	events := Events(c.rule, maxDec, minDec)
	results := make([]Result, len(events))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, e := range events {
		i, e := i, e
		switch e.Name {
		case Litha:
			results[i] = summer
			continue
		case Yule:
			results[i] = winter
			continue
		}
		g.Go(func() error {
			r, err := c.locate(gctx, e, year)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	wheel := make([]Observance, len(events))
	for i, e := range events {
		wheel[i] = Observance{
			Name:        e.Name,
			Kind:        e.Kind,
			Instant:     results[i].Instant,
			Declination: results[i].Declination,
		}
	}
	return wheel, nil
}

// Events returns the eight descriptors used for year, computing the
// solstices if needed.
func (c *Calculator) Events(ctx context.Context, year int) ([]Event, error) {
	wheel, err := c.Wheel(ctx, year)
	if err != nil {
		return nil, err
	}
	var maxDec, minDec float64
	for _, o := range wheel {
		switch o.Kind {
		case SummerSolstice:
			maxDec = o.Declination
		case WinterSolstice:
			minDec = o.Declination
		}
	}
	return Events(c.rule, maxDec, minDec), nil
}

// locate returns the memoized result for e in year, computing and storing
// it on first use.
func (c *Calculator) locate(ctx context.Context, e Event, year int) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	key := Key{Event: e.Name, Year: year}
	if r, ok, err := c.cache.Lookup(ctx, key); err != nil {
		return Result{}, fmt.Errorf("lookup %s %d: %w", e.Name, year, err)
	} else if ok {
		return r, nil
	}

	r, err := e.Locate(c.oracle, year)
	if err != nil {
		return Result{}, fmt.Errorf("locate %s %d: %w", e.Name, year, err)
	}

	c.logger.DebugContext(ctx, "event located",
		slog.String("event", e.Name),
		slog.Int("year", year),
		slog.Time("instant", r.Instant),
		slog.Float64("declination", r.Declination),
	)

	if err := c.cache.Store(ctx, key, r); err != nil {
		return Result{}, fmt.Errorf("store %s %d: %w", e.Name, year, err)
	}
	return r, nil
}
