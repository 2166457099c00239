// Command precompute fills the SQLite cache with wheels for a range of
// years so the API can serve them without searching.
//
// Usage:
//
//	go run ./cmd/precompute -from 1900 -to 2100 -db data/wheel.db
//
// This tool:
// 1. Creates/opens the SQLite database
// 2. Runs migrations to ensure schema is current
// 3. Optionally forgets cached results for the range (-force)
// 4. Computes every wheel in the range through the cache
//
// Running it twice is cheap: cached events are not searched again.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/zapponejosh/wheel/internal/calendar"
	"github.com/zapponejosh/wheel/internal/database"
	"github.com/zapponejosh/wheel/internal/logger"
	"github.com/zapponejosh/wheel/internal/solar"
)

// options holds the command line.
type options struct {
	from, to int
	dbPath   string
	rule     calendar.MidpointRule
	model    string
	force    bool
}

func main() {
	// Parse command line flags
	from := flag.Int("from", 1900, "First year to compute")
	to := flag.Int("to", 2100, "Last year to compute")
	dbPath := flag.String("db", "data/wheel.db", "Path to SQLite database")
	rule := flag.String("rule", string(calendar.DefaultRule), "Cross-quarter midpoint rule: declination or ecliptic")
	model := flag.String("model", solar.DefaultModel, "Solar model: meeus or sunrise")
	force := flag.Bool("force", false, "Recompute years that are already cached")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Setup logger
	logLevel := "info"
	if *verbose {
		logLevel = "debug"
	}
	log := logger.New(os.Stderr, logLevel, "tint")

	r, err := calendar.ParseMidpointRule(*rule)
	if err != nil {
		log.Error("invalid rule", slog.Any("error", err))
		os.Exit(1)
	}

	opts := options{from: *from, to: *to, dbPath: *dbPath, rule: r, model: *model, force: *force}
	if err := run(context.Background(), opts, log, os.Stdout); err != nil {
		log.Error("precompute failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("precompute complete")
}

func run(ctx context.Context, opts options, log *slog.Logger, out io.Writer) error {
	startTime := time.Now()

	if opts.from < calendar.MinYear || opts.to > calendar.MaxYear || opts.from > opts.to {
		return fmt.Errorf("%w: range %d-%d", calendar.ErrInvalidYear, opts.from, opts.to)
	}
	if opts.model == "" {
		opts.model = solar.DefaultModel
	}
	oracle, err := solar.Lookup(opts.model)
	if err != nil {
		return err
	}

	// =========================================================================
	// Step 1: Open database and run migrations
	// =========================================================================
	log.Info("opening database", slog.String("path", opts.dbPath))

	db, cache, err := database.OpenCache(ctx, opts.dbPath, database.Namespace(opts.rule, opts.model), log)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer db.Close()

	// =========================================================================
	// Step 2: Forget the range if asked
	// =========================================================================
	var forgotten int64
	if opts.force {
		for year := opts.from; year <= opts.to; year++ {
			n, err := cache.Forget(ctx, year)
			if err != nil {
				return fmt.Errorf("forget %d: %w", year, err)
			}
			forgotten += n
		}
		log.Info("cleared cached results", slog.Int64("rows", forgotten))
	}

	before, err := cache.Count(ctx)
	if err != nil {
		return err
	}

	// =========================================================================
	// Step 3: Compute every wheel
	// =========================================================================
	log.Info("computing wheels",
		slog.Int("from", opts.from),
		slog.Int("to", opts.to),
		slog.String("rule", string(opts.rule)),
		slog.String("solar_model", opts.model),
	)

	calc := calendar.NewCalculator(calendar.CalculatorConfig{
		Oracle: oracle,
		Rule:   opts.rule,
		Cache:  cache,
		Logger: log,
	})

	years := 0
	for year := opts.from; year <= opts.to; year++ {
		if _, err := calc.Wheel(ctx, year); err != nil {
			return fmt.Errorf("compute %d: %w", year, err)
		}
		years++

		// Progress logging every 50 years
		if years%50 == 0 {
			log.Debug("precompute progress",
				slog.Int("year", year),
				slog.Int("done", years),
			)
		}
	}

	// =========================================================================
	// Step 4: Verify
	// =========================================================================
	after, err := cache.Count(ctx)
	if err != nil {
		return err
	}
	cached, err := cache.Years(ctx)
	if err != nil {
		return err
	}

	elapsed := time.Since(startTime)

	log.Info("precompute verified",
		slog.Int("years", years),
		slog.Int("new_events", after-before),
		slog.Int("total_events", after),
		slog.Duration("elapsed", elapsed),
	)

	// Print summary
	fmt.Fprintln(out)
	fmt.Fprintln(out, "=== Precompute Summary ===")
	fmt.Fprintf(out, "Rule:                %s\n", opts.rule)
	fmt.Fprintf(out, "Solar model:         %s\n", opts.model)
	fmt.Fprintf(out, "Years computed:      %d\n", years)
	fmt.Fprintf(out, "Events forgotten:    %d\n", forgotten)
	fmt.Fprintf(out, "Events added:        %d\n", after-before)
	fmt.Fprintf(out, "Years in cache:      %d\n", len(cached))
	fmt.Fprintf(out, "Time elapsed:        %v\n", elapsed.Round(time.Millisecond))

	return nil
}
