package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/zapponejosh/wheel/internal/calendar"
	"github.com/zapponejosh/wheel/internal/config"
	"github.com/zapponejosh/wheel/internal/database"
	"github.com/zapponejosh/wheel/internal/logger"
	"github.com/zapponejosh/wheel/internal/render"
	"github.com/zapponejosh/wheel/internal/solar"
)

// options are the parsed command line.
type options struct {
	year      int
	utcOffset float64
	format    render.Format
	rule      calendar.MidpointRule
	model     string
	logLevel  string
}

// run is main without the process globals, so it can be tested.
func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) error {
	cfg, err := config.FromEnv(getenv)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	// Terminal output unless LOG_FORMAT asks for something else.
	if getenv("LOG_FORMAT") == "" {
		cfg.LogFormat = config.FormatTint
	}
	// The command prints in the foreground; log only what matters.
	if getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}

	opts, err := parseArgs(args, cfg, time.Now(), stderr)
	if err != nil {
		return err
	}
	cfg.Rule = opts.rule
	cfg.SolarModel = opts.model
	cfg.LogLevel = opts.logLevel
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := logger.New(stderr, cfg.LogLevel, cfg.LogFormat)

	oracle, err := cfg.Oracle()
	if err != nil {
		return err
	}
	calcCfg := calendar.CalculatorConfig{
		Oracle:  oracle,
		Rule:    cfg.Rule,
		Logger:  log,
		Workers: cfg.Workers,
	}
	if cfg.CacheBackend == config.CacheSQLite {
		db, cache, err := database.OpenCache(ctx, cfg.CachePath, database.Namespace(cfg.Rule, cfg.SolarModel), log)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer db.Close()
		calcCfg.Cache = cache
	}

	log.Debug("computing wheel",
		slog.Int("year", opts.year),
		slog.Float64("utc_offset", opts.utcOffset),
		slog.String("rule", string(cfg.Rule)),
		slog.String("solar_model", cfg.SolarModel),
		slog.String("cache", cfg.CacheBackend),
	)

	observances, err := calendar.NewCalculator(calcCfg).Wheel(ctx, opts.year)
	if err != nil {
		return err
	}

	return render.Write(stdout, opts.format, render.Wheel{
		Year:        opts.year,
		Rule:        cfg.Rule,
		Location:    calendar.FixedZone(opts.utcOffset),
		Observances: observances,
	})
}

// parseArgs reads flags and the optional positional year. Flags may come
// before or after the year.
func parseArgs(args []string, cfg *config.Config, now time.Time, stderr io.Writer) (options, error) {
	name := "wheel"
	if len(args) > 0 {
		name = args[0]
		args = args[1:]
	}

	defaultOffset := calendar.LocalOffsetHours(now)
	if cfg.UTCOffset != nil {
		defaultOffset = *cfg.UTCOffset
	}

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage: %s [flags] [year]\n\nFlags:\n", name)
		flags.PrintDefaults()
	}
	offset := flags.String("utc-offset", "", fmt.Sprintf("UTC offset in hours (default %g)", defaultOffset))
	format := flags.String("format", string(render.FormatText), "output format: text, json, yaml or ics")
	rule := flags.String("rule", string(cfg.Rule), "cross-quarter midpoint rule: declination or ecliptic")
	model := flags.String("model", cfg.SolarModel, "solar model: meeus or sunrise")
	logLevel := flags.String("log-level", cfg.LogLevel, "log level: debug, info, warn or error")

	var positional []string
	for {
		if err := flags.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return options{}, err
			}
			return options{}, fmt.Errorf("parse flags: %w", err)
		}
		args = flags.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}

	opts := options{year: now.Year(), utcOffset: defaultOffset, logLevel: *logLevel}

	switch len(positional) {
	case 0:
	case 1:
		year, err := calendar.ParseYear(positional[0])
		if err != nil {
			return options{}, err
		}
		opts.year = year
	default:
		return options{}, fmt.Errorf("expected at most one year, got %d arguments", len(positional))
	}

	if *offset != "" {
		hours, err := calendar.ParseOffset(*offset)
		if err != nil {
			return options{}, err
		}
		opts.utcOffset = hours
	}

	var err error
	if opts.format, err = render.ParseFormat(*format); err != nil {
		return options{}, err
	}
	if opts.rule, err = calendar.ParseMidpointRule(*rule); err != nil {
		return options{}, err
	}
	opts.model = strings.ToLower(strings.TrimSpace(*model))
	if opts.model == "" {
		opts.model = solar.DefaultModel
	}
	if _, err := solar.Lookup(opts.model); err != nil {
		return options{}, err
	}
	return opts, nil
}
