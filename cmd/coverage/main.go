// Command coverage audits the search windows over a range of years. For
// every event it records how close the located instant came to either end
// of its window; an instant on the boundary means the window missed the
// event.
//
// Usage:
//
//	go run ./cmd/coverage -start 1800 -years 400 -rule declination -model meeus -o coverage.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zapponejosh/wheel/internal/calendar"
	"github.com/zapponejosh/wheel/internal/logger"
	"github.com/zapponejosh/wheel/internal/solar"
)

// BoundaryMargin is how close to a window edge an instant may come before
// it counts as a miss.
const BoundaryMargin = time.Hour

// EventResult holds the outcome for one event in one year.
type EventResult struct {
	Event       string    `json:"event" yaml:"event"`
	Year        int       `json:"year" yaml:"year"`
	Instant     time.Time `json:"instant" yaml:"instant"`
	Declination float64   `json:"declination" yaml:"declination"`
	LeadHours   float64   `json:"lead_hours" yaml:"lead_hours"`   // from window start
	TrailHours  float64   `json:"trail_hours" yaml:"trail_hours"` // to window end
	Success     bool      `json:"success" yaml:"success"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// EventStats summarises one event across all years.
type EventStats struct {
	Event        string  `json:"event" yaml:"event"`
	Years        int     `json:"years" yaml:"years"`
	Failed       int     `json:"failed" yaml:"failed"`
	Earliest     string  `json:"earliest" yaml:"earliest"`
	Latest       string  `json:"latest" yaml:"latest"`
	MinLeadHours float64 `json:"min_lead_hours" yaml:"min_lead_hours"`
	MinTrailHrs  float64 `json:"min_trail_hours" yaml:"min_trail_hours"`
	FailedYears  []int   `json:"failed_years,omitempty" yaml:"failed_years,omitempty"`
	earliest     calendar.Anchor
	latest       calendar.Anchor
	seen         bool
}

// Analysis is the full report.
type Analysis struct {
	GeneratedAt string                 `json:"generated_at" yaml:"generated_at"`
	Rule        string                 `json:"rule" yaml:"rule"`
	StartYear   int                    `json:"start_year" yaml:"start_year"`
	EndYear     int                    `json:"end_year" yaml:"end_year"`
	TotalEvents int                    `json:"total_events" yaml:"total_events"`
	TotalFailed int                    `json:"total_failed" yaml:"total_failed"`
	ByEvent     map[string]*EventStats `json:"by_event" yaml:"by_event"`
	Failures    []EventResult          `json:"failures" yaml:"failures"`
}

func main() {
	startYear := flag.Int("start", 1900, "Start year")
	years := flag.Int("years", 201, "Number of years to audit")
	rule := flag.String("rule", string(calendar.DefaultRule), "Cross-quarter midpoint rule: declination or ecliptic")
	model := flag.String("model", solar.DefaultModel, "Solar model: meeus or sunrise")
	verbose := flag.Bool("v", false, "Verbose output (show each year)")
	outputFile := flag.String("o", "", "Write results to a .json or .yaml file")
	flag.Parse()

	r, err := calendar.ParseMidpointRule(*rule)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	oracle, err := solar.Lookup(*model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	endYear := *startYear + *years - 1
	if *years < 1 || *startYear < calendar.MinYear || endYear > calendar.MaxYear {
		fmt.Fprintf(os.Stderr, "Error: years must lie in %d-%d\n", calendar.MinYear, calendar.MaxYear)
		os.Exit(1)
	}

	fmt.Println("================================================================")
	fmt.Println("Wheel of the Year - Search Window Coverage")
	fmt.Println("================================================================")
	fmt.Printf("Rule:        %s\n", r)
	fmt.Printf("Solar Model: %s\n", *model)
	fmt.Printf("Year Range:  %d to %d\n", *startYear, endYear)
	fmt.Printf("Total Years: %d\n", *years)
	fmt.Println()

	calc := calendar.NewCalculator(calendar.CalculatorConfig{
		Oracle: oracle,
		Rule:   r,
		Logger: logger.New(os.Stderr, "warn", "tint"),
	})

	results := auditYears(context.Background(), calc, *startYear, endYear, os.Stdout, *verbose)
	analysis := analyzeResults(results, r, *startYear, endYear)

	printSummary(os.Stdout, analysis)
	printFailures(os.Stdout, analysis)

	if *outputFile != "" {
		if err := saveResults(*outputFile, analysis); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Results saved to: %s\n", *outputFile)
	}

	// Exit with error code if there were failures
	if analysis.TotalFailed > 0 {
		os.Exit(1)
	}
}

func auditYears(ctx context.Context, calc *calendar.Calculator, startYear, endYear int, out io.Writer, verbose bool) []EventResult {
	var results []EventResult

	total := endYear - startYear + 1
	lastProgress := -1

	for year := startYear; year <= endYear; year++ {
		results = append(results, auditYear(ctx, calc, year)...)

		// Show progress
		done := year - startYear + 1
		progress := (done * 100) / total
		if progress != lastProgress && progress%10 == 0 {
			fmt.Fprintf(out, "  Progress: %d%% (%d/%d)\n", progress, done, total)
			lastProgress = progress
		}

		if verbose {
			for _, r := range results[len(results)-len(calendar.Names):] {
				status := "✓"
				if !r.Success {
					status = "✗"
				}
				fmt.Fprintf(out, "  %s %d %-8s %s  lead %6.1fh  trail %6.1fh\n",
					status, r.Year, r.Event, r.Instant.Format(calendar.DisplayLayout), r.LeadHours, r.TrailHours)
			}
		}
	}

	fmt.Fprintln(out)
	return results
}

// auditYear returns one result per event. A failed wheel yields a failed
// result for every event.
func auditYear(ctx context.Context, calc *calendar.Calculator, year int) []EventResult {
	results := make([]EventResult, 0, len(calendar.Names))

	fail := func(err error) []EventResult {
		for _, name := range calendar.Names {
			results = append(results, EventResult{Event: name, Year: year, Error: err.Error()})
		}
		return results
	}

	wheel, err := calc.Wheel(ctx, year)
	if err != nil {
		return fail(err)
	}
	events, err := calc.Events(ctx, year)
	if err != nil {
		return fail(err)
	}

	for i, o := range wheel {
		e := events[i]
		start := e.Anchor.In(year)
		end := start.Add(e.Window)

		r := EventResult{
			Event:       o.Name,
			Year:        year,
			Instant:     o.Instant,
			Declination: o.Declination,
			LeadHours:   o.Instant.Sub(start).Hours(),
			TrailHours:  end.Sub(o.Instant).Hours(),
		}
		r.Success = o.Instant.Sub(start) > BoundaryMargin && end.Sub(o.Instant) > BoundaryMargin
		if !r.Success {
			r.Error = fmt.Sprintf("within %s of the window edge", BoundaryMargin)
		}
		results = append(results, r)
	}
	return results
}

func analyzeResults(results []EventResult, rule calendar.MidpointRule, startYear, endYear int) *Analysis {
	analysis := &Analysis{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Rule:        string(rule),
		StartYear:   startYear,
		EndYear:     endYear,
		ByEvent:     make(map[string]*EventStats),
		Failures:    []EventResult{},
	}

	for _, r := range results {
		analysis.TotalEvents++

		stats, ok := analysis.ByEvent[r.Event]
		if !ok {
			stats = &EventStats{Event: r.Event}
			analysis.ByEvent[r.Event] = stats
		}
		stats.Years++

		if !r.Success {
			analysis.TotalFailed++
			stats.Failed++
			stats.FailedYears = append(stats.FailedYears, r.Year)
			analysis.Failures = append(analysis.Failures, r)
			if r.Instant.IsZero() {
				continue
			}
		}

		day := calendar.Anchor{Month: r.Instant.Month(), Day: r.Instant.Day()}
		if !stats.seen {
			stats.earliest, stats.latest = day, day
			stats.MinLeadHours, stats.MinTrailHrs = r.LeadHours, r.TrailHours
			stats.seen = true
		}
		if before(day, stats.earliest) {
			stats.earliest = day
		}
		if before(stats.latest, day) {
			stats.latest = day
		}
		stats.MinLeadHours = min(stats.MinLeadHours, r.LeadHours)
		stats.MinTrailHrs = min(stats.MinTrailHrs, r.TrailHours)
	}

	for _, stats := range analysis.ByEvent {
		if stats.seen {
			stats.Earliest = stats.earliest.String()
			stats.Latest = stats.latest.String()
		}
	}
	return analysis
}

func before(a, b calendar.Anchor) bool {
	if a.Month != b.Month {
		return a.Month < b.Month
	}
	return a.Day < b.Day
}

func printSummary(out io.Writer, analysis *Analysis) {
	fmt.Fprintln(out, "================================================================")
	fmt.Fprintln(out, "Summary")
	fmt.Fprintln(out, "================================================================")
	fmt.Fprintf(out, "Total Events Located: %d\n", analysis.TotalEvents)
	fmt.Fprintf(out, "Failed:               %d\n", analysis.TotalFailed)
	fmt.Fprintln(out)

	fmt.Fprintf(out, "  %-8s %-7s %-7s %9s %9s %s\n", "Event", "First", "Last", "Min lead", "Min trail", "Failed")
	for _, name := range calendar.Names {
		stats, ok := analysis.ByEvent[name]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "  %-8s %-7s %-7s %8.1fh %8.1fh %d/%d\n",
			name, stats.Earliest, stats.Latest, stats.MinLeadHours, stats.MinTrailHrs, stats.Failed, stats.Years)
	}
	fmt.Fprintln(out)
}

func printFailures(out io.Writer, analysis *Analysis) {
	if analysis.TotalFailed == 0 {
		fmt.Fprintln(out, "All events located inside their windows ✓")
		return
	}

	// Group failures by error message
	byError := make(map[string][]EventResult)
	for _, f := range analysis.Failures {
		byError[f.Error] = append(byError[f.Error], f)
	}

	messages := make([]string, 0, len(byError))
	for msg := range byError {
		messages = append(messages, msg)
	}
	sort.Strings(messages)

	for _, msg := range messages {
		failures := byError[msg]
		fmt.Fprintf(out, "\nError: %s (%d occurrences)\n", msg, len(failures))
		for i, f := range failures {
			if i == 10 {
				fmt.Fprintf(out, "  ... and %d more\n", len(failures)-10)
				break
			}
			fmt.Fprintf(out, "  %d %s\n", f.Year, f.Event)
		}
	}
}

// saveResults writes the analysis as YAML for .yaml/.yml files and JSON
// otherwise.
func saveResults(filename string, analysis *Analysis) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(analysis)
	default:
		data, err = json.MarshalIndent(analysis, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
