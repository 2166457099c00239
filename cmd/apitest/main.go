// Command apitest runs a smoke-test suite against a running wheel API.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// =============================================================================
// Response Types - Match the actual API response structure
// =============================================================================

type APIResponse struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WheelResponse is the response for /wheel/{year}
type WheelResponse struct {
	Year   int     `json:"year"`
	Rule   string  `json:"rule"`
	Zone   string  `json:"zone"`
	Events []Event `json:"events"`
}

// Event is one located event
type Event struct {
	Name        string  `json:"name"`
	Kind        string  `json:"kind"`
	Instant     string  `json:"instant"`
	UTC         string  `json:"utc"`
	Local       string  `json:"local"`
	Declination float64 `json:"declination"`
}

// EventResponse is the response for /wheel/{year}/{event}
type EventResponse struct {
	Year  int    `json:"year"`
	Rule  string `json:"rule"`
	Zone  string `json:"zone"`
	Event Event  `json:"event"`
}

// EventsResponse is the response for /events
type EventsResponse struct {
	Year   int `json:"year"`
	Events []struct {
		Name   string `json:"name"`
		Anchor string `json:"anchor"`
	} `json:"events"`
}

// HealthResponse is the response for /health
type HealthResponse struct {
	Status string `json:"status"`
	Rule   string `json:"rule"`
	Cache  string `json:"cache"`
}

// wheelOrder is the order every wheel response must list events in.
var wheelOrder = []string{"Imbolc", "Ostara", "Beltane", "Litha", "Lunasa", "Mabon", "Sauin", "Yule"}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL      string
	client       *http.Client
	out          io.Writer
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
}

func NewTestRunner(baseURL string, out io.Writer, verbose bool) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		out:     out,
		verbose: verbose,
	}
}

func (tr *TestRunner) Run() {
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintln(tr.out, "Wheel API Test Suite")
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintf(tr.out, "Base URL: %s\n", tr.baseURL)
	fmt.Fprintln(tr.out)

	// Run test groups
	tr.testHealth()
	tr.testWheel()
	tr.testSingleEvent()
	tr.testCalendarExport()
	tr.testEventListing()
	tr.testEdgeCases()
	tr.testCentury()

	// Print summary
	tr.printSummary()
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printSection("Health Check")

	resp, err := tr.get("/health")
	if err != nil {
		tr.recordError("Health", err.Error())
		return
	}

	var health HealthResponse
	if err := tr.parseDataAs(resp, &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	}

	if health.Status == "healthy" {
		tr.recordSuccess(fmt.Sprintf("Health check passed (rule %s, cache %s)", health.Rule, health.Cache))
	} else {
		tr.recordError("Health", fmt.Sprintf("Unexpected status: %s", health.Status))
	}
}

func (tr *TestRunner) testWheel() {
	tr.printSection("Wheel 2024")

	wheel, err := tr.getWheel(2024, "")
	if err != nil {
		tr.recordError("Wheel 2024", err.Error())
		return
	}
	tr.checkWheel("Wheel 2024", wheel)

	// Published UTC dates for 2024.
	want := map[string]string{
		"Ostara": "2024-03-20",
		"Litha":  "2024-06-20",
		"Mabon":  "2024-09-22",
		"Yule":   "2024-12-21",
	}
	for _, ev := range wheel.Events {
		if date, ok := want[ev.Name]; ok {
			if strings.HasPrefix(ev.UTC, date) {
				tr.recordSuccess(fmt.Sprintf("%s on %s", ev.Name, date))
			} else {
				tr.recordError(ev.Name, fmt.Sprintf("got %s, want %s", ev.UTC, date))
			}
		}
	}

	offset, err := tr.getWheel(2024, "utc_offset=5.5")
	if err != nil {
		tr.recordError("Offset", err.Error())
		return
	}
	if offset.Zone == "UTC+05:30" {
		tr.recordSuccess("utc_offset=5.5 shown as UTC+05:30")
	} else {
		tr.recordError("Offset", fmt.Sprintf("zone %q, want UTC+05:30", offset.Zone))
	}
}

func (tr *TestRunner) testSingleEvent() {
	tr.printSection("Single Event")

	resp, err := tr.get("/api/v1/wheel/2024/yule")
	if err != nil {
		tr.recordError("Yule", err.Error())
		return
	}

	var data EventResponse
	if err := tr.parseDataAs(resp, &data); err != nil {
		tr.recordError("Yule", err.Error())
		return
	}

	if data.Event.Name == "Yule" && data.Event.Declination < 0 {
		tr.recordSuccess(fmt.Sprintf("Yule 2024 at %s (declination %.2f)", data.Event.Local, data.Event.Declination))
	} else {
		tr.recordError("Yule", fmt.Sprintf("unexpected event %+v", data.Event))
	}
}

func (tr *TestRunner) testCalendarExport() {
	tr.printSection("iCalendar Export")

	resp, err := tr.getRaw("/api/v1/wheel/2025.ics")
	if err != nil {
		tr.recordError("ICS", err.Error())
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		tr.recordError("ICS", fmt.Sprintf("status %d", resp.StatusCode))
		return
	}

	cal, err := ical.ParseCalendar(resp.Body)
	if err != nil {
		tr.recordError("ICS", fmt.Sprintf("parse error: %v", err))
		return
	}

	events := cal.Events()
	if len(events) == len(wheelOrder) {
		tr.recordSuccess(fmt.Sprintf("2025.ics has %d events", len(events)))
	} else {
		tr.recordError("ICS", fmt.Sprintf("%d events, want %d", len(events), len(wheelOrder)))
	}
}

func (tr *TestRunner) testEventListing() {
	tr.printSection("Event Listing")

	resp, err := tr.get("/api/v1/events?year=2024")
	if err != nil {
		tr.recordError("Events", err.Error())
		return
	}

	var data EventsResponse
	if err := tr.parseDataAs(resp, &data); err != nil {
		tr.recordError("Events", err.Error())
		return
	}

	if len(data.Events) != len(wheelOrder) {
		tr.recordError("Events", fmt.Sprintf("%d events, want %d", len(data.Events), len(wheelOrder)))
		return
	}
	tr.recordSuccess(fmt.Sprintf("%d event descriptors", len(data.Events)))

	if tr.verbose {
		for _, e := range data.Events {
			fmt.Fprintf(tr.out, "    %-12s search from %s\n", e.Name, e.Anchor)
		}
	}
}

func (tr *TestRunner) testEdgeCases() {
	tr.printSection("Edge Cases")

	cases := []struct {
		name   string
		path   string
		status int
	}{
		{"Year 0 rejected", "/api/v1/wheel/0", http.StatusBadRequest},
		{"Year 10000 rejected", "/api/v1/wheel/10000", http.StatusBadRequest},
		{"Non-numeric year rejected", "/api/v1/wheel/next", http.StatusBadRequest},
		{"Bad offset rejected", "/api/v1/wheel/2024?utc_offset=15", http.StatusBadRequest},
		{"Unknown event not found", "/api/v1/wheel/2024/easter", http.StatusNotFound},
		{"Leap year handled", "/api/v1/wheel/2000", http.StatusOK},
		{"Far future handled", "/api/v1/wheel/2100", http.StatusOK},
	}

	for _, c := range cases {
		resp, err := tr.getRaw(c.path)
		if err != nil {
			tr.recordError(c.name, err.Error())
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == c.status {
			tr.recordSuccess(c.name)
		} else {
			tr.recordError(c.name, fmt.Sprintf("status %d, want %d", resp.StatusCode, c.status))
		}
	}
}

func (tr *TestRunner) testCentury() {
	tr.printSection("Every Tenth Year 1950-2050")

	for year := 1950; year <= 2050; year += 10 {
		wheel, err := tr.getWheel(year, "")
		if err != nil {
			tr.recordError(fmt.Sprint(year), err.Error())
			continue
		}
		tr.checkWheel(fmt.Sprint(year), wheel)

		if tr.verbose {
			tr.printWheelDetail(wheel)
		}
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

func (tr *TestRunner) getWheel(year int, query string) (*WheelResponse, error) {
	path := fmt.Sprintf("/api/v1/wheel/%d", year)
	if query != "" {
		path += "?" + query
	}

	resp, err := tr.get(path)
	if err != nil {
		return nil, err
	}

	var wheel WheelResponse
	if err := tr.parseDataAs(resp, &wheel); err != nil {
		return nil, err
	}
	return &wheel, nil
}

// checkWheel records whether the wheel lists all eight events in order
// with strictly increasing instants.
func (tr *TestRunner) checkWheel(context string, wheel *WheelResponse) {
	if len(wheel.Events) != len(wheelOrder) {
		tr.recordError(context, fmt.Sprintf("%d events, want %d", len(wheel.Events), len(wheelOrder)))
		return
	}

	var prev time.Time
	for i, ev := range wheel.Events {
		if ev.Name != wheelOrder[i] {
			tr.recordError(context, fmt.Sprintf("event %d is %s, want %s", i, ev.Name, wheelOrder[i]))
			return
		}
		t, err := time.Parse(time.RFC3339, ev.UTC)
		if err != nil {
			tr.recordError(context, fmt.Sprintf("%s: %v", ev.Name, err))
			return
		}
		if !t.After(prev) {
			tr.recordError(context, fmt.Sprintf("%s is not after the previous event", ev.Name))
			return
		}
		prev = t
	}

	tr.recordSuccess(fmt.Sprintf("%s: eight events in order", context))
}

func (tr *TestRunner) get(path string) (*APIResponse, error) {
	resp, err := tr.getRaw(path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	if !apiResp.Success {
		errMsg := "unknown error"
		if apiResp.Error != nil {
			errMsg = apiResp.Error.Message
		}
		return nil, fmt.Errorf("API error: %s", errMsg)
	}

	return &apiResp, nil
}

func (tr *TestRunner) getRaw(path string) (*http.Response, error) {
	url := tr.baseURL + path
	return tr.client.Get(url)
}

func (tr *TestRunner) parseDataAs(resp *APIResponse, target any) error {
	// Re-marshal and unmarshal to convert map to struct
	dataBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	return json.Unmarshal(dataBytes, target)
}

func (tr *TestRunner) printSection(name string) {
	fmt.Fprintln(tr.out)
	fmt.Fprintf(tr.out, "--- %s ---\n", name)
	fmt.Fprintln(tr.out)
}

func (tr *TestRunner) printWheelDetail(w *WheelResponse) {
	for _, ev := range w.Events {
		fmt.Fprintf(tr.out, "    %-12s%s  (%.2f°)\n", ev.Name, ev.Local, ev.Declination)
	}
	fmt.Fprintln(tr.out)
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	fmt.Fprintf(tr.out, "  ✓ %s\n", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	fmt.Fprintf(tr.out, "  ✗ %s\n", errStr)
}

func (tr *TestRunner) printSummary() {
	fmt.Fprintln(tr.out)
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintln(tr.out, "Summary")
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintf(tr.out, "  Passed: %d\n", tr.successCount)
	fmt.Fprintf(tr.out, "  Failed: %d\n", tr.errorCount)
	fmt.Fprintln(tr.out)

	if tr.errorCount > 0 {
		fmt.Fprintln(tr.out, "Failures:")
		for _, err := range tr.errors {
			fmt.Fprintf(tr.out, "  • %s\n", err)
		}
		fmt.Fprintln(tr.out)
	}

	if tr.errorCount == 0 {
		fmt.Fprintln(tr.out, "All tests passed! ✓")
	} else {
		fmt.Fprintf(tr.out, "Tests completed with %d failure(s)\n", tr.errorCount)
	}
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	verbose := flag.Bool("v", false, "Verbose output (show every computed wheel)")
	flag.Parse()

	// Check if server is reachable
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	runner := NewTestRunner(*baseURL, os.Stdout, *verbose)
	runner.Run()

	// Exit with error code if tests failed
	if runner.errorCount > 0 {
		os.Exit(1)
	}
}
