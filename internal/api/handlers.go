package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/wheel/internal/calendar"
	"github.com/zapponejosh/wheel/internal/config"
	"github.com/zapponejosh/wheel/internal/logger"
	"github.com/zapponejosh/wheel/internal/render"
)

// WheelCalculator computes wheels. *calendar.Calculator implements it.
type WheelCalculator interface {
	Wheel(ctx context.Context, year int) ([]calendar.Observance, error)
	Events(ctx context.Context, year int) ([]calendar.Event, error)
	Rule() calendar.MidpointRule
}

// HealthChecker reports whether a backing store is usable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	calc   WheelCalculator
	store  HealthChecker // nil when the cache is in memory
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

// NewHandlers creates a new Handlers instance. store may be nil.
func NewHandlers(calc WheelCalculator, store HealthChecker, cfg *config.Config, log *slog.Logger) *Handlers {
	if log == nil {
		log = slog.Default()
	}
	return &Handlers{
		calc:   calc,
		store:  store,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	backend := config.CacheMemory
	if h.store != nil {
		backend = config.CacheSQLite
		if err := h.store.Health(ctx); err != nil {
			h.logger.Warn("health check failed", slog.Any("error", err))
			WriteError(w, http.StatusServiceUnavailable, "Cache unhealthy", CodeUnhealthy)
			return
		}
	}

	WriteSuccess(w, map[string]string{
		"status": "healthy",
		"rule":   string(h.calc.Rule()),
		"cache":  backend,
	})
}

// WheelResponse is the payload of a single-event request.
type WheelResponse struct {
	Year  int          `json:"year"`
	Rule  string       `json:"rule"`
	Zone  string       `json:"zone"`
	Event render.Entry `json:"event"`
}

// GetWheel handles GET /api/v1/wheel/{year}, /api/v1/wheel/{year}.ics and
// ?format=text|json|yaml|ics.
func (h *Handlers) GetWheel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	yearParam := chi.URLParam(r, "year")
	format := render.FormatJSON
	if trimmed, ok := strings.CutSuffix(yearParam, ".ics"); ok {
		yearParam = trimmed
		format = render.FormatICS
	}
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := render.ParseFormat(q)
		if err != nil {
			WriteBadRequest(w, fmt.Sprintf("Invalid format: %s. Use text, json, yaml or ics", q), CodeInvalidFormat)
			return
		}
		format = f
	}

	year, ok := h.parseYear(w, yearParam)
	if !ok {
		return
	}
	loc, ok := h.location(w, r)
	if !ok {
		return
	}

	observances, err := h.calc.Wheel(ctx, year)
	if err != nil {
		h.writeWheelError(w, r, year, err)
		return
	}

	wheel := render.Wheel{
		Year:        year,
		Rule:        h.calc.Rule(),
		Location:    loc,
		Observances: observances,
		Generated:   h.now(),
	}

	if format == render.FormatJSON {
		WriteSuccess(w, render.NewDocument(wheel))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if format == render.FormatICS {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=wheel-%04d.ics", year))
	}
	if err := render.Write(w, format, wheel); err != nil {
		logger.Error(ctx, "failed to render wheel", err, slog.Int("year", year), slog.String("format", string(format)))
	}
}

// GetEvent handles GET /api/v1/wheel/{year}/{event}
func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	year, ok := h.parseYear(w, chi.URLParam(r, "year"))
	if !ok {
		return
	}

	eventParam := chi.URLParam(r, "event")
	name, found := calendar.LookupName(eventParam)
	if !found {
		WriteNotFound(w, fmt.Sprintf("Unknown event: %s", eventParam), CodeUnknownEvent)
		return
	}

	loc, ok := h.location(w, r)
	if !ok {
		return
	}

	observances, err := h.calc.Wheel(ctx, year)
	if err != nil {
		h.writeWheelError(w, r, year, err)
		return
	}

	for _, o := range observances {
		if o.Name == name {
			WriteSuccess(w, WheelResponse{
				Year:  year,
				Rule:  string(h.calc.Rule()),
				Zone:  loc.String(),
				Event: render.NewEntry(o, loc),
			})
			return
		}
	}

	// A complete wheel always has every event.
	logger.Error(ctx, "event missing from wheel", calendar.ErrUnknownEvent, slog.String("event", name))
	WriteInternalError(w, "Failed to compute event")
}

// EventInfo describes how one event is searched for.
type EventInfo struct {
	Name              string   `json:"name"`
	Kind              string   `json:"kind"`
	Anchor            string   `json:"anchor"`
	WindowDays        float64  `json:"window_days"`
	TargetDeclination *float64 `json:"target_declination,omitempty"`
}

// EventsResponse is the payload of GET /api/v1/events.
type EventsResponse struct {
	Year   int         `json:"year"`
	Rule   string      `json:"rule"`
	Events []EventInfo `json:"events"`
}

// ListEvents handles GET /api/v1/events?year=YYYY
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	year := h.now().Year()
	if q := r.URL.Query().Get("year"); q != "" {
		var ok bool
		if year, ok = h.parseYear(w, q); !ok {
			return
		}
	}

	events, err := h.calc.Events(ctx, year)
	if err != nil {
		h.writeWheelError(w, r, year, err)
		return
	}

	resp := EventsResponse{
		Year:   year,
		Rule:   string(h.calc.Rule()),
		Events: make([]EventInfo, 0, len(events)),
	}
	for _, e := range events {
		info := EventInfo{
			Name:       e.Name,
			Kind:       e.Kind.String(),
			Anchor:     e.Anchor.String(),
			WindowDays: e.Window.Hours() / 24,
		}
		if e.Kind == calendar.CrossQuarter {
			target := e.Rule.Target(e.Reference)
			info.TargetDeclination = &target
		}
		resp.Events = append(resp.Events, info)
	}

	WriteSuccess(w, resp)
}

// parseYear validates a year parameter, writing a 400 on failure.
func (h *Handlers) parseYear(w http.ResponseWriter, s string) (int, bool) {
	year, err := calendar.ParseYear(s)
	if err != nil {
		WriteBadRequest(w,
			fmt.Sprintf("Invalid year: %s. Use a year between %d and %d", s, calendar.MinYear, calendar.MaxYear),
			CodeInvalidYear)
		return 0, false
	}
	return year, true
}

// location returns the display zone: ?utc_offset= if given, then the
// configured UTC_OFFSET, then UTC.
func (h *Handlers) location(w http.ResponseWriter, r *http.Request) (*time.Location, bool) {
	if q := r.URL.Query().Get("utc_offset"); q != "" {
		hours, err := calendar.ParseOffset(q)
		if err != nil {
			WriteBadRequest(w, fmt.Sprintf("Invalid utc_offset: %s. Use hours between -14 and 14", q), CodeInvalidOffset)
			return nil, false
		}
		return calendar.FixedZone(hours), true
	}
	if h.cfg != nil && h.cfg.UTCOffset != nil {
		return calendar.FixedZone(*h.cfg.UTCOffset), true
	}
	return time.UTC, true
}

func (h *Handlers) writeWheelError(w http.ResponseWriter, r *http.Request, year int, err error) {
	logger.Error(r.Context(), "failed to compute wheel", err, slog.Int("year", year))

	if errors.Is(err, calendar.ErrImplausibleSolstice) {
		WriteError(w, http.StatusInternalServerError,
			"Solar model reported implausible solstices for "+strconv.Itoa(year), CodeImplausible)
		return
	}
	WriteInternalError(w, "Failed to compute wheel")
}
