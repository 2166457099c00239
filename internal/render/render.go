// Package render encodes a computed wheel for output: the plain text
// listing, JSON, YAML and iCalendar.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zapponejosh/wheel/internal/calendar"
)

// Format names an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatICS  Format = "ics"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatICS}

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("render: unknown format")

// ParseFormat parses a format name. The empty string yields FormatText.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML, FormatICS:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "ical":
		return FormatICS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the media type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	case FormatICS:
		return "text/calendar; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Wheel is a computed year ready for rendering.
type Wheel struct {
	Year        int
	Rule        calendar.MidpointRule
	Location    *time.Location // display zone; nil means UTC
	Observances []calendar.Observance
	Generated   time.Time // iCalendar DTSTAMP; zero means now
}

func (w Wheel) location() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}

// Document is the structured form of a wheel used by JSON and YAML.
type Document struct {
	Year   int     `json:"year" yaml:"year"`
	Rule   string  `json:"rule" yaml:"rule"`
	Zone   string  `json:"zone" yaml:"zone"`
	Events []Entry `json:"events" yaml:"events"`
}

// Entry is one event of a Document.
type Entry struct {
	Name        string  `json:"name" yaml:"name"`
	Kind        string  `json:"kind" yaml:"kind"`
	Instant     string  `json:"instant" yaml:"instant"`
	UTC         string  `json:"utc" yaml:"utc"`
	Local       string  `json:"local" yaml:"local"`
	Declination float64 `json:"declination" yaml:"declination"`
}

// NewEntry converts an observance for display in loc.
func NewEntry(o calendar.Observance, loc *time.Location) Entry {
	return Entry{
		Name:        o.Name,
		Kind:        o.Kind.String(),
		Instant:     o.Instant.In(loc).Format(time.RFC3339),
		UTC:         o.Instant.UTC().Format(time.RFC3339),
		Local:       calendar.FormatInstant(o.Instant, loc),
		Declination: o.Declination,
	}
}

// NewDocument converts w to its structured form.
func NewDocument(w Wheel) Document {
	loc := w.location()
	doc := Document{
		Year:   w.Year,
		Rule:   string(w.Rule),
		Zone:   loc.String(),
		Events: make([]Entry, 0, len(w.Observances)),
	}
	for _, o := range w.Observances {
		doc.Events = append(doc.Events, NewEntry(o, loc))
	}
	return doc
}

// Write encodes w to out in format f.
func Write(out io.Writer, f Format, w Wheel) error {
	switch f {
	case FormatText, "":
		return Text(out, w)
	case FormatJSON:
		return JSON(out, w)
	case FormatYAML:
		return YAML(out, w)
	case FormatICS:
		return ICS(out, w)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// Text writes one line per event: the name padded to twelve columns and
// the local time, e.g. "Imbolc      Feb 03 12:47".
func Text(out io.Writer, w Wheel) error {
	loc := w.location()
	for _, o := range w.Observances {
		if _, err := fmt.Fprintln(out, calendar.FormatLine(o.Name, o.Instant, loc)); err != nil {
			return err
		}
	}
	return nil
}

// JSON writes the wheel as an indented JSON document.
func JSON(out io.Writer, w Wheel) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(w)); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// YAML writes the wheel as a YAML document.
func YAML(out io.Writer, w Wheel) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(w)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
