package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zapponejosh/wheel/internal/calendar"
	"github.com/zapponejosh/wheel/internal/database"
	"github.com/zapponejosh/wheel/internal/solar"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "wheel.db")
	opts := options{from: 2020, to: 2022, dbPath: dbPath, rule: calendar.MidpointEcliptic}

	var out bytes.Buffer
	if err := run(ctx, opts, quietLogger(), &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out.String(), "Events added:        24") {
		t.Errorf("summary = %s", out.String())
	}

	// Second run finds everything cached.
	out.Reset()
	if err := run(ctx, opts, quietLogger(), &out); err != nil {
		t.Fatalf("second run() error = %v", err)
	}
	if !strings.Contains(out.String(), "Events added:        0") {
		t.Errorf("summary = %s", out.String())
	}

	// Forcing recomputes the range.
	opts.force = true
	out.Reset()
	if err := run(ctx, opts, quietLogger(), &out); err != nil {
		t.Fatalf("forced run() error = %v", err)
	}
	if !strings.Contains(out.String(), "Events forgotten:    24") ||
		!strings.Contains(out.String(), "Events added:        24") {
		t.Errorf("summary = %s", out.String())
	}

	db, cache, err := database.OpenCache(ctx, dbPath, database.Namespace(calendar.MidpointEcliptic, solar.DefaultModel), quietLogger())
	if err != nil {
		t.Fatalf("OpenCache() error = %v", err)
	}
	defer db.Close()

	years, err := cache.Years(ctx)
	if err != nil {
		t.Fatalf("Years() error = %v", err)
	}
	if len(years) != 3 || years[0] != 2020 || years[2] != 2022 {
		t.Errorf("Years() = %v, want [2020 2021 2022]", years)
	}
}

func TestRun_UnknownModel(t *testing.T) {
	opts := options{from: 2020, to: 2020, dbPath: filepath.Join(t.TempDir(), "wheel.db"), model: "vsop87"}
	if err := run(context.Background(), opts, quietLogger(), io.Discard); !errors.Is(err, solar.ErrUnknownModel) {
		t.Errorf("run() error = %v, want ErrUnknownModel", err)
	}
}

func TestRun_InvalidRange(t *testing.T) {
	tests := []options{
		{from: 0, to: 10},
		{from: 2000, to: 10000},
		{from: 2010, to: 2000},
	}

	for _, opts := range tests {
		opts.dbPath = filepath.Join(t.TempDir(), "wheel.db")
		if err := run(context.Background(), opts, quietLogger(), io.Discard); !errors.Is(err, calendar.ErrInvalidYear) {
			t.Errorf("run(%d-%d) error = %v, want ErrInvalidYear", opts.from, opts.to, err)
		}
	}
}
