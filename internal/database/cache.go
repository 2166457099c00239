package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zapponejosh/wheel/internal/calendar"
)

// Cache is a calendar.Cache backed by the located_events table. Each
// namespace is an independent cache.
type Cache struct {
	db        *DB
	namespace string
}

var _ calendar.Cache = (*Cache)(nil)

// Namespace names the cache partition for results computed with rule and
// the named solar model.
func Namespace(rule calendar.MidpointRule, model string) string {
	return string(rule) + "/" + model
}

// Cache returns the cache for namespace.
func (db *DB) Cache(namespace string) *Cache {
	return &Cache{db: db, namespace: namespace}
}

// Lookup implements calendar.Cache.
func (c *Cache) Lookup(ctx context.Context, key calendar.Key) (calendar.Result, bool, error) {
	r, err := c.Get(ctx, key)
	if err != nil {
		if IsNotFound(err) {
			return calendar.Result{}, false, nil
		}
		return calendar.Result{}, false, err
	}
	return r, true, nil
}

// Get returns the stored result for key, or ErrNotFound.
func (c *Cache) Get(ctx context.Context, key calendar.Key) (calendar.Result, error) {
	query := `
		SELECT instant_sec, instant_nsec, declination
		FROM located_events
		WHERE namespace = ? AND event = ? AND year = ?
	`

	var sec, nsec int64
	var r calendar.Result
	err := c.db.QueryRowContext(ctx, query, c.namespace, key.Event, key.Year).Scan(&sec, &nsec, &r.Declination)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return calendar.Result{}, ErrNotFound
		}
		return calendar.Result{}, fmt.Errorf("query located event: %w", err)
	}

	r.Instant = time.Unix(sec, nsec).UTC()
	return r, nil
}

// Store implements calendar.Cache.
func (c *Cache) Store(ctx context.Context, key calendar.Key, result calendar.Result) error {
	query := `
		INSERT INTO located_events (namespace, event, year, instant_sec, instant_nsec, declination)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (namespace, event, year) DO UPDATE SET
			instant_sec = excluded.instant_sec,
			instant_nsec = excluded.instant_nsec,
			declination = excluded.declination
	`

	_, err := c.db.ExecContext(ctx, query,
		c.namespace, key.Event, key.Year,
		result.Instant.Unix(), int64(result.Instant.Nanosecond()), result.Declination,
	)
	if err != nil {
		return fmt.Errorf("store located event: %w", err)
	}
	return nil
}

// Count returns the number of results stored in this namespace.
func (c *Cache) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM located_events WHERE namespace = ?",
		c.namespace,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count located events: %w", err)
	}
	return n, nil
}

// Years returns the distinct years cached in this namespace, ascending.
func (c *Cache) Years(ctx context.Context) ([]int, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT DISTINCT year FROM located_events WHERE namespace = ? ORDER BY year",
		c.namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("query cached years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("scan cached year: %w", err)
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached years: %w", err)
	}
	return years, nil
}

// Forget removes every result for year in this namespace and reports how
// many were removed.
func (c *Cache) Forget(ctx context.Context, year int) (int64, error) {
	var n int64
	err := c.db.WithTx(ctx, func(tx *Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM located_events WHERE namespace = ? AND year = ?",
			c.namespace, year,
		)
		if err != nil {
			return fmt.Errorf("delete located events: %w", err)
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

// OpenCache opens and migrates the database at path and returns the cache
// for namespace. The caller closes the returned DB.
func OpenCache(ctx context.Context, path, namespace string, logger *slog.Logger) (*DB, *Cache, error) {
	db, err := Open(DefaultConfig(path), logger)
	if err != nil {
		return nil, nil, err
	}
	if _, err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate cache: %w", err)
	}
	return db, db.Cache(namespace), nil
}
