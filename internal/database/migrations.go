package database

// migrationsSQL contains all database migrations.
// Migrations are applied in order by version number.
var migrationsSQL = map[int]string{
	1: migrationV1LocatedEvents,
	2: migrationV2InstantSeconds,
}

// migrationV1LocatedEvents creates the memo table for located events.
//
// One row per (namespace, event, year). The namespace separates results
// computed under different oracles or cross-quarter rules.
const migrationV1LocatedEvents = `
CREATE TABLE IF NOT EXISTS located_events (
	namespace TEXT NOT NULL,
	event TEXT NOT NULL,
	year INTEGER NOT NULL,
	instant_ns INTEGER NOT NULL,
	declination REAL NOT NULL,
	created_at TEXT NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (namespace, event, year)
);

CREATE INDEX IF NOT EXISTS idx_located_events_year ON located_events(namespace, year);
`

// migrationV2InstantSeconds splits instants into Unix seconds and a
// nanosecond remainder. A single nanosecond count only spans 1678 to 2262,
// so rows written by v1 outside that range are unusable; the table is a
// cache and is rebuilt empty.
const migrationV2InstantSeconds = `
DROP INDEX IF EXISTS idx_located_events_year;
DROP TABLE IF EXISTS located_events;

CREATE TABLE located_events (
	namespace TEXT NOT NULL,
	event TEXT NOT NULL,
	year INTEGER NOT NULL,
	instant_sec INTEGER NOT NULL,
	instant_nsec INTEGER NOT NULL,
	declination REAL NOT NULL,
	created_at TEXT NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (namespace, event, year)
);

CREATE INDEX idx_located_events_year ON located_events(namespace, year);
`
