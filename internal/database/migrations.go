package database

// migrationsSQL contains all database migrations.
// Migrations are applied in order by version number.
var migrationsSQL = map[int]string{
	1: migrationV1SeriesSchema,
	2: migrationV2HolidayCache,
}

// migrationV1SeriesSchema creates the recurring series tables.
//
// Key design decisions:
//
// 1. START IS STORED WITH ITS ZONE
//   - start_at is RFC3339 with the offset of the first occurrence
//   - timezone keeps the IANA name so later occurrences follow DST rules
//
// 2. OCCURRENCES ARE MATERIALIZED
//   - Generated once when the series is created
//   - (series_id, idx) is unique; idx is 1-based and ordered by date
//   - date is the local calendar date, start_at/end_at are RFC3339 instants
const migrationV1SeriesSchema = `
-- Migration 001: Recurring series

CREATE TABLE IF NOT EXISTS series (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,

    start_at TEXT NOT NULL,
    timezone TEXT NOT NULL,

    -- JSON array of weekday numbers, 0=Sunday
    weekdays TEXT NOT NULL DEFAULT '[]',
    interval_weeks INTEGER NOT NULL DEFAULT 1 CHECK (interval_weeks >= 1),
    duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),

    max_count INTEGER,
    until_date TEXT,

    rrule TEXT NOT NULL,

    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now')),

    -- Exactly one bound is set
    CHECK ((max_count IS NULL) <> (until_date IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_series_created
    ON series(created_at);

CREATE TABLE IF NOT EXISTS occurrences (
    series_id TEXT NOT NULL,
    idx INTEGER NOT NULL,
    date TEXT NOT NULL,
    start_at TEXT NOT NULL,
    end_at TEXT NOT NULL,

    PRIMARY KEY (series_id, idx),
    FOREIGN KEY (series_id) REFERENCES series(id) ON DELETE CASCADE
);

-- Range queries over a series
CREATE INDEX IF NOT EXISTS idx_occurrences_series_date
    ON occurrences(series_id, date);
`

// migrationV2HolidayCache stores raw provider responses, one row per
// (region, year). Used when HOLIDAY_CACHE=sqlite.
const migrationV2HolidayCache = `
-- Migration 002: Holiday cache

CREATE TABLE IF NOT EXISTS holiday_cache (
    region TEXT NOT NULL,
    year INTEGER NOT NULL,
    body BLOB NOT NULL,
    fetched_at TEXT NOT NULL,

    PRIMARY KEY (region, year)
);
`
