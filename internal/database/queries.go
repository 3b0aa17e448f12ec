package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zapponejosh/campus-calendar-api/internal/holiday"
	"github.com/zapponejosh/campus-calendar-api/internal/recurrence"
)

// =============================================================================
// Helper Functions
// =============================================================================

// parseTimestamp parses a timestamp from SQLite TEXT format.
// Returns the zero time if no known layout matches.
func parseTimestamp(ns sql.NullString) time.Time {
	if !ns.Valid || ns.String == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, ns.String); err == nil {
			return t
		}
	}
	return time.Time{}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n > 0}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// =============================================================================
// Series Queries
// =============================================================================

const seriesColumns = `
	s.id, s.title, s.start_at, s.timezone, s.weekdays,
	s.interval_weeks, s.duration_minutes, s.max_count, s.until_date,
	s.rrule, s.created_at, s.updated_at,
	(SELECT COUNT(*) FROM occurrences o WHERE o.series_id = s.id)
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeries(row rowScanner) (*Series, error) {
	var s Series
	var startAt, weekdaysJSON string
	var maxCount sql.NullInt64
	var until, createdAt, updatedAt sql.NullString

	err := row.Scan(
		&s.ID, &s.Title, &startAt, &s.Timezone, &weekdaysJSON,
		&s.IntervalWeeks, &s.DurationMinutes, &maxCount, &until,
		&s.RRule, &createdAt, &updatedAt,
		&s.Occurrences,
	)
	if err != nil {
		return nil, err
	}

	if s.StartAt, err = time.Parse(time.RFC3339, startAt); err != nil {
		return nil, fmt.Errorf("parse start_at: %w", err)
	}
	if err := json.Unmarshal([]byte(weekdaysJSON), &s.Weekdays); err != nil {
		return nil, fmt.Errorf("unmarshal weekdays: %w", err)
	}
	if maxCount.Valid {
		s.MaxCount = int(maxCount.Int64)
	}
	if until.Valid {
		s.Until = &until.String
	}
	s.CreatedAt = parseTimestamp(createdAt)
	s.UpdatedAt = parseTimestamp(updatedAt)

	// Re-express the start in its own zone when it can be loaded.
	if loc, err := time.LoadLocation(s.Timezone); err == nil {
		s.StartAt = s.StartAt.In(loc)
	}
	return &s, nil
}

// CreateSeries stores a series and its materialized occurrences in one
// transaction. s.Occurrences is set to len(occurrences).
func (db *DB) CreateSeries(ctx context.Context, s *Series, occurrences []recurrence.Occurrence) error {
	weekdays := s.Weekdays
	if weekdays == nil {
		weekdays = []int{}
	}
	weekdaysJSON, err := json.Marshal(weekdays)
	if err != nil {
		return fmt.Errorf("marshal weekdays: %w", err)
	}

	err = db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO series (
				id, title, start_at, timezone, weekdays,
				interval_weeks, duration_minutes, max_count, until_date, rrule
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			s.ID, s.Title, s.StartAt.Format(time.RFC3339), s.Timezone, string(weekdaysJSON),
			s.IntervalWeeks, s.DurationMinutes, nullInt(s.MaxCount), nullString(s.Until), s.RRule,
		)
		if err != nil {
			return fmt.Errorf("insert series: %w", err)
		}

		return insertOccurrences(ctx, tx, s.ID, occurrences)
	})
	if err != nil {
		return err
	}

	s.Occurrences = len(occurrences)
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	return nil
}

// GetSeries retrieves a series by ID.
// Returns ErrNotFound if it doesn't exist.
func (db *DB) GetSeries(ctx context.Context, id string) (*Series, error) {
	row := db.QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM series s WHERE s.id = ?`, id)
	s, err := scanSeries(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query series: %w", err)
	}
	return s, nil
}

// ListSeries returns series newest first.
func (db *DB) ListSeries(ctx context.Context, limit, offset int) ([]Series, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT `+seriesColumns+`
		FROM series s
		ORDER BY s.created_at DESC, s.id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query series list: %w", err)
	}
	defer rows.Close()

	var out []Series
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series: %w", err)
	}
	return out, nil
}

func insertOccurrences(ctx context.Context, tx *Tx, seriesID string, occurrences []recurrence.Occurrence) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO occurrences (series_id, idx, date, start_at, end_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare occurrence insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range occurrences {
		if _, err := stmt.ExecContext(ctx, seriesID, o.Index, o.Date,
			o.Start.Format(time.RFC3339), o.End.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("insert occurrence %d: %w", o.Index, err)
		}
	}
	return nil
}

// ReplaceOccurrences swaps a series' stored occurrences for a freshly
// expanded set in one transaction and bumps updated_at.
// Returns ErrNotFound if the series doesn't exist.
func (db *DB) ReplaceOccurrences(ctx context.Context, seriesID string, occurrences []recurrence.Occurrence) error {
	return db.WithTx(ctx, func(tx *Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE series SET updated_at = datetime('now') WHERE id = ?", seriesID)
		if err != nil {
			return fmt.Errorf("touch series: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("touch series rows affected: %w", err)
		} else if n == 0 {
			return ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM occurrences WHERE series_id = ?", seriesID); err != nil {
			return fmt.Errorf("delete occurrences: %w", err)
		}
		return insertOccurrences(ctx, tx, seriesID, occurrences)
	})
}

// DeleteSeries removes a series and, by cascade, its occurrences.
// Returns ErrNotFound if it doesn't exist.
func (db *DB) DeleteSeries(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM series WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete series: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete series rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOccurrences returns a series' occurrences in order, optionally
// limited to local dates within [from, to] (YYYY-MM-DD, inclusive; empty
// means unbounded). Times are re-expressed in loc when loc is non-nil.
func (db *DB) ListOccurrences(ctx context.Context, seriesID, from, to string, loc *time.Location) ([]recurrence.Occurrence, error) {
	query := `SELECT idx, date, start_at, end_at FROM occurrences WHERE series_id = ?`
	args := []any{seriesID}
	if from != "" {
		query += ` AND date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY idx`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query occurrences: %w", err)
	}
	defer rows.Close()

	out := []recurrence.Occurrence{}
	for rows.Next() {
		o := recurrence.Occurrence{Series: seriesID}
		var start, end string
		if err := rows.Scan(&o.Index, &o.Date, &start, &end); err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		if o.Start, err = time.Parse(time.RFC3339, start); err != nil {
			return nil, fmt.Errorf("parse occurrence start: %w", err)
		}
		if o.End, err = time.Parse(time.RFC3339, end); err != nil {
			return nil, fmt.Errorf("parse occurrence end: %w", err)
		}
		if loc != nil {
			o.Start, o.End = o.Start.In(loc), o.End.In(loc)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate occurrences: %w", err)
	}
	return out, nil
}

// =============================================================================
// Holiday Cache
// =============================================================================

// GetCachedHoliday returns the cached provider response for region/year.
// Returns ErrNotFound when nothing is cached.
func (db *DB) GetCachedHoliday(ctx context.Context, region string, year int) (*CachedHoliday, error) {
	var c CachedHoliday
	var fetchedAt sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT region, year, body, fetched_at FROM holiday_cache WHERE region = ? AND year = ?`,
		region, year,
	).Scan(&c.Region, &c.Year, &c.Body, &fetchedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query holiday cache: %w", err)
	}
	c.FetchedAt = parseTimestamp(fetchedAt)
	return &c, nil
}

// PutCachedHoliday inserts or replaces the cached response for region/year.
func (db *DB) PutCachedHoliday(ctx context.Context, c *CachedHoliday) error {
	if c.FetchedAt.IsZero() {
		c.FetchedAt = time.Now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO holiday_cache (region, year, body, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (region, year) DO UPDATE SET
			body = excluded.body,
			fetched_at = excluded.fetched_at
	`, c.Region, c.Year, c.Body, c.FetchedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert holiday cache: %w", err)
	}
	return nil
}

// HolidayCache adapts DB to holiday.Cache.
type HolidayCache struct {
	DB *DB
}

var _ holiday.Cache = HolidayCache{}

func (c HolidayCache) Get(ctx context.Context, region string, year int) (holiday.CacheEntry, bool, error) {
	row, err := c.DB.GetCachedHoliday(ctx, region, year)
	if IsNotFound(err) {
		return holiday.CacheEntry{}, false, nil
	}
	if err != nil {
		return holiday.CacheEntry{}, false, err
	}
	return holiday.CacheEntry{Body: row.Body, FetchedAt: row.FetchedAt}, true, nil
}

func (c HolidayCache) Put(ctx context.Context, region string, year int, body []byte) error {
	return c.DB.PutCachedHoliday(ctx, &CachedHoliday{Region: region, Year: year, Body: body})
}
