// Package holiday resolves the merged holiday calendar for a region and a
// range of years from remote, cached, curated and computed sources.
package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/zapponejosh/campus-calendar-api/internal/calendar"
)

// Source tags where an entry came from.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceOverride Source = "override"
	SourceFixed    Source = "computed-fixed"
	SourceEaster   Source = "computed-easter"
	SourceEid      Source = "computed-eid"
	SourceAcademic Source = "academic-extract"
)

// Canonical names of computed holidays.
const (
	NameEaster    = "Easter Sunday"
	NameEidAlFitr = "Eid al-Fitr"
	NameEidAlAdha = "Eid al-Adha"
)

// Entry is one holiday on one date.
type Entry struct {
	Date        calendar.DateKey
	Name        string
	LocalName   string
	CountryCode string
	Regions     []string
	Fixed       bool
	Global      bool
	Source      Source
}

// Key is the deduplication key: date plus lowercased canonical name.
func (e Entry) Key() string {
	return e.Date.String() + "::" + strings.ToLower(e.Name)
}

// Record converts e to its wire shape.
func (e Entry) Record() Record {
	local := e.LocalName
	if local == "" {
		local = e.Name
	}
	return Record{
		Date:        e.Date.String(),
		Name:        e.Name,
		LocalName:   local,
		CountryCode: e.CountryCode,
		Counties:    e.Regions,
		Fixed:       e.Fixed,
		Global:      e.Global,
	}
}

// Record is the JSON shape shared by the remote provider, cache files,
// override files, academic extracts, the Eid table and the API response.
type Record struct {
	Date        string   `json:"date"`
	Name        string   `json:"name"`
	LocalName   string   `json:"localName"`
	CountryCode string   `json:"countryCode"`
	Counties    []string `json:"counties"`
	Fixed       bool     `json:"fixed"`
	Global      bool     `json:"global"`
}

// Entry converts a record, rejecting a malformed date or an empty name.
func (r Record) Entry(source Source) (Entry, error) {
	date, err := calendar.ParseDateKey(strings.TrimSpace(r.Date))
	if err != nil {
		return Entry{}, err
	}
	name := canonicalName(r.Name)
	if name == "" {
		name = canonicalName(r.LocalName)
	}
	if name == "" {
		return Entry{}, fmt.Errorf("holiday on %s has no name", r.Date)
	}
	return Entry{
		Date:        date,
		Name:        name,
		LocalName:   strings.TrimSpace(r.LocalName),
		CountryCode: strings.ToUpper(strings.TrimSpace(r.CountryCode)),
		Regions:     r.Counties,
		Fixed:       r.Fixed,
		Global:      r.Global,
		Source:      source,
	}, nil
}

// DecodeRecords parses a JSON array of records.
func DecodeRecords(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode holiday records: %w", err)
	}
	return records, nil
}

// Records converts entries to their wire shape, preserving order.
func Records(entries []Entry) []Record {
	out := make([]Record, len(entries))
	for i, e := range entries {
		out[i] = e.Record()
	}
	return out
}

// toEntries converts records, skipping (and logging) malformed ones.
func toEntries(ctx context.Context, records []Record, source Source, logger *slog.Logger) []Entry {
	out := make([]Entry, 0, len(records))
	for _, rec := range records {
		e, err := rec.Entry(source)
		if err != nil {
			logger.WarnContext(ctx, "skipping malformed holiday record",
				slog.String("source", string(source)),
				slog.String("date", rec.Date),
				slog.String("name", rec.Name),
				slog.Any("error", err),
			)
			continue
		}
		out = append(out, e)
	}
	return out
}

// Dedupe keeps the first entry for each Key and returns the survivors
// sorted by date. Entries on the same date keep their relative order.
func Dedupe(entries []Entry) []Entry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		k := e.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// canonicalName trims and collapses internal whitespace.
func canonicalName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
