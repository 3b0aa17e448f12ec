package holiday

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zapponejosh/campus-calendar-api/internal/calendar"
)

// RecordSource supplies curated records for a region and year range.
// A missing backing file is not an error; it yields no records.
type RecordSource interface {
	Records(ctx context.Context, region string, years YearRange) ([]Record, error)
}

// OverrideFile reads hand-maintained entries from one JSON array file.
// Entries are kept when their countryCode is empty or matches the region
// and the first four characters of their date fall inside the range.
type OverrideFile struct {
	Path string
}

func (o OverrideFile) Records(_ context.Context, region string, years YearRange) ([]Record, error) {
	if o.Path == "" {
		return nil, nil
	}
	records, err := readRecordFile(o.Path)
	if err != nil || records == nil {
		return nil, err
	}
	return filterRecords(records, region, years), nil
}

// AcademicDir reads academic-calendar extracts named
// academic_{REGION}_{YEAR}.json from Dir.
type AcademicDir struct {
	Dir string
}

// FileName is the extract file name for region and year.
func (a AcademicDir) FileName(region string, year int) string {
	return fmt.Sprintf("academic_%s_%d.json", region, year)
}

func (a AcademicDir) Records(_ context.Context, region string, years YearRange) ([]Record, error) {
	if a.Dir == "" {
		return nil, nil
	}
	var out []Record
	var errs []error
	for _, y := range years.Years() {
		records, err := readRecordFile(filepath.Join(a.Dir, a.FileName(region, y)))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, filterRecords(records, region, SingleYear(y))...)
	}
	return out, errors.Join(errs...)
}

// readRecordFile returns nil, nil when path does not exist.
func readRecordFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	records, err := DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func filterRecords(records []Record, region string, years YearRange) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		cc := strings.ToUpper(strings.TrimSpace(rec.CountryCode))
		if cc != "" && cc != region {
			continue
		}
		y, ok := yearOf(rec.Date)
		if !ok || !years.Contains(y) {
			continue
		}
		if cc == "" {
			rec.CountryCode = region
		}
		out = append(out, rec)
	}
	return out
}

// EidTable holds curated Eid dates by Gregorian year, taking precedence
// over the arithmetic computation.
type EidTable struct {
	years map[int]calendar.EidDates
}

// NewEidTable classifies records by name: a name containing "fitr" is
// Eid al-Fitr and one containing "adha" is Eid al-Adha. The first record
// for each holiday and year wins. Malformed records are returned as errors
// alongside the usable table.
func NewEidTable(records []Record) (*EidTable, error) {
	t := &EidTable{years: make(map[int]calendar.EidDates)}
	var errs []error
	for _, rec := range records {
		date, err := calendar.ParseDateKey(strings.TrimSpace(rec.Date))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		name := strings.ToLower(rec.Name + " " + rec.LocalName)
		dates := t.years[date.Year]
		switch {
		case strings.Contains(name, "fitr"):
			if dates.EidAlFitr == nil {
				dates.EidAlFitr = &date
			}
		case strings.Contains(name, "adha"):
			if dates.EidAlAdha == nil {
				dates.EidAlAdha = &date
			}
		default:
			errs = append(errs, fmt.Errorf("eid table entry %q on %s is neither fitr nor adha", rec.Name, rec.Date))
			continue
		}
		t.years[date.Year] = dates
	}
	return t, errors.Join(errs...)
}

// LoadEidTable reads an Eid table file. A missing file gives an empty table.
func LoadEidTable(path string) (*EidTable, error) {
	if path == "" {
		return &EidTable{years: map[int]calendar.EidDates{}}, nil
	}
	records, err := readRecordFile(path)
	if err != nil {
		return nil, err
	}
	return NewEidTable(records)
}

// Lookup implements calendar.EidLookup.
func (t *EidTable) Lookup(year int) (calendar.EidDates, bool) {
	if t == nil {
		return calendar.EidDates{}, false
	}
	d, ok := t.years[year]
	return d, ok
}

// Len reports how many years the table covers.
func (t *EidTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.years)
}
