package holiday

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zapponejosh/campus-calendar-api/internal/calendar"
)

var (
	ErrInvalidYearRange = errors.New("invalid year range")
	ErrInvalidRegion    = errors.New("invalid region code")
)

// MaxYearSpan limits how many years one resolution may cover.
const MaxYearSpan = 10

const maxYear = 9999

// YearRange is an inclusive range of Gregorian years.
type YearRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// SingleYear returns the range covering only year.
func SingleYear(year int) YearRange {
	return YearRange{Min: year, Max: year}
}

// ParseYearRange parses "YYYY" or "YYYY-YYYY".
func ParseYearRange(s string) (YearRange, error) {
	s = strings.TrimSpace(s)
	lo, hi, isRange := strings.Cut(s, "-")

	minYear, err := parseYear(lo)
	if err != nil {
		return YearRange{}, err
	}
	maxYear := minYear
	if isRange {
		if maxYear, err = parseYear(hi); err != nil {
			return YearRange{}, err
		}
	}

	r := YearRange{Min: minYear, Max: maxYear}
	if err := r.Validate(); err != nil {
		return YearRange{}, err
	}
	return r, nil
}

func parseYear(s string) (int, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("%w: %q: use YYYY or YYYY-YYYY", ErrInvalidYearRange, s)
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: use YYYY or YYYY-YYYY", ErrInvalidYearRange, s)
	}
	return y, nil
}

// Validate checks ordering, span and Gregorian validity.
func (r YearRange) Validate() error {
	switch {
	case r.Min < calendar.MinGregorianYear || r.Max > maxYear:
		return fmt.Errorf("%w: years must be within %d-%d", ErrInvalidYearRange, calendar.MinGregorianYear, maxYear)
	case r.Min > r.Max:
		return fmt.Errorf("%w: %d is after %d", ErrInvalidYearRange, r.Min, r.Max)
	case r.Max-r.Min+1 > MaxYearSpan:
		return fmt.Errorf("%w: at most %d years per request", ErrInvalidYearRange, MaxYearSpan)
	}
	return nil
}

// Years lists every year in the range.
func (r YearRange) Years() []int {
	out := make([]int, 0, r.Max-r.Min+1)
	for y := r.Min; y <= r.Max; y++ {
		out = append(out, y)
	}
	return out
}

// Contains reports whether year is inside the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.Min && year <= r.Max
}

func (r YearRange) String() string {
	if r.Min == r.Max {
		return strconv.Itoa(r.Min)
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// NormalizeRegion validates a two-letter region code and upper-cases it.
func NormalizeRegion(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 || code[0] < 'A' || code[0] > 'Z' || code[1] < 'A' || code[1] > 'Z' {
		return "", fmt.Errorf("%w: %q", ErrInvalidRegion, code)
	}
	return code, nil
}

// yearOf reads the year from the first four characters of an ISO date.
func yearOf(date string) (int, bool) {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0, false
	}
	return y, true
}
