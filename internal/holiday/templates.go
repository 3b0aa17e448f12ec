package holiday

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zapponejosh/campus-calendar-api/internal/calendar"
)

//go:embed templates.yaml
var defaultTemplatesYAML []byte

// FixedTemplate is a holiday on the same month and day every year.
// Global defaults to true when omitted.
type FixedTemplate struct {
	Month     int    `yaml:"month"`
	Day       int    `yaml:"day"`
	Name      string `yaml:"name"`
	LocalName string `yaml:"localName"`
	Global    *bool  `yaml:"global"`
}

// EasterTemplate is a holiday a fixed number of days from Easter Sunday.
type EasterTemplate struct {
	Offset    int    `yaml:"offset"`
	Name      string `yaml:"name"`
	LocalName string `yaml:"localName"`
	Global    *bool  `yaml:"global"`
}

// orTrue reads an optional flag that defaults to true.
func orTrue(b *bool) bool {
	return b == nil || *b
}

// RegionTemplates groups the templates of one region.
type RegionTemplates struct {
	Fixed  []FixedTemplate  `yaml:"fixed"`
	Easter []EasterTemplate `yaml:"easter"`
}

// Templates maps region codes to their holiday templates.
type Templates struct {
	Regions map[string]RegionTemplates `yaml:"regions"`
}

// DefaultTemplates returns the embedded template set.
func DefaultTemplates() (*Templates, error) {
	return ParseTemplates(defaultTemplatesYAML)
}

// LoadTemplates reads a template file, or the embedded set when path is empty.
func LoadTemplates(path string) (*Templates, error) {
	if path == "" {
		return DefaultTemplates()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	return ParseTemplates(data)
}

// ParseTemplates decodes and validates a YAML template document.
func ParseTemplates(data []byte) (*Templates, error) {
	var t Templates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate rejects unknown region codes, impossible month/day pairs and
// unnamed templates. February 29 is allowed.
func (t *Templates) Validate() error {
	var errs []error
	for code, rt := range t.Regions {
		if norm, err := NormalizeRegion(code); err != nil || norm != code {
			errs = append(errs, fmt.Errorf("templates: region %q must be two upper-case letters", code))
		}
		for _, f := range rt.Fixed {
			if f.Name == "" {
				errs = append(errs, fmt.Errorf("templates: %s: fixed holiday on %02d-%02d has no name", code, f.Month, f.Day))
			}
			// 2000 is a leap year, so Feb 29 survives this check.
			if f.Month < 1 || f.Month > 12 || f.Day < 1 ||
				calendar.NewDateKey(2000, time.Month(f.Month), f.Day).Month != time.Month(f.Month) {
				errs = append(errs, fmt.Errorf("templates: %s: %q has invalid date %02d-%02d", code, f.Name, f.Month, f.Day))
			}
		}
		for _, e := range rt.Easter {
			if e.Name == "" {
				errs = append(errs, fmt.Errorf("templates: %s: easter holiday at offset %d has no name", code, e.Offset))
			}
		}
	}
	return errors.Join(errs...)
}

// Fixed projects the region's fixed-date templates onto year. A February
// 29 template is skipped in common years.
func (t *Templates) Fixed(region string, year int) []Entry {
	if t == nil {
		return nil
	}
	rt := t.Regions[region]
	out := make([]Entry, 0, len(rt.Fixed))
	for _, f := range rt.Fixed {
		date := calendar.NewDateKey(year, time.Month(f.Month), f.Day)
		if date.Month != time.Month(f.Month) {
			continue
		}
		out = append(out, Entry{
			Date:        date,
			Name:        canonicalName(f.Name),
			LocalName:   f.LocalName,
			CountryCode: region,
			Fixed:       true,
			Global:      orTrue(f.Global),
			Source:      SourceFixed,
		})
	}
	return out
}

// Easter projects the region's Easter-relative templates onto year.
func (t *Templates) Easter(region string, year int) []Entry {
	if t == nil {
		return nil
	}
	rt := t.Regions[region]
	out := make([]Entry, 0, len(rt.Easter))
	for _, e := range rt.Easter {
		out = append(out, Entry{
			Date:        calendar.EasterOffset(year, e.Offset),
			Name:        canonicalName(e.Name),
			LocalName:   e.LocalName,
			CountryCode: region,
			Global:      orTrue(e.Global),
			Source:      SourceEaster,
		})
	}
	return out
}
