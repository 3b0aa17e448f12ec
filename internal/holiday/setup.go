package holiday

import (
	"fmt"
	"log/slog"
	"time"
)

// Settings selects and locates the holiday sources. Empty paths disable
// the corresponding source.
type Settings struct {
	Builtin       bool // use the embedded rule-based provider instead of HTTP
	APIURL        string
	FetchTimeout  time.Duration
	CacheTTL      time.Duration
	OverridesPath string
	AcademicDir   string
	EidTablePath  string
	TemplatesPath string // empty selects the embedded templates
}

// Setup builds a Resolver from settings and an optional cache. The Eid
// table is returned as well so callers can report table hits.
//
// A malformed Eid table is logged; the usable part of it is kept.
func Setup(s Settings, cache Cache, logger *slog.Logger) (*Resolver, *EidTable, error) {
	if logger == nil {
		logger = slog.Default()
	}

	templates, err := LoadTemplates(s.TemplatesPath)
	if err != nil {
		return nil, nil, err
	}

	eid, err := LoadEidTable(s.EidTablePath)
	if err != nil {
		if eid == nil {
			return nil, nil, fmt.Errorf("load eid table: %w", err)
		}
		logger.Warn("eid table has invalid entries", slog.Any("error", err))
	}

	var provider Provider
	if s.Builtin {
		provider = NewBuiltinProvider()
	} else if s.APIURL != "" {
		provider = NewHTTPProvider(s.APIURL, s.FetchTimeout)
	}

	opts := Options{
		Provider:     provider,
		Cache:        cache,
		Templates:    templates,
		EidTable:     eid,
		CacheTTL:     s.CacheTTL,
		FetchTimeout: s.FetchTimeout,
		Logger:       logger,
	}
	if s.OverridesPath != "" {
		opts.Overrides = OverrideFile{Path: s.OverridesPath}
	}
	if s.AcademicDir != "" {
		opts.Academic = AcademicDir{Dir: s.AcademicDir}
	}

	logger.Info("holiday sources configured",
		slog.Bool("builtin", s.Builtin),
		slog.Bool("cache", cache != nil),
		slog.Int("eid_table_years", eid.Len()),
		slog.Int("template_regions", len(templates.Regions)),
	)
	return NewResolver(opts), eid, nil
}
