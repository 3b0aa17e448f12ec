package holiday

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zapponejosh/campus-calendar-api/internal/calendar"
)

// YearSource says where the remote portion of one year came from.
type YearSource string

const (
	YearRemote      YearSource = "remote"
	YearCache       YearSource = "cache"
	YearStaleCache  YearSource = "stale-cache"
	YearUnavailable YearSource = "unavailable"
)

// YearStatus reports the remote outcome for one year.
type YearStatus struct {
	Year   int        `json:"year"`
	Source YearSource `json:"source"`
}

// Result is a merged, deduplicated, date-sorted holiday list.
type Result struct {
	Region  string
	Range   YearRange
	Entries []Entry
	Years   []YearStatus
}

// UpstreamUnavailable reports whether no year had remote data, fresh or
// cached. The computed and curated entries are still present.
func (r *Result) UpstreamUnavailable() bool {
	if len(r.Years) == 0 {
		return false
	}
	for _, y := range r.Years {
		if y.Source != YearUnavailable {
			return false
		}
	}
	return true
}

// Records returns the entries in wire shape.
func (r *Result) Records() []Record {
	return Records(r.Entries)
}

// Options configures a Resolver. Every source is optional; a nil source
// contributes nothing.
type Options struct {
	Provider     Provider
	Cache        Cache
	Overrides    RecordSource
	Academic     RecordSource
	Templates    *Templates
	EidTable     calendar.EidLookup
	CacheTTL     time.Duration
	FetchTimeout time.Duration
	Logger       *slog.Logger
}

// Resolver merges holiday sources for a region and year range.
type Resolver struct {
	provider     Provider
	cache        Cache
	overrides    RecordSource
	academic     RecordSource
	templates    *Templates
	eid          calendar.EidLookup
	cacheTTL     time.Duration
	fetchTimeout time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

func NewResolver(opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		provider:     opts.Provider,
		cache:        opts.Cache,
		overrides:    opts.Overrides,
		academic:     opts.Academic,
		templates:    opts.Templates,
		eid:          opts.EidTable,
		cacheTTL:     opts.CacheTTL,
		fetchTimeout: opts.FetchTimeout,
		logger:       logger.With(slog.String("component", "holiday")),
		now:          time.Now,
	}
}

// Resolve builds the holiday list for region over years. Entries are
// gathered in trust order (overrides, academic extracts, remote data,
// fixed templates, Easter-relative templates, Easter, Eid), deduplicated
// by date and lowercased name with the first entry winning, and sorted by
// date. Failures of individual sources are logged and never fail the call.
func (r *Resolver) Resolve(ctx context.Context, years YearRange, region string) (*Result, error) {
	region, err := NormalizeRegion(region)
	if err != nil {
		return nil, err
	}
	if err := years.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Region: region, Range: years}
	var all []Entry

	all = append(all, r.curated(ctx, r.overrides, SourceOverride, region, years)...)
	all = append(all, r.curated(ctx, r.academic, SourceAcademic, region, years)...)

	for _, y := range years.Years() {
		entries, src := r.remoteYear(ctx, region, y)
		res.Years = append(res.Years, YearStatus{Year: y, Source: src})
		all = append(all, entries...)
	}

	for _, y := range years.Years() {
		all = append(all, r.templates.Fixed(region, y)...)
		all = append(all, r.templates.Easter(region, y)...)
		all = append(all, computed(region, y, r.eid)...)
	}

	res.Entries = Dedupe(all)
	return res, nil
}

// computed returns Easter Sunday and the Eid feasts of year.
func computed(region string, year int, table calendar.EidLookup) []Entry {
	out := []Entry{{
		Date:        calendar.Easter(year),
		Name:        NameEaster,
		CountryCode: region,
		Global:      true,
		Source:      SourceEaster,
	}}
	eid := calendar.ResolveEidDates(year, table)
	if eid.EidAlFitr != nil {
		out = append(out, Entry{Date: *eid.EidAlFitr, Name: NameEidAlFitr, CountryCode: region, Global: true, Source: SourceEid})
	}
	if eid.EidAlAdha != nil {
		out = append(out, Entry{Date: *eid.EidAlAdha, Name: NameEidAlAdha, CountryCode: region, Global: true, Source: SourceEid})
	}
	return out
}

func (r *Resolver) curated(ctx context.Context, src RecordSource, tag Source, region string, years YearRange) []Entry {
	if src == nil {
		return nil
	}
	records, err := src.Records(ctx, region, years)
	if err != nil {
		// Partial reads still return what parsed.
		r.logger.WarnContext(ctx, "curated holiday source incomplete",
			slog.String("source", string(tag)),
			slog.String("region", region),
			slog.Any("error", err),
		)
	}
	return toEntries(ctx, records, tag, r.logger)
}

// remoteYear returns the remote entries for one year: a fresh cache hit,
// else a live fetch (stored back into the cache), else a stale cache hit,
// else nothing.
func (r *Resolver) remoteYear(ctx context.Context, region string, year int) ([]Entry, YearSource) {
	log := r.logger.With(slog.String("region", region), slog.Int("year", year))

	var stale []Record
	haveStale := false

	if r.cache != nil {
		entry, ok, err := r.cache.Get(ctx, region, year)
		if err != nil {
			log.WarnContext(ctx, "holiday cache read failed", slog.Any("error", err))
		}
		if ok {
			records, err := DecodeRecords(entry.Body)
			switch {
			case err != nil:
				log.WarnContext(ctx, "ignoring malformed cached holidays", slog.Any("error", err))
			case r.fresh(entry.FetchedAt):
				return toEntries(ctx, records, SourceRemote, log), YearCache
			default:
				stale, haveStale = records, true
			}
		}
	}

	if r.provider != nil {
		records, body, err := r.fetch(ctx, region, year)
		if err == nil {
			if r.cache != nil {
				if err := r.cache.Put(ctx, region, year, body); err != nil {
					log.WarnContext(ctx, "holiday cache write failed", slog.Any("error", err))
				}
			}
			return toEntries(ctx, records, SourceRemote, log), YearRemote
		}
		log.WarnContext(ctx, "holiday provider unavailable", slog.Any("error", err))
	}

	if haveStale {
		return toEntries(ctx, stale, SourceRemote, log), YearStaleCache
	}
	return nil, YearUnavailable
}

func (r *Resolver) fetch(ctx context.Context, region string, year int) ([]Record, []byte, error) {
	if r.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.fetchTimeout)
		defer cancel()
	}
	body, err := r.provider.Fetch(ctx, region, year)
	if err != nil {
		return nil, nil, err
	}
	records, err := DecodeRecords(body)
	if err != nil {
		return nil, nil, err
	}
	return records, body, nil
}

func (r *Resolver) fresh(fetchedAt time.Time) bool {
	if r.cacheTTL <= 0 {
		return true
	}
	return r.now().Sub(fetchedAt) < r.cacheTTL
}

// Warm fetches region and years from the provider and refreshes the cache
// regardless of freshness. Per-year failures are joined.
func (r *Resolver) Warm(ctx context.Context, region string, years ...int) error {
	region, err := NormalizeRegion(region)
	if err != nil {
		return err
	}
	if r.provider == nil || r.cache == nil {
		return errors.New("warm requires a provider and a cache")
	}

	var errs []error
	for _, y := range years {
		_, body, err := r.fetch(ctx, region, y)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %d: %w", region, y, err))
			continue
		}
		if err := r.cache.Put(ctx, region, y, body); err != nil {
			errs = append(errs, fmt.Errorf("%s %d: %w", region, y, err))
			continue
		}
		r.logger.InfoContext(ctx, "holiday cache warmed", slog.String("region", region), slog.Int("year", y))
	}
	return errors.Join(errs...)
}
