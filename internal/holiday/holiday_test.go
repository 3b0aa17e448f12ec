package holiday

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zapponejosh/campus-calendar-api/internal/calendar"
	"github.com/zapponejosh/campus-calendar-api/internal/config"
	"github.com/zapponejosh/campus-calendar-api/internal/logger"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// ============================================================================
// Test doubles
// ============================================================================

type stubProvider struct {
	mu     sync.Mutex
	bodies map[int][]byte
	err    error
	calls  int
}

func (p *stubProvider) Fetch(_ context.Context, _ string, year int) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	body, ok := p.bodies[year]
	if !ok {
		return []byte("[]"), nil
	}
	return body, nil
}

type memCache struct {
	entries map[string]CacheEntry
	puts    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]CacheEntry)}
}

func cacheKey(region string, year int) string {
	return region + "/" + strconv.Itoa(year)
}

func (c *memCache) Get(_ context.Context, region string, year int) (CacheEntry, bool, error) {
	e, ok := c.entries[cacheKey(region, year)]
	return e, ok, nil
}

func (c *memCache) Put(_ context.Context, region string, year int, body []byte) error {
	c.puts++
	c.entries[cacheKey(region, year)] = CacheEntry{Body: body, FetchedAt: time.Now()}
	return nil
}

type staticSource []Record

func (s staticSource) Records(_ context.Context, region string, years YearRange) ([]Record, error) {
	return filterRecords(s, region, years), nil
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func findEntry(entries []Entry, date, name string) (Entry, bool) {
	for _, e := range entries {
		if e.Date.String() == date && strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}

// ============================================================================
// Year range and region
// ============================================================================

func TestParseYearRange(t *testing.T) {
	tests := []struct {
		in      string
		want    YearRange
		wantErr bool
	}{
		{"2025", YearRange{2025, 2025}, false},
		{" 2025-2027 ", YearRange{2025, 2027}, false},
		{"2020-2029", YearRange{2020, 2029}, false},
		{"2020-2030", YearRange{}, true},
		{"2027-2025", YearRange{}, true},
		{"1500", YearRange{}, true},
		{"25", YearRange{}, true},
		{"abcd", YearRange{}, true},
		{"2025-", YearRange{}, true},
		{"", YearRange{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseYearRange(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidYearRange) {
					t.Fatalf("expected ErrInvalidYearRange, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestYearRange_Years(t *testing.T) {
	got := YearRange{2024, 2026}.Years()
	if len(got) != 3 || got[0] != 2024 || got[2] != 2026 {
		t.Errorf("Years() = %v", got)
	}
	if (YearRange{2024, 2026}).String() != "2024-2026" || SingleYear(2025).String() != "2025" {
		t.Error("unexpected String()")
	}
}

func TestNormalizeRegion(t *testing.T) {
	if got, err := NormalizeRegion(" id "); err != nil || got != "ID" {
		t.Errorf("NormalizeRegion(id) = %q, %v", got, err)
	}
	for _, bad := range []string{"", "I", "IDN", "1D", "é"} {
		if _, err := NormalizeRegion(bad); !errors.Is(err, ErrInvalidRegion) {
			t.Errorf("NormalizeRegion(%q) expected ErrInvalidRegion, got %v", bad, err)
		}
	}
}

// ============================================================================
// Records and dedupe
// ============================================================================

func TestRecord_Entry(t *testing.T) {
	e, err := Record{Date: "2025-08-17", Name: "  Independence   Day ", CountryCode: "id"}.Entry(SourceRemote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Name != "Independence Day" || e.CountryCode != "ID" || e.Source != SourceRemote {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.Record().LocalName != "Independence Day" {
		t.Error("LocalName should fall back to Name")
	}

	if _, err := (Record{Date: "2025-02-30", Name: "x"}).Entry(SourceRemote); err == nil {
		t.Error("expected error for impossible date")
	}
	if _, err := (Record{Date: "2025-02-01"}).Entry(SourceRemote); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestResolve_MalformedRecordLogCarriesRequestID(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	log := logger.SetupTo(&config.Config{LogLevel: "warn", LogFormat: "json"}, &buf)

	body := []byte(`[{"date":"2025-02-30","name":"Bad Day"},{"date":"2025-05-01","name":"Labour Day"}]`)
	provider := &stubProvider{bodies: map[int][]byte{2025: body}}
	r := NewResolver(Options{Provider: provider, Logger: log})

	ctx := logger.WithRequestID(context.Background(), "req-42")
	res, err := r.Resolve(ctx, SingleYear(2025), "DE")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Years[0].Source != YearRemote {
		t.Errorf("expected remote, got %s", res.Years[0].Source)
	}

	var warned bool
	for _, raw := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var line map[string]any
		if err := json.Unmarshal(raw, &line); err != nil {
			t.Fatalf("bad log line %q: %v", raw, err)
		}
		if line["msg"] == "skipping malformed holiday record" {
			warned = true
			if line["request_id"] != "req-42" || line["date"] != "2025-02-30" {
				t.Errorf("unexpected warning %v", line)
			}
		}
	}
	if !warned {
		t.Errorf("no malformed-record warning in %q", buf.String())
	}
}

func TestDedupe_FirstWinsAndSorted(t *testing.T) {
	d := func(s string) calendar.DateKey {
		k, _ := calendar.ParseDateKey(s)
		return k
	}
	entries := []Entry{
		{Date: d("2025-12-25"), Name: "Christmas Day", Source: SourceOverride},
		{Date: d("2025-01-01"), Name: "New Year", Source: SourceRemote},
		{Date: d("2025-12-25"), Name: "christmas day", Source: SourceRemote},
		{Date: d("2025-12-25"), Name: "Other", Source: SourceRemote},
	}

	got := Dedupe(entries)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].Name != "New Year" {
		t.Errorf("expected date order, got %s first", got[0].Name)
	}
	if got[1].Source != SourceOverride || got[2].Name != "Other" {
		t.Errorf("unexpected order/precedence: %+v", got)
	}
}

// ============================================================================
// Resolver
// ============================================================================

func TestResolve_RemoteThenCache(t *testing.T) {
	provider := &stubProvider{bodies: map[int][]byte{
		2025: mustJSON(t, []Record{{Date: "2025-08-17", Name: "Independence Day", CountryCode: "ID", Global: true}}),
	}}
	cache := newMemCache()
	r := NewResolver(Options{Provider: provider, Cache: cache, CacheTTL: time.Hour, Logger: quietLogger()})

	res, err := r.Resolve(context.Background(), SingleYear(2025), "id")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Region != "ID" || res.Years[0].Source != YearRemote {
		t.Errorf("unexpected result header: %s %+v", res.Region, res.Years)
	}
	if _, ok := findEntry(res.Entries, "2025-08-17", "Independence Day"); !ok {
		t.Error("remote entry missing")
	}
	if cache.puts != 1 {
		t.Errorf("expected one cache write, got %d", cache.puts)
	}

	res, err = r.Resolve(context.Background(), SingleYear(2025), "ID")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("fresh cache should avoid a second fetch, got %d calls", provider.calls)
	}
	if res.Years[0].Source != YearCache {
		t.Errorf("expected cache source, got %s", res.Years[0].Source)
	}
}

func TestResolve_ComputedEntriesAlwaysPresent(t *testing.T) {
	r := NewResolver(Options{
		Provider: &stubProvider{err: errors.New("connection refused")},
		Logger:   quietLogger(),
	})

	res, err := r.Resolve(context.Background(), SingleYear(2025), "ID")
	if err != nil {
		t.Fatalf("provider failure must not fail Resolve: %v", err)
	}
	if !res.UpstreamUnavailable() {
		t.Error("expected upstream unavailable")
	}

	for _, want := range []struct{ date, name string }{
		{"2025-04-20", NameEaster},
		{"2025-03-30", NameEidAlFitr},
		{"2025-06-06", NameEidAlAdha},
	} {
		e, ok := findEntry(res.Entries, want.date, want.name)
		if !ok {
			t.Errorf("missing %s on %s", want.name, want.date)
			continue
		}
		if e.CountryCode != "ID" {
			t.Errorf("%s country = %q", want.name, e.CountryCode)
		}
	}
}

func TestResolve_StaleCacheOnFailure(t *testing.T) {
	cache := newMemCache()
	cache.entries[cacheKey("ID", 2025)] = CacheEntry{
		Body:      mustJSON(t, []Record{{Date: "2025-05-29", Name: "Ascension Day"}}),
		FetchedAt: time.Now().Add(-48 * time.Hour),
	}
	r := NewResolver(Options{
		Provider: &stubProvider{err: errors.New("timeout")},
		Cache:    cache,
		CacheTTL: time.Hour,
		Logger:   quietLogger(),
	})

	res, err := r.Resolve(context.Background(), SingleYear(2025), "ID")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Years[0].Source != YearStaleCache {
		t.Errorf("expected stale-cache, got %s", res.Years[0].Source)
	}
	if res.UpstreamUnavailable() {
		t.Error("stale data counts as available")
	}
	if e, ok := findEntry(res.Entries, "2025-05-29", "Ascension Day"); !ok || e.Source != SourceRemote {
		t.Error("stale cached entry missing")
	}
}

func TestResolve_MalformedCacheTreatedAsAbsent(t *testing.T) {
	cache := newMemCache()
	cache.entries[cacheKey("ID", 2025)] = CacheEntry{Body: []byte("{not json"), FetchedAt: time.Now()}
	provider := &stubProvider{}
	r := NewResolver(Options{Provider: provider, Cache: cache, Logger: quietLogger()})

	res, err := r.Resolve(context.Background(), SingleYear(2025), "ID")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if provider.calls != 1 || res.Years[0].Source != YearRemote {
		t.Errorf("expected a refetch, calls=%d source=%s", provider.calls, res.Years[0].Source)
	}
}

func TestResolve_MalformedProviderBody(t *testing.T) {
	provider := &stubProvider{bodies: map[int][]byte{2025: []byte("<html>")}}
	cache := newMemCache()
	r := NewResolver(Options{Provider: provider, Cache: cache, Logger: quietLogger()})

	res, err := r.Resolve(context.Background(), SingleYear(2025), "ID")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Years[0].Source != YearUnavailable {
		t.Errorf("expected unavailable, got %s", res.Years[0].Source)
	}
	if cache.puts != 0 {
		t.Error("malformed body must not be cached")
	}
}

func TestResolve_Precedence(t *testing.T) {
	provider := &stubProvider{bodies: map[int][]byte{
		2025: mustJSON(t, []Record{
			{Date: "2025-08-17", Name: "Independence Day", LocalName: "from remote"},
			{Date: "2025-12-25", Name: "Christmas Day", LocalName: "from remote"},
		}),
	}}
	overrides := staticSource{
		{Date: "2025-08-17", Name: "independence day", LocalName: "from override"},
		{Date: "2024-08-17", Name: "Independence Day", LocalName: "wrong year"},
		{Date: "2025-07-04", Name: "Foreign Day", CountryCode: "US"},
	}
	academic := staticSource{
		{Date: "2025-12-25", Name: "Christmas Day", LocalName: "from academic"},
		{Date: "2025-09-01", Name: "Semester Start", CountryCode: "ID"},
	}
	tmpl, err := DefaultTemplates()
	if err != nil {
		t.Fatalf("DefaultTemplates: %v", err)
	}

	r := NewResolver(Options{
		Provider:  provider,
		Overrides: overrides,
		Academic:  academic,
		Templates: tmpl,
		Logger:    quietLogger(),
	})
	res, err := r.Resolve(context.Background(), SingleYear(2025), "ID")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if e, _ := findEntry(res.Entries, "2025-08-17", "Independence Day"); e.Source != SourceOverride || e.LocalName != "from override" {
		t.Errorf("override should win, got %+v", e)
	}
	if e, _ := findEntry(res.Entries, "2025-12-25", "Christmas Day"); e.Source != SourceAcademic {
		t.Errorf("academic should beat remote and templates, got %+v", e)
	}
	if _, ok := findEntry(res.Entries, "2025-07-04", "Foreign Day"); ok {
		t.Error("override for another region leaked")
	}
	if _, ok := findEntry(res.Entries, "2024-08-17", "Independence Day"); ok {
		t.Error("override outside range leaked")
	}
	if _, ok := findEntry(res.Entries, "2025-09-01", "Semester Start"); !ok {
		t.Error("academic entry missing")
	}
	if e, ok := findEntry(res.Entries, "2025-04-18", "Good Friday"); !ok || e.Source != SourceEaster {
		t.Error("easter-relative template missing")
	}

	seen := map[string]bool{}
	for i, e := range res.Entries {
		if seen[e.Key()] {
			t.Errorf("duplicate key %s", e.Key())
		}
		seen[e.Key()] = true
		if i > 0 && e.Date.Before(res.Entries[i-1].Date) {
			t.Errorf("entries not sorted at %d", i)
		}
	}
}

func TestResolve_EidTablePrecedence(t *testing.T) {
	table, err := NewEidTable([]Record{
		{Date: "2025-03-31", Name: "Idul Fitri", LocalName: "Eid al-Fitr"},
	})
	if err != nil {
		t.Fatalf("NewEidTable: %v", err)
	}
	r := NewResolver(Options{EidTable: table, Logger: quietLogger()})

	res, err := r.Resolve(context.Background(), SingleYear(2025), "ID")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := findEntry(res.Entries, "2025-03-31", NameEidAlFitr); !ok {
		t.Error("table Eid al-Fitr missing")
	}
	if _, ok := findEntry(res.Entries, "2025-03-30", NameEidAlFitr); ok {
		t.Error("computed Eid al-Fitr should be replaced by table entry")
	}
	// The table entry for 2025 has no Adha, and is used as-is.
	if _, ok := findEntry(res.Entries, "2025-06-06", NameEidAlAdha); ok {
		t.Error("table year should not fall back to computed Eid al-Adha")
	}
}

func TestResolve_InvalidInput(t *testing.T) {
	r := NewResolver(Options{Logger: quietLogger()})
	if _, err := r.Resolve(context.Background(), SingleYear(2025), "IDN"); !errors.Is(err, ErrInvalidRegion) {
		t.Errorf("expected ErrInvalidRegion, got %v", err)
	}
	if _, err := r.Resolve(context.Background(), YearRange{2025, 2040}, "ID"); !errors.Is(err, ErrInvalidYearRange) {
		t.Errorf("expected ErrInvalidYearRange, got %v", err)
	}
}

func TestResolve_MultiYearStatuses(t *testing.T) {
	r := NewResolver(Options{Provider: &stubProvider{}, Logger: quietLogger()})
	res, err := r.Resolve(context.Background(), YearRange{2025, 2027}, "ID")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Years) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(res.Years))
	}
	for _, y := range []string{"2025", "2026", "2027"} {
		found := false
		for _, e := range res.Entries {
			if e.Name == NameEaster && strings.HasPrefix(e.Date.String(), y) {
				found = true
			}
		}
		if !found {
			t.Errorf("no Easter for %s", y)
		}
	}
}

func TestWarm(t *testing.T) {
	provider := &stubProvider{}
	cache := newMemCache()
	r := NewResolver(Options{Provider: provider, Cache: cache, Logger: quietLogger()})

	if err := r.Warm(context.Background(), "id", 2025, 2026); err != nil {
		t.Fatalf("Warm: %v", err)
	}
	if cache.puts != 2 {
		t.Errorf("expected 2 cache writes, got %d", cache.puts)
	}

	provider.err = errors.New("down")
	if err := r.Warm(context.Background(), "ID", 2027); err == nil {
		t.Error("expected Warm to report provider failure")
	}

	if err := NewResolver(Options{Logger: quietLogger()}).Warm(context.Background(), "ID", 2025); err == nil {
		t.Error("expected error without provider and cache")
	}
}

// ============================================================================
// HTTP provider
// ============================================================================

func TestHTTPProvider_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/PublicHolidays/2025/ID" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"date":"2025-08-17","localName":"Hari Kemerdekaan","name":"Independence Day","countryCode":"ID","fixed":true,"global":true,"counties":null,"launchYear":null,"types":["Public"]}]`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL+"/api/v3/PublicHolidays/", time.Second)
	body, err := p.Fetch(context.Background(), "ID", 2025)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	records, err := DecodeRecords(body)
	if err != nil {
		t.Fatalf("DecodeRecords: %v", err)
	}
	if len(records) != 1 || records[0].Name != "Independence Day" || !records[0].Fixed {
		t.Errorf("unexpected records %+v", records)
	}

	if _, err := p.Fetch(context.Background(), "XX", 2025); !errors.Is(err, ErrUpstreamStatus) {
		t.Errorf("expected ErrUpstreamStatus, got %v", err)
	}
}

func TestHTTPProvider_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, 50*time.Millisecond)
	start := time.Now()
	if _, err := p.Fetch(context.Background(), "ID", 2025); err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Error("timeout not honored")
	}
}

// ============================================================================
// Builtin provider
// ============================================================================

func TestBuiltinProvider(t *testing.T) {
	p := NewBuiltinProvider()

	body, err := p.Fetch(context.Background(), "US", 2025)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	records, err := DecodeRecords(body)
	if err != nil {
		t.Fatalf("DecodeRecords: %v", err)
	}
	found := false
	for i, rec := range records {
		if rec.Date == "2025-07-04" {
			found = true
		}
		if rec.CountryCode != "US" {
			t.Errorf("record %d country = %q", i, rec.CountryCode)
		}
		if i > 0 && rec.Date < records[i-1].Date {
			t.Error("records not sorted")
		}
	}
	if !found {
		t.Error("expected a holiday on 2025-07-04")
	}

	if _, err := p.Fetch(context.Background(), "ZZ", 2025); !errors.Is(err, ErrRegionUnsupported) {
		t.Errorf("expected ErrRegionUnsupported, got %v", err)
	}
	if got := p.Regions(); len(got) != 3 || got[0] != "DE" {
		t.Errorf("Regions() = %v", got)
	}
}

// ============================================================================
// File cache
// ============================================================================

func TestFileCache_RoundTrip(t *testing.T) {
	c := NewFileCache(t.TempDir())
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "ID", 2025); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	if err := c.Put(ctx, "ID", 2025, []byte(`[]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	entry, ok, err := c.Get(ctx, "ID", 2025)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(entry.Body) != "[]" || !entry.FetchedAt.Equal(fixed) {
		t.Errorf("unexpected entry %+v", entry)
	}
	if _, err := os.Stat(filepath.Join(c.Dir, "ID", "2025.json")); err != nil {
		t.Errorf("expected body file: %v", err)
	}
}

func TestFileCache_MissingMetaUsesModTime(t *testing.T) {
	dir := t.TempDir()
	c := NewFileCache(dir)
	if err := os.MkdirAll(filepath.Join(dir, "DE"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "DE", "2026.json"), []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}
	entry, ok, err := c.Get(context.Background(), "DE", 2026)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if entry.FetchedAt.IsZero() {
		t.Error("expected mtime fallback")
	}
}

// ============================================================================
// Local sources
// ============================================================================

func TestOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.json")
	data := `[
		{"date":"2025-03-31","name":"Cuti Bersama","countryCode":"ID"},
		{"date":"2025-04-01","name":"Campus Closure","countryCode":""},
		{"date":"2026-01-02","name":"Next Year"},
		{"date":"bad","name":"Broken"}
	]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := OverrideFile{Path: path}.Records(context.Background(), "ID", SingleYear(2025))
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %+v", records)
	}
	if records[1].CountryCode != "ID" {
		t.Error("empty country code should default to the region")
	}

	missing, err := OverrideFile{Path: filepath.Join(t.TempDir(), "none.json")}.Records(context.Background(), "ID", SingleYear(2025))
	if err != nil || missing != nil {
		t.Errorf("missing file should yield nothing, got %v %v", missing, err)
	}
}

func TestAcademicDir(t *testing.T) {
	dir := t.TempDir()
	a := AcademicDir{Dir: dir}
	if err := os.WriteFile(filepath.Join(dir, a.FileName("ID", 2025)), []byte(`[{"date":"2025-09-01","name":"Semester Start"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, a.FileName("ID", 2026)), []byte(`{broken`), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := a.Records(context.Background(), "ID", YearRange{2025, 2027})
	if err == nil {
		t.Error("expected error for malformed 2026 extract")
	}
	if len(records) != 1 || records[0].Name != "Semester Start" {
		t.Errorf("expected 2025 extract to survive, got %+v", records)
	}
}

func TestEidTable(t *testing.T) {
	table, err := NewEidTable([]Record{
		{Date: "2026-03-20", Name: "Eid al-Fitr"},
		{Date: "2026-03-21", Name: "Eid al-Fitr (day 2)"},
		{Date: "2026-05-27", Name: "Idul Adha"},
		{Date: "2026-07-01", Name: "Something Else"},
	})
	if err == nil {
		t.Error("expected error for unclassifiable entry")
	}
	dates, ok := table.Lookup(2026)
	if !ok || dates.EidAlFitr.String() != "2026-03-20" || dates.EidAlAdha.String() != "2026-05-27" {
		t.Errorf("unexpected lookup %+v", dates)
	}
	if _, ok := table.Lookup(2025); ok {
		t.Error("unexpected entry for 2025")
	}

	var nilTable *EidTable
	if _, ok := nilTable.Lookup(2026); ok {
		t.Error("nil table must miss")
	}
}

// ============================================================================
// Templates
// ============================================================================

func TestDefaultTemplates(t *testing.T) {
	tmpl, err := DefaultTemplates()
	if err != nil {
		t.Fatalf("DefaultTemplates: %v", err)
	}
	fixed := tmpl.Fixed("ID", 2025)
	if _, ok := findEntry(fixed, "2025-08-17", "Independence Day"); !ok {
		t.Error("expected ID independence day")
	}
	easter := tmpl.Easter("DE", 2025)
	if _, ok := findEntry(easter, "2025-06-09", "Whit Monday"); !ok {
		t.Error("expected DE Whit Monday on 2025-06-09")
	}
	if got := tmpl.Fixed("ZZ", 2025); len(got) != 0 {
		t.Errorf("unknown region should have no templates, got %d", len(got))
	}
}

func TestParseTemplates(t *testing.T) {
	leap := []byte(`
regions:
  XA:
    fixed:
      - {month: 2, day: 29, name: "Leap Day"}
`)
	tmpl, err := ParseTemplates(leap)
	if err != nil {
		t.Fatalf("ParseTemplates: %v", err)
	}
	if got := tmpl.Fixed("XA", 2024); len(got) != 1 {
		t.Error("Feb 29 should exist in 2024")
	}
	if got := tmpl.Fixed("XA", 2025); len(got) != 0 {
		t.Error("Feb 29 should be skipped in 2025")
	}

	invalid := []string{
		"regions:\n  xa:\n    fixed:\n      - {month: 1, day: 1, name: a}\n",
		"regions:\n  XA:\n    fixed:\n      - {month: 2, day: 30, name: a}\n",
		"regions:\n  XA:\n    fixed:\n      - {month: 13, day: 1, name: a}\n",
		"regions:\n  XA:\n    easter:\n      - {offset: 1}\n",
		"regions: [",
	}
	for _, doc := range invalid {
		if _, err := ParseTemplates([]byte(doc)); err == nil {
			t.Errorf("expected error for %q", doc)
		}
	}
}

func TestParseTemplates_GlobalFlag(t *testing.T) {
	doc := []byte(`
regions:
  DE:
    fixed:
      - {month: 10, day: 3, name: "German Unity Day"}
      - {month: 10, day: 31, name: "Reformation Day", global: false}
    easter:
      - {offset: 60, name: "Corpus Christi", global: false}
      - {offset: 1, name: "Easter Monday"}
`)
	tmpl, err := ParseTemplates(doc)
	if err != nil {
		t.Fatalf("ParseTemplates: %v", err)
	}

	want := map[string]bool{
		"German Unity Day": true,
		"Reformation Day":  false,
		"Corpus Christi":   false,
		"Easter Monday":    true,
	}
	entries := append(tmpl.Fixed("DE", 2025), tmpl.Easter("DE", 2025)...)
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for _, e := range entries {
		if e.Global != want[e.Name] {
			t.Errorf("%s global = %v, want %v", e.Name, e.Global, want[e.Name])
		}
		if e.Record().Global != want[e.Name] {
			t.Errorf("%s record global = %v, want %v", e.Name, e.Record().Global, want[e.Name])
		}
	}
}
