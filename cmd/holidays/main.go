// Command holidays prints the merged holiday list for a region, using the
// same sources and environment configuration as the API server.
//
//	holidays -region ID -year 2025
//	holidays -region DE -year 2025-2026 -format json
//	holidays -region US -year 2025 -format ics -builtin
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/zapponejosh/campus-calendar-api/internal/calendar"
	"github.com/zapponejosh/campus-calendar-api/internal/config"
	"github.com/zapponejosh/campus-calendar-api/internal/holiday"
	"github.com/zapponejosh/campus-calendar-api/internal/ical"
	"github.com/zapponejosh/campus-calendar-api/internal/logger"
)

func main() {
	year := flag.String("year", fmt.Sprint(time.Now().Year()), "Year or range (YYYY or YYYY-YYYY)")
	region := flag.String("region", "", "Two-letter region code")
	format := flag.String("format", "table", "Output format: table, json, ics")
	builtin := flag.Bool("builtin", false, "Use the built-in rule provider instead of the remote API")
	noCache := flag.Bool("no-cache", false, "Skip the holiday file cache")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logger.SetupTo(cfg, os.Stderr)

	if err := run(os.Stdout, cfg, log, *year, *region, *format, *builtin, *noCache); err != nil {
		log.Error("holidays failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(w io.Writer, cfg *config.Config, log *slog.Logger, year, region, format string, builtin, noCache bool) error {
	years, err := holiday.ParseYearRange(year)
	if err != nil {
		return err
	}

	var cache holiday.Cache
	if !noCache {
		cache = holiday.NewFileCache(cfg.HolidayCacheDir)
	}

	resolver, _, err := holiday.Setup(holiday.Settings{
		Builtin:       builtin || cfg.HolidayProvider == config.ProviderBuiltin,
		APIURL:        cfg.HolidayAPIURL,
		FetchTimeout:  cfg.HolidayFetchTimeout,
		CacheTTL:      cfg.HolidayCacheTTL,
		OverridesPath: cfg.OverridesPath,
		AcademicDir:   cfg.AcademicDir,
		EidTablePath:  cfg.EidTablePath,
		TemplatesPath: cfg.TemplatesPath,
	}, cache, log)
	if err != nil {
		return err
	}

	res, err := resolver.Resolve(context.Background(), years, region)
	if err != nil {
		return err
	}
	if res.UpstreamUnavailable() {
		log.Warn("no provider data; showing computed and curated holidays only")
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Records())
	case "ics":
		_, err := io.WriteString(w, ical.Holidays(res.Region, res.Range, res.Entries, time.Now()))
		return err
	case "table":
		printTable(w, res)
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func printTable(w io.Writer, res *holiday.Result) {
	fmt.Fprintf(w, "=== Holidays for %s, %s ===\n\n", res.Region, res.Range)
	for _, e := range res.Entries {
		fmt.Fprintf(w, "%s  %-9s  %-40s  %s\n", e.Date, calendar.DayName(e.Date), e.Name, e.Source)
	}
	fmt.Fprintf(w, "\n%d holidays\n", len(res.Entries))
	for _, y := range res.Years {
		fmt.Fprintf(w, "  %d: %s\n", y.Year, y.Source)
	}
}
