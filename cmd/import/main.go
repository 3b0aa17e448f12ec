// Command import loads a term schedule of recurring series into the SQLite
// database.
//
// Usage:
//
//	go run ./cmd/import -file data/schedule.json -db data/calendar.db
//
// The file is a JSON object with a "series" array; each element uses the
// same fields as POST /api/v1/series. This tool:
// 1. Parses and validates every series before touching the database
// 2. Opens the database and runs migrations
// 3. Expands and stores each series with its occurrences
//
// Each series is stored atomically; running the import twice creates
// duplicates with new IDs.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/zapponejosh/campus-calendar-api/internal/api"
	"github.com/zapponejosh/campus-calendar-api/internal/database"
	"github.com/zapponejosh/campus-calendar-api/internal/recurrence"
)

// Schedule is the import file layout.
type Schedule struct {
	Timezone string                  `json:"timezone"` // default for series without one
	Series   []api.RecurrenceRequest `json:"series"`
}

type plannedSeries struct {
	series      *database.Series
	occurrences []recurrence.Occurrence
}

func main() {
	filePath := flag.String("file", "data/schedule.json", "Path to schedule JSON file")
	dbPath := flag.String("db", "data/calendar.db", "Path to SQLite database")
	dryRun := flag.Bool("dry-run", false, "Validate and expand without writing")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	if err := run(*filePath, *dbPath, *dryRun, logger); err != nil {
		logger.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("import complete")
}

func run(filePath, dbPath string, dryRun bool, logger *slog.Logger) error {
	ctx := context.Background()
	startTime := time.Now()

	logger.Info("reading schedule", slog.String("path", filePath))

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read schedule: %w", err)
	}

	var sched Schedule
	if err := json.Unmarshal(data, &sched); err != nil {
		return fmt.Errorf("parse schedule: %w", err)
	}

	planned, err := plan(sched)
	if err != nil {
		return err
	}

	total := 0
	for _, p := range planned {
		total += len(p.occurrences)
	}
	logger.Info("schedule expanded", slog.Int("series", len(planned)), slog.Int("occurrences", total))

	if dryRun {
		printSummary(planned, time.Since(startTime))
		return nil
	}

	db, err := database.Open(database.DefaultConfig(dbPath), logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	migrated, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations complete", slog.Int("applied", migrated))

	for i, p := range planned {
		if err := db.CreateSeries(ctx, p.series, p.occurrences); err != nil {
			return fmt.Errorf("store series %d (%s): %w", i+1, p.series.Title, err)
		}
		logger.Debug("series stored",
			slog.String("id", p.series.ID),
			slog.String("title", p.series.Title),
			slog.Int("occurrences", len(p.occurrences)),
		)
	}

	printSummary(planned, time.Since(startTime))
	return nil
}

// plan validates and expands every series, reporting all problems at once.
func plan(sched Schedule) ([]plannedSeries, error) {
	defaultLoc := time.UTC
	if sched.Timezone != "" {
		loc, err := time.LoadLocation(sched.Timezone)
		if err != nil {
			return nil, fmt.Errorf("schedule timezone: %w", err)
		}
		defaultLoc = loc
	}

	validate := api.NewValidator()
	var errs []error
	out := make([]plannedSeries, 0, len(sched.Series))

	for i, req := range sched.Series {
		if req.Title == "" {
			errs = append(errs, fmt.Errorf("series %d: title is required", i+1))
			continue
		}
		if err := validate.Struct(req); err != nil {
			errs = append(errs, fmt.Errorf("series %d (%s): %w", i+1, req.Title, err))
			continue
		}
		def, err := req.Definition(defaultLoc)
		if err != nil {
			errs = append(errs, fmt.Errorf("series %d (%s): %w", i+1, req.Title, err))
			continue
		}
		id := uuid.NewString()
		out = append(out, plannedSeries{
			series:      database.NewSeries(id, req.Title, def),
			occurrences: recurrence.Expand(def, id),
		})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func printSummary(planned []plannedSeries, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	for _, p := range planned {
		first, last := "-", "-"
		if n := len(p.occurrences); n > 0 {
			first, last = p.occurrences[0].Date, p.occurrences[n-1].Date
		}
		fmt.Printf("%-36s  %4d  %s .. %s  %s\n", p.series.Title, len(p.occurrences), first, last, p.series.RRule)
	}
	fmt.Printf("Time elapsed:        %v\n", elapsed.Round(time.Millisecond))
}
