// Package scheduler keeps the holiday cache warm on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// CacheWarmer refreshes cached holiday data for a region and years.
type CacheWarmer interface {
	Warm(ctx context.Context, region string, years ...int) error
}

// Warmer refreshes the current and next year of each region whenever its
// cron schedule fires.
type Warmer struct {
	target  CacheWarmer
	regions []string
	cron    *cron.Cron
	logger  *slog.Logger
	now     func() time.Time
	timeout time.Duration
}

// NewWarmer parses spec as a standard five-field cron expression
// (descriptors such as "@daily" are accepted) evaluated in loc.
func NewWarmer(target CacheWarmer, spec string, regions []string, loc *time.Location, logger *slog.Logger) (*Warmer, error) {
	if target == nil {
		return nil, errors.New("scheduler: nil cache warmer")
	}
	if len(regions) == 0 {
		return nil, errors.New("scheduler: no regions to warm")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("scheduler: parse %q: %w", spec, err)
	}

	w := &Warmer{
		target:  target,
		regions: regions,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger:  logger.With(slog.String("component", "scheduler")),
		now:     func() time.Time { return time.Now().In(loc) },
		timeout: 2 * time.Minute,
	}
	w.cron.Schedule(schedule, cron.FuncJob(func() { w.RunOnce(context.Background()) }))
	return w, nil
}

// Start runs the schedule in the background until ctx is done.
func (w *Warmer) Start(ctx context.Context) {
	w.cron.Start()
	w.logger.Info("cache warmer started", slog.Any("regions", w.regions))

	go func() {
		<-ctx.Done()
		<-w.cron.Stop().Done()
		w.logger.Info("cache warmer stopped")
	}()
}

// Next reports when the schedule fires next, or zero before Start.
func (w *Warmer) Next() time.Time {
	entries := w.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunOnce warms every region for the current and next year. Failures are
// logged and joined into the returned error.
func (w *Warmer) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	year := w.now().Year()
	var errs []error
	for _, region := range w.regions {
		if err := w.target.Warm(ctx, region, year, year+1); err != nil {
			w.logger.Warn("cache warm failed",
				slog.String("region", region),
				slog.Int("year", year),
				slog.Any("error", err),
			)
			errs = append(errs, err)
			continue
		}
		w.logger.Info("cache warmed", slog.String("region", region), slog.Int("year", year))
	}
	return errors.Join(errs...)
}
