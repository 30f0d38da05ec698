package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs cleanup at the top of every hour.
const DefaultSchedule = "@hourly"

// CleanupObserver is told how many documents each cleanup run removed.
type CleanupObserver interface {
	ObserveCleanup(removed int)
}

// Janitor periodically removes expired documents from a Store.
type Janitor struct {
	store    *Store
	maxAge   time.Duration
	schedule string
	observer CleanupObserver
	logger   *slog.Logger
	cron     *cron.Cron
}

// NewJanitor creates a janitor for store. An empty schedule means DefaultSchedule.
func NewJanitor(store *Store, maxAge time.Duration, schedule string, observer CleanupObserver, logger *slog.Logger) *Janitor {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		store:    store,
		maxAge:   maxAge,
		schedule: schedule,
		observer: observer,
		logger:   logger,
	}
}

// Start runs one cleanup immediately and then on the schedule until Stop is called.
func (j *Janitor) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := c.AddFunc(j.schedule, func() { j.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", j.schedule, err)
	}
	j.RunOnce(ctx)
	j.cron = c
	c.Start()
	return nil
}

// Stop halts the schedule and waits for a running cleanup to finish or ctx to end.
func (j *Janitor) Stop(ctx context.Context) {
	if j.cron == nil {
		return
	}
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce performs a single cleanup pass.
func (j *Janitor) RunOnce(ctx context.Context) int {
	removed, err := j.store.Cleanup(ctx, j.maxAge)
	if err != nil {
		j.logger.Warn("document cleanup failed", "error", err, "removed", removed)
	}
	if removed > 0 {
		j.logger.Info("removed expired documents", "count", removed, "max_age", j.maxAge)
	}
	if j.observer != nil {
		j.observer.ObserveCleanup(removed)
	}
	return removed
}
