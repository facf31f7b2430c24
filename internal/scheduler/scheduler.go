package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// TableStatsRefresher recomputes the cached database-table statistics.
type TableStatsRefresher interface {
	RefreshDatabaseTables(ctx context.Context) error
}

// RefresherFunc adapts a function to TableStatsRefresher.
type RefresherFunc func(ctx context.Context) error

func (f RefresherFunc) RefreshDatabaseTables(ctx context.Context) error { return f(ctx) }

// jobTimeout bounds a single run so a stuck database cannot pile up jobs.
const jobTimeout = 30 * time.Second

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
	}
}

// AddTableStats schedules the table statistics refresh. spec is a cron
// expression or descriptor such as "@every 5m".
func (s *Scheduler) AddTableStats(spec string, r TableStatsRefresher) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		start := time.Now()
		if err := r.RefreshDatabaseTables(ctx); err != nil {
			s.logger.Error("table stats refresh failed", "error", err)
			return
		}
		s.logger.Debug("table stats refreshed", "took_ms", time.Since(start).Milliseconds())
	})
	if err != nil {
		return 0, fmt.Errorf("schedule table stats %q: %w", spec, err)
	}
	return id, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Entries exposes the scheduled jobs.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}
