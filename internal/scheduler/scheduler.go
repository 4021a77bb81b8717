package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tazhate/lunchcal/internal/service"
)

// DefaultSpec runs the sync every Sunday at 18:00.
const DefaultSpec = "0 18 * * 0"

// Syncer runs one weekly sync
type Syncer interface {
	RunCurrentWeek(ctx context.Context) (*service.RunResult, error)
}

type Scheduler struct {
	cron   *cron.Cron
	spec   string
	loc    *time.Location
	syncer Syncer
	logger *slog.Logger
	entry  cron.EntryID
	ctx    context.Context
}

func New(spec string, loc *time.Location, syncer Syncer, logger *slog.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}

	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	return &Scheduler{
		cron:   c,
		spec:   spec,
		loc:    loc,
		syncer: syncer,
		logger: logger,
		ctx:    context.Background(),
	}
}

// Start registers the sync job and blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx
	id, err := s.cron.AddFunc(s.spec, s.sync)
	if err != nil {
		return fmt.Errorf("add sync job %q: %w", s.spec, err)
	}
	s.entry = id

	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", s.spec, "tz", s.loc.String(), "next", s.Next())

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Next returns the next planned run, or zero before Start.
func (s *Scheduler) Next() time.Time {
	if s.entry == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

func (s *Scheduler) sync() {
	result, err := s.syncer.RunCurrentWeek(s.ctx)
	if err != nil {
		s.logger.Error("scheduled sync failed", "err", err)
		return
	}
	s.logger.Info("scheduled sync done", "week", result.Window.String(), "drafts", len(result.Drafts))
}

// cronLogger routes cron's own logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
