package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/tazhate/lunchcal/internal/clients/schoolcafe"
	"github.com/tazhate/lunchcal/internal/domain"
	"github.com/tazhate/lunchcal/internal/menu"
)

// MenuSource is the SchoolCafé API
type MenuSource interface {
	GetServiceLine(ctx context.Context, q schoolcafe.ServiceLineQuery) (json.RawMessage, error)
	GetWeeklyMenuItemsByGrade(ctx context.Context, q schoolcafe.WeeklyMenuQuery) (json.RawMessage, error)
}

// RunRecorder persists run history
type RunRecorder interface {
	RecordRun(run *domain.RunRecord) error
}

// Notifier reports finished runs
type Notifier interface {
	NotifyRun(ctx context.Context, run *domain.RunRecord) error
}

// LunchConfig selects what menu to fetch
type LunchConfig struct {
	SchoolID            string
	MealType            string
	Grade               string
	PersonID            *string
	EnabledWeekendMenus bool
	ServingLinePattern  *regexp.Regexp
	Location            *time.Location
}

// RunResult describes one weekly sync
type RunResult struct {
	Window      domain.DateWindow
	ServingLine string
	Week        domain.CanonicalWeek
	Drafts      []domain.EventDraft
	Summary     *ReconcileSummary
	MissingDays []string // school days without a published menu
}

// LunchService runs the weekly menu to calendar sync
type LunchService struct {
	cfg         LunchConfig
	source      MenuSource
	synthesizer *EventSynthesizer
	reconciler  *Reconciler
	recorder    RunRecorder
	notifier    Notifier
	logger      *slog.Logger
	now         func() time.Time
}

// NewLunchService creates the sync service
func NewLunchService(cfg LunchConfig, source MenuSource, synth *EventSynthesizer, reconciler *Reconciler, logger *slog.Logger) *LunchService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LunchService{
		cfg:         cfg,
		source:      source,
		synthesizer: synth,
		reconciler:  reconciler,
		logger:      logger,
		now:         time.Now,
	}
}

// SetRecorder enables run history
func (s *LunchService) SetRecorder(r RunRecorder) {
	s.recorder = r
}

// SetNotifier enables run notifications
func (s *LunchService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Run syncs the Monday..Sunday week containing day. Nothing is written to
// the calendar unless the menu was fetched and normalized successfully.
func (s *LunchService) Run(ctx context.Context, day time.Time) (*RunResult, error) {
	window := domain.WeekContaining(day, s.cfg.Location)
	result := &RunResult{Window: window}
	record := &domain.RunRecord{
		StartedAt: s.now(),
		WeekStart: domain.DateKey(window.Start),
		WeekEnd:   domain.DateKey(window.End),
		DryRun:    s.reconciler.dryRun,
	}

	err := s.run(ctx, result)

	record.FinishedAt = s.now()
	record.ServingLine = result.ServingLine
	if result.Summary != nil {
		record.Days = result.Summary.Days
	}
	record.Count()
	if err != nil {
		record.Error = err.Error()
	}
	s.finish(ctx, record)

	return result, err
}

// RunCurrentWeek syncs the week containing today.
func (s *LunchService) RunCurrentWeek(ctx context.Context) (*RunResult, error) {
	return s.Run(ctx, s.now())
}

func (s *LunchService) run(ctx context.Context, result *RunResult) error {
	window := result.Window
	s.logger.Info("sync started", "week", window.String(), "school_id", s.cfg.SchoolID)

	rawLines, err := s.source.GetServiceLine(ctx, schoolcafe.ServiceLineQuery{
		SchoolID: s.cfg.SchoolID,
		Start:    window.Start,
		End:      window.End,
		MealType: s.cfg.MealType,
	})
	if err != nil {
		return fmt.Errorf("fetch serving lines: %w", err)
	}
	lines, err := menu.ParsePayload(rawLines)
	if err != nil {
		return fmt.Errorf("parse serving lines: %w", err)
	}
	servingLine, err := menu.ResolveServingLine(lines, s.cfg.ServingLinePattern)
	if err != nil {
		return err
	}
	result.ServingLine = servingLine
	s.logger.Info("serving line selected", "serving_line", servingLine)

	rawMenu, err := s.source.GetWeeklyMenuItemsByGrade(ctx, schoolcafe.WeeklyMenuQuery{
		SchoolID:            s.cfg.SchoolID,
		ServingDate:         window.Start,
		ServingLine:         servingLine,
		MealType:            s.cfg.MealType,
		Grade:               s.cfg.Grade,
		PersonID:            s.cfg.PersonID,
		EnabledWeekendMenus: s.cfg.EnabledWeekendMenus,
	})
	if err != nil {
		return fmt.Errorf("fetch weekly menu: %w", err)
	}
	payload, err := menu.ParsePayload(rawMenu)
	if err != nil {
		return fmt.Errorf("parse weekly menu: %w", err)
	}

	week := menu.Normalize(payload, window)
	if len(week) == 0 {
		return &EmptyResultError{WeekStart: domain.DateKey(window.Start), Raw: string(rawMenu)}
	}
	result.Week = week
	result.MissingDays = s.missingDays(window, week)
	if len(result.MissingDays) > 0 {
		s.logger.Info("school days without menu", "days", result.MissingDays)
	}

	result.Drafts = s.synthesizer.SynthesizeWeek(week, servingLine)

	summary, err := s.reconciler.ReconcileWeek(ctx, result.Drafts)
	result.Summary = summary
	if err != nil {
		return err
	}

	s.logger.Info("sync finished",
		"week", window.String(),
		"days", len(summary.Days),
		"skipped", summary.Count(domain.StateSkipped),
		"updated", summary.Count(domain.StateUpdated),
		"created", summary.Count(domain.StateCreated),
	)
	return nil
}

func (s *LunchService) missingDays(window domain.DateWindow, week domain.CanonicalWeek) []string {
	days, err := domain.SchoolDays(window, s.cfg.EnabledWeekendMenus)
	if err != nil {
		s.logger.Warn("school days unavailable", "err", err)
		return nil
	}
	var missing []string
	for _, d := range days {
		if week.Items(d) == nil {
			missing = append(missing, domain.DateKey(d))
		}
	}
	return missing
}

// finish records and announces the run; failures here never fail the run.
func (s *LunchService) finish(ctx context.Context, record *domain.RunRecord) {
	if s.recorder != nil {
		if err := s.recorder.RecordRun(record); err != nil {
			s.logger.Error("record run failed", "err", err)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyRun(ctx, record); err != nil {
			s.logger.Error("notify run failed", "err", err)
		}
	}
}
