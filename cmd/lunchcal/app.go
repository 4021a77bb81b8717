package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tazhate/lunchcal/config"
	"github.com/tazhate/lunchcal/internal/clients/caldav"
	"github.com/tazhate/lunchcal/internal/clients/schoolcafe"
	"github.com/tazhate/lunchcal/internal/domain"
	"github.com/tazhate/lunchcal/internal/logging"
	"github.com/tazhate/lunchcal/internal/notify"
	"github.com/tazhate/lunchcal/internal/service"
	"github.com/tazhate/lunchcal/internal/storage"
)

// app holds the components shared by every command.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	calendar *caldav.Client
	store    *storage.Storage
}

func newApp(cfgFile string) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		calendar: caldav.NewClient(cfg.Calendar.URL, cfg.Calendar.Username, cfg.Calendar.Password, cfg.Location),
	}, nil
}

func (a *app) openStorage() (*storage.Storage, error) {
	if a.store != nil {
		return a.store, nil
	}
	if !a.cfg.HistoryEnabled() {
		return nil, errors.New("run history is disabled, set database_path")
	}
	store, err := storage.New(a.cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	a.store = store
	return store, nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error("close storage", "err", err)
		}
	}
}

// calendarID returns the configured calendar path, or the first calendar
// the server reports.
func (a *app) calendarID(ctx context.Context) (string, error) {
	if a.cfg.Calendar.ID != "" {
		return a.cfg.Calendar.ID, nil
	}
	cals, err := a.calendar.DiscoverCalendars(ctx)
	if err != nil {
		return "", fmt.Errorf("discover calendars: %w", err)
	}
	if len(cals) == 0 {
		return "", errors.New("no calendars found, set calendar.id")
	}
	a.logger.Info("using first calendar", "calendar", cals[0].ID, "name", cals[0].DisplayName)
	return cals[0].ID, nil
}

// lunchService wires the full sync pipeline. Without a CalDAV server a
// dry run reconciles against an empty calendar.
func (a *app) lunchService(ctx context.Context, dryRun bool) (*service.LunchService, error) {
	cfg := a.cfg

	var port service.CalendarPort
	calID := cfg.Calendar.ID
	switch {
	case a.calendar.IsConfigured():
		id, err := a.calendarID(ctx)
		if err != nil {
			return nil, err
		}
		calID = id
		port = service.NewCalDAVCalendar(a.calendar)
	case dryRun:
		a.logger.Warn("calendar.url not set, dry run compares against an empty calendar")
		port = emptyCalendar{}
	default:
		return nil, errors.New("calendar.url is required, or use --dry-run")
	}

	source := schoolcafe.NewClient(cfg.SchoolCafe.BaseURL, &http.Client{Timeout: cfg.SchoolCafe.Timeout})
	synth := service.NewEventSynthesizer(service.SynthesizerConfig{
		SchoolID:   cfg.School.ID,
		SchoolName: cfg.School.Name,
		MealType:   cfg.MealType,
		Tag:        cfg.EventTag,
		Location:   cfg.Location,
		StartHour:  cfg.LunchHour,
		StartMin:   cfg.LunchMinute,
		Duration:   cfg.Lunch.Duration,
	})
	reconciler := service.NewReconciler(port, calID, a.logger, service.WithDryRun(dryRun))

	svc := service.NewLunchService(service.LunchConfig{
		SchoolID:            cfg.School.ID,
		MealType:            cfg.MealType,
		Grade:               cfg.Grade,
		PersonID:            cfg.PersonIDParam(),
		EnabledWeekendMenus: cfg.EnabledWeekendMenus,
		ServingLinePattern:  cfg.Pattern,
		Location:            cfg.Location,
	}, source, synth, reconciler, a.logger)

	if cfg.HistoryEnabled() {
		store, err := a.openStorage()
		if err != nil {
			return nil, err
		}
		svc.SetRecorder(store)
	}
	if cfg.TelegramEnabled() {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			a.logger.Error("telegram disabled", "err", err)
		} else {
			svc.SetNotifier(tg)
		}
	}
	return svc, nil
}

// emptyCalendar stands in for a calendar during offline dry runs.
type emptyCalendar struct{}

func (emptyCalendar) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]domain.RemoteEvent, error) {
	return nil, nil
}

func (emptyCalendar) GetEvent(ctx context.Context, calendarID, eventID string) (*domain.RemoteEvent, error) {
	return nil, service.ErrEventNotFound
}

func (emptyCalendar) UpdateEvent(ctx context.Context, calendarID, eventID string, draft domain.EventDraft) (*domain.RemoteEvent, error) {
	return nil, errors.New("calendar is not configured")
}

func (emptyCalendar) InsertEvent(ctx context.Context, calendarID string, draft domain.EventDraft) (*domain.RemoteEvent, error) {
	return nil, errors.New("calendar is not configured")
}
