package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/tazhate/lunchcal/internal/domain"
	"github.com/tazhate/lunchcal/internal/service"
)

type fakeSyncer struct {
	calls int
	err   error
}

func (f *fakeSyncer) RunCurrentWeek(ctx context.Context) (*service.RunResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	loc := time.UTC
	return &service.RunResult{Window: domain.WeekContaining(time.Date(2025, 12, 17, 0, 0, 0, 0, loc), loc)}, nil
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	s := New("not a schedule", time.UTC, &fakeSyncer{}, nil)

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestStartSchedulesNextSunday(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	s := New("", loc, &fakeSyncer{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	next := s.Next().In(loc)
	if next.Weekday() != time.Sunday || next.Hour() != 18 || next.Minute() != 0 {
		t.Fatalf("expected Sunday 18:00, got %v", next)
	}
}

func TestSyncLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	syncer := &fakeSyncer{err: errors.New("schoolcafe down")}
	s := New(DefaultSpec, time.UTC, syncer, logger)

	s.sync()

	if syncer.calls != 1 {
		t.Fatalf("expected one sync, got %d", syncer.calls)
	}
	if !strings.Contains(buf.String(), "scheduled sync failed") || !strings.Contains(buf.String(), "schoolcafe down") {
		t.Fatalf("expected failure to be logged, got %q", buf.String())
	}
}

func TestSyncLogsWeek(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := New(DefaultSpec, time.UTC, &fakeSyncer{}, logger)

	s.sync()

	if !strings.Contains(buf.String(), "2025-12-15..2025-12-21") {
		t.Fatalf("expected week in log, got %q", buf.String())
	}
}
