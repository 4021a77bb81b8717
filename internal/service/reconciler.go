package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/tazhate/lunchcal/internal/domain"
)

// MatchFunc reports whether an existing event already represents draft.
type MatchFunc func(draft domain.EventDraft, existing domain.RemoteEvent) bool

// ExactMatch requires the same start instant, title and description.
// A description that differs only in formatting is not a match; the
// deterministic ID brings such an event back in line through an update.
func ExactMatch(draft domain.EventDraft, existing domain.RemoteEvent) bool {
	return existing.Start.Equal(draft.Start) &&
		existing.Summary == draft.Title &&
		existing.Description == draft.Description
}

// ReconcileSummary lists per-day outcomes in the order they were applied
type ReconcileSummary struct {
	Days []domain.DayOutcome
}

// Count returns how many days ended in state.
func (s *ReconcileSummary) Count(state domain.ReconcileState) int {
	n := 0
	for _, d := range s.Days {
		if d.State == state {
			n++
		}
	}
	return n
}

// Reconciler upserts one event per day into a calendar without creating duplicates
type Reconciler struct {
	calendar   CalendarPort
	calendarID string
	match      MatchFunc
	dryRun     bool
	logger     *slog.Logger
}

// ReconcilerOption customizes a Reconciler
type ReconcilerOption func(*Reconciler)

// WithMatch replaces the duplicate predicate.
func WithMatch(m MatchFunc) ReconcilerOption {
	return func(r *Reconciler) {
		if m != nil {
			r.match = m
		}
	}
}

// WithDryRun makes the reconciler decide without writing.
func WithDryRun(dryRun bool) ReconcilerOption {
	return func(r *Reconciler) {
		r.dryRun = dryRun
	}
}

// NewReconciler creates a reconciler for one calendar.
func NewReconciler(calendar CalendarPort, calendarID string, logger *slog.Logger, opts ...ReconcilerOption) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reconciler{
		calendar:   calendar,
		calendarID: calendarID,
		match:      ExactMatch,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReconcileWeek applies drafts in ascending start order. On error the
// returned summary holds the days already applied.
func (r *Reconciler) ReconcileWeek(ctx context.Context, drafts []domain.EventDraft) (*ReconcileSummary, error) {
	ordered := make([]domain.EventDraft, len(drafts))
	copy(ordered, drafts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start.Before(ordered[j].Start)
	})

	summary := &ReconcileSummary{}
	for _, draft := range ordered {
		outcome, err := r.reconcileDay(ctx, draft)
		if err != nil {
			return summary, fmt.Errorf("reconcile %s: %w", draft.Date(), err)
		}
		summary.Days = append(summary.Days, outcome)
		r.logger.Info("day reconciled",
			"date", outcome.Date,
			"state", string(outcome.State),
			"event_id", outcome.EventID,
			"title", outcome.Title,
		)
	}
	return summary, nil
}

func (r *Reconciler) reconcileDay(ctx context.Context, draft domain.EventDraft) (domain.DayOutcome, error) {
	outcome := domain.DayOutcome{Date: draft.Date(), Title: draft.Title}

	from, to := draft.DayRange()
	existing, err := r.calendar.ListEvents(ctx, r.calendarID, from, to)
	if err != nil {
		return outcome, fmt.Errorf("list events: %w", err)
	}
	for _, ev := range existing {
		if r.match(draft, ev) {
			outcome.State = domain.StateSkipped
			outcome.EventID = ev.ID
			return outcome, nil
		}
	}

	if r.dryRun {
		outcome.State = domain.StateWouldWrite
		outcome.EventID = draft.ID
		return outcome, nil
	}

	_, err = r.calendar.GetEvent(ctx, r.calendarID, draft.ID)
	switch {
	case err == nil:
		updated, err := r.calendar.UpdateEvent(ctx, r.calendarID, draft.ID, draft)
		if err == nil {
			outcome.State = domain.StateUpdated
			outcome.EventID = updated.ID
			return outcome, nil
		}
		if !errors.Is(err, ErrEventNotFound) {
			return outcome, fmt.Errorf("update event %s: %w", draft.ID, err)
		}
		// removed between lookup and update
		r.logger.Warn("event vanished before update, inserting", "date", outcome.Date, "event_id", draft.ID)
	case !errors.Is(err, ErrEventNotFound):
		return outcome, fmt.Errorf("look up event %s: %w", draft.ID, err)
	}

	created, err := r.calendar.InsertEvent(ctx, r.calendarID, draft)
	if err != nil {
		return outcome, fmt.Errorf("insert event: %w", err)
	}
	outcome.State = domain.StateCreated
	outcome.EventID = created.ID
	return outcome, nil
}
