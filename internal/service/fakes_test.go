package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tazhate/lunchcal/internal/clients/schoolcafe"
	"github.com/tazhate/lunchcal/internal/domain"
)

// fakeCalendar is an in-memory CalendarPort that records every call.
type fakeCalendar struct {
	events  map[string]domain.RemoteEvent
	order   []string
	nextID  int
	calls   []string
	listErr error
	getErr  error
	updErr  error
	insErr  error
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{events: make(map[string]domain.RemoteEvent)}
}

func (f *fakeCalendar) put(ev domain.RemoteEvent) {
	if _, ok := f.events[ev.ID]; !ok {
		f.order = append(f.order, ev.ID)
	}
	f.events[ev.ID] = ev
}

func (f *fakeCalendar) writes() int {
	n := 0
	for _, c := range f.calls {
		if c == "update" || c == "insert" {
			n++
		}
	}
	return n
}

func (f *fakeCalendar) count(call string) int {
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeCalendar) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]domain.RemoteEvent, error) {
	f.calls = append(f.calls, "list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.RemoteEvent
	for _, id := range f.order {
		ev := f.events[id]
		if !ev.Start.Before(from) && !ev.Start.After(to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeCalendar) GetEvent(ctx context.Context, calendarID, eventID string) (*domain.RemoteEvent, error) {
	f.calls = append(f.calls, "get")
	if f.getErr != nil {
		return nil, f.getErr
	}
	ev, ok := f.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	return &ev, nil
}

func (f *fakeCalendar) UpdateEvent(ctx context.Context, calendarID, eventID string, draft domain.EventDraft) (*domain.RemoteEvent, error) {
	f.calls = append(f.calls, "update")
	if f.updErr != nil {
		return nil, f.updErr
	}
	if _, ok := f.events[eventID]; !ok {
		return nil, ErrEventNotFound
	}
	ev := remoteFromDraft(eventID, draft)
	f.put(ev)
	return &ev, nil
}

func (f *fakeCalendar) InsertEvent(ctx context.Context, calendarID string, draft domain.EventDraft) (*domain.RemoteEvent, error) {
	f.calls = append(f.calls, "insert")
	if f.insErr != nil {
		return nil, f.insErr
	}
	f.nextID++
	ev := remoteFromDraft(fmt.Sprintf("generated-%d", f.nextID), draft)
	f.put(ev)
	return &ev, nil
}

func remoteFromDraft(id string, d domain.EventDraft) domain.RemoteEvent {
	return domain.RemoteEvent{
		ID:          id,
		Start:       d.Start,
		End:         d.End,
		Summary:     d.Title,
		Description: d.Description,
		Metadata:    d.Metadata,
	}
}

// fakeSource serves canned SchoolCafé responses.
type fakeSource struct {
	lines     string
	menu      string
	linesErr  error
	menuErr   error
	menuQuery schoolcafe.WeeklyMenuQuery
	lineQuery schoolcafe.ServiceLineQuery
}

func (f *fakeSource) GetServiceLine(ctx context.Context, q schoolcafe.ServiceLineQuery) (json.RawMessage, error) {
	f.lineQuery = q
	if f.linesErr != nil {
		return nil, f.linesErr
	}
	return json.RawMessage(f.lines), nil
}

func (f *fakeSource) GetWeeklyMenuItemsByGrade(ctx context.Context, q schoolcafe.WeeklyMenuQuery) (json.RawMessage, error) {
	f.menuQuery = q
	if f.menuErr != nil {
		return nil, f.menuErr
	}
	return json.RawMessage(f.menu), nil
}

type fakeRecorder struct {
	runs []*domain.RunRecord
	err  error
}

func (f *fakeRecorder) RecordRun(run *domain.RunRecord) error {
	f.runs = append(f.runs, run)
	return f.err
}

type fakeNotifier struct {
	runs []*domain.RunRecord
}

func (f *fakeNotifier) NotifyRun(ctx context.Context, run *domain.RunRecord) error {
	f.runs = append(f.runs, run)
	return errors.New("telegram down")
}
