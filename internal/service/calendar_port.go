package service

import (
	"context"
	"errors"
	"time"

	"github.com/tazhate/lunchcal/internal/clients/caldav"
	"github.com/tazhate/lunchcal/internal/domain"
)

// CalendarPort is the remote calendar as seen by the reconciler
type CalendarPort interface {
	ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]domain.RemoteEvent, error)
	// GetEvent returns ErrEventNotFound when eventID does not exist.
	GetEvent(ctx context.Context, calendarID, eventID string) (*domain.RemoteEvent, error)
	// UpdateEvent returns ErrEventNotFound when eventID does not exist.
	UpdateEvent(ctx context.Context, calendarID, eventID string, draft domain.EventDraft) (*domain.RemoteEvent, error)
	// InsertEvent creates a new event; the calendar picks its ID.
	InsertEvent(ctx context.Context, calendarID string, draft domain.EventDraft) (*domain.RemoteEvent, error)
}

type caldavClient interface {
	GetEvents(ctx context.Context, calendarPath string, from, to time.Time) ([]caldav.Event, error)
	GetEvent(ctx context.Context, calendarPath, uid string) (*caldav.Event, error)
	CreateEvent(ctx context.Context, calendarPath string, event *caldav.Event) error
	UpdateEvent(ctx context.Context, calendarPath string, event *caldav.Event) error
}

// CalDAVCalendar adapts a CalDAV client to CalendarPort
type CalDAVCalendar struct {
	client caldavClient
}

// NewCalDAVCalendar wraps client.
func NewCalDAVCalendar(client caldavClient) *CalDAVCalendar {
	return &CalDAVCalendar{client: client}
}

func (c *CalDAVCalendar) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]domain.RemoteEvent, error) {
	events, err := c.client.GetEvents(ctx, calendarID, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RemoteEvent, 0, len(events))
	for i := range events {
		out = append(out, toRemote(&events[i]))
	}
	return out, nil
}

func (c *CalDAVCalendar) GetEvent(ctx context.Context, calendarID, eventID string) (*domain.RemoteEvent, error) {
	event, err := c.client.GetEvent(ctx, calendarID, eventID)
	if err != nil {
		return nil, translateNotFound(err)
	}
	remote := toRemote(event)
	return &remote, nil
}

func (c *CalDAVCalendar) UpdateEvent(ctx context.Context, calendarID, eventID string, draft domain.EventDraft) (*domain.RemoteEvent, error) {
	event := fromDraft(draft)
	event.UID = eventID
	if err := c.client.UpdateEvent(ctx, calendarID, event); err != nil {
		return nil, translateNotFound(err)
	}
	remote := toRemote(event)
	return &remote, nil
}

func (c *CalDAVCalendar) InsertEvent(ctx context.Context, calendarID string, draft domain.EventDraft) (*domain.RemoteEvent, error) {
	event := fromDraft(draft)
	if err := c.client.CreateEvent(ctx, calendarID, event); err != nil {
		return nil, err
	}
	remote := toRemote(event)
	return &remote, nil
}

// DraftEvent converts a draft to the CalDAV representation, keeping its ID.
func DraftEvent(draft domain.EventDraft) *caldav.Event {
	event := fromDraft(draft)
	event.UID = draft.ID
	return event
}

// fromDraft leaves UID empty; callers decide which ID to write under.
func fromDraft(draft domain.EventDraft) *caldav.Event {
	return &caldav.Event{
		Summary:     draft.Title,
		Description: draft.Description,
		StartTime:   draft.Start,
		EndTime:     draft.End,
		Source:      draft.Metadata.Source,
		SchoolID:    draft.Metadata.SchoolID,
	}
}

func toRemote(e *caldav.Event) domain.RemoteEvent {
	return domain.RemoteEvent{
		ID:          e.UID,
		Start:       e.StartTime,
		End:         e.EndTime,
		Summary:     e.Summary,
		Description: e.Description,
		Metadata: domain.EventMetadata{
			Source:   e.Source,
			SchoolID: e.SchoolID,
		},
	}
}

func translateNotFound(err error) error {
	if errors.Is(err, caldav.ErrNotFound) {
		return ErrEventNotFound
	}
	return err
}
