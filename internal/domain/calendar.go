package domain

import "time"

// EventSource tags events created from SchoolCafé menus.
const EventSource = "schoolcafe"

// EventMetadata makes events self-identifying outside of reconciliation
type EventMetadata struct {
	Source   string
	SchoolID string
}

// EventDraft is the desired state of one lunch event
type EventDraft struct {
	ID          string // deterministic, see service.EventID
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Metadata    EventMetadata
}

// Date returns the calendar date of the event start.
func (e *EventDraft) Date() string {
	return DateKey(e.Start)
}

// DayRange returns 00:00:00 and 23:59:59 of the start date in the start's location.
func (e *EventDraft) DayRange() (time.Time, time.Time) {
	loc := e.Start.Location()
	y, m, d := e.Start.Date()
	return Midnight(e.Start, loc), time.Date(y, m, d, 23, 59, 59, 0, loc)
}

// RemoteEvent is what the calendar already contains
type RemoteEvent struct {
	ID          string
	Start       time.Time
	End         time.Time
	Summary     string
	Description string
	Metadata    EventMetadata
}

// ReconcileState is the outcome of reconciling one day.
type ReconcileState string

const (
	StateSkipped    ReconcileState = "skipped"
	StateUpdated    ReconcileState = "updated"
	StateCreated    ReconcileState = "created"
	StateWouldWrite ReconcileState = "would_write" // dry run
)

// DayOutcome records what happened to one day's event
type DayOutcome struct {
	Date    string
	State   ReconcileState
	EventID string
	Title   string
}
