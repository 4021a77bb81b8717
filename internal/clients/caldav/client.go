package caldav

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
)

const (
	propSource   = "X-LUNCHCAL-SOURCE"
	propSchoolID = "X-LUNCHCAL-SCHOOL-ID"
	productID    = "-//lunchcal//CalDAV//EN"
)

// ErrNotFound is returned when an event object does not exist
var ErrNotFound = errors.New("caldav: event not found")

// Client is a CalDAV client bound to one server account
type Client struct {
	baseURL  string
	username string
	password string
	location *time.Location // fallback for floating times
	client   *caldav.Client
}

// NewClient creates a new CalDAV client
func NewClient(baseURL, username, password string, loc *time.Location) *Client {
	if loc == nil {
		loc = time.UTC
	}
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		location: loc,
	}
}

// IsConfigured returns true if the client has a server URL
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// connect establishes connection to CalDAV server
func (c *Client) connect() (*caldav.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	if !c.IsConfigured() {
		return nil, errors.New("caldav: server URL not configured")
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			username: c.username,
			password: c.password,
		},
		Timeout: 30 * time.Second,
	}

	client, err := caldav.NewClient(httpClient, c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	c.client = client
	return client, nil
}

// basicAuthTransport adds Basic Auth to HTTP requests
type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.username != "" {
		req = req.Clone(req.Context())
		req.SetBasicAuth(t.username, t.password)
	}
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err == nil {
		if status, ok := req.Context().Value(statusKey{}).(*int); ok {
			*status = resp.StatusCode
		}
	}
	return resp, err
}

type statusKey struct{}

// withStatus returns a context under which the transport records the
// status code of the last response it received.
func withStatus(ctx context.Context) (context.Context, *int) {
	status := new(int)
	return context.WithValue(ctx, statusKey{}, status), status
}

// DiscoverCalendars returns all calendars for the user
func (c *Client) DiscoverCalendars(ctx context.Context) ([]Calendar, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}

	result := make([]Calendar, 0, len(cals))
	for _, cal := range cals {
		result = append(result, Calendar{
			ID:          cal.Path,
			DisplayName: cal.Name,
			Description: cal.Description,
		})
	}

	return result, nil
}

// GetEvents returns events overlapping the specified time range
func (c *Client) GetEvents(ctx context.Context, calendarPath string, from, to time.Time) ([]Event, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}
	if calendarPath == "" {
		return nil, errors.New("calendar path not specified")
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     "VCALENDAR",
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{
				{
					Name:  "VEVENT",
					Start: from.UTC(),
					End:   to.UTC(),
				},
			},
		},
	}

	objects, err := client.QueryCalendar(ctx, calendarPath, query)
	if err != nil {
		return nil, fmt.Errorf("query calendar: %w", err)
	}

	events := make([]Event, 0, len(objects))
	for i := range objects {
		event, err := parseCalendarObject(&objects[i], c.location)
		if err != nil {
			continue // not an event we can read
		}
		events = append(events, event)
	}

	return events, nil
}

// GetEvent fetches a single event by UID. It returns ErrNotFound when
// the server has no object for it.
func (c *Client) GetEvent(ctx context.Context, calendarPath, uid string) (*Event, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}

	ctx, status := withStatus(ctx)
	obj, err := client.GetCalendarObject(ctx, eventPath(calendarPath, uid))
	if err != nil {
		if *status == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event %s: %w", uid, err)
	}

	event, err := parseCalendarObject(obj, c.location)
	if err != nil {
		return nil, fmt.Errorf("parse event %s: %w", uid, err)
	}
	return &event, nil
}

// CreateEvent creates a new event in the calendar. A UID is generated
// when the event has none.
func (c *Client) CreateEvent(ctx context.Context, calendarPath string, event *Event) error {
	if event.UID == "" {
		event.UID = uuid.NewString()
	}
	return c.put(ctx, calendarPath, event)
}

// UpdateEvent replaces the event stored under event.UID
func (c *Client) UpdateEvent(ctx context.Context, calendarPath string, event *Event) error {
	if event.UID == "" {
		return errors.New("update event: UID is required")
	}
	return c.put(ctx, calendarPath, event)
}

func (c *Client) put(ctx context.Context, calendarPath string, event *Event) error {
	client, err := c.connect()
	if err != nil {
		return err
	}
	if calendarPath == "" {
		return errors.New("calendar path not specified")
	}

	ctx, status := withStatus(ctx)
	path := eventPath(calendarPath, event.UID)
	obj, err := client.PutCalendarObject(ctx, path, eventToICS(event))
	if err != nil {
		if *status == http.StatusNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("put event %s: %w", event.UID, err)
	}
	event.Path = obj.Path
	return nil
}

func eventPath(calendarPath, uid string) string {
	if !strings.HasSuffix(calendarPath, "/") {
		calendarPath += "/"
	}
	return calendarPath + uid + ".ics"
}

// parseCalendarObject parses a CalDAV object into an Event
func parseCalendarObject(obj *caldav.CalendarObject, loc *time.Location) (Event, error) {
	event := Event{Path: obj.Path}

	if obj.Data == nil {
		return event, errors.New("no data in calendar object")
	}

	for _, comp := range obj.Data.Children {
		if comp.Name != ical.CompEvent {
			continue
		}
		return parseEvent(comp, event, loc)
	}

	return event, errors.New("no VEVENT in calendar object")
}

func parseEvent(comp *ical.Component, event Event, loc *time.Location) (Event, error) {
	var err error
	if event.UID, err = comp.Props.Text(ical.PropUID); err != nil {
		return event, fmt.Errorf("read UID: %w", err)
	}
	if event.Summary, err = comp.Props.Text(ical.PropSummary); err != nil {
		return event, fmt.Errorf("read SUMMARY: %w", err)
	}
	if event.Description, err = comp.Props.Text(ical.PropDescription); err != nil {
		return event, fmt.Errorf("read DESCRIPTION: %w", err)
	}
	if event.StartTime, err = comp.Props.DateTime(ical.PropDateTimeStart, loc); err != nil {
		return event, fmt.Errorf("read DTSTART: %w", err)
	}
	if event.EndTime, err = comp.Props.DateTime(ical.PropDateTimeEnd, loc); err != nil {
		return event, fmt.Errorf("read DTEND: %w", err)
	}

	// metadata is informational only
	event.Source, _ = comp.Props.Text(propSource)
	event.SchoolID, _ = comp.Props.Text(propSchoolID)

	return event, nil
}

// eventToICS converts an Event to iCalendar format
func eventToICS(event *Event) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	// DTSTART/DTEND reference their zone by TZID, so ship its definition
	if loc := event.StartTime.Location(); loc != time.UTC {
		cal.Children = append(cal.Children, timezoneComponent(loc, event.StartTime.Year()))
	}

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, event.UID)
	vevent.Props.SetText(ical.PropSummary, event.Summary)

	if event.Description != "" {
		vevent.Props.SetText(ical.PropDescription, event.Description)
	}

	// Keep the event's own location so DTSTART/DTEND carry a TZID
	vevent.Props.SetDateTime(ical.PropDateTimeStart, event.StartTime)
	if !event.EndTime.IsZero() {
		vevent.Props.SetDateTime(ical.PropDateTimeEnd, event.EndTime)
	}

	if event.Source != "" {
		vevent.Props.SetText(propSource, event.Source)
	}
	if event.SchoolID != "" {
		vevent.Props.SetText(propSchoolID, event.SchoolID)
	}

	vevent.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	cal.Children = append(cal.Children, vevent.Component)
	return cal
}

// timezoneComponent describes loc from the start of year-1 to the end of
// year+1, one observance per offset change.
func timezoneComponent(loc *time.Location, year int) *ical.Component {
	tz := ical.NewComponent(ical.CompTimezone)
	tz.Props.SetText(ical.PropTimezoneID, loc.String())

	t := time.Date(year-1, 1, 1, 0, 0, 0, 0, loc)
	until := time.Date(year+2, 1, 1, 0, 0, 0, 0, loc)
	if start, _ := t.ZoneBounds(); !start.IsZero() {
		t = start
	}
	for {
		tz.Children = append(tz.Children, observance(t))
		_, end := t.ZoneBounds()
		if end.IsZero() || !end.Before(until) {
			break
		}
		t = end
	}
	return tz
}

// observance builds the STANDARD or DAYLIGHT block that begins at onset.
// Its DTSTART is local time in the offset being left.
func observance(onset time.Time) *ical.Component {
	name := ical.CompTimezoneStandard
	if onset.IsDST() {
		name = ical.CompTimezoneDaylight
	}
	abbr, offset := onset.Zone()
	_, prev := onset.Add(-time.Second).Zone()

	comp := ical.NewComponent(name)
	start := ical.NewProp(ical.PropDateTimeStart)
	start.Value = onset.In(time.FixedZone("", prev)).Format("20060102T150405")
	comp.Props.Set(start)

	from := ical.NewProp(ical.PropTimezoneOffsetFrom)
	from.Value = formatOffset(prev)
	comp.Props.Set(from)

	to := ical.NewProp(ical.PropTimezoneOffsetTo)
	to.Value = formatOffset(offset)
	comp.Props.Set(to)

	comp.Props.SetText(ical.PropTimezoneName, abbr)
	return comp
}

// formatOffset renders seconds east of UTC as +hhmm.
func formatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("%c%02d%02d", sign, seconds/3600, seconds%3600/60)
}

// EventICS renders an event as an iCalendar document
func EventICS(event *Event) string {
	return SerializeCalendar(eventToICS(event))
}

// SerializeCalendar converts calendar to string (for debugging)
func SerializeCalendar(cal *ical.Calendar) string {
	var buf bytes.Buffer
	enc := ical.NewEncoder(&buf)
	_ = enc.Encode(cal)
	return buf.String()
}
