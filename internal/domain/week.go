package domain

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// DateKeyLayout is the ISO calendar date used to key days.
const DateKeyLayout = "2006-01-02"

// DateWindow is an inclusive range of calendar dates.
// Start and End are midnights in the same location.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// NewDateWindow builds a window from two dates, truncated to midnight in loc.
func NewDateWindow(start, end time.Time, loc *time.Location) (DateWindow, error) {
	w := DateWindow{Start: Midnight(start, loc), End: Midnight(end, loc)}
	if w.End.Before(w.Start) {
		return DateWindow{}, fmt.Errorf("window end %s before start %s", DateKey(w.End), DateKey(w.Start))
	}
	return w, nil
}

// WeekContaining returns the Monday..Sunday window that contains t in loc.
func WeekContaining(t time.Time, loc *time.Location) DateWindow {
	day := Midnight(t, loc)
	offset := (int(day.Weekday()) + 6) % 7 // days since Monday
	monday := day.AddDate(0, 0, -offset)
	return DateWindow{Start: monday, End: monday.AddDate(0, 0, 6)}
}

// Contains reports whether the calendar date of d falls inside the window.
func (w DateWindow) Contains(d time.Time) bool {
	k := DateKey(d.In(w.Start.Location()))
	return k >= DateKey(w.Start) && k <= DateKey(w.End)
}

// Days returns every date of the window in ascending order.
func (w DateWindow) Days() []time.Time {
	var days []time.Time
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// String formats the window as "start..end".
func (w DateWindow) String() string {
	return DateKey(w.Start) + ".." + DateKey(w.End)
}

// SchoolDays lists the days of the window lunch is normally served on:
// Monday to Friday, plus the weekend when weekend menus are enabled.
func SchoolDays(w DateWindow, includeWeekends bool) ([]time.Time, error) {
	byDay := []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}
	if includeWeekends {
		byDay = append(byDay, rrule.SA, rrule.SU)
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.DAILY,
		Dtstart:   w.Start,
		Until:     w.End,
		Byweekday: byDay,
	})
	if err != nil {
		return nil, fmt.Errorf("build school day rule: %w", err)
	}
	return r.All(), nil
}

// Midnight returns 00:00 of t's calendar date in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DateKey formats the calendar date of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}
