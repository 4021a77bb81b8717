package domain

import (
	"sort"
	"time"
)

// MenuDay holds the unique menu items served on one date, in first-seen order
type MenuDay struct {
	Date  time.Time
	Items []string
}

// Has reports whether the exact item text is already on the day.
func (d *MenuDay) Has(item string) bool {
	for _, it := range d.Items {
		if it == item {
			return true
		}
	}
	return false
}

// CanonicalWeek maps DateKey(date) to that date's menu.
// Only days with at least one item are present.
type CanonicalWeek map[string]*MenuDay

// Add appends item to the day of d unless it is blank or already present.
func (w CanonicalWeek) Add(d time.Time, item string) {
	if item == "" {
		return
	}
	key := DateKey(d)
	day, ok := w[key]
	if !ok {
		day = &MenuDay{Date: d}
		w[key] = day
	}
	if !day.Has(item) {
		day.Items = append(day.Items, item)
	}
}

// Days returns the week's days sorted by date.
func (w CanonicalWeek) Days() []MenuDay {
	keys := make([]string, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	days := make([]MenuDay, 0, len(keys))
	for _, k := range keys {
		days = append(days, *w[k])
	}
	return days
}

// Items returns the items for a date, or nil when the date has no menu.
func (w CanonicalWeek) Items(d time.Time) []string {
	if day, ok := w[DateKey(d)]; ok {
		return day.Items
	}
	return nil
}
