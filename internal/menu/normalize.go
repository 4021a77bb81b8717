// Package menu turns raw SchoolCafé responses into canonical menu data.
package menu

import (
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/tazhate/lunchcal/internal/domain"
)

// NotPublishedText is the placeholder description SchoolCafé returns for
// days without a published menu.
const NotPublishedText = "A menu has not been published for this day."

var dateLayouts = []string{"1/2/2006", domain.DateKeyLayout}

// itemRecord is one menu item as sent by the API. Field names differ
// between endpoints, so several are probed.
type itemRecord struct {
	ID           any    `mapstructure:"MenuItemId"`
	Description  string `mapstructure:"MenuItemDescription"`
	ItemName     string `mapstructure:"ItemName"`
	Text         string `mapstructure:"Text"`
	MenuItemName string `mapstructure:"MenuItemName"`
}

func (r itemRecord) text() string {
	for _, s := range []string{r.Description, r.ItemName, r.Text, r.MenuItemName} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// sentinel reports whether the record stands for "no item".
func (r itemRecord) sentinel() bool {
	if isZeroID(r.ID) {
		return true
	}
	return r.text() == NotPublishedText
}

// rowRecord is one element of the list-shaped payload.
type rowRecord struct {
	ServingDate  string `mapstructure:"ServingDate"`
	Date         string `mapstructure:"Date"`
	ServeDate    string `mapstructure:"ServeDate"`
	MenuDate     string `mapstructure:"MenuDate"`
	itemRecord   `mapstructure:",squash"`
	MenuItems    []any `mapstructure:"MenuItems"`
	Items        []any `mapstructure:"Items"`
	MenuItemList []any `mapstructure:"MenuItemList"`
}

func (r rowRecord) date() string {
	for _, s := range []string{r.ServingDate, r.Date, r.ServeDate, r.MenuDate} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (r rowRecord) nested() []any {
	switch {
	case len(r.MenuItems) > 0:
		return r.MenuItems
	case len(r.Items) > 0:
		return r.Items
	default:
		return r.MenuItemList
	}
}

// Normalize converts a payload decoded by ParsePayload (plain maps are
// accepted too) into the items served per day
// inside window. Payload shapes are probed in order: an object keyed by
// date (values either category->items objects or item lists), then a list
// of rows. Anything else yields an empty week.
func Normalize(payload any, window domain.DateWindow) domain.CanonicalWeek {
	week := make(domain.CanonicalWeek)
	n := normalizer{week: week, window: window}

	if obj, ok := asObject(payload); ok {
		n.keyedByDate(obj)
	} else if list, ok := payload.([]any); ok {
		n.rows(list)
	}
	return week
}

type normalizer struct {
	week   domain.CanonicalWeek
	window domain.DateWindow
}

func (n *normalizer) keyedByDate(p Object) {
	for _, m := range p {
		d, ok := n.parseDate(m.Key)
		if !ok {
			continue
		}
		if categories, ok := asObject(m.Value); ok {
			// category names only group items
			for _, c := range categories {
				if list, ok := c.Value.([]any); ok {
					n.addItems(d, list)
				}
			}
		} else if list, ok := m.Value.([]any); ok {
			n.addItems(d, list)
		}
	}
}

func (n *normalizer) rows(p []any) {
	for _, raw := range p {
		obj, ok := asObject(raw)
		if !ok {
			continue
		}
		var row rowRecord
		if err := decode(obj.Map(), &row); err != nil {
			continue
		}
		d, ok := n.parseDate(row.date())
		if !ok {
			continue
		}
		if !row.sentinel() {
			n.week.Add(d, row.text())
		}
		n.addItems(d, row.nested())
	}
}

func (n *normalizer) addItems(d time.Time, items []any) {
	for _, it := range items {
		if s, ok := it.(string); ok {
			if s = strings.TrimSpace(s); s != NotPublishedText {
				n.week.Add(d, s)
			}
			continue
		}
		obj, ok := asObject(it)
		if !ok {
			continue
		}
		var rec itemRecord
		if err := decode(obj.Map(), &rec); err != nil || rec.sentinel() {
			continue
		}
		n.week.Add(d, rec.text())
	}
}

// parseDate accepts M/D/YYYY and YYYY-MM-DD (with any time suffix) and
// reports false for keys that are not dates or fall outside the window.
func (n *normalizer) parseDate(s string) (time.Time, bool) {
	if len(s) > 10 {
		s = s[:10]
	}
	loc := n.window.Start.Location()
	for _, layout := range dateLayouts {
		d, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		if !n.window.Contains(d) {
			return time.Time{}, false
		}
		return d, true
	}
	return time.Time{}, false
}

func decode(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func isZeroID(v any) bool {
	switch id := v.(type) {
	case float64:
		return id == 0
	case int:
		return id == 0
	case int64:
		return id == 0
	case string:
		return strings.TrimSpace(id) == "0"
	}
	return false
}
