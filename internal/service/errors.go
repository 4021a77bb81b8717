package service

import (
	"errors"
	"fmt"
)

// ErrEventNotFound is returned by a CalendarPort when an event ID does not exist
var ErrEventNotFound = errors.New("event not found")

// EmptyResultError means the menu payload had no items for the target
// week. Raw holds the payload for diagnosis.
type EmptyResultError struct {
	WeekStart string
	Raw       string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no menu items found for week starting %s, raw payload: %s", e.WeekStart, e.Raw)
}
