package schoolcafe

import (
	"errors"
	"fmt"
	"time"
)

// ServiceLineQuery selects the serving lines offered in a date range
type ServiceLineQuery struct {
	SchoolID string
	Start    time.Time
	End      time.Time
	MealType string
}

// WeeklyMenuQuery selects one week of menu items for a grade
type WeeklyMenuQuery struct {
	SchoolID            string
	ServingDate         time.Time // any day of the week, usually Monday
	ServingLine         string
	MealType            string
	Grade               string
	PersonID            *string // nil is sent as "null"
	EnabledWeekendMenus bool
}

// TransportError is returned when a request fails or the API answers
// with a non-success status.
type TransportError struct {
	Op         string
	StatusCode int    // 0 when no response was received
	Body       string // truncated response body
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("schoolcafe %s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("schoolcafe %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

var errInvalidJSON = errors.New("response is not valid JSON")
