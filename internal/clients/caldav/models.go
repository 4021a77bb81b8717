package caldav

import "time"

// Calendar represents a calendar collection on the CalDAV server
type Calendar struct {
	ID          string // Calendar path/URL
	DisplayName string
	Description string
}

// Event represents a calendar event
type Event struct {
	UID         string // Unique ID in CalDAV
	Path        string // Object path, set on events read from the server
	Summary     string // Title
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Source      string // X-LUNCHCAL-SOURCE
	SchoolID    string // X-LUNCHCAL-SCHOOL-ID
}
