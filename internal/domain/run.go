package domain

import "time"

// RunRecord is one persisted sync run
type RunRecord struct {
	ID          int64
	StartedAt   time.Time
	FinishedAt  time.Time
	WeekStart   string
	WeekEnd     string
	ServingLine string
	DryRun      bool
	Skipped     int
	Updated     int
	Created     int
	Error       string
	Days        []DayOutcome
}

// Succeeded reports whether the run finished without error.
func (r *RunRecord) Succeeded() bool {
	return r.Error == ""
}

// Count tallies outcomes by state into the record counters.
func (r *RunRecord) Count() {
	r.Skipped, r.Updated, r.Created = 0, 0, 0
	for _, d := range r.Days {
		switch d.State {
		case StateSkipped:
			r.Skipped++
		case StateUpdated:
			r.Updated++
		case StateCreated:
			r.Created++
		}
	}
}
