package domain

import (
	"testing"
	"time"
)

func TestCanonicalWeekAdd(t *testing.T) {
	week := CanonicalWeek{}
	mon := time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC)

	week.Add(mon, "Pizza")
	week.Add(mon, "")
	week.Add(mon, "Salad")
	week.Add(mon, "Pizza")
	week.Add(mon, "pizza")

	got := week.Items(mon)
	want := []string{"Pizza", "Salad", "pizza"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestCanonicalWeekBlankItemAddsNoDay(t *testing.T) {
	week := CanonicalWeek{}
	week.Add(time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC), "")

	if len(week) != 0 {
		t.Fatalf("expected empty week, got %v", week)
	}
}

func TestCanonicalWeekDaysSorted(t *testing.T) {
	week := CanonicalWeek{}
	for _, d := range []int{18, 15, 17} {
		week.Add(time.Date(2025, 12, d, 0, 0, 0, 0, time.UTC), "Item")
	}

	days := week.Days()
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	for i, want := range []string{"2025-12-15", "2025-12-17", "2025-12-18"} {
		if DateKey(days[i].Date) != want {
			t.Errorf("day %d: expected %s, got %s", i, want, DateKey(days[i].Date))
		}
	}
	if week.Items(time.Date(2025, 12, 16, 0, 0, 0, 0, time.UTC)) != nil {
		t.Error("expected nil items for missing day")
	}
}

func TestRunRecordCount(t *testing.T) {
	run := &RunRecord{Days: []DayOutcome{
		{State: StateSkipped},
		{State: StateCreated},
		{State: StateCreated},
		{State: StateUpdated},
		{State: StateWouldWrite},
	}}
	run.Count()

	if run.Skipped != 1 || run.Created != 2 || run.Updated != 1 {
		t.Fatalf("unexpected counts %+v", run)
	}
	if !run.Succeeded() {
		t.Fatal("run without error should succeed")
	}
}
