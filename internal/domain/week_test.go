package domain

import (
	"testing"
	"time"
)

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func keys(days []time.Time) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = DateKey(d)
	}
	return out
}

func TestWeekContaining(t *testing.T) {
	loc := chicago(t)
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"monday", time.Date(2025, 12, 15, 0, 0, 0, 0, loc), "2025-12-15..2025-12-21"},
		{"wednesday", time.Date(2025, 12, 17, 13, 45, 0, 0, loc), "2025-12-15..2025-12-21"},
		{"sunday night", time.Date(2025, 12, 21, 23, 59, 0, 0, loc), "2025-12-15..2025-12-21"},
		{"utc instant already next day", time.Date(2025, 12, 22, 3, 0, 0, 0, time.UTC), "2025-12-15..2025-12-21"},
		{"across year end", time.Date(2026, 1, 1, 9, 0, 0, 0, loc), "2025-12-29..2026-01-04"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := WeekContaining(tt.at, loc)
			if w.String() != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, w.String())
			}
			if w.Start.Location() != loc || w.Start.Hour() != 0 {
				t.Fatalf("expected local midnight start, got %v", w.Start)
			}
		})
	}
}

func TestNewDateWindowRejectsReversedRange(t *testing.T) {
	loc := chicago(t)
	_, err := NewDateWindow(time.Date(2025, 12, 20, 0, 0, 0, 0, loc), time.Date(2025, 12, 15, 0, 0, 0, 0, loc), loc)
	if err == nil {
		t.Fatal("expected error for reversed window")
	}

	w, err := NewDateWindow(time.Date(2025, 12, 15, 18, 0, 0, 0, loc), time.Date(2025, 12, 15, 7, 0, 0, 0, loc), loc)
	if err != nil {
		t.Fatalf("single day window: %v", err)
	}
	if len(w.Days()) != 1 {
		t.Fatalf("expected one day, got %v", keys(w.Days()))
	}
}

func TestWindowContains(t *testing.T) {
	loc := chicago(t)
	w := WeekContaining(time.Date(2025, 12, 17, 0, 0, 0, 0, loc), loc)

	if !w.Contains(time.Date(2025, 12, 15, 0, 0, 0, 0, loc)) {
		t.Error("start should be inside")
	}
	if !w.Contains(time.Date(2025, 12, 21, 23, 59, 59, 0, loc)) {
		t.Error("end of last day should be inside")
	}
	if w.Contains(time.Date(2025, 12, 22, 0, 0, 0, 0, loc)) {
		t.Error("next monday should be outside")
	}
	if w.Contains(time.Date(2025, 12, 14, 12, 0, 0, 0, loc)) {
		t.Error("previous sunday should be outside")
	}
}

func TestWindowDaysAcrossDST(t *testing.T) {
	loc := chicago(t)
	w := WeekContaining(time.Date(2026, 3, 11, 0, 0, 0, 0, loc), loc)

	got := keys(w.Days())
	want := []string{"2026-03-09", "2026-03-10", "2026-03-11", "2026-03-12", "2026-03-13", "2026-03-14", "2026-03-15"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSchoolDays(t *testing.T) {
	loc := chicago(t)
	w := WeekContaining(time.Date(2025, 12, 17, 0, 0, 0, 0, loc), loc)

	weekdays, err := SchoolDays(w, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := keys(weekdays); len(got) != 5 || got[0] != "2025-12-15" || got[4] != "2025-12-19" {
		t.Fatalf("unexpected weekdays %v", got)
	}

	all, err := SchoolDays(w, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := keys(all); len(got) != 7 || got[6] != "2025-12-21" {
		t.Fatalf("unexpected days with weekends %v", got)
	}
}

func TestDateKeyUsesLocalDate(t *testing.T) {
	loc := chicago(t)
	at := time.Date(2025, 12, 16, 2, 0, 0, 0, time.UTC)

	if got := DateKey(Midnight(at, loc)); got != "2025-12-15" {
		t.Fatalf("expected local date 2025-12-15, got %s", got)
	}
}
