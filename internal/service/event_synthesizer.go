package service

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tazhate/lunchcal/internal/domain"
)

const (
	genericTitle  = "School Lunch"
	maxTitleItem  = 60
	eventIDPrefix = "lunch-"
)

// SynthesizerConfig fixes everything about an event except the day's menu
type SynthesizerConfig struct {
	SchoolID   string
	SchoolName string // optional, shown in the description header
	MealType   string
	Tag        string // namespaces event IDs
	Location   *time.Location
	StartHour  int
	StartMin   int
	Duration   time.Duration
}

// EventSynthesizer turns menu days into event drafts
type EventSynthesizer struct {
	cfg SynthesizerConfig
}

// NewEventSynthesizer creates a synthesizer; a nil location means UTC.
func NewEventSynthesizer(cfg SynthesizerConfig) *EventSynthesizer {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &EventSynthesizer{cfg: cfg}
}

// Synthesize builds the event for one day. It does not modify day.
func (s *EventSynthesizer) Synthesize(day domain.MenuDay, servingLine string) domain.EventDraft {
	d := day.Date.In(s.cfg.Location)
	start := time.Date(d.Year(), d.Month(), d.Day(), s.cfg.StartHour, s.cfg.StartMin, 0, 0, s.cfg.Location)

	return domain.EventDraft{
		ID:          EventID(s.cfg.Tag, s.cfg.SchoolID, start),
		Title:       eventTitle(day.Items),
		Description: s.description(day.Items, servingLine),
		Start:       start,
		End:         start.Add(s.cfg.Duration),
		Metadata: domain.EventMetadata{
			Source:   domain.EventSource,
			SchoolID: s.cfg.SchoolID,
		},
	}
}

// SynthesizeWeek builds drafts for every day of the week in date order.
func (s *EventSynthesizer) SynthesizeWeek(week domain.CanonicalWeek, servingLine string) []domain.EventDraft {
	days := week.Days()
	drafts := make([]domain.EventDraft, 0, len(days))
	for _, day := range days {
		drafts = append(drafts, s.Synthesize(day, servingLine))
	}
	return drafts
}

func (s *EventSynthesizer) description(items []string, servingLine string) string {
	var sb strings.Builder
	if s.cfg.SchoolName != "" {
		sb.WriteString(s.cfg.SchoolName + " – ")
	}
	sb.WriteString(s.cfg.MealType + "\n")
	sb.WriteString("Serving line: " + servingLine + "\n\n")

	for i, it := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("• " + it)
	}
	return sb.String()
}

func eventTitle(items []string) string {
	if len(items) == 0 || utf8.RuneCountInString(items[0]) > maxTitleItem {
		return genericTitle
	}
	return genericTitle + ": " + items[0]
}

// EventID derives the calendar event ID for a school and date. It is
// stable across runs and machines.
func EventID(tag, schoolID string, date time.Time) string {
	raw := fmt.Sprintf("%s:%s:%s", tag, schoolID, domain.DateKey(date))
	sum := sha1.Sum([]byte(raw))
	return eventIDPrefix + hex.EncodeToString(sum[:])
}
