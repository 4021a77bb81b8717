package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tazhate/lunchcal/internal/domain"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func successfulRun() *domain.RunRecord {
	run := &domain.RunRecord{
		WeekStart:   "2025-12-15",
		WeekEnd:     "2025-12-21",
		ServingLine: "Lunch <Main>",
		Days: []domain.DayOutcome{
			{Date: "2025-12-15", State: domain.StateCreated, Title: "School Lunch: Mac & Cheese"},
			{Date: "2025-12-16", State: domain.StateSkipped, Title: "School Lunch: Tacos"},
		},
	}
	run.Count()
	return run
}

func TestNotifyRunSendsHTML(t *testing.T) {
	sender := &fakeSender{}
	n := &Telegram{api: sender, chatID: 42}

	if err := n.NotifyRun(context.Background(), successfulRun()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.sent))
	}
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("expected MessageConfig, got %T", sender.sent[0])
	}
	if msg.ChatID != 42 || msg.ParseMode != "HTML" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestNotifyRunWrapsSendError(t *testing.T) {
	sendErr := errors.New("bad gateway")
	n := &Telegram{api: &fakeSender{err: sendErr}, chatID: 42}

	err := n.NotifyRun(context.Background(), successfulRun())
	if !errors.Is(err, sendErr) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}

func TestFormatRunEscapesAndCounts(t *testing.T) {
	text := FormatRun(successfulRun())

	for _, want := range []string{
		"<b>Lunch sync</b> (2025-12-15 – 2025-12-21)",
		"Serving line: Lunch &lt;Main&gt;",
		"Created: 1, updated: 0, unchanged: 1",
		"🆕 2025-12-15 <i>School Lunch: Mac &amp; Cheese</i>",
		"✅ 2025-12-16",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in message:\n%s", want, text)
		}
	}
}

func TestFormatRunFailure(t *testing.T) {
	run := &domain.RunRecord{WeekStart: "2025-12-15", WeekEnd: "2025-12-21", Error: "no menu items found for week starting 2025-12-15"}

	text := FormatRun(run)
	if !strings.HasPrefix(text, "❌ <b>Lunch sync failed</b>") {
		t.Fatalf("unexpected header:\n%s", text)
	}
	if !strings.Contains(text, "<code>no menu items found") {
		t.Fatalf("expected error in message:\n%s", text)
	}
}

func TestFormatRunDryRun(t *testing.T) {
	run := successfulRun()
	run.DryRun = true
	run.Days[0].State = domain.StateWouldWrite

	text := FormatRun(run)
	if !strings.Contains(text, "dry run") || !strings.Contains(text, "📝 2025-12-15") {
		t.Fatalf("unexpected dry run message:\n%s", text)
	}
}
