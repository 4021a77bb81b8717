package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tazhate/lunchcal/internal/domain"
)

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts a run summary to one chat
type Telegram struct {
	api    messageSender
	chatID int64
}

// NewTelegram authorizes the bot token against the Telegram API.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) NotifyRun(ctx context.Context, run *domain.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, FormatRun(run))
	msg.ParseMode = "HTML"
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// FormatRun renders a run as a Telegram HTML message.
func FormatRun(run *domain.RunRecord) string {
	var b strings.Builder

	week := html.EscapeString(run.WeekStart + " – " + run.WeekEnd)
	switch {
	case !run.Succeeded():
		fmt.Fprintf(&b, "❌ <b>Lunch sync failed</b> (%s)\n\n", week)
	case run.DryRun:
		fmt.Fprintf(&b, "🧪 <b>Lunch sync dry run</b> (%s)\n\n", week)
	default:
		fmt.Fprintf(&b, "🍽 <b>Lunch sync</b> (%s)\n\n", week)
	}

	if run.ServingLine != "" {
		fmt.Fprintf(&b, "Serving line: %s\n", html.EscapeString(run.ServingLine))
	}
	fmt.Fprintf(&b, "Created: %d, updated: %d, unchanged: %d\n", run.Created, run.Updated, run.Skipped)

	for _, d := range run.Days {
		fmt.Fprintf(&b, "\n%s %s <i>%s</i>", stateIcon(d.State), d.Date, html.EscapeString(d.Title))
	}

	if !run.Succeeded() {
		fmt.Fprintf(&b, "\n\n<code>%s</code>", html.EscapeString(truncate(run.Error, 500)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func stateIcon(s domain.ReconcileState) string {
	switch s {
	case domain.StateCreated:
		return "🆕"
	case domain.StateUpdated:
		return "✏️"
	case domain.StateWouldWrite:
		return "📝"
	default:
		return "✅"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
