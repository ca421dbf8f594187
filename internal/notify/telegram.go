// Package notify delivers run outcomes to operators.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Swai-D/bet-bot-sub000/internal/scheduler"
)

// Min interval between messages to the same chat, Telegram throttles
// around 30 messages per minute per chat.
const sendInterval = 2 * time.Second

// TelegramNotifier posts a run summary to a Telegram chat after each
// pipeline run. A nil notifier is safe to register nowhere and cheap to
// skip, so callers can wire it conditionally on configuration.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64

	mu       sync.Mutex
	lastSend time.Time
}

// NewTelegramNotifier creates a notifier bound to one chat. It verifies
// the token against the Telegram API before returning.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = false

	if _, err := bot.GetMe(); err != nil {
		return nil, fmt.Errorf("failed to verify telegram bot: %w", err)
	}

	log.Printf("✓ Telegram notifier initialized (chat %d)", chatID)

	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// OnRunComplete formats and sends the run summary. Send failures are
// logged and swallowed, notification is best-effort.
func (n *TelegramNotifier) OnRunComplete(ctx context.Context, summary scheduler.RunSummary) {
	if n == nil || n.bot == nil {
		return
	}

	n.mu.Lock()
	if wait := sendInterval - time.Since(n.lastSend); wait > 0 {
		time.Sleep(wait)
	}
	n.lastSend = time.Now()
	n.mu.Unlock()

	msg := tgbotapi.NewMessage(n.chatID, formatSummary(summary))
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.bot.Send(msg); err != nil {
		log.Printf("⚠️  Telegram notification failed: %v", err)
	}
}

func formatSummary(s scheduler.RunSummary) string {
	var b strings.Builder

	if s.Skipped > 0 && s.Saved == 0 {
		b.WriteString("⊘ *Run skipped*\n")
	} else if s.Errors > 0 {
		b.WriteString("⚠️ *Run completed with errors*\n")
	} else {
		b.WriteString("✅ *Run completed*\n")
	}

	b.WriteString(fmt.Sprintf("_%s, took %v_\n\n",
		s.StartedAt.UTC().Format("2006-01-02 15:04 UTC"),
		s.Duration.Round(time.Second)))
	b.WriteString(fmt.Sprintf("Saved: %d | Skipped: %d | Errors: %d\n", s.Saved, s.Skipped, s.Errors))

	switch {
	case s.BetPlaced:
		b.WriteString(fmt.Sprintf("\n🎯 Bet placed: *%s*\nOption `%s`, stake %.0f\n",
			escapeMarkdown(s.BetMatch), s.BetOption, s.BetStake))
	case s.NoEligible:
		b.WriteString("\nNo eligible matches this cycle.\n")
	}

	return b.String()
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
