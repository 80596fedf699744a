package bots_monitor

// Telegram message assembly and sending shared by the monitors.

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"pool-sentry/internal/clients_api/dexscreener"
	"pool-sentry/internal/clients_api/geckoterminal"
	"pool-sentry/internal/clients_api/rugcheck"
	log "pool-sentry/internal/infra/log"
	"pool-sentry/internal/infra/retry"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	sendMaxRetries = 2
	sendBaseDelay  = 500 * time.Millisecond
	sendMaxDelay   = 30 * time.Second
)

// parseChatID converts a Telegram chat ID string (channels are negative,
// e.g. -1003190218710) into int64.
func parseChatID(chatIDStr string) int64 {
	var chatID int64
	fmt.Sscanf(chatIDStr, "%d", &chatID)
	return chatID
}

// sendAlert sends an HTML-formatted message with a single URL button.
// Flood waits and Telegram-side 5xx are retried with backoff; anything else
// fails straight through to the caller's claim settlement.
func sendAlert(ctx context.Context, bot *tgbotapi.BotAPI, chatID string, message, buttonLabel, buttonURL string) error {
	msg := tgbotapi.NewMessage(parseChatID(chatID), message)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(buttonLabel, buttonURL),
		),
	)

	opts := retry.Options{MaxRetries: sendMaxRetries, BaseDelay: sendBaseDelay, MaxDelay: sendMaxDelay}
	err := retry.Do(ctx, opts, func() error {
		_, err := bot.Send(msg)
		return classifySendError(err)
	})
	if err != nil {
		log.LogError("Failed to send alert", zap.Error(err), zap.String("chatID", chatID))
		return err
	}
	return nil
}

// classifySendError maps Telegram API errors onto retry.HTTPError so the
// retry helper can tell a flood wait (429 + retry_after) from a hard failure
// like a bad chat ID.
func classifySendError(err error) error {
	if err == nil {
		return nil
	}
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		return &retry.HTTPError{
			StatusCode: tgErr.Code,
			Body:       []byte(tgErr.Message),
			RetryAfter: time.Duration(tgErr.RetryAfter) * time.Second,
		}
	}
	return err
}

// formatUSD renders amounts as $1.2K / $3.4M / $5.6B.
func formatUSD(amount float64) string {
	format := func(value float64, suffix string) string {
		formatted := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
		return fmt.Sprintf("$%s%s", formatted, suffix)
	}
	switch {
	case amount >= 1e9:
		return format(amount/1e9, "B")
	case amount >= 1e6:
		return format(amount/1e6, "M")
	case amount >= 1e3:
		return format(amount/1e3, "K")
	default:
		return format(amount, "")
	}
}

// formatAge renders a duration as "5m" / "2h 13m".
func formatAge(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) - hours*60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// formatNewPoolMessage assembles the alert text for a freshly created pool.
// Returns the message and the pool page link for the button.
func formatNewPoolMessage(pool geckoterminal.Pool, summary *rugcheck.ReportSummary, now time.Time) (string, string) {
	name := html.EscapeString(pool.Attributes.Name)
	if name == "" {
		name = pool.Attributes.Address
	}

	message := fmt.Sprintf("🆕 New pool %s on %s\n", name, html.EscapeString(pool.Dex()))
	message += fmt.Sprintf("\n<blockquote>Liquidity - %s\n", formatUSD(pool.ReserveUSD()))
	if mc := pool.MarketCapUSD(); mc > 0 {
		message += fmt.Sprintf("Market cap - %s\n", formatUSD(mc))
	}
	if createdAt := pool.CreatedAt(); !createdAt.IsZero() {
		message += fmt.Sprintf("Age - %s\n", formatAge(now.Sub(createdAt)))
	}
	if summary != nil {
		message += fmt.Sprintf("Safety score - %d (%s)\n", summary.Score, html.EscapeString(summary.RiskNames()))
	}
	message += fmt.Sprintf("Mint - <code>%s</code></blockquote>", html.EscapeString(pool.BaseTokenMint()))

	poolLink := fmt.Sprintf("https://www.geckoterminal.com/solana/pools/%s", pool.Attributes.Address)
	return message, poolLink
}

// formatTrendingMessage assembles the alert text for a trending pair.
func formatTrendingMessage(pair dexscreener.Pair) (string, string) {
	symbol := html.EscapeString(pair.BaseToken.Symbol)
	if symbol == "" {
		symbol = pair.BaseToken.Address
	}

	message := fmt.Sprintf("🔥 %s is trending (+%.1f%% 1h)\n", symbol, pair.PriceChange.H1)
	message += fmt.Sprintf("\n<blockquote>Price - $%s\n", html.EscapeString(pair.PriceUSD))
	message += fmt.Sprintf("Liquidity - %s\n", formatUSD(pair.Liquidity.USD))
	message += fmt.Sprintf("Volume 24h - %s\n", formatUSD(pair.Volume.H24))
	message += fmt.Sprintf("Dex - %s\n", html.EscapeString(pair.DexID))
	message += fmt.Sprintf("Pair - <code>%s</code></blockquote>", html.EscapeString(pair.PairAddress))

	pairLink := pair.URL
	if pairLink == "" {
		pairLink = fmt.Sprintf("https://dexscreener.com/solana/%s", pair.PairAddress)
	}
	return message, pairLink
}
