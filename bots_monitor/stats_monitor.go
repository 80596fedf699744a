package bots_monitor

// Daily digest: once a day, sends a summary of monitor activity to the
// new-pools chat together with a bar chart of alerts over the last week.

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"pool-sentry/internal/dedup"
	"pool-sentry/internal/features/alertstats"
	"pool-sentry/internal/features/tg_charts"
	log "pool-sentry/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type StatsMonitor struct {
	Bot      *tgbotapi.BotAPI
	Store    dedup.Store
	Recorder *alertstats.Recorder
	ChatID   string

	// SendTime is "HH:MM" in UTC.
	SendTime string
}

func (m *StatsMonitor) Run(ctx context.Context) {
	if m.Bot == nil || m.ChatID == "" {
		log.LogWarn("Stats monitor not started: bot or chat ID missing")
		return
	}

	sendTime := m.SendTime
	timeParts := strings.Split(sendTime, ":")
	if len(timeParts) != 2 {
		log.LogWarn("Invalid send time format, using default 10:00", zap.String("sendTime", sendTime))
		sendTime = "10:00"
		timeParts = []string{"10", "00"}
	}

	var hour, minute int
	fmt.Sscanf(timeParts[0], "%d", &hour)
	fmt.Sscanf(timeParts[1], "%d", &minute)

	now := time.Now().UTC()
	nextSend := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if now.After(nextSend) || now.Equal(nextSend) {
		nextSend = nextSend.Add(24 * time.Hour)
	}

	delay := nextSend.Sub(now)
	log.LogInfo("Stats monitor scheduled",
		zap.String("sendTime", sendTime),
		zap.Time("nextSend", nextSend),
		zap.Duration("delay", delay))

	firstTimer := time.NewTimer(delay)
	defer firstTimer.Stop()

	select {
	case <-ctx.Done():
		log.LogInfo("Stats monitor stopped")
		return
	case <-firstTimer.C:
		m.sendDigest(ctx)
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.LogInfo("Stats monitor stopped")
			return
		case <-ticker.C:
			m.sendDigest(ctx)
		}
	}
}

func (m *StatsMonitor) sendDigest(ctx context.Context) {
	digest := m.formatDigestMessage(ctx)

	chartPath, err := tg_charts.GenerateAlertsChart(m.Recorder)
	if err != nil {
		log.LogWarn("Failed to generate alerts chart", zap.Error(err))
		m.sendTextDigest(digest)
		return
	}

	if _, err := os.Stat(chartPath); os.IsNotExist(err) {
		log.LogError("Chart file does not exist", zap.String("chartPath", chartPath), zap.Error(err))
		m.sendTextDigest(digest)
		return
	}

	photo := tgbotapi.NewPhoto(parseChatID(m.ChatID), tgbotapi.FilePath(chartPath))
	photo.Caption = digest
	photo.ParseMode = tgbotapi.ModeHTML

	if _, err := m.Bot.Send(photo); err != nil {
		log.LogError("Failed to send stats chart", zap.Error(err))
		m.sendTextDigest(digest)
		return
	}

	log.LogSuccess("Daily digest sent", zap.String("chatID", m.ChatID))
}

func (m *StatsMonitor) sendTextDigest(digest string) {
	msg := tgbotapi.NewMessage(parseChatID(m.ChatID), digest)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := m.Bot.Send(msg); err != nil {
		log.LogError("Failed to send stats message", zap.Error(err))
		return
	}
	log.LogSuccess("Daily digest sent (text only)", zap.String("chatID", m.ChatID))
}

func (m *StatsMonitor) formatDigestMessage(ctx context.Context) string {
	message := "📊 Daily digest\n"
	message += fmt.Sprintf("\n<blockquote>Alerts today - %d\n", m.Recorder.Today())

	total := 0
	for _, d := range m.Recorder.LastNDays(7) {
		total += d.Count
	}
	message += fmt.Sprintf("Alerts last 7 days - %d\n", total)

	if m.Store != nil {
		if count, err := m.Store.Count(ctx); err != nil {
			log.LogWarn("Failed to count processed identifiers", zap.Error(err))
		} else {
			message += fmt.Sprintf("Identifiers processed - %d\n", count)
		}
	}

	message += fmt.Sprintf("Generated - %s</blockquote>", time.Now().UTC().Format("2006-01-02 15:04 UTC"))
	return message
}
