package bots_monitor

// New pools monitor: polls GeckoTerminal for freshly created Solana pools,
// claims each candidate through the dedup store, filters, runs the RugCheck
// safety gate and alerts the configured chat. Single logical worker: one
// candidate at a time, rate limiting handled inside the API clients.

import (
	"context"
	"strconv"
	"time"

	"pool-sentry/internal/clients_api/geckoterminal"
	"pool-sentry/internal/clients_api/rugcheck"
	"pool-sentry/internal/dedup"
	"pool-sentry/internal/features/alertstats"
	log "pool-sentry/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const solanaNetwork = "solana"

type NewPoolsMonitor struct {
	Bot      *tgbotapi.BotAPI
	Gecko    *geckoterminal.Client
	Rug      *rugcheck.Client
	Store    dedup.Store
	Recorder *alertstats.Recorder
	ChatID   string

	PollInterval time.Duration
	Lease        time.Duration
	Filters      PoolFilters
	MaxRugScore  int
}

func (m *NewPoolsMonitor) Run(ctx context.Context) {
	if m.Bot == nil || m.ChatID == "" {
		log.LogWarn("New pools monitor not started: bot or chat ID missing")
		return
	}

	log.LogInfo("Starting New Pools Monitor...",
		zap.String("chatID", m.ChatID),
		zap.Duration("pollInterval", m.PollInterval),
		zap.Duration("lease", m.Lease),
		zap.Float64("minLiquidityUSD", m.Filters.MinLiquidityUSD),
		zap.Strings("allowedDexes", m.Filters.AllowedDexes))

	ticker := time.NewTicker(m.PollInterval)
	defer ticker.Stop()

	// First cycle runs immediately instead of waiting a full tick.
	m.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			log.LogInfo("New pools monitor stopped")
			return
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

func (m *NewPoolsMonitor) runCycle(ctx context.Context) {
	poolsResp, err := m.Gecko.GetNewPools(ctx, solanaNetwork, 1)
	if err != nil {
		log.LogError("Failed to get new pools", zap.Error(err))
		return
	}

	log.LogDebug("Fetched new pools", zap.Int("count", len(poolsResp.Data)))

	for _, pool := range poolsResp.Data {
		if ctx.Err() != nil {
			return
		}
		m.processPool(ctx, pool)
	}
}

func (m *NewPoolsMonitor) processPool(ctx context.Context, pool geckoterminal.Pool) {
	id := pool.Attributes.Address
	if id == "" {
		return
	}

	handle, proceed := claimCandidate(ctx, m.Store, id, m.Lease)
	if !proceed {
		return
	}

	now := time.Now()
	result := EvaluatePool(pool, m.Filters, now)
	switch result.Verdict {
	case VerdictRejectRetry:
		log.LogDebug("Pool deferred", zap.String("pool", id), zap.String("reason", result.Reason))
		handle.settleRetry(ctx)
		return
	case VerdictRejectTerminal:
		log.LogDebug("Pool rejected", zap.String("pool", id), zap.String("reason", result.Reason))
		handle.settleTerminal(ctx, map[string]string{
			"reason": result.Reason,
			"dex":    pool.Dex(),
		})
		return
	}

	summary, err := m.Rug.GetReportSummary(ctx, pool.BaseTokenMint())
	if err != nil {
		// Safety data is required before alerting; retry next cycle.
		log.LogWarn("Failed to get RugCheck report, deferring pool",
			zap.String("pool", id),
			zap.String("mint", pool.BaseTokenMint()),
			zap.Error(err))
		handle.settleRetry(ctx)
		return
	}

	if m.MaxRugScore > 0 && summary.Score > m.MaxRugScore {
		log.LogInfo("Pool rejected by safety score",
			zap.String("pool", id),
			zap.Int("score", summary.Score),
			zap.Int("maxScore", m.MaxRugScore))
		handle.settleTerminal(ctx, map[string]string{
			"reason":    "rug_score_too_high",
			"rug_score": strconv.Itoa(summary.Score),
		})
		return
	}

	message, poolLink := formatNewPoolMessage(pool, summary, now)
	if err := sendAlert(ctx, m.Bot, m.ChatID, message, "View on GeckoTerminal", poolLink); err != nil {
		// Keep the identifier unprocessed so the next cycle retries the send.
		handle.settleRetry(ctx)
		return
	}

	log.LogSuccess("Sent new pool alert",
		zap.String("pool", id),
		zap.String("dex", pool.Dex()),
		zap.Float64("liquidityUSD", pool.ReserveUSD()))
	m.Recorder.Record()

	handle.settleTerminal(ctx, map[string]string{
		"reason":        "signal_sent",
		"name":          pool.Attributes.Name,
		"dex":           pool.Dex(),
		"liquidity_usd": strconv.FormatFloat(pool.ReserveUSD(), 'f', 2, 64),
		"rug_score":     strconv.Itoa(summary.Score),
		"sent_at":       now.UTC().Format(time.RFC3339),
	})
}
