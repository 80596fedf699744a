package bots_monitor

// Trending monitor: polls DexScreener search for Solana pairs with strong
// short-term momentum. Pairs are keyed by pair address in the dedup store,
// so each pair alerts at most once even across restarts.

import (
	"context"
	"strconv"
	"time"

	"pool-sentry/internal/clients_api/dexscreener"
	"pool-sentry/internal/dedup"
	"pool-sentry/internal/features/alertstats"
	log "pool-sentry/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const trendingSearchQuery = "SOL"

type TrendingMonitor struct {
	Bot      *tgbotapi.BotAPI
	Dex      *dexscreener.Client
	Store    dedup.Store
	Recorder *alertstats.Recorder
	ChatID   string

	PollInterval time.Duration
	Lease        time.Duration
	Filters      PairFilters
}

func (m *TrendingMonitor) Run(ctx context.Context) {
	if m.Bot == nil || m.ChatID == "" {
		log.LogWarn("Trending monitor not started: bot or chat ID missing")
		return
	}

	log.LogInfo("Starting Trending Monitor...",
		zap.String("chatID", m.ChatID),
		zap.Duration("pollInterval", m.PollInterval),
		zap.Float64("minLiquidityUSD", m.Filters.MinLiquidityUSD),
		zap.Float64("minPriceChangeH1", m.Filters.MinPriceChangeH1))

	ticker := time.NewTicker(m.PollInterval)
	defer ticker.Stop()

	m.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			log.LogInfo("Trending monitor stopped")
			return
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

func (m *TrendingMonitor) runCycle(ctx context.Context) {
	pairsResp, err := m.Dex.SearchPairs(ctx, trendingSearchQuery)
	if err != nil {
		log.LogError("Failed to search pairs", zap.Error(err))
		return
	}

	log.LogDebug("Fetched pairs", zap.Int("count", len(pairsResp.Pairs)))

	for _, pair := range pairsResp.Pairs {
		if ctx.Err() != nil {
			return
		}
		m.processPair(ctx, pair)
	}
}

func (m *TrendingMonitor) processPair(ctx context.Context, pair dexscreener.Pair) {
	id := pair.PairAddress
	if id == "" {
		return
	}

	handle, proceed := claimCandidate(ctx, m.Store, id, m.Lease)
	if !proceed {
		return
	}

	result := EvaluatePair(pair, m.Filters, time.Now())
	switch result.Verdict {
	case VerdictRejectRetry:
		log.LogDebug("Pair deferred", zap.String("pair", id), zap.String("reason", result.Reason))
		handle.settleRetry(ctx)
		return
	case VerdictRejectTerminal:
		log.LogDebug("Pair rejected", zap.String("pair", id), zap.String("reason", result.Reason))
		handle.settleTerminal(ctx, map[string]string{
			"reason": result.Reason,
			"chain":  pair.ChainID,
		})
		return
	}

	message, pairLink := formatTrendingMessage(pair)
	if err := sendAlert(ctx, m.Bot, m.ChatID, message, "View on DexScreener", pairLink); err != nil {
		handle.settleRetry(ctx)
		return
	}

	log.LogSuccess("Sent trending alert",
		zap.String("pair", id),
		zap.String("symbol", pair.BaseToken.Symbol),
		zap.Float64("priceChangeH1", pair.PriceChange.H1))
	m.Recorder.Record()

	handle.settleTerminal(ctx, map[string]string{
		"reason":          "signal_sent",
		"symbol":          pair.BaseToken.Symbol,
		"dex":             pair.DexID,
		"price_usd":       pair.PriceUSD,
		"price_change_h1": strconv.FormatFloat(pair.PriceChange.H1, 'f', 2, 64),
		"sent_at":         time.Now().UTC().Format(time.RFC3339),
	})
}
