package bots_monitor

// Candidate filters. Every filter is an independent boolean check; the
// verdict distinguishes terminal rejections (never look at this identifier
// again) from retryable ones (conditions may be met on a later cycle), and
// the claim protocol treats the two differently.

import (
	"strings"
	"time"

	"pool-sentry/internal/clients_api/dexscreener"
	"pool-sentry/internal/clients_api/geckoterminal"
)

type Verdict int

const (
	// VerdictPass means all filters passed and an alert should be sent.
	VerdictPass Verdict = iota
	// VerdictRejectTerminal means the candidate can never pass (too old,
	// wrong dex); it is marked processed so it is skipped permanently.
	VerdictRejectTerminal
	// VerdictRejectRetry means the candidate fails now but might pass later
	// (liquidity still ramping); the claim is released without marking.
	VerdictRejectRetry
)

type FilterResult struct {
	Verdict Verdict
	Reason  string
}

type PoolFilters struct {
	MaxPoolAge      time.Duration
	MinLiquidityUSD float64
	MaxMarketCapUSD float64
	AllowedDexes    []string
}

// EvaluatePool applies the new-pool heuristics in cheapest-first order.
func EvaluatePool(pool geckoterminal.Pool, filters PoolFilters, now time.Time) FilterResult {
	if !isDexAllowed(pool.Dex(), filters.AllowedDexes) {
		return FilterResult{Verdict: VerdictRejectTerminal, Reason: "dex_not_allowed"}
	}

	createdAt := pool.CreatedAt()
	if createdAt.IsZero() {
		// Listings sometimes surface before the creation timestamp does.
		return FilterResult{Verdict: VerdictRejectRetry, Reason: "created_at_missing"}
	}
	if filters.MaxPoolAge > 0 && now.Sub(createdAt) > filters.MaxPoolAge {
		return FilterResult{Verdict: VerdictRejectTerminal, Reason: "pool_too_old"}
	}

	if filters.MaxMarketCapUSD > 0 {
		if mc := pool.MarketCapUSD(); mc > filters.MaxMarketCapUSD {
			return FilterResult{Verdict: VerdictRejectTerminal, Reason: "market_cap_too_high"}
		}
	}

	if pool.ReserveUSD() < filters.MinLiquidityUSD {
		return FilterResult{Verdict: VerdictRejectRetry, Reason: "liquidity_below_min"}
	}

	return FilterResult{Verdict: VerdictPass}
}

type PairFilters struct {
	MaxPairAge       time.Duration
	MinLiquidityUSD  float64
	MinPriceChangeH1 float64
}

// EvaluatePair applies the trending heuristics to a DexScreener pair. Pairs
// past MaxPairAge are old news for a momentum signal and never recover.
func EvaluatePair(pair dexscreener.Pair, filters PairFilters, now time.Time) FilterResult {
	if !strings.EqualFold(pair.ChainID, "solana") {
		return FilterResult{Verdict: VerdictRejectTerminal, Reason: "wrong_chain"}
	}

	if filters.MaxPairAge > 0 {
		if createdAt := pair.CreatedAt(); !createdAt.IsZero() && now.Sub(createdAt) > filters.MaxPairAge {
			return FilterResult{Verdict: VerdictRejectTerminal, Reason: "pair_too_old"}
		}
	}

	if pair.Liquidity.USD < filters.MinLiquidityUSD {
		return FilterResult{Verdict: VerdictRejectRetry, Reason: "liquidity_below_min"}
	}

	if pair.PriceChange.H1 < filters.MinPriceChangeH1 {
		return FilterResult{Verdict: VerdictRejectRetry, Reason: "price_change_below_min"}
	}

	return FilterResult{Verdict: VerdictPass}
}

// isDexAllowed treats an empty allowlist as allow-all.
func isDexAllowed(dex string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSpace(a), dex) {
			return true
		}
	}
	return false
}
