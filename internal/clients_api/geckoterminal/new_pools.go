package geckoterminal

// Newly created pool listings. GeckoTerminal speaks JSON:API: numeric fields
// arrive as strings, relationships carry the dex and base token references.

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type NewPoolsResponse struct {
	Data []Pool `json:"data"`
}

type Pool struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Attributes    PoolAttributes    `json:"attributes"`
	Relationships PoolRelationships `json:"relationships"`
}

type PoolAttributes struct {
	Name                  string            `json:"name"`
	Address               string            `json:"address"`
	BaseTokenPriceUSD     string            `json:"base_token_price_usd"`
	PoolCreatedAt         string            `json:"pool_created_at"`
	ReserveInUSD          string            `json:"reserve_in_usd"`
	FdvUSD                string            `json:"fdv_usd"`
	MarketCapUSD          *string           `json:"market_cap_usd"`
	PriceChangePercentage map[string]string `json:"price_change_percentage"`
	VolumeUSD             map[string]string `json:"volume_usd"`
}

type PoolRelationships struct {
	BaseToken  RelationshipData `json:"base_token"`
	QuoteToken RelationshipData `json:"quote_token"`
	Dex        RelationshipData `json:"dex"`
}

type RelationshipData struct {
	Data RelationshipRef `json:"data"`
}

type RelationshipRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// CreatedAt parses the pool creation timestamp; zero time when absent.
func (p Pool) CreatedAt() time.Time {
	t, err := time.Parse(time.RFC3339, p.Attributes.PoolCreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ReserveUSD returns pool liquidity in USD, 0 when unparseable.
func (p Pool) ReserveUSD() float64 {
	return parseAmount(p.Attributes.ReserveInUSD)
}

// MarketCapUSD prefers the reported market cap and falls back to FDV, which
// is what GeckoTerminal itself displays for fresh pools.
func (p Pool) MarketCapUSD() float64 {
	if p.Attributes.MarketCapUSD != nil {
		if v := parseAmount(*p.Attributes.MarketCapUSD); v > 0 {
			return v
		}
	}
	return parseAmount(p.Attributes.FdvUSD)
}

// PriceChangeH1 returns the 1h price change percentage.
func (p Pool) PriceChangeH1() float64 {
	return parseAmount(p.Attributes.PriceChangePercentage["h1"])
}

// Dex returns the dex identifier ("raydium", "orca", ...).
func (p Pool) Dex() string {
	return p.Relationships.Dex.Data.ID
}

// BaseTokenMint strips the network prefix from the base token reference,
// e.g. "solana_So111...112" -> "So111...112".
func (p Pool) BaseTokenMint() string {
	id := p.Relationships.BaseToken.Data.ID
	if idx := strings.Index(id, "_"); idx >= 0 {
		return id[idx+1:]
	}
	return id
}

func parseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// GetNewPools fetches the latest pools for a network, newest first.
// page starts at 1.
func (c *Client) GetNewPools(ctx context.Context, network string, page int) (*NewPoolsResponse, error) {
	endpoint := fmt.Sprintf("/networks/%s/new_pools", network)
	if page > 1 {
		endpoint += fmt.Sprintf("?page=%d", page)
	}

	respBody, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get new pools: %w", err)
	}

	var poolsResp NewPoolsResponse
	if err := json.Unmarshal(respBody, &poolsResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal new pools response: %w", err)
	}
	return &poolsResp, nil
}
