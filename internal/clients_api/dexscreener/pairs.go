package dexscreener

// Pair search and lookups. Prices come back as strings, liquidity and
// volume as numbers; pairCreatedAt is a millisecond Unix timestamp.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

type PairsResponse struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []Pair `json:"pairs"`
}

type Pair struct {
	ChainID       string       `json:"chainId"`
	DexID         string       `json:"dexId"`
	PairAddress   string       `json:"pairAddress"`
	BaseToken     Token        `json:"baseToken"`
	QuoteToken    Token        `json:"quoteToken"`
	PriceNative   string       `json:"priceNative"`
	PriceUSD      string       `json:"priceUsd"`
	Txns          Transactions `json:"txns"`
	Volume        Volume       `json:"volume"`
	PriceChange   PriceChange  `json:"priceChange"`
	Liquidity     Liquidity    `json:"liquidity"`
	FDV           float64      `json:"fdv"`
	MarketCap     float64      `json:"marketCap"`
	PairCreatedAt int64        `json:"pairCreatedAt"`
	URL           string       `json:"url"`
}

type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type Transactions struct {
	M5  BuysSells `json:"m5"`
	H1  BuysSells `json:"h1"`
	H6  BuysSells `json:"h6"`
	H24 BuysSells `json:"h24"`
}

type BuysSells struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

type Volume struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

type PriceChange struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

type Liquidity struct {
	USD   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// PriceUSDFloat parses the string price, 0 when unparseable.
func (p Pair) PriceUSDFloat() float64 {
	v, err := strconv.ParseFloat(p.PriceUSD, 64)
	if err != nil {
		return 0
	}
	return v
}

// CreatedAt converts the millisecond timestamp; zero time when absent.
func (p Pair) CreatedAt() time.Time {
	if p.PairCreatedAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(p.PairCreatedAt)
}

// SearchPairs runs a free-text pair search, e.g. "SOL/USDC".
func (c *Client) SearchPairs(ctx context.Context, query string) (*PairsResponse, error) {
	endpoint := "/latest/dex/search?q=" + url.QueryEscape(query)

	respBody, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to search pairs: %w", err)
	}

	var pairsResp PairsResponse
	if err := json.Unmarshal(respBody, &pairsResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pairs response: %w", err)
	}
	return &pairsResp, nil
}
