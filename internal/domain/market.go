package domain

import (
	"context"
	"slices"
	"strings"
	"time"
)

// Bar represents one OHLCV interval. Time is the open time in unix seconds.
type Bar struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// IsUp reports whether the bar closed at or above its open
func (b Bar) IsUp() bool {
	return b.Close >= b.Open
}

// Ticker is a 24h rolling window snapshot for one symbol
type Ticker struct {
	Symbol             string  `json:"symbol"`
	LastPrice          float64 `json:"lastPrice"`
	PriceChangePercent float64 `json:"priceChangePercent"`
	HighPrice          float64 `json:"highPrice"`
	LowPrice           float64 `json:"lowPrice"`
	Volume             float64 `json:"volume"`
	WeightedAvgPrice   float64 `json:"weightedAvgPrice"`
	QuoteVolume        float64 `json:"quoteVolume"`
}

// FearGreed is the latest Crypto Fear & Greed index reading
type FearGreed struct {
	Value          int       `json:"value"`
	Classification string    `json:"value_classification"`
	Timestamp      time.Time `json:"timestamp"`
}

// Timeframe is a kline interval supported by the dashboard
type Timeframe string

// Timeframe constants
const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
	Timeframe1w  Timeframe = "1w"
)

// SupportedTimeframes lists timeframes in display order
var SupportedTimeframes = []Timeframe{
	Timeframe1m, Timeframe5m, Timeframe15m, Timeframe1h, Timeframe4h, Timeframe1d, Timeframe1w,
}

// Valid reports whether the timeframe is one of SupportedTimeframes
func (tf Timeframe) Valid() bool {
	return slices.Contains(SupportedTimeframes, tf)
}

// SupportedSymbols lists the USDT pairs the dashboard tracks, in display order
var SupportedSymbols = []string{
	"BTCUSDT", "ETHUSDT", "BNBUSDT", "XRPUSDT", "ADAUSDT",
	"SOLUSDT", "DOGEUSDT", "DOTUSDT", "MATICUSDT", "AVAXUSDT",
}

// IsSupportedSymbol checks a symbol against SupportedSymbols (case-insensitive)
func IsSupportedSymbol(symbol string) bool {
	symbol = strings.ToUpper(symbol)
	for _, s := range SupportedSymbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// MarketDataService is the market-data collaborator
type MarketDataService interface {
	// GetBars returns time-ordered bars for symbol and timeframe
	GetBars(ctx context.Context, symbol string, timeframe Timeframe, limit int) ([]Bar, error)

	// GetTickers returns 24h tickers for SupportedSymbols
	GetTickers(ctx context.Context) ([]Ticker, error)

	// GetFearGreedIndex returns the latest fear & greed reading
	GetFearGreedIndex(ctx context.Context) (*FearGreed, error)
}
