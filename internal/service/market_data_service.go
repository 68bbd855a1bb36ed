package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"kotvukai/internal/domain"
	"kotvukai/internal/trace"
)

const (
	DefaultBinanceBaseURL = "https://api.binance.com"
	DefaultFNGBaseURL     = "https://api.alternative.me"

	DefaultKlineLimit = 500
	MaxKlineLimit     = 1000

	// klineFields is the minimum tuple length: openTime, open, high, low, close, volume
	klineFields = 6
)

// MarketDataService fetches bars and tickers from Binance and the fear & greed
// index from alternative.me. Every payload is validated before it is returned.
type MarketDataService struct {
	httpClient *http.Client
	baseURL    string
	fngURL     string
}

var _ domain.MarketDataService = (*MarketDataService)(nil)

// NewMarketDataService creates a new MarketDataService. Empty URLs select the
// public endpoints.
func NewMarketDataService(binanceURL, fngURL string) *MarketDataService {
	if binanceURL == "" {
		binanceURL = DefaultBinanceBaseURL
	}
	if fngURL == "" {
		fngURL = DefaultFNGBaseURL
	}
	return &MarketDataService{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: strings.TrimRight(binanceURL, "/"),
		fngURL:  strings.TrimRight(fngURL, "/"),
	}
}

func (s *MarketDataService) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream error: status=%d, body=%s", resp.StatusCode, string(body))
	}
	return body, nil
}

// GetBars fetches up to limit klines, oldest first
func (s *MarketDataService) GetBars(ctx context.Context, symbol string, timeframe domain.Timeframe, limit int) ([]domain.Bar, error) {
	symbol = strings.ToUpper(symbol)
	if !domain.IsSupportedSymbol(symbol) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedSymbol, symbol)
	}
	if !timeframe.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedTimeframe, timeframe)
	}
	if limit <= 0 {
		limit = DefaultKlineLimit
	}
	limit = min(limit, MaxKlineLimit)

	ctx, span := trace.StartSpan(ctx, "market.GetBars",
		attribute.String("symbol", symbol),
		attribute.String("timeframe", string(timeframe)),
	)
	defer span.End()

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", string(timeframe))
	q.Set("limit", strconv.Itoa(limit))

	body, err := s.get(ctx, s.baseURL+"/api/v3/klines?"+q.Encode())
	if err != nil {
		trace.RecordError(ctx, err)
		return nil, err
	}

	bars, err := ParseKlines(body)
	if err != nil {
		trace.RecordError(ctx, err)
		return nil, err
	}
	return bars, nil
}

// ParseKlines decodes a Binance klines payload. The payload must be an array
// of arrays with at least six fields; numeric strings are parsed exactly and
// any bad field rejects the whole batch.
func ParseKlines(body []byte) ([]domain.Bar, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: klines is not an array: %v", domain.ErrMalformedPayload, err)
	}

	bars := make([]domain.Bar, 0, len(rows))
	for i, raw := range rows {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var fields []any
		if err := dec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("%w: kline %d is not an array", domain.ErrMalformedPayload, i)
		}
		if len(fields) < klineFields {
			return nil, fmt.Errorf("%w: kline %d has %d fields", domain.ErrMalformedPayload, i, len(fields))
		}

		var vals [klineFields]decimal.Decimal
		for j := 0; j < klineFields; j++ {
			d, err := toDecimal(fields[j])
			if err != nil {
				return nil, fmt.Errorf("%w: kline %d field %d: %v", domain.ErrMalformedPayload, i, j, err)
			}
			vals[j] = d
		}

		bars = append(bars, domain.Bar{
			Time:   vals[0].IntPart() / 1000,
			Open:   vals[1].InexactFloat64(),
			High:   vals[2].InexactFloat64(),
			Low:    vals[3].InexactFloat64(),
			Close:  vals[4].InexactFloat64(),
			Volume: vals[5].InexactFloat64(),
		})
	}
	return bars, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case json.Number:
		return decimal.NewFromString(x.String())
	case string:
		return decimal.NewFromString(x)
	default:
		return decimal.Decimal{}, fmt.Errorf("unexpected %T", v)
	}
}

type binanceTicker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
	WeightedAvgPrice   string `json:"weightedAvgPrice"`
	QuoteVolume        string `json:"quoteVolume"`
}

// GetTickers returns 24h tickers for the supported symbols in display order
func (s *MarketDataService) GetTickers(ctx context.Context) ([]domain.Ticker, error) {
	ctx, span := trace.StartSpan(ctx, "market.GetTickers")
	defer span.End()

	body, err := s.get(ctx, s.baseURL+"/api/v3/ticker/24hr")
	if err != nil {
		trace.RecordError(ctx, err)
		return nil, err
	}

	var raw []binanceTicker
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: tickers: %v", domain.ErrMalformedPayload, err)
	}

	bySymbol := make(map[string]binanceTicker, len(domain.SupportedSymbols))
	for _, t := range raw {
		if domain.IsSupportedSymbol(t.Symbol) {
			bySymbol[t.Symbol] = t
		}
	}

	tickers := make([]domain.Ticker, 0, len(bySymbol))
	for _, symbol := range domain.SupportedSymbols {
		t, ok := bySymbol[symbol]
		if !ok {
			continue
		}
		ticker, err := t.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: ticker %s: %v", domain.ErrMalformedPayload, symbol, err)
		}
		tickers = append(tickers, ticker)
	}
	return tickers, nil
}

func (t binanceTicker) toDomain() (domain.Ticker, error) {
	fields := []string{t.LastPrice, t.PriceChangePercent, t.HighPrice, t.LowPrice, t.Volume, t.WeightedAvgPrice, t.QuoteVolume}
	vals := make([]float64, len(fields))
	for i, f := range fields {
		d, err := decimal.NewFromString(f)
		if err != nil {
			return domain.Ticker{}, err
		}
		vals[i] = d.InexactFloat64()
	}
	return domain.Ticker{
		Symbol:             t.Symbol,
		LastPrice:          vals[0],
		PriceChangePercent: vals[1],
		HighPrice:          vals[2],
		LowPrice:           vals[3],
		Volume:             vals[4],
		WeightedAvgPrice:   vals[5],
		QuoteVolume:        vals[6],
	}, nil
}

// GetTicker returns the 24h ticker for one supported symbol
func (s *MarketDataService) GetTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	symbol = strings.ToUpper(symbol)
	if !domain.IsSupportedSymbol(symbol) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedSymbol, symbol)
	}
	tickers, err := s.GetTickers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tickers {
		if tickers[i].Symbol == symbol {
			return &tickers[i], nil
		}
	}
	return nil, fmt.Errorf("ticker %s: %w", symbol, domain.ErrNotFound)
}

// GetFearGreedIndex returns the latest fear & greed reading
func (s *MarketDataService) GetFearGreedIndex(ctx context.Context) (*domain.FearGreed, error) {
	ctx, span := trace.StartSpan(ctx, "market.GetFearGreedIndex")
	defer span.End()

	body, err := s.get(ctx, s.fngURL+"/fng/?limit=1")
	if err != nil {
		trace.RecordError(ctx, err)
		return nil, err
	}
	return ParseFearGreed(body)
}

// ParseFearGreed decodes the first reading of an alternative.me payload
func ParseFearGreed(body []byte) (*domain.FearGreed, error) {
	var payload struct {
		Data []struct {
			Value          string `json:"value"`
			Classification string `json:"value_classification"`
			Timestamp      string `json:"timestamp"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: fng: %v", domain.ErrMalformedPayload, err)
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("%w: fng has no data", domain.ErrMalformedPayload)
	}

	d := payload.Data[0]
	value, err := strconv.Atoi(d.Value)
	if err != nil || value < 0 || value > 100 {
		return nil, fmt.Errorf("%w: fng value %q", domain.ErrMalformedPayload, d.Value)
	}
	fg := &domain.FearGreed{Value: value, Classification: d.Classification}
	if ts, err := strconv.ParseInt(d.Timestamp, 10, 64); err == nil {
		fg.Timestamp = time.Unix(ts, 0).UTC()
	}
	return fg, nil
}
