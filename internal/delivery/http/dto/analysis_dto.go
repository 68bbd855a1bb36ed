package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"kotvukai/internal/analysis"
	"kotvukai/internal/domain"
)

// AnalyzeRequest is the body of POST /api/ai/analyze. Numeric market data may
// arrive as JSON numbers or as exchange-style strings.
type AnalyzeRequest struct {
	Symbol     string              `json:"symbol"`
	Price      float64             `json:"price"`
	Change24h  float64             `json:"change24h"`
	High       float64             `json:"high"`
	Low        float64             `json:"low"`
	Volume     float64             `json:"volume"`
	FNG        decimal.NullDecimal `json:"fng"`
	MarketData *MarketData         `json:"marketData"`
}

type MarketData struct {
	WeightedAvgPrice decimal.Decimal `json:"weightedAvgPrice"`
	QuoteVolume      decimal.Decimal `json:"quoteVolume"`
}

// FearGreed returns the caller-supplied index, nil when absent or null. The
// value must be a whole number in 0..100.
func (r AnalyzeRequest) FearGreed() (*int, error) {
	if !r.FNG.Valid {
		return nil, nil
	}
	d := r.FNG.Decimal
	if !d.Equal(d.Truncate(0)) || d.LessThan(decimal.Zero) || d.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("%w: fng must be an integer between 0 and 100, got %s", domain.ErrInvalidInput, d)
	}
	v := int(d.IntPart())
	return &v, nil
}

// HasQuote reports whether the request carries price data
func (r AnalyzeRequest) HasQuote() bool {
	return r.Price > 0
}

// Ticker converts the request into the ticker the extractor consumes
func (r AnalyzeRequest) Ticker() domain.Ticker {
	t := domain.Ticker{
		Symbol:             r.Symbol,
		LastPrice:          r.Price,
		PriceChangePercent: r.Change24h,
		HighPrice:          r.High,
		LowPrice:           r.Low,
		Volume:             r.Volume,
	}
	if r.MarketData != nil {
		t.WeightedAvgPrice = r.MarketData.WeightedAvgPrice.InexactFloat64()
		t.QuoteVolume = r.MarketData.QuoteVolume.InexactFloat64()
	}
	return t
}

// SectionView is a section with its body pre-tokenized
type SectionView struct {
	Title string          `json:"title"`
	Body  string          `json:"body"`
	Spans []analysis.Span `json:"spans"`
}

// AnalysisView is the full detail view of one record
type AnalysisView struct {
	Symbol      string        `json:"symbol"`
	Analysis    string        `json:"analysis"`
	Direction   *string       `json:"direction"`
	Failed      bool          `json:"failed"`
	Preview     string        `json:"preview"`
	Sections    []SectionView `json:"sections"`
	RequestedAt time.Time     `json:"requested_at"`
	CompletedAt time.Time     `json:"completed_at"`
}

// AnalysisCard is the compact list view of one record
type AnalysisCard struct {
	Symbol      string    `json:"symbol"`
	Direction   *string   `json:"direction"`
	Failed      bool      `json:"failed"`
	Preview     string    `json:"preview"`
	CompletedAt time.Time `json:"completed_at"`
}

// AnalysesResponse is the body of GET /api/ai/analyses
type AnalysesResponse struct {
	Analyzed int            `json:"analyzed"`
	Pending  []string       `json:"pending"`
	Cards    []AnalysisCard `json:"cards"`
}

// RequestAnalysisResponse is the body of the async request endpoint
type RequestAnalysisResponse struct {
	Symbol  string `json:"symbol"`
	Started bool   `json:"started"`
	Pending bool   `json:"pending"`
	Cached  bool   `json:"cached"`
}

func badge(d domain.Direction) *string {
	if !d.HasBadge() {
		return nil
	}
	s := string(d)
	return &s
}

// NewAnalysisView renders a record for the detail view
func NewAnalysisView(rec domain.AnalysisRecord) AnalysisView {
	sections := analysis.Sectionize(rec.RawText)
	views := make([]SectionView, 0, len(sections))
	for _, s := range sections {
		views = append(views, SectionView{Title: s.Title, Body: s.Body, Spans: analysis.Spans(s.Body)})
	}
	return AnalysisView{
		Symbol:      rec.Symbol,
		Analysis:    rec.RawText,
		Direction:   badge(rec.Direction),
		Failed:      rec.Failed,
		Preview:     analysis.Preview(rec.RawText, analysis.DefaultPreviewChars),
		Sections:    views,
		RequestedAt: rec.RequestedAt,
		CompletedAt: rec.CompletedAt,
	}
}

// NewAnalysisCard renders a record for the card list
func NewAnalysisCard(rec domain.AnalysisRecord) AnalysisCard {
	return AnalysisCard{
		Symbol:      rec.Symbol,
		Direction:   badge(rec.Direction),
		Failed:      rec.Failed,
		Preview:     analysis.Preview(rec.RawText, analysis.DefaultPreviewChars),
		CompletedAt: rec.CompletedAt,
	}
}
