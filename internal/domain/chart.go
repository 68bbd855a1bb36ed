package domain

import (
	"fmt"
	"strings"
)

// Representation is the visual shape of the price series
type Representation string

// Representation constants
const (
	RepresentationCandles Representation = "Candles"
	RepresentationLine    Representation = "Line"
	RepresentationBars    Representation = "Bars"
)

// ParseRepresentation accepts candles/candlestick/line/bars in any case.
// An empty string defaults to candles.
func ParseRepresentation(s string) (Representation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "candles", "candlestick":
		return RepresentationCandles, nil
	case "line":
		return RepresentationLine, nil
	case "bars", "bar":
		return RepresentationBars, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedRepresentation, s)
	}
}

// ChartConfig is the desired (symbol, timeframe, representation) triple
type ChartConfig struct {
	Symbol         string         `json:"symbol"`
	Timeframe      Timeframe      `json:"timeframe"`
	Representation Representation `json:"representation"`
}

// Validate checks every field against the supported sets
func (c ChartConfig) Validate() error {
	if !IsSupportedSymbol(c.Symbol) {
		return fmt.Errorf("%w: %q", ErrUnsupportedSymbol, c.Symbol)
	}
	if !c.Timeframe.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedTimeframe, c.Timeframe)
	}
	switch c.Representation {
	case RepresentationCandles, RepresentationLine, RepresentationBars:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedRepresentation, c.Representation)
	}
	return nil
}

// SameData reports whether both configs draw the same bar stream
func (c ChartConfig) SameData(other ChartConfig) bool {
	return c.Symbol == other.Symbol && c.Timeframe == other.Timeframe
}
