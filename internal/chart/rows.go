package chart

import (
	"encoding/json"
	"iter"

	"kotvukai/internal/domain"
)

// Volume histogram colors
const (
	VolumeUpColor   = "rgba(38,166,154,0.4)"
	VolumeDownColor = "rgba(239,83,80,0.4)"
)

// Row is one data point in a series. Candle and bar rows carry OHLC, line and
// histogram rows carry Value. Only the fields of the row's shape are encoded,
// zero prices included.
type Row struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`

	ohlc bool
}

type ohlcRow struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

type valueRow struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// IsOHLC reports whether the row is a candle or bar point
func (r Row) IsOHLC() bool {
	return r.ohlc
}

func (r Row) MarshalJSON() ([]byte, error) {
	if r.ohlc {
		return json.Marshal(ohlcRow{Time: r.Time, Open: r.Open, High: r.High, Low: r.Low, Close: r.Close})
	}
	return json.Marshal(valueRow{Time: r.Time, Value: r.Value, Color: r.Color})
}

// SeriesKind is the native shape of a chart series
type SeriesKind string

const (
	SeriesCandlestick SeriesKind = "candlestick"
	SeriesLine        SeriesKind = "line"
	SeriesBar         SeriesKind = "bar"
	SeriesHistogram   SeriesKind = "histogram"
)

// KindFor maps a representation onto the price series kind that draws it
func KindFor(rep domain.Representation) SeriesKind {
	switch rep {
	case domain.RepresentationLine:
		return SeriesLine
	case domain.RepresentationBars:
		return SeriesBar
	default:
		return SeriesCandlestick
	}
}

// PriceRows lazily shapes bars for the given representation
func PriceRows(bars []domain.Bar, rep domain.Representation) iter.Seq[Row] {
	line := rep == domain.RepresentationLine
	return func(yield func(Row) bool) {
		for _, b := range bars {
			r := Row{Time: b.Time}
			if line {
				r.Value = b.Close
			} else {
				r.Open, r.High, r.Low, r.Close = b.Open, b.High, b.Low, b.Close
				r.ohlc = true
			}
			if !yield(r) {
				return
			}
		}
	}
}

// VolumeRows lazily derives histogram rows colored by same-bar direction
func VolumeRows(bars []domain.Bar) iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for _, b := range bars {
			color := VolumeDownColor
			if b.IsUp() {
				color = VolumeUpColor
			}
			if !yield(Row{Time: b.Time, Value: b.Volume, Color: color}) {
				return
			}
		}
	}
}
