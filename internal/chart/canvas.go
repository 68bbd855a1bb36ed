package chart

import (
	"iter"
	"slices"
	"sync"
)

// VolumeScaleID is the overlay price scale the volume histogram is drawn on
const VolumeScaleID = "vol"

// ScaleMargins positions a price scale inside the pane (fractions of height)
type ScaleMargins struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Canvas is the server-side chart instance. The client draws whatever its
// Snapshot describes.
type Canvas struct {
	mu      sync.RWMutex
	width   int
	height  int
	series  []*Series
	nextID  int
	fits    int
	scales  map[string]ScaleMargins
	removed bool
}

// Series is one series attached to a Canvas
type Series struct {
	canvas     *Canvas
	id         int
	kind       SeriesKind
	priceScale string
	rows       []Row
}

// NewCanvas creates an empty chart sized width x height
func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		width:  width,
		height: height,
		scales: make(map[string]ScaleMargins),
	}
}

// AddSeries attaches a new series. priceScale may be empty for the default
// right scale.
func (c *Canvas) AddSeries(kind SeriesKind, priceScale string) *Series {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Series{canvas: c, id: c.nextID, kind: kind, priceScale: priceScale}
	c.nextID++
	if !c.removed {
		c.series = append(c.series, s)
	}
	return s
}

// RemoveSeries detaches s. Removing an unknown series is a no-op.
func (c *Canvas) RemoveSeries(s *Series) {
	if s == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.series = slices.DeleteFunc(c.series, func(x *Series) bool { return x == s })
}

// SetScaleMargins configures an overlay price scale
func (c *Canvas) SetScaleMargins(scaleID string, m ScaleMargins) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scales[scaleID] = m
}

// Resize applies a new width; height is fixed
func (c *Canvas) Resize(width int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removed || width <= 0 {
		return
	}
	c.width = width
}

// FitContent resets the visible time range to cover all data
func (c *Canvas) FitContent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.removed {
		c.fits++
	}
}

// Remove releases the canvas. Further mutations are ignored.
func (c *Canvas) Remove() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = true
	c.series = nil
}

// Removed reports whether Remove was called
func (c *Canvas) Removed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.removed
}

// SetData replaces the full dataset of the series
func (s *Series) SetData(rows iter.Seq[Row]) {
	data := slices.Collect(rows)

	s.canvas.mu.Lock()
	defer s.canvas.mu.Unlock()
	s.rows = data
}

// CanvasSnapshot is a point-in-time copy of a Canvas
type CanvasSnapshot struct {
	Width    int                     `json:"width"`
	Height   int                     `json:"height"`
	FitCount int                     `json:"fit_count"`
	Scales   map[string]ScaleMargins `json:"scales,omitempty"`
	Series   []SeriesSnapshot        `json:"series"`
}

// SeriesSnapshot is a point-in-time copy of a Series
type SeriesSnapshot struct {
	ID         int        `json:"id"`
	Kind       SeriesKind `json:"kind"`
	PriceScale string     `json:"price_scale,omitempty"`
	Rows       []Row      `json:"rows"`
}

// Snapshot copies the canvas state
func (c *Canvas) Snapshot() CanvasSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := CanvasSnapshot{
		Width:    c.width,
		Height:   c.height,
		FitCount: c.fits,
		Scales:   make(map[string]ScaleMargins, len(c.scales)),
		Series:   make([]SeriesSnapshot, 0, len(c.series)),
	}
	for k, v := range c.scales {
		snap.Scales[k] = v
	}
	for _, s := range c.series {
		snap.Series = append(snap.Series, SeriesSnapshot{
			ID:         s.id,
			Kind:       s.kind,
			PriceScale: s.priceScale,
			Rows:       slices.Clone(s.rows),
		})
	}
	return snap
}
