package chart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"kotvukai/internal/domain"
	"kotvukai/internal/logger"
)

// Defaults mirror the dashboard chart panel
const (
	DefaultPollInterval = 10 * time.Second
	DefaultHeight       = 500
	DefaultBarLimit     = 500
)

var (
	// ErrStale is returned by Refresh when the configuration changed while
	// the fetch was in flight. The response was discarded.
	ErrStale = errors.New("stale refresh discarded")

	ErrNotConfigured = errors.New("chart is not configured")
)

// BarSource is the slice of the market-data collaborator the synchronizer needs
type BarSource interface {
	GetBars(ctx context.Context, symbol string, timeframe domain.Timeframe, limit int) ([]domain.Bar, error)
}

// Scheduler runs fn every interval until stop is called
type Scheduler interface {
	Every(interval time.Duration, fn func()) (stop func(), err error)
}

// Synchronizer keeps a Canvas consistent with the latest bars for the
// configured (symbol, timeframe, representation).
type Synchronizer struct {
	source   BarSource
	viewport *Viewport
	sched    Scheduler
	interval time.Duration
	height   int
	limit    int
	baseCtx  context.Context

	mu          sync.Mutex
	cfg         domain.ChartConfig
	configured  bool
	gen         uint64
	canvas      *Canvas
	price       *Series
	volume      *Series
	seriesRep   domain.Representation
	unsubscribe func()
	stopPoll    func()
	lastPrice   float64
	hasPrice    bool
	updatedAt   time.Time
	canvases    int
}

// Option configures a Synchronizer
type Option func(*Synchronizer)

func WithPollInterval(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithHeight(h int) Option {
	return func(s *Synchronizer) {
		if h > 0 {
			s.height = h
		}
	}
}

func WithBarLimit(n int) Option {
	return func(s *Synchronizer) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithBaseContext sets the context polled refreshes run under
func WithBaseContext(ctx context.Context) Option {
	return func(s *Synchronizer) {
		s.baseCtx = ctx
	}
}

// NewSynchronizer creates a synchronizer drawing onto viewport
func NewSynchronizer(source BarSource, viewport *Viewport, sched Scheduler, opts ...Option) *Synchronizer {
	if viewport == nil {
		viewport = NewViewport(DefaultWidth)
	}
	s := &Synchronizer{
		source:   source,
		viewport: viewport,
		sched:    sched,
		interval: DefaultPollInterval,
		height:   DefaultHeight,
		limit:    DefaultBarLimit,
		baseCtx:  context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configure declares the desired chart state, refreshes immediately and
// (re)starts polling. Changing symbol or timeframe recreates the chart so
// the new data is fitted; a representation-only change keeps the viewport.
func (s *Synchronizer) Configure(ctx context.Context, cfg domain.ChartConfig) error {
	cfg.Symbol = strings.ToUpper(cfg.Symbol)
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if !s.configured || !s.cfg.SameData(cfg) {
		s.releaseCanvasLocked()
		s.hasPrice = false
		s.lastPrice = 0
	}
	s.cfg = cfg
	s.configured = true
	s.gen++

	if s.stopPoll != nil {
		s.stopPoll()
		s.stopPoll = nil
	}
	if s.sched != nil {
		stop, err := s.sched.Every(s.interval, s.poll)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to start chart polling: %w", err)
		}
		s.stopPoll = stop
	}
	s.mu.Unlock()

	logger.Info(ctx, "Chart configured",
		"symbol", cfg.Symbol,
		"timeframe", cfg.Timeframe,
		"representation", cfg.Representation,
	)

	if err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrStale) {
		logger.Warn(ctx, "Initial chart refresh failed", "symbol", cfg.Symbol, "error", err)
	}
	return nil
}

func (s *Synchronizer) poll() {
	if err := s.Refresh(s.baseCtx); err != nil && !errors.Is(err, ErrStale) && !errors.Is(err, ErrNotConfigured) {
		logger.Warn(s.baseCtx, "Chart poll refresh failed", "error", err)
	}
}

// Refresh fetches the latest bars and applies them if the configuration they
// were requested for is still current.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if !s.configured {
		s.mu.Unlock()
		return ErrNotConfigured
	}
	cfg, gen := s.cfg, s.gen
	s.mu.Unlock()

	bars, err := s.source.GetBars(ctx, cfg.Symbol, cfg.Timeframe, s.limit)
	if err != nil {
		logger.Warn(ctx, "Failed to fetch bars, keeping previous chart",
			"symbol", cfg.Symbol, "timeframe", cfg.Timeframe, "error", err)
		return fmt.Errorf("failed to fetch bars: %w", err)
	}
	if err := validateBars(bars); err != nil {
		logger.Warn(ctx, "Skipping malformed bar batch",
			"symbol", cfg.Symbol, "timeframe", cfg.Timeframe, "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.configured || gen != s.gen {
		logger.Debug(ctx, "Discarding stale bars", "symbol", cfg.Symbol, "timeframe", cfg.Timeframe)
		return ErrStale
	}
	if len(bars) == 0 {
		return nil
	}

	s.applyLocked(cfg, bars)
	return nil
}

func (s *Synchronizer) applyLocked(cfg domain.ChartConfig, bars []domain.Bar) {
	created := false
	if s.canvas == nil {
		canvas := NewCanvas(s.viewport.Width(), s.height)
		canvas.SetScaleMargins(VolumeScaleID, ScaleMargins{Top: 0.85, Bottom: 0})
		s.canvas = canvas
		s.unsubscribe = s.viewport.Subscribe(canvas.Resize)
		s.canvases++
		created = true
	}

	if s.price == nil || s.volume == nil || s.seriesRep != cfg.Representation {
		s.canvas.RemoveSeries(s.price)
		s.canvas.RemoveSeries(s.volume)
		s.price = s.canvas.AddSeries(KindFor(cfg.Representation), "")
		s.volume = s.canvas.AddSeries(SeriesHistogram, VolumeScaleID)
		s.seriesRep = cfg.Representation
	}

	s.price.SetData(PriceRows(bars, cfg.Representation))
	s.volume.SetData(VolumeRows(bars))

	if created {
		s.canvas.FitContent()
	}

	s.lastPrice = bars[len(bars)-1].Close
	s.hasPrice = true
	s.updatedAt = time.Now()
}

func (s *Synchronizer) releaseCanvasLocked() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.canvas != nil {
		s.canvas.Remove()
		s.canvas = nil
	}
	s.price = nil
	s.volume = nil
	s.seriesRep = ""
}

// Teardown stops polling and releases the chart. Safe to call repeatedly.
func (s *Synchronizer) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopPoll != nil {
		s.stopPoll()
		s.stopPoll = nil
	}
	s.releaseCanvasLocked()
	s.configured = false
	s.gen++
}

// LastPrice returns the close of the most recently applied bar
func (s *Synchronizer) LastPrice() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPrice, s.hasPrice
}

// Config returns the current configuration
func (s *Synchronizer) Config() (domain.ChartConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, s.configured
}

// Snapshot is the externally visible chart state
type Snapshot struct {
	Configured bool               `json:"configured"`
	Config     domain.ChartConfig `json:"config"`
	LastPrice  *float64           `json:"last_price,omitempty"`
	UpdatedAt  *time.Time         `json:"updated_at,omitempty"`
	Polling    bool               `json:"polling"`
	Canvases   int                `json:"canvases_created"`
	Chart      *CanvasSnapshot    `json:"chart,omitempty"`
}

// Snapshot copies the current state for rendering
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Configured: s.configured,
		Config:     s.cfg,
		Polling:    s.stopPoll != nil,
		Canvases:   s.canvases,
	}
	if s.hasPrice {
		price := s.lastPrice
		snap.LastPrice = &price
	}
	if !s.updatedAt.IsZero() {
		at := s.updatedAt
		snap.UpdatedAt = &at
	}
	if s.canvas != nil {
		c := s.canvas.Snapshot()
		snap.Chart = &c
	}
	return snap
}

// validateBars rejects batches that would put NaN or out-of-order points on
// the chart
func validateBars(bars []domain.Bar) error {
	for i, b := range bars {
		for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return fmt.Errorf("%w: bar %d has invalid value", domain.ErrMalformedPayload, i)
			}
		}
		if i > 0 && b.Time <= bars[i-1].Time {
			return fmt.Errorf("%w: bar %d is out of order", domain.ErrMalformedPayload, i)
		}
	}
	return nil
}
