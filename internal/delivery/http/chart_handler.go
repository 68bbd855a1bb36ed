package http

import (
	"errors"

	"github.com/labstack/echo/v4"

	"kotvukai/internal/chart"
	"kotvukai/internal/delivery/http/dto"
	"kotvukai/internal/domain"
)

// ChartHandler drives the server-side chart
type ChartHandler struct {
	sync     *chart.Synchronizer
	viewport *chart.Viewport
}

// NewChartHandler creates a new ChartHandler
func NewChartHandler(sync *chart.Synchronizer, viewport *chart.Viewport) *ChartHandler {
	return &ChartHandler{sync: sync, viewport: viewport}
}

// GetChart returns the current chart snapshot
// GET /api/chart
func (h *ChartHandler) GetChart(c echo.Context) error {
	return SuccessResponse(c, h.sync.Snapshot())
}

// Configure sets symbol, timeframe and representation. Omitted fields keep
// their current value.
// PUT /api/chart/config
func (h *ChartHandler) Configure(c echo.Context) error {
	var req dto.ChartConfigRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request body")
	}

	cfg, configured := h.sync.Config()
	if !configured {
		cfg = domain.ChartConfig{Symbol: "BTCUSDT", Timeframe: domain.Timeframe1h, Representation: domain.RepresentationCandles}
	}
	if req.Symbol != "" {
		cfg.Symbol = req.Symbol
	}
	if req.Timeframe != "" {
		cfg.Timeframe = domain.Timeframe(req.Timeframe)
	}
	if req.Representation != "" {
		rep, err := domain.ParseRepresentation(req.Representation)
		if err != nil {
			return DomainErrorResponse(c, "Invalid representation", err)
		}
		cfg.Representation = rep
	}

	if err := h.sync.Configure(c.Request().Context(), cfg); err != nil {
		return DomainErrorResponse(c, "Failed to configure chart", err)
	}
	return SuccessMessageResponse(c, "Chart configured", h.sync.Snapshot())
}

// Resize reports a new viewport width
// POST /api/chart/viewport
func (h *ChartHandler) Resize(c echo.Context) error {
	var req dto.ViewportRequest
	if err := c.Bind(&req); err != nil || req.Width <= 0 {
		return BadRequestResponse(c, "width must be a positive integer")
	}
	h.viewport.Resize(req.Width)
	return SuccessResponse(c, map[string]int{"width": h.viewport.Width()})
}

// Refresh fetches bars immediately instead of waiting for the next poll
// POST /api/chart/refresh
func (h *ChartHandler) Refresh(c echo.Context) error {
	err := h.sync.Refresh(c.Request().Context())
	switch {
	case err == nil, errors.Is(err, chart.ErrStale):
		return SuccessResponse(c, h.sync.Snapshot())
	case errors.Is(err, chart.ErrNotConfigured):
		return ConflictResponse(c, "Chart is not configured")
	default:
		return DomainErrorResponse(c, "Failed to refresh chart", err)
	}
}

// Teardown stops polling and releases the chart
// DELETE /api/chart
func (h *ChartHandler) Teardown(c echo.Context) error {
	h.sync.Teardown()
	return SuccessMessageResponse(c, "Chart released", nil)
}
