package http

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"kotvukai/internal/domain"
)

// MarketReader is the market-data surface the API exposes
type MarketReader interface {
	domain.MarketDataService
	GetTicker(ctx context.Context, symbol string) (*domain.Ticker, error)
}

// MarketHandler proxies exchange and sentiment data
type MarketHandler struct {
	market MarketReader
}

// NewMarketHandler creates a new MarketHandler
func NewMarketHandler(market MarketReader) *MarketHandler {
	return &MarketHandler{market: market}
}

// GetKlines returns bars for a symbol and timeframe
// GET /api/klines?symbol=BTCUSDT&interval=1h&limit=500
func (h *MarketHandler) GetKlines(c echo.Context) error {
	symbol := strings.ToUpper(c.QueryParam("symbol"))
	if symbol == "" {
		symbol = "BTCUSDT"
	}
	interval := c.QueryParam("interval")
	if interval == "" {
		interval = string(domain.Timeframe1h)
	}
	limit := 500
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return BadRequestResponse(c, "limit must be a positive integer")
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	bars, err := h.market.GetBars(ctx, symbol, domain.Timeframe(interval), limit)
	if err != nil {
		return DomainErrorResponse(c, "Failed to fetch klines", err)
	}
	return SuccessResponse(c, bars)
}

// GetTickers returns 24h tickers for every supported symbol
// GET /api/ticker24h
func (h *MarketHandler) GetTickers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	tickers, err := h.market.GetTickers(ctx)
	if err != nil {
		return DomainErrorResponse(c, "Failed to fetch tickers", err)
	}
	return SuccessResponse(c, tickers)
}

// GetFearGreed returns the latest fear & greed reading
// GET /api/fng
func (h *MarketHandler) GetFearGreed(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	fng, err := h.market.GetFearGreedIndex(ctx)
	if err != nil {
		return DomainErrorResponse(c, "Failed to fetch fear & greed index", err)
	}
	return SuccessResponse(c, fng)
}
