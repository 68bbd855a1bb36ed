package http

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"kotvukai/internal/analysis"
	"kotvukai/internal/delivery/http/dto"
	"kotvukai/internal/domain"
	"kotvukai/internal/logger"
)

// AnalysisHandler exposes the AI analysis extractor
type AnalysisHandler struct {
	extractor *analysis.Extractor
	market    MarketReader
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(extractor *analysis.Extractor, market MarketReader) *AnalysisHandler {
	return &AnalysisHandler{extractor: extractor, market: market}
}

// fearGreed looks up the index when the caller did not provide it. Failures
// leave it absent.
func (h *AnalysisHandler) fearGreed(ctx context.Context) *int {
	fng, err := h.market.GetFearGreedIndex(ctx)
	if err != nil {
		logger.Warn(ctx, "Fear & greed unavailable for analysis", "error", err)
		return nil
	}
	v := fng.Value
	return &v
}

// Analyze runs (or joins) an analysis and waits for the result
// POST /api/ai/analyze
func (h *AnalysisHandler) Analyze(c echo.Context) error {
	var req dto.AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request body")
	}
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if !domain.IsSupportedSymbol(req.Symbol) {
		return BadRequestResponse(c, "Unsupported symbol")
	}
	fng, err := req.FearGreed()
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 90*time.Second)
	defer cancel()

	ticker := req.Ticker()
	if !req.HasQuote() {
		t, err := h.market.GetTicker(ctx, req.Symbol)
		if err != nil {
			return DomainErrorResponse(c, "Failed to fetch ticker", err)
		}
		ticker = *t
	}
	if fng == nil {
		fng = h.fearGreed(ctx)
	}

	rec := h.extractor.Analyze(ctx, ticker, fng)
	return SuccessResponse(c, dto.NewAnalysisView(rec))
}

// RequestAnalysis starts a background analysis for a symbol
// POST /api/ai/analyze/:symbol/request
func (h *AnalysisHandler) RequestAnalysis(c echo.Context) error {
	symbol := strings.ToUpper(c.Param("symbol"))
	if !domain.IsSupportedSymbol(symbol) {
		return BadRequestResponse(c, "Unsupported symbol")
	}

	if _, ok := h.extractor.Lookup(symbol); ok {
		return SuccessResponse(c, dto.RequestAnalysisResponse{Symbol: symbol, Cached: true})
	}
	if h.extractor.Pending(symbol) {
		return AcceptedResponse(c, "Analysis already in progress", dto.RequestAnalysisResponse{Symbol: symbol, Pending: true})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	t, err := h.market.GetTicker(ctx, symbol)
	if err != nil {
		return DomainErrorResponse(c, "Failed to fetch ticker", err)
	}
	started := h.extractor.RequestAnalysis(ctx, *t, h.fearGreed(ctx))
	return AcceptedResponse(c, "Analysis requested", dto.RequestAnalysisResponse{
		Symbol:  symbol,
		Started: started,
		Pending: h.extractor.Pending(symbol),
	})
}

// ListAnalyses returns analysis cards with the pending set
// GET /api/ai/analyses
func (h *AnalysisHandler) ListAnalyses(c echo.Context) error {
	records := h.extractor.Records()
	cards := make([]dto.AnalysisCard, 0, len(records))
	for _, rec := range records {
		cards = append(cards, dto.NewAnalysisCard(rec))
	}
	return SuccessResponse(c, dto.AnalysesResponse{
		Analyzed: h.extractor.Count(),
		Pending:  h.extractor.PendingSymbols(),
		Cards:    cards,
	})
}

// GetAnalysis returns the full analysis for one symbol
// GET /api/ai/analyses/:symbol
func (h *AnalysisHandler) GetAnalysis(c echo.Context) error {
	symbol := strings.ToUpper(c.Param("symbol"))
	rec, ok := h.extractor.Lookup(symbol)
	if !ok {
		if h.extractor.Pending(symbol) {
			return AcceptedResponse(c, "Analysis in progress", dto.RequestAnalysisResponse{Symbol: symbol, Pending: true})
		}
		return NotFoundResponse(c, "No analysis for "+symbol)
	}
	return SuccessResponse(c, dto.NewAnalysisView(rec))
}

// ResetAnalyses clears every stored analysis
// DELETE /api/ai/analyses
func (h *AnalysisHandler) ResetAnalyses(c echo.Context) error {
	h.extractor.Reset()
	return SuccessMessageResponse(c, "Analyses cleared", nil)
}
