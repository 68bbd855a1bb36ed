package http

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"kotvukai/internal/delivery/http/dto"
	"kotvukai/internal/domain"
)

// SignalStore is the signal use case the API drives
type SignalStore interface {
	ListRecent(ctx context.Context, limit int) ([]*domain.SignalRecord, error)
	Append(ctx context.Context, signal *domain.SignalRecord) (uuid.UUID, error)
}

// SignalHandler handles signal history requests
type SignalHandler struct {
	signals SignalStore
}

// NewSignalHandler creates a new SignalHandler
func NewSignalHandler(signals SignalStore) *SignalHandler {
	return &SignalHandler{signals: signals}
}

// ListSignals returns the most recent signals, newest first
// GET /api/signals?limit=20
func (h *SignalHandler) ListSignals(c echo.Context) error {
	limit := domain.DefaultRecentSignals
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return BadRequestResponse(c, "limit must be an integer")
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	signals, err := h.signals.ListRecent(ctx, limit)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to get signals", err)
	}
	if signals == nil {
		signals = []*domain.SignalRecord{}
	}
	return SuccessResponse(c, signals)
}

// CreateSignal appends a signal
// POST /api/signals
func (h *SignalHandler) CreateSignal(c echo.Context) error {
	var req dto.CreateSignalRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	id, err := h.signals.Append(ctx, req.ToDomain())
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnsupportedSymbol):
		return BadRequestResponse(c, err.Error())
	case err != nil:
		return InternalServerErrorResponse(c, "Failed to save signal", err)
	}
	return CreatedResponse(c, dto.CreateSignalResponse{ID: id})
}
