package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"kotvukai/internal/domain"
	"kotvukai/internal/logger"
	"kotvukai/internal/trace"
)

// SignalService records trade ideas and announces them
type SignalService struct {
	signalRepo domain.SignalRepository
	notifier   domain.Notifier
}

// NewSignalService creates a new SignalService. notifier may be nil.
func NewSignalService(signalRepo domain.SignalRepository, notifier domain.Notifier) *SignalService {
	return &SignalService{
		signalRepo: signalRepo,
		notifier:   notifier,
	}
}

// ListRecent returns up to limit signals, newest first
func (s *SignalService) ListRecent(ctx context.Context, limit int) ([]*domain.SignalRecord, error) {
	signals, err := s.signalRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list signals: %w", err)
	}
	return signals, nil
}

// Append validates and stores a signal. A failed notification is logged and
// does not fail the append.
func (s *SignalService) Append(ctx context.Context, signal *domain.SignalRecord) (uuid.UUID, error) {
	signal.Normalize()
	if err := signal.Validate(); err != nil {
		return uuid.Nil, err
	}

	ctx, span := trace.StartSpan(ctx, "signals.Append",
		attribute.String("pair", signal.Pair),
		attribute.String("type", signal.Type),
	)
	defer span.End()

	id, err := s.signalRepo.Append(ctx, signal)
	if err != nil {
		trace.RecordError(ctx, err)
		return uuid.Nil, fmt.Errorf("failed to append signal: %w", err)
	}

	logger.Info(ctx, "Signal recorded",
		"id", id.String(),
		"pair", signal.Pair,
		"type", signal.Type,
		"entry", signal.Entry,
		"tp", signal.TakeProfit,
		"sl", signal.StopLoss,
	)

	if s.notifier != nil {
		if err := s.notifier.NotifySignal(ctx, signal); err != nil {
			logger.Warn(ctx, "Failed to send signal notification", "id", id.String(), "error", err)
		}
	}

	return id, nil
}

// Healthy pings the signal store
func (s *SignalService) Healthy(ctx context.Context) error {
	return s.signalRepo.Ping(ctx)
}
