package domain

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SignalRecord is a persisted trade idea. It is written explicitly and is
// never derived automatically from an AnalysisRecord.
type SignalRecord struct {
	ID         uuid.UUID `json:"id"`
	Pair       string    `json:"pair"`
	Type       string    `json:"type"`
	Entry      float64   `json:"entry"`
	TakeProfit float64   `json:"tp"`
	StopLoss   float64   `json:"sl"`
	Reason     string    `json:"reason"`
	Accuracy   float64   `json:"accuracy"`
	CreatedAt  time.Time `json:"created_at"`
}

// Signal type constants
const (
	SignalLong  = "LONG"
	SignalShort = "SHORT"
)

// DefaultRecentSignals is the page size used by ListRecent callers
const DefaultRecentSignals = 20

// Normalize upper-cases pair and type
func (s *SignalRecord) Normalize() {
	s.Pair = strings.ToUpper(strings.TrimSpace(s.Pair))
	s.Type = strings.ToUpper(strings.TrimSpace(s.Type))
}

// Validate checks the record before it is appended
func (s *SignalRecord) Validate() error {
	if !IsSupportedSymbol(s.Pair) {
		return fmt.Errorf("%w: %q", ErrUnsupportedSymbol, s.Pair)
	}
	if s.Type != SignalLong && s.Type != SignalShort {
		return fmt.Errorf("%w: type must be LONG or SHORT, got %q", ErrInvalidInput, s.Type)
	}
	for name, v := range map[string]float64{"entry": s.Entry, "tp": s.TakeProfit, "sl": s.StopLoss} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidInput, name)
		}
	}
	if math.IsNaN(s.Accuracy) || s.Accuracy < 0 || s.Accuracy > 100 {
		return fmt.Errorf("%w: accuracy must be between 0 and 100", ErrInvalidInput)
	}
	return nil
}

// SignalRepository is the persistence collaborator for signal records
type SignalRepository interface {
	// ListRecent retrieves the most recent signals, newest first
	ListRecent(ctx context.Context, limit int) ([]*SignalRecord, error)

	// Append stores a new signal and returns its assigned ID
	Append(ctx context.Context, signal *SignalRecord) (uuid.UUID, error)

	// Ping checks the underlying store
	Ping(ctx context.Context) error
}

// SettingsRepository stores key/value system settings
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	List(ctx context.Context, prefix string) (map[string]string, error)
}

// Notifier announces appended signals to an external channel
type Notifier interface {
	NotifySignal(ctx context.Context, signal *SignalRecord) error
}
