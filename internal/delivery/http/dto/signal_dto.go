package dto

import (
	"github.com/google/uuid"

	"kotvukai/internal/domain"
)

// CreateSignalRequest is the body of POST /api/signals
type CreateSignalRequest struct {
	Pair     string  `json:"pair"`
	Type     string  `json:"type"`
	Entry    float64 `json:"entry"`
	TP       float64 `json:"tp"`
	SL       float64 `json:"sl"`
	Reason   string  `json:"reason"`
	Accuracy float64 `json:"accuracy"`
}

// ToDomain converts the request into a record ready for validation
func (r CreateSignalRequest) ToDomain() *domain.SignalRecord {
	return &domain.SignalRecord{
		Pair:       r.Pair,
		Type:       r.Type,
		Entry:      r.Entry,
		TakeProfit: r.TP,
		StopLoss:   r.SL,
		Reason:     r.Reason,
		Accuracy:   r.Accuracy,
	}
}

type CreateSignalResponse struct {
	ID uuid.UUID `json:"id"`
}
