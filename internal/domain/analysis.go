package domain

import (
	"context"
	"time"
)

// Direction is the directional classification derived from AI text
type Direction string

// Direction constants
const (
	DirectionLong    Direction = "LONG"
	DirectionShort   Direction = "SHORT"
	DirectionNeutral Direction = "NEUTRAL"
	DirectionUnknown Direction = "UNKNOWN"
)

// HasBadge reports whether the direction should be shown to the user
func (d Direction) HasBadge() bool {
	return d == DirectionLong || d == DirectionShort || d == DirectionNeutral
}

// AnalysisRecord is a settled AI analysis for one symbol. Immutable once stored.
type AnalysisRecord struct {
	Symbol      string    `json:"symbol"`
	RawText     string    `json:"raw_text"`
	Direction   Direction `json:"direction"`
	Failed      bool      `json:"failed"`
	RequestedAt time.Time `json:"requested_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// MarketSnapshot is the structured input handed to the AI collaborator
type MarketSnapshot struct {
	Symbol     string            `json:"symbol"`
	Price      float64           `json:"price"`
	Change24h  float64           `json:"change24h"`
	High       float64           `json:"high"`
	Low        float64           `json:"low"`
	Volume     float64           `json:"volume"`
	FearGreed  *int              `json:"fng,omitempty"`
	MarketData map[string]string `json:"marketData,omitempty"`
}

// ChatMessage is one turn of an AI chat conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AIService is the AI-completion collaborator
type AIService interface {
	// Complete sends a single system + user exchange and returns the reply text
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Chat sends a system prompt followed by messages and returns the reply text
	Chat(ctx context.Context, systemPrompt string, messages []ChatMessage) (string, error)
}
