package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kotvukai/internal/adapter"
	"kotvukai/internal/analysis"
	"kotvukai/internal/domain"
)

// MaxChatHistory is how many prior messages are forwarded with a question
const MaxChatHistory = 10

// fallbackReply is returned when the provider produced no text
const fallbackReply = "Ошибка"

// ChatService answers free-form questions through the AI collaborator
type ChatService struct {
	ai   domain.AIService
	lang analysis.Lang
}

func NewChatService(ai domain.AIService, lang analysis.Lang) *ChatService {
	return &ChatService{ai: ai, lang: lang}
}

// Reply forwards message with the bounded conversation history. Provider
// errors are returned as reply text; transport failures are returned as errors.
func (s *ChatService) Reply(ctx context.Context, message string, history []domain.ChatMessage) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}

	msgs := append(BoundHistory(history), domain.ChatMessage{Role: domain.RoleUser, Content: message})

	reply, err := s.ai.Chat(ctx, analysis.ChatSystemPrompt(s.lang), msgs)
	var apiErr *adapter.APIError
	switch {
	case err == nil:
		return reply, nil
	case errors.As(err, &apiErr):
		return apiErr.Message, nil
	case errors.Is(err, adapter.ErrEmptyCompletion):
		return fallbackReply, nil
	default:
		return "", fmt.Errorf("failed to get chat reply: %w", err)
	}
}

// BoundHistory drops entries without a role or content, and entries that
// claim the system role, then keeps the most recent MaxChatHistory.
func BoundHistory(history []domain.ChatMessage) []domain.ChatMessage {
	kept := make([]domain.ChatMessage, 0, len(history)+1)
	for _, m := range history {
		if m.Content == "" {
			continue
		}
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			continue
		}
		kept = append(kept, m)
	}
	if len(kept) > MaxChatHistory {
		kept = kept[len(kept)-MaxChatHistory:]
	}
	return kept
}
