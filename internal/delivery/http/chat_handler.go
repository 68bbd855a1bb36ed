package http

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"kotvukai/internal/delivery/http/dto"
	"kotvukai/internal/domain"
)

// ChatReplier answers a message given prior history
type ChatReplier interface {
	Reply(ctx context.Context, message string, history []domain.ChatMessage) (string, error)
}

type ChatHandler struct {
	chat ChatReplier
}

func NewChatHandler(chat ChatReplier) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Chat answers a free-form question
// POST /api/ai/chat
func (h *ChatHandler) Chat(c echo.Context) error {
	var req dto.ChatRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 90*time.Second)
	defer cancel()

	reply, err := h.chat.Reply(ctx, req.Message, req.History)
	if err != nil {
		return DomainErrorResponse(c, "Failed to get reply", err)
	}
	return SuccessResponse(c, dto.ChatResponse{Reply: reply})
}
