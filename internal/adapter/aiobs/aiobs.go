package aiobs

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"kotvukai/internal/domain"
	"kotvukai/internal/logger"
	"kotvukai/internal/trace"
)

// observableAI wraps an AIService with logging and tracing
type observableAI struct {
	ai domain.AIService
}

var _ domain.AIService = (*observableAI)(nil)

// Wrap wraps ai with observability middleware
func Wrap(ai domain.AIService) domain.AIService {
	return &observableAI{ai: ai}
}

func (o *observableAI) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "ai.Complete", attribute.Int("prompt_chars", len(userPrompt)))
	defer span.End()

	start := time.Now()
	text, err := o.ai.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		trace.RecordError(ctx, err)
		logger.ErrorWithErr(ctx, "AI completion failed", err, "latency_ms", time.Since(start).Milliseconds())
		return "", err
	}

	logger.Info(ctx, "AI completion received",
		"latency_ms", time.Since(start).Milliseconds(),
		"response_chars", len(text),
	)
	return text, nil
}

func (o *observableAI) Chat(ctx context.Context, systemPrompt string, messages []domain.ChatMessage) (string, error) {
	ctx, span := trace.StartSpan(ctx, "ai.Chat", attribute.Int("messages", len(messages)))
	defer span.End()

	start := time.Now()
	reply, err := o.ai.Chat(ctx, systemPrompt, messages)
	if err != nil {
		trace.RecordError(ctx, err)
		logger.ErrorWithErr(ctx, "AI chat failed", err, "latency_ms", time.Since(start).Milliseconds())
		return "", err
	}

	logger.Debug(ctx, "AI chat reply received",
		"latency_ms", time.Since(start).Milliseconds(),
		"messages", len(messages),
	)
	return reply, nil
}
