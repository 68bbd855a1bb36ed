package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kotvukai/internal/domain"
	"kotvukai/internal/utils"
)

const defaultAPIBaseURL = "https://api.telegram.org"

type NotificationService struct {
	botToken   string
	chatID     string
	enabled    bool
	baseURL    string
	httpClient *http.Client
}

var _ domain.Notifier = (*NotificationService)(nil)

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// NewNotificationService creates a notifier. It is disabled, and silently
// skips every message, unless both token and chat id are set.
func NewNotificationService(botToken, chatID, baseURL string) *NotificationService {
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	return &NotificationService{
		botToken: botToken,
		chatID:   chatID,
		enabled:  botToken != "" && chatID != "",
		baseURL:  strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether messages will actually be sent
func (s *NotificationService) Enabled() bool {
	return s.enabled
}

// NotifySignal sends a newly recorded signal to Telegram
func (s *NotificationService) NotifySignal(ctx context.Context, signal *domain.SignalRecord) error {
	if !s.enabled {
		return nil
	}
	return s.sendMessage(ctx, FormatSignal(signal))
}

// FormatSignal renders the Markdown notification body
func FormatSignal(signal *domain.SignalRecord) string {
	sideEmoji := "🟢"
	if signal.Type == domain.SignalShort {
		sideEmoji = "🔴"
	}

	msg := fmt.Sprintf(
		"🚀 *NEW SIGNAL*\n\n"+
			"%s *%s %s*\n"+
			"━━━━━━━━━━━━━━━━━\n"+
			"📊 Entry: `$%.4f`\n"+
			"🛑 Stop Loss: `$%.4f`\n"+
			"🎯 Take Profit: `$%.4f`\n"+
			"📈 Accuracy: `%.0f%%`\n"+
			"🕒 Time: `%s`",
		sideEmoji,
		signal.Type,
		signal.Pair,
		signal.Entry,
		signal.StopLoss,
		signal.TakeProfit,
		signal.Accuracy,
		utils.FormatDisplay(signal.CreatedAt),
	)
	if signal.Reason != "" {
		msg += "\n\n💡 *Reasoning:*\n" + signal.Reason
	}
	return msg
}

func (s *NotificationService) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)

	jsonData, err := json.Marshal(telegramMessage{
		ChatID:    s.chatID,
		Text:      text,
		ParseMode: "Markdown",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}
