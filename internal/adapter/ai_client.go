package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kotvukai/internal/domain"
)

// Defaults for the Groq OpenAI-compatible endpoint
const (
	DefaultAIBaseURL     = "https://api.groq.com/openai/v1"
	DefaultAIModel       = "llama-3.1-8b-instant"
	DefaultTemperature   = 0.7
	AnalysisMaxTokens    = 2000
	ChatMaxTokens        = 1500
	defaultAIHTTPTimeout = 60 * time.Second
)

var (
	// ErrEmptyCompletion is returned when the provider answered without any choice text
	ErrEmptyCompletion = errors.New("empty completion")
	ErrMissingAPIKey   = errors.New("AI API key is not configured")
)

// APIError is an error reported by the completion provider itself
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// AIClient implements domain.AIService against a chat-completions API
type AIClient struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
}

// AIClientOption customizes an AIClient
type AIClientOption func(*AIClient)

func WithModel(model string) AIClientOption {
	return func(c *AIClient) {
		if model != "" {
			c.model = model
		}
	}
}

func WithHTTPClient(hc *http.Client) AIClientOption {
	return func(c *AIClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewAIClient creates a completion client. An empty baseURL selects Groq.
func NewAIClient(baseURL, apiKey string, opts ...AIClientOption) *AIClient {
	if baseURL == "" {
		baseURL = DefaultAIBaseURL
	}
	c := &AIClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       DefaultAIModel,
		temperature: DefaultTemperature,
		httpClient: &http.Client{
			Timeout: defaultAIHTTPTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ domain.AIService = (*AIClient)(nil)

type completionRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends one system + user exchange
func (c *AIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: systemPrompt},
		{Role: domain.RoleUser, Content: userPrompt},
	}
	return c.send(ctx, messages, AnalysisMaxTokens)
}

// Chat sends the system prompt followed by the conversation
func (c *AIClient) Chat(ctx context.Context, systemPrompt string, messages []domain.ChatMessage) (string, error) {
	all := make([]domain.ChatMessage, 0, len(messages)+1)
	all = append(all, domain.ChatMessage{Role: domain.RoleSystem, Content: systemPrompt})
	all = append(all, messages...)
	return c.send(ctx, all, ChatMaxTokens)
}

func (c *AIClient) send(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	jsonData, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call AI provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read AI response: %w", err)
	}

	var out completionResponse
	decodeErr := json.Unmarshal(body, &out)
	if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
		return "", &APIError{StatusCode: resp.StatusCode, Message: out.Error.Message}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("status=%d, body=%s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode AI response: %w", decodeErr)
	}

	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return out.Choices[0].Message.Content, nil
}
