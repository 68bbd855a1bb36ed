package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"kotvukai/internal/domain"
)

func TestAIClient_Complete(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer k" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"## Сигнал\nLONG"}}]}`))
	}))
	defer srv.Close()

	c := NewAIClient(srv.URL+"/", "k")
	text, err := c.Complete(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "## Сигнал\nLONG" {
		t.Errorf("unexpected text %q", text)
	}
	if got.Model != DefaultAIModel || got.MaxTokens != AnalysisMaxTokens || got.Temperature != DefaultTemperature {
		t.Errorf("unexpected request parameters %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != domain.RoleSystem || got.Messages[1].Content != "user" {
		t.Errorf("unexpected messages %+v", got.Messages)
	}
}

func TestAIClient_ChatPrependsSystemPrompt(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"choices":[{"message":{"content":"hi"}}]}`))
	}))
	defer srv.Close()

	c := NewAIClient(srv.URL, "k", WithModel("other-model"))
	_, err := c.Chat(context.Background(), "sys", []domain.ChatMessage{{Role: domain.RoleUser, Content: "q"}})
	if err != nil {
		t.Fatal(err)
	}
	if got.Model != "other-model" || got.MaxTokens != ChatMaxTokens {
		t.Errorf("unexpected request parameters %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Content != "sys" {
		t.Errorf("expected system prompt first, got %+v", got.Messages)
	}
}

func TestAIClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantAPI string
		wantErr error
	}{
		{"provider error body", http.StatusOK, `{"error":{"message":"rate limited"}}`, "rate limited", nil},
		{"provider error with status", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, "slow down", nil},
		{"non json failure", http.StatusBadGateway, `upstream`, "status=502, body=upstream", nil},
		{"no choices", http.StatusOK, `{"choices":[]}`, "", ErrEmptyCompletion},
		{"blank content", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`, "", ErrEmptyCompletion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewAIClient(srv.URL, "k").Complete(context.Background(), "s", "u")
			if tt.wantAPI != "" {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("expected APIError, got %v", err)
				}
				if apiErr.Message != tt.wantAPI {
					t.Errorf("expected message %q, got %q", tt.wantAPI, apiErr.Message)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAIClient_MissingKey(t *testing.T) {
	_, err := NewAIClient("", "").Complete(context.Background(), "s", "u")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}
