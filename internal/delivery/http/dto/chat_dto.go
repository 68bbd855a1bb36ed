package dto

import "kotvukai/internal/domain"

type ChatRequest struct {
	Message string               `json:"message"`
	History []domain.ChatMessage `json:"history"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}
