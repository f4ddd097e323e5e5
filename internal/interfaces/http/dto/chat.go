package dto

import (
	"reflect-story-api/internal/domain/entity"
)

// ChatRequest 对话请求体
type ChatRequest struct {
	Messages    []entity.Message `json:"messages" binding:"required"`
	Temperature *float64         `json:"temperature"`
	MaxTokens   *int             `json:"max_tokens"`
}

// ToEntity 转换为领域请求
func (r *ChatRequest) ToEntity() *entity.ChatRequest {
	return &entity.ChatRequest{
		Messages:    r.Messages,
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
	}
}
