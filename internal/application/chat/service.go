// Package chat 提供 AI 对话中转服务
package chat

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"reflect-story-api/internal/domain/entity"
	"reflect-story-api/internal/infrastructure/llm"
	"reflect-story-api/pkg/errors"
	"reflect-story-api/pkg/logger"
)

var tracer = otel.Tracer("application.chat")

// Service 对话服务
// 校验请求、解析提供商并中转到对应适配器
type Service struct {
	registry *llm.Registry
}

// NewService 创建对话服务
func NewService(registry *llm.Registry) *Service {
	return &Service{registry: registry}
}

// Chat 发送一轮对话
func (s *Service) Chat(ctx context.Context, req *entity.ChatRequest) (*entity.ChatResponse, error) {
	ctx, span := tracer.Start(ctx, "chat.Service.Chat")
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	req.Normalize()

	provider, err := s.registry.Active()
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("llm.provider", provider.Name()),
		attribute.String("llm.model", provider.Model()),
		attribute.Int("chat.message_count", len(req.Messages)),
	)

	resp, err := provider.Send(ctx, req)
	if err != nil {
		logger.Error(ctx, "llm call failed", err,
			"provider", provider.Name(),
			"model", provider.Model(),
		)
		return nil, err
	}

	logger.Info(ctx, "chat completed",
		"provider", resp.Meta.Provider,
		"model", resp.Meta.Model,
		"processing_time", resp.Meta.ProcessingTime,
	)
	return resp, nil
}

// ProviderInfo 返回当前生效的提供商信息，不触发实际调用
func (s *Service) ProviderInfo(ctx context.Context) (*entity.ProviderInfo, error) {
	_, span := tracer.Start(ctx, "chat.Service.ProviderInfo",
		trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	name, err := s.registry.Resolve()
	if err != nil {
		return nil, err
	}

	return &entity.ProviderInfo{
		Provider:           name,
		Model:              s.registry.Model(name),
		AvailableProviders: s.registry.Available(),
	}, nil
}

// validateRequest 校验对话请求
func validateRequest(req *entity.ChatRequest) error {
	if req == nil || len(req.Messages) == 0 {
		return errors.New(errors.CodeValidationFailed, "messages must not be empty")
	}
	for i, m := range req.Messages {
		if !m.Role.IsValid() {
			return errors.New(errors.CodeValidationFailed, "invalid message role").
				WithDetail(string(m.Role))
		}
		if m.Content == "" {
			return errors.New(errors.CodeValidationFailed, "message content must not be empty")
		}
		if i == 0 && m.Role == entity.RoleAssistant {
			return errors.New(errors.CodeValidationFailed, "first message must not be from assistant")
		}
	}
	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		return errors.New(errors.CodeValidationFailed, "temperature must be between 0 and 2")
	}
	if req.MaxTokens != nil && *req.MaxTokens <= 0 {
		return errors.New(errors.CodeValidationFailed, "max_tokens must be positive")
	}
	return nil
}
