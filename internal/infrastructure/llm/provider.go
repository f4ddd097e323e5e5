// Package llm 提供多家 AI 提供商的统一接入
package llm

import (
	"context"

	"go.opentelemetry.io/otel"

	"reflect-story-api/internal/domain/entity"
)

var tracer = otel.Tracer("llm")

// SystemPreamble 固定的系统前导，每次调用都注入在消息最前面
const SystemPreamble = "You are a supportive AI assistant for personal reflection and emotional well-being.\n" +
	"- You are not a licensed clinician and do not provide medical advice.\n" +
	"- Focus on reflective listening, validation, and open-ended questions.\n" +
	"- If the user appears to be in crisis, encourage reaching out to professionals or emergency resources."

// Provider AI 提供商适配器接口
type Provider interface {
	// Name 返回提供商标识
	Name() string

	// Model 返回当前配置的模型名
	Model() string

	// Send 发送归一化请求并返回归一化响应
	// 请求中的消息不含系统前导，由适配器按各家协议注入
	Send(ctx context.Context, req *entity.ChatRequest) (*entity.ChatResponse, error)
}
