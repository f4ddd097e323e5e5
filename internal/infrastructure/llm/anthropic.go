package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"reflect-story-api/internal/config"
	"reflect-story-api/internal/domain/entity"
	"reflect-story-api/pkg/errors"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicAPIVersion     = "2023-06-01"
)

// AnthropicProvider Anthropic Messages 适配器
type AnthropicProvider struct {
	cfg        *config.AIProviderConfig
	baseURL    string
	httpClient *http.Client
}

// NewAnthropicProvider 创建 Anthropic 适配器
func NewAnthropicProvider(cfg *config.AIProviderConfig) *AnthropicProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	return &AnthropicProvider{
		cfg:        cfg,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(),
	}
}

// Name 返回提供商标识
func (p *AnthropicProvider) Name() string {
	return ProviderAnthropic
}

// Model 返回当前配置的模型名
func (p *AnthropicProvider) Model() string {
	return p.cfg.Model
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicRequest Messages 接口要求 system 独立于消息列表，且 max_tokens 必填
type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Send 调用 Messages 接口
func (p *AnthropicProvider) Send(ctx context.Context, req *entity.ChatRequest) (*entity.ChatResponse, error) {
	ctx, span := tracer.Start(ctx, "llm.AnthropicProvider.Send",
		trace.WithAttributes(attribute.String("llm.model", p.cfg.Model)))
	defer span.End()

	start := time.Now()

	// 系统消息并入 system 字段，消息列表只保留 user/assistant
	system := SystemPreamble
	messages := make([]anthropicMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == entity.RoleSystem {
			system = system + "\n\n" + m.Content
			continue
		}
		messages = append(messages, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}

	maxTokens := entity.DefaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	payload := anthropicRequest{
		Model:       p.cfg.Model,
		System:      system,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	}

	headers := map[string]string{
		"x-api-key":         p.cfg.APIKey,
		"anthropic-version": anthropicAPIVersion,
	}

	body, status, err := postJSON(ctx, p.httpClient, p.baseURL+"/v1/messages", headers, payload)
	if err != nil {
		span.RecordError(err)
		observeCall(ProviderAnthropic, p.cfg.Model, "error", start)
		return nil, errors.Wrap(err, errors.CodeProviderCallFailed, "anthropic request failed")
	}

	if status < 200 || status >= 300 {
		var errResp anthropicErrorResponse
		detail := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			detail = errResp.Error.Message
		}
		observeCall(ProviderAnthropic, p.cfg.Model, "error", start)
		return nil, errors.New(errors.CodeProviderCallFailed,
			fmt.Sprintf("anthropic returned status %d", status)).WithDetail(detail)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		span.RecordError(err)
		observeCall(ProviderAnthropic, p.cfg.Model, "error", start)
		return nil, errors.Wrap(err, errors.CodeProviderCallFailed, "failed to decode anthropic response")
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		observeCall(ProviderAnthropic, p.cfg.Model, "error", start)
		return nil, errors.New(errors.CodeProviderCallFailed, "anthropic returned no text content")
	}

	observeCall(ProviderAnthropic, p.cfg.Model, "success", start)

	result := &entity.ChatResponse{
		Message: entity.Message{
			Role:    entity.RoleAssistant,
			Content: text.String(),
		},
		Meta: entity.ResponseMeta{
			Provider:       ProviderAnthropic,
			Model:          p.cfg.Model,
			ProcessingTime: time.Since(start).Seconds(),
		},
	}
	if resp.Usage != nil {
		observeTokens(ProviderAnthropic, p.cfg.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
		result.Meta.Usage = &entity.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		}
	}
	return result, nil
}
