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

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider OpenAI Chat Completions 适配器
type OpenAIProvider struct {
	cfg        *config.AIProviderConfig
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIProvider 创建 OpenAI 适配器
func NewOpenAIProvider(cfg *config.AIProviderConfig) *OpenAIProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIProvider{
		cfg:        cfg,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(),
	}
}

// Name 返回提供商标识
func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

// Model 返回当前配置的模型名
func (p *OpenAIProvider) Model() string {
	return p.cfg.Model
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature *float64        `json:"temperature,omitempty"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Send 调用 Chat Completions 接口
func (p *OpenAIProvider) Send(ctx context.Context, req *entity.ChatRequest) (*entity.ChatResponse, error) {
	ctx, span := tracer.Start(ctx, "llm.OpenAIProvider.Send",
		trace.WithAttributes(attribute.String("llm.model", p.cfg.Model)))
	defer span.End()

	start := time.Now()

	// 系统前导放在消息最前面
	messages := make([]openAIMessage, 0, len(req.Messages)+1)
	messages = append(messages, openAIMessage{Role: "system", Content: SystemPreamble})
	for _, m := range req.Messages {
		messages = append(messages, openAIMessage{Role: string(m.Role), Content: m.Content})
	}

	payload := openAIRequest{
		Model:       p.cfg.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	headers := map[string]string{
		"Authorization": "Bearer " + p.cfg.APIKey,
	}

	body, status, err := postJSON(ctx, p.httpClient, p.baseURL+"/chat/completions", headers, payload)
	if err != nil {
		span.RecordError(err)
		observeCall(ProviderOpenAI, p.cfg.Model, "error", start)
		return nil, errors.Wrap(err, errors.CodeProviderCallFailed, "openai request failed")
	}

	if status < 200 || status >= 300 {
		var errResp openAIErrorResponse
		detail := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			detail = errResp.Error.Message
		}
		observeCall(ProviderOpenAI, p.cfg.Model, "error", start)
		return nil, errors.New(errors.CodeProviderCallFailed,
			fmt.Sprintf("openai returned status %d", status)).WithDetail(detail)
	}

	var resp openAIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		span.RecordError(err)
		observeCall(ProviderOpenAI, p.cfg.Model, "error", start)
		return nil, errors.Wrap(err, errors.CodeProviderCallFailed, "failed to decode openai response")
	}
	if len(resp.Choices) == 0 {
		observeCall(ProviderOpenAI, p.cfg.Model, "error", start)
		return nil, errors.New(errors.CodeProviderCallFailed, "openai returned no choices")
	}

	observeCall(ProviderOpenAI, p.cfg.Model, "success", start)

	result := &entity.ChatResponse{
		Message: entity.Message{
			Role:    entity.RoleAssistant,
			Content: resp.Choices[0].Message.Content,
		},
		Meta: entity.ResponseMeta{
			Provider:       ProviderOpenAI,
			Model:          p.cfg.Model,
			ProcessingTime: time.Since(start).Seconds(),
		},
	}
	if resp.Usage != nil {
		observeTokens(ProviderOpenAI, p.cfg.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		result.Meta.Usage = &entity.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return result, nil
}
