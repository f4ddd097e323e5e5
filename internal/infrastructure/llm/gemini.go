package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"reflect-story-api/internal/config"
	"reflect-story-api/internal/domain/entity"
	"reflect-story-api/pkg/errors"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiProvider Google Gemini generateContent 适配器
type GeminiProvider struct {
	cfg        *config.AIProviderConfig
	baseURL    string
	httpClient *http.Client
}

// NewGeminiProvider 创建 Gemini 适配器
func NewGeminiProvider(cfg *config.AIProviderConfig) *GeminiProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiProvider{
		cfg:        cfg,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(),
	}
}

// Name 返回提供商标识
func (p *GeminiProvider) Name() string {
	return ProviderGemini
}

// Model 返回当前配置的模型名
func (p *GeminiProvider) Model() string {
	return p.cfg.Model
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// flattenConversation 把多轮对话拼成单段提示词
// generateContent 的角色模型与归一化消息不一致，统一降级为纯文本
func flattenConversation(messages []entity.Message) string {
	var b strings.Builder
	b.WriteString(SystemPreamble)
	b.WriteString("\n\n")
	for _, m := range messages {
		switch m.Role {
		case entity.RoleAssistant:
			b.WriteString("Assistant: ")
		case entity.RoleSystem:
			b.WriteString("System: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("Assistant:")
	return b.String()
}

// Send 调用 generateContent 接口
func (p *GeminiProvider) Send(ctx context.Context, req *entity.ChatRequest) (*entity.ChatResponse, error) {
	ctx, span := tracer.Start(ctx, "llm.GeminiProvider.Send",
		trace.WithAttributes(attribute.String("llm.model", p.cfg.Model)))
	defer span.End()

	start := time.Now()

	payload := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: flattenConversation(req.Messages)}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		p.baseURL, p.cfg.Model, url.QueryEscape(p.cfg.APIKey))

	body, status, err := postJSON(ctx, p.httpClient, endpoint, nil, payload)
	if err != nil {
		span.RecordError(err)
		observeCall(ProviderGemini, p.cfg.Model, "error", start)
		return nil, errors.Wrap(err, errors.CodeProviderCallFailed, "gemini request failed")
	}

	if status < 200 || status >= 300 {
		var errResp geminiErrorResponse
		detail := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			detail = errResp.Error.Message
		}
		observeCall(ProviderGemini, p.cfg.Model, "error", start)
		return nil, errors.New(errors.CodeProviderCallFailed,
			fmt.Sprintf("gemini returned status %d", status)).WithDetail(detail)
	}

	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		span.RecordError(err)
		observeCall(ProviderGemini, p.cfg.Model, "error", start)
		return nil, errors.Wrap(err, errors.CodeProviderCallFailed, "failed to decode gemini response")
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		observeCall(ProviderGemini, p.cfg.Model, "error", start)
		return nil, errors.New(errors.CodeProviderCallFailed, "gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	observeCall(ProviderGemini, p.cfg.Model, "success", start)

	// generateContent 不返回用量，Meta.Usage 保持为空
	return &entity.ChatResponse{
		Message: entity.Message{
			Role:    entity.RoleAssistant,
			Content: strings.TrimSpace(text.String()),
		},
		Meta: entity.ResponseMeta{
			Provider:       ProviderGemini,
			Model:          p.cfg.Model,
			ProcessingTime: time.Since(start).Seconds(),
		},
	}, nil
}
