// Package entity 定义领域实体
package entity

// Role 对话消息角色
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// IsValid 检查角色是否合法
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// Message 单条对话消息
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// 对话请求默认值
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 800
)

// ChatRequest 归一化的对话请求
// Temperature/MaxTokens 为 nil 时由 Normalize 填入默认值
type ChatRequest struct {
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

// Normalize 填充缺省参数
func (r *ChatRequest) Normalize() {
	if r.Temperature == nil {
		t := DefaultTemperature
		r.Temperature = &t
	}
	if r.MaxTokens == nil {
		m := DefaultMaxTokens
		r.MaxTokens = &m
	}
}

// Usage Token 用量统计
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ResponseMeta 对话响应元信息
// Usage 仅在提供商返回用量时填充，不做估算
type ResponseMeta struct {
	Provider       string  `json:"provider"`
	Model          string  `json:"model"`
	Usage          *Usage  `json:"usage,omitempty"`
	ProcessingTime float64 `json:"processing_time"`
}

// ChatResponse 归一化的对话响应
type ChatResponse struct {
	Message Message      `json:"message"`
	Meta    ResponseMeta `json:"meta"`
}

// ProviderInfo 当前可解析的提供商信息（不触发实际调用）
type ProviderInfo struct {
	Provider           string   `json:"provider"`
	Model              string   `json:"model"`
	AvailableProviders []string `json:"available_providers"`
}
