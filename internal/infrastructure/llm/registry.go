package llm

import (
	"fmt"
	"sync"

	"reflect-story-api/internal/config"
	"reflect-story-api/pkg/errors"
)

// 支持的提供商标识
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// providerPriority 自动选择时的凭证探测顺序
var providerPriority = []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini}

// providerKeyEnv 各提供商凭证对应的环境变量名，用于错误提示
var providerKeyEnv = map[string]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderGemini:    "GOOGLE_API_KEY",
}

// Registry 提供商注册表
// 适配器按需惰性构建并缓存，进程生命周期内配置不可变
type Registry struct {
	cfg *config.AIConfig

	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry 创建提供商注册表
func NewRegistry(cfg *config.AIConfig) *Registry {
	return &Registry{
		cfg:       cfg,
		providers: make(map[string]Provider),
	}
}

// Resolve 解析当前应使用的提供商名称
// 显式指定且带凭证时直接选用，否则按优先级选第一个有凭证的提供商
func (r *Registry) Resolve() (string, error) {
	if r.cfg.Selected != "" {
		name := r.cfg.Selected
		if _, ok := providerKeyEnv[name]; !ok {
			return "", errors.New(errors.CodeProviderConfig,
				fmt.Sprintf("Unknown AI provider: %s", name))
		}
		if pc, ok := r.cfg.Providers[name]; ok && pc.APIKey != "" {
			return name, nil
		}
	}

	for _, name := range providerPriority {
		if pc, ok := r.cfg.Providers[name]; ok && pc.APIKey != "" {
			return name, nil
		}
	}

	// 无任何凭证时报缺失，优先指向显式指定的提供商，否则指向优先级首位
	missing := providerPriority[0]
	if r.cfg.Selected != "" {
		missing = r.cfg.Selected
	}
	return "", errors.New(errors.CodeProviderConfig,
		fmt.Sprintf("Missing %s in backend environment", providerKeyEnv[missing]))
}

// Get 获取指定提供商的适配器，首次访问时构建并缓存
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	if p, ok := r.providers[name]; ok {
		r.mu.RUnlock()
		return p, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// 双重检查，避免并发重复构建
	if p, ok := r.providers[name]; ok {
		return p, nil
	}

	pc, ok := r.cfg.Providers[name]
	if !ok {
		return nil, errors.New(errors.CodeProviderConfig,
			fmt.Sprintf("Unknown AI provider: %s", name))
	}
	if pc.APIKey == "" {
		return nil, errors.New(errors.CodeProviderConfig,
			fmt.Sprintf("Missing %s in backend environment", providerKeyEnv[name]))
	}

	var p Provider
	switch name {
	case ProviderOpenAI:
		p = NewOpenAIProvider(&pc)
	case ProviderAnthropic:
		p = NewAnthropicProvider(&pc)
	case ProviderGemini:
		p = NewGeminiProvider(&pc)
	default:
		return nil, errors.New(errors.CodeProviderConfig,
			fmt.Sprintf("Unknown AI provider: %s", name))
	}

	r.providers[name] = p
	return p, nil
}

// Active 解析并返回当前生效的适配器
func (r *Registry) Active() (Provider, error) {
	name, err := r.Resolve()
	if err != nil {
		return nil, err
	}
	return r.Get(name)
}

// Available 按优先级返回所有配置了凭证的提供商
func (r *Registry) Available() []string {
	var out []string
	for _, name := range providerPriority {
		if pc, ok := r.cfg.Providers[name]; ok && pc.APIKey != "" {
			out = append(out, name)
		}
	}
	return out
}

// Model 返回指定提供商配置的模型名
func (r *Registry) Model(name string) string {
	if pc, ok := r.cfg.Providers[name]; ok {
		return pc.Model
	}
	return ""
}
