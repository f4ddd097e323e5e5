package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflect-story-api/internal/config"
	"reflect-story-api/pkg/errors"
)

func newAIConfig(selected string, keys map[string]string) *config.AIConfig {
	providers := map[string]config.AIProviderConfig{
		ProviderOpenAI:    {Model: "gpt-4o"},
		ProviderAnthropic: {Model: "claude-3.5-sonnet"},
		ProviderGemini:    {Model: "gemini-1.5-flash"},
	}
	for name, key := range keys {
		pc := providers[name]
		pc.APIKey = key
		providers[name] = pc
	}
	return &config.AIConfig{
		Selected:  selected,
		Providers: providers,
	}
}

func TestResolveExplicitProvider(t *testing.T) {
	r := NewRegistry(newAIConfig(ProviderAnthropic, map[string]string{
		ProviderOpenAI:    "sk-openai",
		ProviderAnthropic: "sk-ant",
	}))

	name, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, name)
}

func TestResolveExplicitProviderMissingKeyFallsBack(t *testing.T) {
	// 显式指定的提供商没有凭证时，回退到优先级扫描
	r := NewRegistry(newAIConfig(ProviderGemini, map[string]string{
		ProviderOpenAI: "sk-openai",
	}))

	name, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, name)
}

func TestResolveExplicitProviderNoCredentialsAtAll(t *testing.T) {
	// 完全没有凭证时，报显式指定的提供商缺 key
	r := NewRegistry(newAIConfig(ProviderGemini, nil))

	_, err := r.Resolve()
	require.Error(t, err)
	appErr := errors.AsAppError(err)
	assert.Equal(t, errors.CodeProviderConfig, appErr.Code)
	assert.Contains(t, appErr.Message, "GOOGLE_API_KEY")
}

func TestResolveExplicitUnknownProvider(t *testing.T) {
	r := NewRegistry(newAIConfig("mistral", map[string]string{
		ProviderOpenAI: "sk-openai",
	}))

	_, err := r.Resolve()
	require.Error(t, err)
	assert.Equal(t, errors.CodeProviderConfig, errors.AsAppError(err).Code)
}

func TestResolvePriorityOrder(t *testing.T) {
	tests := []struct {
		name string
		keys map[string]string
		want string
	}{
		{"openai first", map[string]string{ProviderOpenAI: "a", ProviderAnthropic: "b", ProviderGemini: "c"}, ProviderOpenAI},
		{"anthropic when no openai", map[string]string{ProviderAnthropic: "b", ProviderGemini: "c"}, ProviderAnthropic},
		{"gemini last", map[string]string{ProviderGemini: "c"}, ProviderGemini},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(newAIConfig("", tt.keys))
			name, err := r.Resolve()
			require.NoError(t, err)
			assert.Equal(t, tt.want, name)
		})
	}
}

func TestResolveNoCredentials(t *testing.T) {
	r := NewRegistry(newAIConfig("", nil))

	_, err := r.Resolve()
	require.Error(t, err)
	appErr := errors.AsAppError(err)
	assert.Equal(t, errors.CodeProviderConfig, appErr.Code)
	assert.Equal(t, "Missing OPENAI_API_KEY in backend environment", appErr.Message)
}

func TestGetMemoizesProvider(t *testing.T) {
	r := NewRegistry(newAIConfig("", map[string]string{ProviderOpenAI: "sk-openai"}))

	p1, err := r.Get(ProviderOpenAI)
	require.NoError(t, err)
	p2, err := r.Get(ProviderOpenAI)
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, ProviderOpenAI, p1.Name())
	assert.Equal(t, "gpt-4o", p1.Model())
}

func TestGetMissingKey(t *testing.T) {
	r := NewRegistry(newAIConfig("", map[string]string{ProviderOpenAI: "sk-openai"}))

	_, err := r.Get(ProviderAnthropic)
	require.Error(t, err)
	assert.Contains(t, errors.AsAppError(err).Message, "ANTHROPIC_API_KEY")
}

func TestAvailable(t *testing.T) {
	r := NewRegistry(newAIConfig("", map[string]string{
		ProviderGemini: "c",
		ProviderOpenAI: "a",
	}))

	assert.Equal(t, []string{ProviderOpenAI, ProviderGemini}, r.Available())
}
