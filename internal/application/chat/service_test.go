package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflect-story-api/internal/config"
	"reflect-story-api/internal/domain/entity"
	"reflect-story-api/internal/infrastructure/llm"
	"reflect-story-api/pkg/errors"
)

func newStubService(t *testing.T, reply string) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13},
		})
	}))
	registry := llm.NewRegistry(&config.AIConfig{
		Providers: map[string]config.AIProviderConfig{
			llm.ProviderOpenAI: {APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-4o"},
		},
	})
	return NewService(registry), srv
}

func userReq(content string) *entity.ChatRequest {
	return &entity.ChatRequest{
		Messages: []entity.Message{{Role: entity.RoleUser, Content: content}},
	}
}

func TestChat(t *testing.T) {
	svc, srv := newStubService(t, "thanks for sharing")
	defer srv.Close()

	resp, err := svc.Chat(context.Background(), userReq("I had a rough day"))
	require.NoError(t, err)

	assert.Equal(t, "thanks for sharing", resp.Message.Content)
	assert.Equal(t, llm.ProviderOpenAI, resp.Meta.Provider)
	assert.Equal(t, "gpt-4o", resp.Meta.Model)
	require.NotNil(t, resp.Meta.Usage)
	assert.Equal(t, 13, resp.Meta.Usage.TotalTokens)
}

func TestChatValidation(t *testing.T) {
	svc, srv := newStubService(t, "unused")
	defer srv.Close()

	badTemp := 3.5
	badTokens := -1

	tests := []struct {
		name string
		req  *entity.ChatRequest
	}{
		{"nil request", nil},
		{"empty messages", &entity.ChatRequest{}},
		{"first message from assistant", &entity.ChatRequest{
			Messages: []entity.Message{{Role: entity.RoleAssistant, Content: "hi"}},
		}},
		{"invalid role", &entity.ChatRequest{
			Messages: []entity.Message{{Role: "robot", Content: "hi"}},
		}},
		{"empty content", &entity.ChatRequest{
			Messages: []entity.Message{{Role: entity.RoleUser, Content: ""}},
		}},
		{"temperature out of range", func() *entity.ChatRequest {
			r := userReq("hi")
			r.Temperature = &badTemp
			return r
		}()},
		{"non-positive max_tokens", func() *entity.ChatRequest {
			r := userReq("hi")
			r.MaxTokens = &badTokens
			return r
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Chat(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, errors.CodeValidationFailed, errors.AsAppError(err).Code)
		})
	}
}

func TestChatNoCredentials(t *testing.T) {
	registry := llm.NewRegistry(&config.AIConfig{
		Providers: map[string]config.AIProviderConfig{
			llm.ProviderOpenAI: {Model: "gpt-4o"},
		},
	})
	svc := NewService(registry)

	_, err := svc.Chat(context.Background(), userReq("hi"))
	require.Error(t, err)

	appErr := errors.AsAppError(err)
	assert.Equal(t, errors.CodeProviderConfig, appErr.Code)
	assert.Contains(t, appErr.Message, "OPENAI_API_KEY")
}

func TestProviderInfo(t *testing.T) {
	svc, srv := newStubService(t, "unused")
	defer srv.Close()

	info, err := svc.ProviderInfo(context.Background())
	require.NoError(t, err)

	assert.Equal(t, llm.ProviderOpenAI, info.Provider)
	assert.Equal(t, "gpt-4o", info.Model)
	assert.Equal(t, []string{llm.ProviderOpenAI}, info.AvailableProviders)
}
