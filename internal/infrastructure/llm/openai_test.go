package llm

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
	"reflect-story-api/pkg/errors"
)

func chatReq(content string) *entity.ChatRequest {
	req := &entity.ChatRequest{
		Messages: []entity.Message{{Role: entity.RoleUser, Content: content}},
	}
	req.Normalize()
	return req
}

func TestOpenAISend(t *testing.T) {
	var got openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "hello there"}},
			},
			"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(&config.AIProviderConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL,
		Model:   "gpt-4o",
	})

	resp, err := p.Send(context.Background(), chatReq("hi"))
	require.NoError(t, err)

	assert.Equal(t, entity.RoleAssistant, resp.Message.Role)
	assert.Equal(t, "hello there", resp.Message.Content)
	assert.Equal(t, ProviderOpenAI, resp.Meta.Provider)
	assert.Equal(t, "gpt-4o", resp.Meta.Model)
	require.NotNil(t, resp.Meta.Usage)
	assert.Equal(t, 16, resp.Meta.Usage.TotalTokens)

	// 系统前导在首位，用户消息随后
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, SystemPreamble, got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "gpt-4o", got.Model)
}

func TestOpenAISendVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "Incorrect API key provided"},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(&config.AIProviderConfig{
		APIKey:  "sk-bad",
		BaseURL: srv.URL,
		Model:   "gpt-4o",
	})

	_, err := p.Send(context.Background(), chatReq("hi"))
	require.Error(t, err)

	appErr := errors.AsAppError(err)
	assert.Equal(t, errors.CodeProviderCallFailed, appErr.Code)
	assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus)
	assert.Equal(t, "Incorrect API key provided", appErr.Detail)
}

func TestOpenAISendNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(&config.AIProviderConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL,
		Model:   "gpt-4o",
	})

	_, err := p.Send(context.Background(), chatReq("hi"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeProviderCallFailed, errors.AsAppError(err).Code)
}
