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

func TestGeminiSend(t *testing.T) {
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": "a reflective reply"}},
				}},
			},
		})
	}))
	defer srv.Close()

	p := NewGeminiProvider(&config.AIProviderConfig{
		APIKey:  "g-key",
		BaseURL: srv.URL,
		Model:   "gemini-1.5-flash",
	})

	req := &entity.ChatRequest{
		Messages: []entity.Message{
			{Role: entity.RoleUser, Content: "hello"},
			{Role: entity.RoleAssistant, Content: "hi, how are you?"},
			{Role: entity.RoleUser, Content: "feeling stuck"},
		},
	}
	req.Normalize()

	resp, err := p.Send(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "a reflective reply", resp.Message.Content)
	assert.Equal(t, ProviderGemini, resp.Meta.Provider)
	// generateContent 不返回用量
	assert.Nil(t, resp.Meta.Usage)

	// 多轮对话压平成单段提示词
	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 1)
	prompt := got.Contents[0].Parts[0].Text
	assert.Contains(t, prompt, SystemPreamble)
	assert.Contains(t, prompt, "User: hello")
	assert.Contains(t, prompt, "Assistant: hi, how are you?")
	assert.Contains(t, prompt, "User: feeling stuck")
}

func TestGeminiSendVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"message": "API key not valid"},
		})
	}))
	defer srv.Close()

	p := NewGeminiProvider(&config.AIProviderConfig{
		APIKey:  "bad",
		BaseURL: srv.URL,
		Model:   "gemini-1.5-flash",
	})

	_, err := p.Send(context.Background(), chatReq("hi"))
	require.Error(t, err)

	appErr := errors.AsAppError(err)
	assert.Equal(t, errors.CodeProviderCallFailed, appErr.Code)
	assert.Equal(t, "API key not valid", appErr.Detail)
}

func TestGeminiSendNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer srv.Close()

	p := NewGeminiProvider(&config.AIProviderConfig{
		APIKey:  "g-key",
		BaseURL: srv.URL,
		Model:   "gemini-1.5-flash",
	})

	_, err := p.Send(context.Background(), chatReq("hi"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeProviderCallFailed, errors.AsAppError(err).Code)
}
