//go:build !noopenai

package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/longkey1/llmprobe/internal/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completionJSON = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "tinyllama",
  "choices": [
    {"index": 0, "message": {"role": "assistant", "content": "pong"}, "finish_reason": "stop"},
    {"index": 1, "message": {"role": "assistant", "content": "ignored"}, "finish_reason": "stop"}
  ],
  "usage": {"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4}
}`

type recordedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Stream bool `json:"stream"`
}

func TestSDKCompleter_Complete(t *testing.T) {
	var (
		got  recordedRequest
		auth string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, sonic.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completionJSON)
	}))
	defer server.Close()

	c, err := NewCompleter(server.URL+"/v1", "ollama")
	require.NoError(t, err)

	content, err := c.Complete(context.Background(), "tinyllama", []chat.Message{
		chat.SystemMessage("You are a helpful assistant."),
		chat.UserMessage("ping"),
	})
	require.NoError(t, err)
	assert.Equal(t, "pong", content)

	assert.Equal(t, "Bearer ollama", auth)
	assert.Equal(t, "tinyllama", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "ping", got.Messages[1].Content)
}

func TestSDKCompleter_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"chatcmpl-2","object":"chat.completion","choices":[]}`)
	}))
	defer server.Close()

	c, err := NewCompleter(server.URL+"/v1", "ollama")
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "tinyllama", []chat.Message{chat.UserMessage("ping")})
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestSDKCompleter_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"message":"model \"nope\" not found","type":"api_error"}}`)
	}))
	defer server.Close()

	c, err := NewCompleter(server.URL+"/v1", "ollama")
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "nope", []chat.Message{chat.UserMessage("ping")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error creating chat completion")
}

func TestNewSDKCompleter_EmptyBaseURL(t *testing.T) {
	_, err := NewCompleter("", "ollama")
	assert.Error(t, err)
}
