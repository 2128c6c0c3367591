package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDisabled(t *testing.T) {
	client, err := New(Config{})
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), "hello")
	require.ErrorIs(t, err, ErrAssistantDisabled)
}

func TestNewRequiresBaseURLAndModel(t *testing.T) {
	_, err := New(Config{Enabled: true, Model: "gpt-test"})
	require.Error(t, err)

	_, err = New(Config{Enabled: true, BaseURL: "http://localhost"})
	require.Error(t, err)
}

func TestHTTPClientChat(t *testing.T) {
	var captured chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "improved resume text"}},
			},
		})
	}))
	defer server.Close()

	client, err := New(Config{
		Enabled: true,
		BaseURL: server.URL + "/v1",
		APIKey:  "test-key",
		Model:   "gpt-test",
		Options: map[string]any{"temperature": "0.2", "max_tokens": 512},
	})
	require.NoError(t, err)

	reply, err := client.Chat(context.Background(), "enhance my resume")
	require.NoError(t, err)
	require.Equal(t, "improved resume text", reply)

	require.Equal(t, "gpt-test", captured.Model)
	require.Len(t, captured.Messages, 1)
	require.Equal(t, "enhance my resume", captured.Messages[0].Content)
	require.NotNil(t, captured.Temperature)
	require.InDelta(t, 0.2, *captured.Temperature, 0.0001)
	require.NotNil(t, captured.MaxTokens)
	require.Equal(t, 512, *captured.MaxTokens)
}

func TestHTTPClientChatProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit exceeded"},
		})
	}))
	defer server.Close()

	client, err := New(Config{Enabled: true, BaseURL: server.URL, Model: "gpt-test"})
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), "hello")
	require.ErrorContains(t, err, "rate limit exceeded")
}

func TestHTTPClientChatEmptyMessage(t *testing.T) {
	client, err := New(Config{Enabled: true, BaseURL: "http://localhost:1", Model: "gpt-test"})
	require.NoError(t, err)

	_, err = client.Chat(context.Background(), "   ")
	require.Error(t, err)
}
