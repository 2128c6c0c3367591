package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Client is the inference surface the rest of the application depends on. It
// deliberately hides transport details so services can be tested with a fake.
type Client interface {
	Chat(ctx context.Context, message string) (string, error)
}

// ErrAssistantDisabled is returned by the disabled client.
var ErrAssistantDisabled = errors.New("assistant: disabled")

// Config describes the connection to a chat-completions endpoint. Options
// holds provider tunables (temperature, max_tokens, top_p) decoded leniently
// from configuration.
type Config struct {
	Enabled bool
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	Options map[string]any
}

// generationOptions are the request tunables we forward to the provider.
type generationOptions struct {
	Temperature *float64 `mapstructure:"temperature" json:"temperature,omitempty"`
	MaxTokens   *int     `mapstructure:"max_tokens" json:"max_tokens,omitempty"`
	TopP        *float64 `mapstructure:"top_p" json:"top_p,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	generationOptions
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// HTTPClient implements Client against an OpenAI-compatible chat endpoint.
type HTTPClient struct {
	baseURL string
	apiKey  string
	model   string
	opts    generationOptions
	http    *http.Client
}

// New builds a Client from configuration. When cfg.Enabled is false a client
// that always returns ErrAssistantDisabled is returned, so callers need no
// nil checks.
func New(cfg Config) (Client, error) {
	if !cfg.Enabled {
		return disabledClient{}, nil
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("assistant: base url is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("assistant: model is required")
	}

	var opts generationOptions
	if len(cfg.Options) > 0 {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &opts,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, fmt.Errorf("assistant: build options decoder: %w", err)
		}
		if err := decoder.Decode(cfg.Options); err != nil {
			return nil, fmt.Errorf("assistant: decode options: %w", err)
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		opts:    opts,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// Chat sends a single user message and returns the assistant's reply text.
func (c *HTTPClient) Chat(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", errors.New("assistant: message is empty")
	}

	payload := chatRequest{
		Model:             c.model,
		Messages:          []chatMessage{{Role: "user", Content: message}},
		generationOptions: c.opts,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("assistant: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("assistant: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("assistant: call endpoint: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("assistant: read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("assistant: decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return "", fmt.Errorf("assistant: provider error (status %d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("assistant: provider returned status %d", resp.StatusCode)
	}

	if len(parsed.Choices) == 0 {
		return "", errors.New("assistant: provider returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

type disabledClient struct{}

func (disabledClient) Chat(context.Context, string) (string, error) {
	return "", ErrAssistantDisabled
}
