package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"makefoods"
)

const (
	defaultBaseURL     = "https://api.openai.com"
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.7

	completionsPath = "/v1/chat/completions"
)

type ClientOpts struct {
	BaseURL     string
	APIKey      string
	ModelID     string
	Temperature *float32 // nil means defaultTemperature
	MaxTokens   int32
	HTTPClient  makefoods.HTTPClient
}

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float32
	maxTokens   int32
	httpClient  makefoods.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("missing API key")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.ModelID == "" {
		opts.ModelID = defaultModel
	}
	temperature := float32(defaultTemperature)
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Client{
		endpoint:    strings.TrimRight(opts.BaseURL, "/") + completionsPath,
		apiKey:      opts.APIKey,
		model:       opts.ModelID,
		temperature: temperature,
		maxTokens:   opts.MaxTokens,
		httpClient:  opts.HTTPClient,
	}, nil
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int32         `json:"max_tokens,omitempty"`
}

type wireResponse struct {
	Choices []struct {
		Message      wireMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete posts the conversation and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, req makefoods.ChatRequest) (string, error) {
	slog.Info("LLM_CLIENT: Invoked", "messages_len", len(req.Messages))

	body := wireRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages:    make([]wireMessage, 0, len(req.Messages)),
	}
	if req.Model != "" {
		body.Model = req.Model
	}
	if req.Temperature != nil {
		body.Temperature = *req.Temperature
	}
	if req.MaxTokens != 0 {
		body.MaxTokens = req.MaxTokens
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, wireMessage{Role: m.Role, Content: m.Content})
	}

	reqBytes, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBytes))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat completions request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat completions response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("chat completions: %s: %s", resp.Status, string(respBody))
	}

	var wr wireResponse
	if err := json.Unmarshal(respBody, &wr); err != nil {
		return "", fmt.Errorf("decode chat completions response: %w", err)
	}
	if len(wr.Choices) == 0 {
		return "", errors.New("chat completions: no choices in response")
	}

	content := wr.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", errors.New("chat completions: empty content")
	}

	slog.Info("LLM_CLIENT: Invoke succeeded",
		"finish_reason", wr.Choices[0].FinishReason,
		"input_tokens", wr.Usage.PromptTokens,
		"output_tokens", wr.Usage.CompletionTokens,
	)
	return content, nil
}
