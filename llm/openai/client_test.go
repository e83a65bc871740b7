package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makefoods"
)

func TestNewClient(t *testing.T) {
	_, err := NewClient(ClientOpts{})
	assert.EqualError(t, err, "missing API key")

	c, err := NewClient(ClientOpts{APIKey: "k", BaseURL: "http://localhost:1234/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:1234/v1/chat/completions", c.endpoint)
	assert.Equal(t, defaultModel, c.model)
	assert.Equal(t, float32(defaultTemperature), c.temperature)

	zero := float32(0)
	c, err = NewClient(ClientOpts{APIKey: "k", Temperature: &zero})
	require.NoError(t, err)
	assert.Equal(t, float32(0), c.temperature)
}

func TestClient_Complete(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expected      string
		expectedError string
	}{
		{
			name:     "first choice content",
			status:   http.StatusOK,
			body:     `{"choices":[{"message":{"role":"assistant","content":"RECIPE_LIST:\n- Bibimbap"},"finish_reason":"stop"},{"message":{"role":"assistant","content":"ignored"}}]}`,
			expected: "RECIPE_LIST:\n- Bibimbap",
		},
		{
			name:          "non 2xx status",
			status:        http.StatusTooManyRequests,
			body:          `{"error":{"message":"rate limited"}}`,
			expectedError: "429",
		},
		{
			name:          "no choices",
			status:        http.StatusOK,
			body:          `{"choices":[]}`,
			expectedError: "no choices",
		},
		{
			name:          "empty content",
			status:        http.StatusOK,
			body:          `{"choices":[{"message":{"role":"assistant","content":""}}]}`,
			expectedError: "empty content",
		},
		{
			name:          "malformed body",
			status:        http.StatusOK,
			body:          `not json`,
			expectedError: "decode chat completions response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewClient(ClientOpts{APIKey: "sk-test", BaseURL: srv.URL, HTTPClient: srv.Client()})
			require.NoError(t, err)

			got, err := c.Complete(context.Background(), makefoods.ChatRequest{
				Messages: []makefoods.ChatMessage{{Role: "user", Content: "hi"}},
			})
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestClient_CompleteSendsRequest(t *testing.T) {
	var got wireRequest
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(ClientOpts{APIKey: "sk-test", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	temperature := float32(0.2)
	_, err = c.Complete(context.Background(), makefoods.ChatRequest{
		Model:       "gpt-4o",
		Temperature: &temperature,
		Messages: []makefoods.ChatMessage{
			{Role: "system", Content: "be helpful"},
			{Role: "user", Content: "hi"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, completionsPath, path)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, float32(0.2), got.Temperature)
	assert.Equal(t, []wireMessage{{Role: "system", Content: "be helpful"}, {Role: "user", Content: "hi"}}, got.Messages)
}
