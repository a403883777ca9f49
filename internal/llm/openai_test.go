package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func TestOpenAIProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != openai.ChatMessageRoleSystem {
			t.Errorf("Expected system + user messages, got %+v", req.Messages)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
			t.Errorf("Expected JSON response format, got %+v", req.ResponseFormat)
		}

		resp := openai.ChatCompletionResponse{
			ID:    "chatcmpl-123",
			Model: "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: `  {"verdicts":[]}  `,
					},
					FinishReason: "stop",
				},
			},
			Usage: openai.Usage{TotalTokens: 100},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		System: "system",
		Prompt: "prompt",
		JSON:   true,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if resp.Text != `{"verdicts":[]}` {
		t.Errorf("Expected trimmed text, got %q", resp.Text)
	}
	if resp.Model != "gpt-4o-mini" {
		t.Errorf("Expected model gpt-4o-mini, got %s", resp.Model)
	}
	if resp.TokensUsed != 100 {
		t.Errorf("Expected 100 tokens, got %d", resp.TokensUsed)
	}
}

func TestOpenAIProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "bad-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "prompt"}); err == nil {
		t.Error("Expected error for unauthorized response")
	}
}

func TestOpenAIProvider_Complete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ID: "empty"})
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "prompt"}); err == nil {
		t.Error("Expected error when no choices are returned")
	}
}

func TestNewOpenAIProvider_RequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Error("Expected error without API key")
	}
}
