package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/gwaln/internal/logging"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI models
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient(config, 0)

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	// Simple check: try to list models (lightweight API call)
	if _, err := p.client.ListModels(ctx); err != nil {
		logging.Warn("OpenAI API check failed", "err", err)
		return false
	}
	return true
}

// Complete runs one chat completion
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := firstNonEmpty(req.Model, p.config.Model, openai.GPT4oMini)
	maxTokens := firstPositive(req.MaxTokens, p.config.MaxTokens, 1000)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeoutOf(p.config, 30*time.Second))
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.1,
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return &CompletionResponse{
		Text:       strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:      firstNonEmpty(resp.Model, model),
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
