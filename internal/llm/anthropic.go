package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ppiankov/gwaln/internal/logging"
)

const defaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicProvider implements the Provider interface for Anthropic Claude models
type AnthropicProvider struct {
	client anthropic.Client
	config Config
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithHTTPClient(newHTTPClient(config, 0)),
		option.WithMaxRetries(1),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(config.BaseURL, "/")+"/"))
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsAvailable checks if the provider is properly configured
func (p *AnthropicProvider) IsAvailable(ctx context.Context) bool {
	// Simple check: make a minimal API call
	_, err := p.Complete(ctx, CompletionRequest{Prompt: "Hi", MaxTokens: 10})
	if err != nil {
		logging.Warn("Anthropic API check failed", "err", err)
		return false
	}
	return true
}

// Complete runs one Messages API call
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := firstNonEmpty(req.Model, p.config.Model, defaultAnthropicModel)
	maxTokens := firstPositive(req.MaxTokens, p.config.MaxTokens, 1000)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeoutOf(p.config, 30*time.Second))
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(0.1),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	message, err := p.client.Messages.New(ctxWithTimeout, params)
	if err != nil {
		return nil, fmt.Errorf("Anthropic API error: %w", err)
	}

	tokens := int(message.Usage.InputTokens + message.Usage.OutputTokens)
	for _, block := range message.Content {
		if block.Type == "text" {
			return &CompletionResponse{
				Text:       strings.TrimSpace(block.Text),
				Model:      firstNonEmpty(string(message.Model), model),
				TokensUsed: tokens,
			}, nil
		}
	}
	return nil, fmt.Errorf("no text content in Anthropic response")
}
