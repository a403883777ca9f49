package llm

import (
	"context"

	"github.com/ppiankov/gwaln/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one system+user prompt pair and returns the reply text
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is a single prompt to a provider
type CompletionRequest struct {
	System string
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// JSON asks the provider for a JSON object reply where supported
	JSON bool
}

// CompletionResponse is the provider's reply
type CompletionResponse struct {
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// BatchSize is the number of bias events sent per prompt
	BatchSize int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   60,
		MaxTokens: 2000,
		BatchSize: 10,
	}
}

// ConfigFromModel converts the application config into a provider config
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    cfg.LLM.Timeout,
		MaxTokens:  cfg.LLM.MaxTokens,
		BatchSize:  cfg.LLM.BatchSize,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	}
}
