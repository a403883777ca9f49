package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates a new LLM provider based on configuration.
// An empty provider name disables verification and returns nil.
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured - return nil (LLM disabled)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}
