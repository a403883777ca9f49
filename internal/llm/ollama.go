package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/gwaln/internal/logging"
)

// OllamaProvider implements the Provider interface for Ollama local models
type OllamaProvider struct {
	baseURL    string
	httpClient *http.Client
	config     Config
}

// generateRequest is the body of POST /api/generate
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Format  string          `json:"format,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options,omitempty"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// generateReply is the single non-streamed reply. Eval counts may be zero
// for some models.
type generateReply struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
	Error           string `json:"error,omitempty"`
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	timeout := timeoutOf(config, 60*time.Second)

	return &OllamaProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: newHTTPClient(config, timeout),
		config:     config,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable reports whether the Ollama server answers a model listing
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		logging.Warn("Ollama availability check failed", "stage", "request", "err", err)
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		logging.Warn("Ollama availability check failed", "url", p.baseURL, "err", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		logging.Warn("Ollama availability check failed", "url", p.baseURL, "status", resp.StatusCode)
		return false
	}

	return true
}

// Complete runs one non-streaming generate call
func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := firstNonEmpty(req.Model, p.config.Model)
	if model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b, mistral)")
	}

	body := generateRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: req.System,
		Options: generateOptions{
			Temperature: 0.1,
			NumPredict:  firstPositive(req.MaxTokens, p.config.MaxTokens, 1000),
		},
	}
	if req.JSON {
		body.Format = "json"
	}

	reply, err := p.generate(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("ollama generate: %w", err)
	}

	text := strings.TrimSpace(reply.Response)
	tokens := reply.PromptEvalCount + reply.EvalCount
	if tokens == 0 {
		tokens = (len(req.Prompt) + len(text)) / 4
	}

	return &CompletionResponse{
		Text:       text,
		Model:      firstNonEmpty(reply.Model, model),
		TokensUsed: tokens,
	}, nil
}

func (p *OllamaProvider) generate(ctx context.Context, body generateRequest) (*generateReply, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var reply generateReply
	decodeErr := json.Unmarshal(raw, &reply)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && reply.Error != "" {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, reply.Error)
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	return &reply, nil
}
