package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/gwaln/internal/logging"
	"github.com/ppiankov/gwaln/internal/model"
)

// BiasVerifier asks an LLM to second-guess heuristic bias events
type BiasVerifier struct {
	provider Provider
	config   Config
}

// NewBiasVerifier creates a verifier. With no provider configured the
// verifier is disabled and Verify returns nothing.
func NewBiasVerifier(config Config) (*BiasVerifier, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}

	return &BiasVerifier{
		provider: provider,
		config:   config,
	}, nil
}

// NewBiasVerifierWithProvider wraps an existing provider
func NewBiasVerifierWithProvider(provider Provider, config Config) *BiasVerifier {
	return &BiasVerifier{provider: provider, config: config}
}

// IsEnabled returns true if a provider is configured
func (v *BiasVerifier) IsEnabled() bool {
	return v.provider != nil
}

// ProviderName returns the name of the configured provider
func (v *BiasVerifier) ProviderName() string {
	if v.provider == nil {
		return ""
	}
	return v.provider.Name()
}

// Verify returns one verification per event, in event order. Events are
// sent in batches; a failed batch degrades each of its events to the error
// verdict instead of failing the whole run.
func (v *BiasVerifier) Verify(ctx context.Context, events []model.DiscrepancyRecord, wikiText, grokText string) []model.BiasVerification {
	if v.provider == nil || len(events) == 0 {
		return nil
	}

	batchSize := firstPositive(v.config.BatchSize, DefaultConfig().BatchSize)
	results := make([]model.BiasVerification, 0, len(events))

	for start := 0; start < len(events); start += batchSize {
		end := min(start+batchSize, len(events))

		batch := make([]IndexedEvent, 0, end-start)
		for i := start; i < end; i++ {
			batch = append(batch, IndexedEvent{Index: i, Event: events[i]})
		}

		results = append(results, v.verifyBatch(ctx, batch, wikiText, grokText)...)
	}

	return results
}

func (v *BiasVerifier) verifyBatch(ctx context.Context, batch []IndexedEvent, wikiText, grokText string) []model.BiasVerification {
	resp, err := v.provider.Complete(ctx, CompletionRequest{
		System:    systemPrompt,
		Prompt:    BuildPrompt(batch, wikiText, grokText),
		Model:     v.config.Model,
		MaxTokens: v.config.MaxTokens,
		JSON:      true,
	})
	if err != nil {
		logging.Warn("bias verification failed", "provider", v.provider.Name(), "events", len(batch), "err", err)
		return v.failed(batch, "", err)
	}

	verdicts, err := ParseVerdicts(resp.Text)
	if err != nil {
		logging.Warn("bias verification reply unparseable", "provider", v.provider.Name(), "err", err)
		return v.failed(batch, resp.Model, err)
	}

	byIndex := make(map[int]rawVerdict, len(verdicts))
	for _, rv := range verdicts {
		if _, dup := byIndex[rv.EventIndex]; !dup {
			byIndex[rv.EventIndex] = rv
		}
	}

	results := make([]model.BiasVerification, 0, len(batch))
	for _, e := range batch {
		rv, ok := byIndex[e.Index]
		if !ok {
			results = append(results, v.errorResult(e.Index, resp.Model, "no verdict returned for event"))
			continue
		}
		results = append(results, model.BiasVerification{
			EventIndex: e.Index,
			Verdict:    normalizeVerdict(rv.Verdict),
			Confidence: clampConfidence(rv.Confidence),
			Rationale:  rv.Rationale,
			Provider:   v.provider.Name(),
			Model:      resp.Model,
		})
	}
	return results
}

func (v *BiasVerifier) failed(batch []IndexedEvent, modelName string, err error) []model.BiasVerification {
	results := make([]model.BiasVerification, 0, len(batch))
	for _, e := range batch {
		results = append(results, v.errorResult(e.Index, modelName, fmt.Sprintf("verification failed: %v", err)))
	}
	return results
}

func (v *BiasVerifier) errorResult(index int, modelName, rationale string) model.BiasVerification {
	return model.BiasVerification{
		EventIndex: index,
		Verdict:    model.VerdictError,
		Rationale:  rationale,
		Provider:   v.provider.Name(),
		Model:      firstNonEmpty(modelName, v.config.Model),
	}
}
