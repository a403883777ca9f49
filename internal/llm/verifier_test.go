package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ppiankov/gwaln/internal/model"
)

type mockProvider struct {
	replies []string
	err     error
	prompts []string
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) IsAvailable(ctx context.Context) bool { return true }

func (m *mockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.prompts = append(m.prompts, req.Prompt)
	if m.err != nil {
		return nil, m.err
	}
	reply := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return &CompletionResponse{Text: reply, Model: "mock-1"}, nil
}

func biasEvents(n int) []model.DiscrepancyRecord {
	events := make([]model.DiscrepancyRecord, n)
	for i := range events {
		events[i] = model.DiscrepancyRecord{
			Type:     model.DiscrepancyBias,
			Evidence: model.Evidence{Grok: fmt.Sprintf("The regime acted %d.", i)},
			Tags:     []string{"regime"},
		}
	}
	return events
}

func TestBiasVerifier_Disabled(t *testing.T) {
	v, err := NewBiasVerifier(Config{})
	if err != nil {
		t.Fatalf("NewBiasVerifier: %v", err)
	}
	if v.IsEnabled() {
		t.Error("Expected verifier to be disabled")
	}
	if got := v.Verify(context.Background(), biasEvents(2), "", ""); got != nil {
		t.Errorf("Expected no verifications, got %v", got)
	}
}

func TestBiasVerifier_UnknownProvider(t *testing.T) {
	if _, err := NewBiasVerifier(Config{Provider: "nope"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestBiasVerifier_Verify(t *testing.T) {
	provider := &mockProvider{replies: []string{"```json\n" + `{"verdicts":[
		{"event_index":0,"verdict":"confirm","confidence":1.4,"rationale":"slanted"},
		{"event_index":1,"verdict":"Maybe","rationale":"unclear"}
	]}` + "\n```"}}
	v := NewBiasVerifierWithProvider(provider, Config{BatchSize: 5})

	got := v.Verify(context.Background(), biasEvents(3), "wiki", "grok")
	if len(got) != 3 {
		t.Fatalf("Expected 3 verifications, got %d", len(got))
	}

	if got[0].Verdict != model.VerdictConfirm || got[0].Confidence == nil || *got[0].Confidence != 1 {
		t.Errorf("Unexpected first verification %+v", got[0])
	}
	if got[1].Verdict != model.VerdictUncertain || got[1].Confidence != nil {
		t.Errorf("Expected uncertain without confidence, got %+v", got[1])
	}
	if got[2].Verdict != model.VerdictError {
		t.Errorf("Expected error for event without verdict, got %+v", got[2])
	}
	for i, r := range got {
		if r.EventIndex != i {
			t.Errorf("verification %d has index %d", i, r.EventIndex)
		}
		if r.Provider != "mock" {
			t.Errorf("Expected provider mock, got %s", r.Provider)
		}
	}
}

func TestBiasVerifier_Batches(t *testing.T) {
	provider := &mockProvider{replies: []string{
		`{"verdicts":[{"event_index":0,"verdict":"reject"},{"event_index":1,"verdict":"reject"}]}`,
		`{"verdicts":[{"event_index":2,"verdict":"confirm"}]}`,
	}}
	v := NewBiasVerifierWithProvider(provider, Config{BatchSize: 2})

	got := v.Verify(context.Background(), biasEvents(3), "wiki", "grok")

	if len(provider.prompts) != 2 {
		t.Fatalf("Expected 2 batches, got %d", len(provider.prompts))
	}
	if !strings.Contains(provider.prompts[1], "event_index 2") {
		t.Errorf("Second batch should carry global index 2:\n%s", provider.prompts[1])
	}
	want := []model.BiasVerdict{model.VerdictReject, model.VerdictReject, model.VerdictConfirm}
	for i, w := range want {
		if got[i].Verdict != w {
			t.Errorf("event %d: got %s, want %s", i, got[i].Verdict, w)
		}
	}
}

func TestBiasVerifier_ProviderError(t *testing.T) {
	v := NewBiasVerifierWithProvider(&mockProvider{err: errors.New("boom")}, Config{Model: "m"})

	got := v.Verify(context.Background(), biasEvents(2), "", "")
	if len(got) != 2 {
		t.Fatalf("Expected 2 verifications, got %d", len(got))
	}
	for _, r := range got {
		if r.Verdict != model.VerdictError || !strings.Contains(r.Rationale, "boom") {
			t.Errorf("Expected error verdict mentioning cause, got %+v", r)
		}
	}
}

func TestBiasVerifier_UnparseableReply(t *testing.T) {
	v := NewBiasVerifierWithProvider(&mockProvider{replies: []string{"I cannot help with that."}}, Config{})

	got := v.Verify(context.Background(), biasEvents(1), "", "")
	if len(got) != 1 || got[0].Verdict != model.VerdictError {
		t.Errorf("Expected single error verdict, got %+v", got)
	}
}

func TestParseVerdicts_BareArray(t *testing.T) {
	got, err := ParseVerdicts(`[{"event_index":4,"verdict":"reject"}]`)
	if err != nil {
		t.Fatalf("ParseVerdicts: %v", err)
	}
	if len(got) != 1 || got[0].EventIndex != 4 {
		t.Errorf("Unexpected verdicts %+v", got)
	}
}

func TestBuildPrompt_TruncatesContext(t *testing.T) {
	long := strings.Repeat("a", maxContextRunes+50)
	prompt := BuildPrompt([]IndexedEvent{{Index: 7, Event: biasEvents(1)[0]}}, long, "grok")

	if strings.Contains(prompt, long) {
		t.Error("Expected wiki text to be truncated")
	}
	if !strings.Contains(prompt, "event_index 7") || !strings.Contains(prompt, "terms: regime") {
		t.Errorf("Prompt missing event details:\n%s", prompt)
	}
}
