package report

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/ppiankov/gwaln/internal/model"
)

var topic = model.Topic{
	ID:            "sky",
	Title:         "Sky",
	WikipediaURL:  "https://en.wikipedia.org/wiki/Sky",
	GrokipediaURL: "https://grokipedia.com/page/Sky",
}

func samplePayload() *model.AnalysisPayload {
	return &model.AnalysisPayload{
		SentenceCounts: model.PairCount{Wiki: 1, Grok: 2},
		Sentences: model.SentenceDiff{
			Agreed: []string{"The sky is blue."},
			Extra:  []string{"Critics say it is not."},
		},
		Discrepancies: []model.DiscrepancyRecord{{Type: model.DiscrepancyUnsupportedAddition}},
		BiasEvents:    []model.DiscrepancyRecord{{Type: model.DiscrepancyBias, Tags: []string{"critics say"}}},
		Confidence:    model.ConfidenceSummary{Label: model.ConfidenceModerate, Score: 0.5, Rationale: []string{}},
		Citations:     model.CitationDiff{WikiOnly: []string{"https://a.org"}, GrokOnly: []string{}},
		Meta:          model.PayloadMeta{ContentHash: "abc"},
		UpdatedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuild(t *testing.T) {
	p := samplePayload()
	r := Build(topic, p)

	if r.Schema != model.SchemaVersion {
		t.Errorf("Expected schema %s, got %s", model.SchemaVersion, r.Schema)
	}
	if r.Topic != topic {
		t.Errorf("Expected topic identity preserved, got %+v", r.Topic)
	}
	if r.Meta.ContentHash != "abc" || !r.Meta.GeneratedAt.Equal(p.UpdatedAt) {
		t.Errorf("Unexpected meta %+v", r.Meta)
	}
	if r.Summary.Counts.AgreedSentences != 1 || r.Summary.Counts.ExtraSentences != 1 {
		t.Errorf("Unexpected sentence counts %+v", r.Summary.Counts)
	}
	if r.Summary.Counts.Discrepancies != 1 || r.Summary.Counts.BiasEvents != 1 || r.Summary.Counts.WikiOnlyCitations != 1 {
		t.Errorf("Unexpected event counts %+v", r.Summary.Counts)
	}
	if r.Summary.Headline != "Grokipedia diverges from Wikipedia on Sky: 1 discrepancy and 1 bias event." {
		t.Errorf("Unexpected headline %q", r.Summary.Headline)
	}
	if !reflect.DeepEqual(r.Summary.Confidence, p.Confidence) {
		t.Errorf("Expected confidence copied, got %+v", r.Summary.Confidence)
	}
	if r.Attachments.BiasVerifications == nil || r.Attachments.CitationVerifications == nil {
		t.Error("Expected empty, non-nil attachments")
	}
}

func TestBuild_DoesNotMutatePayload(t *testing.T) {
	p := samplePayload()
	before := *p

	Build(topic, p)

	if !reflect.DeepEqual(*p, before) {
		t.Error("Build mutated its payload")
	}
}

func TestHeadline(t *testing.T) {
	tests := []struct {
		name   string
		counts model.ReportCounts
		want   string
	}{
		{"aligned", model.ReportCounts{FactualErrors: 3}, "Wikipedia and Grokipedia remain aligned on Sky."},
		{"single", model.ReportCounts{Hallucinations: 1}, "Grokipedia diverges from Wikipedia on Sky: 1 hallucination."},
		{"plural pair", model.ReportCounts{Discrepancies: 2, BiasEvents: 3}, "Grokipedia diverges from Wikipedia on Sky: 2 discrepancies and 3 bias events."},
		{"all three", model.ReportCounts{Discrepancies: 1, BiasEvents: 1, Hallucinations: 2}, "Grokipedia diverges from Wikipedia on Sky: 1 discrepancy, 1 bias event and 2 hallucinations."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Headline("Sky", tt.counts); got != tt.want {
				t.Errorf("Headline = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsStructured(t *testing.T) {
	if IsStructured(samplePayload()) {
		t.Error("Legacy payload must not be structured")
	}
	if !IsStructured(Build(topic, samplePayload())) {
		t.Error("Built report must be structured")
	}
	if IsStructured(nil) {
		t.Error("nil must not be structured")
	}
}

func TestCoerce_Idempotent(t *testing.T) {
	p := samplePayload()

	once := Coerce(topic, p)
	twice := Coerce(topic, once)

	if once != twice {
		t.Error("Coerce must return a structured report unchanged")
	}
	if !reflect.DeepEqual(once, Build(topic, p)) {
		t.Error("Coerce of a payload must equal Build")
	}
}

func TestCoerce_DecodedLegacyPayload(t *testing.T) {
	data, err := json.Marshal(samplePayload())
	if err != nil {
		t.Fatal(err)
	}

	doc, err := model.DecodeAnalysisDocument(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	r := Coerce(topic, doc)
	if r == nil || r.Schema != model.SchemaVersion {
		t.Fatalf("Expected a structured report, got %+v", r)
	}
	if r.Meta.ContentHash != "abc" {
		t.Errorf("Expected content hash carried over, got %q", r.Meta.ContentHash)
	}
}
