package model

import "time"

// ConfidenceLabel is the ordinal agreement category of a comparison
type ConfidenceLabel string

const (
	ConfidenceSuspectedDivergence ConfidenceLabel = "suspected_divergence"
	ConfidenceLow                 ConfidenceLabel = "low_confidence"
	ConfidenceModerate            ConfidenceLabel = "moderate_confidence"
	ConfidenceHigh                ConfidenceLabel = "high_confidence"
)

// ConfidenceSummary is the scalar score, label and the reasons behind it
type ConfidenceSummary struct {
	Label     ConfidenceLabel `json:"label"`
	Score     float64         `json:"score"`     // Always in [0,1]
	Rationale []string        `json:"rationale"` // Ordered, one sentence per applied factor
}

// AlignmentRecord pairs a wiki unit with a grok unit, or records one of
// them as unmatched. Exactly one side is nil when unmatched.
type AlignmentRecord[T any] struct {
	Wiki       *T      `json:"wiki,omitempty"`
	Grok       *T      `json:"grok,omitempty"`
	Similarity float64 `json:"similarity"` // Rounded to 3 decimals
}

// Matched reports whether both sides are present
func (r AlignmentRecord[T]) Matched() bool {
	return r.Wiki != nil && r.Grok != nil
}

// SectionAlignment is an alignment record over sections
type SectionAlignment = AlignmentRecord[Section]

// ClaimAlignment is an alignment record over claims
type ClaimAlignment = AlignmentRecord[Claim]

// DiscrepancyType classifies a discrepancy event
type DiscrepancyType string

const (
	DiscrepancyMissingContext      DiscrepancyType = "missing_context"      // Wiki sentence with no counterpart
	DiscrepancyUnsupportedAddition DiscrepancyType = "unsupported_addition" // Grok sentence unlike anything in wiki
	DiscrepancyBias                DiscrepancyType = "bias"                 // Grok sentence using loaded language
	DiscrepancyHallucination       DiscrepancyType = "hallucination"        // Grok sentence with unsupported numbers/entities
	DiscrepancyFactualError        DiscrepancyType = "factual_error"        // Aligned pair whose numbers disagree
)

// Evidence holds the originating snippet from each side
type Evidence struct {
	Wiki string `json:"wiki,omitempty"`
	Grok string `json:"grok,omitempty"`
}

// DiscrepancyRecord is one classified difference between the articles
type DiscrepancyRecord struct {
	Type        DiscrepancyType `json:"type"`
	Description string          `json:"description"`
	Evidence    Evidence        `json:"evidence"`
	Tags        []string        `json:"tags,omitempty"`
}

// RewordedSentence is a wiki/grok sentence pair that differs in wording only
type RewordedSentence struct {
	Wiki       string  `json:"wiki"`
	Grok       string  `json:"grok"`
	Similarity float64 `json:"similarity"`
}

// SentenceDiff partitions the sentences of both articles
type SentenceDiff struct {
	Agreed       []string           `json:"agreed"`
	Missing      []string           `json:"missing"` // Wiki-only sentences before reword pairing
	Extra        []string           `json:"extra"`   // Grok-only sentences left after reword pairing
	Reworded     []RewordedSentence `json:"reworded"`
	TrulyMissing []string           `json:"truly_missing"`
}

// SectionDiff holds the section alignment and its unmatched units
type SectionDiff struct {
	Alignment []SectionAlignment `json:"alignment"`
	Missing   []Section          `json:"missing"`
	Extra     []Section          `json:"extra"`
}

// ClaimDiff holds the claim alignment and its unmatched units
type ClaimDiff struct {
	Alignment []ClaimAlignment `json:"alignment"`
	Missing   []Claim          `json:"missing"`
	Extra     []Claim          `json:"extra"`
}

// NumericValue is a number found in text with its optional unit
type NumericValue struct {
	Raw   string  `json:"raw"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// NumericDiscrepancy is an aligned pair whose numbers disagree
type NumericDiscrepancy struct {
	Source     string         `json:"source"` // "claim" or "sentence"
	Wiki       string         `json:"wiki"`
	Grok       string         `json:"grok"`
	WikiValues []NumericValue `json:"wiki_values"`
	GrokValues []NumericValue `json:"grok_values"`
}

// EntityDiscrepancy lists named entities present on one side only
type EntityDiscrepancy struct {
	Missing []string `json:"missing"` // Wiki-only
	Extra   []string `json:"extra"`   // Grok-only
}

// BiasMetrics is the lexicon-based tone comparison of the two texts
type BiasMetrics struct {
	PolarityDelta     float64        `json:"polarity_delta"`
	SubjectivityDelta float64        `json:"subjectivity_delta"`
	LoadedTermsWiki   map[string]int `json:"loaded_terms_wiki"`
	LoadedTermsGrok   map[string]int `json:"loaded_terms_grok"`
}

// CitationDiff is the set difference of citation URLs
type CitationDiff struct {
	WikiOnly    []string `json:"wiki_only"`
	GrokOnly    []string `json:"grok_only"`
	SharedCount int      `json:"shared_count"`
}

// PairCount holds one count per side
type PairCount struct {
	Wiki int `json:"wiki"`
	Grok int `json:"grok"`
}

// SimilarityRatios are whole-text similarity measures in [0,1]
type SimilarityRatios struct {
	Word     float64 `json:"word"`
	Sentence float64 `json:"sentence"`
}

// PayloadMeta is the cache metadata of a raw payload
type PayloadMeta struct {
	ContentHash string `json:"content_hash"`
}

// AnalysisPayload is the complete raw output of one comparison.
// It is the legacy cache shape: it carries no schema tag.
type AnalysisPayload struct {
	CharCounts     PairCount        `json:"char_counts"`
	SentenceCounts PairCount        `json:"sentence_counts"`
	Similarity     SimilarityRatios `json:"similarity"`
	NgramOverlap   float64          `json:"ngram_overlap"`

	Sentences SentenceDiff `json:"sentences"`
	Sections  SectionDiff  `json:"sections"`
	Claims    ClaimDiff    `json:"claims"`

	NumericDiscrepancies []NumericDiscrepancy `json:"numeric_discrepancies"`
	EntityDiscrepancies  EntityDiscrepancy    `json:"entity_discrepancies"`

	Discrepancies  []DiscrepancyRecord `json:"discrepancies"`
	BiasEvents     []DiscrepancyRecord `json:"bias_events"`
	Hallucinations []DiscrepancyRecord `json:"hallucinations"`
	FactualErrors  []DiscrepancyRecord `json:"factual_errors"`

	BiasMetrics BiasMetrics       `json:"bias_metrics"`
	Citations   CitationDiff      `json:"citations"`
	Confidence  ConfidenceSummary `json:"confidence"`

	// Enrichment from the external verifiers, merged in after analysis
	BiasVerifications     []BiasVerification     `json:"bias_verifications,omitempty"`
	CitationVerifications []CitationVerification `json:"citation_verifications,omitempty"`

	Meta      PayloadMeta `json:"meta"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// WithVerifications returns a copy of the payload carrying verifier results.
// The receiver is left untouched.
func (p *AnalysisPayload) WithVerifications(bias []BiasVerification, citations []CitationVerification) *AnalysisPayload {
	enriched := *p
	enriched.BiasVerifications = bias
	enriched.CitationVerifications = citations
	return &enriched
}

// ReportMeta is the cache metadata of a structured report
type ReportMeta struct {
	ContentHash string    `json:"content_hash"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ReportCounts are the summary counters of a structured report
type ReportCounts struct {
	AgreedSentences       int `json:"agreed_sentences"`
	MissingSentences      int `json:"missing_sentences"`
	TrulyMissingSentences int `json:"truly_missing_sentences"`
	ExtraSentences        int `json:"extra_sentences"`
	RewordedSentences     int `json:"reworded_sentences"`
	MissingSections       int `json:"missing_sections"`
	ExtraSections         int `json:"extra_sections"`
	MissingClaims         int `json:"missing_claims"`
	ExtraClaims           int `json:"extra_claims"`
	Discrepancies         int `json:"discrepancies"`
	BiasEvents            int `json:"bias_events"`
	Hallucinations        int `json:"hallucinations"`
	FactualErrors         int `json:"factual_errors"`
	NumericDiscrepancies  int `json:"numeric_discrepancies"`
	MissingEntities       int `json:"missing_entities"`
	ExtraEntities         int `json:"extra_entities"`
	WikiOnlyCitations     int `json:"wiki_only_citations"`
	GrokOnlyCitations     int `json:"grok_only_citations"`
}

// ReportSummary is the at-a-glance part of a structured report
type ReportSummary struct {
	Headline   string            `json:"headline"`
	Confidence ConfidenceSummary `json:"confidence"`
	Counts     ReportCounts      `json:"counts"`
}

// ReportComparison nests the similarity measures and diff sets
type ReportComparison struct {
	Similarity     SimilarityRatios `json:"similarity"`
	NgramOverlap   float64          `json:"ngram_overlap"`
	CharCounts     PairCount        `json:"char_counts"`
	SentenceCounts PairCount        `json:"sentence_counts"`
	Sentences      SentenceDiff     `json:"sentences"`
	Sections       SectionDiff      `json:"sections"`
	Claims         ClaimDiff        `json:"claims"`
}

// ReportDiscrepancies nests every classified event list
type ReportDiscrepancies struct {
	Primary        []DiscrepancyRecord  `json:"primary"`
	Bias           []DiscrepancyRecord  `json:"bias"`
	Hallucinations []DiscrepancyRecord  `json:"hallucinations"`
	FactualErrors  []DiscrepancyRecord  `json:"factual_errors"`
	Numeric        []NumericDiscrepancy `json:"numeric"`
	Entities       EntityDiscrepancy    `json:"entities"`
}

// ReportAttachments carries verifier output
type ReportAttachments struct {
	BiasVerifications     []BiasVerification     `json:"bias_verifications"`
	CitationVerifications []CitationVerification `json:"citation_verifications"`
}

// StructuredAnalysisReport is the versioned, stable report shape
type StructuredAnalysisReport struct {
	Schema        string              `json:"schema"` // Always SchemaVersion
	Topic         Topic               `json:"topic"`
	Meta          ReportMeta          `json:"meta"`
	Summary       ReportSummary       `json:"summary"`
	Comparison    ReportComparison    `json:"comparison"`
	Discrepancies ReportDiscrepancies `json:"discrepancies"`
	BiasMetrics   BiasMetrics         `json:"bias_metrics"`
	Citations     CitationDiff        `json:"citations"`
	Attachments   ReportAttachments   `json:"attachments"`
}
