// Package report reshapes an AnalysisPayload into the versioned
// StructuredAnalysisReport.
package report

import (
	"fmt"
	"strings"

	"github.com/ppiankov/gwaln/internal/model"
)

// Build derives the structured report of a payload. It is pure: the payload
// is only read, and slices in the result are shared with it.
func Build(topic model.Topic, p *model.AnalysisPayload) *model.StructuredAnalysisReport {
	counts := model.ReportCounts{
		AgreedSentences:       len(p.Sentences.Agreed),
		MissingSentences:      len(p.Sentences.Missing),
		TrulyMissingSentences: len(p.Sentences.TrulyMissing),
		ExtraSentences:        len(p.Sentences.Extra),
		RewordedSentences:     len(p.Sentences.Reworded),
		MissingSections:       len(p.Sections.Missing),
		ExtraSections:         len(p.Sections.Extra),
		MissingClaims:         len(p.Claims.Missing),
		ExtraClaims:           len(p.Claims.Extra),
		Discrepancies:         len(p.Discrepancies),
		BiasEvents:            len(p.BiasEvents),
		Hallucinations:        len(p.Hallucinations),
		FactualErrors:         len(p.FactualErrors),
		NumericDiscrepancies:  len(p.NumericDiscrepancies),
		MissingEntities:       len(p.EntityDiscrepancies.Missing),
		ExtraEntities:         len(p.EntityDiscrepancies.Extra),
		WikiOnlyCitations:     len(p.Citations.WikiOnly),
		GrokOnlyCitations:     len(p.Citations.GrokOnly),
	}

	return &model.StructuredAnalysisReport{
		Schema: model.SchemaVersion,
		Topic:  topic,
		Meta: model.ReportMeta{
			ContentHash: p.Meta.ContentHash,
			GeneratedAt: p.UpdatedAt,
		},
		Summary: model.ReportSummary{
			Headline:   Headline(topic.DisplayTitle(), counts),
			Confidence: p.Confidence,
			Counts:     counts,
		},
		Comparison: model.ReportComparison{
			Similarity:     p.Similarity,
			NgramOverlap:   p.NgramOverlap,
			CharCounts:     p.CharCounts,
			SentenceCounts: p.SentenceCounts,
			Sentences:      p.Sentences,
			Sections:       p.Sections,
			Claims:         p.Claims,
		},
		Discrepancies: model.ReportDiscrepancies{
			Primary:        p.Discrepancies,
			Bias:           p.BiasEvents,
			Hallucinations: p.Hallucinations,
			FactualErrors:  p.FactualErrors,
			Numeric:        p.NumericDiscrepancies,
			Entities:       p.EntityDiscrepancies,
		},
		BiasMetrics: p.BiasMetrics,
		Citations:   p.Citations,
		Attachments: model.ReportAttachments{
			BiasVerifications:     nonNil(p.BiasVerifications),
			CitationVerifications: nonNil(p.CitationVerifications),
		},
	}
}

// IsStructured reports whether doc carries the structured report schema
func IsStructured(doc model.AnalysisDocument) bool {
	return doc != nil && doc.SchemaTag() == model.SchemaVersion
}

// Coerce returns doc as a structured report. A structured report is returned
// unchanged; a legacy payload is built into one.
func Coerce(topic model.Topic, doc model.AnalysisDocument) *model.StructuredAnalysisReport {
	switch d := doc.(type) {
	case *model.StructuredAnalysisReport:
		return d
	case *model.AnalysisPayload:
		return Build(topic, d)
	default:
		return nil
	}
}

// Headline summarises the event counts in one sentence
func Headline(title string, counts model.ReportCounts) string {
	var parts []string
	if counts.Discrepancies > 0 {
		parts = append(parts, plural(counts.Discrepancies, "discrepancy", "discrepancies"))
	}
	if counts.BiasEvents > 0 {
		parts = append(parts, plural(counts.BiasEvents, "bias event", "bias events"))
	}
	if counts.Hallucinations > 0 {
		parts = append(parts, plural(counts.Hallucinations, "hallucination", "hallucinations"))
	}

	if len(parts) == 0 {
		return fmt.Sprintf("Wikipedia and Grokipedia remain aligned on %s.", title)
	}
	return fmt.Sprintf("Grokipedia diverges from Wikipedia on %s: %s.", title, joinList(parts))
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, pluralForm)
}

// joinList joins with ", " and puts " and " before the last item
func joinList(parts []string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
