// Package align pairs the structural units of two articles by text similarity.
//
// Matching is greedy and single-pass: each wiki unit, in order, takes the
// most similar grok unit that is still free. Ties go to the grok unit that
// comes first. This is not a globally optimal assignment.
package align

import (
	"github.com/ppiankov/gwaln/internal/model"
	"github.com/ppiankov/gwaln/internal/textsim"
)

const (
	// SectionThreshold is the minimum heading similarity for a section pair
	SectionThreshold = 0.70

	// ClaimThreshold is the minimum text similarity for a claim pair
	ClaimThreshold = 0.65
)

// AlignSections aligns sections by heading
func AlignSections(wiki, grok []model.Section) []model.SectionAlignment {
	return greedy(wiki, grok, SectionThreshold, func(s model.Section) string { return s.Heading })
}

// AlignClaims aligns claims by text
func AlignClaims(wiki, grok []model.Claim) []model.ClaimAlignment {
	return greedy(wiki, grok, ClaimThreshold, func(c model.Claim) string { return c.Text })
}

// greedy emits one record per wiki unit in order, then one per unconsumed
// grok unit in order. Every input unit lands in exactly one record.
func greedy[T any](wiki, grok []T, threshold float64, text func(T) string) []model.AlignmentRecord[T] {
	records := make([]model.AlignmentRecord[T], 0, len(wiki)+len(grok))
	consumed := make([]bool, len(grok))

	for i := range wiki {
		left := wiki[i]
		best, bestIdx := 0.0, -1

		for j := range grok {
			if consumed[j] {
				continue
			}
			score := textsim.Ratio(text(left), text(grok[j]))
			// Strictly greater keeps the first grok unit on ties
			if bestIdx == -1 || score > best {
				best, bestIdx = score, j
			}
		}

		if bestIdx >= 0 && best >= threshold {
			consumed[bestIdx] = true
			right := grok[bestIdx]
			records = append(records, model.AlignmentRecord[T]{
				Wiki:       &left,
				Grok:       &right,
				Similarity: textsim.Round3(best),
			})
			continue
		}

		records = append(records, model.AlignmentRecord[T]{
			Wiki:       &left,
			Similarity: textsim.Round3(best),
		})
	}

	for j := range grok {
		if consumed[j] {
			continue
		}
		right := grok[j]
		records = append(records, model.AlignmentRecord[T]{Grok: &right})
	}

	return records
}

// Unmatched splits the unmatched units of an alignment by side
func Unmatched[T any](records []model.AlignmentRecord[T]) (wikiOnly, grokOnly []T) {
	wikiOnly, grokOnly = []T{}, []T{}
	for _, r := range records {
		switch {
		case r.Matched():
		case r.Wiki != nil:
			wikiOnly = append(wikiOnly, *r.Wiki)
		case r.Grok != nil:
			grokOnly = append(grokOnly, *r.Grok)
		}
	}
	return wikiOnly, grokOnly
}
