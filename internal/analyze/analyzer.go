// Package analyze compares a Wikipedia article with its Grokipedia
// counterpart and produces the raw AnalysisPayload.
package analyze

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/gwaln/internal/align"
	"github.com/ppiankov/gwaln/internal/bias"
	"github.com/ppiankov/gwaln/internal/cache"
	"github.com/ppiankov/gwaln/internal/extract"
	"github.com/ppiankov/gwaln/internal/model"
	"github.com/ppiankov/gwaln/internal/score"
	"github.com/ppiankov/gwaln/internal/textsim"
)

const (
	// RewordThreshold is the token similarity at which a wiki-only and a
	// grok-only sentence are paired as a rewording
	RewordThreshold = 0.60

	// UnsupportedThreshold is the similarity below which a grok-only
	// sentence resembles nothing on the wiki side
	UnsupportedThreshold = 0.30
)

// Tags attached to classified events
const (
	TagUnsupportedNumber = "unsupported_number"
	TagUnsupportedEntity = "unsupported_entity"
	TagNumericMismatch   = "numeric_mismatch"
)

// Input is one pair of parsed articles with their flattened texts
type Input struct {
	Wiki     model.StructuredArticle
	Grok     model.StructuredArticle
	WikiText string
	GrokText string
}

// Analyzer runs the deterministic comparison
type Analyzer struct {
	scorer *score.Scorer
	now    func() time.Time
}

// NewAnalyzer creates an analyzer using the wall clock
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		scorer: score.NewScorer(),
		now:    time.Now,
	}
}

// WithClock replaces the clock used for updated_at
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Analyze compares both sides. It never fails: empty input yields zeroed
// ratios and everything on the other side classified as missing or extra.
func (a *Analyzer) Analyze(in Input) *model.AnalysisPayload {
	wikiSentences := extract.SplitSentences(in.WikiText)
	grokSentences := extract.SplitSentences(in.GrokText)
	wikiWords := extract.Words(in.WikiText)
	grokWords := extract.Words(in.GrokText)

	p := &model.AnalysisPayload{
		CharCounts: model.PairCount{
			Wiki: utf8.RuneCountInString(in.WikiText),
			Grok: utf8.RuneCountInString(in.GrokText),
		},
		SentenceCounts: model.PairCount{Wiki: len(wikiSentences), Grok: len(grokSentences)},
		Similarity: model.SimilarityRatios{
			Word:     textsim.Round3(textsim.TokenRatio(wikiWords, grokWords)),
			Sentence: textsim.Round3(textsim.TokenRatio(normalizeAll(wikiSentences), normalizeAll(grokSentences))),
		},
		NgramOverlap: textsim.Round3(trigramOverlap(wikiWords, grokWords)),
	}

	p.Sentences = partitionSentences(wikiSentences, grokSentences)

	sectionAlignment := align.AlignSections(in.Wiki.Sections, in.Grok.Sections)
	missingSections, extraSections := align.Unmatched(sectionAlignment)
	p.Sections = model.SectionDiff{Alignment: sectionAlignment, Missing: missingSections, Extra: extraSections}

	claimAlignment := align.AlignClaims(in.Wiki.Claims, in.Grok.Claims)
	missingClaims, extraClaims := align.Unmatched(claimAlignment)
	p.Claims = model.ClaimDiff{Alignment: claimAlignment, Missing: missingClaims, Extra: extraClaims}

	p.NumericDiscrepancies = numericDiscrepancies(claimAlignment, p.Sentences.Reworded)
	p.EntityDiscrepancies = entityDiscrepancies(in.WikiText, in.GrokText)

	p.Discrepancies, p.BiasEvents, p.Hallucinations = classify(p.Sentences, wikiSentences, in.WikiText, p.EntityDiscrepancies.Extra)
	p.FactualErrors = factualErrors(p.NumericDiscrepancies)

	p.BiasMetrics = bias.ComputeBiasMetrics(in.WikiText, in.GrokText)
	p.Citations = diffCitations(in)

	p.Confidence = a.scorer.Calculate(score.Factors{
		Similarity:    p.Similarity.Word,
		Overlap:       p.NgramOverlap,
		TrulyMissing:  len(p.Sentences.TrulyMissing),
		Extra:         len(p.Sentences.Extra),
		FactualErrors: len(p.FactualErrors),
		Agreement:     len(p.Sentences.Agreed),
		Reworded:      len(p.Sentences.Reworded),
	})

	p.Meta = model.PayloadMeta{ContentHash: cache.ContentHash(in.WikiText, in.GrokText)}
	p.UpdatedAt = a.now().UTC()

	return p
}

func normalizeAll(sentences []string) []string {
	out := make([]string, len(sentences))
	for i, s := range sentences {
		out[i] = extract.NormalizeSentence(s)
	}
	return out
}

// trigramOverlap is |A∩B| / |A∪B| over token trigrams, 0 when both are empty
func trigramOverlap(a, b []string) float64 {
	setA := trigrams(a)
	setB := trigrams(b)

	shared := 0
	for g := range setA {
		if setB[g] {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func trigrams(tokens []string) map[string]bool {
	set := make(map[string]bool)
	for i := 0; i+3 <= len(tokens); i++ {
		set[strings.Join(tokens[i:i+3], " ")] = true
	}
	return set
}

// partitionSentences splits sentences into agreed, wiki-only and grok-only,
// then pairs rewordings greedily. Each list keeps first-occurrence order and
// holds one entry per normalized sentence.
func partitionSentences(wiki, grok []string) model.SentenceDiff {
	wikiSet := make(map[string]bool, len(wiki))
	for _, s := range wiki {
		wikiSet[extract.NormalizeSentence(s)] = true
	}
	grokSet := make(map[string]bool, len(grok))
	for _, s := range grok {
		grokSet[extract.NormalizeSentence(s)] = true
	}

	diff := model.SentenceDiff{
		Agreed:       []string{},
		Missing:      []string{},
		Extra:        []string{},
		Reworded:     []model.RewordedSentence{},
		TrulyMissing: []string{},
	}

	seen := make(map[string]bool)
	for _, s := range wiki {
		key := extract.NormalizeSentence(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		if grokSet[key] {
			diff.Agreed = append(diff.Agreed, s)
		} else {
			diff.Missing = append(diff.Missing, s)
		}
	}

	var candidates []string
	seen = make(map[string]bool)
	for _, s := range grok {
		key := extract.NormalizeSentence(s)
		if seen[key] || wikiSet[key] {
			continue
		}
		seen[key] = true
		candidates = append(candidates, s)
	}

	consumed := make([]bool, len(candidates))
	for _, w := range diff.Missing {
		wWords := extract.Words(w)
		best, bestIdx := -1.0, -1
		for j, g := range candidates {
			if consumed[j] {
				continue
			}
			if sim := textsim.TokenRatio(wWords, extract.Words(g)); sim > best {
				best, bestIdx = sim, j
			}
		}

		if bestIdx >= 0 && best >= RewordThreshold {
			consumed[bestIdx] = true
			diff.Reworded = append(diff.Reworded, model.RewordedSentence{
				Wiki:       w,
				Grok:       candidates[bestIdx],
				Similarity: textsim.Round3(best),
			})
			continue
		}
		diff.TrulyMissing = append(diff.TrulyMissing, w)
	}

	for j, g := range candidates {
		if !consumed[j] {
			diff.Extra = append(diff.Extra, g)
		}
	}

	return diff
}

// numericDiscrepancies checks matched claim pairs, then reworded sentence
// pairs not already covered by a claim pair
func numericDiscrepancies(claims []model.ClaimAlignment, reworded []model.RewordedSentence) []model.NumericDiscrepancy {
	found := []model.NumericDiscrepancy{}
	seen := make(map[[2]string]bool)

	check := func(source, wiki, grok string) {
		key := [2]string{extract.NormalizeSentence(wiki), extract.NormalizeSentence(grok)}
		if seen[key] {
			return
		}
		seen[key] = true

		wikiValues := extract.ExtractNumbers(wiki)
		grokValues := extract.ExtractNumbers(grok)
		if extract.NumbersMismatch(wikiValues, grokValues) {
			found = append(found, model.NumericDiscrepancy{
				Source:     source,
				Wiki:       wiki,
				Grok:       grok,
				WikiValues: wikiValues,
				GrokValues: grokValues,
			})
		}
	}

	for _, record := range claims {
		if record.Matched() {
			check("claim", record.Wiki.Text, record.Grok.Text)
		}
	}
	for _, pair := range reworded {
		check("sentence", pair.Wiki, pair.Grok)
	}

	return found
}

func entityDiscrepancies(wikiText, grokText string) model.EntityDiscrepancy {
	wiki := extract.ExtractEntities(wikiText)
	grok := extract.ExtractEntities(grokText)

	return model.EntityDiscrepancy{
		Missing: difference(wiki, grok),
		Extra:   difference(grok, wiki),
	}
}

// difference returns the elements of a absent from b, keeping a's order
func difference(a, b []string) []string {
	out := []string{}
	for _, s := range a {
		if !slices.Contains(b, s) {
			out = append(out, s)
		}
	}
	return out
}

// classify turns the sentence partition into typed events
func classify(diff model.SentenceDiff, wikiSentences []string, wikiText string, grokOnlyEntities []string) (primary, biasEvents, hallucinations []model.DiscrepancyRecord) {
	primary = []model.DiscrepancyRecord{}
	biasEvents = []model.DiscrepancyRecord{}
	hallucinations = []model.DiscrepancyRecord{}

	for _, s := range diff.TrulyMissing {
		primary = append(primary, model.DiscrepancyRecord{
			Type:        model.DiscrepancyMissingContext,
			Description: "Wikipedia sentence has no counterpart on Grokipedia",
			Evidence:    model.Evidence{Wiki: s},
		})
	}

	wikiWords := make([][]string, len(wikiSentences))
	for i, w := range wikiSentences {
		wikiWords[i] = extract.Words(w)
	}
	wikiNumbers := extract.ExtractNumbers(wikiText)

	for _, s := range diff.Extra {
		words := extract.Words(s)

		best := 0.0
		for _, w := range wikiWords {
			best = max(best, textsim.TokenRatio(words, w))
		}
		if best < UnsupportedThreshold {
			primary = append(primary, model.DiscrepancyRecord{
				Type:        model.DiscrepancyUnsupportedAddition,
				Description: fmt.Sprintf("Grokipedia sentence has no close match on Wikipedia (best similarity %.3f)", textsim.Round3(best)),
				Evidence:    model.Evidence{Grok: s},
			})
		}

		if terms := bias.LoadedTerms(s); len(terms) > 0 {
			tags := make([]string, 0, len(terms))
			for term := range terms {
				tags = append(tags, term)
			}
			slices.Sort(tags)
			biasEvents = append(biasEvents, model.DiscrepancyRecord{
				Type:        model.DiscrepancyBias,
				Description: "Grokipedia sentence uses loaded language: " + strings.Join(tags, ", "),
				Evidence:    model.Evidence{Grok: s},
				Tags:        tags,
			})
		}

		if tags := unsupportedDetails(s, wikiNumbers, grokOnlyEntities); len(tags) > 0 {
			hallucinations = append(hallucinations, model.DiscrepancyRecord{
				Type:        model.DiscrepancyHallucination,
				Description: "Grokipedia sentence introduces details absent from Wikipedia",
				Evidence:    model.Evidence{Grok: s},
				Tags:        tags,
			})
		}
	}

	return primary, biasEvents, hallucinations
}

func unsupportedDetails(sentence string, wikiNumbers []model.NumericValue, grokOnlyEntities []string) []string {
	var tags []string

	for _, v := range extract.ExtractNumbers(sentence) {
		if !extract.ContainsNumber(wikiNumbers, v) {
			tags = append(tags, TagUnsupportedNumber)
			break
		}
	}

	for _, e := range extract.ExtractEntities(sentence) {
		if slices.Contains(grokOnlyEntities, e) {
			tags = append(tags, TagUnsupportedEntity)
			break
		}
	}

	return tags
}

func factualErrors(numeric []model.NumericDiscrepancy) []model.DiscrepancyRecord {
	records := []model.DiscrepancyRecord{}
	for _, n := range numeric {
		records = append(records, model.DiscrepancyRecord{
			Type:        model.DiscrepancyFactualError,
			Description: fmt.Sprintf("Numbers disagree between aligned %ss", n.Source),
			Evidence:    model.Evidence{Wiki: n.Wiki, Grok: n.Grok},
			Tags:        []string{TagNumericMismatch},
		})
	}
	return records
}

// diffCitations compares the URLs cited on each side: URLs in the raw text
// plus the references found by the parser
func diffCitations(in Input) model.CitationDiff {
	wiki := citationSet(in.WikiText, in.Wiki.References)
	grok := citationSet(in.GrokText, in.Grok.References)

	diff := model.CitationDiff{WikiOnly: []string{}, GrokOnly: []string{}}
	for u := range wiki {
		if grok[u] {
			diff.SharedCount++
		} else {
			diff.WikiOnly = append(diff.WikiOnly, u)
		}
	}
	for u := range grok {
		if !wiki[u] {
			diff.GrokOnly = append(diff.GrokOnly, u)
		}
	}
	slices.Sort(diff.WikiOnly)
	slices.Sort(diff.GrokOnly)
	return diff
}

func citationSet(text string, references []string) map[string]bool {
	set := make(map[string]bool)
	for _, u := range extract.ExtractURLs(text) {
		set[u] = true
	}
	for _, u := range references {
		if u = strings.TrimRight(strings.TrimSpace(u), ".,;:!?"); u != "" {
			set[u] = true
		}
	}
	return set
}

// CitationURLs returns the sorted citation URLs of one side: URLs in the text
// plus the parser's references
func CitationURLs(text string, references []string) []string {
	set := citationSet(text, references)
	urls := make([]string, 0, len(set))
	for u := range set {
		urls = append(urls, u)
	}
	slices.Sort(urls)
	return urls
}
