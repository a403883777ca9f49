// Package bias computes lexicon-based tone metrics for a pair of texts.
package bias

import (
	"regexp"
	"strings"

	"github.com/ppiankov/gwaln/internal/model"
	"github.com/ppiankov/gwaln/internal/textsim"
)

// positiveWords and negativeWords are disjoint
var positiveWords = wordSet(
	"good", "great", "excellent", "positive", "success", "successful", "beneficial",
	"benefit", "improve", "improved", "improvement", "praise", "praised", "acclaimed",
	"celebrated", "remarkable", "outstanding", "innovative", "effective", "strong",
	"progress", "achievement", "achieved", "respected", "popular", "favorable",
	"renowned", "admired", "brilliant", "thriving", "prosperous", "hero", "heroic",
)

var negativeWords = wordSet(
	"bad", "poor", "terrible", "negative", "failure", "failed", "harmful", "harm",
	"worse", "worst", "criticized", "criticism", "condemned", "controversial",
	"scandal", "disastrous", "corrupt", "corruption", "dangerous", "weak", "decline",
	"declined", "crisis", "unpopular", "notorious", "infamous", "disgraced",
	"fraud", "violent", "radical", "extremist", "propaganda", "toxic",
)

// loadedTerms are counted as whole words or phrases
var loadedTerms = []string{
	"critics say",
	"some say",
	"so-called",
	"allegedly",
	"purportedly",
	"controversial",
	"radical",
	"extremist",
	"regime",
	"propaganda",
	"woke",
	"mainstream media",
	"legacy media",
	"debunked",
	"conspiracy",
	"narrative",
	"elites",
	"agenda",
	"notorious",
	"infamous",
	"it is widely believed",
	"many believe",
}

var loadedPatterns = compileTerms(loadedTerms)

var nonTokenChars = regexp.MustCompile(`[^a-z0-9'-]+`)

type termPattern struct {
	term string
	re   *regexp.Regexp
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// compileTerms builds case-insensitive whole-word patterns that accept any
// whitespace run between the words of a phrase.
func compileTerms(terms []string) []termPattern {
	patterns := make([]termPattern, 0, len(terms))
	for _, term := range terms {
		words := strings.Fields(term)
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = regexp.QuoteMeta(w)
		}
		re := regexp.MustCompile(`(?i)(?:^|[^a-z0-9'-])(` + strings.Join(quoted, `\s+`) + `)(?:$|[^a-z0-9'-])`)
		patterns = append(patterns, termPattern{term: term, re: re})
	}
	return patterns
}

// Tokenize lower-cases text, turns every character outside [a-z0-9'-] into
// a separator and returns the non-empty tokens.
func Tokenize(text string) []string {
	return strings.Fields(nonTokenChars.ReplaceAllString(strings.ToLower(text), " "))
}

// Polarity is (positive hits - negative hits) / max(token count, 1)
func Polarity(tokens []string) float64 {
	pos, neg := 0, 0
	for _, t := range tokens {
		if _, ok := positiveWords[t]; ok {
			pos++
		}
		if _, ok := negativeWords[t]; ok {
			neg++
		}
	}
	return float64(pos-neg) / float64(max(len(tokens), 1))
}

// Subjectivity is the share of tokens found in either lexicon
func Subjectivity(tokens []string) float64 {
	hits := 0
	for _, t := range tokens {
		_, pos := positiveWords[t]
		_, neg := negativeWords[t]
		if pos || neg {
			hits++
		}
	}
	return float64(hits) / float64(max(len(tokens), 1))
}

// LoadedTerms counts loaded terms in text. Terms with no occurrence are left out.
func LoadedTerms(text string) map[string]int {
	counts := make(map[string]int)
	for _, p := range loadedPatterns {
		if n := countMatches(p.re, text); n > 0 {
			counts[p.term] = n
		}
	}
	return counts
}

// countMatches counts non-overlapping occurrences. The patterns consume one
// boundary character on each side, so scanning restarts just after the
// phrase itself to let adjacent occurrences share a separator.
func countMatches(re *regexp.Regexp, text string) int {
	count := 0
	for offset := 0; offset <= len(text); {
		loc := re.FindStringSubmatchIndex(text[offset:])
		if loc == nil {
			break
		}
		count++
		offset += loc[3]
	}
	return count
}

// ComputeBiasMetrics compares the tone of grok against wiki.
// Deltas are grok minus wiki, rounded to 3 decimals.
func ComputeBiasMetrics(wikiText, grokText string) model.BiasMetrics {
	wikiTokens := Tokenize(wikiText)
	grokTokens := Tokenize(grokText)

	return model.BiasMetrics{
		PolarityDelta:     textsim.Round3(Polarity(grokTokens) - Polarity(wikiTokens)),
		SubjectivityDelta: textsim.Round3(Subjectivity(grokTokens) - Subjectivity(wikiTokens)),
		LoadedTermsWiki:   LoadedTerms(wikiText),
		LoadedTermsGrok:   LoadedTerms(grokText),
	}
}
