package extract

import (
	"strings"
	"unicode"

	"github.com/ppiankov/gwaln/internal/textsim"
)

// abbreviations never end a sentence when followed by a period
var abbreviations = map[string]bool{
	"dr": true, "mr": true, "mrs": true, "ms": true, "prof": true,
	"st": true, "jr": true, "sr": true, "vs": true,
	"gen": true, "col": true, "lt": true, "sgt": true, "capt": true,
	"mt": true, "ft": true, "inc": true, "ltd": true, "co": true,
	"e.g": true, "i.e": true,
}

// SplitSentences splits text into sentences (simple heuristic).
// Line breaks always end a sentence; '.', '!' and '?' end one when followed
// by whitespace or the end of the text. A period after a known title or
// dotted initials ("U.S.") ends a sentence only at the end of the line.
func SplitSentences(text string) []string {
	var sentences []string

	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		var current strings.Builder

		for i, r := range runes {
			current.WriteRune(r)

			// Check for sentence terminators
			if r == '.' || r == '!' || r == '?' {
				if i+1 == len(runes) || (unicode.IsSpace(runes[i+1]) && !(r == '.' && isAbbreviation(runes[:i]))) {
					if sentence := strings.TrimSpace(current.String()); sentence != "" {
						sentences = append(sentences, sentence)
					}
					current.Reset()
				}
			}
		}

		// Add remaining text
		if sentence := strings.TrimSpace(current.String()); sentence != "" {
			sentences = append(sentences, sentence)
		}
	}

	return sentences
}

// isAbbreviation reports whether the word ending at the end of prefix is a
// title abbreviation or a run of dotted single-letter initials
func isAbbreviation(prefix []rune) bool {
	start := len(prefix)
	for start > 0 && !unicode.IsSpace(prefix[start-1]) && prefix[start-1] != '(' {
		start--
	}
	word := string(prefix[start:])
	if word == "" {
		return false
	}
	if abbreviations[strings.ToLower(word)] {
		return true
	}

	// U.S, A.D, J.R.R
	parts := strings.Split(word, ".")
	if len(parts) < 2 {
		return false
	}
	for _, part := range parts {
		rs := []rune(part)
		if len(rs) != 1 || !unicode.IsUpper(rs[0]) {
			return false
		}
	}
	return true
}

// NormalizeSentence is the comparison key of a sentence
func NormalizeSentence(s string) string {
	return textsim.Normalize(s)
}

// Words lower-cases text and returns its letter/digit runs
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
