package extract

import (
	"regexp"
	"slices"
	"strings"
)

var entityPattern = regexp.MustCompile(`\p{Lu}[\p{L}\p{M}'’-]*(?:[ \t]+\p{Lu}[\p{L}\p{M}'’-]*)*`)

// leadingWords are capitalised only because they open a sentence
var leadingWords = map[string]bool{
	"a": true, "an": true, "the": true, "this": true, "that": true, "these": true,
	"those": true, "in": true, "on": true, "at": true, "of": true, "for": true,
	"from": true, "by": true, "with": true, "after": true, "before": true,
	"during": true, "since": true, "when": true, "while": true, "however": true,
	"although": true, "it": true, "its": true, "he": true, "she": true, "they": true,
	"his": true, "her": true, "their": true, "we": true, "our": true, "i": true,
	"as": true, "but": true, "and": true, "or": true, "if": true, "some": true,
	"many": true, "most": true, "there": true, "then": true, "also": true,
}

// ExtractEntities returns the capitalised phrases of text, deduplicated and
// sorted. A phrase opening a sentence loses its leading function words, and a
// lone sentence-initial word is not considered an entity.
func ExtractEntities(text string) []string {
	seen := make(map[string]bool)

	for _, sentence := range SplitSentences(text) {
		for _, loc := range entityPattern.FindAllStringIndex(sentence, -1) {
			words := strings.Fields(sentence[loc[0]:loc[1]])
			if loc[0] == 0 {
				for len(words) > 0 && leadingWords[strings.ToLower(words[0])] {
					words = words[1:]
				}
				if len(words) == 1 && words[0] == strings.Fields(sentence)[0] {
					continue
				}
			}
			if len(words) == 0 {
				continue
			}
			entity := strings.Trim(strings.Join(words, " "), "'’-")
			if len([]rune(entity)) < 2 {
				continue
			}
			seen[entity] = true
		}
	}

	entities := make([]string, 0, len(seen))
	for e := range seen {
		entities = append(entities, e)
	}
	slices.Sort(entities)
	return entities
}
