package extract

import (
	"fmt"
	"strings"

	"github.com/ppiankov/gwaln/internal/model"
	"golang.org/x/net/html"
)

// ClaimExtractor picks factual-looking sentences out of plain text
type ClaimExtractor struct {
	keywords []string
}

// NewClaimExtractor creates a new claim extractor
func NewClaimExtractor() *ClaimExtractor {
	return &ClaimExtractor{
		keywords: []string{
			"originated", "origin", "first", "introduced", "invented",
			"according to", "is defined as", "born", "died", "founded",
			"established", "created", "discovered", "developed", "elected",
			"won", "released", "published", "located", "population",
			"consists of", "known as", "became", "is a", "was a",
		},
	}
}

// Extract returns one claim per sentence that contains a keyword or a number.
// Claim IDs are c1, c2, ... in document order after deduplication.
func (e *ClaimExtractor) Extract(text string) []model.Claim {
	sentences := SplitSentences(text)

	var claims []model.Claim
	for i, sentence := range sentences {
		if heuristic := e.match(sentence); heuristic != "" {
			claims = append(claims, model.Claim{
				Text:      sentence,
				Heuristic: heuristic,
				Sentence:  i,
			})
		}
	}

	claims = dedupeClaims(claims)
	for i := range claims {
		claims[i].ClaimID = fmt.Sprintf("c%d", i+1)
	}
	return claims
}

func (e *ClaimExtractor) match(sentence string) string {
	words := " " + strings.Join(Words(sentence), " ") + " "
	for _, keyword := range e.keywords {
		if strings.Contains(words, " "+keyword+" ") {
			return "keyword:" + keyword
		}
	}
	if len(ExtractNumbers(sentence)) > 0 {
		return "numeric"
	}
	return ""
}

// VisibleText extracts text nodes from HTML, skipping scripts/styles
func VisibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}
	return extractVisibleText(doc), nil
}

func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			// Skip script, style, noscript tags
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return strings.TrimSpace(buf.String())
}

// dedupeClaims removes duplicate claims
func dedupeClaims(claims []model.Claim) []model.Claim {
	seen := make(map[string]bool)
	var unique []model.Claim

	for _, claim := range claims {
		key := NormalizeSentence(claim.Text)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, claim)
		}
	}

	return unique
}
