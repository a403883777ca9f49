package parse

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// skippedSections hold apparatus rather than article prose
var skippedSections = map[string]bool{
	"references":      true,
	"notes":           true,
	"citations":       true,
	"sources":         true,
	"see also":        true,
	"external links":  true,
	"further reading": true,
	"bibliography":    true,
}

// WikipediaParser reads rendered Wikipedia article HTML
type WikipediaParser struct{}

// NewWikipediaParser creates a new Wikipedia parser
func NewWikipediaParser() *WikipediaParser {
	return &WikipediaParser{}
}

// Name returns the parser name
func (p *WikipediaParser) Name() string {
	return "wikipedia"
}

// CanHandle checks if this is a Wikipedia URL
func (p *WikipediaParser) CanHandle(rawURL string, contentType string) bool {
	return strings.Contains(rawURL, "wikipedia.org")
}

// Parse extracts lead and h2/h3 sections from the article body. External
// citation links are collected before footnote markers are stripped.
func (p *WikipediaParser) Parse(content string, rawURL string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	body := doc.Find(".mw-parser-output").First()
	if body.Length() == 0 {
		body = doc.Find("body")
	}

	references := externalLinks(body.Find("a.external"), rawURL)

	body.Find("sup.reference, .mw-editsection, table, style, script, .reflist, .navbox, .hatnote").Remove()

	var b builder
	skipping := false
	body.Find("h2, h3, p").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "p" {
			if !skipping {
				b.paragraph(s.Text())
			}
			return
		}
		heading := collapse(s.Text())
		skipping = skippedSections[strings.ToLower(heading)]
		if !skipping {
			b.heading(heading)
		}
	})

	sections, text := b.finish()

	title := collapse(doc.Find("#firstHeading").First().Text())
	if title == "" {
		title = strings.TrimSuffix(collapse(doc.Find("title").First().Text()), " - Wikipedia")
	}

	return &Result{
		Article: articleOf(title, sections, references),
		Text:    text,
	}, nil
}

// externalLinks resolves the href of each anchor against base and keeps
// unique http(s) URLs in document order
func externalLinks(anchors *goquery.Selection, base string) []string {
	baseURL, err := url.Parse(base)
	if err != nil {
		baseURL = &url.URL{}
	}

	seen := make(map[string]bool)
	links := []string{}
	anchors.Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		resolved := baseURL.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if u := resolved.String(); !seen[u] {
			seen[u] = true
			links = append(links, u)
		}
	})
	return links
}
