package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ppiankov/gwaln/internal/extract"
)

// HTMLParser is the fallback parser for arbitrary HTML pages
type HTMLParser struct{}

// NewHTMLParser creates a new generic HTML parser
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{}
}

// Name returns the parser name
func (p *HTMLParser) Name() string {
	return "html"
}

// CanHandle always returns true (fallback parser)
func (p *HTMLParser) CanHandle(url string, contentType string) bool {
	return true
}

// Parse reads h1-h3 headings and paragraphs from the main content area.
// The first h1 is the title; references are the page's off-host links.
func (p *HTMLParser) Parse(content string, rawURL string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	references, err := extract.ExtractLinks(content, rawURL)
	if err != nil {
		return nil, err
	}
	if references == nil {
		references = []string{}
	}

	body := doc.Find("article").First()
	if body.Length() == 0 {
		body = doc.Find("main").First()
	}
	if body.Length() == 0 {
		body = doc.Find("body")
	}
	body.Find("script, style, noscript, nav, header, footer, aside, sup").Remove()

	title := ""
	var b builder
	body.Find("h1, h2, h3, p, li").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "h1":
			if title == "" {
				title = collapse(s.Text())
				return
			}
			b.heading(s.Text())
		case "h2", "h3":
			b.heading(s.Text())
		default:
			b.paragraph(s.Text())
		}
	})

	sections, text := b.finish()

	if title == "" {
		title = collapse(doc.Find("title").First().Text())
	}

	return &Result{
		Article: articleOf(title, sections, references),
		Text:    text,
	}, nil
}
