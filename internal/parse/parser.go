// Package parse turns raw article content into a StructuredArticle.
package parse

import (
	"fmt"
	"strings"

	"github.com/ppiankov/gwaln/internal/extract"
	"github.com/ppiankov/gwaln/internal/model"
)

// LeadHeading names the untitled section that opens an article
const LeadHeading = "Introduction"

// Parser defines the interface for format-specific article parsers
type Parser interface {
	// Name returns the parser name
	Name() string

	// CanHandle checks if this parser can handle the given URL/content type
	CanHandle(url string, contentType string) bool

	// Parse builds the structured article from raw content
	Parse(content string, url string) (*Result, error)
}

// Result is a parsed article together with its flattened body text
type Result struct {
	Article model.StructuredArticle
	Text    string
}

// Registry manages parsers
type Registry struct {
	parsers []Parser
	generic Parser
	claims  *extract.ClaimExtractor
}

// NewRegistry creates a new parser registry
func NewRegistry() *Registry {
	registry := &Registry{
		parsers: make([]Parser, 0),
		claims:  extract.NewClaimExtractor(),
	}

	// Register built-in parsers
	registry.Register(NewWikipediaParser())
	registry.Register(NewMarkdownParser())

	// Set generic HTML parser as fallback
	registry.generic = NewHTMLParser()

	return registry
}

// Register registers a new parser
func (r *Registry) Register(parser Parser) {
	r.parsers = append(r.parsers, parser)
}

// FindParser finds the best parser for the given URL and content type
func (r *Registry) FindParser(url string, contentType string) Parser {
	for _, parser := range r.parsers {
		if parser.CanHandle(url, contentType) {
			return parser
		}
	}
	return r.generic
}

// Parse selects a parser, runs it and numbers the claims of the result.
// title is used when the content carries no title of its own.
func (r *Registry) Parse(content, url, contentType, title string) (*Result, error) {
	parser := r.FindParser(url, contentType)

	result, err := parser.Parse(content, url)
	if err != nil {
		return nil, fmt.Errorf("%s parser: %w", parser.Name(), err)
	}

	if result.Article.Title == "" {
		result.Article.Title = title
	}
	result.Article.URL = url
	result.Article.Claims = r.claims.Extract(result.Text)
	if result.Article.Claims == nil {
		result.Article.Claims = []model.Claim{}
	}
	if result.Article.References == nil {
		result.Article.References = []string{}
	}

	return result, nil
}

// builder accumulates sections in document order
type builder struct {
	sections []model.Section
	current  *model.Section
	paras    []string
}

func (b *builder) heading(text string) {
	b.flush()
	b.current = &model.Section{Heading: collapse(text)}
}

func (b *builder) paragraph(text string) {
	text = collapse(text)
	if text == "" {
		return
	}
	if b.current == nil {
		b.current = &model.Section{Heading: LeadHeading}
	}
	b.paras = append(b.paras, text)
}

func (b *builder) flush() {
	if b.current != nil && len(b.paras) > 0 {
		b.current.SectionID = fmt.Sprintf("s%d", len(b.sections)+1)
		b.current.Text = strings.Join(b.paras, "\n")
		b.sections = append(b.sections, *b.current)
	}
	b.current = nil
	b.paras = nil
}

// finish returns the sections and the flattened body text
func (b *builder) finish() ([]model.Section, string) {
	b.flush()
	texts := make([]string, len(b.sections))
	for i, s := range b.sections {
		texts[i] = s.Text
	}
	if b.sections == nil {
		b.sections = []model.Section{}
	}
	return b.sections, strings.Join(texts, "\n")
}

// collapse trims text and collapses whitespace runs
func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func articleOf(title string, sections []model.Section, references []string) model.StructuredArticle {
	return model.StructuredArticle{
		Title:      title,
		Sections:   sections,
		References: references,
	}
}
