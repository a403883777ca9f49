package parse

import (
	"regexp"
	"strings"

	"github.com/ppiankov/gwaln/internal/extract"
)

var (
	mdHeading   = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*#*\s*$`)
	mdLink      = regexp.MustCompile(`!?\[([^\]]*)\]\(([^)\s]+)[^)]*\)`)
	mdFootnote  = regexp.MustCompile(`\[\^?\d+\]`)
	mdEmphasis  = regexp.MustCompile("[*_`]{1,3}")
	mdListItem  = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)
	mdQuote     = regexp.MustCompile(`^\s*>\s?`)
	mdRule      = regexp.MustCompile(`^\s*(?:-{3,}|\*{3,}|_{3,})\s*$`)
	mdCodeFence = regexp.MustCompile("^\\s*(```|~~~)")
)

// MarkdownParser reads Markdown or plain text articles
type MarkdownParser struct{}

// NewMarkdownParser creates a new Markdown parser
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

// Name returns the parser name
func (p *MarkdownParser) Name() string {
	return "markdown"
}

// CanHandle accepts Markdown and plain text content types and file names
func (p *MarkdownParser) CanHandle(rawURL string, contentType string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "markdown") || strings.HasPrefix(ct, "text/plain") {
		return true
	}
	lower := strings.ToLower(rawURL)
	for _, ext := range []string{".md", ".markdown", ".txt"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Parse splits on ATX headings. A leading level-1 heading is the title.
// Consecutive lines form one paragraph; blank lines, list items and
// block quotes start a new one. Code blocks are skipped.
func (p *MarkdownParser) Parse(content string, rawURL string) (*Result, error) {
	var (
		b       builder
		title   string
		para    []string
		inFence bool
		seen    bool
	)

	flushPara := func() {
		if len(para) > 0 {
			b.paragraph(strings.Join(para, " "))
			para = nil
		}
	}

	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		if mdCodeFence.MatchString(line) {
			flushPara()
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		if m := mdHeading.FindStringSubmatch(line); m != nil {
			flushPara()
			if len(m[1]) == 1 && !seen && title == "" {
				title = plainMarkdown(m[2])
			} else {
				b.heading(plainMarkdown(m[2]))
			}
			seen = true
			continue
		}

		if strings.TrimSpace(line) == "" || mdRule.MatchString(line) {
			flushPara()
			continue
		}
		seen = true

		if mdListItem.MatchString(line) || mdQuote.MatchString(line) {
			flushPara()
			line = mdQuote.ReplaceAllString(mdListItem.ReplaceAllString(line, ""), "")
		}
		para = append(para, plainMarkdown(line))
	}
	flushPara()

	sections, text := b.finish()

	references := []string{}
	for _, m := range mdLink.FindAllStringSubmatch(content, -1) {
		if strings.HasPrefix(m[2], "http://") || strings.HasPrefix(m[2], "https://") {
			references = append(references, m[2])
		}
	}
	references = appendUnique(references, extract.ExtractURLs(content)...)

	return &Result{
		Article: articleOf(title, sections, references),
		Text:    text,
	}, nil
}

// plainMarkdown strips inline link, footnote and emphasis markup
func plainMarkdown(s string) string {
	s = mdLink.ReplaceAllString(s, "$1")
	s = mdFootnote.ReplaceAllString(s, "")
	s = mdEmphasis.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func appendUnique(list []string, items ...string) []string {
	seen := make(map[string]bool, len(list))
	unique := list[:0]
	for _, item := range list {
		if !seen[item] {
			seen[item] = true
			unique = append(unique, item)
		}
	}
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			unique = append(unique, item)
		}
	}
	return unique
}
