package parse

import (
	"reflect"
	"testing"

	"github.com/ppiankov/gwaln/internal/model"
)

const wikipediaPage = `<html><head><title>Sky - Wikipedia</title></head><body>
<h1 id="firstHeading">Sky</h1>
<div class="mw-parser-output">
<table class="infobox"><tr><td>Infobox text.</td></tr></table>
<p>The sky is blue.<sup class="reference"><a href="#cite_note-1">[1]</a></sup> It covers the Earth.</p>
<div class="mw-heading mw-heading2"><h2 id="History">History</h2><span class="mw-editsection">[edit]</span></div>
<p>People have watched the sky since 3000 BC.</p>
<h3>Modern era</h3>
<p>Satellites orbit above.</p>
<h2>References</h2>
<ol class="references"><li><p>Source note.</p><a class="external text" href="https://nasa.gov/sky">NASA</a></li></ol>
<p>See <a class="external" href="https://example.org/x">x</a>.</p>
</div></body></html>`

func TestWikipediaParser_Parse(t *testing.T) {
	result, err := NewWikipediaParser().Parse(wikipediaPage, "https://en.wikipedia.org/wiki/Sky")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Article.Title != "Sky" {
		t.Errorf("Expected title Sky, got %q", result.Article.Title)
	}

	wantSections := []model.Section{
		{SectionID: "s1", Heading: "Introduction", Text: "The sky is blue. It covers the Earth."},
		{SectionID: "s2", Heading: "History", Text: "People have watched the sky since 3000 BC."},
		{SectionID: "s3", Heading: "Modern era", Text: "Satellites orbit above."},
	}
	if !reflect.DeepEqual(result.Article.Sections, wantSections) {
		t.Errorf("Sections = %+v, want %+v", result.Article.Sections, wantSections)
	}

	wantRefs := []string{"https://nasa.gov/sky", "https://example.org/x"}
	if !reflect.DeepEqual(result.Article.References, wantRefs) {
		t.Errorf("References = %v, want %v", result.Article.References, wantRefs)
	}

	wantText := "The sky is blue. It covers the Earth.\nPeople have watched the sky since 3000 BC.\nSatellites orbit above."
	if result.Text != wantText {
		t.Errorf("Text = %q, want %q", result.Text, wantText)
	}
}

func TestMarkdownParser_Parse(t *testing.T) {
	content := "# Sky\n\n" +
		"The sky is **blue**.[1] It covers the [Earth](https://en.wikipedia.org/wiki/Earth).\n\n" +
		"## History\n" +
		"People have watched\n" +
		"the sky since 3000 BC.\n\n" +
		"- Satellites orbit above.\n\n" +
		"~~~\ncode here.\n~~~\n" +
		"See https://nasa.gov/sky.\n"

	result, err := NewMarkdownParser().Parse(content, "sky.md")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Article.Title != "Sky" {
		t.Errorf("Expected title Sky, got %q", result.Article.Title)
	}

	wantSections := []model.Section{
		{SectionID: "s1", Heading: "Introduction", Text: "The sky is blue. It covers the Earth."},
		{SectionID: "s2", Heading: "History", Text: "People have watched the sky since 3000 BC.\nSatellites orbit above.\nSee https://nasa.gov/sky."},
	}
	if !reflect.DeepEqual(result.Article.Sections, wantSections) {
		t.Errorf("Sections = %+v, want %+v", result.Article.Sections, wantSections)
	}

	wantRefs := []string{"https://en.wikipedia.org/wiki/Earth", "https://nasa.gov/sky"}
	if !reflect.DeepEqual(result.Article.References, wantRefs) {
		t.Errorf("References = %v, want %v", result.Article.References, wantRefs)
	}
}

func TestMarkdownParser_PlainText(t *testing.T) {
	result, err := NewMarkdownParser().Parse("The sky is blue. Critics say it is not.", "sky.txt")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Article.Title != "" {
		t.Errorf("Expected no title, got %q", result.Article.Title)
	}
	if result.Text != "The sky is blue. Critics say it is not." {
		t.Errorf("Unexpected text %q", result.Text)
	}
	if len(result.Article.Sections) != 1 || result.Article.Sections[0].Heading != LeadHeading {
		t.Errorf("Expected a single lead section, got %+v", result.Article.Sections)
	}
}

func TestHTMLParser_Parse(t *testing.T) {
	page := `<html><head><title>Page Title</title></head><body>
<nav><a href="/home">Home</a></nav>
<article>
<h1>Grok Sky</h1>
<p>The sky is blue.</p>
<h2>History</h2>
<p>Seen <a href="https://nasa.gov/sky">since</a> 3000 BC.</p>
<ul><li>Satellites orbit above.</li></ul>
</article>
<script>var x = 1;</script>
</body></html>`

	result, err := NewHTMLParser().Parse(page, "https://grokipedia.com/page/Sky")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Article.Title != "Grok Sky" {
		t.Errorf("Expected title from first h1, got %q", result.Article.Title)
	}

	wantSections := []model.Section{
		{SectionID: "s1", Heading: "Introduction", Text: "The sky is blue."},
		{SectionID: "s2", Heading: "History", Text: "Seen since 3000 BC.\nSatellites orbit above."},
	}
	if !reflect.DeepEqual(result.Article.Sections, wantSections) {
		t.Errorf("Sections = %+v, want %+v", result.Article.Sections, wantSections)
	}

	if !reflect.DeepEqual(result.Article.References, []string{"https://nasa.gov/sky"}) {
		t.Errorf("Expected only the off-host link, got %v", result.Article.References)
	}
}

func TestRegistry_FindParser(t *testing.T) {
	registry := NewRegistry()

	tests := []struct {
		url         string
		contentType string
		want        string
	}{
		{"https://en.wikipedia.org/wiki/Sky", "text/html", "wikipedia"},
		{"notes/sky.md", "", "markdown"},
		{"https://example.com/raw", "text/plain; charset=utf-8", "markdown"},
		{"https://grokipedia.com/page/Sky", "text/html", "html"},
	}

	for _, tt := range tests {
		if got := registry.FindParser(tt.url, tt.contentType).Name(); got != tt.want {
			t.Errorf("FindParser(%q, %q) = %s, want %s", tt.url, tt.contentType, got, tt.want)
		}
	}
}

func TestRegistry_Parse(t *testing.T) {
	registry := NewRegistry()

	result, err := registry.Parse(wikipediaPage, "https://en.wikipedia.org/wiki/Sky", "text/html", "fallback")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Article.URL != "https://en.wikipedia.org/wiki/Sky" {
		t.Errorf("Expected URL to be set, got %q", result.Article.URL)
	}
	if len(result.Article.Claims) != 1 || result.Article.Claims[0].ClaimID != "c1" {
		t.Fatalf("Expected one claim c1, got %+v", result.Article.Claims)
	}
	if result.Article.Claims[0].Text != "People have watched the sky since 3000 BC." {
		t.Errorf("Unexpected claim %q", result.Article.Claims[0].Text)
	}
}

func TestRegistry_Parse_EmptyContentUsesFallbackTitle(t *testing.T) {
	result, err := NewRegistry().Parse("", "https://grokipedia.com/page/Sky", "text/html", "Sky")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Article.Title != "Sky" {
		t.Errorf("Expected fallback title, got %q", result.Article.Title)
	}
	if result.Article.Sections == nil || result.Article.Claims == nil || result.Article.References == nil {
		t.Errorf("Expected non-nil empty collections, got %+v", result.Article)
	}
}
