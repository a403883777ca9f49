package model

// Claim represents a factual assertion extracted from an article
type Claim struct {
	ClaimID   string `json:"claim_id"`
	Text      string `json:"text"`
	Heuristic string `json:"heuristic,omitempty"` // Which extraction rule matched (e.g., "keyword:founded")
	Sentence  int    `json:"sentence,omitempty"`  // Sentence index in source (0-based)
}

// Section is one heading-delimited block of an article
type Section struct {
	SectionID string `json:"section_id"`
	Heading   string `json:"heading"`
	Text      string `json:"text"`
}

// StructuredArticle is the parsed shape of one source document.
// Produced by a parser and treated as immutable input by the analyzer.
type StructuredArticle struct {
	Title      string    `json:"title,omitempty"`
	URL        string    `json:"url,omitempty"`
	Sections   []Section `json:"sections"`
	Claims     []Claim   `json:"claims"`
	References []string  `json:"references,omitempty"` // Citation URLs found by the parser
}

// Topic identifies what is being compared
type Topic struct {
	ID            string `json:"id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	WikipediaURL  string `json:"wikipedia_url,omitempty" yaml:"wikipedia"`
	GrokipediaURL string `json:"grokipedia_url,omitempty" yaml:"grokipedia"`
}

// DisplayTitle returns the title, falling back to the ID
func (t Topic) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.ID
}
