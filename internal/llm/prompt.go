package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/gwaln/internal/model"
)

// maxContextRunes bounds how much of each article is quoted in a prompt
const maxContextRunes = 6000

const systemPrompt = "You review automated bias detections for a Wikipedia vs Grokipedia comparison. " +
	"Judge only whether the flagged Grokipedia sentence uses loaded or slanted language relative to the Wikipedia text. " +
	"Reply with a single JSON object and nothing else."

// BuildPrompt lists the events of one batch with both article texts as context.
// Events are numbered by their index in the full event list.
func BuildPrompt(events []IndexedEvent, wikiText, grokText string) string {
	var b strings.Builder

	b.WriteString("Wikipedia text:\n")
	b.WriteString(truncate(wikiText, maxContextRunes))
	b.WriteString("\n\nGrokipedia text:\n")
	b.WriteString(truncate(grokText, maxContextRunes))
	b.WriteString("\n\nFlagged events:\n")

	for _, e := range events {
		fmt.Fprintf(&b, "- event_index %d: %q", e.Index, e.Event.Evidence.Grok)
		if len(e.Event.Tags) > 0 {
			fmt.Fprintf(&b, " (terms: %s)", strings.Join(e.Event.Tags, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString(`
For every event return one verdict:
- "confirm" when the sentence is slanted compared to Wikipedia
- "reject" when the wording is neutral or matches Wikipedia's framing
- "uncertain" when the context is insufficient

Respond as {"verdicts":[{"event_index":<int>,"verdict":"confirm|reject|uncertain","confidence":<0..1>,"rationale":"<one sentence>"}]}`)

	return b.String()
}

// IndexedEvent is a bias event with its position in the payload's event list
type IndexedEvent struct {
	Index int
	Event model.DiscrepancyRecord
}

type verdictEnvelope struct {
	Verdicts []rawVerdict `json:"verdicts"`
}

type rawVerdict struct {
	EventIndex int      `json:"event_index"`
	Verdict    string   `json:"verdict"`
	Confidence *float64 `json:"confidence"`
	Rationale  string   `json:"rationale"`
}

// ParseVerdicts extracts the verdict list from a provider reply. Code fences
// and text around the outermost JSON object are tolerated; a bare array is
// accepted too.
func ParseVerdicts(text string) ([]rawVerdict, error) {
	text = strings.TrimSpace(text)

	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		var env verdictEnvelope
		if err := json.Unmarshal([]byte(text[start:end+1]), &env); err == nil && env.Verdicts != nil {
			return env.Verdicts, nil
		}
	}

	if start, end := strings.Index(text, "["), strings.LastIndex(text, "]"); start >= 0 && end > start {
		var list []rawVerdict
		if err := json.Unmarshal([]byte(text[start:end+1]), &list); err == nil {
			return list, nil
		}
	}

	return nil, fmt.Errorf("no verdict JSON in response")
}

// normalizeVerdict maps a provider verdict onto the closed verdict set.
// Anything unrecognised becomes uncertain.
func normalizeVerdict(v string) model.BiasVerdict {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "confirm", "confirmed", "biased", "yes":
		return model.VerdictConfirm
	case "reject", "rejected", "neutral", "no":
		return model.VerdictReject
	default:
		return model.VerdictUncertain
	}
}

// clampConfidence bounds a confidence to [0,1]; missing or NaN stays nil
func clampConfidence(c *float64) *float64 {
	if c == nil || *c != *c {
		return nil
	}
	v := min(max(*c, 0), 1)
	return &v
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + " ..."
}
