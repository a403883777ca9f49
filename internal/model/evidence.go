package model

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Laws, statutes, academic papers, official documents
	TierSecondary AuthorityTier = 2 // Encyclopedias, major publishers, reputable media
	TierTertiary  AuthorityTier = 3 // Blogs, personal websites, tourism sites
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// CitationStatus is the outcome of checking one sentence against citations
type CitationStatus string

const (
	CitationSupported   CitationStatus = "supported"
	CitationUnsupported CitationStatus = "unsupported"
	CitationError       CitationStatus = "error"
)

// CitationVerification is the per-sentence result of the citation verifier
type CitationVerification struct {
	Sentence      string         `json:"sentence"`
	Status        CitationStatus `json:"status"`
	SupportingURL string         `json:"supporting_url,omitempty"`
	Authority     string         `json:"authority,omitempty"` // Tier of the supporting URL
	Coverage      float64        `json:"coverage,omitempty"`  // Fraction of sentence terms found in the page
	Message       string         `json:"message,omitempty"`
}

// BiasVerdict is the bias verifier's judgement on one event
type BiasVerdict string

const (
	VerdictConfirm   BiasVerdict = "confirm"
	VerdictReject    BiasVerdict = "reject"
	VerdictUncertain BiasVerdict = "uncertain"
	VerdictError     BiasVerdict = "error"
)

// BiasVerification is the per-event result of the bias verifier
type BiasVerification struct {
	EventIndex int         `json:"event_index"`
	Verdict    BiasVerdict `json:"verdict"`
	Confidence *float64    `json:"confidence"` // nil when the provider gave none
	Rationale  string      `json:"rationale"`
	Provider   string      `json:"provider,omitempty"`
	Model      string      `json:"model,omitempty"`
}
