package validate

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ppiankov/gwaln/internal/model"
)

// AuthorityClassifier ranks citation URLs into authority tiers. It breaks
// coverage ties when several citations support the same sentence.
type AuthorityClassifier struct {
	domainMap    map[string]model.AuthorityTier
	primary      []string
	secondary    []string
	pathPatterns []compiledPattern
}

type compiledPattern struct {
	pattern *regexp.Regexp
	tier    model.AuthorityTier
}

// academicSuffixes are treated as primary when no rule matched
var academicSuffixes = []string{".gov", ".edu", ".mil", ".ac.uk", ".edu.au"}

// NewAuthorityClassifier creates a classifier; nil uses the default domains
func NewAuthorityClassifier(config *model.AuthorityConfig) *AuthorityClassifier {
	if config == nil {
		config = &model.DefaultConfig().Authority
	}

	classifier := &AuthorityClassifier{
		domainMap: make(map[string]model.AuthorityTier, len(config.DomainMap)),
		primary:   lowerAll(config.PrimaryDomains),
		secondary: lowerAll(config.SecondaryDomains),
	}

	for domain, tier := range config.DomainMap {
		classifier.domainMap[strings.ToLower(domain)] = parseTierString(tier)
	}

	// Invalid patterns are skipped
	for _, pathPattern := range config.PathPatterns {
		if re, err := regexp.Compile(pathPattern.Pattern); err == nil {
			classifier.pathPatterns = append(classifier.pathPatterns, compiledPattern{
				pattern: re,
				tier:    parseTierString(pathPattern.Tier),
			})
		}
	}

	return classifier
}

// Classify classifies a URL. Explicit domain mappings win over the primary
// and secondary lists, which win over path patterns and TLD heuristics.
func (a *AuthorityClassifier) Classify(rawURL string) model.AuthorityTier {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return model.TierTertiary
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")

	if tier, ok := a.domainMap[host]; ok {
		return tier
	}
	if matchesDomain(host, a.primary) {
		return model.TierPrimary
	}
	if matchesDomain(host, a.secondary) {
		return model.TierSecondary
	}

	for _, cp := range a.pathPatterns {
		if cp.pattern.MatchString(parsed.Path) {
			return cp.tier
		}
	}

	for _, suffix := range academicSuffixes {
		if strings.HasSuffix(host, suffix) {
			return model.TierPrimary
		}
	}

	return model.TierTertiary
}

// matchesDomain reports whether host is one of domains or a subdomain of one
func matchesDomain(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}

// parseTierString converts a tier string to AuthorityTier
func parseTierString(tier string) model.AuthorityTier {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case "primary", "1":
		return model.TierPrimary
	case "secondary", "2":
		return model.TierSecondary
	default:
		return model.TierTertiary
	}
}
