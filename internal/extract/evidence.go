package extract

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"'\)\]]+`)

// ExtractURLs returns the http(s) URLs mentioned in plain text, in order of
// first appearance. Trailing sentence punctuation is not part of the URL.
func ExtractURLs(text string) []string {
	var urls []string
	for _, match := range urlPattern.FindAllString(text, -1) {
		urls = append(urls, strings.TrimRight(match, ".,;:!?"))
	}
	return dedupeURLs(urls)
}

// ExtractLinks returns the external links of an HTML document. Relative
// links are resolved against sourceURL; links back to the same host are
// navigation, not citations, and are dropped.
func ExtractLinks(htmlContent string, sourceURL string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(sourceURL)
	if err != nil {
		return nil, err
	}

	var links []string
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				resolved := resolveURL(baseURL, strings.TrimSpace(attr.Val))
				if resolved == "" {
					continue
				}
				if parsed, err := url.Parse(resolved); err == nil && baseURL.Host != "" && parsed.Host == baseURL.Host {
					continue
				}
				links = append(links, resolved)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return dedupeURLs(links), nil
}

// resolveURL resolves a relative URL against a base URL
func resolveURL(base *url.URL, href string) string {
	if href == "" {
		return ""
	}

	// Skip anchors
	if strings.HasPrefix(href, "#") {
		return ""
	}

	// Skip javascript: and mailto: links
	if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)

	// Only keep http/https URLs
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	return resolved.String()
}

// dedupeURLs removes duplicate URLs, keeping the first occurrence
func dedupeURLs(urls []string) []string {
	seen := make(map[string]bool)
	var unique []string

	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			unique = append(unique, u)
		}
	}

	return unique
}
