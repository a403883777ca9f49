package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// CacheKey generates a cache key from a URL
func CacheKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "gwaln:page:v1:" + hex.EncodeToString(hash[:])
}

// ContentHash fingerprints a pair of source texts. Whitespace runs collapse
// to one space and both ends are trimmed, so reflowed text hashes the same.
func ContentHash(wikiText, grokText string) string {
	hash := sha256.Sum256([]byte(canonical(wikiText) + "\n" + canonical(grokText)))
	return hex.EncodeToString(hash[:])
}

func canonical(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
