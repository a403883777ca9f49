package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Source is raw article content plus what is known about its format
type Source struct {
	Location    string
	Content     string
	ContentType string
}

// Loader reads article sources from local files or http(s) URLs
type Loader struct {
	fetcher *Fetcher
}

// NewLoader creates a loader that fetches remote sources through fetcher
func NewLoader(fetcher *Fetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

// Load reads one source. Remote content types come from the response header,
// local ones from the file extension, falling back to content sniffing.
func (l *Loader) Load(ctx context.Context, location string) (*Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("empty source location")
	}

	if isRemote(location) {
		if l.fetcher == nil {
			return nil, fmt.Errorf("no fetcher for %s", location)
		}
		result, err := l.fetcher.FetchWithRetry(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", location, err)
		}
		contentType := result.ContentType
		if contentType == "" {
			contentType = typeByExtension(location, result.Body)
		}
		return &Source{Location: result.FinalURL, Content: result.Body, ContentType: contentType}, nil
	}

	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	content := string(data)
	return &Source{Location: location, Content: content, ContentType: typeByExtension(location, content)}, nil
}

func isRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func typeByExtension(location, content string) string {
	switch strings.ToLower(filepath.Ext(location)) {
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	case ".html", ".htm":
		return "text/html"
	}
	return http.DetectContentType([]byte(content))
}
