package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/gwaln/internal/model"
)

// nowFunc is the clock used for freshness checks (overridden in tests)
var nowFunc = time.Now

// Status is the outcome of a cache probe
type Status string

const (
	StatusMissing  Status = "missing"
	StatusFresh    Status = "fresh"
	StatusStale    Status = "stale"
	StatusMismatch Status = "mismatch"
	StatusInvalid  Status = "invalid"
)

// ProbeResult describes what a cache file holds relative to the current sources
type ProbeResult struct {
	Status      Status                 `json:"status"`
	Path        string                 `json:"path"`
	ContentHash string                 `json:"content_hash,omitempty"`
	Timestamp   time.Time              `json:"timestamp,omitempty"`
	Age         time.Duration          `json:"age,omitempty"`
	Document    model.AnalysisDocument `json:"-"`
	Err         error                  `json:"-"`
}

// Usable reports whether the cached document can be served as is
func (r ProbeResult) Usable() bool {
	return r.Status == StatusFresh
}

// Probe reads the cache file at path once and classifies it. A document is
// fresh only when its content hash equals expectedHash and it is no older
// than ttl. A hash difference is always a mismatch, never stale.
// Probe never writes.
func Probe(path, expectedHash string, ttl time.Duration) ProbeResult {
	result := ProbeResult{Path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		result.Status = StatusMissing
		return result
	}
	if err != nil {
		result.Status = StatusInvalid
		result.Err = fmt.Errorf("read cache file: %w", err)
		return result
	}

	doc, err := model.DecodeAnalysisDocument(data)
	if err != nil {
		result.Status = StatusInvalid
		result.Err = err
		return result
	}

	result.Document = doc
	result.ContentHash = doc.ContentHash()
	result.Timestamp = doc.Timestamp()

	if result.ContentHash == "" || result.Timestamp.IsZero() {
		result.Status = StatusInvalid
		result.Err = errors.New("cache file has no content hash or timestamp")
		return result
	}

	if result.ContentHash != expectedHash {
		result.Status = StatusMismatch
		return result
	}

	result.Age = nowFunc().Sub(result.Timestamp)
	if result.Age > ttl {
		result.Status = StatusStale
		return result
	}

	result.Status = StatusFresh
	return result
}

// Write persists a document as indented JSON, creating parent directories
func Write(path string, doc model.AnalysisDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	// Readers see the old file or the new one, never a partial write
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod cache file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename cache file: %w", err)
	}

	return nil
}

// DiskCache keeps one analysis document per topic under a directory
type DiskCache struct {
	dir string
	ttl time.Duration
}

// NewDiskCache creates a new disk cache
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{
		dir: dir,
		ttl: ttl,
	}
}

// Path returns the cache file path for a topic
func (c *DiskCache) Path(topicID string) string {
	return filepath.Join(c.dir, sanitize(topicID)+".json")
}

// Probe checks the cached document of a topic against the current content hash
func (c *DiskCache) Probe(topicID, expectedHash string) ProbeResult {
	return Probe(c.Path(topicID), expectedHash, c.ttl)
}

// Write stores the document of a topic
func (c *DiskCache) Write(topicID string, doc model.AnalysisDocument) error {
	return Write(c.Path(topicID), doc)
}

// Delete removes the cached document of a topic
func (c *DiskCache) Delete(topicID string) error {
	err := os.Remove(c.Path(topicID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes all cached documents
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// Entry summarises one cached document without a content hash to compare against
type Entry struct {
	TopicID     string    `json:"topic_id"`
	Path        string    `json:"path"`
	Schema      string    `json:"schema,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
	Expired     bool      `json:"expired"`
	Invalid     bool      `json:"invalid,omitempty"`
}

// List reads every cached document, sorted by topic ID
func (c *DiskCache) List() ([]Entry, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	entries := make([]Entry, 0, len(matches))
	for _, path := range matches {
		entry := Entry{
			TopicID: strings.TrimSuffix(filepath.Base(path), ".json"),
			Path:    path,
		}

		data, err := os.ReadFile(path)
		if err != nil {
			entry.Invalid = true
			entries = append(entries, entry)
			continue
		}
		doc, err := model.DecodeAnalysisDocument(data)
		if err != nil {
			entry.Invalid = true
			entries = append(entries, entry)
			continue
		}

		entry.Schema = doc.SchemaTag()
		entry.ContentHash = doc.ContentHash()
		entry.Timestamp = doc.Timestamp()
		entry.Expired = nowFunc().Sub(entry.Timestamp) > c.ttl
		entries = append(entries, entry)
	}

	return entries, nil
}

// sanitize maps a topic ID onto a safe file name
func sanitize(topicID string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, topicID)
	name = strings.Trim(name, ".")
	if name == "" {
		return "_"
	}
	return name
}
