package worker

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/gwaln/internal/model"
	"github.com/ppiankov/gwaln/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// Comparer compares one topic
type Comparer interface {
	Compare(ctx context.Context, topic model.Topic, opts pipeline.CompareOptions) (*pipeline.Result, error)
}

// CompareJob compares one topic of a batch
type CompareJob struct {
	Index    int
	Topic    model.Topic
	Options  pipeline.CompareOptions
	Comparer Comparer
}

// Execute executes the comparison
func (j *CompareJob) Execute(ctx context.Context) Result {
	result, err := j.Comparer.Compare(ctx, j.Topic, j.Options)
	return &TopicResult{
		Index:  j.Index,
		Topic:  j.Topic,
		Result: result,
		Error:  err,
	}
}

// TopicResult is the outcome of one batch entry
type TopicResult struct {
	Index  int
	Topic  model.Topic
	Result *pipeline.Result // nil on error
	Error  error
}

// GetError returns the error from the comparison
func (r *TopicResult) GetError() error {
	return r.Error
}

// BatchProcessor compares many topics concurrently
type BatchProcessor struct {
	comparer    Comparer
	concurrency int
	options     pipeline.CompareOptions
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(comparer Comparer, concurrency int, opts pipeline.CompareOptions) *BatchProcessor {
	return &BatchProcessor{
		comparer:    comparer,
		concurrency: concurrency,
		options:     opts,
	}
}

// ProcessTopics compares every topic and returns results in topic order.
// Topics that never ran because ctx was cancelled carry ctx's error.
func (b *BatchProcessor) ProcessTopics(ctx context.Context, topics []model.Topic) []*TopicResult {
	if len(topics) == 0 {
		return []*TopicResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, topic := range topics {
		job := &CompareJob{
			Index:    i,
			Topic:    topic,
			Options:  b.options,
			Comparer: b.comparer,
		}
		if !pool.Submit(job) {
			pool.Shutdown()
			break
		}
	}

	ordered := make([]*TopicResult, len(topics))
	for _, result := range pool.Wait() {
		tr := result.(*TopicResult)
		ordered[tr.Index] = tr
	}

	for i, tr := range ordered {
		if tr == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("not run")
			}
			ordered[i] = &TopicResult{Index: i, Topic: topics[i], Error: err}
		}
	}

	return ordered
}

// ProcessFile reads a topics file and compares every topic
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*TopicResult, error) {
	topics, err := ReadTopicsFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read topics: %w", err)
	}

	return b.ProcessTopics(ctx, topics), nil
}

// topicsFile is the on-disk shape of a batch:
//
//	topics:
//	  - id: mars
//	    title: Mars
//	    wikipedia: https://en.wikipedia.org/wiki/Mars
//	    grokipedia: https://grokipedia.com/page/Mars
type topicsFile struct {
	Topics []model.Topic `yaml:"topics"`
}

// ReadTopicsFile reads topics from YAML. Entries without an id or either
// source are rejected; repeated ids keep the first entry.
func ReadTopicsFile(filePath string) ([]model.Topic, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	var file topicsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	topics := make([]model.Topic, 0, len(file.Topics))
	seen := make(map[string]bool)

	for i, t := range file.Topics {
		t.ID = strings.TrimSpace(t.ID)
		t.Title = strings.TrimSpace(t.Title)
		t.WikipediaURL = strings.TrimSpace(t.WikipediaURL)
		t.GrokipediaURL = strings.TrimSpace(t.GrokipediaURL)

		switch {
		case t.ID == "":
			return nil, fmt.Errorf("topic %d: missing id", i+1)
		case t.WikipediaURL == "":
			return nil, fmt.Errorf("topic %s: missing wikipedia source", t.ID)
		case t.GrokipediaURL == "":
			return nil, fmt.Errorf("topic %s: missing grokipedia source", t.ID)
		}

		// Deduplicate topics
		if !seen[t.ID] {
			seen[t.ID] = true
			topics = append(topics, t)
		}
	}

	return topics, nil
}
